package audit

import (
	"context"
	"log/slog"
	"time"

	"github.com/medinfohub/med-portal/internal/app"
	"github.com/medinfohub/med-portal/internal/config"
	"github.com/medinfohub/med-portal/internal/domain"
)

// Manager is the single entry point for writing and reading tamper-evident
// audit events. Every business mutation on the platform funnels through Log.
type Manager struct {
	cfg *config.Config
	bus EventBus

	signer *Signer
	db     DatabaseRepo
}

func NewAuditManager(cfg *config.Config, bus EventBus, signer *Signer, db DatabaseRepo) (*Manager, error) {
	m := &Manager{
		cfg: cfg,
		bus: bus,

		signer: signer,
		db:     db,
	}

	return m, nil
}

// region write-path

// Log captures one audit event for the given entity mutation or access.
// The caller identity is taken from the context. On success the id of the
// persisted event is returned; a filtered event (disabled capture, read
// logging off) returns an empty id and no error.
//
// A signing or persistence failure is returned to the caller so that the
// surrounding business operation can decide whether to abort. Log itself
// never swallows the error; honoring fail_open is the caller's job.
func (m Manager) Log(
	ctx context.Context,
	eventType domain.AuditEventType,
	entityType, entityId string,
	oldValues, newValues, reason string,
) (string, error) {
	if !m.cfg.Audit.Enabled {
		return "", nil
	}
	if eventType == domain.AuditEventTypeRead && !m.cfg.Audit.LogReadOperations {
		return "", nil
	}
	if eventType == domain.AuditEventTypeSystem && !m.cfg.Audit.LogSystemEvents {
		return "", nil
	}

	caller := domain.GetCallerInfo(ctx)
	event := domain.NewAuditEvent(caller, eventType, entityType, entityId, oldValues, newValues, reason)

	if m.signer.CanSign() {
		signature, err := m.signer.Sign(ctx, event.GetDataForSigning())
		if err != nil {
			m.bus.Publish(app.TopicAuditWriteFailed, event.Id)
			return "", err
		}
		event = event.WithSignature(signature, m.signer.Algorithm())
	} else if m.cfg.Audit.RequireSignatures {
		m.bus.Publish(app.TopicAuditWriteFailed, event.Id)
		return "", &domain.SigningError{Err: domain.ErrInvalidData}
	}

	if err := ctx.Err(); err != nil {
		return "", err
	}

	if err := m.db.CreateAuditEvent(ctx, &event); err != nil {
		slog.Error("[AUDIT] failed to persist audit event",
			"id", event.Id,
			"entityType", entityType,
			"entityId", entityId,
			"error", err)
		m.bus.Publish(app.TopicAuditWriteFailed, event.Id)
		return "", err
	}

	slog.Debug("[AUDIT] captured audit event",
		"id", event.Id,
		"type", eventType,
		"entityType", entityType,
		"entityId", entityId,
		"user", event.UserId)
	m.bus.Publish(app.TopicAuditCreated, event)

	return event.Id, nil
}

// endregion write-path

// region read-path

// GetEvent returns a single audit event. Restricted to admins.
func (m Manager) GetEvent(ctx context.Context, id string) (*domain.AuditEvent, error) {
	if err := domain.ValidateAdminAccessRights(ctx); err != nil {
		return nil, err
	}

	return m.db.GetAuditEvent(ctx, id)
}

// GetTrail returns the complete history of one entity, oldest first.
// Restricted to admins.
func (m Manager) GetTrail(ctx context.Context, entityType, entityId string, from, to time.Time) ([]domain.AuditEvent, error) {
	if err := domain.ValidateAdminAccessRights(ctx); err != nil {
		return nil, err
	}

	return m.db.GetAuditTrail(ctx, entityType, entityId, from, to)
}

// GetEventsInRange returns all audit events in the given time window,
// system-wide. Restricted to admins.
func (m Manager) GetEventsInRange(ctx context.Context, from, to time.Time) ([]domain.AuditEvent, error) {
	if err := domain.ValidateAdminAccessRights(ctx); err != nil {
		return nil, err
	}

	return m.db.GetAuditEvents(ctx, from, to)
}

// GetCorrelated returns all audit events that belong to one logical request.
// Restricted to admins.
func (m Manager) GetCorrelated(ctx context.Context, correlationId string) ([]domain.AuditEvent, error) {
	if err := domain.ValidateAdminAccessRights(ctx); err != nil {
		return nil, err
	}

	return m.db.GetCorrelatedAuditEvents(ctx, correlationId)
}

// endregion read-path

// region integrity

// VerifyIntegrity checks the signature of one audit event. Restricted to admins.
func (m Manager) VerifyIntegrity(ctx context.Context, id string) (bool, error) {
	if err := domain.ValidateAdminAccessRights(ctx); err != nil {
		return false, err
	}

	event, err := m.db.GetAuditEvent(ctx, id)
	if err != nil {
		return false, err
	}

	return m.signer.VerifyEvent(ctx, event)
}

// VerifyEntityIntegrity re-computes the signatures over the full audit trail
// of one entity and reports every mismatch. A mismatch means the stored record
// differs from the record that was originally signed. Restricted to admins.
func (m Manager) VerifyEntityIntegrity(ctx context.Context, entityType, entityId string) (*domain.IntegrityReport, error) {
	if err := domain.ValidateAdminAccessRights(ctx); err != nil {
		return nil, err
	}

	events, err := m.db.GetAuditTrail(ctx, entityType, entityId, time.Time{}, time.Time{})
	if err != nil {
		return nil, err
	}

	report := &domain.IntegrityReport{
		EntityType:  entityType,
		EntityId:    entityId,
		TotalEvents: len(events),
		CheckedAt:   time.Now().UTC(),
	}

	for i := range events {
		event := &events[i]

		if !event.IsSigned() {
			report.UnsignedEvents++
			if m.cfg.Audit.RequireSignatures {
				report.Violations = append(report.Violations, domain.IntegrityViolation{
					EventId:     event.Id,
					Description: "event is not signed",
				})
			}
			continue
		}

		ok, err := m.signer.VerifyEvent(ctx, event)
		if err != nil {
			return nil, err
		}
		if ok {
			report.ValidEvents++
			continue
		}

		report.InvalidEvents++
		expected, err := m.signer.SignWith(ctx, event.GetDataForSigning(), event.SignatureAlgorithm)
		if err != nil {
			expected = "" // algorithm no longer supported, mismatch already recorded
		}
		report.Violations = append(report.Violations, domain.IntegrityViolation{
			EventId:           event.Id,
			ExpectedSignature: expected,
			ActualSignature:   event.Signature,
			Description:       "signature mismatch, record was modified after signing",
		})
	}

	if report.InvalidEvents > 0 {
		slog.Warn("[AUDIT] integrity violations detected",
			"entityType", entityType,
			"entityId", entityId,
			"invalid", report.InvalidEvents,
			"total", report.TotalEvents)
		m.bus.Publish(app.TopicIntegrityViolation, *report)
	}

	return report, nil
}

// endregion integrity
