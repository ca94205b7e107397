package audit

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/medinfohub/med-portal/internal/app"
	"github.com/medinfohub/med-portal/internal/config"
	"github.com/medinfohub/med-portal/internal/domain"
)

// Recorder listens on the message bus and turns security and system
// occurrences into audit events. Business mutations do not go through the
// recorder, their managers call the audit manager directly so that a failed
// audit write can abort the mutation.
type Recorder struct {
	cfg *config.Config
	bus EventBus

	auditor Manager
}

func NewAuditRecorder(cfg *config.Config, bus EventBus, auditor Manager) (*Recorder, error) {
	r := &Recorder{
		cfg: cfg,
		bus: bus,

		auditor: auditor,
	}

	if err := r.connectToMessageBus(); err != nil {
		return nil, fmt.Errorf("failed to setup message bus: %w", err)
	}

	return r, nil
}

func (r *Recorder) connectToMessageBus() error {
	if !r.cfg.Audit.Enabled {
		return nil // nothing to do
	}

	if err := r.bus.Subscribe(app.TopicSecurityEvent, r.handleSecurityEvent); err != nil {
		return fmt.Errorf("failed to subscribe to %s: %w", app.TopicSecurityEvent, err)
	}
	if err := r.bus.Subscribe(app.TopicSystemEvent, r.handleSystemEvent); err != nil {
		return fmt.Errorf("failed to subscribe to %s: %w", app.TopicSystemEvent, err)
	}

	return nil
}

func (r *Recorder) handleSecurityEvent(event SecurityEvent) {
	caller := domain.SystemCallerContext()
	if event.UserId != "" {
		caller.UserId = event.UserId
	}
	ctx := domain.SetCallerInfo(context.Background(), caller)

	_, err := r.auditor.Log(ctx, domain.AuditEventTypeSecurity,
		event.EntityType, event.EntityId, "", event.Details, event.Reason)
	if err != nil {
		slog.Error("[AUDIT] failed to record security event",
			"entityType", event.EntityType,
			"entityId", event.EntityId,
			"error", err)
	}
}

func (r *Recorder) handleSystemEvent(event SystemEvent) {
	ctx := domain.SetCallerInfo(context.Background(), domain.SystemCallerContext())

	_, err := r.auditor.Log(ctx, domain.AuditEventTypeSystem,
		event.EntityType, event.EntityId, "", event.Details, event.Reason)
	if err != nil {
		slog.Error("[AUDIT] failed to record system event",
			"entityType", event.EntityType,
			"entityId", event.EntityId,
			"error", err)
	}
}
