package alerts

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/medinfohub/med-portal/internal"
	"github.com/medinfohub/med-portal/internal/app"
	"github.com/medinfohub/med-portal/internal/config"
	"github.com/medinfohub/med-portal/internal/domain"
)

// region dependencies

type Auditor interface {
	// VerifyEntityIntegrity re-verifies the complete audit trail of one entity.
	VerifyEntityIntegrity(ctx context.Context, entityType, entityId string) (*domain.IntegrityReport, error)
}

type DatabaseRepo interface {
	// GetAuditedEntities returns the distinct entities with audit activity since the given time.
	GetAuditedEntities(ctx context.Context, since time.Time) ([]domain.EntityRef, error)
}

type Mailer interface {
	// Send sends a mail.
	Send(ctx context.Context, subject, body string, to []string, options *domain.MailOptions) error
}

type EventBus interface {
	// Publish sends a message to the message bus.
	Publish(topic string, args ...any)
	// Subscribe subscribes to a topic
	Subscribe(topic string, fn interface{}) error
}

// endregion dependencies

// alertPayload is the JSON body of a compliance alert webhook.
type alertPayload struct {
	Event      string    `json:"event"`
	EntityType string    `json:"entity_type"`
	EntityId   string    `json:"entity_id"`
	Invalid    int       `json:"invalid_events"`
	Total      int       `json:"total_events"`
	CheckedAt  time.Time `json:"checked_at"`

	Violations []domain.IntegrityViolation `json:"violations"`
}

// Manager runs the periodic integrity sweep and notifies operators about
// detected audit violations via mail and webhook.
type Manager struct {
	cfg *config.Config
	bus EventBus

	auditor Auditor
	db      DatabaseRepo
	mailer  Mailer

	client *http.Client
}

// NewAlertManager creates a new alert manager instance and subscribes it to
// integrity violation events.
func NewAlertManager(
	cfg *config.Config,
	bus EventBus,
	auditor Auditor,
	db DatabaseRepo,
	mailer Mailer,
) (*Manager, error) {
	m := &Manager{
		cfg: cfg,
		bus: bus,

		auditor: auditor,
		db:      db,
		mailer:  mailer,

		client: &http.Client{
			Timeout: cfg.Webhook.Timeout,
		},
	}

	if err := m.connectToMessageBus(); err != nil {
		return nil, fmt.Errorf("failed to setup message bus: %w", err)
	}

	return m, nil
}

func (m Manager) connectToMessageBus() error {
	if !m.cfg.Alerts.Enabled {
		slog.Info("[ALERT] alerting disabled, skipping event-bus subscription")
		return nil
	}

	if err := m.bus.Subscribe(app.TopicIntegrityViolation, m.handleIntegrityViolation); err != nil {
		return fmt.Errorf("failed to subscribe to %s: %w", app.TopicIntegrityViolation, err)
	}

	return nil
}

// StartBackgroundJobs starts the integrity sweep loop. Non-blocking.
func (m Manager) StartBackgroundJobs(ctx context.Context) {
	if !m.cfg.Alerts.Enabled {
		return
	}

	go func() {
		lastSweep := time.Now().UTC()
		for {
			select {
			case <-ctx.Done():
				return
			case <-time.After(m.cfg.Alerts.SweepInterval):
				// select blocks until one of the cases evaluate to true
			}

			sweepStart := time.Now().UTC()
			m.runSweep(ctx, lastSweep)
			lastSweep = sweepStart
		}
	}()
}

// runSweep re-verifies every entity that had audit activity since the last
// sweep. Violations are published on the bus by the audit manager and picked
// up by handleIntegrityViolation.
func (m Manager) runSweep(ctx context.Context, since time.Time) {
	start := time.Now()
	ctx = domain.SetCallerInfo(ctx, domain.SystemCallerContext())

	refs, err := m.db.GetAuditedEntities(ctx, since)
	if err != nil {
		slog.Error("[ALERT] failed to load audited entities for sweep", "error", err)
		return
	}

	var violations int
	for _, ref := range refs {
		if ctx.Err() != nil {
			return
		}

		report, err := m.auditor.VerifyEntityIntegrity(ctx, ref.EntityType, ref.EntityId)
		if err != nil {
			slog.Error("[ALERT] integrity check failed",
				"entityType", ref.EntityType,
				"entityId", ref.EntityId,
				"error", err)
			continue
		}
		violations += report.InvalidEvents
	}

	slog.Info("[ALERT] integrity sweep finished",
		"entities", len(refs),
		"violations", violations,
		"since", since,
		internal.LogDuration("duration", time.Since(start)))
}

func (m Manager) handleIntegrityViolation(report domain.IntegrityReport) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	if len(m.cfg.Alerts.Recipients) > 0 {
		if err := m.sendMailAlert(ctx, report); err != nil {
			slog.Error("[ALERT] failed to send alert mail", "error", err)
		} else {
			m.bus.Publish(app.TopicAlertSent, "mail")
		}
	}

	if m.cfg.Webhook.Url != "" {
		if err := m.sendWebhookAlert(ctx, report); err != nil {
			slog.Error("[ALERT] failed to send alert webhook", "error", err)
		} else {
			m.bus.Publish(app.TopicAlertSent, "webhook")
		}
	}
}

func (m Manager) sendMailAlert(ctx context.Context, report domain.IntegrityReport) error {
	subject := fmt.Sprintf("[%s] audit integrity violation for %s %s",
		m.cfg.Core.SiteTitle, report.EntityType, report.EntityId)

	body := fmt.Sprintf(
		"Integrity verification found %d tampered audit record(s) for %s %s.\n\n"+
			"Checked at: %s\n"+
			"Total events: %d\n"+
			"Valid events: %d\n"+
			"Unsigned events: %d\n\n"+
			"Affected event ids:\n",
		report.InvalidEvents, report.EntityType, report.EntityId,
		report.CheckedAt.Format(time.RFC3339),
		report.TotalEvents, report.ValidEvents, report.UnsignedEvents)
	for _, violation := range report.Violations {
		body += fmt.Sprintf("  - %s: %s\n", violation.EventId, violation.Description)
	}

	return m.mailer.Send(ctx, subject, body, m.cfg.Alerts.Recipients, nil)
}

func (m Manager) sendWebhookAlert(ctx context.Context, report domain.IntegrityReport) error {
	payload := alertPayload{
		Event:      "integrity_violation",
		EntityType: report.EntityType,
		EntityId:   report.EntityId,
		Invalid:    report.InvalidEvents,
		Total:      report.TotalEvents,
		CheckedAt:  report.CheckedAt,
		Violations: report.Violations,
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.cfg.Webhook.Url, bytes.NewReader(data))
	if err != nil {
		return err
	}

	req.Header.Set("Content-Type", "application/json")
	if m.cfg.Webhook.Authentication != "" {
		req.Header.Set("Authorization", m.cfg.Webhook.Authentication)
	}

	resp, err := m.client.Do(req)
	if err != nil {
		return err
	}
	defer internal.LogClose(resp.Body)

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusNoContent && resp.StatusCode != http.StatusAccepted {
		return fmt.Errorf("webhook request failed with status: %s", resp.Status)
	}

	return nil
}
