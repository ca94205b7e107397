package audit

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/medinfohub/med-portal/internal/app"
	"github.com/medinfohub/med-portal/internal/config"
	"github.com/medinfohub/med-portal/internal/domain"
)

// RetentionManager periodically purges non-critical audit events that are
// older than the configured retention horizon. Critical events (deletes,
// security events) are never purged by the background job.
type RetentionManager struct {
	cfg *config.Config
	bus EventBus

	db DatabaseRepo
}

func NewRetentionManager(cfg *config.Config, bus EventBus, db DatabaseRepo) *RetentionManager {
	return &RetentionManager{
		cfg: cfg,
		bus: bus,

		db: db,
	}
}

// StartBackgroundJobs starts the retention loop. Non-blocking.
func (m *RetentionManager) StartBackgroundJobs(ctx context.Context) {
	if !m.cfg.Audit.Enabled || m.cfg.Audit.MaxRetentionDays <= 0 {
		return // retention disabled, keep events forever
	}

	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case <-time.After(m.cfg.Audit.RetentionInterval):
				// select blocks until one of the cases evaluate to true
			}

			if err := m.runRetention(ctx); err != nil {
				slog.Error("[AUDIT] retention run failed", "error", err)
			}
		}
	}()
}

func (m *RetentionManager) runRetention(ctx context.Context) error {
	cutoff := time.Now().UTC().AddDate(0, 0, -m.cfg.Audit.MaxRetentionDays)

	purged, err := m.db.PurgeAuditEvents(ctx, cutoff, false, m.cfg.Audit.BatchSize)
	if err != nil {
		return err
	}
	if purged == 0 {
		return nil
	}

	slog.Info("[AUDIT] purged expired audit events", "purged", purged, "cutoff", cutoff)

	// the purge itself leaves a trace in the audit log
	m.bus.Publish(app.TopicSystemEvent, SystemEvent{
		EntityType: domain.EntityTypeAuditRetention,
		EntityId:   cutoff.Format(time.RFC3339),
		Details:    fmt.Sprintf(`{"purged":%d}`, purged),
		Reason:     "retention policy",
	})

	return nil
}
