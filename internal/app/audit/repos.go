package audit

import (
	"context"
	"time"

	"github.com/medinfohub/med-portal/internal/domain"
)

type DatabaseRepo interface {
	// CreateAuditEvent persists one fully formed audit event. Insert only,
	// there is no update path for audit data.
	CreateAuditEvent(ctx context.Context, event *domain.AuditEvent) error
	// GetAuditEvent retrieves a single audit event by its id.
	GetAuditEvent(ctx context.Context, id string) (*domain.AuditEvent, error)
	// ExistsAuditEvent reports whether an event with the given id is persisted.
	ExistsAuditEvent(ctx context.Context, id string) (bool, error)
	// GetAuditTrail retrieves all events for one entity, oldest first.
	GetAuditTrail(ctx context.Context, entityType, entityId string, from, to time.Time) ([]domain.AuditEvent, error)
	// GetAuditEvents retrieves all events in the given time range, system-wide.
	GetAuditEvents(ctx context.Context, from, to time.Time) ([]domain.AuditEvent, error)
	// GetCorrelatedAuditEvents retrieves all events sharing one correlation id.
	GetCorrelatedAuditEvents(ctx context.Context, correlationId string) ([]domain.AuditEvent, error)
	// GetAuditedEntities returns the distinct entities with audit activity since the given time.
	GetAuditedEntities(ctx context.Context, since time.Time) ([]domain.EntityRef, error)
	// PurgeAuditEvents deletes events older than the given time in batches.
	PurgeAuditEvents(ctx context.Context, olderThan time.Time, includeCritical bool, batchSize int) (int64, error)
}

type EventBus interface {
	// Publish sends a message to the message bus.
	Publish(topic string, args ...any)
	// Subscribe subscribes to the given topic.
	Subscribe(topic string, fn interface{}) error
}
