package adapters

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/medinfohub/med-portal/internal/domain"
)

// CreateAuditEvent persists one fully formed audit event. The audit table is
// append-only: this is a plain insert, there is no update path.
func (r *SqlRepo) CreateAuditEvent(ctx context.Context, event *domain.AuditEvent) error {
	err := r.db.WithContext(ctx).Create(event).Error
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return &domain.PersistenceError{Op: "audit event insert", Err: domain.ErrNotUnique}
		}
		return &domain.PersistenceError{Op: "audit event insert", Err: err}
	}

	return nil
}

// GetAuditEvent retrieves a single audit event by its id.
func (r *SqlRepo) GetAuditEvent(ctx context.Context, id string) (*domain.AuditEvent, error) {
	var event domain.AuditEvent

	err := r.db.WithContext(ctx).First(&event, "id = ?", id).Error
	if err != nil && errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, &domain.PersistenceError{Op: "audit event lookup", Err: err}
	}

	return &event, nil
}

// ExistsAuditEvent reports whether an event with the given id is persisted.
func (r *SqlRepo) ExistsAuditEvent(ctx context.Context, id string) (bool, error) {
	var count int64

	err := r.db.WithContext(ctx).Model(&domain.AuditEvent{}).Where("id = ?", id).Count(&count).Error
	if err != nil {
		return false, &domain.PersistenceError{Op: "audit event exists check", Err: err}
	}

	return count > 0, nil
}

// GetAuditTrail retrieves all audit events for one entity, ordered by
// timestamp ascending. Zero from/to values mean an unbounded range.
func (r *SqlRepo) GetAuditTrail(
	ctx context.Context,
	entityType, entityId string,
	from, to time.Time,
) ([]domain.AuditEvent, error) {
	tx := r.db.WithContext(ctx).
		Where("entity_type = ? AND entity_id = ?", entityType, entityId)
	tx = applyTimeRange(tx, from, to)

	var events []domain.AuditEvent
	if err := tx.Order("timestamp asc").Find(&events).Error; err != nil {
		return nil, &domain.PersistenceError{Op: "audit trail query", Err: err}
	}

	return events, nil
}

// GetAuditEvents retrieves all audit events in the given time range,
// system-wide, ordered by timestamp ascending.
func (r *SqlRepo) GetAuditEvents(ctx context.Context, from, to time.Time) ([]domain.AuditEvent, error) {
	tx := applyTimeRange(r.db.WithContext(ctx).Model(&domain.AuditEvent{}), from, to)

	var events []domain.AuditEvent
	if err := tx.Order("timestamp asc").Find(&events).Error; err != nil {
		return nil, &domain.PersistenceError{Op: "audit range query", Err: err}
	}

	return events, nil
}

// GetCorrelatedAuditEvents retrieves all events that belong to one logical
// request or transaction, ordered by timestamp ascending.
func (r *SqlRepo) GetCorrelatedAuditEvents(ctx context.Context, correlationId string) ([]domain.AuditEvent, error) {
	var events []domain.AuditEvent

	err := r.db.WithContext(ctx).
		Where("correlation_id = ?", correlationId).
		Order("timestamp asc").
		Find(&events).Error
	if err != nil {
		return nil, &domain.PersistenceError{Op: "audit correlation query", Err: err}
	}

	return events, nil
}

// GetAuditedEntities returns the distinct entities that had audit activity
// since the given time. Used by the integrity sweep.
func (r *SqlRepo) GetAuditedEntities(ctx context.Context, since time.Time) ([]domain.EntityRef, error) {
	var refs []domain.EntityRef

	err := r.db.WithContext(ctx).
		Model(&domain.AuditEvent{}).
		Select("DISTINCT entity_type, entity_id").
		Where("timestamp >= ? AND entity_type <> ''", since).
		Scan(&refs).Error
	if err != nil {
		return nil, &domain.PersistenceError{Op: "audited entity query", Err: err}
	}

	return refs, nil
}

// CountAuditEvents returns the total number of persisted audit events.
func (r *SqlRepo) CountAuditEvents(ctx context.Context) (int64, error) {
	var count int64

	err := r.db.WithContext(ctx).Model(&domain.AuditEvent{}).Count(&count).Error
	if err != nil {
		return 0, &domain.PersistenceError{Op: "audit event count", Err: err}
	}

	return count, nil
}

// CountCriticalAuditEvents returns the number of events flagged as critical.
func (r *SqlRepo) CountCriticalAuditEvents(ctx context.Context) (int64, error) {
	var count int64

	err := r.db.WithContext(ctx).
		Model(&domain.AuditEvent{}).
		Where("is_critical = ?", true).
		Count(&count).Error
	if err != nil {
		return 0, &domain.PersistenceError{Op: "critical audit event count", Err: err}
	}

	return count, nil
}

// PurgeAuditEvents deletes events older than the given time in batches and
// returns the number of deleted rows. Critical events are exempt unless
// includeCritical is set. This is the only delete path for audit data.
func (r *SqlRepo) PurgeAuditEvents(
	ctx context.Context,
	olderThan time.Time,
	includeCritical bool,
	batchSize int,
) (int64, error) {
	var purged int64

	for {
		if err := ctx.Err(); err != nil {
			return purged, err
		}

		query := r.db.WithContext(ctx).
			Model(&domain.AuditEvent{}).
			Where("timestamp < ?", olderThan)
		if !includeCritical {
			query = query.Where("is_critical = ?", false)
		}

		var ids []string
		if err := query.Limit(batchSize).Pluck("id", &ids).Error; err != nil {
			return purged, &domain.PersistenceError{Op: "audit retention query", Err: err}
		}
		if len(ids) == 0 {
			return purged, nil
		}

		result := r.db.WithContext(ctx).Delete(&domain.AuditEvent{}, "id IN ?", ids)
		if result.Error != nil {
			return purged, &domain.PersistenceError{Op: "audit retention delete", Err: result.Error}
		}
		purged += result.RowsAffected

		if len(ids) < batchSize {
			return purged, nil
		}
	}
}

func applyTimeRange(tx *gorm.DB, from, to time.Time) *gorm.DB {
	if !from.IsZero() {
		tx = tx.Where("timestamp >= ?", from)
	}
	if !to.IsZero() {
		tx = tx.Where("timestamp <= ?", to)
	}

	return tx
}
