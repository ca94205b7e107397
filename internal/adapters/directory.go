package adapters

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/medinfohub/med-portal/internal/domain"
)

// region services

// GetService returns the service entry with the given id.
func (r *SqlRepo) GetService(ctx context.Context, id domain.ServiceIdentifier) (*domain.Service, error) {
	var service domain.Service

	err := r.db.WithContext(ctx).First(&service, "identifier = ?", id).Error
	if err != nil && errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	return &service, nil
}

// GetAllServices returns all service entries, ordered by title.
func (r *SqlRepo) GetAllServices(ctx context.Context) ([]domain.Service, error) {
	var services []domain.Service

	err := r.db.WithContext(ctx).Order("title asc").Find(&services).Error
	if err != nil {
		return nil, err
	}

	return services, nil
}

// FindServices searches service entries by title or specialty.
func (r *SqlRepo) FindServices(ctx context.Context, search string) ([]domain.Service, error) {
	var services []domain.Service

	searchValue := "%" + search + "%"
	err := r.db.WithContext(ctx).
		Where("title LIKE ?", searchValue).
		Or("specialty LIKE ?", searchValue).
		Order("title asc").
		Find(&services).Error
	if err != nil {
		return nil, err
	}

	return services, nil
}

// SaveService creates or updates the service entry with the given id.
// The update function receives the current persisted state (or a fresh record)
// and returns the state to store; everything runs in one short transaction.
func (r *SqlRepo) SaveService(
	ctx context.Context,
	id domain.ServiceIdentifier,
	updateFunc func(s *domain.Service) (*domain.Service, error),
) error {
	caller := domain.GetCallerInfo(ctx)

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		service, err := r.getOrCreateService(caller, tx, id)
		if err != nil {
			return err // return any error will roll back
		}

		service, err = updateFunc(service)
		if err != nil {
			return err
		}

		service.UpdatedBy = caller.UserId
		service.UpdatedAt = time.Now()

		return tx.Save(service).Error
	})
}

func (r *SqlRepo) getOrCreateService(
	caller *domain.CallerContext,
	tx *gorm.DB,
	id domain.ServiceIdentifier,
) (*domain.Service, error) {
	var service domain.Service

	// serviceDefaults will be applied to newly created records
	serviceDefaults := domain.Service{
		BaseModel: domain.BaseModel{
			CreatedBy: caller.UserId,
			UpdatedBy: caller.UserId,
			CreatedAt: time.Now(),
			UpdatedAt: time.Now(),
		},
		Identifier: id,
	}

	err := tx.Attrs(serviceDefaults).FirstOrCreate(&service, "identifier = ?", id).Error
	if err != nil {
		return nil, err
	}

	return &service, nil
}

// DeleteService deletes the service entry with the given id.
func (r *SqlRepo) DeleteService(ctx context.Context, id domain.ServiceIdentifier) error {
	return r.db.WithContext(ctx).Unscoped().Delete(&domain.Service{Identifier: id}).Error
}

// endregion services

// region news

func (r *SqlRepo) GetNewsArticle(ctx context.Context, id domain.NewsIdentifier) (*domain.NewsArticle, error) {
	var article domain.NewsArticle

	err := r.db.WithContext(ctx).First(&article, "identifier = ?", id).Error
	if err != nil && errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	return &article, nil
}

// GetAllNewsArticles returns all news articles, newest first.
func (r *SqlRepo) GetAllNewsArticles(ctx context.Context) ([]domain.NewsArticle, error) {
	var articles []domain.NewsArticle

	err := r.db.WithContext(ctx).Order("created_at desc").Find(&articles).Error
	if err != nil {
		return nil, err
	}

	return articles, nil
}

func (r *SqlRepo) SaveNewsArticle(
	ctx context.Context,
	id domain.NewsIdentifier,
	updateFunc func(n *domain.NewsArticle) (*domain.NewsArticle, error),
) error {
	caller := domain.GetCallerInfo(ctx)

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var article domain.NewsArticle
		defaults := domain.NewsArticle{
			BaseModel: domain.BaseModel{
				CreatedBy: caller.UserId,
				UpdatedBy: caller.UserId,
				CreatedAt: time.Now(),
				UpdatedAt: time.Now(),
			},
			Identifier: id,
		}
		if err := tx.Attrs(defaults).FirstOrCreate(&article, "identifier = ?", id).Error; err != nil {
			return err
		}

		updated, err := updateFunc(&article)
		if err != nil {
			return err
		}

		updated.UpdatedBy = caller.UserId
		updated.UpdatedAt = time.Now()

		return tx.Save(updated).Error
	})
}

func (r *SqlRepo) DeleteNewsArticle(ctx context.Context, id domain.NewsIdentifier) error {
	return r.db.WithContext(ctx).Unscoped().Delete(&domain.NewsArticle{Identifier: id}).Error
}

// endregion news

// region community-events

func (r *SqlRepo) GetCommunityEvent(ctx context.Context, id domain.EventIdentifier) (*domain.CommunityEvent, error) {
	var event domain.CommunityEvent

	err := r.db.WithContext(ctx).First(&event, "identifier = ?", id).Error
	if err != nil && errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	return &event, nil
}

// GetUpcomingCommunityEvents returns all events that start after the given time.
func (r *SqlRepo) GetUpcomingCommunityEvents(ctx context.Context, after time.Time) ([]domain.CommunityEvent, error) {
	var events []domain.CommunityEvent

	err := r.db.WithContext(ctx).
		Where("starts_at > ?", after).
		Order("starts_at asc").
		Find(&events).Error
	if err != nil {
		return nil, err
	}

	return events, nil
}

func (r *SqlRepo) SaveCommunityEvent(
	ctx context.Context,
	id domain.EventIdentifier,
	updateFunc func(e *domain.CommunityEvent) (*domain.CommunityEvent, error),
) error {
	caller := domain.GetCallerInfo(ctx)

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var event domain.CommunityEvent
		defaults := domain.CommunityEvent{
			BaseModel: domain.BaseModel{
				CreatedBy: caller.UserId,
				UpdatedBy: caller.UserId,
				CreatedAt: time.Now(),
				UpdatedAt: time.Now(),
			},
			Identifier: id,
		}
		if err := tx.Attrs(defaults).FirstOrCreate(&event, "identifier = ?", id).Error; err != nil {
			return err
		}

		updated, err := updateFunc(&event)
		if err != nil {
			return err
		}

		updated.UpdatedBy = caller.UserId
		updated.UpdatedAt = time.Now()

		return tx.Save(updated).Error
	})
}

func (r *SqlRepo) DeleteCommunityEvent(ctx context.Context, id domain.EventIdentifier) error {
	return r.db.WithContext(ctx).Unscoped().Delete(&domain.CommunityEvent{Identifier: id}).Error
}

// endregion community-events
