package directory

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/medinfohub/med-portal/internal/app"
	"github.com/medinfohub/med-portal/internal/app/audit"
	"github.com/medinfohub/med-portal/internal/config"
	"github.com/medinfohub/med-portal/internal/domain"
)

// Manager maintains the medical services directory, news articles and
// community events. Every mutation is written to the audit log; whether a
// failed audit write aborts the mutation is controlled by audit.fail_open.
type Manager struct {
	cfg *config.Config
	bus EventBus

	auditor Auditor
	db      DatabaseRepo
}

func NewDirectoryManager(cfg *config.Config, bus EventBus, auditor Auditor, db DatabaseRepo) (*Manager, error) {
	m := &Manager{
		cfg: cfg,
		bus: bus,

		auditor: auditor,
		db:      db,
	}

	return m, nil
}

// region services

// GetService returns one service entry. Unpublished entries are only visible
// to admins.
func (m Manager) GetService(ctx context.Context, id domain.ServiceIdentifier) (*domain.Service, error) {
	service, err := m.db.GetService(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("unable to load service %s: %w", id, err)
	}

	if !service.IsPublished() {
		if err := m.requireAdmin(ctx, domain.EntityTypeService, string(id), "read unpublished service"); err != nil {
			return nil, err
		}
	}

	m.logRead(ctx, domain.EntityTypeService, string(id))

	return service, nil
}

// GetAllServices returns all service entries for admins and only the
// published ones for everybody else.
func (m Manager) GetAllServices(ctx context.Context) ([]domain.Service, error) {
	services, err := m.db.GetAllServices(ctx)
	if err != nil {
		return nil, fmt.Errorf("unable to load services: %w", err)
	}

	return m.filterServices(ctx, services), nil
}

// FindServices searches service entries by title or specialty.
func (m Manager) FindServices(ctx context.Context, search string) ([]domain.Service, error) {
	services, err := m.db.FindServices(ctx, search)
	if err != nil {
		return nil, fmt.Errorf("unable to search services: %w", err)
	}

	return m.filterServices(ctx, services), nil
}

func (m Manager) filterServices(ctx context.Context, services []domain.Service) []domain.Service {
	if domain.GetCallerInfo(ctx).IsAdmin {
		return services
	}

	filtered := make([]domain.Service, 0, len(services))
	for _, service := range services {
		if service.IsPublished() {
			filtered = append(filtered, service)
		}
	}

	return filtered
}

// CreateService creates a new service entry. Restricted to admins.
func (m Manager) CreateService(ctx context.Context, service *domain.Service) (*domain.Service, error) {
	if err := m.requireAdmin(ctx, domain.EntityTypeService, string(service.Identifier), "create service"); err != nil {
		return nil, err
	}
	if err := validateService(service); err != nil {
		return nil, err
	}

	_, err := m.db.GetService(ctx, service.Identifier)
	if err == nil {
		return nil, fmt.Errorf("service %s: %w", service.Identifier, domain.ErrDuplicateEntry)
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return nil, fmt.Errorf("unable to check for existing service %s: %w", service.Identifier, err)
	}

	err = m.db.SaveService(ctx, service.Identifier, func(s *domain.Service) (*domain.Service, error) {
		service.BaseModel = s.BaseModel
		return service, nil
	})
	if err != nil {
		return nil, fmt.Errorf("unable to create service %s: %w", service.Identifier, err)
	}

	_, auditErr := m.auditor.Log(ctx, domain.AuditEventTypeCreate,
		domain.EntityTypeService, string(service.Identifier), "", snapshot(service), "")
	if auditErr != nil {
		if err := m.handleAuditFailure(auditErr, func() error {
			return m.db.DeleteService(ctx, service.Identifier)
		}); err != nil {
			return nil, err
		}
	}

	m.bus.Publish(app.TopicServiceCreated, *service)

	return service, nil
}

// UpdateService updates an existing service entry. Restricted to admins.
func (m Manager) UpdateService(ctx context.Context, service *domain.Service) (*domain.Service, error) {
	if err := m.requireAdmin(ctx, domain.EntityTypeService, string(service.Identifier), "update service"); err != nil {
		return nil, err
	}
	if err := validateService(service); err != nil {
		return nil, err
	}

	old, err := m.db.GetService(ctx, service.Identifier)
	if err != nil {
		return nil, fmt.Errorf("unable to load existing service %s: %w", service.Identifier, err)
	}

	err = m.db.SaveService(ctx, service.Identifier, func(s *domain.Service) (*domain.Service, error) {
		service.BaseModel = s.BaseModel
		return service, nil
	})
	if err != nil {
		return nil, fmt.Errorf("unable to update service %s: %w", service.Identifier, err)
	}

	_, auditErr := m.auditor.Log(ctx, domain.AuditEventTypeUpdate,
		domain.EntityTypeService, string(service.Identifier), snapshot(old), snapshot(service), "")
	if auditErr != nil {
		if err := m.handleAuditFailure(auditErr, func() error {
			return m.restoreService(ctx, old)
		}); err != nil {
			return nil, err
		}
	}

	m.bus.Publish(app.TopicServiceUpdated, *service)

	return service, nil
}

// DeleteService removes a service entry. Restricted to admins. The reason is
// recorded in the audit log.
func (m Manager) DeleteService(ctx context.Context, id domain.ServiceIdentifier, reason string) error {
	if err := m.requireAdmin(ctx, domain.EntityTypeService, string(id), "delete service"); err != nil {
		return err
	}

	old, err := m.db.GetService(ctx, id)
	if err != nil {
		return fmt.Errorf("unable to load existing service %s: %w", id, err)
	}

	if err := m.db.DeleteService(ctx, id); err != nil {
		return fmt.Errorf("unable to delete service %s: %w", id, err)
	}

	_, auditErr := m.auditor.Log(ctx, domain.AuditEventTypeDelete,
		domain.EntityTypeService, string(id), snapshot(old), "", reason)
	if auditErr != nil {
		if err := m.handleAuditFailure(auditErr, func() error {
			return m.restoreService(ctx, old)
		}); err != nil {
			return err
		}
	}

	m.bus.Publish(app.TopicServiceDeleted, *old)

	return nil
}

// PublishService makes a service entry publicly visible. Restricted to admins.
func (m Manager) PublishService(ctx context.Context, id domain.ServiceIdentifier) (*domain.Service, error) {
	return m.setServicePublished(ctx, id, true, "")
}

// UnpublishService hides a service entry from the public API. Restricted to
// admins. The reason is stored with the entry and recorded in the audit log.
func (m Manager) UnpublishService(ctx context.Context, id domain.ServiceIdentifier, reason string) (*domain.Service, error) {
	return m.setServicePublished(ctx, id, false, reason)
}

func (m Manager) setServicePublished(
	ctx context.Context,
	id domain.ServiceIdentifier,
	published bool,
	reason string,
) (*domain.Service, error) {
	if err := m.requireAdmin(ctx, domain.EntityTypeService, string(id), "change service publish state"); err != nil {
		return nil, err
	}

	old, err := m.db.GetService(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("unable to load existing service %s: %w", id, err)
	}

	updated := *old
	if published {
		now := time.Now()
		updated.Published = &now
		updated.UnpublishedReason = ""
	} else {
		updated.Published = nil
		updated.UnpublishedReason = reason
	}

	err = m.db.SaveService(ctx, id, func(s *domain.Service) (*domain.Service, error) {
		updated.BaseModel = s.BaseModel
		return &updated, nil
	})
	if err != nil {
		return nil, fmt.Errorf("unable to update service %s: %w", id, err)
	}

	_, auditErr := m.auditor.Log(ctx, domain.AuditEventTypeUpdate,
		domain.EntityTypeService, string(id), snapshot(old), snapshot(&updated), reason)
	if auditErr != nil {
		if err := m.handleAuditFailure(auditErr, func() error {
			return m.restoreService(ctx, old)
		}); err != nil {
			return nil, err
		}
	}

	m.bus.Publish(app.TopicServiceUpdated, updated)

	return &updated, nil
}

func (m Manager) restoreService(ctx context.Context, old *domain.Service) error {
	return m.db.SaveService(ctx, old.Identifier, func(_ *domain.Service) (*domain.Service, error) {
		restored := *old
		return &restored, nil
	})
}

func validateService(service *domain.Service) error {
	if service.Identifier == "" || service.Title == "" {
		return fmt.Errorf("service needs an identifier and a title: %w", domain.ErrInvalidData)
	}

	return nil
}

// endregion services

// region news

// GetNewsArticle returns one news article. Unpublished articles are only
// visible to admins.
func (m Manager) GetNewsArticle(ctx context.Context, id domain.NewsIdentifier) (*domain.NewsArticle, error) {
	article, err := m.db.GetNewsArticle(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("unable to load news article %s: %w", id, err)
	}

	if !article.IsPublished() {
		if err := m.requireAdmin(ctx, domain.EntityTypeNews, string(id), "read unpublished news article"); err != nil {
			return nil, err
		}
	}

	m.logRead(ctx, domain.EntityTypeNews, string(id))

	return article, nil
}

// GetAllNewsArticles returns all articles for admins and only the published
// ones for everybody else, newest first.
func (m Manager) GetAllNewsArticles(ctx context.Context) ([]domain.NewsArticle, error) {
	articles, err := m.db.GetAllNewsArticles(ctx)
	if err != nil {
		return nil, fmt.Errorf("unable to load news articles: %w", err)
	}

	if domain.GetCallerInfo(ctx).IsAdmin {
		return articles, nil
	}

	filtered := make([]domain.NewsArticle, 0, len(articles))
	for _, article := range articles {
		if article.IsPublished() {
			filtered = append(filtered, article)
		}
	}

	return filtered, nil
}

// SaveNewsArticle creates or updates a news article. Restricted to admins.
func (m Manager) SaveNewsArticle(ctx context.Context, article *domain.NewsArticle) (*domain.NewsArticle, error) {
	if err := m.requireAdmin(ctx, domain.EntityTypeNews, string(article.Identifier), "save news article"); err != nil {
		return nil, err
	}
	if article.Identifier == "" || article.Title == "" {
		return nil, fmt.Errorf("news article needs an identifier and a title: %w", domain.ErrInvalidData)
	}

	old, err := m.db.GetNewsArticle(ctx, article.Identifier)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return nil, fmt.Errorf("unable to load existing news article %s: %w", article.Identifier, err)
	}

	err = m.db.SaveNewsArticle(ctx, article.Identifier, func(n *domain.NewsArticle) (*domain.NewsArticle, error) {
		article.BaseModel = n.BaseModel
		return article, nil
	})
	if err != nil {
		return nil, fmt.Errorf("unable to save news article %s: %w", article.Identifier, err)
	}

	eventType := domain.AuditEventTypeUpdate
	topic := app.TopicNewsUpdated
	oldSnapshot := ""
	if old == nil {
		eventType = domain.AuditEventTypeCreate
		topic = app.TopicNewsCreated
	} else {
		oldSnapshot = snapshot(old)
	}

	_, auditErr := m.auditor.Log(ctx, eventType,
		domain.EntityTypeNews, string(article.Identifier), oldSnapshot, snapshot(article), "")
	if auditErr != nil {
		if err := m.handleAuditFailure(auditErr, func() error {
			if old == nil {
				return m.db.DeleteNewsArticle(ctx, article.Identifier)
			}
			return m.db.SaveNewsArticle(ctx, old.Identifier, func(_ *domain.NewsArticle) (*domain.NewsArticle, error) {
				restored := *old
				return &restored, nil
			})
		}); err != nil {
			return nil, err
		}
	}

	m.bus.Publish(topic, *article)

	return article, nil
}

// DeleteNewsArticle removes a news article. Restricted to admins.
func (m Manager) DeleteNewsArticle(ctx context.Context, id domain.NewsIdentifier, reason string) error {
	if err := m.requireAdmin(ctx, domain.EntityTypeNews, string(id), "delete news article"); err != nil {
		return err
	}

	old, err := m.db.GetNewsArticle(ctx, id)
	if err != nil {
		return fmt.Errorf("unable to load existing news article %s: %w", id, err)
	}

	if err := m.db.DeleteNewsArticle(ctx, id); err != nil {
		return fmt.Errorf("unable to delete news article %s: %w", id, err)
	}

	_, auditErr := m.auditor.Log(ctx, domain.AuditEventTypeDelete,
		domain.EntityTypeNews, string(id), snapshot(old), "", reason)
	if auditErr != nil {
		if err := m.handleAuditFailure(auditErr, func() error {
			return m.db.SaveNewsArticle(ctx, old.Identifier, func(_ *domain.NewsArticle) (*domain.NewsArticle, error) {
				restored := *old
				return &restored, nil
			})
		}); err != nil {
			return err
		}
	}

	m.bus.Publish(app.TopicNewsDeleted, *old)

	return nil
}

// endregion news

// region community-events

// GetCommunityEvent returns one community event. Unpublished events are only
// visible to admins.
func (m Manager) GetCommunityEvent(ctx context.Context, id domain.EventIdentifier) (*domain.CommunityEvent, error) {
	event, err := m.db.GetCommunityEvent(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("unable to load community event %s: %w", id, err)
	}

	if !event.IsPublished() {
		if err := m.requireAdmin(ctx, domain.EntityTypeEvent, string(id), "read unpublished community event"); err != nil {
			return nil, err
		}
	}

	m.logRead(ctx, domain.EntityTypeEvent, string(id))

	return event, nil
}

// GetUpcomingCommunityEvents returns future events, published only for
// non-admin callers.
func (m Manager) GetUpcomingCommunityEvents(ctx context.Context) ([]domain.CommunityEvent, error) {
	events, err := m.db.GetUpcomingCommunityEvents(ctx, time.Now())
	if err != nil {
		return nil, fmt.Errorf("unable to load community events: %w", err)
	}

	if domain.GetCallerInfo(ctx).IsAdmin {
		return events, nil
	}

	filtered := make([]domain.CommunityEvent, 0, len(events))
	for _, event := range events {
		if event.IsPublished() {
			filtered = append(filtered, event)
		}
	}

	return filtered, nil
}

// SaveCommunityEvent creates or updates a community event. Restricted to admins.
func (m Manager) SaveCommunityEvent(ctx context.Context, event *domain.CommunityEvent) (*domain.CommunityEvent, error) {
	if err := m.requireAdmin(ctx, domain.EntityTypeEvent, string(event.Identifier), "save community event"); err != nil {
		return nil, err
	}
	if event.Identifier == "" || event.Title == "" {
		return nil, fmt.Errorf("community event needs an identifier and a title: %w", domain.ErrInvalidData)
	}
	if !event.EndsAt.IsZero() && event.EndsAt.Before(event.StartsAt) {
		return nil, fmt.Errorf("community event must not end before it starts: %w", domain.ErrInvalidData)
	}

	old, err := m.db.GetCommunityEvent(ctx, event.Identifier)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return nil, fmt.Errorf("unable to load existing community event %s: %w", event.Identifier, err)
	}

	err = m.db.SaveCommunityEvent(ctx, event.Identifier, func(e *domain.CommunityEvent) (*domain.CommunityEvent, error) {
		event.BaseModel = e.BaseModel
		return event, nil
	})
	if err != nil {
		return nil, fmt.Errorf("unable to save community event %s: %w", event.Identifier, err)
	}

	eventType := domain.AuditEventTypeUpdate
	topic := app.TopicCommunityEventUpdated
	oldSnapshot := ""
	if old == nil {
		eventType = domain.AuditEventTypeCreate
		topic = app.TopicCommunityEventCreated
	} else {
		oldSnapshot = snapshot(old)
	}

	_, auditErr := m.auditor.Log(ctx, eventType,
		domain.EntityTypeEvent, string(event.Identifier), oldSnapshot, snapshot(event), "")
	if auditErr != nil {
		if err := m.handleAuditFailure(auditErr, func() error {
			if old == nil {
				return m.db.DeleteCommunityEvent(ctx, event.Identifier)
			}
			return m.db.SaveCommunityEvent(ctx, old.Identifier, func(_ *domain.CommunityEvent) (*domain.CommunityEvent, error) {
				restored := *old
				return &restored, nil
			})
		}); err != nil {
			return nil, err
		}
	}

	m.bus.Publish(topic, *event)

	return event, nil
}

// DeleteCommunityEvent removes a community event. Restricted to admins.
func (m Manager) DeleteCommunityEvent(ctx context.Context, id domain.EventIdentifier, reason string) error {
	if err := m.requireAdmin(ctx, domain.EntityTypeEvent, string(id), "delete community event"); err != nil {
		return err
	}

	old, err := m.db.GetCommunityEvent(ctx, id)
	if err != nil {
		return fmt.Errorf("unable to load existing community event %s: %w", id, err)
	}

	if err := m.db.DeleteCommunityEvent(ctx, id); err != nil {
		return fmt.Errorf("unable to delete community event %s: %w", id, err)
	}

	_, auditErr := m.auditor.Log(ctx, domain.AuditEventTypeDelete,
		domain.EntityTypeEvent, string(id), snapshot(old), "", reason)
	if auditErr != nil {
		if err := m.handleAuditFailure(auditErr, func() error {
			return m.db.SaveCommunityEvent(ctx, old.Identifier, func(_ *domain.CommunityEvent) (*domain.CommunityEvent, error) {
				restored := *old
				return &restored, nil
			})
		}); err != nil {
			return err
		}
	}

	m.bus.Publish(app.TopicCommunityEventDeleted, *old)

	return nil
}

// endregion community-events

// region helpers

// requireAdmin checks the caller's admin rights. A denied check is a security
// relevant occurrence, it is published on the bus and ends up in the audit log
// via the audit recorder.
func (m Manager) requireAdmin(ctx context.Context, entityType, entityId, action string) error {
	err := domain.ValidateAdminAccessRights(ctx)
	if err == nil {
		return nil
	}

	m.bus.Publish(app.TopicSecurityEvent, audit.SecurityEvent{
		EntityType: entityType,
		EntityId:   entityId,
		UserId:     domain.GetCallerInfo(ctx).UserId,
		Details:    snapshot(map[string]string{"action": action}),
		Reason:     "permission denied",
	})

	return err
}

// handleAuditFailure decides the fate of a business mutation whose audit
// record could not be written. With fail_open the mutation stands and only a
// log line remains; otherwise the compensation is executed to roll the
// mutation back and the audit error is returned to the caller.
func (m Manager) handleAuditFailure(auditErr error, compensate func() error) error {
	if m.cfg.Audit.FailOpen {
		slog.Warn("[DIR] mutation proceeded without audit record", "error", auditErr)
		return nil
	}

	if err := compensate(); err != nil {
		slog.Error("[DIR] failed to roll back unaudited mutation", "error", err)
	}

	return auditErr
}

// logRead captures a read access. Reads never fail because of the audit log,
// failures only leave a log line.
func (m Manager) logRead(ctx context.Context, entityType, entityId string) {
	_, err := m.auditor.Log(ctx, domain.AuditEventTypeRead, entityType, entityId, "", "", "")
	if err != nil {
		slog.Warn("[DIR] failed to record read access",
			"entityType", entityType,
			"entityId", entityId,
			"error", err)
	}
}

// snapshot serializes an entity state for the audit record. A nil entity
// snapshots to the empty string.
func snapshot(v any) string {
	if v == nil {
		return ""
	}

	data, err := json.Marshal(v)
	if err != nil {
		return ""
	}

	return string(data)
}

// endregion helpers
