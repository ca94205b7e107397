package directory

import (
	"context"
	"time"

	"github.com/medinfohub/med-portal/internal/domain"
)

type DatabaseRepo interface {
	// GetService returns the service entry with the given id.
	GetService(ctx context.Context, id domain.ServiceIdentifier) (*domain.Service, error)
	// GetAllServices returns all service entries, ordered by title.
	GetAllServices(ctx context.Context) ([]domain.Service, error)
	// FindServices searches service entries by title or specialty.
	FindServices(ctx context.Context, search string) ([]domain.Service, error)
	// SaveService creates or updates the service entry with the given id.
	SaveService(ctx context.Context, id domain.ServiceIdentifier, updateFunc func(s *domain.Service) (*domain.Service, error)) error
	// DeleteService deletes the service entry with the given id.
	DeleteService(ctx context.Context, id domain.ServiceIdentifier) error

	// GetNewsArticle returns the news article with the given id.
	GetNewsArticle(ctx context.Context, id domain.NewsIdentifier) (*domain.NewsArticle, error)
	// GetAllNewsArticles returns all news articles, newest first.
	GetAllNewsArticles(ctx context.Context) ([]domain.NewsArticle, error)
	// SaveNewsArticle creates or updates the news article with the given id.
	SaveNewsArticle(ctx context.Context, id domain.NewsIdentifier, updateFunc func(n *domain.NewsArticle) (*domain.NewsArticle, error)) error
	// DeleteNewsArticle deletes the news article with the given id.
	DeleteNewsArticle(ctx context.Context, id domain.NewsIdentifier) error

	// GetCommunityEvent returns the community event with the given id.
	GetCommunityEvent(ctx context.Context, id domain.EventIdentifier) (*domain.CommunityEvent, error)
	// GetUpcomingCommunityEvents returns all events that start after the given time.
	GetUpcomingCommunityEvents(ctx context.Context, after time.Time) ([]domain.CommunityEvent, error)
	// SaveCommunityEvent creates or updates the community event with the given id.
	SaveCommunityEvent(ctx context.Context, id domain.EventIdentifier, updateFunc func(e *domain.CommunityEvent) (*domain.CommunityEvent, error)) error
	// DeleteCommunityEvent deletes the community event with the given id.
	DeleteCommunityEvent(ctx context.Context, id domain.EventIdentifier) error
}

// Auditor captures tamper-evident audit events for directory mutations.
type Auditor interface {
	Log(ctx context.Context, eventType domain.AuditEventType, entityType, entityId string, oldValues, newValues, reason string) (string, error)
}

type EventBus interface {
	// Publish sends a message to the message bus.
	Publish(topic string, args ...any)
}
