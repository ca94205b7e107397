package directory

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/medinfohub/med-portal/internal/app/audit"
	"github.com/medinfohub/med-portal/internal/config"
	"github.com/medinfohub/med-portal/internal/domain"
)

// region test-fakes

type fakeDirectoryRepo struct {
	mu       sync.Mutex
	services map[domain.ServiceIdentifier]domain.Service
	news     map[domain.NewsIdentifier]domain.NewsArticle
	events   map[domain.EventIdentifier]domain.CommunityEvent
}

func newFakeDirectoryRepo() *fakeDirectoryRepo {
	return &fakeDirectoryRepo{
		services: make(map[domain.ServiceIdentifier]domain.Service),
		news:     make(map[domain.NewsIdentifier]domain.NewsArticle),
		events:   make(map[domain.EventIdentifier]domain.CommunityEvent),
	}
}

func (f *fakeDirectoryRepo) GetService(_ context.Context, id domain.ServiceIdentifier) (*domain.Service, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	service, ok := f.services[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &service, nil
}

func (f *fakeDirectoryRepo) GetAllServices(_ context.Context) ([]domain.Service, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var services []domain.Service
	for _, service := range f.services {
		services = append(services, service)
	}
	return services, nil
}

func (f *fakeDirectoryRepo) FindServices(_ context.Context, search string) ([]domain.Service, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var services []domain.Service
	for _, service := range f.services {
		if service.Title == search || service.Specialty == search {
			services = append(services, service)
		}
	}
	return services, nil
}

func (f *fakeDirectoryRepo) SaveService(
	_ context.Context,
	id domain.ServiceIdentifier,
	updateFunc func(s *domain.Service) (*domain.Service, error),
) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	service := f.services[id]
	service.Identifier = id

	updated, err := updateFunc(&service)
	if err != nil {
		return err
	}
	f.services[id] = *updated

	return nil
}

func (f *fakeDirectoryRepo) DeleteService(_ context.Context, id domain.ServiceIdentifier) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	delete(f.services, id)
	return nil
}

func (f *fakeDirectoryRepo) GetNewsArticle(_ context.Context, id domain.NewsIdentifier) (*domain.NewsArticle, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	article, ok := f.news[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &article, nil
}

func (f *fakeDirectoryRepo) GetAllNewsArticles(_ context.Context) ([]domain.NewsArticle, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var articles []domain.NewsArticle
	for _, article := range f.news {
		articles = append(articles, article)
	}
	return articles, nil
}

func (f *fakeDirectoryRepo) SaveNewsArticle(
	_ context.Context,
	id domain.NewsIdentifier,
	updateFunc func(n *domain.NewsArticle) (*domain.NewsArticle, error),
) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	article := f.news[id]
	article.Identifier = id

	updated, err := updateFunc(&article)
	if err != nil {
		return err
	}
	f.news[id] = *updated

	return nil
}

func (f *fakeDirectoryRepo) DeleteNewsArticle(_ context.Context, id domain.NewsIdentifier) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	delete(f.news, id)
	return nil
}

func (f *fakeDirectoryRepo) GetCommunityEvent(_ context.Context, id domain.EventIdentifier) (*domain.CommunityEvent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	event, ok := f.events[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &event, nil
}

func (f *fakeDirectoryRepo) GetUpcomingCommunityEvents(_ context.Context, after time.Time) ([]domain.CommunityEvent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var events []domain.CommunityEvent
	for _, event := range f.events {
		if event.StartsAt.After(after) {
			events = append(events, event)
		}
	}
	return events, nil
}

func (f *fakeDirectoryRepo) SaveCommunityEvent(
	_ context.Context,
	id domain.EventIdentifier,
	updateFunc func(e *domain.CommunityEvent) (*domain.CommunityEvent, error),
) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	event := f.events[id]
	event.Identifier = id

	updated, err := updateFunc(&event)
	if err != nil {
		return err
	}
	f.events[id] = *updated

	return nil
}

func (f *fakeDirectoryRepo) DeleteCommunityEvent(_ context.Context, id domain.EventIdentifier) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	delete(f.events, id)
	return nil
}

type fakeAuditor struct {
	mu      sync.Mutex
	entries []string

	failWith error
}

func (f *fakeAuditor) Log(
	_ context.Context,
	eventType domain.AuditEventType,
	entityType, entityId string,
	_, _, _ string,
) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.failWith != nil {
		return "", f.failWith
	}

	entry := string(eventType) + ":" + entityType + ":" + entityId
	f.entries = append(f.entries, entry)

	return domain.NewAuditEventId(), nil
}

type fakeBus struct {
	mu       sync.Mutex
	topics   []string
	payloads []any
}

func (f *fakeBus) Publish(topic string, args ...any) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.topics = append(f.topics, topic)
	f.payloads = append(f.payloads, args...)
}

// endregion test-fakes

func testDirectoryManager(t *testing.T, failOpen bool) (Manager, *fakeDirectoryRepo, *fakeAuditor, *fakeBus) {
	t.Helper()

	cfg := &config.Config{}
	cfg.Audit.Enabled = true
	cfg.Audit.FailOpen = failOpen

	repo := newFakeDirectoryRepo()
	auditor := &fakeAuditor{}
	bus := &fakeBus{}

	manager, err := NewDirectoryManager(cfg, bus, auditor, repo)
	require.NoError(t, err)

	return *manager, repo, auditor, bus
}

func adminCtx() context.Context {
	return domain.SetCallerInfo(context.Background(), &domain.CallerContext{
		UserId:  "admin",
		IsAdmin: true,
	})
}

func publicCtx() context.Context {
	return domain.SetCallerInfo(context.Background(), domain.AnonymousCallerContext())
}

func TestManager_CreateService(t *testing.T) {
	manager, repo, auditor, bus := testDirectoryManager(t, false)
	ctx := adminCtx()

	service, err := manager.CreateService(ctx, &domain.Service{
		Identifier: "svc-1",
		Title:      "City Clinic",
		Specialty:  "cardiology",
	})
	require.NoError(t, err)
	require.NotNil(t, service)

	stored, err := repo.GetService(ctx, "svc-1")
	require.NoError(t, err)
	assert.Equal(t, "City Clinic", stored.Title)

	require.Len(t, auditor.entries, 1)
	assert.Equal(t, "create:Service:svc-1", auditor.entries[0])
	assert.Contains(t, bus.topics, "service:created")
}

func TestManager_CreateService_duplicate(t *testing.T) {
	manager, _, _, _ := testDirectoryManager(t, false)
	ctx := adminCtx()

	_, err := manager.CreateService(ctx, &domain.Service{Identifier: "svc-1", Title: "A"})
	require.NoError(t, err)

	_, err = manager.CreateService(ctx, &domain.Service{Identifier: "svc-1", Title: "B"})
	assert.ErrorIs(t, err, domain.ErrDuplicateEntry)
}

func TestManager_CreateService_requiresAdmin(t *testing.T) {
	manager, repo, _, _ := testDirectoryManager(t, false)

	_, err := manager.CreateService(publicCtx(), &domain.Service{Identifier: "svc-1", Title: "A"})
	assert.ErrorIs(t, err, domain.ErrNoPermission)
	assert.Empty(t, repo.services)
}

func TestManager_CreateService_deniedPublishesSecurityEvent(t *testing.T) {
	manager, _, _, bus := testDirectoryManager(t, false)

	_, err := manager.CreateService(publicCtx(), &domain.Service{Identifier: "svc-1", Title: "A"})
	require.ErrorIs(t, err, domain.ErrNoPermission)

	require.Contains(t, bus.topics, "security:event")

	var event audit.SecurityEvent
	for _, payload := range bus.payloads {
		if e, ok := payload.(audit.SecurityEvent); ok {
			event = e
		}
	}
	assert.Equal(t, domain.EntityTypeService, event.EntityType)
	assert.Equal(t, "svc-1", event.EntityId)
	assert.Equal(t, domain.CtxAnonymousUserId, event.UserId)
	assert.Equal(t, "permission denied", event.Reason)
	assert.Contains(t, event.Details, "create service")
}

func TestManager_GetService_deniedPublishesSecurityEvent(t *testing.T) {
	manager, repo, _, bus := testDirectoryManager(t, false)
	repo.services["svc-1"] = domain.Service{Identifier: "svc-1", Title: "A"}

	_, err := manager.GetService(publicCtx(), "svc-1")
	require.ErrorIs(t, err, domain.ErrNoPermission)

	assert.Contains(t, bus.topics, "security:event")
}

func TestManager_CreateService_invalidData(t *testing.T) {
	manager, _, _, _ := testDirectoryManager(t, false)

	_, err := manager.CreateService(adminCtx(), &domain.Service{Identifier: "svc-1"})
	assert.ErrorIs(t, err, domain.ErrInvalidData)
}

func TestManager_CreateService_auditFailureAbortsMutation(t *testing.T) {
	manager, repo, auditor, bus := testDirectoryManager(t, false)
	auditor.failWith = &domain.PersistenceError{Op: "audit event insert", Err: errors.New("disk full")}

	_, err := manager.CreateService(adminCtx(), &domain.Service{Identifier: "svc-1", Title: "A"})
	require.Error(t, err)

	var pErr *domain.PersistenceError
	assert.ErrorAs(t, err, &pErr)

	// the created row was rolled back and no event was published
	assert.Empty(t, repo.services)
	assert.Empty(t, bus.topics)
}

func TestManager_CreateService_auditFailureFailOpen(t *testing.T) {
	manager, repo, auditor, bus := testDirectoryManager(t, true)
	auditor.failWith = &domain.PersistenceError{Op: "audit event insert", Err: errors.New("disk full")}

	service, err := manager.CreateService(adminCtx(), &domain.Service{Identifier: "svc-1", Title: "A"})
	require.NoError(t, err)
	require.NotNil(t, service)

	// the mutation stands even though no audit record exists
	assert.Len(t, repo.services, 1)
	assert.Contains(t, bus.topics, "service:created")
}

func TestManager_UpdateService_auditFailureRestoresOldState(t *testing.T) {
	manager, repo, auditor, _ := testDirectoryManager(t, false)
	ctx := adminCtx()

	_, err := manager.CreateService(ctx, &domain.Service{Identifier: "svc-1", Title: "Old Title"})
	require.NoError(t, err)

	auditor.failWith = errors.New("audit store gone")

	_, err = manager.UpdateService(ctx, &domain.Service{Identifier: "svc-1", Title: "New Title"})
	require.Error(t, err)

	stored, err := repo.GetService(ctx, "svc-1")
	require.NoError(t, err)
	assert.Equal(t, "Old Title", stored.Title, "failed audit must roll the update back")
}

func TestManager_DeleteService(t *testing.T) {
	manager, repo, auditor, bus := testDirectoryManager(t, false)
	ctx := adminCtx()

	_, err := manager.CreateService(ctx, &domain.Service{Identifier: "svc-1", Title: "A"})
	require.NoError(t, err)

	err = manager.DeleteService(ctx, "svc-1", "entry outdated")
	require.NoError(t, err)

	assert.Empty(t, repo.services)
	assert.Contains(t, auditor.entries, "delete:Service:svc-1")
	assert.Contains(t, bus.topics, "service:deleted")
}

func TestManager_DeleteService_auditFailureRestoresEntry(t *testing.T) {
	manager, repo, auditor, _ := testDirectoryManager(t, false)
	ctx := adminCtx()

	_, err := manager.CreateService(ctx, &domain.Service{Identifier: "svc-1", Title: "A"})
	require.NoError(t, err)

	auditor.failWith = errors.New("audit store gone")

	err = manager.DeleteService(ctx, "svc-1", "")
	require.Error(t, err)

	stored, err := repo.GetService(ctx, "svc-1")
	require.NoError(t, err)
	assert.Equal(t, "A", stored.Title, "failed audit must restore the deleted entry")
}

func TestManager_PublishUnpublishService(t *testing.T) {
	manager, _, _, _ := testDirectoryManager(t, false)
	ctx := adminCtx()

	_, err := manager.CreateService(ctx, &domain.Service{Identifier: "svc-1", Title: "A"})
	require.NoError(t, err)

	published, err := manager.PublishService(ctx, "svc-1")
	require.NoError(t, err)
	assert.True(t, published.IsPublished())

	unpublished, err := manager.UnpublishService(ctx, "svc-1", "address no longer valid")
	require.NoError(t, err)
	assert.False(t, unpublished.IsPublished())
	assert.Equal(t, "address no longer valid", unpublished.UnpublishedReason)
}

func TestManager_GetAllServices_publicSeesOnlyPublished(t *testing.T) {
	manager, _, _, _ := testDirectoryManager(t, false)
	ctx := adminCtx()

	_, err := manager.CreateService(ctx, &domain.Service{Identifier: "svc-1", Title: "A"})
	require.NoError(t, err)
	_, err = manager.CreateService(ctx, &domain.Service{Identifier: "svc-2", Title: "B"})
	require.NoError(t, err)
	_, err = manager.PublishService(ctx, "svc-2")
	require.NoError(t, err)

	all, err := manager.GetAllServices(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	public, err := manager.GetAllServices(publicCtx())
	require.NoError(t, err)
	require.Len(t, public, 1)
	assert.Equal(t, domain.ServiceIdentifier("svc-2"), public[0].Identifier)

	// unpublished entries are hidden from direct lookup as well
	_, err = manager.GetService(publicCtx(), "svc-1")
	assert.ErrorIs(t, err, domain.ErrNoPermission)
}

func TestManager_SaveNewsArticle_createAndUpdate(t *testing.T) {
	manager, _, auditor, bus := testDirectoryManager(t, false)
	ctx := adminCtx()

	_, err := manager.SaveNewsArticle(ctx, &domain.NewsArticle{Identifier: "n-1", Title: "First"})
	require.NoError(t, err)

	_, err = manager.SaveNewsArticle(ctx, &domain.NewsArticle{Identifier: "n-1", Title: "First, revised"})
	require.NoError(t, err)

	assert.Equal(t, []string{"create:News:n-1", "update:News:n-1"}, auditor.entries)
	assert.Contains(t, bus.topics, "news:created")
	assert.Contains(t, bus.topics, "news:updated")
}

func TestManager_SaveCommunityEvent_validation(t *testing.T) {
	manager, _, _, _ := testDirectoryManager(t, false)
	ctx := adminCtx()

	start := time.Now().Add(24 * time.Hour)
	_, err := manager.SaveCommunityEvent(ctx, &domain.CommunityEvent{
		Identifier: "e-1",
		Title:      "Screening Day",
		StartsAt:   start,
		EndsAt:     start.Add(-time.Hour),
	})
	assert.ErrorIs(t, err, domain.ErrInvalidData)

	_, err = manager.SaveCommunityEvent(ctx, &domain.CommunityEvent{
		Identifier: "e-1",
		Title:      "Screening Day",
		StartsAt:   start,
		EndsAt:     start.Add(2 * time.Hour),
	})
	assert.NoError(t, err)
}

func TestManager_GetUpcomingCommunityEvents(t *testing.T) {
	manager, repo, _, _ := testDirectoryManager(t, false)

	now := time.Now()
	past := now.Add(-24 * time.Hour)
	future := now.Add(24 * time.Hour)

	repo.events["past"] = domain.CommunityEvent{Identifier: "past", Title: "Past", StartsAt: past, Published: &past}
	repo.events["future"] = domain.CommunityEvent{Identifier: "future", Title: "Future", StartsAt: future, Published: &past}
	repo.events["hidden"] = domain.CommunityEvent{Identifier: "hidden", Title: "Hidden", StartsAt: future}

	public, err := manager.GetUpcomingCommunityEvents(publicCtx())
	require.NoError(t, err)
	require.Len(t, public, 1)
	assert.Equal(t, domain.EventIdentifier("future"), public[0].Identifier)

	all, err := manager.GetUpcomingCommunityEvents(adminCtx())
	require.NoError(t, err)
	assert.Len(t, all, 2)
}
