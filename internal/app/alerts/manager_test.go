package alerts

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/medinfohub/med-portal/internal/config"
	"github.com/medinfohub/med-portal/internal/domain"
)

// region test-fakes

type fakeAuditor struct {
	mu      sync.Mutex
	checked []domain.EntityRef
	reports map[domain.EntityRef]*domain.IntegrityReport
}

func (f *fakeAuditor) VerifyEntityIntegrity(_ context.Context, entityType, entityId string) (*domain.IntegrityReport, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	ref := domain.EntityRef{EntityType: entityType, EntityId: entityId}
	f.checked = append(f.checked, ref)

	if report, ok := f.reports[ref]; ok {
		return report, nil
	}
	return &domain.IntegrityReport{EntityType: entityType, EntityId: entityId}, nil
}

type fakeAlertRepo struct {
	refs []domain.EntityRef
}

func (f *fakeAlertRepo) GetAuditedEntities(_ context.Context, _ time.Time) ([]domain.EntityRef, error) {
	return f.refs, nil
}

type fakeMailer struct {
	mu       sync.Mutex
	subjects []string
	bodies   []string
	to       [][]string
}

func (f *fakeMailer) Send(_ context.Context, subject, body string, to []string, _ *domain.MailOptions) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.subjects = append(f.subjects, subject)
	f.bodies = append(f.bodies, body)
	f.to = append(f.to, to)
	return nil
}

type fakeBus struct {
	mu     sync.Mutex
	topics []string
}

func (f *fakeBus) Publish(topic string, _ ...any) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.topics = append(f.topics, topic)
}

func (f *fakeBus) Subscribe(_ string, _ interface{}) error { return nil }

// endregion test-fakes

func testAlertConfig() *config.Config {
	cfg := &config.Config{}
	cfg.Core.SiteTitle = "MedInfoHub"
	cfg.Alerts.Enabled = true
	cfg.Alerts.SweepInterval = time.Hour
	cfg.Alerts.Recipients = []string{"compliance@example.com"}

	return cfg
}

func testReport() domain.IntegrityReport {
	return domain.IntegrityReport{
		EntityType:    "Service",
		EntityId:      "svc-1",
		TotalEvents:   3,
		ValidEvents:   2,
		InvalidEvents: 1,
		CheckedAt:     time.Now().UTC(),
		Violations: []domain.IntegrityViolation{
			{EventId: "evt-2", Description: "signature mismatch, record was modified after signing"},
		},
	}
}

func TestManager_handleIntegrityViolation_mail(t *testing.T) {
	mailer := &fakeMailer{}
	bus := &fakeBus{}

	manager, err := NewAlertManager(testAlertConfig(), bus, &fakeAuditor{}, &fakeAlertRepo{}, mailer)
	require.NoError(t, err)

	manager.handleIntegrityViolation(testReport())

	require.Len(t, mailer.subjects, 1)
	assert.Contains(t, mailer.subjects[0], "Service svc-1")
	assert.Contains(t, mailer.bodies[0], "evt-2")
	assert.Equal(t, []string{"compliance@example.com"}, mailer.to[0])
	assert.Contains(t, bus.topics, "alert:sent")
}

func TestManager_handleIntegrityViolation_webhook(t *testing.T) {
	var (
		mu       sync.Mutex
		received alertPayload
		auth     string
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		defer mu.Unlock()

		body, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(body, &received)
		auth = r.Header.Get("Authorization")
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	cfg := testAlertConfig()
	cfg.Alerts.Recipients = nil // webhook only
	cfg.Webhook.Url = srv.URL
	cfg.Webhook.Authentication = "Bearer token123"
	cfg.Webhook.Timeout = 5 * time.Second

	bus := &fakeBus{}
	manager, err := NewAlertManager(cfg, bus, &fakeAuditor{}, &fakeAlertRepo{}, &fakeMailer{})
	require.NoError(t, err)

	manager.handleIntegrityViolation(testReport())

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, "integrity_violation", received.Event)
	assert.Equal(t, "Service", received.EntityType)
	assert.Equal(t, "svc-1", received.EntityId)
	assert.Equal(t, 1, received.Invalid)
	assert.Equal(t, "Bearer token123", auth)
	assert.Contains(t, bus.topics, "alert:sent")
}

func TestManager_handleIntegrityViolation_webhookFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	cfg := testAlertConfig()
	cfg.Alerts.Recipients = nil
	cfg.Webhook.Url = srv.URL
	cfg.Webhook.Timeout = 5 * time.Second

	bus := &fakeBus{}
	manager, err := NewAlertManager(cfg, bus, &fakeAuditor{}, &fakeAlertRepo{}, &fakeMailer{})
	require.NoError(t, err)

	manager.handleIntegrityViolation(testReport())

	assert.NotContains(t, bus.topics, "alert:sent")
}

func TestManager_runSweep_checksAllRecentEntities(t *testing.T) {
	auditor := &fakeAuditor{}
	repo := &fakeAlertRepo{
		refs: []domain.EntityRef{
			{EntityType: "Service", EntityId: "svc-1"},
			{EntityType: "News", EntityId: "n-1"},
		},
	}

	manager, err := NewAlertManager(testAlertConfig(), &fakeBus{}, auditor, repo, &fakeMailer{})
	require.NoError(t, err)

	manager.runSweep(context.Background(), time.Now().Add(-time.Hour))

	assert.ElementsMatch(t, repo.refs, auditor.checked)
}
