package audit

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/medinfohub/med-portal/internal/config"
	"github.com/medinfohub/med-portal/internal/domain"
)

func testAuditRecorder(t *testing.T, cfg *config.Config) (*Recorder, *fakeAuditRepo, *fakeBus) {
	t.Helper()

	manager, repo, bus := testAuditManager(t, cfg)

	recorder, err := NewAuditRecorder(cfg, bus, manager)
	require.NoError(t, err)

	return recorder, repo, bus
}

func TestNewAuditRecorder_subscribes(t *testing.T) {
	_, _, bus := testAuditRecorder(t, testAuditConfig())

	assert.Contains(t, bus.subscribed, "security:event")
	assert.Contains(t, bus.subscribed, "system:event")
}

func TestNewAuditRecorder_disabledSkipsSubscription(t *testing.T) {
	cfg := testAuditConfig()
	cfg.Audit.Enabled = false

	_, _, bus := testAuditRecorder(t, cfg)

	assert.Empty(t, bus.subscribed)
}

func TestRecorder_handleSecurityEvent(t *testing.T) {
	recorder, repo, _ := testAuditRecorder(t, testAuditConfig())

	recorder.handleSecurityEvent(SecurityEvent{
		EntityType: "Service",
		EntityId:   "svc-1",
		UserId:     "intruder",
		Details:    `{"action":"delete service"}`,
		Reason:     "permission denied",
	})

	require.Len(t, repo.events, 1)
	event := repo.events[0]
	assert.Equal(t, domain.AuditEventTypeSecurity, event.EventType)
	assert.Equal(t, "Service", event.EntityType)
	assert.Equal(t, "svc-1", event.EntityId)
	assert.Equal(t, "intruder", event.UserId)
	assert.Equal(t, "permission denied", event.Reason)
	assert.True(t, event.IsCritical)
	assert.True(t, event.IsSigned())
}

func TestRecorder_handleSecurityEvent_missingUser(t *testing.T) {
	recorder, repo, _ := testAuditRecorder(t, testAuditConfig())

	recorder.handleSecurityEvent(SecurityEvent{EntityType: "Service", EntityId: "svc-1"})

	require.Len(t, repo.events, 1)
	assert.Equal(t, domain.CtxSystemUserId, repo.events[0].UserId)
}

func TestRecorder_handleSystemEvent(t *testing.T) {
	cfg := testAuditConfig()
	cfg.Audit.LogSystemEvents = true
	recorder, repo, _ := testAuditRecorder(t, cfg)

	recorder.handleSystemEvent(SystemEvent{
		EntityType: domain.EntityTypeAuditRetention,
		EntityId:   "2026-01-01T00:00:00Z",
		Details:    `{"purged":12}`,
		Reason:     "retention policy",
	})

	require.Len(t, repo.events, 1)
	event := repo.events[0]
	assert.Equal(t, domain.AuditEventTypeSystem, event.EventType)
	assert.Equal(t, domain.CtxSystemUserId, event.UserId)
	assert.True(t, event.IsSigned())
}

func TestRecorder_handleSystemEvent_gatedByConfig(t *testing.T) {
	recorder, repo, _ := testAuditRecorder(t, testAuditConfig())

	recorder.handleSystemEvent(SystemEvent{EntityType: domain.EntityTypeAuditRetention, EntityId: "x"})

	assert.Empty(t, repo.events)
}
