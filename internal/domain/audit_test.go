package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixedTestEvent() AuditEvent {
	return AuditEvent{
		Id:            "0123456789abcdef0123456789abcdef",
		EventType:     AuditEventTypeUpdate,
		EntityType:    "Service",
		EntityId:      "svc-1",
		UserId:        "user-1",
		UserName:      "Test User",
		SessionId:     "sess-1",
		IpAddress:     "10.0.0.1",
		UserAgent:     "test-agent",
		Timestamp:     time.Date(2026, 5, 17, 12, 30, 45, 123456789, time.UTC),
		Reason:        "fixing a typo",
		OldValues:     `{"title":"Old"}`,
		NewValues:     `{"title":"New"}`,
		CorrelationId: "corr-1",
	}
}

func TestAuditEvent_GetDataForSigning_deterministic(t *testing.T) {
	e := fixedTestEvent()

	first := e.GetDataForSigning()
	for i := 0; i < 100; i++ {
		assert.Equal(t, first, e.GetDataForSigning())
	}
}

func TestAuditEvent_GetDataForSigning_wireFormat(t *testing.T) {
	e := fixedTestEvent()

	// locked wire format: any change here breaks verification of persisted events
	want := "v1:" +
		"32:0123456789abcdef0123456789abcdef" +
		"6:update" +
		"7:Service" +
		"5:svc-1" +
		"6:user-1" +
		"30:2026-05-17T12:30:45.123456789Z" +
		`15:{"title":"Old"}` +
		`15:{"title":"New"}` +
		"13:fixing a typo" +
		"6:corr-1"

	assert.Equal(t, want, e.GetDataForSigning())
}

func TestAuditEvent_GetDataForSigning_delimiterInjection(t *testing.T) {
	// two events whose fields would collide under a naive delimiter join
	a := fixedTestEvent()
	a.EntityType = "Service"
	a.EntityId = "svc|1"

	b := fixedTestEvent()
	b.EntityType = "Service|svc"
	b.EntityId = "1"

	assert.NotEqual(t, a.GetDataForSigning(), b.GetDataForSigning())

	// length prefixes also protect against shifting content between neighbors
	c := fixedTestEvent()
	c.OldValues = `{"title":"Old"}{"title":"New"}`
	c.NewValues = ""

	assert.NotEqual(t, fixedTestEvent().GetDataForSigning(), c.GetDataForSigning())
}

func TestAuditEvent_GetDataForSigning_usesStoredTimestamp(t *testing.T) {
	e := fixedTestEvent()
	payload := e.GetDataForSigning()

	assert.Contains(t, payload, "2026-05-17T12:30:45.123456789Z")

	e.Timestamp = e.Timestamp.Add(time.Second)
	assert.NotEqual(t, payload, e.GetDataForSigning())
}

func TestAuditEvent_WithSignature_copies(t *testing.T) {
	e := fixedTestEvent()
	require.False(t, e.IsSigned())

	signed := e.WithSignature("deadbeef", "hmac-sha256")

	assert.True(t, signed.IsSigned())
	assert.Equal(t, "deadbeef", signed.Signature)
	assert.Equal(t, "hmac-sha256", signed.SignatureAlgorithm)

	// original stays unsigned
	assert.False(t, e.IsSigned())

	// signature fields are not part of the signed payload
	assert.Equal(t, e.GetDataForSigning(), signed.GetDataForSigning())
}

func TestNewAuditEvent_defaults(t *testing.T) {
	e := NewAuditEvent(nil, AuditEventTypeCreate, "Service", "svc-1", "", `{"title":"X"}`, "")

	assert.Len(t, e.Id, 32)
	assert.Equal(t, CtxAnonymousUserId, e.UserId)
	assert.Equal(t, time.UTC, e.Timestamp.Location())
	assert.False(t, e.IsCritical)
	assert.False(t, e.IsSigned())
}

func TestNewAuditEvent_criticalFlag(t *testing.T) {
	tests := []struct {
		eventType AuditEventType
		critical  bool
	}{
		{AuditEventTypeCreate, false},
		{AuditEventTypeUpdate, false},
		{AuditEventTypeRead, false},
		{AuditEventTypeSystem, false},
		{AuditEventTypeDelete, true},
		{AuditEventTypeSecurity, true},
	}

	for _, tt := range tests {
		t.Run(string(tt.eventType), func(t *testing.T) {
			e := NewAuditEvent(SystemCallerContext(), tt.eventType, "Service", "svc-1", "", "", "")
			assert.Equal(t, tt.critical, e.IsCritical)
		})
	}
}

func TestNewAuditEvent_uniqueIds(t *testing.T) {
	seen := make(map[string]struct{})
	for i := 0; i < 1000; i++ {
		e := NewAuditEvent(nil, AuditEventTypeRead, "Service", "svc-1", "", "", "")
		_, exists := seen[e.Id]
		require.False(t, exists)
		seen[e.Id] = struct{}{}
	}
}

func TestNextAuditTimestamp_monotonic(t *testing.T) {
	var previous time.Time
	for i := 0; i < 1000; i++ {
		ts := nextAuditTimestamp()
		require.False(t, ts.Before(previous))
		previous = ts
	}
}
