package domain

import (
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

type AuditEventType string

const (
	AuditEventTypeCreate   AuditEventType = "create"
	AuditEventTypeUpdate   AuditEventType = "update"
	AuditEventTypeDelete   AuditEventType = "delete"
	AuditEventTypeRead     AuditEventType = "read"
	AuditEventTypeSystem   AuditEventType = "system"
	AuditEventTypeSecurity AuditEventType = "security"
)

// SignaturePayloadVersion is the version prefix of the canonical signing payload.
// It must be bumped whenever the payload layout changes, so that old signatures
// stay verifiable against the layout they were produced with.
const SignaturePayloadVersion = "v1"

// AuditEvent is one immutable, signed record of an audited action.
//
// An event is constructed fully via NewAuditEvent, gets its signature attached
// exactly once via WithSignature and is then persisted. No field is ever
// modified afterwards; corrections are recorded as new compensating events.
// EntityType and EntityId are plain strings without foreign keys on purpose,
// the audit trail must survive deletion of the audited entity.
type AuditEvent struct {
	Id string `gorm:"primaryKey;column:id"`

	EventType  AuditEventType `gorm:"column:event_type"`
	EntityType string         `gorm:"column:entity_type;index:idx_ae_entity"`
	EntityId   string         `gorm:"column:entity_id;index:idx_ae_entity"`

	UserId    string `gorm:"column:user_id;index:idx_ae_user"`
	UserName  string `gorm:"column:user_name"`
	SessionId string `gorm:"column:session_id"`
	IpAddress string `gorm:"column:ip_address"`
	UserAgent string `gorm:"column:user_agent"`

	Timestamp time.Time `gorm:"column:timestamp;index:idx_ae_timestamp"`
	Reason    string    `gorm:"column:reason"`

	// OldValues and NewValues hold serialized JSON snapshots of the changed
	// state. Stored as text so that all supported databases can hold them.
	OldValues string `gorm:"column:old_values"`
	NewValues string `gorm:"column:new_values"`

	CorrelationId string `gorm:"column:correlation_id;index:idx_ae_correlation"`

	Signature          string `gorm:"column:signature"`
	SignatureAlgorithm string `gorm:"column:signature_algorithm"`

	IsCritical bool `gorm:"column:is_critical;index:idx_ae_critical"`
}

func (AuditEvent) TableName() string {
	return "audit_events"
}

// auditClock hands out process-wide, monotonically non-decreasing UTC timestamps.
// Ties are possible and acceptable; verification never depends on strict ordering.
var auditClock = struct {
	mu   sync.Mutex
	last time.Time
}{}

func nextAuditTimestamp() time.Time {
	auditClock.mu.Lock()
	defer auditClock.mu.Unlock()

	now := time.Now().UTC()
	if now.Before(auditClock.last) {
		now = auditClock.last
	}
	auditClock.last = now

	return now
}

// NewAuditEventId returns a collision-resistant 128-bit identifier in hex form.
func NewAuditEventId() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}

// NewAuditEvent assembles a complete, unsigned audit event from the given
// caller context. The timestamp is set exactly once, here.
func NewAuditEvent(
	caller *CallerContext,
	eventType AuditEventType,
	entityType, entityId string,
	oldValues, newValues, reason string,
) AuditEvent {
	if caller == nil {
		caller = AnonymousCallerContext()
	}

	userId := caller.UserId
	if userId == "" {
		userId = CtxAnonymousUserId
	}

	return AuditEvent{
		Id:            NewAuditEventId(),
		EventType:     eventType,
		EntityType:    entityType,
		EntityId:      entityId,
		UserId:        userId,
		UserName:      caller.UserName,
		SessionId:     caller.SessionId,
		IpAddress:     caller.IpAddress,
		UserAgent:     caller.UserAgent,
		Timestamp:     nextAuditTimestamp(),
		Reason:        reason,
		OldValues:     oldValues,
		NewValues:     newValues,
		CorrelationId: caller.CorrelationId,
		IsCritical:    eventType == AuditEventTypeDelete || eventType == AuditEventTypeSecurity,
	}
}

// WithSignature returns a copy of the event with the signature attached.
// The original event stays untouched, write-once semantics are enforced by
// never mutating an event after it was signed.
func (e AuditEvent) WithSignature(signature, algorithm string) AuditEvent {
	e.Signature = signature
	e.SignatureAlgorithm = algorithm

	return e
}

func (e AuditEvent) IsSigned() bool {
	return e.Signature != "" && e.SignatureAlgorithm != ""
}

// GetDataForSigning returns the canonical payload that is signed and verified.
//
// This is a wire format: the field order, the timestamp encoding and the
// length-prefix scheme are fixed and must match on every implementation that
// wants to verify signatures produced here. Each field is encoded as
// "<decimal byte length>:<raw bytes>" and the encoded fields are concatenated
// after the version prefix. Length prefixes make it impossible for field
// content to collide with field boundaries, no matter which characters it
// contains.
//
// The timestamp is formatted from the stored value, never recomputed from a
// clock, so that verification of a persisted event is reproducible forever.
func (e AuditEvent) GetDataForSigning() string {
	fields := []string{
		e.Id,
		string(e.EventType),
		e.EntityType,
		e.EntityId,
		e.UserId,
		e.Timestamp.UTC().Format(time.RFC3339Nano),
		e.OldValues,
		e.NewValues,
		e.Reason,
		e.CorrelationId,
	}

	var sb strings.Builder
	sb.WriteString(SignaturePayloadVersion)
	sb.WriteByte(':')
	for _, field := range fields {
		sb.WriteString(strconv.Itoa(len(field)))
		sb.WriteByte(':')
		sb.WriteString(field)
	}

	return sb.String()
}

// EntityRef identifies one audited business object.
type EntityRef struct {
	EntityType string
	EntityId   string
}

// IntegrityViolation describes one event that failed signature verification.
type IntegrityViolation struct {
	EventId           string `json:"EventId"`
	ExpectedSignature string `json:"ExpectedSignature"`
	ActualSignature   string `json:"ActualSignature"`
	Description       string `json:"Description"`
}

// IntegrityReport is the aggregated verification result for all events of one
// entity. It is derived data and never persisted.
type IntegrityReport struct {
	EntityType     string
	EntityId       string
	TotalEvents    int
	ValidEvents    int
	InvalidEvents  int
	UnsignedEvents int
	CheckedAt      time.Time
	Violations     []IntegrityViolation
}

// IsIntact reports whether the verification found no problems. Unsigned
// events only count as a problem if they were recorded as violations, which
// depends on whether signatures are required.
func (r *IntegrityReport) IsIntact() bool {
	return r.InvalidEvents == 0 && len(r.Violations) == 0
}
