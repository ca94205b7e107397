package audit

// SecurityEvent is published on the message bus for security relevant
// occurrences like failed authorization checks. The recorder turns it into a
// persisted audit event.
type SecurityEvent struct {
	EntityType string
	EntityId   string
	UserId     string
	Details    string // JSON encoded details of the occurrence
	Reason     string
}

// SystemEvent is published on the message bus for internal platform
// occurrences like retention runs or integrity sweeps.
type SystemEvent struct {
	EntityType string
	EntityId   string
	Details    string // JSON encoded details of the occurrence
	Reason     string
}
