package config

import (
	"time"

	"github.com/medinfohub/med-portal/internal/domain"
)

type SigningAlgorithm string

const (
	SigningAlgorithmHmacSha256 SigningAlgorithm = "hmac-sha256"
	SigningAlgorithmHmacSha512 SigningAlgorithm = "hmac-sha512"
)

// minSigningKeyLength is the minimum accepted key size in bytes. Shorter keys
// weaken the HMAC below the hash output size.
const minSigningKeyLength = 32

// AuditConfig controls the medical-grade audit log.
type AuditConfig struct {
	// Enabled globally toggles audit capture. When disabled, Log calls are
	// no-ops that return an empty audit id.
	Enabled bool `yaml:"enabled"`
	// RequireSignatures enforces that every persisted event carries a valid
	// signature. When disabled, events may be stored unsigned and integrity
	// checks degrade to "unsigned" reports.
	RequireSignatures bool `yaml:"require_signatures"`
	// SigningAlgorithm selects the HMAC variant for new events. Already
	// persisted events keep verifying with the algorithm they were signed with.
	SigningAlgorithm SigningAlgorithm `yaml:"signing_algorithm"`
	// SigningKey is the pre-shared secret for the HMAC. Provisioning of the
	// key is external, usually via environment substitution in the config file.
	SigningKey domain.PrivateString `yaml:"signing_key"`
	// LogReadOperations enables audit capture for read accesses.
	LogReadOperations bool `yaml:"log_read_operations"`
	// LogSystemEvents enables audit capture for internal system events.
	LogSystemEvents bool `yaml:"log_system_events"`
	// FailOpen decides what happens to a business mutation whose audit record
	// cannot be written: false aborts the mutation (compliance default), true
	// lets it proceed and only logs the failure.
	FailOpen bool `yaml:"fail_open"`
	// MaxRetentionDays is the retention horizon for non-critical events.
	// 0 disables the retention job, events are then kept forever.
	MaxRetentionDays int `yaml:"max_retention_days" validate:"min=0"`
	// RetentionInterval is the interval in which the retention job runs.
	RetentionInterval time.Duration `yaml:"retention_interval"`
	// BatchSize limits how many events a single retention pass deletes at once.
	BatchSize int `yaml:"batch_size" validate:"min=1"`
}

// Validate checks the audit configuration. Called at startup; a missing
// signing key with signatures required must prevent the service from booting.
func (c *AuditConfig) Validate() error {
	switch c.SigningAlgorithm {
	case SigningAlgorithmHmacSha256, SigningAlgorithmHmacSha512:
	default:
		return &domain.ConfigurationError{
			Field: "audit.signing_algorithm",
			Msg:   "unsupported algorithm " + string(c.SigningAlgorithm),
		}
	}

	if c.RequireSignatures && len(c.SigningKey) == 0 {
		return &domain.ConfigurationError{
			Field: "audit.signing_key",
			Msg:   "signatures are required but no signing key is configured",
		}
	}

	if len(c.SigningKey) > 0 && len(c.SigningKey) < minSigningKeyLength {
		return &domain.ConfigurationError{
			Field: "audit.signing_key",
			Msg:   "signing key must be at least 32 bytes",
		}
	}

	if c.MaxRetentionDays > 0 && c.RetentionInterval <= 0 {
		return &domain.ConfigurationError{
			Field: "audit.retention_interval",
			Msg:   "retention is enabled but no interval is configured",
		}
	}

	return nil
}
