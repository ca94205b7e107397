package config

import (
	"time"

	"github.com/medinfohub/med-portal/internal/domain"
)

// AlertConfig controls the periodic integrity sweep that re-verifies recently
// audited entities and notifies operators about violations.
type AlertConfig struct {
	// Enabled toggles the background integrity sweep.
	Enabled bool `yaml:"enabled"`
	// SweepInterval is the interval between two sweeps. Each sweep covers the
	// entities that were audited since the previous one.
	SweepInterval time.Duration `yaml:"sweep_interval"`
	// Recipients receive a compliance alert mail when a sweep finds violations.
	Recipients []string `yaml:"recipients" validate:"dive,email"`
}

// Validate ensures that an enabled sweep has at least one notification channel.
func (c *AlertConfig) Validate(mail *MailConfig, webhook *WebhookConfig) error {
	if !c.Enabled {
		return nil
	}

	if c.SweepInterval <= 0 {
		return &domain.ConfigurationError{
			Field: "alerts.sweep_interval",
			Msg:   "alerting is enabled but no sweep interval is configured",
		}
	}

	mailUsable := mail.Host != "" && len(c.Recipients) > 0
	if !mailUsable && webhook.Url == "" {
		return &domain.ConfigurationError{
			Field: "alerts",
			Msg:   "alerting is enabled but neither mail recipients nor a webhook url are configured",
		}
	}

	return nil
}
