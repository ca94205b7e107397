package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/a8m/envsubst"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/medinfohub/med-portal/internal/domain"
)

// Config is the root configuration of the portal. Values are loaded from a
// YAML file (with environment variable substitution) on top of built-in
// defaults and validated before the service starts.
type Config struct {
	Core struct {
		// SiteTitle is the title that is shown on the public website.
		SiteTitle string `yaml:"site_title"`
		// CompanyName is shown at the bottom of the public website.
		CompanyName string `yaml:"company_name"`
	} `yaml:"core"`

	Advanced struct {
		// LogLevel sets the verbosity of the log output (trace, debug, info, warn, error).
		LogLevel string `yaml:"log_level"`
		// LogPretty enables a human readable log format.
		LogPretty bool `yaml:"log_pretty"`
		// LogJson enables JSON log output.
		LogJson bool `yaml:"log_json"`
	} `yaml:"advanced"`

	Statistics struct {
		// ListeningAddress is the address and port for the prometheus exporter.
		ListeningAddress string `yaml:"listening_address"`
		// UpdateInterval is the interval in which database-derived gauges are refreshed.
		UpdateInterval time.Duration `yaml:"update_interval"`
	} `yaml:"statistics"`

	Audit    AuditConfig    `yaml:"audit"`
	Alerts   AlertConfig    `yaml:"alerts"`
	Database DatabaseConfig `yaml:"database"`
	Mail     MailConfig     `yaml:"mail"`
	Web      WebConfig      `yaml:"web"`
	Webhook  WebhookConfig  `yaml:"webhook"`
}

func defaultConfig() *Config {
	cfg := &Config{}

	cfg.Core.SiteTitle = "Medical Information Portal"
	cfg.Core.CompanyName = "MedInfoHub"

	cfg.Advanced.LogLevel = "info"

	cfg.Statistics.ListeningAddress = ":8787"
	cfg.Statistics.UpdateInterval = 1 * time.Minute

	cfg.Audit = AuditConfig{
		Enabled:           true,
		RequireSignatures: true,
		SigningAlgorithm:  SigningAlgorithmHmacSha256,
		LogReadOperations: false,
		LogSystemEvents:   true,
		FailOpen:          false,
		MaxRetentionDays:  0, // keep forever by default
		RetentionInterval: 12 * time.Hour,
		BatchSize:         500,
	}

	cfg.Alerts = AlertConfig{
		Enabled:       false,
		SweepInterval: 1 * time.Hour,
	}

	cfg.Database = DatabaseConfig{
		Type: DatabaseSQLite,
		DSN:  "data/med-portal.db",
	}

	cfg.Web = WebConfig{
		ListeningAddress: ":8888",
		ExternalUrl:      "http://localhost:8888",
		RequestLogging:   false,
	}

	return cfg
}

// GetConfig loads the configuration from the config file (MED_PORTAL_CONFIG or
// config.yml), applies it on top of the defaults and validates the result.
// A missing config file is fine, invalid configuration is not: the error is
// returned here, at startup, never at first use.
func GetConfig() (*Config, error) {
	cfg := defaultConfig()

	cfgFileName := "config.yml"
	if envCfgFileName := os.Getenv("MED_PORTAL_CONFIG"); envCfgFileName != "" {
		cfgFileName = envCfgFileName
	}

	if err := loadConfigFile(cfg, cfgFileName); err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to load config from yaml: %w", err)
		}
	}

	cfg.Web.Sanitize()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// loadConfigFile reads the given yaml file, substitutes referenced environment
// variables and decodes it into cfg.
func loadConfigFile(cfg any, filename string) error {
	data, err := envsubst.ReadFile(filename)
	if err != nil {
		return err
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return err
	}

	return nil
}

var validate = validator.New()

// Validate checks the whole configuration tree. Any violation is returned as
// a fatal domain.ConfigurationError.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var vErrs validator.ValidationErrors
		if errors.As(err, &vErrs) && len(vErrs) > 0 {
			return &domain.ConfigurationError{Field: vErrs[0].Namespace(), Msg: vErrs[0].Tag()}
		}
		return &domain.ConfigurationError{Field: "config", Msg: err.Error()}
	}

	if err := c.Audit.Validate(); err != nil {
		return err
	}

	if err := c.Alerts.Validate(&c.Mail, &c.Webhook); err != nil {
		return err
	}

	return nil
}
