package core

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/spf13/viper"

	"github.com/tasknest/taskdeck/pkg/models"
)

// ConfigurationManager loads and validates the client configuration from
// the .taskdeckrc file in the base path.
type ConfigurationManager interface {
	Load() (*models.Config, error)
	Validate(cfg *models.Config) error
}

// viperConfigManager implements ConfigurationManager using Viper for
// reading the YAML configuration file.
type viperConfigManager struct {
	basePath string
}

// NewConfigurationManager creates a ConfigurationManager that reads
// .taskdeckrc relative to basePath.
func NewConfigurationManager(basePath string) ConfigurationManager {
	return &viperConfigManager{basePath: basePath}
}

// defaultConfig returns a Config populated with sensible defaults.
func defaultConfig() *models.Config {
	return &models.Config{
		ServerURL:       "http://localhost:8000",
		TimeoutSeconds:  15,
		DefaultPriority: models.PriorityMedium,
		EventsEnabled:   true,
	}
}

// Load reads the .taskdeckrc file. If the file does not exist, defaults
// are returned.
func (cm *viperConfigManager) Load() (*models.Config, error) {
	cfg := defaultConfig()

	v := viper.New()
	v.SetConfigName(".taskdeckrc")
	v.SetConfigType("yaml")
	v.AddConfigPath(cm.basePath)

	v.SetDefault("server.url", cfg.ServerURL)
	v.SetDefault("server.timeout_seconds", cfg.TimeoutSeconds)
	v.SetDefault("defaults.priority", string(cfg.DefaultPriority))
	v.SetDefault("events.enabled", cfg.EventsEnabled)
	v.SetDefault("notify.webhook_url", cfg.WebhookURL)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			// No config file is fine, run on defaults.
			return cfg, nil
		}
		return nil, fmt.Errorf("reading .taskdeckrc: %w", err)
	}

	cfg.ServerURL = v.GetString("server.url")
	cfg.TimeoutSeconds = v.GetInt("server.timeout_seconds")
	cfg.DefaultPriority = models.NormalizePriority(v.GetString("defaults.priority"))
	cfg.EventsEnabled = v.GetBool("events.enabled")
	cfg.WebhookURL = v.GetString("notify.webhook_url")

	return cfg, nil
}

// validConfigPriorities is the set of allowed default priorities.
var validConfigPriorities = map[models.TaskPriority]bool{
	models.PriorityUrgent: true,
	models.PriorityHigh:   true,
	models.PriorityMedium: true,
	models.PriorityLow:    true,
}

// Validate checks the configuration for invalid values and returns a
// clear error message identifying the problem.
func (cm *viperConfigManager) Validate(cfg *models.Config) error {
	if cfg == nil {
		return fmt.Errorf("configuration is nil")
	}

	var errs []string

	if strings.TrimSpace(cfg.ServerURL) == "" {
		errs = append(errs, "server.url must not be empty")
	} else if u, err := url.Parse(cfg.ServerURL); err != nil || u.Scheme == "" || u.Host == "" {
		errs = append(errs, fmt.Sprintf("server.url %q is not a valid URL", cfg.ServerURL))
	}

	if cfg.TimeoutSeconds < 0 {
		errs = append(errs, fmt.Sprintf("server.timeout_seconds must be non-negative, got %d", cfg.TimeoutSeconds))
	}

	if cfg.DefaultPriority != "" && !validConfigPriorities[cfg.DefaultPriority] {
		errs = append(errs, fmt.Sprintf(
			"defaults.priority %q is invalid, must be one of: urgent, high, medium, low",
			cfg.DefaultPriority,
		))
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}

	return nil
}
