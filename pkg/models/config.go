package models

// Config holds client-wide settings read from .taskdeckrc via Viper.
type Config struct {
	ServerURL       string       `yaml:"server_url" mapstructure:"server_url"`
	TimeoutSeconds  int          `yaml:"timeout_seconds" mapstructure:"timeout_seconds"`
	DefaultPriority TaskPriority `yaml:"default_priority" mapstructure:"default_priority"`
	EventsEnabled   bool         `yaml:"events_enabled" mapstructure:"events_enabled"`
	WebhookURL      string       `yaml:"webhook_url,omitempty" mapstructure:"webhook_url"`
}
