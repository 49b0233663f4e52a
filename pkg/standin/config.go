package standin

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"
)

// Config is the full engine configuration. Values come from an optional
// yaml file overlaid with environment variables; the flat env names
// (OWNER_NAME, RESPONSE_DELAY, ...) are the primary deployment surface.
type Config struct {
	Environment     string           `mapstructure:"environment"`
	LogLevel        string           `mapstructure:"log_level"`
	OwnerName       string           `mapstructure:"owner_name"`
	AutoRespond     bool             `mapstructure:"auto_respond"`
	RespondToGroups bool             `mapstructure:"respond_to_groups"`
	ResponseDelay   int              `mapstructure:"response_delay"`
	History         HistoryConfig    `mapstructure:"history"`
	Generation      GenerationConfig `mapstructure:"generation"`
	Classifier      ClassifierConfig `mapstructure:"classifier"`
	Catalog         CatalogConfig    `mapstructure:"catalog"`
	Vendors         VendorsConfig    `mapstructure:"vendors"`
	Transports      TransportsConfig `mapstructure:"transports"`
	Privacy         PrivacyConfig    `mapstructure:"privacy"`
}

// HistoryConfig bounds and optionally persists conversation history.
type HistoryConfig struct {
	MaxLength int    `mapstructure:"max_length"`
	RedisURL  string `mapstructure:"redis_url"`
	TTLHours  int    `mapstructure:"ttl_hours"`
}

// GenerationConfig tunes the reply generator.
type GenerationConfig struct {
	MaxTokens      int `mapstructure:"max_tokens"`
	TimeoutMS      int `mapstructure:"timeout_ms"`
	Retries        int `mapstructure:"retries"`
	RetryBackoffMS int `mapstructure:"retry_backoff_ms"`
}

// ClassifierConfig tunes the context classifier.
type ClassifierConfig struct {
	KnownContacts []string `mapstructure:"known_contacts"`
	TimeoutMS     int      `mapstructure:"timeout_ms"`
}

// CatalogConfig points at the product catalog file.
type CatalogConfig struct {
	Path       string `mapstructure:"path"`
	MaxResults int    `mapstructure:"max_results"`
}

// VendorConfig selects one provider with free-form settings.
type VendorConfig struct {
	Provider string         `mapstructure:"provider"`
	Settings map[string]any `mapstructure:"settings"`
}

// VendorsConfig selects the model backend and the optional voice
// transcription vendor.
type VendorsConfig struct {
	LLM           VendorConfig `mapstructure:"llm"`
	Transcription VendorConfig `mapstructure:"transcription"`
}

// TransportsConfig selects the messaging transport.
type TransportsConfig struct {
	Provider string         `mapstructure:"provider"`
	Settings map[string]any `mapstructure:"settings"`
}

// PrivacyConfig controls log redaction.
type PrivacyConfig struct {
	RedactPII bool `mapstructure:"redact_pii"`
}

// envBindings maps the flat deployment env names onto config keys.
var envBindings = map[string]string{
	"environment":           "ENVIRONMENT",
	"log_level":             "LOG_LEVEL",
	"owner_name":            "OWNER_NAME",
	"auto_respond":          "AUTO_RESPOND",
	"respond_to_groups":     "RESPOND_TO_GROUPS",
	"response_delay":        "RESPONSE_DELAY",
	"history.max_length":    "MAX_HISTORY_LENGTH",
	"history.redis_url":     "REDIS_URL",
	"generation.max_tokens": "MAX_RESPONSE_TOKENS",
	"catalog.path":          "PRODUCTS_FILE",
	"transports.provider":   "TRANSPORT_PROVIDER",
	"vendors.llm.provider":  "LLM_PROVIDER",
}

// LoadConfig reads configuration from path (optional, yaml) and the
// environment. Env values win over file values.
func LoadConfig(path string) (Config, error) {
	v := viper.New()
	v.SetDefault("environment", "development")
	v.SetDefault("log_level", "info")
	v.SetDefault("owner_name", "the owner")
	v.SetDefault("auto_respond", true)
	v.SetDefault("respond_to_groups", false)
	v.SetDefault("response_delay", 2)
	v.SetDefault("history.max_length", 8)
	v.SetDefault("history.ttl_hours", 0)
	v.SetDefault("generation.max_tokens", 150)
	v.SetDefault("generation.timeout_ms", 30000)
	v.SetDefault("generation.retries", 2)
	v.SetDefault("generation.retry_backoff_ms", 200)
	v.SetDefault("classifier.timeout_ms", 5000)
	v.SetDefault("catalog.path", "products.json")
	v.SetDefault("catalog.max_results", 3)
	v.SetDefault("privacy.redact_pii", true)

	for key, env := range envBindings {
		if err := v.BindEnv(key, env); err != nil {
			return Config{}, fmt.Errorf("bind env: %w", err)
		}
	}

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal: %w", err)
	}

	expandEnvStrings(&cfg)

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("validate config: %w", err)
	}
	return cfg, nil
}

// Validate rejects configurations that cannot start.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Transports.Provider) == "" {
		return fmt.Errorf("transports.provider is required")
	}
	if strings.TrimSpace(c.Vendors.LLM.Provider) == "" {
		return fmt.Errorf("vendors.llm.provider is required")
	}
	if c.History.MaxLength < 1 {
		return fmt.Errorf("history.max_length must be at least 1")
	}
	if c.Generation.MaxTokens < 1 {
		return fmt.Errorf("generation.max_tokens must be at least 1")
	}
	if c.ResponseDelay < 0 {
		return fmt.Errorf("response_delay must not be negative")
	}
	return nil
}

// expandEnvStrings resolves ${VAR} references so secrets never need to
// live in the config file.
func expandEnvStrings(cfg *Config) {
	cfg.OwnerName = os.ExpandEnv(cfg.OwnerName)
	cfg.Catalog.Path = os.ExpandEnv(cfg.Catalog.Path)
	cfg.History.RedisURL = os.ExpandEnv(cfg.History.RedisURL)
	cfg.Vendors.LLM.Settings = expandSettings(cfg.Vendors.LLM.Settings)
	cfg.Vendors.Transcription.Settings = expandSettings(cfg.Vendors.Transcription.Settings)
	cfg.Transports.Settings = expandSettings(cfg.Transports.Settings)
}

func expandSettings(settings map[string]any) map[string]any {
	if settings == nil {
		return nil
	}
	for k, val := range settings {
		settings[k] = expandAny(val)
	}
	return settings
}

func expandAny(v any) any {
	switch val := v.(type) {
	case string:
		return os.ExpandEnv(val)
	case []any:
		for i := range val {
			val[i] = expandAny(val[i])
		}
		return val
	case map[string]any:
		for k, item := range val {
			val[k] = expandAny(item)
		}
		return val
	default:
		return v
	}
}
