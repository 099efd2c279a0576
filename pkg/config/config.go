// Package config loads dashboard settings from the environment, with an
// optional YAML override file for deployments that cannot set env vars.
package config

import (
	"os"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Defaults applied when the corresponding variable is unset.
const (
	DefaultAPIBaseURL         = "http://127.0.0.1:8200/api/v1"
	DefaultPaymentsAPIBaseURL = "http://127.0.0.1:8000/api"
	DefaultPaymentsAPIToken   = "testtoken"
	DefaultWSURL              = "ws://localhost:4000/events"
	DefaultExecServiceName    = "Executive API"
	DefaultPaymentsService    = "Payments API"
	DefaultConciliatorService = "Conciliator"
)

// HealthTarget names one service health endpoint to poll.
type HealthTarget struct {
	ID    string `yaml:"id"`
	Label string `yaml:"label"`
	URL   string `yaml:"url"`
	Token string `yaml:"token"`
}

// Config holds every knob the dashboard core reads.
type Config struct {
	APIBaseURL string `yaml:"api_base_url"`
	APIToken   string `yaml:"api_token"`

	PaymentsAPIBaseURL string `yaml:"payments_api_base_url"`
	PaymentsAPIToken   string `yaml:"payments_api_token"`

	WSURL string `yaml:"ws_url"`

	// MockMode makes the client trust amounts as minor units verbatim,
	// matching how the fixture server emits them.
	MockMode bool `yaml:"mock_mode"`

	HealthTargets []HealthTarget `yaml:"health_targets"`

	FeatureFlags string `yaml:"feature_flags"`
}

// Load reads .env (when present), then the environment, then an optional
// YAML file named by OPSDASH_CONFIG. Later sources win.
func Load() (*Config, error) {
	// A missing .env is not an error.
	_ = godotenv.Load()

	apiBaseURL := envOr("VITE_API_BASE_URL", DefaultAPIBaseURL)
	apiToken := os.Getenv("VITE_API_TOKEN")

	cfg := &Config{
		APIBaseURL:         apiBaseURL,
		APIToken:           apiToken,
		PaymentsAPIBaseURL: trimTrailingSlash(envOr("VITE_PAYMENTS_API_BASE_URL", DefaultPaymentsAPIBaseURL)),
		PaymentsAPIToken:   envOr("VITE_PAYMENTS_API_TOKEN", DefaultPaymentsAPIToken),
		WSURL:              envOr("VITE_WS_URL", DefaultWSURL),
		MockMode:           os.Getenv("VITE_ENABLE_MSW") == "true",
		FeatureFlags:       os.Getenv("VITE_FEATURE_FLAGS"),
	}

	execHealthURL := os.Getenv("VITE_EXECUTIVE_HEALTH_URL")
	if execHealthURL == "" && apiBaseURL != "" {
		execHealthURL = trimTrailingSlash(apiBaseURL) + "/health/metrics"
	}
	if execHealthURL != "" {
		cfg.HealthTargets = append(cfg.HealthTargets, HealthTarget{
			ID:    "executive",
			Label: envOr("VITE_EXECUTIVE_SERVICE_NAME", DefaultExecServiceName),
			URL:   execHealthURL,
			Token: envOr("VITE_EXECUTIVE_HEALTH_TOKEN", apiToken),
		})
	}
	if url := os.Getenv("VITE_PAYMENTS_HEALTH_URL"); url != "" {
		cfg.HealthTargets = append(cfg.HealthTargets, HealthTarget{
			ID:    "payments",
			Label: envOr("VITE_PAYMENTS_SERVICE_NAME", DefaultPaymentsService),
			URL:   url,
			Token: os.Getenv("VITE_PAYMENTS_HEALTH_TOKEN"),
		})
	}
	if url := os.Getenv("VITE_CONCILIATOR_HEALTH_URL"); url != "" {
		cfg.HealthTargets = append(cfg.HealthTargets, HealthTarget{
			ID:    "conciliator",
			Label: envOr("VITE_CONCILIATOR_SERVICE_NAME", DefaultConciliatorService),
			URL:   url,
			Token: os.Getenv("VITE_CONCILIATOR_HEALTH_TOKEN"),
		})
	}

	if path := os.Getenv("OPSDASH_CONFIG"); path != "" {
		if err := cfg.applyFile(path); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}

func (c *Config) applyFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, c)
}

// IsFeatureEnabled reports whether flag appears in the comma-separated
// feature flag list.
func (c *Config) IsFeatureEnabled(flag string, defaultValue bool) bool {
	if c.FeatureFlags == "" {
		return defaultValue
	}
	for _, item := range strings.Split(c.FeatureFlags, ",") {
		if strings.TrimSpace(item) == flag {
			return true
		}
	}
	return false
}

func envOr(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func trimTrailingSlash(value string) string {
	return strings.TrimSuffix(value, "/")
}
