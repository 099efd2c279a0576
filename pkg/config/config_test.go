package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ninja-pay/opsdash/pkg/config"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"VITE_API_BASE_URL", "VITE_API_TOKEN",
		"VITE_PAYMENTS_API_BASE_URL", "VITE_PAYMENTS_API_TOKEN",
		"VITE_WS_URL", "VITE_ENABLE_MSW", "VITE_FEATURE_FLAGS",
		"VITE_EXECUTIVE_HEALTH_URL", "VITE_EXECUTIVE_HEALTH_TOKEN", "VITE_EXECUTIVE_SERVICE_NAME",
		"VITE_PAYMENTS_HEALTH_URL", "VITE_PAYMENTS_HEALTH_TOKEN", "VITE_PAYMENTS_SERVICE_NAME",
		"VITE_CONCILIATOR_HEALTH_URL", "VITE_CONCILIATOR_HEALTH_TOKEN", "VITE_CONCILIATOR_SERVICE_NAME",
		"OPSDASH_CONFIG",
	} {
		t.Setenv(key, "")
		require.NoError(t, os.Unsetenv(key))
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, config.DefaultAPIBaseURL, cfg.APIBaseURL)
	assert.Equal(t, config.DefaultPaymentsAPIBaseURL, cfg.PaymentsAPIBaseURL)
	assert.Equal(t, config.DefaultPaymentsAPIToken, cfg.PaymentsAPIToken)
	assert.Equal(t, config.DefaultWSURL, cfg.WSURL)
	assert.False(t, cfg.MockMode)

	// The executive health target is derived from the API base URL.
	require.Len(t, cfg.HealthTargets, 1)
	assert.Equal(t, "executive", cfg.HealthTargets[0].ID)
	assert.Equal(t, config.DefaultExecServiceName, cfg.HealthTargets[0].Label)
	assert.Equal(t, config.DefaultAPIBaseURL+"/health/metrics", cfg.HealthTargets[0].URL)
}

func TestLoadFromEnvironment(t *testing.T) {
	clearEnv(t)
	t.Setenv("VITE_API_BASE_URL", "https://api.example.com/v1")
	t.Setenv("VITE_API_TOKEN", "api-token")
	t.Setenv("VITE_PAYMENTS_API_BASE_URL", "https://pay.example.com/api/")
	t.Setenv("VITE_ENABLE_MSW", "true")
	t.Setenv("VITE_PAYMENTS_HEALTH_URL", "https://pay.example.com/health")
	t.Setenv("VITE_CONCILIATOR_HEALTH_URL", "https://conc.example.com/health")
	t.Setenv("VITE_CONCILIATOR_HEALTH_TOKEN", "conc-token")

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, "https://api.example.com/v1", cfg.APIBaseURL)
	assert.Equal(t, "https://pay.example.com/api", cfg.PaymentsAPIBaseURL)
	assert.True(t, cfg.MockMode)

	require.Len(t, cfg.HealthTargets, 3)
	// Without its own token, the executive target inherits the API token.
	assert.Equal(t, "api-token", cfg.HealthTargets[0].Token)
	assert.Equal(t, "payments", cfg.HealthTargets[1].ID)
	assert.Equal(t, "conciliator", cfg.HealthTargets[2].ID)
	assert.Equal(t, "conc-token", cfg.HealthTargets[2].Token)
}

func TestLoadYAMLOverride(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "opsdash.yaml")
	require.NoError(t, os.WriteFile(path, []byte("api_base_url: https://override.example.com\nmock_mode: true\n"), 0o600))
	t.Setenv("OPSDASH_CONFIG", path)

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, "https://override.example.com", cfg.APIBaseURL)
	assert.True(t, cfg.MockMode)
}

func TestLoadYAMLOverrideMissingFile(t *testing.T) {
	clearEnv(t)
	t.Setenv("OPSDASH_CONFIG", filepath.Join(t.TempDir(), "absent.yaml"))

	_, err := config.Load()
	assert.Error(t, err)
}

func TestIsFeatureEnabled(t *testing.T) {
	tests := []struct {
		name         string
		flags        string
		flag         string
		defaultValue bool
		want         bool
	}{
		{"empty list keeps default true", "", "charts", true, true},
		{"empty list keeps default false", "", "charts", false, false},
		{"listed flag on", "charts,exports", "exports", false, true},
		{"whitespace tolerated", " charts , exports ", "charts", false, true},
		{"unlisted flag off even when default true", "charts", "exports", true, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &config.Config{FeatureFlags: tt.flags}
			assert.Equal(t, tt.want, cfg.IsFeatureEnabled(tt.flag, tt.defaultValue))
		})
	}
}
