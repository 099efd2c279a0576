package transport_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ninja-pay/opsdash/pkg/config"
	"github.com/ninja-pay/opsdash/pkg/domain"
	"github.com/ninja-pay/opsdash/pkg/transport"
)

func TestGetServicesHealth(t *testing.T) {
	var execAuth string
	healthy := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		execAuth = r.Header.Get("Authorization")
		_ = json.NewEncoder(w).Encode(map[string]any{"status": "ok"})
	}))
	defer healthy.Close()

	degraded := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"status": "degraded"})
	}))
	defer degraded.Close()

	broken := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer broken.Close()

	client := transport.NewClient(&transport.Config{
		BaseURL: healthy.URL,
		HealthTargets: []config.HealthTarget{
			{ID: "executive", Label: "Executive API", URL: healthy.URL, Token: "health-token"},
			{ID: "payments", Label: "Payments API", URL: degraded.URL},
			{ID: "conciliator", Label: "Conciliator", URL: broken.URL},
		},
	})

	snapshots := client.GetServicesHealth(context.Background())

	// Results land in target order regardless of response timing.
	require.Len(t, snapshots, 3)
	assert.Equal(t, "executive", snapshots[0].ID)
	assert.Equal(t, domain.ServiceOperational, snapshots[0].Status)
	assert.Equal(t, "Bearer health-token", execAuth)

	assert.Equal(t, "payments", snapshots[1].ID)
	assert.Equal(t, domain.ServiceDegraded, snapshots[1].Status)

	assert.Equal(t, "conciliator", snapshots[2].ID)
	assert.Equal(t, domain.ServiceDown, snapshots[2].Status)
	assert.Equal(t, "error", snapshots[2].RawStatus)
}

func TestGetServicesHealthNoTargets(t *testing.T) {
	client := transport.NewClient(transport.DefaultConfig())
	snapshots := client.GetServicesHealth(context.Background())
	assert.NotNil(t, snapshots)
	assert.Empty(t, snapshots)
}
