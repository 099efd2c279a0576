package adapter_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ninja-pay/opsdash/pkg/adapter"
)

func TestNormalizeMetricsNilInput(t *testing.T) {
	norm := adapter.New(false)

	payload := norm.NormalizeMetrics(nil)

	assert.Equal(t, int64(0), payload.TotalPayments)
	assert.Equal(t, int64(0), payload.TotalAmountMinor)
	assert.Empty(t, payload.TotalAmountCurrency)
	assert.NotNil(t, payload.Timeseries)
	assert.NotNil(t, payload.PspDistribution)
	assert.NotNil(t, payload.TotalsByCurrency)
	assert.NotNil(t, payload.ServiceHealth)
	assert.NotNil(t, payload.StatusCounts)
	assert.NotNil(t, payload.ProviderCounts)
}

func TestNormalizeMetricsHeadlineFields(t *testing.T) {
	norm := adapter.New(false)

	payload := norm.NormalizeMetrics(map[string]any{
		"totalPayments":       float64(320),
		"totalAmountMinor":    float64(987000),
		"totalAmountCurrency": "clp",
		"activeCompanies":     float64(4),
		"successRate":         85.5,
		"topPsp":              "webpay",
		"statusCounts":        map[string]any{"AUTHORIZED": float64(280), "FAILED": float64(40)},
		"pspCounts":           map[string]any{"webpay": float64(200), "stripe": float64(120)},
	})

	assert.Equal(t, int64(320), payload.TotalPayments)
	assert.Equal(t, int64(987000), payload.TotalAmountMinor)
	assert.Equal(t, "CLP", payload.TotalAmountCurrency)
	assert.Equal(t, int64(4), payload.ActiveCompanies)
	assert.Equal(t, 85.5, payload.SuccessRate)
	assert.Equal(t, "webpay", payload.TopPsp)
	assert.Equal(t, int64(280), payload.StatusCounts["AUTHORIZED"])
	assert.Equal(t, int64(120), payload.ProviderCounts["stripe"])
}

func TestNormalizeMetricsRejectsMixedCurrency(t *testing.T) {
	norm := adapter.New(false)

	payload := norm.NormalizeMetrics(map[string]any{
		"totalAmountMinor":    float64(5000),
		"totalAmountCurrency": "MIXED",
	})

	assert.Empty(t, payload.TotalAmountCurrency)
	// No known headline currency means no synthesized per-currency total.
	assert.Empty(t, payload.TotalsByCurrency)
}

func TestNormalizeMetricsCountsFromArrays(t *testing.T) {
	norm := adapter.New(false)

	payload := norm.NormalizeMetrics(map[string]any{
		"statusCounts": []any{
			map[string]any{"status": "AUTHORIZED", "count": float64(10)},
			map[string]any{"status": "REJECTED", "count": float64(3)},
		},
		"psp_counts": []any{
			map[string]any{"provider": "paypal", "total": float64(6)},
		},
	})

	assert.Equal(t, int64(10), payload.StatusCounts["AUTHORIZED"])
	assert.Equal(t, int64(3), payload.StatusCounts["REJECTED"])
	assert.Equal(t, int64(6), payload.ProviderCounts["paypal"])
}

func TestNormalizeMetricsTopPspObject(t *testing.T) {
	norm := adapter.New(false)

	payload := norm.NormalizeMetrics(map[string]any{
		"topPsp": map[string]any{"provider": "stripe", "amount": float64(100)},
	})
	assert.Equal(t, "stripe", payload.TopPsp)
}

func TestNormalizeMetricsTimeseries(t *testing.T) {
	norm := adapter.New(false)

	payload := norm.NormalizeMetrics(map[string]any{
		"totalAmountCurrency": "USD",
		"timeseries": []any{
			map[string]any{
				"timestamp":   "2026-08-20T10:00:00Z",
				"count":       float64(12),
				"amountMinor": float64(34000),
				"successRate": 91.7,
			},
			map[string]any{
				// No usable timestamp: the point is dropped.
				"count": float64(5),
			},
		},
	})

	require.Len(t, payload.Timeseries, 1)
	point := payload.Timeseries[0]
	assert.Equal(t, "2026-08-20T10:00:00Z", point.Timestamp)
	assert.Equal(t, int64(12), point.Count)
	assert.Equal(t, int64(34000), point.AmountMinor)
	assert.Equal(t, 91.7, point.SuccessRate)
	assert.Equal(t, "USD", point.Currency)
}

func TestNormalizeMetricsTimeseriesProviders(t *testing.T) {
	norm := adapter.New(false)

	payload := norm.NormalizeMetrics(map[string]any{
		"timeseries": []any{
			map[string]any{
				"timestamp": "2026-08-20T10:00:00Z",
				"providers": []any{
					// Fractional rate scaled to a percentage, authorized
					// derived from rate and total.
					map[string]any{"provider": "webpay", "total": float64(40), "successRate": 0.9},
					// Rate derived from authorized/total.
					map[string]any{"provider": "stripe", "total": float64(20), "authorized": float64(15)},
					// Out-of-range rate clamped.
					map[string]any{"provider": "paypal", "total": float64(10), "successRate": float64(130)},
				},
			},
		},
	})

	require.Len(t, payload.Timeseries, 1)
	providers := payload.Timeseries[0].Providers
	require.NotNil(t, providers)

	webpay := providers["webpay"]
	assert.Equal(t, int64(40), webpay.Total)
	assert.Equal(t, int64(36), webpay.Authorized)
	assert.InDelta(t, 90, webpay.SuccessRate, 0.001)

	stripe := providers["stripe"]
	assert.Equal(t, int64(15), stripe.Authorized)
	assert.InDelta(t, 75, stripe.SuccessRate, 0.001)

	assert.Equal(t, float64(100), providers["paypal"].SuccessRate)
}

func TestNormalizeMetricsTimeseriesProviderRecord(t *testing.T) {
	norm := adapter.New(false)

	payload := norm.NormalizeMetrics(map[string]any{
		"timeseries": []any{
			map[string]any{
				"timestamp":      "2026-08-20T10:00:00Z",
				"providerCounts": map[string]any{"webpay": float64(7)},
			},
		},
	})

	require.Len(t, payload.Timeseries, 1)
	providers := payload.Timeseries[0].Providers
	require.NotNil(t, providers)
	assert.Equal(t, int64(7), providers["webpay"].Total)
	assert.Equal(t, int64(0), providers["webpay"].Authorized)
}

func TestNormalizeMetricsPspDistribution(t *testing.T) {
	norm := adapter.New(false)

	payload := norm.NormalizeMetrics(map[string]any{
		"totalAmountCurrency": "CLP",
		"pspDistribution": []any{
			map[string]any{"provider": "webpay", "totalAmountMinor": float64(500000), "count": float64(12)},
			map[string]any{"name": "stripe", "total": float64(90000), "txCount": float64(4), "currency": "usd"},
			"noise",
		},
	})

	require.Len(t, payload.PspDistribution, 2)

	assert.Equal(t, "webpay", payload.PspDistribution[0].Provider)
	assert.Equal(t, int64(500000), payload.PspDistribution[0].TotalAmountMinor)
	assert.Equal(t, int64(12), payload.PspDistribution[0].Count)
	assert.Equal(t, "CLP", payload.PspDistribution[0].Currency)

	assert.Equal(t, "stripe", payload.PspDistribution[1].Provider)
	assert.Equal(t, int64(90000), payload.PspDistribution[1].TotalAmountMinor)
	assert.Equal(t, int64(4), payload.PspDistribution[1].Count)
	assert.Equal(t, "USD", payload.PspDistribution[1].Currency)
}

func TestNormalizeMetricsTotalsByCurrency(t *testing.T) {
	norm := adapter.New(false)

	t.Run("explicit breakdown", func(t *testing.T) {
		payload := norm.NormalizeMetrics(map[string]any{
			"totalsByCurrency": []any{
				map[string]any{"currency": "CLP", "amountMinor": float64(750000)},
				map[string]any{"currency": "usd", "amountMinor": float64(12000)},
				map[string]any{"currency": "MIXED", "amountMinor": float64(999)},
			},
		})

		require.Len(t, payload.TotalsByCurrency, 2)
		assert.Equal(t, "CLP", payload.TotalsByCurrency[0].Currency)
		assert.Equal(t, int64(750000), payload.TotalsByCurrency[0].AmountMinor)
		assert.Equal(t, "USD", payload.TotalsByCurrency[1].Currency)
	})

	t.Run("synthesized from headline total", func(t *testing.T) {
		payload := norm.NormalizeMetrics(map[string]any{
			"totalAmountMinor":    float64(42000),
			"totalAmountCurrency": "CLP",
		})

		require.Len(t, payload.TotalsByCurrency, 1)
		assert.Equal(t, "CLP", payload.TotalsByCurrency[0].Currency)
		assert.Equal(t, int64(42000), payload.TotalsByCurrency[0].AmountMinor)
	})
}

func TestNormalizeMetricsServiceHealth(t *testing.T) {
	norm := adapter.New(false)

	payload := norm.NormalizeMetrics(map[string]any{
		"serviceHealth": []any{
			map[string]any{
				"service":     "payments-api",
				"status":      "degraded",
				"latency_p95": float64(420),
				"errorRate":   0.05,
				"throughput":  float64(120),
				"updatedAt":   "2026-08-20T10:00:00Z",
			},
			map[string]any{"name": "conciliator"},
		},
	})

	require.Len(t, payload.ServiceHealth, 2)

	first := payload.ServiceHealth[0]
	assert.Equal(t, "payments-api", first.Service)
	assert.Equal(t, "degraded", first.Status)
	assert.Equal(t, float64(420), first.LatencyP95)
	assert.Equal(t, 0.05, first.ErrorRate)
	assert.Equal(t, "2026-08-20T10:00:00Z", first.UpdatedAt)

	second := payload.ServiceHealth[1]
	assert.Equal(t, "conciliator", second.Service)
	assert.Equal(t, "operational", second.Status)
	assert.NotEmpty(t, second.UpdatedAt)
}
