package adapter_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ninja-pay/opsdash/pkg/adapter"
)

func TestMapPaymentFull(t *testing.T) {
	norm := adapter.New(false)

	payment := norm.MapPayment(map[string]any{
		"id":                  float64(42),
		"payment_order_id":    "po-9",
		"buy_order":           "OC-123",
		"provider":            "webpay",
		"status":              "AUTHORIZED",
		"environment":         "production",
		"amount_minor":        float64(150000),
		"currency":            "clp",
		"fee_minor":           float64(3000),
		"provider_account_id": float64(7),
		"company_id":          "c-1",
		"token":               "tok_abc",
		"created_at":          "2026-08-01T10:00:00Z",
		"updated_at":          "2026-08-01T10:05:00Z",
	})

	assert.Equal(t, "42", payment.ID)
	assert.Equal(t, "po-9", payment.PaymentOrderID)
	assert.Equal(t, "OC-123", payment.BuyOrder)
	assert.Equal(t, "webpay", payment.Provider)
	assert.Equal(t, "AUTHORIZED", payment.Status)
	assert.Equal(t, "production", payment.Environment)
	assert.Equal(t, int64(150000), payment.AmountMinor)
	assert.Equal(t, "CLP", payment.Currency)
	require.NotNil(t, payment.FeeMinor)
	assert.Equal(t, int64(3000), *payment.FeeMinor)
	assert.Equal(t, "CLP", payment.FeeCurrency)
	assert.Equal(t, "7", payment.ProviderAccountID)
	assert.Equal(t, "c-1", payment.CompanyID)
	assert.Equal(t, "tok_abc", payment.Token)
	assert.Equal(t, "2026-08-01T10:00:00Z", payment.CreatedAt)
	assert.Equal(t, "2026-08-01T10:05:00Z", payment.UpdatedAt)
}

func TestMapPaymentDefaults(t *testing.T) {
	norm := adapter.New(false)

	payment := norm.MapPayment(map[string]any{"id": "p-1"})

	assert.Equal(t, "p-1", payment.ID)
	// payment_order_id falls back to the record id.
	assert.Equal(t, "p-1", payment.PaymentOrderID)
	assert.Equal(t, "CLP", payment.Currency)
	assert.Equal(t, "test", payment.Environment)
	assert.Nil(t, payment.FeeMinor)
	assert.NotEmpty(t, payment.CreatedAt)
	assert.Equal(t, payment.CreatedAt, payment.UpdatedAt)
}

func TestMapPaymentMajorAmountPromoted(t *testing.T) {
	norm := adapter.New(false)

	// No minor-unit alias present: "amount" is read as major USD and the
	// major candidate confirms the scaling.
	payment := norm.MapPayment(map[string]any{
		"id":       "p-2",
		"currency": "USD",
		"amount":   float64(1200),
	})

	assert.Equal(t, int64(120000), payment.AmountMinor)
}

func TestMapPaymentTrustedMinorUnits(t *testing.T) {
	norm := adapter.New(true)

	payment := norm.MapPayment(map[string]any{
		"id":       "p-3",
		"currency": "USD",
		"amount":   float64(1200),
	})

	assert.Equal(t, int64(1200), payment.AmountMinor)
}

func TestMapPaymentTokenFromMetadata(t *testing.T) {
	norm := adapter.New(false)

	tests := []struct {
		name string
		raw  map[string]any
		want string
	}{
		{
			"top-level pspReference wins over metadata",
			map[string]any{
				"id":                "p-4",
				"pspReference":      "ref-1",
				"provider_metadata": map[string]any{"token": "tok-meta"},
			},
			"ref-1",
		},
		{
			"metadata token picked up when record carries none",
			map[string]any{
				"id":                "p-5",
				"provider_metadata": map[string]any{"session_id": "sess-9"},
			},
			"sess-9",
		},
		{
			"metadata delivered as a JSON string",
			map[string]any{
				"id":               "p-6",
				"providerMetadata": `{"reference":"ref-json"}`,
			},
			"ref-json",
		},
		{
			"numeric order id rendered as text",
			map[string]any{
				"id":       "p-7",
				"order_id": float64(88123),
			},
			"88123",
		},
		{
			"nothing to extract",
			map[string]any{"id": "p-8"},
			"",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, norm.MapPayment(tt.raw).Token)
		})
	}
}

func TestMapStreamEvent(t *testing.T) {
	norm := adapter.New(false)

	t.Run("complete event", func(t *testing.T) {
		event := norm.MapStreamEvent(map[string]any{
			"id":          "evt-1",
			"type":        "payment.authorized",
			"occurred_at": "2026-08-20T10:00:00Z",
			"payload":     map[string]any{"paymentId": "p-1"},
		})

		assert.Equal(t, "evt-1", event.ID)
		assert.Equal(t, "payment.authorized", event.Type)
		assert.Equal(t, "2026-08-20T10:00:00Z", event.OccurredAt)
		assert.Equal(t, "p-1", event.Payload["paymentId"])
	})

	t.Run("synthetic id from type and timestamp", func(t *testing.T) {
		event := norm.MapStreamEvent(map[string]any{
			"type":      "payment.created",
			"createdAt": "2026-08-20T11:00:00Z",
		})

		assert.Equal(t, "payment.created-2026-08-20T11:00:00Z", event.ID)
	})

	t.Run("scalar payload wrapped", func(t *testing.T) {
		event := norm.MapStreamEvent(map[string]any{
			"id":          "evt-2",
			"occurred_at": "2026-08-20T12:00:00Z",
			"payload":     "plain text",
		})

		assert.Equal(t, "event", event.Type)
		assert.Equal(t, map[string]any{"value": "plain text"}, event.Payload)
	})

	t.Run("empty input still yields an event", func(t *testing.T) {
		event := norm.MapStreamEvent(map[string]any{})

		assert.Equal(t, "event", event.Type)
		assert.NotEmpty(t, event.OccurredAt)
		assert.Equal(t, "event-"+event.OccurredAt, event.ID)
		assert.NotNil(t, event.Payload)
		assert.Empty(t, event.Payload)
	})
}
