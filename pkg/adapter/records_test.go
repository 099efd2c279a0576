package adapter_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ninja-pay/opsdash/pkg/adapter"
)

func TestMapWebhookPaymentIDDescent(t *testing.T) {
	norm := adapter.New(false)

	tests := []struct {
		name string
		raw  map[string]any
		want string
	}{
		{
			"top-level id wins",
			map[string]any{
				"id":         "wh-1",
				"payment_id": "p-1",
				"payload":    map[string]any{"data": map[string]any{"id": "ignored"}},
			},
			"p-1",
		},
		{
			"payload top-level alias",
			map[string]any{
				"id":      "wh-2",
				"payload": map[string]any{"relatedPaymentId": "p-2"},
			},
			"p-2",
		},
		{
			"object metadata buy order",
			map[string]any{
				"id": "wh-3",
				"payload": map[string]any{
					"data": map[string]any{
						"object": map[string]any{
							"metadata": map[string]any{"buy_order": "OC-77"},
							"id":       "pi_ignored",
						},
					},
				},
			},
			"OC-77",
		},
		{
			"object payment intent",
			map[string]any{
				"id": "wh-4",
				"payload": map[string]any{
					"data": map[string]any{
						"object": map[string]any{"payment_intent": "pi_123"},
					},
				},
			},
			"pi_123",
		},
		{
			"object id as last object-level resort",
			map[string]any{
				"id": "wh-5",
				"payload": map[string]any{
					"data": map[string]any{
						"object": map[string]any{"id": "obj-9"},
					},
				},
			},
			"obj-9",
		},
		{
			"data id when object is absent",
			map[string]any{
				"id":      "wh-6",
				"payload": map[string]any{"data": map[string]any{"id": "d-3"}},
			},
			"d-3",
		},
		{
			"payload delivered as JSON text",
			map[string]any{
				"id":      "wh-7",
				"payload": `{"data":{"object":{"metadata":{"paymentId":"p-json"}}}}`,
			},
			"p-json",
		},
		{
			"nothing resolvable",
			map[string]any{"id": "wh-8", "payload": "not json"},
			"",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, norm.MapWebhook(tt.raw).PaymentID)
		})
	}
}

func TestMapWebhookDefaults(t *testing.T) {
	norm := adapter.New(false)

	entry := norm.MapWebhook(map[string]any{"id": float64(12), "provider": "stripe"})

	assert.Equal(t, "12", entry.ID)
	assert.Equal(t, "stripe", entry.Provider)
	assert.Equal(t, "pending", entry.VerificationStatus)
	assert.NotEmpty(t, entry.ReceivedAt)
}

func TestMapUserAccountSyntheticEmail(t *testing.T) {
	norm := adapter.New(false)

	user := norm.MapUserAccount(map[string]any{"id": float64(5), "email": "  "})
	assert.Equal(t, "user-5", user.Email)

	user = norm.MapUserAccount(map[string]any{"id": "u-1", "email": "ops@ninja.pay"})
	assert.Equal(t, "ops@ninja.pay", user.Email)
}

func TestMapCompanyMetadataFallbacks(t *testing.T) {
	norm := adapter.New(false)

	company := norm.MapCompany(map[string]any{
		"id":   "c-1",
		"name": "Acme",
		"metadata": map[string]any{
			"tax_id":  "76.123.456-7",
			"sector":  "retail",
			"country": "CL",
		},
	})

	assert.Equal(t, "76.123.456-7", company.TaxID)
	assert.Equal(t, "retail", company.Industry)
	assert.Equal(t, "CL", company.Country)
	assert.True(t, company.Active)

	// Top-level fields win over metadata.
	company = norm.MapCompany(map[string]any{
		"id":       "c-2",
		"name":     "Acme",
		"industry": "fintech",
		"metadata": map[string]any{"industry": "retail"},
	})
	assert.Equal(t, "fintech", company.Industry)
}

func TestMapCompanyActiveCoercion(t *testing.T) {
	norm := adapter.New(false)

	tests := []struct {
		name  string
		value any
		want  bool
	}{
		{"absent defaults to active", nil, true},
		{"bool false", false, false},
		{"string false", "false", false},
		{"string zero", "0", false},
		{"string true", "true", true},
		{"numeric zero", float64(0), false},
		{"numeric one", float64(1), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			raw := map[string]any{"id": "c-3", "name": "Acme"}
			if tt.value != nil {
				raw["active"] = tt.value
			}
			assert.Equal(t, tt.want, norm.MapCompany(raw).Active)
		})
	}
}

func TestMapCompanyUnnamed(t *testing.T) {
	norm := adapter.New(false)
	assert.Equal(t, "Unnamed company", norm.MapCompany(map[string]any{"id": "c-4"}).Name)
}

func TestMapDisputeAmount(t *testing.T) {
	norm := adapter.New(false)

	t.Run("currency known", func(t *testing.T) {
		dispute := norm.MapDispute(map[string]any{
			"id":           "d-1",
			"currency":     "usd",
			"amount_minor": float64(1500),
		})
		require.NotNil(t, dispute.AmountMinor)
		assert.Equal(t, int64(1500), *dispute.AmountMinor)
		assert.Equal(t, "USD", dispute.Currency)
	})

	t.Run("currency unknown truncates verbatim", func(t *testing.T) {
		dispute := norm.MapDispute(map[string]any{
			"id":           "d-2",
			"amount_minor": 1500.9,
		})
		require.NotNil(t, dispute.AmountMinor)
		assert.Equal(t, int64(1500), *dispute.AmountMinor)
	})

	t.Run("amount absent stays nil", func(t *testing.T) {
		dispute := norm.MapDispute(map[string]any{"id": "d-3"})
		assert.Nil(t, dispute.AmountMinor)
	})
}

func TestMapCrmPushQueueStatus(t *testing.T) {
	norm := adapter.New(false)

	tests := []struct {
		name   string
		status any
		want   string
	}{
		{"blank becomes pending", nil, "PENDING"},
		{"lowercase uppercased", "sent", "SENT"},
		{"sending folds to sent", "SENDING", "SENT"},
		{"completed folds to sent", "completed", "SENT"},
		{"failed passes through", "FAILED", "FAILED"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			raw := map[string]any{"id": "q-1"}
			if tt.status != nil {
				raw["status"] = tt.status
			}
			assert.Equal(t, tt.want, norm.MapCrmPushQueue(raw).Status)
		})
	}
}
