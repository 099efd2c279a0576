package adapter

import (
	"strings"

	"github.com/ninja-pay/opsdash/pkg/domain"
	"github.com/ninja-pay/opsdash/pkg/money"
)

// tokenKeys is the ordered list of provider-reference aliases searched on
// the record itself.
var tokenKeys = []string{
	"token",
	"pspReference", "psp_reference",
	"payment_token", "paymentToken",
	"provider_token", "providerToken",
	"provider_reference", "providerReference",
	"order_id", "orderId",
	"session_id", "sessionId",
}

// metadataTokenKeys is the fallback list searched inside providerMetadata.
var metadataTokenKeys = []string{
	"token",
	"payment_token",
	"provider_token",
	"psp_reference", "pspReference",
	"session_id",
	"order_id",
	"reference",
}

// MapPayment converts a raw payments row into a domain Payment.
func (a *Adapter) MapPayment(raw Raw) domain.Payment {
	currency := currencyOf(raw, "CLP")
	provider := pickString(raw, "provider")

	amountMinor := money.ToMinorUnits(
		pick(raw, "amount_minor", "amountMinor", "totalAmountMinor", "amount", "totalAmount"),
		currency,
		money.Options{
			Provider:        provider,
			MajorCandidates: []any{raw["amount"], raw["amountMajor"], raw["totalAmount"]},
			TrustMinorUnits: a.TrustMinorUnits,
		},
	)

	var feeMinor *int64
	feeCurrency := pickString(raw, "fee_currency", "feeCurrency")
	if feeRaw := pick(raw, "fee_minor", "feeMinor"); feeRaw != nil {
		if feeCurrency == "" {
			feeCurrency = currency
		}
		fee := money.ToMinorUnits(feeRaw, feeCurrency, money.Options{
			Provider:        provider,
			TrustMinorUnits: a.TrustMinorUnits,
		})
		feeMinor = &fee
	}

	createdAt := pickString(raw, "created_at", "createdAt")
	if createdAt == "" {
		createdAt = a.nowISO()
	}
	updatedAt := pickString(raw, "updated_at", "updatedAt")
	if updatedAt == "" {
		updatedAt = createdAt
	}

	paymentOrderID := pickID(raw, "payment_order_id", "paymentOrderId")
	if paymentOrderID == "" {
		paymentOrderID = identifier(raw["id"])
	}

	environment := pickString(raw, "environment")
	if environment == "" {
		environment = domain.EnvironmentTest
	}

	providerMetadata := coerceMap(pick(raw, "provider_metadata", "providerMetadata"))

	return domain.Payment{
		ID:                identifier(raw["id"]),
		PaymentOrderID:    paymentOrderID,
		BuyOrder:          pickString(raw, "buy_order", "buyOrder"),
		Provider:          provider,
		Status:            pickString(raw, "status"),
		Environment:       environment,
		AmountMinor:       amountMinor,
		Currency:          currency,
		FeeMinor:          feeMinor,
		FeeCurrency:       feeCurrency,
		ProviderAccountID: pickID(raw, "provider_account_id", "providerAccountId"),
		CompanyID:         pickID(raw, "company_id", "companyId"),
		Token:             extractToken(raw, providerMetadata),
		CreatedAt:         createdAt,
		UpdatedAt:         updatedAt,
		StatusReason:      pickString(raw, "status_reason", "statusReason"),
		AuthorizationCode: pickString(raw, "authorization_code", "authorizationCode"),
		ResponseCode:      pickString(raw, "response_code", "responseCode"),
	}
}

// extractToken walks the alias lists for a provider reference. The first
// non-empty trimmed candidate wins; nothing is ever fabricated.
func extractToken(raw Raw, providerMetadata map[string]any) string {
	for _, key := range tokenKeys {
		if token := identifier(raw[key]); token != "" {
			return token
		}
	}
	if providerMetadata == nil {
		return ""
	}
	for _, key := range metadataTokenKeys {
		if token := identifier(providerMetadata[key]); token != "" {
			return token
		}
	}
	return ""
}

// currencyOf resolves the currency aliases on a record, uppercased, with a
// caller-chosen default for records that carry none.
func currencyOf(raw Raw, fallback string) string {
	currency := pickString(raw, "currency", "amount_currency", "amountCurrency", "currencyCode")
	if currency == "" {
		return fallback
	}
	return strings.ToUpper(strings.TrimSpace(currency))
}
