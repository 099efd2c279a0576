package adapter

import (
	"strings"

	"github.com/ninja-pay/opsdash/pkg/domain"
	"github.com/ninja-pay/opsdash/pkg/money"
)

// MapPaymentOrder converts a raw payment-orders row.
func (a *Adapter) MapPaymentOrder(raw Raw) domain.PaymentOrder {
	currency := currencyOf(raw, "CLP")
	createdAt := pickString(raw, "created_at", "createdAt")
	if createdAt == "" {
		createdAt = a.nowISO()
	}
	updatedAt := pickString(raw, "updated_at", "updatedAt")
	if updatedAt == "" {
		updatedAt = createdAt
	}
	status := pickString(raw, "status")
	if status == "" {
		status = domain.PaymentStatusPending
	}
	environment := pickString(raw, "environment")
	if environment == "" {
		environment = domain.EnvironmentTest
	}
	return domain.PaymentOrder{
		ID:          identifier(raw["id"]),
		BuyOrder:    pickString(raw, "buy_order", "buyOrder"),
		PaymentID:   pickID(raw, "payment_id", "paymentId"),
		Environment: environment,
		Currency:    currency,
		AmountExpectedMinor: money.ToMinorUnits(
			pick(raw, "amount_expected_minor", "amountExpectedMinor"),
			currency,
			money.Options{TrustMinorUnits: a.TrustMinorUnits},
		),
		Status:    status,
		CreatedAt: createdAt,
		UpdatedAt: updatedAt,
	}
}

// MapPaymentStateHistory converts a raw payment-state-history row.
// OccurredAt falls back to CreatedAt when the server omits it.
func (a *Adapter) MapPaymentStateHistory(raw Raw) domain.PaymentStateHistoryEntry {
	createdAt := pickString(raw, "created_at", "createdAt", "updated_at", "updatedAt")
	occurredAt := pickString(raw, "occurred_at", "occurredAt", "timestamp", "time")
	if createdAt == "" {
		createdAt = occurredAt
	}
	if createdAt == "" {
		createdAt = a.nowISO()
	}
	if occurredAt == "" {
		occurredAt = createdAt
	}

	paymentID := pickID(raw, "payment_id", "paymentId")
	if paymentID == "" {
		paymentID = identifier(raw["id"])
	}
	toStatus := pickString(raw, "to_status", "toStatus", "from_status", "fromStatus")
	if toStatus == "" {
		toStatus = "UNKNOWN"
	}

	return domain.PaymentStateHistoryEntry{
		ID:             identifier(raw["id"]),
		PaymentID:      paymentID,
		PaymentOrderID: pickID(raw, "payment_order_id", "paymentOrderId"),
		BuyOrder:       pickString(raw, "buy_order", "buyOrder"),
		Provider:       pickString(raw, "provider"),
		FromStatus:     pickString(raw, "from_status", "fromStatus"),
		ToStatus:       toStatus,
		EventType:      pickString(raw, "event_type", "eventType"),
		ActorType:      pickString(raw, "actor_type", "actorType"),
		Reason:         pickString(raw, "reason"),
		CreatedAt:      createdAt,
		OccurredAt:     occurredAt,
	}
}

// MapRefund converts a raw refunds row.
func (a *Adapter) MapRefund(raw Raw) domain.Refund {
	currency := currencyOf(raw, "CLP")
	provider := pickString(raw, "provider")
	createdAt := pickString(raw, "created_at", "createdAt")
	if createdAt == "" {
		createdAt = a.nowISO()
	}
	updatedAt := pickString(raw, "updated_at", "updatedAt")
	if updatedAt == "" {
		updatedAt = createdAt
	}
	status := pickString(raw, "status")
	if status == "" {
		status = domain.RefundStatusPending
	}
	paymentID := pickID(raw, "payment_id", "paymentId")
	if paymentID == "" {
		paymentID = identifier(raw["id"])
	}
	return domain.Refund{
		ID:        identifier(raw["id"]),
		PaymentID: paymentID,
		Provider:  provider,
		Status:    status,
		AmountMinor: money.ToMinorUnits(
			pick(raw, "amount_minor", "amountMinor"),
			currency,
			money.Options{Provider: provider, TrustMinorUnits: a.TrustMinorUnits},
		),
		Currency:  currency,
		BuyOrder:  pickString(raw, "buy_order", "buyOrder"),
		Reason:    pickString(raw, "reason"),
		CreatedAt: createdAt,
		UpdatedAt: updatedAt,
	}
}

// MapDispute converts a raw disputes row. Amount and currency stay unset
// when the server reports neither.
func (a *Adapter) MapDispute(raw Raw) domain.Dispute {
	currency := pickString(raw, "currency", "amount_currency", "amountCurrency")
	if currency != "" {
		currency = strings.ToUpper(strings.TrimSpace(currency))
	}
	provider := pickString(raw, "provider")
	createdAt := pickString(raw, "created_at", "createdAt")
	if createdAt == "" {
		createdAt = a.nowISO()
	}
	updatedAt := pickString(raw, "updated_at", "updatedAt")
	if updatedAt == "" {
		updatedAt = createdAt
	}

	var amountMinor *int64
	if amountRaw := pick(raw, "amount_minor", "amountMinor"); amountRaw != nil {
		if currency == "" {
			if numeric, ok := toNumber(amountRaw); ok {
				truncated := int64(numeric)
				amountMinor = &truncated
			}
		} else {
			normalized := money.ToMinorUnits(amountRaw, currency, money.Options{
				Provider:        provider,
				TrustMinorUnits: a.TrustMinorUnits,
			})
			amountMinor = &normalized
		}
	}

	return domain.Dispute{
		ID:          identifier(raw["id"]),
		PaymentID:   pickID(raw, "payment_id", "paymentId"),
		Provider:    provider,
		Reason:      pickString(raw, "reason"),
		Status:      pickString(raw, "status"),
		AmountMinor: amountMinor,
		Currency:    currency,
		CreatedAt:   createdAt,
		UpdatedAt:   updatedAt,
	}
}

// webhookMetadataIDKeys and webhookObjectIDKeys order the descent through a
// provider webhook payload looking for the related payment.
var (
	webhookMetadataIDKeys = []string{"payment_id", "paymentId", "buy_order", "buyOrder"}
	webhookObjectIDKeys   = []string{"payment_id", "paymentId", "payment_intent", "paymentIntent", "order"}
)

// MapWebhook converts a raw webhook-inbox row, resolving the related
// payment id from the entry itself or from inside the provider payload.
func (a *Adapter) MapWebhook(raw Raw) domain.WebhookInboxEntry {
	receivedAt := pickString(raw, "received_at", "receivedAt")
	if receivedAt == "" {
		receivedAt = a.nowISO()
	}
	verification := pickString(raw, "verification_status", "verificationStatus")
	if verification == "" {
		verification = domain.VerificationPending
	}

	paymentID := pickID(raw, "payment_id", "paymentId", "related_payment_id", "relatedPaymentId")
	if paymentID == "" {
		paymentID = extractWebhookPaymentID(coerceObject(raw["payload"]))
	}

	return domain.WebhookInboxEntry{
		ID:                 identifier(raw["id"]),
		Provider:           pickString(raw, "provider"),
		VerificationStatus: verification,
		PaymentID:          paymentID,
		ReceivedAt:         receivedAt,
	}
}

// extractWebhookPaymentID descends data.object.metadata, then data.object,
// then data.id, mirroring the shapes Stripe-style webhooks use.
func extractWebhookPaymentID(payload any) string {
	record, ok := payload.(map[string]any)
	if !ok {
		return ""
	}

	if id := pickID(record, "payment_id", "paymentId", "related_payment_id", "relatedPaymentId"); id != "" {
		return id
	}

	data := coerceMap(record["data"])
	if data == nil {
		return ""
	}

	if object := coerceMap(data["object"]); object != nil {
		if metadata := coerceMap(object["metadata"]); metadata != nil {
			if id := pickID(metadata, webhookMetadataIDKeys...); id != "" {
				return id
			}
		}
		if id := pickID(object, webhookObjectIDKeys...); id != "" {
			return id
		}
		if id := identifier(object["id"]); id != "" {
			return id
		}
	}

	return identifier(data["id"])
}

// MapUserAccount converts a raw users row. Accounts with a blank email get
// a synthetic one derived from the id so lists stay renderable.
func (a *Adapter) MapUserAccount(raw Raw) domain.UserAccount {
	id := identifier(raw["id"])
	email := strings.TrimSpace(pickString(raw, "email"))
	if email == "" {
		email = "user-" + id
	}
	createdAt := pickString(raw, "created_at", "createdAt")
	if createdAt == "" {
		createdAt = a.nowISO()
	}
	return domain.UserAccount{
		ID:        id,
		Email:     email,
		CreatedAt: createdAt,
		UpdatedAt: pickString(raw, "updated_at", "updatedAt"),
	}
}

// MapCompany converts a raw companies row, pulling taxId, industry and
// country out of the metadata object when the top level lacks them.
func (a *Adapter) MapCompany(raw Raw) domain.Company {
	metadata := coerceMap(raw["metadata"])

	taxID := pickID(raw, "taxId", "tax_id")
	if taxID == "" && metadata != nil {
		taxID = pickID(metadata, "tax_id", "taxId")
	}

	industry := pickString(raw, "industry")
	if industry == "" && metadata != nil {
		industry = pickString(metadata, "industry", "sector", "line_of_business")
	}

	country := pickString(raw, "country")
	if country == "" && metadata != nil {
		country = pickString(metadata, "country", "country_code")
	}

	active := true
	if value, ok := raw["active"]; ok && value != nil {
		switch v := value.(type) {
		case bool:
			active = v
		case string:
			active = v != "" && v != "false" && v != "0"
		case float64:
			active = v != 0
		}
	}

	name := pickString(raw, "name")
	if name == "" {
		name = "Unnamed company"
	}
	createdAt := pickString(raw, "created_at", "createdAt")
	if createdAt == "" {
		createdAt = a.nowISO()
	}

	return domain.Company{
		ID:           identifier(raw["id"]),
		Name:         name,
		ContactEmail: pickString(raw, "contactEmail", "contact_email"),
		APIToken:     pickString(raw, "apiToken", "api_token"),
		Active:       active,
		Metadata:     metadata,
		TaxID:        taxID,
		Industry:     industry,
		Country:      country,
		CreatedAt:    createdAt,
		UpdatedAt:    pickString(raw, "updated_at", "updatedAt"),
	}
}
