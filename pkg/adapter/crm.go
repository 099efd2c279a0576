package adapter

import (
	"strings"

	"github.com/ninja-pay/opsdash/pkg/domain"
)

// MapStatusCheck converts a raw status-checks row.
func (a *Adapter) MapStatusCheck(raw Raw) domain.StatusCheckEntry {
	createdAt := pickString(raw, "created_at", "createdAt")
	requestedAt := pickString(raw, "requested_at", "requestedAt")
	if requestedAt == "" {
		requestedAt = createdAt
	}
	if requestedAt == "" {
		requestedAt = a.nowISO()
	}
	if createdAt == "" {
		createdAt = requestedAt
	}
	provider := pickString(raw, "provider")
	if provider == "" {
		provider = "unknown"
	}

	success := false
	if value, ok := raw["success"].(bool); ok {
		success = value
	}

	return domain.StatusCheckEntry{
		ID:             identifier(raw["id"]),
		PaymentID:      pickID(raw, "payment_id", "paymentId"),
		PaymentOrderID: pickID(raw, "payment_order_id", "paymentOrderId"),
		Provider:       provider,
		RequestedAt:    requestedAt,
		Success:        success,
		ProviderStatus: pickString(raw, "provider_status", "providerStatus"),
		MappedStatus:   pickString(raw, "mapped_status", "mappedStatus"),
		ResponseCode:   pickIntPtr(raw, "response_code", "responseCode"),
		ErrorMessage:   pickString(raw, "error_message", "errorMessage"),
		RawPayload:     coerceObject(raw["raw_payload"]),
		CreatedAt:      createdAt,
	}
}

// MapCrmPushQueue converts a raw crm-push-queue row. In-flight states are
// collapsed into SENT so the queue renders with a closed vocabulary.
func (a *Adapter) MapCrmPushQueue(raw Raw) domain.CrmPushQueueEntry {
	status := strings.ToUpper(strings.TrimSpace(pickString(raw, "status")))
	switch status {
	case "":
		status = domain.CrmQueueStatusPending
	case "SENDING", "COMPLETED":
		status = domain.CrmQueueStatusSent
	}
	operation := strings.ToUpper(strings.TrimSpace(pickString(raw, "operation")))
	if operation == "" {
		operation = "UNKNOWN"
	}
	createdAt := pickString(raw, "created_at", "createdAt")
	if createdAt == "" {
		createdAt = a.nowISO()
	}
	updatedAt := pickString(raw, "updated_at", "updatedAt")
	if updatedAt == "" {
		updatedAt = createdAt
	}

	return domain.CrmPushQueueEntry{
		ID:             identifier(raw["id"]),
		PaymentID:      pickID(raw, "payment_id", "paymentId"),
		PaymentOrderID: pickID(raw, "payment_order_id", "paymentOrderId"),
		Provider:       pickString(raw, "provider"),
		Operation:      operation,
		Status:         status,
		Attempts:       pickInt(raw, "attempts"),
		NextAttemptAt:  pickString(raw, "next_attempt_at", "nextAttemptAt"),
		LastAttemptAt:  pickString(raw, "last_attempt_at", "lastAttemptAt"),
		ResponseCode:   pickIntPtr(raw, "response_code", "responseCode"),
		CrmID:          pickID(raw, "crm_id", "crmId"),
		LastError:      pickString(raw, "last_error", "lastError"),
		Payload:        coerceObject(raw["payload"]),
		CreatedAt:      createdAt,
		UpdatedAt:      updatedAt,
	}
}

// MapCrmEventLog converts a raw crm-event-log row.
func (a *Adapter) MapCrmEventLog(raw Raw) domain.CrmEventLogEntry {
	createdAt := pickString(raw, "created_at", "createdAt")
	if createdAt == "" {
		createdAt = a.nowISO()
	}
	return domain.CrmEventLogEntry{
		ID:              identifier(raw["id"]),
		PaymentID:       pickID(raw, "payment_id", "paymentId"),
		PaymentOrderID:  pickID(raw, "payment_order_id", "paymentOrderId"),
		Provider:        pickString(raw, "provider"),
		Operation:       pickString(raw, "operation"),
		RequestURL:      pickString(raw, "request_url", "requestUrl"),
		RequestHeaders:  coerceObject(raw["request_headers"]),
		RequestBody:     coerceObject(raw["request_body"]),
		ResponseStatus:  pickIntPtr(raw, "response_status", "responseStatus"),
		ResponseHeaders: coerceObject(raw["response_headers"]),
		ResponseBody:    coerceObject(raw["response_body"]),
		ErrorMessage:    pickString(raw, "error_message", "errorMessage"),
		LatencyMs:       pickIntPtr(raw, "latency_ms", "latencyMs"),
		CreatedAt:       createdAt,
	}
}
