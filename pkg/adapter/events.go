package adapter

import "github.com/ninja-pay/opsdash/pkg/domain"

// MapStreamEvent converts a raw feed entry. Entries without an id get a
// synthetic one from the type and timestamp so dedup stays stable across
// reconnects.
func (a *Adapter) MapStreamEvent(raw Raw) domain.StreamEvent {
	occurredAt := pickString(raw, "occurred_at", "occurredAt", "created_at", "createdAt")
	if occurredAt == "" {
		occurredAt = a.nowISO()
	}
	eventType := pickString(raw, "type")
	if eventType == "" {
		eventType = "event"
	}
	id := identifier(raw["id"])
	if id == "" {
		id = eventType + "-" + occurredAt
	}

	payload := map[string]any{}
	if value, ok := raw["payload"]; ok && value != nil {
		if object, isMap := value.(map[string]any); isMap {
			payload = object
		} else {
			payload = map[string]any{"value": value}
		}
	}

	return domain.StreamEvent{
		ID:         id,
		Type:       eventType,
		Payload:    payload,
		OccurredAt: occurredAt,
	}
}
