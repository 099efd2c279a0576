package adapter

import "github.com/ninja-pay/opsdash/pkg/domain"

// Envelope is the normalized shape of a paginated response.
type Envelope struct {
	Items      []Raw  `json:"items"`
	Count      int64  `json:"count"`
	NextOffset *int64 `json:"next_offset"`
}

// NormalizeEnvelope absorbs the envelope conventions the back-ends use:
//
//	modern: {items, count|total|total_count|totalCount|meta.*, next_offset|nextOffset|meta.*}
//	legacy: {data, total, next_offset}
//
// Anything else normalizes to an empty envelope. The operation is
// idempotent: feeding an Envelope's own wire form back in yields the same
// Envelope.
func NormalizeEnvelope(raw any) Envelope {
	payload, ok := raw.(map[string]any)
	if !ok {
		return Envelope{Items: []Raw{}}
	}

	if items, ok := itemList(payload["items"]); ok {
		meta, _ := payload["meta"].(map[string]any)
		count, found := firstCount(payload, meta)
		if !found {
			count = int64(len(items))
		}
		if count < 0 {
			count = 0
		}
		return Envelope{
			Items:      items,
			Count:      count,
			NextOffset: firstOffset(payload, meta),
		}
	}

	if items, ok := itemList(payload["data"]); ok {
		count, found := pickNumber(payload, "total")
		total := int64(count)
		if !found {
			total = int64(len(items))
		}
		return Envelope{
			Items:      items,
			Count:      total,
			NextOffset: firstOffset(payload, nil),
		}
	}

	return Envelope{Items: []Raw{}}
}

func itemList(value any) ([]Raw, bool) {
	list, ok := value.([]any)
	if !ok {
		return nil, false
	}
	items := make([]Raw, 0, len(list))
	for _, entry := range list {
		if record, ok := entry.(map[string]any); ok {
			items = append(items, record)
		}
	}
	return items, true
}

func firstCount(payload, meta map[string]any) (int64, bool) {
	keys := []string{"count", "total", "total_count", "totalCount"}
	if numeric, ok := pickNumber(payload, keys...); ok {
		return int64(numeric), true
	}
	if meta != nil {
		if numeric, ok := pickNumber(meta, keys...); ok {
			return int64(numeric), true
		}
	}
	return 0, false
}

func firstOffset(payload, meta map[string]any) *int64 {
	keys := []string{"next_offset", "nextOffset"}
	if numeric, ok := pickNumber(payload, keys...); ok {
		offset := int64(numeric)
		return &offset
	}
	if meta != nil {
		if numeric, ok := pickNumber(meta, keys...); ok {
			offset := int64(numeric)
			return &offset
		}
	}
	return nil
}

// MapPage normalizes raw into an envelope and maps each row.
func MapPage[T any](raw any, mapper func(Raw) T) domain.Page[T] {
	envelope := NormalizeEnvelope(raw)
	items := make([]T, 0, len(envelope.Items))
	for _, record := range envelope.Items {
		items = append(items, mapper(record))
	}
	return domain.Page[T]{
		Items:      items,
		Count:      envelope.Count,
		NextOffset: envelope.NextOffset,
	}
}

// UnwrapData unwraps a single-record {data: {...}} envelope, passing other
// shapes through.
func UnwrapData(raw any) any {
	if payload, ok := raw.(map[string]any); ok {
		if inner, ok := payload["data"]; ok {
			if _, isList := inner.([]any); !isList {
				return inner
			}
		}
	}
	return raw
}

// ExtractCollection pulls the record list out of a loose events-style
// envelope: items, data, results or events, whichever is present.
func ExtractCollection(raw any) []Raw {
	payload, ok := raw.(map[string]any)
	if !ok {
		return nil
	}
	for _, key := range []string{"items", "data", "results", "events"} {
		if items, ok := itemList(payload[key]); ok {
			return items
		}
	}
	return nil
}
