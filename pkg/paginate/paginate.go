// Package paginate drains paged endpoints into full result sets.
package paginate

import (
	"context"
	"log/slog"
	"strconv"

	"github.com/ninja-pay/opsdash/pkg/domain"
)

// FetchFunc loads one page. Pages are 1-based.
type FetchFunc[T any] func(ctx context.Context, page, pageSize int) (domain.Page[T], error)

// Options tune a drain.
type Options[T any] struct {
	PageSize int
	MaxPages int
	// GetID keys deduplication. When nil, items dedupe by position, which
	// only guards against a server replaying the exact same page.
	GetID  func(item T) string
	Logger *slog.Logger
}

// DrainAll fetches pages until the reported total is reached, a page adds
// nothing new, or the server stops announcing a next page. The page cap
// bounds runaway servers; hitting it is logged, not an error.
func DrainAll[T any](ctx context.Context, fetch FetchFunc[T], opts Options[T]) ([]T, int64, error) {
	pageSize := opts.PageSize
	if pageSize <= 0 {
		pageSize = 200
	}
	maxPages := opts.MaxPages
	if maxPages <= 0 {
		maxPages = 40
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	var aggregated []T
	seen := make(map[string]struct{})
	var total int64

	page := 1
	for ; page <= maxPages; page++ {
		result, err := fetch(ctx, page, pageSize)
		if err != nil {
			return nil, 0, err
		}
		// A later page reporting a smaller count never shrinks the total.
		if result.Count > total {
			total = result.Count
		}

		added := false
		for index, item := range result.Items {
			key := positionKey(page, index)
			if opts.GetID != nil {
				key = opts.GetID(item)
			}
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}
			aggregated = append(aggregated, item)
			added = true
		}

		reachedTotal := total > 0 && int64(len(aggregated)) >= total
		noMoreItems := len(result.Items) == 0 || !added
		noNextPage := result.NextOffset == nil

		if reachedTotal || noMoreItems || noNextPage {
			break
		}
	}
	if page > maxPages {
		logger.Warn("pagination drain hit page cap", "maxPages", maxPages, "collected", len(aggregated))
	}

	if total == 0 {
		total = int64(len(aggregated))
	}
	return aggregated, total, nil
}

func positionKey(page, index int) string {
	return strconv.Itoa(page) + "-" + strconv.Itoa(index)
}
