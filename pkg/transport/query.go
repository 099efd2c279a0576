package transport

import (
	"net/url"
	"strconv"
	"strings"

	"github.com/ninja-pay/opsdash/pkg/domain"
)

// ListQuery is the paging and filtering envelope shared by list endpoints.
// Zero values are omitted from the request.
type ListQuery struct {
	Page     int
	PageSize int
	From     string
	To       string

	Provider    string
	Status      string
	Environment string
	BuyOrder    string
	PaymentID   string
	Operation   string
	Search      string
	// Success filters status checks. Nil means no filter.
	Success *bool
}

// values renders the query the way the servers variously expect paging:
// limit, page, page_size, pageSize, per_page and offset are all emitted so
// any backend revision finds its own dialect.
func (q ListQuery) values(sortField string, extra url.Values) url.Values {
	page := q.Page
	if page < 1 {
		page = 1
	}
	pageSize := q.PageSize
	if pageSize <= 0 {
		pageSize = 25
	}
	offset := (page - 1) * pageSize
	if offset < 0 {
		offset = 0
	}

	values := url.Values{}
	values.Set("limit", strconv.Itoa(pageSize))
	values.Set("page", strconv.Itoa(page))
	values.Set("page_size", strconv.Itoa(pageSize))
	values.Set("pageSize", strconv.Itoa(pageSize))
	values.Set("per_page", strconv.Itoa(pageSize))
	values.Set("offset", strconv.Itoa(offset))

	setNonBlank(values, "from", q.From)
	setNonBlank(values, "to", q.To)
	setNonBlank(values, "created_from", q.From)
	setNonBlank(values, "created_to", q.To)

	if sortField != "" {
		values.Set("sort", sortField)
		values.Set("order", "desc")
	}
	for key, list := range extra {
		for _, value := range list {
			setNonBlank(values, key, value)
		}
	}
	return values
}

// setNonBlank drops empty and all-whitespace values, and the "all"
// filter sentinel.
func setNonBlank(values url.Values, key, value string) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" || trimmed == domain.FilterAll {
		return
	}
	values.Set(key, trimmed)
}
