package transport

import (
	"context"
	"net/http"
	"net/url"
	"regexp"
	"strconv"

	"github.com/ninja-pay/opsdash/pkg/adapter"
	"github.com/ninja-pay/opsdash/pkg/domain"
	"github.com/ninja-pay/opsdash/pkg/errors"
)

// GetMetrics fetches /metrics, optionally bounded by a date range.
func (c *Client) GetMetrics(ctx context.Context, from, to string) (domain.MetricsPayload, error) {
	query := url.Values{}
	setNonBlank(query, "from", from)
	setNonBlank(query, "to", to)
	setNonBlank(query, "start_date", from)
	setNonBlank(query, "end_date", to)

	raw, err := c.get(ctx, "getMetrics", "/metrics", query)
	if err != nil {
		return domain.MetricsPayload{}, err
	}
	payload, _ := adapter.UnwrapData(raw).(map[string]any)
	return c.adapter.NormalizeMetrics(payload), nil
}

// GetPayments fetches one page of payments.
func (c *Client) GetPayments(ctx context.Context, q ListQuery) (domain.Page[domain.Payment], error) {
	extra := url.Values{}
	setNonBlank(extra, "provider", q.Provider)
	setNonBlank(extra, "status", q.Status)
	setNonBlank(extra, "environment", q.Environment)
	setNonBlank(extra, "buy_order", q.BuyOrder)

	raw, err := c.get(ctx, "getPayments", "/payments", q.values("created_at", extra))
	if err != nil {
		return domain.Page[domain.Payment]{}, err
	}
	return adapter.MapPage(raw, c.adapter.MapPayment), nil
}

// GetPaymentOrders fetches one page of payment orders.
func (c *Client) GetPaymentOrders(ctx context.Context, q ListQuery) (domain.Page[domain.PaymentOrder], error) {
	extra := url.Values{}
	setNonBlank(extra, "status", q.Status)
	setNonBlank(extra, "environment", q.Environment)
	setNonBlank(extra, "buy_order", q.BuyOrder)

	raw, err := c.get(ctx, "getPaymentOrders", "/payment-orders", q.values("created_at", extra))
	if err != nil {
		return domain.Page[domain.PaymentOrder]{}, err
	}
	return adapter.MapPage(raw, c.adapter.MapPaymentOrder), nil
}

// GetPaymentStateHistory fetches one page of state transitions. The status
// filter applies to the transition target.
func (c *Client) GetPaymentStateHistory(ctx context.Context, q ListQuery) (domain.Page[domain.PaymentStateHistoryEntry], error) {
	extra := url.Values{}
	setNonBlank(extra, "to_status", q.Status)
	setNonBlank(extra, "payment_id", q.PaymentID)
	setNonBlank(extra, "buy_order", q.BuyOrder)

	raw, err := c.get(ctx, "getPaymentStateHistory", "/payment-state-history", q.values("created_at", extra))
	if err != nil {
		return domain.Page[domain.PaymentStateHistoryEntry]{}, err
	}
	return adapter.MapPage(raw, c.adapter.MapPaymentStateHistory), nil
}

// GetDisputes fetches one page of disputes.
func (c *Client) GetDisputes(ctx context.Context, q ListQuery) (domain.Page[domain.Dispute], error) {
	extra := url.Values{}
	setNonBlank(extra, "provider", q.Provider)
	setNonBlank(extra, "status", q.Status)
	setNonBlank(extra, "buy_order", q.BuyOrder)

	raw, err := c.get(ctx, "getDisputes", "/disputes", q.values("created_at", extra))
	if err != nil {
		return domain.Page[domain.Dispute]{}, err
	}
	return adapter.MapPage(raw, c.adapter.MapDispute), nil
}

// GetRefunds fetches one page of refunds.
func (c *Client) GetRefunds(ctx context.Context, q ListQuery) (domain.Page[domain.Refund], error) {
	extra := url.Values{}
	setNonBlank(extra, "provider", q.Provider)
	setNonBlank(extra, "status", q.Status)
	setNonBlank(extra, "buy_order", q.BuyOrder)

	raw, err := c.get(ctx, "getRefunds", "/refunds", q.values("created_at", extra))
	if err != nil {
		return domain.Page[domain.Refund]{}, err
	}
	return adapter.MapPage(raw, c.adapter.MapRefund), nil
}

// GetWebhooks fetches one page of the webhook inbox. The status filter
// applies to the verification state; sorting is by receipt time.
func (c *Client) GetWebhooks(ctx context.Context, q ListQuery) (domain.Page[domain.WebhookInboxEntry], error) {
	extra := url.Values{}
	setNonBlank(extra, "provider", q.Provider)
	setNonBlank(extra, "verification_status", q.Status)
	setNonBlank(extra, "buy_order", q.BuyOrder)
	setNonBlank(extra, "payment_id", q.PaymentID)

	raw, err := c.get(ctx, "getWebhooks", "/webhook-inbox", q.values("received_at", extra))
	if err != nil {
		return domain.Page[domain.WebhookInboxEntry]{}, err
	}
	return adapter.MapPage(raw, c.adapter.MapWebhook), nil
}

// GetStatusChecks fetches one page of provider status polls.
func (c *Client) GetStatusChecks(ctx context.Context, q ListQuery) (domain.Page[domain.StatusCheckEntry], error) {
	extra := url.Values{}
	setNonBlank(extra, "provider", q.Provider)
	setNonBlank(extra, "payment_id", q.PaymentID)
	setNonBlank(extra, "mapped_status", q.Status)
	if q.Success != nil {
		extra.Set("success", strconv.FormatBool(*q.Success))
	}

	raw, err := c.get(ctx, "getStatusChecks", "/status-checks", q.values("created_at", extra))
	if err != nil {
		return domain.Page[domain.StatusCheckEntry]{}, err
	}
	return adapter.MapPage(raw, c.adapter.MapStatusCheck), nil
}

// GetCrmPushQueue fetches one page of pending CRM jobs.
func (c *Client) GetCrmPushQueue(ctx context.Context, q ListQuery) (domain.Page[domain.CrmPushQueueEntry], error) {
	extra := url.Values{}
	setNonBlank(extra, "provider", q.Provider)
	setNonBlank(extra, "status", q.Status)
	setNonBlank(extra, "operation", q.Operation)
	setNonBlank(extra, "payment_id", q.PaymentID)

	raw, err := c.get(ctx, "getCrmPushQueue", "/crm/push-queue", q.values("created_at", extra))
	if err != nil {
		return domain.Page[domain.CrmPushQueueEntry]{}, err
	}
	return adapter.MapPage(raw, c.adapter.MapCrmPushQueue), nil
}

// GetCrmEventLogs fetches one page of CRM request logs.
func (c *Client) GetCrmEventLogs(ctx context.Context, q ListQuery) (domain.Page[domain.CrmEventLogEntry], error) {
	extra := url.Values{}
	setNonBlank(extra, "provider", q.Provider)
	setNonBlank(extra, "status", q.Status)
	setNonBlank(extra, "operation", q.Operation)
	setNonBlank(extra, "payment_id", q.PaymentID)

	raw, err := c.get(ctx, "getCrmEventLogs", "/crm/event-logs", q.values("created_at", extra))
	if err != nil {
		return domain.Page[domain.CrmEventLogEntry]{}, err
	}
	return adapter.MapPage(raw, c.adapter.MapCrmEventLog), nil
}

// ListUsers fetches one page of operator accounts. Some server revisions
// return a bare array; those are paged client-side.
func (c *Client) ListUsers(ctx context.Context, q ListQuery) (domain.Page[domain.UserAccount], error) {
	extra := url.Values{}
	setNonBlank(extra, "search", q.Search)

	raw, err := c.get(ctx, "listUsers", "/users", q.values("", extra))
	if err != nil {
		return domain.Page[domain.UserAccount]{}, err
	}
	if list, ok := raw.([]any); ok {
		return pageFromArray(list, q, c.adapter.MapUserAccount), nil
	}
	return adapter.MapPage(raw, c.adapter.MapUserAccount), nil
}

// GetUser fetches one operator account.
func (c *Client) GetUser(ctx context.Context, id string) (domain.UserAccount, error) {
	raw, err := c.get(ctx, "getUser", "/users/"+url.PathEscape(id), nil)
	if err != nil {
		return domain.UserAccount{}, err
	}
	payload, _ := adapter.UnwrapData(raw).(map[string]any)
	return c.adapter.MapUserAccount(payload), nil
}

// UserInput carries the writable fields of an operator account. Empty
// fields are omitted on update.
type UserInput struct {
	Email    string
	Password string
}

// CreateUser registers a new operator account.
func (c *Client) CreateUser(ctx context.Context, input UserInput) (domain.UserAccount, error) {
	body := map[string]any{"email": input.Email, "password": input.Password}
	raw, err := c.send(ctx, "createUser", http.MethodPost, "/users", body)
	if err != nil {
		return domain.UserAccount{}, err
	}
	payload, _ := adapter.UnwrapData(raw).(map[string]any)
	return c.adapter.MapUserAccount(payload), nil
}

// UpdateUser patches an operator account.
func (c *Client) UpdateUser(ctx context.Context, id string, input UserInput) (domain.UserAccount, error) {
	body := map[string]any{}
	if input.Email != "" {
		body["email"] = input.Email
	}
	if input.Password != "" {
		body["password"] = input.Password
	}
	raw, err := c.send(ctx, "updateUser", http.MethodPatch, "/users/"+url.PathEscape(id), body)
	if err != nil {
		return domain.UserAccount{}, err
	}
	payload, _ := adapter.UnwrapData(raw).(map[string]any)
	return c.adapter.MapUserAccount(payload), nil
}

// DeleteUser removes an operator account.
func (c *Client) DeleteUser(ctx context.Context, id string) error {
	_, err := c.send(ctx, "deleteUser", http.MethodDelete, "/users/"+url.PathEscape(id), nil)
	return err
}

// ListCompanies fetches one page of merchant accounts, tolerating bare
// array responses the same way ListUsers does.
func (c *Client) ListCompanies(ctx context.Context, q ListQuery, active *bool) (domain.Page[domain.Company], error) {
	extra := url.Values{}
	setNonBlank(extra, "search", q.Search)
	if active != nil {
		extra.Set("active", strconv.FormatBool(*active))
	}

	raw, err := c.get(ctx, "listCompanies", "/companies", q.values("", extra))
	if err != nil {
		return domain.Page[domain.Company]{}, err
	}
	if list, ok := raw.([]any); ok {
		return pageFromArray(list, q, c.adapter.MapCompany), nil
	}
	return adapter.MapPage(raw, c.adapter.MapCompany), nil
}

// GetCompany fetches one merchant account.
func (c *Client) GetCompany(ctx context.Context, id string) (domain.Company, error) {
	raw, err := c.get(ctx, "getCompany", "/companies/"+url.PathEscape(id), nil)
	if err != nil {
		return domain.Company{}, err
	}
	payload, _ := adapter.UnwrapData(raw).(map[string]any)
	return c.adapter.MapCompany(payload), nil
}

// CompanyInput carries the writable fields of a merchant account. Nil
// pointers are omitted on update.
type CompanyInput struct {
	Name         *string
	ContactEmail *string
	APIToken     *string
	Active       *bool
	Metadata     map[string]any
}

// CreateCompany registers a merchant account.
func (c *Client) CreateCompany(ctx context.Context, input CompanyInput) (domain.Company, error) {
	raw, err := c.send(ctx, "createCompany", http.MethodPost, "/companies", companyBody(input))
	if err != nil {
		return domain.Company{}, err
	}
	payload, _ := adapter.UnwrapData(raw).(map[string]any)
	return c.adapter.MapCompany(payload), nil
}

// UpdateCompany patches a merchant account.
func (c *Client) UpdateCompany(ctx context.Context, id string, input CompanyInput) (domain.Company, error) {
	raw, err := c.send(ctx, "updateCompany", http.MethodPatch, "/companies/"+url.PathEscape(id), companyBody(input))
	if err != nil {
		return domain.Company{}, err
	}
	payload, _ := adapter.UnwrapData(raw).(map[string]any)
	return c.adapter.MapCompany(payload), nil
}

// DeleteCompany removes a merchant account.
func (c *Client) DeleteCompany(ctx context.Context, id string) error {
	_, err := c.send(ctx, "deleteCompany", http.MethodDelete, "/companies/"+url.PathEscape(id), nil)
	return err
}

func companyBody(input CompanyInput) map[string]any {
	body := map[string]any{}
	if input.Name != nil {
		body["name"] = *input.Name
	}
	if input.ContactEmail != nil {
		body["contactEmail"] = *input.ContactEmail
	}
	if input.APIToken != nil {
		body["apiToken"] = *input.APIToken
	}
	if input.Active != nil {
		body["active"] = *input.Active
	}
	if input.Metadata != nil {
		body["metadata"] = input.Metadata
	}
	return body
}

// RefundInput identifies the payment to reverse on the payments API.
type RefundInput struct {
	Token        string
	CompanyID    string
	CompanyToken string
	// Amount in minor units; nil requests a full refund.
	Amount *int64
}

var numericID = regexp.MustCompile(`^\d+$`)

// RefundPayment posts a refund to the payments API using its static
// service token. Numeric company ids travel as numbers.
func (c *Client) RefundPayment(ctx context.Context, input RefundInput) (string, error) {
	body := map[string]any{}
	if input.Token != "" {
		body["token"] = input.Token
	}
	if input.CompanyID != "" {
		if numericID.MatchString(input.CompanyID) {
			parsed, _ := strconv.ParseInt(input.CompanyID, 10, 64)
			body["company_id"] = parsed
		} else {
			body["company_id"] = input.CompanyID
		}
	}
	if input.CompanyToken != "" {
		body["company_token"] = input.CompanyToken
	}
	if input.Amount != nil {
		if *input.Amount <= 0 {
			return "", errors.New("refundPayment", errors.KindValidation, errors.ErrInvalidAmount)
		}
		body["amount"] = *input.Amount
	}

	raw, err := c.do(ctx, "refundPayment", http.MethodPost, c.paymentsBaseURL+"/payments/refund", nil, body, c.paymentsToken)
	if err != nil {
		return "", err
	}
	payload, _ := raw.(map[string]any)
	var status string
	if payload != nil {
		if value, ok := payload["status"].(string); ok {
			status = value
		}
	}
	return status, nil
}

// GetLatestEvents fetches the most recent feed entries. A 404 means the
// server build lacks the endpoint and reads as an empty feed.
func (c *Client) GetLatestEvents(ctx context.Context) ([]domain.StreamEvent, error) {
	raw, err := c.get(ctx, "getLatestEvents", "/events/latest", nil)
	if err != nil {
		if StatusCode(err) == http.StatusNotFound {
			return []domain.StreamEvent{}, nil
		}
		return nil, err
	}

	items := adapter.ExtractCollection(raw)
	events := make([]domain.StreamEvent, 0, len(items))
	for _, item := range items {
		events = append(events, c.adapter.MapStreamEvent(item))
	}
	return events, nil
}

// pageFromArray pages a bare-array response client-side.
func pageFromArray[T any](list []any, q ListQuery, mapper func(adapter.Raw) T) domain.Page[T] {
	page := q.Page
	if page < 1 {
		page = 1
	}
	pageSize := q.PageSize
	if pageSize <= 0 {
		pageSize = 25
	}
	start := (page - 1) * pageSize
	if start < 0 {
		start = 0
	}
	if start > len(list) {
		start = len(list)
	}
	end := start + pageSize
	if end > len(list) {
		end = len(list)
	}

	items := make([]T, 0, end-start)
	for _, entry := range list[start:end] {
		record, _ := entry.(map[string]any)
		items = append(items, mapper(record))
	}
	return domain.Page[T]{Items: items, Count: int64(len(list))}
}
