// Package domain defines the typed model every dashboard view consumes.
//
// Records are produced by the response adapter and are treated as immutable:
// stores replace snapshots wholesale, they never mutate records in place.
package domain

// Provider identifies a payment service provider. Unknown providers are
// carried through as opaque strings.
type Provider = string

// Known providers.
const (
	ProviderWebpay Provider = "webpay"
	ProviderStripe Provider = "stripe"
	ProviderPaypal Provider = "paypal"
)

// DefaultProviders are the providers the dashboard always reports, even when
// no data mentions them.
var DefaultProviders = []Provider{ProviderWebpay, ProviderStripe, ProviderPaypal}

// DefaultCurrencies seed the per-currency totals when neither the server nor
// the client has anything to aggregate.
var DefaultCurrencies = []string{"CLP", "USD"}

// Payment statuses.
const (
	PaymentStatusPending    = "PENDING"
	PaymentStatusAuthorized = "AUTHORIZED"
	PaymentStatusFailed     = "FAILED"
	PaymentStatusCanceled   = "CANCELED"
	PaymentStatusRefunded   = "REFUNDED"
)

// Order statuses.
const (
	OrderStatusOpen      = "OPEN"
	OrderStatusCompleted = "COMPLETED"
	OrderStatusCanceled  = "CANCELED"
	OrderStatusExpired   = "EXPIRED"
	OrderStatusPartial   = "PARTIAL"
	OrderStatusAbandoned = "ABANDONED"
)

// Refund statuses.
const (
	RefundStatusRequested = "REQUESTED"
	RefundStatusPending   = "PENDING"
	RefundStatusSucceeded = "SUCCEEDED"
	RefundStatusFailed    = "FAILED"
	RefundStatusCanceled  = "CANCELED"
	RefundStatusPartial   = "PARTIAL"
)

// CRM queue statuses. SENDING and COMPLETED collapse to SENT at the boundary.
const (
	CrmQueueStatusPending = "PENDING"
	CrmQueueStatusSent    = "SENT"
	CrmQueueStatusFailed  = "FAILED"
)

// Webhook verification statuses.
const (
	VerificationPending  = "pending"
	VerificationVerified = "verified"
	VerificationFailed   = "failed"
	VerificationSkipped  = "skipped"
)

// Service statuses.
const (
	ServiceOperational = "operational"
	ServiceDegraded    = "degraded"
	ServiceDown        = "down"
)

// Environments. Filters additionally accept the sentinel "all".
const (
	EnvironmentTest = "test"
	EnvironmentLive = "live"
)

// FilterAll is the sentinel meaning "no restriction" in filter fields.
const FilterAll = "all"

// Payment is a single payment attempt against a provider.
type Payment struct {
	ID                string
	PaymentOrderID    string
	BuyOrder          string
	Provider          Provider
	Status            string
	Environment       string
	AmountMinor       int64
	Currency          string
	FeeMinor          *int64
	FeeCurrency       string
	ProviderAccountID string
	CompanyID         string
	// Token is the first non-empty provider reference found on the record,
	// possibly extracted from nested provider metadata. Never fabricated.
	Token             string
	CreatedAt         string
	UpdatedAt         string
	StatusReason      string
	AuthorizationCode string
	ResponseCode      string
}

// PaymentOrder is the merchant-side order a payment settles.
type PaymentOrder struct {
	ID                  string
	BuyOrder            string
	PaymentID           string
	Environment         string
	Currency            string
	AmountExpectedMinor int64
	Status              string
	CreatedAt           string
	UpdatedAt           string
}

// PaymentStateHistoryEntry records one status transition of a payment.
type PaymentStateHistoryEntry struct {
	ID             string
	PaymentID      string
	PaymentOrderID string
	BuyOrder       string
	Provider       string
	FromStatus     string
	ToStatus       string
	EventType      string
	ActorType      string
	Reason         string
	CreatedAt      string
	// OccurredAt defaults to CreatedAt when the server omits it.
	OccurredAt string
}

// Refund is a full or partial reversal of a payment.
type Refund struct {
	ID          string
	PaymentID   string
	Provider    Provider
	Status      string
	AmountMinor int64
	Currency    string
	BuyOrder    string
	Reason      string
	CreatedAt   string
	UpdatedAt   string
}

// Dispute is a chargeback or claim raised against a payment.
type Dispute struct {
	ID          string
	PaymentID   string
	Provider    Provider
	Reason      string
	Status      string
	AmountMinor *int64
	Currency    string
	CreatedAt   string
	UpdatedAt   string
}

// WebhookInboxEntry is an inbound provider notification awaiting verification.
type WebhookInboxEntry struct {
	ID                 string
	Provider           Provider
	VerificationStatus string
	PaymentID          string
	ReceivedAt         string
}

// StatusCheckEntry records one provider status poll.
type StatusCheckEntry struct {
	ID             string
	PaymentID      string
	PaymentOrderID string
	Provider       string
	RequestedAt    string
	Success        bool
	ProviderStatus string
	MappedStatus   string
	ResponseCode   *int64
	ErrorMessage   string
	RawPayload     any
	CreatedAt      string
}

// CrmPushQueueEntry is a pending CRM synchronization job.
type CrmPushQueueEntry struct {
	ID             string
	PaymentID      string
	PaymentOrderID string
	Provider       string
	Operation      string
	Status         string
	Attempts       int64
	NextAttemptAt  string
	LastAttemptAt  string
	ResponseCode   *int64
	CrmID          string
	LastError      string
	Payload        any
	CreatedAt      string
	UpdatedAt      string
}

// CrmEventLogEntry is one request/response exchanged with the CRM.
type CrmEventLogEntry struct {
	ID              string
	PaymentID       string
	PaymentOrderID  string
	Provider        string
	Operation       string
	RequestURL      string
	RequestHeaders  any
	RequestBody     any
	ResponseStatus  *int64
	ResponseHeaders any
	ResponseBody    any
	ErrorMessage    string
	LatencyMs       *int64
	CreatedAt       string
}

// Company is a merchant account.
type Company struct {
	ID           string
	Name         string
	ContactEmail string
	APIToken     string
	Active       bool
	Metadata     map[string]any
	TaxID        string
	Industry     string
	Country      string
	CreatedAt    string
	UpdatedAt    string
}

// UserAccount is a dashboard operator account.
type UserAccount struct {
	ID        string
	Email     string
	CreatedAt string
	UpdatedAt string
}

// ProviderStat is a per-provider slice of a timeseries point.
type ProviderStat struct {
	Total       int64
	Authorized  int64
	SuccessRate float64
}

// TimeseriesPoint is one bucket of the payments timeseries.
type TimeseriesPoint struct {
	Timestamp   string
	Count       int64
	AmountMinor int64
	// SuccessRate is a percentage in [0,100].
	SuccessRate float64
	Currency    string
	Providers   map[string]ProviderStat
}

// PspDistributionEntry is one provider's share of the processed volume.
type PspDistributionEntry struct {
	Provider         Provider
	TotalAmountMinor int64
	Count            int64
	Currency         string
}

// CurrencyTotal is the processed volume for one currency, optionally broken
// down by provider.
type CurrencyTotal struct {
	Currency    string
	AmountMinor int64
	Providers   map[string]int64
}

// APIMetric is one service entry inside the /metrics serviceHealth block.
type APIMetric struct {
	Service    string
	Status     string
	LatencyP95 float64
	ErrorRate  float64
	Throughput float64
	UpdatedAt  string
}

// MetricsPayload is the normalized /metrics response.
type MetricsPayload struct {
	TotalPayments    int64
	TotalAmountMinor int64
	// TotalAmountCurrency is an ISO-4217 code or empty. The server sentinel
	// "MIXED" is rejected at the boundary and never appears here.
	TotalAmountCurrency string
	ActiveCompanies     int64
	SuccessRate         float64
	TopPsp              string
	Timeseries          []TimeseriesPoint
	PspDistribution     []PspDistributionEntry
	TotalsByCurrency    []CurrencyTotal
	ServiceHealth       []APIMetric
	StatusCounts        map[string]int64
	ProviderCounts      map[string]int64
}

// PaymentsHealthMetrics is the payments block nested in a service health
// snapshot.
type PaymentsHealthMetrics struct {
	TotalPayments       *int64
	AuthorizedPayments  *int64
	TotalAmountMinor    *int64
	TotalAmountCurrency string
	LastPaymentAt       string
	StatusCounts        map[string]int64
	StatusCountsDisplay map[string]int64
	PendingByProvider   map[string]int64
	Last24h             *Last24hMetrics
}

// Last24hMetrics summarizes the trailing 24 hours of a payments service.
type Last24hMetrics struct {
	Count       int64
	AmountMinor int64
	Currency    string
}

// ServiceHealthSnapshot is the normalized per-service health envelope.
type ServiceHealthSnapshot struct {
	ID            string
	Label         string
	Status        string
	RawStatus     string
	Timestamp     string
	UptimeSeconds float64
	Database      DatabaseHealth
	Service       ServiceInfo
	Payments      PaymentsHealthMetrics
}

// DatabaseHealth reports a service's database connectivity.
type DatabaseHealth struct {
	Connected bool
	Schema    string
}

// ServiceInfo carries the identity block of a health snapshot.
type ServiceInfo struct {
	Environment     string
	Version         string
	Host            string
	PID             *int64
	DefaultProvider string
}

// StreamEvent is a single event from the live feed.
type StreamEvent struct {
	ID         string
	Type       string
	Payload    map[string]any
	OccurredAt string
}

// DateRange bounds a filter query. Both ends are timezone-qualified ISO
// instants with From <= To.
type DateRange struct {
	From string
	To   string
}

// FiltersState is the global filter set owned by the dashboard store.
type FiltersState struct {
	DateRange   DateRange
	Provider    string
	Status      string
	Environment string
	BuyOrder    string
	PaymentID   string
	Role        string
}

// Page is a normalized page of records.
type Page[T any] struct {
	Items []T
	Count int64
	// NextOffset is nil when the server did not announce a next page.
	NextOffset *int64
}
