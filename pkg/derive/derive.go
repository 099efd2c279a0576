// Package derive computes everything the dashboard renders from the
// loaded payments, metrics and health data. Server aggregates are
// preferred; gaps are recomputed from the payments themselves.
package derive

import (
	"context"
	"log/slog"
	"strings"
	"sync"

	"github.com/ninja-pay/opsdash/pkg/domain"
	"github.com/ninja-pay/opsdash/pkg/store"
	"github.com/ninja-pay/opsdash/pkg/transport"
)

// paymentsPageSize is both the request page size of the drain loop and
// the client-side page size of the payments view.
const paymentsPageSize = 25

// paymentsSafetyLimit caps the drain loop against a server that keeps
// announcing more pages.
const paymentsSafetyLimit = 200

// Engine loads dashboard data and owns the drained payments set.
type Engine struct {
	client *transport.Client
	store  *store.Store
	logger *slog.Logger

	mu sync.RWMutex
	// generation invalidates in-flight loads when the filters change.
	generation int
	// page is the payments view page; filter changes snap it back to 1.
	page            int
	paymentsSource  []domain.Payment
	paymentsTotal   int64
	paymentsLoading bool
	paymentsError   string
}

// NewEngine wires an engine to the client and store.
func NewEngine(client *transport.Client, st *store.Store, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{client: client, store: st, logger: logger}
}

// Invalidate bumps the generation so results of in-flight loads are
// dropped, and resets the payments page to 1. Call it whenever the
// filters change.
func (e *Engine) Invalidate() {
	e.mu.Lock()
	e.generation++
	e.page = 1
	e.mu.Unlock()
}

// SetFilters applies the mutation to the store's filter set and
// invalidates the engine, so in-flight loads are discarded and the
// payments view starts over from page 1.
func (e *Engine) SetFilters(mutate func(*domain.FiltersState)) {
	e.store.SetFilters(mutate)
	e.Invalidate()
}

// Page returns the current payments page, never below 1.
func (e *Engine) Page() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if e.page < 1 {
		return 1
	}
	return e.page
}

// SetPage moves the payments view to page, floored at 1.
func (e *Engine) SetPage(page int) {
	if page < 1 {
		page = 1
	}
	e.mu.Lock()
	e.page = page
	e.mu.Unlock()
}

func (e *Engine) currentGeneration() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.generation
}

// LoadMetrics refreshes the metrics slice of the store for the current
// filter window.
func (e *Engine) LoadMetrics(ctx context.Context) error {
	filters := e.store.Filters()
	e.store.SetMetrics(func(m *store.MetricsState) {
		m.Loading = true
		m.Error = ""
	})

	data, err := e.client.GetMetrics(ctx, filters.DateRange.From, filters.DateRange.To)
	if err != nil {
		e.logger.Error("metrics fetch failed", "error", err)
		e.store.SetMetrics(func(m *store.MetricsState) {
			m.Loading = false
			m.Error = err.Error()
		})
		return err
	}

	e.store.SetMetrics(func(m *store.MetricsState) {
		m.Data = &data
		m.Loading = false
		m.Error = ""
	})
	e.logger.Info("metrics refresh", "totalPayments", data.TotalPayments)
	return nil
}

// LoadHealth refreshes the service-health slice of the store.
func (e *Engine) LoadHealth(ctx context.Context) error {
	e.store.SetHealth(func(h *store.HealthState) {
		h.Loading = true
		h.Error = ""
	})

	services := e.client.GetServicesHealth(ctx)
	e.store.SetHealth(func(h *store.HealthState) {
		h.Services = services
		h.Loading = false
		h.Error = ""
	})

	ids := make([]string, 0, len(services))
	for _, snapshot := range services {
		ids = append(ids, snapshot.ID)
	}
	e.logger.Info("health refresh", "services", ids)
	return nil
}

// LoadPayments drains every page of payments matching the current
// filters. The drain keeps going while the server announces a next
// offset or returns full pages, bounded by the safety limit.
func (e *Engine) LoadPayments(ctx context.Context) error {
	generation := e.currentGeneration()
	filters := e.store.Filters()

	e.mu.Lock()
	e.paymentsLoading = true
	e.paymentsError = ""
	e.mu.Unlock()

	var aggregated []domain.Payment
	var totalCount int64 = -1
	page := 1
	pages := 0

	for {
		result, err := e.client.GetPayments(ctx, transport.ListQuery{
			Page:        page,
			PageSize:    paymentsPageSize,
			From:        filters.DateRange.From,
			To:          filters.DateRange.To,
			Provider:    filters.Provider,
			Status:      filters.Status,
			Environment: filters.Environment,
			BuyOrder:    strings.TrimSpace(filters.BuyOrder),
		})
		if err != nil {
			e.logger.Error("payments fetch failed", "error", err)
			e.mu.Lock()
			if e.generation == generation {
				e.paymentsLoading = false
				e.paymentsError = err.Error()
			}
			e.mu.Unlock()
			return err
		}

		if result.Count > totalCount {
			totalCount = result.Count
		}
		if len(result.Items) == 0 {
			break
		}
		aggregated = append(aggregated, result.Items...)

		hasNextOffset := result.NextOffset != nil
		hasFullPage := len(result.Items) == paymentsPageSize
		if !hasNextOffset && !hasFullPage {
			break
		}

		page++
		pages++
		if pages > paymentsSafetyLimit {
			e.logger.Info("payments pagination safety stop", "page", page, "aggregated", len(aggregated))
			break
		}
	}

	resolvedTotal := int64(len(aggregated))
	if totalCount > resolvedTotal {
		resolvedTotal = totalCount
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.generation != generation {
		// Filters changed under us; a newer load owns the state.
		return nil
	}
	e.paymentsSource = aggregated
	e.paymentsTotal = resolvedTotal
	e.paymentsLoading = false
	e.logger.Info("payments refresh", "fetched", len(aggregated), "total", resolvedTotal, "pages", page)
	return nil
}

// Reload refreshes metrics, health and payments.
func (e *Engine) Reload(ctx context.Context) {
	_ = e.LoadMetrics(ctx)
	_ = e.LoadHealth(ctx)
	_ = e.LoadPayments(ctx)
}

// PaymentsSource returns the drained payments set.
func (e *Engine) PaymentsSource() []domain.Payment {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.paymentsSource
}

// PaymentsTotal returns the server-reported total, floored at the
// drained length.
func (e *Engine) PaymentsTotal() int64 {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.paymentsTotal
}

// PaymentsLoading reports whether a drain is in flight.
func (e *Engine) PaymentsLoading() bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.paymentsLoading
}

// PaymentsError returns the last drain failure message.
func (e *Engine) PaymentsError() string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.paymentsError
}

// PaymentsView is one client-side page of the filtered payments.
type PaymentsView struct {
	Items []domain.Payment
	// Page is the effective page after clamping to the last one.
	Page     int
	PageSize int
	Total    int
}

// PaymentsPage filters the drained set by buy order and payment id
// substrings (case-insensitive) and returns the requested page. Pages
// past the end clamp to the last page.
func (e *Engine) PaymentsPage(page int) PaymentsView {
	filters := e.store.Filters()
	source := e.PaymentsSource()

	buyOrder := strings.ToLower(strings.TrimSpace(filters.BuyOrder))
	paymentID := strings.ToLower(strings.TrimSpace(filters.PaymentID))

	filtered := source
	if buyOrder != "" || paymentID != "" {
		filtered = make([]domain.Payment, 0, len(source))
		for _, payment := range source {
			if buyOrder != "" && !strings.Contains(strings.ToLower(payment.BuyOrder), buyOrder) {
				continue
			}
			if paymentID != "" && !strings.Contains(strings.ToLower(payment.ID), paymentID) {
				continue
			}
			filtered = append(filtered, payment)
		}
	}

	if page < 1 {
		page = 1
	}
	maxPage := (len(filtered) + paymentsPageSize - 1) / paymentsPageSize
	if maxPage < 1 {
		maxPage = 1
	}
	if page > maxPage {
		page = maxPage
	}

	start := (page - 1) * paymentsPageSize
	end := start + paymentsPageSize
	if start > len(filtered) {
		start = len(filtered)
	}
	if end > len(filtered) {
		end = len(filtered)
	}

	return PaymentsView{
		Items:    filtered[start:end],
		Page:     page,
		PageSize: paymentsPageSize,
		Total:    len(filtered),
	}
}

// CurrentPage returns the payments view at the page the engine holds.
func (e *Engine) CurrentPage() PaymentsView {
	return e.PaymentsPage(e.Page())
}

// AuthorizedPayments returns the drained payments whose status reads
// AUTHORIZED, case-insensitively.
func (e *Engine) AuthorizedPayments() []domain.Payment {
	source := e.PaymentsSource()
	authorized := make([]domain.Payment, 0, len(source))
	for _, payment := range source {
		if strings.ToUpper(payment.Status) == domain.PaymentStatusAuthorized {
			authorized = append(authorized, payment)
		}
	}
	return authorized
}
