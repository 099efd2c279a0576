package derive

import (
	"sort"
	"strings"
	"time"

	"github.com/ninja-pay/opsdash/pkg/domain"
)

// StatusCounts prefers the server's status breakdown and recomputes it
// from the drained payments when the server sent none.
func (e *Engine) StatusCounts() map[string]int64 {
	if data := e.store.Metrics().Data; data != nil && len(data.StatusCounts) > 0 {
		return data.StatusCounts
	}
	counts := map[string]int64{}
	for _, payment := range e.PaymentsSource() {
		counts[payment.Status]++
	}
	return counts
}

// ProviderCounts prefers counting the drained payments, falls back to
// the server breakdown, and finally seeds the default providers at zero
// so charts never render empty.
func (e *Engine) ProviderCounts() map[string]int64 {
	counts := map[string]int64{}

	source := e.PaymentsSource()
	if len(source) > 0 {
		for _, payment := range source {
			counts[payment.Provider]++
		}
	} else if data := e.store.Metrics().Data; data != nil && len(data.ProviderCounts) > 0 {
		for provider, count := range data.ProviderCounts {
			counts[provider] = count
		}
	}

	if len(counts) == 0 {
		for _, provider := range domain.DefaultProviders {
			counts[provider] = 0
		}
	}
	return counts
}

// ProviderAmounts sums authorized volume per provider, falling back to
// the server's distribution, then to zero-seeded defaults.
func (e *Engine) ProviderAmounts() map[string]int64 {
	amounts := map[string]int64{}

	authorized := e.AuthorizedPayments()
	if len(authorized) > 0 {
		for _, payment := range authorized {
			amounts[payment.Provider] += payment.AmountMinor
		}
	} else if data := e.store.Metrics().Data; data != nil {
		for _, item := range data.PspDistribution {
			amounts[item.Provider] = item.TotalAmountMinor
		}
	}

	if len(amounts) == 0 {
		for _, provider := range domain.DefaultProviders {
			amounts[provider] = 0
		}
	}
	return amounts
}

// PaymentDetail is one authorized payment inside a provider bucket.
type PaymentDetail struct {
	ID          string
	AmountMinor int64
	Currency    string
}

// ProviderPaymentDetails groups the authorized payments by provider.
func (e *Engine) ProviderPaymentDetails() map[string][]PaymentDetail {
	details := map[string][]PaymentDetail{}
	for _, payment := range e.AuthorizedPayments() {
		details[payment.Provider] = append(details[payment.Provider], PaymentDetail{
			ID:          payment.ID,
			AmountMinor: payment.AmountMinor,
			Currency:    payment.Currency,
		})
	}
	return details
}

// TotalsByCurrency aggregates authorized volume per currency with a
// per-provider breakdown. Without drained payments it falls back to the
// server totals (dropping the MIXED sentinel), attaching provider
// splits from the distribution where currencies line up. An empty result
// is seeded with the default currencies at zero.
func (e *Engine) TotalsByCurrency() []domain.CurrencyTotal {
	authorized := e.AuthorizedPayments()

	if len(authorized) > 0 {
		aggregates := map[string]*domain.CurrencyTotal{}
		order := []string{}
		for _, payment := range authorized {
			currency := strings.ToUpper(payment.Currency)
			entry, ok := aggregates[currency]
			if !ok {
				entry = &domain.CurrencyTotal{Currency: currency, Providers: map[string]int64{}}
				aggregates[currency] = entry
				order = append(order, currency)
			}
			entry.AmountMinor += payment.AmountMinor
			entry.Providers[payment.Provider] += payment.AmountMinor
		}
		totals := make([]domain.CurrencyTotal, 0, len(order))
		for _, currency := range order {
			totals = append(totals, *aggregates[currency])
		}
		return totals
	}

	var totals []domain.CurrencyTotal
	if data := e.store.Metrics().Data; data != nil {
		source := data.TotalsByCurrency
		if len(source) == 0 && data.TotalAmountCurrency != "" {
			source = []domain.CurrencyTotal{{
				Currency:    data.TotalAmountCurrency,
				AmountMinor: data.TotalAmountMinor,
			}}
		}

		for _, entry := range source {
			currency := strings.ToUpper(entry.Currency)
			if currency == "" || currency == "MIXED" {
				continue
			}

			providers := map[string]int64{}
			for _, item := range data.PspDistribution {
				itemCurrency := strings.ToUpper(item.Currency)
				if itemCurrency == "" {
					itemCurrency = strings.ToUpper(data.TotalAmountCurrency)
				}
				if itemCurrency == "" {
					itemCurrency = currency
				}
				if itemCurrency == currency {
					providers[item.Provider] += item.TotalAmountMinor
				}
			}
			if len(providers) == 0 {
				providers = nil
			}
			totals = append(totals, domain.CurrencyTotal{
				Currency:    currency,
				AmountMinor: entry.AmountMinor,
				Providers:   providers,
			})
		}
	}

	if len(totals) == 0 {
		for _, currency := range domain.DefaultCurrencies {
			totals = append(totals, domain.CurrencyTotal{Currency: currency})
		}
	}
	return totals
}

// fallbackTimeseries rebuilds an hourly timeseries from the drained
// payments, with per-provider totals and authorization rates.
func (e *Engine) fallbackTimeseries() []domain.TimeseriesPoint {
	source := e.PaymentsSource()
	if len(source) == 0 {
		return nil
	}

	type bucketStats struct {
		count      int64
		amount     int64
		success    int64
		currency   string
		byProvider map[string]*domain.ProviderStat
	}
	grouped := map[string]*bucketStats{}

	for _, payment := range source {
		key := hourBucket(payment.CreatedAt)
		entry, ok := grouped[key]
		if !ok {
			entry = &bucketStats{byProvider: map[string]*domain.ProviderStat{}}
			grouped[key] = entry
		}
		entry.count++
		entry.amount += payment.AmountMinor
		entry.currency = payment.Currency
		authorized := payment.Status == domain.PaymentStatusAuthorized
		if authorized {
			entry.success++
		}

		stat, ok := entry.byProvider[payment.Provider]
		if !ok {
			stat = &domain.ProviderStat{}
			entry.byProvider[payment.Provider] = stat
		}
		stat.Total++
		if authorized {
			stat.Authorized++
		}
	}

	keys := make([]string, 0, len(grouped))
	for key := range grouped {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	points := make([]domain.TimeseriesPoint, 0, len(keys))
	for _, key := range keys {
		stats := grouped[key]
		providers := make(map[string]domain.ProviderStat, len(stats.byProvider))
		for provider, stat := range stats.byProvider {
			rate := 0.0
			if stat.Total > 0 {
				rate = float64(stat.Authorized) / float64(stat.Total) * 100
			}
			providers[provider] = domain.ProviderStat{
				Total:       stat.Total,
				Authorized:  stat.Authorized,
				SuccessRate: rate,
			}
		}
		rate := 0.0
		if stats.count > 0 {
			rate = float64(stats.success) / float64(stats.count) * 100
		}
		points = append(points, domain.TimeseriesPoint{
			Timestamp:   key,
			Count:       stats.count,
			AmountMinor: stats.amount,
			SuccessRate: rate,
			Currency:    stats.currency,
			Providers:   providers,
		})
	}
	return points
}

// hourBucket truncates an ISO timestamp to the hour. Unparseable
// timestamps bucket under their raw value.
func hourBucket(value string) string {
	parsed, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return value
	}
	return parsed.Truncate(time.Hour).UTC().Format(time.RFC3339)
}

// Timeseries returns the series to chart: the server's when it already
// carries provider breakdowns, otherwise the fallback, otherwise the
// server points with fallback breakdowns merged in by timestamp.
func (e *Engine) Timeseries() []domain.TimeseriesPoint {
	var metricsSeries []domain.TimeseriesPoint
	if data := e.store.Metrics().Data; data != nil {
		metricsSeries = data.Timeseries
	}
	if hasProviderBreakdown(metricsSeries) {
		return metricsSeries
	}

	fallback := e.fallbackTimeseries()
	if len(fallback) == 0 {
		return metricsSeries
	}
	if len(metricsSeries) == 0 {
		return fallback
	}

	fallbackProviders := make(map[string]map[string]domain.ProviderStat, len(fallback))
	for _, point := range fallback {
		fallbackProviders[point.Timestamp] = point.Providers
	}

	merged := make([]domain.TimeseriesPoint, len(metricsSeries))
	copy(merged, metricsSeries)
	for i := range merged {
		if providers, ok := fallbackProviders[merged[i].Timestamp]; ok {
			merged[i].Providers = providers
		}
	}

	if hasProviderBreakdown(merged) {
		return merged
	}
	return fallback
}

func hasProviderBreakdown(points []domain.TimeseriesPoint) bool {
	for _, point := range points {
		if len(point.Providers) > 0 {
			return true
		}
	}
	return false
}

// TotalPaymentsKPI derives the headline payment count: timeseries sum,
// then status count sum, then the server's own total.
func (e *Engine) TotalPaymentsKPI() int64 {
	total, _ := e.timeseriesAggregates()
	if total > 0 {
		return int64(total)
	}

	var statusTotal int64
	for _, count := range e.StatusCounts() {
		statusTotal += count
	}
	if statusTotal > 0 {
		return statusTotal
	}

	if data := e.store.Metrics().Data; data != nil {
		return data.TotalPayments
	}
	return 0
}

// SuccessRateKPI derives the headline authorization rate as a
// percentage, from the same sources in the same order.
func (e *Engine) SuccessRateKPI() float64 {
	total, authorized := e.timeseriesAggregates()
	if total > 0 {
		return authorized / total * 100
	}

	counts := e.StatusCounts()
	var statusTotal int64
	for _, count := range counts {
		statusTotal += count
	}
	if statusTotal > 0 {
		return float64(counts[domain.PaymentStatusAuthorized]) / float64(statusTotal) * 100
	}

	if data := e.store.Metrics().Data; data != nil {
		return data.SuccessRate
	}
	return 0
}

// timeseriesAggregates sums counts and authorization-weighted counts
// over the charted series.
func (e *Engine) timeseriesAggregates() (total, authorized float64) {
	for _, point := range e.Timeseries() {
		total += float64(point.Count)
		authorized += float64(point.Count) * point.SuccessRate / 100
	}
	return total, authorized
}
