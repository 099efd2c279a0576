package derive

import (
	"sort"
	"strings"

	"github.com/ninja-pay/opsdash/pkg/domain"
)

// UnitMismatchRatio flags a server distribution entry whose amount is
// this many times off from the client-side sum for the same provider.
// Disagreement that large means one side reports major units, and the
// client-side sum wins.
const UnitMismatchRatio = 50

// FallbackPspDistribution rebuilds the provider distribution from the
// drained authorized payments. Currency comes from the payments
// themselves, then the server distribution, then the headline currency.
func (e *Engine) FallbackPspDistribution() []domain.PspDistributionEntry {
	details := e.ProviderPaymentDetails()
	if len(details) == 0 {
		return nil
	}

	currencyByProvider := map[string]string{}
	headlineCurrency := ""
	if data := e.store.Metrics().Data; data != nil {
		headlineCurrency = data.TotalAmountCurrency
		for _, item := range data.PspDistribution {
			if item.Currency != "" {
				currencyByProvider[item.Provider] = item.Currency
			}
		}
	}

	providers := make([]string, 0, len(details))
	for provider := range details {
		providers = append(providers, provider)
	}
	sort.Strings(providers)

	entries := make([]domain.PspDistributionEntry, 0, len(providers))
	for _, provider := range providers {
		payments := details[provider]
		var total int64
		for _, payment := range payments {
			total += payment.AmountMinor
		}

		currency := payments[0].Currency
		if currency == "" {
			currency = currencyByProvider[provider]
		}
		if currency == "" {
			currency = headlineCurrency
		}
		if currency == "" {
			currency = "CLP"
		}

		entries = append(entries, domain.PspDistributionEntry{
			Provider:         provider,
			TotalAmountMinor: total,
			Count:            int64(len(payments)),
			Currency:         strings.ToUpper(currency),
		})
	}
	return entries
}

// LeaderboardDistribution fuses the server distribution with the
// client-side one. Server amounts win unless they are zero or off by the
// unit-mismatch ratio; providers the server missed are appended.
func (e *Engine) LeaderboardDistribution() []domain.PspDistributionEntry {
	fallback := e.FallbackPspDistribution()

	var base []domain.PspDistributionEntry
	headlineCurrency := ""
	if data := e.store.Metrics().Data; data != nil {
		base = data.PspDistribution
		headlineCurrency = data.TotalAmountCurrency
	}
	if len(base) == 0 {
		return fallback
	}

	fallbackByProvider := make(map[string]domain.PspDistributionEntry, len(fallback))
	for _, entry := range fallback {
		fallbackByProvider[entry.Provider] = entry
	}

	merged := make([]domain.PspDistributionEntry, 0, len(base)+len(fallback))
	covered := map[string]bool{}
	for _, item := range base {
		covered[item.Provider] = true
		entry, ok := fallbackByProvider[item.Provider]
		if !ok {
			merged = append(merged, item)
			continue
		}

		amount := item.TotalAmountMinor
		if entry.TotalAmountMinor > 0 && unitsMismatch(amount, entry.TotalAmountMinor) {
			amount = entry.TotalAmountMinor
		}
		count := item.Count
		if count == 0 {
			count = entry.Count
		}
		currency := entry.Currency
		if currency == "" {
			currency = item.Currency
		}
		if currency == "" {
			currency = headlineCurrency
		}
		if currency == "" {
			currency = "CLP"
		}

		merged = append(merged, domain.PspDistributionEntry{
			Provider:         item.Provider,
			TotalAmountMinor: amount,
			Count:            count,
			Currency:         currency,
		})
	}
	for _, entry := range fallback {
		if !covered[entry.Provider] {
			merged = append(merged, entry)
		}
	}
	return merged
}

func unitsMismatch(metricAmount, fallbackAmount int64) bool {
	return metricAmount == 0 ||
		fallbackAmount > metricAmount*UnitMismatchRatio ||
		metricAmount > fallbackAmount*UnitMismatchRatio
}

// LeaderboardMetrics returns the metrics payload with the fused
// distribution substituted in, so the leaderboard and its headline
// figures agree.
func (e *Engine) LeaderboardMetrics() domain.MetricsPayload {
	distribution := e.LeaderboardDistribution()
	data := e.store.Metrics().Data

	if len(distribution) == 0 {
		if data != nil {
			return *data
		}
		return domain.MetricsPayload{}
	}

	var totalAmount int64
	for _, entry := range distribution {
		totalAmount += entry.TotalAmountMinor
	}
	currency := distribution[0].Currency

	if data != nil {
		result := *data
		if totalAmount != 0 {
			result.TotalAmountMinor = totalAmount
		}
		if currency != "" {
			result.TotalAmountCurrency = currency
		}
		result.PspDistribution = distribution
		if result.TopPsp == "" {
			result.TopPsp = distribution[0].Provider
		}
		return result
	}

	totals := e.TotalsByCurrency()
	flattened := make([]domain.CurrencyTotal, 0, len(totals))
	for _, entry := range totals {
		flattened = append(flattened, domain.CurrencyTotal{
			Currency:    entry.Currency,
			AmountMinor: entry.AmountMinor,
		})
	}
	return domain.MetricsPayload{
		TotalAmountMinor:    totalAmount,
		TotalAmountCurrency: currency,
		TopPsp:              distribution[0].Provider,
		PspDistribution:     distribution,
		TotalsByCurrency:    flattened,
		Timeseries:          []domain.TimeseriesPoint{},
		ServiceHealth:       []domain.APIMetric{},
		StatusCounts:        map[string]int64{},
		ProviderCounts:      map[string]int64{},
	}
}

// TopPspLabel names the leading provider: largest fused amount, then the
// server's pick, then the largest client-side amount, then "N/A".
func (e *Engine) TopPspLabel() string {
	distribution := e.LeaderboardDistribution()
	sorted := make([]domain.PspDistributionEntry, len(distribution))
	copy(sorted, distribution)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].TotalAmountMinor > sorted[j].TotalAmountMinor
	})
	for _, entry := range sorted {
		if entry.TotalAmountMinor > 0 {
			return entry.Provider
		}
	}

	if data := e.store.Metrics().Data; data != nil && data.TopPsp != "" {
		return data.TopPsp
	}

	amounts := e.ProviderAmounts()
	providers := make([]string, 0, len(amounts))
	for provider := range amounts {
		providers = append(providers, provider)
	}
	sort.SliceStable(providers, func(i, j int) bool {
		if amounts[providers[i]] != amounts[providers[j]] {
			return amounts[providers[i]] > amounts[providers[j]]
		}
		return providers[i] < providers[j]
	})
	for _, provider := range providers {
		if amounts[provider] > 0 {
			return provider
		}
	}
	if len(providers) > 0 {
		return providers[0]
	}
	return "N/A"
}
