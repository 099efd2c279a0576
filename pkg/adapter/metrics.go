package adapter

import (
	"math"
	"strings"

	"github.com/ninja-pay/opsdash/pkg/domain"
	"github.com/ninja-pay/opsdash/pkg/money"
)

var (
	statusCountKeys      = []string{"status", "key", "name", "id"}
	statusCountValues    = []string{"count", "value", "total"}
	providerCountKeys    = []string{"provider", "psp", "name", "id"}
	providerCountValues  = []string{"count", "value", "total", "amount", "amountMinor"}
	providerStatKeys     = []string{"provider", "psp", "name", "id", "key"}
	providerStatTotals   = []string{"total", "count", "transactions", "volume", "value"}
	providerStatAuth     = []string{"authorized", "approved", "success", "authorizedCount"}
	providerStatRates    = []string{"successRate", "conversion", "conversionRate", "approvedRate"}
	providerBreakdowns   = []string{"providers", "providerBreakdown", "providersBreakdown", "pspBreakdown", "psp_breakdown", "psp", "psps"}
	providerRecordFields = []string{"providerCounts", "providers", "pspCounts", "psp_counts"}
)

// NormalizeMetrics converts a raw /metrics response into a MetricsPayload.
// Every field tolerates absence; a nil input yields zero values throughout.
func (a *Adapter) NormalizeMetrics(raw Raw) domain.MetricsPayload {
	currency := ""
	if v := pickString(raw, "totalAmountCurrency", "total_amount_currency", "currency"); v != "" {
		candidate := strings.ToUpper(strings.TrimSpace(v))
		if money.IsISOCurrency(candidate) {
			currency = candidate
		}
	}

	totalAmountMinor := money.ToMinorUnits(
		pick(raw, "totalAmountMinor", "total_amount_minor", "volume"),
		currency,
		money.Options{TrustMinorUnits: a.TrustMinorUnits},
	)

	statusCounts := coerceRecord(pick(raw, "statusCounts", "status_counts"))
	if statusCounts == nil {
		statusCounts = coerceCollection(pick(raw, "statusCounts", "status_counts"), statusCountKeys, statusCountValues)
	}
	providerCounts := coerceRecord(pick(raw, "pspCounts", "psp_counts"))
	if providerCounts == nil {
		providerCounts = coerceCollection(pick(raw, "pspCounts", "psp_counts"), providerCountKeys, providerCountValues)
	}
	if statusCounts == nil {
		statusCounts = map[string]int64{}
	}
	if providerCounts == nil {
		providerCounts = map[string]int64{}
	}

	return domain.MetricsPayload{
		TotalPayments:       pickInt(raw, "totalPayments", "total_payments", "total", "count"),
		TotalAmountMinor:    totalAmountMinor,
		TotalAmountCurrency: currency,
		ActiveCompanies:     pickInt(raw, "activeCompanies", "active_companies", "companies"),
		SuccessRate:         finiteOrZero(firstNumber(raw, "successRate", "success_rate")),
		TopPsp:              normalizeTopPsp(raw),
		Timeseries:          a.normalizeTimeseries(raw, currency),
		PspDistribution:     a.normalizePspDistribution(raw, currency),
		TotalsByCurrency:    a.normalizeTotalsByCurrency(raw, totalAmountMinor, currency),
		ServiceHealth:       a.normalizeServiceHealth(raw),
		StatusCounts:        statusCounts,
		ProviderCounts:      providerCounts,
	}
}

func (a *Adapter) normalizeTimeseries(raw Raw, defaultCurrency string) []domain.TimeseriesPoint {
	source, ok := pick(raw, "timeseries", "timeSeries", "time_series").([]any)
	if !ok {
		return []domain.TimeseriesPoint{}
	}

	points := make([]domain.TimeseriesPoint, 0, len(source))
	for _, entry := range source {
		point, ok := entry.(map[string]any)
		if !ok {
			continue
		}
		timestamp := identifier(pick(point, "timestamp", "date", "day", "bucket", "time"))
		if timestamp == "" {
			continue
		}
		currency := pickString(point, "currency", "amountCurrency", "currency_code")
		if currency == "" {
			currency = defaultCurrency
		}
		if currency == "" {
			currency = "CLP"
		}
		currency = strings.ToUpper(strings.TrimSpace(currency))

		points = append(points, domain.TimeseriesPoint{
			Timestamp: timestamp,
			Count:     pickInt(point, "count", "txCount", "transactions"),
			AmountMinor: money.ToMinorUnits(
				pick(point, "amountMinor", "amount_minor", "volume", "total"),
				currency,
				money.Options{TrustMinorUnits: a.TrustMinorUnits},
			),
			SuccessRate: finiteOrZero(firstNumber(point, "successRate", "success_rate", "success")),
			Currency:    currency,
			Providers:   normalizeTimeseriesProviders(point),
		})
	}
	return points
}

// normalizeTimeseriesProviders reads the per-provider breakdown of one
// timeseries bucket. Arrays carry full stats; plain records only carry
// totals. Authorized counts and success rates derive from each other when
// the server sends only one of the pair.
func normalizeTimeseriesProviders(point Raw) map[string]domain.ProviderStat {
	var breakdown []any
	for _, key := range providerBreakdowns {
		if list, ok := point[key].([]any); ok {
			breakdown = list
			break
		}
	}

	stats := map[string]domain.ProviderStat{}

	if breakdown != nil {
		for _, entry := range breakdown {
			item, ok := entry.(map[string]any)
			if !ok {
				continue
			}
			provider := pickString(item, providerStatKeys...)
			if provider == "" {
				continue
			}

			total := finiteOrZero(firstNumber(item, providerStatTotals...))
			authorized, hasAuthorized := pickNumber(item, providerStatAuth...)
			rate, hasRate := pickNumber(item, providerStatRates...)

			if hasRate && rate <= 1 {
				rate *= 100
			}
			if !hasRate && hasAuthorized && total > 0 {
				rate = authorized / total * 100
				hasRate = true
			}
			if hasRate && total > 0 && !hasAuthorized {
				authorized = total * rate / 100
				hasAuthorized = true
			}

			var authorizedFinal int64
			if hasAuthorized && !math.IsNaN(authorized) && !math.IsInf(authorized, 0) {
				authorizedFinal = int64(math.Round(authorized))
			}
			var rateFinal float64
			switch {
			case hasRate && !math.IsNaN(rate) && !math.IsInf(rate, 0):
				rateFinal = math.Max(0, math.Min(100, rate))
			case total > 0:
				rateFinal = float64(authorizedFinal) / total * 100
			}

			stats[provider] = domain.ProviderStat{
				Total:       int64(math.Round(total)),
				Authorized:  authorizedFinal,
				SuccessRate: rateFinal,
			}
		}
	} else if record := coerceMap(pick(point, providerRecordFields...)); record != nil {
		for provider, value := range record {
			total, _ := toNumber(value)
			stats[provider] = domain.ProviderStat{Total: int64(finiteOrZero(total))}
		}
	}

	if len(stats) == 0 {
		return nil
	}
	return stats
}

func (a *Adapter) normalizePspDistribution(raw Raw, defaultCurrency string) []domain.PspDistributionEntry {
	source, ok := pick(raw, "pspDistribution", "psp_distribution").([]any)
	if !ok {
		return []domain.PspDistributionEntry{}
	}

	entries := make([]domain.PspDistributionEntry, 0, len(source))
	for _, entry := range source {
		item, ok := entry.(map[string]any)
		if !ok {
			continue
		}
		provider := pickString(item, "provider", "name")
		if provider == "" {
			provider = "unknown"
		}
		currency := pickString(item, "currency", "amountCurrency", "currency_code")
		if currency == "" {
			currency = defaultCurrency
		}
		if currency == "" {
			currency = "CLP"
		}
		currency = strings.ToUpper(strings.TrimSpace(currency))

		entries = append(entries, domain.PspDistributionEntry{
			Provider: provider,
			TotalAmountMinor: money.ToMinorUnits(
				pick(item, "totalAmountMinor", "amountMinor", "amount_minor", "total"),
				currency,
				money.Options{
					Provider:        provider,
					MajorCandidates: []any{item["amount"], item["totalAmount"], item["volume"]},
					TrustMinorUnits: a.TrustMinorUnits,
				},
			),
			Count:    pickInt(item, "count", "txCount", "transactions"),
			Currency: currency,
		})
	}
	return entries
}

// normalizeTotalsByCurrency reads per-currency totals, falling back to a
// single synthesized entry from the headline total when the breakdown is
// missing and the headline currency is known.
func (a *Adapter) normalizeTotalsByCurrency(raw Raw, fallbackAmount int64, fallbackCurrency string) []domain.CurrencyTotal {
	source, _ := pick(raw,
		"totalsByCurrency", "totals_by_currency",
		"totalAmounts", "total_amounts",
		"amountsByCurrency", "amounts_by_currency",
	).([]any)

	if len(source) > 0 {
		totals := make([]domain.CurrencyTotal, 0, len(source))
		for _, entry := range source {
			item, ok := entry.(map[string]any)
			if !ok {
				continue
			}
			currency := pickString(item, "currency", "code", "currency_code")
			if currency == "" {
				currency = fallbackCurrency
			}
			if currency == "" {
				currency = "CLP"
			}
			currency = strings.ToUpper(strings.TrimSpace(currency))
			if !money.IsISOCurrency(currency) {
				continue
			}
			totals = append(totals, domain.CurrencyTotal{
				Currency: currency,
				AmountMinor: money.ToMinorUnits(
					pick(item, "amountMinor", "amount_minor", "total", "value"),
					currency,
					money.Options{TrustMinorUnits: a.TrustMinorUnits},
				),
			})
		}
		return totals
	}

	if money.IsISOCurrency(fallbackCurrency) {
		return []domain.CurrencyTotal{{Currency: fallbackCurrency, AmountMinor: fallbackAmount}}
	}
	return []domain.CurrencyTotal{}
}

func normalizeTopPsp(raw Raw) string {
	candidate := pick(raw, "topPsp", "top_psp")
	switch v := candidate.(type) {
	case string:
		return v
	case map[string]any:
		return pickString(v, "provider")
	default:
		return ""
	}
}

func (a *Adapter) normalizeServiceHealth(raw Raw) []domain.APIMetric {
	source, ok := pick(raw, "serviceHealth", "service_health").([]any)
	if !ok {
		return []domain.APIMetric{}
	}

	metrics := make([]domain.APIMetric, 0, len(source))
	for _, entry := range source {
		item, ok := entry.(map[string]any)
		if !ok {
			continue
		}
		service := pickString(item, "service", "name")
		if service == "" {
			service = "unknown"
		}
		status := pickString(item, "status", "state")
		if status == "" {
			status = "operational"
		}
		updatedAt := pickString(item, "updatedAt", "updated_at", "timestamp")
		if updatedAt == "" {
			updatedAt = a.nowISO()
		}
		metrics = append(metrics, domain.APIMetric{
			Service:    service,
			Status:     status,
			LatencyP95: finiteOrZero(firstNumber(item, "latencyP95", "latency_p95", "latency")),
			ErrorRate:  finiteOrZero(firstNumber(item, "errorRate", "error_rate", "errors")),
			Throughput: finiteOrZero(firstNumber(item, "throughput", "throughput_per_min", "rps")),
			UpdatedAt:  updatedAt,
		})
	}
	return metrics
}

func firstNumber(raw Raw, keys ...string) float64 {
	value, _ := pickNumber(raw, keys...)
	return value
}

func finiteOrZero(value float64) float64 {
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return 0
	}
	return value
}
