package adapter

import (
	"strings"

	"github.com/ninja-pay/opsdash/pkg/domain"
	"github.com/ninja-pay/opsdash/pkg/money"
)

// versionKeys is the search order for a service's version string inside
// the health envelope's service block.
var versionKeys = []string{
	"version", "revision", "commit",
	"git_commit", "gitCommit", "git_sha", "gitSha",
	"release", "build", "build_sha", "buildSha",
}

// NormalizeHealthSnapshot converts a raw /health response into a snapshot
// tagged with the caller-provided id and label.
func (a *Adapter) NormalizeHealthSnapshot(id, label string, raw Raw) domain.ServiceHealthSnapshot {
	rawStatus := pickString(raw, "status")
	if rawStatus == "" {
		rawStatus = "unknown"
	}
	timestamp := pickString(raw, "timestamp")
	if timestamp == "" {
		timestamp = a.nowISO()
	}

	databaseInfo := coerceMap(raw["database"])
	serviceInfo := coerceMap(raw["service"])
	paymentsInfo := coerceMap(raw["payments"])

	snapshot := domain.ServiceHealthSnapshot{
		ID:            id,
		Label:         label,
		Status:        mapHealthStatus(rawStatus),
		RawStatus:     rawStatus,
		Timestamp:     timestamp,
		UptimeSeconds: finiteOrZero(firstNumber(raw, "uptime_seconds", "uptimeSeconds")),
		Payments:      a.normalizePaymentsMetrics(paymentsInfo),
	}

	if databaseInfo != nil {
		connected, _ := databaseInfo["connected"].(bool)
		snapshot.Database = domain.DatabaseHealth{
			Connected: connected,
			Schema:    pickString(databaseInfo, "schema"),
		}
	}
	if serviceInfo != nil {
		snapshot.Service = domain.ServiceInfo{
			Environment:     pickString(serviceInfo, "environment"),
			Version:         identifier(pick(serviceInfo, versionKeys...)),
			Host:            pickString(serviceInfo, "host"),
			PID:             pickIntPtr(serviceInfo, "pid"),
			DefaultProvider: pickString(serviceInfo, "default_provider", "defaultProvider"),
		}
	}
	return snapshot
}

// DownSnapshot builds the placeholder returned when a health endpoint is
// unreachable.
func (a *Adapter) DownSnapshot(id, label string) domain.ServiceHealthSnapshot {
	return domain.ServiceHealthSnapshot{
		ID:        id,
		Label:     label,
		Status:    domain.ServiceDown,
		RawStatus: "error",
		Timestamp: a.nowISO(),
	}
}

func mapHealthStatus(status string) string {
	switch strings.ToLower(status) {
	case "ok", "operational":
		return domain.ServiceOperational
	case "degraded":
		return domain.ServiceDegraded
	default:
		return domain.ServiceDown
	}
}

func (a *Adapter) normalizePaymentsMetrics(raw Raw) domain.PaymentsHealthMetrics {
	if raw == nil {
		return domain.PaymentsHealthMetrics{}
	}

	currency := pickString(raw, "totalAmountCurrency", "total_amount_currency")

	metrics := domain.PaymentsHealthMetrics{
		TotalPayments:       pickIntPtr(raw, "totalPayments", "total_payments", "count"),
		AuthorizedPayments:  pickIntPtr(raw, "authorizedPayments", "authorized_payments", "authorized"),
		TotalAmountCurrency: currency,
		LastPaymentAt:       pickString(raw, "lastPaymentAt", "last_payment_at"),
		StatusCounts:        coerceRecord(pick(raw, "statusCounts", "status_counts")),
		StatusCountsDisplay: coerceRecord(pick(raw, "statusCountsDisplay", "status_counts_display")),
		PendingByProvider:   coerceRecord(pick(raw, "pendingByProvider", "pending_by_provider")),
	}

	if amountRaw := pick(raw, "totalAmountMinor", "total_amount_minor", "amount_minor"); amountRaw != nil {
		amount := money.ToMinorUnits(amountRaw, currency, money.Options{TrustMinorUnits: a.TrustMinorUnits})
		metrics.TotalAmountMinor = &amount
	}

	if last24h := coerceMap(pick(raw, "last24h", "last_24h")); last24h != nil {
		last24hCurrency := pickString(last24h, "currency")
		if last24hCurrency == "" {
			last24hCurrency = currency
		}
		metrics.Last24h = &domain.Last24hMetrics{
			Count: pickInt(last24h, "count"),
			AmountMinor: money.ToMinorUnits(
				pick(last24h, "amountMinor", "amount_minor"),
				last24hCurrency,
				money.Options{TrustMinorUnits: a.TrustMinorUnits},
			),
			Currency: last24hCurrency,
		}
	}

	return metrics
}
