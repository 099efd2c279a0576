// Package money normalizes monetary values to minor units.
//
// Back-end services disagree on whether amounts travel in major or minor
// units. Every amount entering the domain passes through ToMinorUnits, which
// scales by the currency's minor factor and, when a reference set of
// major-unit candidates is available, prefers a scaled candidate over the raw
// value to disambiguate the two conventions.
package money

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

var isoCodePattern = regexp.MustCompile(`^[A-Z]{3}$`)

// zeroFractionCurrencies have no minor unit: one peso is one peso.
var zeroFractionCurrencies = map[string]bool{
	"BIF": true, "CLP": true, "DJF": true, "GNF": true, "ISK": true,
	"JPY": true, "KMF": true, "KRW": true, "PYG": true, "RWF": true,
	"UGX": true, "VND": true, "VUV": true, "XAF": true, "XOF": true,
	"XPF": true,
}

// threeFractionCurrencies use thousandths as the minor unit.
var threeFractionCurrencies = map[string]bool{
	"BHD": true, "IQD": true, "JOD": true, "KWD": true, "LYD": true,
	"OMR": true, "TND": true,
}

// IsISOCurrency reports whether code looks like an uppercase ISO-4217 code.
func IsISOCurrency(code string) bool {
	return isoCodePattern.MatchString(strings.ToUpper(strings.TrimSpace(code)))
}

// MinorFactor returns the number of minor units per major unit of code.
// CLP and other zero-fraction currencies use 1; unknown or non-ISO codes
// fall back to 100.
func MinorFactor(code string) int64 {
	if code == "" {
		return 100
	}
	normalized := strings.ToUpper(strings.TrimSpace(code))
	if zeroFractionCurrencies[normalized] {
		return 1
	}
	if !IsISOCurrency(normalized) {
		return 100
	}
	if threeFractionCurrencies[normalized] {
		return 1000
	}
	return 100
}

// FractionDigits returns the number of decimal places for code.
func FractionDigits(code string) int32 {
	switch MinorFactor(code) {
	case 1:
		return 0
	case 1000:
		return 3
	default:
		return 2
	}
}

// Options tunes ToMinorUnits for a single conversion.
type Options struct {
	// Provider that produced the amount, carried for diagnostics.
	Provider string
	// MajorCandidates are sibling fields known to hold the same amount in
	// major units. When a scaled candidate is at least as large as the
	// scaled raw value, the candidate wins.
	MajorCandidates []any
	// TrustMinorUnits skips conversion entirely: the source is known to
	// already emit minor units (mock mode).
	TrustMinorUnits bool
}

// ToMinorUnits converts rawValue to the smallest unit of currency.
// Non-finite and non-numeric inputs yield 0.
func ToMinorUnits(rawValue any, currency string, opts ...Options) int64 {
	var opt Options
	if len(opts) > 0 {
		opt = opts[0]
	}

	numeric, ok := Number(rawValue)
	if !ok {
		return 0
	}

	normalized := strings.ToUpper(strings.TrimSpace(currency))
	if normalized == "" {
		normalized = "CLP"
	}
	factor := MinorFactor(normalized)

	if opt.TrustMinorUnits || factor == 1 {
		return roundHalfAway(numeric)
	}

	scaled := scale(numeric, factor)

	for _, candidate := range opt.MajorCandidates {
		value, ok := Number(candidate)
		if !ok || value == 0 {
			continue
		}
		scaledCandidate := scale(value, factor)
		if abs64(scaledCandidate) >= abs64(scaled) {
			return scaledCandidate
		}
	}

	return scaled
}

// Number coerces value to a finite float64, mirroring the loose numeric
// handling of the back-end payloads.
func Number(value any) (float64, bool) {
	var numeric float64
	switch v := value.(type) {
	case nil:
		return 0, false
	case float64:
		numeric = v
	case float32:
		numeric = float64(v)
	case int:
		numeric = float64(v)
	case int32:
		numeric = float64(v)
	case int64:
		numeric = float64(v)
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return 0, false
		}
		numeric = parsed
	default:
		return 0, false
	}
	if math.IsNaN(numeric) || math.IsInf(numeric, 0) {
		return 0, false
	}
	return numeric, true
}

// FormatMinor renders a minor-unit amount as a human-readable string.
// Non-ISO codes fall back to "<value> <code>".
func FormatMinor(amountMinor int64, code string) string {
	normalized := strings.ToUpper(strings.TrimSpace(code))
	if normalized == "" {
		normalized = "CLP"
	}
	digits := FractionDigits(normalized)
	value := decimal.New(amountMinor, 0).Div(decimal.New(MinorFactor(normalized), 0))
	return fmt.Sprintf("%s %s", groupThousands(value.StringFixed(digits)), normalized)
}

// scale multiplies value by factor in decimal space to avoid binary float
// artifacts on amounts like 12.34 * 100.
func scale(value float64, factor int64) int64 {
	product := decimal.NewFromFloat(value).Mul(decimal.New(factor, 0))
	return product.Round(0).IntPart()
}

func roundHalfAway(value float64) int64 {
	return decimal.NewFromFloat(value).Round(0).IntPart()
}

func abs64(v int64) int64 {
	if v < 0 {
		return -v
	}
	return v
}

func groupThousands(formatted string) string {
	sign := ""
	if strings.HasPrefix(formatted, "-") {
		sign = "-"
		formatted = formatted[1:]
	}
	whole, fraction, hasFraction := strings.Cut(formatted, ".")
	var b strings.Builder
	for i, r := range whole {
		if i > 0 && (len(whole)-i)%3 == 0 {
			b.WriteByte('.')
		}
		b.WriteRune(r)
	}
	grouped := b.String()
	if hasFraction {
		return sign + grouped + "," + fraction
	}
	return sign + grouped
}
