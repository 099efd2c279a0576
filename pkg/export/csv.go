// Package export renders payments as CSV downloads.
package export

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/ninja-pay/opsdash/pkg/domain"
)

// csvHeader fixes the column order of a transactions export.
var csvHeader = []string{
	"id",
	"paymentOrderId",
	"buyOrder",
	"provider",
	"status",
	"amountMinor",
	"currency",
	"environment",
	"providerAccountId",
	"createdAt",
	"updatedAt",
}

// Filename names an export taken at the given instant, keyed by epoch
// milliseconds.
func Filename(now time.Time) string {
	return fmt.Sprintf("transactions-%d.csv", now.UnixMilli())
}

// WritePaymentsCSV writes the payments as CSV with every field quoted
// and LF line endings. Writing zero payments is an error; an export of
// nothing is a UI bug upstream.
func WritePaymentsCSV(w io.Writer, payments []domain.Payment) error {
	if len(payments) == 0 {
		return fmt.Errorf("no payments to export")
	}

	var sb strings.Builder
	writeRow(&sb, csvHeader)
	for _, payment := range payments {
		writeRow(&sb, []string{
			payment.ID,
			payment.PaymentOrderID,
			payment.BuyOrder,
			payment.Provider,
			payment.Status,
			strconv.FormatInt(payment.AmountMinor, 10),
			payment.Currency,
			payment.Environment,
			payment.ProviderAccountID,
			payment.CreatedAt,
			payment.UpdatedAt,
		})
	}

	_, err := io.WriteString(w, sb.String())
	return err
}

// writeRow appends one line. Every field is quoted, with embedded quotes
// doubled.
func writeRow(sb *strings.Builder, fields []string) {
	if sb.Len() > 0 {
		sb.WriteByte('\n')
	}
	for i, field := range fields {
		if i > 0 {
			sb.WriteByte(',')
		}
		sb.WriteByte('"')
		sb.WriteString(strings.ReplaceAll(field, `"`, `""`))
		sb.WriteByte('"')
	}
}
