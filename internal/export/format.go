// Package export renders auctions as PDF reports, XLSX workbooks and
// receipt-sized bills. Every function is a pure projection of its input.
package export

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"auctionbook/internal/models"
)

const (
	DisplayDateLayout = "02 Jan 2006"
	TimestampLayout   = "02 Jan 2006, 03:04 PM"
	currencyPrefix    = "Rs."
	shortIDLength     = 8
	receiptNameLimit  = 15
)

// FormatINR renders amount as rupees with Indian digit grouping and no
// decimals, e.g. Rs.1,23,457.
func FormatINR(amount decimal.Decimal) string {
	return currencyPrefix + GroupINR(amount)
}

// GroupINR rounds amount to whole rupees and groups the digits the Indian
// way: the last three digits, then pairs.
func GroupINR(amount decimal.Decimal) string {
	rounded := amount.Round(0)
	digits := rounded.Abs().String()
	sign := ""
	if rounded.IsNegative() {
		sign = "-"
	}
	if len(digits) <= 3 {
		return sign + digits
	}

	head, tail := digits[:len(digits)-3], digits[len(digits)-3:]
	var groups []string
	for len(head) > 2 {
		groups = append([]string{head[len(head)-2:]}, groups...)
		head = head[:len(head)-2]
	}
	if head != "" {
		groups = append([]string{head}, groups...)
	}
	return sign + strings.Join(groups, ",") + "," + tail
}

// PaymentLabel is the status column text of the report.
func PaymentLabel(paid bool) string {
	if paid {
		return "Paid"
	}
	return "Not Paid"
}

// ShortID returns the leading characters of an auction id.
func ShortID(id string) string {
	if len(id) <= shortIDLength {
		return id
	}
	return id[:shortIDLength]
}

// ReportFilename names a report export taken at now, e.g.
// auctions_2024-03-10_1530.pdf.
func ReportFilename(now time.Time, ext string) string {
	return "auctions_" + now.Format("2006-01-02_1504") + "." + ext
}

// ReceiptFilename names the bill of one auction.
func ReceiptFilename(a models.Auction, now time.Time) string {
	name := strings.Join(strings.Fields(a.PersonName), "_")
	if name == "" {
		name = ShortID(a.ID)
	}
	return "bill_" + name + "_" + now.Format("20060102_1504") + ".pdf"
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
