// Package listing holds the presentation rules for an auction list: search,
// payment and date filters, month grouping, badge counts and summaries.
package listing

import (
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"auctionbook/internal/apperrors"
	"auctionbook/internal/models"
)

// MonthLabelLayout formats the heading of a month group.
const MonthLabelLayout = "January 2006"

// PaymentFilter selects auctions by payment status.
type PaymentFilter string

const (
	PaymentAll    PaymentFilter = "all"
	PaymentPaid   PaymentFilter = "paid"
	PaymentUnpaid PaymentFilter = "unpaid"
)

// DateFilter selects auctions by calendar month or day of Ref.
type DateFilter string

const (
	DateAll   DateFilter = "all"
	DateMonth DateFilter = "month"
	DateDay   DateFilter = "date"
)

// FilterState is everything the user has selected on the list screen.
type FilterState struct {
	SearchText string
	Payment    PaymentFilter
	Date       DateFilter
	Ref        models.Date
}

// MonthGroup is one "January 2006" bucket of auctions.
type MonthGroup struct {
	Label    string
	Month    models.Date
	Auctions []models.Auction
}

// Counts backs the All / Paid / Unpaid badges.
type Counts struct {
	All    int `json:"all"`
	Paid   int `json:"paid"`
	Unpaid int `json:"unpaid"`
}

// Summary holds money totals for a set of auctions.
type Summary struct {
	Total  decimal.Decimal
	Paid   decimal.Decimal
	Unpaid decimal.Decimal
}

// ParsePayment maps a raw query value onto a PaymentFilter. Unknown values
// fall back to PaymentAll.
func ParsePayment(s string) PaymentFilter {
	switch PaymentFilter(strings.ToLower(strings.TrimSpace(s))) {
	case PaymentPaid:
		return PaymentPaid
	case PaymentUnpaid:
		return PaymentUnpaid
	default:
		return PaymentAll
	}
}

// ParseDateFilter maps a raw query value onto a DateFilter. Unknown values
// fall back to DateAll.
func ParseDateFilter(s string) DateFilter {
	switch DateFilter(strings.ToLower(strings.TrimSpace(s))) {
	case DateMonth:
		return DateMonth
	case DateDay:
		return DateDay
	default:
		return DateAll
	}
}

// ParseFilterState reads a FilterState from raw query or flag values. filter
// is all, month or date; month is YYYY-MM and date is YYYY-MM-DD. The
// reference value is only parsed for the filter that uses it.
func ParseFilterState(search, payment, filter, month, date string) (FilterState, error) {
	state := FilterState{
		SearchText: search,
		Payment:    ParsePayment(payment),
		Date:       ParseDateFilter(filter),
	}

	switch state.Date {
	case DateMonth:
		t, err := time.Parse("2006-01", strings.TrimSpace(month))
		if err != nil {
			return state, apperrors.ValidationFields("invalid month filter", map[string]string{
				"month": "month must be formatted as YYYY-MM",
			})
		}
		state.Ref = models.DateOf(t)
	case DateDay:
		d, err := models.ParseDate(date)
		if err != nil {
			return state, apperrors.ValidationFields("invalid date filter", map[string]string{
				"date": "date must be formatted as YYYY-MM-DD",
			})
		}
		state.Ref = d
	}
	return state, nil
}

// Apply keeps the auctions that pass the search, payment and date filters.
// The input slice is not modified.
func Apply(auctions []models.Auction, state FilterState) []models.Auction {
	out := make([]models.Auction, 0, len(auctions))
	for _, a := range auctions {
		if matchesSearch(a, state.SearchText) && matchesPayment(a, state.Payment) && matchesDate(a, state) {
			out = append(out, a)
		}
	}
	return out
}

// Group buckets auctions by calendar month, newest month first. Inside a
// bucket auctions are ordered by auction date, newest first; equal dates keep
// their input order.
func Group(auctions []models.Auction) []MonthGroup {
	index := make(map[string]int)
	var groups []MonthGroup
	for _, a := range auctions {
		start := a.AuctionDate.MonthStart()
		key := start.String()
		i, ok := index[key]
		if !ok {
			i = len(groups)
			index[key] = i
			groups = append(groups, MonthGroup{
				Label: start.Format(MonthLabelLayout),
				Month: start,
			})
		}
		groups[i].Auctions = append(groups[i].Auctions, a)
	}

	sort.SliceStable(groups, func(i, j int) bool {
		return groups[i].Month.After(groups[j].Month.Time)
	})
	for _, g := range groups {
		sort.SliceStable(g.Auctions, func(i, j int) bool {
			return g.Auctions[i].AuctionDate.After(g.Auctions[j].AuctionDate.Time)
		})
	}
	if groups == nil {
		groups = []MonthGroup{}
	}
	return groups
}

// CountBadges counts auctions after the search and date filters. The payment
// filter is ignored so the badges show what each choice would yield.
func CountBadges(auctions []models.Auction, state FilterState) Counts {
	var c Counts
	for _, a := range auctions {
		if !matchesSearch(a, state.SearchText) || !matchesDate(a, state) {
			continue
		}
		c.All++
		if a.IsPaid {
			c.Paid++
		} else {
			c.Unpaid++
		}
	}
	return c
}

// View runs the full pipeline used by the list screen and by exports.
// flat is the grouped result flattened in display order.
func View(auctions []models.Auction, state FilterState) (groups []MonthGroup, counts Counts, flat []models.Auction) {
	groups = Group(Apply(auctions, state))
	counts = CountBadges(auctions, state)
	flat = make([]models.Auction, 0, len(auctions))
	for _, g := range groups {
		flat = append(flat, g.Auctions...)
	}
	return groups, counts, flat
}

// Summarize totals the amounts of auctions, split by payment status.
func Summarize(auctions []models.Auction) Summary {
	s := Summary{Total: decimal.Zero, Paid: decimal.Zero, Unpaid: decimal.Zero}
	for _, a := range auctions {
		s.Total = s.Total.Add(a.TotalAmount)
		if a.IsPaid {
			s.Paid = s.Paid.Add(a.TotalAmount)
		} else {
			s.Unpaid = s.Unpaid.Add(a.TotalAmount)
		}
	}
	return s
}

// Describe renders the filter state for report headers, e.g.
// `Month: March 2024 | Status: Paid Only | Search: "bob"`.
func Describe(state FilterState) string {
	var parts []string
	switch state.Date {
	case DateMonth:
		parts = append(parts, "Month: "+state.Ref.Format(MonthLabelLayout))
	case DateDay:
		parts = append(parts, "Date: "+state.Ref.Format("02 Jan 2006"))
	default:
		parts = append(parts, "Time Period: All Time")
	}

	switch state.Payment {
	case PaymentPaid:
		parts = append(parts, "Status: Paid Only")
	case PaymentUnpaid:
		parts = append(parts, "Status: Unpaid Only")
	default:
		parts = append(parts, "Status: All")
	}

	if q := strings.TrimSpace(state.SearchText); q != "" {
		parts = append(parts, `Search: "`+q+`"`)
	}
	return strings.Join(parts, " | ")
}

func matchesSearch(a models.Auction, text string) bool {
	if strings.TrimSpace(text) == "" {
		return true
	}
	q := strings.ToLower(text)
	return strings.Contains(strings.ToLower(a.PersonName), q) || strings.Contains(a.MobileNumber, q)
}

func matchesPayment(a models.Auction, p PaymentFilter) bool {
	switch p {
	case PaymentPaid:
		return a.IsPaid
	case PaymentUnpaid:
		return !a.IsPaid
	default:
		return true
	}
}

func matchesDate(a models.Auction, state FilterState) bool {
	switch state.Date {
	case DateMonth:
		return a.AuctionDate.SameMonth(state.Ref)
	case DateDay:
		return a.AuctionDate.SameDay(state.Ref)
	default:
		return true
	}
}
