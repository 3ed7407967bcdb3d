package repositories

import (
	"context"
	"time"

	"auctionbook/internal/models"
)

// DateRange is a half-open [From, To) range of auction dates.
type DateRange struct {
	From models.Date
	To   models.Date
}

// MonthRange covers every day of the given calendar month.
func MonthRange(year, month int) DateRange {
	from := models.NewDate(year, time.Month(month), 1)
	return DateRange{From: from, To: models.DateOf(from.AddDate(0, 1, 0))}
}

// Contains reports whether d falls inside the range.
func (r DateRange) Contains(d models.Date) bool {
	return !d.Before(r.From.Time) && d.Before(r.To.Time)
}

// AuctionRepository defines the data access for the auction aggregate. Every
// write covers the auction row and its items as one unit.
type AuctionRepository interface {
	// List returns auctions with items, newest auction date first, ties
	// broken by newest creation time. A nil range returns everything.
	List(ctx context.Context, rng *DateRange) ([]models.Auction, error)
	GetByID(ctx context.Context, id string) (*models.Auction, error)
	// CreateWithItems assigns ids and stores the auction and its items.
	CreateWithItems(ctx context.Context, auction *models.Auction) error
	// ReplaceWithItems overwrites the scalar fields of an existing auction
	// and swaps its whole item set for auction.Items.
	ReplaceWithItems(ctx context.Context, auction *models.Auction) error
	MarkPaid(ctx context.Context, id string) (*models.Auction, error)
	// Delete removes the auction's items, then the auction.
	Delete(ctx context.Context, id string) error
	Ping(ctx context.Context) error
}
