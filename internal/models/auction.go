package models

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

// AuctionItem is a single line of an auction. Price is the unit price at
// which the item was sold.
type AuctionItem struct {
	ID        string          `json:"id" gorm:"primaryKey;type:varchar(36)"`
	AuctionID string          `json:"auctionId" gorm:"type:varchar(36);not null;index"`
	ItemName  string          `json:"itemName" gorm:"type:varchar(255);not null"`
	Quantity  int             `json:"quantity" gorm:"not null"`
	Price     decimal.Decimal `json:"price" gorm:"type:numeric(12,2);not null"`
	Position  int             `json:"-" gorm:"not null"`
}

// LineTotal is quantity times unit price.
func (i AuctionItem) LineTotal() decimal.Decimal {
	return i.Price.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

func (i AuctionItem) MarshalJSON() ([]byte, error) {
	type alias AuctionItem
	return json.Marshal(struct {
		alias
		Price string `json:"price"`
	}{alias(i), i.Price.StringFixed(2)})
}

// Auction is the aggregate root: one sale to one person on one day, owning
// its items.
type Auction struct {
	ID           string          `json:"id" gorm:"primaryKey;type:varchar(36)"`
	PersonName   string          `json:"personName" gorm:"type:varchar(255);not null"`
	MobileNumber string          `json:"mobileNumber" gorm:"type:varchar(20);not null"`
	AuctionDate  Date            `json:"auctionDate" gorm:"not null"`
	TotalAmount  decimal.Decimal `json:"totalAmount" gorm:"type:numeric(12,2);not null"`
	IsPaid       bool            `json:"isPaid" gorm:"not null"`
	CreatedAt    time.Time       `json:"createdAt" gorm:"not null"`
	Items        []AuctionItem   `json:"items" gorm:"foreignKey:AuctionID;constraint:OnDelete:CASCADE"`
}

func (a Auction) MarshalJSON() ([]byte, error) {
	type alias Auction
	items := a.Items
	if items == nil {
		items = []AuctionItem{}
	}
	return json.Marshal(struct {
		alias
		TotalAmount string        `json:"totalAmount"`
		Items       []AuctionItem `json:"items"`
	}{alias(a), a.TotalAmount.StringFixed(2), items})
}

// ComputeTotal sums the line totals of items, rounded to two places.
func ComputeTotal(items []AuctionItem) decimal.Decimal {
	total := decimal.Zero
	for _, item := range items {
		total = total.Add(item.LineTotal())
	}
	return total.Round(2)
}

// Clone returns a deep copy of the auction, items included.
func (a Auction) Clone() Auction {
	out := a
	if a.Items != nil {
		out.Items = make([]AuctionItem, len(a.Items))
		copy(out.Items, a.Items)
	}
	return out
}
