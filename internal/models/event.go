package models

import "time"

// AuctionEventType names a lifecycle change of an auction.
type AuctionEventType string

const (
	AuctionCreated AuctionEventType = "auction.created"
	AuctionUpdated AuctionEventType = "auction.updated"
	AuctionPaid    AuctionEventType = "auction.paid"
	AuctionDeleted AuctionEventType = "auction.deleted"
)

// AuctionEvent is published after a successful write.
type AuctionEvent struct {
	Type        AuctionEventType `json:"type"`
	AuctionID   string           `json:"auctionId"`
	PersonName  string           `json:"personName,omitempty"`
	TotalAmount string           `json:"totalAmount,omitempty"`
	IsPaid      bool             `json:"isPaid"`
	ItemCount   int              `json:"itemCount"`
	OccurredAt  time.Time        `json:"occurredAt"`
}

// NewAuctionEvent snapshots the fields consumers need from a.
func NewAuctionEvent(t AuctionEventType, a Auction, at time.Time) AuctionEvent {
	return AuctionEvent{
		Type:        t,
		AuctionID:   a.ID,
		PersonName:  a.PersonName,
		TotalAmount: a.TotalAmount.StringFixed(2),
		IsPaid:      a.IsPaid,
		ItemCount:   len(a.Items),
		OccurredAt:  at,
	}
}
