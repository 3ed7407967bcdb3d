package repositories

import (
	"sort"

	"github.com/google/uuid"

	"auctionbook/internal/models"
)

// prepareItems links items to their auction, assigning ids and positions.
func prepareItems(auctionID string, items []models.AuctionItem) {
	for i := range items {
		if items[i].ID == "" {
			items[i].ID = uuid.New().String()
		}
		items[i].AuctionID = auctionID
		items[i].Position = i
	}
}

// sortAuctions orders by auction date, then creation time, both descending.
func sortAuctions(auctions []models.Auction) {
	sort.SliceStable(auctions, func(i, j int) bool {
		a, b := auctions[i], auctions[j]
		if !a.AuctionDate.Equal(b.AuctionDate.Time) {
			return a.AuctionDate.After(b.AuctionDate.Time)
		}
		return a.CreatedAt.After(b.CreatedAt)
	})
}
