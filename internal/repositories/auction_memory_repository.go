package repositories

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"auctionbook/internal/apperrors"
	"auctionbook/internal/models"
)

// MemoryAuctionRepository is an in-memory implementation of AuctionRepository.
type MemoryAuctionRepository struct {
	auctions map[string]models.Auction
	mu       sync.RWMutex
}

// NewMemoryAuctionRepository creates a new instance of MemoryAuctionRepository.
func NewMemoryAuctionRepository() *MemoryAuctionRepository {
	return &MemoryAuctionRepository{
		auctions: make(map[string]models.Auction),
	}
}

// List returns auctions in display order.
func (r *MemoryAuctionRepository) List(_ context.Context, rng *DateRange) ([]models.Auction, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	list := make([]models.Auction, 0, len(r.auctions))
	for _, a := range r.auctions {
		if rng != nil && !rng.Contains(a.AuctionDate) {
			continue
		}
		list = append(list, a.Clone())
	}
	sortAuctions(list)
	return list, nil
}

// GetByID returns an auction by its ID.
func (r *MemoryAuctionRepository) GetByID(_ context.Context, id string) (*models.Auction, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	a, ok := r.auctions[id]
	if !ok {
		return nil, apperrors.NotFound("auction with ID %s not found", id)
	}
	out := a.Clone()
	return &out, nil
}

// CreateWithItems stores a new auction.
func (r *MemoryAuctionRepository) CreateWithItems(_ context.Context, auction *models.Auction) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if auction.ID == "" {
		auction.ID = uuid.New().String()
	}
	if auction.CreatedAt.IsZero() {
		auction.CreatedAt = now()
	}
	prepareItems(auction.ID, auction.Items)
	r.auctions[auction.ID] = auction.Clone()
	return nil
}

// ReplaceWithItems overwrites an existing auction and its items.
func (r *MemoryAuctionRepository) ReplaceWithItems(_ context.Context, auction *models.Auction) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, ok := r.auctions[auction.ID]
	if !ok {
		return apperrors.NotFound("auction with ID %s not found for update", auction.ID)
	}
	for i := range auction.Items {
		auction.Items[i].ID = ""
	}
	prepareItems(auction.ID, auction.Items)
	auction.CreatedAt = existing.CreatedAt
	r.auctions[auction.ID] = auction.Clone()
	return nil
}

// MarkPaid sets the paid flag of an auction.
func (r *MemoryAuctionRepository) MarkPaid(_ context.Context, id string) (*models.Auction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	a, ok := r.auctions[id]
	if !ok {
		return nil, apperrors.NotFound("auction with ID %s not found", id)
	}
	a.IsPaid = true
	r.auctions[id] = a
	out := a.Clone()
	return &out, nil
}

// Delete removes an auction and its items.
func (r *MemoryAuctionRepository) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.auctions[id]; !ok {
		return apperrors.NotFound("auction with ID %s not found for deletion", id)
	}
	delete(r.auctions, id)
	return nil
}

// Ping always succeeds.
func (r *MemoryAuctionRepository) Ping(context.Context) error {
	return nil
}
