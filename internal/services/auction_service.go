package services

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"auctionbook/internal/apperrors"
	"auctionbook/internal/logger"
	"auctionbook/internal/models"
	"auctionbook/internal/repositories"
)

// EventPublisher delivers auction lifecycle events to interested consumers.
type EventPublisher interface {
	PublishAuctionEvent(ctx context.Context, event models.AuctionEvent) error
}

// ItemInput is one submitted line item. Price is the unit price.
type ItemInput struct {
	ItemName string
	Quantity int
	Price    decimal.Decimal
}

// AuctionInput carries every writable field of an auction.
type AuctionInput struct {
	PersonName   string
	MobileNumber string
	AuctionDate  models.Date
	Items        []ItemInput
	IsPaid       bool
}

// MonthFilter restricts a listing to one calendar month.
type MonthFilter struct {
	Month int
	Year  int
}

// AuctionService handles business logic related to auctions.
type AuctionService struct {
	repo      repositories.AuctionRepository
	publisher EventPublisher
	clock     func() time.Time
}

// NewAuctionService creates a new AuctionService. publisher may be nil, in
// which case no events are sent.
func NewAuctionService(repo repositories.AuctionRepository, publisher EventPublisher) *AuctionService {
	return &AuctionService{
		repo:      repo,
		publisher: publisher,
		clock:     func() time.Time { return time.Now().UTC() },
	}
}

// CreateAuction validates input, computes the total and stores the auction
// together with its items.
func (s *AuctionService) CreateAuction(ctx context.Context, in AuctionInput) (*models.Auction, error) {
	if err := validateInput(in); err != nil {
		return nil, err
	}

	auction := buildAuction(in)
	auction.CreatedAt = s.clock().Truncate(time.Microsecond)

	if err := s.repo.CreateWithItems(ctx, auction); err != nil {
		logger.Error("failed to create auction", map[string]any{
			"person_name": auction.PersonName,
			"items":       len(auction.Items),
			"error":       err.Error(),
		})
		return nil, fmt.Errorf("service: create auction: %w", err)
	}

	logger.Info("auction created", map[string]any{
		"auction_id":   auction.ID,
		"total_amount": auction.TotalAmount.StringFixed(2),
		"items":        len(auction.Items),
	})
	s.publish(ctx, models.AuctionCreated, *auction)
	return auction, nil
}

// ListAuctions returns every auction, or only those in the filter's month.
func (s *AuctionService) ListAuctions(ctx context.Context, filter *MonthFilter) ([]models.Auction, error) {
	var rng *repositories.DateRange
	if filter != nil {
		if filter.Month < 1 || filter.Month > 12 {
			return nil, apperrors.Validation("invalid month %d: must be between 1 and 12", filter.Month)
		}
		r := repositories.MonthRange(filter.Year, filter.Month)
		rng = &r
	}

	auctions, err := s.repo.List(ctx, rng)
	if err != nil {
		return nil, fmt.Errorf("service: list auctions: %w", err)
	}
	if auctions == nil {
		auctions = []models.Auction{}
	}
	return auctions, nil
}

// GetAuction returns a single auction with its items.
func (s *AuctionService) GetAuction(ctx context.Context, id string) (*models.Auction, error) {
	if strings.TrimSpace(id) == "" {
		return nil, apperrors.Validation("auction ID is required")
	}
	auction, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("service: get auction %s: %w", id, err)
	}
	return auction, nil
}

// MarkPaid flags the auction as paid. Repeating the call is harmless.
func (s *AuctionService) MarkPaid(ctx context.Context, id string) (*models.Auction, error) {
	if strings.TrimSpace(id) == "" {
		return nil, apperrors.Validation("auction ID is required")
	}
	auction, err := s.repo.MarkPaid(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("service: mark auction %s paid: %w", id, err)
	}

	logger.Info("auction marked paid", map[string]any{"auction_id": id})
	s.publish(ctx, models.AuctionPaid, *auction)
	return auction, nil
}

// UpdateAuction replaces every field of the auction and its entire item set.
func (s *AuctionService) UpdateAuction(ctx context.Context, id string, in AuctionInput) (*models.Auction, error) {
	if strings.TrimSpace(id) == "" {
		return nil, apperrors.Validation("auction ID is required")
	}
	if err := validateInput(in); err != nil {
		return nil, err
	}

	auction := buildAuction(in)
	auction.ID = id
	if err := s.repo.ReplaceWithItems(ctx, auction); err != nil {
		logger.Error("failed to update auction", map[string]any{
			"auction_id": id,
			"error":      err.Error(),
		})
		return nil, fmt.Errorf("service: update auction %s: %w", id, err)
	}

	logger.Info("auction updated", map[string]any{
		"auction_id":   id,
		"total_amount": auction.TotalAmount.StringFixed(2),
		"items":        len(auction.Items),
	})
	s.publish(ctx, models.AuctionUpdated, *auction)
	return auction, nil
}

// DeleteAuction removes the auction and all of its items.
func (s *AuctionService) DeleteAuction(ctx context.Context, id string) error {
	if strings.TrimSpace(id) == "" {
		return apperrors.Validation("auction ID is required")
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("service: delete auction %s: %w", id, err)
	}

	logger.Info("auction deleted", map[string]any{"auction_id": id})
	s.publish(ctx, models.AuctionDeleted, models.Auction{ID: id})
	return nil
}

// Ping reports whether the backing store is reachable.
func (s *AuctionService) Ping(ctx context.Context) error {
	return s.repo.Ping(ctx)
}

// ParseMonthFilter turns raw month/year query values into a filter. The
// filter applies only when both values are present.
func ParseMonthFilter(month, year string) (*MonthFilter, error) {
	month, year = strings.TrimSpace(month), strings.TrimSpace(year)
	if month == "" || year == "" {
		return nil, nil
	}
	m, errM := strconv.Atoi(month)
	y, errY := strconv.Atoi(year)
	if errM != nil || errY != nil || m < 1 || m > 12 {
		return nil, apperrors.Validation("invalid month or year")
	}
	return &MonthFilter{Month: m, Year: y}, nil
}

func (s *AuctionService) publish(ctx context.Context, t models.AuctionEventType, auction models.Auction) {
	if s.publisher == nil {
		return
	}
	event := models.NewAuctionEvent(t, auction, s.clock())
	if err := s.publisher.PublishAuctionEvent(ctx, event); err != nil {
		logger.Warn("failed to publish auction event", map[string]any{
			"event":      string(t),
			"auction_id": auction.ID,
			"error":      err.Error(),
		})
	}
}

func validateInput(in AuctionInput) error {
	fields := make(map[string]string)
	if strings.TrimSpace(in.PersonName) == "" {
		fields["personName"] = "personName is required"
	}
	if strings.TrimSpace(in.MobileNumber) == "" {
		fields["mobileNumber"] = "mobileNumber is required"
	}
	if in.AuctionDate.IsZero() {
		fields["auctionDate"] = "auctionDate is required"
	}
	if len(in.Items) == 0 {
		fields["items"] = "at least one item is required"
	}
	for i, item := range in.Items {
		key := fmt.Sprintf("items[%d]", i)
		switch {
		case strings.TrimSpace(item.ItemName) == "":
			fields[key] = "itemName is required"
		case item.Quantity <= 0:
			fields[key] = "quantity must be greater than 0"
		case !item.Price.Round(2).IsPositive():
			fields[key] = "price must be greater than 0"
		}
	}
	if len(fields) > 0 {
		return apperrors.ValidationFields("invalid auction: personName, mobileNumber, auctionDate and at least one valid item are required", fields)
	}
	return nil
}

func buildAuction(in AuctionInput) *models.Auction {
	items := make([]models.AuctionItem, 0, len(in.Items))
	for _, it := range in.Items {
		items = append(items, models.AuctionItem{
			ItemName: strings.TrimSpace(it.ItemName),
			Quantity: it.Quantity,
			Price:    it.Price.Round(2),
		})
	}
	return &models.Auction{
		PersonName:   strings.TrimSpace(in.PersonName),
		MobileNumber: strings.TrimSpace(in.MobileNumber),
		AuctionDate:  in.AuctionDate,
		TotalAmount:  models.ComputeTotal(items),
		IsPaid:       in.IsPaid,
		Items:        items,
	}
}
