package repositories

import (
	"context"
	"database/sql/driver"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"auctionbook/internal/apperrors"
	"auctionbook/internal/models"
)

// GORMAuctionRepository is a GORM implementation of AuctionRepository.
type GORMAuctionRepository struct {
	db *gorm.DB
}

// NewGORMAuctionRepository creates a new instance of GORMAuctionRepository.
func NewGORMAuctionRepository(db *gorm.DB) *GORMAuctionRepository {
	return &GORMAuctionRepository{
		db: db,
	}
}

func preloadItems(db *gorm.DB) *gorm.DB {
	return db.Order("position ASC")
}

// List retrieves auctions with their items.
func (r *GORMAuctionRepository) List(ctx context.Context, rng *DateRange) ([]models.Auction, error) {
	q := r.db.WithContext(ctx).
		Preload("Items", preloadItems).
		Order("auction_date DESC").
		Order("created_at DESC")
	if rng != nil {
		q = q.Where("auction_date >= ? AND auction_date < ?", rng.From, rng.To)
	}

	var auctions []models.Auction
	if err := q.Find(&auctions).Error; err != nil {
		return nil, classify(err, "failed to list auctions")
	}
	return auctions, nil
}

// GetByID retrieves a single auction with its items.
func (r *GORMAuctionRepository) GetByID(ctx context.Context, id string) (*models.Auction, error) {
	return r.getByID(r.db.WithContext(ctx), id)
}

func (r *GORMAuctionRepository) getByID(db *gorm.DB, id string) (*models.Auction, error) {
	var auction models.Auction
	if err := db.Preload("Items", preloadItems).First(&auction, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("auction with ID %s not found", id)
		}
		return nil, classify(err, fmt.Sprintf("failed to get auction by ID %s", id))
	}
	return &auction, nil
}

// CreateWithItems inserts the auction row and all item rows in one transaction.
func (r *GORMAuctionRepository) CreateWithItems(ctx context.Context, auction *models.Auction) error {
	if auction.ID == "" {
		auction.ID = uuid.New().String()
	}
	if auction.CreatedAt.IsZero() {
		auction.CreatedAt = now()
	}
	prepareItems(auction.ID, auction.Items)

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Create(auction).Error; err != nil {
			return classify(err, "failed to create auction")
		}
		if len(auction.Items) == 0 {
			return nil
		}
		if err := tx.Create(&auction.Items).Error; err != nil {
			return apperrors.PartialWrite(err, "failed to create items for auction %s", auction.ID)
		}
		return nil
	})
}

// ReplaceWithItems updates the auction row, deletes its items and inserts
// the new item set, all in one transaction.
func (r *GORMAuctionRepository) ReplaceWithItems(ctx context.Context, auction *models.Auction) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing models.Auction
		if err := tx.First(&existing, "id = ?", auction.ID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperrors.NotFound("auction with ID %s not found for update", auction.ID)
			}
			return classify(err, fmt.Sprintf("failed to load auction %s", auction.ID))
		}

		err := tx.Model(&models.Auction{}).Where("id = ?", auction.ID).Updates(map[string]any{
			"person_name":   auction.PersonName,
			"mobile_number": auction.MobileNumber,
			"auction_date":  auction.AuctionDate,
			"total_amount":  auction.TotalAmount,
			"is_paid":       auction.IsPaid,
		}).Error
		if err != nil {
			return classify(err, fmt.Sprintf("failed to update auction %s", auction.ID))
		}

		if err := tx.Where("auction_id = ?", auction.ID).Delete(&models.AuctionItem{}).Error; err != nil {
			return apperrors.PartialWrite(err, "failed to remove old items of auction %s", auction.ID)
		}

		for i := range auction.Items {
			auction.Items[i].ID = ""
		}
		prepareItems(auction.ID, auction.Items)
		if len(auction.Items) > 0 {
			if err := tx.Create(&auction.Items).Error; err != nil {
				return apperrors.PartialWrite(err, "failed to insert new items of auction %s", auction.ID)
			}
		}

		auction.CreatedAt = existing.CreatedAt
		return nil
	})
}

// MarkPaid sets the paid flag. Marking an already paid auction succeeds.
func (r *GORMAuctionRepository) MarkPaid(ctx context.Context, id string) (*models.Auction, error) {
	var updated *models.Auction
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		current, err := r.getByID(tx, id)
		if err != nil {
			return err
		}
		if !current.IsPaid {
			if err := tx.Model(&models.Auction{}).Where("id = ?", id).Update("is_paid", true).Error; err != nil {
				return classify(err, fmt.Sprintf("failed to mark auction %s as paid", id))
			}
			current.IsPaid = true
		}
		updated = current
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// Delete removes the items first, then the auction row.
func (r *GORMAuctionRepository) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("auction_id = ?", id).Delete(&models.AuctionItem{}).Error; err != nil {
			return classify(err, fmt.Sprintf("failed to delete items of auction %s", id))
		}
		res := tx.Delete(&models.Auction{}, "id = ?", id)
		if res.Error != nil {
			return classify(res.Error, fmt.Sprintf("failed to delete auction %s", id))
		}
		if res.RowsAffected == 0 {
			return apperrors.NotFound("auction with ID %s not found for deletion", id)
		}
		return nil
	})
}

// Ping verifies the database is reachable.
func (r *GORMAuctionRepository) Ping(ctx context.Context) error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		return apperrors.TransientIO(err, "database unreachable")
	}
	return nil
}

// classify wraps err, marking connectivity failures as transient.
func classify(err error, message string) error {
	if apperrors.As(err) != nil {
		return err
	}
	var netErr net.Error
	switch {
	case errors.Is(err, driver.ErrBadConn),
		errors.Is(err, context.DeadlineExceeded),
		errors.As(err, &netErr):
		return apperrors.TransientIO(err, "%s", message)
	}
	return fmt.Errorf("%s: %w", message, err)
}

func now() time.Time {
	return time.Now().UTC().Truncate(time.Microsecond)
}
