package repositories_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"auctionbook/internal/apperrors"
	"auctionbook/internal/database"
	"auctionbook/internal/models"
	"auctionbook/internal/repositories"
)

func newAuction(name string, date models.Date, items ...models.AuctionItem) *models.Auction {
	a := &models.Auction{
		PersonName:   name,
		MobileNumber: "9999999999",
		AuctionDate:  date,
		Items:        items,
	}
	a.TotalAmount = models.ComputeTotal(a.Items)
	return a
}

func item(name string, qty int, price string) models.AuctionItem {
	return models.AuctionItem{ItemName: name, Quantity: qty, Price: decimal.RequireFromString(price)}
}

// repositoryFactories runs every contract test against each implementation.
func repositoryFactories(t *testing.T) map[string]func() repositories.AuctionRepository {
	return map[string]func() repositories.AuctionRepository{
		"gorm_sqlite": func() repositories.AuctionRepository {
			db, err := database.OpenSQLiteMemory(context.Background())
			require.NoError(t, err)
			t.Cleanup(func() { _ = database.Close(db) })
			return repositories.NewGORMAuctionRepository(db)
		},
		"memory": func() repositories.AuctionRepository {
			return repositories.NewMemoryAuctionRepository()
		},
	}
}

func TestAuctionRepository_CreateAndGet(t *testing.T) {
	for name, factory := range repositoryFactories(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			repo := factory()

			a := newAuction("Asha", models.NewDate(2024, time.March, 10),
				item("Chair", 2, "100"), item("Lamp", 1, "45.50"))
			require.NoError(t, repo.CreateWithItems(ctx, a))
			require.NotEmpty(t, a.ID)
			require.False(t, a.CreatedAt.IsZero())

			got, err := repo.GetByID(ctx, a.ID)
			require.NoError(t, err)
			assert.Equal(t, "Asha", got.PersonName)
			assert.Equal(t, "2024-03-10", got.AuctionDate.String())
			assert.Equal(t, "245.50", got.TotalAmount.StringFixed(2))
			require.Len(t, got.Items, 2)
			assert.Equal(t, "Chair", got.Items[0].ItemName)
			assert.Equal(t, "Lamp", got.Items[1].ItemName)
			assert.Equal(t, a.ID, got.Items[0].AuctionID)
			assert.True(t, got.Items[1].Price.Equal(decimal.RequireFromString("45.50")))
		})
	}
}

func TestAuctionRepository_GetMissing(t *testing.T) {
	for name, factory := range repositoryFactories(t) {
		t.Run(name, func(t *testing.T) {
			_, err := factory().GetByID(context.Background(), "missing")
			assert.True(t, apperrors.IsNotFound(err))
		})
	}
}

func TestAuctionRepository_ListOrderingAndRange(t *testing.T) {
	for name, factory := range repositoryFactories(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			repo := factory()

			base := time.Date(2024, time.March, 1, 9, 0, 0, 0, time.UTC)
			fixtures := []struct {
				name    string
				date    models.Date
				created time.Time
			}{
				{"feb", models.NewDate(2024, time.February, 28), base},
				{"mar-early", models.NewDate(2024, time.March, 1), base.Add(time.Minute)},
				{"mar-late-old", models.NewDate(2024, time.March, 31), base.Add(2 * time.Minute)},
				{"mar-late-new", models.NewDate(2024, time.March, 31), base.Add(3 * time.Minute)},
				{"apr", models.NewDate(2024, time.April, 1), base.Add(4 * time.Minute)},
			}
			for _, f := range fixtures {
				a := newAuction(f.name, f.date, item("x", 1, "1"))
				a.CreatedAt = f.created
				require.NoError(t, repo.CreateWithItems(ctx, a))
			}

			all, err := repo.List(ctx, nil)
			require.NoError(t, err)
			assert.Equal(t, []string{"apr", "mar-late-new", "mar-late-old", "mar-early", "feb"}, names(all))

			rng := repositories.MonthRange(2024, 3)
			march, err := repo.List(ctx, &rng)
			require.NoError(t, err)
			assert.Equal(t, []string{"mar-late-new", "mar-late-old", "mar-early"}, names(march))
			for _, a := range march {
				assert.Len(t, a.Items, 1)
			}
		})
	}
}

func TestAuctionRepository_ReplaceWithItems(t *testing.T) {
	for name, factory := range repositoryFactories(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			repo := factory()

			a := newAuction("Ben", models.NewDate(2024, time.January, 5),
				item("Old1", 1, "10"), item("Old2", 2, "20"), item("Old3", 3, "30"))
			require.NoError(t, repo.CreateWithItems(ctx, a))
			createdAt := a.CreatedAt

			replacement := newAuction("Ben K", models.NewDate(2024, time.January, 6), item("New", 4, "2.25"))
			replacement.ID = a.ID
			replacement.IsPaid = true
			require.NoError(t, repo.ReplaceWithItems(ctx, replacement))

			got, err := repo.GetByID(ctx, a.ID)
			require.NoError(t, err)
			assert.Equal(t, "Ben K", got.PersonName)
			assert.Equal(t, "2024-01-06", got.AuctionDate.String())
			assert.True(t, got.IsPaid)
			assert.Equal(t, "9.00", got.TotalAmount.StringFixed(2))
			assert.True(t, createdAt.Equal(got.CreatedAt))
			require.Len(t, got.Items, 1)
			assert.Equal(t, "New", got.Items[0].ItemName)
			assert.Equal(t, 4, got.Items[0].Quantity)
		})
	}
}

func TestAuctionRepository_ReplaceMissing(t *testing.T) {
	for name, factory := range repositoryFactories(t) {
		t.Run(name, func(t *testing.T) {
			a := newAuction("Ghost", models.NewDate(2024, time.January, 5), item("x", 1, "1"))
			a.ID = "does-not-exist"
			err := factory().ReplaceWithItems(context.Background(), a)
			assert.True(t, apperrors.IsNotFound(err))
		})
	}
}

func TestAuctionRepository_MarkPaid(t *testing.T) {
	for name, factory := range repositoryFactories(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			repo := factory()

			a := newAuction("Cara", models.NewDate(2024, time.May, 2), item("Vase", 1, "80"))
			require.NoError(t, repo.CreateWithItems(ctx, a))

			paid, err := repo.MarkPaid(ctx, a.ID)
			require.NoError(t, err)
			assert.True(t, paid.IsPaid)
			assert.Equal(t, "Cara", paid.PersonName)
			assert.Equal(t, "80.00", paid.TotalAmount.StringFixed(2))
			assert.Len(t, paid.Items, 1)

			again, err := repo.MarkPaid(ctx, a.ID)
			require.NoError(t, err)
			assert.True(t, again.IsPaid)

			_, err = repo.MarkPaid(ctx, "missing")
			assert.True(t, apperrors.IsNotFound(err))
		})
	}
}

func TestAuctionRepository_Delete(t *testing.T) {
	for name, factory := range repositoryFactories(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			repo := factory()

			keep := newAuction("Keep", models.NewDate(2024, time.June, 1), item("a", 1, "1"))
			drop := newAuction("Drop", models.NewDate(2024, time.June, 2), item("b", 1, "1"), item("c", 1, "1"))
			require.NoError(t, repo.CreateWithItems(ctx, keep))
			require.NoError(t, repo.CreateWithItems(ctx, drop))

			require.NoError(t, repo.Delete(ctx, drop.ID))

			all, err := repo.List(ctx, nil)
			require.NoError(t, err)
			assert.Equal(t, []string{"Keep"}, names(all))

			_, err = repo.GetByID(ctx, drop.ID)
			assert.True(t, apperrors.IsNotFound(err))

			err = repo.Delete(ctx, drop.ID)
			assert.True(t, apperrors.IsNotFound(err))
		})
	}
}

func TestGORMAuctionRepository_DeleteRemovesItemRows(t *testing.T) {
	ctx := context.Background()
	db, err := database.OpenSQLiteMemory(ctx)
	require.NoError(t, err)
	defer database.Close(db)
	repo := repositories.NewGORMAuctionRepository(db)

	a := newAuction("Dev", models.NewDate(2024, time.July, 7), item("a", 1, "1"), item("b", 2, "2"))
	require.NoError(t, repo.CreateWithItems(ctx, a))
	require.NoError(t, repo.Delete(ctx, a.ID))

	var count int64
	require.NoError(t, db.Model(&models.AuctionItem{}).Where("auction_id = ?", a.ID).Count(&count).Error)
	assert.Zero(t, count)
}

func TestGORMAuctionRepository_CreateRollsBackOnItemFailure(t *testing.T) {
	ctx := context.Background()
	db, err := database.OpenSQLiteMemory(ctx)
	require.NoError(t, err)
	defer database.Close(db)
	repo := repositories.NewGORMAuctionRepository(db)

	// quantity has a CHECK (quantity > 0) constraint, so the item insert fails
	// after the auction row was written inside the transaction.
	a := newAuction("Eve", models.NewDate(2024, time.August, 8), item("bad", 0, "5"))
	err = repo.CreateWithItems(ctx, a)
	require.Error(t, err)
	assert.True(t, apperrors.IsPartialWrite(err))

	var count int64
	require.NoError(t, db.Model(&models.Auction{}).Count(&count).Error)
	assert.Zero(t, count, "auction row must not survive a failed item insert")
}

func TestAuctionRepository_Ping(t *testing.T) {
	for name, factory := range repositoryFactories(t) {
		t.Run(name, func(t *testing.T) {
			assert.NoError(t, factory().Ping(context.Background()))
		})
	}
}

func TestMonthRange(t *testing.T) {
	rng := repositories.MonthRange(2024, 12)
	assert.Equal(t, "2024-12-01", rng.From.String())
	assert.Equal(t, "2025-01-01", rng.To.String())
	assert.True(t, rng.Contains(models.NewDate(2024, time.December, 31)))
	assert.False(t, rng.Contains(models.NewDate(2025, time.January, 1)))
	assert.False(t, rng.Contains(models.NewDate(2024, time.November, 30)))
}

func names(auctions []models.Auction) []string {
	out := make([]string, 0, len(auctions))
	for _, a := range auctions {
		out = append(out, a.PersonName)
	}
	return out
}
