package database

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"auctionbook/internal/config"
	"auctionbook/internal/logger"
)

func TestOpenSQLiteMemoryAppliesMigrations(t *testing.T) {
	ctx := context.Background()
	db, err := OpenSQLiteMemory(ctx)
	require.NoError(t, err)
	defer Close(db)

	assert.True(t, db.Migrator().HasTable("auctions"))
	assert.True(t, db.Migrator().HasTable("auction_items"))
	assert.NoError(t, Ping(ctx, db))
}

func TestMigrateIsIdempotent(t *testing.T) {
	ctx := context.Background()
	db, err := OpenSQLiteMemory(ctx)
	require.NoError(t, err)
	defer Close(db)

	assert.NoError(t, Migrate(ctx, db, config.DriverSQLite))
}

func TestOpenRejectsMemoryDriver(t *testing.T) {
	_, err := Open(config.DBConfig{Driver: config.DriverMemory})
	assert.Error(t, err)
}

func TestGormLoggerWritesThroughLogrus(t *testing.T) {
	var buf bytes.Buffer
	logger.SetOutput(&buf)
	defer logger.SetOutput(nil)

	ctx := context.Background()
	gl := newGormLogger()
	gl.Info(ctx, "connected to %s", "sqlite")
	assert.Empty(t, buf.String(), "info is below the gorm log level")

	gl.Error(ctx, "insert failed: %s", "constraint")
	assert.Contains(t, buf.String(), "insert failed: constraint")
}
