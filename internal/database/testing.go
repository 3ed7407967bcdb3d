package database

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"auctionbook/internal/config"
)

// OpenSQLiteMemory opens a private, migrated in-memory sqlite database.
// Each call gets its own database so tests do not share rows.
func OpenSQLiteMemory(ctx context.Context) (*gorm.DB, error) {
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_foreign_keys=on", uuid.NewString())
	db, err := Open(config.DBConfig{Driver: config.DriverSQLite, DSN: dsn})
	if err != nil {
		return nil, err
	}
	if err := Migrate(ctx, db, config.DriverSQLite); err != nil {
		return nil, err
	}
	return db, nil
}
