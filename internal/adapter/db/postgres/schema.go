package postgres

import (
	"fmt"

	"gorm.io/gorm"
)

// AutoMigrate creates or updates the tables from the GORM schemas. The
// service itself applies the versioned SQL in internal/adapter/db/migrations;
// this is used for throwaway databases.
func AutoMigrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&UserSchema{}, &BookSchema{}, &ReviewSchema{}); err != nil {
		return fmt.Errorf("failed to auto-migrate schema: %w", err)
	}
	return nil
}
