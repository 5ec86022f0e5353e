package initializers

import (
	"fmt"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/trustmod/registry/config"
	"github.com/trustmod/registry/db/models"
)

var DB *gorm.DB

// InitDatabase connects to Postgres and migrates the registry tables.
// TranslateError turns unique-index violations into gorm.ErrDuplicatedKey
// so commit-time name races surface as duplicates, not raw driver errors.
func InitDatabase() error {
	db, err := gorm.Open(postgres.Open(config.Database.DSN), &gorm.Config{
		TranslateError: true,
	})
	if err != nil {
		return fmt.Errorf("connecting to postgres: %w", err)
	}

	if err := Migrate(db); err != nil {
		return err
	}

	DB = db
	return nil
}

// Migrate is separated out so tests can run the same migrations against
// their own database handle.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&models.Package{},
		&models.PackageRating{},
		&models.PackageHistoryEntry{},
	); err != nil {
		return fmt.Errorf("migrating registry tables: %w", err)
	}
	return nil
}
