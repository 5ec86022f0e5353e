package repositories

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/trustmod/registry/db/models"
	"github.com/trustmod/registry/initializers"
)

type HistoryRepository struct {
	db *gorm.DB
}

var HistoryRepo *HistoryRepository

func InitHistoryRepository() {
	if initializers.DB == nil {
		panic("InitHistoryRepository: database is nil; ensure InitDatabase succeeded")
	}
	HistoryRepo = NewHistoryRepository(initializers.DB)
	fmt.Println("History Repository initialized")
}

func NewHistoryRepository(db *gorm.DB) *HistoryRepository {
	return &HistoryRepository{db: db}
}

func (r *HistoryRepository) Append(ctx context.Context, entry *models.PackageHistoryEntry) error {
	return r.db.WithContext(ctx).Create(entry).Error
}

// ListByName returns entries in insertion order.
func (r *HistoryRepository) ListByName(ctx context.Context, name string) ([]models.PackageHistoryEntry, error) {
	var entries []models.PackageHistoryEntry
	result := r.db.WithContext(ctx).Where("name = ?", name).Order("id").Find(&entries)
	return entries, result.Error
}
