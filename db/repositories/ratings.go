package repositories

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/trustmod/registry/db/models"
	"github.com/trustmod/registry/initializers"
)

type RatingRepository struct {
	db *gorm.DB
}

var RatingRepo *RatingRepository

func InitRatingRepository() {
	if initializers.DB == nil {
		panic("InitRatingRepository: database is nil; ensure InitDatabase succeeded")
	}
	RatingRepo = NewRatingRepository(initializers.DB)
	fmt.Println("Rating Repository initialized")
}

func NewRatingRepository(db *gorm.DB) *RatingRepository {
	return &RatingRepository{db: db}
}

func (r *RatingRepository) GetByPackageID(ctx context.Context, packageID string) (models.PackageRating, error) {
	var rating models.PackageRating
	result := r.db.WithContext(ctx).First(&rating, "package_id = ?", packageID)
	return rating, result.Error
}
