package repositories

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/trustmod/registry/db/models"
	"github.com/trustmod/registry/initializers"
)

type PackageRepository struct {
	db *gorm.DB
}

var PackageRepo *PackageRepository

func InitPackageRepository() {
	if initializers.DB == nil {
		panic("InitPackageRepository: database is nil; ensure InitDatabase succeeded")
	}
	PackageRepo = NewPackageRepository(initializers.DB)
	fmt.Println("Package Repository initialized")
}

func NewPackageRepository(db *gorm.DB) *PackageRepository {
	return &PackageRepository{db: db}
}

func (r *PackageRepository) FindByID(ctx context.Context, id string) (models.Package, error) {
	var pkg models.Package
	result := r.db.WithContext(ctx).First(&pkg, "id = ?", id)
	return pkg, result.Error
}

func (r *PackageRepository) FindByName(ctx context.Context, name string) (models.Package, error) {
	var pkg models.Package
	result := r.db.WithContext(ctx).First(&pkg, "name = ?", name)
	return pkg, result.Error
}

func (r *PackageRepository) FindByURL(ctx context.Context, url string) (models.Package, error) {
	var pkg models.Package
	result := r.db.WithContext(ctx).First(&pkg, "url = ?", url)
	return pkg, result.Error
}

func (r *PackageRepository) FindByContentDigest(ctx context.Context, digest string) (models.Package, error) {
	var pkg models.Package
	result := r.db.WithContext(ctx).First(&pkg, "content_digest = ?", digest)
	return pkg, result.Error
}

// CreateWithRating persists the package and its rating as one unit.
// Readers never observe a package without its rating.
func (r *PackageRepository) CreateWithRating(ctx context.Context, pkg *models.Package, rating *models.PackageRating) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(pkg).Error; err != nil {
			return err
		}
		return tx.Create(rating).Error
	})
}

func (r *PackageRepository) UpdateContent(ctx context.Context, id, contentRef, digest string) error {
	result := r.db.WithContext(ctx).Model(&models.Package{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"content_ref":    contentRef,
			"content_digest": digest,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// DeleteWithRating removes the package record and its rating. History
// entries stay: the ledger is append-only.
func (r *PackageRepository) DeleteWithRating(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Delete(&models.PackageRating{}, "package_id = ?", id).Error; err != nil {
			return err
		}
		result := tx.Delete(&models.Package{}, "id = ?", id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}

func (r *PackageRepository) Count(ctx context.Context) (int64, error) {
	var total int64
	result := r.db.WithContext(ctx).Model(&models.Package{}).Count(&total)
	return total, result.Error
}
