package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/retailops/ledgersync/internal/domain/catalog"
	"github.com/retailops/ledgersync/internal/domain/shared"
	"github.com/retailops/ledgersync/internal/infrastructure/persistence/models"
)

// GormProductRepository implements catalog.ProductRepository using GORM
type GormProductRepository struct {
	db *gorm.DB
}

// NewGormProductRepository creates a new GORM-based product repository
func NewGormProductRepository(db *gorm.DB) *GormProductRepository {
	return &GormProductRepository{db: db}
}

// FindByID retrieves a product with its variants
func (r *GormProductRepository) FindByID(ctx context.Context, id uuid.UUID) (*catalog.Product, error) {
	var model models.ProductModel
	err := r.db.WithContext(ctx).
		Preload("Variants").
		Where("id = ?", id).
		First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindAllWithVariants returns the full catalog for reconciliation matching
func (r *GormProductRepository) FindAllWithVariants(ctx context.Context) ([]*catalog.Product, error) {
	var rows []models.ProductModel
	err := r.db.WithContext(ctx).
		Preload("Variants").
		Order("created_at ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}

	products := make([]*catalog.Product, len(rows))
	for i, row := range rows {
		products[i] = row.ToDomain()
	}
	return products, nil
}

// UpdateStock writes the reconciled quantity for a stock bucket. A zero
// variant ID targets the base product row.
func (r *GormProductRepository) UpdateStock(ctx context.Context, key catalog.StockKey, qty decimal.Decimal) error {
	now := time.Now()

	if key.VariantID == uuid.Nil {
		result := r.db.WithContext(ctx).Model(&models.ProductModel{}).
			Where("id = ?", key.ProductID).
			Updates(map[string]interface{}{
				"stock":      qty,
				"updated_at": now,
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return shared.ErrNotFound
		}
		return nil
	}

	result := r.db.WithContext(ctx).Model(&models.VariantModel{}).
		Where("id = ? AND product_id = ?", key.VariantID, key.ProductID).
		Update("stock", qty)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

var _ catalog.ProductRepository = (*GormProductRepository)(nil)
