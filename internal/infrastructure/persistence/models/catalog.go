package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/retailops/ledgersync/internal/domain/catalog"
)

// UnitModel is the persistence model for units of measure
type UnitModel struct {
	ID     uuid.UUID `gorm:"type:uuid;primaryKey"`
	Name   string    `gorm:"type:varchar(50);not null;uniqueIndex"`
	Symbol string    `gorm:"type:varchar(20)"`
}

// TableName returns the table name for GORM
func (UnitModel) TableName() string {
	return "units"
}

// ProductModel is the persistence model for catalog products
type ProductModel struct {
	ID       uuid.UUID       `gorm:"type:uuid;primaryKey"`
	Title    string          `gorm:"type:varchar(255);not null"`
	Model    string          `gorm:"type:varchar(100)"`
	SKU      string          `gorm:"type:varchar(100);index"`
	UnitName string          `gorm:"type:varchar(50)"`
	Stock    decimal.Decimal `gorm:"type:decimal(12,3);not null;default:0"`

	Variants []VariantModel `gorm:"foreignKey:ProductID"`

	CreatedAt time.Time `gorm:"not null;default:now()"`
	UpdatedAt time.Time `gorm:"not null;default:now()"`
}

// TableName returns the table name for GORM
func (ProductModel) TableName() string {
	return "products"
}

// VariantModel is the persistence model for product variants
type VariantModel struct {
	ID        uuid.UUID       `gorm:"type:uuid;primaryKey"`
	ProductID uuid.UUID       `gorm:"type:uuid;not null;index"`
	Name      string          `gorm:"type:varchar(100);not null"`
	SKU       string          `gorm:"type:varchar(100);index"`
	Stock     decimal.Decimal `gorm:"type:decimal(12,3);not null;default:0"`
}

// TableName returns the table name for GORM
func (VariantModel) TableName() string {
	return "product_variants"
}

// ToDomain converts the persistence model to a domain Product
func (m *ProductModel) ToDomain() *catalog.Product {
	variants := make([]catalog.Variant, len(m.Variants))
	for i, v := range m.Variants {
		variants[i] = catalog.Variant{
			ID:        v.ID,
			ProductID: v.ProductID,
			Name:      v.Name,
			SKU:       v.SKU,
			Stock:     v.Stock,
		}
	}
	return &catalog.Product{
		ID:        m.ID,
		Title:     m.Title,
		Model:     m.Model,
		SKU:       m.SKU,
		UnitName:  m.UnitName,
		Stock:     m.Stock,
		Variants:  variants,
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}
}
