package catalog

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Unit is a unit of measure (pcs, box, kg). The ledger system requires unit
// masters before it will accept stock items or vouchers referencing them.
type Unit struct {
	ID     uuid.UUID
	Name   string
	Symbol string
}

// Variant is a sellable variation of a base product
type Variant struct {
	ID        uuid.UUID
	ProductID uuid.UUID
	Name      string
	SKU       string
	Stock     decimal.Decimal
}

// Product is a catalog product. The sync subsystem reads products and writes
// back only the stock quantity during reconciliation.
type Product struct {
	ID    uuid.UUID
	Title string
	// Model distinguishes products sharing a title (e.g. hardware revisions)
	Model    string
	SKU      string
	UnitName string
	Stock    decimal.Decimal
	Variants []Variant

	CreatedAt time.Time
	UpdatedAt time.Time
}

// StockItemName builds the ledger-system stock item name for a product and
// optional variant. This is the single construction rule shared by stock-item
// master generation and reconciliation matching; the two sides must never
// diverge or reconciliation will silently corrupt stock. variant may be nil
// for products without variants.
func StockItemName(p *Product, v *Variant) string {
	name := p.Title
	if p.Model != "" {
		name = fmt.Sprintf("%s (%s)", name, p.Model)
	}
	if v != nil && v.Name != "" {
		name = fmt.Sprintf("%s (%s)", name, v.Name)
	}
	return name
}

// StockKey identifies a product-or-variant stock bucket
type StockKey struct {
	ProductID uuid.UUID
	// VariantID is the zero UUID for the base product bucket
	VariantID uuid.UUID
}

// Key returns the stock bucket for a product and optional variant
func Key(productID uuid.UUID, variantID *uuid.UUID) StockKey {
	k := StockKey{ProductID: productID}
	if variantID != nil {
		k.VariantID = *variantID
	}
	return k
}

// ProductRepository defines catalog read access plus the stock write surface
// used by reconciliation.
type ProductRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Product, error)

	// FindAllWithVariants returns the full catalog for reconciliation matching
	FindAllWithVariants(ctx context.Context) ([]*Product, error)

	// UpdateStock writes the reconciled quantity for a stock bucket. A zero
	// variant ID targets the base product.
	UpdateStock(ctx context.Context, key StockKey, qty decimal.Decimal) error
}
