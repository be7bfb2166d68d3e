package trade

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// StockEntryLine is one received line of a purchase / stock entry
type StockEntryLine struct {
	ID           uuid.UUID
	StockEntryID uuid.UUID
	ProductID    *uuid.UUID
	VariantID    *uuid.UUID
	Title        string
	Model        string
	VariantName  string
	SKU          string
	UnitName     string
	Quantity     decimal.Decimal
	Rate         decimal.Decimal
}

// ItemName builds the ledger-system stock item name from the line's snapshot
// of the catalog fields, following the catalog.StockItemName rule.
func (l *StockEntryLine) ItemName() string {
	name := l.Title
	if l.Model != "" {
		name += " (" + l.Model + ")"
	}
	if l.VariantName != "" {
		name += " (" + l.VariantName + ")"
	}
	return name
}

// StockEntry records inbound stock from a supplier. Its ledger counterpart is
// a purchase voucher against the supplier ledger.
type StockEntry struct {
	ID          uuid.UUID
	EntryNumber string
	Cancelled   bool

	SupplierID    uuid.UUID
	SupplierName  string
	SupplierPhone string

	Lines      []StockEntryLine
	GrandTotal decimal.Decimal

	LedgerSyncStatus LedgerSyncStatus
	LedgerErrorLog   string
	LedgerVoucherRef string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// DistinctUnits returns the distinct units of measure used across lines
func (e *StockEntry) DistinctUnits() []string {
	seen := make(map[string]struct{}, len(e.Lines))
	units := make([]string, 0, len(e.Lines))
	for _, line := range e.Lines {
		if line.UnitName == "" {
			continue
		}
		if _, ok := seen[line.UnitName]; ok {
			continue
		}
		seen[line.UnitName] = struct{}{}
		units = append(units, line.UnitName)
	}
	return units
}

// StockEntryRepository defines read access plus the ledger-status write surface
type StockEntryRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*StockEntry, error)
	UpdateLedgerStatus(ctx context.Context, id uuid.UUID, status LedgerSyncStatus, errLog, voucherRef string) error
}

// ProcurementRequest is an on-demand customer request for an item not held in
// stock. Its ledger counterpart is a non-accounting memorandum voucher that
// records intent without touching the books.
type ProcurementRequest struct {
	ID            uuid.UUID
	RequestNumber string
	Cancelled     bool

	CustomerID   uuid.UUID
	CustomerName string

	Description string
	Quantity    decimal.Decimal
	UnitName    string

	LedgerSyncStatus LedgerSyncStatus
	LedgerErrorLog   string
	LedgerVoucherRef string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// ProcurementRequestRepository defines read access plus the ledger-status
// write surface
type ProcurementRequestRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*ProcurementRequest, error)
	UpdateLedgerStatus(ctx context.Context, id uuid.UUID, status LedgerSyncStatus, errLog, voucherRef string) error
}
