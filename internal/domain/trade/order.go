package trade

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// LedgerSyncStatus tracks how far a business transaction's voucher has
// travelled towards the ledger system. It reflects the most recent dispatch
// or queue outcome for the transaction's voucher job only; prerequisite
// master-data jobs never touch it.
type LedgerSyncStatus string

const (
	// LedgerSyncPending means no dispatch has been attempted yet
	LedgerSyncPending LedgerSyncStatus = "PENDING"
	// LedgerSyncQueued means the voucher sits in the sync queue awaiting retry
	LedgerSyncQueued LedgerSyncStatus = "QUEUED"
	// LedgerSyncSaved means the ledger system acknowledged the voucher
	LedgerSyncSaved LedgerSyncStatus = "SAVED"
	// LedgerSyncFailed means retries were exhausted; operator attention needed
	LedgerSyncFailed LedgerSyncStatus = "FAILED"
)

// IsValid returns true if the status is a known status
func (s LedgerSyncStatus) IsValid() bool {
	switch s {
	case LedgerSyncPending, LedgerSyncQueued, LedgerSyncSaved, LedgerSyncFailed:
		return true
	default:
		return false
	}
}

// OrderStatus represents the order's own workflow state
type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "PENDING"
	OrderStatusConfirmed OrderStatus = "CONFIRMED"
	OrderStatusShipped   OrderStatus = "SHIPPED"
	OrderStatusCompleted OrderStatus = "COMPLETED"
	OrderStatusCancelled OrderStatus = "CANCELLED"
)

// OrderLine is one line item of a customer order
type OrderLine struct {
	ID        uuid.UUID
	OrderID   uuid.UUID
	ProductID *uuid.UUID
	VariantID *uuid.UUID
	// Title, Model and VariantName mirror the catalog fields at order time
	Title       string
	Model       string
	VariantName string
	SKU         string
	UnitName    string
	Quantity    decimal.Decimal
	Rate        decimal.Decimal
}

// ItemName builds the ledger-system stock item name from the line's snapshot
// of the catalog fields. Must follow the same construction rule as
// catalog.StockItemName or voucher lines will reference items that do not
// exist remotely.
func (l *OrderLine) ItemName() string {
	name := l.Title
	if l.Model != "" {
		name += " (" + l.Model + ")"
	}
	if l.VariantName != "" {
		name += " (" + l.VariantName + ")"
	}
	return name
}

// TaxLine is one itemized tax head applied to an order
type TaxLine struct {
	Name   string
	Rate   decimal.Decimal
	Amount decimal.Decimal
}

// Order is a customer order on the web platform. The sync subsystem reads it
// and writes back only the ledger sync fields.
type Order struct {
	ID          uuid.UUID
	OrderNumber string
	Status      OrderStatus

	CustomerID    uuid.UUID
	CustomerName  string
	CustomerPhone string

	Lines          []OrderLine
	TaxLines       []TaxLine
	RoundingAmount decimal.Decimal
	GrandTotal     decimal.Decimal

	LedgerSyncStatus LedgerSyncStatus
	LedgerErrorLog   string
	LedgerVoucherRef string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// IsCancelled returns true for cancelled orders
func (o *Order) IsCancelled() bool {
	return o.Status == OrderStatusCancelled
}

// DistinctUnits returns the distinct units of measure used across line items,
// in first-seen order. Unit masters must exist remotely before any stock item
// or voucher referencing them.
func (o *Order) DistinctUnits() []string {
	seen := make(map[string]struct{}, len(o.Lines))
	units := make([]string, 0, len(o.Lines))
	for _, line := range o.Lines {
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

// OrderRepository defines read access to orders plus the narrow ledger-status
// write surface the sync subsystem is allowed to touch.
type OrderRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Order, error)

	// FindUnacknowledged returns orders the ledger system does not know about
	// yet: voucher not saved and order not cancelled. The reconciler subtracts
	// their demand from remote balances.
	FindUnacknowledged(ctx context.Context) ([]*Order, error)

	// UpdateLedgerStatus writes the sync status side effects. voucherRef is
	// only recorded on a saved outcome and may be empty.
	UpdateLedgerStatus(ctx context.Context, id uuid.UUID, status LedgerSyncStatus, errLog, voucherRef string) error
}
