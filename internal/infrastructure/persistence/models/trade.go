package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/retailops/ledgersync/internal/domain/trade"
)

// OrderModel is the persistence model for customer orders
type OrderModel struct {
	ID          uuid.UUID         `gorm:"type:uuid;primaryKey"`
	OrderNumber string            `gorm:"type:varchar(50);not null;uniqueIndex"`
	Status      trade.OrderStatus `gorm:"type:varchar(20);not null;default:PENDING"`

	CustomerID    uuid.UUID `gorm:"type:uuid;not null;index"`
	CustomerName  string    `gorm:"type:varchar(255);not null"`
	CustomerPhone string    `gorm:"type:varchar(30)"`

	RoundingAmount decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0"`
	GrandTotal     decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0"`
	TaxLines       []TaxLineModel  `gorm:"foreignKey:OrderID"`

	LedgerSyncStatus trade.LedgerSyncStatus `gorm:"type:varchar(20);not null;default:PENDING;index"`
	LedgerErrorLog   string                 `gorm:"type:text"`
	LedgerVoucherRef string                 `gorm:"type:varchar(50)"`

	Lines []OrderLineModel `gorm:"foreignKey:OrderID"`

	CreatedAt time.Time `gorm:"not null;default:now()"`
	UpdatedAt time.Time `gorm:"not null;default:now()"`
}

// TableName returns the table name for GORM
func (OrderModel) TableName() string {
	return "orders"
}

// OrderLineModel is the persistence model for order line items
type OrderLineModel struct {
	ID        uuid.UUID  `gorm:"type:uuid;primaryKey"`
	OrderID   uuid.UUID  `gorm:"type:uuid;not null;index"`
	ProductID *uuid.UUID `gorm:"type:uuid;index"`
	VariantID *uuid.UUID `gorm:"type:uuid"`

	Title       string `gorm:"type:varchar(255);not null"`
	Model       string `gorm:"type:varchar(100)"`
	VariantName string `gorm:"type:varchar(100)"`
	SKU         string `gorm:"type:varchar(100)"`
	UnitName    string `gorm:"type:varchar(50)"`

	Quantity decimal.Decimal `gorm:"type:decimal(12,3);not null"`
	Rate     decimal.Decimal `gorm:"type:decimal(12,2);not null"`
}

// TableName returns the table name for GORM
func (OrderLineModel) TableName() string {
	return "order_lines"
}

// TaxLineModel is the persistence model for itemized order taxes
type TaxLineModel struct {
	ID      uuid.UUID       `gorm:"type:uuid;primaryKey"`
	OrderID uuid.UUID       `gorm:"type:uuid;not null;index"`
	Name    string          `gorm:"type:varchar(100);not null"`
	Rate    decimal.Decimal `gorm:"type:decimal(6,3);not null"`
	Amount  decimal.Decimal `gorm:"type:decimal(12,2);not null"`
}

// TableName returns the table name for GORM
func (TaxLineModel) TableName() string {
	return "order_tax_lines"
}

// ToDomain converts the persistence model to a domain Order
func (m *OrderModel) ToDomain() *trade.Order {
	lines := make([]trade.OrderLine, len(m.Lines))
	for i, l := range m.Lines {
		lines[i] = trade.OrderLine{
			ID:          l.ID,
			OrderID:     l.OrderID,
			ProductID:   l.ProductID,
			VariantID:   l.VariantID,
			Title:       l.Title,
			Model:       l.Model,
			VariantName: l.VariantName,
			SKU:         l.SKU,
			UnitName:    l.UnitName,
			Quantity:    l.Quantity,
			Rate:        l.Rate,
		}
	}
	taxLines := make([]trade.TaxLine, len(m.TaxLines))
	for i, tl := range m.TaxLines {
		taxLines[i] = trade.TaxLine{
			Name:   tl.Name,
			Rate:   tl.Rate,
			Amount: tl.Amount,
		}
	}
	return &trade.Order{
		ID:               m.ID,
		OrderNumber:      m.OrderNumber,
		Status:           m.Status,
		CustomerID:       m.CustomerID,
		CustomerName:     m.CustomerName,
		CustomerPhone:    m.CustomerPhone,
		Lines:            lines,
		TaxLines:         taxLines,
		RoundingAmount:   m.RoundingAmount,
		GrandTotal:       m.GrandTotal,
		LedgerSyncStatus: m.LedgerSyncStatus,
		LedgerErrorLog:   m.LedgerErrorLog,
		LedgerVoucherRef: m.LedgerVoucherRef,
		CreatedAt:        m.CreatedAt,
		UpdatedAt:        m.UpdatedAt,
	}
}

// StockEntryModel is the persistence model for inbound stock entries
type StockEntryModel struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey"`
	EntryNumber string    `gorm:"type:varchar(50);not null;uniqueIndex"`
	Cancelled   bool      `gorm:"not null;default:false"`

	SupplierID    uuid.UUID `gorm:"type:uuid;not null;index"`
	SupplierName  string    `gorm:"type:varchar(255);not null"`
	SupplierPhone string    `gorm:"type:varchar(30)"`

	GrandTotal decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0"`

	LedgerSyncStatus trade.LedgerSyncStatus `gorm:"type:varchar(20);not null;default:PENDING;index"`
	LedgerErrorLog   string                 `gorm:"type:text"`
	LedgerVoucherRef string                 `gorm:"type:varchar(50)"`

	Lines []StockEntryLineModel `gorm:"foreignKey:StockEntryID"`

	CreatedAt time.Time `gorm:"not null;default:now()"`
	UpdatedAt time.Time `gorm:"not null;default:now()"`
}

// TableName returns the table name for GORM
func (StockEntryModel) TableName() string {
	return "stock_entries"
}

// StockEntryLineModel is the persistence model for stock entry lines
type StockEntryLineModel struct {
	ID           uuid.UUID  `gorm:"type:uuid;primaryKey"`
	StockEntryID uuid.UUID  `gorm:"type:uuid;not null;index"`
	ProductID    *uuid.UUID `gorm:"type:uuid;index"`
	VariantID    *uuid.UUID `gorm:"type:uuid"`

	Title       string `gorm:"type:varchar(255);not null"`
	Model       string `gorm:"type:varchar(100)"`
	VariantName string `gorm:"type:varchar(100)"`
	SKU         string `gorm:"type:varchar(100)"`
	UnitName    string `gorm:"type:varchar(50)"`

	Quantity decimal.Decimal `gorm:"type:decimal(12,3);not null"`
	Rate     decimal.Decimal `gorm:"type:decimal(12,2);not null"`
}

// TableName returns the table name for GORM
func (StockEntryLineModel) TableName() string {
	return "stock_entry_lines"
}

// ToDomain converts the persistence model to a domain StockEntry
func (m *StockEntryModel) ToDomain() *trade.StockEntry {
	lines := make([]trade.StockEntryLine, len(m.Lines))
	for i, l := range m.Lines {
		lines[i] = trade.StockEntryLine{
			ID:           l.ID,
			StockEntryID: l.StockEntryID,
			ProductID:    l.ProductID,
			VariantID:    l.VariantID,
			Title:        l.Title,
			Model:        l.Model,
			VariantName:  l.VariantName,
			SKU:          l.SKU,
			UnitName:     l.UnitName,
			Quantity:     l.Quantity,
			Rate:         l.Rate,
		}
	}
	return &trade.StockEntry{
		ID:               m.ID,
		EntryNumber:      m.EntryNumber,
		Cancelled:        m.Cancelled,
		SupplierID:       m.SupplierID,
		SupplierName:     m.SupplierName,
		SupplierPhone:    m.SupplierPhone,
		Lines:            lines,
		GrandTotal:       m.GrandTotal,
		LedgerSyncStatus: m.LedgerSyncStatus,
		LedgerErrorLog:   m.LedgerErrorLog,
		LedgerVoucherRef: m.LedgerVoucherRef,
		CreatedAt:        m.CreatedAt,
		UpdatedAt:        m.UpdatedAt,
	}
}

// ProcurementRequestModel is the persistence model for on-demand requests
type ProcurementRequestModel struct {
	ID            uuid.UUID `gorm:"type:uuid;primaryKey"`
	RequestNumber string    `gorm:"type:varchar(50);not null;uniqueIndex"`
	Cancelled     bool      `gorm:"not null;default:false"`

	CustomerID   uuid.UUID `gorm:"type:uuid;not null;index"`
	CustomerName string    `gorm:"type:varchar(255);not null"`

	Description string          `gorm:"type:text;not null"`
	Quantity    decimal.Decimal `gorm:"type:decimal(12,3);not null"`
	UnitName    string          `gorm:"type:varchar(50)"`

	LedgerSyncStatus trade.LedgerSyncStatus `gorm:"type:varchar(20);not null;default:PENDING;index"`
	LedgerErrorLog   string                 `gorm:"type:text"`
	LedgerVoucherRef string                 `gorm:"type:varchar(50)"`

	CreatedAt time.Time `gorm:"not null;default:now()"`
	UpdatedAt time.Time `gorm:"not null;default:now()"`
}

// TableName returns the table name for GORM
func (ProcurementRequestModel) TableName() string {
	return "procurement_requests"
}

// ToDomain converts the persistence model to a domain ProcurementRequest
func (m *ProcurementRequestModel) ToDomain() *trade.ProcurementRequest {
	return &trade.ProcurementRequest{
		ID:               m.ID,
		RequestNumber:    m.RequestNumber,
		Cancelled:        m.Cancelled,
		CustomerID:       m.CustomerID,
		CustomerName:     m.CustomerName,
		Description:      m.Description,
		Quantity:         m.Quantity,
		UnitName:         m.UnitName,
		LedgerSyncStatus: m.LedgerSyncStatus,
		LedgerErrorLog:   m.LedgerErrorLog,
		LedgerVoucherRef: m.LedgerVoucherRef,
		CreatedAt:        m.CreatedAt,
		UpdatedAt:        m.UpdatedAt,
	}
}
