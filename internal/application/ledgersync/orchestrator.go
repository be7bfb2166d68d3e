package ledgersync

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/retailops/ledgersync/internal/domain/catalog"
	"github.com/retailops/ledgersync/internal/domain/ledger"
	"github.com/retailops/ledgersync/internal/domain/trade"
)

// PayloadBuilders produces the opaque payload strings submitted to the ledger
// system, one builder per record kind. The orchestrator neither knows nor
// cares what is inside a payload.
type PayloadBuilders struct {
	Unit            func(unitName string) string
	SalesLedger     func() string
	PurchaseLedger  func() string
	TaxLedger       func(tax trade.TaxLine) string
	RoundingLedger  func() string
	CustomerLedger  func(name, phone string) string
	SupplierLedger  func(name, phone string) string
	StockItem       func(p *catalog.Product, v *catalog.Variant) string
	SalesVoucher    func(o *trade.Order) string
	CreditNote      func(o *trade.Order) string
	PurchaseVoucher func(e *trade.StockEntry) string
	MemoVoucher     func(r *trade.ProcurementRequest) string
}

// Orchestrator sequences the master-data dispatches a business transaction
// needs before its voucher can be accepted remotely. Phases run through the
// dispatcher independently: master-data jobs are idempotent, so an earlier
// failure never blocks a later phase, and only the voucher phase drives the
// transaction's sync status.
type Orchestrator struct {
	dispatcher   PayloadDispatcher
	orders       trade.OrderRepository
	stockEntries trade.StockEntryRepository
	procurements trade.ProcurementRequestRepository
	products     catalog.ProductRepository
	builders     PayloadBuilders
	logger       *zap.Logger
}

// NewOrchestrator creates a transaction orchestrator
func NewOrchestrator(
	dispatcher PayloadDispatcher,
	orders trade.OrderRepository,
	stockEntries trade.StockEntryRepository,
	procurements trade.ProcurementRequestRepository,
	products catalog.ProductRepository,
	builders PayloadBuilders,
	logger *zap.Logger,
) *Orchestrator {
	return &Orchestrator{
		dispatcher:   dispatcher,
		orders:       orders,
		stockEntries: stockEntries,
		procurements: procurements,
		products:     products,
		builders:     builders,
		logger:       logger,
	}
}

// SyncOrder drives an order through its phase sequence: units, accounting
// ledgers, the customer ledger, stock-item masters, then the sales voucher
// (or a reversing credit note for a cancelled order).
func (o *Orchestrator) SyncOrder(ctx context.Context, orderID uuid.UUID) error {
	order, err := o.orders.FindByID(ctx, orderID)
	if err != nil {
		return err
	}

	ref := ledger.EntityRef{EntityType: ledger.EntityTypeOrder, EntityID: order.ID}

	if order.LedgerSyncStatus == trade.LedgerSyncSaved {
		if !order.IsCancelled() {
			o.logger.Debug("order already saved, skipping sync",
				zap.String("order", order.OrderNumber))
			return nil
		}
		// A saved order that was cancelled afterwards needs only the
		// reversing voucher; its masters already exist remotely.
		o.dispatcher.Dispatch(ctx, o.builders.CreditNote(order), ledger.JobTypeVoucherSale, ref)
		return nil
	}

	for _, unit := range order.DistinctUnits() {
		o.dispatcher.Dispatch(ctx, o.builders.Unit(unit), ledger.JobTypeUnit, ref)
	}

	o.dispatcher.Dispatch(ctx, o.builders.SalesLedger(), ledger.JobTypeLedger, ref)
	for _, tax := range order.TaxLines {
		o.dispatcher.Dispatch(ctx, o.builders.TaxLedger(tax), ledger.JobTypeLedger, ref)
	}
	o.dispatcher.Dispatch(ctx, o.builders.RoundingLedger(), ledger.JobTypeLedger, ref)

	o.dispatcher.Dispatch(ctx, o.builders.CustomerLedger(order.CustomerName, order.CustomerPhone), ledger.JobTypeLedger, ref)

	o.dispatchStockItems(ctx, ref, orderLineProducts(order))

	voucher := o.builders.SalesVoucher(order)
	if order.IsCancelled() {
		voucher = o.builders.CreditNote(order)
	}
	o.dispatcher.Dispatch(ctx, voucher, ledger.JobTypeVoucherSale, ref)

	return nil
}

// SyncStockEntry drives a purchase / stock entry: units, the purchase ledger,
// the supplier ledger, stock-item masters, then the purchase voucher.
func (o *Orchestrator) SyncStockEntry(ctx context.Context, entryID uuid.UUID) error {
	entry, err := o.stockEntries.FindByID(ctx, entryID)
	if err != nil {
		return err
	}

	ref := ledger.EntityRef{EntityType: ledger.EntityTypeStockEntry, EntityID: entry.ID}

	if entry.LedgerSyncStatus == trade.LedgerSyncSaved {
		o.logger.Debug("stock entry already saved, skipping sync",
			zap.String("entry", entry.EntryNumber))
		return nil
	}

	for _, unit := range entry.DistinctUnits() {
		o.dispatcher.Dispatch(ctx, o.builders.Unit(unit), ledger.JobTypeUnit, ref)
	}

	o.dispatcher.Dispatch(ctx, o.builders.PurchaseLedger(), ledger.JobTypeLedger, ref)
	o.dispatcher.Dispatch(ctx, o.builders.SupplierLedger(entry.SupplierName, entry.SupplierPhone), ledger.JobTypeLedger, ref)

	o.dispatchStockItems(ctx, ref, stockEntryLineProducts(entry))

	o.dispatcher.Dispatch(ctx, o.builders.PurchaseVoucher(entry), ledger.JobTypeVoucherPurchase, ref)

	return nil
}

// SyncProcurementRequest drives an on-demand request: its unit, the customer
// ledger, then a memorandum voucher that records intent without touching the
// remote books.
func (o *Orchestrator) SyncProcurementRequest(ctx context.Context, requestID uuid.UUID) error {
	request, err := o.procurements.FindByID(ctx, requestID)
	if err != nil {
		return err
	}

	ref := ledger.EntityRef{EntityType: ledger.EntityTypeProcurement, EntityID: request.ID}

	if request.LedgerSyncStatus == trade.LedgerSyncSaved {
		return nil
	}

	if request.UnitName != "" {
		o.dispatcher.Dispatch(ctx, o.builders.Unit(request.UnitName), ledger.JobTypeUnit, ref)
	}
	o.dispatcher.Dispatch(ctx, o.builders.CustomerLedger(request.CustomerName, ""), ledger.JobTypeLedger, ref)
	o.dispatcher.Dispatch(ctx, o.builders.MemoVoucher(request), ledger.JobTypeVoucherMemo, ref)

	return nil
}

// lineProduct is a resolvable product reference from a transaction line
type lineProduct struct {
	productID uuid.UUID
	variantID *uuid.UUID
}

func orderLineProducts(order *trade.Order) []lineProduct {
	refs := make([]lineProduct, 0, len(order.Lines))
	for _, line := range order.Lines {
		if line.ProductID == nil {
			continue
		}
		refs = append(refs, lineProduct{productID: *line.ProductID, variantID: line.VariantID})
	}
	return refs
}

func stockEntryLineProducts(entry *trade.StockEntry) []lineProduct {
	refs := make([]lineProduct, 0, len(entry.Lines))
	for _, line := range entry.Lines {
		if line.ProductID == nil {
			continue
		}
		refs = append(refs, lineProduct{productID: *line.ProductID, variantID: line.VariantID})
	}
	return refs
}

// dispatchStockItems dispatches one stock-item master per resolvable line
// product. The stock item is keyed by product plus variant, so repeated runs
// across variants of the same base product never collide.
func (o *Orchestrator) dispatchStockItems(ctx context.Context, ref ledger.EntityRef, lines []lineProduct) {
	for _, lp := range lines {
		product, err := o.products.FindByID(ctx, lp.productID)
		if err != nil {
			o.logger.Warn("skipping stock item for unresolvable product",
				zap.String("product_id", lp.productID.String()),
				zap.Error(err),
			)
			continue
		}

		var variant *catalog.Variant
		if lp.variantID != nil {
			for i := range product.Variants {
				if product.Variants[i].ID == *lp.variantID {
					variant = &product.Variants[i]
					break
				}
			}
		}

		o.dispatcher.Dispatch(ctx, o.builders.StockItem(product, variant), ledger.JobTypeStockItem, ref)
	}
}
