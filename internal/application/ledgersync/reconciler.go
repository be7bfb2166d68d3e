package ledgersync

import (
	"context"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/retailops/ledgersync/internal/domain/catalog"
	"github.com/retailops/ledgersync/internal/domain/ledger"
	"github.com/retailops/ledgersync/internal/domain/trade"
)

// ReconcileResult summarizes one reconciliation run
type ReconcileResult struct {
	// ReportItems is the number of balances in the remote stock report
	ReportItems int
	// Matched is the number of report items resolved to a catalog bucket
	Matched int
	// Updated is the number of stock buckets written
	Updated int
	// Unmatched lists report item names with no catalog counterpart
	Unmatched []string
}

// Reconciler pulls the ledger system's stock report and overwrites local stock
// with trueStock = max(0, remoteBalance - pendingDemand). Pending demand is
// the quantity held by orders the ledger system has not acknowledged yet;
// subtracting it keeps sellable stock honest while vouchers sit in the queue.
type Reconciler struct {
	fetcher  ledger.StockReportFetcher
	settings ledger.SettingsProvider
	orders   trade.OrderRepository
	products catalog.ProductRepository
	logger   *zap.Logger
}

// NewReconciler creates a stock reconciler
func NewReconciler(
	fetcher ledger.StockReportFetcher,
	settings ledger.SettingsProvider,
	orders trade.OrderRepository,
	products catalog.ProductRepository,
	logger *zap.Logger,
) *Reconciler {
	return &Reconciler{
		fetcher:  fetcher,
		settings: settings,
		orders:   orders,
		products: products,
		logger:   logger,
	}
}

// catalogIndex resolves report item names to stock buckets. SKU entries win
// over name entries because SKUs are operator-assigned identifiers while the
// name match depends on the stock-item naming rule staying in sync.
type catalogIndex struct {
	bySKU  map[string]catalog.StockKey
	byName map[string]catalog.StockKey
}

func buildCatalogIndex(products []*catalog.Product) *catalogIndex {
	idx := &catalogIndex{
		bySKU:  make(map[string]catalog.StockKey),
		byName: make(map[string]catalog.StockKey),
	}
	for _, p := range products {
		if len(p.Variants) == 0 {
			key := catalog.StockKey{ProductID: p.ID}
			if p.SKU != "" {
				idx.bySKU[p.SKU] = key
			}
			idx.byName[catalog.StockItemName(p, nil)] = key
			continue
		}
		for i := range p.Variants {
			v := &p.Variants[i]
			key := catalog.StockKey{ProductID: p.ID, VariantID: v.ID}
			if v.SKU != "" {
				idx.bySKU[v.SKU] = key
			}
			idx.byName[catalog.StockItemName(p, v)] = key
		}
	}
	return idx
}

func (idx *catalogIndex) resolve(name string) (catalog.StockKey, bool) {
	if key, ok := idx.bySKU[name]; ok {
		return key, true
	}
	key, ok := idx.byName[name]
	return key, ok
}

// Run executes one reconciliation pass. It is idempotent: running twice
// against an unchanged report and demand set converges to the same stock.
func (r *Reconciler) Run(ctx context.Context) (*ReconcileResult, error) {
	settings, err := r.settings.Get(ctx)
	if err != nil {
		return nil, err
	}
	if !settings.Enabled {
		r.logger.Debug("ledger integration disabled, skipping reconciliation")
		return &ReconcileResult{}, nil
	}

	balances, err := r.fetcher.FetchStockReport(ctx)
	if err != nil {
		return nil, err
	}

	demand, err := r.pendingDemand(ctx)
	if err != nil {
		return nil, err
	}

	products, err := r.products.FindAllWithVariants(ctx)
	if err != nil {
		return nil, err
	}
	idx := buildCatalogIndex(products)

	result := &ReconcileResult{ReportItems: len(balances)}
	for _, balance := range balances {
		key, ok := idx.resolve(balance.Name)
		if !ok {
			result.Unmatched = append(result.Unmatched, balance.Name)
			continue
		}
		result.Matched++

		trueStock := balance.Closing.Sub(demand[key])
		if trueStock.IsNegative() {
			trueStock = decimal.Zero
		}

		if err := r.products.UpdateStock(ctx, key, trueStock); err != nil {
			r.logger.Error("failed to update stock",
				zap.String("item", balance.Name),
				zap.Error(err),
			)
			continue
		}
		result.Updated++
	}

	if len(result.Unmatched) > 0 {
		r.logger.Warn("stock report items without catalog match",
			zap.Int("count", len(result.Unmatched)),
			zap.Strings("items", result.Unmatched),
		)
	}
	r.logger.Info("stock reconciliation finished",
		zap.Int("report_items", result.ReportItems),
		zap.Int("matched", result.Matched),
		zap.Int("updated", result.Updated),
	)
	return result, nil
}

// pendingDemand sums line quantities of unacknowledged orders per stock
// bucket. Cancelled orders and orders already saved remotely are excluded by
// the repository query.
func (r *Reconciler) pendingDemand(ctx context.Context) (map[catalog.StockKey]decimal.Decimal, error) {
	orders, err := r.orders.FindUnacknowledged(ctx)
	if err != nil {
		return nil, err
	}

	demand := make(map[catalog.StockKey]decimal.Decimal)
	for _, order := range orders {
		for _, line := range order.Lines {
			if line.ProductID == nil {
				continue
			}
			key := catalog.Key(*line.ProductID, line.VariantID)
			demand[key] = demand[key].Add(line.Quantity)
		}
	}
	return demand, nil
}
