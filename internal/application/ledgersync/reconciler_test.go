package ledgersync

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/retailops/ledgersync/internal/domain/catalog"
	"github.com/retailops/ledgersync/internal/domain/ledger"
	"github.com/retailops/ledgersync/internal/domain/trade"
)

type reconcilerFixture struct {
	fetcher    *MockStockReportFetcher
	settings   *MockSettingsProvider
	orders     *MockOrderRepository
	products   *MockProductRepository
	reconciler *Reconciler
}

func newReconcilerFixture() *reconcilerFixture {
	f := &reconcilerFixture{
		fetcher:  new(MockStockReportFetcher),
		settings: new(MockSettingsProvider),
		orders:   new(MockOrderRepository),
		products: new(MockProductRepository),
	}
	f.reconciler = NewReconciler(f.fetcher, f.settings, f.orders, f.products, zap.NewNop())
	f.settings.On("Get", mock.Anything).Return(enabledSettings(), nil).Maybe()
	return f
}

func TestReconciler_SubtractsPendingDemand(t *testing.T) {
	f := newReconcilerFixture()
	productID := uuid.New()
	product := &catalog.Product{ID: productID, Title: "Widget", Model: "X1", SKU: "WID-X1"}

	f.fetcher.On("FetchStockReport", mock.Anything).Return([]ledger.StockBalance{
		{Name: "Widget (X1)", Closing: decimal.NewFromInt(20)},
	}, nil)
	f.orders.On("FindUnacknowledged", mock.Anything).Return([]*trade.Order{
		{Lines: []trade.OrderLine{{ProductID: &productID, Quantity: decimal.NewFromInt(3)}}},
		{Lines: []trade.OrderLine{{ProductID: &productID, Quantity: decimal.NewFromInt(2)}}},
	}, nil)
	f.products.On("FindAllWithVariants", mock.Anything).Return([]*catalog.Product{product}, nil)
	f.products.On("UpdateStock", mock.Anything, catalog.StockKey{ProductID: productID}, decimal.NewFromInt(15)).Return(nil)

	result, err := f.reconciler.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, result.Matched)
	assert.Equal(t, 1, result.Updated)
	f.products.AssertExpectations(t)
}

func TestReconciler_ClampsAtZero(t *testing.T) {
	f := newReconcilerFixture()
	productID := uuid.New()
	product := &catalog.Product{ID: productID, Title: "Widget"}

	f.fetcher.On("FetchStockReport", mock.Anything).Return([]ledger.StockBalance{
		{Name: "Widget", Closing: decimal.NewFromInt(2)},
	}, nil)
	f.orders.On("FindUnacknowledged", mock.Anything).Return([]*trade.Order{
		{Lines: []trade.OrderLine{{ProductID: &productID, Quantity: decimal.NewFromInt(5)}}},
	}, nil)
	f.products.On("FindAllWithVariants", mock.Anything).Return([]*catalog.Product{product}, nil)
	f.products.On("UpdateStock", mock.Anything, catalog.StockKey{ProductID: productID}, decimal.Zero).Return(nil)

	_, err := f.reconciler.Run(context.Background())
	require.NoError(t, err)
	f.products.AssertExpectations(t)
}

func TestReconciler_SKUMatchWinsOverName(t *testing.T) {
	f := newReconcilerFixture()
	bySKU := &catalog.Product{ID: uuid.New(), Title: "Old Name", SKU: "Widget"}
	byName := &catalog.Product{ID: uuid.New(), Title: "Widget"}

	f.fetcher.On("FetchStockReport", mock.Anything).Return([]ledger.StockBalance{
		{Name: "Widget", Closing: decimal.NewFromInt(9)},
	}, nil)
	f.orders.On("FindUnacknowledged", mock.Anything).Return([]*trade.Order{}, nil)
	f.products.On("FindAllWithVariants", mock.Anything).Return([]*catalog.Product{bySKU, byName}, nil)
	f.products.On("UpdateStock", mock.Anything, catalog.StockKey{ProductID: bySKU.ID}, decimal.NewFromInt(9)).Return(nil)

	_, err := f.reconciler.Run(context.Background())
	require.NoError(t, err)
	f.products.AssertExpectations(t)
	f.products.AssertNotCalled(t, "UpdateStock", mock.Anything, catalog.StockKey{ProductID: byName.ID}, mock.Anything)
}

func TestReconciler_VariantBucketsMatchIndependently(t *testing.T) {
	f := newReconcilerFixture()
	productID := uuid.New()
	redID := uuid.New()
	blueID := uuid.New()
	product := &catalog.Product{
		ID:    productID,
		Title: "Shirt",
		Variants: []catalog.Variant{
			{ID: redID, ProductID: productID, Name: "Red"},
			{ID: blueID, ProductID: productID, Name: "Blue", SKU: "SHIRT-B"},
		},
	}

	f.fetcher.On("FetchStockReport", mock.Anything).Return([]ledger.StockBalance{
		{Name: "Shirt (Red)", Closing: decimal.NewFromInt(4)},
		{Name: "SHIRT-B", Closing: decimal.NewFromInt(6)},
	}, nil)
	f.orders.On("FindUnacknowledged", mock.Anything).Return([]*trade.Order{
		{Lines: []trade.OrderLine{{ProductID: &productID, VariantID: &redID, Quantity: decimal.NewFromInt(1)}}},
	}, nil)
	f.products.On("FindAllWithVariants", mock.Anything).Return([]*catalog.Product{product}, nil)
	f.products.On("UpdateStock", mock.Anything, catalog.StockKey{ProductID: productID, VariantID: redID}, decimal.NewFromInt(3)).Return(nil)
	f.products.On("UpdateStock", mock.Anything, catalog.StockKey{ProductID: productID, VariantID: blueID}, decimal.NewFromInt(6)).Return(nil)

	result, err := f.reconciler.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, result.Updated)
	f.products.AssertExpectations(t)
}

func TestReconciler_UnmatchedItemsAreReportedNotWritten(t *testing.T) {
	f := newReconcilerFixture()

	f.fetcher.On("FetchStockReport", mock.Anything).Return([]ledger.StockBalance{
		{Name: "Mystery Item", Closing: decimal.NewFromInt(10)},
	}, nil)
	f.orders.On("FindUnacknowledged", mock.Anything).Return([]*trade.Order{}, nil)
	f.products.On("FindAllWithVariants", mock.Anything).Return([]*catalog.Product{}, nil)

	result, err := f.reconciler.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 0, result.Updated)
	assert.Equal(t, []string{"Mystery Item"}, result.Unmatched)
	f.products.AssertNotCalled(t, "UpdateStock", mock.Anything, mock.Anything, mock.Anything)
}

func TestReconciler_RepeatedRunsConverge(t *testing.T) {
	f := newReconcilerFixture()
	productID := uuid.New()
	product := &catalog.Product{ID: productID, Title: "Widget"}

	f.fetcher.On("FetchStockReport", mock.Anything).Return([]ledger.StockBalance{
		{Name: "Widget", Closing: decimal.NewFromInt(12)},
	}, nil)
	f.orders.On("FindUnacknowledged", mock.Anything).Return([]*trade.Order{
		{Lines: []trade.OrderLine{{ProductID: &productID, Quantity: decimal.NewFromInt(2)}}},
	}, nil)
	f.products.On("FindAllWithVariants", mock.Anything).Return([]*catalog.Product{product}, nil)
	f.products.On("UpdateStock", mock.Anything, catalog.StockKey{ProductID: productID}, decimal.NewFromInt(10)).Return(nil).Twice()

	_, err := f.reconciler.Run(context.Background())
	require.NoError(t, err)
	_, err = f.reconciler.Run(context.Background())
	require.NoError(t, err)
	f.products.AssertExpectations(t)
}

func TestReconciler_DisabledIntegrationIsNoop(t *testing.T) {
	f := &reconcilerFixture{
		fetcher:  new(MockStockReportFetcher),
		settings: new(MockSettingsProvider),
		orders:   new(MockOrderRepository),
		products: new(MockProductRepository),
	}
	f.reconciler = NewReconciler(f.fetcher, f.settings, f.orders, f.products, zap.NewNop())
	f.settings.On("Get", mock.Anything).Return(ledger.Settings{Enabled: false}, nil)

	result, err := f.reconciler.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, result.ReportItems)
	f.fetcher.AssertNotCalled(t, "FetchStockReport", mock.Anything)
}

func TestReconciler_FetchFailurePropagates(t *testing.T) {
	f := newReconcilerFixture()
	f.fetcher.On("FetchStockReport", mock.Anything).Return(nil, errors.New("endpoint unreachable"))

	_, err := f.reconciler.Run(context.Background())
	assert.Error(t, err)
	f.products.AssertNotCalled(t, "UpdateStock", mock.Anything, mock.Anything, mock.Anything)
}
