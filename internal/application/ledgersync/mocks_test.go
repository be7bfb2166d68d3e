package ledgersync

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"

	"github.com/retailops/ledgersync/internal/domain/catalog"
	"github.com/retailops/ledgersync/internal/domain/ledger"
	"github.com/retailops/ledgersync/internal/domain/trade"
)

// MockSettingsProvider is a mock implementation of ledger.SettingsProvider
type MockSettingsProvider struct {
	mock.Mock
}

func (m *MockSettingsProvider) Get(ctx context.Context) (ledger.Settings, error) {
	args := m.Called(ctx)
	return args.Get(0).(ledger.Settings), args.Error(1)
}

// MockHealthProber is a mock implementation of ledger.HealthProber
type MockHealthProber struct {
	mock.Mock
}

func (m *MockHealthProber) Probe(ctx context.Context) ledger.HealthStatus {
	args := m.Called(ctx)
	return args.Get(0).(ledger.HealthStatus)
}

// MockPayloadSender is a mock implementation of ledger.PayloadSender
type MockPayloadSender struct {
	mock.Mock
}

func (m *MockPayloadSender) Send(ctx context.Context, payload string) (*ledger.Response, error) {
	args := m.Called(ctx, payload)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ledger.Response), args.Error(1)
}

// MockSyncJobRepository is a mock implementation of ledger.SyncJobRepository
type MockSyncJobRepository struct {
	mock.Mock
}

func (m *MockSyncJobRepository) Enqueue(ctx context.Context, job *ledger.SyncJob) (*ledger.SyncJob, error) {
	args := m.Called(ctx, job)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ledger.SyncJob), args.Error(1)
}

func (m *MockSyncJobRepository) ClaimPending(ctx context.Context, limit int) ([]*ledger.SyncJob, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*ledger.SyncJob), args.Error(1)
}

func (m *MockSyncJobRepository) Update(ctx context.Context, job *ledger.SyncJob) error {
	args := m.Called(ctx, job)
	return args.Error(0)
}

func (m *MockSyncJobRepository) FindByID(ctx context.Context, id uuid.UUID) (*ledger.SyncJob, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ledger.SyncJob), args.Error(1)
}

func (m *MockSyncJobRepository) FindActiveByEntity(ctx context.Context, ref ledger.EntityRef) (*ledger.SyncJob, error) {
	args := m.Called(ctx, ref)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ledger.SyncJob), args.Error(1)
}

func (m *MockSyncJobRepository) FindAll(ctx context.Context, filter ledger.SyncJobFilter) ([]*ledger.SyncJob, int64, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Get(1).(int64), args.Error(2)
	}
	return args.Get(0).([]*ledger.SyncJob), args.Get(1).(int64), args.Error(2)
}

func (m *MockSyncJobRepository) ResetOrphaned(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockSyncJobRepository) DeleteSyncedOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	args := m.Called(ctx, cutoff)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockSyncJobRepository) CountByStatus(ctx context.Context) (map[ledger.JobStatus]int64, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[ledger.JobStatus]int64), args.Error(1)
}

// MockHealthLogRepository is a mock implementation of ledger.HealthLogRepository
type MockHealthLogRepository struct {
	mock.Mock
}

func (m *MockHealthLogRepository) Append(ctx context.Context, entry *ledger.HealthLog) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}

// MockStatusWriter is a mock implementation of LedgerStatusWriter
type MockStatusWriter struct {
	mock.Mock
}

func (m *MockStatusWriter) UpdateLedgerStatus(ctx context.Context, id uuid.UUID, status trade.LedgerSyncStatus, errLog, voucherRef string) error {
	args := m.Called(ctx, id, status, errLog, voucherRef)
	return args.Error(0)
}

// MockOrderRepository is a mock implementation of trade.OrderRepository
type MockOrderRepository struct {
	mock.Mock
}

func (m *MockOrderRepository) FindByID(ctx context.Context, id uuid.UUID) (*trade.Order, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*trade.Order), args.Error(1)
}

func (m *MockOrderRepository) FindUnacknowledged(ctx context.Context) ([]*trade.Order, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*trade.Order), args.Error(1)
}

func (m *MockOrderRepository) UpdateLedgerStatus(ctx context.Context, id uuid.UUID, status trade.LedgerSyncStatus, errLog, voucherRef string) error {
	args := m.Called(ctx, id, status, errLog, voucherRef)
	return args.Error(0)
}

// MockStockEntryRepository is a mock implementation of trade.StockEntryRepository
type MockStockEntryRepository struct {
	mock.Mock
}

func (m *MockStockEntryRepository) FindByID(ctx context.Context, id uuid.UUID) (*trade.StockEntry, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*trade.StockEntry), args.Error(1)
}

func (m *MockStockEntryRepository) UpdateLedgerStatus(ctx context.Context, id uuid.UUID, status trade.LedgerSyncStatus, errLog, voucherRef string) error {
	args := m.Called(ctx, id, status, errLog, voucherRef)
	return args.Error(0)
}

// MockProcurementRequestRepository is a mock implementation of trade.ProcurementRequestRepository
type MockProcurementRequestRepository struct {
	mock.Mock
}

func (m *MockProcurementRequestRepository) FindByID(ctx context.Context, id uuid.UUID) (*trade.ProcurementRequest, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*trade.ProcurementRequest), args.Error(1)
}

func (m *MockProcurementRequestRepository) UpdateLedgerStatus(ctx context.Context, id uuid.UUID, status trade.LedgerSyncStatus, errLog, voucherRef string) error {
	args := m.Called(ctx, id, status, errLog, voucherRef)
	return args.Error(0)
}

// MockProductRepository is a mock implementation of catalog.ProductRepository
type MockProductRepository struct {
	mock.Mock
}

func (m *MockProductRepository) FindByID(ctx context.Context, id uuid.UUID) (*catalog.Product, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*catalog.Product), args.Error(1)
}

func (m *MockProductRepository) FindAllWithVariants(ctx context.Context) ([]*catalog.Product, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*catalog.Product), args.Error(1)
}

func (m *MockProductRepository) UpdateStock(ctx context.Context, key catalog.StockKey, qty decimal.Decimal) error {
	args := m.Called(ctx, key, qty)
	return args.Error(0)
}

// MockStockReportFetcher is a mock implementation of ledger.StockReportFetcher
type MockStockReportFetcher struct {
	mock.Mock
}

func (m *MockStockReportFetcher) FetchStockReport(ctx context.Context) ([]ledger.StockBalance, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]ledger.StockBalance), args.Error(1)
}
