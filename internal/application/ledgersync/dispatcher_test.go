package ledgersync

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/retailops/ledgersync/internal/domain/ledger"
	"github.com/retailops/ledgersync/internal/domain/trade"
)

type dispatcherFixture struct {
	settings   *MockSettingsProvider
	prober     *MockHealthProber
	sender     *MockPayloadSender
	queue      *MockSyncJobRepository
	orders     *MockStatusWriter
	entries    *MockStatusWriter
	requests   *MockStatusWriter
	healthLog  *MockHealthLogRepository
	dispatcher *Dispatcher
}

func newDispatcherFixture() *dispatcherFixture {
	f := &dispatcherFixture{
		settings:  new(MockSettingsProvider),
		prober:    new(MockHealthProber),
		sender:    new(MockPayloadSender),
		queue:     new(MockSyncJobRepository),
		orders:    new(MockStatusWriter),
		entries:   new(MockStatusWriter),
		requests:  new(MockStatusWriter),
		healthLog: new(MockHealthLogRepository),
	}
	writers := NewStatusWriterRegistry(f.orders, f.entries, f.requests)
	f.dispatcher = NewDispatcher(f.settings, f.prober, f.sender, f.queue, writers, f.healthLog, 3, zap.NewNop())
	return f
}

func enabledSettings() ledger.Settings {
	return ledger.Settings{Enabled: true, Endpoint: "http://localhost:9000", CompanyName: "Acme Retail"}
}

func orderRef() ledger.EntityRef {
	return ledger.EntityRef{EntityType: ledger.EntityTypeOrder, EntityID: uuid.New()}
}

func TestDispatcher_DisabledIntegrationShortCircuits(t *testing.T) {
	f := newDispatcherFixture()
	f.settings.On("Get", mock.Anything).Return(ledger.Settings{Enabled: false}, nil)

	result := f.dispatcher.Dispatch(context.Background(), "<payload/>", ledger.JobTypeVoucherSale, orderRef())

	assert.False(t, result.Sent)
	assert.False(t, result.Queued)
	assert.NotEmpty(t, result.Error)
	f.prober.AssertNotCalled(t, "Probe", mock.Anything)
	f.queue.AssertNotCalled(t, "Enqueue", mock.Anything, mock.Anything)
	f.orders.AssertNotCalled(t, "UpdateLedgerStatus", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestDispatcher_OfflineQueuesVoucherAndMarksQueued(t *testing.T) {
	f := newDispatcherFixture()
	ref := orderRef()

	f.settings.On("Get", mock.Anything).Return(enabledSettings(), nil)
	f.prober.On("Probe", mock.Anything).Return(ledger.HealthStatus{Online: false, Err: "connection refused"})
	f.healthLog.On("Append", mock.Anything, mock.Anything).Return(nil)
	f.queue.On("Enqueue", mock.Anything, mock.MatchedBy(func(j *ledger.SyncJob) bool {
		return j.JobType == ledger.JobTypeVoucherSale && j.EntityID == ref.EntityID && j.Status == ledger.JobStatusPending
	})).Return(&ledger.SyncJob{}, nil)
	f.orders.On("UpdateLedgerStatus", mock.Anything, ref.EntityID, trade.LedgerSyncQueued, "", "").Return(nil)

	result := f.dispatcher.Dispatch(context.Background(), "<payload/>", ledger.JobTypeVoucherSale, ref)

	assert.False(t, result.Sent)
	assert.True(t, result.Queued)
	f.sender.AssertNotCalled(t, "Send", mock.Anything, mock.Anything)
	f.orders.AssertExpectations(t)
	f.queue.AssertExpectations(t)
}

func TestDispatcher_OfflineMasterDataNeverTouchesEntityStatus(t *testing.T) {
	f := newDispatcherFixture()
	ref := orderRef()

	f.settings.On("Get", mock.Anything).Return(enabledSettings(), nil)
	f.prober.On("Probe", mock.Anything).Return(ledger.HealthStatus{Online: false})
	f.healthLog.On("Append", mock.Anything, mock.Anything).Return(nil)
	f.queue.On("Enqueue", mock.Anything, mock.Anything).Return(&ledger.SyncJob{}, nil)

	result := f.dispatcher.Dispatch(context.Background(), "<unit/>", ledger.JobTypeUnit, ref)

	assert.True(t, result.Queued)
	f.orders.AssertNotCalled(t, "UpdateLedgerStatus", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestDispatcher_OnlineSuccessMarksSaved(t *testing.T) {
	f := newDispatcherFixture()
	ref := orderRef()

	f.settings.On("Get", mock.Anything).Return(enabledSettings(), nil)
	f.prober.On("Probe", mock.Anything).Return(ledger.HealthStatus{Online: true, Latency: 12 * time.Millisecond})
	f.healthLog.On("Append", mock.Anything, mock.Anything).Return(nil)
	f.sender.On("Send", mock.Anything, "<voucher/>").Return(&ledger.Response{
		Outcome:    ledger.OutcomeSuccess,
		VoucherRef: "4217",
	}, nil)
	f.orders.On("UpdateLedgerStatus", mock.Anything, ref.EntityID, trade.LedgerSyncSaved, "", "4217").Return(nil)

	result := f.dispatcher.Dispatch(context.Background(), "<voucher/>", ledger.JobTypeVoucherSale, ref)

	assert.True(t, result.Sent)
	assert.False(t, result.Queued)
	f.queue.AssertNotCalled(t, "Enqueue", mock.Anything, mock.Anything)
	f.orders.AssertExpectations(t)
}

func TestDispatcher_DuplicateResponseCountsAsSent(t *testing.T) {
	f := newDispatcherFixture()
	ref := orderRef()

	f.settings.On("Get", mock.Anything).Return(enabledSettings(), nil)
	f.prober.On("Probe", mock.Anything).Return(ledger.HealthStatus{Online: true})
	f.healthLog.On("Append", mock.Anything, mock.Anything).Return(nil)
	f.sender.On("Send", mock.Anything, mock.Anything).Return(&ledger.Response{
		Outcome: ledger.OutcomeDuplicate,
		Message: "Voucher already exists",
	}, nil)
	f.orders.On("UpdateLedgerStatus", mock.Anything, ref.EntityID, trade.LedgerSyncSaved, "", "").Return(nil)

	result := f.dispatcher.Dispatch(context.Background(), "<voucher/>", ledger.JobTypeVoucherSale, ref)

	assert.True(t, result.Sent)
	f.queue.AssertNotCalled(t, "Enqueue", mock.Anything, mock.Anything)
}

func TestDispatcher_RejectionQueuesWithReason(t *testing.T) {
	f := newDispatcherFixture()
	ref := orderRef()

	f.settings.On("Get", mock.Anything).Return(enabledSettings(), nil)
	f.prober.On("Probe", mock.Anything).Return(ledger.HealthStatus{Online: true})
	f.healthLog.On("Append", mock.Anything, mock.Anything).Return(nil)
	f.sender.On("Send", mock.Anything, mock.Anything).Return(&ledger.Response{
		Outcome: ledger.OutcomeRejected,
		Message: "Ledger 'Sales' does not exist!",
	}, nil)
	f.queue.On("Enqueue", mock.Anything, mock.MatchedBy(func(j *ledger.SyncJob) bool {
		return j.LastError == "Ledger 'Sales' does not exist!"
	})).Return(&ledger.SyncJob{}, nil)
	f.orders.On("UpdateLedgerStatus", mock.Anything, ref.EntityID, trade.LedgerSyncQueued, "Ledger 'Sales' does not exist!", "").Return(nil)

	result := f.dispatcher.Dispatch(context.Background(), "<voucher/>", ledger.JobTypeVoucherSale, ref)

	assert.False(t, result.Sent)
	assert.True(t, result.Queued)
	assert.Equal(t, "Ledger 'Sales' does not exist!", result.Error)
	f.queue.AssertExpectations(t)
}

func TestDispatcher_EnqueueCollapsingOntoSyncedJobCountsAsSent(t *testing.T) {
	f := newDispatcherFixture()
	ref := orderRef()

	// The queue reports that a byte-identical payload already reached the
	// ledger system. Nothing is left to deliver and no active job remains, so
	// the transaction must be marked saved now, not queued.
	synced := ledger.NewSyncJob("<voucher/>", ledger.JobTypeVoucherSale, ref)
	require.NoError(t, synced.MarkProcessing())
	require.NoError(t, synced.MarkSynced("<ok/>"))

	f.settings.On("Get", mock.Anything).Return(enabledSettings(), nil)
	f.prober.On("Probe", mock.Anything).Return(ledger.HealthStatus{Online: false})
	f.healthLog.On("Append", mock.Anything, mock.Anything).Return(nil)
	f.queue.On("Enqueue", mock.Anything, mock.Anything).Return(synced, nil)
	f.orders.On("UpdateLedgerStatus", mock.Anything, ref.EntityID, trade.LedgerSyncSaved, "", "").Return(nil)

	result := f.dispatcher.Dispatch(context.Background(), "<voucher/>", ledger.JobTypeVoucherSale, ref)

	assert.True(t, result.Sent)
	assert.False(t, result.Queued)
	f.orders.AssertExpectations(t)
	f.orders.AssertNotCalled(t, "UpdateLedgerStatus", mock.Anything, ref.EntityID, trade.LedgerSyncQueued, mock.Anything, mock.Anything)
}

func TestDispatcher_SettingsErrorStillQueues(t *testing.T) {
	f := newDispatcherFixture()
	ref := orderRef()

	f.settings.On("Get", mock.Anything).Return(ledger.Settings{}, errors.New("redis down"))
	f.queue.On("Enqueue", mock.Anything, mock.Anything).Return(&ledger.SyncJob{}, nil)
	f.orders.On("UpdateLedgerStatus", mock.Anything, ref.EntityID, trade.LedgerSyncQueued, mock.Anything, "").Return(nil)

	result := f.dispatcher.Dispatch(context.Background(), "<voucher/>", ledger.JobTypeVoucherSale, ref)

	assert.True(t, result.Queued)
	f.queue.AssertExpectations(t)
}

func TestDispatcher_PanicFallsBackToEnqueue(t *testing.T) {
	f := newDispatcherFixture()
	ref := orderRef()

	f.settings.On("Get", mock.Anything).Return(enabledSettings(), nil)
	f.prober.On("Probe", mock.Anything).Run(func(mock.Arguments) {
		panic("prober blew up")
	}).Return(ledger.HealthStatus{})
	f.queue.On("Enqueue", mock.Anything, mock.Anything).Return(&ledger.SyncJob{}, nil)
	f.orders.On("UpdateLedgerStatus", mock.Anything, ref.EntityID, trade.LedgerSyncQueued, mock.Anything, "").Return(nil)

	result := f.dispatcher.Dispatch(context.Background(), "<voucher/>", ledger.JobTypeVoucherSale, ref)

	assert.True(t, result.Queued)
	assert.Contains(t, result.Error, "prober blew up")
	f.queue.AssertExpectations(t)
}

func TestDispatcher_EnqueueFailureSurfacesError(t *testing.T) {
	f := newDispatcherFixture()
	ref := orderRef()

	f.settings.On("Get", mock.Anything).Return(enabledSettings(), nil)
	f.prober.On("Probe", mock.Anything).Return(ledger.HealthStatus{Online: false})
	f.healthLog.On("Append", mock.Anything, mock.Anything).Return(nil)
	f.queue.On("Enqueue", mock.Anything, mock.Anything).Return(nil, errors.New("database unavailable"))

	result := f.dispatcher.Dispatch(context.Background(), "<voucher/>", ledger.JobTypeVoucherSale, ref)

	assert.False(t, result.Sent)
	assert.False(t, result.Queued)
	assert.Contains(t, result.Error, "database unavailable")
	f.orders.AssertNotCalled(t, "UpdateLedgerStatus", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}
