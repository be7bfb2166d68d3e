package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/retailops/ledgersync/internal/application/ledgersync"
	"github.com/retailops/ledgersync/internal/domain/ledger"
	"github.com/retailops/ledgersync/internal/domain/shared"
	"github.com/retailops/ledgersync/internal/infrastructure/scheduler"
)

type fakeQueueAdmin struct {
	listResult *ledgersync.JobListResult
	job        *ledgersync.SyncJobDTO
	stats      *ledgersync.QueueStatsDTO
	requeued   int64
	err        error

	lastFilter ledgersync.JobListFilter
	lastJobID  uuid.UUID
}

func (f *fakeQueueAdmin) ListJobs(_ context.Context, filter ledgersync.JobListFilter) (*ledgersync.JobListResult, error) {
	f.lastFilter = filter
	if f.err != nil {
		return nil, f.err
	}
	return f.listResult, nil
}

func (f *fakeQueueAdmin) GetJob(_ context.Context, id uuid.UUID) (*ledgersync.SyncJobDTO, error) {
	f.lastJobID = id
	if f.err != nil {
		return nil, f.err
	}
	return f.job, nil
}

func (f *fakeQueueAdmin) RequeueJob(_ context.Context, id uuid.UUID) (*ledgersync.SyncJobDTO, error) {
	f.lastJobID = id
	if f.err != nil {
		return nil, f.err
	}
	return f.job, nil
}

func (f *fakeQueueAdmin) RequeueAllFailed(_ context.Context) (int64, error) {
	if f.err != nil {
		return 0, f.err
	}
	return f.requeued, nil
}

func (f *fakeQueueAdmin) GetStats(_ context.Context) (*ledgersync.QueueStatsDTO, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.stats, nil
}

type fakeProber struct {
	status ledger.HealthStatus
	probes int
}

func (f *fakeProber) Probe(_ context.Context) ledger.HealthStatus {
	f.probes++
	return f.status
}

type fakeReconciler struct {
	triggerErr error
	triggered  int
	runs       []*scheduler.ReconcileRun
}

func (f *fakeReconciler) TriggerNow() error {
	f.triggered++
	return f.triggerErr
}

func (f *fakeReconciler) GetRunHistory(limit int) []*scheduler.ReconcileRun {
	if limit < len(f.runs) {
		return f.runs[:limit]
	}
	return f.runs
}

type fakeSettingsStore struct {
	settings ledger.Settings
	getErr   error
	saveErr  error
	saved    []ledger.Settings
}

func (f *fakeSettingsStore) Get(_ context.Context) (ledger.Settings, error) {
	if f.getErr != nil {
		return ledger.Settings{}, f.getErr
	}
	return f.settings, nil
}

func (f *fakeSettingsStore) Save(_ context.Context, settings ledger.Settings) error {
	if f.saveErr != nil {
		return f.saveErr
	}
	f.saved = append(f.saved, settings)
	f.settings = settings
	return nil
}

type fakeInvalidator struct {
	err   error
	calls int
}

func (f *fakeInvalidator) Invalidate(_ context.Context) error {
	f.calls++
	return f.err
}

type handlerFixture struct {
	queueAdmin  *fakeQueueAdmin
	prober      *fakeProber
	reconciler  *fakeReconciler
	settings    *fakeSettingsStore
	invalidator *fakeInvalidator
	engine      *gin.Engine
}

func newHandlerFixture() *handlerFixture {
	gin.SetMode(gin.TestMode)

	f := &handlerFixture{
		queueAdmin:  &fakeQueueAdmin{},
		prober:      &fakeProber{},
		reconciler:  &fakeReconciler{},
		settings:    &fakeSettingsStore{},
		invalidator: &fakeInvalidator{},
	}

	h := NewLedgerHandler(f.queueAdmin, f.prober, f.reconciler, f.settings, f.invalidator, zap.NewNop())

	f.engine = gin.New()
	api := f.engine.Group("/api/v1")
	h.RegisterRoutes(api)

	return f
}

func (f *handlerFixture) do(t *testing.T, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	f.engine.ServeHTTP(w, req)
	return w
}

func decodeResponse(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()

	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func TestLedgerHandler_Health_DisabledSkipsProbe(t *testing.T) {
	f := newHandlerFixture()
	f.settings.settings = ledger.Settings{Enabled: false}

	w := f.do(t, http.MethodGet, "/api/v1/ledger/health", nil)

	require.Equal(t, http.StatusOK, w.Code)
	resp := decodeResponse(t, w)
	data := resp["data"].(map[string]interface{})
	assert.False(t, data["enabled"].(bool))
	assert.False(t, data["online"].(bool))
	assert.Zero(t, f.prober.probes)
}

func TestLedgerHandler_Health_EnabledProbes(t *testing.T) {
	f := newHandlerFixture()
	f.settings.settings = ledger.Settings{Enabled: true, Endpoint: "http://localhost:9000"}
	f.prober.status = ledger.HealthStatus{Online: true, Latency: 42 * time.Millisecond}

	w := f.do(t, http.MethodGet, "/api/v1/ledger/health", nil)

	require.Equal(t, http.StatusOK, w.Code)
	resp := decodeResponse(t, w)
	data := resp["data"].(map[string]interface{})
	assert.True(t, data["enabled"].(bool))
	assert.True(t, data["online"].(bool))
	assert.Equal(t, float64(42), data["latency_ms"])
	assert.Equal(t, 1, f.prober.probes)
}

func TestLedgerHandler_Health_ReportsProbeError(t *testing.T) {
	f := newHandlerFixture()
	f.settings.settings = ledger.Settings{Enabled: true, Endpoint: "http://localhost:9000"}
	f.prober.status = ledger.HealthStatus{Online: false, Err: "connection refused"}

	w := f.do(t, http.MethodGet, "/api/v1/ledger/health", nil)

	require.Equal(t, http.StatusOK, w.Code)
	resp := decodeResponse(t, w)
	data := resp["data"].(map[string]interface{})
	assert.False(t, data["online"].(bool))
	assert.Equal(t, "connection refused", data["error"])
}

func TestLedgerHandler_ListJobs_PassesFilter(t *testing.T) {
	f := newHandlerFixture()
	f.queueAdmin.listResult = &ledgersync.JobListResult{
		Jobs:       []ledgersync.SyncJobDTO{},
		Total:      0,
		Page:       2,
		PageSize:   10,
		TotalPages: 0,
	}

	w := f.do(t, http.MethodGet, "/api/v1/ledger/jobs?status=FAILED&entity_type=ORDER&page=2&page_size=10", nil)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "FAILED", f.queueAdmin.lastFilter.Status)
	assert.Equal(t, "ORDER", f.queueAdmin.lastFilter.EntityType)
	assert.Equal(t, 2, f.queueAdmin.lastFilter.Page)
	assert.Equal(t, 10, f.queueAdmin.lastFilter.PageSize)
}

func TestLedgerHandler_ListJobs_RejectsBadPagination(t *testing.T) {
	f := newHandlerFixture()

	w := f.do(t, http.MethodGet, "/api/v1/ledger/jobs?page_size=500", nil)

	require.Equal(t, http.StatusBadRequest, w.Code)
	resp := decodeResponse(t, w)
	assert.False(t, resp["success"].(bool))
}

func TestLedgerHandler_GetJob_InvalidID(t *testing.T) {
	f := newHandlerFixture()

	w := f.do(t, http.MethodGet, "/api/v1/ledger/jobs/not-a-uuid", nil)

	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestLedgerHandler_GetJob_NotFound(t *testing.T) {
	f := newHandlerFixture()
	f.queueAdmin.err = shared.NewDomainError("JOB_NOT_FOUND", "sync job not found")

	w := f.do(t, http.MethodGet, "/api/v1/ledger/jobs/"+uuid.NewString(), nil)

	require.Equal(t, http.StatusNotFound, w.Code)
	resp := decodeResponse(t, w)
	errInfo := resp["error"].(map[string]interface{})
	assert.Equal(t, "JOB_NOT_FOUND", errInfo["code"])
}

func TestLedgerHandler_RequeueJob_InvalidStatusConflicts(t *testing.T) {
	f := newHandlerFixture()
	f.queueAdmin.err = shared.NewDomainError("INVALID_STATUS", "only failed jobs can be requeued")

	w := f.do(t, http.MethodPost, "/api/v1/ledger/jobs/"+uuid.NewString()+"/requeue", nil)

	require.Equal(t, http.StatusConflict, w.Code)
}

func TestLedgerHandler_RequeueJob_Success(t *testing.T) {
	f := newHandlerFixture()
	id := uuid.New()
	f.queueAdmin.job = &ledgersync.SyncJobDTO{ID: id, Status: "PENDING"}

	w := f.do(t, http.MethodPost, "/api/v1/ledger/jobs/"+id.String()+"/requeue", nil)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, id, f.queueAdmin.lastJobID)
}

func TestLedgerHandler_RequeueAllFailed(t *testing.T) {
	f := newHandlerFixture()
	f.queueAdmin.requeued = 7

	w := f.do(t, http.MethodPost, "/api/v1/ledger/jobs/requeue-all", nil)

	require.Equal(t, http.StatusOK, w.Code)
	resp := decodeResponse(t, w)
	data := resp["data"].(map[string]interface{})
	assert.Equal(t, float64(7), data["requeued"])
}

func TestLedgerHandler_GetStats(t *testing.T) {
	f := newHandlerFixture()
	f.queueAdmin.stats = &ledgersync.QueueStatsDTO{Pending: 3, Failed: 1, Total: 4}

	w := f.do(t, http.MethodGet, "/api/v1/ledger/stats", nil)

	require.Equal(t, http.StatusOK, w.Code)
	resp := decodeResponse(t, w)
	data := resp["data"].(map[string]interface{})
	assert.Equal(t, float64(3), data["pending"])
	assert.Equal(t, float64(4), data["total"])
}

func TestLedgerHandler_TriggerReconcile_Accepted(t *testing.T) {
	f := newHandlerFixture()

	w := f.do(t, http.MethodPost, "/api/v1/ledger/reconcile", nil)

	require.Equal(t, http.StatusAccepted, w.Code)
	assert.Equal(t, 1, f.reconciler.triggered)
}

func TestLedgerHandler_TriggerReconcile_InProgressConflicts(t *testing.T) {
	f := newHandlerFixture()
	f.reconciler.triggerErr = scheduler.ErrReconcileInProgress

	w := f.do(t, http.MethodPost, "/api/v1/ledger/reconcile", nil)

	require.Equal(t, http.StatusConflict, w.Code)
	resp := decodeResponse(t, w)
	errInfo := resp["error"].(map[string]interface{})
	assert.Equal(t, "RECONCILE_IN_PROGRESS", errInfo["code"])
}

func TestLedgerHandler_TriggerReconcile_SchedulerStopped(t *testing.T) {
	f := newHandlerFixture()
	f.reconciler.triggerErr = scheduler.ErrSchedulerNotRunning

	w := f.do(t, http.MethodPost, "/api/v1/ledger/reconcile", nil)

	require.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestLedgerHandler_ReconcileRuns(t *testing.T) {
	f := newHandlerFixture()
	f.reconciler.runs = []*scheduler.ReconcileRun{
		{ID: uuid.New(), Trigger: "manual", Status: scheduler.ReconcileRunStatusSuccess},
	}

	w := f.do(t, http.MethodGet, "/api/v1/ledger/reconcile/runs", nil)

	require.Equal(t, http.StatusOK, w.Code)
	resp := decodeResponse(t, w)
	data := resp["data"].([]interface{})
	require.Len(t, data, 1)
}

func TestLedgerHandler_UpdateSettings_SavesAndInvalidates(t *testing.T) {
	f := newHandlerFixture()

	w := f.do(t, http.MethodPut, "/api/v1/ledger/settings", SettingsRequest{
		Enabled:     true,
		Endpoint:    "http://localhost:9000",
		CompanyName: "Acme Traders",
	})

	require.Equal(t, http.StatusOK, w.Code)
	require.Len(t, f.settings.saved, 1)
	assert.True(t, f.settings.saved[0].Enabled)
	assert.Equal(t, "Acme Traders", f.settings.saved[0].CompanyName)
	assert.Equal(t, 1, f.invalidator.calls)
}

func TestLedgerHandler_UpdateSettings_RequiresEndpointWhenEnabled(t *testing.T) {
	f := newHandlerFixture()

	w := f.do(t, http.MethodPut, "/api/v1/ledger/settings", SettingsRequest{Enabled: true})

	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Empty(t, f.settings.saved)
	assert.Zero(t, f.invalidator.calls)
}

func TestLedgerHandler_UpdateSettings_InvalidateFailureStillSucceeds(t *testing.T) {
	f := newHandlerFixture()
	f.invalidator.err = assert.AnError

	w := f.do(t, http.MethodPut, "/api/v1/ledger/settings", SettingsRequest{Enabled: false})

	require.Equal(t, http.StatusOK, w.Code)
	require.Len(t, f.settings.saved, 1)
}

func TestLedgerHandler_GetSettings(t *testing.T) {
	f := newHandlerFixture()
	f.settings.settings = ledger.Settings{Enabled: true, Endpoint: "http://localhost:9000", CompanyName: "Acme Traders"}

	w := f.do(t, http.MethodGet, "/api/v1/ledger/settings", nil)

	require.Equal(t, http.StatusOK, w.Code)
	resp := decodeResponse(t, w)
	data := resp["data"].(map[string]interface{})
	assert.Equal(t, "Acme Traders", data["company_name"])
}
