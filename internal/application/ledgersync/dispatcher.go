package ledgersync

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/retailops/ledgersync/internal/domain/ledger"
	"github.com/retailops/ledgersync/internal/domain/trade"
)

// DispatchResult is the structured outcome of a dispatch. Dispatch never
// returns a Go error: every failure mode is absorbed into this result and the
// corresponding queue/entity state.
type DispatchResult struct {
	// Sent means the payload reached the ledger system directly
	Sent bool
	// Queued means the payload sits in the sync queue for later delivery
	Queued bool
	// Error carries the reason when the payload was neither sent cleanly nor
	// could be dispatched at all (integration disabled)
	Error string
}

// PayloadDispatcher is the dispatch surface the orchestrator depends on
type PayloadDispatcher interface {
	Dispatch(ctx context.Context, payload string, jobType ledger.JobType, ref ledger.EntityRef) DispatchResult
}

// Dispatcher decides, per payload, between an immediate direct send and a
// deferred queue entry, and maintains the owning transaction's sync status.
type Dispatcher struct {
	settings    ledger.SettingsProvider
	prober      ledger.HealthProber
	sender      ledger.PayloadSender
	queue       ledger.SyncJobRepository
	writers     *StatusWriterRegistry
	healthLog   ledger.HealthLogRepository
	maxAttempts int
	logger      *zap.Logger
}

// NewDispatcher creates a dispatcher
func NewDispatcher(
	settings ledger.SettingsProvider,
	prober ledger.HealthProber,
	sender ledger.PayloadSender,
	queue ledger.SyncJobRepository,
	writers *StatusWriterRegistry,
	healthLog ledger.HealthLogRepository,
	maxAttempts int,
	logger *zap.Logger,
) *Dispatcher {
	if maxAttempts <= 0 {
		maxAttempts = ledger.DefaultMaxAttempts
	}
	return &Dispatcher{
		settings:    settings,
		prober:      prober,
		sender:      sender,
		queue:       queue,
		writers:     writers,
		healthLog:   healthLog,
		maxAttempts: maxAttempts,
		logger:      logger,
	}
}

// Dispatch delivers a payload directly when the ledger system is reachable,
// and otherwise (or on any failure) parks it in the sync queue. The payload
// is never silently dropped: any panic below is converted into an enqueue.
func (d *Dispatcher) Dispatch(ctx context.Context, payload string, jobType ledger.JobType, ref ledger.EntityRef) (result DispatchResult) {
	defer func() {
		if r := recover(); r != nil {
			d.logger.Error("panic during dispatch, falling back to enqueue",
				zap.Any("panic", r),
				zap.String("entity_type", string(ref.EntityType)),
				zap.String("entity_id", ref.EntityID.String()),
			)
			result = d.enqueue(ctx, payload, jobType, ref, fmt.Sprintf("dispatch panic: %v", r))
		}
	}()

	settings, err := d.settings.Get(ctx)
	if err != nil {
		// Cannot tell whether the integration is enabled; queueing is the
		// only path that guarantees nothing is lost.
		d.logger.Error("failed to load integration settings", zap.Error(err))
		return d.enqueue(ctx, payload, jobType, ref, "settings unavailable: "+err.Error())
	}
	if !settings.Enabled {
		return DispatchResult{Sent: false, Queued: false, Error: "ledger integration disabled"}
	}

	health := d.prober.Probe(ctx)
	d.appendProbeLog(ctx, health)

	if !health.Online {
		d.logger.Info("ledger system offline, queueing payload",
			zap.String("job_type", string(jobType)),
			zap.String("entity_id", ref.EntityID.String()),
			zap.String("probe_error", health.Err),
		)
		return d.enqueue(ctx, payload, jobType, ref, "")
	}

	resp, sendErr := d.sender.Send(ctx, payload)
	d.appendSendLog(ctx, resp, sendErr)

	if resp != nil && resp.Outcome.Accepted() {
		if jobType.IsVoucher() {
			if err := d.writers.Propagate(ctx, ref, trade.LedgerSyncSaved, "", resp.VoucherRef); err != nil {
				d.logger.Error("failed to mark transaction saved", zap.Error(err),
					zap.String("entity_id", ref.EntityID.String()))
			}
		}
		return DispatchResult{Sent: true}
	}

	reason := "ledger system rejected payload"
	if resp != nil && resp.Message != "" {
		reason = resp.Message
	} else if sendErr != nil {
		reason = sendErr.Error()
	}
	d.logger.Warn("direct send failed, queueing payload",
		zap.String("job_type", string(jobType)),
		zap.String("entity_id", ref.EntityID.String()),
		zap.String("reason", reason),
	)
	return d.enqueue(ctx, payload, jobType, ref, reason)
}

// enqueue parks the payload through the idempotent queue store and flips the
// owning transaction to queued. A queued transaction is not failed: a retry
// will follow.
func (d *Dispatcher) enqueue(ctx context.Context, payload string, jobType ledger.JobType, ref ledger.EntityRef, reason string) DispatchResult {
	job := ledger.NewSyncJob(payload, jobType, ref)
	job.MaxAttempts = d.maxAttempts
	if reason != "" {
		job.LastError = reason
	}

	stored, err := d.queue.Enqueue(ctx, job)
	if err != nil {
		d.logger.Error("failed to enqueue sync job",
			zap.Error(err),
			zap.String("job_type", string(jobType)),
			zap.String("entity_id", ref.EntityID.String()),
		)
		return DispatchResult{Error: "enqueue failed: " + err.Error()}
	}

	// A fingerprint match against an already-synced job means the remote
	// system holds this exact payload; there is nothing left to deliver and
	// no active job remains that could propagate the outcome later.
	if stored.Status == ledger.JobStatusSynced {
		if jobType.IsVoucher() {
			if err := d.writers.Propagate(ctx, ref, trade.LedgerSyncSaved, "", ""); err != nil {
				d.logger.Error("failed to mark transaction saved", zap.Error(err),
					zap.String("entity_id", ref.EntityID.String()))
			}
		}
		return DispatchResult{Sent: true}
	}

	if jobType.IsVoucher() {
		if err := d.writers.Propagate(ctx, ref, trade.LedgerSyncQueued, reason, ""); err != nil {
			d.logger.Error("failed to mark transaction queued", zap.Error(err),
				zap.String("entity_id", ref.EntityID.String()))
		}
	}
	return DispatchResult{Queued: true, Error: reason}
}

var _ PayloadDispatcher = (*Dispatcher)(nil)

func (d *Dispatcher) appendProbeLog(ctx context.Context, health ledger.HealthStatus) {
	entry := ledger.NewHealthLog(ledger.HealthLogKindProbe)
	entry.Online = health.Online
	entry.LatencyMs = health.Latency.Milliseconds()
	entry.Error = health.Err
	if err := d.healthLog.Append(ctx, entry); err != nil {
		d.logger.Debug("failed to append probe health log", zap.Error(err))
	}
}

func (d *Dispatcher) appendSendLog(ctx context.Context, resp *ledger.Response, sendErr error) {
	entry := ledger.NewHealthLog(ledger.HealthLogKindSend)
	if resp != nil {
		entry.Online = resp.Outcome != ledger.OutcomeTransportError
		entry.Error = resp.Message
	} else if sendErr != nil {
		entry.Error = sendErr.Error()
	}
	if err := d.healthLog.Append(ctx, entry); err != nil {
		d.logger.Debug("failed to append send health log", zap.Error(err))
	}
}
