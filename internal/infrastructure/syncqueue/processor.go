package syncqueue

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/retailops/ledgersync/internal/domain/ledger"
	"github.com/retailops/ledgersync/internal/domain/trade"
)

// StatusPropagator writes a job's outcome onto the owning business transaction
type StatusPropagator interface {
	Propagate(ctx context.Context, ref ledger.EntityRef, status trade.LedgerSyncStatus, errLog, voucherRef string) error
}

// ProcessorConfig holds configuration for the queue processor
type ProcessorConfig struct {
	BatchSize    int
	PollInterval time.Duration
	// InterJobDelay spaces consecutive sends so the single-threaded ledger
	// system is never hammered
	InterJobDelay    time.Duration
	CleanupEnabled   bool
	CleanupRetention time.Duration
	CleanupInterval  time.Duration
}

// DefaultProcessorConfig returns default configuration
func DefaultProcessorConfig() ProcessorConfig {
	return ProcessorConfig{
		BatchSize:        25,
		PollInterval:     30 * time.Second,
		InterJobDelay:    200 * time.Millisecond,
		CleanupEnabled:   true,
		CleanupRetention: 30 * 24 * time.Hour,
		CleanupInterval:  1 * time.Hour,
	}
}

// Processor drains the sync queue in the background. It discovers liveness
// empirically rather than probing: each pass claims a batch and sends, and a
// transport-level failure ends the pass, releasing the unsent claims without
// burning attempts. Attempts only ever burn on real remote rejections.
type Processor struct {
	repo       ledger.SyncJobRepository
	settings   ledger.SettingsProvider
	sender     ledger.PayloadSender
	propagator StatusPropagator
	healthLog  ledger.HealthLogRepository
	config     ProcessorConfig
	logger     *zap.Logger

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewProcessor creates a queue processor
func NewProcessor(
	repo ledger.SyncJobRepository,
	settings ledger.SettingsProvider,
	sender ledger.PayloadSender,
	propagator StatusPropagator,
	healthLog ledger.HealthLogRepository,
	config ProcessorConfig,
	logger *zap.Logger,
) *Processor {
	return &Processor{
		repo:       repo,
		settings:   settings,
		sender:     sender,
		propagator: propagator,
		healthLog:  healthLog,
		config:     config,
		logger:     logger,
	}
}

// Start begins background processing. Jobs left in processing by a previous
// run are returned to pending before the first cycle.
func (p *Processor) Start(ctx context.Context) error {
	reset, err := p.repo.ResetOrphaned(ctx)
	if err != nil {
		return err
	}
	if reset > 0 {
		p.logger.Warn("reset orphaned processing jobs to pending", zap.Int64("count", reset))
	}

	ctx, cancel := context.WithCancel(ctx)
	p.cancel = cancel

	p.wg.Add(1)
	go p.processLoop(ctx)

	if p.config.CleanupEnabled {
		p.wg.Add(1)
		go p.cleanupLoop(ctx)
	}

	p.logger.Info("sync queue processor started",
		zap.Int("batch_size", p.config.BatchSize),
		zap.Duration("poll_interval", p.config.PollInterval),
	)

	return nil
}

// Stop gracefully stops the processor
func (p *Processor) Stop(ctx context.Context) error {
	if p.cancel != nil {
		p.cancel()
	}

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		p.logger.Info("sync queue processor stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// processLoop is the main polling loop
func (p *Processor) processLoop(ctx context.Context) {
	defer p.wg.Done()

	ticker := time.NewTicker(p.config.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.RunOnce(ctx)
		}
	}
}

// DrainStats summarizes one drain cycle
type DrainStats struct {
	Processed int
	Synced    int
	Failed    int
}

// RunOnce executes a single drain cycle and reports what it did. It is also
// invoked directly by the admin API for operator-triggered drains.
func (p *Processor) RunOnce(ctx context.Context) DrainStats {
	var stats DrainStats

	settings, err := p.settings.Get(ctx)
	if err != nil {
		p.logger.Error("failed to load integration settings", zap.Error(err))
		return stats
	}
	if !settings.Enabled {
		return stats
	}

	jobs, err := p.repo.ClaimPending(ctx, p.config.BatchSize)
	if err != nil {
		p.logger.Error("failed to claim pending jobs", zap.Error(err))
		return stats
	}
	if len(jobs) == 0 {
		return stats
	}

	for i, job := range jobs {
		select {
		case <-ctx.Done():
			// Return unsent claims to pending so the next run picks them up
			// instead of waiting for orphan recovery.
			p.releaseClaims(jobs[i:])
			p.appendDrainLog(ctx, stats, true)
			return stats
		default:
		}

		if i > 0 && p.config.InterJobDelay > 0 {
			if !p.pause(ctx, p.config.InterJobDelay) {
				p.releaseClaims(jobs[i:])
				p.appendDrainLog(ctx, stats, true)
				return stats
			}
		}

		switch p.processJob(ctx, job) {
		case jobSynced:
			stats.Processed++
			stats.Synced++
		case jobFailed:
			stats.Processed++
			stats.Failed++
		case jobUnreachable:
			// The remote is offline; the claimed-but-unsent jobs go back to
			// pending untouched so nothing burns attempts on reachability.
			p.logger.Info("ledger system unreachable, ending drain cycle",
				zap.Int("released", len(jobs)-i))
			p.releaseClaims(jobs[i:])
			p.appendDrainLog(ctx, stats, false)
			return stats
		}
	}

	p.appendDrainLog(ctx, stats, true)
	p.logger.Info("drain cycle finished",
		zap.Int("processed", stats.Processed),
		zap.Int("synced", stats.Synced),
		zap.Int("failed", stats.Failed),
	)
	return stats
}

// pause waits out the inter-job delay, returning false when the context is
// cancelled before the delay elapses
func (p *Processor) pause(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}

// jobOutcome is the drain-level result of delivering one claimed job
type jobOutcome int

const (
	jobSynced jobOutcome = iota
	jobFailed
	jobUnreachable
)

// processJob delivers one claimed job and persists the resulting transition.
// A transport-level failure reports the remote as unreachable and leaves the
// job untouched; the caller releases the claim.
func (p *Processor) processJob(ctx context.Context, job *ledger.SyncJob) jobOutcome {
	resp, sendErr := p.sender.Send(ctx, job.Payload)

	if resp == nil || resp.Outcome == ledger.OutcomeTransportError {
		reason := "transport error"
		if sendErr != nil {
			reason = sendErr.Error()
		}
		p.logger.Debug("payload did not reach the ledger system",
			zap.String("job_id", job.ID.String()),
			zap.String("reason", reason),
		)
		return jobUnreachable
	}

	if resp.Outcome.Accepted() {
		if err := job.MarkSynced(resp.Raw); err != nil {
			p.logger.Error("failed to mark job synced", zap.Error(err), zap.String("job_id", job.ID.String()))
			return jobFailed
		}
		if err := p.repo.Update(ctx, job); err != nil {
			p.logger.Error("failed to persist synced job", zap.Error(err), zap.String("job_id", job.ID.String()))
			return jobFailed
		}
		if job.JobType.IsVoucher() {
			if err := p.propagator.Propagate(ctx, job.Ref(), trade.LedgerSyncSaved, "", resp.VoucherRef); err != nil {
				p.logger.Error("failed to mark transaction saved", zap.Error(err),
					zap.String("entity_id", job.EntityID.String()))
			}
		}
		p.logger.Debug("sync job delivered",
			zap.String("job_id", job.ID.String()),
			zap.String("job_type", string(job.JobType)),
		)
		return jobSynced
	}

	reason := "ledger system rejected payload"
	if resp.Message != "" {
		reason = resp.Message
	}

	if err := job.MarkFailed(reason); err != nil {
		p.logger.Error("failed to mark job failed", zap.Error(err), zap.String("job_id", job.ID.String()))
		return jobFailed
	}
	if err := p.repo.Update(ctx, job); err != nil {
		p.logger.Error("failed to persist failed job", zap.Error(err), zap.String("job_id", job.ID.String()))
		return jobFailed
	}

	if job.JobType.IsVoucher() {
		status := trade.LedgerSyncQueued
		if job.Exhausted() {
			status = trade.LedgerSyncFailed
			p.logger.Warn("sync job exhausted its attempts",
				zap.String("job_id", job.ID.String()),
				zap.String("job_type", string(job.JobType)),
				zap.Int("attempts", job.Attempts),
				zap.String("last_error", job.LastError),
			)
		}
		if err := p.propagator.Propagate(ctx, job.Ref(), status, reason, ""); err != nil {
			p.logger.Error("failed to propagate job failure", zap.Error(err),
				zap.String("entity_id", job.EntityID.String()))
		}
	}
	return jobFailed
}

// releaseClaims returns claimed-but-unsent jobs to pending on shutdown
func (p *Processor) releaseClaims(jobs []*ledger.SyncJob) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	for _, job := range jobs {
		job.Status = ledger.JobStatusPending
		job.UpdatedAt = time.Now()
		if err := p.repo.Update(ctx, job); err != nil {
			p.logger.Error("failed to release claimed job", zap.Error(err), zap.String("job_id", job.ID.String()))
		}
	}
}

func (p *Processor) appendDrainLog(ctx context.Context, stats DrainStats, online bool) {
	entry := ledger.NewHealthLog(ledger.HealthLogKindDrain)
	entry.Online = online
	entry.ProcessedCnt = stats.Processed
	entry.SyncedCnt = stats.Synced
	entry.FailedCnt = stats.Failed
	if err := p.healthLog.Append(ctx, entry); err != nil {
		p.logger.Debug("failed to append drain health log", zap.Error(err))
	}
}

// cleanupLoop periodically removes old synced jobs
func (p *Processor) cleanupLoop(ctx context.Context) {
	defer p.wg.Done()

	ticker := time.NewTicker(p.config.CleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.cleanup(ctx)
		}
	}
}

// cleanup removes synced jobs older than the retention window
func (p *Processor) cleanup(ctx context.Context) {
	cutoff := time.Now().Add(-p.config.CleanupRetention)
	deleted, err := p.repo.DeleteSyncedOlderThan(ctx, cutoff)
	if err != nil {
		p.logger.Error("failed to clean up old sync jobs", zap.Error(err))
		return
	}

	if deleted > 0 {
		p.logger.Info("cleaned up old synced jobs",
			zap.Int64("deleted", deleted),
			zap.Time("cutoff", cutoff),
		)
	}
}
