package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ReconcileExecutor runs one stock reconciliation pass against the ledger
// system
type ReconcileExecutor interface {
	Execute(ctx context.Context) error
}

// ReconcileRunStatus represents the outcome of a reconciliation run
type ReconcileRunStatus string

const (
	ReconcileRunStatusRunning ReconcileRunStatus = "RUNNING"
	ReconcileRunStatusSuccess ReconcileRunStatus = "SUCCESS"
	ReconcileRunStatusFailed  ReconcileRunStatus = "FAILED"
)

// ReconcileRun records one reconciliation pass for monitoring
type ReconcileRun struct {
	ID          uuid.UUID
	Trigger     string // "interval" or "manual"
	Status      ReconcileRunStatus
	Error       string
	StartedAt   time.Time
	CompletedAt *time.Time
}

// ReconcileSchedulerConfig holds configuration for the reconcile scheduler
type ReconcileSchedulerConfig struct {
	// Enabled indicates if periodic reconciliation runs at all
	Enabled bool
	// Interval is the time between reconciliation passes
	Interval time.Duration
	// RunTimeout is the maximum time a single pass can take
	RunTimeout time.Duration
	// RunOnStart triggers one pass immediately after Start
	RunOnStart bool
}

// DefaultReconcileSchedulerConfig returns default configuration
func DefaultReconcileSchedulerConfig() ReconcileSchedulerConfig {
	return ReconcileSchedulerConfig{
		Enabled:    true,
		Interval:   15 * time.Minute,
		RunTimeout: 5 * time.Minute,
		RunOnStart: false,
	}
}

// Validate validates the configuration
func (c *ReconcileSchedulerConfig) Validate() error {
	if c.Interval <= 0 {
		return ErrInvalidConfig
	}
	if c.RunTimeout <= 0 {
		return ErrInvalidConfig
	}
	return nil
}

// ReconcileScheduler runs stock reconciliation on an interval and on demand.
// Passes never overlap; a manual trigger during a running pass is rejected.
type ReconcileScheduler struct {
	config   ReconcileSchedulerConfig
	executor ReconcileExecutor
	logger   *zap.Logger

	trigger   chan string
	cancel    context.CancelFunc
	wg        sync.WaitGroup
	mu        sync.Mutex
	isRunning bool
	inFlight  bool

	// Run history for monitoring (in-memory, limited size)
	historyMu  sync.RWMutex
	history    []*ReconcileRun
	maxHistory int
}

// NewReconcileScheduler creates a new reconcile scheduler
func NewReconcileScheduler(config ReconcileSchedulerConfig, executor ReconcileExecutor, logger *zap.Logger) (*ReconcileScheduler, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &ReconcileScheduler{
		config:     config,
		executor:   executor,
		logger:     logger,
		trigger:    make(chan string, 1),
		history:    make([]*ReconcileRun, 0, 50),
		maxHistory: 50,
	}, nil
}

// Start starts the scheduler
func (s *ReconcileScheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		return nil
	}
	s.isRunning = true
	s.mu.Unlock()

	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel

	s.wg.Add(1)
	go s.runLoop(ctx)

	s.logger.Info("Reconcile scheduler started",
		zap.Bool("enabled", s.config.Enabled),
		zap.Duration("interval", s.config.Interval),
		zap.Duration("run_timeout", s.config.RunTimeout),
	)

	if s.config.RunOnStart && s.config.Enabled {
		select {
		case s.trigger <- "interval":
		default:
		}
	}

	return nil
}

// Stop gracefully stops the scheduler
func (s *ReconcileScheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.isRunning {
		s.mu.Unlock()
		return nil
	}
	s.isRunning = false
	s.mu.Unlock()

	if s.cancel != nil {
		s.cancel()
	}

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.logger.Info("Reconcile scheduler stopped gracefully")
		return nil
	case <-ctx.Done():
		s.logger.Warn("Reconcile scheduler stop timed out")
		return ctx.Err()
	}
}

// TriggerNow requests an immediate reconciliation pass. It does not wait for
// the pass to finish.
func (s *ReconcileScheduler) TriggerNow() error {
	s.mu.Lock()
	if !s.isRunning {
		s.mu.Unlock()
		return ErrSchedulerNotRunning
	}
	if s.inFlight {
		s.mu.Unlock()
		return ErrReconcileInProgress
	}
	s.mu.Unlock()

	select {
	case s.trigger <- "manual":
		return nil
	default:
		// A trigger is already queued; the queued pass covers this request
		return nil
	}
}

// runLoop waits for the interval tick or a manual trigger
func (s *ReconcileScheduler) runLoop(ctx context.Context) {
	defer s.wg.Done()

	ticker := time.NewTicker(s.config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if s.config.Enabled {
				s.runOnce(ctx, "interval")
			}
		case trigger := <-s.trigger:
			s.runOnce(ctx, trigger)
		}
	}
}

// runOnce executes a single reconciliation pass and records it
func (s *ReconcileScheduler) runOnce(ctx context.Context, trigger string) {
	s.mu.Lock()
	s.inFlight = true
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		s.inFlight = false
		s.mu.Unlock()
	}()

	run := &ReconcileRun{
		ID:        uuid.New(),
		Trigger:   trigger,
		Status:    ReconcileRunStatusRunning,
		StartedAt: time.Now(),
	}

	s.logger.Info("Reconciliation pass starting",
		zap.String("run_id", run.ID.String()),
		zap.String("trigger", trigger),
	)

	runCtx, cancel := context.WithTimeout(ctx, s.config.RunTimeout)
	defer cancel()

	err := s.executor.Execute(runCtx)

	now := time.Now()
	run.CompletedAt = &now
	if err != nil {
		run.Status = ReconcileRunStatusFailed
		run.Error = err.Error()
		s.logger.Error("Reconciliation pass failed",
			zap.String("run_id", run.ID.String()),
			zap.String("trigger", trigger),
			zap.Error(err),
		)
	} else {
		run.Status = ReconcileRunStatusSuccess
		s.logger.Info("Reconciliation pass completed",
			zap.String("run_id", run.ID.String()),
			zap.String("trigger", trigger),
			zap.Duration("elapsed", now.Sub(run.StartedAt)),
		)
	}

	s.addToHistory(run)
}

// addToHistory adds a completed run to history
func (s *ReconcileScheduler) addToHistory(run *ReconcileRun) {
	s.historyMu.Lock()
	defer s.historyMu.Unlock()

	s.history = append([]*ReconcileRun{run}, s.history...)

	if len(s.history) > s.maxHistory {
		s.history = s.history[:s.maxHistory]
	}
}

// GetRunHistory returns recent run history, newest first
func (s *ReconcileScheduler) GetRunHistory(limit int) []*ReconcileRun {
	s.historyMu.RLock()
	defer s.historyMu.RUnlock()

	if limit <= 0 || limit > len(s.history) {
		limit = len(s.history)
	}

	result := make([]*ReconcileRun, limit)
	copy(result, s.history[:limit])
	return result
}
