package ledger

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"time"

	"github.com/google/uuid"
)

// JobStatus represents the lifecycle status of a sync job
type JobStatus string

const (
	JobStatusPending    JobStatus = "PENDING"
	JobStatusProcessing JobStatus = "PROCESSING"
	JobStatusSynced     JobStatus = "SYNCED"
	JobStatusFailed     JobStatus = "FAILED"
)

// JobType identifies the kind of ledger-system record a payload creates
type JobType string

const (
	JobTypeVoucherSale     JobType = "VOUCHER_SALE"
	JobTypeVoucherPurchase JobType = "VOUCHER_PURCHASE"
	JobTypeVoucherMemo     JobType = "VOUCHER_MEMO"
	JobTypeLedger          JobType = "LEDGER"
	JobTypeStockItem       JobType = "STOCK_ITEM"
	JobTypeUnit            JobType = "UNIT"
	JobTypeOther           JobType = "OTHER"
)

// IsVoucher returns true for transactional voucher types. Only voucher jobs
// propagate their outcome to the owning business transaction's sync status.
func (t JobType) IsVoucher() bool {
	switch t {
	case JobTypeVoucherSale, JobTypeVoucherPurchase, JobTypeVoucherMemo:
		return true
	default:
		return false
	}
}

// IsValid returns true if the job type is a known type
func (t JobType) IsValid() bool {
	switch t {
	case JobTypeVoucherSale, JobTypeVoucherPurchase, JobTypeVoucherMemo,
		JobTypeLedger, JobTypeStockItem, JobTypeUnit, JobTypeOther:
		return true
	default:
		return false
	}
}

// EntityType identifies the kind of business transaction a job belongs to
type EntityType string

const (
	EntityTypeOrder       EntityType = "ORDER"
	EntityTypeStockEntry  EntityType = "STOCK_ENTRY"
	EntityTypeProcurement EntityType = "PROCUREMENT_REQUEST"
)

// EntityRef points at the business record that owns a sync job
type EntityRef struct {
	EntityType EntityType
	EntityID   uuid.UUID
}

// DefaultMaxAttempts bounds retries before a job is declared failed
const DefaultMaxAttempts = 5

// SyncJob is a unit of deferred delivery work: an opaque payload destined for
// the ledger system, plus the retry bookkeeping needed to drive it to a
// terminal state.
type SyncJob struct {
	ID                 uuid.UUID
	PayloadFingerprint string
	Payload            string
	JobType            JobType
	EntityType         EntityType
	EntityID           uuid.UUID
	Status             JobStatus
	Attempts           int
	MaxAttempts        int
	LastError          string
	RemoteResponse     string
	SyncedAt           *time.Time
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// Fingerprint returns the content hash used to collapse true duplicates of a
// payload independent of business context.
func Fingerprint(payload string) string {
	sum := sha256.Sum256([]byte(payload))
	return hex.EncodeToString(sum[:])
}

// NewSyncJob creates a pending sync job for the given payload and owner
func NewSyncJob(payload string, jobType JobType, ref EntityRef) *SyncJob {
	now := time.Now()
	return &SyncJob{
		ID:                 uuid.New(),
		PayloadFingerprint: Fingerprint(payload),
		Payload:            payload,
		JobType:            jobType,
		EntityType:         ref.EntityType,
		EntityID:           ref.EntityID,
		Status:             JobStatusPending,
		Attempts:           0,
		MaxAttempts:        DefaultMaxAttempts,
		CreatedAt:          now,
		UpdatedAt:          now,
	}
}

// Ref returns the owning entity reference
func (j *SyncJob) Ref() EntityRef {
	return EntityRef{EntityType: j.EntityType, EntityID: j.EntityID}
}

// IsTerminal returns true once the job can never transition again
func (j *SyncJob) IsTerminal() bool {
	return j.Status == JobStatusSynced || j.Status == JobStatusFailed
}

// IsActive returns true while the job still counts against the one-active-job
// invariant for its entity reference.
func (j *SyncJob) IsActive() bool {
	return j.Status == JobStatusPending || j.Status == JobStatusProcessing
}

// MarkProcessing claims a pending job for delivery
func (j *SyncJob) MarkProcessing() error {
	if j.Status != JobStatusPending {
		return errors.New("only pending jobs can be claimed for processing")
	}
	j.Status = JobStatusProcessing
	j.UpdatedAt = time.Now()
	return nil
}

// MarkSynced records a successful (or duplicate-as-success) delivery.
// Attempts is deliberately left alone: it counts failures, not sends.
func (j *SyncJob) MarkSynced(remoteResponse string) error {
	if j.IsTerminal() {
		return errors.New("job is already in a terminal state")
	}
	now := time.Now()
	j.Status = JobStatusSynced
	j.RemoteResponse = remoteResponse
	j.LastError = ""
	j.SyncedAt = &now
	j.UpdatedAt = now
	return nil
}

// MarkFailed records a delivery failure. The job returns to pending until
// attempts are exhausted, at which point it becomes terminally failed.
func (j *SyncJob) MarkFailed(errMsg string) error {
	if j.IsTerminal() {
		return errors.New("job is already in a terminal state")
	}
	j.Attempts++
	j.LastError = errMsg
	j.UpdatedAt = time.Now()

	if j.Attempts >= j.MaxAttempts {
		j.Status = JobStatusFailed
	} else {
		j.Status = JobStatusPending
	}
	return nil
}

// Exhausted returns true when the job failed terminally
func (j *SyncJob) Exhausted() bool {
	return j.Status == JobStatusFailed
}

// CloneForRequeue creates a fresh pending job carrying the same payload and
// owner. Terminal jobs are never resurrected; operator-driven retries go
// through a new job instead.
func (j *SyncJob) CloneForRequeue() (*SyncJob, error) {
	if j.Status != JobStatusFailed {
		return nil, errors.New("only failed jobs can be requeued")
	}
	clone := NewSyncJob(j.Payload, j.JobType, j.Ref())
	clone.MaxAttempts = j.MaxAttempts
	return clone, nil
}

// SyncJobFilter defines filter criteria for listing sync jobs
type SyncJobFilter struct {
	Status     *JobStatus
	JobType    *JobType
	EntityType *EntityType
	// Page number (1-indexed)
	Page int
	// Page size
	PageSize int
}

// SyncJobRepository defines the interface for the persistent sync queue store
type SyncJobRepository interface {
	// Enqueue persists a job idempotently. If a job with the same payload
	// fingerprint is already synced or in flight, or another job for the same
	// entity reference is still active, that existing job is returned instead
	// and no new row is created.
	Enqueue(ctx context.Context, job *SyncJob) (*SyncJob, error)

	// ClaimPending atomically claims up to limit pending jobs, oldest first,
	// flipping them to processing. Concurrent claimers never receive the same
	// job.
	ClaimPending(ctx context.Context, limit int) ([]*SyncJob, error)

	// Update persists state transitions of a claimed job
	Update(ctx context.Context, job *SyncJob) error

	// FindByID retrieves a single job
	FindByID(ctx context.Context, id uuid.UUID) (*SyncJob, error)

	// FindActiveByEntity retrieves the pending or processing job for an
	// entity reference, or nil if none exists
	FindActiveByEntity(ctx context.Context, ref EntityRef) (*SyncJob, error)

	// FindAll lists jobs matching the filter with total count
	FindAll(ctx context.Context, filter SyncJobFilter) ([]*SyncJob, int64, error)

	// ResetOrphaned returns jobs stuck in processing (a previous process died
	// mid-send) to pending, and reports how many were reset
	ResetOrphaned(ctx context.Context) (int64, error)

	// CountByStatus returns job counts per status
	CountByStatus(ctx context.Context) (map[JobStatus]int64, error)

	// DeleteSyncedOlderThan removes synced jobs older than the cutoff and
	// reports how many were deleted. Failed jobs are kept for the operator.
	DeleteSyncedOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}
