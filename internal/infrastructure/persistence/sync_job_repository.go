package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/retailops/ledgersync/internal/domain/ledger"
	"github.com/retailops/ledgersync/internal/domain/shared"
	"github.com/retailops/ledgersync/internal/infrastructure/persistence/models"
)

// GormSyncJobRepository implements ledger.SyncJobRepository using GORM
type GormSyncJobRepository struct {
	db *gorm.DB
}

// NewGormSyncJobRepository creates a new GORM-based sync job repository
func NewGormSyncJobRepository(db *gorm.DB) *GormSyncJobRepository {
	return &GormSyncJobRepository{db: db}
}

// activeStatuses are the statuses that keep a job eligible for delivery
var activeStatuses = []ledger.JobStatus{
	ledger.JobStatusPending,
	ledger.JobStatusProcessing,
}

// collapsibleStatuses are the statuses an enqueue collapses against by
// fingerprint. Failed jobs are deliberately excluded so an operator requeue
// of the same payload creates a fresh job.
var collapsibleStatuses = []ledger.JobStatus{
	ledger.JobStatusSynced,
	ledger.JobStatusPending,
	ledger.JobStatusProcessing,
}

// Enqueue persists a job idempotently. Byte-identical payloads collapse onto
// the existing synced or in-flight job regardless of type. The entity-ref
// collapse applies to voucher jobs only: a corrective re-dispatch may
// regenerate a different voucher payload for the same entity, and collapsing
// it onto the active voucher job keeps the queue from flooding. Master-data
// jobs (units, ledgers, stock items) share the entity ref of their owning
// transaction, so an entity-wide collapse would swallow every phase after the
// first; their payloads are deterministic and the fingerprint check already
// absorbs their true duplicates.
func (r *GormSyncJobRepository) Enqueue(ctx context.Context, job *ledger.SyncJob) (*ledger.SyncJob, error) {
	var result *ledger.SyncJob

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing models.SyncJobModel

		err := tx.
			Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("payload_fingerprint = ? AND status IN ?", job.PayloadFingerprint, collapsibleStatuses).
			Order("created_at ASC").
			First(&existing).Error
		if err == nil {
			result = existing.ToDomain()
			return nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		if job.JobType.IsVoucher() {
			err = tx.
				Clauses(clause.Locking{Strength: "UPDATE"}).
				Where("entity_type = ? AND entity_id = ? AND job_type = ? AND status IN ?",
					job.EntityType, job.EntityID, job.JobType, activeStatuses).
				Order("created_at ASC").
				First(&existing).Error
			if err == nil {
				result = existing.ToDomain()
				return nil
			}
			if !errors.Is(err, gorm.ErrRecordNotFound) {
				return err
			}
		}

		model := models.SyncJobModelFromDomain(job)
		if err := tx.Create(model).Error; err != nil {
			return err
		}
		result = job
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// ClaimPending atomically claims up to limit pending jobs, oldest first.
// SKIP LOCKED keeps concurrent claimers from ever receiving the same job.
func (r *GormSyncJobRepository) ClaimPending(ctx context.Context, limit int) ([]*ledger.SyncJob, error) {
	var claimed []*ledger.SyncJob

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var rows []models.SyncJobModel
		if err := tx.
			Clauses(clause.Locking{
				Strength: "UPDATE",
				Options:  "SKIP LOCKED",
			}).
			Where("status = ?", ledger.JobStatusPending).
			Order("created_at ASC").
			Limit(limit).
			Find(&rows).Error; err != nil {
			return err
		}

		if len(rows) == 0 {
			return nil
		}

		ids := make([]uuid.UUID, len(rows))
		for i, row := range rows {
			ids[i] = row.ID
		}

		now := time.Now()
		if err := tx.Model(&models.SyncJobModel{}).
			Where("id IN ?", ids).
			Updates(map[string]interface{}{
				"status":     ledger.JobStatusProcessing,
				"updated_at": now,
			}).Error; err != nil {
			return err
		}

		claimed = make([]*ledger.SyncJob, len(rows))
		for i, row := range rows {
			row.Status = ledger.JobStatusProcessing
			row.UpdatedAt = now
			claimed[i] = row.ToDomain()
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return claimed, nil
}

// Update persists state transitions of a job
func (r *GormSyncJobRepository) Update(ctx context.Context, job *ledger.SyncJob) error {
	model := models.SyncJobModelFromDomain(job)
	return r.db.WithContext(ctx).Save(model).Error
}

// FindByID retrieves a single sync job by ID
func (r *GormSyncJobRepository) FindByID(ctx context.Context, id uuid.UUID) (*ledger.SyncJob, error) {
	var model models.SyncJobModel
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindActiveByEntity retrieves the pending or processing job for an entity
// reference, or nil if none exists
func (r *GormSyncJobRepository) FindActiveByEntity(ctx context.Context, ref ledger.EntityRef) (*ledger.SyncJob, error) {
	var model models.SyncJobModel
	err := r.db.WithContext(ctx).
		Where("entity_type = ? AND entity_id = ? AND status IN ?", ref.EntityType, ref.EntityID, activeStatuses).
		Order("created_at ASC").
		First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindAll lists jobs matching the filter with total count
func (r *GormSyncJobRepository) FindAll(ctx context.Context, filter ledger.SyncJobFilter) ([]*ledger.SyncJob, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.SyncJobModel{})
	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}
	if filter.JobType != nil {
		query = query.Where("job_type = ?", *filter.JobType)
	}
	if filter.EntityType != nil {
		query = query.Where("entity_type = ?", *filter.EntityType)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	pageSize := filter.PageSize
	if pageSize < 1 {
		pageSize = 20
	}

	var rows []models.SyncJobModel
	if err := query.
		Order("created_at DESC").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&rows).Error; err != nil {
		return nil, 0, err
	}

	jobs := make([]*ledger.SyncJob, len(rows))
	for i, row := range rows {
		jobs[i] = row.ToDomain()
	}
	return jobs, total, nil
}

// ResetOrphaned returns jobs stuck in processing to pending
func (r *GormSyncJobRepository) ResetOrphaned(ctx context.Context) (int64, error) {
	result := r.db.WithContext(ctx).Model(&models.SyncJobModel{}).
		Where("status = ?", ledger.JobStatusProcessing).
		Updates(map[string]interface{}{
			"status":     ledger.JobStatusPending,
			"updated_at": time.Now(),
		})
	return result.RowsAffected, result.Error
}

// CountByStatus returns job counts per status
func (r *GormSyncJobRepository) CountByStatus(ctx context.Context) (map[ledger.JobStatus]int64, error) {
	type statusCount struct {
		Status ledger.JobStatus
		Count  int64
	}

	var results []statusCount
	err := r.db.WithContext(ctx).
		Model(&models.SyncJobModel{}).
		Select("status, count(*) as count").
		Group("status").
		Scan(&results).Error
	if err != nil {
		return nil, err
	}

	counts := make(map[ledger.JobStatus]int64)
	for _, row := range results {
		counts[row.Status] = row.Count
	}
	return counts, nil
}

// DeleteSyncedOlderThan removes synced jobs older than the cutoff
func (r *GormSyncJobRepository) DeleteSyncedOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("status = ? AND synced_at < ?", ledger.JobStatusSynced, cutoff).
		Delete(&models.SyncJobModel{})
	return result.RowsAffected, result.Error
}

// Ensure GormSyncJobRepository implements ledger.SyncJobRepository
var _ ledger.SyncJobRepository = (*GormSyncJobRepository)(nil)
