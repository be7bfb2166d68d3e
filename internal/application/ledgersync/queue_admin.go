package ledgersync

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/retailops/ledgersync/internal/domain/ledger"
	"github.com/retailops/ledgersync/internal/domain/shared"
)

// QueueAdminService exposes sync-queue inspection and operator actions
type QueueAdminService struct {
	repo   ledger.SyncJobRepository
	logger *zap.Logger
}

// NewQueueAdminService creates a queue admin service
func NewQueueAdminService(repo ledger.SyncJobRepository, logger *zap.Logger) *QueueAdminService {
	return &QueueAdminService{
		repo:   repo,
		logger: logger,
	}
}

// SyncJobDTO represents a sync job data transfer object
type SyncJobDTO struct {
	ID          uuid.UUID  `json:"id"`
	JobType     string     `json:"job_type"`
	EntityType  string     `json:"entity_type"`
	EntityID    uuid.UUID  `json:"entity_id"`
	Status      string     `json:"status"`
	Attempts    int        `json:"attempts"`
	MaxAttempts int        `json:"max_attempts"`
	LastError   string     `json:"last_error,omitempty"`
	SyncedAt    *time.Time `json:"synced_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// JobListFilter represents filter for querying sync jobs
type JobListFilter struct {
	Status     string `form:"status,omitempty"`
	JobType    string `form:"job_type,omitempty"`
	EntityType string `form:"entity_type,omitempty"`
	Page       int    `form:"page,omitempty" binding:"omitempty,min=1"`
	PageSize   int    `form:"page_size,omitempty" binding:"omitempty,min=1,max=100"`
}

// JobListResult represents a paginated sync job list result
type JobListResult struct {
	Jobs       []SyncJobDTO `json:"jobs"`
	Total      int64        `json:"total"`
	Page       int          `json:"page"`
	PageSize   int          `json:"page_size"`
	TotalPages int          `json:"total_pages"`
}

// QueueStatsDTO represents sync queue statistics
type QueueStatsDTO struct {
	Pending    int64 `json:"pending"`
	Processing int64 `json:"processing"`
	Synced     int64 `json:"synced"`
	Failed     int64 `json:"failed"`
	Total      int64 `json:"total"`
}

// ListJobs retrieves sync jobs with pagination
func (s *QueueAdminService) ListJobs(ctx context.Context, filter JobListFilter) (*JobListResult, error) {
	page := filter.Page
	if page < 1 {
		page = 1
	}
	pageSize := filter.PageSize
	if pageSize < 1 {
		pageSize = 20
	}
	if pageSize > 100 {
		pageSize = 100
	}

	domainFilter := ledger.SyncJobFilter{Page: page, PageSize: pageSize}
	if filter.Status != "" {
		status := ledger.JobStatus(filter.Status)
		domainFilter.Status = &status
	}
	if filter.JobType != "" {
		jobType := ledger.JobType(filter.JobType)
		domainFilter.JobType = &jobType
	}
	if filter.EntityType != "" {
		entityType := ledger.EntityType(filter.EntityType)
		domainFilter.EntityType = &entityType
	}

	jobs, total, err := s.repo.FindAll(ctx, domainFilter)
	if err != nil {
		s.logger.Error("Failed to list sync jobs", zap.Error(err))
		return nil, shared.NewDomainError("INTERNAL_ERROR", "Failed to retrieve sync jobs")
	}

	totalPages := int(total) / pageSize
	if int(total)%pageSize > 0 {
		totalPages++
	}

	jobDTOs := make([]SyncJobDTO, len(jobs))
	for i, job := range jobs {
		jobDTOs[i] = toSyncJobDTO(job)
	}

	return &JobListResult{
		Jobs:       jobDTOs,
		Total:      total,
		Page:       page,
		PageSize:   pageSize,
		TotalPages: totalPages,
	}, nil
}

// GetJob retrieves a single sync job by ID
func (s *QueueAdminService) GetJob(ctx context.Context, id uuid.UUID) (*SyncJobDTO, error) {
	job, err := s.repo.FindByID(ctx, id)
	if err != nil {
		s.logger.Error("Failed to find sync job", zap.Error(err), zap.String("id", id.String()))
		return nil, shared.NewDomainError("JOB_NOT_FOUND", "Sync job not found")
	}
	if job == nil {
		return nil, shared.NewDomainError("JOB_NOT_FOUND", "Sync job not found")
	}

	dto := toSyncJobDTO(job)
	return &dto, nil
}

// RequeueJob clones a terminally failed job into a fresh pending job. The
// failed job itself stays terminal; the clone goes through the idempotent
// enqueue path like any other job.
func (s *QueueAdminService) RequeueJob(ctx context.Context, id uuid.UUID) (*SyncJobDTO, error) {
	job, err := s.repo.FindByID(ctx, id)
	if err != nil {
		s.logger.Error("Failed to find sync job", zap.Error(err), zap.String("id", id.String()))
		return nil, shared.NewDomainError("JOB_NOT_FOUND", "Sync job not found")
	}
	if job == nil {
		return nil, shared.NewDomainError("JOB_NOT_FOUND", "Sync job not found")
	}

	clone, err := job.CloneForRequeue()
	if err != nil {
		return nil, shared.NewDomainError("INVALID_STATUS", err.Error())
	}

	enqueued, err := s.repo.Enqueue(ctx, clone)
	if err != nil {
		s.logger.Error("Failed to requeue sync job", zap.Error(err), zap.String("id", id.String()))
		return nil, shared.NewDomainError("INTERNAL_ERROR", "Failed to requeue job")
	}

	s.logger.Info("Failed sync job requeued",
		zap.String("failed_job_id", id.String()),
		zap.String("new_job_id", enqueued.ID.String()),
		zap.String("job_type", string(enqueued.JobType)),
	)

	dto := toSyncJobDTO(enqueued)
	return &dto, nil
}

// RequeueAllFailed clones every terminally failed job into a fresh pending job
func (s *QueueAdminService) RequeueAllFailed(ctx context.Context) (int64, error) {
	var count int64
	failed := ledger.JobStatusFailed
	page := 1
	pageSize := 100

	for {
		jobs, _, err := s.repo.FindAll(ctx, ledger.SyncJobFilter{Status: &failed, Page: page, PageSize: pageSize})
		if err != nil {
			s.logger.Error("Failed to list failed sync jobs", zap.Error(err))
			return count, shared.NewDomainError("INTERNAL_ERROR", "Failed to retrieve failed jobs")
		}

		if len(jobs) == 0 {
			break
		}

		for _, job := range jobs {
			clone, err := job.CloneForRequeue()
			if err != nil {
				continue
			}
			if _, err := s.repo.Enqueue(ctx, clone); err != nil {
				s.logger.Error("Failed to requeue sync job", zap.Error(err), zap.String("id", job.ID.String()))
				continue
			}
			count++
		}

		if len(jobs) < pageSize {
			break
		}
		page++
	}

	s.logger.Info("Requeued failed sync jobs", zap.Int64("count", count))

	return count, nil
}

// GetStats returns sync queue statistics
func (s *QueueAdminService) GetStats(ctx context.Context) (*QueueStatsDTO, error) {
	counts, err := s.repo.CountByStatus(ctx)
	if err != nil {
		s.logger.Error("Failed to get sync queue stats", zap.Error(err))
		return nil, shared.NewDomainError("INTERNAL_ERROR", "Failed to get queue stats")
	}

	var total int64
	for _, count := range counts {
		total += count
	}

	return &QueueStatsDTO{
		Pending:    counts[ledger.JobStatusPending],
		Processing: counts[ledger.JobStatusProcessing],
		Synced:     counts[ledger.JobStatusSynced],
		Failed:     counts[ledger.JobStatusFailed],
		Total:      total,
	}, nil
}

// toSyncJobDTO converts a domain SyncJob to SyncJobDTO
func toSyncJobDTO(job *ledger.SyncJob) SyncJobDTO {
	return SyncJobDTO{
		ID:          job.ID,
		JobType:     string(job.JobType),
		EntityType:  string(job.EntityType),
		EntityID:    job.EntityID,
		Status:      string(job.Status),
		Attempts:    job.Attempts,
		MaxAttempts: job.MaxAttempts,
		LastError:   job.LastError,
		SyncedAt:    job.SyncedAt,
		CreatedAt:   job.CreatedAt,
		UpdatedAt:   job.UpdatedAt,
	}
}
