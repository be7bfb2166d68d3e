package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/retailops/ledgersync/internal/domain/ledger"
)

// SyncJobModel is the persistence model for the durable sync queue
type SyncJobModel struct {
	ID                 uuid.UUID         `gorm:"type:uuid;primaryKey"`
	PayloadFingerprint string            `gorm:"type:char(64);not null;index:idx_sync_jobs_fingerprint"`
	Payload            string            `gorm:"type:text;not null"`
	JobType            ledger.JobType    `gorm:"type:varchar(30);not null"`
	EntityType         ledger.EntityType `gorm:"type:varchar(30);not null;index:idx_sync_jobs_entity,priority:1"`
	EntityID           uuid.UUID         `gorm:"type:uuid;not null;index:idx_sync_jobs_entity,priority:2"`
	Status             ledger.JobStatus  `gorm:"type:varchar(20);not null;default:PENDING;index:idx_sync_jobs_status_created,priority:1"`
	Attempts           int               `gorm:"not null;default:0"`
	MaxAttempts        int               `gorm:"not null;default:5"`
	LastError          string            `gorm:"type:text"`
	RemoteResponse     string            `gorm:"type:text"`
	SyncedAt           *time.Time
	CreatedAt          time.Time `gorm:"not null;default:now();index:idx_sync_jobs_status_created,priority:2"`
	UpdatedAt          time.Time `gorm:"not null;default:now()"`
}

// TableName returns the table name for GORM
func (SyncJobModel) TableName() string {
	return "sync_jobs"
}

// ToDomain converts the persistence model to a domain SyncJob
func (m *SyncJobModel) ToDomain() *ledger.SyncJob {
	return &ledger.SyncJob{
		ID:                 m.ID,
		PayloadFingerprint: m.PayloadFingerprint,
		Payload:            m.Payload,
		JobType:            m.JobType,
		EntityType:         m.EntityType,
		EntityID:           m.EntityID,
		Status:             m.Status,
		Attempts:           m.Attempts,
		MaxAttempts:        m.MaxAttempts,
		LastError:          m.LastError,
		RemoteResponse:     m.RemoteResponse,
		SyncedAt:           m.SyncedAt,
		CreatedAt:          m.CreatedAt,
		UpdatedAt:          m.UpdatedAt,
	}
}

// FromDomain populates the persistence model from a domain SyncJob
func (m *SyncJobModel) FromDomain(j *ledger.SyncJob) {
	m.ID = j.ID
	m.PayloadFingerprint = j.PayloadFingerprint
	m.Payload = j.Payload
	m.JobType = j.JobType
	m.EntityType = j.EntityType
	m.EntityID = j.EntityID
	m.Status = j.Status
	m.Attempts = j.Attempts
	m.MaxAttempts = j.MaxAttempts
	m.LastError = j.LastError
	m.RemoteResponse = j.RemoteResponse
	m.SyncedAt = j.SyncedAt
	m.CreatedAt = j.CreatedAt
	m.UpdatedAt = j.UpdatedAt
}

// SyncJobModelFromDomain creates a new persistence model from a domain SyncJob
func SyncJobModelFromDomain(j *ledger.SyncJob) *SyncJobModel {
	m := &SyncJobModel{}
	m.FromDomain(j)
	return m
}

// HealthLogModel is the persistence model for the append-only health log
type HealthLogModel struct {
	ID           uuid.UUID            `gorm:"type:uuid;primaryKey"`
	Kind         ledger.HealthLogKind `gorm:"type:varchar(10);not null"`
	Online       bool                 `gorm:"not null;default:false"`
	LatencyMs    int64                `gorm:"not null;default:0"`
	Error        string               `gorm:"type:text"`
	ProcessedCnt int                  `gorm:"not null;default:0"`
	SyncedCnt    int                  `gorm:"not null;default:0"`
	FailedCnt    int                  `gorm:"not null;default:0"`
	CreatedAt    time.Time            `gorm:"not null;default:now();index:idx_sync_health_logs_created"`
}

// TableName returns the table name for GORM
func (HealthLogModel) TableName() string {
	return "sync_health_logs"
}

// FromDomain populates the persistence model from a domain HealthLog
func (m *HealthLogModel) FromDomain(e *ledger.HealthLog) {
	m.ID = e.ID
	m.Kind = e.Kind
	m.Online = e.Online
	m.LatencyMs = e.LatencyMs
	m.Error = e.Error
	m.ProcessedCnt = e.ProcessedCnt
	m.SyncedCnt = e.SyncedCnt
	m.FailedCnt = e.FailedCnt
	m.CreatedAt = e.CreatedAt
}

// LedgerSettingsModel is the persistence model for the integration settings
// row. A single row keyed by a fixed ID holds the current settings.
type LedgerSettingsModel struct {
	ID          int       `gorm:"primaryKey"`
	Enabled     bool      `gorm:"not null;default:false"`
	Endpoint    string    `gorm:"type:varchar(255);not null;default:''"`
	CompanyName string    `gorm:"type:varchar(255);not null;default:''"`
	UpdatedAt   time.Time `gorm:"not null;default:now()"`
}

// TableName returns the table name for GORM
func (LedgerSettingsModel) TableName() string {
	return "ledger_settings"
}

// ToDomain converts the persistence model to domain Settings
func (m *LedgerSettingsModel) ToDomain() ledger.Settings {
	return ledger.Settings{
		Enabled:     m.Enabled,
		Endpoint:    m.Endpoint,
		CompanyName: m.CompanyName,
	}
}
