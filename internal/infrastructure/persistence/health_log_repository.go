package persistence

import (
	"context"

	"gorm.io/gorm"

	"github.com/retailops/ledgersync/internal/domain/ledger"
	"github.com/retailops/ledgersync/internal/infrastructure/persistence/models"
)

// GormHealthLogRepository implements ledger.HealthLogRepository using GORM
type GormHealthLogRepository struct {
	db *gorm.DB
}

// NewGormHealthLogRepository creates a new GORM-based health log repository
func NewGormHealthLogRepository(db *gorm.DB) *GormHealthLogRepository {
	return &GormHealthLogRepository{db: db}
}

// Append persists one health log entry
func (r *GormHealthLogRepository) Append(ctx context.Context, entry *ledger.HealthLog) error {
	model := &models.HealthLogModel{}
	model.FromDomain(entry)
	return r.db.WithContext(ctx).Create(model).Error
}

var _ ledger.HealthLogRepository = (*GormHealthLogRepository)(nil)
