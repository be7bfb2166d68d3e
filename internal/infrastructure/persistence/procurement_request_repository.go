package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/retailops/ledgersync/internal/domain/shared"
	"github.com/retailops/ledgersync/internal/domain/trade"
	"github.com/retailops/ledgersync/internal/infrastructure/persistence/models"
)

// GormProcurementRequestRepository implements trade.ProcurementRequestRepository using GORM
type GormProcurementRequestRepository struct {
	db *gorm.DB
}

// NewGormProcurementRequestRepository creates a new GORM-based procurement request repository
func NewGormProcurementRequestRepository(db *gorm.DB) *GormProcurementRequestRepository {
	return &GormProcurementRequestRepository{db: db}
}

// FindByID retrieves a procurement request
func (r *GormProcurementRequestRepository) FindByID(ctx context.Context, id uuid.UUID) (*trade.ProcurementRequest, error) {
	var model models.ProcurementRequestModel
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// UpdateLedgerStatus writes the sync status side effects onto a request
func (r *GormProcurementRequestRepository) UpdateLedgerStatus(ctx context.Context, id uuid.UUID, status trade.LedgerSyncStatus, errLog, voucherRef string) error {
	updates := map[string]interface{}{
		"ledger_sync_status": status,
		"ledger_error_log":   errLog,
		"updated_at":         time.Now(),
	}
	if voucherRef != "" {
		updates["ledger_voucher_ref"] = voucherRef
	}

	result := r.db.WithContext(ctx).Model(&models.ProcurementRequestModel{}).
		Where("id = ?", id).
		Updates(updates)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

var _ trade.ProcurementRequestRepository = (*GormProcurementRequestRepository)(nil)
