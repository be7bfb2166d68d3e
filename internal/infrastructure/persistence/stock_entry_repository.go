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

// GormStockEntryRepository implements trade.StockEntryRepository using GORM
type GormStockEntryRepository struct {
	db *gorm.DB
}

// NewGormStockEntryRepository creates a new GORM-based stock entry repository
func NewGormStockEntryRepository(db *gorm.DB) *GormStockEntryRepository {
	return &GormStockEntryRepository{db: db}
}

// FindByID retrieves a stock entry with its lines
func (r *GormStockEntryRepository) FindByID(ctx context.Context, id uuid.UUID) (*trade.StockEntry, error) {
	var model models.StockEntryModel
	err := r.db.WithContext(ctx).
		Preload("Lines").
		Where("id = ?", id).
		First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// UpdateLedgerStatus writes the sync status side effects onto a stock entry
func (r *GormStockEntryRepository) UpdateLedgerStatus(ctx context.Context, id uuid.UUID, status trade.LedgerSyncStatus, errLog, voucherRef string) error {
	updates := map[string]interface{}{
		"ledger_sync_status": status,
		"ledger_error_log":   errLog,
		"updated_at":         time.Now(),
	}
	if voucherRef != "" {
		updates["ledger_voucher_ref"] = voucherRef
	}

	result := r.db.WithContext(ctx).Model(&models.StockEntryModel{}).
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

var _ trade.StockEntryRepository = (*GormStockEntryRepository)(nil)
