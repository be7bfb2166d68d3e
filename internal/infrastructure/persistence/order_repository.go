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

// GormOrderRepository implements trade.OrderRepository using GORM
type GormOrderRepository struct {
	db *gorm.DB
}

// NewGormOrderRepository creates a new GORM-based order repository
func NewGormOrderRepository(db *gorm.DB) *GormOrderRepository {
	return &GormOrderRepository{db: db}
}

// FindByID retrieves an order with its lines and tax lines
func (r *GormOrderRepository) FindByID(ctx context.Context, id uuid.UUID) (*trade.Order, error) {
	var model models.OrderModel
	err := r.db.WithContext(ctx).
		Preload("Lines").
		Preload("TaxLines").
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

// FindUnacknowledged returns orders whose voucher the ledger system has not
// accepted yet, excluding cancelled orders. These orders make up the pending
// demand subtracted during stock reconciliation.
func (r *GormOrderRepository) FindUnacknowledged(ctx context.Context) ([]*trade.Order, error) {
	var rows []models.OrderModel
	err := r.db.WithContext(ctx).
		Preload("Lines").
		Where("ledger_sync_status <> ? AND status <> ?", trade.LedgerSyncSaved, trade.OrderStatusCancelled).
		Order("created_at ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}

	orders := make([]*trade.Order, len(rows))
	for i, row := range rows {
		orders[i] = row.ToDomain()
	}
	return orders, nil
}

// UpdateLedgerStatus writes the sync status side effects onto an order
func (r *GormOrderRepository) UpdateLedgerStatus(ctx context.Context, id uuid.UUID, status trade.LedgerSyncStatus, errLog, voucherRef string) error {
	updates := map[string]interface{}{
		"ledger_sync_status": status,
		"ledger_error_log":   errLog,
		"updated_at":         time.Now(),
	}
	if voucherRef != "" {
		updates["ledger_voucher_ref"] = voucherRef
	}

	result := r.db.WithContext(ctx).Model(&models.OrderModel{}).
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

var _ trade.OrderRepository = (*GormOrderRepository)(nil)
