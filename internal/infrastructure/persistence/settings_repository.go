package persistence

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/retailops/ledgersync/internal/domain/ledger"
	"github.com/retailops/ledgersync/internal/infrastructure/persistence/models"
)

// settingsRowID pins the settings table to a single row
const settingsRowID = 1

// GormSettingsRepository reads and writes the integration settings row.
// The cache layer wraps it with a TTL; this type always hits the database.
type GormSettingsRepository struct {
	db *gorm.DB
}

// NewGormSettingsRepository creates a new GORM-based settings repository
func NewGormSettingsRepository(db *gorm.DB) *GormSettingsRepository {
	return &GormSettingsRepository{db: db}
}

// Get loads the current settings. A missing row means the integration was
// never configured and resolves to disabled defaults.
func (r *GormSettingsRepository) Get(ctx context.Context) (ledger.Settings, error) {
	var model models.LedgerSettingsModel
	err := r.db.WithContext(ctx).Where("id = ?", settingsRowID).First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ledger.Settings{}, nil
		}
		return ledger.Settings{}, err
	}
	return model.ToDomain(), nil
}

// Save upserts the settings row
func (r *GormSettingsRepository) Save(ctx context.Context, settings ledger.Settings) error {
	model := models.LedgerSettingsModel{
		ID:          settingsRowID,
		Enabled:     settings.Enabled,
		Endpoint:    settings.Endpoint,
		CompanyName: settings.CompanyName,
	}
	return r.db.WithContext(ctx).Save(&model).Error
}

var _ ledger.SettingsProvider = (*GormSettingsRepository)(nil)
