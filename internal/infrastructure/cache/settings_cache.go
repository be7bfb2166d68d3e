package cache

import (
	"context"

	"github.com/retailops/ledgersync/internal/domain/ledger"
)

// SettingsProvider is a cached settings source. Invalidate drops the cached
// value so the next Get reads through to the store; the settings admin calls
// it after every save.
type SettingsProvider interface {
	ledger.SettingsProvider
	Invalidate(ctx context.Context) error
	Close() error
}
