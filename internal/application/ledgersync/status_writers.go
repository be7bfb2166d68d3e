package ledgersync

import (
	"context"

	"github.com/google/uuid"

	"github.com/retailops/ledgersync/internal/domain/ledger"
	"github.com/retailops/ledgersync/internal/domain/shared"
	"github.com/retailops/ledgersync/internal/domain/trade"
)

// LedgerStatusWriter is the narrow write surface a business-transaction
// repository exposes to the sync subsystem.
type LedgerStatusWriter interface {
	UpdateLedgerStatus(ctx context.Context, id uuid.UUID, status trade.LedgerSyncStatus, errLog, voucherRef string) error
}

// StatusWriterRegistry maps entity types to their status writers. The mapping
// is fixed at wiring time, so propagation dispatches on a typed enum instead
// of looking models up by name at runtime.
type StatusWriterRegistry struct {
	writers map[ledger.EntityType]LedgerStatusWriter
}

// NewStatusWriterRegistry creates a registry over the given writers
func NewStatusWriterRegistry(
	orders LedgerStatusWriter,
	stockEntries LedgerStatusWriter,
	procurements LedgerStatusWriter,
) *StatusWriterRegistry {
	return &StatusWriterRegistry{
		writers: map[ledger.EntityType]LedgerStatusWriter{
			ledger.EntityTypeOrder:       orders,
			ledger.EntityTypeStockEntry:  stockEntries,
			ledger.EntityTypeProcurement: procurements,
		},
	}
}

// Propagate writes a sync status onto the business transaction behind ref
func (r *StatusWriterRegistry) Propagate(ctx context.Context, ref ledger.EntityRef, status trade.LedgerSyncStatus, errLog, voucherRef string) error {
	writer, ok := r.writers[ref.EntityType]
	if !ok {
		return shared.NewDomainError("UNKNOWN_ENTITY_TYPE", "No status writer registered for entity type "+string(ref.EntityType))
	}
	return writer.UpdateLedgerStatus(ctx, ref.EntityID, status, errLog, voucherRef)
}
