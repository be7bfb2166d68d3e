package ledger

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// HealthLogKind identifies which activity produced a health log entry
type HealthLogKind string

const (
	HealthLogKindProbe HealthLogKind = "PROBE"
	HealthLogKindSend  HealthLogKind = "SEND"
	HealthLogKindDrain HealthLogKind = "DRAIN"
)

// HealthLog is an append-only observability record written on every probe,
// send and queue-drain outcome. It is a pure sink: nothing in the sync core
// reads it back.
type HealthLog struct {
	ID           uuid.UUID
	Kind         HealthLogKind
	Online       bool
	LatencyMs    int64
	Error        string
	ProcessedCnt int
	SyncedCnt    int
	FailedCnt    int
	CreatedAt    time.Time
}

// NewHealthLog creates a health log entry stamped with the current time
func NewHealthLog(kind HealthLogKind) *HealthLog {
	return &HealthLog{
		ID:        uuid.New(),
		Kind:      kind,
		CreatedAt: time.Now(),
	}
}

// HealthLogRepository defines the append-only health log sink
type HealthLogRepository interface {
	Append(ctx context.Context, entry *HealthLog) error
}
