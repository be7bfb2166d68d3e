package ledger

import (
	"context"
	"time"
)

// HealthStatus is the outcome of a reachability probe against the ledger
// system
type HealthStatus struct {
	Online  bool
	Latency time.Duration
	Err     string
}

// HealthProber issues a minimal side-effect-free request against the ledger
// system. Implementations never let transport failures escape; they resolve
// to an offline status instead.
type HealthProber interface {
	Probe(ctx context.Context) HealthStatus
}

// PayloadSender delivers one opaque payload to the ledger system and returns
// the classified response. A transport-level failure is reported both through
// the response outcome and the returned error.
type PayloadSender interface {
	Send(ctx context.Context, payload string) (*Response, error)
}
