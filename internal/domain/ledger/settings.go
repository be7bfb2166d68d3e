package ledger

import "context"

// Settings holds the runtime-tunable integration settings. They are stored
// centrally so operators can disable the integration without a redeploy.
type Settings struct {
	// Enabled gates the whole integration; when false, dispatch short-circuits
	// with no entity mutation and no queueing
	Enabled bool
	// Endpoint is the ledger system's HTTP endpoint
	Endpoint string
	// CompanyName is the ledger-system company the vouchers post into
	CompanyName string
}

// SettingsProvider exposes the integration settings to the dispatcher and
// orchestrator. Implementations may cache; the staleness window is the
// provider's configured TTL, never an ad hoc global.
type SettingsProvider interface {
	Get(ctx context.Context) (Settings, error)
}
