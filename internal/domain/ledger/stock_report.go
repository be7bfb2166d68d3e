package ledger

import (
	"context"

	"github.com/shopspring/decimal"
)

// StockBalance is one line of the ledger system's stock report: the remote
// stock item name and its reported closing balance.
type StockBalance struct {
	Name    string
	Closing decimal.Decimal
}

// StockReportFetcher pulls the name-to-closing-balance report from the ledger
// system. The snapshot is ephemeral; reconciliation never caches it.
type StockReportFetcher interface {
	FetchStockReport(ctx context.Context) ([]StockBalance, error)
}
