package tally

import (
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/retailops/ledgersync/internal/domain/ledger"
)

// stockReportRequest asks the ledger system for its stock item names and
// closing balances. The envelope is fixed; only the response varies.
const stockReportRequest = `<ENVELOPE>
	<HEADER>
		<TALLYREQUEST>Export Data</TALLYREQUEST>
	</HEADER>
	<BODY>
		<EXPORTDATA>
			<REQUESTDESC>
				<REPORTNAME>Stock Summary</REPORTNAME>
				<STATICVARIABLES>
					<SVEXPORTFORMAT>$$SysName:XML</SVEXPORTFORMAT>
				</STATICVARIABLES>
			</REQUESTDESC>
		</EXPORTDATA>
	</BODY>
</ENVELOPE>`

type stockReportEnvelope struct {
	Items []stockReportItem `xml:"STOCKITEM"`
}

type stockReportItem struct {
	Name    string `xml:"NAME,attr"`
	Closing string `xml:"CLOSINGBALANCE"`
}

// FetchStockReport pulls the name-to-closing-balance report. Items whose
// balance cannot be parsed are skipped with a warning rather than failing
// the whole report.
func (c *Client) FetchStockReport(ctx context.Context) ([]ledger.StockBalance, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.config.Endpoint, strings.NewReader(stockReportRequest))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "text/xml;charset=utf-8")

	resp, err := c.sendHTTP.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch stock report: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, fmt.Errorf("read stock report: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("fetch stock report: ledger system returned HTTP %d", resp.StatusCode)
	}

	return c.parseStockReport(body)
}

func (c *Client) parseStockReport(body []byte) ([]ledger.StockBalance, error) {
	var envelope stockReportEnvelope
	if err := xml.Unmarshal(body, &envelope); err != nil {
		return nil, fmt.Errorf("parse stock report: %w", err)
	}

	balances := make([]ledger.StockBalance, 0, len(envelope.Items))
	for _, item := range envelope.Items {
		if item.Name == "" {
			continue
		}
		qty, err := parseClosingBalance(item.Closing)
		if err != nil {
			c.logger.Warn("skipping stock item with unparsable balance",
				zap.String("item", item.Name),
				zap.String("closing", item.Closing),
			)
			continue
		}
		balances = append(balances, ledger.StockBalance{Name: item.Name, Closing: qty})
	}
	return balances, nil
}

// parseClosingBalance extracts the quantity from a closing balance string.
// The ledger system reports balances as "<qty> <unit>" (e.g. "12 pcs"),
// bare numbers, or empty for zero stock.
func parseClosingBalance(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, nil
	}
	fields := strings.Fields(s)
	return decimal.NewFromString(fields[0])
}
