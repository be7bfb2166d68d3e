package tally

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/retailops/ledgersync/internal/domain/catalog"
	"github.com/retailops/ledgersync/internal/domain/trade"
)

// Fixed ledger and group names the integration posts under. These must match
// what the response classifier expects in "does not exist" rejections.
const (
	salesLedgerName    = "Sales"
	purchaseLedgerName = "Purchase"
	roundingLedgerName = "Rounded Off"

	salesGroupName     = "Sales Accounts"
	purchaseGroupName  = "Purchase Accounts"
	taxGroupName       = "Duties & Taxes"
	roundingGroupName  = "Indirect Expenses"
	customerGroupName  = "Sundry Debtors"
	supplierGroupName  = "Sundry Creditors"
	stockItemGroupName = "Primary"
)

// PayloadFactory builds the XML payload strings posted to the ledger system.
// One method per record kind; the orchestrator consumes them as opaque
// builder functions and never inspects the contents.
type PayloadFactory struct {
	companyName string
}

// NewPayloadFactory creates a payload factory posting into the given company
func NewPayloadFactory(companyName string) *PayloadFactory {
	return &PayloadFactory{companyName: companyName}
}

// xmlEscape escapes the five XML special characters in text content
func xmlEscape(s string) string {
	r := strings.NewReplacer(
		"&", "&amp;",
		"<", "&lt;",
		">", "&gt;",
		`"`, "&quot;",
		"'", "&apos;",
	)
	return r.Replace(s)
}

// importEnvelope wraps a TALLYMESSAGE body in the import-data envelope
func (f *PayloadFactory) importEnvelope(reportName, message string) string {
	var b strings.Builder
	b.WriteString("<ENVELOPE><HEADER><TALLYREQUEST>Import Data</TALLYREQUEST></HEADER><BODY><IMPORTDATA><REQUESTDESC>")
	fmt.Fprintf(&b, "<REPORTNAME>%s</REPORTNAME>", reportName)
	fmt.Fprintf(&b, "<STATICVARIABLES><SVCURRENTCOMPANY>%s</SVCURRENTCOMPANY></STATICVARIABLES>", xmlEscape(f.companyName))
	b.WriteString("</REQUESTDESC><REQUESTDATA><TALLYMESSAGE>")
	b.WriteString(message)
	b.WriteString("</TALLYMESSAGE></REQUESTDATA></IMPORTDATA></BODY></ENVELOPE>")
	return b.String()
}

// Unit builds a unit-of-measure master
func (f *PayloadFactory) Unit(unitName string) string {
	msg := fmt.Sprintf(`<UNIT NAME="%s" ACTION="Create"><NAME>%s</NAME><ISSIMPLEUNIT>Yes</ISSIMPLEUNIT></UNIT>`,
		xmlEscape(unitName), xmlEscape(unitName))
	return f.importEnvelope("All Masters", msg)
}

// ledgerMaster builds an accounting ledger master under the given group
func (f *PayloadFactory) ledgerMaster(name, group string) string {
	msg := fmt.Sprintf(`<LEDGER NAME="%s" ACTION="Create"><NAME>%s</NAME><PARENT>%s</PARENT></LEDGER>`,
		xmlEscape(name), xmlEscape(name), xmlEscape(group))
	return f.importEnvelope("All Masters", msg)
}

// SalesLedger builds the sales account ledger master
func (f *PayloadFactory) SalesLedger() string {
	return f.ledgerMaster(salesLedgerName, salesGroupName)
}

// PurchaseLedger builds the purchase account ledger master
func (f *PayloadFactory) PurchaseLedger() string {
	return f.ledgerMaster(purchaseLedgerName, purchaseGroupName)
}

// TaxLedger builds a tax head ledger master
func (f *PayloadFactory) TaxLedger(tax trade.TaxLine) string {
	return f.ledgerMaster(tax.Name, taxGroupName)
}

// RoundingLedger builds the rounding adjustment ledger master
func (f *PayloadFactory) RoundingLedger() string {
	return f.ledgerMaster(roundingLedgerName, roundingGroupName)
}

// CustomerLedger builds a customer (debtor) ledger master
func (f *PayloadFactory) CustomerLedger(name, phone string) string {
	var b strings.Builder
	fmt.Fprintf(&b, `<LEDGER NAME="%s" ACTION="Create"><NAME>%s</NAME><PARENT>%s</PARENT>`,
		xmlEscape(name), xmlEscape(name), customerGroupName)
	if phone != "" {
		fmt.Fprintf(&b, "<LEDGERPHONE>%s</LEDGERPHONE>", xmlEscape(phone))
	}
	b.WriteString("</LEDGER>")
	return f.importEnvelope("All Masters", b.String())
}

// SupplierLedger builds a supplier (creditor) ledger master
func (f *PayloadFactory) SupplierLedger(name, phone string) string {
	var b strings.Builder
	fmt.Fprintf(&b, `<LEDGER NAME="%s" ACTION="Create"><NAME>%s</NAME><PARENT>%s</PARENT>`,
		xmlEscape(name), xmlEscape(name), supplierGroupName)
	if phone != "" {
		fmt.Fprintf(&b, "<LEDGERPHONE>%s</LEDGERPHONE>", xmlEscape(phone))
	}
	b.WriteString("</LEDGER>")
	return f.importEnvelope("All Masters", b.String())
}

// StockItem builds a stock item master for a product or one of its variants
func (f *PayloadFactory) StockItem(p *catalog.Product, v *catalog.Variant) string {
	name := catalog.StockItemName(p, v)
	unit := p.UnitName
	if unit == "" {
		unit = "pcs"
	}
	msg := fmt.Sprintf(`<STOCKITEM NAME="%s" ACTION="Create"><NAME>%s</NAME><PARENT>%s</PARENT><BASEUNITS>%s</BASEUNITS></STOCKITEM>`,
		xmlEscape(name), xmlEscape(name), stockItemGroupName, xmlEscape(unit))
	return f.importEnvelope("All Masters", msg)
}

// amount renders a decimal with two places, the form the import expects
func amount(d decimal.Decimal) string {
	return d.StringFixed(2)
}

// SalesVoucher builds the sales voucher for an order: customer debited for
// the grand total; sales, tax heads and rounding credited; one inventory
// entry per line.
func (f *PayloadFactory) SalesVoucher(o *trade.Order) string {
	var b strings.Builder
	fmt.Fprintf(&b, `<VOUCHER VCHTYPE="Sales" ACTION="Create">`)
	fmt.Fprintf(&b, "<DATE>%s</DATE>", o.CreatedAt.Format("20060102"))
	fmt.Fprintf(&b, "<VOUCHERNUMBER>%s</VOUCHERNUMBER>", xmlEscape(o.OrderNumber))
	fmt.Fprintf(&b, "<PARTYLEDGERNAME>%s</PARTYLEDGERNAME>", xmlEscape(o.CustomerName))

	fmt.Fprintf(&b, "<ALLLEDGERENTRIES.LIST><LEDGERNAME>%s</LEDGERNAME><ISDEEMEDPOSITIVE>Yes</ISDEEMEDPOSITIVE><AMOUNT>-%s</AMOUNT></ALLLEDGERENTRIES.LIST>",
		xmlEscape(o.CustomerName), amount(o.GrandTotal))

	for _, line := range o.Lines {
		lineAmount := line.Quantity.Mul(line.Rate)
		fmt.Fprintf(&b, "<ALLINVENTORYENTRIES.LIST><STOCKITEMNAME>%s</STOCKITEMNAME><ISDEEMEDPOSITIVE>No</ISDEEMEDPOSITIVE>",
			xmlEscape(line.ItemName()))
		fmt.Fprintf(&b, "<RATE>%s</RATE><AMOUNT>%s</AMOUNT><ACTUALQTY>%s %s</ACTUALQTY><BILLEDQTY>%s %s</BILLEDQTY>",
			amount(line.Rate), amount(lineAmount),
			line.Quantity.String(), xmlEscape(line.UnitName),
			line.Quantity.String(), xmlEscape(line.UnitName))
		fmt.Fprintf(&b, "<ACCOUNTINGALLOCATIONS.LIST><LEDGERNAME>%s</LEDGERNAME><AMOUNT>%s</AMOUNT></ACCOUNTINGALLOCATIONS.LIST>",
			salesLedgerName, amount(lineAmount))
		b.WriteString("</ALLINVENTORYENTRIES.LIST>")
	}

	for _, tax := range o.TaxLines {
		fmt.Fprintf(&b, "<ALLLEDGERENTRIES.LIST><LEDGERNAME>%s</LEDGERNAME><ISDEEMEDPOSITIVE>No</ISDEEMEDPOSITIVE><AMOUNT>%s</AMOUNT></ALLLEDGERENTRIES.LIST>",
			xmlEscape(tax.Name), amount(tax.Amount))
	}

	if !o.RoundingAmount.IsZero() {
		fmt.Fprintf(&b, "<ALLLEDGERENTRIES.LIST><LEDGERNAME>%s</LEDGERNAME><ISDEEMEDPOSITIVE>No</ISDEEMEDPOSITIVE><AMOUNT>%s</AMOUNT></ALLLEDGERENTRIES.LIST>",
			roundingLedgerName, amount(o.RoundingAmount))
	}

	b.WriteString("</VOUCHER>")
	return f.importEnvelope("Vouchers", b.String())
}

// CreditNote builds the reversing voucher for a cancelled order. Same shape
// as the sales voucher with the entries inverted.
func (f *PayloadFactory) CreditNote(o *trade.Order) string {
	var b strings.Builder
	fmt.Fprintf(&b, `<VOUCHER VCHTYPE="Credit Note" ACTION="Create">`)
	fmt.Fprintf(&b, "<DATE>%s</DATE>", o.UpdatedAt.Format("20060102"))
	fmt.Fprintf(&b, "<VOUCHERNUMBER>%s-CN</VOUCHERNUMBER>", xmlEscape(o.OrderNumber))
	fmt.Fprintf(&b, "<PARTYLEDGERNAME>%s</PARTYLEDGERNAME>", xmlEscape(o.CustomerName))

	fmt.Fprintf(&b, "<ALLLEDGERENTRIES.LIST><LEDGERNAME>%s</LEDGERNAME><ISDEEMEDPOSITIVE>No</ISDEEMEDPOSITIVE><AMOUNT>%s</AMOUNT></ALLLEDGERENTRIES.LIST>",
		xmlEscape(o.CustomerName), amount(o.GrandTotal))

	for _, line := range o.Lines {
		lineAmount := line.Quantity.Mul(line.Rate)
		fmt.Fprintf(&b, "<ALLINVENTORYENTRIES.LIST><STOCKITEMNAME>%s</STOCKITEMNAME><ISDEEMEDPOSITIVE>Yes</ISDEEMEDPOSITIVE>",
			xmlEscape(line.ItemName()))
		fmt.Fprintf(&b, "<RATE>%s</RATE><AMOUNT>-%s</AMOUNT><ACTUALQTY>%s %s</ACTUALQTY><BILLEDQTY>%s %s</BILLEDQTY>",
			amount(line.Rate), amount(lineAmount),
			line.Quantity.String(), xmlEscape(line.UnitName),
			line.Quantity.String(), xmlEscape(line.UnitName))
		fmt.Fprintf(&b, "<ACCOUNTINGALLOCATIONS.LIST><LEDGERNAME>%s</LEDGERNAME><AMOUNT>-%s</AMOUNT></ACCOUNTINGALLOCATIONS.LIST>",
			salesLedgerName, amount(lineAmount))
		b.WriteString("</ALLINVENTORYENTRIES.LIST>")
	}

	for _, tax := range o.TaxLines {
		fmt.Fprintf(&b, "<ALLLEDGERENTRIES.LIST><LEDGERNAME>%s</LEDGERNAME><ISDEEMEDPOSITIVE>Yes</ISDEEMEDPOSITIVE><AMOUNT>-%s</AMOUNT></ALLLEDGERENTRIES.LIST>",
			xmlEscape(tax.Name), amount(tax.Amount))
	}

	if !o.RoundingAmount.IsZero() {
		fmt.Fprintf(&b, "<ALLLEDGERENTRIES.LIST><LEDGERNAME>%s</LEDGERNAME><ISDEEMEDPOSITIVE>Yes</ISDEEMEDPOSITIVE><AMOUNT>-%s</AMOUNT></ALLLEDGERENTRIES.LIST>",
			roundingLedgerName, amount(o.RoundingAmount))
	}

	b.WriteString("</VOUCHER>")
	return f.importEnvelope("Vouchers", b.String())
}

// PurchaseVoucher builds the purchase voucher for a stock entry: supplier
// credited, purchase account debited, inventory received per line.
func (f *PayloadFactory) PurchaseVoucher(e *trade.StockEntry) string {
	var b strings.Builder
	fmt.Fprintf(&b, `<VOUCHER VCHTYPE="Purchase" ACTION="Create">`)
	fmt.Fprintf(&b, "<DATE>%s</DATE>", e.CreatedAt.Format("20060102"))
	fmt.Fprintf(&b, "<VOUCHERNUMBER>%s</VOUCHERNUMBER>", xmlEscape(e.EntryNumber))
	fmt.Fprintf(&b, "<PARTYLEDGERNAME>%s</PARTYLEDGERNAME>", xmlEscape(e.SupplierName))

	fmt.Fprintf(&b, "<ALLLEDGERENTRIES.LIST><LEDGERNAME>%s</LEDGERNAME><ISDEEMEDPOSITIVE>No</ISDEEMEDPOSITIVE><AMOUNT>%s</AMOUNT></ALLLEDGERENTRIES.LIST>",
		xmlEscape(e.SupplierName), amount(e.GrandTotal))

	for _, line := range e.Lines {
		lineAmount := line.Quantity.Mul(line.Rate)
		fmt.Fprintf(&b, "<ALLINVENTORYENTRIES.LIST><STOCKITEMNAME>%s</STOCKITEMNAME><ISDEEMEDPOSITIVE>Yes</ISDEEMEDPOSITIVE>",
			xmlEscape(line.ItemName()))
		fmt.Fprintf(&b, "<RATE>%s</RATE><AMOUNT>-%s</AMOUNT><ACTUALQTY>%s %s</ACTUALQTY><BILLEDQTY>%s %s</BILLEDQTY>",
			amount(line.Rate), amount(lineAmount),
			line.Quantity.String(), xmlEscape(line.UnitName),
			line.Quantity.String(), xmlEscape(line.UnitName))
		fmt.Fprintf(&b, "<ACCOUNTINGALLOCATIONS.LIST><LEDGERNAME>%s</LEDGERNAME><AMOUNT>-%s</AMOUNT></ACCOUNTINGALLOCATIONS.LIST>",
			purchaseLedgerName, amount(lineAmount))
		b.WriteString("</ALLINVENTORYENTRIES.LIST>")
	}

	b.WriteString("</VOUCHER>")
	return f.importEnvelope("Vouchers", b.String())
}

// MemoVoucher builds a non-accounting memorandum voucher recording a
// procurement request without touching the books
func (f *PayloadFactory) MemoVoucher(r *trade.ProcurementRequest) string {
	narration := fmt.Sprintf("Procurement request %s for %s: %s x %s %s",
		r.RequestNumber, r.CustomerName, r.Description, r.Quantity.String(), r.UnitName)

	var b strings.Builder
	fmt.Fprintf(&b, `<VOUCHER VCHTYPE="Memo Voucher" ACTION="Create">`)
	fmt.Fprintf(&b, "<DATE>%s</DATE>", r.CreatedAt.Format("20060102"))
	fmt.Fprintf(&b, "<VOUCHERNUMBER>%s</VOUCHERNUMBER>", xmlEscape(r.RequestNumber))
	fmt.Fprintf(&b, "<NARRATION>%s</NARRATION>", xmlEscape(narration))
	b.WriteString("</VOUCHER>")
	return f.importEnvelope("Vouchers", b.String())
}
