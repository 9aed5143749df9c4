package http

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/odyssey-erp/bukubesar/internal/accounting/journals"
	"github.com/odyssey-erp/bukubesar/internal/amount"
	"github.com/odyssey-erp/bukubesar/internal/inventory"
	"github.com/odyssey-erp/bukubesar/internal/ledger"
	"github.com/odyssey-erp/bukubesar/internal/platform/httpx"
)

const dateLayout = "2006-01-02"

// Amount accepts a JSON number or a formatted string such as "Rp 1.500.000,50".
// Unreadable strings decode to zero with Fallback set.
type Amount struct {
	Value    decimal.Decimal
	Raw      string
	Fallback bool
}

// UnmarshalJSON implements json.Unmarshaler.
func (a *Amount) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*a = Amount{Value: decimal.Zero}
		return nil
	}
	var raw any
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		raw = s
		a.Raw = s
	} else {
		raw = json.Number(string(data))
		a.Raw = string(data)
	}
	v, ok := amount.TryParse(raw)
	a.Value = v
	a.Fallback = !ok
	return nil
}

// MarshalJSON renders the amount with two decimals.
func (a Amount) MarshalJSON() ([]byte, error) {
	return json.Marshal(a.Value.StringFixed(2))
}

// collect gathers fallback notices for the response.
type fallbacks []WarningVM

func (f *fallbacks) check(field string, a Amount) decimal.Decimal {
	if a.Fallback {
		*f = append(*f, WarningVM{Code: "PARSE_FALLBACK", Message: fmt.Sprintf("%s: %q read as 0", field, a.Raw)})
	}
	return a.Value
}

func parseDate(s string) (time.Time, error) {
	t, err := time.Parse(dateLayout, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: date %q", httpx.ErrBadRequest, s)
	}
	return t, nil
}

// LineRequest is one side of a transaction.
type LineRequest struct {
	Account string `json:"account" validate:"required"`
	Debit   Amount `json:"debit"`
	Credit  Amount `json:"credit"`
}

// TransactionRequest records a journal transaction.
type TransactionRequest struct {
	Date   string        `json:"date" validate:"required,datetime=2006-01-02"`
	Memo   string        `json:"memo" validate:"max=500"`
	Source string        `json:"source"`
	Lines  []LineRequest `json:"lines" validate:"required,min=2,dive"`
}

func parseSource(raw string) (journals.Source, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return journals.SourceGeneral, true
	}
	if src, ok := journals.ParseSource(raw); ok {
		return src, true
	}
	return journals.ParseSource(strings.ToUpper(raw))
}

func (r TransactionRequest) toInput(f *fallbacks) (journals.TransactionInput, error) {
	date, err := parseDate(r.Date)
	if err != nil {
		return journals.TransactionInput{}, err
	}
	src, ok := parseSource(r.Source)
	if !ok {
		return journals.TransactionInput{}, fmt.Errorf("%w: %q", journals.ErrInvalidSource, r.Source)
	}
	in := journals.TransactionInput{Date: date, Memo: strings.TrimSpace(r.Memo), Source: src}
	for i, line := range r.Lines {
		in.Lines = append(in.Lines, journals.LineInput{
			Account: strings.TrimSpace(line.Account),
			Debit:   f.check(fmt.Sprintf("lines[%d].debit", i), line.Debit),
			Credit:  f.check(fmt.Sprintf("lines[%d].credit", i), line.Credit),
		})
	}
	return in, nil
}

// OpeningBalanceRequest sets the opening balance of one account.
type OpeningBalanceRequest struct {
	Account string `json:"account" validate:"required"`
	Debit   Amount `json:"debit"`
	Credit  Amount `json:"credit"`
}

// OpeningStockRequest sets the opening quantity and cost of one item.
type OpeningStockRequest struct {
	Item     string `json:"item" validate:"required"`
	Qty      Amount `json:"qty"`
	UnitCost Amount `json:"unit_cost"`
}

// PurchaseRequest records a stock purchase.
type PurchaseRequest struct {
	Date          string `json:"date" validate:"required,datetime=2006-01-02"`
	Item          string `json:"item" validate:"required"`
	Qty           Amount `json:"qty"`
	UnitPrice     Amount `json:"unit_price"`
	CreditAccount string `json:"credit_account"`
	Memo          string `json:"memo" validate:"max=500"`
}

func (r PurchaseRequest) toRequest(f *fallbacks) (ledger.PurchaseRequest, error) {
	date, err := parseDate(r.Date)
	if err != nil {
		return ledger.PurchaseRequest{}, err
	}
	return ledger.PurchaseRequest{
		PurchaseInput: inventory.PurchaseInput{
			Item:      strings.TrimSpace(r.Item),
			Qty:       f.check("qty", r.Qty),
			UnitPrice: f.check("unit_price", r.UnitPrice),
			Date:      date,
			Memo:      strings.TrimSpace(r.Memo),
		},
		CreditAccount: strings.TrimSpace(r.CreditAccount),
	}, nil
}

// SaleRequest records a stock sale.
type SaleRequest struct {
	Date         string `json:"date" validate:"required,datetime=2006-01-02"`
	Item         string `json:"item" validate:"required"`
	Qty          Amount `json:"qty"`
	SalePrice    Amount `json:"sale_price"`
	DebitAccount string `json:"debit_account"`
	Memo         string `json:"memo" validate:"max=500"`
}

func (r SaleRequest) toRequest(f *fallbacks) (ledger.SaleRequest, error) {
	date, err := parseDate(r.Date)
	if err != nil {
		return ledger.SaleRequest{}, err
	}
	return ledger.SaleRequest{
		SaleInput: inventory.SaleInput{
			Item:      strings.TrimSpace(r.Item),
			Qty:       f.check("qty", r.Qty),
			SalePrice: f.check("sale_price", r.SalePrice),
			Date:      date,
			Memo:      strings.TrimSpace(r.Memo),
		},
		DebitAccount: strings.TrimSpace(r.DebitAccount),
	}, nil
}
