package integration

import (
	"errors"
	"fmt"
	"strings"

	"github.com/odyssey-erp/bukubesar/internal/accounting/accounts"
	"github.com/odyssey-erp/bukubesar/internal/accounting/journals"
	"github.com/odyssey-erp/bukubesar/internal/accounting/mappings"
	"github.com/odyssey-erp/bukubesar/internal/amount"
	"github.com/odyssey-erp/bukubesar/internal/inventory"
)

// Link tells which subledger movement a journal transaction came from.
type Link int

const (
	LinkNone Link = iota
	LinkPurchase
	LinkSale
)

// Kind returns the movement kind for the link.
func (l Link) Kind() inventory.MovementKind {
	switch l {
	case LinkPurchase:
		return inventory.MovementPurchase
	case LinkSale:
		return inventory.MovementSale
	}
	return ""
}

// Hooks turns inventory events into general journal transactions.
type Hooks struct {
	accounts mappings.InventoryAccounts
}

// NewHooks constructs integration hooks.
func NewHooks(m mappings.InventoryAccounts) (*Hooks, error) {
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return &Hooks{accounts: m}, nil
}

// Accounts returns the configured mapping.
func (h *Hooks) Accounts() mappings.InventoryAccounts {
	return h.accounts
}

// PurchaseTransaction debits inventory and credits creditAccount, which
// defaults to cash.
func (h *Hooks) PurchaseTransaction(evt inventory.PurchaseRecordedEvent, creditAccount string) (journals.TransactionInput, error) {
	if evt.Date.IsZero() {
		return journals.TransactionInput{}, errors.New("integration: purchase date required")
	}
	if strings.TrimSpace(creditAccount) == "" {
		creditAccount = h.accounts.Cash
	}
	total := monetary(evt.Qty, evt.UnitPrice)
	memo := evt.Memo
	if memo == "" {
		memo = fmt.Sprintf("Pembelian %s %s x %s", evt.Item, formatQty(evt.Qty), formatPrice(evt.UnitPrice))
	}
	return journals.TransactionInput{
		Date:   evt.Date,
		Memo:   memo,
		Source: journals.SourceGeneral,
		Lines: []journals.LineInput{
			{Account: h.accounts.Inventory, Debit: total},
			{Account: creditAccount, Credit: total},
		},
	}, nil
}

// SaleTransaction records revenue against debitAccount (cash by default) and
// moves the cost of goods sold out of inventory.
func (h *Hooks) SaleTransaction(evt inventory.SaleRecordedEvent, debitAccount string) (journals.TransactionInput, error) {
	if evt.Date.IsZero() {
		return journals.TransactionInput{}, errors.New("integration: sale date required")
	}
	if strings.TrimSpace(debitAccount) == "" {
		debitAccount = h.accounts.Cash
	}
	revenue := monetary(evt.Qty, evt.SalePrice)
	cogs := amount.Round(evt.COGS)
	memo := evt.Memo
	if memo == "" {
		memo = fmt.Sprintf("Penjualan %s %s x %s", evt.Item, formatQty(evt.Qty), formatPrice(evt.SalePrice))
	}
	lines := make([]journals.LineInput, 0, 4)
	if revenue.IsPositive() {
		lines = append(lines,
			journals.LineInput{Account: debitAccount, Debit: revenue},
			journals.LineInput{Account: h.accounts.Sales, Credit: revenue},
		)
	}
	if cogs.IsPositive() {
		lines = append(lines,
			journals.LineInput{Account: h.accounts.COGS, Debit: cogs},
			journals.LineInput{Account: h.accounts.Inventory, Credit: cogs},
		)
	}
	return journals.TransactionInput{
		Date:   evt.Date,
		Memo:   memo,
		Source: journals.SourceGeneral,
		Lines:  lines,
	}, nil
}

// Detect classifies a transaction by its lines: a credit to the sales
// account marks a sale, a debit to the inventory account a purchase, and a
// credit to the inventory account a sale posted at cost only.
func (h *Hooks) Detect(lines []journals.Entry) Link {
	for _, line := range lines {
		if line.Credit.IsPositive() && accounts.SameAccount(line.Account, h.accounts.Sales) {
			return LinkSale
		}
	}
	for _, line := range lines {
		if line.Debit.IsPositive() && accounts.SameAccount(line.Account, h.accounts.Inventory) {
			return LinkPurchase
		}
	}
	for _, line := range lines {
		if line.Credit.IsPositive() && accounts.SameAccount(line.Account, h.accounts.Inventory) {
			return LinkSale
		}
	}
	return LinkNone
}
