package mappings

import (
	"fmt"
	"strings"

	"github.com/odyssey-erp/bukubesar/internal/accounting/shared"
)

// ErrMappingIncomplete indicates an inventory posting account is not configured.
var ErrMappingIncomplete = shared.Validation("mappings: inventory account mapping incomplete")

// InventoryAccounts names the ledger accounts touched by purchases and sales.
type InventoryAccounts struct {
	Inventory  string
	Sales      string
	COGS       string
	Cash       string
	Payable    string
	Receivable string
}

// DefaultInventoryAccounts returns the standard Indonesian account names.
func DefaultInventoryAccounts() InventoryAccounts {
	return InventoryAccounts{
		Inventory:  "Persediaan",
		Sales:      "Penjualan",
		COGS:       "Harga Pokok Penjualan",
		Cash:       "Kas",
		Payable:    "Utang Usaha",
		Receivable: "Piutang Usaha",
	}
}

// Validate ensures every account is named.
func (m InventoryAccounts) Validate() error {
	for key, name := range map[string]string{
		"inventory": m.Inventory,
		"sales":     m.Sales,
		"cogs":      m.COGS,
		"cash":      m.Cash,
	} {
		if strings.TrimSpace(name) == "" {
			return fmt.Errorf("%w: %s", ErrMappingIncomplete, key)
		}
	}
	return nil
}
