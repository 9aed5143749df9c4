package accounts

import "strings"

// AccountType enumerates CoA categories.
type AccountType string

const (
	AccountTypeAsset     AccountType = "ASSET"
	AccountTypeLiability AccountType = "LIABILITY"
	AccountTypeEquity    AccountType = "EQUITY"
	AccountTypeRevenue   AccountType = "REVENUE"
	AccountTypeExpense   AccountType = "EXPENSE"
)

// Category places an account on the financial statements.
type Category string

const (
	CategoryCurrentAsset        Category = "CURRENT_ASSET"
	CategoryNonCurrentAsset     Category = "NON_CURRENT_ASSET"
	CategoryContraAsset         Category = "CONTRA_ASSET"
	CategoryCurrentLiability    Category = "CURRENT_LIABILITY"
	CategoryNonCurrentLiability Category = "NON_CURRENT_LIABILITY"
	CategoryEquity              Category = "EQUITY"
	CategoryRevenue             Category = "REVENUE"
	CategoryExpense             Category = "EXPENSE"
	CategoryUnclassified        Category = "UNCLASSIFIED"
)

// Well-known account names used by the statements.
const (
	CapitalAccount       = "Modal"
	PlugLabel            = "Penyesuaian Modal"
	CurrentEarningsLabel = "Laba (Rugi) Berjalan"
	IncomeSummaryAccount = "Ikhtisar Laba Rugi"
)

// ParseCategory maps a free-form label such as "current_asset" to a Category.
func ParseCategory(s string) (Category, bool) {
	c := Category(strings.ToUpper(strings.ReplaceAll(strings.TrimSpace(s), "-", "_")))
	switch c {
	case CategoryCurrentAsset, CategoryNonCurrentAsset, CategoryContraAsset,
		CategoryCurrentLiability, CategoryNonCurrentLiability, CategoryEquity,
		CategoryRevenue, CategoryExpense, CategoryUnclassified:
		return c, true
	}
	return "", false
}

// Type returns the top-level account type for the category.
func (c Category) Type() AccountType {
	switch c {
	case CategoryCurrentAsset, CategoryNonCurrentAsset, CategoryContraAsset:
		return AccountTypeAsset
	case CategoryCurrentLiability, CategoryNonCurrentLiability:
		return AccountTypeLiability
	case CategoryEquity:
		return AccountTypeEquity
	case CategoryRevenue:
		return AccountTypeRevenue
	case CategoryExpense:
		return AccountTypeExpense
	}
	return ""
}

// DebitNormal reports whether the category normally carries a debit balance.
func (c Category) DebitNormal() bool {
	switch c {
	case CategoryCurrentAsset, CategoryNonCurrentAsset, CategoryExpense:
		return true
	}
	return false
}

// IsNominal reports whether the account is closed to equity at period end.
func (c Category) IsNominal() bool {
	return c == CategoryRevenue || c == CategoryExpense
}
