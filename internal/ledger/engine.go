// Package ledger owns the state of the current accounting period: the
// journals, the inventory subledger and the period itself. Every report is
// derived from that state on demand.
package ledger

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/odyssey-erp/bukubesar/internal/accounting/accounts"
	"github.com/odyssey-erp/bukubesar/internal/accounting/journals"
	"github.com/odyssey-erp/bukubesar/internal/accounting/mappings"
	"github.com/odyssey-erp/bukubesar/internal/accounting/periods"
	"github.com/odyssey-erp/bukubesar/internal/accounting/posting"
	"github.com/odyssey-erp/bukubesar/internal/accounting/reports"
	"github.com/odyssey-erp/bukubesar/internal/accounting/shared"
	"github.com/odyssey-erp/bukubesar/internal/integration"
	"github.com/odyssey-erp/bukubesar/internal/inventory"
)

var (
	// ErrPeriodClosing rejects general and adjusting entries once closing
	// entries have been posted.
	ErrPeriodClosing = shared.Precondition("ledger: period is closing, only closing entries are accepted")
	// ErrForbidden rejects a missing or wrong administrative secret.
	ErrForbidden = shared.Forbidden("ledger: administrative secret rejected")
)

// Config wires an Engine.
type Config struct {
	// PeriodStart defaults to the first day of the current month.
	PeriodStart time.Time
	Chart       *accounts.Chart
	// Accounts defaults to mappings.DefaultInventoryAccounts.
	Accounts   mappings.InventoryAccounts
	Archive    periods.Archiver
	Credential Credential
	Observer   Observer
	Logger     *slog.Logger
	Now        func() time.Time
	IDs        func() uuid.UUID
}

type state struct {
	period       periods.Period
	journals     *journals.Store
	stock        *inventory.Subledger
	loadWarnings []reports.Warning
}

func (s state) clone() state {
	return state{
		period:       s.period,
		journals:     s.journals.Clone(),
		stock:        s.stock.Clone(),
		loadWarnings: append([]reports.Warning(nil), s.loadWarnings...),
	}
}

type derived struct {
	version  uint64
	ledger   posting.Ledger
	trial    []reports.TrialBalanceRow
	income   reports.IncomeStatement
	equity   reports.EquityStatement
	balance  reports.BalanceSheet
	warnings []reports.Warning
}

// Engine serialises every mutation onto a single timeline. Mutations run
// against a copy of the state that replaces the live state only on success.
type Engine struct {
	mu         sync.Mutex
	st         state
	instance   string
	version    uint64
	memo       *derived
	chart      *accounts.Chart
	hooks      *integration.Hooks
	controller *periods.Controller
	credential Credential
	observer   Observer
	logger     *slog.Logger
	now        func() time.Time
	ids        func() uuid.UUID
}

// New builds an engine holding an empty period.
func New(cfg Config) (*Engine, error) {
	mapping := cfg.Accounts
	if mapping == (mappings.InventoryAccounts{}) {
		mapping = mappings.DefaultInventoryAccounts()
	}
	hooks, err := integration.NewHooks(mapping)
	if err != nil {
		return nil, err
	}
	e := &Engine{
		instance:   uuid.NewString(),
		chart:      cfg.Chart,
		hooks:      hooks,
		controller: periods.NewController(cfg.Archive),
		credential: cfg.Credential,
		observer:   cfg.Observer,
		logger:     cfg.Logger,
		now:        cfg.Now,
		ids:        cfg.IDs,
	}
	if e.chart == nil {
		e.chart = accounts.DefaultChart()
	}
	if e.observer == nil {
		e.observer = nopObserver{}
	}
	if e.logger == nil {
		e.logger = slog.Default()
	}
	if e.now == nil {
		e.now = time.Now
	}
	e.controller.WithNow(e.now)

	start := cfg.PeriodStart
	if start.IsZero() {
		y, m, _ := e.now().Date()
		start = time.Date(y, m, 1, 0, 0, 0, 0, time.UTC)
	}
	e.st = state{period: periods.New(start), journals: journals.NewStore(), stock: e.newSubledger()}
	return e, nil
}

func (e *Engine) newSubledger() *inventory.Subledger {
	s := inventory.NewSubledger()
	if e.ids != nil {
		s.WithIDGenerator(e.ids)
	}
	return s
}

// Chart returns the account classification in use.
func (e *Engine) Chart() *accounts.Chart {
	return e.chart
}

// Accounts returns the inventory account mapping.
func (e *Engine) Accounts() mappings.InventoryAccounts {
	return e.hooks.Accounts()
}

func (e *Engine) mutate(op string, fn func(*state) error) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	next := e.st.clone()
	if err := fn(&next); err != nil {
		reason := shared.Reason(err)
		e.observer.MutationRejected(reason)
		e.logger.Warn("ledger mutation rejected", slog.String("op", op), slog.String("reason", reason), slog.Any("error", err))
		return err
	}
	next.period.Status = periods.StatusFor(next.journals.HasEntries(journals.SourceClosing))
	e.st = next
	e.version++
	e.memo = nil
	e.logger.Info("ledger mutation", slog.String("op", op), slog.String("period", next.period.Label), slog.Uint64("version", e.version))
	return nil
}

func guardOpen(st *state, src journals.Source) error {
	if st.period.Status == periods.PeriodStatusClosing && src != journals.SourceClosing {
		return fmt.Errorf("%w: %s", ErrPeriodClosing, src.Label())
	}
	return nil
}

// AddTransaction validates and posts a transaction, returning its id.
func (e *Engine) AddTransaction(in journals.TransactionInput) (int64, error) {
	var id int64
	err := e.mutate("add_transaction", func(st *state) error {
		if err := guardOpen(st, in.Source); err != nil {
			return err
		}
		var err error
		id, err = st.journals.Add(in)
		return err
	})
	if err != nil {
		return 0, err
	}
	e.observer.TransactionPosted(string(in.Source))
	return id, nil
}

// DeleteResult describes a committed deletion.
type DeleteResult struct {
	Removed    []journals.Entry
	Renumbered map[int64]int64
	// Reversed is the inventory movement undone with the transaction.
	Reversed *inventory.Movement
}

// DeleteTransaction removes transaction id after checking the administrative
// secret. A transaction posted for an inventory movement also reverses that
// movement, whichever of its lines survived. Remaining transactions are renumbered densely.
func (e *Engine) DeleteTransaction(id int64, secret string) (DeleteResult, error) {
	var res DeleteResult
	err := e.mutate("delete_transaction", func(st *state) error {
		if e.credential == nil || !e.credential.Verify(secret) {
			return ErrForbidden
		}
		lines := st.journals.Transaction(id)
		if len(lines) == 0 {
			return fmt.Errorf("%w: %d", journals.ErrTransactionNotFound, id)
		}
		if mv, ok := st.stock.MovementByTransaction(id); ok {
			var err error
			if mv.Kind == inventory.MovementPurchase {
				_, err = st.stock.ReversePurchase(mv.ID)
			} else {
				_, err = st.stock.ReverseSale(mv.ID)
			}
			if err != nil {
				return fmt.Errorf("ledger: reverse movement of transaction %d: %w", id, err)
			}
			res.Reversed = &mv
		} else if link := e.hooks.Detect(lines); link != integration.LinkNone {
			e.logger.Warn("inventory-like transaction has no linked movement",
				slog.Int64("transaction_id", id), slog.String("kind", string(link.Kind())))
		}
		removed, mapping, err := st.journals.Delete(id)
		if err != nil {
			return err
		}
		st.stock.Renumber(mapping)
		res.Removed = removed
		res.Renumbered = mapping
		return nil
	})
	if err != nil {
		return DeleteResult{}, err
	}
	return res, nil
}

// PurchaseRequest records a purchase and posts it against CreditAccount
// (cash when empty).
type PurchaseRequest struct {
	inventory.PurchaseInput
	CreditAccount string
}

// PurchaseResult is the committed movement and its journal transaction.
type PurchaseResult struct {
	Movement      inventory.Movement
	Item          inventory.Item
	TransactionID int64
}

// RecordPurchase updates the moving average and posts the purchase journal.
func (e *Engine) RecordPurchase(req PurchaseRequest) (PurchaseResult, error) {
	var res PurchaseResult
	err := e.mutate("record_purchase", func(st *state) error {
		if err := guardOpen(st, journals.SourceGeneral); err != nil {
			return err
		}
		mv, err := st.stock.RecordPurchase(req.PurchaseInput)
		if err != nil {
			return err
		}
		tx, err := e.hooks.PurchaseTransaction(mv.PurchaseEvent(), req.CreditAccount)
		if err != nil {
			return err
		}
		id, err := st.journals.Add(tx)
		if err != nil {
			return err
		}
		if err := st.stock.LinkTransaction(mv.ID, id); err != nil {
			return err
		}
		mv.TransactionID = id
		item, _ := st.stock.Item(mv.Item)
		res = PurchaseResult{Movement: mv, Item: item, TransactionID: id}
		return nil
	})
	if err != nil {
		return PurchaseResult{}, err
	}
	e.observer.TransactionPosted(string(journals.SourceGeneral))
	return res, nil
}

// SaleRequest records a sale and posts its revenue against DebitAccount
// (cash when empty).
type SaleRequest struct {
	inventory.SaleInput
	DebitAccount string
}

// SaleResult is the committed sale and its journal transaction. The
// transaction id is 0 when both revenue and cost were zero.
type SaleResult struct {
	inventory.Sale
	TransactionID int64
}

// RecordSale relieves stock at moving average cost and posts revenue and
// cost of goods sold.
func (e *Engine) RecordSale(req SaleRequest) (SaleResult, error) {
	var res SaleResult
	err := e.mutate("record_sale", func(st *state) error {
		if err := guardOpen(st, journals.SourceGeneral); err != nil {
			return err
		}
		sale, err := st.stock.RecordSale(req.SaleInput)
		if err != nil {
			return err
		}
		tx, err := e.hooks.SaleTransaction(sale.Movement.SaleEvent(), req.DebitAccount)
		if err != nil {
			return err
		}
		res = SaleResult{Sale: sale}
		if len(tx.Lines) == 0 {
			return nil
		}
		id, err := st.journals.Add(tx)
		if err != nil {
			return err
		}
		if err := st.stock.LinkTransaction(sale.Movement.ID, id); err != nil {
			return err
		}
		res.Movement.TransactionID = id
		res.TransactionID = id
		return nil
	})
	if err != nil {
		return SaleResult{}, err
	}
	if res.TransactionID > 0 {
		e.observer.TransactionPosted(string(journals.SourceGeneral))
	}
	return res, nil
}

// SetOpeningBalance replaces the opening balance of one account. Zero on
// both sides removes it.
func (e *Engine) SetOpeningBalance(account string, debit, credit decimal.Decimal) error {
	return e.mutate("set_opening_balance", func(st *state) error {
		return st.journals.SetOpeningBalance(account, debit, credit)
	})
}

// SetOpeningStock sets the opening quantity and unit cost of an item that
// has no movements yet.
func (e *Engine) SetOpeningStock(name string, qty, unitCost decimal.Decimal) (inventory.Item, error) {
	var item inventory.Item
	err := e.mutate("set_opening_stock", func(st *state) error {
		var err error
		item, err = st.stock.SetOpeningStock(name, qty, unitCost)
		return err
	})
	return item, err
}

// Rollover closes the current period and opens the next one, seeded with
// the post-closing trial balance. Nothing changes when any step fails,
// including archiving.
func (e *Engine) Rollover(ctx context.Context) (periods.RolloverResult, error) {
	var res periods.RolloverResult
	err := e.mutate("rollover", func(st *state) error {
		l, err := e.rebuild(*st)
		if err != nil {
			return fmt.Errorf("ledger: rollover %s: %w", st.period.Label, err)
		}
		r, err := e.controller.Rollover(ctx, periods.RolloverInput{
			Current:             st.period,
			ClosingTrialBalance: reports.BuildPostClosingTrialBalance(l),
			HasClosingEntries:   st.journals.HasEntries(journals.SourceClosing),
		})
		if err != nil {
			return err
		}
		st.journals.ResetPeriod(periods.CarryForward(r.Next.OpeningTrialBalance))
		st.stock.RollForward()
		st.period = r.Next
		st.loadWarnings = nil
		res = r
		return nil
	})
	if err != nil {
		return periods.RolloverResult{}, err
	}
	e.logger.Info("period rolled over", slog.String("closed", res.Closed.Label), slog.String("opened", res.Next.Label))
	return res, nil
}

func (e *Engine) rebuild(st state) (posting.Ledger, error) {
	return posting.Rebuild(posting.Input{
		Opening:     st.journals.OpeningBalances(),
		Entries:     st.journals.All(),
		PeriodStart: st.period.StartDate,
		PeriodLabel: st.period.Label,
	})
}

// derive returns the reports of the current version, computing them at most
// once per version. Callers hold e.mu.
func (e *Engine) derive() *derived {
	if e.memo != nil && e.memo.version == e.version {
		return e.memo
	}
	d := &derived{version: e.version}
	d.warnings = append(d.warnings, e.st.loadWarnings...)

	started := time.Now()
	l, err := e.rebuild(e.st)
	e.observer.LedgerRebuilt(time.Since(started))
	if err != nil {
		e.logger.Error("ledger rebuild degraded", slog.String("period", e.st.period.Label), slog.Any("error", err))
		l = posting.Ledger{}
		d.warnings = append(d.warnings, reports.Warning{
			Code:    reports.WarningReportDegraded,
			Message: fmt.Sprintf("reports are empty: %v", err),
		})
	}
	d.ledger = l
	d.trial = reports.BuildTrialBalance(l)
	if w := reports.CheckTrialBalance(d.trial); w != nil {
		d.warnings = append(d.warnings, *w)
	}
	d.income = reports.BuildIncomeStatement(l, e.chart)
	d.equity = reports.BuildEquityStatement(e.st.journals.OpeningBalances(), d.income.NetIncome)
	d.balance = reports.BuildBalanceSheet(l, e.chart)
	d.warnings = append(d.warnings, d.balance.Warnings...)
	if !d.balance.Plug.IsZero() {
		e.observer.BalancingPlugApplied()
	}
	for _, w := range d.warnings {
		if w.Code == reports.WarningReportDegraded {
			continue
		}
		e.logger.Warn("ledger data quality", slog.String("code", string(w.Code)), slog.String("message", w.Message))
	}
	e.memo = d
	return d
}

// RebuildLedgers returns the general ledger and trial balance of the
// current state.
func (e *Engine) RebuildLedgers() (posting.Ledger, []reports.TrialBalanceRow) {
	e.mu.Lock()
	defer e.mu.Unlock()
	d := e.derive()
	return d.ledger.Clone(), append([]reports.TrialBalanceRow(nil), d.trial...)
}

// Ledger returns the general ledger keyed by account.
func (e *Engine) Ledger() posting.Ledger {
	l, _ := e.RebuildLedgers()
	return l
}

// AccountLedger returns the lines of one account, matching the name
// case-insensitively.
func (e *Engine) AccountLedger(account string) ([]posting.Line, bool) {
	l := e.Ledger()
	if lines, ok := l[account]; ok {
		return lines, true
	}
	for name, lines := range l {
		if accounts.SameAccount(name, account) {
			return lines, true
		}
	}
	return nil, false
}

// TrialBalance returns the trial balance with its TOTAL row.
func (e *Engine) TrialBalance() []reports.TrialBalanceRow {
	_, tb := e.RebuildLedgers()
	return tb
}

// IncomeStatement derives the income statement.
func (e *Engine) IncomeStatement() reports.IncomeStatement {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.derive().income.Clone()
}

// EquityStatement derives the statement of changes in equity.
func (e *Engine) EquityStatement() reports.EquityStatement {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.derive().equity
}

// BalanceSheet derives the balance sheet, plug included.
func (e *Engine) BalanceSheet() reports.BalanceSheet {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.derive().balance.Clone()
}

// Statements bundles every report of the current version.
func (e *Engine) Statements() reports.Statements {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.statements(e.derive())
}

func (e *Engine) statements(d *derived) reports.Statements {
	return reports.Statements{
		PeriodLabel:     e.st.period.Label,
		TrialBalance:    append([]reports.TrialBalanceRow(nil), d.trial...),
		IncomeStatement: d.income.Clone(),
		EquityStatement: d.equity,
		BalanceSheet:    d.balance.Clone(),
		Warnings:        append([]reports.Warning(nil), d.warnings...),
	}
}

// Snapshot is the state of one revision: the period, the general ledger and
// every statement, read under a single lock.
type Snapshot struct {
	Revision string
	Version  uint64
	Period   periods.Period
	Ledger   posting.Ledger
	reports.Statements
}

// Snapshot returns copies of every derived report together with the
// revision they belong to.
func (e *Engine) Snapshot() Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()
	d := e.derive()
	return Snapshot{
		Revision:   e.revision(),
		Version:    e.version,
		Period:     copyPeriod(e.st.period),
		Ledger:     d.ledger.Clone(),
		Statements: e.statements(d),
	}
}

// Warnings returns the data-quality warnings of the current version.
func (e *Engine) Warnings() []reports.Warning {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]reports.Warning(nil), e.derive().warnings...)
}

// InventorySnapshot returns every item with its valuation.
func (e *Engine) InventorySnapshot() []inventory.Item {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.st.stock.Items()
}

// Movements returns the stock card of the period, optionally for one item.
func (e *Engine) Movements(item string) []inventory.Movement {
	e.mu.Lock()
	defer e.mu.Unlock()
	if strings.TrimSpace(item) != "" {
		return e.st.stock.StockCard(item)
	}
	return e.st.stock.Movements()
}

// Journal returns the lines of one source. Opening balances are reported
// as lines dated on the period start with transaction id 0.
func (e *Engine) Journal(src journals.Source) []journals.Entry {
	e.mu.Lock()
	defer e.mu.Unlock()
	if src == journals.SourceOpening {
		return openingEntries(e.st)
	}
	return e.st.journals.Entries(src)
}

func openingEntries(st state) []journals.Entry {
	opening := st.journals.OpeningBalances()
	out := make([]journals.Entry, 0, len(opening))
	for _, ob := range opening {
		out = append(out, journals.Entry{
			Date:    st.period.StartDate,
			Account: ob.Account,
			Debit:   ob.Debit,
			Credit:  ob.Credit,
			Source:  journals.SourceOpening,
			Memo:    posting.OpeningMemo(st.period.Label),
		})
	}
	return out
}

// Period returns the current period.
func (e *Engine) Period() periods.Period {
	e.mu.Lock()
	defer e.mu.Unlock()
	return copyPeriod(e.st.period)
}

func copyPeriod(p periods.Period) periods.Period {
	p.OpeningTrialBalance = append([]reports.TrialBalanceRow(nil), p.OpeningTrialBalance...)
	return p
}

// Revision names the current state across processes: versions restart with
// every engine, so the engine instance is part of it. Restore starts a new
// instance.
func (e *Engine) Revision() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.revision()
}

func (e *Engine) revision() string {
	return fmt.Sprintf("%s.%d", e.instance, e.version)
}

// Version increases with every committed mutation.
func (e *Engine) Version() uint64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.version
}
