package http

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httprate"
	"github.com/go-playground/validator/v10"

	"github.com/odyssey-erp/bukubesar/internal/accounting/journals"
	"github.com/odyssey-erp/bukubesar/internal/accounting/shared"
	"github.com/odyssey-erp/bukubesar/internal/ledger"
	"github.com/odyssey-erp/bukubesar/internal/platform/httpx"
	"github.com/odyssey-erp/bukubesar/internal/reportcache"
	"github.com/odyssey-erp/bukubesar/internal/store"
)

// AdminSecretHeader carries the administrative secret for deletions.
const AdminSecretHeader = "X-Admin-Secret"

// AutosaveHeader is set to "failed" when a committed mutation could not be persisted.
const AutosaveHeader = "X-Autosave"

var errUnknownAccount = shared.NotFound("ledger: account has no postings")

// Options configures the ledger handler.
type Options struct {
	Logger     *slog.Logger
	Engine     *ledger.Engine
	Cache      *reportcache.Cache
	Repository store.Repository
	// RateLimit caps mutations per client IP per minute. Zero disables it.
	RateLimit int
}

// Handler wires the ledger endpoints.
type Handler struct {
	logger    *slog.Logger
	engine    *ledger.Engine
	cache     *reportcache.Cache
	repo      store.Repository
	validate  *validator.Validate
	rateLimit func(http.Handler) http.Handler
}

// NewHandler constructs the ledger handler.
func NewHandler(opts Options) (*Handler, error) {
	if opts.Engine == nil {
		return nil, fmt.Errorf("ledger handler: engine required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	limiter := func(next http.Handler) http.Handler { return next }
	if opts.RateLimit > 0 {
		limiter = httprate.Limit(opts.RateLimit, time.Minute, httprate.WithKeyFuncs(httprate.KeyByIP))
	}
	return &Handler{
		logger:    logger,
		engine:    opts.Engine,
		cache:     opts.Cache,
		repo:      opts.Repository,
		validate:  validator.New(validator.WithRequiredStructEnabled()),
		rateLimit: limiter,
	}, nil
}

// MountRoutes registers the ledger endpoints on r.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.rateLimit)
		r.Post("/transactions", h.handleAddTransaction)
		r.Delete("/transactions/{id}", h.handleDeleteTransaction)
		r.Post("/opening-balances", h.handleOpeningBalance)
		r.Post("/inventory/opening-stock", h.handleOpeningStock)
		r.Post("/inventory/purchases", h.handlePurchase)
		r.Post("/inventory/sales", h.handleSale)
		r.Post("/periods/rollover", h.handleRollover)
	})
	r.Get("/period", h.handlePeriod)
	r.Get("/journals/{source}", h.handleJournal)
	r.Get("/ledger", h.handleLedger)
	r.Get("/ledger/{account}", h.handleAccountLedger)
	r.Get("/trial-balance", h.handleTrialBalance)
	r.Get("/trial-balance.csv", h.handleTrialBalanceCSV)
	r.Get("/income-statement", h.handleIncomeStatement)
	r.Get("/equity-statement", h.handleEquityStatement)
	r.Get("/balance-sheet", h.handleBalanceSheet)
	r.Get("/inventory", h.handleInventory)
	r.Get("/inventory/movements", h.handleMovements)
	r.Get("/warnings", h.handleWarnings)
}

func (h *Handler) decode(r *http.Request, dst any) error {
	if err := httpx.DecodeJSON(r, dst); err != nil {
		return err
	}
	return h.validate.Struct(dst)
}

// autosave persists the engine after a committed mutation. A failure does not
// undo the mutation; the client is told through AutosaveHeader.
func (h *Handler) autosave(ctx context.Context, w http.ResponseWriter) {
	if h.repo == nil {
		return
	}
	if err := h.engine.Save(ctx, h.repo); err != nil {
		h.logger.Error("autosave failed", slog.Any("error", err))
		w.Header().Set(AutosaveHeader, "failed")
	}
}

type transactionResponse struct {
	TransactionID int64       `json:"transaction_id"`
	PeriodStatus  string      `json:"period_status"`
	Warnings      []WarningVM `json:"warnings"`
}

func (h *Handler) handleAddTransaction(w http.ResponseWriter, r *http.Request) {
	var req TransactionRequest
	if err := h.decode(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	var notes fallbacks
	in, err := req.toInput(&notes)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	id, err := h.engine.AddTransaction(in)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	h.autosave(r.Context(), w)
	httpx.JSON(w, http.StatusCreated, transactionResponse{
		TransactionID: id,
		PeriodStatus:  string(h.engine.Period().Status),
		Warnings:      append([]WarningVM{}, notes...),
	})
}

type deleteResponse struct {
	Removed          []EntryVM        `json:"removed"`
	Renumbered       map[string]int64 `json:"renumbered"`
	ReversedMovement *MovementVM      `json:"reversed_movement,omitempty"`
}

func (h *Handler) handleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		httpx.RespondError(w, fmt.Errorf("%w: transaction id %q", httpx.ErrBadRequest, chi.URLParam(r, "id")))
		return
	}
	res, err := h.engine.DeleteTransaction(id, r.Header.Get(AdminSecretHeader))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	h.autosave(r.Context(), w)
	resp := deleteResponse{Removed: entriesVM(res.Removed), Renumbered: make(map[string]int64, len(res.Renumbered))}
	for from, to := range res.Renumbered {
		resp.Renumbered[strconv.FormatInt(from, 10)] = to
	}
	if res.Reversed != nil {
		vm := movementVM(*res.Reversed)
		resp.ReversedMovement = &vm
	}
	httpx.JSON(w, http.StatusOK, resp)
}

type openingBalanceResponse struct {
	Account  string      `json:"account"`
	Debit    string      `json:"debit"`
	Credit   string      `json:"credit"`
	Warnings []WarningVM `json:"warnings"`
}

func (h *Handler) handleOpeningBalance(w http.ResponseWriter, r *http.Request) {
	var req OpeningBalanceRequest
	if err := h.decode(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	var notes fallbacks
	debit := notes.check("debit", req.Debit)
	credit := notes.check("credit", req.Credit)
	account := strings.TrimSpace(req.Account)
	if err := h.engine.SetOpeningBalance(account, debit, credit); err != nil {
		httpx.RespondError(w, err)
		return
	}
	h.autosave(r.Context(), w)
	httpx.JSON(w, http.StatusOK, openingBalanceResponse{Account: account, Debit: money(debit), Credit: money(credit), Warnings: append([]WarningVM{}, notes...)})
}

func (h *Handler) handleOpeningStock(w http.ResponseWriter, r *http.Request) {
	var req OpeningStockRequest
	if err := h.decode(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	var notes fallbacks
	item, err := h.engine.SetOpeningStock(strings.TrimSpace(req.Item), notes.check("qty", req.Qty), notes.check("unit_cost", req.UnitCost))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	h.autosave(r.Context(), w)
	httpx.JSON(w, http.StatusCreated, itemVM(item))
}

type movementResponse struct {
	Movement      MovementVM  `json:"movement"`
	Item          ItemVM      `json:"item"`
	COGS          string      `json:"cogs,omitempty"`
	TransactionID int64       `json:"transaction_id"`
	Warnings      []WarningVM `json:"warnings"`
}

func (h *Handler) handlePurchase(w http.ResponseWriter, r *http.Request) {
	var req PurchaseRequest
	if err := h.decode(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	var notes fallbacks
	in, err := req.toRequest(&notes)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	res, err := h.engine.RecordPurchase(in)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	h.autosave(r.Context(), w)
	httpx.JSON(w, http.StatusCreated, movementResponse{
		Movement:      movementVM(res.Movement),
		Item:          itemVM(res.Item),
		TransactionID: res.TransactionID,
		Warnings:      append([]WarningVM{}, notes...),
	})
}

func (h *Handler) handleSale(w http.ResponseWriter, r *http.Request) {
	var req SaleRequest
	if err := h.decode(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	var notes fallbacks
	in, err := req.toRequest(&notes)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	res, err := h.engine.RecordSale(in)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	h.autosave(r.Context(), w)
	httpx.JSON(w, http.StatusCreated, movementResponse{
		Movement:      movementVM(res.Movement),
		Item:          itemVM(res.Item),
		COGS:          money(res.COGS),
		TransactionID: res.TransactionID,
		Warnings:      append([]WarningVM{}, notes...),
	})
}

type rolloverResponse struct {
	Closed PeriodVM `json:"closed"`
	Next   PeriodVM `json:"next"`
}

func (h *Handler) handleRollover(w http.ResponseWriter, r *http.Request) {
	res, err := h.engine.Rollover(r.Context())
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	h.autosave(r.Context(), w)
	httpx.JSON(w, http.StatusOK, rolloverResponse{Closed: periodVM(res.Closed, 0), Next: periodVM(res.Next, h.engine.Version())})
}

func (h *Handler) handlePeriod(w http.ResponseWriter, r *http.Request) {
	httpx.JSON(w, http.StatusOK, periodVM(h.engine.Period(), h.engine.Version()))
}

func (h *Handler) handleJournal(w http.ResponseWriter, r *http.Request) {
	raw := chi.URLParam(r, "source")
	src, ok := parseSource(raw)
	if !ok || raw == "" {
		httpx.RespondError(w, fmt.Errorf("%w: %q", journals.ErrInvalidSource, raw))
		return
	}
	httpx.JSON(w, http.StatusOK, entriesVM(h.engine.Journal(src)))
}

// cached serves a report through the report cache. The key and the report
// come from the same snapshot, keyed on its revision so every mutation and
// every restart invalidates it.
func cached[T any](h *Handler, w http.ResponseWriter, r *http.Request, report string, build func(ledger.Snapshot) T) {
	snap := h.engine.Snapshot()
	key := reportcache.Key{Period: snap.Period.Label, Revision: snap.Revision, Report: report}
	out, err := reportcache.GetOrBuild(r.Context(), h.cache, key, func(context.Context) (T, error) {
		return build(snap), nil
	})
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return
		}
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, out)
}

func (h *Handler) handleLedger(w http.ResponseWriter, r *http.Request) {
	cached(h, w, r, "ledger", func(snap ledger.Snapshot) []AccountLedgerVM {
		return ledgerVM(snap.Ledger)
	})
}

func (h *Handler) handleAccountLedger(w http.ResponseWriter, r *http.Request) {
	account := strings.TrimSpace(chi.URLParam(r, "account"))
	lines, ok := h.engine.AccountLedger(account)
	if !ok {
		httpx.RespondError(w, fmt.Errorf("%w: %q", errUnknownAccount, account))
		return
	}
	out := AccountLedgerVM{Account: account, Lines: ledgerLinesVM(lines)}
	if n := len(lines); n > 0 {
		out.Balance = money(lines[n-1].RunningBalance)
	} else {
		out.Balance = "0.00"
	}
	httpx.JSON(w, http.StatusOK, out)
}

func (h *Handler) handleTrialBalance(w http.ResponseWriter, r *http.Request) {
	cached(h, w, r, "trial-balance", func(snap ledger.Snapshot) TrialBalanceVM {
		return TrialBalanceVM{
			Period:   snap.Period.Label,
			Rows:     trialBalanceRowsVM(snap.TrialBalance),
			Warnings: warningsVM(snap.Warnings),
		}
	})
}

func (h *Handler) handleTrialBalanceCSV(w http.ResponseWriter, r *http.Request) {
	snap := h.engine.Snapshot()
	period := snap.Period.Label
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", "neraca-saldo-"+strings.ReplaceAll(strings.ToLower(period), " ", "-")+".csv"))
	if err := writeTrialBalanceCSV(w, period, snap.TrialBalance, snap.Warnings); err != nil {
		h.logger.Error("trial balance csv", slog.Any("error", err))
	}
}

func (h *Handler) handleIncomeStatement(w http.ResponseWriter, r *http.Request) {
	cached(h, w, r, "income-statement", func(snap ledger.Snapshot) IncomeStatementVM {
		return incomeStatementVM(snap.Period.Label, snap.IncomeStatement)
	})
}

func (h *Handler) handleEquityStatement(w http.ResponseWriter, r *http.Request) {
	cached(h, w, r, "equity-statement", func(snap ledger.Snapshot) EquityStatementVM {
		return equityStatementVM(snap.Period.Label, snap.EquityStatement)
	})
}

func (h *Handler) handleBalanceSheet(w http.ResponseWriter, r *http.Request) {
	cached(h, w, r, "balance-sheet", func(snap ledger.Snapshot) BalanceSheetVM {
		return balanceSheetVM(snap.Period.Label, snap.BalanceSheet)
	})
}

func (h *Handler) handleInventory(w http.ResponseWriter, r *http.Request) {
	items := h.engine.InventorySnapshot()
	out := make([]ItemVM, 0, len(items))
	for _, item := range items {
		out = append(out, itemVM(item))
	}
	httpx.JSON(w, http.StatusOK, out)
}

func (h *Handler) handleMovements(w http.ResponseWriter, r *http.Request) {
	moves := h.engine.Movements(strings.TrimSpace(r.URL.Query().Get("item")))
	out := make([]MovementVM, 0, len(moves))
	for _, mv := range moves {
		out = append(out, movementVM(mv))
	}
	httpx.JSON(w, http.StatusOK, out)
}

func (h *Handler) handleWarnings(w http.ResponseWriter, r *http.Request) {
	httpx.JSON(w, http.StatusOK, warningsVM(h.engine.Warnings()))
}
