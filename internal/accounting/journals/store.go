package journals

import (
	"fmt"
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/odyssey-erp/bukubesar/internal/accounting/shared"
	"github.com/odyssey-erp/bukubesar/internal/amount"
)

// ErrInvalidOpeningBalance indicates a malformed opening balance.
var ErrInvalidOpeningBalance = shared.Validation("journals: invalid opening balance")

// Store holds the four journals of the current period. Transaction ids are
// shared by the general, adjusting and closing journals and stay dense.
type Store struct {
	opening []OpeningBalance
	entries map[Source][]Entry
	nextID  int64
}

// NewStore returns an empty store whose next transaction id is 1.
func NewStore() *Store {
	return &Store{entries: make(map[Source][]Entry), nextID: 1}
}

// Add validates and appends a transaction, returning its id. On error the
// store is unchanged.
func (s *Store) Add(in TransactionInput) (int64, error) {
	if err := in.Validate(); err != nil {
		return 0, err
	}
	id := s.nextID
	date := CivilDate(in.Date)
	memo := strings.TrimSpace(in.Memo)
	for _, line := range in.Lines {
		s.entries[in.Source] = append(s.entries[in.Source], Entry{
			TransactionID: id,
			Date:          date,
			Account:       strings.TrimSpace(line.Account),
			Debit:         amount.Round(line.Debit),
			Credit:        amount.Round(line.Credit),
			Source:        in.Source,
			Memo:          memo,
		})
	}
	s.nextID++
	return id, nil
}

// Delete removes every line of transaction id and renumbers the remaining
// transactions densely from 1. It returns the removed lines and the mapping
// from old to new ids.
func (s *Store) Delete(id int64) ([]Entry, map[int64]int64, error) {
	var removed []Entry
	for _, src := range PostingSources {
		kept := s.entries[src][:0:0]
		for _, e := range s.entries[src] {
			if e.TransactionID == id {
				removed = append(removed, e)
				continue
			}
			kept = append(kept, e)
		}
		s.entries[src] = kept
	}
	if len(removed) == 0 {
		return nil, nil, fmt.Errorf("%w: %d", ErrTransactionNotFound, id)
	}
	return removed, s.renumber(), nil
}

func (s *Store) renumber() map[int64]int64 {
	seen := make(map[int64]struct{})
	var ids []int64
	for _, src := range PostingSources {
		for _, e := range s.entries[src] {
			if _, ok := seen[e.TransactionID]; ok {
				continue
			}
			seen[e.TransactionID] = struct{}{}
			ids = append(ids, e.TransactionID)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	mapping := make(map[int64]int64, len(ids))
	for idx, old := range ids {
		mapping[old] = int64(idx + 1)
	}
	for _, src := range PostingSources {
		for i := range s.entries[src] {
			s.entries[src][i].TransactionID = mapping[s.entries[src][i].TransactionID]
		}
	}
	s.nextID = int64(len(ids) + 1)
	return mapping
}

// SetOpeningBalance inserts or replaces the opening balance of account.
// Setting both sides to zero removes it.
func (s *Store) SetOpeningBalance(account string, debit, credit decimal.Decimal) error {
	account = strings.TrimSpace(account)
	if account == "" {
		return fmt.Errorf("%w: account required", ErrInvalidOpeningBalance)
	}
	if debit.IsNegative() || credit.IsNegative() {
		return fmt.Errorf("%w: %s has a negative amount", ErrInvalidOpeningBalance, account)
	}
	for i, ob := range s.opening {
		if ob.Account != account {
			continue
		}
		if debit.IsZero() && credit.IsZero() {
			s.opening = append(s.opening[:i], s.opening[i+1:]...)
			return nil
		}
		s.opening[i].Debit = amount.Round(debit)
		s.opening[i].Credit = amount.Round(credit)
		return nil
	}
	if debit.IsZero() && credit.IsZero() {
		return nil
	}
	s.opening = append(s.opening, OpeningBalance{Account: account, Debit: amount.Round(debit), Credit: amount.Round(credit)})
	return nil
}

// OpeningBalances returns the opening balances in insertion order.
func (s *Store) OpeningBalances() []OpeningBalance {
	return append([]OpeningBalance(nil), s.opening...)
}

// Entries returns a copy of one journal.
func (s *Store) Entries(src Source) []Entry {
	return append([]Entry(nil), s.entries[src]...)
}

// All returns every posted line, general journal first, then adjusting,
// then closing.
func (s *Store) All() []Entry {
	var out []Entry
	for _, src := range PostingSources {
		out = append(out, s.entries[src]...)
	}
	return out
}

// Transaction returns the lines of transaction id.
func (s *Store) Transaction(id int64) []Entry {
	var out []Entry
	for _, src := range PostingSources {
		for _, e := range s.entries[src] {
			if e.TransactionID == id {
				out = append(out, e)
			}
		}
	}
	return out
}

// HasEntries reports whether the journal has at least one line.
func (s *Store) HasEntries(src Source) bool {
	if src == SourceOpening {
		return len(s.opening) > 0
	}
	return len(s.entries[src]) > 0
}

// NextID returns the id the next transaction will receive.
func (s *Store) NextID() int64 {
	return s.nextID
}

// Clone returns a deep copy of the store.
func (s *Store) Clone() *Store {
	c := &Store{
		opening: append([]OpeningBalance(nil), s.opening...),
		entries: make(map[Source][]Entry, len(s.entries)),
		nextID:  s.nextID,
	}
	for src, lines := range s.entries {
		c.entries[src] = append([]Entry(nil), lines...)
	}
	return c
}

// ResetPeriod clears every journal and replaces the opening balances.
func (s *Store) ResetPeriod(opening []OpeningBalance) {
	s.entries = make(map[Source][]Entry)
	s.opening = append([]OpeningBalance(nil), opening...)
	s.nextID = 1
}

// Restore replaces the store content with previously persisted lines.
// Opening-source lines found in entries are ignored; use opening instead.
func (s *Store) Restore(entries []Entry, opening []OpeningBalance) error {
	fresh := NewStore()
	for _, ob := range opening {
		if err := fresh.SetOpeningBalance(ob.Account, ob.Debit, ob.Credit); err != nil {
			return err
		}
	}
	var maxID int64
	for _, e := range entries {
		if e.Source == SourceOpening {
			continue
		}
		if !e.Source.Postable() {
			return fmt.Errorf("%w: %q", ErrInvalidSource, e.Source)
		}
		if e.TransactionID <= 0 {
			return fmt.Errorf("%w: transaction id %d", ErrInvalidLine, e.TransactionID)
		}
		e.Date = CivilDate(e.Date)
		fresh.entries[e.Source] = append(fresh.entries[e.Source], e)
		if e.TransactionID > maxID {
			maxID = e.TransactionID
		}
	}
	fresh.nextID = maxID + 1
	*s = *fresh
	return nil
}
