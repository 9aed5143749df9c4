// Package archive keeps the closing trial balance of every rolled-over
// period in a bbolt file.
package archive

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	bolt "go.etcd.io/bbolt"

	"github.com/odyssey-erp/bukubesar/internal/accounting/periods"
	"github.com/odyssey-erp/bukubesar/internal/accounting/reports"
	"github.com/odyssey-erp/bukubesar/internal/accounting/shared"
)

var bucketPeriods = []byte("periods")

// ErrNotArchived is returned by Get for an unknown label.
var ErrNotArchived = shared.NotFound("archive: period not archived")

// Row is one archived trial balance line.
type Row struct {
	No            int                 `json:"no,omitempty"`
	Account       string              `json:"account"`
	TotalDebit    decimal.Decimal     `json:"total_debit"`
	TotalCredit   decimal.Decimal     `json:"total_credit"`
	EndingBalance decimal.NullDecimal `json:"ending_balance"`
}

// Record is a closed period.
type Record struct {
	Label     string    `json:"label"`
	StartDate string    `json:"start_date"`
	EndDate   string    `json:"end_date"`
	ClosedAt  time.Time `json:"closed_at"`
	Opening   []Row     `json:"opening_trial_balance,omitempty"`
	Closing   []Row     `json:"closing_trial_balance"`
}

// Archive is a bbolt-backed periods.Archiver.
type Archive struct {
	db *bolt.DB
}

var _ periods.Archiver = (*Archive)(nil)

// Open opens or creates the archive file.
func Open(path string) (*Archive, error) {
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("archive: open %s: %w", path, err)
	}
	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketPeriods)
		return err
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("archive: init bucket: %w", err)
	}
	return &Archive{db: db}, nil
}

// Close releases the file lock.
func (a *Archive) Close() error {
	return a.db.Close()
}

func toRows(in []reports.TrialBalanceRow) []Row {
	out := make([]Row, 0, len(in))
	for _, r := range in {
		out = append(out, Row{No: r.No, Account: r.Account, TotalDebit: r.TotalDebit, TotalCredit: r.TotalCredit, EndingBalance: r.EndingBalance})
	}
	return out
}

// Archive stores the period under its label, replacing an earlier record
// with the same label.
func (a *Archive) Archive(ctx context.Context, period periods.Period, closing []reports.TrialBalanceRow) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	rec := Record{
		Label:     period.Label,
		StartDate: period.StartDate.Format(time.DateOnly),
		EndDate:   period.EndDate.Format(time.DateOnly),
		Opening:   toRows(period.OpeningTrialBalance),
		Closing:   toRows(closing),
	}
	if period.ClosedAt != nil {
		rec.ClosedAt = period.ClosedAt.UTC()
	}
	payload, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("archive: encode %s: %w", period.Label, err)
	}
	return a.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketPeriods).Put([]byte(period.Label), payload)
	})
}

// Get returns the archived record for label.
func (a *Archive) Get(label string) (Record, error) {
	var rec Record
	err := a.db.View(func(tx *bolt.Tx) error {
		raw := tx.Bucket(bucketPeriods).Get([]byte(label))
		if raw == nil {
			return ErrNotArchived
		}
		return json.Unmarshal(raw, &rec)
	})
	if err != nil {
		if errors.Is(err, ErrNotArchived) {
			return Record{}, fmt.Errorf("%w: %s", ErrNotArchived, label)
		}
		return Record{}, fmt.Errorf("archive: read %s: %w", label, err)
	}
	return rec, nil
}

// Labels lists archived periods in key order.
func (a *Archive) Labels() ([]string, error) {
	var out []string
	err := a.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketPeriods).ForEach(func(k, _ []byte) error {
			out = append(out, string(k))
			return nil
		})
	})
	return out, err
}
