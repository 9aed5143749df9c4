// Package postgres persists the ledger in PostgreSQL through a pgx pool.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/odyssey-erp/bukubesar/internal/platform/db"
	"github.com/odyssey-erp/bukubesar/internal/store"
)

const schema = "bukubesar"

// Repository stores one table per entity under the bukubesar schema.
type Repository struct {
	pool *pgxpool.Pool
}

// New wraps an existing pool.
func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

func table(entity string) string {
	return schema + "." + entity
}

func columnType(k store.Kind) string {
	switch k {
	case store.Integer:
		return "BIGINT NOT NULL DEFAULT 0"
	case store.Amount:
		return "NUMERIC(30,10)"
	default:
		return "TEXT NOT NULL DEFAULT ''"
	}
}

// Migrate creates the schema and tables when missing.
func (r *Repository) Migrate(ctx context.Context) error {
	if _, err := r.pool.Exec(ctx, "CREATE SCHEMA IF NOT EXISTS "+schema); err != nil && !duplicate(err) {
		return fmt.Errorf("postgres: create schema: %w", err)
	}
	for _, t := range store.Tables() {
		cols := []string{"seq INTEGER PRIMARY KEY"}
		for _, c := range t.Columns {
			cols = append(cols, c.Name+" "+columnType(c.Kind))
		}
		stmt := fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (%s)", table(t.Entity), strings.Join(cols, ", "))
		if _, err := r.pool.Exec(ctx, stmt); err != nil && !duplicate(err) {
			return fmt.Errorf("postgres: create %s: %w", t.Entity, err)
		}
	}
	return nil
}

// duplicate reports the races of concurrent IF NOT EXISTS statements.
func duplicate(err error) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	switch pgErr.Code {
	case "42P06", "42P07", "23505":
		return true
	}
	return false
}

func insertSQL(t store.Table) string {
	marks := []string{"$1"}
	for i, c := range t.Columns {
		p := fmt.Sprintf("$%d", i+2)
		if c.Kind == store.Amount {
			p += "::text::numeric"
		}
		marks = append(marks, p)
	}
	return fmt.Sprintf("INSERT INTO %s (seq, %s) VALUES (%s)", table(t.Entity), strings.Join(t.Header(), ", "), strings.Join(marks, ", "))
}

// Save replaces every table in one transaction.
func (r *Repository) Save(ctx context.Context, ds store.Dataset) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		for _, t := range store.Tables() {
			if _, err := tx.Exec(ctx, "DELETE FROM "+table(t.Entity)); err != nil {
				return fmt.Errorf("postgres: clear %s: %w", t.Entity, err)
			}
			rows := store.Encode(ds, t.Entity)
			if len(rows) == 0 {
				continue
			}
			batch := &pgx.Batch{}
			query := insertSQL(t)
			for seq, values := range rows {
				args := make([]any, 0, len(values)+1)
				args = append(args, int32(seq+1))
				for _, v := range values {
					args = append(args, pgValue(v))
				}
				batch.Queue(query, args...)
			}
			if err := tx.SendBatch(ctx, batch).Close(); err != nil {
				return fmt.Errorf("postgres: insert %s: %w", t.Entity, err)
			}
		}
		return nil
	})
}

func pgValue(v any) any {
	if d, ok := v.(decimal.NullDecimal); ok {
		if !d.Valid {
			return nil
		}
		return d.Decimal.String()
	}
	return v
}

// Load reads every table ordered by insertion sequence.
func (r *Repository) Load(ctx context.Context) (store.Dataset, error) {
	var dec store.Decoder
	var total int
	for _, t := range store.Tables() {
		header := t.Header()
		selects := make([]string, len(header))
		for i, h := range header {
			selects[i] = fmt.Sprintf("COALESCE(%s::text, '')", h)
		}
		rows, err := r.pool.Query(ctx, fmt.Sprintf("SELECT %s FROM %s ORDER BY seq", strings.Join(selects, ", "), table(t.Entity)))
		if err != nil {
			return store.Dataset{}, fmt.Errorf("postgres: query %s: %w", t.Entity, err)
		}
		records, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) ([]string, error) {
			cells := make([]string, len(header))
			ptrs := make([]any, len(header))
			for i := range cells {
				ptrs[i] = &cells[i]
			}
			return cells, row.Scan(ptrs...)
		})
		if err != nil {
			return store.Dataset{}, fmt.Errorf("postgres: scan %s: %w", t.Entity, err)
		}
		total += len(records)
		if err := dec.Decode(t.Entity, header, records); err != nil {
			return store.Dataset{}, err
		}
	}
	if total == 0 {
		return store.Dataset{}, store.ErrEmpty
	}
	return dec.Dataset(), nil
}
