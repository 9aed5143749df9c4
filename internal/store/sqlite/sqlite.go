// Package sqlite persists the ledger in a single SQLite database file.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"

	"github.com/odyssey-erp/bukubesar/internal/store"
)

// Repository stores one table per entity and replaces them on every save.
type Repository struct {
	db *sql.DB
}

// Open creates the database file and its schema when missing.
func Open(ctx context.Context, path string) (*Repository, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("sqlite: create dir: %w", err)
		}
	}
	db, err := sql.Open("sqlite3", fmt.Sprintf("file:%s?_journal_mode=WAL&_busy_timeout=5000", path))
	if err != nil {
		return nil, fmt.Errorf("sqlite: open: %w", err)
	}
	db.SetMaxOpenConns(1)
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite: ping: %w", err)
	}
	r := &Repository{db: db}
	if err := r.migrate(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return r, nil
}

// Close releases the database handle.
func (r *Repository) Close() error {
	return r.db.Close()
}

func columnType(k store.Kind) string {
	if k == store.Integer {
		return "INTEGER NOT NULL DEFAULT 0"
	}
	if k == store.Amount {
		// decimal text keeps amounts exact
		return "TEXT"
	}
	return "TEXT NOT NULL DEFAULT ''"
}

func (r *Repository) migrate(ctx context.Context) error {
	for _, t := range store.Tables() {
		cols := []string{"seq INTEGER PRIMARY KEY"}
		for _, c := range t.Columns {
			cols = append(cols, c.Name+" "+columnType(c.Kind))
		}
		stmt := fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (%s)", t.Entity, strings.Join(cols, ", "))
		if _, err := r.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("sqlite: create %s: %w", t.Entity, err)
		}
	}
	return nil
}

// Save replaces every table inside one transaction.
func (r *Repository) Save(ctx context.Context, ds store.Dataset) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlite: begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, t := range store.Tables() {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+t.Entity); err != nil {
			return fmt.Errorf("sqlite: clear %s: %w", t.Entity, err)
		}
		marks := strings.TrimSuffix(strings.Repeat("?, ", len(t.Columns)+1), ", ")
		stmt, err := tx.PrepareContext(ctx, fmt.Sprintf("INSERT INTO %s (seq, %s) VALUES (%s)", t.Entity, strings.Join(t.Header(), ", "), marks))
		if err != nil {
			return fmt.Errorf("sqlite: prepare %s: %w", t.Entity, err)
		}
		for seq, values := range store.Encode(ds, t.Entity) {
			args := make([]any, 0, len(values)+1)
			args = append(args, seq+1)
			for _, v := range values {
				args = append(args, sqlValue(v))
			}
			if _, err := stmt.ExecContext(ctx, args...); err != nil {
				stmt.Close()
				return fmt.Errorf("sqlite: insert %s: %w", t.Entity, err)
			}
		}
		stmt.Close()
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("sqlite: commit: %w", err)
	}
	return nil
}

func sqlValue(v any) any {
	if d, ok := v.(decimal.NullDecimal); ok {
		if !d.Valid {
			return nil
		}
		return d.Decimal.String()
	}
	return v
}

// Load reads all tables back in insertion order.
func (r *Repository) Load(ctx context.Context) (store.Dataset, error) {
	var dec store.Decoder
	var total int
	for _, t := range store.Tables() {
		header := t.Header()
		selects := make([]string, len(header))
		for i, h := range header {
			selects[i] = fmt.Sprintf("COALESCE(CAST(%s AS TEXT), '')", h)
		}
		rows, err := r.db.QueryContext(ctx, fmt.Sprintf("SELECT %s FROM %s ORDER BY seq", strings.Join(selects, ", "), t.Entity))
		if err != nil {
			return store.Dataset{}, fmt.Errorf("sqlite: query %s: %w", t.Entity, err)
		}
		records, err := scanStrings(rows, len(header))
		if err != nil {
			return store.Dataset{}, fmt.Errorf("sqlite: scan %s: %w", t.Entity, err)
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

func scanStrings(rows *sql.Rows, width int) ([][]string, error) {
	defer rows.Close()
	var out [][]string
	for rows.Next() {
		cells := make([]string, width)
		ptrs := make([]any, width)
		for i := range cells {
			ptrs[i] = &cells[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, err
		}
		out = append(out, cells)
	}
	return out, rows.Err()
}
