package postgres

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/require"

	"github.com/odyssey-erp/bukubesar/internal/store"
	_ "github.com/odyssey-erp/bukubesar/testing"
)

func TestInsertSQLCastsAmounts(t *testing.T) {
	tbl, ok := store.Lookup(store.EntityJournal)
	require.True(t, ok)
	q := insertSQL(tbl)
	require.True(t, strings.HasPrefix(q, "INSERT INTO bukubesar.journal (seq, transaction_id, date, account, debit, credit, source, memo)"))
	require.Contains(t, q, "$5::text::numeric")
	require.Contains(t, q, "$6::text::numeric")
	require.NotContains(t, q, "$4::text")
}

func TestDuplicateDetection(t *testing.T) {
	require.True(t, duplicate(&pgconn.PgError{Code: "42P07"}))
	require.True(t, duplicate(fmt.Errorf("wrapped: %w", &pgconn.PgError{Code: "42P06"})))
	require.False(t, duplicate(&pgconn.PgError{Code: "42601"}))
	require.False(t, duplicate(errors.New("boom")))
}
