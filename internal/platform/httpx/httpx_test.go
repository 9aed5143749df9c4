package httpx

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/odyssey-erp/bukubesar/internal/accounting/journals"
	"github.com/odyssey-erp/bukubesar/internal/accounting/shared"
	_ "github.com/odyssey-erp/bukubesar/testing"
)

func TestRespondErrorStatusMapping(t *testing.T) {
	cases := []struct {
		err    error
		status int
	}{
		{fmt.Errorf("wrap: %w", shared.Validation("bad")), http.StatusBadRequest},
		{shared.Precondition("closing"), http.StatusConflict},
		{shared.Forbidden("secret"), http.StatusForbidden},
		{shared.NotFound("missing"), http.StatusNotFound},
		{errors.New("disk"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		rr := httptest.NewRecorder()
		RespondError(rr, tc.err)
		require.Equal(t, tc.status, rr.Code, tc.err.Error())
		require.Equal(t, "application/problem+json", rr.Header().Get("Content-Type"))
	}
}

func TestRespondErrorHidesInternalDetail(t *testing.T) {
	rr := httptest.NewRecorder()
	RespondError(rr, errors.New("connection refused to 10.0.0.1"))
	require.NotContains(t, rr.Body.String(), "10.0.0.1")
}

func TestRespondErrorUnbalancedCarriesDelta(t *testing.T) {
	rr := httptest.NewRecorder()
	RespondError(rr, &journals.UnbalancedError{Debit: decimal.NewFromInt(50_000), Credit: decimal.NewFromInt(40_000)})
	require.Equal(t, http.StatusBadRequest, rr.Code)

	var body UnbalancedProblem
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	require.Equal(t, "10000.00", body.Delta)
	require.Equal(t, "50000.00", body.Debit)
}

func TestDecodeJSON(t *testing.T) {
	var target struct {
		Name string `json:"name"`
	}
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name":"Kas"}`))
	require.NoError(t, DecodeJSON(req, &target))
	require.Equal(t, "Kas", target.Name)

	req = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"nama":"Kas"}`))
	err := DecodeJSON(req, &target)
	require.ErrorIs(t, err, shared.ErrValidation)
}
