// Package httpx provides HTTP response utilities.
package httpx

import (
	"errors"
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/odyssey-erp/bukubesar/internal/accounting/journals"
	"github.com/odyssey-erp/bukubesar/internal/accounting/shared"
)

// ErrBadRequest marks a request body that could not be decoded.
var ErrBadRequest = shared.Validation("malformed request body")

// UnbalancedProblem extends the problem document with the rejected totals.
type UnbalancedProblem struct {
	ProblemDetail
	Debit  string `json:"debit"`
	Credit string `json:"credit"`
	Delta  string `json:"delta"`
}

// RespondError maps domain errors to HTTP responses using RFC7807.
func RespondError(w http.ResponseWriter, err error) {
	var unbalanced *journals.UnbalancedError
	var invalid validator.ValidationErrors
	switch {
	case errors.As(err, &unbalanced):
		JSON(w, http.StatusBadRequest, UnbalancedProblem{
			ProblemDetail: ProblemDetail{Title: "Validation Failed", Status: http.StatusBadRequest, Detail: err.Error()},
			Debit:         unbalanced.Debit.StringFixed(2),
			Credit:        unbalanced.Credit.StringFixed(2),
			Delta:         unbalanced.Delta().StringFixed(2),
		})
	case errors.As(err, &invalid):
		Problem(w, http.StatusBadRequest, "Validation Failed", invalid.Error())
	case errors.Is(err, shared.ErrValidation):
		Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
	case errors.Is(err, shared.ErrNotFound):
		Problem(w, http.StatusNotFound, "Not Found", err.Error())
	case errors.Is(err, shared.ErrForbidden):
		Problem(w, http.StatusForbidden, "Forbidden", err.Error())
	case errors.Is(err, shared.ErrPrecondition):
		Problem(w, http.StatusConflict, "Conflict", err.Error())
	default:
		Problem(w, http.StatusInternalServerError, "Internal Error", "")
	}
}
