package shared

import "errors"

// Error classes the transport layer maps to status codes. Domain sentinels
// wrap one of these.
var (
	// ErrValidation marks malformed or unbalanced input.
	ErrValidation = errors.New("validation failed")
	// ErrPrecondition marks a request that conflicts with the ledger state.
	ErrPrecondition = errors.New("precondition failed")
	// ErrForbidden marks a rejected administrative credential.
	ErrForbidden = errors.New("forbidden")
	// ErrNotFound marks a missing transaction, item or movement.
	ErrNotFound = errors.New("not found")
)

// Validation builds a sentinel error classified as ErrValidation.
func Validation(msg string) error {
	return &classified{msg: msg, class: ErrValidation}
}

// Precondition builds a sentinel error classified as ErrPrecondition.
func Precondition(msg string) error {
	return &classified{msg: msg, class: ErrPrecondition}
}

// Forbidden builds a sentinel error classified as ErrForbidden.
func Forbidden(msg string) error {
	return &classified{msg: msg, class: ErrForbidden}
}

// NotFound builds a sentinel error classified as ErrNotFound.
func NotFound(msg string) error {
	return &classified{msg: msg, class: ErrNotFound}
}

type classified struct {
	msg   string
	class error
}

func (e *classified) Error() string { return e.msg }

func (e *classified) Unwrap() error { return e.class }

// Reason names the class of err for logs and metric labels.
func Reason(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrValidation):
		return "validation"
	case errors.Is(err, ErrPrecondition):
		return "precondition"
	case errors.Is(err, ErrForbidden):
		return "forbidden"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	}
	return "internal"
}
