// internal/util/errors.go
package util

import (
	"errors"
	"fmt"
)

// Common application-specific errors. Services attach a message to these
// (see Errorf) and the HTTP layer maps them to status codes.
var (
	ErrNotFound            = errors.New("resource not found")
	ErrInvalidInput        = errors.New("invalid input provided")
	ErrInsufficientFunds   = errors.New("insufficient funds")
	ErrUserNotFound        = errors.New("user not found")
	ErrContractNotFound    = errors.New("contract not found")
	ErrNegotiationNotFound = errors.New("notification not found")
	ErrDuplicateEntry      = errors.New("duplicate entry")
	ErrConflict            = errors.New("conflict")
	ErrForbidden           = errors.New("forbidden")
	ErrUnauthorized        = errors.New("unauthorized")
)

// IsError reports whether any error in err's chain matches target.
func IsError(err, target error) bool {
	return errors.Is(err, target)
}

// IsNotFound reports whether err is one of the not-found sentinels.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrUserNotFound) ||
		errors.Is(err, ErrContractNotFound) ||
		errors.Is(err, ErrNegotiationNotFound)
}

// KindError carries a client-facing message while matching its sentinel kind
// under errors.Is.
type KindError struct {
	Kind error
	Msg  string
}

func (e *KindError) Error() string { return e.Msg }

func (e *KindError) Unwrap() error { return e.Kind }

// Errorf builds a KindError of the given kind.
func Errorf(kind error, format string, args ...interface{}) error {
	return &KindError{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}
