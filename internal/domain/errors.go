package domain

import (
	"errors"
	"fmt"
)

// ErrorKind groups wallet errors by how a caller should react to them.
type ErrorKind string

const (
	KindValidation  ErrorKind = "validation"            // Input rejected before touching state
	KindNotFound    ErrorKind = "not_found"             // Referenced account does not exist
	KindConflict    ErrorKind = "conflict"              // State does not allow the operation
	KindUnsupported ErrorKind = "unsupported_operation" // Posting type with no balance rule
)

// Error codes carried by *Error.
const (
	CodeInvalidOwnerType        = "invalid_owner_type"
	CodeOwnerTypeNotAllowed     = "owner_type_not_allowed"
	CodeMissingDisplayName      = "missing_display_name"
	CodeMissingOwnerID          = "missing_owner_id"
	CodeInvalidCurrency         = "invalid_currency"
	CodeInvalidStatus           = "invalid_status"
	CodeInvalidTransactionType  = "invalid_transaction_type"
	CodeInvalidAmount           = "invalid_amount"
	CodeCurrencyMismatch        = "currency_mismatch"
	CodeAccountNotFound         = "account_not_found"
	CodeInsufficientBalance     = "insufficient_balance"
	CodeAccountClosed           = "account_closed"
	CodeInvalidStatusTransition = "invalid_status_transition"
	CodeUnsupportedOperation    = "unsupported_operation"
	CodeLedgerMismatch          = "ledger_mismatch"
)

// Error is a wallet domain error with an explicit kind.
type Error struct {
	Kind    ErrorKind
	Code    string
	Field   string
	Message string
}

func (e *Error) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("%s: %s", e.Code, e.Message)
	}

	return fmt.Sprintf("%s: %s (%s)", e.Code, e.Message, e.Field)
}

func NewValidationError(code, field, message string) *Error {
	return &Error{Kind: KindValidation, Code: code, Field: field, Message: message}
}

func NewNotFoundError(code, message string) *Error {
	return &Error{Kind: KindNotFound, Code: code, Message: message}
}

func NewConflictError(code, message string) *Error {
	return &Error{Kind: KindConflict, Code: code, Message: message}
}

func NewUnsupportedError(message string) *Error {
	return &Error{Kind: KindUnsupported, Code: CodeUnsupportedOperation, Message: message}
}

// ErrAccountNotFound builds the not-found error for an account id.
func ErrAccountNotFound(id string) *Error {
	return NewNotFoundError(CodeAccountNotFound, fmt.Sprintf("wallet account %q not found", id))
}

// KindOf reports the kind of err when it wraps an *Error.
func KindOf(err error) (ErrorKind, bool) {
	var werr *Error
	if errors.As(err, &werr) {
		return werr.Kind, true
	}

	return "", false
}

// HasCode reports whether err wraps an *Error with the given code.
func HasCode(err error, code string) bool {
	var werr *Error

	return errors.As(err, &werr) && werr.Code == code
}
