package domain

import (
	"errors"
	"fmt"
)

// DomainError represents a business domain error with a structured error code.
//
// Codes have the shape LD-<AREA>-<NNNN>; the numeric part borrows the HTTP status
// family it would map to (4xxx caller mistakes, 5xxx server side).
type DomainError struct {
	Code    string // Error code (e.g., "LD-ACCT-4040")
	Message string // Human-readable message
	Details string // Optional additional details
	Cause   error  // Underlying error (if any)
}

// Error implements the error interface.
func (e *DomainError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("[%s] %s: %s", e.Code, e.Message, e.Details)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying error for errors.Unwrap() support.
func (e *DomainError) Unwrap() error {
	return e.Cause
}

// Is matches any DomainError carrying the same code.
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// NewDomainError creates a new DomainError with the given code and message.
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// WithDetails returns a copy of the error with additional details.
func (e *DomainError) WithDetails(details string) *DomainError {
	return &DomainError{
		Code:    e.Code,
		Message: e.Message,
		Details: details,
		Cause:   e.Cause,
	}
}

// WithDetailsf is WithDetails with fmt formatting.
func (e *DomainError) WithDetailsf(format string, args ...any) *DomainError {
	return e.WithDetails(fmt.Sprintf(format, args...))
}

// WithCause returns a copy of the error wrapping the given cause.
func (e *DomainError) WithCause(cause error) *DomainError {
	return &DomainError{
		Code:    e.Code,
		Message: e.Message,
		Details: e.Details,
		Cause:   cause,
	}
}

// Describe renders the message and details without the code, for envelopes that
// carry the code in a field of its own.
func (e *DomainError) Describe() string {
	if e.Details != "" {
		return e.Message + ": " + e.Details
	}
	return e.Message
}

// IsDomainError checks if an error is a DomainError with the given code.
// If code is empty, it only checks if the error is a DomainError.
func IsDomainError(err error, code string) bool {
	var de *DomainError
	if errors.As(err, &de) {
		if code == "" {
			return true
		}
		return de.Code == code
	}
	return false
}

// GetErrorCode extracts the error code from an error if it's a DomainError.
func GetErrorCode(err error) string {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Code
	}
	return ""
}

// ============================================================================
// Argument Errors (ARG)
// ============================================================================

var (
	// ErrMissingField indicates a required request field is absent.
	ErrMissingField = NewDomainError("LD-ARG-4001", "missing required field")

	// ErrInvalidFieldType indicates a field is present but of the wrong primitive type.
	ErrInvalidFieldType = NewDomainError("LD-ARG-4002", "invalid field type")

	// ErrInvalidFieldValue indicates a well-typed field outside its allowed range or format.
	ErrInvalidFieldValue = NewDomainError("LD-ARG-4003", "invalid field value")
)

// ============================================================================
// Account Errors (ACCT)
// ============================================================================

var (
	// ErrAccountNotFound indicates no account has the requested number.
	ErrAccountNotFound = NewDomainError("LD-ACCT-4040", "account not found")

	// ErrDuplicateAccount indicates the account number is already taken.
	ErrDuplicateAccount = NewDomainError("LD-ACCT-4090", "account already exists")

	// ErrUnknownAccountType indicates the type discriminator names no known variant.
	ErrUnknownAccountType = NewDomainError("LD-ACCT-4004", "unknown account type")

	// ErrInvalidAmount indicates a negative transaction amount or an out-of-range balance.
	ErrInvalidAmount = NewDomainError("LD-ACCT-4005", "invalid amount")

	// ErrInsufficientFunds indicates a savings withdrawal would go below zero.
	ErrInsufficientFunds = NewDomainError("LD-ACCT-4220", "insufficient funds")

	// ErrOverdraftExceeded indicates a checking withdrawal would pass the overdraft limit.
	ErrOverdraftExceeded = NewDomainError("LD-ACCT-4221", "overdraft limit exceeded")

	// ErrNotApplicable indicates a variant-specific operation on the other variant.
	ErrNotApplicable = NewDomainError("LD-ACCT-4050", "operation not applicable to account type")
)

// ============================================================================
// System Errors (SYS)
// ============================================================================

var (
	// ErrInvalidEnvelope indicates a request frame that could not be decoded.
	ErrInvalidEnvelope = NewDomainError("LD-SYS-4000", "invalid JSON format")

	// ErrUnknownAction indicates an action outside the protocol vocabulary.
	ErrUnknownAction = NewDomainError("LD-SYS-4001", "invalid action")

	// ErrForbidden indicates a client outside the admin allow list.
	ErrForbidden = NewDomainError("LD-SYS-4030", "client not allowed")

	// ErrRateLimited indicates the client exceeded its request budget.
	ErrRateLimited = NewDomainError("LD-SYS-4290", "too many requests")

	// ErrInternal indicates an unexpected server-side failure.
	ErrInternal = NewDomainError("LD-SYS-5000", "internal server error")

	// ErrNotImplemented indicates an action that is part of the vocabulary but has no handler.
	ErrNotImplemented = NewDomainError("LD-SYS-5010", "action not implemented")

	// ErrCacheUnavailable indicates the backing cache/store failed.
	ErrCacheUnavailable = NewDomainError("LD-SYS-5030", "cache unavailable")
)
