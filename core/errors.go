/*
errors.go - Centralized error types for the engine

PURPOSE:
  All error types in one place for consistency and discoverability.
  Callers match with errors.Is/errors.As; the API layer maps the
  classification helpers to HTTP status codes.

ERROR CATEGORIES:
  1. Lookup errors - Referenced id absent
  2. Validation errors - Business rule violations (input, stock, balance)
  3. State errors - Mutating a terminal-state record

USAGE:
  if errors.Is(err, core.ErrInsufficientStock) {
      var stockErr *core.InsufficientStockError
      errors.As(err, &stockErr)
      // stockErr.Available, stockErr.Requested
  }

SEE ALSO:
  - ledger.go: Produces these errors
  - api/handlers.go: Maps them to HTTP responses
*/
package core

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrNotFound is returned when a referenced id does not resolve.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput is returned for non-positive weights/amounts or
	// missing required fields.
	ErrInvalidInput = errors.New("invalid input")

	// ErrInsufficientStock is returned when a wholesale sale exceeds the
	// currently available stock for its category.
	ErrInsufficientStock = errors.New("insufficient stock")

	// ErrInsufficientBalance is returned when a withdrawal request exceeds
	// the member's current balance.
	ErrInsufficientBalance = errors.New("insufficient balance")

	// ErrBelowMinimum is returned when a withdrawal request is below the
	// minimum withdrawal policy amount.
	ErrBelowMinimum = errors.New("below minimum withdrawal")

	// ErrInvalidStateTransition is returned when mutating a record that is
	// already in a terminal state.
	ErrInvalidStateTransition = errors.New("invalid state transition")

	// ErrUsernameTaken is returned when registering a username that is
	// already in use (case-insensitive).
	ErrUsernameTaken = errors.New("username already taken")

	// ErrInvalidCredentials is returned on a failed login.
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// InsufficientStockError provides details about a stock shortage.
type InsufficientStockError struct {
	CategoryID CategoryID
	Available  Weight
	Requested  Weight
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for %s: available %s kg, requested %s kg",
		e.CategoryID, e.Available.String(), e.Requested.String())
}

func (e *InsufficientStockError) Unwrap() error {
	return ErrInsufficientStock
}

// InsufficientBalanceError provides details about a balance shortage.
type InsufficientBalanceError struct {
	MemberID  MemberID
	Balance   Money
	Requested Money
}

func (e *InsufficientBalanceError) Error() string {
	return fmt.Sprintf("insufficient balance for %s: have %d, requested %d",
		e.MemberID, e.Balance, e.Requested)
}

func (e *InsufficientBalanceError) Unwrap() error {
	return ErrInsufficientBalance
}

// InvalidTransitionError reports an attempted transition out of a terminal
// state.
type InvalidTransitionError struct {
	ID   string
	From string
	To   string
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("invalid state transition for %s: %s -> %s", e.ID, e.From, e.To)
}

func (e *InvalidTransitionError) Unwrap() error {
	return ErrInvalidStateTransition
}

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsNotFound returns true if the error indicates a missing record.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsClientError returns true if the error is due to invalid caller input
// rather than an internal failure.
func IsClientError(err error) bool {
	return errors.Is(err, ErrInvalidInput) ||
		errors.Is(err, ErrInsufficientStock) ||
		errors.Is(err, ErrInsufficientBalance) ||
		errors.Is(err, ErrBelowMinimum) ||
		errors.Is(err, ErrInvalidStateTransition) ||
		errors.Is(err, ErrUsernameTaken) ||
		errors.Is(err, ErrInvalidCredentials)
}
