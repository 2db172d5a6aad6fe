package cgt

import "fmt"

// The core never retries: every error below is terminal to the triggering
// call, and the ledger is left exactly as it was before the call.

// ValidationError reports malformed input: non-positive quantity or price,
// an unparseable date or ratio.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func errValidation(field, format string, args ...any) error {
	return &ValidationError{Field: field, Reason: fmt.Sprintf(format, args...)}
}

// InsufficientHoldingsError reports a sell that exceeds the remaining
// quantity held for the symbol. The check runs before any lot is consumed,
// so a failed sell never partially commits.
type InsufficientHoldingsError struct {
	Symbol    string
	Requested Quantity
	Available Quantity
}

func (e *InsufficientHoldingsError) Error() string {
	return fmt.Sprintf("cannot sell %s of %s, only %s available", e.Requested, e.Symbol, e.Available)
}

// DuplicateActionError reports a corporate action applied twice for the same
// (symbol, kind, ex-date) while the first application is still active.
type DuplicateActionError struct {
	Symbol string
	Kind   ActionKind
	ExDate Date
}

func (e *DuplicateActionError) Error() string {
	return fmt.Sprintf("%s action for %s with ex-date %s is already applied", e.Kind, e.Symbol, e.ExDate)
}

// NoEligibleLotsError reports a corporate action whose ex-date precedes every
// lot held for the symbol.
type NoEligibleLotsError struct {
	Symbol string
	ExDate Date
}

func (e *NoEligibleLotsError) Error() string {
	return fmt.Sprintf("no lot of %s acquired before ex-date %s", e.Symbol, e.ExDate)
}

// RatioError reports a corporate-action ratio that is unparseable, out of
// range, or too small to grant a single share.
type RatioError struct {
	Ratio  string
	Reason string
}

func (e *RatioError) Error() string {
	return fmt.Sprintf("invalid ratio %q: %s", e.Ratio, e.Reason)
}

// PostActionSalesError reports a reversal blocked by sales recorded after the
// action was applied. Reversing would retroactively change already-reported
// realized gains.
type PostActionSalesError struct {
	Symbol      string
	AppliedDate Date
}

func (e *PostActionSalesError) Error() string {
	return fmt.Sprintf("sales of %s recorded after %s, action cannot be reversed", e.Symbol, e.AppliedDate)
}

// PartiallySoldError reports a rights-issue reversal blocked because the
// rights lot has been partially consumed by a sale.
type PartiallySoldError struct {
	Symbol    string
	Remaining Quantity
	Quantity  Quantity
}

func (e *PartiallySoldError) Error() string {
	return fmt.Sprintf("rights lot of %s partially sold (%s of %s remaining), action cannot be reversed",
		e.Symbol, e.Remaining, e.Quantity)
}
