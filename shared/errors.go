package shared

import (
	"errors"
	"fmt"
)

// Domain error taxonomy. Callers never see a bare transport error: every
// failure that crosses a service boundary is one of these types so that the
// HTTP layer can map it to a response without inspecting internals.

// CompanyNotFoundError indicates a lookup or deletion referenced a company
// that is not in the store.
type CompanyNotFoundError struct {
	Key string // ticker or company name, whichever the caller used
}

func (e *CompanyNotFoundError) Error() string {
	return fmt.Sprintf("company not found: %s", e.Key)
}

// TickerConflictError indicates an attempt to create a company whose ticker
// is already tracked.
type TickerConflictError struct {
	Ticker string
}

func (e *TickerConflictError) Error() string {
	return fmt.Sprintf("ticker already exists: %s", e.Ticker)
}

// ScrapingFailedError indicates the network fetch for a company failed. It
// always carries the ticker so operators can tell which company stalled.
type ScrapingFailedError struct {
	Ticker string
	Cause  error
}

func (e *ScrapingFailedError) Error() string {
	return fmt.Sprintf("failed to scrape dividend data for ticker %s: %v", e.Ticker, e.Cause)
}

func (e *ScrapingFailedError) Unwrap() error {
	return e.Cause
}

// UnexpectedMonthError indicates a dividend row carried a month token outside
// the known abbreviation set. This is fatal for the whole extraction: it means
// the upstream page format changed and no parsed value can be trusted.
type UnexpectedMonthError struct {
	Token string
}

func (e *UnexpectedMonthError) Error() string {
	return fmt.Sprintf("unexpected month token in dividend row: %q", e.Token)
}

// MalformedRowError indicates a dividend row matched the marker but its day or
// year token would not parse. Like an unknown month it aborts the extraction:
// partial trust in a drifted format is worse than a loud failure.
type MalformedRowError struct {
	RowText string
	Cause   error
}

func (e *MalformedRowError) Error() string {
	return fmt.Sprintf("malformed dividend row %q: %v", e.RowText, e.Cause)
}

func (e *MalformedRowError) Unwrap() error {
	return e.Cause
}

// IsCompanyNotFound reports whether err is a CompanyNotFoundError.
func IsCompanyNotFound(err error) bool {
	var target *CompanyNotFoundError
	return errors.As(err, &target)
}

// IsTickerConflict reports whether err is a TickerConflictError.
func IsTickerConflict(err error) bool {
	var target *TickerConflictError
	return errors.As(err, &target)
}

// IsScrapingFailed reports whether err is a ScrapingFailedError.
func IsScrapingFailed(err error) bool {
	var target *ScrapingFailedError
	return errors.As(err, &target)
}

// IsUnexpectedMonth reports whether err is an UnexpectedMonthError.
func IsUnexpectedMonth(err error) bool {
	var target *UnexpectedMonthError
	return errors.As(err, &target)
}
