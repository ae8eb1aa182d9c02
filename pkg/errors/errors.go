// Package errors provides structured error handling for paylink.
// It defines sentinel errors, exit codes, and helpers for adding
// context, details, and suggestions to errors.
//
//nolint:revive // Package name intentionally shadows stdlib for domain-specific error handling
package errors

import (
	"errors"
	"fmt"
	"sort"
)

// Exit codes returned by the CLI.
const (
	ExitSuccess  = 0 // Successful execution
	ExitGeneral  = 1 // General/unknown error
	ExitInput    = 2 // Invalid input
	ExitNotFound = 4 // Resource not found
)

// PaylinkError is the structured error type for paylink.
type PaylinkError struct {
	Code       string            // Machine-readable error code
	Message    string            // Human-readable message
	Details    map[string]string // Additional context
	Suggestion string            // Actionable suggestion for user
	Cause      error             // Underlying error
	ExitCode   int               // Exit code for CLI
}

func (e *PaylinkError) Error() string {
	msg := e.Message

	// Details are sorted for deterministic output
	if len(e.Details) > 0 {
		keys := make([]string, 0, len(e.Details))
		for k := range e.Details {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			msg = fmt.Sprintf("%s (%s: %s)", msg, k, e.Details[k])
		}
	}

	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", msg, e.Cause)
	}
	return msg
}

func (e *PaylinkError) Unwrap() error {
	return e.Cause
}

// Is implements errors.Is for PaylinkError. Two errors match when their codes match.
func (e *PaylinkError) Is(target error) bool {
	var t *PaylinkError
	if errors.As(target, &t) {
		return e.Code == t.Code
	}
	return false
}

// Sentinel errors.
var (
	ErrGeneral = &PaylinkError{
		Code:     "GENERAL_ERROR",
		Message:  "an error occurred",
		ExitCode: ExitGeneral,
	}

	ErrInvalidInput = &PaylinkError{
		Code:     "INVALID_INPUT",
		Message:  "invalid input",
		ExitCode: ExitInput,
	}

	ErrNotFound = &PaylinkError{
		Code:     "NOT_FOUND",
		Message:  "resource not found",
		ExitCode: ExitNotFound,
	}

	ErrNetworkError = &PaylinkError{
		Code:     "NETWORK_ERROR",
		Message:  "network communication failed",
		ExitCode: ExitGeneral,
	}

	// Catalog errors.
	ErrWalletNotFound = &PaylinkError{
		Code:     "WALLET_NOT_FOUND",
		Message:  "wallet not found in catalog",
		ExitCode: ExitNotFound,
	}

	ErrCatalogInvalid = &PaylinkError{
		Code:     "CATALOG_INVALID",
		Message:  "wallet catalog is invalid",
		ExitCode: ExitInput,
	}

	ErrDuplicateWallet = &PaylinkError{
		Code:     "DUPLICATE_WALLET",
		Message:  "wallet id is listed more than once",
		ExitCode: ExitInput,
	}

	// Payment request errors.
	ErrPayRequestInvalid = &PaylinkError{
		Code:     "PAY_REQUEST_INVALID",
		Message:  "payment request is invalid",
		ExitCode: ExitInput,
	}

	ErrMissingContext = &PaylinkError{
		Code:     "MISSING_CONTEXT",
		Message:  "payment context required to resolve this wallet is missing",
		ExitCode: ExitInput,
	}

	ErrQuoteExpired = &PaylinkError{
		Code:     "QUOTE_EXPIRED",
		Message:  "payment quote has expired",
		ExitCode: ExitInput,
	}

	// EVM URI errors.
	ErrInvalidURI = &PaylinkError{
		Code:     "INVALID_URI",
		Message:  "invalid payment URI",
		ExitCode: ExitInput,
	}

	ErrInvalidAddress = &PaylinkError{
		Code:     "INVALID_ADDRESS",
		Message:  "invalid address format",
		ExitCode: ExitInput,
	}

	ErrInvalidChecksum = &PaylinkError{
		Code:     "INVALID_CHECKSUM",
		Message:  "address checksum does not match",
		ExitCode: ExitInput,
	}

	ErrInvalidAmount = &PaylinkError{
		Code:     "INVALID_AMOUNT",
		Message:  "invalid amount format",
		ExitCode: ExitInput,
	}

	// Config errors.
	ErrConfigNotFound = &PaylinkError{
		Code:     "CONFIG_NOT_FOUND",
		Message:  "configuration file not found",
		ExitCode: ExitNotFound,
	}

	ErrConfigInvalid = &PaylinkError{
		Code:     "CONFIG_INVALID",
		Message:  "configuration file is invalid",
		ExitCode: ExitInput,
	}

	ErrUnknownConfigKey = &PaylinkError{
		Code:     "UNKNOWN_CONFIG_KEY",
		Message:  "unknown config key",
		ExitCode: ExitInput,
	}

	ErrInvalidValue = &PaylinkError{
		Code:     "INVALID_VALUE",
		Message:  "invalid value",
		ExitCode: ExitInput,
	}
)

// New creates a new PaylinkError with the given code and message.
func New(code, message string) *PaylinkError {
	return &PaylinkError{
		Code:     code,
		Message:  message,
		ExitCode: ExitGeneral,
	}
}

// Wrap wraps an error with additional context.
func Wrap(err error, format string, args ...any) error {
	if err == nil {
		return nil
	}

	msg := fmt.Sprintf(format, args...)

	var pe *PaylinkError
	if errors.As(err, &pe) {
		return &PaylinkError{
			Code:       pe.Code,
			Message:    fmt.Sprintf("%s: %s", msg, pe.Message),
			Details:    pe.Details,
			Suggestion: pe.Suggestion,
			Cause:      err,
			ExitCode:   pe.ExitCode,
		}
	}

	return &PaylinkError{
		Code:     "GENERAL_ERROR",
		Message:  msg,
		Cause:    err,
		ExitCode: ExitGeneral,
	}
}

// WithDetails adds details to an error.
func WithDetails(err error, details map[string]string) error {
	if err == nil {
		return nil
	}

	var pe *PaylinkError
	if errors.As(err, &pe) {
		return &PaylinkError{
			Code:       pe.Code,
			Message:    pe.Message,
			Details:    details,
			Suggestion: pe.Suggestion,
			Cause:      pe.Cause,
			ExitCode:   pe.ExitCode,
		}
	}

	return &PaylinkError{
		Code:     "GENERAL_ERROR",
		Message:  err.Error(),
		Details:  details,
		Cause:    err,
		ExitCode: ExitGeneral,
	}
}

// WithSuggestion adds a suggestion to an error.
func WithSuggestion(err error, suggestion string) error {
	if err == nil {
		return nil
	}

	var pe *PaylinkError
	if errors.As(err, &pe) {
		return &PaylinkError{
			Code:       pe.Code,
			Message:    pe.Message,
			Details:    pe.Details,
			Suggestion: suggestion,
			Cause:      pe.Cause,
			ExitCode:   pe.ExitCode,
		}
	}

	return &PaylinkError{
		Code:       "GENERAL_ERROR",
		Message:    err.Error(),
		Suggestion: suggestion,
		Cause:      err,
		ExitCode:   ExitGeneral,
	}
}

// WithCause attaches an underlying cause while keeping the sentinel identity.
func WithCause(sentinel *PaylinkError, cause error) error {
	return &PaylinkError{
		Code:       sentinel.Code,
		Message:    sentinel.Message,
		Details:    sentinel.Details,
		Suggestion: sentinel.Suggestion,
		Cause:      cause,
		ExitCode:   sentinel.ExitCode,
	}
}

// ExitCode returns the appropriate exit code for an error.
func ExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}

	var pe *PaylinkError
	if errors.As(err, &pe) {
		return pe.ExitCode
	}

	return ExitGeneral
}

// Code returns the error code for an error.
func Code(err error) string {
	var pe *PaylinkError
	if errors.As(err, &pe) {
		return pe.Code
	}
	return "GENERAL_ERROR"
}

// Is wraps errors.Is for convenience.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As wraps errors.As for convenience.
func As(err error, target any) bool {
	return errors.As(err, target)
}
