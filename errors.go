package paywall

import (
	"errors"
	"fmt"
)

// Sentinel errors for common failure scenarios.
var (
	// General errors
	ErrNotFound      = errors.New("paywall: not found")
	ErrAlreadyExists = errors.New("paywall: already exists")
	ErrInvalidInput  = errors.New("paywall: invalid input")

	// Authorization errors
	ErrUnauthorized = errors.New("paywall: unauthorized")

	// Content registry errors
	ErrContentRegistered    = errors.New("paywall: content already registered")
	ErrContentNotRegistered = errors.New("paywall: content not registered")

	// Purchase errors
	ErrInsufficientPayment = errors.New("paywall: payment below subscription price")
	ErrCurrencyMismatch    = errors.New("paywall: payment currency mismatch")

	// Pass lifecycle errors
	ErrUnknownToken = errors.New("paywall: unknown token")
	ErrPassExpired  = errors.New("paywall: pass expired")

	// Treasury errors
	ErrTransferFailed = errors.New("paywall: outbound transfer failed")

	// Price policy errors
	ErrPriceNotSet  = errors.New("paywall: price not set")
	ErrInvalidPrice = errors.New("paywall: invalid price")

	// Store errors
	ErrPoolsNotInitialized = errors.New("paywall: treasury pools not initialized")
	ErrStoreClosed         = errors.New("paywall: store is closed")
)

// ValidationError represents a validation failure with details.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("paywall: validation failed for %s: %s", e.Field, e.Message)
}

// IsNotFound returns true if the error is a not found error.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrContentNotRegistered) ||
		errors.Is(err, ErrUnknownToken)
}

// IsAuthorization returns true if the error is an authorization failure.
func IsAuthorization(err error) bool {
	return errors.Is(err, ErrUnauthorized)
}

// IsLifecycle returns true if the error concerns the pass lifecycle
// rather than the request itself.
func IsLifecycle(err error) bool {
	return errors.Is(err, ErrUnknownToken) ||
		errors.Is(err, ErrPassExpired)
}

// IsRetryable returns true if the error is temporary and the operation
// can be resubmitted wholesale by the caller.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrTransferFailed)
}
