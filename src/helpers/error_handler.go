package helpers

import (
	"fmt"
	"time"

	"stock-deck/src/logger"
)

// -----------------------------------------------------------------------------
// Custom Error Types
// -----------------------------------------------------------------------------

type StockDeckError struct {
	Message string
	Cause   error
}

func (e *StockDeckError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *StockDeckError) Unwrap() error {
	return e.Cause
}

// -----------------------------------------------------------------------------

// FetchError covers network failures and non-2xx responses from the backend.
// StatusCode is 0 when the request never produced a response.
type FetchError struct {
	StockDeckError
	StatusCode int
}

// NewFetchError builds a FetchError for the given operation.
func NewFetchError(operation string, statusCode int, cause error) *FetchError {
	return &FetchError{
		StockDeckError: StockDeckError{
			Message: fmt.Sprintf("%s failed", operation),
			Cause:   cause,
		},
		StatusCode: statusCode,
	}
}

// -----------------------------------------------------------------------------

// TransportError covers push-channel failures (dial, read, write).
type TransportError struct{ StockDeckError }

// PayloadError covers a malformed push payload; isolated to its topic.
type PayloadError struct{ StockDeckError }

// NewPayloadError builds a PayloadError with a formatted message.
func NewPayloadError(format string, args ...interface{}) *PayloadError {
	return &PayloadError{StockDeckError{Message: fmt.Sprintf(format, args...)}}
}

// ValidationError covers bad user input, rejected before the network.
type ValidationError struct{ StockDeckError }

// NewValidationError builds a ValidationError with a formatted message.
func NewValidationError(format string, args ...interface{}) *ValidationError {
	return &ValidationError{StockDeckError{Message: fmt.Sprintf(format, args...)}}
}

// -----------------------------------------------------------------------------
// Retry Logic
// -----------------------------------------------------------------------------

// RetryWithBackoff attempts to execute the operation up to maxRetries times
// with exponential backoff. Used at startup and by explicit manual-retry
// actions; the data client itself never retries automatically.
func RetryWithBackoff(log *logger.Logger, operation string, maxRetries int, baseDelay time.Duration, fn func() error) error {
	var lastErr error

	for attempt := 0; attempt < maxRetries; attempt++ {
		err := fn()
		if err == nil {
			return nil
		}

		lastErr = err
		if attempt == maxRetries-1 {
			break
		}

		delay := baseDelay * (1 << attempt)
		log.Warning("Attempt %d/%d failed for %s: %v. Retrying in %v", attempt+1, maxRetries, operation, err, delay)
		time.Sleep(delay)
	}

	return &StockDeckError{Message: fmt.Sprintf("%s failed after %d attempts", operation, maxRetries), Cause: lastErr}
}
