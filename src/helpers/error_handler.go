package helpers

import (
	"fmt"

	"tick-relay/src/logger"
)

// -----------------------------------------------------------------------------
// Custom Error Types
// -----------------------------------------------------------------------------

type RelayError struct {
	Message string
	Cause   error
}

func (e *RelayError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *RelayError) Unwrap() error {
	return e.Cause
}

// Helper to define distinct error types for type assertions if needed
type ConfigurationError struct{ RelayError }
type UpstreamError struct{ RelayError }
type ValidationError struct{ RelayError }

// -----------------------------------------------------------------------------

func NewConfigurationError(message string, cause error) *ConfigurationError {
	return &ConfigurationError{RelayError{Message: message, Cause: cause}}
}

func NewUpstreamError(message string, cause error) *UpstreamError {
	return &UpstreamError{RelayError{Message: message, Cause: cause}}
}

func NewValidationError(message string) *ValidationError {
	return &ValidationError{RelayError{Message: message}}
}

// -----------------------------------------------------------------------------
// Error Handler
// -----------------------------------------------------------------------------

// ErrorHandler centralizes the "log and move on" policy for errors that must
// never take the relay down: socket read failures, best-effort teardown, late
// upstream callbacks.
type ErrorHandler struct {
	Logger *logger.Logger
}

func NewErrorHandler(logLevel string) *ErrorHandler {
	return &ErrorHandler{
		Logger: logger.NewLogger(logLevel, "ErrorHandler"),
	}
}

// -----------------------------------------------------------------------------

// Handle logs the error with its context. Nil errors are ignored.
func (e *ErrorHandler) Handle(err error, context string) {
	if err != nil {
		e.Logger.Error("Error in %s: %v", context, err)
	}
}
