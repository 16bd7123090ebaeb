// Package errors provides the classified error taxonomy for the search core.
//
// Every failure leaving the primary search path is one of the StandardError
// kinds below, carrying a message safe to put in front of a user. The
// suggestion path never lets any of these escape; it degrades to empty lists.
package errors

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"
)

// ErrorCode represents standardized internal error codes.
type ErrorCode string

const (
	ErrCodeBackendUnreachable ErrorCode = "SEARCH_BACKEND_UNREACHABLE"
	ErrCodeSearchTimeout      ErrorCode = "SEARCH_TIMEOUT"
	ErrCodeInvalidQuery       ErrorCode = "INVALID_SEARCH_QUERY"
	ErrCodeBackendFault       ErrorCode = "SEARCH_BACKEND_FAULT"
	ErrCodeCancelled          ErrorCode = "SEARCH_CANCELLED"
	ErrCodeUnclassified       ErrorCode = "UNCLASSIFIED"
)

// StandardError represents a structured, classified application error.
type StandardError struct {
	Code      ErrorCode `json:"code"`
	Message   string    `json:"message"`
	Details   string    `json:"details,omitempty"`
	Retryable bool      `json:"retryable"`
	Timestamp time.Time `json:"timestamp"`
}

func (e *StandardError) Error() string {
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

// NewBackendUnreachableError creates a retryable connection error.
func NewBackendUnreachableError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeBackendUnreachable,
		Message:   "جستجو در حال حاضر در دسترس نیست، لطفا بعدا تلاش کنید",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewSearchTimeoutError creates a retryable timeout error.
func NewSearchTimeoutError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeSearchTimeout,
		Message:   "جستجو بیش از حد طول کشید، لطفا جستجوی خود را محدودتر کنید",
		Details:   details,
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewInvalidQueryError creates a non-retryable client error.
func NewInvalidQueryError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeInvalidQuery,
		Message:   "پارامترهای جستجو نامعتبر است",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewBackendFaultError creates a retryable server-side error.
func NewBackendFaultError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeBackendFault,
		Message:   "خطایی هنگام جستجو رخ داد",
		Details:   details,
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewCancelledError marks a deadline or caller cancellation. Silent: callers
// on the suggestion path drop it without logging an error.
func NewCancelledError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeCancelled,
		Message:   "",
		Details:   err.Error(),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewUnclassifiedError passes the original message through unchanged.
func NewUnclassifiedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeUnclassified,
		Message:   err.Error(),
		Details:   err.Error(),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// Classify maps a transport-level failure to a StandardError. statusCode is
// the HTTP status of the backend response when one was received, 0 otherwise.
func Classify(err error, statusCode int) *StandardError {
	if err != nil {
		var stdErr *StandardError
		if errors.As(err, &stdErr) {
			return stdErr
		}
		if errors.Is(err, context.Canceled) {
			return NewCancelledError(err)
		}
		if errors.Is(err, context.DeadlineExceeded) {
			return NewSearchTimeoutError(err.Error())
		}
		var netErr net.Error
		if errors.As(err, &netErr) {
			if netErr.Timeout() {
				return NewSearchTimeoutError(err.Error())
			}
			return NewBackendUnreachableError(err)
		}
		var opErr *net.OpError
		if errors.As(err, &opErr) {
			return NewBackendUnreachableError(err)
		}
	}

	switch {
	case statusCode >= 400 && statusCode < 500:
		details := fmt.Sprintf("backend returned status %d", statusCode)
		if err != nil {
			details = err.Error()
		}
		return NewInvalidQueryError(details)
	case statusCode >= 500:
		details := fmt.Sprintf("backend returned status %d", statusCode)
		if err != nil {
			details = err.Error()
		}
		return NewBackendFaultError(details)
	}

	if err == nil {
		err = fmt.Errorf("unknown search failure (status %d)", statusCode)
	}
	return NewUnclassifiedError(err)
}

// IsSilent reports whether an error must be swallowed without error-level
// logging (deadline and caller cancellations on the suggestion path).
func IsSilent(err error) bool {
	var stdErr *StandardError
	if errors.As(err, &stdErr) {
		return stdErr.Code == ErrCodeCancelled
	}
	return errors.Is(err, context.Canceled)
}

// CodeOf extracts the classified code, or ErrCodeUnclassified for foreign errors.
func CodeOf(err error) ErrorCode {
	var stdErr *StandardError
	if errors.As(err, &stdErr) {
		return stdErr.Code
	}
	return ErrCodeUnclassified
}
