package adapter

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
)

// AdapterError classifies channel delivery failures as transient or permanent.
type AdapterError struct {
	StatusCode int
	Message    string
	Permanent  bool
	Cause      error
}

func (e *AdapterError) Error() string {
	if e == nil {
		return "<nil>"
	}

	parts := make([]string, 0, 4)
	parts = append(parts, "adapter error")

	if e.StatusCode > 0 {
		parts = append(parts, fmt.Sprintf("status=%d", e.StatusCode))
	}
	if msg := strings.TrimSpace(e.Message); msg != "" {
		parts = append(parts, msg)
	}
	if e.Cause != nil {
		parts = append(parts, e.Cause.Error())
	}

	return strings.Join(parts, ": ")
}

func (e *AdapterError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

// IsRetryable reports whether a failed delivery attempt should be retried.
// Timeouts and transient provider failures retry; invalid recipients and
// rejected templates do not.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	if errors.Is(err, context.Canceled) {
		return false
	}

	var adapterErr *AdapterError
	if errors.As(err, &adapterErr) {
		return !adapterErr.Permanent
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return netErr.Timeout()
	}

	return false
}

// permanentForStatus maps an HTTP status code to failure class: 408, 429 and
// 5xx are transient, other 4xx are permanent rejections.
func permanentForStatus(statusCode int) bool {
	switch {
	case statusCode == 408, statusCode == 429:
		return false
	case statusCode >= 500:
		return false
	default:
		return true
	}
}
