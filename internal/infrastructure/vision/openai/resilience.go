package openai

import (
	"context"
	"errors"
	"net"

	"github.com/visionops/camsight/internal/core/domain"
	"github.com/visionops/camsight/internal/infrastructure/resilience"
)

// classifyOpenAIError decides how the resilience executor treats a failure.
// Per-attempt deadline expiry is transient (the parent context may still be
// live), cancellation is not. Rate limiting and server faults retry; client
// errors such as 400/401 never do.
func classifyOpenAIError(err error) resilience.ErrorClassification {
	if errors.Is(err, context.Canceled) {
		return resilience.ErrorClassification{Retryable: false, RecordFailure: false}
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return resilience.ErrorClassification{Retryable: true, RecordFailure: true}
	}

	var statusErr *HTTPStatusError
	if errors.As(err, &statusErr) {
		if isRetryableHTTPStatus(statusErr.StatusCode) {
			return resilience.ErrorClassification{Retryable: true, RecordFailure: true}
		}
		return resilience.ErrorClassification{Retryable: false, RecordFailure: false}
	}

	var malformed *MalformedResponseError
	if errors.As(err, &malformed) {
		return resilience.ErrorClassification{Retryable: false, RecordFailure: false}
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return resilience.ErrorClassification{Retryable: true, RecordFailure: true}
	}

	// Unknown transport-level failure: retry and count it.
	return resilience.ErrorClassification{Retryable: true, RecordFailure: true}
}

func isRetryableHTTPStatus(code int) bool {
	switch code {
	case 408, 429, 500, 502, 503, 504:
		return true
	default:
		return false
	}
}

// wrapTemporaryIfNeeded tags exhausted-retry and open-circuit failures so
// callers can report them as transient.
func wrapTemporaryIfNeeded(operation string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) {
		return err
	}
	if resilience.IsCircuitOpen(err) {
		return domain.WrapError(domain.ErrTemporary, operation, err)
	}
	if class := classifyOpenAIError(err); class.Retryable {
		return domain.WrapError(domain.ErrTemporary, operation, err)
	}
	return err
}
