package ollama

import (
	"context"
	"errors"
	"net"
	"net/http"
	"strings"

	"github.com/lexilocal/lexilocal/internal/core/domain"
	"github.com/lexilocal/lexilocal/internal/infrastructure/resilience"
)

// classifyBoundaryError decides retry and breaker behavior for Ollama calls.
// Transport faults and overload statuses are transient; everything else is
// a hard failure that retrying cannot fix.
func classifyBoundaryError(err error) resilience.ErrorClassification {
	if err == nil {
		return resilience.ErrorClassification{}
	}

	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return resilience.ErrorClassification{Retryable: false, RecordFailure: false}
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return resilience.ErrorClassification{Retryable: true, RecordFailure: true}
	}

	var statusErr *HTTPStatusError
	if errors.As(err, &statusErr) {
		if isRetryableStatus(statusErr.StatusCode) {
			return resilience.ErrorClassification{Retryable: true, RecordFailure: true}
		}
		// 4xx means the request itself is wrong. The breaker should not
		// punish the upstream for our bad input.
		return resilience.ErrorClassification{Retryable: false, RecordFailure: false}
	}

	return resilience.ErrorClassification{Retryable: true, RecordFailure: true}
}

func isRetryableStatus(status int) bool {
	switch status {
	case http.StatusTooManyRequests,
		http.StatusInternalServerError,
		http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout:
		return true
	}
	return false
}

// markTemporary tags transient boundary failures with ErrTemporary so that
// callers up the stack can surface 503 instead of 502.
func markTemporary(err error) error {
	if err == nil {
		return nil
	}
	classification := classifyBoundaryError(err)
	if classification.Retryable || resilience.IsCircuitOpen(err) {
		return domain.WrapError(domain.ErrTemporary, "boundary", err)
	}
	return err
}

// isInputTooLong recognizes the prompt-exceeds-context-window failure mode.
// Ollama reports it as 413 or as a 400 whose body mentions the context length.
func isInputTooLong(err error) bool {
	var statusErr *HTTPStatusError
	if !errors.As(err, &statusErr) {
		return false
	}
	if statusErr.StatusCode == http.StatusRequestEntityTooLarge {
		return true
	}
	body := strings.ToLower(statusErr.Body)
	return statusErr.StatusCode == http.StatusBadRequest &&
		(strings.Contains(body, "context length") || strings.Contains(body, "context window") ||
			strings.Contains(body, "too long"))
}
