package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrConfiguration marks invalid chunking or index parameters. Fatal,
	// the caller must fix the configuration.
	ErrConfiguration = errors.New("invalid configuration")

	// ErrDimensionMismatch marks a vector whose dimensionality differs from
	// the one established by the index.
	ErrDimensionMismatch = errors.New("embedding dimension mismatch")

	ErrNotFound     = errors.New("not found")
	ErrInvalidInput = errors.New("invalid input")

	// ErrEmbeddingService and ErrGenerationService mark an unreachable or
	// malformed model boundary. Propagated, retryable by caller policy.
	ErrEmbeddingService  = errors.New("embedding service failure")
	ErrGenerationService = errors.New("generation service failure")

	// ErrInputTooLong marks a generation request rejected for exceeding the
	// model's input budget.
	ErrInputTooLong = errors.New("input exceeds model budget")

	// ErrPersistence marks a partial write or a missing co-located index
	// artifact. Fatal for the affected index operation.
	ErrPersistence = errors.New("index persistence failure")

	// ErrTemporary marks a transient boundary failure (timeout, transport).
	ErrTemporary = errors.New("temporary failure")
)

// WrapError preserves typed semantic errors with operation context.
func WrapError(kind error, operation string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w: %w", operation, kind, err)
}

func IsKind(err error, kind error) bool {
	return errors.Is(err, kind)
}
