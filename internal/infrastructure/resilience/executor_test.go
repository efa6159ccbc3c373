package resilience

import (
	"context"
	"errors"
	"testing"
	"time"
)

func testConfig() Config {
	return Config{
		RetryMaxAttempts:    3,
		RetryInitialBackoff: time.Millisecond,
		RetryMaxBackoff:     2 * time.Millisecond,
		RetryMultiplier:     2.0,
		BreakerEnabled:      false,
	}
}

func TestExecuteRetriesRetryableErrors(t *testing.T) {
	e := NewExecutor(testConfig())

	calls := 0
	err := e.Execute(context.Background(), "op", func(context.Context) error {
		calls++
		if calls < 3 {
			return errors.New("transient")
		}
		return nil
	}, func(error) ErrorClassification {
		return ErrorClassification{Retryable: true, RecordFailure: true}
	})
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if calls != 3 {
		t.Fatalf("expected 3 attempts, got %d", calls)
	}
}

func TestExecuteDoesNotRetryNonRetryable(t *testing.T) {
	e := NewExecutor(testConfig())

	calls := 0
	err := e.Execute(context.Background(), "op", func(context.Context) error {
		calls++
		return errors.New("permanent")
	}, func(error) ErrorClassification {
		return ErrorClassification{Retryable: false, RecordFailure: true}
	})
	if err == nil {
		t.Fatalf("expected error")
	}
	if calls != 1 {
		t.Fatalf("expected single attempt, got %d", calls)
	}
}

func TestExecuteStopsAfterMaxAttempts(t *testing.T) {
	e := NewExecutor(testConfig())

	calls := 0
	wantErr := errors.New("still failing")
	err := e.Execute(context.Background(), "op", func(context.Context) error {
		calls++
		return wantErr
	}, func(error) ErrorClassification {
		return ErrorClassification{Retryable: true, RecordFailure: true}
	})
	if !errors.Is(err, wantErr) {
		t.Fatalf("expected final attempt error, got %v", err)
	}
	if calls != 3 {
		t.Fatalf("expected 3 attempts, got %d", calls)
	}
}

func TestExecuteHonorsContextCancellation(t *testing.T) {
	e := NewExecutor(testConfig())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	calls := 0
	err := e.Execute(ctx, "op", func(context.Context) error {
		calls++
		return nil
	}, nil)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if calls != 0 {
		t.Fatalf("callback invoked after cancellation")
	}
}

func TestBreakerOpensAfterFailureRatio(t *testing.T) {
	cfg := testConfig()
	cfg.BreakerEnabled = true
	cfg.BreakerMinRequests = 2
	cfg.BreakerFailureRatio = 0.5
	cfg.RetryMaxAttempts = 1
	e := NewExecutor(cfg)

	classify := func(error) ErrorClassification {
		return ErrorClassification{Retryable: false, RecordFailure: true}
	}
	fail := func(context.Context) error { return errors.New("down") }

	for i := 0; i < 2; i++ {
		_ = e.Execute(context.Background(), "op", fail, classify)
	}

	err := e.Execute(context.Background(), "op", fail, classify)
	if !IsCircuitOpen(err) {
		t.Fatalf("expected open circuit, got %v", err)
	}
}
