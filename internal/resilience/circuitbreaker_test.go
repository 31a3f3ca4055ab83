package resilience

import (
	"errors"
	"testing"
	"time"

	errs "dhan-trader/internal/errors"
)

func testConfig() CircuitBreakerConfig {
	return CircuitBreakerConfig{
		FailureThreshold: 3,
		SuccessThreshold: 2,
		Timeout:          50 * time.Millisecond,
	}
}

func TestBreakerOpensAfterConsecutiveFailures(t *testing.T) {
	cb := NewCircuitBreaker("test", testConfig())
	callErr := errors.New("boom")

	for i := 0; i < 3; i++ {
		if err := cb.Do(func() error { return callErr }); !errors.Is(err, callErr) {
			t.Fatalf("call %d: expected the call error, got %v", i, err)
		}
	}
	if cb.State() != CircuitOpen {
		t.Fatalf("expected OPEN after threshold, got %s", cb.State())
	}

	err := cb.Do(func() error {
		t.Fatal("open circuit must not invoke the call")
		return nil
	})
	if !errors.Is(err, errs.ErrTransportUnavailable) {
		t.Errorf("expected ErrTransportUnavailable, got %v", err)
	}
}

func TestBreakerSuccessResetsFailureCount(t *testing.T) {
	cb := NewCircuitBreaker("test", testConfig())
	callErr := errors.New("boom")

	cb.Do(func() error { return callErr })
	cb.Do(func() error { return callErr })
	cb.Do(func() error { return nil })
	cb.Do(func() error { return callErr })
	cb.Do(func() error { return callErr })

	if cb.State() != CircuitClosed {
		t.Errorf("interleaved success must keep the circuit closed, got %s", cb.State())
	}
}

func TestBreakerHalfOpenRecovery(t *testing.T) {
	cb := NewCircuitBreaker("test", testConfig())
	callErr := errors.New("boom")

	for i := 0; i < 3; i++ {
		cb.Do(func() error { return callErr })
	}
	if cb.State() != CircuitOpen {
		t.Fatalf("expected OPEN, got %s", cb.State())
	}

	time.Sleep(60 * time.Millisecond)

	// First call after the timeout probes the API.
	if err := cb.Do(func() error { return nil }); err != nil {
		t.Fatal(err)
	}
	if cb.State() != CircuitHalfOpen {
		t.Fatalf("expected HALF_OPEN during probing, got %s", cb.State())
	}
	if err := cb.Do(func() error { return nil }); err != nil {
		t.Fatal(err)
	}
	if cb.State() != CircuitClosed {
		t.Errorf("expected CLOSED after success threshold, got %s", cb.State())
	}
}

func TestBreakerHalfOpenFailureReopens(t *testing.T) {
	cb := NewCircuitBreaker("test", testConfig())
	callErr := errors.New("boom")

	for i := 0; i < 3; i++ {
		cb.Do(func() error { return callErr })
	}
	time.Sleep(60 * time.Millisecond)

	cb.Do(func() error { return callErr })
	if cb.State() != CircuitOpen {
		t.Errorf("failed probe must reopen, got %s", cb.State())
	}
}

func TestBreakerStatsAndReset(t *testing.T) {
	cb := NewCircuitBreaker("test", testConfig())
	callErr := errors.New("boom")

	cb.Do(func() error { return nil })
	for i := 0; i < 3; i++ {
		cb.Do(func() error { return callErr })
	}
	cb.Do(func() error { return nil }) // rejected, circuit open

	stats := cb.Stats()
	if stats.TotalRequests != 4 || stats.TotalFailures != 3 || stats.TotalSuccesses != 1 {
		t.Errorf("unexpected counters %+v", stats)
	}
	if stats.TotalRejected != 1 {
		t.Errorf("expected 1 rejected, got %d", stats.TotalRejected)
	}

	cb.Reset()
	if cb.State() != CircuitClosed {
		t.Errorf("reset must close the circuit, got %s", cb.State())
	}
}
