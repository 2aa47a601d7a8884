package vendorpool

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/oriys/nova/internal/storage"
	"github.com/oriys/nova/internal/vendor"
)

func newVendor(id string, weight int, minTime time.Duration, fn vendor.ExecuteFunc) *vendor.Vendor {
	return vendor.New(vendor.Config{
		ID:             id,
		Weight:         weight,
		InitialMinTime: minTime,
		Execute:        fn,
	})
}

func TestPoolFailoverOnServerError(t *testing.T) {
	v1 := newVendor("v1", 1, 50*time.Millisecond, func(ctx context.Context, input any) (any, error) {
		return nil, errors.New("500 internal server error")
	})
	v2 := newVendor("v2", 1, 50*time.Millisecond, func(ctx context.Context, input any) (any, error) {
		return "ok", nil
	})

	p := New([]*vendor.Vendor{v1, v2}, Config{
		HardFreezeDuration: FreezeRange{Min: 10 * time.Millisecond, Max: 10 * time.Millisecond},
		Timeout:            2 * time.Second,
	})

	res, err := p.Do(context.Background(), "hi")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.VendorID != "v2" {
		t.Fatalf("expected failover to v2, got %s", res.VendorID)
	}
	if res.Retries != 1 {
		t.Fatalf("expected retries=1, got %d", res.Retries)
	}

	states := p.GetVendorStates()
	if states["v1"].FailureCount != 1 {
		t.Fatalf("expected v1 failureCount=1, got %d", states["v1"].FailureCount)
	}
	if states["v1"].FrozenUntil <= 0 {
		t.Fatalf("expected v1 to be frozen")
	}
}

func TestPoolEscalatesAfterMaxRetries(t *testing.T) {
	var onEscalateCalls int
	var capturedCtx EscalationContext

	v1 := newVendor("v1", 1, 10*time.Millisecond, func(ctx context.Context, input any) (any, error) {
		return nil, errors.New("500 internal server error")
	})

	p := New([]*vendor.Vendor{v1}, Config{
		MaxRetries:         3,
		HardFreezeDuration: FreezeRange{Min: 10 * time.Millisecond, Max: 10 * time.Millisecond},
		Timeout:            5 * time.Second,
		OnEscalate: func(ec EscalationContext) {
			onEscalateCalls++
			capturedCtx = ec
		},
	})

	_, err := p.Do(context.Background(), "hi")

	var escErr *EscalationError
	if !errors.As(err, &escErr) {
		t.Fatalf("expected EscalationError, got %v", err)
	}
	if onEscalateCalls != 1 {
		t.Fatalf("expected onEscalate called exactly once, got %d", onEscalateCalls)
	}
	if capturedCtx.TotalRetries < 3 {
		t.Fatalf("expected totalRetries >= 3, got %d", capturedCtx.TotalRetries)
	}

	states := p.GetVendorStates()
	if states["v1"].FailureCount < 3 {
		t.Fatalf("expected persisted failureCount >= 3, got %d", states["v1"].FailureCount)
	}
}

func TestPoolLogicErrorPropagatesWithoutRetry(t *testing.T) {
	calls := 0
	v1 := newVendor("v1", 1, 10*time.Millisecond, func(ctx context.Context, input any) (any, error) {
		calls++
		return nil, errors.New("404 not found")
	})

	p := New([]*vendor.Vendor{v1}, Config{Timeout: 2 * time.Second})

	_, err := p.Do(context.Background(), "hi")
	var logicErr *vendor.LogicError
	if !errors.As(err, &logicErr) {
		t.Fatalf("expected LogicError, got %v", err)
	}
	if calls != 1 {
		t.Fatalf("expected exactly one execute call (no retry for logic error), got %d", calls)
	}
}

func TestPoolFailsFastWhenAllVendorsFrozenBeyondBudget(t *testing.T) {
	v1 := newVendor("v1", 1, 10*time.Millisecond, func(ctx context.Context, input any) (any, error) {
		return nil, errors.New("500 internal server error")
	})

	p := New([]*vendor.Vendor{v1}, Config{
		Timeout:            150 * time.Millisecond,
		HardFreezeDuration: FreezeRange{Min: 10 * time.Second, Max: 10 * time.Second},
	})

	start := time.Now()
	_, err := p.Do(context.Background(), "hi")
	elapsed := time.Since(start)

	var navErr *NoVendorAvailableError
	if !errors.As(err, &navErr) {
		t.Fatalf("expected NoVendorAvailableError, got %v", err)
	}
	if len(navErr.Frozen) != 1 || navErr.Frozen[0] != "v1" {
		t.Fatalf("expected the frozen set to name v1, got %v", navErr.Frozen)
	}
	if elapsed > time.Second {
		t.Fatalf("expected Do to settle well inside its budget, took %s", elapsed)
	}
}

func TestPoolTimesOutOnSlowVendor(t *testing.T) {
	v1 := newVendor("v1", 1, 10*time.Millisecond, func(ctx context.Context, input any) (any, error) {
		select {
		case <-time.After(2 * time.Second):
		case <-ctx.Done():
		}
		return "too late", nil
	})

	p := New([]*vendor.Vendor{v1}, Config{Timeout: 100 * time.Millisecond})

	start := time.Now()
	_, err := p.Do(context.Background(), "hi")
	elapsed := time.Since(start)

	var toErr *TimeoutError
	if !errors.As(err, &toErr) {
		t.Fatalf("expected TimeoutError, got %v", err)
	}
	if elapsed > time.Second {
		t.Fatalf("expected Do to settle near its 100ms budget, took %s", elapsed)
	}
}

func TestPoolPersistenceRoundTrip(t *testing.T) {
	st := storage.NewMemory()

	v1 := newVendor("v1", 1, 10*time.Millisecond, func(ctx context.Context, input any) (any, error) {
		return "ok", nil
	})
	p := New([]*vendor.Vendor{v1}, Config{Timeout: time.Second, Storage: st})

	for i := 0; i < 3; i++ {
		if _, err := p.Do(context.Background(), "x"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	v1b := newVendor("v1", 1, 10*time.Millisecond, func(ctx context.Context, input any) (any, error) {
		return "ok", nil
	})
	p2 := New([]*vendor.Vendor{v1b}, Config{Timeout: time.Second, Storage: st})
	p2.initialize(context.Background())

	if got := p2.GetVendorStates()["v1"].SuccessCount; got != 3 {
		t.Fatalf("expected recreated pool to observe successCount=3, got %d", got)
	}
}
