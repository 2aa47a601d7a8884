// Package vendorpool implements the fault-tolerant, multi-vendor dispatch
// scheduler: vendor selection, automatic failover, error-class-keyed
// freezing, escalation once the retry budget is exhausted, and durable
// persistence of vendor state.
package vendorpool

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/oriys/nova/internal/logging"
	"github.com/oriys/nova/internal/storage"
	"github.com/oriys/nova/internal/vendor"
)

// FreezeRange is an inclusive [min, max] duration range a freeze duration
// is drawn uniformly from.
type FreezeRange struct {
	Min time.Duration
	Max time.Duration
}

// Config configures a Pool. Zero values are replaced with the documented
// defaults by New.
type Config struct {
	MaxRetries             int
	MaxConsecutiveFailures int
	Timeout                time.Duration
	InitialMinTime         time.Duration
	ProbeStep              time.Duration
	RateLimitBackoff       float64
	SoftFreezeDuration     FreezeRange
	HardFreezeDuration     FreezeRange
	Storage                storage.KV
	OnEscalate             func(EscalationContext)
}

func (c *Config) applyDefaults() {
	if c.MaxRetries <= 0 {
		c.MaxRetries = 10
	}
	if c.MaxConsecutiveFailures <= 0 {
		c.MaxConsecutiveFailures = 5
	}
	if c.Timeout <= 0 {
		c.Timeout = 30 * time.Second
	}
	if c.InitialMinTime <= 0 {
		c.InitialMinTime = 500 * time.Millisecond
	}
	if c.ProbeStep <= 0 {
		c.ProbeStep = 20 * time.Millisecond
	}
	if c.RateLimitBackoff <= 1 {
		c.RateLimitBackoff = 1.25
	}
	if c.SoftFreezeDuration.Max <= 0 {
		c.SoftFreezeDuration = FreezeRange{Min: 5 * time.Second, Max: 10 * time.Second}
	}
	if c.HardFreezeDuration.Max <= 0 {
		c.HardFreezeDuration = FreezeRange{Min: 30 * time.Second, Max: 60 * time.Second}
	}
	if c.Storage == nil {
		c.Storage = storage.NewMemory()
	}
}

// Result is what a settled dispatch returns to the caller.
type Result struct {
	Result   any
	VendorID string
	Retries  int
	Duration time.Duration
}

// Pool dispatches tasks across a set of vendors with failover, freezing,
// and escalation.
type Pool struct {
	cfg     Config
	vendors []*vendor.Vendor
	byID    map[string]*vendor.Vendor

	initOnce sync.Once
}

// New creates a Pool over the given vendors. Vendors must already carry
// unique IDs; New does not validate uniqueness beyond last-write-wins in
// the internal index.
func New(vendors []*vendor.Vendor, cfg Config) *Pool {
	cfg.applyDefaults()

	byID := make(map[string]*vendor.Vendor, len(vendors))
	for _, v := range vendors {
		byID[v.ID()] = v
	}

	return &Pool{cfg: cfg, vendors: vendors, byID: byID}
}

func stateKey(id string) string { return "vendor:" + id }

// initialize loads persisted state for every vendor at most once, even
// under concurrent Do calls; later callers block on the same load via
// sync.Once rather than racing a fresh one.
func (p *Pool) initialize(ctx context.Context) {
	p.initOnce.Do(func() {
		g, gctx := errgroup.WithContext(ctx)
		for _, v := range p.vendors {
			v := v
			g.Go(func() error {
				raw, err := p.cfg.Storage.Get(gctx, stateKey(v.ID()))
				if err != nil {
					return nil // absent or unreadable: vendor keeps its fresh state
				}
				var st vendor.State
				if err := json.Unmarshal(raw, &st); err != nil {
					return nil
				}
				v.LoadState(st)
				return nil
			})
		}
		_ = g.Wait() // load errors are swallowed; vendors simply start fresh
	})
}

func (p *Pool) persist(ctx context.Context, v *vendor.Vendor) {
	raw, err := json.Marshal(v.Snapshot())
	if err != nil {
		return
	}
	if err := p.cfg.Storage.Put(ctx, stateKey(v.ID()), raw); err != nil {
		logging.Op().Warn("vendor state persist failed", "vendor", v.ID(), "err", err)
	}
}

// selectVendor chooses the minimum non-frozen vendor by the lexicographic
// key (queueLength asc, weight desc, successRate desc). Returns nil if
// every vendor is currently frozen.
func (p *Pool) selectVendor(now time.Time) *vendor.Vendor {
	var candidates []*vendor.Vendor
	for _, v := range p.vendors {
		if !v.Metrics(now).IsFrozen {
			candidates = append(candidates, v)
		}
	}
	if len(candidates) == 0 {
		return nil
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		mi, mj := candidates[i].Metrics(now), candidates[j].Metrics(now)
		if mi.QueueLength != mj.QueueLength {
			return mi.QueueLength < mj.QueueLength
		}
		if mi.Weight != mj.Weight {
			return mi.Weight > mj.Weight
		}
		return mi.SuccessRate > mj.SuccessRate
	})
	return candidates[0]
}

// frozenSnapshot returns the soonest frozenUntil among every vendor, and
// the set of currently frozen vendor IDs.
func (p *Pool) frozenSnapshot(now time.Time) (earliest time.Time, ids []string) {
	for _, v := range p.vendors {
		m := v.Metrics(now)
		if !m.IsFrozen {
			continue
		}
		ids = append(ids, v.ID())
		until := now.Add(m.FrozenFor)
		if earliest.IsZero() || until.Before(earliest) {
			earliest = until
		}
	}
	return earliest, ids
}

func freezeDuration(r FreezeRange) time.Duration {
	if r.Max <= r.Min {
		return r.Min
	}
	return r.Min + time.Duration(rand.Int63n(int64(r.Max-r.Min)))
}

// Do dispatches input across the vendor set, failing over on freezable
// errors and escalating once the retry or consecutive-failure budget is
// exhausted.
func (p *Pool) Do(ctx context.Context, input any) (Result, error) {
	p.initialize(ctx)

	start := time.Now()
	totalRetries := 0
	consecutiveFailures := 0
	var lastErr error = fmt.Errorf("no vendors")

	for {
		elapsed := time.Since(start)
		if elapsed >= p.cfg.Timeout {
			return Result{}, &TimeoutError{Budget: p.cfg.Timeout, Elapsed: elapsed}
		}

		if totalRetries >= p.cfg.MaxRetries || consecutiveFailures >= p.cfg.MaxConsecutiveFailures {
			escCtx := EscalationContext{
				TotalRetries:        totalRetries,
				ConsecutiveFailures: consecutiveFailures,
				ElapsedTime:         elapsed,
				VendorStates:        p.vendorStates(),
				LastError:           lastErr,
				TaskInput:           input,
			}
			if p.cfg.OnEscalate != nil {
				p.cfg.OnEscalate(escCtx)
			}
			return Result{}, &EscalationError{Context: escCtx}
		}

		now := time.Now()
		v := p.selectVendor(now)
		if v == nil {
			remaining := p.cfg.Timeout - time.Since(start)
			earliest, frozen := p.frozenSnapshot(now)
			if remaining <= 0 || earliest.After(now.Add(remaining)) {
				return Result{}, &NoVendorAvailableError{Frozen: frozen, EarliestUnfreeze: earliest}
			}
			p.waitForUnfreeze(ctx, now, remaining)
			continue
		}

		v.IncrementPending()
		remaining := p.cfg.Timeout - time.Since(start)

		result, err := p.race(ctx, v, input, remaining, time.Since(start))
		if err == nil {
			p.persist(ctx, v)
			return Result{
				Result:   result,
				VendorID: v.ID(),
				Retries:  totalRetries,
				Duration: time.Since(start),
			}, nil
		}

		if te, ok := err.(*TimeoutError); ok {
			return Result{}, te
		}

		totalRetries++
		consecutiveFailures++
		lastErr = err

		if logicErr, ok := err.(*vendor.LogicError); ok {
			return Result{}, logicErr
		}

		if execErr, ok := err.(*vendor.ExecutionError); ok {
			p.freeze(now, v, execErr.Class)
		} else {
			p.freeze(now, v, vendor.ServerError)
		}
		p.persist(ctx, v)
	}
}

type raceOutcome struct {
	value any
	err   error
}

// race runs v.Schedule against a timer bounded by remaining, guaranteeing
// the timer is always stopped and that a losing Schedule call's eventual
// result is drained rather than left to leak or panic on an unobserved
// channel send.
func (p *Pool) race(ctx context.Context, v *vendor.Vendor, input any, remaining, elapsed time.Duration) (any, error) {
	attemptCtx, cancel := context.WithCancel(ctx)
	resultCh := make(chan raceOutcome, 1)

	go func() {
		val, err := v.Schedule(attemptCtx, input)
		resultCh <- raceOutcome{val, err}
	}()

	timer := time.NewTimer(remaining)
	defer timer.Stop()

	var once sync.Once
	decrement := func() { once.Do(v.DecrementPending) }

	select {
	case out := <-resultCh:
		cancel()
		decrement()
		return out.value, out.err
	case <-timer.C:
		cancel()
		decrement()
		go func() { <-resultCh }() // absorb the abandoned call's eventual settlement
		return nil, &TimeoutError{Budget: p.cfg.Timeout, Elapsed: elapsed + remaining}
	}
}

func (p *Pool) freeze(now time.Time, v *vendor.Vendor, class vendor.Class) {
	switch class {
	case vendor.LogicErr:
		return // no freeze, propagates
	case vendor.RateLimit:
		v.Freeze(now, freezeDuration(p.cfg.SoftFreezeDuration))
	default: // SERVER_ERROR, UNKNOWN
		v.Freeze(now, freezeDuration(p.cfg.HardFreezeDuration))
	}
}

// waitForUnfreeze sleeps until the earliest frozenUntil (plus a 100ms
// grace), capped by the remaining timeout budget.
func (p *Pool) waitForUnfreeze(ctx context.Context, now time.Time, remaining time.Duration) {
	earliest, _ := p.frozenSnapshot(now)
	if earliest.IsZero() {
		return
	}

	wait := time.Until(earliest) + 100*time.Millisecond
	if wait <= 0 {
		return
	}
	if wait > remaining {
		wait = remaining
	}

	timer := time.NewTimer(wait)
	defer timer.Stop()
	select {
	case <-timer.C:
	case <-ctx.Done():
	}
}

func (p *Pool) vendorStates() map[string]vendor.State {
	out := make(map[string]vendor.State, len(p.vendors))
	for _, v := range p.vendors {
		out[v.ID()] = v.Snapshot()
	}
	return out
}

// GetVendorStates returns a snapshot of every vendor's persistable state.
func (p *Pool) GetVendorStates() map[string]vendor.State {
	return p.vendorStates()
}

// Reset resets every vendor to its fresh probing state and persists the
// reset snapshot.
func (p *Pool) Reset(ctx context.Context) {
	for _, v := range p.vendors {
		v.Reset(p.cfg.InitialMinTime)
		p.persist(ctx, v)
	}
}

// ClearStorage drops every "vendor:*" key from the underlying storage,
// without touching the in-memory vendor state.
func (p *Pool) ClearStorage(ctx context.Context) error {
	keys, err := p.cfg.Storage.Keys(ctx, "vendor:")
	if err != nil {
		return nil // swallowed per the storage-error policy
	}
	for _, k := range keys {
		_ = p.cfg.Storage.Delete(ctx, k)
	}
	return nil
}
