// Command poolbench is a reference harness for the Vendor Pool: it wires a
// handful of simulated vendors (a small random latency, failure rates scaled
// from one --failure-rate flag) behind a Pool and dispatches a batch of requests, printing per-vendor
// outcome counts. It exercises Pool selection, freezing, and escalation
// outside of unit tests.
package main

import (
	"context"
	"fmt"
	"math/rand"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/oriys/nova/internal/config"
	"github.com/oriys/nova/internal/logging"
	"github.com/oriys/nova/internal/storage"
	"github.com/oriys/nova/internal/vendor"
	"github.com/oriys/nova/internal/vendorpool"
)

var (
	requestCount int
	failureRate  float64
	configFile   string
)

func main() {
	root := &cobra.Command{
		Use:   "poolbench",
		Short: "Exercise the Vendor Pool against a set of simulated vendors",
		RunE:  run,
	}
	root.Flags().IntVar(&requestCount, "requests", 50, "number of dispatches to send through the pool")
	root.Flags().Float64Var(&failureRate, "failure-rate", 0.1, "probability a simulated vendor call fails with a transient error")
	root.Flags().StringVar(&configFile, "config", "", "optional config file (same shape as cmd/pda --config)")

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, args []string) error {
	cfg := config.DefaultConfig()
	if configFile != "" {
		loaded, err := config.LoadFromFile(configFile)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = loaded
	}
	config.LoadFromEnv(cfg)
	logging.SetLevelFromString(cfg.Logging.Level)

	vendors := []*vendor.Vendor{
		simulatedVendor("primary", 3, cfg.Pool.InitialMinTime, failureRate),
		simulatedVendor("secondary", 2, cfg.Pool.InitialMinTime, failureRate/2),
		simulatedVendor("overflow", 1, cfg.Pool.InitialMinTime, failureRate/4),
	}

	pool := vendorpool.New(vendors, vendorpool.Config{
		MaxRetries:             cfg.Pool.MaxRetries,
		MaxConsecutiveFailures: cfg.Pool.MaxConsecutiveFailures,
		Timeout:                cfg.Pool.Timeout,
		InitialMinTime:         cfg.Pool.InitialMinTime,
		ProbeStep:              cfg.Pool.ProbeStep,
		RateLimitBackoff:       cfg.Pool.RateLimitBackoff,
		SoftFreezeDuration:     vendorpool.FreezeRange{Min: cfg.Pool.SoftFreezeMin, Max: cfg.Pool.SoftFreezeMax},
		HardFreezeDuration:     vendorpool.FreezeRange{Min: cfg.Pool.HardFreezeMin, Max: cfg.Pool.HardFreezeMax},
		Storage:                storage.NewMemory(),
		OnEscalate: func(ec vendorpool.EscalationContext) {
			fmt.Fprintf(os.Stderr, "escalation: %d retries, %d consecutive failures, last error: %v\n",
				ec.TotalRetries, ec.ConsecutiveFailures, ec.LastError)
		},
	})

	ctx := context.Background()
	counts := map[string]int{}
	var failures int
	for i := 0; i < requestCount; i++ {
		res, err := pool.Do(ctx, i)
		if err != nil {
			failures++
			continue
		}
		counts[res.VendorID]++
	}

	fmt.Printf("dispatched %d requests, %d failed outright\n", requestCount, failures)
	for id, n := range counts {
		fmt.Printf("  %s: %d\n", id, n)
	}
	for id, st := range pool.GetVendorStates() {
		fmt.Printf("  %s: successes=%d failures=%d minTime=%dms stable=%v\n",
			id, st.SuccessCount, st.FailureCount, st.MinTime, st.IsStable)
	}
	return nil
}

// simulatedVendor returns a Vendor whose Execute randomly fails with a
// transient (rate-limit or server-error) condition at approximately
// failureRate, and otherwise succeeds after a small simulated latency.
func simulatedVendor(id string, weight int, initialMinTime time.Duration, failureRate float64) *vendor.Vendor {
	return vendor.New(vendor.Config{
		ID:             id,
		Weight:         weight,
		InitialMinTime: initialMinTime,
		Execute: func(ctx context.Context, input any) (any, error) {
			time.Sleep(time.Duration(rand.Intn(5)) * time.Millisecond)
			if rand.Float64() < failureRate {
				if rand.Float64() < 0.3 {
					return nil, fmt.Errorf("429 rate limit exceeded")
				}
				return nil, fmt.Errorf("503 server error")
			}
			return input, nil
		},
	})
}
