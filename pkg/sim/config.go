package sim

import (
	"context"
	"fmt"
	"strconv"

	"github.com/levenlabs/go-lflag"

	"github.com/battwin/battwin/pkg/types"
)

// Harness holds the flag-configured simulation setup for the command.
type Harness struct {
	cfg        types.Config
	runs       int
	workers    int
	historyCSV string
}

// Configured sets up the simulation based on flags. The full configuration
// can be replaced wholesale with -config; the most commonly varied knobs
// also have individual override flags.
func Configured() *Harness {
	h := &Harness{cfg: types.DefaultConfig()}

	lflag.JSON(&h.cfg, "config", h.cfg, "JSON run configuration, merged over the built-in defaults")
	seed := lflag.String("seed", "", "Measurement noise seed, overrides the config value")
	steps := lflag.String("steps", "", "Number of simulation steps, overrides the config value")
	runs := lflag.String("runs", "1", "Number of Monte Carlo runs; seeds are consecutive from the base seed")
	workers := lflag.String("workers", "0", "Worker pool size for Monte Carlo batches, 0 means GOMAXPROCS")
	historyCSV := lflag.String("history-csv", "", "Path to write the per-step history CSV, empty disables it")

	lflag.Do(func() {
		if *seed != "" {
			v, err := strconv.ParseUint(*seed, 10, 64)
			if err != nil {
				panic(fmt.Sprintf("invalid -seed %q: %v", *seed, err))
			}
			h.cfg.Seed = v
		}
		if *steps != "" {
			v, err := strconv.Atoi(*steps)
			if err != nil {
				panic(fmt.Sprintf("invalid -steps %q: %v", *steps, err))
			}
			h.cfg.Steps = v
		}
		v, err := strconv.Atoi(*runs)
		if err != nil || v < 1 {
			panic(fmt.Sprintf("invalid -runs %q", *runs))
		}
		h.runs = v
		w, err := strconv.Atoi(*workers)
		if err != nil || w < 0 {
			panic(fmt.Sprintf("invalid -workers %q", *workers))
		}
		h.workers = w
		h.historyCSV = *historyCSV

		if err := h.cfg.Validate(); err != nil {
			panic(fmt.Sprintf("config validation failed: %v", err))
		}
	})

	return h
}

// Config returns the resolved configuration. Only valid after
// lflag.Configure has run.
func (h *Harness) Config() types.Config {
	return h.cfg
}

// Execute runs the configured simulation (or batch), prints the performance
// report for the first run, and writes the history CSV when requested.
func (h *Harness) Execute(ctx context.Context) error {
	results, err := RunBatch(ctx, h.cfg, h.runs, h.workers)
	if err != nil {
		return err
	}

	PrintReport(results[0].Summary)
	if h.runs > 1 {
		PrintBatchReport(results)
	}

	if h.historyCSV != "" {
		if err := WriteHistoryCSV(h.historyCSV, results[0].History); err != nil {
			return fmt.Errorf("writing history CSV: %w", err)
		}
	}
	return nil
}
