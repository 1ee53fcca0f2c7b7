// Package controller implements the per-step load-shedding decision: a grid
// search over a fixed set of candidate load factors, each scored by a
// one-step lookahead through the plant model.
package controller

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/battwin/battwin/pkg/log"
	"github.com/battwin/battwin/pkg/plant"
	"github.com/battwin/battwin/pkg/types"
)

// Decision is the result of one grid-search pass.
type Decision struct {
	Action Action
	// Cost is the winning candidate's total cost, penalty included.
	Cost float64
	// Penalized reports whether even the winning candidate violated a
	// constraint in the lookahead. The controller still acts; the penalty
	// only shapes the choice.
	Penalized   bool
	Explanation string
}

// Action is re-exported for callers that only import the controller.
type Action = types.Action

// Controller selects a load factor each step. The lookahead runs through the
// same plant model the harness uses to advance the true state, so the
// controller's physics can never diverge from the simulation's.
type Controller struct {
	model      plant.Model
	candidates []float64

	socTarget float64
	socMin    float64
	healthMin float64

	socWeight    float64
	healthWeight float64
	loadWeight   float64
	penalty      float64

	dt float64
}

// New builds a controller from the run configuration.
func New(model plant.Model, cfg types.Config) (*Controller, error) {
	if model == nil {
		return nil, fmt.Errorf("plant model is required")
	}
	if cfg.LoadCandidates < 1 {
		return nil, fmt.Errorf("at least one load candidate is required, got %d", cfg.LoadCandidates)
	}
	if cfg.LoadFactorMin > cfg.LoadFactorMax {
		return nil, fmt.Errorf("load factor range is inverted: [%v, %v]", cfg.LoadFactorMin, cfg.LoadFactorMax)
	}

	candidates := make([]float64, cfg.LoadCandidates)
	if cfg.LoadCandidates == 1 {
		candidates[0] = cfg.LoadFactorMin
	} else {
		step := (cfg.LoadFactorMax - cfg.LoadFactorMin) / float64(cfg.LoadCandidates-1)
		for i := range candidates {
			candidates[i] = cfg.LoadFactorMin + float64(i)*step
		}
	}

	return &Controller{
		model:        model,
		candidates:   candidates,
		socTarget:    cfg.SOCTarget,
		socMin:       cfg.SOCMin,
		healthMin:    cfg.HealthMin,
		socWeight:    cfg.SOCCostWeight,
		healthWeight: cfg.HealthCostWeight,
		loadWeight:   cfg.LoadCostWeight,
		penalty:      cfg.ConstraintPenalty,
		dt:           cfg.DT,
	}, nil
}

// Candidates returns the ordered candidate grid.
func (c *Controller) Candidates() []float64 {
	out := make([]float64, len(c.candidates))
	copy(out, c.candidates)
	return out
}

// Decide evaluates every candidate load factor with a one-step lookahead and
// returns the first strict minimizer in grid order. It is deterministic:
// identical inputs always produce the identical decision, and it never
// refuses to act — if every candidate is penalized the least-bad one wins.
func (c *Controller) Decide(ctx context.Context, state types.TrueState, dist types.Disturbance, degradationRate float64) Decision {
	best := Decision{
		Action: Action{LoadFactor: c.candidates[len(c.candidates)-1]},
		Cost:   -1,
	}
	first := true

	for _, load := range c.candidates {
		dSOC, dHealth := c.model.Deltas(state, load, dist.Sunlight, degradationRate)
		socPred := state.SOC + dSOC*c.dt
		healthPred := state.Health + dHealth*c.dt

		socErr := socPred - c.socTarget
		cost := c.socWeight*socErr*socErr +
			c.healthWeight*dHealth*dHealth +
			c.loadWeight*(1-load)*(1-load)

		penalized := socPred < c.socMin || healthPred < c.healthMin
		if penalized {
			cost += c.penalty
		}

		if first || cost < best.Cost {
			first = false
			best = Decision{
				Action:    Action{LoadFactor: load},
				Cost:      cost,
				Penalized: penalized,
			}
		}
	}

	if best.Penalized {
		best.Explanation = fmt.Sprintf("constrained lookahead, least-bad load %.3f", best.Action.LoadFactor)
	} else {
		best.Explanation = fmt.Sprintf("load %.3f at cost %.6f", best.Action.LoadFactor, best.Cost)
	}

	log.Ctx(ctx).DebugContext(ctx, "controller decided",
		slog.Float64("soc", state.SOC),
		slog.Float64("health", state.Health),
		slog.Float64("sunlight", dist.Sunlight),
		slog.Float64("loadFactor", best.Action.LoadFactor),
		slog.Float64("cost", best.Cost),
		slog.Bool("penalized", best.Penalized),
	)
	return best
}
