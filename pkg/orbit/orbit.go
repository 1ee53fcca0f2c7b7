// Package orbit produces the exogenous inputs for each simulation step: the
// periodic sunlight signal from the orbit geometry and the ground-truth
// degradation-fault schedule.
package orbit

import (
	"math"

	"github.com/battwin/battwin/pkg/types"
)

// Environment generates per-step disturbances. It is deterministic: the same
// step index always yields the same values.
type Environment struct {
	SunlightMean      float64
	SunlightAmplitude float64
	SunlightPeriod    float64 // steps per orbit

	BaseDegradationRate float64
	FaultStep           int
	FaultMultiplier     float64
}

// NewEnvironment builds an Environment from the run configuration.
func NewEnvironment(cfg types.Config) Environment {
	return Environment{
		SunlightMean:        cfg.SunlightMean,
		SunlightAmplitude:   cfg.SunlightAmplitude,
		SunlightPeriod:      cfg.SunlightPeriod,
		BaseDegradationRate: cfg.BaseDegradationRate,
		FaultStep:           cfg.FaultStep,
		FaultMultiplier:     cfg.FaultMultiplier,
	}
}

// Sunlight returns the incident solar power at the given step: a sinusoid
// over the orbital period, floored at zero for the eclipse portion.
func (e Environment) Sunlight(step int) float64 {
	s := e.SunlightMean + e.SunlightAmplitude*math.Sin(2*math.Pi*float64(step)/e.SunlightPeriod)
	return max(s, 0)
}

// DegradationRate returns the true wear rate at the given step. After
// FaultStep the rate jumps by FaultMultiplier, simulating sudden accelerated
// wear. The detector is never told about this directly; it can only see the
// resulting estimation mismatch.
func (e Environment) DegradationRate(step int) float64 {
	if step > e.FaultStep {
		return e.BaseDegradationRate * e.FaultMultiplier
	}
	return e.BaseDegradationRate
}

// Disturbance bundles the step's exogenous inputs.
func (e Environment) Disturbance(step int) types.Disturbance {
	return types.Disturbance{Sunlight: e.Sunlight(step)}
}
