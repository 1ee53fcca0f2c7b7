package monitor

import "math"

// RULEstimator projects the remaining useful life of the battery: the number
// of steps until estimated health crosses the mission floor, assuming the
// instantaneous degradation rate holds. The projection is a first-order
// linear extrapolation recomputed fresh each step; an optional EMA stage
// smooths it across steps when SmoothingAlpha is set.
type RULEstimator struct {
	HealthFloor    float64 // minimum viable health
	SOCTarget      float64
	RateFloor      float64 // lower bound on the rate to avoid division blow-up
	SmoothingAlpha float64 // 0 disables smoothing

	smoothed    float64
	initialized bool
}

// Project returns the RUL for the current health estimate and degradation
// rate. The result is never negative.
func (r *RULEstimator) Project(estSOC, estHealth, degradationRate float64) float64 {
	rate := math.Abs(-degradationRate * math.Abs(estSOC-r.SOCTarget))
	rate = max(rate, r.RateFloor)

	rul := (r.HealthFloor - estHealth) / rate
	rul = max(rul, 0)

	if r.SmoothingAlpha <= 0 {
		return rul
	}
	if !r.initialized {
		r.smoothed = rul
		r.initialized = true
		return rul
	}
	r.smoothed = r.SmoothingAlpha*r.smoothed + (1-r.SmoothingAlpha)*rul
	return r.smoothed
}
