package plant

import (
	"math"

	"github.com/battwin/battwin/pkg/types"
)

// Model is the plant contract shared by the run harness and the controller's
// lookahead. Both the true-state update and the one-step-ahead candidate
// evaluation go through the same implementation so the physics can never
// drift apart.
type Model interface {
	// Advance applies one step of the plant dynamics and returns the next
	// true state. SOC is clamped to [0,1] after the update.
	Advance(s types.TrueState, loadFactor, sunlight, degradationRate, dt float64) types.TrueState

	// Deltas returns the instantaneous per-step rates at the given state
	// without clamping, for lookahead evaluation.
	Deltas(s types.TrueState, loadFactor, sunlight, degradationRate float64) (dSOC, dHealth float64)
}

// BatteryModel is the battery-only charge/degradation plant. It is a pure
// value type: Advance and Deltas depend only on their inputs.
type BatteryModel struct {
	// Capacity is the nominal energy capacity. The effective capacity is
	// Capacity*Health, so a degraded battery swings faster for the same
	// power imbalance.
	Capacity float64

	// LoadPowerDraw is the power drawn per unit load factor.
	LoadPowerDraw float64

	// SOCTarget is the charge level the mission wants to hold. Degradation
	// accelerates with distance from it, modeling deep-cycling stress.
	SOCTarget float64
}

// NewBatteryModel builds a battery plant from the run configuration.
func NewBatteryModel(cfg types.Config) BatteryModel {
	return BatteryModel{
		Capacity:      cfg.CapacityNominal,
		LoadPowerDraw: cfg.LoadPowerDraw,
		SOCTarget:     cfg.SOCTarget,
	}
}

// chargeDelta is the SOC rate of change for a given power balance.
func (m BatteryModel) chargeDelta(health, loadFactor, sunlight float64) float64 {
	return (sunlight - m.LoadPowerDraw*loadFactor) / (m.Capacity * health)
}

// healthDelta is the degradation rate at the given charge level.
func (m BatteryModel) healthDelta(soc, degradationRate float64) float64 {
	return -degradationRate * math.Abs(soc-m.SOCTarget)
}

// Advance implements Model. The health update uses the post-clamp SOC, so
// cycling stress is evaluated at the charge level the battery actually sits
// at. Health itself is not clamped here.
func (m BatteryModel) Advance(s types.TrueState, loadFactor, sunlight, degradationRate, dt float64) types.TrueState {
	soc := s.SOC + m.chargeDelta(s.Health, loadFactor, sunlight)*dt
	soc = min(max(soc, 0), 1)

	health := s.Health + m.healthDelta(soc, degradationRate)*dt
	return types.TrueState{SOC: soc, Health: health}
}

// Deltas implements Model. The health rate is evaluated at the current SOC,
// before the charge update, which is what a one-step lookahead sees.
func (m BatteryModel) Deltas(s types.TrueState, loadFactor, sunlight, degradationRate float64) (float64, float64) {
	return m.chargeDelta(s.Health, loadFactor, sunlight), m.healthDelta(s.SOC, degradationRate)
}
