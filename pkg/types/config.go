package types

import (
	"fmt"
	"math"
)

// Config holds every constant the simulation treats as immutable for the
// duration of a run. A Config is validated once before the loop starts and
// never mutated afterwards.
type Config struct {
	// Timeline
	DT    float64 `json:"dt"`
	Steps int     `json:"steps"`

	// Initial true state
	InitialSOC    float64 `json:"initialSOC"`
	InitialHealth float64 `json:"initialHealth"`

	// Battery physics
	SOCTarget           float64 `json:"socTarget"`
	CapacityNominal     float64 `json:"capacityNominal"`
	LoadPowerDraw       float64 `json:"loadPowerDraw"` // power drawn per unit load factor
	BaseDegradationRate float64 `json:"baseDegradationRate"`

	// Orbital disturbance
	SunlightMean      float64 `json:"sunlightMean"`
	SunlightAmplitude float64 `json:"sunlightAmplitude"`
	SunlightPeriod    float64 `json:"sunlightPeriod"` // steps per orbit

	// Fault injection: after FaultStep the degradation rate is multiplied
	// by FaultMultiplier.
	FaultStep       int     `json:"faultStep"`
	FaultMultiplier float64 `json:"faultMultiplier"`

	// Controller
	SOCMin            float64 `json:"socMin"`
	HealthMin         float64 `json:"healthMin"`
	LoadFactorMin     float64 `json:"loadFactorMin"`
	LoadFactorMax     float64 `json:"loadFactorMax"`
	LoadCandidates    int     `json:"loadCandidates"`
	SOCCostWeight     float64 `json:"socCostWeight"`
	HealthCostWeight  float64 `json:"healthCostWeight"`
	LoadCostWeight    float64 `json:"loadCostWeight"`
	ConstraintPenalty float64 `json:"constraintPenalty"`
	// OracleDegradationRate gives the controller's lookahead the true
	// (possibly fault-inflated) degradation rate. When false the controller
	// plans with the nominal base rate, i.e. no fault knowledge.
	OracleDegradationRate bool `json:"oracleDegradationRate"`

	// Estimator noise (diagonal covariances)
	InitialCovariance      float64 `json:"initialCovariance"`
	ProcessNoiseSOC        float64 `json:"processNoiseSOC"`
	ProcessNoiseHealth     float64 `json:"processNoiseHealth"`
	MeasurementNoiseSOC    float64 `json:"measurementNoiseSOC"`
	MeasurementNoiseHealth float64 `json:"measurementNoiseHealth"`

	// Fault detection and life projection
	NISThreshold      float64 `json:"nisThreshold"`
	RULHealthFloor    float64 `json:"rulHealthFloor"`
	RULRateFloor      float64 `json:"rulRateFloor"`
	RULSmoothingAlpha float64 `json:"rulSmoothingAlpha"` // 0 disables smoothing

	// Seed for the measurement-noise source. Runs with the same seed and
	// config produce identical histories.
	Seed uint64 `json:"seed"`
}

// DefaultConfig returns the reference mission parameters.
func DefaultConfig() Config {
	return Config{
		DT:    1.0,
		Steps: 500,

		InitialSOC:    0.8,
		InitialHealth: 1.0,

		SOCTarget:           1.0,
		CapacityNominal:     50000.0,
		LoadPowerDraw:       5.0,
		BaseDegradationRate: 2e-6,

		SunlightMean:      80.0,
		SunlightAmplitude: 80.0,
		SunlightPeriod:    180.0,

		FaultStep:       300,
		FaultMultiplier: 10.0,

		SOCMin:                0.85,
		HealthMin:             0.75,
		LoadFactorMin:         0.2,
		LoadFactorMax:         1.0,
		LoadCandidates:        20,
		SOCCostWeight:         10.0,
		HealthCostWeight:      50.0,
		LoadCostWeight:        5.0,
		ConstraintPenalty:     1e6,
		OracleDegradationRate: true,

		InitialCovariance:      1e-4,
		ProcessNoiseSOC:        1e-6,
		ProcessNoiseHealth:     1e-8,
		MeasurementNoiseSOC:    1e-4,
		MeasurementNoiseHealth: 1e-6,

		NISThreshold:      6.0,
		RULHealthFloor:    0.75,
		RULRateFloor:      1e-8,
		RULSmoothingAlpha: 0,

		Seed: 1,
	}
}

// Validate rejects configurations that would corrupt or stall the run. It is
// called once at initialization, before the loop starts.
func (c Config) Validate() error {
	if c.DT <= 0 || math.IsNaN(c.DT) || math.IsInf(c.DT, 0) {
		return fmt.Errorf("dt must be positive, got %v", c.DT)
	}
	if c.Steps <= 0 {
		return fmt.Errorf("steps must be positive, got %d", c.Steps)
	}
	if c.InitialSOC < 0 || c.InitialSOC > 1 {
		return fmt.Errorf("initial SOC must be in [0,1], got %v", c.InitialSOC)
	}
	if c.InitialHealth <= 0 {
		return fmt.Errorf("initial health must be positive, got %v", c.InitialHealth)
	}
	if c.CapacityNominal <= 0 {
		return fmt.Errorf("nominal capacity must be positive, got %v", c.CapacityNominal)
	}
	if c.LoadPowerDraw < 0 {
		return fmt.Errorf("load power draw must be non-negative, got %v", c.LoadPowerDraw)
	}
	if c.BaseDegradationRate < 0 {
		return fmt.Errorf("base degradation rate must be non-negative, got %v", c.BaseDegradationRate)
	}
	if c.SunlightPeriod <= 0 {
		return fmt.Errorf("sunlight period must be positive, got %v", c.SunlightPeriod)
	}
	if c.FaultMultiplier <= 0 {
		return fmt.Errorf("fault multiplier must be positive, got %v", c.FaultMultiplier)
	}
	if c.LoadCandidates < 1 {
		return fmt.Errorf("at least one load candidate is required, got %d", c.LoadCandidates)
	}
	if c.LoadFactorMin > c.LoadFactorMax {
		return fmt.Errorf("load factor range is inverted: [%v, %v]", c.LoadFactorMin, c.LoadFactorMax)
	}
	if c.ConstraintPenalty < 0 {
		return fmt.Errorf("constraint penalty must be non-negative, got %v", c.ConstraintPenalty)
	}
	if c.InitialCovariance < 0 {
		return fmt.Errorf("initial covariance must be non-negative, got %v", c.InitialCovariance)
	}
	if c.ProcessNoiseSOC < 0 || c.ProcessNoiseHealth < 0 {
		return fmt.Errorf("process noise variances must be non-negative, got (%v, %v)", c.ProcessNoiseSOC, c.ProcessNoiseHealth)
	}
	if c.MeasurementNoiseSOC <= 0 || c.MeasurementNoiseHealth <= 0 {
		return fmt.Errorf("measurement noise variances must be positive, got (%v, %v)", c.MeasurementNoiseSOC, c.MeasurementNoiseHealth)
	}
	if c.NISThreshold <= 0 {
		return fmt.Errorf("NIS threshold must be positive, got %v", c.NISThreshold)
	}
	if c.RULRateFloor <= 0 {
		return fmt.Errorf("RUL rate floor must be positive, got %v", c.RULRateFloor)
	}
	if c.RULSmoothingAlpha < 0 || c.RULSmoothingAlpha >= 1 {
		return fmt.Errorf("RUL smoothing alpha must be in [0,1), got %v", c.RULSmoothingAlpha)
	}
	return nil
}
