package types

// TrueState is the ground-truth battery state owned by the run harness.
// SOC is kept in [0,1] by the plant model; Health starts at 1.0 and decays
// with cycling stress. Health is intentionally not clamped by the battery
// model (the full-state integrator does clamp it).
type TrueState struct {
	SOC    float64 `json:"soc"`
	Health float64 `json:"health"`
}

// Action is the control decision for a single step.
type Action struct {
	LoadFactor float64 `json:"loadFactor"`
}

// Disturbance holds the exogenous inputs for a single step.
type Disturbance struct {
	Sunlight float64 `json:"sunlight"`
}

// Measurement is a noisy observation of the true state.
type Measurement struct {
	SOC    float64 `json:"soc"`
	Health float64 `json:"health"`
}

// Vector returns the measurement as a slice in estimator order.
func (m Measurement) Vector() []float64 {
	return []float64{m.SOC, m.Health}
}

// StepRecord is one entry of the run history, appended once per step.
type StepRecord struct {
	Step            int     `json:"step"`
	Sunlight        float64 `json:"sunlight"`
	DegradationRate float64 `json:"degradationRate"`
	LoadFactor      float64 `json:"loadFactor"`
	TrueSOC         float64 `json:"trueSOC"`
	TrueHealth      float64 `json:"trueHealth"`
	EstSOC          float64 `json:"estSOC"`
	EstHealth       float64 `json:"estHealth"`
	NIS             float64 `json:"nis"`
	RUL             float64 `json:"rul"`
}

// Summary holds the post-run performance metrics.
type Summary struct {
	Steps int `json:"steps"`

	SOCRMSE    float64 `json:"socRMSE"`
	HealthRMSE float64 `json:"healthRMSE"`

	// Filter consistency. AvgNIS should sit near the innovation dimension
	// (2.0 here) when the filter is well tuned; the deviation from that
	// expectation and the threshold exceedance rate are reported together
	// because mistuning and unmodeled faults are not distinguishable from
	// NIS alone.
	AvgNIS              float64 `json:"avgNIS"`
	ExpectedNIS         float64 `json:"expectedNIS"`
	NISConsistencyError float64 `json:"nisConsistencyError"`
	NISThreshold        float64 `json:"nisThreshold"`
	NISExceedPct        float64 `json:"nisExceedPct"`

	FinalRUL float64 `json:"finalRUL"`
}

// Consistent reports whether the average NIS is close enough to its
// theoretical expectation to call the filter well tuned.
func (s Summary) Consistent() bool {
	return s.NISConsistencyError < 1.0
}
