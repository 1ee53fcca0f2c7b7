// Package monitor watches the estimator's outputs for trouble: the fault
// detector scores each innovation against its covariance, and the RUL
// estimator projects how long the battery has before health crosses the
// mission floor.
package monitor

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// Detector accumulates the normalized innovation squared (NIS) statistic
// over a run. Under correct model and noise assumptions NIS is chi-square
// distributed with as many degrees of freedom as the innovation dimension,
// so its mean should sit near that dimension; a sustained deviation means
// either a mistuned filter or an unmodeled fault, and the two cannot be told
// apart from NIS alone.
type Detector struct {
	threshold float64

	steps    int
	exceeded int
	total    float64
}

// NewDetector creates a detector with the given exceedance threshold.
func NewDetector(threshold float64) (*Detector, error) {
	if threshold <= 0 {
		return nil, fmt.Errorf("NIS threshold must be positive, got %v", threshold)
	}
	return &Detector{threshold: threshold}, nil
}

// Observe scores one innovation: NIS = y^T S^-1 y, computed through a
// Cholesky solve so a non-positive-definite S surfaces as an error instead
// of NaN. It returns the NIS value and whether it exceeded the threshold.
func (d *Detector) Observe(innovation []float64, innovationCov mat.Symmetric) (float64, bool, error) {
	if len(innovation) == 0 {
		return 0, false, fmt.Errorf("empty innovation")
	}
	if innovationCov == nil || innovationCov.SymmetricDim() != len(innovation) {
		return 0, false, fmt.Errorf("innovation covariance dimension does not match innovation length %d", len(innovation))
	}

	y := mat.NewVecDense(len(innovation), innovation)

	var chol mat.Cholesky
	if ok := chol.Factorize(innovationCov); !ok {
		return 0, false, fmt.Errorf("innovation covariance is not positive definite")
	}
	var w mat.VecDense
	if err := chol.SolveVecTo(&w, y); err != nil {
		return 0, false, fmt.Errorf("solving innovation system: %w", err)
	}

	nis := mat.Dot(y, &w)

	d.steps++
	d.total += nis
	exceeded := nis > d.threshold
	if exceeded {
		d.exceeded++
	}
	return nis, exceeded, nil
}

// ConsistencyReport summarizes the detector's view of a run.
type ConsistencyReport struct {
	Steps       int     `json:"steps"`
	MeanNIS     float64 `json:"meanNIS"`
	ExpectedNIS float64 `json:"expectedNIS"`
	Error       float64 `json:"error"` // |mean - expected|
	ExceedPct   float64 `json:"exceedPct"`
	Threshold   float64 `json:"threshold"`
}

// Report summarizes all observations so far against the theoretical
// expectation for the given innovation dimension.
func (d *Detector) Report(dim int) ConsistencyReport {
	rep := ConsistencyReport{
		Steps:       d.steps,
		ExpectedNIS: float64(dim),
		Threshold:   d.threshold,
	}
	if d.steps == 0 {
		return rep
	}
	rep.MeanNIS = d.total / float64(d.steps)
	rep.Error = rep.MeanNIS - rep.ExpectedNIS
	if rep.Error < 0 {
		rep.Error = -rep.Error
	}
	rep.ExceedPct = 100 * float64(d.exceeded) / float64(d.steps)
	return rep
}
