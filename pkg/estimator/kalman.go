// Package estimator implements the linear Kalman filter that tracks the
// battery state online. The transition and observation matrices are both
// identity: the state is modeled as piecewise constant between noisy
// corrections, and both components are directly observed.
package estimator

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// Filter is a linear Kalman filter over an n-dimensional belief (mean and
// covariance). It is not safe for concurrent use; each simulation run owns
// its own Filter.
type Filter struct {
	dim int

	x *mat.VecDense // state estimate
	p *mat.SymDense // estimate covariance
	q *mat.SymDense // process noise
	r *mat.SymDense // measurement noise

	// outputs of the most recent update, for the fault detector
	innovation    *mat.VecDense
	innovationCov *mat.SymDense
}

// New builds a filter from the initial estimate and the diagonal entries of
// the initial, process, and measurement covariances. Measurement noise must
// be strictly positive so the innovation covariance stays invertible.
func New(initial, initialCov, processNoise, measurementNoise []float64) (*Filter, error) {
	n := len(initial)
	if n == 0 {
		return nil, fmt.Errorf("initial estimate must not be empty")
	}
	if len(initialCov) != n || len(processNoise) != n || len(measurementNoise) != n {
		return nil, fmt.Errorf("covariance diagonals must all have length %d", n)
	}
	for i := 0; i < n; i++ {
		if initialCov[i] < 0 {
			return nil, fmt.Errorf("initial covariance diagonal %d is negative: %v", i, initialCov[i])
		}
		if processNoise[i] < 0 {
			return nil, fmt.Errorf("process noise diagonal %d is negative: %v", i, processNoise[i])
		}
		if measurementNoise[i] <= 0 {
			return nil, fmt.Errorf("measurement noise diagonal %d must be positive: %v", i, measurementNoise[i])
		}
	}

	f := &Filter{
		dim: n,
		x:   mat.NewVecDense(n, nil),
		p:   mat.NewSymDense(n, nil),
		q:   mat.NewSymDense(n, nil),
		r:   mat.NewSymDense(n, nil),
	}
	for i := 0; i < n; i++ {
		f.x.SetVec(i, initial[i])
		f.p.SetSym(i, i, initialCov[i])
		f.q.SetSym(i, i, processNoise[i])
		f.r.SetSym(i, i, measurementNoise[i])
	}
	return f, nil
}

// Dim returns the state dimension.
func (f *Filter) Dim() int {
	return f.dim
}

// Predict advances the belief one step. With an identity transition the mean
// is unchanged and the covariance grows by the process noise: P = P + Q.
func (f *Filter) Predict() {
	f.p.AddSym(f.p, f.q)
}

// Update corrects the belief with a measurement. The innovation covariance
// S = P + R is factorized with Cholesky; if it is not positive definite the
// belief is left untouched and an error is returned, since continuing with a
// garbage gain would corrupt the belief irrecoverably.
func (f *Filter) Update(z []float64) error {
	if len(z) != f.dim {
		return fmt.Errorf("measurement has dimension %d, want %d", len(z), f.dim)
	}

	// y = z - x (H = I)
	y := mat.NewVecDense(f.dim, nil)
	for i := 0; i < f.dim; i++ {
		y.SetVec(i, z[i]-f.x.AtVec(i))
	}

	// S = P + R
	s := mat.NewSymDense(f.dim, nil)
	s.AddSym(f.p, f.r)

	var chol mat.Cholesky
	if ok := chol.Factorize(s); !ok {
		return fmt.Errorf("innovation covariance is not positive definite: %v", mat.Formatted(s, mat.Squeeze()))
	}

	// K = P*S^-1, computed transposed: K^T = S^-1*P
	var kt mat.Dense
	if err := chol.SolveTo(&kt, f.p); err != nil {
		return fmt.Errorf("solving for kalman gain: %w", err)
	}
	k := kt.T()

	// x = x + K*y
	var corr mat.VecDense
	corr.MulVec(k, y)
	f.x.AddVec(f.x, &corr)

	// P = (I - K)*P, re-symmetrized against floating-point drift
	eye := identity(f.dim)
	var ik mat.Dense
	ik.Sub(eye, k)
	var next mat.Dense
	next.Mul(&ik, f.p)
	for i := 0; i < f.dim; i++ {
		for j := i; j < f.dim; j++ {
			f.p.SetSym(i, j, (next.At(i, j)+next.At(j, i))/2)
		}
	}

	f.innovation = y
	f.innovationCov = s
	return nil
}

// Estimate returns a copy of the current state estimate.
func (f *Filter) Estimate() []float64 {
	out := make([]float64, f.dim)
	for i := 0; i < f.dim; i++ {
		out[i] = f.x.AtVec(i)
	}
	return out
}

// Covariance returns a copy of the current estimate covariance.
func (f *Filter) Covariance() *mat.SymDense {
	out := mat.NewSymDense(f.dim, nil)
	out.CopySym(f.p)
	return out
}

// Innovation returns the most recent measurement residual, or nil before the
// first update.
func (f *Filter) Innovation() []float64 {
	if f.innovation == nil {
		return nil
	}
	out := make([]float64, f.dim)
	for i := 0; i < f.dim; i++ {
		out[i] = f.innovation.AtVec(i)
	}
	return out
}

// InnovationCov returns the most recent innovation covariance, or nil before
// the first update.
func (f *Filter) InnovationCov() *mat.SymDense {
	if f.innovationCov == nil {
		return nil
	}
	out := mat.NewSymDense(f.dim, nil)
	out.CopySym(f.innovationCov)
	return out
}

func identity(n int) *mat.Dense {
	m := mat.NewDense(n, n, nil)
	for i := 0; i < n; i++ {
		m.Set(i, i, 1)
	}
	return m
}
