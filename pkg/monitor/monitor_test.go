package monitor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

func TestNewDetector(t *testing.T) {
	_, err := NewDetector(0)
	assert.Error(t, err)

	_, err = NewDetector(-6)
	assert.Error(t, err)

	d, err := NewDetector(6.0)
	require.NoError(t, err)
	assert.NotNil(t, d)
}

func TestObserve(t *testing.T) {
	eye := mat.NewSymDense(2, []float64{1, 0, 0, 1})

	t.Run("identity covariance", func(t *testing.T) {
		d, err := NewDetector(6.0)
		require.NoError(t, err)

		// y^T I^-1 y = |y|^2
		nis, exceeded, err := d.Observe([]float64{1, 0}, eye)
		require.NoError(t, err)
		assert.InDelta(t, 1.0, nis, 1e-12)
		assert.False(t, exceeded)

		nis, exceeded, err = d.Observe([]float64{2, 2}, eye)
		require.NoError(t, err)
		assert.InDelta(t, 8.0, nis, 1e-12)
		assert.True(t, exceeded)
	})

	t.Run("scaled covariance", func(t *testing.T) {
		d, err := NewDetector(6.0)
		require.NoError(t, err)

		s := mat.NewSymDense(2, []float64{4, 0, 0, 4})
		nis, _, err := d.Observe([]float64{2, 0}, s)
		require.NoError(t, err)
		assert.InDelta(t, 1.0, nis, 1e-12)
	})

	t.Run("zero innovation", func(t *testing.T) {
		d, err := NewDetector(6.0)
		require.NoError(t, err)

		nis, exceeded, err := d.Observe([]float64{0, 0}, eye)
		require.NoError(t, err)
		assert.Equal(t, 0.0, nis)
		assert.False(t, exceeded)
	})

	t.Run("non-negative for any innovation", func(t *testing.T) {
		d, err := NewDetector(6.0)
		require.NoError(t, err)

		s := mat.NewSymDense(2, []float64{2e-4, 1e-5, 1e-5, 1e-4})
		for _, y := range [][]float64{{-0.01, 0.002}, {0.03, -0.001}, {-1, -1}} {
			nis, _, err := d.Observe(y, s)
			require.NoError(t, err)
			assert.GreaterOrEqual(t, nis, 0.0)
		}
	})

	t.Run("singular covariance is an error", func(t *testing.T) {
		d, err := NewDetector(6.0)
		require.NoError(t, err)

		singular := mat.NewSymDense(2, []float64{1, 1, 1, 1})
		_, _, err = d.Observe([]float64{1, 1}, singular)
		assert.Error(t, err)
	})

	t.Run("dimension mismatch", func(t *testing.T) {
		d, err := NewDetector(6.0)
		require.NoError(t, err)

		_, _, err = d.Observe([]float64{1}, eye)
		assert.Error(t, err)
		_, _, err = d.Observe(nil, eye)
		assert.Error(t, err)
	})
}

func TestReport(t *testing.T) {
	d, err := NewDetector(6.0)
	require.NoError(t, err)

	t.Run("empty run", func(t *testing.T) {
		rep := d.Report(2)
		assert.Equal(t, 0, rep.Steps)
		assert.Equal(t, 2.0, rep.ExpectedNIS)
		assert.Equal(t, 0.0, rep.MeanNIS)
	})

	eye := mat.NewSymDense(2, []float64{1, 0, 0, 1})
	// NIS values: 1, 8 (exceeds), 0 -> mean 3, exceed 1/3
	for _, y := range [][]float64{{1, 0}, {2, 2}, {0, 0}} {
		_, _, err := d.Observe(y, eye)
		require.NoError(t, err)
	}

	rep := d.Report(2)
	assert.Equal(t, 3, rep.Steps)
	assert.InDelta(t, 3.0, rep.MeanNIS, 1e-12)
	assert.InDelta(t, 1.0, rep.Error, 1e-12)
	assert.InDelta(t, 100.0/3.0, rep.ExceedPct, 1e-9)
	assert.Equal(t, 6.0, rep.Threshold)
}

func TestRULProject(t *testing.T) {
	base := RULEstimator{
		HealthFloor: 0.75,
		SOCTarget:   1.0,
		RateFloor:   1e-8,
	}

	t.Run("healthy battery projects zero", func(t *testing.T) {
		r := base
		// health above the floor: the floor-relative projection clamps at 0
		assert.Equal(t, 0.0, r.Project(0.9, 1.0, 2e-6))
	})

	t.Run("degraded battery projects positive", func(t *testing.T) {
		r := base
		// rate = 2e-5 * 0.1 = 2e-6; (0.75 - 0.70) / 2e-6 = 25000 steps
		assert.InDelta(t, 25000.0, r.Project(0.9, 0.70, 2e-5), 1e-6)
	})

	t.Run("rate floor prevents blow-up", func(t *testing.T) {
		r := base
		// at the SOC target the stress term vanishes; the floor takes over
		assert.InDelta(t, 0.05/1e-8, r.Project(1.0, 0.70, 2e-6), 1e-3)
	})

	t.Run("never negative", func(t *testing.T) {
		r := base
		for _, health := range []float64{1.2, 1.0, 0.9, 0.76} {
			assert.GreaterOrEqual(t, r.Project(0.85, health, 2e-6), 0.0)
		}
	})

	t.Run("smoothing", func(t *testing.T) {
		r := base
		r.SmoothingAlpha = 0.5

		first := r.Project(0.9, 0.70, 2e-5)
		assert.InDelta(t, 25000.0, first, 1e-6)

		// raw projection halves; the EMA lands midway
		second := r.Project(0.9, 0.70, 4e-5)
		assert.InDelta(t, 0.5*25000.0+0.5*12500.0, second, 1e-6)
	})
}
