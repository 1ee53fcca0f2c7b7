package orbit

import (
	"testing"

	"github.com/battwin/battwin/pkg/types"
	"github.com/stretchr/testify/assert"
)

func referenceEnvironment() Environment {
	return NewEnvironment(types.DefaultConfig())
}

func TestSunlight(t *testing.T) {
	e := referenceEnvironment()

	t.Run("starts at the mean", func(t *testing.T) {
		assert.InDelta(t, 80.0, e.Sunlight(0), 1e-9)
	})

	t.Run("peaks a quarter period in", func(t *testing.T) {
		assert.InDelta(t, 160.0, e.Sunlight(45), 1e-9)
	})

	t.Run("eclipse floor at zero", func(t *testing.T) {
		for step := 0; step < 500; step++ {
			assert.GreaterOrEqual(t, e.Sunlight(step), 0.0, "step %d", step)
		}
		// three quarters in, the raw sinusoid bottoms out at exactly zero
		assert.InDelta(t, 0.0, e.Sunlight(135), 1e-9)
	})

	t.Run("periodic", func(t *testing.T) {
		assert.InDelta(t, e.Sunlight(10), e.Sunlight(190), 1e-9)
	})
}

func TestDegradationRate(t *testing.T) {
	e := referenceEnvironment()

	assert.Equal(t, 2e-6, e.DegradationRate(0))
	assert.Equal(t, 2e-6, e.DegradationRate(300))
	// fault injects strictly after the fault step
	assert.Equal(t, 2e-5, e.DegradationRate(301))
	assert.Equal(t, 2e-5, e.DegradationRate(499))
}

func TestDisturbance(t *testing.T) {
	e := referenceEnvironment()
	d := e.Disturbance(45)
	assert.InDelta(t, 160.0, d.Sunlight, 1e-9)
}
