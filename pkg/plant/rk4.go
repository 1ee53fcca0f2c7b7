package plant

// DerivativeFunc computes dX/dt for a full state vector.
type DerivativeFunc func(t float64, x StateVector, u ControlVector, d DisturbanceVector) StateVector

// IntegrateStep advances the full state by one step of classical fourth-order
// Runge-Kutta and clamps the physically bounded components (SOC and battery
// health) to [0,1].
func IntegrateStep(f DerivativeFunc, t float64, x StateVector, u ControlVector, d DisturbanceVector, dt float64) StateVector {
	k1 := f(t, x, u, d)
	k2 := f(t+dt/2, x.addScaled(dt/2, k1), u, d)
	k3 := f(t+dt/2, x.addScaled(dt/2, k2), u, d)
	k4 := f(t+dt, x.addScaled(dt, k3), u, d)

	var next StateVector
	for i := range next {
		next[i] = x[i] + (dt/6)*(k1[i]+2*k2[i]+2*k3[i]+k4[i])
	}

	next[StateSOC] = min(max(next[StateSOC], 0), 1)
	next[StateBatteryHealth] = min(max(next[StateBatteryHealth], 0), 1)
	return next
}

func (x StateVector) addScaled(c float64, k StateVector) StateVector {
	var out StateVector
	for i := range out {
		out[i] = x[i] + c*k[i]
	}
	return out
}
