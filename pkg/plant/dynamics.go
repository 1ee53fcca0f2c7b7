package plant

import "math"

// Indices into StateVector.
const (
	StateSOC = iota
	StateBusVoltage
	StateCoreTemp
	StateRadiatorTemp
	StateOxygenMass
	StateCO2Mass
	StateCabinPressure
	StateBatteryHealth

	StateDim
)

// Indices into ControlVector.
const (
	ControlSolarUtilization = iota
	ControlPumpSpeed
	ControlO2GenRate
	ControlCO2ScrubRate

	ControlDim
)

// Indices into DisturbanceVector.
const (
	DisturbanceSunlight = iota
	DisturbanceCrewLoad
	DisturbanceExternalTemp

	DisturbanceDim
)

// StateVector is the full spacecraft subsystem state: electrical, thermal,
// life support, and battery health.
type StateVector [StateDim]float64

// ControlVector holds the subsystem control inputs.
type ControlVector [ControlDim]float64

// DisturbanceVector holds the exogenous inputs to the full model.
type DisturbanceVector [DisturbanceDim]float64

// Dynamics is the general spacecraft subsystem plant. It is a broader
// representation than BatteryModel: asymmetric charge/discharge efficiency,
// a radiatively coupled thermal pair, and life-support mass balance, with
// battery wear driven by charge-rate magnitude rather than target distance.
type Dynamics struct {
	// Battery
	BatteryCapacity     float64
	ChargeEfficiency    float64
	DischargeEfficiency float64
	LoadPowerPerCrew    float64
	HealthWearRate      float64 // health decay per unit |dSOC/dt|

	// Thermal
	RadiatorEmissivity float64
	RadiatorArea       float64
	ThermalCapacity    float64

	// Life support
	CrewO2ConsumptionRate float64 // O2 consumed per unit crew load
	CrewCO2ProductionRate float64 // CO2 produced per unit crew load
	CabinPressureCoupling float64
}

// stefanBoltzmann is the radiation constant in W/(m^2 K^4).
const stefanBoltzmann = 5.67e-8

// DefaultDynamics returns the reference subsystem parameters.
func DefaultDynamics() Dynamics {
	return Dynamics{
		BatteryCapacity:     50000.0,
		ChargeEfficiency:    0.95,
		DischargeEfficiency: 0.90,
		LoadPowerPerCrew:    2.0,
		HealthWearRate:      1e-5,

		RadiatorEmissivity: 0.85,
		RadiatorArea:       10.0,
		ThermalCapacity:    500.0,

		CrewO2ConsumptionRate: 0.1,
		CrewCO2ProductionRate: 0.1,
		CabinPressureCoupling: 0.01,
	}
}

// Derivative computes dX/dt for the full state. It is a pure function of its
// inputs; time is accepted for integrator compatibility but the dynamics are
// autonomous.
func (d Dynamics) Derivative(_ float64, x StateVector, u ControlVector, dist DisturbanceVector) StateVector {
	solarPower := dist[DisturbanceSunlight] * u[ControlSolarUtilization]
	loadPower := dist[DisturbanceCrewLoad] * d.LoadPowerPerCrew

	// Battery: charging is less than perfectly efficient, discharging costs
	// extra energy at the converter.
	netPower := solarPower - loadPower
	var dSOC float64
	if netPower >= 0 {
		dSOC = d.ChargeEfficiency * netPower / d.BatteryCapacity
	} else {
		dSOC = netPower / (d.DischargeEfficiency * d.BatteryCapacity)
	}

	// Thermal: radiator sheds heat against the external environment, the
	// pump moves heat from the core to the radiator.
	radiated := stefanBoltzmann * d.RadiatorEmissivity * d.RadiatorArea *
		(math.Pow(x[StateRadiatorTemp], 4) - math.Pow(dist[DisturbanceExternalTemp], 4))
	dCoreTemp := (loadPower - radiated) / d.ThermalCapacity
	dRadiatorTemp := (u[ControlPumpSpeed]*(x[StateCoreTemp]-x[StateRadiatorTemp]) - radiated) / d.ThermalCapacity

	// Life support mass balance.
	dO2 := u[ControlO2GenRate] - d.CrewO2ConsumptionRate*dist[DisturbanceCrewLoad]
	dCO2 := d.CrewCO2ProductionRate*dist[DisturbanceCrewLoad] - u[ControlCO2ScrubRate]
	dPressure := d.CabinPressureCoupling * (dO2 - dCO2)

	// Wear scales with how hard the battery is being cycled.
	dHealth := -d.HealthWearRate * math.Abs(dSOC)

	return StateVector{
		StateSOC:           dSOC,
		StateBusVoltage:    0, // bus voltage held constant at this fidelity level
		StateCoreTemp:      dCoreTemp,
		StateRadiatorTemp:  dRadiatorTemp,
		StateOxygenMass:    dO2,
		StateCO2Mass:       dCO2,
		StateCabinPressure: dPressure,
		StateBatteryHealth: dHealth,
	}
}
