package sunspec_modbus

type DeviceInfo struct {
	Manufacturer string
	Model        string
	Version      string
	Serial       string
}

type ACMeterPowerFlow struct {
	// Current AC power flow. Positive = import. Negative = export
	CurrentPowerFlowWatt float64
	// Total apparent power
	ApparentPowerVA float64
	// Sum of phase currents
	CurrentAmp float64
	// Average power factor, -1..1
	PowerFactor float64
	// Grid frequency
	Frequency float64
	// First grid phase voltage
	PhaseAVoltage float64
}

type InverterPowerFlow struct {
	ACPowerWatt float64
	PVPowerWatt float64
}

type ACMeterModbusReader interface {
	Open() error
	Close() error
	GetInfo() (*DeviceInfo, error)
	GetPowerFlow() (*ACMeterPowerFlow, error)
}

type InverterModbusReader interface {
	Open() error
	Close() error
	GetInfo() (*DeviceInfo, error)
	GetPowerFlow() (*InverterPowerFlow, error)
}
