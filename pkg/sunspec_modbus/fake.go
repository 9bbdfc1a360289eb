package sunspec_modbus

// TestACMeterModbusReader is a fixed-value meter for tests and dry runs.
type TestACMeterModbusReader struct {
}

func CreateTestACMeterModbusReader() (ACMeterModbusReader, error) {
	return TestACMeterModbusReader{}, nil
}

func (reader TestACMeterModbusReader) Open() error {
	return nil
}

func (reader TestACMeterModbusReader) Close() error {
	return nil
}

func (reader TestACMeterModbusReader) GetInfo() (*DeviceInfo, error) {
	return &DeviceInfo{
		Manufacturer: "Frostnews",
		Model:        "Smart Meter TS 100A-1",
		Version:      "1.2",
	}, nil
}

func (reader TestACMeterModbusReader) GetPowerFlow() (*ACMeterPowerFlow, error) {
	return &ACMeterPowerFlow{
		CurrentPowerFlowWatt: -1250,
		ApparentPowerVA:      1300,
		CurrentAmp:           5.4,
		PowerFactor:          -0.96,
		Frequency:            50,
		PhaseAVoltage:        234.24,
	}, nil
}

// TestInverterModbusReader is a fixed-value inverter for tests and dry runs.
type TestInverterModbusReader struct {
}

func CreateTestInverterModbusReader() (InverterModbusReader, error) {
	return TestInverterModbusReader{}, nil
}

func (inv TestInverterModbusReader) Open() error {
	return nil
}

func (inv TestInverterModbusReader) Close() error {
	return nil
}

func (inv TestInverterModbusReader) GetInfo() (*DeviceInfo, error) {
	return &DeviceInfo{
		Manufacturer: "Frostnews",
		Model:        "Primo GEN24 4.0",
		Version:      "1.30.7-1",
	}, nil
}

func (inv TestInverterModbusReader) GetPowerFlow() (*InverterPowerFlow, error) {
	return &InverterPowerFlow{
		ACPowerWatt: 880.1,
		PVPowerWatt: 920.3,
	}, nil
}
