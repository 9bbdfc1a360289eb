package sunspec_modbus

import (
	"time"

	"go.uber.org/zap"
)

type acMeterIntSFModbusBlocks struct {
	common  uint16
	acMeter uint16
}

func (blk *acMeterIntSFModbusBlocks) AllBlocksDefined() bool {
	return blk.common > 0 && blk.acMeter > 0
}

// ACMeterIntSFModbusReader reads a SunSpec smart meter (models 201-204)
// using the integer + scale factor register layout.
type ACMeterIntSFModbusReader struct {
	ModbusClient
	blocks acMeterIntSFModbusBlocks
}

func CreateACMeterIntSFModbusReader(host string, port uint, acMeterAddress uint8, timeout time.Duration,
	logger *zap.Logger, instrumentation *ModbusInstrument) (ACMeterModbusReader, error) {
	client, err := newModbusClient(host, port, acMeterAddress, timeout, logger.With(zap.String("target", "acMeter")), instrumentation)
	if err != nil {
		return nil, err
	}
	return &ACMeterIntSFModbusReader{ModbusClient: client}, nil
}

func (reader *ACMeterIntSFModbusReader) Open() error {
	if err := reader.client.Open(); err != nil {
		return err
	}
	blocks := acMeterIntSFModbusBlocks{}
	err := reader.survey(func(block modbusBlock) bool {
		if block.id >= SUNSPEC_WK_METERS_MIN && block.id <= SUNSPEC_WK_METERS_MAX {
			blocks.acMeter = block.baseAddr
		} else if block.id == SUNSPEC_WK_COMMON {
			blocks.common = block.baseAddr
		}
		return blocks.AllBlocksDefined()
	})
	if err != nil {
		_ = reader.client.Close()
		return err
	}
	if !blocks.AllBlocksDefined() {
		_ = reader.client.Close()
		return ErrNotSunSpec
	}
	reader.blocks = blocks
	return nil
}

func (reader *ACMeterIntSFModbusReader) Close() error {
	return reader.client.Close()
}

func (reader *ACMeterIntSFModbusReader) GetInfo() (*DeviceInfo, error) {
	return reader.readInfo(reader.blocks.common)
}

func (reader *ACMeterIntSFModbusReader) GetPowerFlow() (*ACMeterPowerFlow, error) {
	base := reader.blocks.acMeter
	// A, AphA, AphB, AphC, A_SF
	current, err := reader.readRegisters(base+2, 5)
	if err != nil {
		return nil, err
	}
	phaseAVoltage, err := reader.readRegister(base + 8)
	if err != nil {
		return nil, err
	}
	phaseAVoltageSF, err := reader.readRegister(base + 15)
	if err != nil {
		return nil, err
	}
	// Hz, Hz_SF, W, WphA, WphB, WphC, W_SF, VA
	flow, err := reader.readRegisters(base+16, 8)
	if err != nil {
		return nil, err
	}
	apparentSF, err := reader.readRegister(base + 27)
	if err != nil {
		return nil, err
	}
	pf, err := reader.readRegister(base + 33)
	if err != nil {
		return nil, err
	}
	pfSF, err := reader.readRegister(base + 37)
	if err != nil {
		return nil, err
	}

	return &ACMeterPowerFlow{
		CurrentPowerFlowWatt: applySFint16(int16(flow[2]), flow[6]),
		ApparentPowerVA:      applySFint16(int16(flow[7]), apparentSF),
		CurrentAmp:           applySFint16(int16(current[0]), current[4]),
		PowerFactor:          applySFint16(int16(pf), pfSF) / 100,
		Frequency:            applySF(flow[0], flow[1]),
		PhaseAVoltage:        applySF(phaseAVoltage, phaseAVoltageSF),
	}, nil
}
