package sunspec_modbus

import (
	"time"

	"go.uber.org/zap"
)

type inverterIntSFModbusBlocks struct {
	common   uint16
	inverter uint16
	mppt     uint16
}

func (blk *inverterIntSFModbusBlocks) AllBlocksDefined() bool {
	return blk.common > 0 && blk.inverter > 0 && blk.mppt > 0
}

// InverterIntSFModbusReader reads a SunSpec inverter (models 101-103 plus
// the MPPT extension model 160).
type InverterIntSFModbusReader struct {
	ModbusClient
	blocks inverterIntSFModbusBlocks
}

func CreateInverterIntSFModbusReader(host string, port uint, inverterAddress uint8, timeout time.Duration,
	logger *zap.Logger, instrumentation *ModbusInstrument) (InverterModbusReader, error) {
	client, err := newModbusClient(host, port, inverterAddress, timeout, logger.With(zap.String("target", "inverter")), instrumentation)
	if err != nil {
		return nil, err
	}
	return &InverterIntSFModbusReader{ModbusClient: client}, nil
}

func (inv *InverterIntSFModbusReader) Open() error {
	if err := inv.client.Open(); err != nil {
		return err
	}
	blocks := inverterIntSFModbusBlocks{}
	err := inv.survey(func(block modbusBlock) bool {
		if block.id >= SUNSPEC_WK_INVERTERS_MIN && block.id <= SUNSPEC_WK_INVERTERS_MAX {
			blocks.inverter = block.baseAddr
		} else {
			switch block.id {
			case SUNSPEC_WK_COMMON:
				blocks.common = block.baseAddr
			case SUNSPEC_WK_MPPT:
				blocks.mppt = block.baseAddr
			}
		}
		return blocks.AllBlocksDefined()
	})
	if err != nil {
		_ = inv.client.Close()
		return err
	}
	if blocks.common == 0 || blocks.inverter == 0 {
		_ = inv.client.Close()
		return ErrNotSunSpec
	}
	inv.blocks = blocks
	return nil
}

func (inv *InverterIntSFModbusReader) Close() error {
	return inv.client.Close()
}

func (inv *InverterIntSFModbusReader) GetInfo() (*DeviceInfo, error) {
	return inv.readInfo(inv.blocks.common)
}

func (inv *InverterIntSFModbusReader) GetPowerFlow() (*InverterPowerFlow, error) {
	acpower, err := inv.readRegisters(inv.blocks.inverter+14, 2)
	if err != nil {
		return nil, err
	}
	acPowerWatt := applySFint16(int16(acpower[0]), acpower[1])
	// without MPPT data the AC output is the best estimate of PV production
	if inv.blocks.mppt == 0 {
		return &InverterPowerFlow{ACPowerWatt: acPowerWatt, PVPowerWatt: max(acPowerWatt, 0)}, nil
	}

	dcPowerSF, err := inv.readRegister(inv.blocks.mppt + 4)
	if err != nil {
		return nil, err
	}
	nMods, err := inv.readRegister(inv.blocks.mppt + 8)
	if err != nil {
		return nil, err
	}
	// modules 3 and 4 are the storage charge/discharge pair
	pvMods := nMods
	if nMods > 2 {
		pvMods = nMods - 2
	}
	var dcpower float64 = 0
	for i := uint16(0); i < pvMods; i++ {
		mpptPower, err := inv.readMPPTPower(i)
		if err != nil {
			return nil, err
		}
		dcpower += applySF(mpptPower, dcPowerSF)
	}

	return &InverterPowerFlow{
		ACPowerWatt: acPowerWatt,
		PVPowerWatt: dcpower,
	}, nil
}

func (inv *InverterIntSFModbusReader) readMPPTPower(index uint16) (uint16, error) {
	baseAddr := inv.blocks.mppt + 10 + 20*index
	dcpower, err := inv.readRegister(baseAddr + 11)
	if err != nil {
		return 0, err
	}
	if int16(dcpower) == -1 {
		dcpower = 0
	}
	return dcpower, nil
}
