package sunspec_modbus

import (
	"errors"
	"fmt"
	"math"
	"slices"
	"time"

	"github.com/simonvetter/modbus"
	"go.uber.org/zap"
)

const (
	SUNSPEC_BASE_ADDR        = 40000
	SUNSPEC_WK_COMMON        = 1
	SUNSPEC_WK_INVERTERS_MIN = 101
	SUNSPEC_WK_INVERTERS_MAX = 103
	SUNSPEC_WK_METERS_MIN    = 201
	SUNSPEC_WK_METERS_MAX    = 204
	SUNSPEC_WK_MPPT          = 160
	SUNSPEC_END_BLOCK        = 0xFFFF

	maxSurveyBlocks = 20
)

var ErrNotSunSpec = errors.New("sunspec: device does not expose a SunSpec map")

// registerReader is the subset of the modbus client used by the readers.
type registerReader interface {
	Open() error
	Close() error
	ReadRegister(addr uint16, regType modbus.RegType) (uint16, error)
	ReadRegisters(addr uint16, quantity uint16, regType modbus.RegType) ([]uint16, error)
	ReadRawBytes(addr uint16, quantity uint16, regType modbus.RegType) ([]byte, error)
}

type ModbusClient struct {
	client     registerReader
	instrument []ModbusInstrument
}

type ModbusInstrument struct {
	RecordTime func(fnName string, readTime time.Duration)
}

func newModbusClient(host string, port uint, unitId uint8, timeout time.Duration, logger *zap.Logger,
	instrumentation *ModbusInstrument) (ModbusClient, error) {
	client, err := modbus.NewClient(&modbus.ClientConfiguration{
		URL:     fmt.Sprintf("tcp://%s:%d", host, port),
		Timeout: timeout,
	})
	if err != nil {
		return ModbusClient{}, err
	}
	if unitId > 0 {
		if err := client.SetUnitId(unitId); err != nil {
			return ModbusClient{}, err
		}
	}
	inst := []ModbusInstrument{traceLoggerInstrumentation(logger.With(zap.Uint8("unit_id", unitId)))}
	if instrumentation != nil {
		inst = append(inst, *instrumentation)
	}
	return ModbusClient{client: client, instrument: inst}, nil
}

func traceLoggerInstrumentation(logger *zap.Logger) ModbusInstrument {
	return ModbusInstrument{
		RecordTime: func(fnName string, readTime time.Duration) {
			logger.Debug("modbus read", zap.String("fn", fnName), zap.Int64("millis", readTime.Milliseconds()))
		},
	}
}

func (reader ModbusClient) readString(address uint16, size uint16) (string, error) {
	bytes, err := reader.readRawBytes(address, size, modbus.HOLDING_REGISTER)
	if err != nil {
		return "", err
	}
	f := slices.Index(bytes, 0x00)
	if f >= 0 {
		return string(bytes[:f]), nil
	}
	return string(bytes), nil
}

func applySF(number uint16, sf uint16) float64 {
	return float64(number) * math.Pow(10, float64(int16(sf)))
}

func applySFint16(number int16, sf uint16) float64 {
	return float64(number) * math.Pow(10, float64(int16(sf)))
}

func (reader ModbusClient) readRegister(addr uint16) (uint16, error) {
	defer RecordTimer("ReadRegister", reader.instrument)()
	return reader.client.ReadRegister(addr, modbus.HOLDING_REGISTER)
}

func (reader ModbusClient) readRegisters(addr uint16, quantity uint16) ([]uint16, error) {
	defer RecordTimer("ReadRegisters", reader.instrument)()
	return reader.client.ReadRegisters(addr, quantity, modbus.HOLDING_REGISTER)
}

func (reader ModbusClient) readRawBytes(addr uint16, quantity uint16, regType modbus.RegType) ([]byte, error) {
	defer RecordTimer("ReadRawBytes", reader.instrument)()
	return reader.client.ReadRawBytes(addr, quantity, regType)
}

// readInfo reads manufacturer, model, version and serial from the common block.
func (reader ModbusClient) readInfo(common uint16) (*DeviceInfo, error) {
	manufacturer, err := reader.readString(common+2, 32)
	if err != nil {
		return nil, err
	}
	model, err := reader.readString(common+18, 32)
	if err != nil {
		return nil, err
	}
	version, err := reader.readString(common+42, 16)
	if err != nil {
		return nil, err
	}
	serial, err := reader.readString(common+50, 32)
	if err != nil {
		return nil, err
	}
	return &DeviceInfo{
		Manufacturer: manufacturer,
		Model:        model,
		Version:      version,
		Serial:       serial,
	}, nil
}

type modbusBlock struct {
	id       uint16
	baseAddr uint16
	length   uint16
}

func (block *modbusBlock) isEndBlock() bool {
	return block.id == SUNSPEC_END_BLOCK
}

// survey walks the SunSpec model chain and hands every block to visit until
// visit returns true or the end block is reached.
func (reader ModbusClient) survey(visit func(block modbusBlock) bool) error {
	str, err := reader.readString(SUNSPEC_BASE_ADDR, 4)
	if err != nil {
		return err
	}
	if str != "SunS" {
		return ErrNotSunSpec
	}
	var baseAddr uint16 = SUNSPEC_BASE_ADDR + 2
	for n := 0; n < maxSurveyBlocks; n++ {
		header, err := reader.readRegisters(baseAddr, 2)
		if err != nil {
			return err
		}
		block := modbusBlock{id: header[0], length: header[1], baseAddr: baseAddr}
		if block.isEndBlock() || visit(block) {
			return nil
		}
		baseAddr = baseAddr + block.length + 2
	}
	return nil
}

func RecordTimer(name string, instrument []ModbusInstrument) func() {
	if instrument == nil {
		return func() {}
	}

	start := time.Now()
	return func() {
		duration := time.Since(start)
		for i := range instrument {
			instrument[i].RecordTime(name, duration)
		}
	}
}
