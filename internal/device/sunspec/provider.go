package sunspec

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/berfenger/v2ca/internal/core/domain"
	"github.com/berfenger/v2ca/internal/core/port"
	"github.com/berfenger/v2ca/internal/metrics"
	"github.com/berfenger/v2ca/pkg/sunspec_modbus"
	"go.uber.org/zap"
)

const (
	DEVICE_NAME = "sunspec"

	DEFAULT_PORT     = 502
	METER_UNIT_ID    = 200
	INVERTER_UNIT_ID = 1

	defaultTimeout = 5 * time.Second
)

type MeterOpener func(host string, port uint) (sunspec_modbus.ACMeterModbusReader, error)

type InverterOpener func(host string, port uint) (sunspec_modbus.InverterModbusReader, error)

// ProviderFactory builds providers reading the grid channel from a SunSpec
// smart meter and the solar channel from a SunSpec inverter.
type ProviderFactory struct {
	meter    MeterOpener
	inverter InverterOpener
}

func NewProviderFactory(logger *zap.Logger) *ProviderFactory {
	inst := &sunspec_modbus.ModbusInstrument{
		RecordTime: func(fnName string, readTime time.Duration) {
			metrics.ModbusReadLatency.WithLabelValues(fnName).Observe(readTime.Seconds())
		},
	}
	return &ProviderFactory{
		meter: func(host string, port uint) (sunspec_modbus.ACMeterModbusReader, error) {
			return sunspec_modbus.CreateACMeterIntSFModbusReader(host, port, METER_UNIT_ID, defaultTimeout, logger, inst)
		},
		inverter: func(host string, port uint) (sunspec_modbus.InverterModbusReader, error) {
			return sunspec_modbus.CreateInverterIntSFModbusReader(host, port, INVERTER_UNIT_ID, defaultTimeout, logger, inst)
		},
	}
}

func NewProviderFactoryWithReaders(meter MeterOpener, inverter InverterOpener) *ProviderFactory {
	return &ProviderFactory{meter: meter, inverter: inverter}
}

func (f *ProviderFactory) Create(options domain.DeviceProviderOptions) (port.Provider[*domain.RawDeviceStatus], error) {
	host, p, err := splitHost(options.Host)
	if err != nil {
		return nil, err
	}
	switch options.EnergyType {
	case domain.EnergyTypeGrid:
		return &MeterProvider{conn: lazyReader[sunspec_modbus.ACMeterModbusReader]{
			open: func() (sunspec_modbus.ACMeterModbusReader, error) { return f.meter(host, p) },
		}}, nil
	case domain.EnergyTypeSolar:
		return &InverterProvider{conn: lazyReader[sunspec_modbus.InverterModbusReader]{
			open: func() (sunspec_modbus.InverterModbusReader, error) { return f.inverter(host, p) },
		}}, nil
	default:
		return nil, fmt.Errorf("%w: %q", domain.ErrUnknownEnergyType, options.EnergyType)
	}
}

// MeterProvider reports the grid channel of a SunSpec smart meter.
type MeterProvider struct {
	conn lazyReader[sunspec_modbus.ACMeterModbusReader]
}

func (p *MeterProvider) Get(ctx context.Context) (*domain.RawDeviceStatus, error) {
	var flow *sunspec_modbus.ACMeterPowerFlow
	err := p.conn.with(ctx, func(r sunspec_modbus.ACMeterModbusReader) (err error) {
		flow, err = r.GetPowerFlow()
		return err
	})
	if err != nil {
		return nil, err
	}
	return &domain.RawDeviceStatus{
		Id:          domain.ENERGY_ID_GRID,
		Current:     domain.Float(flow.CurrentAmp),
		Voltage:     domain.Float(flow.PhaseAVoltage),
		ActPower:    domain.Float(flow.CurrentPowerFlowWatt),
		AprtPower:   domain.Float(flow.ApparentPowerVA),
		PF:          domain.Float(flow.PowerFactor),
		Freq:        domain.Float(flow.Frequency),
		Calibration: "factory",
	}, nil
}

// InverterProvider reports the PV production of a SunSpec inverter.
type InverterProvider struct {
	conn lazyReader[sunspec_modbus.InverterModbusReader]
}

func (p *InverterProvider) Get(ctx context.Context) (*domain.RawDeviceStatus, error) {
	var flow *sunspec_modbus.InverterPowerFlow
	err := p.conn.with(ctx, func(r sunspec_modbus.InverterModbusReader) (err error) {
		flow, err = r.GetPowerFlow()
		return err
	})
	if err != nil {
		return nil, err
	}
	return &domain.RawDeviceStatus{
		Id:          domain.ENERGY_ID_SOLAR,
		ActPower:    domain.Float(flow.PVPowerWatt),
		Calibration: "factory",
	}, nil
}

type reader interface {
	Open() error
	Close() error
}

// lazyReader opens its Modbus connection on first use and drops it after a
// failed read so the next call reconnects.
type lazyReader[R reader] struct {
	mu     sync.Mutex
	open   func() (R, error)
	reader R
	opened bool
}

func (l *lazyReader[R]) with(ctx context.Context, fn func(R) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	if !l.opened {
		r, err := l.open()
		if err != nil {
			return fmt.Errorf("%w: %v", domain.ErrSourceUnavailable, err)
		}
		if err := r.Open(); err != nil {
			return fmt.Errorf("%w: open: %v", domain.ErrSourceUnavailable, err)
		}
		l.reader = r
		l.opened = true
	}
	if err := fn(l.reader); err != nil {
		_ = l.reader.Close()
		var zero R
		l.reader = zero
		l.opened = false
		return fmt.Errorf("%w: read: %v", domain.ErrSourceUnavailable, err)
	}
	return nil
}

func splitHost(hostport string) (string, uint, error) {
	hostport = strings.TrimSpace(hostport)
	if hostport == "" {
		return "", 0, fmt.Errorf("%s: host is required", DEVICE_NAME)
	}
	host, portStr, err := net.SplitHostPort(hostport)
	if err != nil {
		// no port given
		return hostport, DEFAULT_PORT, nil
	}
	p, err := strconv.ParseUint(portStr, 10, 16)
	if err != nil {
		return "", 0, fmt.Errorf("%s: invalid port in %q", DEVICE_NAME, hostport)
	}
	return host, uint(p), nil
}
