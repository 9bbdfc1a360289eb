package domain

import "fmt"

// EnergyInformation is the canonical reading delivered to the output surfaces.
type EnergyInformation struct {
	Power float64 `json:"power" mapstructure:"power"`
}

type EnergyType string

const (
	EnergyTypeGrid  EnergyType = "grid"
	EnergyTypeSolar EnergyType = "solar"
)

const (
	ENERGY_ID_GRID  = 0
	ENERGY_ID_SOLAR = 1
)

// EnergyTypeToID maps an energy type to its device channel id.
func EnergyTypeToID(t EnergyType) int {
	if t == EnergyTypeSolar {
		return ENERGY_ID_SOLAR
	}
	return ENERGY_ID_GRID
}

func IDToEnergyType(id int) (EnergyType, error) {
	switch id {
	case ENERGY_ID_GRID:
		return EnergyTypeGrid, nil
	case ENERGY_ID_SOLAR:
		return EnergyTypeSolar, nil
	default:
		return "", fmt.Errorf("%w: %d", ErrUnknownEnergyType, id)
	}
}

// RawDeviceStatus is the EM1.GetStatus payload of a Shelly Pro EM channel.
// Numeric fields are optional and nil when the device did not report them.
type RawDeviceStatus struct {
	Id          int      `json:"id" mapstructure:"id"`
	Current     *float64 `json:"current,omitempty" mapstructure:"current"`
	Voltage     *float64 `json:"voltage,omitempty" mapstructure:"voltage"`
	ActPower    *float64 `json:"act_power,omitempty" mapstructure:"act_power"`
	AprtPower   *float64 `json:"aprt_power,omitempty" mapstructure:"aprt_power"`
	PF          *float64 `json:"pf,omitempty" mapstructure:"pf"`
	Freq        *float64 `json:"freq,omitempty" mapstructure:"freq"`
	Calibration string   `json:"calibration" mapstructure:"calibration"`
	Errors      []string `json:"errors,omitempty" mapstructure:"errors"`
	Flags       []string `json:"flags,omitempty" mapstructure:"flags"`
}

// DeviceProviderOptions are handed to a device provider factory.
type DeviceProviderOptions struct {
	EnergyType EnergyType
	Host       string
}

func Float(v float64) *float64 {
	return &v
}
