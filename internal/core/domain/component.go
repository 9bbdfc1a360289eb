package domain

const (
	DEVICE_ID_BRIDGE = "v2ca_bridge"

	SENSOR_ID_BRIDGE_STATE = "bridge_state"
	SENSOR_ID_GRID_POWER   = "grid_power"
	SENSOR_ID_SOLAR_POWER  = "solar_power"

	SENSOR_TYPE_SENSOR = "sensor"
	SENSOR_TYPE_BINARY = "binary_sensor"
)

type Device struct {
	Id           string
	Name         string
	Version      string
	Model        string
	Manufacturer string
}

// GenericSensor describes a Home Assistant entity announced through MQTT discovery.
type GenericSensor struct {
	Device            Device
	Id                string
	SensorType        string
	Name              string
	UniqueId          string
	StateTopic        string
	UnitOfMeasurement string
	StateClass        string // measurement, total_increasing
	DeviceClass       string // power, connectivity
	EntityCategory    string // diagnostic, config, nil
	Icon              string
}

// PowerSensors returns the entities published by the mqtt surface.
func PowerSensors(dev Device, gridTopic, solarTopic string) []GenericSensor {
	return []GenericSensor{
		{
			Device:            dev,
			Id:                SENSOR_ID_GRID_POWER,
			SensorType:        SENSOR_TYPE_SENSOR,
			Name:              "Grid power",
			UniqueId:          dev.Id + "_" + SENSOR_ID_GRID_POWER,
			StateTopic:        gridTopic,
			UnitOfMeasurement: "W",
			StateClass:        "measurement",
			DeviceClass:       "power",
			Icon:              "mdi:transmission-tower",
		},
		{
			Device:            dev,
			Id:                SENSOR_ID_SOLAR_POWER,
			SensorType:        SENSOR_TYPE_SENSOR,
			Name:              "Solar power",
			UniqueId:          dev.Id + "_" + SENSOR_ID_SOLAR_POWER,
			StateTopic:        solarTopic,
			UnitOfMeasurement: "W",
			StateClass:        "measurement",
			DeviceClass:       "power",
			Icon:              "mdi:solar-power",
		},
		{
			Device:         dev,
			Id:             SENSOR_ID_BRIDGE_STATE,
			SensorType:     SENSOR_TYPE_BINARY,
			Name:           "Bridge state",
			UniqueId:       dev.Id + "_" + SENSOR_ID_BRIDGE_STATE,
			DeviceClass:    "connectivity",
			EntityCategory: "diagnostic",
		},
	}
}
