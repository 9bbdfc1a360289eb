package mqtt

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/berfenger/v2ca/internal/core/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOptsFromConfigWill(t *testing.T) {

	assert := assert.New(t)

	opts := OptsFromConfig("tcp://localhost:1883", Options{
		ClientId:  "v2ca",
		BaseTopic: "v2ca",
		Will:      true,
		Username:  "user",
		Password:  "secret",
	})

	assert.True(opts.WillEnabled)
	assert.True(opts.WillRetained)
	assert.Equal("v2ca/bridge/state", opts.WillTopic)
	assert.Equal([]byte(MQTT_PAYLOAD_OFFLINE), opts.WillPayload)
	assert.Equal("user", opts.Username)
	assert.Regexp("^v2ca_[0-9a-f]{12}$", opts.ClientID)
	assert.Len(opts.Servers, 1)
	assert.Equal("localhost:1883", opts.Servers[0].Host)
}

func TestOptsFromConfigWithoutWill(t *testing.T) {

	assert := assert.New(t)

	opts := OptsFromConfig("tcp://broker:1883", Options{})
	assert.False(opts.WillEnabled)
	assert.Empty(opts.Username, "credentials need both user and password")

	other := OptsFromConfig("tcp://broker:1883", Options{})
	assert.NotEqual(opts.ClientID, other.ClientID, "client ids are unique per connection")
}

func TestAwait(t *testing.T) {

	assert := assert.New(t)

	assert.NoError(Await(func(continuation func(error)) {
		go continuation(nil)
	}))

	failure := errors.New("MQTT connect timed out")
	assert.ErrorIs(Await(func(continuation func(error)) {
		time.AfterFunc(10*time.Millisecond, func() { continuation(failure) })
	}), failure)
}

func TestHADiscoveryPowerSensor(t *testing.T) {

	assert := assert.New(t)
	require := require.New(t)

	dev := domain.Device{Id: domain.DEVICE_ID_BRIDGE, Name: "V2C bridge", Version: "1.0.0"}
	sensors := domain.PowerSensors(dev, "trydan_v2c_grid_power", "trydan_v2c_sun_power")
	require.Len(sensors, 3)

	grid := sensors[0]
	msg := GenericSensorToHADiscoveryMessage("v2ca", grid)
	assert.Equal("trydan_v2c_grid_power", msg.StateTopic)
	assert.Equal("v2ca/bridge/state", msg.AvTopic)
	assert.Equal("W", msg.UnitOfMeasurement)
	assert.Equal("power", msg.DeviceClass)
	assert.Empty(msg.PayloadOn)
	assert.Equal("homeassistant/sensor/v2ca_bridge/grid_power/config", HADiscoverySensorTopic("homeassistant", grid))

	raw, err := json.Marshal(msg)
	require.NoError(err)
	var decoded map[string]any
	require.NoError(json.Unmarshal(raw, &decoded))
	assert.Equal("mqtt", decoded["platform"])
	assert.Equal([]any{"v2ca_bridge"}, decoded["device"].(map[string]any)["identifiers"])
	assert.Equal("1.0.0", decoded["device"].(map[string]any)["sw_version"])
}

func TestHADiscoveryBridgeState(t *testing.T) {

	assert := assert.New(t)

	dev := domain.Device{Id: domain.DEVICE_ID_BRIDGE}
	state := domain.PowerSensors(dev, "g", "s")[2]

	msg := GenericSensorToHADiscoveryMessage("v2ca", state)
	assert.Equal("v2ca/bridge/state", msg.StateTopic)
	assert.Equal(MQTT_PAYLOAD_ONLINE, msg.PayloadOn)
	assert.Equal(MQTT_PAYLOAD_OFFLINE, msg.PayloadOff)
	assert.Equal("homeassistant/binary_sensor/v2ca_bridge/bridge_state/config", HADiscoverySensorTopic("homeassistant", state))
}
