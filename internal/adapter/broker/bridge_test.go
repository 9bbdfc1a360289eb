package broker

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/berfenger/v2ca/internal/core/domain"
	"github.com/berfenger/v2ca/internal/core/port"
	"github.com/berfenger/v2ca/internal/util/actorutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func actPower() port.Adapter[*domain.RawDeviceStatus, *domain.EnergyInformation] {
	return port.AdapterFunc[*domain.RawDeviceStatus, *domain.EnergyInformation](
		func(_ context.Context, s *domain.RawDeviceStatus) (*domain.EnergyInformation, error) {
			if s.ActPower == nil {
				return nil, nil
			}
			return &domain.EnergyInformation{Power: *s.ActPower}, nil
		})
}

func newTestBridge(t *testing.T, client *mockClient, values chan float64) *BridgeService[domain.RawDeviceStatus, domain.EnergyInformation] {
	logger := zap.Must(zap.NewDevelopment())
	as := actorutil.NewActorSystemWithZapLogger(logger)
	t.Cleanup(as.Shutdown)
	cb := func(_ context.Context, v domain.EnergyInformation) error {
		values <- v.Power
		return nil
	}
	return NewBridgeService[domain.RawDeviceStatus, domain.EnergyInformation](
		BridgeConfig{URL: "tcp://broker:1883", Topic: "shelly/solar"}, dialerFor(client), as, actPower(), cb, logger)
}

func TestBridgeForwardsAdaptedMessages(t *testing.T) {

	assert := assert.New(t)
	require := require.New(t)

	client := newMockClient()
	client.On("Connect").Return(nil).Once()
	client.On("Subscribe", "shelly/solar").Return(nil).Once()
	client.On("Unsubscribe", "shelly/solar").Return(nil).Once()
	client.On("Disconnect").Once()

	values := make(chan float64, 10)
	s := newTestBridge(t, client, values)
	ctx := context.Background()

	require.NoError(s.Start(ctx))
	assert.True(s.Healthy(ctx))

	client.deliver("shelly/solar", `{"id":1,"act_power":812.4,"calibration":"factory"}`)
	client.deliver("shelly/solar", `garbage`)
	client.deliver("shelly/solar", `{"id":1,"act_power":790}`)

	for _, expected := range []float64{812.4, 790} {
		select {
		case v := <-values:
			assert.Equal(expected, v)
		case <-time.After(2 * time.Second):
			t.Fatal("timed out waiting for bridged value")
		}
	}

	require.NoError(s.Stop(ctx))
	assert.False(s.Healthy(ctx))
	client.AssertExpectations(t)
}

func TestBridgeConnectFailureIsFatal(t *testing.T) {

	assert := assert.New(t)

	client := newMockClient()
	client.On("Connect").Return(errors.New("no route to host")).Once()

	s := newTestBridge(t, client, make(chan float64, 1))
	err := s.Start(context.Background())
	assert.ErrorIs(err, domain.ErrSourceUnavailable)
	assert.False(s.Started())
	client.AssertNotCalled(t, "Subscribe", "shelly/solar")
}

func TestBridgeSubscribeFailureDisconnects(t *testing.T) {

	assert := assert.New(t)

	client := newMockClient()
	client.On("Connect").Return(nil).Once()
	client.On("Subscribe", "shelly/solar").Return(errors.New("not authorized")).Once()
	client.On("Disconnect").Once()

	s := newTestBridge(t, client, make(chan float64, 1))
	assert.Error(s.Start(context.Background()))
	assert.False(s.Started())
	client.AssertExpectations(t)
}

func TestBridgeStopWithoutStart(t *testing.T) {

	assert := assert.New(t)

	client := newMockClient()
	s := newTestBridge(t, client, make(chan float64, 1))

	assert.NoError(s.Stop(context.Background()))
	assert.NoError(s.DoStop(context.Background()), "stopping a never started bridge is safe")
	client.AssertNotCalled(t, "Disconnect")
}
