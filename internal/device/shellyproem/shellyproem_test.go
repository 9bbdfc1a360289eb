package shellyproem

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/berfenger/v2ca/internal/core/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatusProviderQueriesChannel(t *testing.T) {

	assert := assert.New(t)
	require := require.New(t)

	var gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal("/rpc/EM1.GetStatus", r.URL.Path)
		gotQuery = r.URL.Query().Get("id")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":1,"current":2.1,"voltage":231.5,"act_power":486.2,"aprt_power":490,"pf":0.99,"freq":50,"calibration":"factory"}`))
	}))
	defer srv.Close()

	f := NewProviderFactory(srv.Client())
	p, err := f.Create(domain.DeviceProviderOptions{EnergyType: domain.EnergyTypeSolar, Host: srv.URL})
	require.NoError(err)

	status, err := p.Get(context.Background())
	require.NoError(err)
	assert.Equal("1", gotQuery)
	assert.Equal(1, status.Id)
	assert.Equal(486.2, *status.ActPower)
	assert.Equal("factory", status.Calibration)
}

func TestStatusProviderHTTPError(t *testing.T) {

	assert := assert.New(t)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "device busy", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	p, err := NewProviderFactory(srv.Client()).Create(domain.DeviceProviderOptions{EnergyType: domain.EnergyTypeGrid, Host: srv.URL})
	assert.NoError(err)

	status, err := p.Get(context.Background())
	assert.Nil(status)
	assert.ErrorIs(err, domain.ErrSourceUnavailable)
	assert.ErrorContains(err, "503")
}

func TestStatusProviderMalformedBody(t *testing.T) {

	assert := assert.New(t)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"id":`))
	}))
	defer srv.Close()

	p, _ := NewProviderFactory(srv.Client()).Create(domain.DeviceProviderOptions{Host: srv.URL})
	_, err := p.Get(context.Background())
	assert.ErrorIs(err, domain.ErrSourceUnavailable)
}

func TestStatusProviderUnreachable(t *testing.T) {

	assert := assert.New(t)

	srv := httptest.NewServer(http.NotFoundHandler())
	host := strings.TrimPrefix(srv.URL, "http://")
	srv.Close()

	p, err := NewProviderFactory(nil).Create(domain.DeviceProviderOptions{Host: host})
	assert.NoError(err)
	_, err = p.Get(context.Background())
	assert.ErrorIs(err, domain.ErrSourceUnavailable)
}

func TestStatusEndpoint(t *testing.T) {

	assert := assert.New(t)

	u, err := statusEndpoint(domain.DeviceProviderOptions{EnergyType: domain.EnergyTypeGrid, Host: "192.168.1.50"})
	assert.NoError(err)
	assert.Equal("http://192.168.1.50/rpc/EM1.GetStatus?id=0", u)

	u, err = statusEndpoint(domain.DeviceProviderOptions{EnergyType: domain.EnergyTypeSolar, Host: "http://shelly.lan:8080/"})
	assert.NoError(err)
	assert.Equal("http://shelly.lan:8080/rpc/EM1.GetStatus?id=1", u)

	_, err = statusEndpoint(domain.DeviceProviderOptions{Host: " "})
	assert.Error(err)
}

func TestEnergyInformationAdapter(t *testing.T) {

	assert := assert.New(t)
	ctx := context.Background()

	v, err := EnergyInformationAdapter{}.Adapt(ctx, &domain.RawDeviceStatus{ActPower: domain.Float(-1250)})
	assert.NoError(err)
	assert.Equal(-1250.0, v.Power)

	v, err = EnergyInformationAdapter{}.Adapt(ctx, &domain.RawDeviceStatus{Calibration: "factory"})
	assert.NoError(err)
	assert.Nil(v)

	v, err = EnergyInformationAdapter{}.Adapt(ctx, nil)
	assert.NoError(err)
	assert.Nil(v)
}
