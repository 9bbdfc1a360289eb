package shellyproem

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/berfenger/v2ca/internal/core/domain"
	"github.com/berfenger/v2ca/internal/core/port"
)

const (
	DEVICE_NAME = "shelly-pro-em"

	defaultTimeout = 5 * time.Second
	maxBodyBytes   = 64 << 10
)

// StatusProvider reads EM1.GetStatus of a single channel over the Shelly RPC HTTP API.
type StatusProvider struct {
	client   *http.Client
	endpoint string
}

func (p *StatusProvider) Get(ctx context.Context) (*domain.RawDeviceStatus, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.endpoint, nil)
	if err != nil {
		return nil, err
	}
	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrSourceUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("%w: read body: %v", domain.ErrSourceUnavailable, err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: %s returned %d: %s", domain.ErrSourceUnavailable, p.endpoint, resp.StatusCode,
			strings.TrimSpace(string(body)))
	}

	var status domain.RawDeviceStatus
	if err := json.Unmarshal(body, &status); err != nil {
		return nil, fmt.Errorf("%w: decode status: %v", domain.ErrSourceUnavailable, err)
	}
	return &status, nil
}

func (p *StatusProvider) Endpoint() string {
	return p.endpoint
}

// ProviderFactory creates a StatusProvider for the channel matching the
// requested energy type.
type ProviderFactory struct {
	client *http.Client
}

func NewProviderFactory(client *http.Client) *ProviderFactory {
	if client == nil {
		client = &http.Client{Timeout: defaultTimeout}
	}
	return &ProviderFactory{client: client}
}

func (f *ProviderFactory) Create(options domain.DeviceProviderOptions) (port.Provider[*domain.RawDeviceStatus], error) {
	endpoint, err := statusEndpoint(options)
	if err != nil {
		return nil, err
	}
	return &StatusProvider{client: f.client, endpoint: endpoint}, nil
}

func statusEndpoint(options domain.DeviceProviderOptions) (string, error) {
	host := strings.TrimSpace(options.Host)
	if host == "" {
		return "", errors.New("shelly-pro-em: host is required")
	}
	base := host
	if !strings.Contains(host, "://") {
		base = "http://" + host
	}
	u, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("shelly-pro-em: invalid host %q: %w", host, err)
	}
	u.Path = strings.TrimSuffix(u.Path, "/") + "/rpc/EM1.GetStatus"
	u.RawQuery = url.Values{"id": {strconv.Itoa(domain.EnergyTypeToID(options.EnergyType))}}.Encode()
	return u.String(), nil
}
