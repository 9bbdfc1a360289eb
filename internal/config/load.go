package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/berfenger/v2ca/internal/core/domain"
	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const (
	ENV_PREFIX = "v2ca"

	PROVIDER_REST = "rest"
	PROVIDER_MQTT = "mqtt"

	FEED_ADAPTER = "adapter"
	FEED_MOCK    = "mock"
	FEED_OFF     = "off"
	FEED_BRIDGE  = "bridge"

	MODE_PULL = "pull"
	MODE_PUSH = "push"
)

var ErrNoConfig = errors.New("no configuration found")

type rawConfig struct {
	LogLevel   string        `mapstructure:"log_level"`
	HttpLog    bool          `mapstructure:"http_log"`
	Provider   string        `mapstructure:"provider"`
	Properties rawProperties `mapstructure:"properties"`
}

type rawProperties struct {
	Port              uint      `mapstructure:"port"`
	URL               string    `mapstructure:"url"`
	Username          string    `mapstructure:"username"`
	Password          string    `mapstructure:"password"`
	BaseTopic         string    `mapstructure:"base_topic"`
	HADiscoveryEnable bool      `mapstructure:"ha_discovery_enable"`
	HADiscoveryTopic  string    `mapstructure:"ha_discovery_topic"`
	StatusPort        uint      `mapstructure:"status_port"`
	RateLimit         float64   `mapstructure:"rate_limit"`
	RateLimitBurst    int       `mapstructure:"rate_limit_burst"`
	Device            string    `mapstructure:"device"`
	Meters            rawMeters `mapstructure:"meters"`
}

type rawMeters struct {
	Grid  rawMeter `mapstructure:"grid"`
	Solar rawMeter `mapstructure:"solar"`
}

type rawMeter struct {
	Mode     string  `mapstructure:"mode"`
	Interval *int64  `mapstructure:"interval"`
	Feed     rawFeed `mapstructure:"feed"`
}

type rawFeed struct {
	Type       string         `mapstructure:"type"`
	Properties map[string]any `mapstructure:"properties"`
}

// Init loads the configuration from the environment and the first config
// file found (CONFIG_FILE, then v2ca.* or .v2carc.* in the search paths).
func Init() (*Config, error) {
	// alias LOG_LEVEL => V2CA_LOG_LEVEL
	if level := os.Getenv("LOG_LEVEL"); level != "" && os.Getenv("V2CA_LOG_LEVEL") == "" {
		os.Setenv("V2CA_LOG_LEVEL", level)
	}

	v := newViper()
	if cfgFile := os.Getenv("CONFIG_FILE"); cfgFile != "" {
		slog.Info("Using config", "file", cfgFile)
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading config file %s: %w", cfgFile, err)
		}
		return Parse(v)
	}

	for _, name := range []string{"v2ca", ".v2carc"} {
		v.SetConfigName(name)
		err := v.ReadInConfig()
		if err == nil {
			slog.Info("Using config", "file", v.ConfigFileUsed())
			return Parse(v)
		}
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
	}
	return nil, ErrNoConfig
}

// ReadFile loads the configuration from a single file plus the environment.
func ReadFile(path string) (*Config, error) {
	v := newViper()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, err
	}
	return Parse(v)
}

func newViper() *viper.Viper {
	v := viper.New()
	setConfigDefaults(v)
	v.SetEnvPrefix(ENV_PREFIX)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	v.AddConfigPath(".")
	v.AddConfigPath("$HOME/.config/v2ca")
	return v
}

func setConfigDefaults(v *viper.Viper) {
	v.SetDefault("log_level", "info")
	v.SetDefault("http_log", false)
	v.SetDefault("properties.base_topic", "v2ca")
	v.SetDefault("properties.ha_discovery_enable", false)
	v.SetDefault("properties.ha_discovery_topic", "homeassistant")
	v.SetDefault("properties.status_port", 0)
	v.SetDefault("properties.rate_limit", 0)
	v.SetDefault("properties.rate_limit_burst", 10)
}

// Parse validates the loaded settings and converts them into a Config.
func Parse(v *viper.Viper) (*Config, error) {
	var raw rawConfig
	if err := v.Unmarshal(&raw); err != nil {
		return nil, err
	}

	cfg := Config{
		LogLevel: ParseLogLevel(raw.LogLevel),
		HttpLog:  raw.HttpLog,
	}
	var err error
	switch strings.ToLower(raw.Provider) {
	case PROVIDER_REST:
		cfg.Provider, err = restConfig(raw.Properties)
	case PROVIDER_MQTT:
		cfg.Provider, err = mqttConfig(raw.Properties)
	case "":
		err = errors.New("config param provider is required (rest or mqtt)")
	default:
		err = fmt.Errorf("unsupported provider %q", raw.Provider)
	}
	if err != nil {
		return nil, err
	}
	return &cfg, nil
}

func ParseLogLevel(level string) zapcore.Level {
	switch strings.ToLower(level) {
	case "trace", "debug":
		return zap.DebugLevel
	case "info":
		return zap.InfoLevel
	case "warn":
		return zap.WarnLevel
	case "error":
		return zap.ErrorLevel
	case "fatal":
		return zap.FatalLevel
	default:
		return zap.InfoLevel
	}
}

func restConfig(p rawProperties) (RestConfig, error) {
	if p.Port == 0 {
		return RestConfig{}, errors.New("config param properties.port is required")
	}
	if p.RateLimit < 0 {
		return RestConfig{}, errors.New("config param properties.rate_limit should be >= 0")
	}
	grid, err := restFeed("grid", p.Meters.Grid.Feed)
	if err != nil {
		return RestConfig{}, err
	}
	solar, err := restFeed("solar", p.Meters.Solar.Feed)
	if err != nil {
		return RestConfig{}, err
	}
	cfg := RestConfig{
		Port:           p.Port,
		Device:         p.Device,
		RateLimit:      p.RateLimit,
		RateLimitBurst: p.RateLimitBurst,
		Grid:           grid,
		Solar:          solar,
	}
	if needsDevice(grid, solar) && cfg.Device == "" {
		return RestConfig{}, errors.New("config param properties.device is required by adapter feeds")
	}
	return cfg, nil
}

func mqttConfig(p rawProperties) (MqttConfig, error) {
	if p.URL == "" {
		return MqttConfig{}, errors.New("config param properties.url is required")
	}
	baseTopic, err := CheckMQTTTopic(p.BaseTopic)
	if err != nil {
		return MqttConfig{}, errors.New("invalid base topic. can only contain letters, numbers and underscores")
	}
	haTopic, err := CheckMQTTTopic(p.HADiscoveryTopic)
	if err != nil {
		return MqttConfig{}, errors.New("invalid homeassistant discovery topic. can only contain letters, numbers and underscores")
	}
	grid, err := meterMode("grid", p.URL, p.Meters.Grid)
	if err != nil {
		return MqttConfig{}, err
	}
	solar, err := meterMode("solar", p.URL, p.Meters.Solar)
	if err != nil {
		return MqttConfig{}, err
	}
	cfg := MqttConfig{
		URL:               p.URL,
		Username:          p.Username,
		Password:          p.Password,
		BaseTopic:         baseTopic,
		HADiscoveryEnable: p.HADiscoveryEnable,
		HADiscoveryTopic:  haTopic,
		StatusPort:        p.StatusPort,
		Device:            p.Device,
		Grid:              grid,
		Solar:             solar,
	}
	if needsDevice(modeFeed(grid), modeFeed(solar)) && cfg.Device == "" {
		return MqttConfig{}, errors.New("config param properties.device is required by adapter and bridge feeds")
	}
	return cfg, nil
}

func restFeed(meter string, f rawFeed) (RestFeed, error) {
	switch f.Type {
	case FEED_ADAPTER:
		var props struct {
			Ip string `mapstructure:"ip"`
		}
		if err := decodeProperties(f.Properties, &props); err != nil {
			return nil, feedError(meter, err)
		}
		if props.Ip == "" {
			return nil, feedError(meter, errors.New("adapter feed requires properties.ip"))
		}
		return RestAdapterFeed{Ip: props.Ip}, nil
	case FEED_MOCK:
		var props struct {
			Value *domain.RawDeviceStatus `mapstructure:"value"`
		}
		if err := decodeProperties(f.Properties, &props); err != nil {
			return nil, feedError(meter, err)
		}
		return RestMockFeed{Value: props.Value}, nil
	case FEED_OFF:
		return OffFeed{}, nil
	default:
		return nil, feedError(meter, fmt.Errorf("unsupported rest feed type %q", f.Type))
	}
}

func meterMode(meter string, surfaceURL string, m rawMeter) (MeterMode, error) {
	switch m.Mode {
	case MODE_PULL:
		if m.Interval == nil {
			return nil, feedError(meter, errors.New("pull mode requires interval"))
		}
		if *m.Interval < 0 {
			return nil, feedError(meter, errors.New("pull interval should be >= 0"))
		}
		feed, err := pullFeed(meter, m.Feed)
		if err != nil {
			return nil, err
		}
		return PullMode{Interval: time.Duration(*m.Interval) * time.Millisecond, Feed: feed}, nil
	case MODE_PUSH:
		if m.Interval != nil {
			slog.Warn("interval is ignored in push mode", "meter", meter)
		}
		feed, err := pushFeed(meter, surfaceURL, m.Feed)
		if err != nil {
			return nil, err
		}
		return PushMode{Feed: feed}, nil
	default:
		return nil, feedError(meter, fmt.Errorf("unsupported mode %q", m.Mode))
	}
}

func pullFeed(meter string, f rawFeed) (PullFeed, error) {
	switch f.Type {
	case FEED_ADAPTER:
		var props struct {
			TargetIp string `mapstructure:"targetIp"`
		}
		if err := decodeProperties(f.Properties, &props); err != nil {
			return nil, feedError(meter, err)
		}
		if props.TargetIp == "" {
			return nil, feedError(meter, errors.New("adapter feed requires properties.targetIp"))
		}
		return PullAdapterFeed{TargetIp: props.TargetIp}, nil
	case FEED_MOCK:
		var props struct {
			Value *struct {
				Power *float64 `mapstructure:"power"`
			} `mapstructure:"value"`
		}
		if err := decodeProperties(f.Properties, &props); err != nil {
			return nil, feedError(meter, err)
		}
		if props.Value == nil {
			return PullMockFeed{}, nil
		}
		if props.Value.Power == nil {
			return nil, feedError(meter, errors.New("mock feed requires properties.value.power"))
		}
		return PullMockFeed{Value: &domain.EnergyInformation{Power: *props.Value.Power}}, nil
	case FEED_OFF:
		return OffFeed{}, nil
	default:
		return nil, feedError(meter, fmt.Errorf("unsupported pull feed type %q", f.Type))
	}
}

func pushFeed(meter string, surfaceURL string, f rawFeed) (PushFeed, error) {
	switch f.Type {
	case FEED_BRIDGE:
		var props struct {
			URL   string `mapstructure:"url"`
			Topic string `mapstructure:"topic"`
		}
		if err := decodeProperties(f.Properties, &props); err != nil {
			return nil, feedError(meter, err)
		}
		if props.Topic == "" {
			return nil, feedError(meter, errors.New("bridge feed requires properties.topic"))
		}
		if props.URL == "" {
			props.URL = surfaceURL
		}
		return BridgeFeed{URL: props.URL, Topic: props.Topic}, nil
	case FEED_OFF:
		return OffFeed{}, nil
	default:
		return nil, feedError(meter, fmt.Errorf("unsupported push feed type %q", f.Type))
	}
}

func decodeProperties(props map[string]any, out any) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		Result:           out,
	})
	if err != nil {
		return err
	}
	return decoder.Decode(props)
}

func feedError(meter string, err error) error {
	return fmt.Errorf("meter %s: %w", meter, err)
}

func modeFeed(m MeterMode) any {
	switch mode := m.(type) {
	case PullMode:
		return mode.Feed
	case PushMode:
		return mode.Feed
	}
	return nil
}

func needsDevice(feeds ...any) bool {
	for _, f := range feeds {
		switch f.(type) {
		case RestAdapterFeed, PullAdapterFeed, BridgeFeed:
			return true
		}
	}
	return false
}
