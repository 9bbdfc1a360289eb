package config

import (
	"errors"
	"regexp"
	"strings"
	"time"

	"github.com/berfenger/v2ca/internal/core/domain"
	"go.uber.org/zap/zapcore"
)

const REDACTED = "*redacted*"

type Config struct {
	LogLevel zapcore.Level
	HttpLog  bool
	Provider ProviderConfig
}

// ProviderConfig is the output surface: RestConfig or MqttConfig.
type ProviderConfig interface {
	providerConfig()
}

type RestConfig struct {
	Port           uint
	Device         string
	RateLimit      float64
	RateLimitBurst int
	Grid           RestFeed
	Solar          RestFeed
}

type MqttConfig struct {
	URL               string
	Username          string
	Password          string
	BaseTopic         string
	HADiscoveryEnable bool
	HADiscoveryTopic  string
	StatusPort        uint
	Device            string
	Grid              MeterMode
	Solar             MeterMode
}

func (RestConfig) providerConfig() {}
func (MqttConfig) providerConfig() {}

// RestFeed sources a meter of the rest surface: RestAdapterFeed, RestMockFeed or OffFeed.
type RestFeed interface {
	restFeed()
}

type RestAdapterFeed struct {
	Ip string
}

// RestMockFeed serves Value until it is replaced through the expectation
// endpoint. A nil Value starts the meter absent.
type RestMockFeed struct {
	Value *domain.RawDeviceStatus
}

// MeterMode selects how a meter of the mqtt surface is delivered: PullMode or PushMode.
type MeterMode interface {
	meterMode()
}

type PullMode struct {
	Interval time.Duration
	Feed     PullFeed
}

type PushMode struct {
	Feed PushFeed
}

func (PullMode) meterMode() {}
func (PushMode) meterMode() {}

// PullFeed: PullAdapterFeed, PullMockFeed or OffFeed.
type PullFeed interface {
	pullFeed()
}

type PullAdapterFeed struct {
	TargetIp string
}

type PullMockFeed struct {
	Value *domain.EnergyInformation
}

// PushFeed: BridgeFeed or OffFeed.
type PushFeed interface {
	pushFeed()
}

type BridgeFeed struct {
	URL   string
	Topic string
}

// OffFeed suppresses a meter on any surface.
type OffFeed struct{}

func (RestAdapterFeed) restFeed() {}
func (RestMockFeed) restFeed()    {}
func (OffFeed) restFeed()         {}

func (PullAdapterFeed) pullFeed() {}
func (PullMockFeed) pullFeed()    {}
func (OffFeed) pullFeed()         {}

func (BridgeFeed) pushFeed() {}
func (OffFeed) pushFeed()    {}

// Redacted returns a copy safe for logging.
func (c Config) Redacted() Config {
	if m, ok := c.Provider.(MqttConfig); ok {
		if m.Username != "" {
			m.Username = REDACTED
		}
		if m.Password != "" {
			m.Password = REDACTED
		}
		c.Provider = m
	}
	return c
}

var topicRegexp = regexp.MustCompile("^[a-z0-9_]+$")

func CheckMQTTTopic(baseTopic string) (string, error) {
	lowerBaseTopic := strings.ToLower(baseTopic)
	if !topicRegexp.MatchString(lowerBaseTopic) {
		return "", errors.New("invalid topic. can only contain letters, numbers and underscores")
	}
	return lowerBaseTopic, nil
}
