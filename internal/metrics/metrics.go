package metrics

import (
	"errors"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "v2ca"

var (
	PollCycles = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "poll_cycles_total",
		Help:      "Number of completed polling cycles.",
	}, []string{"service"})

	PollFailures = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "poll_failures_total",
		Help:      "Number of polling cycles that failed to fetch or deliver a value.",
	}, []string{"service"})

	PublishedMessages = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "mqtt_published_total",
		Help:      "Number of MQTT publish attempts by topic and result.",
	}, []string{"topic", "result"})

	BridgeMessages = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "bridge_messages_total",
		Help:      "Number of inbound bridge messages by topic and result.",
	}, []string{"topic", "result"})

	Requests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "http_requests_total",
		Help:      "Number of HTTP requests by route and status code.",
	}, []string{"route", "code"})

	Latency = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request latency by route.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"route"})

	ModbusReadLatency = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "modbus_read_duration_seconds",
		Help:      "Modbus register read latency by read function.",
		Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5},
	}, []string{"fn"})
)

const (
	RESULT_OK    = "ok"
	RESULT_ERROR = "error"
	RESULT_SKIP  = "skip"
)

// Register adds every collector to reg. Collectors already registered are
// tolerated so the process can register against the default registry twice.
func Register(reg prometheus.Registerer) error {
	for _, c := range []prometheus.Collector{PollCycles, PollFailures, PublishedMessages, BridgeMessages, Requests, Latency, ModbusReadLatency} {
		if err := reg.Register(c); err != nil {
			var already prometheus.AlreadyRegisteredError
			if errors.As(err, &already) {
				continue
			}
			return err
		}
	}
	return nil
}

func Result(err error) string {
	if err != nil {
		return RESULT_ERROR
	}
	return RESULT_OK
}

// Middleware records request count and latency per echo route.
func Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)
			if err != nil {
				c.Error(err)
			}
			route := c.Path()
			Requests.WithLabelValues(route, strconv.Itoa(c.Response().Status)).Inc()
			Latency.WithLabelValues(route).Observe(time.Since(start).Seconds())
			return nil
		}
	}
}
