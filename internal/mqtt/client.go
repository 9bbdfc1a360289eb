package mqtt

import (
	"fmt"
	"strings"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	MQTT_PAYLOAD_ONLINE  = "online"
	MQTT_PAYLOAD_OFFLINE = "offline"
	MQTT_PAYLOAD_ON      = "on"
	MQTT_PAYLOAD_OFF     = "off"
)

// MessageHandler receives the topic and raw payload of an inbound message.
type MessageHandler func(topic string, payload []byte)

// Client is the continuation based MQTT API used by the services. Every
// continuation is called exactly once, with a timeout error at worst.
type Client interface {
	Connect(continuation func(error), timeout time.Duration)
	Publish(topic string, payload any, qos byte, retain bool, continuation func(error), timeout time.Duration)
	Subscribe(topic string, qos byte, handler MessageHandler, continuation func(error), timeout time.Duration)
	Unsubscribe(topic string, continuation func(error), timeout time.Duration)
	Disconnect(timeout time.Duration)
}

// Dialer creates an unconnected client for a broker URL.
type Dialer func(url string) Client

type Options struct {
	Username  string
	Password  string
	ClientId  string
	BaseTopic string
	// Will enables the retained offline message on the bridge state topic.
	Will bool
}

func OptsFromConfig(url string, o Options) *mqtt.ClientOptions {
	opts := mqtt.NewClientOptions()
	opts.AddBroker(url)
	clientId := o.ClientId
	if clientId == "" {
		clientId = "v2ca"
	}
	opts.SetClientID(fmt.Sprintf("%s_%s", clientId, strings.ReplaceAll(uuid.NewString(), "-", "")[:12]))
	if o.Username != "" && o.Password != "" {
		opts.SetUsername(o.Username)
		opts.SetPassword(o.Password)
	}
	opts.SetAutoReconnect(true)
	if o.Will && o.BaseTopic != "" {
		opts.WillEnabled = true
		opts.WillPayload = []byte(MQTT_PAYLOAD_OFFLINE)
		opts.WillRetained = true
		opts.WillTopic = BridgeStateTopic(o.BaseTopic)
		opts.WillQos = 0
	}
	return opts
}

// NewDialer returns a Dialer producing paho backed clients sharing the same options.
func NewDialer(o Options, logger *zap.Logger) Dialer {
	return func(url string) Client {
		return CreateMQTTClient(url, OptsFromConfig(url, o), logger)
	}
}

func CreateMQTTClient(url string, opts *mqtt.ClientOptions, logger *zap.Logger) *MQTTClient {
	c := &MQTTClient{
		logger:        logger.With(zap.String("broker", url)),
		subscriptions: make(map[string]subscription),
	}
	opts.SetOnConnectHandler(c.onConnect)
	opts.SetConnectionLostHandler(func(_ mqtt.Client, err error) {
		c.logger.Warn("mqtt connection lost", zap.Error(err))
	})
	opts.SetReconnectingHandler(func(mqtt.Client, *mqtt.ClientOptions) {
		c.logger.Info("mqtt reconnecting")
	})
	c.client = mqtt.NewClient(opts)
	return c
}

type subscription struct {
	qos     byte
	handler mqtt.MessageHandler
}

type MQTTClient struct {
	client mqtt.Client
	logger *zap.Logger

	mu            sync.Mutex
	subscriptions map[string]subscription
	connected     bool
}

// onConnect restores subscriptions after an automatic reconnect.
func (c *MQTTClient) onConnect(client mqtt.Client) {
	c.mu.Lock()
	reconnect := c.connected
	c.connected = true
	subs := make(map[string]subscription, len(c.subscriptions))
	for topic, sub := range c.subscriptions {
		subs[topic] = sub
	}
	c.mu.Unlock()

	c.logger.Info("mqtt connected")
	if !reconnect {
		return
	}
	for topic, sub := range subs {
		topic := topic
		waitToken(client.Subscribe(topic, sub.qos, sub.handler), "resubscribe", 5*time.Second, func(err error) {
			if err != nil {
				c.logger.Error("mqtt resubscribe failed", zap.String("topic", topic), zap.Error(err))
			}
		})
	}
}

func (c *MQTTClient) Publish(topic string, payload any, qos byte, retain bool, continuation func(error), timeout time.Duration) {
	token := c.client.Publish(topic, qos, retain, payload)
	waitToken(token, "publish", timeout, continuation)
}

func (c *MQTTClient) Subscribe(topic string, qos byte, handler MessageHandler, continuation func(error), timeout time.Duration) {
	pahoHandler := func(_ mqtt.Client, m mqtt.Message) {
		handler(m.Topic(), m.Payload())
	}
	token := c.client.Subscribe(topic, qos, pahoHandler)
	waitToken(token, "subscribe", timeout, func(err error) {
		if err == nil {
			c.mu.Lock()
			c.subscriptions[topic] = subscription{qos: qos, handler: pahoHandler}
			c.mu.Unlock()
		}
		continuation(err)
	})
}

func (c *MQTTClient) Unsubscribe(topic string, continuation func(error), timeout time.Duration) {
	c.mu.Lock()
	delete(c.subscriptions, topic)
	c.mu.Unlock()
	token := c.client.Unsubscribe(topic)
	waitToken(token, "unsubscribe", timeout, continuation)
}

func (c *MQTTClient) Connect(continuation func(error), timeout time.Duration) {
	token := c.client.Connect()
	waitToken(token, "connect", timeout, continuation)
}

func (c *MQTTClient) Disconnect(timeout time.Duration) {
	c.client.Disconnect(uint(timeout.Milliseconds()))
	c.mu.Lock()
	c.connected = false
	c.mu.Unlock()
}

func waitToken(token mqtt.Token, op string, timeout time.Duration, continuation func(error)) {
	go func() {
		didTO := token.WaitTimeout(timeout)
		if !didTO {
			continuation(fmt.Errorf("MQTT %s timed out", op))
		} else {
			continuation(token.Error())
		}
	}()
}

// Await runs a continuation based operation and blocks until it completes.
func Await(op func(continuation func(error))) error {
	result := make(chan error, 1)
	op(func(err error) {
		result <- err
	})
	return <-result
}

func BridgeStateTopic(baseTopic string) string {
	return fmt.Sprintf("%s/bridge/state", baseTopic)
}
