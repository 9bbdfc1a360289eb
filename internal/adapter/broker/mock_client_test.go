package broker

import (
	"sync"
	"time"

	"github.com/berfenger/v2ca/internal/mqtt"

	"github.com/stretchr/testify/mock"
)

type mockClient struct {
	mock.Mock

	mu       sync.Mutex
	handlers map[string]mqtt.MessageHandler
}

func newMockClient() *mockClient {
	return &mockClient{handlers: make(map[string]mqtt.MessageHandler)}
}

func (m *mockClient) Connect(continuation func(error), _ time.Duration) {
	args := m.Called()
	continuation(args.Error(0))
}

func (m *mockClient) Publish(topic string, payload any, _ byte, retain bool, continuation func(error), _ time.Duration) {
	args := m.Called(topic, payload, retain)
	continuation(args.Error(0))
}

func (m *mockClient) Subscribe(topic string, _ byte, handler mqtt.MessageHandler, continuation func(error), _ time.Duration) {
	args := m.Called(topic)
	if args.Error(0) == nil {
		m.mu.Lock()
		m.handlers[topic] = handler
		m.mu.Unlock()
	}
	continuation(args.Error(0))
}

func (m *mockClient) Unsubscribe(topic string, continuation func(error), _ time.Duration) {
	args := m.Called(topic)
	m.mu.Lock()
	delete(m.handlers, topic)
	m.mu.Unlock()
	continuation(args.Error(0))
}

func (m *mockClient) Disconnect(_ time.Duration) {
	m.Called()
}

func (m *mockClient) deliver(topic, payload string) {
	m.mu.Lock()
	handler := m.handlers[topic]
	m.mu.Unlock()
	if handler != nil {
		handler(topic, []byte(payload))
	}
}

// dialerFor returns a dialer that always hands out the same mock client.
func dialerFor(client *mockClient) func(string) mqtt.Client {
	return func(string) mqtt.Client {
		return client
	}
}
