package factory

import (
	"sync"
	"time"

	"github.com/berfenger/v2ca/internal/mqtt"
)

// fakeBroker hands out in-memory clients that route publishes to subscribers.
type fakeBroker struct {
	mu        sync.Mutex
	options   []mqtt.Options
	urls      []string
	published map[string][]string
	handlers  map[string]mqtt.MessageHandler
}

func newFakeBroker() *fakeBroker {
	return &fakeBroker{
		published: make(map[string][]string),
		handlers:  make(map[string]mqtt.MessageHandler),
	}
}

func (b *fakeBroker) dialer(o mqtt.Options) mqtt.Dialer {
	b.mu.Lock()
	b.options = append(b.options, o)
	b.mu.Unlock()
	return func(url string) mqtt.Client {
		b.mu.Lock()
		b.urls = append(b.urls, url)
		b.mu.Unlock()
		return &fakeClient{broker: b}
	}
}

func (b *fakeBroker) messages(topic string) []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]string(nil), b.published[topic]...)
}

func (b *fakeBroker) deliver(topic, payload string) {
	b.mu.Lock()
	handler := b.handlers[topic]
	b.mu.Unlock()
	if handler != nil {
		handler(topic, []byte(payload))
	}
}

func (b *fakeBroker) subscribed(topic string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	_, ok := b.handlers[topic]
	return ok
}

type fakeClient struct {
	broker *fakeBroker
}

func (c *fakeClient) Connect(continuation func(error), _ time.Duration) {
	continuation(nil)
}

func (c *fakeClient) Publish(topic string, payload any, _ byte, _ bool, continuation func(error), _ time.Duration) {
	c.broker.mu.Lock()
	c.broker.published[topic] = append(c.broker.published[topic], payload.(string))
	c.broker.mu.Unlock()
	continuation(nil)
}

func (c *fakeClient) Subscribe(topic string, _ byte, handler mqtt.MessageHandler, continuation func(error), _ time.Duration) {
	c.broker.mu.Lock()
	c.broker.handlers[topic] = handler
	c.broker.mu.Unlock()
	continuation(nil)
}

func (c *fakeClient) Unsubscribe(topic string, continuation func(error), _ time.Duration) {
	c.broker.mu.Lock()
	delete(c.broker.handlers, topic)
	c.broker.mu.Unlock()
	continuation(nil)
}

func (c *fakeClient) Disconnect(_ time.Duration) {}
