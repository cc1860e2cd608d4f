package redisadapter

import (
	"context"
	"fmt"
	"sync"
)

// fakeBus is an in-process stand-in for a Redis installation, shared by every
// fakePubClient/fakeSubClient/fakePubSubClient drawn from it via peer. It
// lets the test suite exercise every scatter/gather and echo-suppression
// path without a real Redis server.
type fakeBus struct {
	mu   sync.Mutex
	subs map[string][]*fakeSubClient // channel -> subscribed peers
}

func newFakeBus() *fakeBus {
	return &fakeBus{subs: make(map[string][]*fakeSubClient)}
}

func (b *fakeBus) peer() (*fakePubClient, *fakeSubClient, *fakePubSubClient) {
	sub := &fakeSubClient{bus: b, messages: make(chan BusMessage, 256)}
	return &fakePubClient{bus: b}, sub, &fakePubSubClient{bus: b}
}

func (b *fakeBus) publish(channel string, payload []byte) {
	b.mu.Lock()
	peers := append([]*fakeSubClient(nil), b.subs[channel]...)
	b.mu.Unlock()

	for _, p := range peers {
		p.deliver(BusMessage{Channel: channel, Payload: payload})
	}
}

func (b *fakeBus) numSubscribers(channel string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs[channel])
}

type fakePubClient struct {
	bus *fakeBus

	mu       sync.Mutex
	fail     bool
	sentTo   []string
}

func (c *fakePubClient) Publish(ctx context.Context, channel string, payload []byte) error {
	c.mu.Lock()
	fail := c.fail
	c.mu.Unlock()
	if fail {
		return fmt.Errorf("fakebus: publish failed")
	}
	c.mu.Lock()
	c.sentTo = append(c.sentTo, channel)
	c.mu.Unlock()
	c.bus.publish(channel, payload)
	return nil
}

func (c *fakePubClient) setFail(fail bool) {
	c.mu.Lock()
	c.fail = fail
	c.mu.Unlock()
}

type fakeSubClient struct {
	bus *fakeBus

	mu       sync.Mutex
	channels map[string]bool
	closed   bool

	messages chan BusMessage

	failSubscribe   bool
	failUnsubscribe bool
}

func (c *fakeSubClient) Subscribe(ctx context.Context, channel string) error {
	c.mu.Lock()
	if c.failSubscribe {
		c.mu.Unlock()
		return fmt.Errorf("fakebus: subscribe failed")
	}
	if c.channels == nil {
		c.channels = make(map[string]bool)
	}
	c.channels[channel] = true
	c.mu.Unlock()

	c.bus.mu.Lock()
	c.bus.subs[channel] = append(c.bus.subs[channel], c)
	c.bus.mu.Unlock()
	return nil
}

func (c *fakeSubClient) Unsubscribe(ctx context.Context, channel string) error {
	c.mu.Lock()
	if c.failUnsubscribe {
		c.mu.Unlock()
		return fmt.Errorf("fakebus: unsubscribe failed")
	}
	delete(c.channels, channel)
	c.mu.Unlock()

	c.bus.mu.Lock()
	peers := c.bus.subs[channel]
	for i, p := range peers {
		if p == c {
			c.bus.subs[channel] = append(peers[:i], peers[i+1:]...)
			break
		}
	}
	c.bus.mu.Unlock()
	return nil
}

func (c *fakeSubClient) Messages() <-chan BusMessage {
	return c.messages
}

func (c *fakeSubClient) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	c.mu.Unlock()
	close(c.messages)
	return nil
}

func (c *fakeSubClient) deliver(msg BusMessage) {
	c.mu.Lock()
	closed := c.closed
	c.mu.Unlock()
	if closed {
		return
	}
	c.messages <- msg
}

type fakePubSubClient struct {
	bus *fakeBus
}

func (c *fakePubSubClient) NumSubscribers(ctx context.Context, channel string) (int, error) {
	return c.bus.numSubscribers(channel), nil
}
