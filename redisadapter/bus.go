package redisadapter

import (
	"context"

	"github.com/redis/go-redis/v9"
)

// BusMessage is a single inbound message delivered by SubClient, carrying
// the channel it arrived on and its raw, binary payload.
type BusMessage struct {
	Channel string
	Payload []byte
}

// PubClient publishes raw bytes to a bus channel. The default
// implementation wraps a *redis.Client and issues PUBLISH.
type PubClient interface {
	Publish(ctx context.Context, channel string, payload []byte) error
}

// SubClient owns the bus's live subscriptions and funnels every delivered
// message through a single channel, regardless of how many channels are
// currently subscribed. The default implementation wraps *redis.PubSub,
// which never decodes payloads as text - bytes arrive exactly as published.
type SubClient interface {
	Subscribe(ctx context.Context, channel string) error
	Unsubscribe(ctx context.Context, channel string) error
	Messages() <-chan BusMessage
	Close() error
}

// PubSubClient answers "how many subscribers does this channel currently
// have, across the whole bus?" via PUBSUB NUMSUB. It is used only by the
// clients-query coordinator to learn how many peers to expect responses
// from.
type PubSubClient interface {
	NumSubscribers(ctx context.Context, channel string) (int, error)
}

// redisPubClient is the default PubClient, backed by a *redis.Client.
type redisPubClient struct {
	rdb *redis.Client
}

func (c *redisPubClient) Publish(ctx context.Context, channel string, payload []byte) error {
	return c.rdb.Publish(ctx, channel, payload).Err()
}

// redisSubClient is the default SubClient. It keeps exactly one
// *redis.PubSub open for the lifetime of the process and issues incremental
// SUBSCRIBE/UNSUBSCRIBE against it, fanning every delivered message into a
// single Go channel that the demux goroutine reads from.
type redisSubClient struct {
	ps       *redis.PubSub
	messages chan BusMessage
	done     chan struct{}
}

func newRedisSubClient(ctx context.Context, rdb *redis.Client) *redisSubClient {
	ps := rdb.Subscribe(ctx) // subscribed to no channels yet
	c := &redisSubClient{
		ps:       ps,
		messages: make(chan BusMessage, 256),
		done:     make(chan struct{}),
	}
	go c.pump()
	return c
}

func (c *redisSubClient) pump() {
	ch := c.ps.Channel()
	for {
		select {
		case msg, ok := <-ch:
			if !ok {
				close(c.messages)
				return
			}
			select {
			case c.messages <- BusMessage{Channel: msg.Channel, Payload: []byte(msg.Payload)}:
			case <-c.done:
				close(c.messages)
				return
			}
		case <-c.done:
			close(c.messages)
			return
		}
	}
}

func (c *redisSubClient) Subscribe(ctx context.Context, channel string) error {
	return c.ps.Subscribe(ctx, channel)
}

func (c *redisSubClient) Unsubscribe(ctx context.Context, channel string) error {
	return c.ps.Unsubscribe(ctx, channel)
}

func (c *redisSubClient) Messages() <-chan BusMessage {
	return c.messages
}

func (c *redisSubClient) Close() error {
	close(c.done)
	return c.ps.Close()
}

// redisPubSubClient is the default PubSubClient, backed by a *redis.Client.
type redisPubSubClient struct {
	rdb *redis.Client
}

func (c *redisPubSubClient) NumSubscribers(ctx context.Context, channel string) (int, error) {
	counts, err := c.rdb.PubSubNumSub(ctx, channel).Result()
	if err != nil {
		return 0, err
	}
	return int(counts[channel]), nil
}
