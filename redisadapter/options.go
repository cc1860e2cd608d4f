package redisadapter

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	defaultHost        = "127.0.0.1"
	defaultPort        = 6379
	defaultPrefix      = "socket.io"
	defaultBaseTimeout = 50 * time.Millisecond
)

// Options holds everything a Factory needs to construct its Redis clients
// and tune the clients-query timeout, matching the design's construction
// input: either a "host:port" shorthand or individual fields, any of which
// a caller-supplied bus client can override.
type Options struct {
	Host string
	Port int

	// Key is the channel prefix every channel this Factory uses begins
	// with. Defaults to "socket.io".
	Key string

	// Timeout is the base clients-query timeout; the effective timeout for
	// a query scales linearly with the number of peers expected to answer.
	Timeout time.Duration

	PubClient    PubClient
	SubClient    SubClient
	PubSubClient PubSubClient
}

// Option configures an Options value.
type Option func(*Options)

// ParseAddr implements the "host:port" shorthand construction input.
func ParseAddr(addr string) Option {
	return func(o *Options) {
		host, portStr, err := splitHostPort(addr)
		if err != nil {
			return
		}
		o.Host = host
		if port, err := strconv.Atoi(portStr); err == nil {
			o.Port = port
		}
	}
}

func splitHostPort(addr string) (host, port string, err error) {
	idx := strings.LastIndex(addr, ":")
	if idx < 0 {
		return "", "", fmt.Errorf("redisadapter: invalid address %q, expected host:port", addr)
	}
	return addr[:idx], addr[idx+1:], nil
}

// WithHost sets the Redis host used by default bus clients.
func WithHost(host string) Option { return func(o *Options) { o.Host = host } }

// WithPort sets the Redis port used by default bus clients.
func WithPort(port int) Option { return func(o *Options) { o.Port = port } }

// WithPrefix sets the channel prefix (the design's "key" option).
func WithPrefix(prefix string) Option { return func(o *Options) { o.Key = prefix } }

// WithTimeout sets the base clients-query timeout.
func WithTimeout(timeout time.Duration) Option { return func(o *Options) { o.Timeout = timeout } }

// WithPubClient supplies a publisher, instead of constructing a default one.
func WithPubClient(c PubClient) Option { return func(o *Options) { o.PubClient = c } }

// WithSubClient supplies a subscriber, instead of constructing a default one.
func WithSubClient(c SubClient) Option { return func(o *Options) { o.SubClient = c } }

// WithPubSubClient supplies a NUMSUB client, instead of constructing a
// default one.
func WithPubSubClient(c PubSubClient) Option { return func(o *Options) { o.PubSubClient = c } }

func defaultOptions() *Options {
	return &Options{
		Host:    defaultHost,
		Port:    defaultPort,
		Key:     defaultPrefix,
		Timeout: defaultBaseTimeout,
	}
}

func resolveOptions(opts ...Option) *Options {
	o := defaultOptions()
	for _, apply := range opts {
		apply(o)
	}
	return o
}

func newDefaultRedisClient(o *Options) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr: fmt.Sprintf("%s:%d", o.Host, o.Port),
	})
}
