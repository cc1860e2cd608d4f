package redisadapter

import (
	"context"
	"log/slog"
	"os"
	"sync"
	"time"

	sio "github.com/ramory-l/gosocketio-cluster"
)

// Factory is the configured constructor spec'd by the design's "dynamic
// per-namespace subclass with closed-over configuration": it holds the bus
// clients, the channel prefix, the process's UID, and the base query
// timeout, and its New method mints one Adapter per namespace. Two Factory
// values in one process carry two different UIDs and treat each other as
// unrelated peers, even against the same Redis instance.
type Factory struct {
	prefix      string
	uid         string
	baseTimeout time.Duration
	logger      *slog.Logger

	pub    PubClient
	subs   *subscriptionManager
	pubsub PubSubClient

	queries *queryTable

	closeOnce   sync.Once
	cancelDemux context.CancelFunc

	mu         sync.Mutex
	namespaces map[string]*Adapter

	requestChannel string
}

// NewFactory constructs a Factory against Redis, applying Options in order.
// When PubClient/SubClient/PubSubClient aren't supplied, it builds default
// ones sharing a single *redis.Client per role against Host:Port.
func NewFactory(opts ...Option) (*Factory, error) {
	o := resolveOptions(opts...)

	ctx, cancel := context.WithCancel(context.Background())

	f := &Factory{
		prefix:      o.Key,
		uid:         newUID(),
		baseTimeout: o.Timeout,
		logger:      slog.New(slog.NewJSONHandler(os.Stderr, nil)),
		queries:     newQueryTable(),
		namespaces:  make(map[string]*Adapter),
		cancelDemux: cancel,
	}
	f.requestChannel = clientRequestChannel(f.prefix)

	if o.PubClient != nil {
		f.pub = o.PubClient
	} else {
		f.pub = &redisPubClient{rdb: newDefaultRedisClient(o)}
	}

	if o.PubSubClient != nil {
		f.pubsub = o.PubSubClient
	} else {
		f.pubsub = &redisPubSubClient{rdb: newDefaultRedisClient(o)}
	}

	var sub SubClient
	if o.SubClient != nil {
		sub = o.SubClient
	} else {
		sub = newRedisSubClient(ctx, newDefaultRedisClient(o))
	}
	f.subs = newSubscriptionManager(sub)

	go f.demux(ctx, sub)

	// The clients-request channel has a constant refcount of 1, process
	// wide, independent of how many namespace adapters this Factory ever
	// produces - acquiring it here, once, is what keeps that invariant
	// instead of multiplying it by namespace count.
	if err := f.subs.acquire(ctx, f.requestChannel); err != nil {
		cancel()
		return nil, err
	}

	return f, nil
}

// SetLogger replaces the Factory's structured logger. The default writes
// JSON to stderr.
func (f *Factory) SetLogger(logger *slog.Logger) {
	f.logger = logger
}

// New returns a new Adapter bound to ns, wrapping a fresh in-process
// MemoryAdapter for local bookkeeping. The caller is expected to install it
// with ns.SetAdapter.
func (f *Factory) New(ns *sio.Namespace) *Adapter {
	a := &Adapter{
		factory:   f,
		namespace: ns,
		local:     sio.NewMemoryAdapter(ns),
		emitter:   &emitter{},
	}

	ctx := context.Background()
	if err := f.subs.acquire(ctx, namespaceChannel(f.prefix, ns.Name())); err != nil {
		a.emitter.emit(err)
	}

	f.mu.Lock()
	f.namespaces[ns.Name()] = a
	f.mu.Unlock()

	return a
}

// Close stops the demux goroutine and closes the SubClient. The PubClient
// and PubSubClient are not closed, and a clients query still waiting for
// peer responses is not failed: it completes when its timeout fires, with
// whatever SIDs it collected.
func (f *Factory) Close() error {
	var err error
	f.closeOnce.Do(func() {
		f.cancelDemux()
		err = f.subs.sub.Close()
	})
	return err
}

func (f *Factory) adapterFor(nsp string) (*Adapter, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.namespaces[nsp]
	return a, ok
}

// demux is the single goroutine funneling every inbound bus message to the
// broadcast path, the clients-response accumulator, or the clients-request
// responder, based on the channel it arrived on. This realizes the design's
// "explicit routing" alternative to a shared listener distinguishing
// channel kinds by suffix.
func (f *Factory) demux(ctx context.Context, sub SubClient) {
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-sub.Messages():
			if !ok {
				return
			}
			f.route(msg)
		}
	}
}

func (f *Factory) route(msg BusMessage) {
	decoded, ok := decodeChannel(f.prefix, msg.Channel)
	if !ok {
		f.logger.Debug("dropping message on unrecognized channel", "channel", msg.Channel)
		return
	}

	switch decoded.kind {
	case kindNamespace, kindRoom:
		a, ok := f.adapterFor(decoded.nsp)
		if !ok {
			f.logger.Debug("dropping broadcast for unknown namespace", "namespace", decoded.nsp)
			return
		}
		a.onMessage(msg.Payload)
	case kindClientRequest:
		req, err := decodeClientsRequest(msg.Payload)
		if err != nil {
			f.logger.Debug("dropping malformed clientrequest", "error", err)
			return
		}
		a, ok := f.adapterFor(req.Namespace)
		if !ok {
			f.logger.Debug("dropping clientrequest for unknown namespace", "namespace", req.Namespace)
			return
		}
		a.handleClientRequest(req)
	case kindClientResponse:
		f.handleClientResponse(decoded.muid, msg.Payload)
	}
}

// Adapter is the per-namespace facade (the design's C7): it delegates local
// room bookkeeping and local emit to an embedded MemoryAdapter, and layers
// the distributed broadcast and clients-query protocols on top.
type Adapter struct {
	factory   *Factory
	namespace *sio.Namespace
	local     *sio.MemoryAdapter
	emitter   *emitter
}

var _ sio.Adapter = (*Adapter)(nil)

// Add adds a socket to a room locally, then acquires the room's bus
// channel if this is the room's first local member. On a subscribe
// failure, the local add is rolled back so sids/rooms stays consistent
// with the bus subscription table.
func (a *Adapter) Add(socketID, room string) error {
	firstMember := len(a.local.Sockets(room)) == 0
	if err := a.local.Add(socketID, room); err != nil {
		return localErr("add", err)
	}
	if !firstMember {
		return nil
	}

	ctx := context.Background()
	if err := a.factory.subs.acquire(ctx, roomChannel(a.factory.prefix, a.namespace.Name(), room)); err != nil {
		_ = a.local.Remove(socketID, room)
		a.emitter.emit(err)
		return err
	}
	return nil
}

// Remove removes a socket from a room locally, releasing the room's bus
// channel if that emptied it.
func (a *Adapter) Remove(socketID, room string) error {
	if err := a.local.Remove(socketID, room); err != nil {
		return localErr("remove", err)
	}

	if len(a.local.Sockets(room)) > 0 {
		return nil
	}

	ctx := context.Background()
	if err := a.factory.subs.release(ctx, roomChannel(a.factory.prefix, a.namespace.Name(), room)); err != nil {
		a.emitter.emit(err)
		return err
	}
	return nil
}

// RemoveAll removes a socket from every room it belongs to. Per the design's
// open question on delAll, unsubscribe failures are handled best-effort: the
// loop continues across rooms instead of aborting on the first error, and
// every failure is joined into one composite error (see DESIGN.md).
func (a *Adapter) RemoveAll(socketID string) error {
	rooms := a.local.SocketRooms(socketID)

	if err := a.local.RemoveAll(socketID); err != nil {
		return localErr("removeAll", err)
	}

	var errs []error
	ctx := context.Background()
	for _, room := range rooms {
		if len(a.local.Sockets(room)) > 0 {
			continue
		}
		if err := a.factory.subs.release(ctx, roomChannel(a.factory.prefix, a.namespace.Name(), room)); err != nil {
			errs = append(errs, err)
		}
	}

	if len(errs) == 0 {
		return nil
	}
	composite := joinErrors(errs)
	a.emitter.emit(composite)
	return composite
}

// Sockets returns all socket IDs in a single room, local to this process.
func (a *Adapter) Sockets(room string) []string {
	return a.local.Sockets(room)
}

// SocketRooms returns all rooms a socket is in, local to this process.
func (a *Adapter) SocketRooms(socketID string) []string {
	return a.local.SocketRooms(socketID)
}

// ClientsIn returns the union of socket IDs across rooms, local to this
// process only - the fleet-wide version is Clients.
func (a *Adapter) ClientsIn(rooms []string) []string {
	return a.local.ClientsIn(rooms)
}

// OnError registers a handler invoked for every bus-level failure this
// adapter surfaces asynchronously.
func (a *Adapter) OnError(handler func(error)) {
	a.emitter.on(handler)
}

// Clients answers a fleet-wide clients query (C6). See query.go.
func (a *Adapter) Clients(ctx context.Context, rooms []string, cb func([]string, error)) {
	a.clients(ctx, rooms, cb)
}

// Close releases this namespace's channel and closes the local adapter. It
// does not touch the Factory's shared bus clients - those outlive any one
// namespace and are torn down by Factory.Close.
func (a *Adapter) Close() error {
	ctx := context.Background()
	if err := a.factory.subs.release(ctx, namespaceChannel(a.factory.prefix, a.namespace.Name())); err != nil {
		a.emitter.emit(err)
	}

	a.factory.mu.Lock()
	delete(a.factory.namespaces, a.namespace.Name())
	a.factory.mu.Unlock()

	return a.local.Close()
}
