package gosocketio

import (
	"context"
	"sync"

	"github.com/ramory-l/gosocketio-cluster/engineio"
)

// Namespace represents a Socket.IO namespace
type Namespace struct {
	name      string
	server    *Server
	adapter   Adapter
	sockets   map[string]*Socket
	mu        sync.RWMutex
	onConnect func(*Socket)
}

// NewNamespace creates a new namespace
func NewNamespace(name string, server *Server) *Namespace {
	ns := &Namespace{
		name:    name,
		server:  server,
		sockets: make(map[string]*Socket),
	}

	ns.adapter = NewMemoryAdapter(ns)

	return ns
}

// Name returns the namespace name
func (ns *Namespace) Name() string {
	return ns.name
}

// OnConnect sets the connection handler for this namespace
func (ns *Namespace) OnConnect(handler func(*Socket)) {
	ns.onConnect = handler
}

// To returns a BroadcastOperator for emitting to specific rooms
func (ns *Namespace) To(rooms ...string) *BroadcastOperator {
	return &BroadcastOperator{
		namespace: ns,
		rooms:     rooms,
	}
}

// Emit broadcasts an event to all sockets in the namespace
func (ns *Namespace) Emit(event string, data ...interface{}) error {
	return ns.To().Emit(event, data...)
}

// Sockets returns all connected sockets
func (ns *Namespace) Sockets() []*Socket {
	ns.mu.RLock()
	defer ns.mu.RUnlock()

	sockets := make([]*Socket, 0, len(ns.sockets))
	for _, socket := range ns.sockets {
		sockets = append(sockets, socket)
	}
	return sockets
}

// GetSocket retrieves a socket by ID
func (ns *Namespace) GetSocket(id string) (*Socket, bool) {
	ns.mu.RLock()
	defer ns.mu.RUnlock()

	socket, ok := ns.sockets[id]
	return socket, ok
}

// SetAdapter sets a custom adapter
func (ns *Namespace) SetAdapter(adapter Adapter) {
	ns.adapter = adapter
}

// Clients resolves which socket IDs are in rooms across every process
// sharing this namespace's adapter, invoking cb exactly once with the
// result. With the default MemoryAdapter this resolves synchronously and
// locally; a distributed adapter may resolve it later, off a bus response.
func (ns *Namespace) Clients(ctx context.Context, rooms []string, cb func([]string, error)) {
	ns.adapter.Clients(ctx, rooms, cb)
}

// OnAdapterError registers a handler invoked whenever this namespace's
// adapter surfaces an asynchronous failure (a bus disconnect, a failed
// publish triggered by another process's traffic, and so on).
func (ns *Namespace) OnAdapterError(handler func(error)) {
	ns.adapter.OnError(handler)
}

func (ns *Namespace) addSocket(session *engineio.Session) {
	socket := NewSocket(session.ID(), session, ns)

	ns.mu.Lock()
	ns.sockets[socket.ID()] = socket
	ns.mu.Unlock()

	// Auto-join own room. The socket's own room, keyed by its own ID, is
	// never subject to a bus-level failure in practice (every adapter must
	// be able to track its own sockets), so the error is only logged.
	if err := socket.Join(socket.ID()); err != nil {
		ns.server.logger.Error("auto-join own room failed", "socket", socket.ID(), "error", err)
	}

	// Send connect packet
	connectPacket := &Packet{
		Type:      PacketTypeConnect,
		Namespace: ns.name,
		Data:      map[string]interface{}{"sid": socket.ID()},
	}
	socket.sendPacket(connectPacket)

	if ns.onConnect != nil {
		ns.onConnect(socket)
	}
}

func (ns *Namespace) removeSocket(id string) {
	ns.mu.Lock()
	delete(ns.sockets, id)
	ns.mu.Unlock()

	// Errors from RemoveAll also reach the adapter's error handlers; a
	// disconnecting socket has nowhere else to report them to.
	_ = ns.adapter.RemoveAll(id)
}

// BroadcastOperator provides methods for broadcasting to specific rooms
type BroadcastOperator struct {
	namespace *Namespace
	rooms     []string
	except    []string
	flags     map[string]interface{}
}

// To adds rooms to broadcast to
func (b *BroadcastOperator) To(rooms ...string) *BroadcastOperator {
	b.rooms = append(b.rooms, rooms...)
	return b
}

// Except excludes specific socket IDs from the broadcast
func (b *BroadcastOperator) Except(socketIDs ...string) *BroadcastOperator {
	b.except = append(b.except, socketIDs...)
	return b
}

// Volatile marks the broadcast as droppable: a client that can't receive it
// right now just misses it, instead of the adapter logging the drop.
func (b *BroadcastOperator) Volatile() *BroadcastOperator {
	if b.flags == nil {
		b.flags = make(map[string]interface{})
	}
	b.flags["volatile"] = true
	return b
}

// Emit broadcasts an event
func (b *BroadcastOperator) Emit(event string, data ...interface{}) error {
	args := make([]interface{}, 0, len(data)+1)
	args = append(args, event)
	args = append(args, data...)

	packet := &Packet{
		Type:      PacketTypeEvent,
		Namespace: b.namespace.name,
		Data:      args,
	}

	return b.namespace.adapter.Broadcast(packet, b.rooms, b.except, b.flags)
}
