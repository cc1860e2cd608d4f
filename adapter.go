package gosocketio

import "context"

// Adapter is the interface for managing rooms and broadcasting. A Namespace
// delegates all room bookkeeping and emit work to one Adapter; MemoryAdapter
// is the only implementation that never leaves the process, but the interface
// is shaped so that a cluster-aware adapter (see the redisadapter package) can
// stand in without the namespace/socket layer knowing the difference.
type Adapter interface {
	// Add adds a socket to a room. An error here means the adapter could not
	// register the membership change with whatever it coordinates with
	// outside the process (e.g. a pub/sub bus); the local state is still
	// rolled back in that case.
	Add(socketID, room string) error

	// Remove removes a socket from a room.
	Remove(socketID, room string) error

	// RemoveAll removes a socket from every room it belongs to.
	RemoveAll(socketID string) error

	// Sockets returns all socket IDs in a single room, local to this process.
	Sockets(room string) []string

	// SocketRooms returns all rooms a socket is in.
	SocketRooms(socketID string) []string

	// ClientsIn returns the union of socket IDs across rooms, local to this
	// process. An empty rooms filter returns every socket in the namespace.
	ClientsIn(rooms []string) []string

	// Broadcast sends a packet to all sockets in specified rooms except
	// excluded ones. flags carries opaque per-broadcast options (e.g.
	// "volatile") that the base adapter honors but does not require its
	// caller to interpret. It only ever touches local sockets; fanning the
	// packet out to other processes, if any, is the adapter's own business.
	Broadcast(packet *Packet, rooms []string, except []string, flags map[string]interface{}) error

	// Clients resolves the set of socket IDs across rooms, which may involve
	// coordinating with peers outside the process. It always calls cb exactly
	// once.
	Clients(ctx context.Context, rooms []string, cb func([]string, error))

	// OnError registers a handler invoked whenever the adapter hits a
	// failure it cannot return synchronously (e.g. a failed publish after
	// the local broadcast already happened).
	OnError(handler func(error))

	// Close cleans up the adapter.
	Close() error
}
