package redisadapter

import (
	"context"

	"golang.org/x/sync/errgroup"

	sio "github.com/ramory-l/gosocketio-cluster"
)

// Broadcast is the design's publish path, invoked only with remote=false:
// it always performs the local emit first, then - unless this call is
// itself a reentrant dispatch of a message that arrived from a peer -
// publishes the packet to the bus so every other peer's local clients get
// it too. flags is opaque and carried through to the local adapter and, for
// a non-remote call, onto the wire unchanged, so every peer's local delivery
// honors the same flags as the originator's.
//
// Publishing to multiple rooms may deliver the packet more than once to a
// client present in several of them; deduplicating that is out of scope,
// matching the design.
func (a *Adapter) Broadcast(packet *sio.Packet, rooms []string, except []string, flags map[string]interface{}) error {
	return a.broadcast(packet, rooms, except, flags, false)
}

func (a *Adapter) broadcast(packet *sio.Packet, rooms []string, except []string, flags map[string]interface{}, remote bool) error {
	// Step 1: local emit always happens first, win or lose, so a publisher
	// observes its own send before any peer does.
	localErr := a.local.Broadcast(packet, rooms, except, flags)
	if localErr != nil {
		a.emitter.emit(localErr)
	}

	// Step 2: a message that arrived from a peer must never be republished,
	// or every peer would re-broadcast it forever.
	if remote {
		return localErr
	}

	if err := a.publish(packet, rooms, except, flags); err != nil {
		a.emitter.emit(err)
	}

	return localErr
}

func (a *Adapter) publish(packet *sio.Packet, rooms, except []string, flags map[string]interface{}) error {
	ctx := context.Background()
	nsp := a.namespace.Name()

	if len(rooms) == 0 {
		payload, err := encodeBroadcast(a.factory.uid, packet, rooms, except, flags)
		if err != nil {
			return transportErr("encode broadcast", namespaceChannel(a.factory.prefix, nsp), err)
		}
		if err := a.factory.pub.Publish(ctx, namespaceChannel(a.factory.prefix, nsp), payload); err != nil {
			return transportErr("PUBLISH", namespaceChannel(a.factory.prefix, nsp), err)
		}
		return nil
	}

	g, gctx := errgroup.WithContext(ctx)
	for _, room := range rooms {
		room := room
		g.Go(func() error {
			payload, err := encodeBroadcast(a.factory.uid, packet, rooms, except, flags)
			if err != nil {
				return transportErr("encode broadcast", roomChannel(a.factory.prefix, nsp, room), err)
			}
			if err := a.factory.pub.Publish(gctx, roomChannel(a.factory.prefix, nsp, room), payload); err != nil {
				return transportErr("PUBLISH", roomChannel(a.factory.prefix, nsp, room), err)
			}
			return nil
		})
	}
	return g.Wait()
}

// onMessage is the design's receive path: decode, drop echoes of this
// process's own UID, drop traffic for another namespace even if it arrived
// on a subscription this namespace happens to share, then reentrantly
// dispatch with remote=true so step 2 of broadcast short-circuits and no
// republish occurs.
func (a *Adapter) onMessage(payload []byte) {
	msg, err := decodeBroadcast(payload)
	if err != nil {
		a.factory.logger.Debug("dropping malformed broadcast payload", "error", err)
		return
	}

	if msg.UID == a.factory.uid {
		a.factory.logger.Debug("dropping own broadcast echo", "uid", msg.UID)
		return
	}

	packet := msg.Packet.toPacket()
	if packet.Namespace != a.namespace.Name() {
		a.factory.logger.Debug("dropping broadcast for other namespace",
			"expected", a.namespace.Name(), "got", packet.Namespace)
		return
	}

	a.broadcast(packet, msg.Opts.Rooms, msg.Opts.Except, msg.Opts.Flags, true)
}
