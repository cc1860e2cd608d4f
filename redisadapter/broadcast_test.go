package redisadapter

import (
	"log/slog"
	"math"
	"testing"

	sio "github.com/ramory-l/gosocketio-cluster"
)

// newUnwiredAdapter builds an Adapter whose factory has no live bus clients,
// for exercising onMessage's decoding and routing guards in isolation from
// the subscription/publish plumbing exercised elsewhere.
func newUnwiredAdapter(uid, nsp string) *Adapter {
	server := sio.NewServer(nil)
	ns := server.Of(nsp)
	return &Adapter{
		factory: &Factory{
			uid:    uid,
			logger: slog.New(slog.NewTextHandler(testDiscard{}, nil)),
		},
		namespace: ns,
		local:     sio.NewMemoryAdapter(ns),
		emitter:   &emitter{},
	}
}

type testDiscard struct{}

func (testDiscard) Write(p []byte) (int, error) { return len(p), nil }

// naNPacket's Data is a value msgpack happily encodes but encoding/json
// rejects, so a successful delivery through local.Broadcast is observable
// (it emits the resulting encode error) without needing a real socket.
func naNPacket(nsp string) *sio.Packet {
	return &sio.Packet{Type: sio.PacketTypeEvent, Namespace: nsp, Data: math.NaN()}
}

func TestOnMessageDropsOwnEcho(t *testing.T) {
	a := newUnwiredAdapter("self-uid", "/chat")

	var emitted []error
	a.emitter.on(func(err error) { emitted = append(emitted, err) })

	payload, err := encodeBroadcast("self-uid", naNPacket("/chat"), nil, nil, nil)
	if err != nil {
		t.Fatalf("encodeBroadcast: %v", err)
	}
	a.onMessage(payload)

	if len(emitted) != 0 {
		t.Fatalf("expected an echo of this process's own UID to be dropped before reaching the local adapter, got %v", emitted)
	}
}

func TestOnMessageDropsOtherNamespace(t *testing.T) {
	a := newUnwiredAdapter("self-uid", "/chat")

	var emitted []error
	a.emitter.on(func(err error) { emitted = append(emitted, err) })

	payload, err := encodeBroadcast("peer-uid", naNPacket("/other"), nil, nil, nil)
	if err != nil {
		t.Fatalf("encodeBroadcast: %v", err)
	}
	a.onMessage(payload)

	if len(emitted) != 0 {
		t.Fatalf("expected traffic for another namespace to be dropped, got %v", emitted)
	}
}

func TestOnMessageDeliversMatchingPeerBroadcast(t *testing.T) {
	a := newUnwiredAdapter("self-uid", "/chat")

	var emitted []error
	a.emitter.on(func(err error) { emitted = append(emitted, err) })

	payload, err := encodeBroadcast("peer-uid", naNPacket("/chat"), nil, nil, nil)
	if err != nil {
		t.Fatalf("encodeBroadcast: %v", err)
	}
	a.onMessage(payload)

	if len(emitted) != 1 {
		t.Fatalf("expected a matching peer broadcast to reach the local adapter and surface its encode error, got %v", emitted)
	}
}

func TestOnMessageDropsMalformedPayload(t *testing.T) {
	a := newUnwiredAdapter("self-uid", "/chat")
	var emitted []error
	a.emitter.on(func(err error) { emitted = append(emitted, err) })

	a.onMessage([]byte{0xff, 0xff, 0xff})

	if len(emitted) != 0 {
		t.Fatalf("expected a malformed payload to be dropped silently, got %v", emitted)
	}
}
