package redisadapter

import (
	"testing"
	"time"

	sio "github.com/ramory-l/gosocketio-cluster"
)

// newFactoryPeer wires a Factory to its own corner of a shared fakeBus, so
// multiple peers can be built against the same bus and observe each other's
// traffic the way multiple processes would against one Redis instance.
func newFactoryPeer(t *testing.T, bus *fakeBus, opts ...Option) *Factory {
	t.Helper()
	pub, sub, pubsub := bus.peer()
	allOpts := append([]Option{
		WithPrefix("sio"),
		WithTimeout(5 * time.Millisecond),
		WithPubClient(pub),
		WithSubClient(sub),
		WithPubSubClient(pubsub),
	}, opts...)

	f, err := NewFactory(allOpts...)
	if err != nil {
		t.Fatalf("NewFactory: %v", err)
	}
	t.Cleanup(func() { _ = f.Close() })
	return f
}

func TestFactoryAcquiresClientRequestChannelOnce(t *testing.T) {
	bus := newFakeBus()
	f := newFactoryPeer(t, bus)

	if got := f.subs.refcount(clientRequestChannel("sio")); got != 1 {
		t.Fatalf("clientrequest refcount = %d, want 1", got)
	}

	ns1 := sio.NewServer(nil).Of("/a")
	ns2 := sio.NewServer(nil).Of("/b")
	f.New(ns1)
	f.New(ns2)

	// Minting namespace adapters must never inflate the process-wide
	// clientrequest refcount, regardless of how many namespaces this
	// Factory ends up serving.
	if got := f.subs.refcount(clientRequestChannel("sio")); got != 1 {
		t.Fatalf("clientrequest refcount after 2 namespaces = %d, want 1", got)
	}
}

func TestAdapterAddAcquiresRoomChannelOnFirstMember(t *testing.T) {
	bus := newFakeBus()
	f := newFactoryPeer(t, bus)
	ns := sio.NewServer(nil).Of("/chat")
	a := f.New(ns)

	room := roomChannel("sio", "/chat", "lobby")
	if got := f.subs.refcount(room); got != 0 {
		t.Fatalf("room refcount before any member = %d, want 0", got)
	}

	if err := a.Add("sid-1", "lobby"); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if got := f.subs.refcount(room); got != 1 {
		t.Fatalf("room refcount after first member = %d, want 1", got)
	}

	if err := a.Add("sid-2", "lobby"); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if got := f.subs.refcount(room); got != 1 {
		t.Fatalf("room refcount after second member sharing the room = %d, want 1 (one SUBSCRIBE per channel)", got)
	}
}

func TestAdapterRemoveReleasesRoomChannelWhenEmpty(t *testing.T) {
	bus := newFakeBus()
	f := newFactoryPeer(t, bus)
	ns := sio.NewServer(nil).Of("/chat")
	a := f.New(ns)

	room := roomChannel("sio", "/chat", "lobby")
	_ = a.Add("sid-1", "lobby")
	_ = a.Add("sid-2", "lobby")

	if err := a.Remove("sid-1", "lobby"); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if got := f.subs.refcount(room); got != 1 {
		t.Fatalf("room refcount with one member left = %d, want 1", got)
	}

	if err := a.Remove("sid-2", "lobby"); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if got := f.subs.refcount(room); got != 0 {
		t.Fatalf("room refcount once empty = %d, want 0", got)
	}
}

func TestAdapterRemoveAllReleasesEveryEmptiedRoom(t *testing.T) {
	bus := newFakeBus()
	f := newFactoryPeer(t, bus)
	ns := sio.NewServer(nil).Of("/chat")
	a := f.New(ns)

	_ = a.Add("sid-1", "lobby")
	_ = a.Add("sid-1", "vip")
	_ = a.Add("sid-2", "lobby") // keeps "lobby" alive after sid-1 leaves

	if err := a.RemoveAll("sid-1"); err != nil {
		t.Fatalf("RemoveAll: %v", err)
	}

	if got := f.subs.refcount(roomChannel("sio", "/chat", "vip")); got != 0 {
		t.Fatalf("vip refcount = %d, want 0 (emptied)", got)
	}
	if got := f.subs.refcount(roomChannel("sio", "/chat", "lobby")); got != 1 {
		t.Fatalf("lobby refcount = %d, want 1 (sid-2 still there)", got)
	}
	if got := a.SocketRooms("sid-1"); len(got) != 0 {
		t.Fatalf("SocketRooms(sid-1) after RemoveAll = %v, want empty", got)
	}
}

func TestAdapterCloseReleasesNamespaceChannelAndDeregisters(t *testing.T) {
	bus := newFakeBus()
	f := newFactoryPeer(t, bus)
	ns := sio.NewServer(nil).Of("/chat")
	a := f.New(ns)

	nsChan := namespaceChannel("sio", "/chat")
	if got := f.subs.refcount(nsChan); got != 1 {
		t.Fatalf("namespace refcount = %d, want 1", got)
	}

	if err := a.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if got := f.subs.refcount(nsChan); got != 0 {
		t.Fatalf("namespace refcount after Close = %d, want 0", got)
	}
	if _, ok := f.adapterFor("/chat"); ok {
		t.Fatalf("expected the namespace to be deregistered from the Factory after Close")
	}
}
