package redisadapter

import (
	"context"
	"sort"
	"testing"
	"time"

	sio "github.com/ramory-l/gosocketio-cluster"
)

func waitForClients(t *testing.T, a *Adapter, rooms []string) ([]string, error) {
	t.Helper()
	type result struct {
		sids []string
		err  error
	}
	done := make(chan result, 1)
	a.Clients(context.Background(), rooms, func(sids []string, err error) {
		done <- result{sids, err}
	})

	select {
	case r := <-done:
		return r.sids, r.err
	case <-time.After(time.Second):
		t.Fatalf("clients query never completed")
		return nil, nil
	}
}

func TestClientsScatterGatherAggregatesPeerResponses(t *testing.T) {
	bus := newFakeBus()
	fa := newFactoryPeer(t, bus)
	fb := newFactoryPeer(t, bus)

	nsA := sio.NewServer(nil).Of("/chat")
	nsB := sio.NewServer(nil).Of("/chat")
	a := fa.New(nsA)
	b := fb.New(nsB)

	_ = a.Add("sid-a1", "lobby")
	_ = b.Add("sid-b1", "lobby")
	_ = b.Add("sid-b2", "vip") // not in "lobby", must not appear

	sids, err := waitForClients(t, a, []string{"lobby"})
	if err != nil {
		t.Fatalf("Clients: %v", err)
	}

	sort.Strings(sids)
	want := []string{"sid-a1", "sid-b1"}
	if len(sids) != len(want) || sids[0] != want[0] || sids[1] != want[1] {
		t.Fatalf("Clients(lobby) = %v, want %v", sids, want)
	}
}

func TestClientsShortCircuitsWithNoPeers(t *testing.T) {
	bus := newFakeBus()
	fa := newFactoryPeer(t, bus)

	ns := sio.NewServer(nil).Of("/chat")
	a := fa.New(ns)
	_ = a.Add("sid-a1", "lobby")

	sids, err := waitForClients(t, a, []string{"lobby"})
	if err != nil {
		t.Fatalf("Clients: %v", err)
	}
	if len(sids) != 1 || sids[0] != "sid-a1" {
		t.Fatalf("Clients(lobby) = %v, want [sid-a1]", sids)
	}
}

func TestClientsTimesOutOnSilentPeer(t *testing.T) {
	bus := newFakeBus()
	fa := newFactoryPeer(t, bus, WithTimeout(5*time.Millisecond))
	// fb subscribes to the clientrequest channel (inflating NumSubscribers
	// to 2, so a peer response is expected) but never registers a "/chat"
	// adapter, so route's namespace lookup always misses, handleClientRequest
	// is never reached, and it never answers - the canonical silent-peer
	// scenario.
	_ = newFactoryPeer(t, bus)

	ns := sio.NewServer(nil).Of("/chat")
	a := fa.New(ns)
	_ = a.Add("sid-a1", "lobby")

	start := time.Now()
	sids, err := waitForClients(t, a, []string{"lobby"})
	elapsed := time.Since(start)

	if err != nil {
		t.Fatalf("Clients: %v", err)
	}
	if len(sids) != 1 || sids[0] != "sid-a1" {
		t.Fatalf("Clients(lobby) after timeout = %v, want [sid-a1]", sids)
	}
	if elapsed < 3*time.Millisecond {
		t.Fatalf("expected the call to wait out the timeout, completed in %v", elapsed)
	}
}

func TestHandleClientRequestIgnoresOwnUID(t *testing.T) {
	bus := newFakeBus()
	pub, sub, pubsub := bus.peer()
	f, err := NewFactory(WithPrefix("sio"), WithPubClient(pub), WithSubClient(sub), WithPubSubClient(pubsub))
	if err != nil {
		t.Fatalf("NewFactory: %v", err)
	}
	t.Cleanup(func() { _ = f.Close() })

	ns := sio.NewServer(nil).Of("/chat")
	a := f.New(ns)

	// A request carrying this adapter's own factory UID must never produce
	// a response publish - the requester already folded in its own local
	// SIDs before publishing.
	a.handleClientRequest(clientsRequest{Namespace: "/chat", UID: f.uid, MUID: "whatever", Rooms: nil})

	pub.mu.Lock()
	sentTo := append([]string(nil), pub.sentTo...)
	pub.mu.Unlock()
	if len(sentTo) != 0 {
		t.Fatalf("expected no response publish for a self-originated request, got publishes to %v", sentTo)
	}
}
