package redisadapter

import (
	"context"
	"sync"

	"golang.org/x/sync/singleflight"
)

// subscriptionManager wraps a SubClient with reference counting, guaranteeing
// at-most-one bus SUBSCRIBE per channel no matter how many local rooms (or
// namespaces, or outstanding queries) map to it. It is a single process-wide
// structure shared by every Adapter a Factory produces.
type subscriptionManager struct {
	sub SubClient

	mu    sync.Mutex
	refs  map[string]int
	group singleflight.Group
}

func newSubscriptionManager(sub SubClient) *subscriptionManager {
	return &subscriptionManager{
		sub:  sub,
		refs: make(map[string]int),
	}
}

// acquire increments channel's refcount, issuing SUBSCRIBE only on the 0->1
// transition. Concurrent acquires on the same channel collapse into the
// single in-flight SUBSCRIBE via singleflight; every caller still gets its
// own increment once the subscribe (real or already-satisfied) resolves.
func (m *subscriptionManager) acquire(ctx context.Context, channel string) error {
	m.mu.Lock()
	if m.refs[channel] > 0 {
		m.refs[channel]++
		m.mu.Unlock()
		return nil
	}
	m.mu.Unlock()

	_, err, _ := m.group.Do(channel, func() (interface{}, error) {
		m.mu.Lock()
		_, live := m.refs[channel]
		m.mu.Unlock()
		if live {
			return nil, nil
		}
		err := m.sub.Subscribe(ctx, channel)
		m.mu.Lock()
		if _, ok := m.refs[channel]; err == nil && !ok {
			m.refs[channel] = 0 // live from here on, before any caller's increment
		}
		m.mu.Unlock()
		return nil, err
	})
	if err != nil {
		return transportErr("SUBSCRIBE", channel, err)
	}

	m.mu.Lock()
	m.refs[channel]++
	m.mu.Unlock()
	return nil
}

// release decrements channel's refcount, issuing UNSUBSCRIBE only on the
// 1->0 transition.
func (m *subscriptionManager) release(ctx context.Context, channel string) error {
	m.mu.Lock()
	n := m.refs[channel]
	if n <= 0 {
		m.mu.Unlock()
		return nil
	}
	n--
	if n > 0 {
		m.refs[channel] = n
		m.mu.Unlock()
		return nil
	}
	delete(m.refs, channel)
	m.mu.Unlock()

	if err := m.sub.Unsubscribe(ctx, channel); err != nil {
		// Roll back so the caller may retry the release.
		m.mu.Lock()
		m.refs[channel]++
		m.mu.Unlock()
		return transportErr("UNSUBSCRIBE", channel, err)
	}
	return nil
}

// refcount reports the current refcount for a channel, for tests and for
// the invariant that a room channel's refcount equals the number of
// non-empty local rooms mapping to it.
func (m *subscriptionManager) refcount(channel string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.refs[channel]
}
