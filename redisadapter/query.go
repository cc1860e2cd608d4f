package redisadapter

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// outstandingQuery tracks one in-flight fleet-wide clients() call: how many
// peer responses are still expected, what has been collected so far, and
// the completion callback to invoke exactly once.
type outstandingQuery struct {
	mu       sync.Mutex
	expected int
	sids     []string
	done     bool
	complete func([]string)
	timer    *time.Timer
}

// queryTable is the process-wide muid -> outstandingQuery map the demux
// goroutine consults when a clientresponse channel delivers a message.
type queryTable struct {
	mu      sync.Mutex
	queries map[string]*outstandingQuery
}

func newQueryTable() *queryTable {
	return &queryTable{queries: make(map[string]*outstandingQuery)}
}

func (t *queryTable) put(muid string, q *outstandingQuery) {
	t.mu.Lock()
	t.queries[muid] = q
	t.mu.Unlock()
}

func (t *queryTable) get(muid string) (*outstandingQuery, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	q, ok := t.queries[muid]
	return q, ok
}

func (t *queryTable) delete(muid string) {
	t.mu.Lock()
	delete(t.queries, muid)
	t.mu.Unlock()
}

// clients answers "which SIDs are in the union of rooms across the whole
// fleet?" per the design's scatter/gather protocol: seed with local SIDs,
// ask the bus how many peers are listening on the request channel, arm a
// linearly-scaled timeout, publish the request, and accumulate responses
// until either every expected peer has answered or the timeout fires.
func (a *Adapter) clients(ctx context.Context, rooms []string, cb func([]string, error)) {
	local := a.local.ClientsIn(rooms)

	peerCount, err := a.factory.pubsub.NumSubscribers(ctx, clientRequestChannel(a.factory.prefix))
	if err != nil {
		cb(nil, transportErr("PUBSUB NUMSUB", clientRequestChannel(a.factory.prefix), err))
		return
	}

	expected := peerCount - 1 // subtract self
	if expected <= 0 {
		cb(local, nil)
		return
	}

	muid := uuid.NewString()
	responseChannel := clientResponseChannel(a.factory.prefix, muid)

	if err := a.factory.subs.acquire(ctx, responseChannel); err != nil {
		cb(nil, err)
		return
	}

	q := &outstandingQuery{expected: expected, sids: append([]string(nil), local...)}
	finish := func(sids []string) {
		a.factory.queries.delete(muid)
		_ = a.factory.subs.release(context.Background(), responseChannel)
		cb(sids, nil)
	}
	q.complete = finish

	base := a.factory.baseTimeout
	if base <= 0 {
		base = defaultBaseTimeout
	}
	q.timer = time.AfterFunc(base*time.Duration(expected), func() {
		q.mu.Lock()
		if q.done {
			q.mu.Unlock()
			return
		}
		q.done = true
		sids := q.sids
		q.mu.Unlock()
		finish(sids)
	})

	a.factory.queries.put(muid, q)

	payload, err := encodeClientsRequest(a.namespace.Name(), a.factory.uid, muid, rooms)
	if err != nil {
		a.factory.queries.delete(muid)
		q.timer.Stop()
		_ = a.factory.subs.release(ctx, responseChannel)
		cb(nil, transportErr("encode clientrequest", clientRequestChannel(a.factory.prefix), err))
		return
	}

	if err := a.factory.pub.Publish(ctx, clientRequestChannel(a.factory.prefix), payload); err != nil {
		a.factory.queries.delete(muid)
		q.timer.Stop()
		_ = a.factory.subs.release(ctx, responseChannel)
		cb(nil, transportErr("PUBLISH", clientRequestChannel(a.factory.prefix), err))
		return
	}
}

// handleClientResponse feeds one peer's response into its outstanding query,
// completing the query immediately once every expected peer has answered.
func (f *Factory) handleClientResponse(muid string, payload []byte) {
	q, ok := f.queries.get(muid)
	if !ok {
		// The query already completed (likely via timeout); a late response
		// has nowhere to go because its subscription was already released.
		f.logger.Debug("dropping clients response for unknown or expired query", "muid", muid)
		return
	}

	sids, err := decodeClientsResponse(payload)
	if err != nil {
		f.logger.Debug("dropping malformed clients response", "muid", muid, "error", err)
		return
	}

	q.mu.Lock()
	if q.done {
		q.mu.Unlock()
		return
	}
	q.sids = append(q.sids, sids...)
	q.expected--
	done := q.expected <= 0
	if done {
		q.done = true
	}
	collected := q.sids
	q.mu.Unlock()

	if done {
		q.timer.Stop()
		q.complete(collected)
	}
}

// handleClientRequest is the responder path: every live peer answers every
// request it accepts, even with an empty list, so the requester's counter
// converges.
func (a *Adapter) handleClientRequest(req clientsRequest) {
	if req.Namespace != a.namespace.Name() {
		a.factory.logger.Debug("dropping clientrequest for other namespace", "namespace", req.Namespace)
		return
	}
	if req.UID == a.factory.uid {
		// The requester handles its own local SIDs already.
		a.factory.logger.Debug("dropping own clientrequest", "uid", req.UID)
		return
	}

	sids := a.local.ClientsIn(req.Rooms)
	payload, err := encodeClientsResponse(sids)
	if err != nil {
		a.emitter.emit(transportErr("encode clientresponse", req.MUID, err))
		return
	}

	ctx := context.Background()
	channel := clientResponseChannel(a.factory.prefix, req.MUID)
	if err := a.factory.pub.Publish(ctx, channel, payload); err != nil {
		a.emitter.emit(transportErr("PUBLISH", channel, err))
	}
}
