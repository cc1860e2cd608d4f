// Package redisadapter implements a cluster-aware gosocketio.Adapter backed
// by a Redis pub/sub bus.
//
// A socket.io-style server is usually a fleet of peer processes, each
// holding a disjoint set of live connections. This package lets any process
// broadcast to a room or namespace and have the message delivered to every
// matching client across the fleet, and lets any process ask "which client
// IDs are currently in room R of namespace N?" and get a fleet-wide answer.
//
// # Quick start
//
//	factory, err := redisadapter.NewFactory(redisadapter.ParseAddr("127.0.0.1:6379"))
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer factory.Close()
//
//	server := gosocketio.NewServer(nil)
//	ns := server.Of("/chat")
//	ns.SetAdapter(factory.New(ns))
//
// Every process that constructs a Factory against the same Redis instance
// and the same key prefix becomes a peer in the same fleet. Two Factory
// instances in one process are treated as two separate peers.
//
// # Topology
//
// A Factory owns the three Redis clients described in the package's design:
// one for PUBLISH, one for SUBSCRIBE/UNSUBSCRIBE and message delivery, and
// one for PUBSUB NUMSUB. All three default to ordinary go-redis clients
// against the configured address, or can be supplied by the caller so that
// multiple Factory values share a single Redis connection pool.
package redisadapter
