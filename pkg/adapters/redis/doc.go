// Package redis provides Redis-backed adapters: a snapshot store, a distributed
// page locker and a pub/sub host that publishes every update call.
package redis
