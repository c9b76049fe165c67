// Package eventstream is the durable, at-least-once, per-consumer event
// log described in the persistence design: Send appends, Receive polls
// a consumer's unacknowledged events in (timestamp, id) order, Delete
// acknowledges one. MemStream backs tests; SQLStream shares the
// storage.SQLStore connection so a service can append an event inside
// the same transaction that writes its entity.
package eventstream
