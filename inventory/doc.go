// Package inventory owns the seat pools of every train and the atomic
// allocate/release operations on them.
//
// A Pool is the ordered set of seats of one train. Pools live in a Backend
// (process memory, Postgres or Redis) and are reached through a Registry,
// which creates a pool the first time a train is booked against or
// inspected and destroys it when the train leaves the catalog.
//
// Allocation picks the lowest-numbered free seat of the requested category
// and marks it booked in one atomic step:
//
//	memory    per-pool mutex held across find-and-mark
//	postgres  single UPDATE over a SELECT ... FOR UPDATE SKIP LOCKED
//	redis     Lua script, run atomically by the server
//
// A seat's booked flag and passenger data always change together. Every
// backend rejects an operation against a pool that does not exist with
// models.ErrPoolNotFound.
package inventory
