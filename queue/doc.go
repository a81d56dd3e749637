// Package queue provides the offline queue stores and the sync
// coordinator of the netop library.
//
// # Stores
//
// Two Store implementations are provided:
//
//   - [MemoryStore]: Volatile, for tests and development
//   - [SQLiteStore]: Durable, survives process restarts
//
// Both preserve insertion order: sequence numbers are strictly
// increasing and drains process items in that order. The durable store
// resets items left in_flight by a crashed run back to pending on Open,
// and quarantines rows whose payload cannot be decoded instead of
// failing the whole queue.
//
// # Sync Coordinator
//
// Coordinator drains a Store when connectivity returns:
//
//	coord := queue.NewCoordinator(store, deliver,
//	    queue.WithRetryPolicy(policy.DefaultRetryPolicy()),
//	    queue.WithStateFunc(mon.Current),
//	)
//	go coord.Drain(ctx)
//
// Drains are single-flight; concurrent triggers coalesce into one
// follow-up pass. Per item, the retry budget continues from the
// persisted attempt count, items that exhaust it are dead-lettered and
// the drain moves on, and a connectivity drop mid-drain leaves the
// remaining items pending for the next online transition.
package queue
