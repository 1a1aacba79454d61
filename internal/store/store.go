// Package store defines the key-value adapter the audit index runs on.
//
// The index needs a small set of primitive commands (string get/set-if-absent,
// list append/pop/range, set add/members, integer counters) plus a way to run
// a short read-then-write sequence atomically. Reads that need no cross-key
// atomicity go straight through Store; every multi-key mutation goes through
// RunAtomic.
package store

import "context"

// Store is the primitive command surface required from the key-value backend.
// Implementations must be safe for concurrent use.
type Store interface {
	// Get returns the string value at key. ok is false when the key is absent.
	Get(ctx context.Context, key string) (value string, ok bool, err error)

	// ListRange returns list elements between start and stop inclusive.
	// Negative offsets count from the tail, as in Redis LRANGE; (0, -1) is
	// the whole list. A missing key yields an empty slice.
	ListRange(ctx context.Context, key string, start, stop int64) ([]string, error)

	// ListLen returns the length of the list at key (0 when absent).
	ListLen(ctx context.Context, key string) (int64, error)

	// SetMembers returns all members of the set at key (empty when absent).
	SetMembers(ctx context.Context, key string) ([]string, error)

	// RunAtomic executes fn against a transactional view of keys. Effects of
	// other transactions are never interleaved between fn's first read and
	// the commit of its queued writes. fn may run more than once under
	// optimistic concurrency; it must be side-effect free apart from the Tx
	// calls. Returning an error from fn aborts the transaction and discards
	// all queued writes. When conflicting writers keep invalidating the
	// transaction past the retry ceiling, RunAtomic reports ErrContention.
	RunAtomic(ctx context.Context, keys []string, fn func(tx Tx) error) error

	// Ping verifies the backend is reachable.
	Ping(ctx context.Context) error

	Close() error
}

// Tx is the view handed to a RunAtomic body. Reads observe the state the
// transaction is based on. Writes are queued and applied atomically at
// commit; they are NOT visible to reads within the same transaction, so
// bodies must do all their reading before deciding what to write.
type Tx interface {
	// Get returns the string value at key (ok false when absent).
	Get(key string) (value string, ok bool, err error)

	// GetInt returns the integer value at key (ok false when absent).
	GetInt(key string) (value int64, ok bool, err error)

	// ListRange reads list elements, with LRANGE offset semantics.
	ListRange(key string, start, stop int64) ([]string, error)

	// ListLen returns the length of the list at key.
	ListLen(key string) (int64, error)

	// SetIfAbsent queues a conditional create: the value is written only if
	// the key does not exist at commit time.
	SetIfAbsent(key, value string)

	// AppendList queues an append of values to the tail of the list at key.
	AppendList(key string, values ...string)

	// PopFrontList queues removal of up to n elements from the head of the
	// list at key.
	PopFrontList(key string, n int64)

	// IncrBy queues an increment of the integer at key by delta (which may
	// be negative). A missing key counts as zero.
	IncrBy(key string, delta int64)

	// Delete queues removal of the given keys.
	Delete(keys ...string)

	// AddSetMember queues addition of member to the set at key.
	AddSetMember(key, member string)
}
