package store

import "errors"

// Sentinel errors reported by store implementations. Callers classify with
// errors.Is; implementations wrap them around the backend's own error so the
// original detail is preserved.
var (
	// ErrContention means an optimistic transaction kept losing to
	// concurrent writers and gave up after the retry ceiling. The operation
	// had no effect and is safe to retry.
	ErrContention = errors.New("store: transaction contention")

	// ErrUnavailable means the backend could not be reached.
	ErrUnavailable = errors.New("store: backend unavailable")

	// ErrWrongType means a key holds a value of an unexpected kind, or the
	// backend returned a malformed reply.
	ErrWrongType = errors.New("store: wrong value type")
)
