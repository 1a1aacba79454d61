package audit

import "errors"

var (
	// ErrDuplicateEvent means a log call reused an event ID that already
	// holds different data. Re-logging an identical event is NOT an error;
	// it is an idempotent resubmission.
	ErrDuplicateEvent = errors.New("audit: event id already holds different data")

	// ErrBoundaryNotFound means the purge boundary ID does not appear in the
	// subject's index. The index is left untouched; draining an entire
	// subject on a mistyped ID would be silent data loss.
	ErrBoundaryNotFound = errors.New("audit: purge boundary not found in subject index")
)
