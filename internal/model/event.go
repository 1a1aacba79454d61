// Package model defines the audit log's domain types.
package model

import "fmt"

// Event is a single immutable audit record. Data is an opaque blob (usually
// JSON, but the log never interprets it). Subjects are the index keys the
// event is filed under; an event stays alive while any subject still lists it.
type Event struct {
	ID       string   `json:"id"`
	Data     string   `json:"data"`
	Subjects []string `json:"subjects"`
}

// Entry is one element of a retrieved subject history. Tombstoned marks an
// ID that was present in the index but whose blob disappeared between the
// index read and the blob fetch (a concurrent prune got there first). Gaps
// like this are expected under concurrent writers and are not errors.
type Entry struct {
	ID         string `json:"id"`
	Data       string `json:"data,omitempty"`
	Tombstoned bool   `json:"tombstoned,omitempty"`
}

// Validate checks that the event can be logged. The ID may be empty (the
// index assigns one); Data may be empty (it is opaque); at least one
// non-empty subject is required.
func (e *Event) Validate() error {
	if len(e.Subjects) == 0 {
		return fmt.Errorf("event %q has no subjects", e.ID)
	}
	for _, s := range e.Subjects {
		if s == "" {
			return fmt.Errorf("event %q has an empty subject", e.ID)
		}
	}
	return nil
}
