package audit

import (
	"context"
	"fmt"

	"github.com/alfredjeanlab/trail/internal/events"
	"github.com/alfredjeanlab/trail/internal/store"
)

// maxDiscoverAttempts bounds the discovery loop that pins down which events a
// prune will touch. Each round re-reads the index; a round only repeats when
// a concurrent writer changed the head segment between the plain read and
// the transaction.
const maxDiscoverAttempts = 8

// Truncate drops the oldest entries of subject's index so that at most keep
// remain. Each dropped event's reference count falls by one; blobs that no
// subject references anymore are deleted together with their counters. A
// keep of at least the current length is a no-op.
func (ix *Index) Truncate(ctx context.Context, subject string, keep int) error {
	if keep < 0 {
		return fmt.Errorf("truncate %q: keep must be non-negative, got %d", subject, keep)
	}
	removed, deleted, err := ix.removeHead(ctx, subject, func(ids []string) (int, error) {
		drop := len(ids) - keep
		if drop < 0 {
			return 0, nil
		}
		return drop, nil
	})
	if err != nil {
		return fmt.Errorf("truncate %q: %w", subject, err)
	}
	if len(removed) == 0 {
		return nil
	}
	ix.publish(ctx, events.TopicSubjectTruncated, events.SubjectTruncated{
		Subject: subject,
		Keep:    keep,
		Removed: removed,
		Deleted: deleted,
	})
	return nil
}

// Purge drops entries from the head of subject's index up to and including
// the first occurrence of uptoID, with the same dereference semantics as
// Truncate. When uptoID is absent the index is left untouched and
// ErrBoundaryNotFound is returned.
func (ix *Index) Purge(ctx context.Context, subject, uptoID string) error {
	removed, deleted, err := ix.removeHead(ctx, subject, func(ids []string) (int, error) {
		for i, id := range ids {
			if id == uptoID {
				return i + 1, nil
			}
		}
		return 0, fmt.Errorf("%w: %q has no event %s", ErrBoundaryNotFound, subject, uptoID)
	})
	if err != nil {
		return fmt.Errorf("purge %q: %w", subject, err)
	}
	if len(removed) == 0 {
		return nil
	}
	ix.publish(ctx, events.TopicSubjectPurged, events.SubjectPurged{
		Subject: subject,
		UpToID:  uptoID,
		Removed: removed,
		Deleted: deleted,
	})
	return nil
}

// removeHead removes a head segment of subject's index, chosen by cut, and
// dereferences every removed event. cut receives the current index contents
// and returns how many entries to drop from the front.
//
// The transaction must watch the reference-count key of every event it may
// dereference, and those keys are only known after reading the index. So:
// read the index plainly to collect candidates, open the transaction over
// the subject key plus each candidate's event and ref keys, and re-read the
// index inside it. The in-transaction read is authoritative; if it wants to
// remove an entry the candidate set does not cover, the watch set is too
// narrow and discovery restarts. Any concurrent append or pop on the subject
// invalidates the commit via the watch on the subject key itself; a
// concurrent dereference of a shared event from another subject's prune
// invalidates it via the watched ref key. Both simply retry.
func (ix *Index) removeHead(ctx context.Context, subject string, cut func(ids []string) (int, error)) (removed, deleted []string, err error) {
	for attempt := 0; attempt < maxDiscoverAttempts; attempt++ {
		candidates, err := ix.store.ListRange(ctx, subject, 0, -1)
		if err != nil {
			return nil, nil, err
		}
		n, err := cut(candidates)
		if err != nil {
			return nil, nil, err
		}
		if n == 0 {
			return nil, nil, nil
		}

		head := candidates[:n]
		keys := make([]string, 0, 2*len(head)+1)
		keys = append(keys, subject)
		covered := make(map[string]bool, len(head))
		for _, id := range head {
			if covered[id] {
				continue
			}
			covered[id] = true
			keys = append(keys, EventKey(id), RefKey(id))
		}

		var stale bool
		removed, deleted = nil, nil
		err = ix.store.RunAtomic(ctx, keys, func(tx store.Tx) error {
			stale, removed, deleted = false, nil, nil

			ids, err := tx.ListRange(subject, 0, -1)
			if err != nil {
				return err
			}
			n, err := cut(ids)
			if err != nil {
				return err
			}
			if n == 0 {
				return nil
			}
			for _, id := range ids[:n] {
				if !covered[id] {
					stale = true
					return nil
				}
			}

			tx.PopFrontList(subject, int64(n))
			removed = append(removed, ids[:n]...)

			// Count occurrences per ID before dereferencing, so a segment
			// holding the same ID twice (possible with externally written
			// indices) decrements once with the right delta.
			drops := make(map[string]int64, n)
			order := make([]string, 0, n)
			for _, id := range ids[:n] {
				if drops[id] == 0 {
					order = append(order, id)
				}
				drops[id]++
			}
			for _, id := range order {
				refs, ok, err := tx.GetInt(RefKey(id))
				if err != nil {
					return err
				}
				if !ok || refs <= drops[id] {
					tx.Delete(EventKey(id), RefKey(id))
					deleted = append(deleted, id)
					continue
				}
				tx.IncrBy(RefKey(id), -drops[id])
			}
			return nil
		})
		if err != nil {
			return nil, nil, err
		}
		if stale {
			continue
		}
		return removed, deleted, nil
	}
	return nil, nil, fmt.Errorf("head segment kept shifting under discovery: %w", store.ErrContention)
}
