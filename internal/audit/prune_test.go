package audit

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/alfredjeanlab/trail/internal/model"
)

func TestTruncateKeepsMostRecent(t *testing.T) {
	ix, s := newTestIndex(t)
	ctx := context.Background()

	for _, id := range []string{"A", "B", "C"} {
		mustLog(t, ix, id, "["+id+"]", "all")
	}

	if err := ix.Truncate(ctx, "all", 2); err != nil {
		t.Fatalf("Truncate error: %v", err)
	}

	entries, err := ix.Retrieve(ctx, "all")
	if err != nil {
		t.Fatalf("Retrieve error: %v", err)
	}
	got := entryIDs(entries)
	if fmt.Sprint(got) != fmt.Sprint([]string{"B", "C"}) {
		t.Errorf("after truncate, history = %v, want [B C]", got)
	}

	// A is referenced by no subject: its blob and counter must be gone.
	if _, ok, _ := s.Get(ctx, EventKey("A")); ok {
		t.Error("blob for A still exists after truncate")
	}
	if _, ok, _ := s.Get(ctx, RefKey("A")); ok {
		t.Error("ref count for A still exists after truncate")
	}
}

func TestTruncateKeepAtLeastLengthIsNoop(t *testing.T) {
	ix, _ := newTestIndex(t)
	ctx := context.Background()

	mustLog(t, ix, "A", "1", "all")
	mustLog(t, ix, "B", "2", "all")

	for _, keep := range []int{2, 3, 100} {
		if err := ix.Truncate(ctx, "all", keep); err != nil {
			t.Fatalf("Truncate(keep=%d) error: %v", keep, err)
		}
		entries, err := ix.Retrieve(ctx, "all")
		if err != nil {
			t.Fatalf("Retrieve error: %v", err)
		}
		if len(entries) != 2 {
			t.Errorf("Truncate(keep=%d) changed history to %v", keep, entryIDs(entries))
		}
	}
}

func TestTruncateRejectsNegativeKeep(t *testing.T) {
	ix, _ := newTestIndex(t)
	if err := ix.Truncate(context.Background(), "all", -1); err == nil {
		t.Fatal("Truncate(-1) = nil, want error")
	}
}

func TestTruncateUnknownSubjectIsNoop(t *testing.T) {
	ix, _ := newTestIndex(t)
	if err := ix.Truncate(context.Background(), "enoent", 5); err != nil {
		t.Fatalf("Truncate(enoent) error: %v", err)
	}
}

func TestTruncateSparesSharedEvents(t *testing.T) {
	ix, s := newTestIndex(t)
	ctx := context.Background()

	// shared is indexed under both subjects; only is indexed under one.
	mustLog(t, ix, "shared", "s", "one", "two")
	mustLog(t, ix, "only", "o", "one")

	if err := ix.Truncate(ctx, "one", 0); err != nil {
		t.Fatalf("Truncate error: %v", err)
	}

	// only lost its last reference and is gone.
	if _, ok, _ := s.Get(ctx, EventKey("only")); ok {
		t.Error("blob for only still exists")
	}

	// shared is still referenced by two, with the count down to 1.
	entries, err := ix.Retrieve(ctx, "two")
	if err != nil {
		t.Fatalf("Retrieve(two) error: %v", err)
	}
	if len(entries) != 1 || entries[0].ID != "shared" || entries[0].Tombstoned {
		t.Errorf("Retrieve(two) = %+v, want live shared", entries)
	}
	if n := refCount(t, s, "shared"); n != 1 {
		t.Errorf("ref count for shared = %d, want 1", n)
	}
}

func TestPurgeThroughBoundary(t *testing.T) {
	ix, s := newTestIndex(t)
	ctx := context.Background()

	for _, id := range []string{"A", "B", "C"} {
		mustLog(t, ix, id, "["+id+"]", "all")
	}

	if err := ix.Purge(ctx, "all", "B"); err != nil {
		t.Fatalf("Purge error: %v", err)
	}

	entries, err := ix.Retrieve(ctx, "all")
	if err != nil {
		t.Fatalf("Retrieve error: %v", err)
	}
	got := entryIDs(entries)
	if fmt.Sprint(got) != fmt.Sprint([]string{"C"}) {
		t.Errorf("after purge, history = %v, want [C]", got)
	}

	for _, id := range []string{"A", "B"} {
		if _, ok, _ := s.Get(ctx, EventKey(id)); ok {
			t.Errorf("blob for %s still exists after purge", id)
		}
	}
}

func TestPurgeBoundaryNotFound(t *testing.T) {
	ix, _ := newTestIndex(t)
	ctx := context.Background()

	for _, id := range []string{"A", "B"} {
		mustLog(t, ix, id, "["+id+"]", "all")
	}

	err := ix.Purge(ctx, "all", "nonexistent")
	if !errors.Is(err, ErrBoundaryNotFound) {
		t.Fatalf("Purge error = %v, want ErrBoundaryNotFound", err)
	}

	// The index must be untouched.
	entries, err := ix.Retrieve(ctx, "all")
	if err != nil {
		t.Fatalf("Retrieve error: %v", err)
	}
	got := entryIDs(entries)
	if fmt.Sprint(got) != fmt.Sprint([]string{"A", "B"}) {
		t.Errorf("after failed purge, history = %v, want [A B]", got)
	}
}

func TestPurgeEmptySubject(t *testing.T) {
	ix, _ := newTestIndex(t)
	err := ix.Purge(context.Background(), "enoent", "X")
	if !errors.Is(err, ErrBoundaryNotFound) {
		t.Fatalf("Purge on empty subject error = %v, want ErrBoundaryNotFound", err)
	}
}

// TestConcurrentLogAndTruncate hammers one subject with concurrent writers
// and pruners, then checks the final state for the two failure modes of a
// racy implementation: an event deleted while some subject still indexes it,
// and an event removed from every index but never garbage collected.
func TestConcurrentLogAndTruncate(t *testing.T) {
	ix, s := newTestIndex(t)
	ctx := context.Background()

	const writers = 16
	const events = 4

	var wg sync.WaitGroup
	for w := 0; w < writers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < events; i++ {
				id := fmt.Sprintf("ev-%d-%d", w, i)
				err := ix.Log(ctx, &model.Event{ID: id, Data: id, Subjects: []string{"all", fmt.Sprintf("writer:%d", w)}})
				if err != nil {
					t.Errorf("Log(%s) error: %v", id, err)
				}
			}
		}(w)
	}
	wg.Wait()

	const pruners = 8
	for p := 0; p < pruners; p++ {
		wg.Add(1)
		go func(p int) {
			defer wg.Done()
			if err := ix.Truncate(ctx, "all", p*4); err != nil {
				t.Errorf("Truncate error: %v", err)
			}
		}(p)
	}
	wg.Wait()

	// Count live references per event across every subject index.
	subjects, err := ix.Subjects(ctx)
	if err != nil {
		t.Fatalf("Subjects error: %v", err)
	}
	refs := make(map[string]int64)
	for _, subject := range subjects {
		ids, err := s.ListRange(ctx, subject, 0, -1)
		if err != nil {
			t.Fatalf("ListRange(%s) error: %v", subject, err)
		}
		for _, id := range ids {
			refs[id]++
		}
	}

	for w := 0; w < writers; w++ {
		for i := 0; i < events; i++ {
			id := fmt.Sprintf("ev-%d-%d", w, i)
			indexed := refs[id]
			_, blobExists, err := s.Get(ctx, EventKey(id))
			if err != nil {
				t.Fatalf("Get(%s) error: %v", id, err)
			}
			counted := refCount(t, s, id)

			if indexed > 0 && !blobExists {
				t.Errorf("%s is indexed by %d subjects but its blob was deleted", id, indexed)
			}
			if indexed == 0 && blobExists {
				t.Errorf("%s is indexed by no subject but its blob survives", id)
			}
			if counted != indexed {
				t.Errorf("%s ref count = %d, but %d indices reference it", id, counted, indexed)
			}
		}
	}
}
