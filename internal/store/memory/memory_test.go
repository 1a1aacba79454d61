package memory

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/alfredjeanlab/trail/internal/store"
)

func TestGetAbsent(t *testing.T) {
	s := New()
	v, ok, err := s.Get(context.Background(), "missing")
	if err != nil {
		t.Fatalf("Get error: %v", err)
	}
	if ok || v != "" {
		t.Fatalf("Get(missing) = (%q, %v), want (\"\", false)", v, ok)
	}
}

func TestSetIfAbsent(t *testing.T) {
	s := New()
	ctx := context.Background()

	err := s.RunAtomic(ctx, []string{"k"}, func(tx store.Tx) error {
		tx.SetIfAbsent("k", "first")
		return nil
	})
	if err != nil {
		t.Fatalf("RunAtomic error: %v", err)
	}

	// A second conditional create must not overwrite.
	err = s.RunAtomic(ctx, []string{"k"}, func(tx store.Tx) error {
		tx.SetIfAbsent("k", "second")
		return nil
	})
	if err != nil {
		t.Fatalf("RunAtomic error: %v", err)
	}

	v, ok, err := s.Get(ctx, "k")
	if err != nil || !ok {
		t.Fatalf("Get = (%q, %v, %v)", v, ok, err)
	}
	if v != "first" {
		t.Errorf("value = %q, want %q", v, "first")
	}
}

func TestListOps(t *testing.T) {
	s := New()
	ctx := context.Background()

	err := s.RunAtomic(ctx, []string{"l"}, func(tx store.Tx) error {
		tx.AppendList("l", "a", "b", "c", "d")
		return nil
	})
	if err != nil {
		t.Fatalf("RunAtomic error: %v", err)
	}

	n, err := s.ListLen(ctx, "l")
	if err != nil || n != 4 {
		t.Fatalf("ListLen = (%d, %v), want 4", n, err)
	}

	got, err := s.ListRange(ctx, "l", 0, -1)
	if err != nil {
		t.Fatalf("ListRange error: %v", err)
	}
	want := []string{"a", "b", "c", "d"}
	if fmt.Sprint(got) != fmt.Sprint(want) {
		t.Errorf("ListRange(0,-1) = %v, want %v", got, want)
	}

	got, err = s.ListRange(ctx, "l", 1, 2)
	if err != nil {
		t.Fatalf("ListRange error: %v", err)
	}
	if fmt.Sprint(got) != fmt.Sprint([]string{"b", "c"}) {
		t.Errorf("ListRange(1,2) = %v", got)
	}

	// Negative offsets count from the tail.
	got, err = s.ListRange(ctx, "l", 0, -3)
	if err != nil {
		t.Fatalf("ListRange error: %v", err)
	}
	if fmt.Sprint(got) != fmt.Sprint([]string{"a", "b"}) {
		t.Errorf("ListRange(0,-3) = %v", got)
	}

	err = s.RunAtomic(ctx, []string{"l"}, func(tx store.Tx) error {
		tx.PopFrontList("l", 3)
		return nil
	})
	if err != nil {
		t.Fatalf("RunAtomic error: %v", err)
	}
	got, _ = s.ListRange(ctx, "l", 0, -1)
	if fmt.Sprint(got) != fmt.Sprint([]string{"d"}) {
		t.Errorf("after pop, list = %v, want [d]", got)
	}
}

func TestCounter(t *testing.T) {
	s := New()
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		err := s.RunAtomic(ctx, []string{"c"}, func(tx store.Tx) error {
			tx.IncrBy("c", 1)
			return nil
		})
		if err != nil {
			t.Fatalf("RunAtomic error: %v", err)
		}
	}
	err := s.RunAtomic(ctx, []string{"c"}, func(tx store.Tx) error {
		n, ok, err := tx.GetInt("c")
		if err != nil {
			return err
		}
		if !ok || n != 3 {
			return fmt.Errorf("counter = (%d, %v), want 3", n, ok)
		}
		tx.IncrBy("c", -2)
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
	v, _, _ := s.Get(ctx, "c")
	if v != "1" {
		t.Errorf("counter = %q, want \"1\"", v)
	}
}

func TestSetMembers(t *testing.T) {
	s := New()
	ctx := context.Background()

	err := s.RunAtomic(ctx, []string{"s"}, func(tx store.Tx) error {
		tx.AddSetMember("s", "x")
		tx.AddSetMember("s", "y")
		tx.AddSetMember("s", "x")
		return nil
	})
	if err != nil {
		t.Fatalf("RunAtomic error: %v", err)
	}
	members, err := s.SetMembers(ctx, "s")
	if err != nil {
		t.Fatalf("SetMembers error: %v", err)
	}
	if len(members) != 2 {
		t.Errorf("got %d members (%v), want 2", len(members), members)
	}
}

func TestWritesInvisibleInsideTransaction(t *testing.T) {
	s := New()
	ctx := context.Background()

	err := s.RunAtomic(ctx, []string{"l"}, func(tx store.Tx) error {
		tx.AppendList("l", "a")
		n, err := tx.ListLen("l")
		if err != nil {
			return err
		}
		if n != 0 {
			return fmt.Errorf("queued write visible inside transaction: len = %d", n)
		}
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
	n, _ := s.ListLen(ctx, "l")
	if n != 1 {
		t.Errorf("after commit, len = %d, want 1", n)
	}
}

func TestAbortDiscardsWrites(t *testing.T) {
	s := New()
	ctx := context.Background()

	wantErr := errors.New("abort")
	err := s.RunAtomic(ctx, []string{"k"}, func(tx store.Tx) error {
		tx.SetIfAbsent("k", "v")
		tx.AppendList("l", "a")
		return wantErr
	})
	if !errors.Is(err, wantErr) {
		t.Fatalf("RunAtomic error = %v, want %v", err, wantErr)
	}
	if _, ok, _ := s.Get(ctx, "k"); ok {
		t.Error("aborted write to k was applied")
	}
	if n, _ := s.ListLen(ctx, "l"); n != 0 {
		t.Error("aborted list append was applied")
	}
}

func TestWrongTypeDetected(t *testing.T) {
	s := New()
	ctx := context.Background()

	err := s.RunAtomic(ctx, []string{"k"}, func(tx store.Tx) error {
		tx.SetIfAbsent("k", "v")
		return nil
	})
	if err != nil {
		t.Fatalf("RunAtomic error: %v", err)
	}
	_, err = s.ListRange(ctx, "k", 0, -1)
	if !errors.Is(err, store.ErrWrongType) {
		t.Errorf("ListRange on string key error = %v, want ErrWrongType", err)
	}
}

func TestCommitTypeConflictAppliesNothing(t *testing.T) {
	s := New()
	ctx := context.Background()

	err := s.RunAtomic(ctx, []string{"k"}, func(tx store.Tx) error {
		tx.SetIfAbsent("k", "v")
		return nil
	})
	if err != nil {
		t.Fatalf("seed error: %v", err)
	}

	// The first write is valid on its own; the second targets a string key
	// with a list op. Neither may land.
	err = s.RunAtomic(ctx, []string{"a", "k"}, func(tx store.Tx) error {
		tx.AppendList("a", "x")
		tx.AppendList("k", "y")
		return nil
	})
	if !errors.Is(err, store.ErrWrongType) {
		t.Fatalf("RunAtomic error = %v, want ErrWrongType", err)
	}
	if n, _ := s.ListLen(ctx, "a"); n != 0 {
		t.Errorf("rejected commit still applied %d writes to a", n)
	}
	if v, _, _ := s.Get(ctx, "k"); v != "v" {
		t.Errorf("k = %q, want untouched %q", v, "v")
	}
}

func TestCommitAllowsDeleteThenReuse(t *testing.T) {
	s := New()
	ctx := context.Background()

	err := s.RunAtomic(ctx, []string{"k"}, func(tx store.Tx) error {
		tx.SetIfAbsent("k", "v")
		return nil
	})
	if err != nil {
		t.Fatalf("seed error: %v", err)
	}

	// Deleting a string key frees it for a list in the same transaction.
	err = s.RunAtomic(ctx, []string{"k"}, func(tx store.Tx) error {
		tx.Delete("k")
		tx.AppendList("k", "x")
		return nil
	})
	if err != nil {
		t.Fatalf("RunAtomic error: %v", err)
	}
	got, err := s.ListRange(ctx, "k", 0, -1)
	if err != nil || fmt.Sprint(got) != fmt.Sprint([]string{"x"}) {
		t.Errorf("ListRange = (%v, %v), want [x]", got, err)
	}
}

func TestConcurrentIncrements(t *testing.T) {
	s := New()
	ctx := context.Background()

	const workers = 32
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := s.RunAtomic(ctx, []string{"c"}, func(tx store.Tx) error {
				tx.IncrBy("c", 1)
				return nil
			})
			if err != nil {
				t.Errorf("RunAtomic error: %v", err)
			}
		}()
	}
	wg.Wait()

	v, _, _ := s.Get(ctx, "c")
	if v != "32" {
		t.Errorf("counter = %q, want \"32\"", v)
	}
}
