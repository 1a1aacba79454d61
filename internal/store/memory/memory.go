// Package memory implements store.Store with in-process maps. It backs the
// audit tests and works as an ephemeral local store; nothing survives the
// process.
package memory

import (
	"context"
	"fmt"
	"strconv"
	"sync"

	"github.com/alfredjeanlab/trail/internal/store"
)

// Store is a map-backed store.Store. A single mutex serializes every
// transaction, which makes RunAtomic strictly serializable: the body plus
// commit run under the lock with no interleaving at all.
type Store struct {
	mu      sync.Mutex
	strings map[string]string
	lists   map[string][]string
	sets    map[string]map[string]struct{}
}

// Compile-time check that Store implements store.Store.
var _ store.Store = (*Store)(nil)

func New() *Store {
	return &Store{
		strings: make(map[string]string),
		lists:   make(map[string][]string),
		sets:    make(map[string]map[string]struct{}),
	}
}

// kind reports which value family a key currently holds, for WRONGTYPE-style
// checks. Empty string means the key is absent.
func (s *Store) kind(key string) string {
	if _, ok := s.strings[key]; ok {
		return "string"
	}
	if _, ok := s.lists[key]; ok {
		return "list"
	}
	if _, ok := s.sets[key]; ok {
		return "set"
	}
	return ""
}

func (s *Store) checkKind(key, want string) error {
	if k := s.kind(key); k != "" && k != want {
		return fmt.Errorf("%w: key %q holds a %s, want %s", store.ErrWrongType, key, k, want)
	}
	return nil
}

func (s *Store) Get(ctx context.Context, key string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.get(key)
}

func (s *Store) get(key string) (string, bool, error) {
	if err := s.checkKind(key, "string"); err != nil {
		return "", false, err
	}
	v, ok := s.strings[key]
	return v, ok, nil
}

func (s *Store) ListRange(ctx context.Context, key string, start, stop int64) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.listRange(key, start, stop)
}

func (s *Store) listRange(key string, start, stop int64) ([]string, error) {
	if err := s.checkKind(key, "list"); err != nil {
		return nil, err
	}
	l := s.lists[key]
	n := int64(len(l))
	if start < 0 {
		start += n
	}
	if stop < 0 {
		stop += n
	}
	if start < 0 {
		start = 0
	}
	if stop >= n {
		stop = n - 1
	}
	if n == 0 || start > stop || start >= n {
		return []string{}, nil
	}
	out := make([]string, stop-start+1)
	copy(out, l[start:stop+1])
	return out, nil
}

func (s *Store) ListLen(ctx context.Context, key string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.listLen(key)
}

func (s *Store) listLen(key string) (int64, error) {
	if err := s.checkKind(key, "list"); err != nil {
		return 0, err
	}
	return int64(len(s.lists[key])), nil
}

func (s *Store) SetMembers(ctx context.Context, key string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkKind(key, "set"); err != nil {
		return nil, err
	}
	members := make([]string, 0, len(s.sets[key]))
	for m := range s.sets[key] {
		members = append(members, m)
	}
	return members, nil
}

// RunAtomic holds the store lock for the body and the commit. Writes are
// buffered and applied only after fn returns nil, so reads inside fn observe
// the pre-transaction state, matching the semantics of the Redis backend.
// Before anything is applied, every queued write is validated against a
// simulated view of the keys it touches; a type conflict anywhere aborts the
// commit with no write applied.
func (s *Store) RunAtomic(ctx context.Context, keys []string, fn func(tx store.Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	t := &tx{s: s}
	if err := fn(t); err != nil {
		return err
	}
	view := &commitView{
		s:      s,
		kinds:  make(map[string]string),
		values: make(map[string]*string),
	}
	for _, st := range t.stages {
		if err := st.check(view); err != nil {
			return err
		}
	}
	for _, st := range t.stages {
		st.apply()
	}
	return nil
}

func (s *Store) Ping(ctx context.Context) error { return nil }

func (s *Store) Close() error { return nil }

// commitView tracks the kind (and, for strings, the value) each key will
// hold once the writes queued so far have run, without touching the store.
// Keys the transaction never wrote fall through to the live state.
type commitView struct {
	s      *Store
	kinds  map[string]string  // overlay; "" means deleted
	values map[string]*string // string overlay; nil means deleted
}

func (v *commitView) kind(key string) string {
	if k, ok := v.kinds[key]; ok {
		return k
	}
	return v.s.kind(key)
}

func (v *commitView) stringValue(key string) (string, bool) {
	if p, ok := v.values[key]; ok {
		if p == nil {
			return "", false
		}
		return *p, true
	}
	val, ok := v.s.strings[key]
	return val, ok
}

func (v *commitView) checkKind(key, want string) error {
	if k := v.kind(key); k != "" && k != want {
		return fmt.Errorf("%w: key %q holds a %s, want %s", store.ErrWrongType, key, k, want)
	}
	return nil
}

// stage pairs a queued write with its commit-time validation. check runs
// against the commit view for every stage before any apply runs.
type stage struct {
	check func(v *commitView) error
	apply func()
}

// tx buffers writes as stages over the store, executed at commit while the
// store lock is still held.
type tx struct {
	s      *Store
	stages []stage
}

var _ store.Tx = (*tx)(nil)

func (t *tx) Get(key string) (string, bool, error) {
	return t.s.get(key)
}

func (t *tx) GetInt(key string) (int64, bool, error) {
	v, ok, err := t.s.get(key)
	if err != nil || !ok {
		return 0, ok, err
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return 0, true, fmt.Errorf("%w: key %q is not an integer", store.ErrWrongType, key)
	}
	return n, true, nil
}

func (t *tx) ListRange(key string, start, stop int64) ([]string, error) {
	return t.s.listRange(key, start, stop)
}

func (t *tx) ListLen(key string) (int64, error) {
	return t.s.listLen(key)
}

func (t *tx) SetIfAbsent(key, value string) {
	t.stages = append(t.stages, stage{
		check: func(v *commitView) error {
			if err := v.checkKind(key, "string"); err != nil {
				return err
			}
			if _, ok := v.stringValue(key); !ok {
				val := value
				v.kinds[key] = "string"
				v.values[key] = &val
			}
			return nil
		},
		apply: func() {
			if _, ok := t.s.strings[key]; !ok {
				t.s.strings[key] = value
			}
		},
	})
}

func (t *tx) AppendList(key string, values ...string) {
	t.stages = append(t.stages, stage{
		check: func(v *commitView) error {
			if err := v.checkKind(key, "list"); err != nil {
				return err
			}
			v.kinds[key] = "list"
			return nil
		},
		apply: func() {
			t.s.lists[key] = append(t.s.lists[key], values...)
		},
	})
}

func (t *tx) PopFrontList(key string, n int64) {
	t.stages = append(t.stages, stage{
		check: func(v *commitView) error {
			return v.checkKind(key, "list")
		},
		apply: func() {
			l := t.s.lists[key]
			if n >= int64(len(l)) {
				delete(t.s.lists, key)
				return
			}
			t.s.lists[key] = l[n:]
		},
	})
}

func (t *tx) IncrBy(key string, delta int64) {
	t.stages = append(t.stages, stage{
		check: func(v *commitView) error {
			if err := v.checkKind(key, "string"); err != nil {
				return err
			}
			var cur int64
			if val, ok := v.stringValue(key); ok {
				n, err := strconv.ParseInt(val, 10, 64)
				if err != nil {
					return fmt.Errorf("%w: key %q is not an integer", store.ErrWrongType, key)
				}
				cur = n
			}
			next := strconv.FormatInt(cur+delta, 10)
			v.kinds[key] = "string"
			v.values[key] = &next
			return nil
		},
		apply: func() {
			var cur int64
			if val, ok := t.s.strings[key]; ok {
				// Validated as an integer by the commit check.
				cur, _ = strconv.ParseInt(val, 10, 64)
			}
			t.s.strings[key] = strconv.FormatInt(cur+delta, 10)
		},
	})
}

func (t *tx) Delete(keys ...string) {
	t.stages = append(t.stages, stage{
		check: func(v *commitView) error {
			for _, key := range keys {
				v.kinds[key] = ""
				v.values[key] = nil
			}
			return nil
		},
		apply: func() {
			for _, key := range keys {
				delete(t.s.strings, key)
				delete(t.s.lists, key)
				delete(t.s.sets, key)
			}
		},
	})
}

func (t *tx) AddSetMember(key, member string) {
	t.stages = append(t.stages, stage{
		check: func(v *commitView) error {
			if err := v.checkKind(key, "set"); err != nil {
				return err
			}
			v.kinds[key] = "set"
			return nil
		},
		apply: func() {
			if t.s.sets[key] == nil {
				t.s.sets[key] = make(map[string]struct{})
			}
			t.s.sets[key][member] = struct{}{}
		},
	})
}
