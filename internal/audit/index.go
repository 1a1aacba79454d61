// Package audit implements the multi-index audit log: immutable events,
// per-subject insertion-ordered indices, and reference-counted garbage
// collection of event blobs. All coordination happens through the store's
// transaction primitive; the Index itself holds no mutable state, so one
// Index value may be shared by any number of goroutines.
package audit

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/alfredjeanlab/trail/internal/events"
	"github.com/alfredjeanlab/trail/internal/idgen"
	"github.com/alfredjeanlab/trail/internal/model"
	"github.com/alfredjeanlab/trail/internal/store"
)

// Index is the audit log over a single store instance.
type Index struct {
	store  store.Store
	pub    events.Publisher
	logger *slog.Logger
}

// Option configures an Index.
type Option func(*Index)

// WithPublisher emits a notification after each successful log, truncate,
// and purge. Publish failures are logged, never surfaced: notifications are
// advisory, the store is the source of truth.
func WithPublisher(p events.Publisher) Option {
	return func(ix *Index) { ix.pub = p }
}

// WithLogger sets the slog logger used for non-fatal diagnostics.
func WithLogger(l *slog.Logger) Option {
	return func(ix *Index) { ix.logger = l }
}

// New creates an Index on s.
func New(s store.Store, opts ...Option) *Index {
	ix := &Index{store: s, pub: &events.NoopPublisher{}, logger: slog.Default()}
	for _, opt := range opts {
		opt(ix)
	}
	return ix
}

// Log records e, indexing it under every subject it names. When e.ID is
// empty a unique ID is assigned and written back to e.
//
// Log is idempotent per (id, subject) pair: re-logging an identical event
// changes nothing, and re-logging an existing ID with additional subjects
// merges the new references in without duplicating the old ones. Reusing an
// ID for different data is rejected with ErrDuplicateEvent.
func (ix *Index) Log(ctx context.Context, e *model.Event) error {
	if e.ID == "" {
		id, err := idgen.Generate()
		if err != nil {
			return err
		}
		e.ID = id
	}
	if err := e.Validate(); err != nil {
		return err
	}
	for _, s := range e.Subjects {
		if reservedSubject(s) {
			return fmt.Errorf("subject %q collides with a reserved key", s)
		}
	}

	subjects := dedupe(e.Subjects)
	keys := make([]string, 0, len(subjects)+3)
	keys = append(keys, EventKey(e.ID), RefKey(e.ID), RegistryKey)
	keys = append(keys, subjects...)

	err := ix.store.RunAtomic(ctx, keys, func(tx store.Tx) error {
		existing, ok, err := tx.Get(EventKey(e.ID))
		if err != nil {
			return err
		}
		if ok && existing != e.Data {
			return fmt.Errorf("%w: %s", ErrDuplicateEvent, e.ID)
		}
		if !ok {
			tx.SetIfAbsent(EventKey(e.ID), e.Data)
		}
		for _, s := range subjects {
			ids, err := tx.ListRange(s, 0, -1)
			if err != nil {
				return err
			}
			if contains(ids, e.ID) {
				continue
			}
			tx.AddSetMember(RegistryKey, s)
			tx.AppendList(s, e.ID)
			tx.IncrBy(RefKey(e.ID), 1)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("log %s: %w", e.ID, err)
	}

	ix.publish(ctx, events.TopicEventLogged, events.EventLogged{ID: e.ID, Subjects: subjects})
	return nil
}

// Retrieve returns subject's full history, oldest first. An unknown or empty
// subject yields an empty slice. No transaction spans the call: an event
// pruned between the index read and its blob fetch shows up as a Tombstoned
// entry instead of failing the whole read.
func (ix *Index) Retrieve(ctx context.Context, subject string) ([]model.Entry, error) {
	ids, err := ix.store.ListRange(ctx, subject, 0, -1)
	if err != nil {
		return nil, fmt.Errorf("read index %q: %w", subject, err)
	}
	entries := make([]model.Entry, 0, len(ids))
	for _, id := range ids {
		data, ok, err := ix.store.Get(ctx, EventKey(id))
		if err != nil {
			return nil, fmt.Errorf("fetch event %s: %w", id, err)
		}
		if !ok {
			entries = append(entries, model.Entry{ID: id, Tombstoned: true})
			continue
		}
		entries = append(entries, model.Entry{ID: id, Data: data})
	}
	return entries, nil
}

// Subjects returns every subject ever logged against. The registry is never
// pruned, so subjects whose history has been fully truncated still appear.
func (ix *Index) Subjects(ctx context.Context) ([]string, error) {
	return ix.store.SetMembers(ctx, RegistryKey)
}

func (ix *Index) publish(ctx context.Context, topic string, payload any) {
	if err := ix.pub.Publish(ctx, topic, payload); err != nil {
		ix.logger.Warn("publish notification", "topic", topic, "error", err)
	}
}

func dedupe(in []string) []string {
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		if _, dup := seen[s]; dup {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
