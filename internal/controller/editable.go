package controller

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"slices"
	"time"

	"github.com/mr1hm/go-disaster-admin/internal/models"
)

var ErrNotConfirmed = errors.New("not confirmed")

// Updater is a resource accessor that also supports update and delete.
type Updater[T any, D any, P any] interface {
	Accessor[T, D]
	Update(ctx context.Context, id string, patch P) (models.Ack, error)
	Delete(ctx context.Context, id string) (models.Ack, error)
}

// Strategy decides how local items follow a successful write. A nil apply
// means reload-after-write.
type Strategy[T any, P any] struct {
	apply func(T, P, time.Time) T
}

// Optimistic patches the local copy with apply before the server answers and
// removes deleted entities locally.
func Optimistic[T any, P any](apply func(T, P, time.Time) T) Strategy[T, P] {
	return Strategy[T, P]{apply: apply}
}

// ReloadAfterWrite reloads the whole collection after every update or delete.
func ReloadAfterWrite[T any, P any]() Strategy[T, P] {
	return Strategy[T, P]{}
}

// Confirmer asks the user before a delete is sent.
type Confirmer interface {
	Confirm(ctx context.Context, prompt string) bool
}

type ConfirmFunc func(ctx context.Context, prompt string) bool

func (f ConfirmFunc) Confirm(ctx context.Context, prompt string) bool {
	return f(ctx, prompt)
}

// declineAll is the confirmer used when none is configured.
var declineAll = ConfirmFunc(func(context.Context, string) bool { return false })

type SyncState int

const (
	Synced SyncState = iota
	Pending
	Stale
)

func (s SyncState) String() string {
	switch s {
	case Synced:
		return "synced"
	case Pending:
		return "pending"
	case Stale:
		return "stale"
	}
	return "unknown"
}

type options struct {
	rollback  bool
	confirmer Confirmer
	now       func() time.Time
}

type Option func(*options)

// WithRollback controls what an optimistic update does when the server
// rejects it. With rollback (the default) the entity returns to its value
// before the patch. Without it the patched value stays and the entity is
// marked Stale.
func WithRollback(enabled bool) Option {
	return func(o *options) {
		o.rollback = enabled
	}
}

func WithConfirmer(c Confirmer) Option {
	return func(o *options) {
		o.confirmer = c
	}
}

func WithClock(now func() time.Time) Option {
	return func(o *options) {
		o.now = now
	}
}

type syncEntry struct {
	state   SyncState
	version uint64
}

// Editable is a List whose entities can also be updated and removed.
type Editable[T models.Entity, D Draft, P any] struct {
	*List[T, D]

	updater  Updater[T, D, P]
	strategy Strategy[T, P]
	opts     options

	// states and version are guarded by List.mu.
	states  map[string]syncEntry
	version uint64
}

func NewEditable[T models.Entity, D Draft, P any](kind Kind[T, D], updater Updater[T, D, P], strategy Strategy[T, P], opts ...Option) *Editable[T, D, P] {
	o := options{
		rollback:  true,
		confirmer: declineAll,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(&o)
	}
	e := &Editable[T, D, P]{
		List:     NewList(kind, Accessor[T, D](updater)),
		updater:  updater,
		strategy: strategy,
		opts:     o,
		states:   make(map[string]syncEntry),
	}
	e.onApplied = e.dropStale
	return e
}

// dropStale forgets kept stale values once a load has replaced them with the
// server's. Updates still in flight keep their Pending entry.
func (e *Editable[T, D, P]) dropStale() {
	maps.DeleteFunc(e.states, func(_ string, s syncEntry) bool { return s.state == Stale })
}

// UpdateFields sends patch for id and reconciles the local items according
// to the strategy.
func (e *Editable[T, D, P]) UpdateFields(ctx context.Context, id string, patch P) error {
	if e.strategy.apply == nil {
		return e.updateAndReload(ctx, id, patch)
	}
	return e.updateOptimistic(ctx, id, patch)
}

func (e *Editable[T, D, P]) updateOptimistic(ctx context.Context, id string, patch P) error {
	e.mu.Lock()
	i := e.index(id)
	if i < 0 {
		e.mu.Unlock()
		return fmt.Errorf("update %s %q: %w", e.kind.Name, id, ErrUnknownID)
	}
	prev := e.items[i]
	items := slices.Clone(e.items)
	items[i] = e.strategy.apply(prev, patch, e.opts.now())
	e.items = items
	e.version++
	version := e.version
	applied := e.applied
	e.states[id] = syncEntry{state: Pending, version: version}
	e.pending++
	e.mu.Unlock()
	e.notify(EventUpdated, id)

	_, err := e.updater.Update(ctx, id, patch)

	e.mu.Lock()
	e.pending--
	// A later update of the same entity owns its state from here on.
	latest := e.states[id].version == version
	if err == nil {
		if latest {
			delete(e.states, id)
		}
		e.err = nil
		e.mu.Unlock()
		e.notify(EventUpdated, id)
		return nil
	}

	e.err = err
	switch {
	case !latest:
	case e.applied != applied:
		// A load installed the server's items after the patch.
		delete(e.states, id)
	case e.opts.rollback:
		if j := e.index(id); j >= 0 {
			items := slices.Clone(e.items)
			items[j] = prev
			e.items = items
		}
		delete(e.states, id)
	default:
		e.states[id] = syncEntry{state: Stale, version: version}
	}
	e.mu.Unlock()

	e.notify(EventFailed, id)
	return fmt.Errorf("update %s %q: %w", e.kind.Name, id, err)
}

func (e *Editable[T, D, P]) updateAndReload(ctx context.Context, id string, patch P) error {
	e.mu.Lock()
	if e.index(id) < 0 {
		e.mu.Unlock()
		return fmt.Errorf("update %s %q: %w", e.kind.Name, id, ErrUnknownID)
	}
	e.version++
	version := e.version
	e.states[id] = syncEntry{state: Pending, version: version}
	e.pending++
	e.mu.Unlock()

	_, err := e.updater.Update(ctx, id, patch)

	e.mu.Lock()
	e.pending--
	if e.states[id].version == version {
		delete(e.states, id)
	}
	if err != nil {
		e.err = err
	}
	e.mu.Unlock()

	if err != nil {
		e.notify(EventFailed, id)
		return fmt.Errorf("update %s %q: %w", e.kind.Name, id, err)
	}
	e.notify(EventUpdated, id)
	return e.Load(ctx)
}

// SyncState reports where the last optimistic update of id stands. Entities
// without an update in flight or a kept stale value are Synced.
func (e *Editable[T, D, P]) SyncState(id string) SyncState {
	e.mu.Lock()
	defer e.mu.Unlock()
	if s, ok := e.states[id]; ok {
		return s.state
	}
	return Synced
}

// Remove asks the confirmer and then deletes id. Optimistic kinds drop the
// entity locally, the others reload.
func (e *Editable[T, D, P]) Remove(ctx context.Context, id string) error {
	if !e.opts.confirmer.Confirm(ctx, fmt.Sprintf("Delete %s %s?", e.kind.Name, id)) {
		return ErrNotConfirmed
	}

	e.begin()
	_, err := e.updater.Delete(ctx, id)
	if err != nil {
		e.end(err)
		e.notify(EventFailed, id)
		return fmt.Errorf("delete %s %q: %w", e.kind.Name, id, err)
	}

	if e.strategy.apply == nil {
		e.end(nil)
		e.notify(EventRemoved, id)
		return e.Load(ctx)
	}

	e.mu.Lock()
	e.items = slices.DeleteFunc(slices.Clone(e.items), func(item T) bool { return item.Key() == id })
	delete(e.states, id)
	if e.selected == id {
		e.selected = ""
	}
	e.pending--
	e.err = nil
	e.mu.Unlock()

	e.notify(EventRemoved, id)
	return nil
}
