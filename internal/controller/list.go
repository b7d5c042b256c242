package controller

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"maps"
	"slices"
	"strings"
	"sync"

	"github.com/samber/lo"

	"github.com/mr1hm/go-disaster-admin/internal/metrics"
	"github.com/mr1hm/go-disaster-admin/internal/models"
)

// All is the filter value that disables an enumerated filter. The empty
// string has the same meaning.
const All = "all"

var (
	ErrUnknownFilter = errors.New("unknown filter")
	ErrUnknownID     = errors.New("unknown id")
)

// Draft is a create payload that can check its required fields.
type Draft interface {
	Validate() error
}

// Accessor is the part of a resource accessor a list controller needs.
type Accessor[T any, D any] interface {
	List(ctx context.Context) ([]T, error)
	Create(ctx context.Context, draft D) (T, error)
}

// Kind describes how one entity kind is searched, filtered and drafted.
type Kind[T any, D Draft] struct {
	Name string
	// SearchFields returns the text fields matched against the search text.
	SearchFields func(T) []string
	// Filters maps a filter name to the enumerated field it compares.
	Filters  map[string]func(T) string
	NewDraft func() D
}

// List holds the local copy of one collection together with its search text,
// enumerated filters, selection and create form.
//
// The items slice is never modified in place. Every change installs a new
// slice, so a snapshot taken by FilteredView or Items stays valid.
type List[T models.Entity, D Draft] struct {
	kind     Kind[T, D]
	accessor Accessor[T, D]
	events   *Broadcaster

	mu       sync.Mutex
	items    []T
	search   string
	filters  map[string]string
	selected string
	form     D
	pending  int
	err      error
	gen      uint64
	// applied is the generation of the last load whose items were installed.
	applied uint64
	// onApplied runs with mu held after a load installs its items.
	onApplied func()
}

func NewList[T models.Entity, D Draft](kind Kind[T, D], accessor Accessor[T, D]) *List[T, D] {
	return &List[T, D]{
		kind:     kind,
		accessor: accessor,
		events:   NewBroadcaster(),
		items:    []T{},
		filters:  make(map[string]string),
		form:     kind.NewDraft(),
	}
}

func (l *List[T, D]) Name() string {
	return l.kind.Name
}

// Load replaces the local items with the server's list. Each call takes a new
// generation and its response is applied only if no later Load was issued
// meanwhile; superseded responses are dropped without error. A failed load
// leaves the items untouched.
func (l *List[T, D]) Load(ctx context.Context) error {
	l.mu.Lock()
	l.gen++
	gen := l.gen
	l.pending++
	l.mu.Unlock()

	items, err := l.accessor.List(ctx)

	l.mu.Lock()
	l.pending--
	if gen != l.gen {
		l.mu.Unlock()
		metrics.ObserveLoad(l.kind.Name, "stale")
		return nil
	}
	if err != nil {
		l.err = err
		l.mu.Unlock()
		metrics.ObserveLoad(l.kind.Name, "error")
		l.notify(EventFailed, "")
		return fmt.Errorf("load %s: %w", l.kind.Name, err)
	}
	if items == nil {
		items = []T{}
	}
	l.items = items
	l.applied = gen
	l.err = nil
	if l.onApplied != nil {
		l.onApplied()
	}
	l.mu.Unlock()

	metrics.ObserveLoad(l.kind.Name, "applied")
	l.notify(EventLoaded, "")
	return nil
}

// Create validates draft and sends it. The created entity is put in front of
// the items without a reload, replacing a copy with the same id.
func (l *List[T, D]) Create(ctx context.Context, draft D) (T, error) {
	var zero T
	if err := draft.Validate(); err != nil {
		l.fail(err)
		return zero, err
	}

	l.begin()
	created, err := l.accessor.Create(ctx, draft)
	if err != nil {
		l.end(err)
		l.notify(EventFailed, "")
		return zero, fmt.Errorf("create %s: %w", l.kind.Name, err)
	}

	l.mu.Lock()
	// A load that landed first may already hold the new entity.
	rest := slices.DeleteFunc(slices.Clone(l.items), func(item T) bool { return item.Key() == created.Key() })
	l.items = append([]T{created}, rest...)
	l.pending--
	l.err = nil
	l.mu.Unlock()

	l.notify(EventCreated, created.Key())
	return created, nil
}

// Submit creates an entity from the held form. The form is reset to the
// kind's defaults on success and kept as entered on failure.
func (l *List[T, D]) Submit(ctx context.Context) (T, error) {
	created, err := l.Create(ctx, l.Form())
	if err != nil {
		return created, err
	}
	l.mu.Lock()
	l.form = l.kind.NewDraft()
	l.mu.Unlock()
	return created, nil
}

func (l *List[T, D]) Form() D {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.form
}

func (l *List[T, D]) SetForm(d D) {
	l.mu.Lock()
	l.form = d
	l.mu.Unlock()
}

// FilteredView returns the items passing the search text and every
// enumerated filter that is not All. The sequence works on a snapshot taken
// when FilteredView is called and can be ranged over any number of times.
func (l *List[T, D]) FilteredView() iter.Seq[T] {
	l.mu.Lock()
	items := l.items
	search := strings.ToLower(l.search)
	active := make(map[string]string, len(l.filters))
	for name, want := range l.filters {
		if want != "" && want != All {
			active[name] = want
		}
	}
	l.mu.Unlock()

	return func(yield func(T) bool) {
		for _, item := range items {
			if !l.matches(item, search, active) {
				continue
			}
			if !yield(item) {
				return
			}
		}
	}
}

// Filtered collects FilteredView.
func (l *List[T, D]) Filtered() []T {
	out := slices.Collect(l.FilteredView())
	if out == nil {
		out = []T{}
	}
	return out
}

func (l *List[T, D]) matches(item T, search string, active map[string]string) bool {
	if search != "" {
		hit := false
		for _, field := range l.kind.SearchFields(item) {
			if strings.Contains(strings.ToLower(field), search) {
				hit = true
				break
			}
		}
		if !hit {
			return false
		}
	}
	for name, want := range active {
		if l.kind.Filters[name](item) != want {
			return false
		}
	}
	return true
}

func (l *List[T, D]) SetSearch(text string) {
	l.mu.Lock()
	l.search = text
	l.mu.Unlock()
	l.notify(EventFiltered, "")
}

func (l *List[T, D]) Search() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.search
}

// SetFilter sets one enumerated filter. Values are compared exactly; All or
// the empty string clears the filter.
func (l *List[T, D]) SetFilter(name, value string) error {
	if _, ok := l.kind.Filters[name]; !ok {
		return fmt.Errorf("%w %q for %s", ErrUnknownFilter, name, l.kind.Name)
	}
	l.mu.Lock()
	l.filters[name] = value
	l.mu.Unlock()
	l.notify(EventFiltered, "")
	return nil
}

func (l *List[T, D]) Filter(name string) string {
	l.mu.Lock()
	defer l.mu.Unlock()
	if v := l.filters[name]; v != "" {
		return v
	}
	return All
}

// FilterNames lists the kind's enumerated filters in sorted order.
func (l *List[T, D]) FilterNames() []string {
	return slices.Sorted(maps.Keys(l.kind.Filters))
}

func (l *List[T, D]) ResetFilters() {
	l.mu.Lock()
	l.search = ""
	clear(l.filters)
	l.mu.Unlock()
	l.notify(EventFiltered, "")
}

// Counts tallies the items by the value of the named filter field.
func (l *List[T, D]) Counts(name string) (map[string]int, error) {
	field, ok := l.kind.Filters[name]
	if !ok {
		return nil, fmt.Errorf("%w %q for %s", ErrUnknownFilter, name, l.kind.Name)
	}
	return lo.CountValuesBy(l.Items(), field), nil
}

func (l *List[T, D]) Items() []T {
	l.mu.Lock()
	defer l.mu.Unlock()
	return slices.Clone(l.items)
}

func (l *List[T, D]) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.items)
}

// Get returns the local copy of id.
func (l *List[T, D]) Get(id string) (T, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	i := l.index(id)
	if i < 0 {
		var zero T
		return zero, false
	}
	return l.items[i], true
}

func (l *List[T, D]) Select(id string) error {
	l.mu.Lock()
	if l.index(id) < 0 {
		l.mu.Unlock()
		return fmt.Errorf("select %s %q: %w", l.kind.Name, id, ErrUnknownID)
	}
	l.selected = id
	l.mu.Unlock()
	return nil
}

// Selected returns the current local copy of the selected entity. The
// selection is gone once its entity leaves the items.
func (l *List[T, D]) Selected() (T, bool) {
	l.mu.Lock()
	id := l.selected
	l.mu.Unlock()
	if id == "" {
		var zero T
		return zero, false
	}
	return l.Get(id)
}

func (l *List[T, D]) ClearSelection() {
	l.mu.Lock()
	l.selected = ""
	l.mu.Unlock()
}

// Err returns the error of the last failed load or mutation, or nil once a
// later one succeeded.
func (l *List[T, D]) Err() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.err
}

// Pending reports whether a load or mutation is in flight.
func (l *List[T, D]) Pending() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.pending > 0
}

func (l *List[T, D]) Subscribe() (uint64, <-chan Event) {
	return l.events.Subscribe()
}

func (l *List[T, D]) Unsubscribe(id uint64) {
	l.events.Unsubscribe(id)
}

// Close ends every subscription.
func (l *List[T, D]) Close() {
	l.events.Close()
}

func (l *List[T, D]) notify(t EventType, id string) {
	l.events.Broadcast(Event{Kind: l.kind.Name, Type: t, ID: id})
}

// index must be called with mu held.
func (l *List[T, D]) index(id string) int {
	return slices.IndexFunc(l.items, func(item T) bool { return item.Key() == id })
}

func (l *List[T, D]) begin() {
	l.mu.Lock()
	l.pending++
	l.mu.Unlock()
}

func (l *List[T, D]) end(err error) {
	l.mu.Lock()
	l.pending--
	l.err = err
	l.mu.Unlock()
}

func (l *List[T, D]) fail(err error) {
	l.mu.Lock()
	l.err = err
	l.mu.Unlock()
	l.notify(EventFailed, "")
}
