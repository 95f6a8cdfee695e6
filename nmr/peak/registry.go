package peak

import (
	"fmt"
	"strconv"
	"sync"
	"sync/atomic"

	"github.com/cwbudde/algo-nmr/nmr/dim"
)

// Registry maps unique names to peak lists. Writers are serialized; the
// scheduler reads an immutable snapshot without locking.
type Registry struct {
	mu       sync.Mutex
	byName   map[string]*List
	snapshot atomic.Pointer[[]*List]
	sched    atomic.Pointer[Scheduler]
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	r := &Registry{byName: make(map[string]*List)}
	r.snapshot.Store(&[]*List{})
	return r
}

// Create registers a new list with nDim default dimensions.
func (r *Registry) Create(name string, nDim int) (*List, error) {
	if nDim < 1 {
		return nil, fmt.Errorf("%w: list %q needs at least one dimension, got %d", ErrInvalidDimension, name, nDim)
	}

	dims := make([]dim.Dimension, nDim)
	for i := range dims {
		dims[i] = dim.Default()
		dims[i].Label = "D" + strconv.Itoa(i+1)
	}
	return r.register(name, dims)
}

// CreateWithDims registers a new list over the given dimensions.
func (r *Registry) CreateWithDims(name string, dims ...dim.Dimension) (*List, error) {
	if len(dims) == 0 {
		return nil, fmt.Errorf("%w: list %q needs at least one dimension", ErrInvalidDimension, name)
	}
	for i, d := range dims {
		if err := d.Validate(); err != nil {
			return nil, fmt.Errorf("%w: dimension %d: %w", ErrInvalidDimension, i, err)
		}
	}

	own := make([]dim.Dimension, len(dims))
	copy(own, dims)
	return r.register(name, own)
}

func (r *Registry) register(name string, dims []dim.Dimension) (*List, error) {
	if name == "" {
		return nil, ErrEmptyName
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byName[name]; ok {
		return nil, fmt.Errorf("%w: %q", ErrDuplicateName, name)
	}

	l := newList(r, name, dims)
	if s := r.sched.Load(); s != nil {
		l.sched.Store(s)
	}
	r.byName[name] = l
	r.publishLocked(append(r.lists(), l))

	l.touch(ListChanged)
	return l, nil
}

// Get looks up a list by name.
func (r *Registry) Get(name string) (*List, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	l, ok := r.byName[name]
	return l, ok
}

// Remove unregisters the named list. The list reports Valid() == false
// afterwards and no longer takes part in notification scans.
func (r *Registry) Remove(name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	l, ok := r.byName[name]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownList, name)
	}
	delete(r.byName, name)
	l.valid.Store(false)

	cur := r.lists()
	next := make([]*List, 0, len(cur))
	for _, other := range cur {
		if other != l {
			next = append(next, other)
		}
	}
	r.publishLocked(next)
	return nil
}

// Rename changes a list's registered name.
func (r *Registry) Rename(oldName, newName string) error {
	if newName == "" {
		return ErrEmptyName
	}

	r.mu.Lock()
	l, ok := r.byName[oldName]
	if !ok {
		r.mu.Unlock()
		return fmt.Errorf("%w: %q", ErrUnknownList, oldName)
	}
	if _, taken := r.byName[newName]; taken {
		r.mu.Unlock()
		return fmt.Errorf("%w: %q", ErrDuplicateName, newName)
	}
	delete(r.byName, oldName)
	r.byName[newName] = l

	l.mu.Lock()
	l.name = newName
	l.mu.Unlock()
	r.mu.Unlock()

	l.touch(ListChanged)
	return nil
}

// Names returns registered names in creation order.
func (r *Registry) Names() []string {
	lists := r.lists()
	names := make([]string, len(lists))
	for i, l := range lists {
		names[i] = l.Name()
	}
	return names
}

// Lists returns the registered lists in creation order.
func (r *Registry) Lists() []*List {
	cur := r.lists()
	out := make([]*List, len(cur))
	copy(out, cur)
	return out
}

// lists returns the current snapshot; callers must not modify it.
func (r *Registry) lists() []*List {
	return *r.snapshot.Load()
}

func (r *Registry) publishLocked(lists []*List) {
	next := make([]*List, len(lists))
	copy(next, lists)
	r.snapshot.Store(&next)
}

func (r *Registry) attach(s *Scheduler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sched.Store(s)
	for _, l := range r.lists() {
		l.sched.Store(s)
	}
}

func (r *Registry) detach(s *Scheduler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sched.CompareAndSwap(s, nil)
	for _, l := range r.lists() {
		l.sched.CompareAndSwap(s, nil)
	}
}
