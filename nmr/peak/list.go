package peak

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/cwbudde/algo-nmr/nmr/dim"
)

// ChangeKind identifies which of a list's change flags fired.
type ChangeKind int

const (
	// PeakChanged reports that the content of one or more peaks changed.
	PeakChanged ChangeKind = iota
	// ListChanged reports that list-level metadata (name, dimensions) changed.
	ListChanged
	// CountChanged reports that peaks were added or removed.
	CountChanged
)

func (k ChangeKind) String() string {
	switch k {
	case PeakChanged:
		return "peak"
	case ListChanged:
		return "list"
	case CountChanged:
		return "count"
	default:
		return fmt.Sprintf("ChangeKind(%d)", int(k))
	}
}

// Listener receives per-list change notifications.
type Listener func(l *List, kind ChangeKind)

type listenerEntry struct {
	fn Listener
}

// List is a named collection of peaks over NDim spectral dimensions.
type List struct {
	reg *Registry

	mu     sync.RWMutex
	name   string
	dims   []dim.Dimension
	peaks  map[int]*Peak
	order  []*Peak
	nextID int

	valid atomic.Bool

	peakUpdated  atomic.Bool
	listUpdated  atomic.Bool
	countUpdated atomic.Bool

	sched     atomic.Pointer[Scheduler]
	listeners atomic.Pointer[[]*listenerEntry]
	lmu       sync.Mutex // serializes listener writers
}

func newList(reg *Registry, name string, dims []dim.Dimension) *List {
	l := &List{
		reg:   reg,
		name:  name,
		dims:  dims,
		peaks: make(map[int]*Peak),
	}
	l.valid.Store(true)
	return l
}

// Name returns the list name.
func (l *List) Name() string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.name
}

// NDim returns the number of spectral dimensions.
func (l *List) NDim() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.dims)
}

// Valid reports whether the list is still registered.
func (l *List) Valid() bool {
	return l.valid.Load()
}

// Dim returns a copy of the i-th spectral dimension.
func (l *List) Dim(i int) dim.Dimension {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.dims[i]
}

// Dims returns a copy of all spectral dimensions.
func (l *List) Dims() []dim.Dimension {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]dim.Dimension, len(l.dims))
	copy(out, l.dims)
	return out
}

// SetDim replaces the i-th spectral dimension.
func (l *List) SetDim(i int, d dim.Dimension) error {
	if err := d.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidDimension, err)
	}

	l.mu.Lock()
	if i < 0 || i >= len(l.dims) {
		n := len(l.dims)
		l.mu.Unlock()
		return fmt.Errorf("%w: index %d outside [0,%d)", ErrInvalidDimension, i, n)
	}
	l.dims[i] = d
	l.mu.Unlock()

	l.touch(ListChanged)
	return nil
}

// Size returns the number of peaks.
func (l *List) Size() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.order)
}

// Peak returns the peak with the given id.
func (l *List) Peak(id int) (*Peak, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	p, ok := l.peaks[id]
	return p, ok
}

// Peaks returns the peaks in insertion order.
func (l *List) Peaks() []*Peak {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]*Peak, len(l.order))
	copy(out, l.order)
	return out
}

// AddPeak appends a new empty peak with the next unused id.
func (l *List) AddPeak() *Peak {
	l.mu.Lock()
	p := l.insertLocked(l.nextID)
	l.mu.Unlock()

	l.touch(CountChanged)
	return p
}

// AddPeakAt appends a new peak with one chemical shift per dimension.
func (l *List) AddPeakAt(shifts ...float64) (*Peak, error) {
	if n := l.NDim(); len(shifts) != n {
		return nil, fmt.Errorf("%w: %d shifts for %d dimensions", ErrInvalidDimension, len(shifts), n)
	}

	l.mu.Lock()
	p := l.insertLocked(l.nextID)
	for i, s := range shifts {
		p.dims[i].chemShift = s
	}
	l.mu.Unlock()

	l.touch(CountChanged)
	return p, nil
}

// CopyPeak appends a copy of src, which may belong to another list. The
// copy gets a new id in this list.
func (l *List) CopyPeak(src *Peak) (*Peak, error) {
	if src.NDim() != l.NDim() {
		return nil, fmt.Errorf("%w: peak has %d dimensions, list %q has %d",
			ErrInvalidDimension, src.NDim(), l.Name(), l.NDim())
	}

	src.mu.RLock()
	status, intensity, volume := src.status, src.intensity, src.volume
	dims := make([]Dim, len(src.dims))
	for i, d := range src.dims {
		dims[i] = Dim{chemShift: d.chemShift, lineWidth: d.lineWidth, bounds: d.bounds, label: d.label}
	}
	src.mu.RUnlock()

	l.mu.Lock()
	p := l.insertLocked(l.nextID)
	p.status = max(status, 0)
	p.intensity = intensity
	p.volume = volume
	for i := range dims {
		p.dims[i].chemShift = dims[i].chemShift
		p.dims[i].lineWidth = dims[i].lineWidth
		p.dims[i].bounds = dims[i].bounds
		p.dims[i].label = dims[i].label
	}
	l.mu.Unlock()

	l.touch(CountChanged)
	return p, nil
}

// insertLocked creates and appends a peak with the given id. id must not
// be below nextID.
func (l *List) insertLocked(id int) *Peak {
	p := newPeak(l, id, len(l.dims))
	l.peaks[id] = p
	l.order = append(l.order, p)
	l.nextID = id + 1
	return p
}

// RemovePeak removes the peak with the given id. Surviving peaks keep
// their ids.
func (l *List) RemovePeak(id int) bool {
	l.mu.Lock()
	p, ok := l.peaks[id]
	if ok {
		l.removeLocked(map[int]bool{id: true})
	}
	l.mu.Unlock()

	if ok {
		p.markDeleted()
		l.touch(PeakChanged)
		l.touch(CountChanged)
	}
	return ok
}

func (l *List) removeLocked(ids map[int]bool) {
	kept := l.order[:0]
	for _, p := range l.order {
		if ids[p.id] {
			delete(l.peaks, p.id)
			continue
		}
		kept = append(kept, p)
	}
	for i := len(kept); i < len(l.order); i++ {
		l.order[i] = nil
	}
	l.order = kept
}

// RemovePeaksInRegion removes every peak whose first-dimension chemical
// shift lies in the region's first-dimension interval, inclusive. Peaks
// without a shift are kept. It returns the number of removed peaks.
func (l *List) RemovePeaksInRegion(r Region) (int, error) {
	if !r.Defined() {
		return 0, fmt.Errorf("%w: undefined bounds", ErrInvalidRegion)
	}
	lo, hi := r.Start(0), r.End(0)

	l.mu.Lock()
	ids := make(map[int]bool)
	var removed []*Peak
	for _, p := range l.order {
		p.mu.RLock()
		shift := p.dims[0].chemShift
		p.mu.RUnlock()
		if shift >= lo && shift <= hi {
			ids[p.id] = true
			removed = append(removed, p)
		}
	}
	if len(removed) > 0 {
		l.removeLocked(ids)
	}
	l.mu.Unlock()

	for _, p := range removed {
		p.markDeleted()
	}
	if len(removed) > 0 {
		l.touch(PeakChanged)
		l.touch(CountChanged)
	}
	return len(removed), nil
}

// BatchResult summarizes a batch operation that continues past failures.
type BatchResult struct {
	Removed   int
	Succeeded int
	Failed    int
	Err       error // joined per-item errors, nil when none failed
}

// RemovePeaksInRegions applies RemovePeaksInRegion for every region,
// continuing after invalid regions.
func (l *List) RemovePeaksInRegions(regions []Region) BatchResult {
	var (
		res  BatchResult
		errs []error
	)
	for i, r := range regions {
		n, err := l.RemovePeaksInRegion(r)
		if err != nil {
			res.Failed++
			errs = append(errs, fmt.Errorf("region %d: %w", i, err))
			continue
		}
		res.Succeeded++
		res.Removed += n
	}
	res.Err = errors.Join(errs...)
	return res
}

// PeaksInRegion returns the peaks whose shifts fall inside r in every
// dimension r and the list share. Peaks with an unset shift in one of
// those dimensions are excluded.
func (l *List) PeaksInRegion(r Region) ([]*Peak, error) {
	if !r.Defined() {
		return nil, fmt.Errorf("%w: undefined bounds", ErrInvalidRegion)
	}

	var out []*Peak
	for _, p := range l.Peaks() {
		if r.containsPeak(p) {
			out = append(out, p)
		}
	}
	return out, nil
}

// Subscribe registers a listener for this list's change notifications. The
// returned function removes it.
func (l *List) Subscribe(fn Listener) (unsubscribe func()) {
	e := &listenerEntry{fn: fn}

	l.lmu.Lock()
	var next []*listenerEntry
	if cur := l.listeners.Load(); cur != nil {
		next = append(next, *cur...)
	}
	next = append(next, e)
	l.listeners.Store(&next)
	l.lmu.Unlock()

	return func() {
		l.lmu.Lock()
		defer l.lmu.Unlock()
		cur := l.listeners.Load()
		if cur == nil {
			return
		}
		next := make([]*listenerEntry, 0, len(*cur))
		for _, other := range *cur {
			if other != e {
				next = append(next, other)
			}
		}
		l.listeners.Store(&next)
	}
}

func (l *List) listenerSnapshot() []*listenerEntry {
	if cur := l.listeners.Load(); cur != nil {
		return *cur
	}
	return nil
}

// PeakUpdated reports whether the peak-changed flag is raised.
func (l *List) PeakUpdated() bool { return l.peakUpdated.Load() }

// PeakListUpdated reports whether the list-changed flag is raised.
func (l *List) PeakListUpdated() bool { return l.listUpdated.Load() }

// PeakCountUpdated reports whether the count-changed flag is raised.
func (l *List) PeakCountUpdated() bool { return l.countUpdated.Load() }

func (l *List) flag(kind ChangeKind) *atomic.Bool {
	switch kind {
	case ListChanged:
		return &l.listUpdated
	case CountChanged:
		return &l.countUpdated
	default:
		return &l.peakUpdated
	}
}

// touch raises a change flag and notifies the scheduler. The flag is
// stored before the scheduler is poked so the scan it triggers sees it.
func (l *List) touch(kind ChangeKind) {
	l.flag(kind).Store(true)
	if s := l.sched.Load(); s != nil {
		s.notify()
	}
}
