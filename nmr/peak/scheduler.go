package peak

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/cwbudde/algo-nmr/internal/clock"
)

// DefaultWindow is the default coalescing window.
const DefaultWindow = 50 * time.Millisecond

// State is the scheduler's position in its Idle -> Pending -> Firing cycle.
type State int32

const (
	// Idle means no timer is armed.
	Idle State = iota
	// Pending means a timer is armed and mutations are being coalesced.
	Pending
	// Firing means a notification scan is running.
	Firing
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Pending:
		return "pending"
	case Firing:
		return "firing"
	default:
		return fmt.Sprintf("State(%d)", int32(s))
	}
}

// GlobalListener is called once per notification round with the lists
// whose flags were observed in that round.
type GlobalListener func(changed []*List)

type globalEntry struct {
	fn GlobalListener
}

// Scheduler debounces list mutations into bounded-rate notifications.
//
// Every mutation raises a list flag and the scheduler's changed flag, and
// arms a single timer if none is armed. When the timer fires with the
// changed flag set, the flag is cleared, a round is marked due and the
// timer is re-armed, so a continuous stream of mutations keeps deferring
// the notification. The first tick that finds no new mutation scans every
// registered list, clears raised flags and calls the per-list listeners,
// then the global listeners.
//
// At most one timer is armed at a time and scans run only from that timer,
// so scans never overlap.
type Scheduler struct {
	clock  clock.Clock
	window time.Duration
	logger *zap.Logger

	reg       atomic.Pointer[Registry]
	state     atomic.Int32
	changed   atomic.Bool
	fireDue   atomic.Bool
	closed    atomic.Bool
	timer     atomic.Pointer[timerRef]
	rounds    atomic.Int64
	listeners atomic.Pointer[[]*globalEntry]
	lmu       sync.Mutex
}

type timerRef struct {
	t clock.Timer
}

// SchedulerOption configures a Scheduler.
type SchedulerOption func(*Scheduler)

// WithWindow sets the coalescing window.
func WithWindow(d time.Duration) SchedulerOption {
	return func(s *Scheduler) {
		if d > 0 {
			s.window = d
		}
	}
}

// WithClock replaces the wall clock, typically with a clock.Fake in tests.
func WithClock(c clock.Clock) SchedulerOption {
	return func(s *Scheduler) {
		if c != nil {
			s.clock = c
		}
	}
}

// WithLogger sets the logger used for scan diagnostics and listener panics.
func WithLogger(l *zap.Logger) SchedulerOption {
	return func(s *Scheduler) {
		if l != nil {
			s.logger = l
		}
	}
}

// NewScheduler creates a scheduler for every list in reg, present and
// future. Lists with flags already raised are picked up by the first round.
func NewScheduler(reg *Registry, opts ...SchedulerOption) *Scheduler {
	s := &Scheduler{
		clock:  clock.Real(),
		window: DefaultWindow,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	s.reg.Store(reg)
	reg.attach(s)

	for _, l := range reg.lists() {
		if l.PeakUpdated() || l.PeakListUpdated() || l.PeakCountUpdated() {
			s.notify()
			break
		}
	}
	return s
}

// Window returns the coalescing window.
func (s *Scheduler) Window() time.Duration { return s.window }

// State returns the current scheduler state.
func (s *Scheduler) State() State { return State(s.state.Load()) }

// Rounds returns the number of notification rounds that observed at least
// one raised flag.
func (s *Scheduler) Rounds() int64 { return s.rounds.Load() }

// Subscribe registers a global listener. The returned function removes it.
func (s *Scheduler) Subscribe(fn GlobalListener) (unsubscribe func()) {
	e := &globalEntry{fn: fn}

	s.lmu.Lock()
	var next []*globalEntry
	if cur := s.listeners.Load(); cur != nil {
		next = append(next, *cur...)
	}
	next = append(next, e)
	s.listeners.Store(&next)
	s.lmu.Unlock()

	return func() {
		s.lmu.Lock()
		defer s.lmu.Unlock()
		cur := s.listeners.Load()
		if cur == nil {
			return
		}
		next := make([]*globalEntry, 0, len(*cur))
		for _, other := range *cur {
			if other != e {
				next = append(next, other)
			}
		}
		s.listeners.Store(&next)
	}
}

// Shutdown stops the pending timer and detaches the registry. A round
// already running may still complete; none starts afterwards.
func (s *Scheduler) Shutdown() {
	if !s.closed.CompareAndSwap(false, true) {
		return
	}
	if ref := s.timer.Load(); ref != nil {
		ref.t.Stop()
	}
	if reg := s.reg.Swap(nil); reg != nil {
		reg.detach(s)
	}
	s.state.Store(int32(Idle))
}

// notify records a mutation and arms the timer if idle. It never blocks.
func (s *Scheduler) notify() {
	s.changed.Store(true)
	s.arm()
}

func (s *Scheduler) arm() {
	if s.closed.Load() {
		return
	}
	if s.state.CompareAndSwap(int32(Idle), int32(Pending)) {
		s.schedule()
	}
}

func (s *Scheduler) schedule() {
	s.timer.Store(&timerRef{t: s.clock.AfterFunc(s.window, s.tick)})
}

func (s *Scheduler) tick() {
	if s.closed.Load() {
		s.state.Store(int32(Idle))
		return
	}

	if s.changed.Swap(false) {
		// More mutations arrived during the window: defer again.
		s.fireDue.Store(true)
		s.schedule()
		return
	}

	if s.fireDue.Swap(false) {
		s.state.Store(int32(Firing))
		s.scan()
	}
	s.state.Store(int32(Idle))

	// Mutations that raced with the scan could not arm the timer.
	if s.changed.Load() {
		s.arm()
	}
}

func (s *Scheduler) scan() {
	reg := s.reg.Load()
	if reg == nil {
		return
	}

	var changed []*List
	for _, l := range reg.lists() {
		fired := false
		for _, kind := range []ChangeKind{PeakChanged, ListChanged, CountChanged} {
			if !l.flag(kind).Swap(false) {
				continue
			}
			fired = true
			for _, e := range l.listenerSnapshot() {
				s.call(func() { e.fn(l, kind) })
			}
		}
		if fired {
			changed = append(changed, l)
		}
	}

	if len(changed) == 0 {
		return
	}
	s.rounds.Add(1)
	s.logger.Debug("peak lists changed", zap.Int("lists", len(changed)))

	if cur := s.listeners.Load(); cur != nil {
		for _, e := range *cur {
			s.call(func() { e.fn(changed) })
		}
	}
}

func (s *Scheduler) call(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("peak listener panicked", zap.Any("panic", r))
		}
	}()
	fn()
}
