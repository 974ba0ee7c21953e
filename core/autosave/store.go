// Package autosave keeps a locally editable copy of one entity and persists it with a trailing-edge debounce.
//
// Edits apply to the local copy immediately. Each edit (re)starts the entity's timer; when the timer
// fires the latest local snapshot is handed to the saver. A failed write keeps the local copy, reports
// through the Notifier and is not retried: the next edit or an explicit Flush triggers a new write.
package autosave

import (
	"context"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/pratik071103/case-link-share/core"
)

// Debounce windows.
const (
	FieldDelay   = 400 * time.Millisecond  // single field edits
	SectionDelay = 1000 * time.Millisecond // whole section / coach details
	SessionDelay = 2000 * time.Millisecond // session with its skill entries
)

var (
	// errors
	ErrNotInitialized = errors.New("store is not initialized")
	ErrClosed         = errors.New("store is closed")
)

var (
	writesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "caselink_autosave_writes_total",
		Help: "Remote writes issued by autosave stores, by entity kind and result",
	}, []string{"kind", "result"})

	coalescedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "caselink_autosave_coalesced_edits_total",
		Help: "Edits folded into a pending write instead of scheduling their own",
	}, []string{"kind"})
)

// State is the sync state of a store's local copy.
type State int

const (
	// Uninitialized: nothing loaded yet, edits are rejected.
	Uninitialized State = iota
	// Synced: seeded from the remote snapshot once; the local copy is now authoritative.
	Synced
)

func (s State) String() string {
	if s == Synced {
		return "synced"
	}
	return "uninitialized"
}

// Phase is what the "saved" indicator shows.
type Phase string

const (
	PhaseIdle    Phase = "idle"
	PhasePending Phase = "pending"
	PhaseSaving  Phase = "saving"
	PhaseSaved   Phase = "saved"
	PhaseFailed  Phase = "failed"
)

type Status struct {
	State       string     `json:"state"`
	Phase       Phase      `json:"phase"`
	Dirty       bool       `json:"dirty"`
	LastSavedAt *time.Time `json:"last_saved_at,omitempty"`
	LastError   string     `json:"last_error,omitempty"`
}

// SaveFunc persists a snapshot. It must be safe to call repeatedly with the same data.
type SaveFunc[T any] func(ctx context.Context, snapshot T) error

type (
	Notification struct {
		Kind string    `json:"kind"`
		Key  string    `json:"key"`
		Err  string    `json:"error"`
		At   time.Time `json:"at"`
	}

	// Notifier receives transient, user-facing write failures.
	Notifier interface {
		Notify(n Notification)
	}

	NotifierFunc func(n Notification)
)

func (f NotifierFunc) Notify(n Notification) { f(n) }

type Options[T any] struct {
	Kind     string // entity kind, for metrics and logs ("section", "coach", "session")
	Key      string // entity identity within its kind
	Delay    time.Duration
	Save     SaveFunc[T]
	Clone    func(T) T // deep copy; identity when nil
	Notifier Notifier
	Logger   core.Logger
}

// Store is the per-entity debounced store. The zero value is not usable; see New.
type Store[T any] struct {
	opts Options[T]

	mu        sync.Mutex
	state     State
	local     T
	version   uint64
	dirty     bool
	phase     Phase
	timer     *time.Timer
	timerGen  uint64
	lastSaved time.Time
	lastErr   error
	closed    bool

	writeMu  sync.Mutex // one write at a time per store
	inflight sync.WaitGroup
}

func New[T any](opts Options[T]) *Store[T] {
	if opts.Delay <= 0 {
		opts.Delay = FieldDelay
	}
	if opts.Clone == nil {
		opts.Clone = func(v T) T { return v }
	}
	if opts.Logger == nil {
		opts.Logger = core.NopLogger{}
	}
	return &Store[T]{opts: opts, phase: PhaseIdle}
}

// Initialize seeds the local copy from the remote snapshot, once.
// It returns false (and changes nothing) when the store was already seeded.
func (s *Store[T]) Initialize(remote T) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != Uninitialized || s.closed {
		return false
	}
	s.local = s.opts.Clone(remote)
	s.state = Synced
	return true
}

// Get returns a copy of the local state.
func (s *Store[T]) Get() T {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.opts.Clone(s.local)
}

// Update applies fn to the local copy right away and schedules a write.
// fn receives a copy and returns the new value; an error from fn leaves the store untouched.
func (s *Store[T]) Update(fn func(current T) (T, error)) (T, error) {
	return s.UpdateWithin(s.opts.Delay, fn)
}

// UpdateWithin is Update with an explicit debounce window for this edit.
func (s *Store[T]) UpdateWithin(delay time.Duration, fn func(current T) (T, error)) (T, error) {
	if delay <= 0 {
		delay = s.opts.Delay
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	var zero T
	if s.closed {
		return zero, ErrClosed
	}
	if s.state != Synced {
		return zero, ErrNotInitialized
	}

	next, err := fn(s.opts.Clone(s.local))
	if err != nil {
		return zero, err
	}
	s.local = next
	s.version++
	s.dirty = true
	s.phase = PhasePending
	s.schedule(delay)
	return s.opts.Clone(s.local), nil
}

// schedule restarts the debounce timer. Callers hold s.mu.
func (s *Store[T]) schedule(delay time.Duration) {
	if s.timer != nil && s.timer.Stop() {
		coalescedTotal.WithLabelValues(s.opts.Kind).Inc()
	}
	s.timerGen++
	gen := s.timerGen
	s.timer = time.AfterFunc(delay, func() { s.fire(gen) })
}

func (s *Store[T]) fire(gen uint64) {
	s.mu.Lock()
	if s.closed || gen != s.timerGen {
		s.mu.Unlock()
		return
	}
	s.timer = nil
	s.inflight.Add(1)
	s.mu.Unlock()

	defer s.inflight.Done()
	_ = s.write(context.Background())
}

// Flush cancels the pending timer and writes the latest local state now ("save now").
// Clean stores are not written.
func (s *Store[T]) Flush(ctx context.Context) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrClosed
	}
	if s.state != Synced {
		s.mu.Unlock()
		return ErrNotInitialized
	}
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
		s.timerGen++
	}
	if !s.dirty {
		s.mu.Unlock()
		return nil
	}
	s.inflight.Add(1)
	s.mu.Unlock()

	defer s.inflight.Done()
	return s.write(ctx)
}

func (s *Store[T]) write(ctx context.Context) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	s.mu.Lock()
	snapshot := s.opts.Clone(s.local)
	version := s.version
	s.phase = PhaseSaving
	s.mu.Unlock()

	err := s.opts.Save(ctx, snapshot)

	s.mu.Lock()
	if err != nil {
		s.phase = PhaseFailed
		s.lastErr = err
	} else {
		s.lastErr = nil
		s.lastSaved = time.Now().UTC()
		if version == s.version {
			s.dirty = false
			s.phase = PhaseSaved
		} else {
			s.phase = PhasePending
		}
	}
	s.mu.Unlock()

	if err != nil {
		writesTotal.WithLabelValues(s.opts.Kind, "error").Inc()
		s.opts.Logger.Error("autosave write failed", err, map[string]interface{}{"kind": s.opts.Kind, "key": s.opts.Key})
		if s.opts.Notifier != nil {
			s.opts.Notifier.Notify(Notification{Kind: s.opts.Kind, Key: s.opts.Key, Err: err.Error(), At: time.Now().UTC()})
		}
		return errors.Wrapf(err, "saving %s %s", s.opts.Kind, s.opts.Key)
	}
	writesTotal.WithLabelValues(s.opts.Kind, "ok").Inc()
	return nil
}

func (s *Store[T]) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := Status{State: s.state.String(), Phase: s.phase, Dirty: s.dirty}
	if !s.lastSaved.IsZero() {
		t := s.lastSaved
		st.LastSavedAt = &t
	}
	if s.lastErr != nil {
		st.LastError = s.lastErr.Error()
	}
	return st
}

func (s *Store[T]) Dirty() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dirty
}

// Close tears the store down. A timer that has not fired yet is cancelled and its write dropped;
// a write already in flight is waited for.
func (s *Store[T]) Close() {
	s.mu.Lock()
	s.closed = true
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	s.timerGen++
	s.mu.Unlock()

	s.inflight.Wait()
}
