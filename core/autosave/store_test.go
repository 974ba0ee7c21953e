package autosave

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testDelay = 30 * time.Millisecond

type recorder struct {
	mu    sync.Mutex
	saved []Data
	fail  error
	block chan struct{}
}

func (r *recorder) save(_ context.Context, d Data) error {
	if r.block != nil {
		<-r.block
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.fail != nil {
		return r.fail
	}
	r.saved = append(r.saved, d)
	return nil
}

func (r *recorder) calls() []Data {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Data, len(r.saved))
	copy(out, r.saved)
	return out
}

func (r *recorder) setFail(err error) {
	r.mu.Lock()
	r.fail = err
	r.mu.Unlock()
}

func newTestStore(rec *recorder, n Notifier) *Store[Data] {
	return New(Options[Data]{
		Kind:     "section",
		Key:      "general_info",
		Delay:    testDelay,
		Save:     rec.save,
		Clone:    CloneData,
		Notifier: n,
	})
}

func setField(field string, value interface{}) func(Data) (Data, error) {
	return func(d Data) (Data, error) {
		d[field] = value
		return d, nil
	}
}

func TestStore_updateBeforeInitialize(t *testing.T) {
	s := newTestStore(&recorder{}, nil)
	defer s.Close()

	_, err := s.Update(setField("a", 1.0))
	assert.Equal(t, ErrNotInitialized, err)
	assert.Equal(t, ErrNotInitialized, s.Flush(context.Background()))
	assert.Equal(t, "uninitialized", s.Status().State)
}

func TestStore_initializeOnce(t *testing.T) {
	s := newTestStore(&recorder{}, nil)
	defer s.Close()

	assert.True(t, s.Initialize(Data{"name": "remote"}))
	_, err := s.Update(setField("name", "local"))
	require.NoError(t, err)

	// a later remote snapshot does not clobber local edits
	assert.False(t, s.Initialize(Data{"name": "refetched"}))
	assert.Equal(t, "local", s.Get()["name"])
}

func TestStore_coalescesBurst(t *testing.T) {
	rec := &recorder{}
	s := newTestStore(rec, nil)
	defer s.Close()
	s.Initialize(Data{})

	for i := 1; i <= 10; i++ {
		local, err := s.Update(setField("n", float64(i)))
		require.NoError(t, err)
		assert.Equal(t, float64(i), local["n"], "local copy reflects the edit immediately")
	}
	assert.Equal(t, PhasePending, s.Status().Phase)

	require.Eventually(t, func() bool { return len(rec.calls()) == 1 }, time.Second, 5*time.Millisecond)
	time.Sleep(3 * testDelay)

	calls := rec.calls()
	require.Len(t, calls, 1)
	assert.Equal(t, 10.0, calls[0]["n"])

	st := s.Status()
	assert.Equal(t, PhaseSaved, st.Phase)
	assert.False(t, st.Dirty)
	assert.NotNil(t, st.LastSavedAt)
}

func TestStore_separateWindows(t *testing.T) {
	rec := &recorder{}
	s := newTestStore(rec, nil)
	defer s.Close()
	s.Initialize(Data{})

	_, _ = s.Update(setField("n", 1.0))
	require.Eventually(t, func() bool { return len(rec.calls()) == 1 }, time.Second, 5*time.Millisecond)
	_, _ = s.Update(setField("n", 2.0))
	require.Eventually(t, func() bool { return len(rec.calls()) == 2 }, time.Second, 5*time.Millisecond)

	calls := rec.calls()
	assert.Equal(t, 1.0, calls[0]["n"])
	assert.Equal(t, 2.0, calls[1]["n"])
}

func TestStore_failureKeepsLocalState(t *testing.T) {
	rec := &recorder{}
	rec.setFail(errors.New("network down"))

	var mu sync.Mutex
	var notes []Notification
	s := newTestStore(rec, NotifierFunc(func(n Notification) {
		mu.Lock()
		notes = append(notes, n)
		mu.Unlock()
	}))
	defer s.Close()
	s.Initialize(Data{})

	_, _ = s.Update(setField("school_name", "St. Mary"))
	require.Eventually(t, func() bool { return s.Status().Phase == PhaseFailed }, time.Second, 5*time.Millisecond)

	st := s.Status()
	assert.True(t, st.Dirty)
	assert.Equal(t, "network down", st.LastError)
	assert.Equal(t, "St. Mary", s.Get()["school_name"])

	mu.Lock()
	require.Len(t, notes, 1)
	assert.Equal(t, "section", notes[0].Kind)
	assert.Equal(t, "general_info", notes[0].Key)
	mu.Unlock()

	// no automatic retry
	time.Sleep(3 * testDelay)
	assert.Empty(t, rec.calls())

	// manual save now succeeds once storage recovers
	rec.setFail(nil)
	require.NoError(t, s.Flush(context.Background()))
	calls := rec.calls()
	require.Len(t, calls, 1)
	assert.Equal(t, "St. Mary", calls[0]["school_name"])
	assert.Equal(t, PhaseSaved, s.Status().Phase)
	assert.Empty(t, s.Status().LastError)
}

func TestStore_flush(t *testing.T) {
	rec := &recorder{}
	s := New(Options[Data]{Kind: "section", Delay: time.Hour, Save: rec.save, Clone: CloneData})
	defer s.Close()
	s.Initialize(Data{})

	// clean store: nothing to write
	require.NoError(t, s.Flush(context.Background()))
	assert.Empty(t, rec.calls())

	_, _ = s.Update(setField("a", "b"))
	require.NoError(t, s.Flush(context.Background()))
	require.Len(t, rec.calls(), 1)
	assert.Equal(t, "b", rec.calls()[0]["a"])
	assert.False(t, s.Dirty())
}

func TestStore_closeDropsPendingWrite(t *testing.T) {
	rec := &recorder{}
	s := newTestStore(rec, nil)
	s.Initialize(Data{})

	_, _ = s.Update(setField("a", 1.0))
	s.Close()
	time.Sleep(3 * testDelay)
	assert.Empty(t, rec.calls())

	_, err := s.Update(setField("a", 2.0))
	assert.Equal(t, ErrClosed, err)
	assert.Equal(t, ErrClosed, s.Flush(context.Background()))
}

func TestStore_closeWaitsForInflightWrite(t *testing.T) {
	rec := &recorder{block: make(chan struct{})}
	s := newTestStore(rec, nil)
	s.Initialize(Data{})
	_, _ = s.Update(setField("a", 1.0))

	require.Eventually(t, func() bool { return s.Status().Phase == PhaseSaving }, time.Second, 5*time.Millisecond)

	closed := make(chan struct{})
	go func() {
		s.Close()
		close(closed)
	}()

	select {
	case <-closed:
		t.Fatal("Close returned before the in-flight write completed")
	case <-time.After(2 * testDelay):
	}

	close(rec.block)
	select {
	case <-closed:
	case <-time.After(time.Second):
		t.Fatal("Close did not return")
	}
	require.Len(t, rec.calls(), 1)
}

func TestStore_updateErrorLeavesStateUntouched(t *testing.T) {
	rec := &recorder{}
	s := newTestStore(rec, nil)
	defer s.Close()
	s.Initialize(Data{"a": 1.0})

	_, err := s.Update(func(d Data) (Data, error) {
		d["a"] = 2.0
		return nil, errors.New("bad edit")
	})
	require.Error(t, err)
	assert.Equal(t, 1.0, s.Get()["a"])
	assert.Equal(t, PhaseIdle, s.Status().Phase)
	assert.False(t, s.Dirty())
}

func TestStore_getReturnsCopy(t *testing.T) {
	s := newTestStore(&recorder{}, nil)
	defer s.Close()
	s.Initialize(Data{"a": 1.0})

	d := s.Get()
	d["a"] = 5.0
	assert.Equal(t, 1.0, s.Get()["a"])
}

func TestStore_updateWithin(t *testing.T) {
	rec := &recorder{}
	s := New(Options[Data]{Kind: "section", Delay: time.Hour, Save: rec.save, Clone: CloneData})
	defer s.Close()
	s.Initialize(Data{})

	_, err := s.UpdateWithin(testDelay, setField("a", 1.0))
	require.NoError(t, err)
	require.Eventually(t, func() bool { return len(rec.calls()) == 1 }, time.Second, 5*time.Millisecond)
}
