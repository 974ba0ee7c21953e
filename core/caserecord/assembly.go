// Package caserecord assembles everything open for one case: a debounced store per intake section,
// one for the coach details and the session editors opened from the case.
package caserecord

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"github.com/pratik071103/case-link-share/core"
	"github.com/pratik071103/case-link-share/core/autosave"
	"github.com/pratik071103/case-link-share/core/casefile"
	"github.com/pratik071103/case-link-share/core/session"
)

const (
	CoachDetailsKey  = "coach_details"
	maxNotifications = 50
)

type (
	Options struct {
		FieldDelay   time.Duration
		SectionDelay time.Duration
		SessionDelay time.Duration
		Logger       core.Logger
	}

	Deps struct {
		Cases    *casefile.Service
		Sessions *session.Service
		Source   session.TaxonomySource
	}

	SectionView struct {
		Key     string          `json:"section_key"`
		Data    autosave.Data   `json:"data"`
		Status  autosave.Status `json:"status"`
		Changed bool            `json:"changed"`
	}

	CoachView struct {
		Data    casefile.UpdateCoachDetails `json:"data"`
		Status  autosave.Status             `json:"status"`
		Changed bool                        `json:"changed"`
	}
)

func (opts *Options) setDefaults() {
	if opts.FieldDelay <= 0 {
		opts.FieldDelay = autosave.FieldDelay
	}
	if opts.SectionDelay <= 0 {
		opts.SectionDelay = autosave.SectionDelay
	}
	if opts.SessionDelay <= 0 {
		opts.SessionDelay = autosave.SessionDelay
	}
	if opts.Logger == nil {
		opts.Logger = core.NopLogger{}
	}
}

// Assembly is one open case.
type Assembly struct {
	c    casefile.Case
	deps Deps
	opts Options

	sections map[string]*autosave.Store[autosave.Data]
	coach    *autosave.Store[casefile.UpdateCoachDetails]

	mu       sync.Mutex
	editors  map[string]*session.Editor
	changed  map[string]bool
	notes    []autosave.Notification
	lastUsed time.Time
	closed   bool
}

// Open loads the case and seeds a store per section (defaults overlaid with stored data)
// plus one for the coach details. Unknown slugs yield casefile.ErrCaseNotFound.
func Open(ctx context.Context, deps Deps, slug string, opts Options) (*Assembly, error) {
	opts.setDefaults()

	c, err := deps.Cases.GetCase(ctx, slug)
	if err != nil {
		return nil, err
	}

	var (
		sectionData map[string]autosave.Data
		coach       casefile.CoachDetails
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		sectionData, err = deps.Cases.SectionData(gctx, c)
		return errors.Wrap(err, "loading sections")
	})
	g.Go(func() error {
		var err error
		coach, err = deps.Cases.GetCoachDetails(gctx, c.Record.ID)
		return errors.Wrap(err, "loading coach details")
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	a := &Assembly{
		c:        c,
		deps:     deps,
		opts:     opts,
		sections: make(map[string]*autosave.Store[autosave.Data], len(casefile.SectionKeys)),
		editors:  make(map[string]*session.Editor),
		changed:  make(map[string]bool),
		lastUsed: time.Now(),
	}
	notifier := autosave.NotifierFunc(a.notify)
	recordID := c.Record.ID

	for _, key := range casefile.SectionKeys {
		key := key
		store := autosave.New(autosave.Options[autosave.Data]{
			Kind:  "section",
			Key:   recordID + "/" + key,
			Delay: opts.SectionDelay,
			Save: func(ctx context.Context, d autosave.Data) error {
				_, err := deps.Cases.UpdateSection(ctx, recordID, key, d)
				return err
			},
			Clone:    autosave.CloneData,
			Notifier: notifier,
			Logger:   opts.Logger,
		})
		store.Initialize(sectionData[key])
		a.sections[key] = store
	}

	a.coach = autosave.New(autosave.Options[casefile.UpdateCoachDetails]{
		Kind:  "coach",
		Key:   recordID,
		Delay: opts.SectionDelay,
		Save: func(ctx context.Context, form casefile.UpdateCoachDetails) error {
			_, err := deps.Cases.SaveCoachDetails(ctx, recordID, form)
			return err
		},
		Notifier: notifier,
		Logger:   opts.Logger,
	})
	a.coach.Initialize(coach.Form())
	return a, nil
}

func (a *Assembly) notify(n autosave.Notification) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.notes = append(a.notes, n)
	if len(a.notes) > maxNotifications {
		a.notes = a.notes[len(a.notes)-maxNotifications:]
	}
}

// Notifications returns and clears the pending write-failure notifications.
func (a *Assembly) Notifications() []autosave.Notification {
	a.mu.Lock()
	defer a.mu.Unlock()
	notes := a.notes
	a.notes = nil
	if notes == nil {
		notes = []autosave.Notification{}
	}
	return notes
}

func (a *Assembly) Case() casefile.Case { return a.c }

func (a *Assembly) touch(changedKey string) {
	a.mu.Lock()
	a.lastUsed = time.Now()
	if changedKey != "" {
		a.changed[changedKey] = true
	}
	a.mu.Unlock()
}

func (a *Assembly) LastUsed() time.Time {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.lastUsed
}

func (a *Assembly) isChanged(key string) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.changed[key]
}

func (a *Assembly) sectionView(key string, store *autosave.Store[autosave.Data]) SectionView {
	return SectionView{Key: key, Data: store.Get(), Status: store.Status(), Changed: a.isChanged(key)}
}

// Sections lists every section in display order.
func (a *Assembly) Sections() []SectionView {
	a.touch("")
	views := make([]SectionView, 0, len(casefile.SectionKeys))
	for _, key := range casefile.SectionKeys {
		views = append(views, a.sectionView(key, a.sections[key]))
	}
	return views
}

func (a *Assembly) store(key string) (*autosave.Store[autosave.Data], error) {
	store, ok := a.sections[key]
	if !ok {
		return nil, casefile.ErrSectionNotFound
	}
	return store, nil
}

func (a *Assembly) Section(key string) (SectionView, error) {
	store, err := a.store(key)
	if err != nil {
		return SectionView{}, err
	}
	a.touch("")
	return a.sectionView(key, store), nil
}

// UpdateSection merges fields into the section's local payload and schedules a write.
// A single-field edit is debounced with the field window, anything larger with the section window.
func (a *Assembly) UpdateSection(key string, fields autosave.Data) (SectionView, error) {
	store, err := a.store(key)
	if err != nil {
		return SectionView{}, err
	}
	delay := a.opts.SectionDelay
	if len(fields) == 1 {
		delay = a.opts.FieldDelay
	}
	if _, err := store.UpdateWithin(delay, func(d autosave.Data) (autosave.Data, error) {
		return autosave.MergeSection(d, fields), nil
	}); err != nil {
		return SectionView{}, err
	}
	a.touch(key)
	return a.sectionView(key, store), nil
}

func (a *Assembly) Coach() CoachView {
	a.touch("")
	return CoachView{Data: a.coach.Get(), Status: a.coach.Status(), Changed: a.isChanged(CoachDetailsKey)}
}

// UpdateCoach replaces the coach details form and schedules a write.
func (a *Assembly) UpdateCoach(form casefile.UpdateCoachDetails) (CoachView, error) {
	if _, err := a.coach.Update(func(casefile.UpdateCoachDetails) (casefile.UpdateCoachDetails, error) {
		return form, nil
	}); err != nil {
		return CoachView{}, err
	}
	a.touch(CoachDetailsKey)
	return a.Coach(), nil
}

// Session returns the editor of one of the child's sessions, opening it on first use.
// The lookup runs outside the case lock; when two callers open the same session the
// first one to finish wins and the other editor is closed.
func (a *Assembly) Session(ctx context.Context, id string) (*session.Editor, error) {
	if ed, ok, err := a.cachedEditor(id); ok || err != nil {
		return ed, err
	}

	rec, err := a.deps.Sessions.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if rec.ChildID != a.c.ID {
		return nil, session.ErrNotFound
	}
	opened, err := session.OpenEditor(ctx, a.deps.Sessions, a.deps.Source, id, session.EditorOptions{
		Delay:    a.opts.SessionDelay,
		Notifier: autosave.NotifierFunc(a.notify),
		Logger:   a.opts.Logger,
	})
	if err != nil {
		return nil, err
	}

	a.mu.Lock()
	ed, ok := a.editors[id]
	closed := a.closed
	if !ok && !closed {
		a.editors[id] = opened
		ed = opened
	}
	a.mu.Unlock()

	if closed {
		opened.Close()
		return nil, autosave.ErrClosed
	}
	if ed != opened {
		opened.Close()
	}
	return ed, nil
}

func (a *Assembly) cachedEditor(id string) (*session.Editor, bool, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.closed {
		return nil, false, autosave.ErrClosed
	}
	a.lastUsed = time.Now()
	ed, ok := a.editors[id]
	return ed, ok, nil
}

// CloseSession discards the session editor. A write that has not fired yet is dropped.
func (a *Assembly) CloseSession(id string) {
	a.mu.Lock()
	ed, ok := a.editors[id]
	delete(a.editors, id)
	a.mu.Unlock()
	if ok {
		ed.Close()
	}
}

func (a *Assembly) openEditors() []*session.Editor {
	a.mu.Lock()
	defer a.mu.Unlock()
	ids := make([]string, 0, len(a.editors))
	for id := range a.editors {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	eds := make([]*session.Editor, 0, len(ids))
	for _, id := range ids {
		eds = append(eds, a.editors[id])
	}
	return eds
}

// Dirty reports whether any store of the case holds unsaved edits.
func (a *Assembly) Dirty() bool {
	for _, s := range a.sections {
		if s.Dirty() {
			return true
		}
	}
	if a.coach.Dirty() {
		return true
	}
	for _, ed := range a.openEditors() {
		if ed.Dirty() {
			return true
		}
	}
	return false
}

// Flush writes every dirty store now. A failed store does not cancel its siblings;
// the first error is returned once every write has finished.
func (a *Assembly) Flush(ctx context.Context) error {
	var g errgroup.Group
	for _, s := range a.sections {
		s := s
		g.Go(func() error { return s.Flush(ctx) })
	}
	g.Go(func() error { return a.coach.Flush(ctx) })
	for _, ed := range a.openEditors() {
		ed := ed
		g.Go(func() error { return ed.Save(ctx) })
	}
	return g.Wait()
}

// Close tears every store down. Pending writes that have not fired are dropped; call Flush first to keep them.
func (a *Assembly) Close() {
	a.mu.Lock()
	if a.closed {
		a.mu.Unlock()
		return
	}
	a.closed = true
	eds := make([]*session.Editor, 0, len(a.editors))
	for _, ed := range a.editors {
		eds = append(eds, ed)
	}
	a.editors = make(map[string]*session.Editor)
	a.mu.Unlock()

	for _, s := range a.sections {
		s.Close()
	}
	a.coach.Close()
	for _, ed := range eds {
		ed.Close()
	}
}
