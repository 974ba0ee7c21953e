package session

import (
	"context"
	"sync"
	"time"

	"github.com/pkg/errors"

	"github.com/pratik071103/case-link-share/core"
	"github.com/pratik071103/case-link-share/core/autosave"
	"github.com/pratik071103/case-link-share/core/skill"
	"github.com/pratik071103/case-link-share/core/taxonomy"
)

// TaxonomySource loads the skill taxonomy of a user from the assessment provider.
type TaxonomySource interface {
	Taxonomy(ctx context.Context, email string) (taxonomy.Taxonomy, error)
}

type EditorOptions struct {
	Delay    time.Duration // defaults to autosave.SessionDelay
	Notifier autosave.Notifier
	Logger   core.Logger
}

// Editor is the editing component of one session: the record and its skill entries live in a
// single debounced store, and the skill taxonomy drives the entries' selection cascade.
type Editor struct {
	store  *autosave.Store[Snapshot]
	source TaxonomySource

	mu    sync.RWMutex
	tax   taxonomy.Taxonomy
	email string
}

// OpenEditor loads the session and seeds an editor with it.
func OpenEditor(ctx context.Context, svc *Service, source TaxonomySource, id string, opts EditorOptions) (*Editor, error) {
	snap, err := svc.Load(ctx, id)
	if err != nil {
		return nil, err
	}
	if opts.Delay <= 0 {
		opts.Delay = autosave.SessionDelay
	}
	store := autosave.New(autosave.Options[Snapshot]{
		Kind:     "session",
		Key:      id,
		Delay:    opts.Delay,
		Save:     svc.Save,
		Clone:    Snapshot.Clone,
		Notifier: opts.Notifier,
		Logger:   opts.Logger,
	})
	store.Initialize(snap)
	return &Editor{store: store, source: source}, nil
}

func (ed *Editor) Snapshot() Snapshot      { return ed.store.Get() }
func (ed *Editor) Status() autosave.Status { return ed.store.Status() }

// SetFields edits session record fields.
func (ed *Editor) SetFields(p Patch) (Snapshot, error) {
	return ed.store.Update(func(s Snapshot) (Snapshot, error) {
		if err := s.Session.Apply(p); err != nil {
			return Snapshot{}, err
		}
		return s, nil
	})
}

// AddSkill appends a blank skill entry.
func (ed *Editor) AddSkill(manual bool) (Snapshot, error) {
	return ed.store.Update(func(s Snapshot) (Snapshot, error) {
		s.Entries = s.Entries.Add(manual)
		return s, nil
	})
}

// UpdateSkill edits the entry at index i; selection fields cascade against the loaded taxonomy.
// Calculated fields are recomputed before the edit is queued.
func (ed *Editor) UpdateSkill(i int, p skill.Patch) (Snapshot, error) {
	tax := ed.Taxonomy()
	return ed.store.Update(func(s Snapshot) (Snapshot, error) {
		if i < 0 || i >= len(s.Entries) {
			return Snapshot{}, skill.ErrIndexOutOfRange
		}
		e := s.Entries[i]
		if err := e.Apply(tax, p); err != nil {
			return Snapshot{}, err
		}
		entries, err := s.Entries.Replace(i, e)
		if err != nil {
			return Snapshot{}, err
		}
		s.Entries = entries
		return s, nil
	})
}

// RemoveSkill drops the entry at index i and re-sequences the rest.
func (ed *Editor) RemoveSkill(i int) (Snapshot, error) {
	return ed.store.Update(func(s Snapshot) (Snapshot, error) {
		entries, err := s.Entries.Remove(i)
		if err != nil {
			return Snapshot{}, err
		}
		s.Entries = entries
		return s, nil
	})
}

// LoadTaxonomy fetches the taxonomy for email. On failure the previously loaded taxonomy is kept as is.
func (ed *Editor) LoadTaxonomy(ctx context.Context, email string) (taxonomy.Taxonomy, error) {
	if ed.source == nil {
		return nil, errors.New("no taxonomy source configured")
	}
	tax, err := ed.source.Taxonomy(ctx, email)
	if err != nil {
		return nil, errors.Wrap(err, "loading taxonomy")
	}
	ed.mu.Lock()
	ed.tax = tax
	ed.email = email
	ed.mu.Unlock()
	return tax, nil
}

func (ed *Editor) Taxonomy() taxonomy.Taxonomy {
	ed.mu.RLock()
	defer ed.mu.RUnlock()
	return ed.tax
}

func (ed *Editor) TaxonomyEmail() string {
	ed.mu.RLock()
	defer ed.mu.RUnlock()
	return ed.email
}

// Save writes the current state now.
func (ed *Editor) Save(ctx context.Context) error {
	return ed.store.Flush(ctx)
}

func (ed *Editor) Dirty() bool { return ed.store.Dirty() }

func (ed *Editor) Close() { ed.store.Close() }
