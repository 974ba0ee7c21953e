// Package session manages coaching sessions, their skill entries and the session editor.
package session

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/pratik071103/case-link-share/core"
	"github.com/pratik071103/case-link-share/core/skill"
)

var (
	// errors
	ErrNotFound       = core.NewNotFoundError("session")
	ErrSessionNoTaken = errors.New("this session number is already used")
)

type (
	Repository interface {
		// ListByChild returns the child's sessions ordered by session number.
		ListByChild(ctx context.Context, childID string) ([]Record, error)
		// MaxSessionNo returns the highest session number of the child, 0 when there is none.
		MaxSessionNo(ctx context.Context, childID string) (int, error)
		Get(ctx context.Context, id string) (Record, error)
		Create(ctx context.Context, rec Record) (Record, error)
		Update(ctx context.Context, rec Record) (Record, error)
		Delete(ctx context.Context, id string) error

		// ListEntries returns the session's skill entries ordered by skill_order.
		ListEntries(ctx context.Context, sessionID string) (skill.Entries, error)
		// ReplaceEntries deletes every entry of the session, then inserts entries.
		ReplaceEntries(ctx context.Context, sessionID string, entries skill.Entries) error
	}

	Service struct {
		repo  Repository
		today func() time.Time
	}
)

func NewService(repo Repository) *Service {
	return &Service{repo: repo, today: func() time.Time { return time.Now().UTC() }}
}

func (svc *Service) List(ctx context.Context, childID string) ([]Record, error) {
	return svc.repo.ListByChild(ctx, childID)
}

// NextNumber is the highest session number of the child plus one.
func (svc *Service) NextNumber(ctx context.Context, childID string) (int, error) {
	max, err := svc.repo.MaxSessionNo(ctx, childID)
	if err != nil {
		return 0, errors.Wrap(err, "finding last session number")
	}
	return max + 1, nil
}

func (svc *Service) Create(ctx context.Context, childID string, nr NewRecord) (Record, error) {
	no := nr.SessionNo
	if no == 0 {
		var err error
		if no, err = svc.NextNumber(ctx, childID); err != nil {
			return Record{}, err
		}
	}
	date := nr.SessionDate
	if date == "" {
		date = svc.today().Format(dateLayout)
	}
	typ := nr.SessionType
	if typ == "" {
		typ = DefaultType
	}

	now := time.Now().UTC()
	rec := Record{
		ChildID:     childID,
		SessionNo:   no,
		SessionDate: date,
		SessionType: typ,
		Attendance:  null.NewString(nr.Attendance, nr.Attendance != ""),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	rec, err := svc.repo.Create(ctx, rec)
	if err != nil {
		if errors.Cause(err) == ErrSessionNoTaken {
			return Record{}, core.NewValidationError(err, core.FieldError{Field: "session_no", Error: err.Error()})
		}
		return Record{}, errors.Wrap(err, "creating session")
	}
	return rec, nil
}

func (svc *Service) Get(ctx context.Context, id string) (Record, error) {
	return svc.repo.Get(ctx, id)
}

// Update applies a partial edit to a stored session.
func (svc *Service) Update(ctx context.Context, id string, p Patch) (Record, error) {
	rec, err := svc.repo.Get(ctx, id)
	if err != nil {
		return Record{}, err
	}
	if err := rec.Apply(p); err != nil {
		return Record{}, err
	}
	rec.UpdatedAt = time.Now().UTC()
	return svc.repo.Update(ctx, rec)
}

func (svc *Service) Delete(ctx context.Context, id string) error {
	return svc.repo.Delete(ctx, id)
}

func (svc *Service) ListEntries(ctx context.Context, sessionID string) (skill.Entries, error) {
	return svc.repo.ListEntries(ctx, sessionID)
}

// ReplaceEntries stores entries as the complete list of the session's skill entries.
// Calculated fields are recomputed and skill_order follows list positions.
func (svc *Service) ReplaceEntries(ctx context.Context, sessionID string, entries skill.Entries) error {
	out := make(skill.Entries, 0, len(entries))
	for i, e := range entries {
		e.SessionID = sessionID
		e.SkillOrder = i
		out = append(out, skill.Recalculate(e))
	}
	return errors.Wrap(svc.repo.ReplaceEntries(ctx, sessionID, out), "replacing skill entries")
}

// Load returns a session together with its skill entries.
func (svc *Service) Load(ctx context.Context, id string) (Snapshot, error) {
	rec, err := svc.repo.Get(ctx, id)
	if err != nil {
		return Snapshot{}, err
	}
	entries, err := svc.repo.ListEntries(ctx, id)
	if err != nil {
		return Snapshot{}, errors.Wrap(err, "listing skill entries")
	}
	if entries == nil {
		entries = skill.Entries{}
	}
	return Snapshot{Session: rec, Entries: entries}, nil
}

// Save writes the session record, then replaces its skill entries.
func (svc *Service) Save(ctx context.Context, snap Snapshot) error {
	rec := snap.Session
	rec.UpdatedAt = time.Now().UTC()
	if _, err := svc.repo.Update(ctx, rec); err != nil {
		return errors.Wrap(err, "updating session")
	}
	return svc.ReplaceEntries(ctx, rec.ID, snap.Entries)
}
