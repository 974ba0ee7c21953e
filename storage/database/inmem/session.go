package inmemdb

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"github.com/pratik071103/case-link-share/core/session"
	"github.com/pratik071103/case-link-share/core/skill"
)

type sessionRepository struct {
	db *sessionTables
}

var _ session.Repository = (*sessionRepository)(nil) // interface compliance check

func NewSessionRepository(db *DB) session.Repository {
	return &sessionRepository{db: db.sessions}
}

func (repo *sessionRepository) ListByChild(_ context.Context, childID string) ([]session.Record, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	recs := make([]session.Record, 0)
	for _, r := range repo.db.sessions {
		if r.ChildID == childID {
			recs = append(recs, *r)
		}
	}
	sort.Slice(recs, func(i, j int) bool { return recs[i].SessionNo < recs[j].SessionNo })
	return recs, nil
}

func (repo *sessionRepository) MaxSessionNo(_ context.Context, childID string) (int, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	var max int
	for _, r := range repo.db.sessions {
		if r.ChildID == childID && r.SessionNo > max {
			max = r.SessionNo
		}
	}
	return max, nil
}

func (repo *sessionRepository) Get(_ context.Context, id string) (session.Record, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if r, ok := repo.db.sessions[id]; ok {
		return *r, nil
	}
	return session.Record{}, session.ErrNotFound
}

func (repo *sessionRepository) numberTaken(rec session.Record) bool {
	for _, r := range repo.db.sessions {
		if r.ChildID == rec.ChildID && r.SessionNo == rec.SessionNo && r.ID != rec.ID {
			return true
		}
	}
	return false
}

func (repo *sessionRepository) Create(_ context.Context, rec session.Record) (session.Record, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if repo.numberTaken(rec) {
		return session.Record{}, session.ErrSessionNoTaken
	}
	rec.ID = uuid.New().String()
	repo.db.sessions[rec.ID] = &rec
	return rec, nil
}

func (repo *sessionRepository) Update(_ context.Context, rec session.Record) (session.Record, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	orig, ok := repo.db.sessions[rec.ID]
	if !ok {
		return session.Record{}, session.ErrNotFound
	}
	// identity is immutable
	rec.ChildID = orig.ChildID
	rec.SessionNo = orig.SessionNo
	rec.CreatedAt = orig.CreatedAt
	repo.db.sessions[rec.ID] = &rec
	return rec, nil
}

func (repo *sessionRepository) Delete(_ context.Context, id string) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.sessions[id]; !ok {
		return session.ErrNotFound
	}
	delete(repo.db.sessions, id)
	delete(repo.db.entries, id)
	return nil
}

func (repo *sessionRepository) ListEntries(_ context.Context, sessionID string) (skill.Entries, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	entries := repo.db.entries[sessionID].Clone()
	if entries == nil {
		entries = skill.Entries{}
	}
	sort.SliceStable(entries, func(i, j int) bool { return entries[i].SkillOrder < entries[j].SkillOrder })
	return entries, nil
}

func (repo *sessionRepository) ReplaceEntries(_ context.Context, sessionID string, entries skill.Entries) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.sessions[sessionID]; !ok {
		return session.ErrNotFound
	}
	stored := make(skill.Entries, 0, len(entries))
	for _, e := range entries {
		e.ID = uuid.New().String()
		e.SessionID = sessionID
		stored = append(stored, e)
	}
	repo.db.entries[sessionID] = stored
	return nil
}
