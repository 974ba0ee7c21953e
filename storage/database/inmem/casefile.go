package inmemdb

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/pratik071103/case-link-share/core/autosave"
	"github.com/pratik071103/case-link-share/core/casefile"
)

type caseFileRepository struct {
	db *caseTables
}

var _ casefile.Repository = (*caseFileRepository)(nil) // interface compliance check

func NewCaseFileRepository(db *DB) casefile.Repository {
	return &caseFileRepository{db: db.cases}
}

func (repo *caseFileRepository) ListChildren(_ context.Context) ([]casefile.Child, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	children := make([]casefile.Child, 0, len(repo.db.children))
	for _, c := range repo.db.children {
		children = append(children, *c)
	}
	sort.SliceStable(children, func(i, j int) bool { return children[i].CreatedAt.After(children[j].CreatedAt) })
	return children, nil
}

func (repo *caseFileRepository) CreateCase(_ context.Context, child casefile.Child, record casefile.CaseRecord) (casefile.Case, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	for _, c := range repo.db.children {
		if c.CaseSlug == child.CaseSlug {
			return casefile.Case{}, casefile.ErrSlugExists
		}
	}
	child.ID = uuid.New().String()
	record.ID = uuid.New().String()
	record.ChildID = child.ID
	repo.db.children[child.ID] = &child
	repo.db.records[child.ID] = &record
	return casefile.Case{Child: child, Record: record}, nil
}

func (repo *caseFileRepository) GetCaseBySlug(_ context.Context, slug string) (casefile.Case, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	for _, c := range repo.db.children {
		if c.CaseSlug == slug {
			rec, ok := repo.db.records[c.ID]
			if !ok {
				return casefile.Case{}, casefile.ErrCaseNotFound
			}
			return casefile.Case{Child: *c, Record: *rec}, nil
		}
	}
	return casefile.Case{}, casefile.ErrCaseNotFound
}

func copySection(s *casefile.Section) casefile.Section {
	out := *s
	out.Data = autosave.CloneData(s.Data)
	return out
}

func (repo *caseFileRepository) ListSections(_ context.Context, caseRecordID string) ([]casefile.Section, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	sections := make([]casefile.Section, 0)
	for _, s := range repo.db.sections {
		if s.CaseRecordID == caseRecordID {
			sections = append(sections, copySection(s))
		}
	}
	sort.Slice(sections, func(i, j int) bool { return sections[i].Key < sections[j].Key })
	return sections, nil
}

func (repo *caseFileRepository) findSection(caseRecordID, key string) *casefile.Section {
	for _, s := range repo.db.sections {
		if s.CaseRecordID == caseRecordID && s.Key == key {
			return s
		}
	}
	return nil
}

func (repo *caseFileRepository) FindSection(_ context.Context, caseRecordID, key string) (casefile.Section, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if s := repo.findSection(caseRecordID, key); s != nil {
		return copySection(s), nil
	}
	return casefile.Section{}, casefile.ErrSectionNotFound
}

// InsertSection behaves like the postgres upsert: a second insert for the same (case record, key)
// updates the existing row.
func (repo *caseFileRepository) InsertSection(_ context.Context, section casefile.Section) (casefile.Section, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if s := repo.findSection(section.CaseRecordID, section.Key); s != nil {
		s.Data = autosave.CloneData(section.Data)
		s.UpdatedAt = section.UpdatedAt
		return copySection(s), nil
	}
	section.ID = uuid.New().String()
	section.Data = autosave.CloneData(section.Data)
	repo.db.sections[section.ID] = &section
	return copySection(&section), nil
}

func (repo *caseFileRepository) UpdateSectionData(_ context.Context, id string, data autosave.Data, updatedAt time.Time) (casefile.Section, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	s, ok := repo.db.sections[id]
	if !ok {
		return casefile.Section{}, casefile.ErrSectionNotFound
	}
	s.Data = autosave.CloneData(data)
	s.UpdatedAt = updatedAt
	return copySection(s), nil
}

func (repo *caseFileRepository) GetCoachDetails(_ context.Context, caseRecordID string) (casefile.CoachDetails, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if cd, ok := repo.db.coach[caseRecordID]; ok {
		return *cd, nil
	}
	return casefile.CoachDetails{}, casefile.ErrCoachDetailsNotFound
}

func (repo *caseFileRepository) InsertCoachDetails(_ context.Context, cd casefile.CoachDetails) (casefile.CoachDetails, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if existing, ok := repo.db.coach[cd.CaseRecordID]; ok {
		cd.ID = existing.ID
		cd.CreatedAt = existing.CreatedAt
	} else {
		cd.ID = uuid.New().String()
	}
	repo.db.coach[cd.CaseRecordID] = &cd
	return cd, nil
}

func (repo *caseFileRepository) UpdateCoachDetails(_ context.Context, cd casefile.CoachDetails) (casefile.CoachDetails, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	existing, ok := repo.db.coach[cd.CaseRecordID]
	if !ok || existing.ID != cd.ID {
		return casefile.CoachDetails{}, casefile.ErrCoachDetailsNotFound
	}
	repo.db.coach[cd.CaseRecordID] = &cd
	return cd, nil
}
