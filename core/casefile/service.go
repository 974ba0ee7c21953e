// Package casefile manages children, their case records, the intake sections of a case and its coach details.
package casefile

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/pratik071103/case-link-share/core"
	"github.com/pratik071103/case-link-share/core/autosave"
)

const maxSlugAttempts = 3

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// CreateCase opens a new case: a child with a generated slug and an empty case record.
func (svc *Service) CreateCase(ctx context.Context, nc NewChild) (Case, error) {
	now := time.Now().UTC()
	var lastErr error
	for attempt := 0; attempt < maxSlugAttempts; attempt++ {
		child := Child{Name: nc.Name, CaseSlug: GenerateSlug(nc.Name), CreatedAt: now}
		record := CaseRecord{CreatedAt: now, UpdatedAt: now}

		c, err := svc.repo.CreateCase(ctx, child, record)
		if err == nil {
			return c, nil
		}
		if errors.Cause(err) != ErrSlugExists {
			return Case{}, errors.Wrap(err, "creating case")
		}
		lastErr = err
	}
	return Case{}, errors.Wrap(lastErr, "generating a unique slug")
}

func (svc *Service) ListChildren(ctx context.Context) ([]Child, error) {
	return svc.repo.ListChildren(ctx)
}

// GetCase resolves a case slug. An unknown slug yields ErrCaseNotFound.
func (svc *Service) GetCase(ctx context.Context, slug string) (Case, error) {
	return svc.repo.GetCaseBySlug(ctx, core.CleanString(slug, true /* lower */))
}

func (svc *Service) ListSections(ctx context.Context, caseRecordID string) ([]Section, error) {
	return svc.repo.ListSections(ctx, caseRecordID)
}

// SectionData returns the payload of every section key, stored data overlaid on the defaults.
func (svc *Service) SectionData(ctx context.Context, c Case) (map[string]autosave.Data, error) {
	sections, err := svc.repo.ListSections(ctx, c.Record.ID)
	if err != nil {
		return nil, errors.Wrap(err, "listing sections")
	}
	stored := make(map[string]autosave.Data, len(sections))
	for _, s := range sections {
		stored[s.Key] = s.Data
	}
	out := make(map[string]autosave.Data, len(SectionKeys))
	for _, key := range SectionKeys {
		out[key] = WithDefaults(key, c.Name, stored[key])
	}
	return out, nil
}

// UpdateSection stores the whole payload of a section: it looks the (case record, key) row up
// and updates it, or inserts it when missing.
//
// The lookup and the write are two round trips. Two writers racing on a section that does not
// exist yet may both insert; the storage layer's unique (case_record_id, section_key) constraint
// turns the loser's insert into an update.
func (svc *Service) UpdateSection(ctx context.Context, caseRecordID, key string, data autosave.Data) (Section, error) {
	if !IsSectionKey(key) {
		return Section{}, core.NewValidationError(
			errors.New("invalid section"), core.FieldError{Field: "section_key", Error: sectionKeyText})
	}
	if data == nil {
		data = autosave.Data{}
	}
	now := time.Now().UTC()

	existing, err := svc.repo.FindSection(ctx, caseRecordID, key)
	switch {
	case err == nil:
		s, err := svc.repo.UpdateSectionData(ctx, existing.ID, data, now)
		return s, errors.Wrap(err, "updating section")
	case errors.Cause(err) == ErrSectionNotFound:
		s, err := svc.repo.InsertSection(ctx, Section{CaseRecordID: caseRecordID, Key: key, Data: data, UpdatedAt: now})
		return s, errors.Wrap(err, "inserting section")
	default:
		return Section{}, errors.Wrap(err, "finding section")
	}
}

// GetCoachDetails returns the stored coach details, or a blank record when none exist yet.
func (svc *Service) GetCoachDetails(ctx context.Context, caseRecordID string) (CoachDetails, error) {
	cd, err := svc.repo.GetCoachDetails(ctx, caseRecordID)
	if errors.Cause(err) == ErrCoachDetailsNotFound {
		return CoachDetails{CaseRecordID: caseRecordID}, nil
	}
	return cd, err
}

// SaveCoachDetails follows the same lookup-then-write protocol as UpdateSection, keyed by case record.
func (svc *Service) SaveCoachDetails(ctx context.Context, caseRecordID string, form UpdateCoachDetails) (CoachDetails, error) {
	now := time.Now().UTC()

	existing, err := svc.repo.GetCoachDetails(ctx, caseRecordID)
	switch {
	case err == nil:
		cd := form.apply(existing)
		cd.UpdatedAt = now
		cd, err = svc.repo.UpdateCoachDetails(ctx, cd)
		return cd, errors.Wrap(err, "updating coach details")
	case errors.Cause(err) == ErrCoachDetailsNotFound:
		cd := form.apply(CoachDetails{CaseRecordID: caseRecordID, CreatedAt: now, UpdatedAt: now})
		cd, err = svc.repo.InsertCoachDetails(ctx, cd)
		return cd, errors.Wrap(err, "inserting coach details")
	default:
		return CoachDetails{}, errors.Wrap(err, "finding coach details")
	}
}
