package pgrepos

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/pratik071103/case-link-share/core"
	"github.com/pratik071103/case-link-share/core/autosave"
	"github.com/pratik071103/case-link-share/core/casefile"
)

const (
	childColumns  = `id, name, case_slug, created_at`
	recordColumns = `id, child_id, created_at, updated_at`
	coachColumns  = `id, case_record_id, coach_name,
		date_of_parent_interaction::text AS date_of_parent_interaction,
		child_interaction_start_date::text AS child_interaction_start_date,
		total_sessions_taken,
		child_interaction_end_date::text AS child_interaction_end_date,
		assessment_report, created_at, updated_at`
	sectionColumns = `id, case_record_id, section_key, data, updated_at`
)

type caseFileRepository struct {
	db core.DB
}

var _ casefile.Repository = (*caseFileRepository)(nil) // interface compliance check

func NewCaseFileRepository(db core.DB) casefile.Repository {
	return &caseFileRepository{db: db}
}

type sectionRow struct {
	ID           string    `db:"id"`
	CaseRecordID string    `db:"case_record_id"`
	Key          string    `db:"section_key"`
	Data         []byte    `db:"data"`
	UpdatedAt    time.Time `db:"updated_at"`
}

func (row sectionRow) section() (casefile.Section, error) {
	s := casefile.Section{
		ID:           row.ID,
		CaseRecordID: row.CaseRecordID,
		Key:          row.Key,
		Data:         autosave.Data{},
		UpdatedAt:    row.UpdatedAt.UTC(),
	}
	if len(row.Data) > 0 {
		if err := json.Unmarshal(row.Data, &s.Data); err != nil {
			return casefile.Section{}, errors.Wrapf(err, "decoding section %s", row.ID)
		}
	}
	return s, nil
}

func (repo *caseFileRepository) ListChildren(ctx context.Context) ([]casefile.Child, error) {
	children := make([]casefile.Child, 0)
	q := `SELECT ` + childColumns + ` FROM children ORDER BY created_at DESC`
	if err := repo.db.SelectContext(ctx, &children, q); err != nil {
		return nil, errors.Wrap(err, "listing children")
	}
	return children, nil
}

func (repo *caseFileRepository) CreateCase(ctx context.Context, child casefile.Child, record casefile.CaseRecord) (casefile.Case, error) {
	child.ID = uuid.New().String()
	record.ID = uuid.New().String()
	record.ChildID = child.ID

	err := core.InTx(ctx, repo.db, func(tx core.DBExecutor) error {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO children (id, name, case_slug, created_at) VALUES ($1, $2, $3, $4)`,
			child.ID, child.Name, child.CaseSlug, child.CreatedAt.UTC(),
		); err != nil {
			if isUniqueViolation(err) {
				return casefile.ErrSlugExists
			}
			return errors.Wrap(err, "inserting child")
		}
		_, err := tx.ExecContext(ctx,
			`INSERT INTO case_records (id, child_id, created_at, updated_at) VALUES ($1, $2, $3, $4)`,
			record.ID, record.ChildID, record.CreatedAt.UTC(), record.UpdatedAt.UTC(),
		)
		return errors.Wrap(err, "inserting case record")
	})
	if err != nil {
		return casefile.Case{}, err
	}
	return casefile.Case{Child: child, Record: record}, nil
}

func (repo *caseFileRepository) GetCaseBySlug(ctx context.Context, slug string) (casefile.Case, error) {
	var c casefile.Case
	if err := repo.db.GetContext(ctx, &c.Child, `SELECT `+childColumns+` FROM children WHERE case_slug = $1`, slug); err != nil {
		return casefile.Case{}, trapNoRowsErr(err, casefile.ErrCaseNotFound, "getting child by slug")
	}
	if err := repo.db.GetContext(ctx, &c.Record, `SELECT `+recordColumns+` FROM case_records WHERE child_id = $1`, c.ID); err != nil {
		return casefile.Case{}, trapNoRowsErr(err, casefile.ErrCaseNotFound, "getting case record")
	}
	c.CreatedAt = c.CreatedAt.UTC()
	c.Record.CreatedAt = c.Record.CreatedAt.UTC()
	c.Record.UpdatedAt = c.Record.UpdatedAt.UTC()
	return c, nil
}

func (repo *caseFileRepository) ListSections(ctx context.Context, caseRecordID string) ([]casefile.Section, error) {
	sections := make([]casefile.Section, 0)
	if !validID(caseRecordID) {
		return sections, nil
	}
	var rows []sectionRow
	q := `SELECT ` + sectionColumns + ` FROM case_history_sections WHERE case_record_id = $1 ORDER BY section_key`
	if err := repo.db.SelectContext(ctx, &rows, q, caseRecordID); err != nil {
		return nil, errors.Wrap(err, "listing sections")
	}
	for _, row := range rows {
		s, err := row.section()
		if err != nil {
			return nil, err
		}
		sections = append(sections, s)
	}
	return sections, nil
}

func (repo *caseFileRepository) FindSection(ctx context.Context, caseRecordID, key string) (casefile.Section, error) {
	if !validID(caseRecordID) {
		return casefile.Section{}, casefile.ErrSectionNotFound
	}
	var row sectionRow
	q := `SELECT ` + sectionColumns + ` FROM case_history_sections WHERE case_record_id = $1 AND section_key = $2`
	if err := repo.db.GetContext(ctx, &row, q, caseRecordID, key); err != nil {
		return casefile.Section{}, trapNoRowsErr(err, casefile.ErrSectionNotFound, "finding section")
	}
	return row.section()
}

// InsertSection inserts the section, or overwrites its data when another writer inserted it first.
func (repo *caseFileRepository) InsertSection(ctx context.Context, section casefile.Section) (casefile.Section, error) {
	data, err := json.Marshal(section.Data)
	if err != nil {
		return casefile.Section{}, errors.Wrap(err, "encoding section data")
	}
	var row sectionRow
	q := `INSERT INTO case_history_sections (id, case_record_id, section_key, data, updated_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (case_record_id, section_key) DO UPDATE SET data = EXCLUDED.data, updated_at = EXCLUDED.updated_at
		RETURNING ` + sectionColumns
	err = repo.db.GetContext(ctx, &row, q,
		uuid.New().String(), section.CaseRecordID, section.Key, data, section.UpdatedAt.UTC())
	if err != nil {
		return casefile.Section{}, errors.Wrap(err, "inserting section")
	}
	return row.section()
}

func (repo *caseFileRepository) UpdateSectionData(ctx context.Context, id string, data autosave.Data, updatedAt time.Time) (casefile.Section, error) {
	if !validID(id) {
		return casefile.Section{}, casefile.ErrSectionNotFound
	}
	b, err := json.Marshal(data)
	if err != nil {
		return casefile.Section{}, errors.Wrap(err, "encoding section data")
	}
	var row sectionRow
	q := `UPDATE case_history_sections SET data = $2, updated_at = $3 WHERE id = $1 RETURNING ` + sectionColumns
	if err := repo.db.GetContext(ctx, &row, q, id, b, updatedAt.UTC()); err != nil {
		return casefile.Section{}, trapNoRowsErr(err, casefile.ErrSectionNotFound, "updating section")
	}
	return row.section()
}

func (repo *caseFileRepository) GetCoachDetails(ctx context.Context, caseRecordID string) (casefile.CoachDetails, error) {
	if !validID(caseRecordID) {
		return casefile.CoachDetails{}, casefile.ErrCoachDetailsNotFound
	}
	var cd casefile.CoachDetails
	q := `SELECT ` + coachColumns + ` FROM coach_details WHERE case_record_id = $1`
	if err := repo.db.GetContext(ctx, &cd, q, caseRecordID); err != nil {
		return casefile.CoachDetails{}, trapNoRowsErr(err, casefile.ErrCoachDetailsNotFound, "getting coach details")
	}
	return cd, nil
}

// InsertCoachDetails inserts the details, or overwrites them when the case already has some.
func (repo *caseFileRepository) InsertCoachDetails(ctx context.Context, cd casefile.CoachDetails) (casefile.CoachDetails, error) {
	var out casefile.CoachDetails
	q := `INSERT INTO coach_details (id, case_record_id, coach_name, date_of_parent_interaction,
			child_interaction_start_date, total_sessions_taken, child_interaction_end_date,
			assessment_report, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (case_record_id) DO UPDATE SET
			coach_name = EXCLUDED.coach_name,
			date_of_parent_interaction = EXCLUDED.date_of_parent_interaction,
			child_interaction_start_date = EXCLUDED.child_interaction_start_date,
			total_sessions_taken = EXCLUDED.total_sessions_taken,
			child_interaction_end_date = EXCLUDED.child_interaction_end_date,
			assessment_report = EXCLUDED.assessment_report,
			updated_at = EXCLUDED.updated_at
		RETURNING ` + coachColumns
	err := repo.db.GetContext(ctx, &out, q,
		uuid.New().String(), cd.CaseRecordID, cd.CoachName, cd.DateOfParentInteraction,
		cd.ChildInteractionStartDate, cd.TotalSessionsTaken, cd.ChildInteractionEndDate,
		cd.AssessmentReport, cd.CreatedAt.UTC(), cd.UpdatedAt.UTC(),
	)
	if err != nil {
		return casefile.CoachDetails{}, errors.Wrap(err, "inserting coach details")
	}
	return out, nil
}

func (repo *caseFileRepository) UpdateCoachDetails(ctx context.Context, cd casefile.CoachDetails) (casefile.CoachDetails, error) {
	if !validID(cd.ID) {
		return casefile.CoachDetails{}, casefile.ErrCoachDetailsNotFound
	}
	var out casefile.CoachDetails
	q := `UPDATE coach_details SET
			coach_name = $3,
			date_of_parent_interaction = $4,
			child_interaction_start_date = $5,
			total_sessions_taken = $6,
			child_interaction_end_date = $7,
			assessment_report = $8,
			updated_at = $9
		WHERE id = $1 AND case_record_id = $2
		RETURNING ` + coachColumns
	err := repo.db.GetContext(ctx, &out, q,
		cd.ID, cd.CaseRecordID, cd.CoachName, cd.DateOfParentInteraction, cd.ChildInteractionStartDate,
		cd.TotalSessionsTaken, cd.ChildInteractionEndDate, cd.AssessmentReport, cd.UpdatedAt.UTC(),
	)
	if err != nil {
		return casefile.CoachDetails{}, trapNoRowsErr(err, casefile.ErrCoachDetailsNotFound, "updating coach details")
	}
	return out, nil
}
