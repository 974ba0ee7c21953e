package pgrepos

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/pratik071103/case-link-share/core"
	"github.com/pratik071103/case-link-share/core/session"
	"github.com/pratik071103/case-link-share/core/skill"
)

const sessionColumns = `id, child_id, session_no, session_date::text AS session_date, session_type, attendance,
	session_report_url, session_link_url, gemini_summary_url, created_at, updated_at`

var entryColumns = []string{
	"id", "session_id", "skill_order", "is_manual",
	"skill_name", "indicator_name", "activity_name",
	"activity_objective", "activity_instructions", "activity_materials", "activity_level", "activity_level_score",
	"target_f", "target_f_value", "target_i", "target_i_value", "target_s", "target_s_value",
	"icebreaker", "incident_no", "activity_impact_score",
	"actual_f", "actual_f_value", "actual_i", "actual_i_value", "actual_s", "actual_s_value",
	"fist_remarks", "indicator_score_growth", "ksa_weightage", "ksa_growth_percent", "other_observations",
	"target_cutoff", "actual_cutoff", "fist_achieved_percent", "indicator_score_calculation", "ksa_score_calculation",
}

var insertEntryQuery = func() string {
	params := make([]string, 0, len(entryColumns))
	for _, c := range entryColumns {
		params = append(params, ":"+c)
	}
	return `INSERT INTO session_skill_entries (` + strings.Join(entryColumns, ", ") + `) VALUES (` + strings.Join(params, ", ") + `)`
}()

type sessionRepository struct {
	db core.DB
}

var _ session.Repository = (*sessionRepository)(nil) // interface compliance check

func NewSessionRepository(db core.DB) session.Repository {
	return &sessionRepository{db: db}
}

func (repo *sessionRepository) ListByChild(ctx context.Context, childID string) ([]session.Record, error) {
	recs := make([]session.Record, 0)
	if !validID(childID) {
		return recs, nil
	}
	q := `SELECT ` + sessionColumns + ` FROM session_details WHERE child_id = $1 ORDER BY session_no`
	if err := repo.db.SelectContext(ctx, &recs, q, childID); err != nil {
		return nil, errors.Wrap(err, "listing sessions")
	}
	return recs, nil
}

func (repo *sessionRepository) MaxSessionNo(ctx context.Context, childID string) (int, error) {
	if !validID(childID) {
		return 0, nil
	}
	var max int
	q := `SELECT COALESCE(MAX(session_no), 0) FROM session_details WHERE child_id = $1`
	if err := repo.db.GetContext(ctx, &max, q, childID); err != nil {
		return 0, errors.Wrap(err, "getting last session number")
	}
	return max, nil
}

func (repo *sessionRepository) Get(ctx context.Context, id string) (session.Record, error) {
	if !validID(id) {
		return session.Record{}, session.ErrNotFound
	}
	var rec session.Record
	if err := repo.db.GetContext(ctx, &rec, `SELECT `+sessionColumns+` FROM session_details WHERE id = $1`, id); err != nil {
		return session.Record{}, trapNoRowsErr(err, session.ErrNotFound, "getting session")
	}
	return rec, nil
}

func (repo *sessionRepository) Create(ctx context.Context, rec session.Record) (session.Record, error) {
	rec.ID = uuid.New().String()
	var out session.Record
	q := `INSERT INTO session_details (id, child_id, session_no, session_date, session_type, attendance,
			session_report_url, session_link_url, gemini_summary_url, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING ` + sessionColumns
	err := repo.db.GetContext(ctx, &out, q,
		rec.ID, rec.ChildID, rec.SessionNo, rec.SessionDate, rec.SessionType, rec.Attendance,
		rec.SessionReportURL, rec.SessionLinkURL, rec.GeminiSummaryURL, rec.CreatedAt.UTC(), rec.UpdatedAt.UTC(),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return session.Record{}, session.ErrSessionNoTaken
		}
		return session.Record{}, errors.Wrap(err, "inserting session")
	}
	return out, nil
}

// Update writes the editable fields; the child, the number and the creation time never change.
func (repo *sessionRepository) Update(ctx context.Context, rec session.Record) (session.Record, error) {
	if !validID(rec.ID) {
		return session.Record{}, session.ErrNotFound
	}
	var out session.Record
	q := `UPDATE session_details SET
			session_date = $2,
			session_type = $3,
			attendance = $4,
			session_report_url = $5,
			session_link_url = $6,
			gemini_summary_url = $7,
			updated_at = $8
		WHERE id = $1
		RETURNING ` + sessionColumns
	err := repo.db.GetContext(ctx, &out, q,
		rec.ID, rec.SessionDate, rec.SessionType, rec.Attendance,
		rec.SessionReportURL, rec.SessionLinkURL, rec.GeminiSummaryURL, rec.UpdatedAt.UTC(),
	)
	if err != nil {
		return session.Record{}, trapNoRowsErr(err, session.ErrNotFound, "updating session")
	}
	return out, nil
}

func (repo *sessionRepository) Delete(ctx context.Context, id string) error {
	if !validID(id) {
		return session.ErrNotFound
	}
	res, err := repo.db.ExecContext(ctx, `DELETE FROM session_details WHERE id = $1`, id)
	if err != nil {
		return errors.Wrap(err, "deleting session")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return errors.Wrap(err, "deleting session")
	}
	if n == 0 {
		return session.ErrNotFound
	}
	return nil
}

func (repo *sessionRepository) ListEntries(ctx context.Context, sessionID string) (skill.Entries, error) {
	entries := make(skill.Entries, 0)
	if !validID(sessionID) {
		return entries, nil
	}
	q := `SELECT ` + strings.Join(entryColumns, ", ") + ` FROM session_skill_entries WHERE session_id = $1 ORDER BY skill_order`
	if err := repo.db.SelectContext(ctx, &entries, q, sessionID); err != nil {
		return nil, errors.Wrap(err, "listing skill entries")
	}
	return entries, nil
}

// ReplaceEntries swaps the session's entries in one transaction.
func (repo *sessionRepository) ReplaceEntries(ctx context.Context, sessionID string, entries skill.Entries) error {
	if !validID(sessionID) {
		return session.ErrNotFound
	}
	return core.InTx(ctx, repo.db, func(tx core.DBExecutor) error {
		var found []bool
		if err := tx.SelectContext(ctx, &found, `SELECT true FROM session_details WHERE id = $1 FOR UPDATE`, sessionID); err != nil {
			return errors.Wrap(err, "locking session")
		}
		if len(found) == 0 {
			return session.ErrNotFound
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM session_skill_entries WHERE session_id = $1`, sessionID); err != nil {
			return errors.Wrap(err, "deleting skill entries")
		}
		for _, e := range entries {
			e.ID = uuid.New().String()
			e.SessionID = sessionID
			if _, err := sqlx.NamedExecContext(ctx, tx, insertEntryQuery, e); err != nil {
				return errors.Wrapf(err, "inserting skill entry %d", e.SkillOrder)
			}
		}
		return nil
	})
}
