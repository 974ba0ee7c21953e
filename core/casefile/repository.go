package casefile

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/pratik071103/case-link-share/core"
	"github.com/pratik071103/case-link-share/core/autosave"
)

var (
	// errors
	ErrCaseNotFound         = core.NewNotFoundError("case")
	ErrSectionNotFound      = core.NewNotFoundError("section")
	ErrCoachDetailsNotFound = core.NewNotFoundError("coach details")
	ErrSlugExists           = errors.New("a case with this slug already exists")
)

type Repository interface {
	// ListChildren returns all children, newest first.
	ListChildren(ctx context.Context) ([]Child, error)
	// CreateCase inserts the child and its case record together.
	CreateCase(ctx context.Context, child Child, record CaseRecord) (Case, error)
	GetCaseBySlug(ctx context.Context, slug string) (Case, error)

	ListSections(ctx context.Context, caseRecordID string) ([]Section, error)
	FindSection(ctx context.Context, caseRecordID, key string) (Section, error)
	InsertSection(ctx context.Context, section Section) (Section, error)
	UpdateSectionData(ctx context.Context, id string, data autosave.Data, updatedAt time.Time) (Section, error)

	GetCoachDetails(ctx context.Context, caseRecordID string) (CoachDetails, error)
	InsertCoachDetails(ctx context.Context, cd CoachDetails) (CoachDetails, error)
	UpdateCoachDetails(ctx context.Context, cd CoachDetails) (CoachDetails, error)
}
