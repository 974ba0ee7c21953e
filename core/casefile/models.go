package casefile

import (
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/volatiletech/null/v8"

	"github.com/pratik071103/case-link-share/core"
	"github.com/pratik071103/case-link-share/core/autosave"
)

type (
	Child struct {
		ID        string    `json:"id" db:"id"`
		Name      string    `json:"name" db:"name"`
		CaseSlug  string    `json:"case_slug" db:"case_slug"`
		CreatedAt time.Time `json:"created_at" db:"created_at"` // UTC
	}

	CaseRecord struct {
		ID        string    `json:"id" db:"id"`
		ChildID   string    `json:"child_id" db:"child_id"`
		CreatedAt time.Time `json:"created_at" db:"created_at"`
		UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
	}

	// Case is a child together with its case record.
	Case struct {
		Child
		Record CaseRecord `json:"case_record"`
	}

	// Section is one intake sub-form of a case, stored as a free-form JSON object.
	// (CaseRecordID, Key) is unique.
	Section struct {
		ID           string        `json:"id"`
		CaseRecordID string        `json:"case_record_id"`
		Key          string        `json:"section_key"`
		Data         autosave.Data `json:"data"`
		UpdatedAt    time.Time     `json:"updated_at"`
	}

	CoachDetails struct {
		ID                        string      `json:"id,omitempty" db:"id"`
		CaseRecordID              string      `json:"case_record_id" db:"case_record_id"`
		CoachName                 null.String `json:"coach_name" db:"coach_name"`
		DateOfParentInteraction   null.String `json:"date_of_parent_interaction" db:"date_of_parent_interaction"`
		ChildInteractionStartDate null.String `json:"child_interaction_start_date" db:"child_interaction_start_date"`
		TotalSessionsTaken        null.Int    `json:"total_sessions_taken" db:"total_sessions_taken"`
		ChildInteractionEndDate   null.String `json:"child_interaction_end_date" db:"child_interaction_end_date"`
		AssessmentReport          null.String `json:"assessment_report" db:"assessment_report"`
		CreatedAt                 time.Time   `json:"created_at" db:"created_at"`
		UpdatedAt                 time.Time   `json:"updated_at" db:"updated_at"`
	}
)

// NewChild contains information needed to open a new case.
type NewChild struct {
	Name string `json:"name" validate:"required,max=200"`
}

func (nc *NewChild) Validate(validate *validator.Validate) error {
	nc.Name = core.CleanString(nc.Name)
	return validate.Struct(nc)
}

// UpdateCoachDetails is the full coach details form. Empty dates are stored as null.
type UpdateCoachDetails struct {
	CoachName                 string `json:"coach_name" validate:"max=200"`
	DateOfParentInteraction   string `json:"date_of_parent_interaction" validate:"omitempty,datetime=2006-01-02"`
	ChildInteractionStartDate string `json:"child_interaction_start_date" validate:"omitempty,datetime=2006-01-02"`
	TotalSessionsTaken        int    `json:"total_sessions_taken" validate:"min=0"`
	ChildInteractionEndDate   string `json:"child_interaction_end_date" validate:"omitempty,datetime=2006-01-02"`
	AssessmentReport          string `json:"assessment_report"`
}

func (uc *UpdateCoachDetails) Validate(validate *validator.Validate) error {
	uc.CoachName = core.CleanString(uc.CoachName)
	uc.DateOfParentInteraction = core.CleanString(uc.DateOfParentInteraction)
	uc.ChildInteractionStartDate = core.CleanString(uc.ChildInteractionStartDate)
	uc.ChildInteractionEndDate = core.CleanString(uc.ChildInteractionEndDate)
	return validate.Struct(uc)
}

// Form returns the editable view of stored coach details, with blanks for nulls.
func (cd CoachDetails) Form() UpdateCoachDetails {
	return UpdateCoachDetails{
		CoachName:                 cd.CoachName.String,
		DateOfParentInteraction:   cd.DateOfParentInteraction.String,
		ChildInteractionStartDate: cd.ChildInteractionStartDate.String,
		TotalSessionsTaken:        int(cd.TotalSessionsTaken.Int),
		ChildInteractionEndDate:   cd.ChildInteractionEndDate.String,
		AssessmentReport:          cd.AssessmentReport.String,
	}
}

func (uc UpdateCoachDetails) apply(cd CoachDetails) CoachDetails {
	cd.CoachName = null.NewString(uc.CoachName, uc.CoachName != "")
	cd.DateOfParentInteraction = null.NewString(uc.DateOfParentInteraction, uc.DateOfParentInteraction != "")
	cd.ChildInteractionStartDate = null.NewString(uc.ChildInteractionStartDate, uc.ChildInteractionStartDate != "")
	cd.TotalSessionsTaken = null.IntFrom(uc.TotalSessionsTaken)
	cd.ChildInteractionEndDate = null.NewString(uc.ChildInteractionEndDate, uc.ChildInteractionEndDate != "")
	cd.AssessmentReport = null.NewString(uc.AssessmentReport, uc.AssessmentReport != "")
	return cd
}

// UpdateSection is a partial section edit; Fields are merged into the stored payload.
type UpdateSection struct {
	Key    string        `json:"section_key" validate:"required,sectionkey"`
	Fields autosave.Data `json:"data" validate:"required"`
}

func (us *UpdateSection) Validate(validate *validator.Validate) error {
	us.Key = core.CleanString(us.Key, true /* lower */)
	return validate.Struct(us)
}
