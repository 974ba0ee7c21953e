package session

import (
	"encoding/json"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/pratik071103/case-link-share/core"
	"github.com/pratik071103/case-link-share/core/skill"
)

// Attendance values; a session may also have none.
const (
	AttendancePresent = "present"
	AttendanceAbsent  = "absent"
	AttendanceLate    = "late"
	AttendanceExcused = "excused"
)

const (
	DefaultType = "child"
	dateLayout  = "2006-01-02"
)

var Attendances = []string{AttendancePresent, AttendanceAbsent, AttendanceLate, AttendanceExcused}

func IsAttendance(s string) bool {
	for _, a := range Attendances {
		if a == s {
			return true
		}
	}
	return false
}

// Record is one coaching session of a child. SessionNo is unique per child.
type Record struct {
	ID               string      `json:"id" db:"id"`
	ChildID          string      `json:"child_id" db:"child_id"`
	SessionNo        int         `json:"session_no" db:"session_no"`
	SessionDate      string      `json:"session_date" db:"session_date"` // YYYY-MM-DD
	SessionType      string      `json:"session_type" db:"session_type"`
	Attendance       null.String `json:"attendance" db:"attendance"`
	SessionReportURL null.String `json:"session_report_url" db:"session_report_url"`
	SessionLinkURL   null.String `json:"session_link_url" db:"session_link_url"`
	GeminiSummaryURL null.String `json:"gemini_summary_url" db:"gemini_summary_url"`
	CreatedAt        time.Time   `json:"created_at" db:"created_at"`
	UpdatedAt        time.Time   `json:"updated_at" db:"updated_at"`
}

// NewRecord contains information needed to create a session. Zero values take defaults:
// the next session number, today, type "child" and no attendance.
type NewRecord struct {
	SessionNo   int    `json:"session_no" validate:"min=0"`
	SessionDate string `json:"session_date" validate:"omitempty,datetime=2006-01-02"`
	SessionType string `json:"session_type" validate:"max=50"`
	Attendance  string `json:"attendance" validate:"omitempty,attendance"`
}

func (nr *NewRecord) Validate(validate *validator.Validate) error {
	nr.SessionDate = core.CleanString(nr.SessionDate)
	nr.SessionType = core.CleanString(nr.SessionType)
	nr.Attendance = core.CleanString(nr.Attendance, true /* lower */)
	return validate.Struct(nr)
}

// Snapshot is what a session editor persists: the session and all of its skill entries.
type Snapshot struct {
	Session Record        `json:"session"`
	Entries skill.Entries `json:"entries"`
}

func (s Snapshot) Clone() Snapshot {
	return Snapshot{Session: s.Session, Entries: s.Entries.Clone()}
}

// Patch is a partial session edit keyed by JSON field name.
type Patch map[string]json.RawMessage

const invalidValueText = "invalid value"

func nullableString(raw json.RawMessage) (null.String, error) {
	var v null.String
	if err := json.Unmarshal(raw, &v); err != nil {
		return null.String{}, err
	}
	if v.Valid && core.CleanString(v.String) == "" {
		return null.String{}, nil
	}
	return v, nil
}

// Apply edits the session fields named in p. The record is unchanged on error.
func (r *Record) Apply(p Patch) error {
	edited := *r
	var fldErrs []core.FieldError
	fail := func(field, msg string) { fldErrs = append(fldErrs, core.FieldError{Field: field, Error: msg}) }

	for name, raw := range p {
		switch name {
		case "session_date":
			var v string
			if err := json.Unmarshal(raw, &v); err != nil {
				fail(name, invalidValueText)
				continue
			}
			if _, err := time.Parse(dateLayout, v); err != nil {
				fail(name, "date must be formatted as YYYY-MM-DD")
				continue
			}
			edited.SessionDate = v
		case "session_type":
			var v string
			if err := json.Unmarshal(raw, &v); err != nil {
				fail(name, invalidValueText)
				continue
			}
			edited.SessionType = core.CleanString(v)
		case "attendance":
			v, err := nullableString(raw)
			if err != nil {
				fail(name, invalidValueText)
				continue
			}
			if v.Valid && !IsAttendance(v.String) {
				fail(name, attendanceText)
				continue
			}
			edited.Attendance = v
		case "session_report_url", "session_link_url", "gemini_summary_url":
			v, err := nullableString(raw)
			if err != nil {
				fail(name, invalidValueText)
				continue
			}
			switch name {
			case "session_report_url":
				edited.SessionReportURL = v
			case "session_link_url":
				edited.SessionLinkURL = v
			default:
				edited.GeminiSummaryURL = v
			}
		case "id", "child_id", "session_no", "created_at", "updated_at":
			fail(name, "field is read-only")
		default:
			fail(name, "unknown session field")
		}
	}

	if len(fldErrs) > 0 {
		return core.NewValidationError(errors.New("invalid session edit"), fldErrs...)
	}
	*r = edited
	return nil
}
