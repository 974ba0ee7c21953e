// Package skill holds the per-session skill tracking entry, the skill -> indicator -> activity
// selection cascade and the list operations of a session's entries.
package skill

import (
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/pratik071103/case-link-share/core/scoring"
)

var (
	// errors
	ErrCalculatedField = errors.New("calculated fields cannot be edited")
	ErrReadOnlyField   = errors.New("field is read-only for entries sourced from the assessment")
	ErrUnknownField    = errors.New("unknown skill entry field")
	ErrUnknownActivity = errors.New("activity not found for the selected skill and indicator")
	ErrIndexOutOfRange = errors.New("skill entry index out of range")
)

// Entry is one row of session-level skill tracking.
type Entry struct {
	ID         string `json:"id,omitempty" db:"id"`
	SessionID  string `json:"session_id,omitempty" db:"session_id"`
	SkillOrder int    `json:"skill_order" db:"skill_order"`
	IsManual   bool   `json:"is_manual" db:"is_manual"`

	// selection
	SkillName     string `json:"skill_name" db:"skill_name"`
	IndicatorName string `json:"indicator_name" db:"indicator_name"`
	ActivityName  string `json:"activity_name" db:"activity_name"`

	// copied from the selected activity
	ActivityObjective    string  `json:"activity_objective" db:"activity_objective"`
	ActivityInstructions string  `json:"activity_instructions" db:"activity_instructions"`
	ActivityMaterials    string  `json:"activity_materials" db:"activity_materials"`
	ActivityLevel        int     `json:"activity_level" db:"activity_level"`
	ActivityLevelScore   int     `json:"activity_level_score" db:"activity_level_score"`
	TargetF              string  `json:"target_f" db:"target_f"`
	TargetFValue         float64 `json:"target_f_value" db:"target_f_value"`
	TargetI              string  `json:"target_i" db:"target_i"`
	TargetIValue         float64 `json:"target_i_value" db:"target_i_value"`
	TargetS              string  `json:"target_s" db:"target_s"`
	TargetSValue         float64 `json:"target_s_value" db:"target_s_value"`

	// entered by the coach
	Icebreaker           string       `json:"icebreaker" db:"icebreaker"`
	IncidentNo           null.Int     `json:"incident_no" db:"incident_no"`
	ActivityImpactScore  null.Float64 `json:"activity_impact_score" db:"activity_impact_score"`
	ActualF              string       `json:"actual_f" db:"actual_f"`
	ActualFValue         null.Float64 `json:"actual_f_value" db:"actual_f_value"`
	ActualI              string       `json:"actual_i" db:"actual_i"`
	ActualIValue         null.Float64 `json:"actual_i_value" db:"actual_i_value"`
	ActualS              string       `json:"actual_s" db:"actual_s"`
	ActualSValue         null.Float64 `json:"actual_s_value" db:"actual_s_value"`
	FistRemarks          string       `json:"fist_remarks" db:"fist_remarks"`
	IndicatorScoreGrowth null.Float64 `json:"indicator_score_growth" db:"indicator_score_growth"`
	KSAWeightage         null.Float64 `json:"ksa_weightage" db:"ksa_weightage"`
	KSAGrowthPercent     null.Float64 `json:"ksa_growth_percent" db:"ksa_growth_percent"`
	OtherObservations    string       `json:"other_observations" db:"other_observations"`

	// calculated, null until first computed
	TargetCutoff        null.Float64 `json:"target_cutoff" db:"target_cutoff"`
	ActualCutoff        null.Float64 `json:"actual_cutoff" db:"actual_cutoff"`
	FistAchievedPercent null.Float64 `json:"fist_achieved_percent" db:"fist_achieved_percent"`
	IndicatorScore      null.Float64 `json:"indicator_score_calculation" db:"indicator_score_calculation"`
	KSAScore            null.Float64 `json:"ksa_score_calculation" db:"ksa_score_calculation"`
}

// NewEntry returns a blank entry at the given position.
func NewEntry(order int, manual bool) Entry {
	return Entry{SkillOrder: order, IsManual: manual}
}

func orZero(f null.Float64) float64 {
	if !f.Valid {
		return 0
	}
	return f.Float64
}

func (e Entry) scoringInputs() scoring.Inputs {
	return scoring.Inputs{
		TargetF:      e.TargetFValue,
		TargetI:      e.TargetIValue,
		TargetS:      e.TargetSValue,
		ActualF:      orZero(e.ActualFValue),
		ActualI:      orZero(e.ActualIValue),
		ActualS:      orZero(e.ActualSValue),
		ImpactScore:  orZero(e.ActivityImpactScore),
		LevelScore:   float64(e.ActivityLevelScore),
		KSAWeightage: orZero(e.KSAWeightage),
	}
}

// Recalculate overwrites the five calculated fields from the current inputs. Nothing else changes.
func Recalculate(e Entry) Entry {
	r := scoring.Compute(e.scoringInputs())
	e.TargetCutoff = null.Float64From(r.TargetCutoff)
	e.ActualCutoff = null.Float64From(r.ActualCutoff)
	e.FistAchievedPercent = null.Float64From(r.FistAchievedPercent)
	e.IndicatorScore = null.Float64From(r.IndicatorScore)
	e.KSAScore = null.Float64From(r.KSAScore)
	return e
}
