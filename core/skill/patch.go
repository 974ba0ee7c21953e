package skill

import (
	"encoding/json"
	"sort"

	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/pratik071103/case-link-share/core"
	"github.com/pratik071103/case-link-share/core/taxonomy"
)

// Patch is a partial entry edit keyed by JSON field name.
type Patch map[string]json.RawMessage

type fieldKind int

const (
	kindSelection fieldKind = iota
	kindDerived
	kindManual
	kindCalculated
	kindIdentity
)

type fieldSpec struct {
	kind fieldKind
	set  func(e *Entry, raw json.RawMessage) error
}

func str(f func(e *Entry) *string) func(*Entry, json.RawMessage) error {
	return func(e *Entry, raw json.RawMessage) error {
		var v *string
		if err := json.Unmarshal(raw, &v); err != nil {
			return err
		}
		*f(e) = ""
		if v != nil {
			*f(e) = *v
		}
		return nil
	}
}

func num(f func(e *Entry) *float64) func(*Entry, json.RawMessage) error {
	return func(e *Entry, raw json.RawMessage) error {
		var v *float64
		if err := json.Unmarshal(raw, &v); err != nil {
			return err
		}
		*f(e) = 0
		if v != nil {
			*f(e) = *v
		}
		return nil
	}
}

func integer(f func(e *Entry) *int) func(*Entry, json.RawMessage) error {
	return func(e *Entry, raw json.RawMessage) error {
		var v *int
		if err := json.Unmarshal(raw, &v); err != nil {
			return err
		}
		*f(e) = 0
		if v != nil {
			*f(e) = *v
		}
		return nil
	}
}

func nullNum(f func(e *Entry) *null.Float64) func(*Entry, json.RawMessage) error {
	return func(e *Entry, raw json.RawMessage) error {
		var v null.Float64
		if err := json.Unmarshal(raw, &v); err != nil {
			return err
		}
		*f(e) = v
		return nil
	}
}

var fields = map[string]fieldSpec{
	"id":          {kind: kindIdentity},
	"session_id":  {kind: kindIdentity},
	"skill_order": {kind: kindIdentity},
	"is_manual":   {kind: kindIdentity},

	"skill_name":     {kindSelection, str(func(e *Entry) *string { return &e.SkillName })},
	"indicator_name": {kindSelection, str(func(e *Entry) *string { return &e.IndicatorName })},
	"activity_name":  {kindSelection, str(func(e *Entry) *string { return &e.ActivityName })},

	"activity_objective":    {kindDerived, str(func(e *Entry) *string { return &e.ActivityObjective })},
	"activity_instructions": {kindDerived, str(func(e *Entry) *string { return &e.ActivityInstructions })},
	"activity_materials":    {kindDerived, str(func(e *Entry) *string { return &e.ActivityMaterials })},
	"activity_level":        {kindDerived, integer(func(e *Entry) *int { return &e.ActivityLevel })},
	"activity_level_score":  {kindDerived, integer(func(e *Entry) *int { return &e.ActivityLevelScore })},
	"target_f":              {kindDerived, str(func(e *Entry) *string { return &e.TargetF })},
	"target_f_value":        {kindDerived, num(func(e *Entry) *float64 { return &e.TargetFValue })},
	"target_i":              {kindDerived, str(func(e *Entry) *string { return &e.TargetI })},
	"target_i_value":        {kindDerived, num(func(e *Entry) *float64 { return &e.TargetIValue })},
	"target_s":              {kindDerived, str(func(e *Entry) *string { return &e.TargetS })},
	"target_s_value":        {kindDerived, num(func(e *Entry) *float64 { return &e.TargetSValue })},

	"icebreaker": {kindManual, str(func(e *Entry) *string { return &e.Icebreaker })},
	"incident_no": {kindManual, func(e *Entry, raw json.RawMessage) error {
		var v null.Int
		if err := json.Unmarshal(raw, &v); err != nil {
			return err
		}
		e.IncidentNo = v
		return nil
	}},
	"activity_impact_score":  {kindManual, nullNum(func(e *Entry) *null.Float64 { return &e.ActivityImpactScore })},
	"actual_f":               {kindManual, str(func(e *Entry) *string { return &e.ActualF })},
	"actual_f_value":         {kindManual, nullNum(func(e *Entry) *null.Float64 { return &e.ActualFValue })},
	"actual_i":               {kindManual, str(func(e *Entry) *string { return &e.ActualI })},
	"actual_i_value":         {kindManual, nullNum(func(e *Entry) *null.Float64 { return &e.ActualIValue })},
	"actual_s":               {kindManual, str(func(e *Entry) *string { return &e.ActualS })},
	"actual_s_value":         {kindManual, nullNum(func(e *Entry) *null.Float64 { return &e.ActualSValue })},
	"fist_remarks":           {kindManual, str(func(e *Entry) *string { return &e.FistRemarks })},
	"indicator_score_growth": {kindManual, nullNum(func(e *Entry) *null.Float64 { return &e.IndicatorScoreGrowth })},
	"ksa_weightage":          {kindManual, nullNum(func(e *Entry) *null.Float64 { return &e.KSAWeightage })},
	"ksa_growth_percent":     {kindManual, nullNum(func(e *Entry) *null.Float64 { return &e.KSAGrowthPercent })},
	"other_observations":     {kindManual, str(func(e *Entry) *string { return &e.OtherObservations })},

	"target_cutoff":               {kind: kindCalculated},
	"actual_cutoff":               {kind: kindCalculated},
	"fist_achieved_percent":       {kind: kindCalculated},
	"indicator_score_calculation": {kind: kindCalculated},
	"ksa_score_calculation":       {kind: kindCalculated},
}

// SetField edits one field by its JSON name and recalculates.
// Selection fields on taxonomy-backed entries go through the cascade.
func (e *Entry) SetField(tax taxonomy.Taxonomy, name string, value json.RawMessage) error {
	return e.Apply(tax, Patch{name: value})
}

// Apply edits several fields at once. Selection fields are applied first, in cascade order
// (skill, indicator, activity), so that a patch choosing a whole path works in one call.
// On error the entry is left unchanged.
func (e *Entry) Apply(tax taxonomy.Taxonomy, patch Patch) error {
	edited := *e
	var fldErrs []core.FieldError

	for _, name := range []string{"skill_name", "indicator_name", "activity_name"} {
		raw, ok := patch[name]
		if !ok {
			continue
		}
		var v string
		if err := json.Unmarshal(raw, &v); err != nil && string(raw) != "null" {
			fldErrs = append(fldErrs, core.FieldError{Field: name, Error: "invalid value"})
			continue
		}
		switch name {
		case "skill_name":
			edited.SelectSkill(v)
		case "indicator_name":
			edited.SelectIndicator(v)
		case "activity_name":
			if err := edited.SelectActivityByName(tax, v); err != nil {
				fldErrs = append(fldErrs, core.FieldError{Field: name, Error: err.Error()})
			}
		}
	}

	names := make([]string, 0, len(patch))
	for name := range patch {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		fld, ok := fields[name]
		if !ok {
			fldErrs = append(fldErrs, core.FieldError{Field: name, Error: ErrUnknownField.Error()})
			continue
		}
		switch fld.kind {
		case kindSelection:
			continue
		case kindCalculated:
			fldErrs = append(fldErrs, core.FieldError{Field: name, Error: ErrCalculatedField.Error()})
			continue
		case kindIdentity:
			fldErrs = append(fldErrs, core.FieldError{Field: name, Error: ErrReadOnlyField.Error()})
			continue
		case kindDerived:
			if !edited.IsManual {
				fldErrs = append(fldErrs, core.FieldError{Field: name, Error: ErrReadOnlyField.Error()})
				continue
			}
		}
		if err := fld.set(&edited, patch[name]); err != nil {
			fldErrs = append(fldErrs, core.FieldError{Field: name, Error: "invalid value"})
		}
	}

	if len(fldErrs) > 0 {
		return core.NewValidationError(errors.New("invalid skill entry edit"), fldErrs...)
	}
	*e = Recalculate(edited)
	return nil
}
