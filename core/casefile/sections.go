package casefile

import (
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/pratik071103/case-link-share/core"
	"github.com/pratik071103/case-link-share/core/autosave"
)

// Section keys.
const (
	SectionGeneralInfo         = "general_info"
	SectionAcademicPerformance = "academic_performance"
	SectionEmotionalBehavioral = "emotional_behavioral"
	SectionSocialSkills        = "social_skills"
	SectionSuccessSkills       = "success_skills"
	SectionPhysicalDevelopment = "physical_development"
	SectionAttentionProfile    = "attention_profile"
)

// SectionKeys lists the intake sections in display order.
var SectionKeys = []string{
	SectionGeneralInfo,
	SectionAcademicPerformance,
	SectionEmotionalBehavioral,
	SectionSocialSkills,
	SectionSuccessSkills,
	SectionPhysicalDevelopment,
	SectionAttentionProfile,
}

var (
	sectionKeyTag  = "sectionkey"
	sectionKeyText = "unknown section"
)

// InitValidators registers the case file validators.
func InitValidators(validate *validator.Validate, translator ut.Translator) {
	_ = validate.RegisterValidation(sectionKeyTag, func(fl validator.FieldLevel) bool {
		return IsSectionKey(fl.Field().String())
	})
	core.RegisterCustomTranslation(validate, translator, sectionKeyTag, sectionKeyText)
}

func IsSectionKey(key string) bool {
	for _, k := range SectionKeys {
		if k == key {
			return true
		}
	}
	return false
}

func concerns() autosave.Data {
	return autosave.Data{
		"parental_concerns": []interface{}{},
		"teacher_concerns":  "",
	}
}

func withConcerns(d autosave.Data) autosave.Data {
	for k, v := range concerns() {
		d[k] = v
	}
	return d
}

func ratings(keys ...string) autosave.Data {
	r := make(autosave.Data, len(keys))
	for _, k := range keys {
		r[k] = 3.0
	}
	return r
}

var successSkills = []string{"creativity", "problem_solving", "decision_making", "collaboration", "initiative", "responsibility"}

// DefaultSection returns the blank payload of a section. childName prefills general_info.
func DefaultSection(key, childName string) autosave.Data {
	switch key {
	case SectionGeneralInfo:
		return withConcerns(autosave.Data{
			"name_of_child":       childName,
			"age_of_child":        "",
			"gender":              "",
			"school_name":         "",
			"board":               "",
			"city":                "",
			"birth_history":       "",
			"school_timings":      "",
			"other_classes":       "",
			"weekly_availability": "",
			"family_type":         "",
			"siblings":            "",
			"mother_profession":   "",
			"father_profession":   "",
			"contact_mode":        "",
			"contact_number":      "",
			"email":               "",
			"diagnosis":           "",
		})
	case SectionAcademicPerformance:
		return withConcerns(autosave.Data{
			"subjects_excels":         "",
			"subjects_struggles":      "",
			"handwriting_performance": "",
			"other_concerns":          "",
		})
	case SectionEmotionalBehavioral:
		return withConcerns(autosave.Data{
			"screen_time":         "",
			"behavioral_concerns": "",
			"performance_anxiety": "",
			"task_completion":     "",
		})
	case SectionSocialSkills:
		return withConcerns(autosave.Data{
			"ratings": ratings("shy_to_interact", "kids_interaction", "adult_interaction", "presentation_confidence", "expression_clarity"),
			"notes":   "",
		})
	case SectionSuccessSkills:
		notes := make(autosave.Data, len(successSkills))
		for _, k := range successSkills {
			notes[k] = ""
		}
		return withConcerns(autosave.Data{
			"ratings": ratings(successSkills...),
			"notes":   notes,
		})
	case SectionPhysicalDevelopment:
		return withConcerns(autosave.Data{
			"physical_concerns":                   "",
			"daily_play_time":                     "",
			"physical_activities":                 "",
			"hobbies":                             "",
			"medical_history_development_details": []interface{}{},
		})
	case SectionAttentionProfile:
		return withConcerns(autosave.Data{
			"attention_span":      "",
			"attention_notes":     "",
			"distraction_types":   "",
			"distraction_notes":   "",
			"impulsivity":         "",
			"impulsivity_notes":   "",
			"additional_concerns": "",
		})
	}
	return autosave.Data{}
}

// WithDefaults overlays stored data on the section defaults, one level deep: a stored key
// replaces the default key entirely.
func WithDefaults(key, childName string, stored autosave.Data) autosave.Data {
	d := DefaultSection(key, childName)
	for k, v := range autosave.CloneData(stored) {
		d[k] = v
	}
	return d
}
