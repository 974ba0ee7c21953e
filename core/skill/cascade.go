package skill

import "github.com/pratik071103/case-link-share/core/taxonomy"

func (e *Entry) clearActivity() {
	e.ActivityName = ""
	e.ActivityObjective = ""
	e.ActivityInstructions = ""
	e.ActivityMaterials = ""
	e.ActivityLevel = 0
	e.ActivityLevelScore = 0
	e.TargetF = ""
	e.TargetFValue = 0
	e.TargetI = ""
	e.TargetIValue = 0
	e.TargetS = ""
	e.TargetSValue = 0
}

// SelectSkill sets the skill. On taxonomy-backed entries the indicator, the activity and every
// activity-derived field is cleared. Coach-entered fields are untouched.
func (e *Entry) SelectSkill(name string) {
	e.SkillName = name
	if e.IsManual {
		return
	}
	e.IndicatorName = ""
	e.clearActivity()
}

// SelectIndicator sets the indicator and, on taxonomy-backed entries, clears the activity
// and its derived fields. The skill is kept.
func (e *Entry) SelectIndicator(name string) {
	e.IndicatorName = name
	if e.IsManual {
		return
	}
	e.clearActivity()
}

// SelectActivity copies the activity's fixed attributes into the entry.
// The copy is one-way: later taxonomy changes are not reflected.
func (e *Entry) SelectActivity(a taxonomy.Activity) {
	e.ActivityName = a.Name
	e.ActivityObjective = a.Objective
	e.ActivityInstructions = a.Instructions
	e.ActivityMaterials = a.Materials
	e.ActivityLevel = a.Level
	e.ActivityLevelScore = a.LevelScore
	e.TargetF = a.FTarget
	e.TargetFValue = a.FTargetValue
	e.TargetI = a.ITarget
	e.TargetIValue = a.ITargetValue
	e.TargetS = a.STarget
	e.TargetSValue = a.STargetValue
}

// SelectActivityByName resolves the activity under the entry's current skill and indicator.
// Manual entries just take the name.
func (e *Entry) SelectActivityByName(tax taxonomy.Taxonomy, name string) error {
	if e.IsManual {
		e.ActivityName = name
		return nil
	}
	if name == "" {
		e.clearActivity()
		return nil
	}
	a, ok := tax.FindActivity(e.SkillName, e.IndicatorName, name)
	if !ok {
		return ErrUnknownActivity
	}
	e.SelectActivity(a)
	return nil
}
