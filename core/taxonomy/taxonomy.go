// Package taxonomy models the skill -> indicator -> activity tree returned by the assessment provider.
package taxonomy

import (
	"encoding/json"
	"math"
	"regexp"
	"strconv"
	"strings"
)

const (
	ExpertActivityType = "expert activity"
	UnknownSkill       = "Unknown Skill"
)

type (
	Activity struct {
		Key          string  `json:"key"`
		Name         string  `json:"name"`
		Objective    string  `json:"objective"`
		Instructions string  `json:"instructions"`
		Materials    string  `json:"materials"`
		Level        int     `json:"level"`
		LevelScore   int     `json:"levelScore"`
		FTarget      string  `json:"fTarget"`
		FTargetValue float64 `json:"fTargetValue"`
		ITarget      string  `json:"iTarget"`
		ITargetValue float64 `json:"iTargetValue"`
		STarget      string  `json:"sTarget"`
		STargetValue float64 `json:"sTargetValue"`
	}

	Indicator struct {
		Name       string     `json:"indicatorName"`
		Activities []Activity `json:"activities"`
	}

	Skill struct {
		Name       string      `json:"skillName"`
		Indicators []Indicator `json:"indicators"`
	}

	// Taxonomy is the full tree for one user, in provider order.
	Taxonomy []Skill
)

func (t Taxonomy) FindSkill(name string) (Skill, bool) {
	for _, s := range t {
		if s.Name == name {
			return s, true
		}
	}
	return Skill{}, false
}

func (s Skill) FindIndicator(name string) (Indicator, bool) {
	for _, ind := range s.Indicators {
		if ind.Name == name {
			return ind, true
		}
	}
	return Indicator{}, false
}

func (ind Indicator) FindActivity(name string) (Activity, bool) {
	for _, a := range ind.Activities {
		if a.Name == name {
			return a, true
		}
	}
	return Activity{}, false
}

// FindActivity resolves a full (skill, indicator, activity) path.
func (t Taxonomy) FindActivity(skill, indicator, activity string) (Activity, bool) {
	s, ok := t.FindSkill(skill)
	if !ok {
		return Activity{}, false
	}
	ind, ok := s.FindIndicator(indicator)
	if !ok {
		return Activity{}, false
	}
	return ind.FindActivity(activity)
}

// SkillNames lists the skills in provider order.
func (t Taxonomy) SkillNames() []string {
	names := make([]string, 0, len(t))
	for _, s := range t {
		names = append(names, s.Name)
	}
	return names
}

var leadingNumber = regexp.MustCompile(`^[+-]?(\d+\.?\d*|\.\d+)([eE][+-]?\d+)?`)

// FlexFloat decodes a JSON number or a string starting with a number ("3", " 2.5 pts").
// Anything else decodes to 0.
type FlexFloat float64

func (f *FlexFloat) UnmarshalJSON(b []byte) error {
	*f = 0
	s := strings.TrimSpace(string(b))
	if s == "" || s == "null" {
		return nil
	}
	if strings.HasPrefix(s, `"`) {
		var str string
		if err := json.Unmarshal(b, &str); err != nil {
			return nil
		}
		s = strings.TrimSpace(str)
	}
	if v, err := strconv.ParseFloat(leadingNumber.FindString(s), 64); err == nil && !math.IsNaN(v) && !math.IsInf(v, 0) {
		*f = FlexFloat(v)
	}
	return nil
}

type (
	named struct {
		Name string `json:"name"`
	}

	// RawActivity is one activity as the provider sends it, before grouping.
	RawActivity struct {
		Key          string    `json:"key"`
		Name         string    `json:"name"`
		Objective    string    `json:"objective"`
		Instructions string    `json:"instructions"`
		Materials    string    `json:"materials"`
		Level        int       `json:"level"`
		LevelScore   int       `json:"level_score"`
		ActivityType string    `json:"activity_type"`
		FTarget      string    `json:"fTarget"`
		FTargetValue FlexFloat `json:"fTargetValue"`
		ITarget      string    `json:"iTarget"`
		ITargetValue FlexFloat `json:"iTargetValue"`
		STarget      string    `json:"sTarget"`
		STargetValue FlexFloat `json:"sTargetValue"`
		Skill        *named    `json:"skill"`
		Indicator    *named    `json:"indicator"`
	}

	GroupResult struct {
		Skills                Taxonomy
		RawActivitiesCount    int
		ExpertActivitiesCount int
	}
)

func (ra RawActivity) skillName() string {
	if ra.Skill == nil || ra.Skill.Name == "" {
		return UnknownSkill
	}
	return ra.Skill.Name
}

func (ra RawActivity) indicatorName() string {
	if ra.Indicator == nil {
		return ""
	}
	return ra.Indicator.Name
}

func (ra RawActivity) activity() Activity {
	return Activity{
		Key:          ra.Key,
		Name:         ra.Name,
		Objective:    ra.Objective,
		Instructions: ra.Instructions,
		Materials:    ra.Materials,
		Level:        ra.Level,
		LevelScore:   ra.LevelScore,
		FTarget:      ra.FTarget,
		FTargetValue: float64(ra.FTargetValue),
		ITarget:      ra.ITarget,
		ITargetValue: float64(ra.ITargetValue),
		STarget:      ra.STarget,
		STargetValue: float64(ra.STargetValue),
	}
}

// Group keeps only expert activities and groups them by exact skill name, then exact indicator name.
// Skills and indicators keep the order in which they were first seen.
func Group(raw []RawActivity) GroupResult {
	res := GroupResult{RawActivitiesCount: len(raw), Skills: Taxonomy{}}
	skillIdx := make(map[string]int)
	indIdx := make(map[string]map[string]int)

	for _, ra := range raw {
		if ra.ActivityType != ExpertActivityType {
			continue
		}
		res.ExpertActivitiesCount++

		sName, iName := ra.skillName(), ra.indicatorName()
		si, ok := skillIdx[sName]
		if !ok {
			si = len(res.Skills)
			skillIdx[sName] = si
			indIdx[sName] = make(map[string]int)
			res.Skills = append(res.Skills, Skill{Name: sName, Indicators: []Indicator{}})
		}
		skill := &res.Skills[si]

		ii, ok := indIdx[sName][iName]
		if !ok {
			ii = len(skill.Indicators)
			indIdx[sName][iName] = ii
			skill.Indicators = append(skill.Indicators, Indicator{Name: iName, Activities: []Activity{}})
		}
		ind := &skill.Indicators[ii]
		ind.Activities = append(ind.Activities, ra.activity())
	}
	return res
}
