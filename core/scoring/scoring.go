// Package scoring computes the derived session metrics of a skill entry:
// target cutoff, actual cutoff, percent FIST achieved, indicator score and KSA score.
//
// Everything here is pure. Missing inputs are passed as 0 by the caller and no rounding
// happens; formatting is left to whoever displays the numbers.
package scoring

// Inputs holds the numeric fields a skill entry contributes to the formulas.
type Inputs struct {
	TargetF float64
	TargetI float64
	TargetS float64

	ActualF float64
	ActualI float64
	ActualS float64

	ImpactScore  float64
	LevelScore   float64
	KSAWeightage float64
}

// Result holds the five calculated fields. They are always produced together.
type Result struct {
	TargetCutoff        float64
	ActualCutoff        float64
	FistAchievedPercent float64
	IndicatorScore      float64
	KSAScore            float64
}

const (
	levelFactor = 5
	fiWeight    = 0.6
	sWeight     = 0.4
)

// TargetCutoff = targetF * targetI * 5 * 0.6 + targetS * 0.4
func TargetCutoff(in Inputs) float64 {
	return in.TargetF*in.TargetI*levelFactor*fiWeight + in.TargetS*sWeight
}

// ActualCutoff = actualF * actualI * 5 * 0.6 + (targetS + (targetS - actualS)) * 0.4
//
// The S term is measured as a deviation from targetS, not from actualS.
func ActualCutoff(in Inputs) float64 {
	return in.ActualF*in.ActualI*levelFactor*fiWeight + (in.TargetS+(in.TargetS-in.ActualS))*sWeight
}

// FistAchievedPercent = actualCutoff / targetCutoff * 100; 0 when targetCutoff is 0.
func FistAchievedPercent(targetCutoff, actualCutoff float64) float64 {
	if targetCutoff == 0 {
		return 0
	}
	return actualCutoff / targetCutoff * 100
}

// IndicatorScore = (1 - (targetCutoff - actualCutoff) / 10) * impactScore * levelScore
func IndicatorScore(targetCutoff, actualCutoff, impactScore, levelScore float64) float64 {
	return (1 - (targetCutoff-actualCutoff)/10) * impactScore * levelScore
}

// KSAScore = indicatorScore * ksaWeightage / 10
func KSAScore(indicatorScore, ksaWeightage float64) float64 {
	return indicatorScore * ksaWeightage / 10
}

// Compute runs the whole pipeline in order. Each step only consumes raw inputs
// and the results of earlier steps.
func Compute(in Inputs) Result {
	var r Result
	r.TargetCutoff = TargetCutoff(in)
	r.ActualCutoff = ActualCutoff(in)
	r.FistAchievedPercent = FistAchievedPercent(r.TargetCutoff, r.ActualCutoff)
	r.IndicatorScore = IndicatorScore(r.TargetCutoff, r.ActualCutoff, in.ImpactScore, in.LevelScore)
	r.KSAScore = KSAScore(r.IndicatorScore, in.KSAWeightage)
	return r
}
