package scoring

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

const eps = 1e-9

func TestCompute(t *testing.T) {
	tests := []struct {
		name string
		in   Inputs
		want Result
	}{
		{
			name: "reference entry",
			in: Inputs{
				TargetF:     4, TargetI: 5, TargetS: 3,
				ActualF:     3, ActualI: 4, ActualS: 2,
				ImpactScore: 1, LevelScore: 2, KSAWeightage: 10,
			},
			want: Result{
				TargetCutoff:        61.2,
				ActualCutoff:        37.6,
				FistAchievedPercent: 37.6 / 61.2 * 100,
				IndicatorScore:      -2.72,
				KSAScore:            -2.72,
			},
		},
		{
			name: "all zero",
			in:   Inputs{},
			want: Result{},
		},
		{
			name: "zero target cutoff ignores actuals",
			in:   Inputs{ActualF: 5, ActualI: 5, ActualS: 1, ImpactScore: 2, LevelScore: 3, KSAWeightage: 5},
			want: Result{
				TargetCutoff:        0,
				ActualCutoff:        75 + (0+(0-1))*0.4,
				FistAchievedPercent: 0,
				IndicatorScore:      (1 - (0-74.6)/10) * 2 * 3,
				KSAScore:            (1 - (0-74.6)/10) * 2 * 3 * 5 / 10,
			},
		},
		{
			name: "target met exactly",
			in: Inputs{
				TargetF:     2, TargetI: 2, TargetS: 1,
				ActualF:     2, ActualI: 2, ActualS: 1,
				ImpactScore: 3, LevelScore: 1, KSAWeightage: 4,
			},
			want: Result{
				TargetCutoff:        12.4,
				ActualCutoff:        12.4,
				FistAchievedPercent: 100,
				IndicatorScore:      3,
				KSAScore:            1.2,
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Compute(tt.in)
			assert.InDelta(t, tt.want.TargetCutoff, got.TargetCutoff, eps, "TargetCutoff")
			assert.InDelta(t, tt.want.ActualCutoff, got.ActualCutoff, eps, "ActualCutoff")
			assert.InDelta(t, tt.want.FistAchievedPercent, got.FistAchievedPercent, eps, "FistAchievedPercent")
			assert.InDelta(t, tt.want.IndicatorScore, got.IndicatorScore, eps, "IndicatorScore")
			assert.InDelta(t, tt.want.KSAScore, got.KSAScore, eps, "KSAScore")
		})
	}
}

func TestFistAchievedPercent_zeroTarget(t *testing.T) {
	for _, actual := range []float64{0, 1, -3, 1e9} {
		got := FistAchievedPercent(0, actual)
		assert.False(t, math.IsNaN(got) || math.IsInf(got, 0), "got %v", got)
		assert.Equal(t, 0.0, got)
	}
}

func TestCompute_idempotent(t *testing.T) {
	in := Inputs{TargetF: 1.5, TargetI: 2.5, TargetS: 0.7, ActualF: 1, ActualI: 3, ActualS: 0.2, ImpactScore: 4, LevelScore: 2, KSAWeightage: 7}
	assert.Equal(t, Compute(in), Compute(in))
}
