// Package agronomy holds the crop-suitability model: the per-variable scorer,
// the static crop profile table and the yield estimator built on top of them.
package agronomy

import "math"

// Tolerance widths for the out-of-range decay, one per environmental variable.
const (
	TolerancePH            = 2.0
	ToleranceTemperature   = 8.0
	ToleranceHumidity      = 20.0
	TolerancePrecipitation = 300.0
)

// minOutOfRangeScore keeps an out-of-range value from ever scoring zero.
const minOutOfRangeScore = 0.2

// Range is a closed interval [Min, Max].
type Range struct {
	Min float64 `yaml:"min" json:"min"`
	Max float64 `yaml:"max" json:"max"`
}

// Contains reports whether v lies within the interval.
func (r Range) Contains(v float64) bool {
	return v >= r.Min && v <= r.Max
}

// Mid returns the interval midpoint.
func (r Range) Mid() float64 {
	return (r.Min + r.Max) / 2
}

// Score returns how favorable value is against the optimal range, in [0,1].
//
// Inside the range the score follows a Gaussian centred on the midpoint with
// sigma equal to a quarter of the range width, so it peaks at 1.0 in the
// middle and falls off toward the edges. Outside the range it decays
// exponentially with the distance to the nearest bound over tolerance,
// floored at 0.2. A single-point range scores 1.0 on the point and uses the
// out-of-range decay everywhere else.
func Score(value float64, optimal Range, tolerance float64) float64 {
	if optimal.Contains(value) {
		mid := optimal.Mid()
		r := (optimal.Max - optimal.Min) / 2
		if r == 0 {
			return 1.0
		}
		z := (value - mid) / (r / 2)
		return clamp(math.Exp(-0.5*z*z), 0, 1)
	}

	var distance float64
	if value < optimal.Min {
		distance = optimal.Min - value
	} else {
		distance = value - optimal.Max
	}
	if tolerance <= 0 {
		return minOutOfRangeScore
	}
	return clamp(math.Max(minOutOfRangeScore, math.Exp(-distance/tolerance)), 0, 1)
}

func clamp(v, lo, hi float64) float64 {
	if math.IsNaN(v) {
		return lo
	}
	return math.Min(hi, math.Max(lo, v))
}

// round3 rounds to three decimals, the precision predictions are reported with.
func round3(v float64) float64 {
	return math.Round(v*1000) / 1000
}
