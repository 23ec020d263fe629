package agronomy

import (
	"math"
	"math/rand"
	"sort"

	"github.com/montanaflynn/stats"
)

// Weights of each factor in the overall suitability.
const (
	WeightPH            = 0.20
	WeightTemperature   = 0.25
	WeightHumidity      = 0.20
	WeightPrecipitation = 0.25
	WeightSoil          = 0.10
)

// Output bounds for estimated predictions.
const (
	MinYield      = 8000
	MinConfidence = 0.65
	MaxConfidence = 0.98
	// rankBoost is the per-position confidence nudge applied around rank 3.
	rankBoost = 0.02
)

// RandomSource supplies uniform draws in [0,1).
type RandomSource interface {
	Float64() float64
}

// globalSource draws from the concurrency-safe top-level math/rand/v2 generator.
type globalSource struct{}

func (globalSource) Float64() float64 { return rand.Float64() }

// Environment is a validated description of a farm's conditions.
type Environment struct {
	PH            float64
	SoilType      string
	SoilTexture   string
	Temperature   float64
	Precipitation float64
	Humidity      float64
	Practices     []string
}

// SuitabilityFactors are the four per-variable scores reported with a prediction.
type SuitabilityFactors struct {
	PH            float64 `json:"ph_suitability" bson:"ph_suitability"`
	Temperature   float64 `json:"temperature_suitability" bson:"temperature_suitability"`
	Humidity      float64 `json:"humidity_suitability" bson:"humidity_suitability"`
	Precipitation float64 `json:"precipitation_suitability" bson:"precipitation_suitability"`
}

// CropPrediction is the estimate for a single crop.
type CropPrediction struct {
	Crop       string             `json:"crop" bson:"crop"`
	Yield      int                `json:"yield" bson:"yield"`
	Confidence float64            `json:"confidence" bson:"confidence"`
	Factors    SuitabilityFactors `json:"suitability_factors" bson:"suitability_factors"`
	// Suitability is the weighted overall score; zero when a remote model
	// produced the prediction and did not report one.
	Suitability float64 `json:"overall_suitability,omitempty" bson:"overall_suitability,omitempty"`
}

// Estimator turns an environment and a crop profile into a prediction.
type Estimator struct {
	rng RandomSource
}

// NewEstimator builds an estimator drawing from rng, or from the shared
// generator when rng is nil.
func NewEstimator(rng RandomSource) *Estimator {
	if rng == nil {
		rng = globalSource{}
	}
	return &Estimator{rng: rng}
}

// Estimate computes yield, confidence and suitability factors for one crop.
func (e *Estimator) Estimate(env Environment, p CropProfile) CropPrediction {
	phS := Score(env.PH, p.PH, TolerancePH)
	tempS := Score(env.Temperature, p.Temperature, ToleranceTemperature)
	humS := Score(env.Humidity, p.Humidity, ToleranceHumidity)
	precS := Score(env.Precipitation, p.Precipitation, TolerancePrecipitation)
	soilS := soilFactor(env.SoilType, p)
	texS := textureFactor(env.SoilTexture, p)
	practice := practiceBonus(env.Practices, p.Practices)

	overall := (phS*WeightPH +
		tempS*WeightTemperature +
		humS*WeightHumidity +
		precS*WeightPrecipitation +
		soilS*WeightSoil) * texS * practice
	overall = clamp(overall, 0, 1)

	multiplier := 0.6 + overall*0.8
	variation := 1 + (e.rng.Float64()-0.5)*p.YieldVariance
	yield := math.Round(p.BaseYield * multiplier * variation)
	if yield < MinYield {
		yield = MinYield
	}

	// Consistency compares overall suitability with the four climate factors only.
	mean, err := stats.Mean(stats.Float64Data{phS, tempS, humS, precS})
	if err != nil {
		mean = overall
	}
	confidence := p.ConfidenceBase * (1 - math.Abs(overall-mean)) * (0.9 + e.rng.Float64()*0.2)
	confidence = clamp(confidence, MinConfidence, MaxConfidence)

	return CropPrediction{
		Crop:       p.Name,
		Yield:      int(yield),
		Confidence: round3(confidence),
		Factors: SuitabilityFactors{
			PH:            round3(phS),
			Temperature:   round3(tempS),
			Humidity:      round3(humS),
			Precipitation: round3(precS),
		},
		Suitability: round3(overall),
	}
}

// EstimateAll runs Estimate for every profile and returns the results ranked.
func (e *Estimator) EstimateAll(env Environment, profiles []CropProfile) []CropPrediction {
	out := make([]CropPrediction, 0, len(profiles))
	for _, p := range profiles {
		out = append(out, e.Estimate(env, p))
	}
	SortByYield(out)
	ApplyRankBoost(out)
	return out
}

// SortByYield orders predictions by yield, highest first. Ties keep crop-name order.
func SortByYield(preds []CropPrediction) {
	sort.SliceStable(preds, func(i, j int) bool {
		if preds[i].Yield != preds[j].Yield {
			return preds[i].Yield > preds[j].Yield
		}
		return preds[i].Crop < preds[j].Crop
	})
}

// ApplyRankBoost nudges confidence by position in an already sorted slice:
// the top entries gain up to 6%, later ones lose 2% per step past the third.
func ApplyRankBoost(preds []CropPrediction) {
	for i := range preds {
		c := preds[i].Confidence * (1 + float64(3-i)*rankBoost)
		preds[i].Confidence = round3(clamp(c, MinConfidence, MaxConfidence))
	}
}

func soilFactor(soil string, p CropProfile) float64 {
	switch {
	case Contains(p.PreferredSoils, soil):
		return 1.0
	case Contains(p.SecondarySoils, soil):
		return SecondarySoilFactor
	default:
		return OtherSoilFactor
	}
}

func textureFactor(texture string, p CropProfile) float64 {
	if f, ok := p.Textures[texture]; ok {
		return f
	}
	return DefaultTexture
}

// practiceBonus rewards declared practices that match the crop's synergies,
// from 1.0 (no match) to 1.25 (all synergies present).
func practiceBonus(declared, synergies []string) float64 {
	if len(declared) == 0 || len(synergies) == 0 {
		return 1.0
	}
	seen := make(map[string]bool, len(declared))
	matches := 0
	for _, d := range declared {
		if seen[d] {
			continue
		}
		seen[d] = true
		if Contains(synergies, d) {
			matches++
		}
	}
	return 1 + float64(matches)/float64(len(synergies))*0.25
}
