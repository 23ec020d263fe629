package advisor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"cultivos/agronomy"
)

type MockPredictor struct {
	mock.Mock
}

func (m *MockPredictor) PredictLocal(env agronomy.Environment) []agronomy.CropPrediction {
	args := m.Called(env)
	return args.Get(0).([]agronomy.CropPrediction)
}

type fixedSource float64

func (f fixedSource) Float64() float64 { return float64(f) }

func farm() *agronomy.Environment {
	return &agronomy.Environment{
		PH:            6.2,
		SoilType:      "Franco",
		SoilTexture:   "Media",
		Temperature:   24,
		Precipitation: 1400,
		Humidity:      78,
		Practices:     []string{"Riego por goteo"},
	}
}

func scoredPredictions() []agronomy.CropPrediction {
	return []agronomy.CropPrediction{
		{Crop: "papaya", Yield: 50000, Suitability: 0.4},
		{Crop: "zanahoria", Yield: 36000, Suitability: 0.55},
		{Crop: "papa", Yield: 30000, Suitability: 0.9},
		{Crop: "mango", Yield: 22000, Suitability: 0.7},
	}
}

func newMockAdvisor(preds []agronomy.CropPrediction) (*Advisor, *MockPredictor) {
	p := new(MockPredictor)
	p.On("PredictLocal", mock.Anything).Return(preds)
	return New(p, agronomy.DefaultProfiles(), NewCorpusClassifier(DefaultCorpus()), 0), p
}

func TestClassify(t *testing.T) {
	tests := []struct {
		msg  string
		want Route
	}{
		{"¿Cuánto puedo esperar de mi finca?", RoutePrediction},
		{"Quiero ver la predicción de rendimiento", RoutePrediction},
		{"¿Qué cultivo me recomiendas?", RouteRecommendation},
		{"Busco una alternativa para sembrar", RouteRecommendation},
		{"¿Cómo controlar la plaga?", RouteTechnical},
		{"Cuando debo fertilizar", RouteTechnical},
		{"temperatura optima para cacao", RouteGeneral},
		{"", RouteGeneral},
		// prediction keywords take priority over recommendation ones
		{"¿Cuál es el mejor rendimiento?", RoutePrediction},
		// recommendation beats technical
		{"Cómo elegir el mejor cultivo", RouteRecommendation},
		// whole-word matching: "comodidad" is not "como"
		{"comodidad del trabajador", RouteGeneral},
		// common inflections of the keywords
		{"¿Cuántos kilos saco por hectárea?", RoutePrediction},
		{"¿Puedes predecir la cosecha?", RoutePrediction},
		{"Como mejorar mi producción de papa", RoutePrediction},
		{"Como mejorar el suelo", RouteRecommendation},
		{"¿Qué me puedes recomendar?", RouteRecommendation},
		{"Busco un cultivo alternativo", RouteRecommendation},
	}
	for _, tt := range tests {
		t.Run(tt.msg, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.msg))
		})
	}
}

func TestClassifyIsIdempotent(t *testing.T) {
	msgs := []string{"¿Cuánto rinde la papa?", "recomienda algo", "como regar", "hola"}
	for _, m := range msgs {
		first := Classify(m)
		for i := 0; i < 5; i++ {
			assert.Equal(t, first, Classify(m))
		}
	}
}

func TestRespondWithoutFarm(t *testing.T) {
	a, p := newMockAdvisor(scoredPredictions())

	pred := a.Respond("¿Cuánto voy a producir?", nil)
	assert.Equal(t, RoutePrediction, pred.Route)
	assert.Equal(t, NoFarmPredictionPrompt, pred.Message)

	rec := a.Respond("¿Qué me recomiendas sembrar?", nil)
	assert.Equal(t, RouteRecommendation, rec.Route)
	assert.Equal(t, NoFarmRecommendationPrompt, rec.Message)

	p.AssertNotCalled(t, "PredictLocal", mock.Anything)
}

func TestRecommendationFiltersAndRanks(t *testing.T) {
	a, _ := newMockAdvisor(scoredPredictions())

	r := a.Respond("¿Qué cultivo me recomiendas?", farm())

	assert.Equal(t, RouteRecommendation, r.Route)
	assert.Equal(t, ModelMLPrediction, r.ModelType)
	require.Len(t, r.Recommendations, 3)
	assert.Equal(t, "papa", r.Recommendations[0].Crop)
	assert.Equal(t, "mango", r.Recommendations[1].Crop)
	assert.Equal(t, "zanahoria", r.Recommendations[2].Crop)
	assert.Equal(t, 0.9, r.Confidence)
	assert.Equal(t, agronomy.Range{Min: 6, Max: 7}, r.Recommendations[0].PH)
	assert.Equal(t, 36, r.Recommendations[1].HarvestMonths)
	assert.NotContains(t, r.Message, "Papaya")
	assert.Contains(t, r.Message, "Papa (90% compatibilidad)")
}

func TestThresholdIsExclusive(t *testing.T) {
	a, _ := newMockAdvisor([]agronomy.CropPrediction{
		{Crop: "papa", Yield: 30000, Suitability: 0.5},
		{Crop: "mango", Yield: 20000, Suitability: 0.501},
	})

	r := a.Respond("recomienda un cultivo", farm())
	require.Len(t, r.Recommendations, 1)
	assert.Equal(t, "mango", r.Recommendations[0].Crop)
}

func TestNoCompatibleCrops(t *testing.T) {
	a, _ := newMockAdvisor([]agronomy.CropPrediction{{Crop: "papa", Yield: 8000, Suitability: 0.3}})

	r := a.Respond("recomienda un cultivo", farm())
	assert.Empty(t, r.Recommendations)
	assert.Contains(t, r.Message, "Ningún cultivo supera el 50%")

	r = a.Respond("¿Cuánto rendimiento tendré?", farm())
	assert.Equal(t, RoutePrediction, r.Route)
	assert.Zero(t, r.Confidence)
}

func TestPredictionReplyListsCompatibleCrops(t *testing.T) {
	a, _ := newMockAdvisor(scoredPredictions())

	r := a.Respond("¿Cuánto rendimiento puedo esperar?", farm())

	assert.Equal(t, RoutePrediction, r.Route)
	assert.Equal(t, ModelMLPrediction, r.ModelType)
	assert.Contains(t, r.Message, "1. **Papa**")
	assert.Contains(t, r.Message, "2. **Mango**")
	assert.NotContains(t, r.Message, "Papaya")
}

func TestTechnicalUsesExpert(t *testing.T) {
	a, _ := newMockAdvisor(scoredPredictions())

	r := a.Respond("¿Cómo regar con poca agua?", farm())
	assert.Equal(t, RouteTechnical, r.Route)
	assert.Equal(t, ModelExpert, r.ModelType)
	assert.Equal(t, "riego", r.Category)
	assert.Contains(t, r.Message, "**Consulta técnica**")
	assert.Contains(t, r.Message, "Precipitación moderada")
	assert.Equal(t, 0.88, r.Confidence)
}

func TestGeneralFallbackChain(t *testing.T) {
	a, _ := newMockAdvisor(scoredPredictions())

	t.Run("confident classifier answers", func(t *testing.T) {
		r := a.Respond("temperatura optima para cacao", farm())
		assert.Equal(t, RouteGeneral, r.Route)
		assert.Equal(t, ModelClassifier, r.ModelType)
		assert.Equal(t, "clima", r.Category)
		assert.InDelta(t, 1.0, r.Confidence, 1e-9)
		assert.Contains(t, r.Message, "El cacao requiere temperaturas")
		assert.Contains(t, r.Message, "Contexto de tu finca")
	})

	t.Run("no farm context without a farm", func(t *testing.T) {
		r := a.Respond("temperatura optima para cacao", nil)
		assert.NotContains(t, r.Message, "Contexto de tu finca")
	})

	t.Run("moderate confidence blends", func(t *testing.T) {
		r := a.Respond("temperatura para cacao en clima frio", farm())
		assert.Equal(t, ModelHybrid, r.ModelType)
		assert.Contains(t, r.Message, "El cacao requiere temperaturas")
		assert.Contains(t, r.Message, "Información climática")
	})

	t.Run("low confidence goes to expert", func(t *testing.T) {
		r := a.Respond("hola buenos dias", nil)
		assert.Equal(t, ModelExpert, r.ModelType)
		assert.Contains(t, r.Message, "asistente agrícola")
	})

	t.Run("low confidence with farm analyzes conditions", func(t *testing.T) {
		r := a.Respond("hola buenos dias", farm())
		assert.Equal(t, ModelExpert, r.ModelType)
		assert.Equal(t, "analisis", r.Category)
		assert.Contains(t, r.Message, "Cultivo más recomendado: **Papa**")
		assert.Contains(t, r.Suggestions, "Papa es ideal para tus condiciones")
	})
}

func TestGeneralWithoutClassifier(t *testing.T) {
	a := New(nil, agronomy.DefaultProfiles(), nil, 0)
	assert.False(t, a.HasClassifier())
	assert.Equal(t, DefaultCompatThreshold, a.Threshold())

	r := a.Respond("temperatura optima para cacao", nil)
	assert.Equal(t, ModelExpert, r.ModelType)
	assert.Equal(t, "clima", r.Category)
}

func TestAdvisorWithEstimator(t *testing.T) {
	profiles := agronomy.DefaultProfiles()
	est := agronomy.NewEstimator(fixedSource(0.5))
	a := New(estimatorPredictor{est, profiles}, profiles, nil, 0)

	r := a.Respond("¿Qué me recomiendas sembrar?", farm())
	require.LessOrEqual(t, len(r.Recommendations), 3)
	for i, rec := range r.Recommendations {
		assert.Greater(t, rec.Compatibility, DefaultCompatThreshold)
		assert.GreaterOrEqual(t, rec.ExpectedYield, agronomy.MinYield)
		if i > 0 {
			assert.GreaterOrEqual(t, r.Recommendations[i-1].Compatibility, rec.Compatibility)
		}
	}
}

type estimatorPredictor struct {
	est      *agronomy.Estimator
	profiles []agronomy.CropProfile
}

func (e estimatorPredictor) PredictLocal(env agronomy.Environment) []agronomy.CropPrediction {
	return e.est.EstimateAll(env, e.profiles)
}

func TestCorpusClassifier(t *testing.T) {
	c := NewCorpusClassifier(DefaultCorpus())

	assert.Len(t, c.Categories(), 9)
	assert.Positive(t, c.VocabularySize())

	got := c.Classify("plagas del tomate")
	assert.Equal(t, "plagas", got.Category)
	assert.InDelta(t, 1.0, got.Confidence, 1e-9)

	got = c.Classify("xyz")
	assert.Equal(t, "general", got.Category)
	assert.Zero(t, got.Confidence)

	empty := NewCorpusClassifier(nil)
	assert.Zero(t, empty.Classify("plagas").Confidence)
}
