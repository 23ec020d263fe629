package advisor

import (
	"fmt"
	"sort"
	"strings"

	"cultivos/agronomy"
)

// ModelType names the engine that produced a reply.
type ModelType string

const (
	ModelExpert       ModelType = "expert"
	ModelClassifier   ModelType = "cnn"
	ModelHybrid       ModelType = "hybrid"
	ModelMLPrediction ModelType = "ml_prediction"
)

// Classifier confidence thresholds for general questions.
const (
	CannedThreshold = 0.6
	HybridThreshold = 0.4
)

// DefaultCompatThreshold is the suitability a crop must exceed to be
// recommended or listed in a prediction answer.
const DefaultCompatThreshold = 0.5

// Prompts returned when a farm-dependent question arrives without a farm.
const (
	NoFarmPredictionPrompt     = "Para hacer predicciones precisas necesito los datos de tu finca. Por favor, registra tu finca primero en la sección 'Mi Finca'."
	NoFarmRecommendationPrompt = "Para darte recomendaciones específicas necesito conocer las condiciones de tu finca. Por favor, registra tu finca primero."
)

var contextCategories = set("cultivos", "suelo", "clima", "riego", "fertilizacion")

// Predictor runs the local estimator over every crop.
type Predictor interface {
	PredictLocal(env agronomy.Environment) []agronomy.CropPrediction
}

// Recommendation is one recommended crop with its market context.
type Recommendation struct {
	Crop          string         `json:"crop"`
	Name          string         `json:"name"`
	Compatibility float64        `json:"compatibility"`
	ExpectedYield int            `json:"expected_yield"`
	Advantages    []string       `json:"advantages"`
	Disadvantages []string       `json:"disadvantages"`
	Investment    float64        `json:"investment_million_cop"`
	HarvestMonths int            `json:"harvest_months"`
	PH            agronomy.Range `json:"ph"`
	Temperature   agronomy.Range `json:"temperature"`
	Precipitation agronomy.Range `json:"precipitation"`
}

// Reply is the advisor's answer to one message.
type Reply struct {
	Route           Route            `json:"route"`
	ModelType       ModelType        `json:"model_type"`
	Category        string           `json:"category,omitempty"`
	Message         string           `json:"message"`
	Confidence      float64          `json:"confidence"`
	Suggestions     []string         `json:"suggestions,omitempty"`
	Recommendations []Recommendation `json:"recommendations,omitempty"`
}

// Advisor answers chat messages.
type Advisor struct {
	predictor  Predictor
	profiles   map[string]agronomy.CropProfile
	classifier TextClassifier
	threshold  float64
}

// New builds an advisor. classifier may be nil, in which case general
// questions always go to the expert rules. A threshold <= 0 selects
// DefaultCompatThreshold.
func New(predictor Predictor, profiles []agronomy.CropProfile, classifier TextClassifier, threshold float64) *Advisor {
	if threshold <= 0 {
		threshold = DefaultCompatThreshold
	}
	byName := make(map[string]agronomy.CropProfile, len(profiles))
	for _, p := range profiles {
		byName[p.Name] = p
	}
	return &Advisor{
		predictor:  predictor,
		profiles:   byName,
		classifier: classifier,
		threshold:  threshold,
	}
}

// Threshold returns the compatibility cut-off in use.
func (a *Advisor) Threshold() float64 {
	return a.threshold
}

// HasClassifier reports whether a text classifier is configured.
func (a *Advisor) HasClassifier() bool {
	return a.classifier != nil
}

// Respond routes message and builds the reply. env is nil when the user has
// no farm on record.
func (a *Advisor) Respond(message string, env *agronomy.Environment) Reply {
	route := Classify(message)
	switch route {
	case RoutePrediction:
		if env == nil {
			return Reply{Route: route, ModelType: ModelExpert, Message: NoFarmPredictionPrompt}
		}
		return a.predictionReply(*env)
	case RouteRecommendation:
		if env == nil {
			return Reply{Route: route, ModelType: ModelExpert, Message: NoFarmRecommendationPrompt}
		}
		return a.recommendationReply(*env)
	case RouteTechnical:
		ex := expertRespond(message, env, a.compatibility(env))
		return Reply{
			Route:       route,
			ModelType:   ModelExpert,
			Category:    ex.category,
			Message:     "**Consulta técnica**\n\n" + ex.text,
			Confidence:  ex.confidence,
			Suggestions: ex.suggestions,
		}
	default:
		return a.generalReply(message, env)
	}
}

func (a *Advisor) generalReply(message string, env *agronomy.Environment) Reply {
	compat := a.compatibility(env)
	if a.classifier != nil {
		c := a.classifier.Classify(message)
		switch {
		case c.Confidence > CannedThreshold:
			var b strings.Builder
			fmt.Fprintf(&b, "**%s** (confianza: %.0f%%)\n\n%s", strings.ToUpper(c.Category), c.Confidence*100, c.Response)
			if env != nil {
				if _, ok := contextCategories[c.Category]; ok {
					b.WriteString(farmContext(c.Category, *env))
				}
			}
			return Reply{
				Route:      RouteGeneral,
				ModelType:  ModelClassifier,
				Category:   c.Category,
				Message:    b.String(),
				Confidence: c.Confidence,
			}
		case c.Confidence > HybridThreshold:
			ex := expertRespond(message, env, compat)
			var b strings.Builder
			b.WriteString("**Análisis combinado**\n\n")
			fmt.Fprintf(&b, "**Clasificador (%s):**\n%s\n\n", c.Category, c.Response)
			fmt.Fprintf(&b, "**Sistema experto:**\n%s\n\n", ex.text)
			b.WriteString("*Ambos enfoques son complementarios para tu consulta.*")
			return Reply{
				Route:       RouteGeneral,
				ModelType:   ModelHybrid,
				Category:    c.Category,
				Message:     b.String(),
				Confidence:  (c.Confidence + ex.confidence) / 2,
				Suggestions: ex.suggestions,
			}
		}
	}
	ex := expertRespond(message, env, compat)
	return Reply{
		Route:       RouteGeneral,
		ModelType:   ModelExpert,
		Category:    ex.category,
		Message:     "**Sistema experto**\n\n" + ex.text,
		Confidence:  ex.confidence,
		Suggestions: ex.suggestions,
	}
}

func (a *Advisor) predictionReply(env agronomy.Environment) Reply {
	compatible := a.compatible(env)

	var b strings.Builder
	b.WriteString("**Predicciones para tu finca**\n\n")
	b.WriteString("Condiciones actuales:\n")
	fmt.Fprintf(&b, "- pH: %.1f\n", env.PH)
	fmt.Fprintf(&b, "- Temperatura: %.1f°C\n", env.Temperature)
	fmt.Fprintf(&b, "- Precipitación: %.0f mm/año\n", env.Precipitation)
	fmt.Fprintf(&b, "- Tipo de suelo: %s\n\n", env.SoilType)

	if len(compatible) == 0 {
		fmt.Fprintf(&b, "Ningún cultivo supera el %.0f%% de compatibilidad con estas condiciones.", a.threshold*100)
		return Reply{Route: RoutePrediction, ModelType: ModelMLPrediction, Message: b.String()}
	}

	b.WriteString("Cultivos con mejor pronóstico:\n\n")
	for i, c := range top(compatible, 5) {
		fmt.Fprintf(&b, "%d. **%s**: compatibilidad %.0f%%, rendimiento estimado %d kg/ha\n", i+1, c.Name, c.Score*100, c.Yield)
	}
	return Reply{
		Route:      RoutePrediction,
		ModelType:  ModelMLPrediction,
		Message:    b.String(),
		Confidence: compatible[0].Score,
	}
}

func (a *Advisor) recommendationReply(env agronomy.Environment) Reply {
	compatible := top(a.compatible(env), 3)
	if len(compatible) == 0 {
		msg := fmt.Sprintf("Ningún cultivo supera el %.0f%% de compatibilidad con las condiciones de tu finca. "+
			"Revisa el pH y el manejo del agua antes de sembrar.", a.threshold*100)
		return Reply{Route: RouteRecommendation, ModelType: ModelMLPrediction, Message: msg}
	}

	recs := make([]Recommendation, 0, len(compatible))
	var b strings.Builder
	b.WriteString("**Recomendaciones para tu finca**\n\n")
	for i, c := range compatible {
		p := a.profiles[c.Crop]
		note := noteFor(c.Crop)
		rec := Recommendation{
			Crop:          c.Crop,
			Name:          c.Name,
			Compatibility: c.Score,
			ExpectedYield: c.Yield,
			Advantages:    note.advantages,
			Disadvantages: note.disadvantages,
			Investment:    note.investment,
			HarvestMonths: note.harvestMonths,
			PH:            p.PH,
			Temperature:   p.Temperature,
			Precipitation: p.Precipitation,
		}
		recs = append(recs, rec)

		fmt.Fprintf(&b, "### %d. %s (%.0f%% compatibilidad)\n\n", i+1, rec.Name, rec.Compatibility*100)
		fmt.Fprintf(&b, "- Rendimiento esperado: %d kg/ha\n", rec.ExpectedYield)
		fmt.Fprintf(&b, "- Inversión estimada: $%.0f millones/ha\n", rec.Investment)
		fmt.Fprintf(&b, "- Tiempo a primera cosecha: %d meses\n\n", rec.HarvestMonths)
		b.WriteString("Ventajas:\n")
		for _, v := range rec.Advantages {
			fmt.Fprintf(&b, "- %s\n", v)
		}
		b.WriteString("\nConsideraciones:\n")
		for _, d := range rec.Disadvantages {
			fmt.Fprintf(&b, "- %s\n", d)
		}
		b.WriteString("\nRequerimientos óptimos:\n")
		fmt.Fprintf(&b, "- pH: %g - %g\n", rec.PH.Min, rec.PH.Max)
		fmt.Fprintf(&b, "- Temperatura: %g°C - %g°C\n", rec.Temperature.Min, rec.Temperature.Max)
		fmt.Fprintf(&b, "- Precipitación: %g - %g mm\n\n", rec.Precipitation.Min, rec.Precipitation.Max)
	}
	return Reply{
		Route:           RouteRecommendation,
		ModelType:       ModelMLPrediction,
		Message:         b.String(),
		Confidence:      recs[0].Compatibility,
		Recommendations: recs,
	}
}

// compatibility scores every crop for env, best first. Nil env gives nil.
func (a *Advisor) compatibility(env *agronomy.Environment) []Compatibility {
	if env == nil || a.predictor == nil {
		return nil
	}
	preds := a.predictor.PredictLocal(*env)
	out := make([]Compatibility, 0, len(preds))
	for _, p := range preds {
		name := p.Crop
		if prof, ok := a.profiles[p.Crop]; ok && prof.DisplayName != "" {
			name = prof.DisplayName
		}
		out = append(out, Compatibility{Crop: p.Crop, Name: name, Score: p.Suitability, Yield: p.Yield})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Score > out[j].Score })
	return out
}

// compatible keeps only crops strictly above the threshold.
func (a *Advisor) compatible(env agronomy.Environment) []Compatibility {
	var out []Compatibility
	for _, c := range a.compatibility(&env) {
		if c.Score > a.threshold {
			out = append(out, c)
		}
	}
	return out
}

func farmContext(category string, env agronomy.Environment) string {
	var b strings.Builder
	b.WriteString("\n\n**Contexto de tu finca:**\n")
	switch category {
	case "cultivos":
		fmt.Fprintf(&b, "Con pH %.1f y temperatura %.1f°C, considera estas recomendaciones adicionales.", env.PH, env.Temperature)
	case "suelo":
		fmt.Fprintf(&b, "Tu suelo actual: pH %.1f, tipo %s.", env.PH, env.SoilType)
	case "clima":
		fmt.Fprintf(&b, "Condiciones actuales: %.1f°C, %.0f mm/año, %.0f%% humedad.", env.Temperature, env.Precipitation, env.Humidity)
	case "riego":
		fmt.Fprintf(&b, "Con %.0f mm anuales de precipitación, evalúa si necesitas riego complementario.", env.Precipitation)
	default:
		b.WriteString("Considera las condiciones específicas de tu finca para mejores resultados.")
	}
	return b.String()
}
