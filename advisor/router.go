// Package advisor answers free-text farming questions. Messages are routed by
// keyword to crop predictions, crop recommendations, rule-based technical
// advice or a small text classifier for everything else.
package advisor

import (
	"strings"
	"unicode"
)

// Route is the bucket a chat message is dispatched to.
type Route string

const (
	RoutePrediction     Route = "prediction"
	RouteRecommendation Route = "recommendation"
	RouteTechnical      Route = "technical"
	RouteGeneral        Route = "general"
)

type keywordRule struct {
	route    Route
	keywords map[string]struct{}
}

func set(words ...string) map[string]struct{} {
	m := make(map[string]struct{}, len(words))
	for _, w := range words {
		m[w] = struct{}{}
	}
	return m
}

// rules are checked in order; the first rule with a matching token wins.
var rules = []keywordRule{
	{RoutePrediction, set(
		"predicción", "prediccion", "predicciones",
		"rendimiento", "rendimientos",
		"producción", "produccion",
		"cuanto", "cuánto", "cuanta", "cuánta",
		"cuantos", "cuántos", "cuantas", "cuántas",
		"predecir", "producir",
		"esperar", "esperado", "esperada",
	)},
	{RouteRecommendation, set(
		"recomienda", "recomiendas", "recomiendan", "recomendar", "recomiende",
		"recomendación", "recomendacion", "recomendaciones",
		"cultivo", "cultivos",
		"sembrar",
		"mejor", "mejores", "mejorar",
		"alternativa", "alternativas", "alternativo", "alternativos",
	)},
	{RouteTechnical, set(
		"como", "cómo",
		"cuando", "cuándo",
		"fertilizar",
		"regar",
		"plaga", "plagas",
		"enfermedad", "enfermedades",
	)},
}

// Classify maps a message to a route. It is a pure function of its input.
func Classify(message string) Route {
	tokens := tokenize(message)
	for _, rule := range rules {
		for _, tok := range tokens {
			if _, ok := rule.keywords[tok]; ok {
				return rule.route
			}
		}
	}
	return RouteGeneral
}

// tokenize lowercases text and splits it on anything that is not a letter or digit.
func tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

func hasAny(tokens []string, words map[string]struct{}) bool {
	for _, t := range tokens {
		if _, ok := words[t]; ok {
			return true
		}
	}
	return false
}
