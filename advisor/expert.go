package advisor

import (
	"fmt"
	"strings"

	"cultivos/agronomy"
)

// Compatibility is a crop's overall suitability for a farm.
type Compatibility struct {
	Crop  string  `json:"crop"`
	Name  string  `json:"name"`
	Score float64 `json:"score"`
	Yield int     `json:"yield"`
}

type expertReply struct {
	text        string
	confidence  float64
	category    string
	suggestions []string
}

var (
	soilWords       = set("ph", "suelo", "suelos")
	climateWords    = set("temperatura", "temperaturas", "clima")
	irrigationWords = set("riego", "regar", "agua")
)

const greeting = "Hola, soy tu asistente agrícola. Puedo ayudarte con recomendaciones de cultivos, análisis de suelo y consejos sobre agricultura. ¿En qué puedo asistirte?"

// expertRespond is the rule-based expert system. compat must be sorted by
// score, best first, and may be empty when env is nil.
func expertRespond(message string, env *agronomy.Environment, compat []Compatibility) expertReply {
	tokens := tokenize(message)
	switch {
	case hasAny(tokens, soilWords):
		return soilAdvice(env)
	case hasAny(tokens, climateWords):
		return climateAdvice(env, compat)
	case hasAny(tokens, irrigationWords):
		return irrigationAdvice(env)
	case env != nil && len(compat) > 0:
		return analyzeConditions(*env, compat)
	}
	return expertReply{text: greeting, confidence: 1.0, category: "general"}
}

func soilAdvice(env *agronomy.Environment) expertReply {
	var b strings.Builder
	b.WriteString("**Información sobre suelo**\n\n")
	if env != nil {
		fmt.Fprintf(&b, "Tu suelo tiene un pH de %.1f (%s).\n\n", env.PH, interpretPH(env.PH))
		switch {
		case env.PH < 6.0:
			b.WriteString("Para mejorar suelos ácidos:\n")
			b.WriteString("- Aplica cal agrícola (1-2 ton/ha)\n")
			b.WriteString("- Usa ceniza de madera\n")
			b.WriteString("- Incorpora compost bien descompuesto\n")
		case env.PH > 7.5:
			b.WriteString("Para suelos alcalinos:\n")
			b.WriteString("- Incorpora materia orgánica\n")
			b.WriteString("- Usa azufre elemental\n")
			b.WriteString("- Aplica abonos verdes\n")
		default:
			b.WriteString("Tu pH está en un rango óptimo para la mayoría de cultivos.\n")
		}
	} else {
		b.WriteString("Para un análisis específico necesito los datos de tu finca. En general:\n\n")
		b.WriteString("- pH óptimo para la mayoría de cultivos: 6.0-7.0\n")
		b.WriteString("- Suelos ácidos (pH < 6): aplicar cal\n")
		b.WriteString("- Suelos alcalinos (pH > 7.5): aplicar materia orgánica\n")
	}
	return expertReply{text: b.String(), confidence: 0.9, category: "suelo"}
}

func climateAdvice(env *agronomy.Environment, compat []Compatibility) expertReply {
	var b strings.Builder
	b.WriteString("**Información climática**\n\n")
	if env != nil {
		fmt.Fprintf(&b, "Condiciones actuales: %.1f°C, %.0f mm/año\n\n", env.Temperature, env.Precipitation)
		b.WriteString("Cultivos recomendados para tu clima:\n")
		for i, c := range top(compat, 3) {
			fmt.Fprintf(&b, "%d. %s (%.0f%% compatibilidad)\n", i+1, c.Name, c.Score*100)
		}
	} else {
		b.WriteString("Factores climáticos importantes:\n")
		b.WriteString("- Temperatura: afecta el crecimiento y desarrollo\n")
		b.WriteString("- Precipitación: determinante para el riego\n")
		b.WriteString("- Humedad: influye en enfermedades\n")
		b.WriteString("\nPara recomendaciones específicas, comparte los datos de tu finca.")
	}
	return expertReply{text: b.String(), confidence: 0.85, category: "clima"}
}

func irrigationAdvice(env *agronomy.Environment) expertReply {
	var b strings.Builder
	b.WriteString("**Manejo del agua**\n\n")
	if env != nil {
		fmt.Fprintf(&b, "Con %.0f mm de precipitación anual:\n\n", env.Precipitation)
		switch {
		case env.Precipitation < 800:
			b.WriteString("Precipitación baja, el riego es esencial:\n")
			b.WriteString("- Sistema de riego por goteo recomendado\n")
			b.WriteString("- Mulching para conservar humedad\n")
			b.WriteString("- Cultivos resistentes a sequía\n")
		case env.Precipitation > 2000:
			b.WriteString("Precipitación alta, cuidado con el drenaje:\n")
			b.WriteString("- Implementar sistemas de drenaje\n")
			b.WriteString("- Evitar encharcamientos\n")
			b.WriteString("- Cultivos que toleren humedad\n")
		default:
			b.WriteString("Precipitación moderada, riego complementario:\n")
			b.WriteString("- Riego durante época seca\n")
			b.WriteString("- Monitoreo de humedad del suelo\n")
			b.WriteString("- Riego eficiente (goteo o aspersión)\n")
		}
	} else {
		b.WriteString("Principios básicos del riego:\n")
		b.WriteString("- Riego por goteo: más eficiente\n")
		b.WriteString("- Riego matutino: reduce enfermedades\n")
		b.WriteString("- Monitoreo: evita exceso o déficit\n")
	}
	return expertReply{text: b.String(), confidence: 0.88, category: "riego"}
}

func analyzeConditions(env agronomy.Environment, compat []Compatibility) expertReply {
	best := compat[0]
	var b strings.Builder
	b.WriteString("**Análisis de condiciones de tu finca**\n\n")
	b.WriteString("Condiciones actuales:\n")
	fmt.Fprintf(&b, "- pH: %.1f (%s)\n", env.PH, interpretPH(env.PH))
	fmt.Fprintf(&b, "- Temperatura: %.1f°C (%s)\n", env.Temperature, interpretTemperature(env.Temperature))
	fmt.Fprintf(&b, "- Precipitación: %.0f mm/año (%s)\n", env.Precipitation, interpretPrecipitation(env.Precipitation))
	fmt.Fprintf(&b, "- Humedad: %.0f%% (%s)\n\n", env.Humidity, interpretHumidity(env.Humidity))

	fmt.Fprintf(&b, "Cultivo más recomendado: **%s** (%.0f%% compatibilidad)\n\n", best.Name, best.Score*100)
	b.WriteString("Top 3 opciones:\n")
	for i, c := range top(compat, 3) {
		fmt.Fprintf(&b, "%d. %s: %.0f%%\n", i+1, c.Name, c.Score*100)
	}

	suggestions := suggest(env, compat)
	b.WriteString("\nSugerencias:\n")
	for _, s := range suggestions {
		fmt.Fprintf(&b, "- %s\n", s)
	}
	return expertReply{
		text:        b.String(),
		confidence:  best.Score,
		category:    "analisis",
		suggestions: suggestions,
	}
}

func suggest(env agronomy.Environment, compat []Compatibility) []string {
	var out []string
	switch {
	case env.PH < 6.0:
		out = append(out, "Considera aplicar cal agrícola para aumentar el pH del suelo")
	case env.PH > 7.5:
		out = append(out, "Aplica materia orgánica para reducir la alcalinidad del suelo")
	}
	switch {
	case env.Precipitation < 1000:
		out = append(out, "Planifica un sistema de riego para complementar la precipitación")
	case env.Precipitation > 2500:
		out = append(out, "Implementa sistemas de drenaje para evitar encharcamientos")
	}
	if len(compat) > 0 && compat[0].Score > 0.8 {
		out = append(out, fmt.Sprintf("%s es ideal para tus condiciones", compat[0].Name))
	} else {
		out = append(out, "Considera una combinación de cultivos para diversificar riesgos")
	}
	return out
}

func interpretPH(ph float64) string {
	switch {
	case ph < 5.5:
		return "muy ácido"
	case ph < 6.0:
		return "ácido"
	case ph < 7.0:
		return "ligeramente ácido"
	case ph < 7.5:
		return "neutro"
	case ph < 8.0:
		return "ligeramente alcalino"
	}
	return "alcalino"
}

func interpretTemperature(t float64) string {
	switch {
	case t < 18:
		return "frío"
	case t < 24:
		return "templado"
	case t < 30:
		return "cálido"
	}
	return "muy caliente"
}

func interpretPrecipitation(p float64) string {
	switch {
	case p < 800:
		return "seco"
	case p < 1200:
		return "moderado"
	case p < 2000:
		return "húmedo"
	}
	return "muy húmedo"
}

func interpretHumidity(h float64) string {
	switch {
	case h < 60:
		return "baja"
	case h < 80:
		return "moderada"
	}
	return "alta"
}

func top(c []Compatibility, n int) []Compatibility {
	if len(c) < n {
		return c
	}
	return c[:n]
}
