package advisor

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

// Classification is the classifier's best guess for a message.
type Classification struct {
	Category   string  `json:"category"`
	Response   string  `json:"response"`
	Confidence float64 `json:"confidence"`
}

// TextClassifier categorizes free text and proposes a canned answer.
type TextClassifier interface {
	Classify(text string) Classification
}

// Example is one labelled training pair.
type Example struct {
	Input    string
	Output   string
	Category string
}

// DefaultCorpus is the built-in Spanish agricultural corpus.
func DefaultCorpus() []Example {
	return []Example{
		{
			Input:    "que cultivo es mejor para ph 6.2 temperatura 24 grados",
			Output:   "Para un pH de 6.2 y temperatura de 24°C, te recomiendo cacao, café o aguacate. Estos cultivos prosperan en condiciones ligeramente ácidas y temperaturas moderadas.",
			Category: "cultivos",
		},
		{
			Input:    "como mejorar ph del suelo acido",
			Output:   "Para mejorar el pH de suelo ácido, aplica cal agrícola (carbonato de calcio) a razón de 1-2 toneladas por hectárea. También puedes usar ceniza de madera o compost bien descompuesto.",
			Category: "suelo",
		},
		{
			Input:    "cuanta agua necesita el cafe",
			Output:   "El café necesita entre 1200-1800mm de precipitación anual. Durante la época seca, requiere riego complementario de 20-30mm semanales, especialmente durante la floración.",
			Category: "riego",
		},
		{
			Input:    "temperatura optima para cacao",
			Output:   "El cacao requiere temperaturas entre 21-30°C, con óptimo en 25°C. Temperaturas menores a 16°C o mayores a 38°C afectan negativamente su desarrollo y producción.",
			Category: "clima",
		},
		{
			Input:    "como sembrar platano",
			Output:   "Para sembrar plátano: 1) Prepara hoyos de 40x40x40cm, 2) Distancia de 3x3 metros, 3) Usa colinos sanos, 4) Aplica materia orgánica en el hoyo, 5) Riega abundantemente después de plantar.",
			Category: "siembra",
		},
		{
			Input:    "fertilizante para aguacate",
			Output:   "El aguacate requiere fertilización balanceada NPK 10-10-10. Aplica 200g por árbol joven mensualmente. En árboles adultos, usa 1-2kg cada 3 meses. Complementa con magnesio y boro.",
			Category: "fertilizacion",
		},
		{
			Input:    "plagas del tomate",
			Output:   "Las principales plagas del tomate son: mosca blanca, trips, pulgones, gusano cogollero y minador de hojas. Usa control biológico con bacillus thuringiensis y trampas cromáticas.",
			Category: "plagas",
		},
		{
			Input:    "cuando cosechar papaya",
			Output:   "La papaya se cosecha cuando presenta rayas amarillas en la base y cede ligeramente a la presión. Generalmente ocurre 4-6 meses después de la floración, dependiendo de la variedad.",
			Category: "cosecha",
		},
		{
			Input:    "rotacion de cultivos beneficios",
			Output:   "La rotación de cultivos mejora la fertilidad del suelo, reduce plagas y enfermedades, optimiza nutrientes y aumenta la biodiversidad. Alterna leguminosas con gramíneas para fijar nitrógeno.",
			Category: "manejo",
		},
		{
			Input:    "humedad ideal para cultivos tropicales",
			Output:   "Los cultivos tropicales requieren humedad relativa entre 70-85%. Niveles menores al 60% causan estrés hídrico, mientras que superiores al 90% favorecen enfermedades fungosas.",
			Category: "clima",
		},
	}
}

var stopwords = set(
	"a", "al", "con", "de", "del", "el", "en", "es", "la", "las", "lo", "los",
	"me", "mi", "mis", "para", "por", "que", "qué", "se", "su", "tu", "un", "una", "y",
)

// CorpusClassifier picks the training example whose bag-of-words vector is
// closest to the message by cosine similarity.
type CorpusClassifier struct {
	examples []Example
	vocab    map[string]int
	vectors  [][]float64
}

// NewCorpusClassifier indexes the given examples.
func NewCorpusClassifier(examples []Example) *CorpusClassifier {
	c := &CorpusClassifier{examples: examples, vocab: map[string]int{}}
	for _, ex := range examples {
		for _, tok := range contentTokens(ex.Input) {
			if _, ok := c.vocab[tok]; !ok {
				c.vocab[tok] = len(c.vocab)
			}
		}
	}
	for _, ex := range examples {
		v, _ := c.vectorize(ex.Input)
		c.vectors = append(c.vectors, v)
	}
	return c
}

// Categories returns the distinct categories in corpus order.
func (c *CorpusClassifier) Categories() []string {
	var out []string
	seen := map[string]bool{}
	for _, ex := range c.examples {
		if !seen[ex.Category] {
			seen[ex.Category] = true
			out = append(out, ex.Category)
		}
	}
	return out
}

// VocabularySize is the number of distinct content words in the corpus.
func (c *CorpusClassifier) VocabularySize() int {
	return len(c.vocab)
}

// Classify returns the closest example. Confidence is the cosine similarity,
// zero when the message shares no words with the corpus.
func (c *CorpusClassifier) Classify(text string) Classification {
	q, oov := c.vectorize(text)
	qNorm := math.Sqrt(floats.Dot(q, q) + oov)
	if qNorm == 0 || len(c.vectors) == 0 {
		return Classification{Category: "general"}
	}

	best, bestSim := -1, 0.0
	for i, v := range c.vectors {
		vNorm := floats.Norm(v, 2)
		if vNorm == 0 {
			continue
		}
		sim := floats.Dot(q, v) / (qNorm * vNorm)
		if sim > bestSim {
			best, bestSim = i, sim
		}
	}
	if best < 0 {
		return Classification{Category: "general"}
	}
	ex := c.examples[best]
	return Classification{
		Category:   ex.Category,
		Response:   ex.Output,
		Confidence: math.Min(1, bestSim),
	}
}

// vectorize counts vocabulary words in text. The second result is the sum of
// squared counts of words outside the vocabulary, needed for the norm.
func (c *CorpusClassifier) vectorize(text string) ([]float64, float64) {
	v := make([]float64, len(c.vocab))
	unknown := map[string]float64{}
	for _, tok := range contentTokens(text) {
		if i, ok := c.vocab[tok]; ok {
			v[i]++
		} else {
			unknown[tok]++
		}
	}
	var oov float64
	for _, n := range unknown {
		oov += n * n
	}
	return v, oov
}

func contentTokens(text string) []string {
	var out []string
	for _, tok := range tokenize(text) {
		if _, stop := stopwords[tok]; !stop {
			out = append(out, tok)
		}
	}
	return out
}
