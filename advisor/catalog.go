package advisor

// cropNote is market and agronomic context shown with recommendations.
type cropNote struct {
	advantages    []string
	disadvantages []string
	// investment in millions of COP per hectare.
	investment    float64
	harvestMonths int
}

var cropNotes = map[string]cropNote{
	"papa": {
		advantages:    []string{"Demanda constante", "Ciclo corto", "Múltiples variedades"},
		disadvantages: []string{"Sensible a heladas", "Gota y polilla", "Precio variable"},
		investment:    12,
		harvestMonths: 5,
	},
	"zanahoria": {
		advantages:    []string{"Rotación rápida", "Alto rendimiento", "Mercado local estable"},
		disadvantages: []string{"Exige suelo suelto", "Sensible a encharcamiento", "Manejo postcosecha"},
		investment:    8,
		harvestMonths: 4,
	},
	"papaya": {
		advantages:    []string{"Crecimiento rápido", "Mercado en expansión", "Nutritivo"},
		disadvantages: []string{"Susceptible a virus", "Vida útil corta", "Requiere cuidados"},
		investment:    10,
		harvestMonths: 10,
	},
	"mango": {
		advantages:    []string{"Mercado exportación", "Cultivo perenne", "Tolera sequía"},
		disadvantages: []string{"Tiempo de establecimiento", "Antracnosis", "Producción alterna"},
		investment:    14,
		harvestMonths: 36,
	},
}

var defaultNote = cropNote{
	advantages:    []string{"Cultivo promisorio", "Adaptado a la región"},
	disadvantages: []string{"Requiere aprendizaje", "Mercado por desarrollar"},
	investment:    5,
	harvestMonths: 12,
}

func noteFor(crop string) cropNote {
	if n, ok := cropNotes[crop]; ok {
		return n
	}
	return defaultNote
}
