package agronomy

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Soil types accepted for farm records and prediction requests.
var SoilTypes = []string{
	"Arcilloso",
	"Arenoso",
	"Franco",
	"Franco-arcilloso",
	"Franco-arenoso",
	"Franco-limoso",
	"Limoso",
}

// SoilTextures accepted for farm records and prediction requests.
var SoilTextures = []string{"Gruesa", "Media", "Fina", "Muy fina"}

// Practices is the fixed list of agricultural practices a farm can declare.
var Practices = []string{
	"Riego por goteo",
	"Riego por aspersión",
	"Cultivo orgánico",
	"Uso de fertilizantes químicos",
	"Uso de pesticidas",
	"Rotación de cultivos",
	"Arado mínimo",
	"Compostaje",
}

// Soil-type factors for soils outside a crop's preferred set.
const (
	SecondarySoilFactor = 0.8
	OtherSoilFactor     = 0.7
	DefaultTexture      = 0.75
)

// CropProfile is the static reference data for one crop.
type CropProfile struct {
	Name           string             `yaml:"name"`
	DisplayName    string             `yaml:"display_name"`
	PH             Range              `yaml:"ph"`
	Temperature    Range              `yaml:"temperature"`
	Humidity       Range              `yaml:"humidity"`
	Precipitation  Range              `yaml:"precipitation"`
	PreferredSoils []string           `yaml:"preferred_soils"`
	SecondarySoils []string           `yaml:"secondary_soils"`
	Textures       map[string]float64 `yaml:"textures"`
	BaseYield      float64            `yaml:"base_yield"`
	Practices      []string           `yaml:"practices"`
	ConfidenceBase float64            `yaml:"confidence_base"`
	YieldVariance  float64            `yaml:"yield_variance"`
}

var defaultSecondarySoils = []string{"Franco-limoso", "Limoso"}

// DefaultProfiles returns the built-in crop table: potato, carrot, papaya and mango.
func DefaultProfiles() []CropProfile {
	return []CropProfile{
		{
			Name:           "papa",
			DisplayName:    "Papa",
			PH:             Range{6.0, 7.0},
			Temperature:    Range{15, 25},
			Humidity:       Range{65, 80},
			Precipitation:  Range{500, 800},
			PreferredSoils: []string{"Franco", "Franco-arenoso", "Arenoso"},
			SecondarySoils: defaultSecondarySoils,
			Textures:       map[string]float64{"Media": 1.0, "Gruesa": 0.9, "Fina": 0.7, "Muy fina": 0.6},
			BaseYield:      25000,
			Practices:      []string{"Riego por goteo", "Rotación de cultivos", "Arado mínimo", "Compostaje"},
			ConfidenceBase: 0.87,
			YieldVariance:  0.35,
		},
		{
			Name:           "zanahoria",
			DisplayName:    "Zanahoria",
			PH:             Range{6.0, 7.5},
			Temperature:    Range{18, 28},
			Humidity:       Range{60, 75},
			Precipitation:  Range{400, 700},
			PreferredSoils: []string{"Franco", "Arenoso", "Franco-arenoso"},
			SecondarySoils: defaultSecondarySoils,
			Textures:       map[string]float64{"Gruesa": 1.0, "Media": 0.9, "Fina": 0.7, "Muy fina": 0.5},
			BaseYield:      35000,
			Practices:      []string{"Riego por goteo", "Cultivo orgánico", "Arado mínimo", "Compostaje"},
			ConfidenceBase: 0.92,
			YieldVariance:  0.30,
		},
		{
			Name:           "papaya",
			DisplayName:    "Papaya",
			PH:             Range{6.0, 7.0},
			Temperature:    Range{24, 32},
			Humidity:       Range{70, 85},
			Precipitation:  Range{1200, 2000},
			PreferredSoils: []string{"Franco", "Franco-arcilloso"},
			SecondarySoils: defaultSecondarySoils,
			Textures:       map[string]float64{"Media": 1.0, "Fina": 0.9, "Gruesa": 0.8, "Muy fina": 0.8},
			BaseYield:      45000,
			Practices:      []string{"Riego por goteo", "Uso de fertilizantes químicos", "Compostaje"},
			ConfidenceBase: 0.78,
			YieldVariance:  0.40,
		},
		{
			Name:           "mango",
			DisplayName:    "Mango",
			PH:             Range{5.5, 7.5},
			Temperature:    Range{26, 35},
			Humidity:       Range{65, 80},
			Precipitation:  Range{800, 1500},
			PreferredSoils: []string{"Franco", "Franco-arcilloso", "Arcilloso"},
			SecondarySoils: defaultSecondarySoils,
			Textures:       map[string]float64{"Media": 1.0, "Fina": 0.9, "Gruesa": 0.8, "Muy fina": 0.8},
			BaseYield:      20000,
			Practices:      []string{"Riego por goteo", "Cultivo orgánico", "Compostaje", "Uso de fertilizantes químicos"},
			ConfidenceBase: 0.83,
			YieldVariance:  0.45,
		},
	}
}

type profileFile struct {
	Crops []CropProfile `yaml:"crops"`
}

// LoadProfiles reads a crop table from a YAML file of the form `crops: [...]`.
func LoadProfiles(path string) ([]CropProfile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read crop profiles: %w", err)
	}
	var f profileFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse crop profiles: %w", err)
	}
	seen := make(map[string]bool, len(f.Crops))
	for i := range f.Crops {
		p := &f.Crops[i]
		if err := p.validate(); err != nil {
			return nil, fmt.Errorf("crop %d: %w", i, err)
		}
		if seen[p.Name] {
			return nil, fmt.Errorf("crop %q defined twice", p.Name)
		}
		seen[p.Name] = true
		if p.DisplayName == "" {
			p.DisplayName = p.Name
		}
		if p.SecondarySoils == nil {
			p.SecondarySoils = defaultSecondarySoils
		}
	}
	return f.Crops, nil
}

func (p CropProfile) validate() error {
	if p.Name == "" {
		return fmt.Errorf("name is required")
	}
	ranges := map[string]Range{
		"ph":            p.PH,
		"temperature":   p.Temperature,
		"humidity":      p.Humidity,
		"precipitation": p.Precipitation,
	}
	for name, r := range ranges {
		if r.Min > r.Max {
			return fmt.Errorf("%s: %s range min %.2f > max %.2f", p.Name, name, r.Min, r.Max)
		}
	}
	if p.BaseYield <= 0 {
		return fmt.Errorf("%s: base_yield must be positive", p.Name)
	}
	if p.ConfidenceBase <= 0 || p.ConfidenceBase >= 1 {
		return fmt.Errorf("%s: confidence_base must be in (0,1)", p.Name)
	}
	if p.YieldVariance < 0 {
		return fmt.Errorf("%s: yield_variance must not be negative", p.Name)
	}
	for tex, f := range p.Textures {
		if f < 0 || f > 1 {
			return fmt.Errorf("%s: texture %q factor %.2f outside [0,1]", p.Name, tex, f)
		}
	}
	return nil
}

// Contains reports whether s is one of values.
func Contains(values []string, s string) bool {
	for _, v := range values {
		if v == s {
			return true
		}
	}
	return false
}
