// Package prediction validates prediction requests and runs them against the
// remote model, falling back to the local estimator.
package prediction

import (
	"strings"

	"cultivos/agronomy"
	"cultivos/apperr"
)

// Request is the wire shape of a prediction request. Pointer fields let
// validation tell an absent value from a zero.
type Request struct {
	PH            *float64 `json:"ph_suelo"`
	SoilType      *string  `json:"tipo_suelo"`
	SoilTexture   *string  `json:"textura_suelo"`
	Temperature   *float64 `json:"temperatura"`
	Precipitation *float64 `json:"precipitacion"`
	Humidity      *float64 `json:"humedad"`
	Practices     []string `json:"practicas_agricolas,omitempty"`
}

// Validate checks presence first and domain second, and converts the request
// into an Environment. Field names in errors follow the wire names.
func (r Request) Validate() (agronomy.Environment, error) {
	var missing []string
	if r.PH == nil {
		missing = append(missing, "ph_suelo")
	}
	if r.SoilType == nil || strings.TrimSpace(*r.SoilType) == "" {
		missing = append(missing, "tipo_suelo")
	}
	if r.SoilTexture == nil || strings.TrimSpace(*r.SoilTexture) == "" {
		missing = append(missing, "textura_suelo")
	}
	if r.Temperature == nil {
		missing = append(missing, "temperatura")
	}
	if r.Precipitation == nil {
		missing = append(missing, "precipitacion")
	}
	if r.Humidity == nil {
		missing = append(missing, "humedad")
	}
	if len(missing) > 0 {
		return agronomy.Environment{}, apperr.MissingFields(missing)
	}

	env := agronomy.Environment{
		PH:            *r.PH,
		SoilType:      strings.TrimSpace(*r.SoilType),
		SoilTexture:   strings.TrimSpace(*r.SoilTexture),
		Temperature:   *r.Temperature,
		Precipitation: *r.Precipitation,
		Humidity:      *r.Humidity,
		Practices:     r.Practices,
	}
	if err := ValidateEnvironment(env); err != nil {
		return agronomy.Environment{}, err
	}
	return env, nil
}

// ValidateEnvironment checks value domains and enumerations.
func ValidateEnvironment(env agronomy.Environment) error {
	var invalid []string
	if env.PH < 0 || env.PH > 14 {
		invalid = append(invalid, "ph_suelo")
	}
	if !agronomy.Contains(agronomy.SoilTypes, env.SoilType) {
		invalid = append(invalid, "tipo_suelo")
	}
	if !agronomy.Contains(agronomy.SoilTextures, env.SoilTexture) {
		invalid = append(invalid, "textura_suelo")
	}
	if env.Temperature < -50 || env.Temperature > 60 {
		invalid = append(invalid, "temperatura")
	}
	if env.Precipitation < 0 {
		invalid = append(invalid, "precipitacion")
	}
	if env.Humidity < 0 || env.Humidity > 100 {
		invalid = append(invalid, "humedad")
	}
	for _, p := range env.Practices {
		if !agronomy.Contains(agronomy.Practices, p) {
			invalid = append(invalid, "practicas_agricolas")
			break
		}
	}
	if len(invalid) > 0 {
		return apperr.InvalidFields(invalid)
	}
	return nil
}

// RequestFromEnvironment builds the wire request for a validated environment.
func RequestFromEnvironment(env agronomy.Environment) Request {
	soil, texture := env.SoilType, env.SoilTexture
	ph, temp, prec, hum := env.PH, env.Temperature, env.Precipitation, env.Humidity
	return Request{
		PH:            &ph,
		SoilType:      &soil,
		SoilTexture:   &texture,
		Temperature:   &temp,
		Precipitation: &prec,
		Humidity:      &hum,
		Practices:     env.Practices,
	}
}
