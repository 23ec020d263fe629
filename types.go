package main

import (
	"strings"
	"time"

	"cultivos/advisor"
	"cultivos/agronomy"
	"cultivos/apperr"
	"cultivos/prediction"
)

// Request/response DTOs. Keep them minimal and explicit.

type registerReq struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type tokenResp struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// farmReq is the body of farm create/update: identity fields plus the same
// environment fields a prediction request takes.
type farmReq struct {
	Name     string `json:"nombre"`
	Location string `json:"ubicacion"`
	prediction.Request
}

func (f farmReq) validate() (agronomy.Environment, error) {
	var missing []string
	if strings.TrimSpace(f.Name) == "" {
		missing = append(missing, "nombre")
	}
	env, err := f.Request.Validate()
	if apperr.Is(err, apperr.CodeMissingFields) {
		missing = append(missing, apperr.GetFields(err)...)
	}
	if len(missing) > 0 {
		return env, apperr.MissingFields(missing)
	}
	return env, err
}

// Sugar cane is the region's reference crop for yield comparison.
const sugarCaneYield = 80000

const modelVersion = "2.0.0"

type modelInfo struct {
	Type    string `json:"type"`
	Version string `json:"version"`
	Note    string `json:"note"`
}

type inputSummary struct {
	PH            float64 `json:"ph"`
	Temperatura   float64 `json:"temperatura"`
	Humedad       float64 `json:"humedad"`
	Precipitacion float64 `json:"precipitacion"`
	TipoSuelo     string  `json:"tipo_suelo"`
}

type predictMeta struct {
	RequestID    string       `json:"request_id"`
	Timestamp    time.Time    `json:"timestamp"`
	InputSummary inputSummary `json:"input_summary"`
	RemoteStatus string       `json:"remote_status"`
}

type cropComparison struct {
	Crop               string  `json:"crop"`
	PercentOfReference float64 `json:"percent_of_reference"`
}

type comparison struct {
	SugarCaneYield int              `json:"sugar_cane_yield"`
	Crops          []cropComparison `json:"crops"`
}

type predictResp struct {
	Success     bool                      `json:"success"`
	Predictions []agronomy.CropPrediction `json:"predictions"`
	Source      prediction.Source         `json:"source"`
	ModelInfo   modelInfo                 `json:"model_info"`
	Comparison  comparison                `json:"comparison"`
	Metadata    predictMeta               `json:"metadata"`
	RunID       string                    `json:"run_id,omitempty"`
}

type chatReq struct {
	Message string `json:"message"`
	FarmID  string `json:"farm_id,omitempty"`
}

type chatResp struct {
	ID              string                   `json:"id"`
	Message         string                   `json:"message"`
	HTML            string                   `json:"html"`
	Route           advisor.Route            `json:"route"`
	ModelType       advisor.ModelType        `json:"model_type"`
	Category        string                   `json:"category,omitempty"`
	Confidence      float64                  `json:"confidence"`
	Suggestions     []string                 `json:"suggestions,omitempty"`
	Recommendations []advisor.Recommendation `json:"recommendations,omitempty"`
	FarmID          string                   `json:"farm_id,omitempty"`
	Timestamp       time.Time                `json:"timestamp"`
}
