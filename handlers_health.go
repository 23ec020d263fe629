package main

import (
	"context"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"

	"cultivos/agronomy"
)

type healthResp struct {
	Status           string    `json:"status"`
	Timestamp        time.Time `json:"timestamp"`
	Uptime           string    `json:"uptime"`
	UptimeSeconds    float64   `json:"uptime_seconds"`
	Database         bool      `json:"database"`
	MLModelAvailable bool      `json:"ml_model_available"`
	MLConfigured     bool      `json:"ml_configured"`
}

// probes pings Mongo and the remote model in parallel. A probe failing is
// reported as false, never as an error.
func (a *App) probes(ctx context.Context) (dbOK, mlOK bool) {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	var g errgroup.Group
	if a.db != nil {
		g.Go(func() error {
			dbOK = a.db.Ping(ctx) == nil
			return nil
		})
	}
	if ml := a.orchestrator.Remote(); ml != nil {
		g.Go(func() error {
			err := ml.Health(ctx)
			if err != nil {
				a.log.Debug("ml health: %v", err)
			}
			mlOK = err == nil
			return nil
		})
	}
	_ = g.Wait()
	return dbOK, mlOK
}

// handleHealth reports liveness. Status is "degraded" when the database is
// unreachable; a missing remote model only clears ml_model_available.
func (a *App) handleHealth(w http.ResponseWriter, r *http.Request) {
	dbOK, mlOK := a.probes(r.Context())
	up := time.Since(a.started)
	resp := healthResp{
		Status:           "ok",
		Timestamp:        time.Now().UTC(),
		Uptime:           up.Truncate(time.Second).String(),
		UptimeSeconds:    up.Seconds(),
		Database:         dbOK,
		MLModelAvailable: mlOK,
		MLConfigured:     a.orchestrator.Remote() != nil,
	}
	if !dbOK {
		resp.Status = "degraded"
	}
	writeJSON(w, http.StatusOK, resp)
}

type mlStatusResp struct {
	Configured bool   `json:"configured"`
	URL        string `json:"url,omitempty"`
	Available  bool   `json:"available"`
	Timeout    string `json:"timeout"`
	Error      string `json:"error,omitempty"`
}

// handleMLStatus probes {ML_SERVICE_URL}/health.
func (a *App) handleMLStatus(w http.ResponseWriter, r *http.Request) {
	resp := mlStatusResp{URL: a.cfg.MLServiceURL, Timeout: a.cfg.MLTimeout.String()}
	ml := a.orchestrator.Remote()
	if ml == nil {
		resp.Error = "remote model not configured"
		writeJSON(w, http.StatusOK, resp)
		return
	}
	resp.Configured = true

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()
	if err := ml.Health(ctx); err != nil {
		resp.Error = err.Error()
	} else {
		resp.Available = true
	}
	writeJSON(w, http.StatusOK, resp)
}

type cropSummary struct {
	Name          string         `json:"name"`
	DisplayName   string         `json:"display_name"`
	BaseYield     float64        `json:"base_yield"`
	PH            agronomy.Range `json:"ph"`
	Temperature   agronomy.Range `json:"temperature"`
	Humidity      agronomy.Range `json:"humidity"`
	Precipitation agronomy.Range `json:"precipitation"`
}

type modelInfoResp struct {
	Name            string        `json:"name"`
	Version         string        `json:"version"`
	SupportedCrops  []cropSummary `json:"supported_crops"`
	InputFeatures   []string      `json:"input_features"`
	SoilTypes       []string      `json:"soil_types"`
	SoilTextures    []string      `json:"soil_textures"`
	Practices       []string      `json:"practices"`
	MLEnabled       bool          `json:"ml_enabled"`
	MLServiceURL    string        `json:"ml_service_url,omitempty"`
	Fallback        string        `json:"fallback"`
	CompatThreshold float64       `json:"compat_threshold"`
	ReferenceYield  int           `json:"reference_yield_sugar_cane"`
}

// handleModelInfo describes the estimator and the remote integration.
func (a *App) handleModelInfo(w http.ResponseWriter, r *http.Request) {
	crops := make([]cropSummary, 0, len(a.profiles))
	for _, p := range a.profiles {
		crops = append(crops, cropSummary{
			Name:          p.Name,
			DisplayName:   p.DisplayName,
			BaseYield:     p.BaseYield,
			PH:            p.PH,
			Temperature:   p.Temperature,
			Humidity:      p.Humidity,
			Precipitation: p.Precipitation,
		})
	}
	writeJSON(w, http.StatusOK, modelInfoResp{
		Name:           "cultivos crop yield estimator",
		Version:        modelVersion,
		SupportedCrops: crops,
		InputFeatures: []string{
			"ph_suelo", "tipo_suelo", "textura_suelo", "temperatura",
			"precipitacion", "humedad", "practicas_agricolas",
		},
		SoilTypes:       agronomy.SoilTypes,
		SoilTextures:    agronomy.SoilTextures,
		Practices:       agronomy.Practices,
		MLEnabled:       a.orchestrator.Remote() != nil,
		MLServiceURL:    a.cfg.MLServiceURL,
		Fallback:        "enhanced_simulation",
		CompatThreshold: a.advisor.Threshold(),
		ReferenceYield:  sugarCaneYield,
	})
}
