package main

import (
	"context"
	"math"
	"net/http"
	"strconv"
	"time"

	"cultivos/agronomy"
	"cultivos/apperr"
	"cultivos/models"
	"cultivos/prediction"
)

// handlePredict runs a prediction for the conditions in the request body.
func (a *App) handlePredict(w http.ResponseWriter, r *http.Request) {
	var req prediction.Request
	if err := decodeJSON(r, &req); err != nil {
		a.writeError(w, r, err)
		return
	}
	env, err := req.Validate()
	if err != nil {
		a.writeError(w, r, err)
		return
	}

	res := a.orchestrator.Predict(r.Context(), env)
	writeJSON(w, http.StatusOK, a.predictResponse(r, env, res))
}

// handlePredictFarm predicts from a stored farm and records the run.
func (a *App) handlePredictFarm(w http.ResponseWriter, r *http.Request) {
	oid, err := farmIDParam(r)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	uid := userID(r)

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	f, err := a.farms.GetFarm(ctx, oid, uid)
	cancel()
	if err != nil {
		a.writeError(w, r, err)
		return
	}

	env := f.Environment()
	res := a.orchestrator.Predict(r.Context(), env)
	resp := a.predictResponse(r, env, res)

	run := models.PredictionRun{
		FarmID:      f.ID,
		OwnerID:     uid,
		RequestID:   resp.Metadata.RequestID,
		Source:      string(res.Source),
		Predictions: res.Predictions,
		CreatedAt:   resp.Metadata.Timestamp,
	}
	ctx, cancel = context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()
	if err := a.runs.CreateRun(ctx, &run); err != nil {
		a.writeError(w, r, err)
		return
	}
	resp.RunID = run.ID.Hex()
	writeJSON(w, http.StatusOK, resp)
}

// handleListPredictions returns a farm's prediction history, newest first.
// ?limit=N caps the number of runs; it must be a non-negative integer.
func (a *App) handleListPredictions(w http.ResponseWriter, r *http.Request) {
	oid, err := farmIDParam(r)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	var limit int64
	if s := r.URL.Query().Get("limit"); s != "" {
		limit, err = strconv.ParseInt(s, 10, 64)
		if err != nil || limit < 0 {
			a.writeError(w, r, apperr.InvalidFields([]string{"limit"}))
			return
		}
	}

	ctx, cancel := context.WithTimeout(r.Context(), 8*time.Second)
	defer cancel()
	uid := userID(r)
	if _, err := a.farms.GetFarm(ctx, oid, uid); err != nil {
		a.writeError(w, r, err)
		return
	}
	out, err := a.runs.ListRuns(ctx, oid, uid, limit)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (a *App) predictResponse(r *http.Request, env agronomy.Environment, res prediction.Result) predictResp {
	info := modelInfo{
		Type:    "enhanced_simulation",
		Version: modelVersion,
		Note:    "Estimated locally from crop suitability profiles",
	}
	if res.Source == prediction.SourceRemote {
		info.Type = "neural_network"
		info.Note = "Predicted by the remote model"
	}

	preds := res.Predictions
	if preds == nil {
		preds = []agronomy.CropPrediction{}
	}
	cmp := comparison{SugarCaneYield: sugarCaneYield, Crops: make([]cropComparison, 0, len(preds))}
	for _, p := range preds {
		pct := math.Round(float64(p.Yield)/sugarCaneYield*1000) / 10
		cmp.Crops = append(cmp.Crops, cropComparison{Crop: p.Crop, PercentOfReference: pct})
	}

	return predictResp{
		Success:     true,
		Predictions: preds,
		Source:      res.Source,
		ModelInfo:   info,
		Comparison:  cmp,
		Metadata: predictMeta{
			RequestID: requestID(r),
			Timestamp: time.Now().UTC(),
			InputSummary: inputSummary{
				PH:            env.PH,
				Temperatura:   env.Temperature,
				Humedad:       env.Humidity,
				Precipitacion: env.Precipitation,
				TipoSuelo:     env.SoilType,
			},
			RemoteStatus: string(res.Remote.Status),
		},
	}
}
