package prediction

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"cultivos/agronomy"
	"cultivos/apperr"
)

type fixedSource float64

func (f fixedSource) Float64() float64 { return float64(f) }

type MockMLClient struct {
	mock.Mock
}

func (m *MockMLClient) Predict(ctx context.Context, req Request) ([]agronomy.CropPrediction, error) {
	args := m.Called(ctx, req)
	preds, _ := args.Get(0).([]agronomy.CropPrediction)
	return preds, args.Error(1)
}

func (m *MockMLClient) Health(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func ptr[T any](v T) *T { return &v }

func validRequest() Request {
	return Request{
		PH:            ptr(6.5),
		SoilType:      ptr("Franco"),
		SoilTexture:   ptr("Media"),
		Temperature:   ptr(20.0),
		Precipitation: ptr(650.0),
		Humidity:      ptr(72.0),
		Practices:     []string{"Riego por goteo", "Compostaje"},
	}
}

func newTestOrchestrator(ml MLClient, timeout time.Duration) *Orchestrator {
	return NewOrchestrator(agronomy.DefaultProfiles(), agronomy.NewEstimator(fixedSource(0.5)), ml, timeout, nil)
}

func TestRequestValidate(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		env, err := validRequest().Validate()
		require.NoError(t, err)
		assert.Equal(t, 6.5, env.PH)
		assert.Equal(t, "Franco", env.SoilType)
		assert.Equal(t, []string{"Riego por goteo", "Compostaje"}, env.Practices)
	})

	t.Run("zero values are present", func(t *testing.T) {
		req := validRequest()
		req.Precipitation = ptr(0.0)
		req.Humidity = ptr(0.0)
		_, err := req.Validate()
		assert.NoError(t, err)
	})

	t.Run("missing fields are named in order", func(t *testing.T) {
		req := validRequest()
		req.PH = nil
		req.Humidity = nil
		req.SoilType = ptr("  ")
		_, err := req.Validate()
		require.Error(t, err)
		assert.Equal(t, apperr.CodeMissingFields, apperr.GetCode(err))
		assert.Equal(t, []string{"ph_suelo", "tipo_suelo", "humedad"}, apperr.GetFields(err))
	})

	t.Run("out of domain", func(t *testing.T) {
		req := validRequest()
		req.PH = ptr(15.0)
		req.Humidity = ptr(120.0)
		req.SoilTexture = ptr("Rocosa")
		req.Practices = []string{"Hidroponía"}
		_, err := req.Validate()
		require.Error(t, err)
		assert.Equal(t, apperr.CodeValidationError, apperr.GetCode(err))
		assert.Equal(t, []string{"ph_suelo", "textura_suelo", "humedad", "practicas_agricolas"}, apperr.GetFields(err))
	})
}

func TestRequestJSONPresence(t *testing.T) {
	var req Request
	require.NoError(t, json.Unmarshal([]byte(`{"ph_suelo":0,"tipo_suelo":"Franco","textura_suelo":"Media","temperatura":20,"humedad":70}`), &req))
	_, err := req.Validate()
	assert.Equal(t, []string{"precipitacion"}, apperr.GetFields(err))
}

func remotePredictions() []agronomy.CropPrediction {
	return []agronomy.CropPrediction{
		{Crop: "papa", Yield: 21000, Confidence: 0.9},
		{Crop: "zanahoria", Yield: 25000, Confidence: 0.85},
		{Crop: "papaya", Yield: 28000, Confidence: 0.7},
		{Crop: "mango", Yield: 30000, Confidence: 0.8},
	}
}

func TestHTTPMLClientPredict(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/predict", r.URL.Path)
		assert.Equal(t, http.MethodPost, r.Method)
		_ = json.NewDecoder(r.Body).Decode(&got)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"success":     true,
			"predictions": remotePredictions(),
		})
	}))
	defer srv.Close()

	c := NewHTTPMLClient(srv.URL+"/", time.Second)
	preds, err := c.Predict(context.Background(), validRequest())
	require.NoError(t, err)
	assert.Len(t, preds, 4)
	assert.Equal(t, 6.5, got["ph_suelo"])
	assert.Equal(t, "Franco", got["tipo_suelo"])
}

func TestHTTPMLClientFailures(t *testing.T) {
	t.Run("server error", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "model crashed", http.StatusInternalServerError)
		}))
		defer srv.Close()

		_, err := NewHTTPMLClient(srv.URL, time.Second).Predict(context.Background(), validRequest())
		assert.Equal(t, apperr.CodeExternalService, apperr.GetCode(err))
		assert.ErrorContains(t, err, "model crashed")
	})

	t.Run("unreachable", func(t *testing.T) {
		srv := httptest.NewServer(http.NotFoundHandler())
		url := srv.URL
		srv.Close()

		_, err := NewHTTPMLClient(url, time.Second).Predict(context.Background(), validRequest())
		assert.Equal(t, apperr.CodeExternalService, apperr.GetCode(err))
	})

	t.Run("slow", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			select {
			case <-time.After(2 * time.Second):
			case <-r.Context().Done():
			}
		}))
		defer srv.Close()

		_, err := NewHTTPMLClient(srv.URL, 50*time.Millisecond).Predict(context.Background(), validRequest())
		assert.Equal(t, apperr.CodeTimeout, apperr.GetCode(err))
	})

	t.Run("empty predictions", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"success":true,"predictions":[]}`))
		}))
		defer srv.Close()

		_, err := NewHTTPMLClient(srv.URL, time.Second).Predict(context.Background(), validRequest())
		assert.ErrorContains(t, err, "empty predictions")
	})

	t.Run("model reports failure", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"success":false,"error":"not trained"}`))
		}))
		defer srv.Close()

		_, err := NewHTTPMLClient(srv.URL, time.Second).Predict(context.Background(), validRequest())
		assert.ErrorContains(t, err, "not trained")
	})
}

func TestHTTPMLClientHealth(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/health" {
			w.WriteHeader(http.StatusOK)
			return
		}
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	assert.NoError(t, NewHTTPMLClient(srv.URL, time.Second).Health(context.Background()))
}

func TestOrchestratorRemoteSuccess(t *testing.T) {
	ml := new(MockMLClient)
	ml.On("Predict", mock.Anything, mock.Anything).Return(remotePredictions(), nil)

	res := newTestOrchestrator(ml, time.Second).Predict(context.Background(), agronomy.Environment{PH: 6.5})

	assert.Equal(t, SourceRemote, res.Source)
	assert.Equal(t, RemoteSuccess, res.Remote.Status)
	require.Len(t, res.Predictions, 4)
	assert.Equal(t, "mango", res.Predictions[0].Crop)
	assert.Equal(t, 0.8, res.Predictions[0].Confidence)
	ml.AssertNumberOfCalls(t, "Predict", 1)
}

func TestOrchestratorFallsBack(t *testing.T) {
	env, err := validRequest().Validate()
	require.NoError(t, err)

	tests := []struct {
		name   string
		err    error
		status RemoteStatus
	}{
		{"error", apperr.ExternalService("ml model", errors.New("500")), RemoteError},
		{"timeout", apperr.Timeout("ml model", context.DeadlineExceeded), RemoteTimeout},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ml := new(MockMLClient)
			ml.On("Predict", mock.Anything, mock.Anything).Return(nil, tt.err).Once()

			res := newTestOrchestrator(ml, time.Second).Predict(context.Background(), env)

			assert.Equal(t, SourceLocal, res.Source)
			assert.Equal(t, tt.status, res.Remote.Status)
			assert.Len(t, res.Predictions, 4)
			ml.AssertExpectations(t)
		})
	}
}

func TestOrchestratorRejectsIncompleteRemote(t *testing.T) {
	env, err := validRequest().Validate()
	require.NoError(t, err)

	tests := []struct {
		name  string
		edit  func([]agronomy.CropPrediction) []agronomy.CropPrediction
		cause string
	}{
		{"missing crop", func(p []agronomy.CropPrediction) []agronomy.CropPrediction { return p[:3] }, "missing crop"},
		{"duplicate crop", func(p []agronomy.CropPrediction) []agronomy.CropPrediction {
			p[1].Crop = "papa"
			return p
		}, "duplicate crop"},
		{"unknown crop", func(p []agronomy.CropPrediction) []agronomy.CropPrediction {
			p[2].Crop = "cacao"
			return p
		}, "unknown crop"},
		{"yield below floor", func(p []agronomy.CropPrediction) []agronomy.CropPrediction {
			p[0].Yield = 0
			return p
		}, "below floor"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ml := new(MockMLClient)
			ml.On("Predict", mock.Anything, mock.Anything).Return(tt.edit(remotePredictions()), nil).Once()

			res := newTestOrchestrator(ml, time.Second).Predict(context.Background(), env)

			assert.Equal(t, SourceLocal, res.Source)
			assert.Equal(t, RemoteError, res.Remote.Status)
			assert.ErrorContains(t, res.Remote.Err, tt.cause)
			assert.Len(t, res.Predictions, 4)
			ml.AssertExpectations(t)
		})
	}
}

func TestOrchestratorDisabledRemote(t *testing.T) {
	env, err := validRequest().Validate()
	require.NoError(t, err)

	res := newTestOrchestrator(nil, time.Second).Predict(context.Background(), env)

	assert.Equal(t, SourceLocal, res.Source)
	assert.Equal(t, RemoteDisabled, res.Remote.Status)
	require.Len(t, res.Predictions, 4)
	for i := 1; i < len(res.Predictions); i++ {
		assert.GreaterOrEqual(t, res.Predictions[i-1].Yield, res.Predictions[i].Yield)
	}
}

func TestOrchestratorSlowRemoteOverHTTP(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-time.After(2 * time.Second):
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()

	env, err := validRequest().Validate()
	require.NoError(t, err)

	start := time.Now()
	o := newTestOrchestrator(NewHTTPMLClient(srv.URL, 5*time.Second), 100*time.Millisecond)
	res := o.Predict(context.Background(), env)

	assert.Less(t, time.Since(start), time.Second)
	assert.Equal(t, SourceLocal, res.Source)
	assert.Equal(t, RemoteTimeout, res.Remote.Status)
	assert.Len(t, res.Predictions, 4)
}
