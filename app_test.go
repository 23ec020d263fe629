package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"cultivos/agronomy"
	"cultivos/logger"
	"cultivos/models"
	"cultivos/prediction"
)

const testSecret = "test-secret"

// MockStore backs every repository interface plus the health pinger.
type MockStore struct {
	mock.Mock
}

func (m *MockStore) CreateUser(ctx context.Context, u *models.User) error {
	args := m.Called(ctx, u)
	return args.Error(0)
}

func (m *MockStore) UserByEmail(ctx context.Context, email string) (*models.User, error) {
	args := m.Called(ctx, email)
	u, _ := args.Get(0).(*models.User)
	return u, args.Error(1)
}

func (m *MockStore) UserByID(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	args := m.Called(ctx, id)
	u, _ := args.Get(0).(*models.User)
	return u, args.Error(1)
}

func (m *MockStore) CreateFarm(ctx context.Context, f *models.Farm) error {
	args := m.Called(ctx, f)
	return args.Error(0)
}

func (m *MockStore) ListFarms(ctx context.Context, owner primitive.ObjectID) ([]models.Farm, error) {
	args := m.Called(ctx, owner)
	farms, _ := args.Get(0).([]models.Farm)
	return farms, args.Error(1)
}

func (m *MockStore) GetFarm(ctx context.Context, id, owner primitive.ObjectID) (*models.Farm, error) {
	args := m.Called(ctx, id, owner)
	f, _ := args.Get(0).(*models.Farm)
	return f, args.Error(1)
}

func (m *MockStore) UpdateFarm(ctx context.Context, f *models.Farm) (*models.Farm, error) {
	args := m.Called(ctx, f)
	out, _ := args.Get(0).(*models.Farm)
	return out, args.Error(1)
}

func (m *MockStore) DeleteFarm(ctx context.Context, id, owner primitive.ObjectID) error {
	args := m.Called(ctx, id, owner)
	return args.Error(0)
}

func (m *MockStore) CreateRun(ctx context.Context, run *models.PredictionRun) error {
	args := m.Called(ctx, run)
	return args.Error(0)
}

func (m *MockStore) ListRuns(ctx context.Context, farmID, owner primitive.ObjectID, limit int64) ([]models.PredictionRun, error) {
	args := m.Called(ctx, farmID, owner, limit)
	runs, _ := args.Get(0).([]models.PredictionRun)
	return runs, args.Error(1)
}

func (m *MockStore) Ping(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

type MockMLClient struct {
	mock.Mock
}

func (m *MockMLClient) Predict(ctx context.Context, req prediction.Request) ([]agronomy.CropPrediction, error) {
	args := m.Called(ctx, req)
	preds, _ := args.Get(0).([]agronomy.CropPrediction)
	return preds, args.Error(1)
}

func (m *MockMLClient) Health(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func testConfig() Config {
	return Config{
		JWTSecret:       testSecret,
		Port:            "0",
		MLTimeout:       time.Second,
		CORSOrigins:     []string{"http://localhost:5173"},
		CompatThreshold: 0.5,
		TokenTTL:        time.Hour,
	}
}

// newTestApp wires an App over a mock store. ml may be nil to disable the
// remote model.
func newTestApp(t *testing.T, ml prediction.MLClient) (*App, *MockStore) {
	t.Helper()
	st := &MockStore{}
	a := &App{
		cfg:     testConfig(),
		log:     logger.Discard(),
		started: time.Now(),
		users:   st,
		farms:   st,
		runs:    st,
		db:      st,
	}
	a.wireEngine(agronomy.DefaultProfiles(), agronomy.NewEstimator(nil), ml)
	t.Cleanup(func() { st.AssertExpectations(t) })
	return a, st
}

func do(t *testing.T, h http.Handler, method, path string, body any, token string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		switch b := body.(type) {
		case string:
			buf.WriteString(b)
		default:
			require.NoError(t, json.NewEncoder(&buf).Encode(b))
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func tokenFor(t *testing.T, uid primitive.ObjectID) string {
	t.Helper()
	tok, err := signJWT(testSecret, uid, time.Hour)
	require.NoError(t, err)
	return tok
}

// scenarioBody is the reference farm: pH 6.2, Franco loam, 24°C, 1400 mm.
func scenarioBody() map[string]any {
	return map[string]any{
		"ph_suelo":            6.2,
		"tipo_suelo":          "Franco",
		"textura_suelo":       "Media",
		"temperatura":         24,
		"precipitacion":       1400,
		"humedad":             78,
		"practicas_agricolas": []string{"Riego por goteo"},
	}
}

func scenarioFarm(owner primitive.ObjectID) *models.Farm {
	f := &models.Farm{
		ID:      primitive.NewObjectID(),
		OwnerID: owner,
		Name:    "La Esperanza",
	}
	f.SetEnvironment(agronomy.Environment{
		PH:            6.2,
		SoilType:      "Franco",
		SoilTexture:   "Media",
		Temperature:   24,
		Precipitation: 1400,
		Humidity:      78,
		Practices:     []string{"Riego por goteo"},
	})
	return f
}
