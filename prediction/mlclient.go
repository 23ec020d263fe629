package prediction

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"cultivos/agronomy"
	"cultivos/apperr"
)

const mlService = "ml model"

// MLClient is the remote model that can produce predictions for a request.
type MLClient interface {
	Predict(ctx context.Context, req Request) ([]agronomy.CropPrediction, error)
	Health(ctx context.Context) error
}

// HTTPMLClient talks to the remote model over JSON/HTTP.
type HTTPMLClient struct {
	baseURL string
	client  *http.Client
}

// NewHTTPMLClient builds a client for baseURL. timeout bounds every call.
func NewHTTPMLClient(baseURL string, timeout time.Duration) *HTTPMLClient {
	return &HTTPMLClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
	}
}

type mlPredictResp struct {
	Success     bool                      `json:"success"`
	Predictions []agronomy.CropPrediction `json:"predictions"`
	Error       string                    `json:"error,omitempty"`
}

// Predict calls POST {baseURL}/predict.
func (c *HTTPMLClient) Predict(ctx context.Context, in Request) ([]agronomy.CropPrediction, error) {
	body, err := json.Marshal(in)
	if err != nil {
		return nil, fmt.Errorf("marshal ml req: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/predict", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, classify(err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, classify(err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, apperr.ExternalService(mlService,
			fmt.Errorf("non-2xx: %s, body: %s", resp.Status, truncate(string(data), 200)))
	}

	var out mlPredictResp
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, apperr.ExternalService(mlService, fmt.Errorf("decode ml resp: %w", err))
	}
	if !out.Success {
		return nil, apperr.ExternalService(mlService, fmt.Errorf("model reported failure: %s", out.Error))
	}
	if err := checkPredictions(out.Predictions); err != nil {
		return nil, apperr.ExternalService(mlService, err)
	}
	return out.Predictions, nil
}

// Health calls GET {baseURL}/health and treats any 2xx as healthy.
func (c *HTTPMLClient) Health(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return classify(err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return apperr.ExternalService(mlService, fmt.Errorf("health non-2xx: %s", resp.Status))
	}
	return nil
}

// checkPredictions rejects responses the rest of the pipeline cannot use.
func checkPredictions(preds []agronomy.CropPrediction) error {
	if len(preds) == 0 {
		return errors.New("empty predictions")
	}
	for _, p := range preds {
		if p.Crop == "" {
			return errors.New("prediction without crop")
		}
		if p.Yield < 0 {
			return fmt.Errorf("negative yield for %s", p.Crop)
		}
		if p.Confidence < 0 || p.Confidence > 1 {
			return fmt.Errorf("confidence %.3f out of range for %s", p.Confidence, p.Crop)
		}
	}
	return nil
}

func classify(err error) error {
	var ne net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &ne) && ne.Timeout()) {
		return apperr.Timeout(mlService, err)
	}
	return apperr.ExternalService(mlService, err)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
