package prediction

import (
	"context"
	"fmt"
	"time"

	"cultivos/agronomy"
	"cultivos/apperr"
	"cultivos/logger"
)

// Source tells which path produced a prediction set.
type Source string

const (
	SourceRemote Source = "remote_model"
	SourceLocal  Source = "local_simulation"
)

// RemoteStatus is the outcome of the single remote attempt.
type RemoteStatus string

const (
	RemoteSuccess  RemoteStatus = "success"
	RemoteTimeout  RemoteStatus = "timeout"
	RemoteError    RemoteStatus = "error"
	RemoteDisabled RemoteStatus = "disabled"
)

// RemoteOutcome records how the remote attempt went.
type RemoteOutcome struct {
	Status  RemoteStatus
	Err     error
	Latency time.Duration
}

// Result is a ranked prediction set with its provenance.
type Result struct {
	Predictions []agronomy.CropPrediction
	Source      Source
	Remote      RemoteOutcome
}

// Orchestrator tries the remote model once and falls back to local estimates.
type Orchestrator struct {
	profiles  []agronomy.CropProfile
	estimator *agronomy.Estimator
	ml        MLClient
	timeout   time.Duration
	log       *logger.Logger
}

// NewOrchestrator wires the pieces together. ml may be nil, which disables
// the remote path.
func NewOrchestrator(profiles []agronomy.CropProfile, est *agronomy.Estimator, ml MLClient, timeout time.Duration, log *logger.Logger) *Orchestrator {
	if est == nil {
		est = agronomy.NewEstimator(nil)
	}
	if log == nil {
		log = logger.Discard()
	}
	return &Orchestrator{
		profiles:  profiles,
		estimator: est,
		ml:        ml,
		timeout:   timeout,
		log:       log,
	}
}

// Profiles returns the crop table predictions are computed against.
func (o *Orchestrator) Profiles() []agronomy.CropProfile {
	return o.profiles
}

// Remote returns the remote client, or nil when the remote path is disabled.
func (o *Orchestrator) Remote() MLClient {
	return o.ml
}

// Predict returns predictions for every crop, ranked by yield. It never
// fails: any remote problem falls back to the local estimator.
func (o *Orchestrator) Predict(ctx context.Context, env agronomy.Environment) Result {
	outcome := o.tryRemote(ctx, env)
	if outcome.Status == RemoteSuccess {
		return Result{Predictions: outcome.preds, Source: SourceRemote, Remote: outcome.RemoteOutcome}
	}
	if outcome.Status != RemoteDisabled {
		o.log.Warn("remote model %s after %s, using local estimates: %v", outcome.Status, outcome.Latency, outcome.Err)
	}
	return Result{
		Predictions: o.PredictLocal(env),
		Source:      SourceLocal,
		Remote:      outcome.RemoteOutcome,
	}
}

// PredictLocal runs the estimator for every profile.
func (o *Orchestrator) PredictLocal(env agronomy.Environment) []agronomy.CropPrediction {
	return o.estimator.EstimateAll(env, o.profiles)
}

type remoteAttempt struct {
	RemoteOutcome
	preds []agronomy.CropPrediction
}

func (o *Orchestrator) tryRemote(ctx context.Context, env agronomy.Environment) remoteAttempt {
	if o.ml == nil {
		return remoteAttempt{RemoteOutcome: RemoteOutcome{Status: RemoteDisabled}}
	}

	if o.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, o.timeout)
		defer cancel()
	}

	start := time.Now()
	preds, err := o.ml.Predict(ctx, RequestFromEnvironment(env))
	latency := time.Since(start)

	if err == nil {
		if cerr := checkRemote(preds, o.profiles); cerr != nil {
			err = apperr.ExternalService(mlService, cerr)
		}
	}

	switch {
	case err == nil:
		ranked := make([]agronomy.CropPrediction, len(preds))
		copy(ranked, preds)
		agronomy.SortByYield(ranked)
		o.log.Debug("remote model answered in %s with %d predictions", latency, len(ranked))
		return remoteAttempt{
			RemoteOutcome: RemoteOutcome{Status: RemoteSuccess, Latency: latency},
			preds:         ranked,
		}
	case apperr.Is(err, apperr.CodeTimeout) || ctx.Err() == context.DeadlineExceeded:
		return remoteAttempt{RemoteOutcome: RemoteOutcome{Status: RemoteTimeout, Err: err, Latency: latency}}
	default:
		return remoteAttempt{RemoteOutcome: RemoteOutcome{Status: RemoteError, Err: err, Latency: latency}}
	}
}

// checkRemote accepts a remote answer only when it has exactly one prediction
// per profiled crop and every yield respects the floor.
func checkRemote(preds []agronomy.CropPrediction, profiles []agronomy.CropProfile) error {
	want := make(map[string]bool, len(profiles))
	for _, p := range profiles {
		want[p.Name] = false
	}
	for _, p := range preds {
		seen, ok := want[p.Crop]
		switch {
		case !ok:
			return fmt.Errorf("unknown crop %q", p.Crop)
		case seen:
			return fmt.Errorf("duplicate crop %q", p.Crop)
		case p.Yield < agronomy.MinYield:
			return fmt.Errorf("yield %d below floor for %s", p.Yield, p.Crop)
		}
		want[p.Crop] = true
	}
	for crop, seen := range want {
		if !seen {
			return fmt.Errorf("missing crop %q", crop)
		}
	}
	return nil
}
