package main

import (
	"context"
	"time"

	"cultivos/advisor"
	"cultivos/agronomy"
	"cultivos/logger"
	"cultivos/prediction"
	"cultivos/store"
)

// pinger is anything health checks can probe.
type pinger interface {
	Ping(ctx context.Context) error
}

type App struct {
	cfg     Config
	log     *logger.Logger
	started time.Time

	users store.Users
	farms store.Farms
	runs  store.Runs
	db    pinger

	profiles     []agronomy.CropProfile
	orchestrator *prediction.Orchestrator
	advisor      *advisor.Advisor
	classifier   *advisor.CorpusClassifier

	closeFn func(ctx context.Context) error
}

func newApp(ctx context.Context, cfg Config, log *logger.Logger) (*App, error) {
	profiles := agronomy.DefaultProfiles()
	if cfg.CropProfilesFile != "" {
		p, err := agronomy.LoadProfiles(cfg.CropProfilesFile)
		if err != nil {
			return nil, err
		}
		log.Info("loaded %d crop profiles from %s", len(p), cfg.CropProfilesFile)
		profiles = p
	}

	db, err := store.Connect(ctx, cfg.MongoURI, cfg.MongoDB)
	if err != nil {
		return nil, err
	}

	var ml prediction.MLClient
	if cfg.MLServiceURL != "" {
		ml = prediction.NewHTTPMLClient(cfg.MLServiceURL, cfg.MLTimeout)
		log.Info("remote model enabled at %s (timeout %s)", cfg.MLServiceURL, cfg.MLTimeout)
	} else {
		log.Info("ML_SERVICE_URL not set, using local simulation only")
	}

	app := &App{
		cfg:     cfg,
		log:     log,
		started: time.Now(),
		users:   db,
		farms:   db,
		runs:    db,
		db:      db,
		closeFn: db.Close,
	}
	app.wireEngine(profiles, agronomy.NewEstimator(nil), ml)
	return app, nil
}

// wireEngine builds the prediction and chat components over profiles.
func (a *App) wireEngine(profiles []agronomy.CropProfile, est *agronomy.Estimator, ml prediction.MLClient) {
	a.profiles = profiles
	a.orchestrator = prediction.NewOrchestrator(profiles, est, ml, a.cfg.MLTimeout, a.log)
	a.classifier = advisor.NewCorpusClassifier(advisor.DefaultCorpus())
	a.advisor = advisor.New(a.orchestrator, profiles, a.classifier, a.cfg.CompatThreshold)
}

func (a *App) close(ctx context.Context) {
	if a.closeFn != nil {
		_ = a.closeFn(ctx)
	}
}
