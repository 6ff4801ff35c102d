package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/streetninja/ninjabrain/config"
	"github.com/streetninja/ninjabrain/pkg/auth"
	"github.com/streetninja/ninjabrain/pkg/models"
	"github.com/streetninja/ninjabrain/pkg/nlp"
	"github.com/streetninja/ninjabrain/pkg/observability"
	"github.com/streetninja/ninjabrain/pkg/predict"
	"github.com/streetninja/ninjabrain/pkg/resolvers"
	"github.com/streetninja/ninjabrain/pkg/server"
	"github.com/streetninja/ninjabrain/pkg/store/postgres"
)

const (
	ErrStoreTypeNotSet = "store.type must be set"
	StoreTypePostgres  = "postgres"

	shutdownTimeout = 15 * time.Second
)

// run is the entrypoint for the ninjabrain server
func run(ctx context.Context) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	if handled, err := handleCLIOptions(cfg); handled || err != nil {
		return err
	}

	log.Infof("Starting ninjabrain server version %s", config.VersionString)

	shutdownTracing, err := observability.InitTracing(ctx, &cfg.Tracing, config.Version)
	if err != nil {
		return err
	}
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
		defer cancel()
		if err := shutdownTracing(flushCtx); err != nil {
			log.Errorf("Error shutting down tracing: %v", err)
		}
	}()

	appState, cleanup, err := NewAppState(ctx, cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	srv, err := server.Create(appState)
	if err != nil {
		return err
	}

	errCh := make(chan error, 1)
	go func() {
		log.Infof("Listening on: %s", srv.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
		log.Info("Shutting down ninjabrain server")
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.LoadConfig(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("error configuring ninjabrain: %w", err)
	}
	config.SetLogLevel(cfg)
	return cfg, nil
}

// handleCLIOptions handles CLI options that don't require the server to run.
// It reports whether an option was handled.
func handleCLIOptions(cfg *config.Config) (bool, error) {
	switch {
	case showVersion:
		fmt.Println(config.VersionString)
		return true, nil
	case dumpConfig:
		out, err := config.Dump(cfg)
		if err != nil {
			return true, err
		}
		fmt.Print(string(out))
		return true, nil
	case generateKey:
		token, err := auth.GenerateJWT(cfg)
		if err != nil {
			return true, err
		}
		fmt.Println(token)
		return true, nil
	}
	return false, nil
}

// NewAppState wires the prediction pipeline from config. The returned cleanup
// func releases the model cache and the store.
func NewAppState(ctx context.Context, cfg *config.Config) (*models.AppState, func(), error) {
	store, err := initializePredictionStore(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}

	client := nlp.NewClient(cfg.NLP.ServerURL, nlp.NewHTTPClient(0))
	cache := nlp.NewModelCache(client, cfg.NLP.LoadTimeout)

	appState := &models.AppState{
		Config:          cfg,
		PredictionStore: store,
		Models:          cache,
		Classifier:      newClassifier(cfg),
	}
	appState.Predictor = predict.NewPredictor(appState)

	cleanup := func() {
		if err := cache.Close(); err != nil {
			log.Errorf("Error closing model cache: %v", err)
		}
		if err := store.Close(); err != nil {
			log.Errorf("Error closing PredictionStore connection: %v", err)
		}
	}

	return appState, cleanup, nil
}

// initializePredictionStore initializes the prediction store based on the config file / ENV
func initializePredictionStore(ctx context.Context, cfg *config.Config) (models.PredictionStore, error) {
	switch cfg.Store.Type {
	case "":
		return nil, errors.New(ErrStoreTypeNotSet)
	case StoreTypePostgres:
		db, err := postgres.NewPostgresConn(&cfg.Store.Postgres)
		if err != nil {
			return nil, err
		}
		if err := postgres.CreateSchema(ctx, db); err != nil {
			_ = db.Close()
			return nil, err
		}
		log.Info("Using prediction store: ", cfg.Store.Type)
		return postgres.NewPredictionStore(db), nil
	default:
		return nil, fmt.Errorf("store.type (%s) is not supported", cfg.Store.Type)
	}
}

func newClassifier(cfg *config.Config) models.Classifier {
	if cfg.NLP.LanguageDetection {
		log.Info("Language detection enabled")
		return resolvers.NewWhatlangClassifier()
	}
	return resolvers.NewConstantLanguageClassifier()
}
