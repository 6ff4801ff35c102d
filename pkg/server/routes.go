package server

import (
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	httpLogger "github.com/chi-middleware/logrus-logger"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/riandyrn/otelchi"

	"github.com/streetninja/ninjabrain/internal"
	"github.com/streetninja/ninjabrain/pkg/auth"
	"github.com/streetninja/ninjabrain/pkg/models"
	"github.com/streetninja/ninjabrain/pkg/server/apihandlers"
)

var log = internal.GetLogger()

const (
	ReadHeaderTimeout = 5 * time.Second
	serverName        = "ninjabrain"
)

// Create creates a new HTTP server with the given app state
func Create(appState *models.AppState) (*http.Server, error) {
	router, err := setupRouter(appState)
	if err != nil {
		return nil, err
	}
	cfg := appState.Config.Server
	return &http.Server{
		Addr:              net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port)),
		Handler:           router,
		ReadHeaderTimeout: ReadHeaderTimeout,
	}, nil
}

func setupRouter(appState *models.AppState) (*chi.Mux, error) {
	router := chi.NewRouter()
	router.Use(httpLogger.Logger("router", log))
	router.Use(middleware.Recoverer)
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(SendVersion)
	router.Use(otelchi.Middleware(serverName, otelchi.WithChiRoutes(router)))
	router.Use(middleware.Heartbeat("/healthz"))

	if appState.Config.Metrics.Enabled {
		router.Handle("/metrics", promhttp.Handler())
	}

	var verifier func(http.Handler) http.Handler
	if appState.Config.Auth.Required {
		log.Info("JWT authentication required")
		v, err := auth.JWTVerifier(appState.Config)
		if err != nil {
			return nil, fmt.Errorf("failed to configure authentication: %w", err)
		}
		verifier = v
	}

	router.Route("/api/v1", func(r chi.Router) {
		if verifier != nil {
			r.Use(verifier)
			r.Use(Authenticator(appState.Config.API.ErrorsAsOK))
		}
		if limit := appState.Config.Server.MaxRequestBodySize; limit > 0 {
			r.Use(middleware.RequestSize(limit))
		}

		r.Route("/nlp", func(r chi.Router) {
			r.Post("/predict", apihandlers.PredictHandler(appState))
			r.Get("/models", apihandlers.ListModelsHandler(appState))
			r.Route("/predictions", func(r chi.Router) {
				r.Get("/", apihandlers.ListPredictionsHandler(appState))
				r.Get("/{predictionUUID}", apihandlers.GetPredictionHandler(appState))
			})
		})
	})

	return router, nil
}
