package models

import (
	"context"

	"github.com/streetninja/ninjabrain/config"
)

// AppState is a struct that holds the state of the application
// Use cmd.NewAppState to create a new instance
type AppState struct {
	Config          *config.Config
	PredictionStore PredictionStore
	Models          ModelProvider
	Classifier      Classifier
	Predictor       Predictor
}

// Predictor turns a prediction request into a stored prediction.
type Predictor interface {
	Predict(ctx context.Context, req *PredictionRequest) (*PredictionResponse, error)
}
