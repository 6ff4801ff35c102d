package models

import (
	"context"

	"github.com/google/uuid"
)

// PredictionTx is the set of writes available inside a prediction transaction.
type PredictionTx interface {
	// GetOrCreateRegistration returns the registration matching (name, version),
	// creating it when absent.
	GetOrCreateRegistration(
		ctx context.Context,
		name ModelIdentifier,
		version string,
	) (*ModelRegistration, error)
	// CreatePrediction inserts a prediction referencing registration.
	CreatePrediction(
		ctx context.Context,
		registration *ModelRegistration,
		req *PredictionWriteRequest,
	) (*PredictionRecord, error)
}

// PredictionStore persists predictions and model registrations.
type PredictionStore interface {
	// RunInTx runs fn in a single transaction. The transaction is committed
	// when fn returns nil and rolled back otherwise.
	RunInTx(ctx context.Context, fn func(ctx context.Context, tx PredictionTx) error) error
	GetPrediction(ctx context.Context, predictionUUID uuid.UUID) (*PredictionRecord, error)
	ListPredictions(ctx context.Context, externalID int64) ([]PredictionRecord, error)
	ListRegistrations(ctx context.Context) ([]ModelRegistration, error)
	Close() error
}
