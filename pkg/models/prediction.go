package models

import (
	"time"

	"github.com/google/uuid"
)

// PredictionRequest is the inbound request to the prediction endpoint.
type PredictionRequest struct {
	Text string `json:"text" validate:"required"`
	// ID is the external id of the message, e.g. the SMS id.
	ID int64 `json:"id" validate:"gte=0"`
}

// PredictionResponse is returned to callers after a prediction is stored.
type PredictionResponse struct {
	PredictionUUID uuid.UUID       `json:"prediction_uuid"`
	Entities       []EntitySpan    `json:"entities"`
	Model          ModelIdentifier `json:"model"`
	Version        string          `json:"version"`
	ResponseTimeMS int64           `json:"response_time_ms"`
}

// PredictionWriteRequest carries everything needed to persist one prediction.
type PredictionWriteRequest struct {
	ExternalID int64
	ElapsedMS  int64
	Version    string
	ModelID    ModelIdentifier
	Language   string
	Entities   []EntitySpan
}

// ModelRegistration records a (name, version) pair a prediction was made with.
type ModelRegistration struct {
	ID        int64           `json:"id"`
	Name      ModelIdentifier `json:"name"`
	Version   string          `json:"version"`
	CreatedAt time.Time       `json:"created_at"`
}

// PredictionRecord is a persisted prediction. Records are never updated.
type PredictionRecord struct {
	ID                int64              `json:"id"`
	UUID              uuid.UUID          `json:"uuid"`
	ExternalID        int64              `json:"external_id"`
	ModelRegistration *ModelRegistration `json:"model_registration"`
	ExtractedEntities []EntitySpan       `json:"extracted_entities"`
	Language          string             `json:"language,omitempty"`
	ResponseTimeMS    int64              `json:"response_time_ms"`
	CreatedAt         time.Time          `json:"created_at"`
}

// PredictionListResponse is returned when listing predictions for an external id.
type PredictionListResponse struct {
	ExternalID  int64              `json:"external_id"`
	Predictions []PredictionRecord `json:"predictions"`
}

// ModelRegistrationListResponse is returned when listing model registrations.
type ModelRegistrationListResponse struct {
	Registrations []ModelRegistration `json:"registrations"`
}
