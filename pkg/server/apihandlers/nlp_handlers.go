package apihandlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/streetninja/ninjabrain/internal"
	"github.com/streetninja/ninjabrain/pkg/models"
	"github.com/streetninja/ninjabrain/pkg/server/handlertools"
)

var log = internal.GetLogger()

// PredictHandler extracts entities from a single message and stores the
// prediction.
//
// This function handles HTTP POST requests at the /api/v1/nlp/predict endpoint.
// The body is a JSON object {"text": string, "id": int}. The response data is
// the stored prediction with its entities, model and model version.
func PredictHandler(appState *models.AppState) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		started := time.Now()
		errorsAsOK := appState.Config.API.ErrorsAsOK

		var req models.PredictionRequest
		if err := handlertools.DecodeJSON(r, &req); err != nil {
			handlertools.RenderError(w, r, textTypeError(err), started, errorsAsOK)
			return
		}
		if err := handlertools.Validate(&req); err != nil {
			handlertools.RenderError(w, r, err, started, errorsAsOK)
			return
		}

		log.Debugf("PredictHandler - external id %d", req.ID)

		resp, err := appState.Predictor.Predict(r.Context(), &req)
		if err != nil {
			handlertools.RenderError(w, r, err, started, errorsAsOK)
			return
		}

		handlertools.RenderData(w, r, resp, http.StatusOK, started)
	}
}

// GetPredictionHandler returns a stored prediction by UUID.
//
// This function handles HTTP GET requests at the
// /api/v1/nlp/predictions/{predictionUUID} endpoint.
func GetPredictionHandler(appState *models.AppState) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		started := time.Now()
		errorsAsOK := appState.Config.API.ErrorsAsOK

		predictionUUID, err := handlertools.UUIDFromURL(r, "predictionUUID")
		if err != nil {
			handlertools.RenderError(w, r, err, started, errorsAsOK)
			return
		}

		record, err := appState.PredictionStore.GetPrediction(r.Context(), predictionUUID)
		if err != nil {
			handlertools.RenderError(w, r, err, started, errorsAsOK)
			return
		}

		handlertools.RenderData(w, r, record, http.StatusOK, started)
	}
}

// ListPredictionsHandler lists the predictions made for one external message
// id, oldest first.
//
// This function handles HTTP GET requests at the
// /api/v1/nlp/predictions?external_id=N endpoint. external_id is required.
func ListPredictionsHandler(appState *models.AppState) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		started := time.Now()
		errorsAsOK := appState.Config.API.ErrorsAsOK

		if r.URL.Query().Get("external_id") == "" {
			handlertools.RenderError(
				w,
				r,
				models.NewValidationError("external_id is required", nil),
				started,
				errorsAsOK,
			)
			return
		}
		externalID, err := handlertools.IntFromQuery[int64](r, "external_id")
		if err != nil {
			handlertools.RenderError(w, r, err, started, errorsAsOK)
			return
		}

		records, err := appState.PredictionStore.ListPredictions(r.Context(), externalID)
		if err != nil {
			handlertools.RenderError(w, r, err, started, errorsAsOK)
			return
		}

		handlertools.RenderData(
			w,
			r,
			models.PredictionListResponse{ExternalID: externalID, Predictions: records},
			http.StatusOK,
			started,
		)
	}
}

// ListModelsHandler lists every model registration, newest version first.
//
// This function handles HTTP GET requests at the /api/v1/nlp/models endpoint.
func ListModelsHandler(appState *models.AppState) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		started := time.Now()

		registrations, err := appState.PredictionStore.ListRegistrations(r.Context())
		if err != nil {
			handlertools.RenderError(w, r, err, started, appState.Config.API.ErrorsAsOK)
			return
		}

		handlertools.RenderData(
			w,
			r,
			models.ModelRegistrationListResponse{Registrations: registrations},
			http.StatusOK,
			started,
		)
	}
}

// textTypeError reports a non-string text field as an inference error, the
// same way any other unusable message text is reported.
func textTypeError(err error) error {
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) && typeErr.Field == "text" {
		return models.NewInferenceError("text must be a string", err)
	}
	return err
}
