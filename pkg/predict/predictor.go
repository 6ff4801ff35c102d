// Package predict runs the entity prediction pipeline: it resolves the
// configured model, runs timed inference against it and stores the result in
// a single transaction.
package predict

import (
	"context"
	"errors"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/streetninja/ninjabrain/config"
	"github.com/streetninja/ninjabrain/internal"
	"github.com/streetninja/ninjabrain/pkg/models"
	"github.com/streetninja/ninjabrain/pkg/observability"
)

var log = internal.GetLogger()

var _ models.Predictor = &Predictor{}

// Predictor is safe for concurrent use. It holds no per-request state.
type Predictor struct {
	cfg        *config.NLPConfig
	models     models.ModelProvider
	store      models.PredictionStore
	classifier models.Classifier
}

// NewPredictor builds a Predictor from the collaborators held by appState.
func NewPredictor(appState *models.AppState) *Predictor {
	return &Predictor{
		cfg:        &appState.Config.NLP,
		models:     appState.Models,
		store:      appState.PredictionStore,
		classifier: appState.Classifier,
	}
}

// Predict extracts entities from req.Text with the configured model and
// stores the prediction. Errors are *models.ModelLoadError,
// *models.InferenceError or *models.PersistenceError. Nothing is stored
// unless the whole pipeline succeeds.
func (p *Predictor) Predict(
	ctx context.Context,
	req *models.PredictionRequest,
) (resp *models.PredictionResponse, err error) {
	ctx, span := observability.StartSpan(ctx, "predict.Predict",
		attribute.String("model", p.cfg.Model),
		attribute.Int64("external_id", req.ID),
	)
	defer func() {
		observability.ObservePrediction(p.cfg.Model, outcome(err))
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, outcome(err))
		}
		span.End()
	}()

	modelID, err := models.ParseModelIdentifier(p.cfg.Model)
	if err != nil {
		log.WithError(err).Error("Invalid model configuration")
		return nil, err
	}

	handle, err := p.models.Get(ctx, modelID)
	if err != nil {
		return nil, models.NewModelLoadError(fmt.Sprintf("failed to load model %s", modelID), err)
	}

	inferred, elapsedMS, language, err := p.infer(ctx, handle, req.Text)
	if err != nil {
		return nil, err
	}
	span.SetAttributes(
		attribute.String("model_version", inferred.Version),
		attribute.StringSlice("entity_labels", inferred.Labels()),
	)

	record, err := p.persist(ctx, &models.PredictionWriteRequest{
		ExternalID: req.ID,
		ElapsedMS:  elapsedMS,
		Version:    inferred.Version,
		ModelID:    inferred.ModelID,
		Language:   language.String(),
		Entities:   inferred.Entities,
	})
	if err != nil {
		return nil, err
	}

	entities := record.ExtractedEntities
	if entities == nil {
		entities = []models.EntitySpan{}
	}

	log.Debugf(
		"Stored prediction %s for message %d: %d entities in %dms",
		record.UUID, req.ID, len(entities), elapsedMS,
	)

	return &models.PredictionResponse{
		PredictionUUID: record.UUID,
		Entities:       entities,
		Model:          inferred.ModelID,
		Version:        inferred.Version,
		ResponseTimeMS: elapsedMS,
	}, nil
}

func outcome(err error) string {
	if err == nil {
		return observability.OutcomeSuccess
	}
	var kinded models.KindedError
	if errors.As(err, &kinded) {
		return kinded.Kind()
	}
	return observability.OutcomeFailure
}
