package predict

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/streetninja/ninjabrain/pkg/models"
	"github.com/streetninja/ninjabrain/pkg/observability"
	"github.com/streetninja/ninjabrain/pkg/timer"
)

// validateText rejects text the inference engine cannot process. It runs
// before the engine is called.
func (p *Predictor) validateText(text string) error {
	if !utf8.ValidString(text) {
		return models.NewInferenceError("text must be valid UTF-8", nil)
	}
	if strings.TrimSpace(text) == "" {
		return models.NewInferenceError("text must not be blank", nil)
	}
	if p.cfg.MaxTextLength > 0 && utf8.RuneCountInString(text) > p.cfg.MaxTextLength {
		return models.NewInferenceError(
			fmt.Sprintf("text exceeds the maximum length of %d characters", p.cfg.MaxTextLength),
			nil,
		)
	}
	return nil
}

// infer runs a single inference call bounded by the configured timeout and
// returns the entities together with the elapsed time of the engine call.
func (p *Predictor) infer(
	ctx context.Context,
	handle models.InferenceHandle,
	text string,
) (*models.InferredEntities, int64, models.Language, error) {
	if err := p.validateText(text); err != nil {
		log.WithError(err).Warn("Rejected prediction text")
		return nil, 0, "", err
	}

	classification, err := p.classifier.Classify(ctx, text)
	if err != nil {
		inferenceErr := models.NewInferenceError("failed to classify message language", err)
		log.WithError(err).Error(inferenceErr.Message)
		return nil, 0, "", inferenceErr
	}

	runCtx := ctx
	if p.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, p.cfg.Timeout)
		defer cancel()
	}

	result, elapsedMS, err := timer.MeasureCtx(
		runCtx,
		func(ctx context.Context) (*models.EngineResult, error) {
			return handle.Run(ctx, models.EngineRequest{
				Text:     text,
				Language: classification.Language.String(),
			})
		},
	)
	if err != nil {
		var inferenceErr *models.InferenceError
		switch {
		case errors.Is(err, context.DeadlineExceeded) ||
			errors.Is(runCtx.Err(), context.DeadlineExceeded):
			inferenceErr = models.NewInferenceError("inference timed out", err)
		case errors.Is(err, context.Canceled):
			inferenceErr = models.NewInferenceError("inference was cancelled", err)
		default:
			inferenceErr = models.NewInferenceError("failed to extract entities", err)
		}
		log.WithError(err).Errorf("Inference with model %s failed after %dms", handle.Model(), elapsedMS)
		return nil, elapsedMS, "", inferenceErr
	}
	if result == nil {
		return nil, elapsedMS, "", models.NewInferenceError("inference engine returned no result", nil)
	}

	sourceLen := utf8.RuneCountInString(text)
	for _, span := range result.Entities {
		if err := span.Validate(sourceLen); err != nil {
			log.WithError(err).Error("Inference engine returned an invalid entity span")
			return nil, elapsedMS, "", models.NewInferenceError(
				"inference engine returned an invalid entity span",
				err,
			)
		}
	}

	entities := result.Entities
	if entities == nil {
		entities = []models.EntitySpan{}
	}
	version := result.Version
	if version == "" {
		version = handle.Version()
	}

	observability.ObserveInference(handle.Model().String(), elapsedMS)

	return &models.InferredEntities{
		Text:     text,
		ModelID:  handle.Model(),
		Version:  version,
		Entities: entities,
	}, elapsedMS, classification.Language, nil
}
