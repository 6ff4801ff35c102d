package predict

import (
	"context"

	"github.com/streetninja/ninjabrain/pkg/models"
)

// persist registers the model version and stores the prediction in one
// transaction. The transaction is detached from request cancellation so a
// client disconnect cannot interrupt it halfway.
func (p *Predictor) persist(
	ctx context.Context,
	req *models.PredictionWriteRequest,
) (*models.PredictionRecord, error) {
	var record *models.PredictionRecord
	err := p.store.RunInTx(
		context.WithoutCancel(ctx),
		func(ctx context.Context, tx models.PredictionTx) error {
			registration, err := tx.GetOrCreateRegistration(ctx, req.ModelID, req.Version)
			if err != nil {
				return err
			}
			record, err = tx.CreatePrediction(ctx, registration, req)
			return err
		},
	)
	if err != nil {
		persistenceErr := models.NewPersistenceError("failed to save prediction", err)
		log.WithError(err).Errorf(
			"Failed to save prediction for message %d (model %s version %s)",
			req.ExternalID, req.ModelID, req.Version,
		)
		return nil, persistenceErr
	}
	return record, nil
}
