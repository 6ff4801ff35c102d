package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"

	"github.com/Masterminds/semver/v3"
	"github.com/google/uuid"
	"github.com/jinzhu/copier"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/driver/pgdriver"

	"github.com/streetninja/ninjabrain/pkg/models"
	"github.com/streetninja/ninjabrain/pkg/observability"
)

var _ models.PredictionStore = &PredictionStore{}

// PredictionStore persists predictions and model registrations in postgres.
type PredictionStore struct {
	db *bun.DB
}

func NewPredictionStore(db *bun.DB) *PredictionStore {
	return &PredictionStore{db: db}
}

// RunInTx runs fn in a transaction. The transaction is rolled back when fn
// returns an error and committed otherwise.
func (s *PredictionStore) RunInTx(
	ctx context.Context,
	fn func(ctx context.Context, tx models.PredictionTx) error,
) error {
	return s.db.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		return fn(ctx, &predictionTx{tx: tx})
	})
}

func (s *PredictionStore) GetPrediction(
	ctx context.Context,
	predictionUUID uuid.UUID,
) (*models.PredictionRecord, error) {
	prediction := new(PredictionSchema)
	err := s.db.NewSelect().
		Model(prediction).
		Relation("ModelRegistration").
		Where("ep.uuid = ?", predictionUUID).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, models.NewNotFoundError("prediction " + predictionUUID.String())
		}
		return nil, storeError("failed to get prediction", err)
	}

	return predictionFromSchema(prediction)
}

// ListPredictions returns the predictions made for a message, oldest first.
func (s *PredictionStore) ListPredictions(
	ctx context.Context,
	externalID int64,
) ([]models.PredictionRecord, error) {
	var predictions []PredictionSchema
	err := s.db.NewSelect().
		Model(&predictions).
		Relation("ModelRegistration").
		Where("ep.external_id = ?", externalID).
		Order("ep.id ASC").
		Scan(ctx)
	if err != nil {
		return nil, storeError("failed to list predictions", err)
	}

	records := make([]models.PredictionRecord, len(predictions))
	for i := range predictions {
		record, err := predictionFromSchema(&predictions[i])
		if err != nil {
			return nil, err
		}
		records[i] = *record
	}
	return records, nil
}

// ListRegistrations returns every model registration, newest version first.
func (s *PredictionStore) ListRegistrations(ctx context.Context) ([]models.ModelRegistration, error) {
	var registrations []ModelRegistrationSchema
	err := s.db.NewSelect().
		Model(&registrations).
		Order("mr.id DESC").
		Scan(ctx)
	if err != nil {
		return nil, storeError("failed to list model registrations", err)
	}

	result := make([]models.ModelRegistration, len(registrations))
	for i := range registrations {
		result[i] = registrationFromSchema(&registrations[i])
	}
	SortRegistrations(result)

	return result, nil
}

func (s *PredictionStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// predictionTx implements the writes of a single prediction on top of a bun
// transaction.
type predictionTx struct {
	tx bun.Tx
}

// GetOrCreateRegistration upserts (name, version). A conflicting insert
// updates the row to itself so that RETURNING yields the existing id.
func (t *predictionTx) GetOrCreateRegistration(
	ctx context.Context,
	name models.ModelIdentifier,
	version string,
) (*models.ModelRegistration, error) {
	registration := &ModelRegistrationSchema{
		Name:    name.String(),
		Version: version,
	}
	_, err := t.tx.NewInsert().
		Model(registration).
		On("CONFLICT (name, version) DO UPDATE").
		Set("name = EXCLUDED.name").
		Returning("id, created_at").
		Exec(ctx)
	if err != nil {
		return nil, storeError(
			fmt.Sprintf("failed to register model %s version %s", name, version),
			err,
		)
	}
	observability.RegistrationsCreated.Inc()

	result := registrationFromSchema(registration)
	return &result, nil
}

func (t *predictionTx) CreatePrediction(
	ctx context.Context,
	registration *models.ModelRegistration,
	req *models.PredictionWriteRequest,
) (*models.PredictionRecord, error) {
	if registration == nil || registration.ID == 0 {
		return nil, errors.New("prediction requires a stored model registration")
	}

	entities := req.Entities
	if entities == nil {
		entities = []models.EntitySpan{}
	}

	prediction := &PredictionSchema{
		UUID:                uuid.New(),
		ExternalID:          req.ExternalID,
		ModelRegistrationID: registration.ID,
		ExtractedEntities:   entities,
		Language:            req.Language,
		ResponseTimeMS:      req.ElapsedMS,
	}
	_, err := t.tx.NewInsert().
		Model(prediction).
		Returning("id, created_at").
		Exec(ctx)
	if err != nil {
		return nil, storeError("failed to insert prediction", err)
	}

	record, err := predictionFromSchema(prediction)
	if err != nil {
		return nil, err
	}
	reg := *registration
	record.ModelRegistration = &reg

	return record, nil
}

func predictionFromSchema(prediction *PredictionSchema) (*models.PredictionRecord, error) {
	record := &models.PredictionRecord{}
	if err := copier.Copy(record, prediction); err != nil {
		return nil, fmt.Errorf("failed to copy prediction: %w", err)
	}
	if record.ExtractedEntities == nil {
		record.ExtractedEntities = []models.EntitySpan{}
	}
	if prediction.ModelRegistration != nil {
		reg := registrationFromSchema(prediction.ModelRegistration)
		record.ModelRegistration = &reg
	}
	return record, nil
}

func registrationFromSchema(r *ModelRegistrationSchema) models.ModelRegistration {
	return models.ModelRegistration{
		ID:        r.ID,
		Name:      models.ModelIdentifier(r.Name),
		Version:   r.Version,
		CreatedAt: r.CreatedAt,
	}
}

// SortRegistrations orders registrations by model name, then newest semantic
// version first. Versions that are not semantic sort after those that are,
// newest registration first.
func SortRegistrations(registrations []models.ModelRegistration) {
	sort.SliceStable(registrations, func(i, j int) bool {
		a, b := registrations[i], registrations[j]
		if a.Name != b.Name {
			return a.Name < b.Name
		}
		va, errA := semver.NewVersion(a.Version)
		vb, errB := semver.NewVersion(b.Version)
		switch {
		case errA == nil && errB == nil:
			if !va.Equal(vb) {
				return va.GreaterThan(vb)
			}
		case errA == nil:
			return true
		case errB == nil:
			return false
		}
		return a.CreatedAt.After(b.CreatedAt)
	})
}

// storeError logs err with its SQLSTATE when it comes from postgres and wraps
// it with msg.
func storeError(msg string, err error) error {
	entry := log.WithError(err)
	var pgErr pgdriver.Error
	if errors.As(err, &pgErr) {
		entry = entry.WithField("sqlstate", pgErr.Field('C'))
		if pgErr.IntegrityViolation() {
			entry = entry.WithField("integrity_violation", true)
		}
	}
	entry.Error(msg)
	return fmt.Errorf("%s: %w", msg, err)
}
