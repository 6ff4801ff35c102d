package postgres

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/brianvoe/gofakeit/v6"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"

	"github.com/streetninja/ninjabrain/pkg/models"
)

var (
	insertRegistrationSQL = regexp.QuoteMeta(`INSERT INTO "model_registration"`)
	insertPredictionSQL   = regexp.QuoteMeta(`INSERT INTO "entity_prediction"`)
	selectPredictionSQL   = regexp.QuoteMeta(`FROM "entity_prediction" AS "ep"`)
	selectRegistrationSQL = regexp.QuoteMeta(`FROM "model_registration" AS "mr"`)
)

func newMockStore(t *testing.T) (*PredictionStore, sqlmock.Sqlmock) {
	t.Helper()
	sqldb, mock, err := sqlmock.New()
	require.NoError(t, err)
	db := bun.NewDB(sqldb, pgdialect.New())
	t.Cleanup(func() { _ = db.Close() })
	return NewPredictionStore(db), mock
}

func returningRows(id int64, createdAt time.Time) *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "created_at"}).AddRow(id, createdAt)
}

func writeRequest() *models.PredictionWriteRequest {
	return &models.PredictionWriteRequest{
		ExternalID: gofakeit.Int64(),
		ElapsedMS:  42,
		Version:    "3.7.1",
		ModelID:    models.ModelEnCore,
		Language:   "en",
		Entities: []models.EntitySpan{
			{Label: "LOC", Text: "Hastings", Start: 10, End: 18},
		},
	}
}

func persist(
	ctx context.Context,
	store *PredictionStore,
	req *models.PredictionWriteRequest,
) (*models.PredictionRecord, error) {
	var record *models.PredictionRecord
	err := store.RunInTx(ctx, func(ctx context.Context, tx models.PredictionTx) error {
		registration, err := tx.GetOrCreateRegistration(ctx, req.ModelID, req.Version)
		if err != nil {
			return err
		}
		record, err = tx.CreatePrediction(ctx, registration, req)
		return err
	})
	return record, err
}

func TestRunInTx_Commit(t *testing.T) {
	store, mock := newMockStore(t)
	now := time.Now().UTC()
	req := writeRequest()

	mock.ExpectBegin()
	mock.ExpectQuery(insertRegistrationSQL).WillReturnRows(returningRows(7, now))
	mock.ExpectQuery(insertPredictionSQL).WillReturnRows(returningRows(100, now))
	mock.ExpectCommit()

	record, err := persist(context.Background(), store, req)
	require.NoError(t, err)

	assert.Equal(t, int64(100), record.ID)
	assert.NotEqual(t, uuid.Nil, record.UUID)
	assert.Equal(t, req.ExternalID, record.ExternalID)
	assert.Equal(t, req.Entities, record.ExtractedEntities)
	assert.Equal(t, int64(42), record.ResponseTimeMS)
	assert.Equal(t, "en", record.Language)
	require.NotNil(t, record.ModelRegistration)
	assert.Equal(t, int64(7), record.ModelRegistration.ID)
	assert.Equal(t, models.ModelEnCore, record.ModelRegistration.Name)
	assert.Equal(t, "3.7.1", record.ModelRegistration.Version)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRunInTx_RollbackWhenPredictionInsertFails(t *testing.T) {
	store, mock := newMockStore(t)
	insertErr := errors.New("insert failed: disk full")

	mock.ExpectBegin()
	mock.ExpectQuery(insertRegistrationSQL).WillReturnRows(returningRows(7, time.Now()))
	mock.ExpectQuery(insertPredictionSQL).WillReturnError(insertErr)
	mock.ExpectRollback()

	record, err := persist(context.Background(), store, writeRequest())
	assert.Nil(t, record)
	assert.ErrorIs(t, err, insertErr)

	// no commit was issued
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRunInTx_RollbackWhenRegistrationFails(t *testing.T) {
	store, mock := newMockStore(t)
	upsertErr := errors.New("connection reset")

	mock.ExpectBegin()
	mock.ExpectQuery(insertRegistrationSQL).WillReturnError(upsertErr)
	mock.ExpectRollback()

	_, err := persist(context.Background(), store, writeRequest())
	assert.ErrorIs(t, err, upsertErr)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRunInTx_CommitFailure(t *testing.T) {
	store, mock := newMockStore(t)
	commitErr := errors.New("could not serialize access")

	mock.ExpectBegin()
	mock.ExpectQuery(insertRegistrationSQL).WillReturnRows(returningRows(7, time.Now()))
	mock.ExpectQuery(insertPredictionSQL).WillReturnRows(returningRows(1, time.Now()))
	mock.ExpectCommit().WillReturnError(commitErr)

	_, err := persist(context.Background(), store, writeRequest())
	assert.ErrorIs(t, err, commitErr)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetOrCreateRegistration_ReusesExistingRow(t *testing.T) {
	store, mock := newMockStore(t)
	created := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

	// the upsert returns the existing row on both runs
	for i := 0; i < 2; i++ {
		mock.ExpectBegin()
		mock.ExpectQuery(insertRegistrationSQL + ".*" + regexp.QuoteMeta("ON CONFLICT (name, version) DO UPDATE")).
			WillReturnRows(returningRows(7, created))
		mock.ExpectQuery(insertPredictionSQL).WillReturnRows(returningRows(int64(200+i), time.Now()))
		mock.ExpectCommit()
	}

	first, err := persist(context.Background(), store, writeRequest())
	require.NoError(t, err)
	second, err := persist(context.Background(), store, writeRequest())
	require.NoError(t, err)

	assert.Equal(t, first.ModelRegistration.ID, second.ModelRegistration.ID)
	assert.Equal(t, created, second.ModelRegistration.CreatedAt)
	assert.NotEqual(t, first.ID, second.ID)
	assert.NotEqual(t, first.UUID, second.UUID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreatePrediction_RequiresRegistration(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectRollback()

	err := store.RunInTx(context.Background(), func(ctx context.Context, tx models.PredictionTx) error {
		_, err := tx.CreatePrediction(ctx, nil, writeRequest())
		return err
	})
	assert.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

var predictionColumns = []string{
	"id", "uuid", "external_id", "model_registration_id", "extracted_entities",
	"language", "response_time_ms", "created_at",
	"model_registration__id", "model_registration__name",
	"model_registration__version", "model_registration__created_at",
}

func TestGetPrediction(t *testing.T) {
	store, mock := newMockStore(t)
	predictionUUID := uuid.New()
	now := time.Now().UTC().Truncate(time.Second)

	mock.ExpectQuery(selectPredictionSQL).WillReturnRows(
		sqlmock.NewRows(predictionColumns).AddRow(
			int64(1), predictionUUID.String(), int64(555), int64(7),
			[]byte(`[{"label":"LOC","text":"Main St","start":0,"end":7}]`),
			"en", int64(12), now,
			int64(7), "en_core", "3.7.1", now,
		),
	)

	record, err := store.GetPrediction(context.Background(), predictionUUID)
	require.NoError(t, err)

	assert.Equal(t, predictionUUID, record.UUID)
	assert.Equal(t, int64(555), record.ExternalID)
	assert.Equal(t, []models.EntitySpan{{Label: "LOC", Text: "Main St", Start: 0, End: 7}}, record.ExtractedEntities)
	require.NotNil(t, record.ModelRegistration)
	assert.Equal(t, models.ModelEnCore, record.ModelRegistration.Name)
	assert.Equal(t, "3.7.1", record.ModelRegistration.Version)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetPrediction_NotFound(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery(selectPredictionSQL).WillReturnRows(sqlmock.NewRows(predictionColumns))

	_, err := store.GetPrediction(context.Background(), uuid.New())
	assert.ErrorIs(t, err, models.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListPredictions_Empty(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery(selectPredictionSQL).WillReturnRows(sqlmock.NewRows(predictionColumns))

	records, err := store.ListPredictions(context.Background(), 555)
	require.NoError(t, err)
	assert.Empty(t, records)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListRegistrations_NewestVersionFirst(t *testing.T) {
	store, mock := newMockStore(t)
	now := time.Now().UTC()

	mock.ExpectQuery(selectRegistrationSQL).WillReturnRows(
		sqlmock.NewRows([]string{"id", "name", "version", "created_at"}).
			AddRow(int64(4), "en_streetninja", "0.9.0", now).
			AddRow(int64(3), "en_core", "3.10.0", now.Add(-time.Hour)).
			AddRow(int64(2), "en_core", "nightly", now.Add(-2*time.Hour)).
			AddRow(int64(1), "en_core", "3.9.2", now.Add(-3*time.Hour)),
	)

	registrations, err := store.ListRegistrations(context.Background())
	require.NoError(t, err)

	got := make([]string, len(registrations))
	for i, r := range registrations {
		got[i] = r.Name.String() + "@" + r.Version
	}
	assert.Equal(t, []string{
		"en_core@3.10.0",
		"en_core@3.9.2",
		"en_core@nightly",
		"en_streetninja@0.9.0",
	}, got)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStoreError_WrapsCause(t *testing.T) {
	cause := errors.New("boom")
	err := storeError("failed to do the thing", cause)
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "failed to do the thing")
}
