package response

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/streetninja/ninjabrain/pkg/models"
)

func TestNewPayload_MutualExclusivity(t *testing.T) {
	data := &models.PredictionResponse{Model: models.ModelEnCore}
	buildErr := models.NewInferenceError("engine failed", nil)

	testCases := []struct {
		name        string
		data        *models.PredictionResponse
		err         error
		expectError bool
		success     bool
	}{
		{name: "data only", data: data, success: true},
		{name: "error only", err: buildErr, success: false},
		{name: "both", data: data, err: buildErr, expectError: true},
		{name: "neither", expectError: true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			p, err := NewPayload(tc.data, tc.err)
			if tc.expectError {
				var pbe *PayloadBuilderError
				require.ErrorAs(t, err, &pbe)
				assert.ErrorIs(t, err, ErrPayloadBuilder)
				assert.False(t, p.valid(), "a failed build must not yield a usable payload")
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.success, p.Success())
			_, hasData := p.Data()
			assert.Equal(t, p.Success(), hasData)
			assert.Equal(t, !p.Success(), p.Err() != nil)
		})
	}
}

func TestNewPayload_NilValuesAreAbsent(t *testing.T) {
	var nilResponse *models.PredictionResponse
	_, err := NewPayload(&nilResponse, nil)
	assert.ErrorIs(t, err, ErrPayloadBuilder)

	var nilSlice []models.EntitySpan
	_, err = Success(nilSlice)
	assert.ErrorIs(t, err, ErrPayloadBuilder)

	// an empty but non-nil slice is data
	p, err := Success([]models.EntitySpan{})
	require.NoError(t, err)
	assert.True(t, p.Success())

	// a nil pointer alongside an error is an error payload
	p2, err := NewPayload(&nilResponse, models.NewInferenceError("bad", nil))
	require.NoError(t, err)
	assert.False(t, p2.Success())
}

func TestFailure_NilError(t *testing.T) {
	_, err := Failure[string](nil)
	assert.ErrorIs(t, err, ErrPayloadBuilder)
}

func TestFailure_TypedNilError(t *testing.T) {
	var inferenceErr *models.InferenceError
	var err error = inferenceErr

	_, perr := Failure[string](err)
	assert.ErrorIs(t, perr, ErrPayloadBuilder)

	resp, berr := BuildError[any](err, 500, nil)
	assert.Nil(t, resp)
	var pbe *PayloadBuilderError
	assert.ErrorAs(t, berr, &pbe)

	v := "data"
	p, perr := NewPayload(&v, err)
	require.NoError(t, perr)
	assert.True(t, p.Success())
}

func TestPayload_SuccessIsDerived(t *testing.T) {
	successes := []func() (Payload[int], error){
		func() (Payload[int], error) { return Success(0) },
		func() (Payload[int], error) { return Success(42) },
		func() (Payload[int], error) { return Failure[int](errors.New("x")) },
		func() (Payload[int], error) { v := 7; return NewPayload(&v, nil) },
	}
	for i, build := range successes {
		p, err := build()
		require.NoError(t, err, "case %d", i)
		_, hasData := p.Data()
		assert.Equal(t, hasData, p.Success(), "case %d", i)
	}
}

func TestNewErrorInfo(t *testing.T) {
	t.Run("classified error", func(t *testing.T) {
		info := NewErrorInfo(models.NewModelLoadError("invalid model identifier", nil))
		assert.Equal(t, models.KindModelLoad, info.Kind)
		assert.Equal(t, "invalid model identifier", info.Message)
	})

	t.Run("wrapped classified error", func(t *testing.T) {
		err := fmt.Errorf("predict: %w", models.NewPersistenceError("failed to save prediction", nil))
		info := NewErrorInfo(err)
		assert.Equal(t, models.KindPersistence, info.Kind)
		assert.Equal(t, "failed to save prediction", info.Message)
	})

	t.Run("cause is never exposed", func(t *testing.T) {
		cause := errors.New("dial tcp: postgres://admin:hunter2@db:5432 refused")
		info := NewErrorInfo(models.NewPersistenceError("failed to save prediction", cause))
		assert.NotContains(t, info.Message, "hunter2")
		assert.NotContains(t, info.Message, "postgres://")
	})

	t.Run("unclassified error", func(t *testing.T) {
		info := NewErrorInfo(errors.New("pq: password authentication failed for user admin"))
		assert.Equal(t, KindInternal, info.Kind)
		assert.NotContains(t, info.Message, "password")
	})
}
