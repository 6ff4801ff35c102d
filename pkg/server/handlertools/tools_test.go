package handlertools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/streetninja/ninjabrain/pkg/models"
)

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Kind    string `json:"kind"`
		Message string `json:"message"`
	} `json:"error"`
	Meta struct {
		RequestID  *string  `json:"request_id"`
		Method     *string  `json:"method"`
		Path       *string  `json:"path"`
		Version    *string  `json:"version"`
		DurationMS *float64 `json:"duration_ms"`
	} `json:"meta"`
}

func decodeEnvelope(t *testing.T, body []byte) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(body, &env))
	return env
}

func TestExtractQueryStringValueToInt(t *testing.T) {
	req := httptest.NewRequest("GET", "/?param=123", nil)
	got, err := IntFromQuery[int](req, "param")
	assert.NoError(t, err, "extractQueryStringValueToInt() error = %v", err)
	assert.Equal(t, 123, got, "extractQueryStringValueToInt() = %v, want %v", got, 123)

	req = httptest.NewRequest("GET", "/?param=abc", nil)
	_, err = IntFromQuery[int64](req, "param")
	assert.ErrorIs(t, err, models.ErrValidation)

	req = httptest.NewRequest("GET", "/", nil)
	got64, err := IntFromQuery[int64](req, "param")
	assert.NoError(t, err)
	assert.Equal(t, int64(0), got64)
}

func TestParseUUIDFromURL(t *testing.T) {
	r := chi.NewRouter()
	r.Get("/{uuid}", func(w http.ResponseWriter, r *http.Request) {
		started := time.Now()
		urlUUID, err := UUIDFromURL(r, "uuid")
		if err != nil {
			RenderError(w, r, err, started, false)
			return
		}
		RenderData(w, r, urlUUID, http.StatusOK, started)
	})

	ts := httptest.NewServer(r)
	defer ts.Close()

	validUUID := uuid.New()
	res, err := http.Get(ts.URL + "/" + validUUID.String())
	require.NoError(t, err)
	res.Body.Close()
	assert.Equal(t, http.StatusOK, res.StatusCode)

	res, err = http.Get(ts.URL + "/invalid_uuid")
	require.NoError(t, err)
	res.Body.Close()
	assert.Equal(t, http.StatusBadRequest, res.StatusCode)
}

func TestDecodeJSON(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"text":"hi","id":4}`))
		var pr models.PredictionRequest
		require.NoError(t, DecodeJSON(req, &pr))
		assert.Equal(t, "hi", pr.Text)
		assert.Equal(t, int64(4), pr.ID)
	})

	t.Run("malformed", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"text":`))
		var pr models.PredictionRequest
		err := DecodeJSON(req, &pr)
		assert.ErrorIs(t, err, models.ErrValidation)
	})

	t.Run("body too large", func(t *testing.T) {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(
			http.MethodPost,
			"/",
			strings.NewReader(`{"text":"`+strings.Repeat("a", 64)+`"}`),
		)
		req.Body = http.MaxBytesReader(rec, req.Body, 16)
		var pr models.PredictionRequest
		err := DecodeJSON(req, &pr)
		require.Error(t, err)
		assert.Equal(t, http.StatusRequestEntityTooLarge, StatusFor(err))
	})
}

func TestValidate(t *testing.T) {
	assert.NoError(t, Validate(&models.PredictionRequest{Text: "hi", ID: 1}))

	err := Validate(&models.PredictionRequest{ID: 1})
	require.ErrorIs(t, err, models.ErrValidation)
	var ve *models.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Contains(t, ve.Message, "text")

	err = Validate(&models.PredictionRequest{Text: "hi", ID: -1})
	require.ErrorAs(t, err, &ve)
	assert.Contains(t, ve.Message, "id")
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"validation", models.NewValidationError("bad", nil), http.StatusBadRequest},
		{"unauthorized", &models.UnauthorizedError{}, http.StatusUnauthorized},
		{"not found", models.NewNotFoundError("prediction"), http.StatusNotFound},
		{"inference", models.NewInferenceError("bad", nil), http.StatusUnprocessableEntity},
		{"model load", models.NewModelLoadError("bad", nil), http.StatusServiceUnavailable},
		{"persistence", models.NewPersistenceError("bad", nil), http.StatusInternalServerError},
		{
			"inference timeout",
			models.NewInferenceError("inference timed out", context.DeadlineExceeded),
			http.StatusGatewayTimeout,
		},
		{"wrapped", fmt.Errorf("outer: %w", models.NewNotFoundError("x")), http.StatusNotFound},
		{"unclassified", errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, StatusFor(tt.err))
		})
	}
}

func TestRenderData(t *testing.T) {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Post("/things", func(w http.ResponseWriter, r *http.Request) {
		RenderData(w, r, map[string]int{"n": 1}, http.StatusCreated, time.Now())
	})

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/things", nil))

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	env := decodeEnvelope(t, rec.Body.Bytes())
	assert.True(t, env.Success)
	assert.Nil(t, env.Error)
	assert.JSONEq(t, `{"n":1}`, string(env.Data))
	require.NotNil(t, env.Meta.RequestID)
	assert.NotEmpty(t, *env.Meta.RequestID)
	require.NotNil(t, env.Meta.Method)
	assert.Equal(t, http.MethodPost, *env.Meta.Method)
	require.NotNil(t, env.Meta.Path)
	assert.Equal(t, "/things", *env.Meta.Path)
	assert.NotNil(t, env.Meta.Version)
	assert.NotNil(t, env.Meta.DurationMS)
}

func TestRenderError(t *testing.T) {
	err := models.NewPersistenceError(
		"failed to save prediction",
		errors.New("dial tcp postgres://user:hunter2@db: refused"),
	)

	t.Run("status from kind", func(t *testing.T) {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/predict", nil)
		RenderError(rec, req, err, time.Now(), false)

		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.NotContains(t, rec.Body.String(), "hunter2")

		env := decodeEnvelope(t, rec.Body.Bytes())
		assert.False(t, env.Success)
		assert.Equal(t, "null", string(env.Data))
		require.NotNil(t, env.Error)
		assert.Equal(t, models.KindPersistence, env.Error.Kind)
		assert.Equal(t, "failed to save prediction", env.Error.Message)
	})

	t.Run("errors as ok", func(t *testing.T) {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/predict", nil)
		RenderError(rec, req, err, time.Now(), true)

		assert.Equal(t, http.StatusOK, rec.Code)
		env := decodeEnvelope(t, rec.Body.Bytes())
		assert.False(t, env.Success)
		require.NotNil(t, env.Error)
		assert.Equal(t, models.KindPersistence, env.Error.Kind)
	})

	t.Run("unclassified", func(t *testing.T) {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/x", nil)
		RenderError(rec, req, errors.New("secret detail"), time.Now(), false)

		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.NotContains(t, rec.Body.String(), "secret detail")
		env := decodeEnvelope(t, rec.Body.Bytes())
		require.NotNil(t, env.Error)
		assert.Equal(t, "internal_error", env.Error.Kind)
	})
}

func TestRenderData_Unencodable(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	RenderData(rec, req, make(chan int), http.StatusOK, time.Now())

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), http.StatusText(http.StatusInternalServerError))
}
