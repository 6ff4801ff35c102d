package handlertools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/streetninja/ninjabrain/config"
	"github.com/streetninja/ninjabrain/internal"
	"github.com/streetninja/ninjabrain/pkg/models"
	"github.com/streetninja/ninjabrain/pkg/response"
)

var log = internal.GetLogger()

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

func getValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New()
		// report json field names rather than Go field names
		validate.RegisterTagNameFunc(func(f reflect.StructField) string {
			name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		})
	})
	return validate
}

// IntFromQuery extracts a query string value and converts it to an int
// if it is not empty. If the value is empty, it returns 0.
func IntFromQuery[T ~int | int32 | int64](
	r *http.Request,
	param string,
) (T, error) {
	bitsize := 0

	p := r.URL.Query().Get(param)
	var pInt T
	if p != "" {
		switch any(pInt).(type) {
		case int:
		case int32:
			bitsize = 32
		case int64:
			bitsize = 64
		default:
			return 0, errors.New("unsupported type")
		}

		pInt, err := strconv.ParseInt(p, 10, bitsize)
		if err != nil {
			return 0, models.NewValidationError(fmt.Sprintf("%s must be an integer", param), err)
		}
		return T(pInt), nil
	}
	return 0, nil
}

// DecodeJSON decodes a JSON request body into the provided data struct.
func DecodeJSON(r *http.Request, data interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(data); err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			return models.NewValidationError(
				fmt.Sprintf("request body exceeds %d bytes", maxBytesErr.Limit),
				err,
			)
		}
		return models.NewValidationError("invalid request body", err)
	}
	return nil
}

// Validate runs the struct's validate tags.
func Validate(data interface{}) error {
	err := getValidator().Struct(data)
	if err == nil {
		return nil
	}

	var validationErrs validator.ValidationErrors
	if !errors.As(err, &validationErrs) {
		return models.NewValidationError("invalid request", err)
	}

	problems := make([]string, len(validationErrs))
	for i, fe := range validationErrs {
		problems[i] = fmt.Sprintf("%s failed on the '%s' rule", fe.Field(), fe.Tag())
	}
	return models.NewValidationError(strings.Join(problems, "; "), err)
}

// UUIDFromURL parses a UUID from a Path parameter.
func UUIDFromURL(r *http.Request, paramName string) (uuid.UUID, error) {
	uuidStr := chi.URLParam(r, paramName)
	parsed, err := uuid.Parse(uuidStr)
	if err != nil {
		return uuid.Nil, models.NewValidationError(
			fmt.Sprintf("unable to parse %s as a UUID", paramName),
			err,
		)
	}
	return parsed, nil
}

// StatusFor maps an error to the HTTP status it is sent with.
func StatusFor(err error) int {
	var maxBytesErr *http.MaxBytesError
	if errors.As(err, &maxBytesErr) {
		return http.StatusRequestEntityTooLarge
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return http.StatusGatewayTimeout
	}

	var kinded models.KindedError
	if errors.As(err, &kinded) {
		switch kinded.Kind() {
		case models.KindValidation:
			return http.StatusBadRequest
		case models.KindUnauthorized:
			return http.StatusUnauthorized
		case models.KindNotFound:
			return http.StatusNotFound
		case models.KindInference:
			return http.StatusUnprocessableEntity
		case models.KindModelLoad:
			return http.StatusServiceUnavailable
		}
	}
	return http.StatusInternalServerError
}

// RequestMeta describes r for the response envelope.
func RequestMeta(r *http.Request, started time.Time) *response.Meta {
	return response.NewMeta(
		response.WithRequestID(middleware.GetReqID(r.Context())),
		response.WithMethod(r.Method),
		response.WithPath(r.URL.Path),
		response.WithVersion(config.Version),
		response.WithDuration(time.Since(started)),
	)
}

// RenderData renders a success envelope. A zero status means 200 OK.
func RenderData[T any](w http.ResponseWriter, r *http.Request, data T, status int, started time.Time) {
	resp, err := response.BuildSuccess(data, status, RequestMeta(r, started))
	if err != nil {
		renderFallback(w, err)
		return
	}
	Render(w, resp)
}

// RenderError renders an error envelope. The status is derived from err
// unless errorsAsOK is set.
func RenderError(
	w http.ResponseWriter,
	r *http.Request,
	err error,
	started time.Time,
	errorsAsOK bool,
) {
	status := StatusFor(err)
	entry := log.WithError(err).WithField("path", r.URL.Path)
	switch {
	case status >= http.StatusInternalServerError:
		entry.Error("Request failed")
	case status == http.StatusNotFound:
		entry.Debug("Request failed")
	default:
		entry.Warn("Request failed")
	}

	// TODO: drop api.errors_as_ok once the SMS gateway reads HTTP status
	// codes instead of only the success flag.
	if errorsAsOK {
		status = http.StatusOK
	}

	resp, buildErr := response.BuildError[any](err, status, RequestMeta(r, started))
	if buildErr != nil {
		renderFallback(w, buildErr)
		return
	}
	Render(w, resp)
}

// Render writes a built envelope.
func Render[T any](w http.ResponseWriter, resp *response.Response[T]) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(resp.Status())
	if _, err := w.Write(resp.Body()); err != nil {
		log.WithError(err).Warn("Failed to write response body")
	}
}

// renderFallback is used only when an envelope could not be built.
func renderFallback(w http.ResponseWriter, err error) {
	log.WithError(err).Error("Failed to build response envelope")
	http.Error(
		w,
		http.StatusText(http.StatusInternalServerError),
		http.StatusInternalServerError,
	)
}
