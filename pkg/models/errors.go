package models

import (
	"errors"
	"fmt"
)

// Error kinds are the stable tags surfaced to API clients in error envelopes.
const (
	KindModelLoad    = "model_load_error"
	KindInference    = "inference_error"
	KindPersistence  = "persistence_error"
	KindValidation   = "validation_error"
	KindNotFound     = "not_found"
	KindUnauthorized = "unauthorized"
)

var (
	ErrModelLoad    = errors.New("model load failed")
	ErrInference    = errors.New("inference failed")
	ErrPersistence  = errors.New("persistence failed")
	ErrValidation   = errors.New("validation failed")
	ErrNotFound     = errors.New("not found")
	ErrUnauthorized = errors.New("unauthorized")
)

// KindedError is implemented by errors that carry a stable classification tag
// and a message that is safe to return to API clients.
type KindedError interface {
	error
	Kind() string
	PublicMessage() string
}

// ModelLoadError is returned when a model identifier is invalid or the
// inference engine could not be initialized.
type ModelLoadError struct {
	Message string
	Cause   error
}

func (e *ModelLoadError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("model load error: %s: %v", e.Message, e.Cause)
	}
	return "model load error: " + e.Message
}

func (e *ModelLoadError) Kind() string          { return KindModelLoad }
func (e *ModelLoadError) PublicMessage() string { return e.Message }
func (e *ModelLoadError) Unwrap() []error       { return []error{ErrModelLoad, e.Cause} }

func NewModelLoadError(message string, cause error) *ModelLoadError {
	return &ModelLoadError{Message: message, Cause: cause}
}

// InferenceError is returned when input text is invalid or the inference
// engine fails while processing it.
type InferenceError struct {
	Message string
	Cause   error
}

func (e *InferenceError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("inference error: %s: %v", e.Message, e.Cause)
	}
	return "inference error: " + e.Message
}

func (e *InferenceError) Kind() string          { return KindInference }
func (e *InferenceError) PublicMessage() string { return e.Message }
func (e *InferenceError) Unwrap() []error       { return []error{ErrInference, e.Cause} }

func NewInferenceError(message string, cause error) *InferenceError {
	return &InferenceError{Message: message, Cause: cause}
}

// PersistenceError is returned when writing a prediction fails. The
// transaction it happened in has been rolled back.
type PersistenceError struct {
	Message string
	Cause   error
}

func (e *PersistenceError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("persistence error: %s: %v", e.Message, e.Cause)
	}
	return "persistence error: " + e.Message
}

func (e *PersistenceError) Kind() string          { return KindPersistence }
func (e *PersistenceError) PublicMessage() string { return e.Message }
func (e *PersistenceError) Unwrap() []error       { return []error{ErrPersistence, e.Cause} }

func NewPersistenceError(message string, cause error) *PersistenceError {
	return &PersistenceError{Message: message, Cause: cause}
}

// ValidationError is returned for malformed requests at the API boundary.
type ValidationError struct {
	Message string
	Cause   error
}

func (e *ValidationError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("validation error: %s: %v", e.Message, e.Cause)
	}
	return "validation error: " + e.Message
}

func (e *ValidationError) Kind() string          { return KindValidation }
func (e *ValidationError) PublicMessage() string { return e.Message }
func (e *ValidationError) Unwrap() []error       { return []error{ErrValidation, e.Cause} }

func NewValidationError(message string, cause error) *ValidationError {
	return &ValidationError{Message: message, Cause: cause}
}

type NotFoundError struct {
	Resource string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found", e.Resource)
}

func (e *NotFoundError) Kind() string          { return KindNotFound }
func (e *NotFoundError) PublicMessage() string { return e.Error() }

func (e *NotFoundError) Unwrap() error {
	return ErrNotFound
}

func NewNotFoundError(resource string) error {
	return &NotFoundError{Resource: resource}
}

// UnauthorizedError is returned when a request lacks a valid bearer token.
type UnauthorizedError struct{}

func (e *UnauthorizedError) Error() string         { return "a valid bearer token is required" }
func (e *UnauthorizedError) Kind() string          { return KindUnauthorized }
func (e *UnauthorizedError) PublicMessage() string { return e.Error() }
func (e *UnauthorizedError) Unwrap() error         { return ErrUnauthorized }
