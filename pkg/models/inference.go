package models

import "context"

// EngineRequest is the input to a single inference call.
type EngineRequest struct {
	Text     string
	Language string
}

// EngineResult is the raw output of the inference engine.
type EngineResult struct {
	Entities []EntitySpan
	Version  string
}

// InferenceHandle runs a loaded model. Implementations must be safe for
// concurrent use.
type InferenceHandle interface {
	Model() ModelIdentifier
	Version() string
	Run(ctx context.Context, req EngineRequest) (*EngineResult, error)
}

// InferenceLoader constructs handles. Loading may be expensive; callers cache
// the result.
type InferenceLoader interface {
	Load(ctx context.Context, id ModelIdentifier) (InferenceHandle, error)
}

// ModelProvider returns a ready handle for a model identifier.
type ModelProvider interface {
	Get(ctx context.Context, id ModelIdentifier) (InferenceHandle, error)
}
