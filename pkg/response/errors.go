package response

import (
	"errors"
	"fmt"
)

const (
	KindPayloadBuilder  = "payload_builder_error"
	KindResponseBuilder = "response_builder_error"
	KindInternal        = "internal_error"

	internalErrorMessage = "an unexpected error occurred"
)

var (
	ErrPayloadBuilder  = errors.New("payload builder error")
	ErrResponseBuilder = errors.New("response builder error")
)

// classified is implemented by errors that carry a stable kind and a message
// that is safe to show to API clients.
type classified interface {
	Kind() string
	PublicMessage() string
}

// PayloadBuilderError reports a payload built with both or neither of data
// and error. It indicates a defect in the calling code.
type PayloadBuilderError struct {
	Message string
	Cause   error
}

func (e *PayloadBuilderError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("payload builder error: %s: %v", e.Message, e.Cause)
	}
	return "payload builder error: " + e.Message
}

func (e *PayloadBuilderError) Kind() string          { return KindPayloadBuilder }
func (e *PayloadBuilderError) PublicMessage() string { return e.Message }
func (e *PayloadBuilderError) Unwrap() []error       { return []error{ErrPayloadBuilder, e.Cause} }

// ResponseBuilderError reports an unexpected failure while assembling a
// response around an already built payload.
type ResponseBuilderError struct {
	Message string
	Cause   error
}

func (e *ResponseBuilderError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("response builder error: %s: %v", e.Message, e.Cause)
	}
	return "response builder error: " + e.Message
}

func (e *ResponseBuilderError) Kind() string          { return KindResponseBuilder }
func (e *ResponseBuilderError) PublicMessage() string { return e.Message }
func (e *ResponseBuilderError) Unwrap() []error       { return []error{ErrResponseBuilder, e.Cause} }

// ErrorInfo is the error half of a payload.
type ErrorInfo struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

// NewErrorInfo classifies err. Only the public message of a classified error
// is exposed; anything else is reported as an internal error so causes,
// stack details and connection strings never reach the client.
func NewErrorInfo(err error) ErrorInfo {
	var c classified
	if errors.As(err, &c) {
		return ErrorInfo{Kind: c.Kind(), Message: c.PublicMessage()}
	}
	return ErrorInfo{Kind: KindInternal, Message: internalErrorMessage}
}
