// Package response builds the envelopes returned by every API endpoint. An
// envelope carries either data or an error, never both and never neither.
package response

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/streetninja/ninjabrain/internal"
)

var log = internal.GetLogger()

// Response is a built envelope: a payload, the HTTP status it is sent with and
// its metadata. Responses are immutable; the JSON body is encoded once at
// build time.
type Response[T any] struct {
	payload Payload[T]
	status  int
	meta    *Meta
	body    []byte
}

type responseJSON[T any] struct {
	payloadJSON[T]
	Meta *Meta `json:"meta"`
}

// NewResponse wraps a built payload. Failures are returned as
// *ResponseBuilderError.
func NewResponse[T any](payload Payload[T], status int, meta *Meta) (resp *Response[T], err error) {
	defer func() {
		if r := recover(); r != nil {
			resp = nil
			err = responseError(
				"unexpected panic while building response",
				fmt.Errorf("%v", r),
			)
		}
	}()

	if !payload.valid() {
		return nil, responseError(
			"payload was not built",
			&PayloadBuilderError{Message: "payload holds neither data nor error"},
		)
	}

	if http.StatusText(status) == "" {
		return nil, responseError(fmt.Sprintf("invalid HTTP status %d", status), nil)
	}

	normalized, err := normalizeMeta(meta)
	if err != nil {
		return nil, responseError("failed to apply default metadata", err)
	}

	body, err := json.Marshal(responseJSON[T]{payloadJSON: payload.wire(), Meta: normalized})
	if err != nil {
		return nil, responseError("failed to encode response body", err)
	}

	log.Debugf("Built response with status %d (success: %t)", status, payload.Success())

	return &Response[T]{
		payload: payload,
		status:  status,
		meta:    normalized,
		body:    body,
	}, nil
}

func (r *Response[T]) Payload() Payload[T] {
	return r.payload
}

func (r *Response[T]) Status() int {
	return r.status
}

func (r *Response[T]) Meta() *Meta {
	return r.meta
}

// Body returns the encoded JSON body.
func (r *Response[T]) Body() []byte {
	return r.body
}

func (r *Response[T]) MarshalJSON() ([]byte, error) {
	return r.body, nil
}

func responseError(msg string, cause error) *ResponseBuilderError {
	if cause != nil {
		log.WithError(cause).Error("failed to build API response: ", msg)
	} else {
		log.Error("failed to build API response: ", msg)
	}
	return &ResponseBuilderError{Message: msg, Cause: cause}
}
