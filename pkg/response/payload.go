package response

import (
	"encoding/json"
	"reflect"
)

// Payload is either a success carrying data or a failure carrying an
// ErrorInfo. The zero value is neither and is rejected by NewResponse.
type Payload[T any] struct {
	data *T
	err  *ErrorInfo
}

// NewPayload builds a payload from exactly one of data and err. Supplying
// both or neither returns a *PayloadBuilderError. A data pointer to a nil
// pointer, map, slice or interface counts as absent, and so does an error
// interface holding a nil pointer.
func NewPayload[T any](data *T, err error) (Payload[T], error) {
	hasData := present(data)
	hasErr := err != nil && present(&err)

	switch {
	case hasData && hasErr:
		return Payload[T]{}, payloadError("either data or error must be absent, got both")
	case !hasData && !hasErr:
		return Payload[T]{}, payloadError("either data or error must be present, got neither")
	case hasData:
		log.Debugf("Built success payload from data type %T", *data)
		return Payload[T]{data: data}, nil
	default:
		info := NewErrorInfo(err)
		log.Debugf("Built error payload from error type %T (kind %s)", err, info.Kind)
		return Payload[T]{err: &info}, nil
	}
}

// Success builds a success payload.
func Success[T any](data T) (Payload[T], error) {
	return NewPayload(&data, nil)
}

// Failure builds an error payload.
func Failure[T any](err error) (Payload[T], error) {
	return NewPayload[T](nil, err)
}

// Success reports whether the payload carries data.
func (p Payload[T]) Success() bool {
	return p.data != nil
}

// Data returns the payload data and whether it is present.
func (p Payload[T]) Data() (T, bool) {
	if p.data == nil {
		var zero T
		return zero, false
	}
	return *p.data, true
}

// Err returns the error info, or nil for a success payload.
func (p Payload[T]) Err() *ErrorInfo {
	return p.err
}

func (p Payload[T]) valid() bool {
	return (p.data != nil) != (p.err != nil)
}

type payloadJSON[T any] struct {
	Success bool       `json:"success"`
	Data    *T         `json:"data"`
	Error   *ErrorInfo `json:"error"`
}

func (p Payload[T]) MarshalJSON() ([]byte, error) {
	return json.Marshal(p.wire())
}

func (p Payload[T]) wire() payloadJSON[T] {
	return payloadJSON[T]{Success: p.Success(), Data: p.data, Error: p.err}
}

func payloadError(msg string) *PayloadBuilderError {
	log.Error("failed to build API payload: ", msg)
	return &PayloadBuilderError{Message: msg}
}

func present[T any](data *T) bool {
	if data == nil {
		return false
	}
	v := reflect.ValueOf(data).Elem()
	if v.Kind() == reflect.Interface && !v.IsNil() {
		v = v.Elem()
	}
	switch v.Kind() {
	case reflect.Ptr, reflect.Map, reflect.Slice, reflect.Interface, reflect.Chan, reflect.Func:
		return !v.IsNil()
	}
	return true
}
