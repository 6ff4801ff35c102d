package response

import "net/http"

// BuildSuccess builds a success response. A zero status means 200 OK.
func BuildSuccess[T any](data T, status int, meta *Meta) (*Response[T], error) {
	if status == 0 {
		status = http.StatusOK
	}
	payload, err := Success(data)
	if err != nil {
		return nil, err
	}
	return NewResponse(payload, status, meta)
}

// BuildError builds an error response from err. The status is chosen by the
// caller and is independent of the error kind.
func BuildError[T any](err error, status int, meta *Meta) (*Response[T], error) {
	payload, perr := Failure[T](err)
	if perr != nil {
		return nil, perr
	}
	return NewResponse(payload, status, meta)
}

// Build builds a response from exactly one of data and err.
func Build[T any](data *T, err error, status int, meta *Meta) (*Response[T], error) {
	if status == 0 && err == nil {
		status = http.StatusOK
	}
	payload, perr := NewPayload(data, err)
	if perr != nil {
		return nil, perr
	}
	return NewResponse(payload, status, meta)
}
