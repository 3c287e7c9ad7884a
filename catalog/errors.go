package catalog

import (
	"errors"
	"fmt"
	"net/http"
	"time"
)

// Error codes carried in the "error" field of backend error bodies.
const (
	CodeBadRequest = "BAD_REQUEST"
	CodeValidation = "VALIDATION_ERROR"
	CodeNotFound   = "NOT_FOUND"
	CodeConflict   = "CONFLICT"
	CodeInternal   = "INTERNAL_ERROR"
	CodeNetwork    = "NETWORK_ERROR"
)

// ErrorKind classifies a failed backend call.
type ErrorKind int

const (
	KindUnknown ErrorKind = iota
	KindValidation
	KindNotFound
	KindConflict
	KindServer
	KindNetwork
)

func (k ErrorKind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindNotFound:
		return "not_found"
	case KindConflict:
		return "conflict"
	case KindServer:
		return "server"
	case KindNetwork:
		return "network"
	default:
		return "unknown"
	}
}

// Sentinels matched by errors.Is against an *APIError of the same kind.
var (
	ErrValidation = errors.New("validation failed")
	ErrNotFound   = errors.New("not found")
	ErrConflict   = errors.New("conflict")
	ErrServer     = errors.New("server error")
	ErrNetwork    = errors.New("network error")
)

// ErrorResponse is the JSON error body produced by the backend.
type ErrorResponse struct {
	Timestamp time.Time `json:"timestamp"`
	Status    int       `json:"status"`
	Error     string    `json:"error"`
	Message   string    `json:"message"`
}

// APIError is returned by the REST client for every failed call.
// StatusCode is 0 for transport failures.
type APIError struct {
	Timestamp  time.Time
	StatusCode int
	ErrorCode  string
	Message    string
	Kind       ErrorKind
	Err        error
}

func (e *APIError) Error() string {
	msg := e.Message
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	}
	if e.StatusCode == 0 {
		return fmt.Sprintf("%s: %s", e.ErrorCode, msg)
	}
	return fmt.Sprintf("HTTP %d %s: %s", e.StatusCode, e.ErrorCode, msg)
}

func (e *APIError) Unwrap() error {
	return e.Err
}

// Is reports whether target is the sentinel for e's kind.
func (e *APIError) Is(target error) bool {
	switch e.Kind {
	case KindValidation:
		return target == ErrValidation
	case KindNotFound:
		return target == ErrNotFound
	case KindConflict:
		return target == ErrConflict
	case KindServer:
		return target == ErrServer
	case KindNetwork:
		return target == ErrNetwork
	}
	return false
}

// KindForStatus maps an HTTP status code to an ErrorKind.
func KindForStatus(status int) ErrorKind {
	switch {
	case status == http.StatusBadRequest || status == http.StatusUnprocessableEntity:
		return KindValidation
	case status == http.StatusNotFound:
		return KindNotFound
	case status == http.StatusConflict:
		return KindConflict
	case status >= http.StatusInternalServerError:
		return KindServer
	default:
		return KindUnknown
	}
}

// NewAPIError builds an APIError from a decoded error body and the HTTP
// status it arrived with. The response status wins over the body's.
func NewAPIError(status int, body ErrorResponse) *APIError {
	if status == 0 {
		status = body.Status
	}
	code := body.Error
	if code == "" {
		code = http.StatusText(status)
	}
	return &APIError{
		Timestamp:  body.Timestamp,
		StatusCode: status,
		ErrorCode:  code,
		Message:    body.Message,
		Kind:       KindForStatus(status),
	}
}

// UserMessage returns the message to surface to a user for err. The backend
// message is used when err carries one, otherwise fallback.
func UserMessage(err error, fallback string) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	return fallback
}
