package httpserve

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/jpalmerr/productboard/catalog"
)

// maxRequestBodySize caps JSON request bodies.
const maxRequestBodySize = 64 << 10

// WriteJSON writes v as a JSON response with the given status.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-cache")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// WriteError writes a backend-style error body
// {timestamp, status, error, message}.
func WriteError(w http.ResponseWriter, status int, code, message string) {
	WriteJSON(w, status, catalog.ErrorResponse{
		Timestamp: time.Now().UTC(),
		Status:    status,
		Error:     code,
		Message:   message,
	})
}

// DecodeJSON decodes a size-limited request body into v, rejecting unknown
// fields.
func DecodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBodySize))
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}
