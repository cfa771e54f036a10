package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/dpup/prefab/logging"
)

// maxRequestBodySize caps JSON request bodies at 1 MB
const maxRequestBodySize = 1 << 20

// Error codes returned in error responses
const (
	codeInvalidRequest = "invalid_request"
	codeNotFound       = "not_found"
	codeUnavailable    = "unavailable"
	codeUpstream       = "upstream_error"
	codeInternal       = "internal_error"
)

// ErrorResponse is the body of every non-2xx response
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail describes what went wrong
type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// requestError is a client mistake reported with a 400
type requestError struct {
	msg string
}

func (e *requestError) Error() string {
	return e.msg
}

func badRequest(format string, args ...interface{}) error {
	return &requestError{msg: fmt.Sprintf(format, args...)}
}

func writeJSON(w http.ResponseWriter, r *http.Request, status int, data interface{}) {
	body, err := json.Marshal(data)
	if err != nil {
		logging.Errorw(r.Context(), "Failed to marshal response", "path", r.URL.Path, "error", err)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":{"code":"internal_error","message":"failed to marshal response"}}`))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(body)
}

func writeError(w http.ResponseWriter, r *http.Request, status int, code, message string) {
	writeJSON(w, r, status, ErrorResponse{Error: ErrorDetail{Code: code, Message: message}})
}

// writeRequestError reports a 400 for request errors and a 500 otherwise
func writeRequestError(w http.ResponseWriter, r *http.Request, err error) {
	var reqErr *requestError
	if errors.As(err, &reqErr) {
		writeError(w, r, http.StatusBadRequest, codeInvalidRequest, reqErr.msg)
		return
	}
	logging.Errorw(r.Context(), "Unexpected request error", "path", r.URL.Path, "error", err)
	writeError(w, r, http.StatusInternalServerError, codeInternal, "an unexpected error occurred")
}

// decodeJSON reads a single JSON value into dst, rejecting unknown fields and
// bodies over maxRequestBodySize
func decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return badRequest("request body is empty")
		}
		return badRequest("invalid JSON body: %v", err)
	}
	if dec.More() {
		return badRequest("request body must contain a single JSON object")
	}
	return nil
}
