// Package handler implements the IDE backend's HTTP endpoints. Every error
// response is a JSON object {"error": "..."}.
package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/zlecenia/c20scratch/internal/gateway/projectstore"
	"github.com/zlecenia/c20scratch/internal/gateway/repository/asset"
	"github.com/zlecenia/c20scratch/internal/logging"
	"github.com/zlecenia/c20scratch/internal/modules"
	"github.com/zlecenia/c20scratch/internal/scripts"
)

// maxBodyBytes caps JSON bodies and multipart uploads.
const maxBodyBytes = 32 << 20

// badRequestError marks request validation failures raised by handlers.
type badRequestError struct{ msg string }

func (e *badRequestError) Error() string { return e.msg }

func badRequest(msg string) error { return &badRequestError{msg: msg} }

var validationErrors = []error{
	asset.ErrNoFile,
	asset.ErrExtensionNotAllowed,
	projectstore.ErrEmptyBody,
	projectstore.ErrInvalidKind,
	modules.ErrNoFile,
	modules.ErrInvalidPackage,
}

var notFoundErrors = []error{
	asset.ErrNotFound,
	projectstore.ErrNotFound,
	modules.ErrNotFound,
	scripts.ErrScriptNotFound,
}

func statusFor(err error) int {
	var br *badRequestError
	if errors.As(err, &br) {
		return http.StatusBadRequest
	}
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return http.StatusRequestEntityTooLarge
	}
	for _, target := range validationErrors {
		if errors.Is(err, target) {
			return http.StatusBadRequest
		}
	}
	for _, target := range notFoundErrors {
		if errors.Is(err, target) {
			return http.StatusNotFound
		}
	}
	return http.StatusInternalServerError
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		logging.FromContext(r.Context()).Error("request failed", "path", r.URL.Path, "error", err)
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

// decodeJSON reads a JSON object body into dst. Numbers decode as
// json.Number so they keep their literal text.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.UseNumber()
	if err := dec.Decode(dst); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return err
		}
		return badRequest("invalid json body")
	}
	return nil
}
