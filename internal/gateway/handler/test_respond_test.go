package handler

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zlecenia/c20scratch/internal/gateway/projectstore"
	"github.com/zlecenia/c20scratch/internal/gateway/repository/asset"
	"github.com/zlecenia/c20scratch/internal/modules"
	"github.com/zlecenia/c20scratch/internal/scripts"
)

func TestStatusFor(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"bad request", badRequest("script is required"), http.StatusBadRequest},
		{"asset extension", fmt.Errorf("%w: %q", asset.ErrExtensionNotAllowed, "a.exe"), http.StatusBadRequest},
		{"empty project", projectstore.ErrEmptyBody, http.StatusBadRequest},
		{"invalid package", modules.ErrInvalidPackage, http.StatusBadRequest},
		{"missing script", fmt.Errorf("run: %w", scripts.ErrScriptNotFound), http.StatusNotFound},
		{"missing project", projectstore.ErrNotFound, http.StatusNotFound},
		{"missing asset", asset.ErrNotFound, http.StatusNotFound},
		{"missing module", modules.ErrNotFound, http.StatusNotFound},
		{"too large", &http.MaxBytesError{Limit: 1}, http.StatusRequestEntityTooLarge},
		{"unexpected", errors.New("disk on fire"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, statusFor(tt.err))
		})
	}
}

func TestWriteErrorEnvelope(t *testing.T) {
	rec := httptest.NewRecorder()
	writeError(rec, httptest.NewRequest(http.MethodGet, "/x", nil), errors.New("boom"))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"error":"boom"}`, rec.Body.String())
}

func TestDecodeJSONKeepsNumberText(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/run-script", strings.NewReader(`{"args":[1.50, 2, "x"]}`))
	var in struct {
		Args []any `json:"args"`
	}
	require.NoError(t, decodeJSON(httptest.NewRecorder(), req, &in))
	assert.Equal(t, []string{"1.50", "2", "x"}, scripts.CoerceArgs(in.Args))

	req = httptest.NewRequest(http.MethodPost, "/run-script", strings.NewReader(`[`))
	err := decodeJSON(httptest.NewRecorder(), req, &in)
	assert.Equal(t, http.StatusBadRequest, statusFor(err))
}
