package handler

import (
	"bytes"
	"errors"
	"io"
	"mime"
	"net/http"
	"path"
	"time"

	"github.com/zlecenia/c20scratch/internal/gateway/repository/asset"
)

type AssetHandler struct {
	store asset.Store
}

func NewAssetHandler(store asset.Store) *AssetHandler {
	return &AssetHandler{store: store}
}

// HandleList serves GET /uploads.
func (h *AssetHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	groups, err := asset.Grouped(r.Context(), h.store)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, groups)
}

// HandleUpload serves POST /uploads/upload (multipart field "file").
func (h *AssetHandler) HandleUpload(w http.ResponseWriter, r *http.Request) {
	filename, content, err := readUpload(w, r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	stored, err := asset.Upload(r.Context(), h.store, filename, content)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "filename": stored})
}

// HandleGet serves GET /uploads/{filename} with the raw stored bytes.
func (h *AssetHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("filename")
	data, err := h.store.Get(r.Context(), name)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if ct := mime.TypeByExtension(path.Ext(name)); ct != "" {
		w.Header().Set("Content-Type", ct)
	}
	http.ServeContent(w, r, name, time.Time{}, bytes.NewReader(data))
}

// readUpload returns the filename and content of multipart field "file".
// A missing field yields an empty filename, which callers reject.
func readUpload(w http.ResponseWriter, r *http.Request) (string, []byte, error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	file, header, err := r.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return "", nil, err
		}
		if errors.Is(err, http.ErrMissingFile) {
			return "", nil, badRequest("no file part")
		}
		return "", nil, badRequest("invalid multipart body: " + err.Error())
	}
	defer file.Close()
	content, err := io.ReadAll(file)
	if err != nil {
		return "", nil, err
	}
	return header.Filename, content, nil
}
