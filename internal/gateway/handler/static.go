package handler

import (
	"errors"
	"io"
	"io/fs"
	"net/http"
	"path"
	"strings"

	"github.com/zlecenia/c20scratch/internal/safeio"
)

// StaticHandler serves the IDE frontend. "/" maps to index.html and
// directories are never listed.
type StaticHandler struct {
	root *safeio.SafeFS
}

func NewStaticHandler(root *safeio.SafeFS) *StaticHandler {
	return &StaticHandler{root: root}
}

func (h *StaticHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	name := strings.TrimPrefix(path.Clean("/"+r.URL.Path), "/")
	if name == "" {
		name = "index.html"
	}
	f, err := h.root.Open(name)
	if err != nil {
		h.fail(w, r, name, err)
		return
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		h.fail(w, r, name, err)
		return
	}
	rs, ok := f.(io.ReadSeeker)
	if info.IsDir() || !ok {
		h.fail(w, r, name, fs.ErrNotExist)
		return
	}
	http.ServeContent(w, r, info.Name(), info.ModTime(), rs)
}

func (h *StaticHandler) fail(w http.ResponseWriter, r *http.Request, name string, err error) {
	switch {
	case errors.Is(err, fs.ErrNotExist), errors.Is(err, fs.ErrInvalid):
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "not found: " + name})
	case errors.Is(err, fs.ErrPermission):
		writeJSON(w, http.StatusForbidden, map[string]string{"error": "forbidden: " + name})
	default:
		writeError(w, r, err)
	}
}

// HandleHealth serves GET /healthz.
func HandleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}
