package handler

import (
	"net/http"

	"github.com/zlecenia/c20scratch/internal/modules"
)

type ModuleHandler struct {
	registry *modules.Registry
}

func NewModuleHandler(registry *modules.Registry) *ModuleHandler {
	return &ModuleHandler{registry: registry}
}

// HandleList serves GET /modules/list.
func (h *ModuleHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	list, err := h.registry.List(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"modules": list})
}

// HandleUpload serves POST /modules/upload (multipart field "file").
func (h *ModuleHandler) HandleUpload(w http.ResponseWriter, r *http.Request) {
	filename, content, err := readUpload(w, r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	desc, err := h.registry.Upload(r.Context(), filename, content)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "module": desc})
}

// HandleSpec serves GET /modules/{id}/spec.
func (h *ModuleHandler) HandleSpec(w http.ResponseWriter, r *http.Request) {
	spec, err := h.registry.Spec(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, spec)
}
