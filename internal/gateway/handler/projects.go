package handler

import (
	"net/http"

	"github.com/zlecenia/c20scratch/internal/gateway/projectstore"
	"github.com/zlecenia/c20scratch/internal/sanitize"
)

type ProjectHandler struct {
	store projectstore.Store
	demos projectstore.Reader
}

func NewProjectHandler(store projectstore.Store, demos projectstore.Reader) *ProjectHandler {
	return &ProjectHandler{store: store, demos: demos}
}

// HandleList serves GET /projects.
func (h *ProjectHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, h.store)
}

// HandleListDemos serves GET /projects/demos.
func (h *ProjectHandler) HandleListDemos(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, h.demos)
}

// HandleSaveXML serves POST /projects/save {name, xml}.
func (h *ProjectHandler) HandleSaveXML(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Name string `json:"name"`
		XML  string `json:"xml"`
	}
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, r, err)
		return
	}
	h.save(w, r, projectstore.KindXML, in.Name, in.XML)
}

// HandleSaveHTML serves POST /projects/save_html {name, html}.
func (h *ProjectHandler) HandleSaveHTML(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Name string `json:"name"`
		HTML string `json:"html"`
	}
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, r, err)
		return
	}
	h.save(w, r, projectstore.KindHTML, in.Name, in.HTML)
}

// HandleGetXML serves GET /projects/{name}.
func (h *ProjectHandler) HandleGetXML(w http.ResponseWriter, r *http.Request) {
	h.get(w, r, h.store, projectstore.KindXML)
}

// HandleGetHTML serves GET /projects/html/{name}.
func (h *ProjectHandler) HandleGetHTML(w http.ResponseWriter, r *http.Request) {
	h.get(w, r, h.store, projectstore.KindHTML)
}

// HandleGetDemo serves GET /projects/demo/{name}.
func (h *ProjectHandler) HandleGetDemo(w http.ResponseWriter, r *http.Request) {
	h.get(w, r, h.demos, projectstore.KindXML)
}

func (h *ProjectHandler) list(w http.ResponseWriter, r *http.Request, src projectstore.Reader) {
	listing, err := src.List(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, listing)
}

func (h *ProjectHandler) save(w http.ResponseWriter, r *http.Request, kind projectstore.Kind, name, body string) {
	stored, err := h.store.Save(r.Context(), kind, name, body)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "name": stored})
}

func (h *ProjectHandler) get(w http.ResponseWriter, r *http.Request, src projectstore.Reader, kind projectstore.Kind) {
	name := sanitize.Name(r.PathValue("name"))
	body, err := src.Get(r.Context(), kind, name)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"name": name, string(kind): body})
}
