package server

import (
	"log/slog"
	"net/http"

	"github.com/zlecenia/c20scratch/internal/gateway/handler"
	"github.com/zlecenia/c20scratch/internal/gateway/middleware"
	"github.com/zlecenia/c20scratch/internal/logging"
)

type Handlers struct {
	Scripts  *handler.ScriptHandler
	Assets   *handler.AssetHandler
	Projects *handler.ProjectHandler
	Modules  *handler.ModuleHandler
	Static   *handler.StaticHandler
}

func NewMux(h Handlers, logger *slog.Logger) http.Handler {
	mux := http.NewServeMux()

	// Scripts
	mux.HandleFunc("GET /scripts.json", h.Scripts.HandleCatalog)
	mux.HandleFunc("POST /run-script", h.Scripts.HandleRun)
	mux.HandleFunc("GET /run-script/stream", h.Scripts.HandleStream)

	// Uploads
	mux.HandleFunc("GET /uploads", h.Assets.HandleList)
	mux.HandleFunc("POST /uploads/upload", h.Assets.HandleUpload)
	mux.HandleFunc("GET /uploads/{filename}", h.Assets.HandleGet)

	// Projects
	mux.HandleFunc("GET /projects", h.Projects.HandleList)
	mux.HandleFunc("GET /projects/demos", h.Projects.HandleListDemos)
	mux.HandleFunc("POST /projects/save", h.Projects.HandleSaveXML)
	mux.HandleFunc("POST /projects/save_html", h.Projects.HandleSaveHTML)
	mux.HandleFunc("GET /projects/html/{name}", h.Projects.HandleGetHTML)
	mux.HandleFunc("GET /projects/demo/{name}", h.Projects.HandleGetDemo)
	mux.HandleFunc("GET /projects/{name}", h.Projects.HandleGetXML)

	// Modules
	mux.HandleFunc("GET /modules/list", h.Modules.HandleList)
	mux.HandleFunc("POST /modules/upload", h.Modules.HandleUpload)
	mux.HandleFunc("GET /modules/{id}/spec", h.Modules.HandleSpec)

	mux.HandleFunc("GET /healthz", handler.HandleHealth)

	// Frontend
	mux.Handle("GET /", h.Static)

	return middleware.CORS(logging.Middleware(logger, jsonFallback(mux)))
}
