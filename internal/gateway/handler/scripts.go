package handler

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"github.com/zlecenia/c20scratch/internal/logging"
	"github.com/zlecenia/c20scratch/internal/scripts"
)

type ScriptHandler struct {
	catalog  *scripts.Catalog
	executor *scripts.Executor
	upgrader websocket.Upgrader
}

func NewScriptHandler(catalog *scripts.Catalog, executor *scripts.Executor) *ScriptHandler {
	return &ScriptHandler{
		catalog:  catalog,
		executor: executor,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

// HandleCatalog serves GET /scripts.json.
func (h *ScriptHandler) HandleCatalog(w http.ResponseWriter, r *http.Request) {
	list, err := h.catalog.Scan(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

// HandleRun serves POST /run-script.
func (h *ScriptHandler) HandleRun(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Script string `json:"script"`
		Func   string `json:"func"`
		Args   []any  `json:"args"`
	}
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, r, err)
		return
	}
	if strings.TrimSpace(in.Script) == "" {
		writeError(w, r, badRequest("script is required"))
		return
	}
	res, err := h.executor.Run(r.Context(), scripts.Request{
		Script: in.Script,
		Func:   in.Func,
		Args:   scripts.CoerceArgs(in.Args),
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// HandleStream serves GET /run-script/stream?script=...&func=...&arg=...
// over a websocket. Each output line is sent as a JSON event, followed by
// a final {"done": true, "code": N}. Failures are sent as {"error": "..."}.
func (h *ScriptHandler) HandleStream(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	req := scripts.Request{Script: q.Get("script"), Func: q.Get("func"), Args: q["arg"]}
	if strings.TrimSpace(req.Script) == "" {
		writeError(w, r, badRequest("script is required"))
		return
	}

	logger := logging.FromContext(r.Context())
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Warn("websocket upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()
	// The client never sends data; a read error means it went away.
	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				cancel()
				return
			}
		}
	}()

	err = h.executor.Stream(ctx, req, func(ev scripts.Event) error {
		_ = conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
		return conn.WriteJSON(ev)
	})
	if err != nil {
		logger.Warn("script stream failed", "script", req.Script, "error", err)
		_ = conn.WriteJSON(map[string]string{"error": err.Error()})
	}
	_ = conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(time.Second))
}
