package server

import (
	"encoding/json"
	"net/http"
	"strings"
)

// jsonFallback answers requests the mux cannot route (unknown path or a
// method the path does not accept) with the JSON error envelope instead of
// the mux's plain-text body. Routed requests pass through untouched.
func jsonFallback(mux *http.ServeMux) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h, pattern := mux.Handler(r)
		if pattern != "" {
			mux.ServeHTTP(w, r)
			return
		}

		capture := &headerCapture{header: http.Header{}, status: http.StatusNotFound}
		h.ServeHTTP(capture, r)

		if allow := capture.header.Get("Allow"); allow != "" {
			w.Header().Set("Allow", allow)
		}
		msg := strings.ToLower(http.StatusText(capture.status))
		if capture.status == http.StatusMethodNotAllowed {
			msg = "method " + r.Method + " not allowed for " + r.URL.Path
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(capture.status)
		_ = json.NewEncoder(w).Encode(map[string]string{"error": msg})
	})
}

// headerCapture records the status and headers of the mux's fallback
// handler and drops its body.
type headerCapture struct {
	header http.Header
	status int
	wrote  bool
}

func (c *headerCapture) Header() http.Header { return c.header }

func (c *headerCapture) WriteHeader(code int) {
	if !c.wrote {
		c.status = code
		c.wrote = true
	}
}

func (c *headerCapture) Write(b []byte) (int, error) {
	c.WriteHeader(http.StatusOK)
	return len(b), nil
}
