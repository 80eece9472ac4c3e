package server

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zlecenia/c20scratch/internal/gateway/handler"
	"github.com/zlecenia/c20scratch/internal/gateway/projectstore"
	"github.com/zlecenia/c20scratch/internal/gateway/repository/asset"
	"github.com/zlecenia/c20scratch/internal/modules"
	"github.com/zlecenia/c20scratch/internal/safeio"
	"github.com/zlecenia/c20scratch/internal/scripts"
)

type testEnv struct {
	root string
	mux  http.Handler
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	root := t.TempDir()
	dir := func(name string) *safeio.SafeFS {
		fs, err := safeio.EnsureSafeFS(filepath.Join(root, name))
		require.NoError(t, err)
		return fs
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	scriptsDir := dir("scripts")
	projectsDir := dir("projects")
	mux := NewMux(Handlers{
		Scripts: handler.NewScriptHandler(
			scripts.NewCatalog(scriptsDir, logger),
			scripts.NewExecutor(scriptsDir, scripts.ExecutorConfig{}, logger),
		),
		Assets:   handler.NewAssetHandler(asset.NewFileStore(dir("uploads"))),
		Projects: handler.NewProjectHandler(projectstore.NewFileStore(projectsDir), projectstore.NewDemoStore(filepath.Join(root, "projects", "demos"))),
		Modules:  handler.NewModuleHandler(modules.NewRegistry(dir("packages"), logger)),
		Static:   handler.NewStaticHandler(dir("ide")),
	}, logger)
	return &testEnv{root: root, mux: mux}
}

func (e *testEnv) write(t *testing.T, rel, content string) {
	t.Helper()
	p := filepath.Join(e.root, rel)
	require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
	require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
}

func (e *testEnv) do(t *testing.T, req *http.Request) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	e.mux.ServeHTTP(rec, req)
	return rec
}

func (e *testEnv) postJSON(t *testing.T, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	raw, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	return e.do(t, req)
}

func (e *testEnv) upload(t *testing.T, path, filename, content string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = fw.Write([]byte(content))
	require.NoError(t, err)
	require.NoError(t, mw.Close())
	req := httptest.NewRequest(http.MethodPost, path, &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return e.do(t, req)
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func TestProjectSaveAndLoad(t *testing.T) {
	env := newTestEnv(t)

	rec := env.postJSON(t, "/projects/save", map[string]string{"name": "my proj!", "xml": "<xml/>"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	saved := decode[map[string]any](t, rec)
	assert.Equal(t, "my_proj_", saved["name"])

	rec = env.do(t, httptest.NewRequest(http.MethodGet, "/projects/my_proj_", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, map[string]string{"name": "my_proj_", "xml": "<xml/>"}, decode[map[string]string](t, rec))

	rec = env.do(t, httptest.NewRequest(http.MethodGet, "/projects/my%20proj%21", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "my_proj_", decode[map[string]string](t, rec)["name"], "get echoes the stored name")

	rec = env.postJSON(t, "/projects/save_html", map[string]string{"name": "page", "html": "<p>hi</p>"})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = env.do(t, httptest.NewRequest(http.MethodGet, "/projects", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	listing := decode[projectstore.Listing](t, rec)
	assert.Equal(t, []string{"my_proj_"}, listing.XML)
	assert.Equal(t, []string{"page"}, listing.HTML)

	rec = env.do(t, httptest.NewRequest(http.MethodGet, "/projects/html/page", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "<p>hi</p>", decode[map[string]string](t, rec)["html"])
}

func TestProjectErrors(t *testing.T) {
	env := newTestEnv(t)

	rec := env.postJSON(t, "/projects/save", map[string]string{"name": "empty", "xml": ""})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.NotEmpty(t, decode[map[string]string](t, rec)["error"])

	rec = env.do(t, httptest.NewRequest(http.MethodGet, "/projects/nope", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.NotEmpty(t, decode[map[string]string](t, rec)["error"])

	req := httptest.NewRequest(http.MethodPost, "/projects/save", strings.NewReader("{not json"))
	rec = env.do(t, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestProjectDemos(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, httptest.NewRequest(http.MethodGet, "/projects/demos", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	empty := decode[projectstore.Listing](t, rec)
	assert.Empty(t, empty.XML)

	env.write(t, "projects/demos/hello.xml", "<xml>demo</xml>")
	rec = env.do(t, httptest.NewRequest(http.MethodGet, "/projects/demo/hello", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "<xml>demo</xml>", decode[map[string]string](t, rec)["xml"])
}

func TestUploads(t *testing.T) {
	env := newTestEnv(t)

	rec := env.upload(t, "/uploads/upload", "My Block.XML", "<block/>")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "My_Block.xml", decode[map[string]any](t, rec)["filename"])

	rec = env.upload(t, "/uploads/upload", "evil.exe", "MZ")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	req := httptest.NewRequest(http.MethodPost, "/uploads/upload", strings.NewReader(""))
	req.Header.Set("Content-Type", "multipart/form-data; boundary=x")
	assert.Equal(t, http.StatusBadRequest, env.do(t, req).Code)

	rec = env.do(t, httptest.NewRequest(http.MethodGet, "/uploads", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, map[string][]string{"xml": {"My_Block.xml"}, "svg": {}}, decode[map[string][]string](t, rec))

	rec = env.do(t, httptest.NewRequest(http.MethodGet, "/uploads/My_Block.xml", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "<block/>", rec.Body.String())

	rec = env.do(t, httptest.NewRequest(http.MethodGet, "/uploads/missing.svg", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestModules(t *testing.T) {
	env := newTestEnv(t)

	rec := env.upload(t, "/modules/upload", "weather_api.xml", `<package description="Forecast blocks"/>`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = env.upload(t, "/modules/upload", "weather.json", "{}")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(t, httptest.NewRequest(http.MethodGet, "/modules/list", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	list := decode[struct {
		Modules []modules.Descriptor `json:"modules"`
	}](t, rec)
	require.NotEmpty(t, list.Modules)
	last := list.Modules[len(list.Modules)-1]
	assert.Equal(t, modules.Descriptor{ID: "weather_api", Name: "Weather Api", Type: modules.TypeCustom, Description: "Forecast blocks"}, last)

	rec = env.do(t, httptest.NewRequest(http.MethodGet, "/modules/openai/spec", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, decode[modules.Spec](t, rec).Blocks)

	rec = env.do(t, httptest.NewRequest(http.MethodGet, "/modules/weather_api/spec", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	spec := decode[modules.Spec](t, rec)
	assert.Equal(t, modules.TypeCustom, spec.Type)
	assert.Contains(t, spec.Content, "Forecast blocks")

	rec = env.do(t, httptest.NewRequest(http.MethodGet, "/modules/unknown/spec", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestScriptsCatalogAndRun(t *testing.T) {
	if _, err := exec.LookPath("bash"); err != nil {
		t.Skip("bash not available")
	}
	env := newTestEnv(t)
	env.write(t, "scripts/echo.sh", "# param: first\n# param: second\necho \"$1|$2\"\necho oops >&2\nexit 3\n")

	rec := env.do(t, httptest.NewRequest(http.MethodGet, "/scripts.json", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	catalog := decode[[]scripts.Descriptor](t, rec)
	require.Len(t, catalog, 1)
	assert.Equal(t, []string{"first", "second"}, catalog[0].Params)

	rec = env.postJSON(t, "/run-script", map[string]any{"script": "echo.sh", "args": []any{1, "two"}})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	res := decode[scripts.Result](t, rec)
	assert.Equal(t, "1|two\n", res.Stdout)
	assert.Equal(t, "oops\n", res.Stderr)
	assert.Equal(t, 3, res.Code)

	rec = env.postJSON(t, "/run-script", map[string]any{"script": "missing.sh"})
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.NotEmpty(t, decode[map[string]string](t, rec)["error"])

	rec = env.postJSON(t, "/run-script", map[string]any{"args": []any{}})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestStaticFiles(t *testing.T) {
	env := newTestEnv(t)
	env.write(t, "ide/index.html", "<html>ide</html>")
	env.write(t, "ide/js/app.js", "console.log(1)")

	rec := env.do(t, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "<html>ide</html>", rec.Body.String())

	rec = env.do(t, httptest.NewRequest(http.MethodGet, "/js/app.js", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "console.log(1)", rec.Body.String())

	rec = env.do(t, httptest.NewRequest(http.MethodGet, "/js", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = env.do(t, httptest.NewRequest(http.MethodGet, "/nothing.css", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRequestIDAndHealth(t *testing.T) {
	env := newTestEnv(t)
	rec := env.do(t, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, map[string]bool{"ok": true}, decode[map[string]bool](t, rec))
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
}

func TestWrongMethodGetsJSONError(t *testing.T) {
	env := newTestEnv(t)

	rec := env.postJSON(t, "/projects", map[string]string{})
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Allow"), http.MethodGet)
	assert.Contains(t, decode[map[string]string](t, rec)["error"], "not allowed")

	rec = env.do(t, httptest.NewRequest(http.MethodGet, "/projects/save", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code, "GET /projects/save resolves to a missing project")
	assert.NotEmpty(t, decode[map[string]string](t, rec)["error"])

	rec = env.do(t, httptest.NewRequest(http.MethodDelete, "/uploads/a.svg", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	assert.NotEmpty(t, decode[map[string]string](t, rec)["error"])
}
