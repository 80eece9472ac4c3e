package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/zlecenia/c20scratch/internal/gateway/config"
	"github.com/zlecenia/c20scratch/internal/gateway/handler"
	"github.com/zlecenia/c20scratch/internal/gateway/server"
	"github.com/zlecenia/c20scratch/internal/logging"
	"github.com/zlecenia/c20scratch/internal/modules"
	"github.com/zlecenia/c20scratch/internal/safeio"
	"github.com/zlecenia/c20scratch/internal/scripts"
)

type App struct {
	server  *server.Server
	closers []func() error
}

func New(ctx context.Context) (*App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	logger := logging.New(cfg.LogLevel, cfg.LogFormat, os.Stderr).With("env", cfg.Env)
	slog.SetDefault(logger)
	return build(ctx, cfg, logger)
}

func build(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	dirs, err := ensureDirs(cfg.Dirs)
	if err != nil {
		return nil, err
	}

	a := &App{}
	projects, closeProjects, err := initProjectStore(ctx, cfg, dirs.projects, logger)
	if err != nil {
		return nil, err
	}
	if closeProjects != nil {
		a.closers = append(a.closers, closeProjects)
	}
	assets, err := initAssetStore(cfg, dirs.uploads, logger)
	if err != nil {
		return nil, errors.Join(err, a.close())
	}

	catalog := scripts.NewCatalog(dirs.scripts, logger)
	executor := scripts.NewExecutor(dirs.scripts, scripts.ExecutorConfig{
		Interpreters: map[scripts.Kind]string{
			scripts.KindPython: cfg.Scripts.PythonBin,
			scripts.KindShell:  cfg.Scripts.ShellBin,
		},
		Timeout: cfg.Scripts.Timeout,
	}, logger)

	mux := server.NewMux(server.Handlers{
		Scripts:  handler.NewScriptHandler(catalog, executor),
		Assets:   handler.NewAssetHandler(assets),
		Projects: handler.NewProjectHandler(projects, newDemoStore(cfg.Dirs.Demos)),
		Modules:  handler.NewModuleHandler(modules.NewRegistry(dirs.packages, logger)),
		Static:   handler.NewStaticHandler(dirs.static),
	}, logger)
	a.server = server.New(cfg.Port, mux, logger)

	logger.Info("ide backend ready",
		"scripts", dirs.scripts.Root(),
		"static", dirs.static.Root(),
		"uploads", dirs.uploads.Root(),
		"projects", dirs.projects.Root(),
		"packages", dirs.packages.Root(),
	)
	return a, nil
}

type workDirs struct {
	scripts  *safeio.SafeFS
	static   *safeio.SafeFS
	uploads  *safeio.SafeFS
	projects *safeio.SafeFS
	packages *safeio.SafeFS
}

// ensureDirs creates every writable working directory. The demos
// directory is optional and is only read when present.
func ensureDirs(cfg config.DirsConfig) (workDirs, error) {
	var d workDirs
	for _, item := range []struct {
		dst  **safeio.SafeFS
		path string
	}{
		{&d.scripts, cfg.Scripts},
		{&d.static, cfg.Static},
		{&d.uploads, cfg.Uploads},
		{&d.projects, cfg.Projects},
		{&d.packages, cfg.Packages},
	} {
		fs, err := safeio.EnsureSafeFS(item.path)
		if err != nil {
			return workDirs{}, fmt.Errorf("prepare %s: %w", item.path, err)
		}
		*item.dst = fs
	}
	return d, nil
}

func (a *App) Start() error {
	return a.server.Start()
}

func (a *App) Shutdown(ctx context.Context) error {
	return errors.Join(a.server.Shutdown(ctx), a.close())
}

func (a *App) close() error {
	var errs []error
	for _, c := range a.closers {
		errs = append(errs, c())
	}
	a.closers = nil
	return errors.Join(errs...)
}
