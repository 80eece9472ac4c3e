package scripts

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os/exec"
	"strings"
	"time"

	"github.com/zlecenia/c20scratch/internal/safeio"
)

// waitDelay bounds how long Wait keeps reading output after the child has
// been killed.
const waitDelay = 2 * time.Second

// ErrScriptNotFound is returned when the requested script is not a file in
// the scripts directory.
var ErrScriptNotFound = errors.New("script not found")

// Request identifies a script run. Func is accepted for compatibility with
// the catalog but the whole file is always executed.
type Request struct {
	Script string
	Func   string
	Args   []string
}

// Result is the verbatim outcome of a child process.
type Result struct {
	Stdout string `json:"stdout"`
	Stderr string `json:"stderr"`
	Code   int    `json:"code"`
}

// ExecutorConfig selects interpreters and an optional run timeout.
// A zero Timeout means runs are bounded only by the caller's context.
type ExecutorConfig struct {
	Interpreters map[Kind]string
	Timeout      time.Duration
}

// Executor runs scripts from the scripts directory. It holds no state
// between runs; every call spawns its own child process.
type Executor struct {
	root         *safeio.SafeFS
	interpreters map[Kind]string
	timeout      time.Duration
	logger       *slog.Logger

	// newCommand is injectable in tests.
	newCommand func(ctx context.Context, name string, args ...string) *exec.Cmd
}

func NewExecutor(root *safeio.SafeFS, cfg ExecutorConfig, logger *slog.Logger) *Executor {
	interpreters := DefaultInterpreters()
	for kind, bin := range cfg.Interpreters {
		if strings.TrimSpace(bin) != "" {
			interpreters[kind] = bin
		}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Executor{
		root:         root,
		interpreters: interpreters,
		timeout:      cfg.Timeout,
		logger:       logger,
		newCommand:   exec.CommandContext,
	}
}

// Run executes the script with positional arguments and captures its output.
// A non-zero exit status is reported in Result.Code, not as an error. When
// the run is cancelled or times out, the output captured so far is returned
// alongside the error.
func (e *Executor) Run(ctx context.Context, req Request) (Result, error) {
	ctx, cancel := e.withTimeout(ctx)
	defer cancel()

	cmd, err := e.command(ctx, req)
	if err != nil {
		return Result{}, err
	}
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := time.Now()
	code, err := exitCode(ctx, cmd.Run())
	if err != nil {
		partial := Result{Stdout: stdout.String(), Stderr: stderr.String(), Code: -1}
		return partial, fmt.Errorf("run %s: %w", req.Script, err)
	}
	e.logger.Info("script finished",
		"script", req.Script,
		"func", req.Func,
		"code", code,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return Result{Stdout: stdout.String(), Stderr: stderr.String(), Code: code}, nil
}

func (e *Executor) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if e.timeout > 0 {
		return context.WithTimeout(ctx, e.timeout)
	}
	return context.WithCancel(ctx)
}

// command resolves the script inside the root and builds the child process.
// Existence is checked on every call.
func (e *Executor) command(ctx context.Context, req Request) (*exec.Cmd, error) {
	name := strings.TrimSpace(req.Script)
	if name == "" {
		return nil, ErrScriptNotFound
	}
	info, err := e.root.Stat(name)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) || errors.Is(err, safeio.ErrOutsideRoot) {
			return nil, ErrScriptNotFound
		}
		return nil, fmt.Errorf("stat %s: %w", name, err)
	}
	if info.IsDir() {
		return nil, ErrScriptNotFound
	}
	path, err := e.root.Path(name)
	if err != nil {
		return nil, fmt.Errorf("resolve %s: %w", name, err)
	}

	bin := interpreterFor(e.interpreters, KindOf(name))
	argv := make([]string, 0, len(req.Args)+1)
	argv = append(argv, path)
	argv = append(argv, req.Args...)
	e.logger.Debug("spawn script", "interpreter", bin, "script", name, "func", req.Func, "args", len(req.Args))
	cmd := e.newCommand(ctx, bin, argv...)
	killProcessGroup(cmd)
	cmd.WaitDelay = waitDelay
	return cmd, nil
}

// exitCode turns a finished command's error into an exit status. Only
// failures to start or communicate with the child are returned as errors.
func exitCode(ctx context.Context, err error) (int, error) {
	if err == nil {
		return 0, nil
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return 0, ctxErr
		}
		return exitErr.ExitCode(), nil
	}
	return 0, err
}

// CoerceArgs renders decoded JSON values as process arguments. Strings pass
// through unchanged, numbers keep their literal text (decode with UseNumber),
// booleans and null follow Python's str() spelling, and anything else is
// re-encoded as compact JSON.
func CoerceArgs(values []any) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		out = append(out, coerceArg(v))
	}
	return out
}

func coerceArg(v any) string {
	switch t := v.(type) {
	case nil:
		return "None"
	case string:
		return t
	case json.Number:
		return t.String()
	case bool:
		if t {
			return "True"
		}
		return "False"
	case float64:
		return fmt.Sprint(t)
	default:
		b, err := json.Marshal(t)
		if err != nil {
			return fmt.Sprint(t)
		}
		return string(b)
	}
}
