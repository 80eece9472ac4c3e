package scripts

import (
	"context"
	"encoding/json"
	"errors"
	"os/exec"
	"reflect"
	"strings"
	"testing"
	"time"
)

func requireBinary(t *testing.T, name string) {
	t.Helper()
	if _, err := exec.LookPath(name); err != nil {
		t.Skipf("%s not available: %v", name, err)
	}
}

func TestRunPassesArgsPositionally(t *testing.T) {
	requireBinary(t, "bash")
	root := newTestRoot(t, map[string]string{
		"echo.sh": "echo \"$#:$1:$2\"\necho oops >&2\nexit 3\n",
	})
	exe := NewExecutor(root, ExecutorConfig{}, nil)

	res, err := exe.Run(context.Background(), Request{Script: "echo.sh", Args: CoerceArgs([]any{json.Number("1"), "two"})})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	want := Result{Stdout: "2:1:two\n", Stderr: "oops\n", Code: 3}
	if res != want {
		t.Fatalf("result = %+v, want %+v", res, want)
	}
}

func TestRunArgumentsAreNotShellInterpreted(t *testing.T) {
	requireBinary(t, "bash")
	root := newTestRoot(t, map[string]string{"p.sh": "printf '%s' \"$1\"\n"})
	exe := NewExecutor(root, ExecutorConfig{}, nil)
	res, err := exe.Run(context.Background(), Request{Script: "p.sh", Args: []string{"$(echo pwned); ls"}})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if res.Stdout != "$(echo pwned); ls" {
		t.Fatalf("stdout = %q", res.Stdout)
	}
}

func TestRunPythonScript(t *testing.T) {
	requireBinary(t, "python3")
	root := newTestRoot(t, map[string]string{
		"hello.py": "import sys\ndef main(name):\n    print('hi ' + name)\nmain(sys.argv[1])\n",
	})
	exe := NewExecutor(root, ExecutorConfig{}, nil)
	res, err := exe.Run(context.Background(), Request{Script: "hello.py", Func: "main", Args: []string{"bob"}})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if res.Stdout != "hi bob\n" || res.Code != 0 {
		t.Fatalf("result = %+v", res)
	}
}

func TestRunMissingScript(t *testing.T) {
	root := newTestRoot(t, map[string]string{"sub/x.sh": "echo"})
	exe := NewExecutor(root, ExecutorConfig{}, nil)
	for _, name := range []string{"nope.sh", "", "../etc/passwd", "sub"} {
		if _, err := exe.Run(context.Background(), Request{Script: name}); !errors.Is(err, ErrScriptNotFound) {
			t.Fatalf("Run(%q) err = %v, want ErrScriptNotFound", name, err)
		}
	}
}

func TestRunSpawnFailureIsError(t *testing.T) {
	root := newTestRoot(t, map[string]string{"x.py": "print(1)"})
	exe := NewExecutor(root, ExecutorConfig{Interpreters: map[Kind]string{KindPython: "/nonexistent/interpreter"}}, nil)
	_, err := exe.Run(context.Background(), Request{Script: "x.py"})
	if err == nil || errors.Is(err, ErrScriptNotFound) {
		t.Fatalf("expected spawn error, got %v", err)
	}
}

func TestRunUsesInterpreterTable(t *testing.T) {
	root := newTestRoot(t, map[string]string{"a.py": "", "b.sh": "", "c.rb": ""})
	exe := NewExecutor(root, ExecutorConfig{Interpreters: map[Kind]string{KindPython: "py-bin", KindShell: "sh-bin"}}, nil)
	var calls [][]string
	exe.newCommand = func(ctx context.Context, name string, args ...string) *exec.Cmd {
		calls = append(calls, append([]string{name}, args[1:]...))
		return exec.CommandContext(ctx, "true")
	}
	if _, err := exec.LookPath("true"); err != nil {
		t.Skipf("true not available: %v", err)
	}
	for _, s := range []string{"a.py", "b.sh", "c.rb"} {
		if _, err := exe.Run(context.Background(), Request{Script: s, Args: []string{"1"}}); err != nil {
			t.Fatalf("run %s: %v", s, err)
		}
	}
	want := [][]string{{"py-bin", "1"}, {"sh-bin", "1"}, {"sh-bin", "1"}}
	if !reflect.DeepEqual(calls, want) {
		t.Fatalf("calls = %v, want %v", calls, want)
	}
}

func TestStreamEmitsLinesThenExit(t *testing.T) {
	requireBinary(t, "bash")
	root := newTestRoot(t, map[string]string{"s.sh": "echo one\necho two\necho bad >&2\nexit 4\n"})
	exe := NewExecutor(root, ExecutorConfig{}, nil)

	var stdout, stderr []string
	var last Event
	err := exe.Stream(context.Background(), Request{Script: "s.sh"}, func(ev Event) error {
		switch {
		case ev.Done:
			last = ev
		case ev.Stream == "stdout":
			stdout = append(stdout, ev.Line)
		default:
			stderr = append(stderr, ev.Line)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("stream: %v", err)
	}
	if strings.Join(stdout, ",") != "one,two" || strings.Join(stderr, ",") != "bad" {
		t.Fatalf("stdout=%v stderr=%v", stdout, stderr)
	}
	if !last.Done || last.Code != 4 {
		t.Fatalf("final event = %+v", last)
	}
}

func TestCoerceArgs(t *testing.T) {
	got := CoerceArgs([]any{json.Number("1"), json.Number("2.50"), "two", true, false, nil, []any{"a", json.Number("1")}, map[string]any{"k": "v"}})
	want := []string{"1", "2.50", "two", "True", "False", "None", `["a",1]`, `{"k":"v"}`}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("CoerceArgs = %v, want %v", got, want)
	}
}

const sleeperScript = "echo start\nsleep 6\necho end\n"

func TestRunTimeoutKillsChildProcesses(t *testing.T) {
	requireBinary(t, "bash")
	requireBinary(t, "sleep")
	root := newTestRoot(t, map[string]string{"slow.sh": sleeperScript})
	exe := NewExecutor(root, ExecutorConfig{Timeout: 500 * time.Millisecond}, nil)

	start := time.Now()
	res, err := exe.Run(context.Background(), Request{Script: "slow.sh"})
	elapsed := time.Since(start)

	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("err = %v, want deadline exceeded", err)
	}
	if elapsed > 3*time.Second {
		t.Fatalf("run returned after %v, want close to the 500ms timeout", elapsed)
	}
	if res.Stdout != "start\n" {
		t.Fatalf("partial stdout = %q, want %q", res.Stdout, "start\n")
	}
}

func TestRunCallerCancelKillsChildProcesses(t *testing.T) {
	requireBinary(t, "bash")
	requireBinary(t, "sleep")
	root := newTestRoot(t, map[string]string{"slow.sh": sleeperScript})
	exe := NewExecutor(root, ExecutorConfig{}, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 300*time.Millisecond)
	defer cancel()
	start := time.Now()
	_, err := exe.Run(ctx, Request{Script: "slow.sh"})
	if err == nil {
		t.Fatalf("expected cancellation error")
	}
	if elapsed := time.Since(start); elapsed > 3*time.Second {
		t.Fatalf("run returned after %v", elapsed)
	}
}

func TestStreamTimeoutKillsChildProcesses(t *testing.T) {
	requireBinary(t, "bash")
	requireBinary(t, "sleep")
	root := newTestRoot(t, map[string]string{"slow.sh": sleeperScript})
	exe := NewExecutor(root, ExecutorConfig{Timeout: 500 * time.Millisecond}, nil)

	var lines []string
	start := time.Now()
	err := exe.Stream(context.Background(), Request{Script: "slow.sh"}, func(ev Event) error {
		if !ev.Done {
			lines = append(lines, ev.Line)
		}
		return nil
	})
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("err = %v, want deadline exceeded", err)
	}
	if elapsed := time.Since(start); elapsed > 3*time.Second {
		t.Fatalf("stream returned after %v", elapsed)
	}
	if strings.Join(lines, ",") != "start" {
		t.Fatalf("lines = %v, want [start]", lines)
	}
}
