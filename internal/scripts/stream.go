package scripts

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"sync"
	"time"
)

// Event is one line of child output, or the final exit status when Done.
type Event struct {
	Stream string `json:"stream,omitempty"`
	Line   string `json:"line,omitempty"`
	Done   bool   `json:"done,omitempty"`
	Code   int    `json:"code"`
}

const maxStreamLine = 1 << 20

// Stream runs the script like Run but hands each output line to sink as it
// arrives. sink is always called from the caller's goroutine. The final
// Done event is emitted after the child exits.
func (e *Executor) Stream(ctx context.Context, req Request, sink func(Event) error) error {
	ctx, cancel := e.withTimeout(ctx)
	defer cancel()

	cmd, err := e.command(ctx, req)
	if err != nil {
		return err
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("stdout pipe: %w", err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return fmt.Errorf("stderr pipe: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start %s: %w", req.Script, err)
	}

	// Grandchildren that escaped the process group may keep the pipes
	// open; stop reading them once the run is over.
	finished := make(chan struct{})
	defer close(finished)
	go func() {
		select {
		case <-finished:
			return
		case <-ctx.Done():
		}
		select {
		case <-finished:
		case <-time.After(waitDelay):
			_ = stdout.Close()
			_ = stderr.Close()
		}
	}()

	events := make(chan Event)
	var wg sync.WaitGroup
	wg.Add(2)
	go pumpLines(ctx, &wg, "stdout", stdout, events)
	go pumpLines(ctx, &wg, "stderr", stderr, events)
	go func() {
		wg.Wait()
		close(events)
	}()

	var sinkErr error
	for ev := range events {
		if sinkErr != nil {
			continue
		}
		if sinkErr = sink(ev); sinkErr != nil {
			// Stop the child; keep draining so the pumps can exit.
			cancel()
		}
	}

	code, err := exitCode(ctx, cmd.Wait())
	if sinkErr != nil {
		return sinkErr
	}
	if err != nil {
		return fmt.Errorf("run %s: %w", req.Script, err)
	}
	e.logger.Info("script stream finished", "script", req.Script, "func", req.Func, "code", code)
	return sink(Event{Done: true, Code: code})
}

func pumpLines(ctx context.Context, wg *sync.WaitGroup, name string, r io.Reader, out chan<- Event) {
	defer wg.Done()
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), maxStreamLine)
	for sc.Scan() {
		select {
		case out <- Event{Stream: name, Line: sc.Text()}:
		case <-ctx.Done():
			_, _ = io.Copy(io.Discard, r)
			return
		}
	}
	// Drain whatever the scanner refused (e.g. an over-long line) so the
	// child never blocks on a full pipe.
	_, _ = io.Copy(io.Discard, r)
}
