package mux

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"github.com/streamcap/streamcapd/internal/logctx"
)

const dirPerm = 0755

// Launcher starts external transcoder processes. Arguments are always passed
// as discrete tokens, never through a shell.
type Launcher struct {
	binary string
}

// NewLauncher returns a launcher for the given transcoder binary. An empty
// binary defaults to "ffmpeg" on PATH.
func NewLauncher(binary string) *Launcher {
	if binary == "" {
		binary = "ffmpeg"
	}

	return &Launcher{binary: binary}
}

// Process is a running transcoder invocation.
type Process struct {
	cmd  *exec.Cmd
	done chan struct{}
	err  error
}

// Launch builds the argument list for the plan and starts the transcoder.
// The output directory is created if absent. Stderr is drained and logged at
// debug level so a wedged pipe can never stall the encoder.
func (l *Launcher) Launch(ctx context.Context, plan Plan, baseArgs []string) (*Process, error) {
	args, err := Build(plan, baseArgs)
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(filepath.Dir(plan.OutputPath), dirPerm); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	logger := logctx.LoggerFromContext(ctx).With("binary", l.binary, "output", plan.OutputPath)

	cmd := exec.Command(l.binary, args...)

	stderr, err := cmd.StderrPipe()
	if err != nil {
		return nil, fmt.Errorf("failed to open stderr pipe: %w", err)
	}

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("failed to start transcoder: %w", err)
	}

	logger.Info("transcoder started", "pid", cmd.Process.Pid, "args", args)

	go func() {
		scanner := bufio.NewScanner(stderr)
		for scanner.Scan() {
			logger.Debug("transcoder stderr", "line", scanner.Text())
		}
	}()

	p := &Process{cmd: cmd, done: make(chan struct{})}

	go func() {
		defer close(p.done)

		p.err = cmd.Wait()
	}()

	return p, nil
}

// Stop asks the transcoder to finalize by sending an interrupt, waits up to
// timeout, then kills it. An interrupted exit is treated as a clean stop.
func (p *Process) Stop(ctx context.Context, timeout time.Duration) error {
	logger := logctx.LoggerFromContext(ctx)

	if err := p.cmd.Process.Signal(os.Interrupt); err != nil {
		logger.Warn("failed to interrupt transcoder, killing", "err", err)

		return p.cmd.Process.Kill()
	}

	select {
	case <-p.done:
		return nil
	case <-time.After(timeout):
		logger.Warn("transcoder did not exit in time, killing", "timeout", timeout.String())

		return p.cmd.Process.Kill()
	}
}

// Done is closed when the process has exited.
func (p *Process) Done() <-chan struct{} {
	return p.done
}

// Err reports the process exit result. Valid after Done is closed.
func (p *Process) Err() error {
	return p.err
}
