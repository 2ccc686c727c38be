// Package supervisor owns the tool-server subprocess on the client side:
// scoped acquisition on Start, guaranteed release on Stop, and a liveness
// probe in between. The process must never outlive the supervising client.
package supervisor

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
)

// ErrSpawn indicates the server command could not be launched.
var ErrSpawn = errors.New("supervisor: cannot spawn server process")

const defaultGracePeriod = 5 * time.Second

// Command describes the tool-server process to spawn.
type Command struct {
	Path string
	Args []string
	Env  map[string]string
}

// Config controls supervision behavior.
type Config struct {
	// GracePeriod bounds the wait between closing stdin and force-killing.
	GracePeriod time.Duration
	Logger      *slog.Logger
}

// ServerProcess is a handle to a spawned tool server: the process itself,
// the write end of its stdin, and the read end of its stdout. The stream
// transport client takes exclusive ownership of both pipes.
type ServerProcess struct {
	id     string
	cmd    *exec.Cmd
	stdin  io.WriteCloser
	stdout io.ReadCloser
	grace  time.Duration
	logger *slog.Logger

	waitCh  chan struct{}
	waitErr error

	mu      sync.Mutex
	stopped bool
}

// Start spawns the tool-server command. The process is bound to ctx: if the
// supervising client's context ends, the process is killed even when Stop
// was never reached.
func Start(ctx context.Context, command Command, cfg Config) (*ServerProcess, error) {
	if command.Path == "" {
		return nil, fmt.Errorf("%w: command path is empty", ErrSpawn)
	}

	grace := cfg.GracePeriod
	if grace <= 0 {
		grace = defaultGracePeriod
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	// #nosec G204 -- the command is explicitly configured by the client.
	cmd := exec.CommandContext(ctx, command.Path, command.Args...)
	if len(command.Env) > 0 {
		cmd.Env = append(os.Environ(), flattenEnv(command.Env)...)
	}
	cmd.Stderr = io.Discard

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("%w: open stdin: %v", ErrSpawn, err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("%w: open stdout: %v", ErrSpawn, err)
	}

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("%w: starting %q: %v", ErrSpawn, command.Path, err)
	}

	p := &ServerProcess{
		id:     uuid.NewString(),
		cmd:    cmd,
		stdin:  stdin,
		stdout: stdout,
		grace:  grace,
		logger: logger,
		waitCh: make(chan struct{}),
	}
	p.logger.Debug("tool server started", "session", p.id, "command", command.Path, "pid", cmd.Process.Pid)

	go p.waitLoop()
	return p, nil
}

func (p *ServerProcess) waitLoop() {
	p.waitErr = p.cmd.Wait()
	close(p.waitCh)
	p.logger.Debug("tool server exited", "session", p.id, "err", p.waitErr)
}

// ID returns the supervision session id.
func (p *ServerProcess) ID() string {
	return p.id
}

// Stdin returns the write end of the process's standard input.
func (p *ServerProcess) Stdin() io.Writer {
	return p.stdin
}

// Stdout returns the read end of the process's standard output.
func (p *ServerProcess) Stdout() io.Reader {
	return p.stdout
}

// Alive reports whether the process is still running.
func (p *ServerProcess) Alive() bool {
	select {
	case <-p.waitCh:
		return false
	default:
		return true
	}
}

// Stop requests graceful termination: close stdin, wait up to the grace
// period, then kill. It is idempotent and safe after the process has
// already exited on its own.
func (p *ServerProcess) Stop(ctx context.Context) error {
	p.mu.Lock()
	if p.stopped {
		p.mu.Unlock()
		return nil
	}
	p.stopped = true
	p.mu.Unlock()

	_ = p.stdin.Close()

	timer := time.NewTimer(p.grace)
	defer timer.Stop()

	select {
	case <-p.waitCh:
		return nil
	case <-ctx.Done():
		_ = p.cmd.Process.Kill()
		<-p.waitCh
		return ctx.Err()
	case <-timer.C:
	}

	p.logger.Warn("tool server did not exit in time, killing", "session", p.id)
	if err := p.cmd.Process.Kill(); err != nil && !errors.Is(err, os.ErrProcessDone) {
		return fmt.Errorf("supervisor: kill: %w", err)
	}
	<-p.waitCh
	return nil
}

func flattenEnv(values map[string]string) []string {
	keys := make([]string, 0, len(values))
	for key := range values {
		keys = append(keys, key)
	}
	slices.Sort(keys)

	out := make([]string, 0, len(values))
	for _, key := range keys {
		out = append(out, key+"="+values[key])
	}
	return out
}
