package server

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"syscall"
	"time"

	"github.com/google/uuid"
	"resty.dev/v3"

	"github.com/deepnote/deepnote-sub005/internal/ctxlog"
)

const (
	defaultBasePort        = 8888
	defaultMaxPortAttempts = 50
	defaultPollInterval    = 200 * time.Millisecond
	defaultStartupTimeout  = 120 * time.Second
	defaultGracePeriod     = 2 * time.Second

	// tailCapacity bounds how much trailing subprocess output is kept for
	// crash diagnostics.
	tailCapacity = 8 * 1024
)

// ArgvFunc builds the full command line for the server process. It exists as
// a seam so tests can substitute a stub process for the real runtime server.
type ArgvFunc func(pythonPath string, primaryPort, secondaryPort int, token string) []string

// Options configures a Supervisor. The zero value of every field selects a
// sensible default.
type Options struct {
	// PythonPath is the resolved interpreter executable used to launch the
	// server. Required.
	PythonPath string
	// WorkDir is the server process working directory. Defaults to the
	// current directory.
	WorkDir string

	BasePort        int
	MaxPortAttempts int
	PollInterval    time.Duration
	StartupTimeout  time.Duration
	GracePeriod     time.Duration

	// Argv overrides command-line construction. Defaults to launching the
	// Jupyter server module of the resolved interpreter.
	Argv ArgvFunc
}

// Info describes a running server. The process handle is deliberately
// unexported: only the supervisor manages process lifetime.
type Info struct {
	EndpointURL   string
	PrimaryPort   int
	SecondaryPort int
	Token         string

	cmd    *exec.Cmd
	exited chan struct{}
	tail   *tailBuffer
}

// Output returns the trailing captured stdout/stderr of the server process.
func (i *Info) Output() string {
	return i.tail.String()
}

// Supervisor spawns and tears down the runtime server subprocess.
type Supervisor struct {
	opts Options
}

// New builds a Supervisor, filling zero-valued options with defaults.
func New(opts Options) *Supervisor {
	if opts.BasePort == 0 {
		opts.BasePort = defaultBasePort
	}
	if opts.MaxPortAttempts == 0 {
		opts.MaxPortAttempts = defaultMaxPortAttempts
	}
	if opts.PollInterval == 0 {
		opts.PollInterval = defaultPollInterval
	}
	if opts.StartupTimeout == 0 {
		opts.StartupTimeout = defaultStartupTimeout
	}
	if opts.GracePeriod == 0 {
		opts.GracePeriod = defaultGracePeriod
	}
	if opts.Argv == nil {
		opts.Argv = defaultArgv
	}
	return &Supervisor{opts: opts}
}

// defaultArgv launches the Jupyter server on the primary port. The secondary
// port of the pair is reserved for companion services started by the server
// itself and is not used directly here.
func defaultArgv(pythonPath string, primaryPort, _ int, token string) []string {
	return []string{
		pythonPath, "-m", "jupyter_server",
		"--ServerApp.ip=127.0.0.1",
		fmt.Sprintf("--ServerApp.port=%d", primaryPort),
		"--ServerApp.port_retries=0",
		"--ServerApp.open_browser=False",
		fmt.Sprintf("--ServerApp.token=%s", token),
		"--ServerApp.disable_check_xsrf=True",
	}
}

// Start allocates a port pair, spawns the server process, and waits for its
// HTTP endpoint to become healthy. The wait races health polling against the
// process's own exit: if the process dies first, Start returns a
// *CrashedError without issuing a kill (the process is already gone); if the
// startup timeout elapses first, the process is force-killed and Start
// returns a *StartupTimeoutError. Either way no process outlives a failed
// Start.
func (s *Supervisor) Start(ctx context.Context) (*Info, error) {
	logger := ctxlog.FromContext(ctx)

	primary, secondary, err := allocatePortPair(s.opts.BasePort, s.opts.MaxPortAttempts)
	if err != nil {
		return nil, err
	}
	token := uuid.NewString()
	logger.Debug("Allocated server port pair.", "primary", primary, "secondary", secondary)

	argv := s.opts.Argv(s.opts.PythonPath, primary, secondary, token)
	tail := newTailBuffer(tailCapacity)

	cmd := exec.Command(argv[0], argv[1:]...)
	cmd.Dir = s.opts.WorkDir
	cmd.Stdout = tail
	cmd.Stderr = tail
	cmd.Env = append(os.Environ(),
		"PYTHONUNBUFFERED=1",
		"NO_COLOR=1",
		"JUPYTER_TOKEN="+token,
	)

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("failed to spawn server process: %w", err)
	}
	logger.Info("🚀 Server process spawned", "pid", cmd.Process.Pid, "port", primary)

	exited := make(chan struct{})
	go func() {
		// Wait must be called exactly once; everyone else watches the channel.
		_ = cmd.Wait()
		close(exited)
	}()

	info := &Info{
		EndpointURL:   fmt.Sprintf("http://127.0.0.1:%d", primary),
		PrimaryPort:   primary,
		SecondaryPort: secondary,
		Token:         token,
		cmd:           cmd,
		exited:        exited,
		tail:          tail,
	}

	if err := s.awaitReady(ctx, info); err != nil {
		return nil, err
	}
	logger.Info("✅ Server is ready", "endpoint", info.EndpointURL)
	return info, nil
}

// awaitReady polls the health endpoint until it answers, the process exits,
// or the startup timeout elapses.
func (s *Supervisor) awaitReady(ctx context.Context, info *Info) error {
	logger := ctxlog.FromContext(ctx)

	client := resty.New().
		SetBaseURL(info.EndpointURL).
		SetTimeout(s.opts.PollInterval * 5).
		SetHeader("Authorization", "token "+info.Token)
	defer client.Close()

	ticker := time.NewTicker(s.opts.PollInterval)
	defer ticker.Stop()
	deadline := time.NewTimer(s.opts.StartupTimeout)
	defer deadline.Stop()

	for {
		select {
		case <-info.exited:
			// The process died on its own; there is nothing left to kill.
			logger.Debug("Server process exited during startup.")
			return &CrashedError{Output: info.tail.String()}

		case <-deadline.C:
			logger.Debug("Startup timeout elapsed, force-killing server process.")
			s.forceKill(info)
			return &StartupTimeoutError{Timeout: s.opts.StartupTimeout, Output: info.tail.String()}

		case <-ctx.Done():
			s.forceKill(info)
			return fmt.Errorf("server startup canceled: %w", ctx.Err())

		case <-ticker.C:
			resp, err := client.R().SetContext(ctx).Get("/api/status")
			if err == nil && resp.IsSuccess() {
				return nil
			}
			logger.Debug("Health check not ready yet.", "error", err)
		}
	}
}

// Stop terminates the server process. It is idempotent: an already-exited
// process returns immediately and no kill is issued. Otherwise the process
// gets a graceful termination signal, a bounded grace period, and then a
// force kill. Stop never fails for an already-dead process.
func (s *Supervisor) Stop(ctx context.Context, info *Info) error {
	if info == nil || info.cmd == nil {
		return nil
	}
	logger := ctxlog.FromContext(ctx)

	select {
	case <-info.exited:
		logger.Debug("Server process already exited, nothing to stop.")
		return nil
	default:
	}

	logger.Info("🛑 Stopping server process", "pid", info.cmd.Process.Pid)
	if err := info.cmd.Process.Signal(syscall.SIGTERM); err != nil {
		// Signaling can only fail if the process is already gone.
		return nil
	}

	select {
	case <-info.exited:
		logger.Debug("Server process exited gracefully.")
	case <-time.After(s.opts.GracePeriod):
		logger.Debug("Grace period elapsed, force-killing server process.")
		s.forceKill(info)
	}
	return nil
}

// forceKill kills the process and waits for its exit notification.
func (s *Supervisor) forceKill(info *Info) {
	_ = info.cmd.Process.Kill()
	<-info.exited
}
