package engine

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/deepnote/deepnote-sub005/internal/ctxlog"
	"github.com/deepnote/deepnote-sub005/internal/document"
	"github.com/deepnote/deepnote-sub005/internal/kernel"
	"github.com/deepnote/deepnote-sub005/internal/pyliteral"
	"github.com/deepnote/deepnote-sub005/internal/runtime"
	"github.com/deepnote/deepnote-sub005/internal/server"
	"github.com/deepnote/deepnote-sub005/internal/snapshot"
)

// processSupervisor is the engine's view of the server subprocess lifecycle.
// The concrete implementation is server.Supervisor; tests substitute fakes.
type processSupervisor interface {
	Start(ctx context.Context) (*server.Info, error)
	Stop(ctx context.Context, info *server.Info) error
}

// sessionClient is the engine's view of the kernel session. The concrete
// implementation is kernel.Client; tests substitute fakes.
type sessionClient interface {
	Connect(ctx context.Context, endpointURL, token string) error
	Execute(ctx context.Context, code string, onOutput kernel.OutputFunc) (*kernel.ExecutionResult, error)
	Disconnect(ctx context.Context)
}

// Config configures an Engine.
type Config struct {
	// RuntimeHint is the interpreter hint resolved at Start: a bare name, an
	// executable path, or a virtual-environment root. Defaults to "python3".
	RuntimeHint string
	// WorkDir is the server process working directory.
	WorkDir string
	// KernelName selects the kernel spec for new sessions.
	KernelName string

	BasePort       int
	StartupTimeout time.Duration
	PollInterval   time.Duration

	// OnServerStarting and OnServerReady observe the server startup phase.
	OnServerStarting func()
	OnServerReady    func(endpointURL string)

	// Supervisor and Client override the real implementations; used by
	// tests. When nil, Start builds them from the fields above.
	Supervisor processSupervisor
	Client     sessionClient
}

// Engine coordinates a whole execution run. The supervisor owns the server
// process, the client owns the kernel session; the engine holds both and
// tears them down independently, so Stop is safe even when only one of the
// two was established.
type Engine struct {
	cfg Config

	mu         sync.Mutex
	supervisor processSupervisor
	client     sessionClient
	info       *server.Info
	started    bool
}

// New builds an Engine. Nothing is started yet.
func New(cfg Config) *Engine {
	return &Engine{cfg: cfg}
}

// Start resolves the runtime, launches the server subprocess, and connects a
// kernel session. On any failure after the server spawned, the server is
// torn down again before the error propagates.
func (e *Engine) Start(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.started {
		return nil
	}
	logger := ctxlog.FromContext(ctx)

	supervisor := e.cfg.Supervisor
	if supervisor == nil {
		hint := e.cfg.RuntimeHint
		if hint == "" {
			hint = "python3"
		}
		pythonPath, err := runtime.Resolve(hint)
		if err != nil {
			return err
		}
		logger.Debug("Runtime resolved.", "python", pythonPath)
		supervisor = server.New(server.Options{
			PythonPath:     pythonPath,
			WorkDir:        e.cfg.WorkDir,
			BasePort:       e.cfg.BasePort,
			StartupTimeout: e.cfg.StartupTimeout,
			PollInterval:   e.cfg.PollInterval,
		})
	}

	if e.cfg.OnServerStarting != nil {
		e.cfg.OnServerStarting()
	}
	info, err := supervisor.Start(ctx)
	if err != nil {
		return err
	}
	if e.cfg.OnServerReady != nil {
		e.cfg.OnServerReady(info.EndpointURL)
	}

	client := e.cfg.Client
	if client == nil {
		client = kernel.NewClient(kernel.ClientOptions{KernelName: e.cfg.KernelName})
	}
	if err := client.Connect(ctx, info.EndpointURL, info.Token); err != nil {
		// No orphaned server behind a failed connect.
		_ = supervisor.Stop(ctx, info)
		return err
	}

	e.supervisor = supervisor
	e.client = client
	e.info = info
	e.started = true
	return nil
}

// Stop tears down the kernel session and the server process. It is safe to
// call whether or not Start succeeded, and safe to call twice; each teardown
// happens at most once.
func (e *Engine) Stop(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.client != nil {
		e.client.Disconnect(ctx)
		e.client = nil
	}
	var err error
	if e.supervisor != nil && e.info != nil {
		err = e.supervisor.Stop(ctx, e.info)
	}
	e.supervisor = nil
	e.info = nil
	e.started = false
	return err
}

// RunProject executes a project document per the given options and returns
// the run summary.
func (e *Engine) RunProject(ctx context.Context, doc *document.File, opts *Options) (*Summary, error) {
	summary, _, _, err := e.run(ctx, doc, opts)
	return summary, err
}

// RunFile loads a project file, executes it, and optionally persists a
// snapshot next to the source file. A snapshot is written whenever at least
// one block was attempted, so failed runs keep their captured outputs too.
func (e *Engine) RunFile(ctx context.Context, path string, opts *Options) (*Summary, error) {
	logger := ctxlog.FromContext(ctx)

	doc, err := document.Load(path)
	if err != nil {
		return nil, err
	}

	summary, results, timing, runErr := e.run(ctx, doc, opts)
	if opts != nil && opts.Snapshot && results != nil {
		saved, saveErr := snapshot.Save(path, doc, results, timing)
		if saveErr != nil {
			if runErr != nil {
				return summary, runErr
			}
			return summary, saveErr
		}
		logger.Info("💾 Snapshot saved", "path", saved.Path, "timestamped", saved.TimestampedPath)
	}
	return summary, runErr
}

// run is the shared core of RunProject and RunFile. It returns the per-block
// outputs and run timing alongside the summary so RunFile can persist them.
// A nil results map means execution never reached the block loop.
func (e *Engine) run(ctx context.Context, doc *document.File, opts *Options) (*Summary, map[string]snapshot.BlockOutputs, document.ExecutionTiming, error) {
	var timing document.ExecutionTiming

	e.mu.Lock()
	started := e.started
	client := e.client
	e.mu.Unlock()
	if !started {
		return nil, nil, timing, &NotStartedError{}
	}

	if opts == nil {
		opts = &Options{}
	}
	source := opts.Source
	if source == nil {
		source = document.RunnableSource
	}
	logger := ctxlog.FromContext(ctx)

	if err := e.injectInputs(ctx, client, opts.Inputs); err != nil {
		return nil, nil, timing, err
	}

	planned, err := buildPlan(doc, opts.NotebookName, opts.BlockID)
	if err != nil {
		return nil, nil, timing, err
	}

	summary := &Summary{TotalBlocks: len(planned)}
	results := make(map[string]snapshot.BlockOutputs, len(planned))
	timing.StartedAt = time.Now().UTC()
	logger.Info("🚀 Starting execution", "blocks", len(planned))

	for i, block := range planned {
		if opts.OnBlockStart != nil {
			opts.OnBlockStart(block, i, len(planned))
		}

		var onOutput kernel.OutputFunc
		if opts.OnOutput != nil {
			b := block
			onOutput = func(out document.Output) { opts.OnOutput(b, out) }
		}

		blockStart := time.Now()
		execResult, execErr := client.Execute(ctx, source(block), onOutput)

		result := BlockResult{
			BlockID:   block.ID,
			BlockType: block.Type,
			Duration:  time.Since(blockStart),
		}
		if execErr != nil {
			// A thrown transport error still yields a result object for the
			// attempted block.
			result.Err = execErr
		} else {
			result.Success = execResult.Success
			result.Outputs = execResult.Outputs
			result.ExecutionCount = execResult.ExecutionCount
		}

		summary.ExecutedBlocks++
		results[block.ID] = snapshot.BlockOutputs{
			Outputs:        result.Outputs,
			ExecutionCount: result.ExecutionCount,
		}
		if opts.OnBlockDone != nil {
			opts.OnBlockDone(result)
		}

		if !result.Success {
			summary.FailedBlocks++
			logger.Warn("Block failed, stopping run.", "block", block.ID, "error", result.Err)
			break
		}
	}

	timing.FinishedAt = time.Now().UTC()
	summary.TotalDuration = timing.FinishedAt.Sub(timing.StartedAt)
	logger.Info("🏁 Execution finished", "executed", summary.ExecutedBlocks, "failed", summary.FailedBlocks)
	return summary, results, timing, nil
}

// injectInputs converts caller-supplied values into one combined assignment
// statement and executes it before any block runs. Names are validated
// first; a failed injection aborts the whole run.
func (e *Engine) injectInputs(ctx context.Context, client sessionClient, inputs map[string]any) error {
	if len(inputs) == 0 {
		return nil
	}

	names := make([]string, 0, len(inputs))
	for name := range inputs {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if !pyliteral.ValidName(name) {
			return &InvalidInputNameError{Name: name}
		}
	}

	code, err := pyliteral.Assignments(inputs)
	if err != nil {
		return &InputInjectionError{Err: err}
	}

	ctxlog.FromContext(ctx).Debug("Injecting input values.", "count", len(inputs))
	result, err := client.Execute(ctx, code, nil)
	if err != nil {
		return &InputInjectionError{Err: fmt.Errorf("input assignment execution failed: %w", err)}
	}
	if !result.Success {
		injErr := &InputInjectionError{}
		for _, out := range result.Outputs {
			if out.IsError() {
				captured := out
				injErr.ErrorOutput = &captured
				break
			}
		}
		return injErr
	}
	return nil
}
