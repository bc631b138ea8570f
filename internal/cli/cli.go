package cli

import (
	"flag"
	"fmt"
	"io"
	"strings"

	"github.com/deepnote/deepnote-sub005/internal/config"
	"github.com/deepnote/deepnote-sub005/internal/engine"
)

// ExitError is a custom error type that includes a specific exit code.
type ExitError struct {
	Code    int
	Message string
}

// Error implements the error interface for ExitError.
func (e *ExitError) Error() string {
	return e.Message
}

// Invocation is everything one CLI run needs: the project file, the engine
// configuration, the run options, and logging preferences.
type Invocation struct {
	ProjectPath string
	Engine      engine.Config
	Options     engine.Options
	LogLevel    string
	LogFormat   string
}

// Parse processes command-line arguments and merges them over an optional
// run profile (flags win). It returns a populated Invocation, a boolean
// indicating if the program should exit cleanly, or an ExitError.
func Parse(args []string, output io.Writer) (*Invocation, bool, error) {
	flagSet := flag.NewFlagSet("nbrun", flag.ContinueOnError)
	flagSet.SetOutput(output)

	flagSet.Usage = func() {
		fmt.Fprint(output, `
nbrun - Execute notebook project files against a local Python kernel.

Usage:
  nbrun [options] PROJECT_FILE

Arguments:
  PROJECT_FILE
    Path to a .deepnote project file.

Options:
`)
		flagSet.PrintDefaults()
	}

	profileFlag := flagSet.String("profile", "", "Path to an HCL run profile.")
	pythonFlag := flagSet.String("python", "", "Interpreter hint: a command name, executable path, or venv root.")
	workDirFlag := flagSet.String("workdir", "", "Working directory for the kernel server process.")
	kernelFlag := flagSet.String("kernel", "", "Kernel spec name for new sessions.")
	basePortFlag := flagSet.Int("base-port", 0, "First port probed for the server port pair. 0 uses the default.")
	timeoutFlag := flagSet.Duration("startup-timeout", 0, "How long to wait for the server to become ready. 0 uses the default.")
	notebookFlag := flagSet.String("notebook", "", "Run only the notebook with this exact name.")
	blockFlag := flagSet.String("block", "", "Run only the executable block with this id.")
	snapshotFlag := flagSet.Bool("snapshot", false, "Write an execution snapshot after the run.")
	logFormatFlag := flagSet.String("log-format", "text", "Log output format. Options: 'text' or 'json'.")
	logLevelFlag := flagSet.String("log-level", "info", "Set the logging level. Options: 'debug', 'info', 'warn', 'error'.")

	if err := flagSet.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return nil, true, nil
		}
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}

	if flagSet.NArg() == 0 {
		flagSet.Usage()
		return nil, true, nil
	}
	if flagSet.NArg() > 1 {
		return nil, false, &ExitError{Code: 2, Message: "expected exactly one project file argument"}
	}

	logFormat := strings.ToLower(*logFormatFlag)
	if logFormat != "text" && logFormat != "json" {
		return nil, false, &ExitError{Code: 2, Message: "invalid log-format: must be 'text' or 'json'"}
	}
	logLevel := strings.ToLower(*logLevelFlag)
	switch logLevel {
	case "debug", "info", "warn", "error":
		// valid
	default:
		return nil, false, &ExitError{Code: 2, Message: "invalid log-level: must be 'debug', 'info', 'warn', or 'error'"}
	}

	inv := &Invocation{
		ProjectPath: flagSet.Arg(0),
		LogLevel:    logLevel,
		LogFormat:   logFormat,
	}

	if *profileFlag != "" {
		if err := applyProfile(inv, *profileFlag); err != nil {
			return nil, false, &ExitError{Code: 2, Message: err.Error()}
		}
	}

	// Flags override whatever the profile set.
	if *pythonFlag != "" {
		inv.Engine.RuntimeHint = *pythonFlag
	}
	if *workDirFlag != "" {
		inv.Engine.WorkDir = *workDirFlag
	}
	if *kernelFlag != "" {
		inv.Engine.KernelName = *kernelFlag
	}
	if *basePortFlag != 0 {
		inv.Engine.BasePort = *basePortFlag
	}
	if *timeoutFlag != 0 {
		inv.Engine.StartupTimeout = *timeoutFlag
	}
	if *notebookFlag != "" {
		inv.Options.NotebookName = *notebookFlag
	}
	if *blockFlag != "" {
		inv.Options.BlockID = *blockFlag
	}
	if *snapshotFlag {
		inv.Options.Snapshot = true
	}

	return inv, false, nil
}

// applyProfile loads a run profile and copies its settings into the
// invocation.
func applyProfile(inv *Invocation, path string) error {
	profile, err := config.Load(path)
	if err != nil {
		return err
	}

	inv.Engine.RuntimeHint = profile.Python
	inv.Engine.WorkDir = profile.WorkDir
	inv.Engine.KernelName = profile.KernelName
	inv.Engine.BasePort = profile.BasePort
	inv.Options.NotebookName = profile.Notebook
	inv.Options.BlockID = profile.Block
	inv.Options.Snapshot = profile.Snapshot

	timeout, err := profile.StartupTimeoutDuration()
	if err != nil {
		return err
	}
	inv.Engine.StartupTimeout = timeout

	inputs, err := profile.Inputs()
	if err != nil {
		return err
	}
	if len(inputs) > 0 {
		inv.Options.Inputs = inputs
	}
	return nil
}
