package runtime

import (
	"fmt"
	"strings"
)

// NotFoundError means the hint does not exist on disk and is not an
// allow-listed bare command name.
type NotFoundError struct {
	Hint string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("python runtime not found: %q does not exist and is not a known interpreter name", e.Hint)
}

// InvalidPathError means the hint exists but is not usable as an interpreter:
// a file whose name does not identify a Python executable.
type InvalidPathError struct {
	Path string
}

func (e *InvalidPathError) Error() string {
	return fmt.Sprintf("invalid python runtime path: %q is not a Python interpreter executable", e.Path)
}

// ExecutableNotFoundError means a directory hint contained none of the
// candidate interpreter executables.
type ExecutableNotFoundError struct {
	Dir       string
	Attempted []string
}

func (e *ExecutableNotFoundError) Error() string {
	return fmt.Sprintf("no python executable found under %q (tried: %s)", e.Dir, strings.Join(e.Attempted, ", "))
}
