package engine

import (
	"fmt"

	"github.com/deepnote/deepnote-sub005/internal/document"
)

// NotStartedError means a run was attempted before a successful Start.
type NotStartedError struct{}

func (e *NotStartedError) Error() string {
	return "execution engine has not been started"
}

// InvalidInputNameError means a caller-supplied input name failed the strict
// identifier check. Names are spliced into kernel source, so anything outside
// the identifier pattern is rejected before any execution happens.
type InvalidInputNameError struct {
	Name string
}

func (e *InvalidInputNameError) Error() string {
	return fmt.Sprintf("invalid input name %q: input names must match [A-Za-z_][A-Za-z0-9_]*", e.Name)
}

// InputInjectionError means the combined input assignment statement itself
// failed to execute. No blocks ran.
type InputInjectionError struct {
	// ErrorOutput is the captured kernel error, when the kernel reported one.
	ErrorOutput *document.Output
	// Err is the underlying transport or conversion error, when there is one.
	Err error
}

func (e *InputInjectionError) Error() string {
	if e.ErrorOutput != nil {
		return fmt.Sprintf("input injection failed: %s: %s", e.ErrorOutput.ErrorName, e.ErrorOutput.ErrorMessage)
	}
	return fmt.Sprintf("input injection failed: %v", e.Err)
}

func (e *InputInjectionError) Unwrap() error {
	return e.Err
}

// NotebookNotFoundError means the notebook filter matched nothing.
type NotebookNotFoundError struct {
	Name string
}

func (e *NotebookNotFoundError) Error() string {
	return fmt.Sprintf("notebook %q not found in project", e.Name)
}

// BlockNotFoundError means the block filter matched no block at all.
type BlockNotFoundError struct {
	ID string
}

func (e *BlockNotFoundError) Error() string {
	return fmt.Sprintf("block %q not found in project", e.ID)
}

// NotExecutableError means the block filter matched a block that exists but
// whose type the kernel cannot run. This is deliberately distinct from
// BlockNotFoundError so callers can tell "wrong type" from "does not exist".
type NotExecutableError struct {
	ID   string
	Type document.BlockType
}

func (e *NotExecutableError) Error() string {
	return fmt.Sprintf("block %q is of type %q, which is not executable", e.ID, e.Type)
}
