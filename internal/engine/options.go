package engine

import (
	"time"

	"github.com/deepnote/deepnote-sub005/internal/document"
)

// Options narrows and observes a single run. At most one of NotebookName and
// BlockID is expected to narrow scope; both are optional.
type Options struct {
	// NotebookName restricts the run to the notebook with this exact name.
	NotebookName string
	// BlockID restricts the run to the single executable block with this id.
	BlockID string
	// Inputs are caller-supplied values injected as literal assignments
	// before any block runs. Names must be strict identifiers.
	Inputs map[string]any
	// Snapshot requests snapshot persistence after the run. Only effective
	// for RunFile, where a source path is known.
	Snapshot bool
	// Source overrides how a block becomes kernel source text. Defaults to
	// document.RunnableSource.
	Source document.SourceFunc

	// OnBlockStart fires before each block executes, with the block's
	// position in the run plan.
	OnBlockStart func(block document.Block, index, total int)
	// OnBlockDone fires after each block finishes, successful or not.
	OnBlockDone func(result BlockResult)
	// OnOutput fires for every output as it arrives, before the owning
	// block's OnBlockDone.
	OnOutput func(block document.Block, output document.Output)
}

// BlockResult is the outcome of one attempted block. Transport errors are
// converted into a failed result carrying Err, so callers always receive one
// result per attempted block.
type BlockResult struct {
	BlockID        string
	BlockType      document.BlockType
	Success        bool
	Outputs        []document.Output
	ExecutionCount *int
	Duration       time.Duration
	Err            error
}

// Summary aggregates one run. It is recomputed each run and never persisted
// on its own.
type Summary struct {
	TotalBlocks    int
	ExecutedBlocks int
	FailedBlocks   int
	TotalDuration  time.Duration
}
