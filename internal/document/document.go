package document

import "time"

// BlockType tags the kind of content a block holds. Only a fixed subset of
// types is executable by the kernel; everything else is presentation-only.
type BlockType string

const (
	BlockTypeCode     BlockType = "code"
	BlockTypeSQL      BlockType = "sql"
	BlockTypeInput    BlockType = "input"
	BlockTypeSelect   BlockType = "select"
	BlockTypeSlider   BlockType = "slider"
	BlockTypeMarkdown BlockType = "markdown"
	BlockTypeText     BlockType = "text"
	BlockTypeImage    BlockType = "image"
	BlockTypeChart    BlockType = "chart"
)

// executableTypes is the fixed set of block types the kernel can run.
// Membership here, not block metadata, decides executability.
var executableTypes = map[BlockType]struct{}{
	BlockTypeCode:   {},
	BlockTypeSQL:    {},
	BlockTypeInput:  {},
	BlockTypeSelect: {},
	BlockTypeSlider: {},
}

// IsExecutable reports whether blocks of the given type can be submitted to
// the kernel.
func IsExecutable(t BlockType) bool {
	_, ok := executableTypes[t]
	return ok
}

// File is the top-level shape of a project file on disk.
type File struct {
	Version string  `yaml:"version,omitempty"`
	Project Project `yaml:"project"`
}

// Project is an ordered collection of notebooks plus identity metadata.
type Project struct {
	ID        string           `yaml:"id,omitempty"`
	Name      string           `yaml:"name,omitempty"`
	Notebooks []Notebook       `yaml:"notebooks"`
	Execution *ExecutionTiming `yaml:"execution,omitempty"`
}

// Notebook is an ordered collection of blocks.
type Notebook struct {
	ID     string  `yaml:"id,omitempty"`
	Name   string  `yaml:"name"`
	Blocks []Block `yaml:"blocks"`
}

// Block is one unit of notebook content. SortingKey defines the execution
// order within a notebook via plain lexicographic comparison.
type Block struct {
	ID             string         `yaml:"id"`
	Type           BlockType      `yaml:"type"`
	SortingKey     string         `yaml:"sortingKey,omitempty"`
	Content        string         `yaml:"content,omitempty"`
	Metadata       map[string]any `yaml:"metadata,omitempty"`
	Outputs        []Output       `yaml:"outputs,omitempty"`
	ExecutionCount *int           `yaml:"executionCount,omitempty"`
}

// ExecutionTiming records when a run started and finished. It is attached at
// the project level when a snapshot is written.
type ExecutionTiming struct {
	StartedAt  time.Time `yaml:"startedAt"`
	FinishedAt time.Time `yaml:"finishedAt"`
}

// Clone returns a deep copy of the file. Snapshot merging works on clones so
// the loaded document is never mutated.
func (f *File) Clone() *File {
	if f == nil {
		return nil
	}
	out := &File{Version: f.Version}
	out.Project = f.Project.clone()
	return out
}

func (p Project) clone() Project {
	out := Project{ID: p.ID, Name: p.Name}
	if p.Execution != nil {
		timing := *p.Execution
		out.Execution = &timing
	}
	if p.Notebooks != nil {
		out.Notebooks = make([]Notebook, len(p.Notebooks))
		for i, nb := range p.Notebooks {
			out.Notebooks[i] = nb.clone()
		}
	}
	return out
}

func (n Notebook) clone() Notebook {
	out := Notebook{ID: n.ID, Name: n.Name}
	if n.Blocks != nil {
		out.Blocks = make([]Block, len(n.Blocks))
		for i, b := range n.Blocks {
			out.Blocks[i] = b.Clone()
		}
	}
	return out
}

// Clone returns a deep copy of the block.
func (b Block) Clone() Block {
	out := b
	if b.Metadata != nil {
		out.Metadata = make(map[string]any, len(b.Metadata))
		for k, v := range b.Metadata {
			out.Metadata[k] = v
		}
	}
	if b.Outputs != nil {
		out.Outputs = make([]Output, len(b.Outputs))
		for i, o := range b.Outputs {
			out.Outputs[i] = o.Clone()
		}
	}
	if b.ExecutionCount != nil {
		count := *b.ExecutionCount
		out.ExecutionCount = &count
	}
	return out
}
