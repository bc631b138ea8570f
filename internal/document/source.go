package document

import (
	"github.com/deepnote/deepnote-sub005/internal/pyliteral"
)

// SourceFunc turns one block into kernel-executable source text. The engine
// treats the returned text as opaque.
type SourceFunc func(Block) string

// RunnableSource is the default SourceFunc. Code and query blocks run their
// content verbatim. Interactive-input blocks (input, select, slider) declare
// a variable and a value in their metadata; those become a single assignment
// so downstream blocks can read the variable. Blocks without usable metadata
// fall back to their raw content.
func RunnableSource(b Block) string {
	switch b.Type {
	case BlockTypeInput, BlockTypeSelect, BlockTypeSlider:
		name, _ := b.Metadata["variable"].(string)
		if !pyliteral.ValidName(name) {
			return b.Content
		}
		value, ok := b.Metadata["value"]
		if !ok {
			return b.Content
		}
		literal, err := pyliteral.Convert(value)
		if err != nil {
			return b.Content
		}
		return name + " = " + literal
	default:
		return b.Content
	}
}
