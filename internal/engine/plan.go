package engine

import (
	"sort"

	"github.com/deepnote/deepnote-sub005/internal/document"
)

// buildPlan computes the deterministic execution order for a run: notebooks
// are selected (all, or the one matching notebookName exactly), each
// notebook's blocks are stably sorted by sortingKey, non-executable blocks
// are dropped, and an optional block id filter is applied last.
//
// When the block filter empties the plan, the unfiltered blocks decide which
// error to report: a matching id of a non-executable type is a
// NotExecutableError naming that type; no matching id at all is a
// BlockNotFoundError. Callers rely on that distinction.
func buildPlan(doc *document.File, notebookName, blockID string) ([]document.Block, error) {
	notebooks := doc.Project.Notebooks
	if notebookName != "" {
		var selected []document.Notebook
		for _, nb := range notebooks {
			if nb.Name == notebookName {
				selected = append(selected, nb)
			}
		}
		if len(selected) == 0 {
			return nil, &NotebookNotFoundError{Name: notebookName}
		}
		notebooks = selected
	}

	var planned []document.Block
	var unfiltered []document.Block
	for _, nb := range notebooks {
		blocks := append([]document.Block(nil), nb.Blocks...)
		// Ties on sortingKey are not expected, but a stable sort keeps them
		// harmless and the order reproducible.
		sort.SliceStable(blocks, func(i, j int) bool {
			return blocks[i].SortingKey < blocks[j].SortingKey
		})
		unfiltered = append(unfiltered, blocks...)
		for _, b := range blocks {
			if !document.IsExecutable(b.Type) {
				continue
			}
			if blockID != "" && b.ID != blockID {
				continue
			}
			planned = append(planned, b)
		}
	}

	if blockID != "" && len(planned) == 0 {
		for _, b := range unfiltered {
			if b.ID == blockID {
				return nil, &NotExecutableError{ID: blockID, Type: b.Type}
			}
		}
		return nil, &BlockNotFoundError{ID: blockID}
	}
	return planned, nil
}
