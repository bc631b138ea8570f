package engine

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/deepnote/deepnote-sub005/internal/document"
)

func planDoc() *document.File {
	return &document.File{Project: document.Project{
		Name: "p",
		Notebooks: []document.Notebook{
			{
				Name: "First",
				Blocks: []document.Block{
					{ID: "a2", Type: document.BlockTypeCode, SortingKey: "b"},
					{ID: "a1", Type: document.BlockTypeCode, SortingKey: "a"},
					{ID: "md", Type: document.BlockTypeMarkdown, SortingKey: "aa"},
				},
			},
			{
				Name: "Second",
				Blocks: []document.Block{
					{ID: "b1", Type: document.BlockTypeSQL, SortingKey: "z"},
				},
			},
		},
	}}
}

func planIDs(t *testing.T, doc *document.File, notebook, block string) []string {
	t.Helper()
	planned, err := buildPlan(doc, notebook, block)
	require.NoError(t, err)
	ids := make([]string, len(planned))
	for i, b := range planned {
		ids[i] = b.ID
	}
	return ids
}

func TestBuildPlan_FullProjectOrder(t *testing.T) {
	t.Parallel()

	// Sorted by sortingKey within each notebook, notebook order preserved,
	// non-executable blocks dropped.
	require.Equal(t, []string{"a1", "a2", "b1"}, planIDs(t, planDoc(), "", ""))
}

func TestBuildPlan_StableOnTies(t *testing.T) {
	t.Parallel()

	doc := &document.File{Project: document.Project{Notebooks: []document.Notebook{{
		Name: "nb",
		Blocks: []document.Block{
			{ID: "first", Type: document.BlockTypeCode, SortingKey: "same"},
			{ID: "second", Type: document.BlockTypeCode, SortingKey: "same"},
		},
	}}}}

	require.Equal(t, []string{"first", "second"}, planIDs(t, doc, "", ""))
}

func TestBuildPlan_NotebookFilter(t *testing.T) {
	t.Parallel()

	require.Equal(t, []string{"b1"}, planIDs(t, planDoc(), "Second", ""))

	_, err := buildPlan(planDoc(), "Nope", "")
	var notFound *NotebookNotFoundError
	require.ErrorAs(t, err, &notFound)
	require.Contains(t, err.Error(), "Nope")
}

func TestBuildPlan_BlockFilter(t *testing.T) {
	t.Parallel()

	require.Equal(t, []string{"a2"}, planIDs(t, planDoc(), "", "a2"))
}

func TestBuildPlan_BlockFilterWrongTypeVsMissing(t *testing.T) {
	t.Parallel()

	// The block exists but the kernel cannot run its type.
	_, err := buildPlan(planDoc(), "", "md")
	var notExecutable *NotExecutableError
	require.ErrorAs(t, err, &notExecutable)
	require.Equal(t, document.BlockTypeMarkdown, notExecutable.Type)
	require.Contains(t, err.Error(), "markdown")

	// The block does not exist at all.
	_, err = buildPlan(planDoc(), "", "ghost")
	var missing *BlockNotFoundError
	require.ErrorAs(t, err, &missing)
}
