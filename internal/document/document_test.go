package document

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

const sampleProject = `
version: "1"
project:
  id: proj-1
  name: Demo Project
  notebooks:
    - id: nb-1
      name: Analysis
      blocks:
        - id: blk-1
          type: markdown
          sortingKey: "a0"
          content: "# Title"
        - id: blk-2
          type: code
          sortingKey: "a1"
          content: "x = 1"
          metadata:
            collapsed: false
`

func TestLoad_ParsesProjectFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "demo.deepnote")
	require.NoError(t, os.WriteFile(path, []byte(sampleProject), 0o600))

	f, err := Load(path)
	require.NoError(t, err)

	require.Equal(t, "Demo Project", f.Project.Name)
	require.Equal(t, "proj-1", f.Project.ID)
	require.Len(t, f.Project.Notebooks, 1)

	nb := f.Project.Notebooks[0]
	require.Equal(t, "Analysis", nb.Name)
	require.Len(t, nb.Blocks, 2)
	require.Equal(t, BlockTypeMarkdown, nb.Blocks[0].Type)
	require.Equal(t, "x = 1", nb.Blocks[1].Content)
	require.Equal(t, false, nb.Blocks[1].Metadata["collapsed"])
}

func TestLoad_MissingFile(t *testing.T) {
	t.Parallel()

	_, err := Load(filepath.Join(t.TempDir(), "nope.deepnote"))
	require.Error(t, err)
}

func TestSave_RoundTripsThroughLoad(t *testing.T) {
	t.Parallel()

	count := 3
	f := &File{
		Version: "1",
		Project: Project{
			ID:   "p",
			Name: "Round Trip",
			Notebooks: []Notebook{{
				Name: "nb",
				Blocks: []Block{{
					ID:             "b1",
					Type:           BlockTypeCode,
					SortingKey:     "a0",
					Content:        "print(1)",
					Outputs:        []Output{NewStreamOutput("stdout", "1\n")},
					ExecutionCount: &count,
				}},
			}},
		},
	}

	path := filepath.Join(t.TempDir(), "rt.deepnote")
	require.NoError(t, Save(path, f))

	loaded, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, f, loaded)
}

func TestIsExecutable(t *testing.T) {
	t.Parallel()

	for _, typ := range []BlockType{BlockTypeCode, BlockTypeSQL, BlockTypeInput, BlockTypeSelect, BlockTypeSlider} {
		require.True(t, IsExecutable(typ), string(typ))
	}
	for _, typ := range []BlockType{BlockTypeMarkdown, BlockTypeText, BlockTypeImage, BlockTypeChart, BlockType("unknown")} {
		require.False(t, IsExecutable(typ), string(typ))
	}
}

func TestClone_IsDeep(t *testing.T) {
	t.Parallel()

	f := &File{Project: Project{
		Name: "orig",
		Notebooks: []Notebook{{
			Name: "nb",
			Blocks: []Block{{
				ID:       "b1",
				Type:     BlockTypeCode,
				Metadata: map[string]any{"k": "v"},
				Outputs:  []Output{NewErrorOutput("E", "boom", []string{"line"})},
			}},
		}},
	}}

	clone := f.Clone()
	clone.Project.Name = "changed"
	clone.Project.Notebooks[0].Blocks[0].Metadata["k"] = "other"
	clone.Project.Notebooks[0].Blocks[0].Outputs[0].Traceback[0] = "other"

	require.Equal(t, "orig", f.Project.Name)
	require.Equal(t, "v", f.Project.Notebooks[0].Blocks[0].Metadata["k"])
	require.Equal(t, "line", f.Project.Notebooks[0].Blocks[0].Outputs[0].Traceback[0])
}

func TestRunnableSource(t *testing.T) {
	t.Parallel()

	code := Block{Type: BlockTypeCode, Content: "print(1)"}
	require.Equal(t, "print(1)", RunnableSource(code))

	input := Block{
		Type:     BlockTypeInput,
		Content:  "fallback",
		Metadata: map[string]any{"variable": "city", "value": "Oslo"},
	}
	require.Equal(t, `city = "Oslo"`, RunnableSource(input))

	slider := Block{
		Type:     BlockTypeSlider,
		Content:  "fallback",
		Metadata: map[string]any{"variable": "n", "value": 5},
	}
	require.Equal(t, "n = 5", RunnableSource(slider))

	// Bad variable names must never be spliced into source.
	bad := Block{
		Type:     BlockTypeInput,
		Content:  "fallback",
		Metadata: map[string]any{"variable": "bad-name", "value": 1},
	}
	require.Equal(t, "fallback", RunnableSource(bad))
}
