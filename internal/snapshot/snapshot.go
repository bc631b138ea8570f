package snapshot

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/deepnote/deepnote-sub005/internal/document"
)

// LatestSuffix is the filename suffix of the always-overwritten snapshot.
const LatestSuffix = "latest"

// fallbackSlug is used when a project name slugs down to nothing.
const fallbackSlug = "project"

// BlockOutputs carries the execution outcome merged into one block.
type BlockOutputs struct {
	Outputs        []document.Output
	ExecutionCount *int
}

// SavedSnapshot names the two files written by Save.
type SavedSnapshot struct {
	Path            string
	TimestampedPath string
}

// MergeOutputs returns a structurally new document with per-block outputs and
// execution counters merged in and the run timing attached at the project
// level. Blocks absent from results are carried over untouched; the input
// document is never modified.
func MergeOutputs(doc *document.File, results map[string]BlockOutputs, timing document.ExecutionTiming) *document.File {
	merged := doc.Clone()
	merged.Project.Execution = &document.ExecutionTiming{
		StartedAt:  timing.StartedAt,
		FinishedAt: timing.FinishedAt,
	}
	for ni := range merged.Project.Notebooks {
		blocks := merged.Project.Notebooks[ni].Blocks
		for bi := range blocks {
			result, ok := results[blocks[bi].ID]
			if !ok {
				continue
			}
			blocks[bi].Outputs = append([]document.Output(nil), result.Outputs...)
			// A nil counter stays absent rather than serializing as null.
			blocks[bi].ExecutionCount = nil
			if result.ExecutionCount != nil {
				count := *result.ExecutionCount
				blocks[bi].ExecutionCount = &count
			}
		}
	}
	return merged
}

// nonAlphanumeric matches every run of characters that cannot appear in a
// snapshot slug.
var nonAlphanumeric = regexp.MustCompile(`[^a-z0-9]+`)

// Slugify lowercases the project name, collapses every run of
// non-alphanumeric characters to a single hyphen, and trims leading and
// trailing hyphens. An empty result falls back to "project".
func Slugify(name string) string {
	slug := nonAlphanumeric.ReplaceAllString(strings.ToLower(name), "-")
	slug = strings.Trim(slug, "-")
	if slug == "" {
		return fallbackSlug
	}
	return slug
}

// ComputePath derives the snapshot path for the given suffix: snapshots live
// in a "snapshots" subdirectory of the source file's directory, named
// <slug>_<projectID>_<suffix>.snapshot.<ext>.
func ComputePath(sourcePath string, doc *document.File, suffix string) string {
	ext := strings.TrimPrefix(filepath.Ext(sourcePath), ".")
	name := fmt.Sprintf("%s_%s_%s.snapshot.%s", Slugify(doc.Project.Name), doc.Project.ID, suffix, ext)
	return filepath.Join(filepath.Dir(sourcePath), "snapshots", name)
}

// TimestampSuffix renders a finish time as a filesystem-safe suffix: colons
// are not allowed in paths on all platforms, so they become hyphens.
func TimestampSuffix(finishedAt time.Time) string {
	return strings.ReplaceAll(finishedAt.UTC().Format(time.RFC3339), ":", "-")
}

// Save merges results into doc and writes the snapshot twice: the latest
// file is overwritten unconditionally, and a timestamped file is written
// alongside it. Repeated saves never collide on the timestamped name as long
// as timing.FinishedAt differs. A failure after the latest file was written
// is not rolled back.
func Save(sourcePath string, doc *document.File, results map[string]BlockOutputs, timing document.ExecutionTiming) (*SavedSnapshot, error) {
	merged := MergeOutputs(doc, results, timing)

	raw, err := document.Marshal(merged)
	if err != nil {
		return nil, err
	}

	latestPath := ComputePath(sourcePath, doc, LatestSuffix)
	timestampedPath := ComputePath(sourcePath, doc, TimestampSuffix(timing.FinishedAt))

	if err := os.MkdirAll(filepath.Dir(latestPath), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create snapshots directory: %w", err)
	}
	if err := os.WriteFile(latestPath, raw, 0o644); err != nil {
		return nil, fmt.Errorf("failed to write latest snapshot: %w", err)
	}
	if err := os.WriteFile(timestampedPath, raw, 0o644); err != nil {
		return nil, fmt.Errorf("failed to write timestamped snapshot: %w", err)
	}

	return &SavedSnapshot{Path: latestPath, TimestampedPath: timestampedPath}, nil
}
