package document

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Load reads and parses a project file. The returned document is meant to be
// treated as read-only by callers.
func Load(path string) (*File, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read project file %s: %w", path, err)
	}
	var f File
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("failed to parse project file %s: %w", path, err)
	}
	return &f, nil
}

// Marshal serializes a document in the same format Load accepts, so snapshot
// files round-trip through the same parser as source files.
func Marshal(f *File) ([]byte, error) {
	raw, err := yaml.Marshal(f)
	if err != nil {
		return nil, fmt.Errorf("failed to serialize project document: %w", err)
	}
	return raw, nil
}

// Save writes a document to path in the on-disk project format.
func Save(path string, f *File) error {
	raw, err := Marshal(f)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		return fmt.Errorf("failed to write project file %s: %w", path, err)
	}
	return nil
}
