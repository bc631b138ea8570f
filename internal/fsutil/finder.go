// Package fsutil provides file system utility functions.
package fsutil

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// FindFilesByExtension recursively searches the given root path for all files
// ending with the specified extension. It returns a slice of their full
// paths, sorted for determinism.
func FindFilesByExtension(rootPath string, extension string) ([]string, error) {
	if extension == "" {
		panic("extension must not be empty")
	}

	var files []string
	err := filepath.WalkDir(rootPath, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && strings.HasSuffix(d.Name(), extension) {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Strings(files)
	return files, nil
}

// ResolveProjectFile accepts either a project file path or a directory
// containing exactly one project file, and returns the file path. Multiple
// candidates are ambiguous and reported as an error rather than guessed at.
func ResolveProjectFile(path string, extension string) (string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return "", fmt.Errorf("project path %s: %w", path, err)
	}
	if !info.IsDir() {
		return path, nil
	}

	candidates, err := FindFilesByExtension(path, extension)
	if err != nil {
		return "", err
	}
	switch len(candidates) {
	case 0:
		return "", fmt.Errorf("no %s file found under %s", extension, path)
	case 1:
		return candidates[0], nil
	default:
		return "", fmt.Errorf("multiple %s files found under %s, pass one explicitly", extension, path)
	}
}
