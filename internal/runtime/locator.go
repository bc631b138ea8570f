package runtime

import (
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"
)

// bareAllowList is the small fixed set of bare command names that may be
// delegated to the OS search path unchanged.
var bareAllowList = map[string]bool{
	"python3": true,
	"python":  true,
}

// executablePattern is the cheap identity check applied to a direct file
// hint: the basename has to look like a Python interpreter.
var executablePattern = regexp.MustCompile(`^python(\d+(\.\d+)*)?(\.exe)?$`)

// binDirName returns the platform's executable subdirectory inside a virtual
// environment root.
func binDirName() string {
	if runtime.GOOS == "windows" {
		return "Scripts"
	}
	return "bin"
}

// candidateNames returns the interpreter names searched inside a bin
// directory, in preference order.
func candidateNames() []string {
	if runtime.GOOS == "windows" {
		return []string{"python.exe", "python3.exe"}
	}
	return []string{"python3", "python"}
}

// Resolve turns hint into a concrete interpreter executable path.
//
// A hint naming a directory is treated either as a bin-style directory
// containing the interpreter directly, or as a virtual-environment root
// containing such a subdirectory. A hint naming an executable file is
// accepted as-is when its name plausibly identifies a Python interpreter. A
// bare command name without path separators is returned unchanged for PATH
// lookup, but only for the fixed allow-list.
func Resolve(hint string) (string, error) {
	if hint == "" {
		return "", &NotFoundError{Hint: hint}
	}

	info, statErr := os.Stat(hint)
	if statErr != nil {
		if !strings.ContainsAny(hint, `/\`) && bareAllowList[hint] {
			return hint, nil
		}
		return "", &NotFoundError{Hint: hint}
	}

	if !info.IsDir() {
		if executablePattern.MatchString(filepath.Base(hint)) {
			return hint, nil
		}
		return "", &InvalidPathError{Path: hint}
	}

	// Directory hint: try it as a bin directory first, then as an
	// environment root wrapping one.
	if path, ok := searchBinDir(hint); ok {
		return path, nil
	}
	sub := filepath.Join(hint, binDirName())
	if subInfo, err := os.Stat(sub); err == nil && subInfo.IsDir() {
		if path, ok := searchBinDir(sub); ok {
			return path, nil
		}
	}
	return "", &ExecutableNotFoundError{Dir: hint, Attempted: candidateNames()}
}

// searchBinDir looks for the candidate interpreter names directly inside dir.
func searchBinDir(dir string) (string, bool) {
	for _, name := range candidateNames() {
		path := filepath.Join(dir, name)
		if info, err := os.Stat(path); err == nil && !info.IsDir() {
			return path, true
		}
	}
	return "", false
}
