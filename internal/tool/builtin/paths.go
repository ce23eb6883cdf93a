package builtin

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// errOutsideBase marks a path rejected by safeResolvePath; the caller gets
// it back as a tool error the model can correct.
var errOutsideBase = errors.New("path escapes output directory")

// safeResolvePath resolves path against baseDir and rejects results outside
// it, including prefix collisions such as base="out" vs "out-evil/x.txt".
// An empty baseDir disables the check.
func safeResolvePath(path, baseDir string) (string, error) {
	var resolved string
	switch {
	case filepath.IsAbs(path):
		resolved = filepath.Clean(path)
	case baseDir != "":
		resolved = filepath.Clean(filepath.Join(baseDir, path))
	default:
		resolved = filepath.Clean(path)
	}

	if baseDir == "" {
		return resolved, nil
	}
	absBase, err := filepath.Abs(baseDir)
	if err != nil {
		return "", fmt.Errorf("cannot resolve base directory: %w", err)
	}
	absResolved, err := filepath.Abs(resolved)
	if err != nil {
		return "", fmt.Errorf("cannot resolve target path: %w", err)
	}
	if absResolved != absBase &&
		!strings.HasPrefix(absResolved, absBase+string(os.PathSeparator)) {
		return "", fmt.Errorf("%w: %q is outside %q", errOutsideBase, path, baseDir)
	}
	return resolved, nil
}
