// Package pathutil confines file paths supplied by remote callers to
// known directories.
package pathutil

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ErrOutside is returned when a path escapes every allowed directory.
var ErrOutside = errors.New("outside allowed directories")

// RedactPath reduces a full path to .../<parent>/<basename> for error messages.
// For example, "/home/user/data/eeg.mat" becomes ".../data/eeg.mat".
func RedactPath(path string) string {
	if path == "" {
		return ""
	}
	cleaned := filepath.Clean(path)
	parent := filepath.Base(filepath.Dir(cleaned))
	if parent == "." || parent == string(filepath.Separator) {
		return filepath.Base(cleaned)
	}
	return ".../" + parent + "/" + filepath.Base(cleaned)
}

// ValidatePath checks that path lies inside one of allowedDirs once symlinks
// are resolved. The file itself need not exist.
func ValidatePath(path string, allowedDirs []string) error {
	_, err := resolve(path, allowedDirs)
	return err
}

// ResolveFile validates path like ValidatePath and also requires an existing
// regular file. It returns the resolved absolute path.
func ResolveFile(path string, allowedDirs []string) (string, error) {
	resolved, err := resolve(path, allowedDirs)
	if err != nil {
		return "", err
	}
	info, err := os.Stat(resolved)
	if err != nil {
		return "", fmt.Errorf("path validation failed: %s: %w", RedactPath(resolved), err)
	}
	if !info.Mode().IsRegular() {
		return "", fmt.Errorf("path validation failed: %s is not a regular file", RedactPath(resolved))
	}
	return resolved, nil
}

// AllowedDataDirs returns the directories remote callers may read data files
// from: the project root and any extra directories given.
func AllowedDataDirs(projectRoot string, extra ...string) []string {
	dirs := []string{projectRoot}
	for _, d := range extra {
		if d != "" {
			dirs = append(dirs, d)
		}
	}
	return dirs
}

func resolve(path string, allowedDirs []string) (string, error) {
	switch {
	case path == "":
		return "", errors.New("path validation failed: path is empty")
	case len(allowedDirs) == 0:
		return "", errors.New("path validation failed: no allowed directories configured")
	case strings.ContainsRune(path, '\x00'):
		return "", errors.New("path validation failed: path contains null byte")
	}

	absPath, err := filepath.Abs(filepath.Clean(path))
	if err != nil {
		return "", fmt.Errorf("path validation failed: cannot resolve absolute path: %w", err)
	}

	// Resolve the parent so a symlinked directory inside an allowed tree
	// cannot point outside it.
	resolvedDir, err := resolveExistingParent(filepath.Dir(absPath))
	if err != nil {
		return "", fmt.Errorf("path validation failed: cannot resolve parent directory: %w", err)
	}
	resolved := filepath.Join(resolvedDir, filepath.Base(absPath))
	if info, err := os.Lstat(resolved); err == nil && info.Mode()&os.ModeSymlink != 0 {
		if target, err := filepath.EvalSymlinks(resolved); err == nil {
			resolved = target
		}
	}

	for _, allowed := range allowedDirs {
		allowedAbs, err := filepath.Abs(filepath.Clean(allowed))
		if err != nil {
			continue
		}
		allowedResolved, err := resolveExistingParent(allowedAbs)
		if err != nil {
			continue
		}
		if isSubpath(resolved, allowedResolved) {
			return resolved, nil
		}
	}

	return "", fmt.Errorf("path validation failed: %q is %w", RedactPath(absPath), ErrOutside)
}

// resolveExistingParent resolves symlinks on the deepest existing ancestor
// of dir and re-appends the missing tail.
func resolveExistingParent(dir string) (string, error) {
	if resolved, err := filepath.EvalSymlinks(dir); err == nil {
		return resolved, nil
	}

	parent := filepath.Dir(dir)
	if parent == dir {
		return "", fmt.Errorf("cannot resolve path: %s", RedactPath(dir))
	}

	resolvedParent, err := resolveExistingParent(parent)
	if err != nil {
		return "", err
	}
	return filepath.Join(resolvedParent, filepath.Base(dir)), nil
}

// isSubpath reports whether path is base or lies under it.
func isSubpath(path, base string) bool {
	if path == base {
		return true
	}
	return strings.HasPrefix(path, base+string(os.PathSeparator))
}
