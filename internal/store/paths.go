// Package store provides the SQLite index of imported time series and the
// topologies they reference.
package store

import (
	"fmt"
	"os"
	"path/filepath"
)

const (
	// DirName is the data directory created under a project root.
	DirName = ".tsimport"
	// DBName is the index database file inside DirName.
	DBName = "tsimport.db"
	// StorageDirName holds the HDF5 containers inside DirName.
	StorageDirName = "storage"
	// ImportLogName is the JSONL import event log inside DirName.
	ImportLogName = "imports.jsonl"
)

// GlobalPath returns the path to the global .tsimport directory.
// On Unix: ~/.tsimport
// On Windows: %USERPROFILE%\.tsimport
func GlobalPath() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}
	return filepath.Join(homeDir, DirName), nil
}

// LocalPath returns the .tsimport directory for the given project root.
func LocalPath(projectRoot string) string {
	return filepath.Join(projectRoot, DirName)
}

// EnsureGlobalDir creates the global .tsimport directory if it doesn't exist.
func EnsureGlobalDir() error {
	globalPath, err := GlobalPath()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(globalPath, 0755); err != nil {
		return fmt.Errorf("failed to create global %s directory: %w", DirName, err)
	}
	return nil
}
