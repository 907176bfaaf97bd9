// Package filex contains filesystem helpers for the attachment spool:
// stored binary payloads are materialized to a temporary file just long
// enough to be uploaded during queue replay.
package filex

import (
	"fmt"
	"os"
	"path/filepath"
)

// EnsureDir creates dir (and parents) if missing and returns its path.
func EnsureDir(dir string) (string, error) {
	if err := os.MkdirAll(dir, 0o770); err != nil {
		return "", fmt.Errorf("mkdir %s: %w", dir, err)
	}
	return dir, nil
}

// Materialize writes data to a new file named name inside dir and returns
// the full path. The caller owns the file and is expected to remove it
// with Discard once the upload attempt finishes, whatever the outcome.
func Materialize(dir, name string, data []byte) (string, error) {
	d, err := EnsureDir(dir)
	if err != nil {
		return "", err
	}

	path := filepath.Join(d, name)

	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("error creating file: %w", err)
	}
	defer f.Close()

	if _, err := f.Write(data); err != nil {
		return "", fmt.Errorf("error writing temporary file: %w", err)
	}

	return path, nil
}

// Discard removes a materialized file. A missing file is not an error.
func Discard(path string) error {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("error removing temporary file: %w", err)
	}
	return nil
}
