// Package output writes rendered graphs so that a destination file is either
// fully replaced or left untouched.
package output

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// Stdout is the destination name that writes to standard output.
const Stdout = "-"

// Error reports a failed write to Path.
type Error struct {
	Path string
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("writing %s: %v", e.Path, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// WriteFile writes data to path, or to standard output when path is "-".
func WriteFile(path string, data []byte, perm os.FileMode) error {
	return Write(os.Stdout, path, data, perm)
}

// Write is WriteFile with an explicit stream for the "-" destination.
func Write(stdout io.Writer, path string, data []byte, perm os.FileMode) error {
	if path == Stdout {
		if _, err := stdout.Write(data); err != nil {
			return &Error{Path: "stdout", Err: err}
		}
		return nil
	}
	if err := atomicWriteFile(path, data, perm); err != nil {
		return &Error{Path: path, Err: err}
	}
	return nil
}

// atomicWriteFile writes to a temp file in the destination directory, then
// renames it over path. The temp file is removed on any failure.
func atomicWriteFile(path string, content []byte, perm os.FileMode) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating directory: %w", err)
	}
	if info, err := os.Stat(path); err == nil && info.IsDir() {
		return fmt.Errorf("%s is a directory", path)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmp.Name()

	success := false
	defer func() {
		if !success {
			os.Remove(tmpPath)
		}
	}()

	if _, err := tmp.Write(content); err != nil {
		tmp.Close()
		return fmt.Errorf("writing content: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("syncing to disk: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing temp file: %w", err)
	}
	if err := os.Chmod(tmpPath, perm); err != nil {
		return fmt.Errorf("setting permissions: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("renaming temp file: %w", err)
	}

	success = true
	return nil
}
