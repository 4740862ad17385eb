// Package fsutil provides utility functions for working with the filesystem.
package fsutil

import (
	"io"
	"os"
	"path/filepath"
)

// CopyFile copies a single file from src to dest, creating dest's parent
// directories. The copy lands atomically.
func CopyFile(src, dest string) error {
	sourceFile, err := os.Open(src)
	if err != nil {
		return err
	}
	defer sourceFile.Close()

	return WriteFileAtomic(dest, func(f *os.File) error {
		_, err := io.Copy(f, sourceFile)
		return err
	})
}

// WriteFileAtomic writes a file using a randomized temp file in the target
// directory followed by a rename. write is called with the temp file.
func WriteFileAtomic(path string, write func(*os.File) error) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	tmpFile, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return err
	}
	tmpPath := tmpFile.Name()

	success := false
	defer func() {
		if !success {
			os.Remove(tmpPath)
		}
	}()

	if err := write(tmpFile); err != nil {
		tmpFile.Close()
		return err
	}
	if err := tmpFile.Chmod(0644); err != nil {
		tmpFile.Close()
		return err
	}
	if err := tmpFile.Close(); err != nil {
		return err
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return err
	}

	success = true
	return nil
}

// WriteFileAtomicBytes is a convenience wrapper for writing byte slices atomically.
func WriteFileAtomicBytes(path string, data []byte) error {
	return WriteFileAtomic(path, func(f *os.File) error {
		_, err := f.Write(data)
		return err
	})
}
