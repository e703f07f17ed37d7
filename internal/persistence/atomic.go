package persistence

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// atomicWrite writes via write, then fsyncs and renames into place, so a
// crash mid-write never leaves a half-written file at path (spec.md
// §4.7: "All writes are atomic (write-to-temp then rename; fsync before
// rename)").
func atomicWrite(path string, write func(w io.Writer) error) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("persistence: create temp file for %s: %w", path, err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath) // no-op once the rename below succeeds

	if err := write(tmp); err != nil {
		tmp.Close()
		return fmt.Errorf("persistence: write %s: %w", path, err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("persistence: fsync %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("persistence: close %s: %w", path, err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("persistence: rename into %s: %w", path, err)
	}
	return nil
}
