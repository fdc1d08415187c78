// Package atomicfile implements the write-tmp/fsync/rename/fsync-dir
// protocol used by both the graph store's snapshot file and the job
// journal's per-node state.json.
package atomicfile

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"golang.org/x/sys/unix"
)

// WriteJSON serialises v to path using the atomic write protocol:
// write to a sibling .tmp file, fsync it, rename over path, then fsync
// the containing directory on platforms that support it.
func WriteJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("mkdir %s: %w", dir, err)
	}

	tmp := path + ".tmp"
	f, err := os.OpenFile(tmp, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return fmt.Errorf("open %s: %w", tmp, err)
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w", tmp, err)
	}
	if err := f.Sync(); err != nil {
		f.Close()
		return fmt.Errorf("fsync %s: %w", tmp, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close %s: %w", tmp, err)
	}

	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("rename %s -> %s: %w", tmp, path, err)
	}

	return fsyncDir(dir)
}

// ReadJSON loads and unmarshals path into v. It returns os.ErrNotExist
// (wrapped) when the file does not exist, so callers can treat a
// missing snapshot as an empty one.
func ReadJSON(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, v)
}

// fsyncDir fsyncs a directory so that the rename above is durable
// across a crash, not just the file content. Best-effort: some
// filesystems/platforms don't support fsync on a directory fd, and
// a failure here is not treated as fatal to the caller's write.
func fsyncDir(dir string) error {
	fd, err := unix.Open(dir, unix.O_RDONLY|unix.O_DIRECTORY, 0)
	if err != nil {
		return nil
	}
	defer unix.Close(fd)
	_ = unix.Fsync(fd)
	return nil
}
