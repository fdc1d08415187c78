package journal

import (
	"fmt"
	"os"

	"golang.org/x/sys/unix"
)

// Guard holds an exclusive advisory lock on one node's lock file for
// the duration of a read-modify-write of state.json. Released by
// Unlock, which also closes the underlying file descriptor (flock is
// released implicitly on close, but we unlock explicitly first so the
// intent reads clearly at the call site).
type Guard struct {
	file *os.File
}

// Lock acquires the exclusive lock for dir's "lock" file, creating dir
// and the lock file if needed. Blocks until the lock is available: a
// child node re-acquiring its parent's lock to bump progress must wait
// its turn rather than fail, per the "serialised by the node's
// exclusive lock" ordering guarantee.
func Lock(dir string) (*Guard, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("%w: mkdir %s: %v", ErrJournalIO, dir, err)
	}

	path := dir + "/lock"
	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0o644)
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %v", ErrJournalIO, path, err)
	}

	if err := unix.Flock(int(f.Fd()), unix.LOCK_EX); err != nil {
		f.Close()
		return nil, fmt.Errorf("%w: flock %s: %v", ErrJournalIO, path, err)
	}

	return &Guard{file: f}, nil
}

// Unlock releases the lock and closes the lock file.
func (g *Guard) Unlock() error {
	_ = unix.Flock(int(g.file.Fd()), unix.LOCK_UN)
	return g.file.Close()
}
