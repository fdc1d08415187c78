package journal

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/GrahLnn/slisic/internal/atomicfile"
)

// NodeDir returns the working directory for a node, nested by its
// ancestor id chain: <workRoot>/<ancestor1>/.../<nodeID>.
func NodeDir(workRoot string, ancestorIDs []string, nodeID string) string {
	parts := append([]string{workRoot}, ancestorIDs...)
	parts = append(parts, nodeID)
	return filepath.Join(parts...)
}

// StatePathFor is the state.json path inside a node directory.
func StatePathFor(nodeDir string) string {
	return filepath.Join(nodeDir, "state.json")
}

// Load reads the state.json inside dir. Returns os.ErrNotExist
// (wrapped) if no snapshot exists yet.
func Load(dir string) (State, error) {
	var s State
	err := atomicfile.ReadJSON(StatePathFor(dir), &s)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return s, err
		}
		return s, fmt.Errorf("%w: %v", ErrJournalIO, err)
	}
	return s, nil
}

// Save writes s to dir's state.json using the atomic write protocol.
func Save(dir string, s State) error {
	s.UpdatedMs = NowMs()
	if err := atomicfile.WriteJSON(StatePathFor(dir), s); err != nil {
		return fmt.Errorf("%w: %v", ErrJournalIO, err)
	}
	return nil
}

// Mutate implements the journal's write protocol end to end: acquire
// the node's exclusive lock, load the current snapshot (or synthesise
// one via init if absent), apply mutate, persist, release the lock.
func Mutate(dir string, init func() State, mutate func(*State)) (State, error) {
	guard, err := Lock(dir)
	if err != nil {
		return State{}, err
	}
	defer guard.Unlock()

	state, err := Load(dir)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return State{}, err
		}
		state = init()
	}

	mutate(&state)

	if err := Save(dir, state); err != nil {
		return State{}, err
	}
	return state, nil
}

// LeafFileExists reports whether the file recorded for a leaf's most
// recent ChildLeaf still exists on disk. A leaf node is idempotent when
// this is true: the pipeline short-circuits instead of re-downloading.
func LeafFileExists(s State) bool {
	if len(s.Children) == 0 {
		return false
	}
	last := s.Children[len(s.Children)-1]
	if last.File == nil {
		return false
	}
	_, err := os.Stat(*last.File)
	return err == nil
}
