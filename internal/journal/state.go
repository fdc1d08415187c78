// Package journal implements the crash-safe per-node job journal: an
// on-disk state tree with atomic updates and exclusive locks that lets
// an aborted ingestion resume idempotently on next launch.
package journal

import (
	"time"

	"github.com/GrahLnn/slisic/internal/domain"
)

// ChildLeaf records one completed single inside that single's own
// journal node.
type ChildLeaf struct {
	ID     string            `json:"id"`
	URL    string            `json:"url"`
	Title  string            `json:"title"`
	Status domain.NodeStatus `json:"status"`
	File   *string           `json:"file,omitempty"`
	Error  *string           `json:"error,omitempty"`
}

// State is the full snapshot of one pipeline node.
type State struct {
	RootID         string            `json:"root_id"`
	URL            string            `json:"url"`
	Title          string            `json:"title"`
	Status         domain.NodeStatus `json:"status"`
	ProgressDone   uint32            `json:"progress_done"`
	ProgressTotal  uint32            `json:"progress_total"`
	Error          *string           `json:"error,omitempty"`
	UpdatedMs      int64             `json:"updated_ms"`
	Children       []ChildLeaf       `json:"children,omitempty"`
}

// NowMs is the current time in milliseconds since the Unix epoch,
// matching original_source's now_ms().
func NowMs() int64 {
	return time.Now().UnixNano() / int64(time.Millisecond)
}

// NewState synthesises the initial snapshot for a node that has no
// state.json yet.
func NewState(rootID, url, title string) State {
	return State{
		RootID: rootID,
		URL:    url,
		Title:  title,
		Status: domain.StatusPending,
	}
}

// SetError records a failure and marks the node err.
func (s *State) SetError(msg string) {
	s.Status = domain.StatusErr
	s.Error = &msg
}

// IncrementProgress bumps ProgressDone by one, saturating at
// ProgressTotal, and marks the node ok once done reaches total.
func (s *State) IncrementProgress() {
	if s.ProgressTotal == 0 {
		s.ProgressTotal = 1
	}
	if s.ProgressDone < s.ProgressTotal {
		s.ProgressDone++
	}
	if s.ProgressDone >= s.ProgressTotal {
		s.Status = domain.StatusOk
	}
}
