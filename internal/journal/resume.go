package journal

import (
	"io/fs"
	"path/filepath"
	"strings"

	"github.com/GrahLnn/slisic/internal/domain"
)

// Candidate is one journal node discovered during the startup walk
// that needs to be fed back into the pipeline.
type Candidate struct {
	Dir         string
	AncestorIDs []string
	NodeID      string
	State       State
}

// IsResumable classifies a loaded state per the resume protocol:
// pending, downloading and err nodes always resume; an ok node resumes
// only if its recorded leaf file is missing from disk.
func IsResumable(s State) bool {
	switch s.Status {
	case domain.StatusPending, domain.StatusDownloading, domain.StatusErr:
		return true
	case domain.StatusOk:
		if len(s.Children) == 0 {
			return false
		}
		return !LeafFileExists(s)
	default:
		return false
	}
}

// Walk scans workRoot for every state.json and returns the resumable
// ones, ready to be fed back into the pipeline engine by the startup
// sequence.
func Walk(workRoot string) ([]Candidate, error) {
	var out []Candidate

	err := filepath.WalkDir(workRoot, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if filepath.Clean(path) == filepath.Clean(workRoot) {
				return nil // workRoot itself doesn't exist yet: nothing to resume
			}
			return err
		}
		if d.IsDir() || d.Name() != "state.json" {
			return nil
		}

		dir := filepath.Dir(path)
		state, loadErr := Load(dir)
		if loadErr != nil {
			return nil // unreadable snapshot: skip rather than abort the whole walk
		}
		if !IsResumable(state) {
			return nil
		}

		rel, relErr := filepath.Rel(workRoot, dir)
		if relErr != nil {
			return nil
		}
		segments := strings.Split(rel, string(filepath.Separator))
		nodeID := segments[len(segments)-1]
		ancestorIDs := segments[:len(segments)-1]

		out = append(out, Candidate{
			Dir:         dir,
			AncestorIDs: ancestorIDs,
			NodeID:      nodeID,
			State:       state,
		})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}
