package startup

import (
	"testing"

	"github.com/GrahLnn/slisic/internal/domain"
	"github.com/GrahLnn/slisic/internal/journal"
	"github.com/stretchr/testify/assert"
)

func TestRootResumeJobsSkipsNestedCandidates(t *testing.T) {
	candidates := []journal.Candidate{
		{
			NodeID: "root-1",
			State:  journal.NewState("root-1", "https://example.com/set", "Set One"),
		},
		{
			NodeID:      "child-1",
			AncestorIDs: []string{"root-1"},
			State:       journal.NewState("child-1", "https://example.com/track", "Track One"),
		},
	}

	jobs := rootResumeJobs(candidates)

	assert.Len(t, jobs, 1)
	assert.Equal(t, "root-1", jobs[0].ID)
	assert.Equal(t, "https://example.com/set", jobs[0].URL)
	assert.Equal(t, "Set One", jobs[0].Title)
	assert.Equal(t, resumePlaylist, jobs[0].Playlist)
}

func TestRootResumeJobsEmptyWhenNoCandidates(t *testing.T) {
	assert.Empty(t, rootResumeJobs(nil))
}

func TestFinalizeSkipsJobsWithoutEntryID(t *testing.T) {
	s := &System{}
	err := s.finalize(nil, domain.MissionEntry{ID: "root-1"}, domain.ProcessResult{})
	assert.NoError(t, err)
}
