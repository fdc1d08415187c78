package journal

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/GrahLnn/slisic/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMutateSynthesisesInitialState(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "root", "node-1")

	state, err := Mutate(dir, func() State {
		return NewState("root-1", "https://example.com", "My Mix")
	}, func(s *State) {
		s.Status = domain.StatusDownloading
	})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusDownloading, state.Status)
	assert.Equal(t, "My Mix", state.Title)

	reloaded, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusDownloading, reloaded.Status)
}

func TestMutateIsSerialisedAcrossCalls(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "node-1")

	for i := 0; i < 5; i++ {
		_, err := Mutate(dir, func() State {
			s := NewState("root-1", "u", "t")
			s.ProgressTotal = 5
			return s
		}, func(s *State) {
			s.IncrementProgress()
		})
		require.NoError(t, err)
	}

	final, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, uint32(5), final.ProgressDone)
}

func TestIsResumable(t *testing.T) {
	tests := []struct {
		name  string
		state State
		setup func(t *testing.T) State
		want  bool
	}{
		{name: "pending resumes", state: State{Status: domain.StatusPending}, want: true},
		{name: "downloading resumes", state: State{Status: domain.StatusDownloading}, want: true},
		{name: "err resumes", state: State{Status: domain.StatusErr}, want: true},
		{name: "ok with no children does not resume", state: State{Status: domain.StatusOk}, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsResumable(tt.state))
		})
	}
}

func TestIsResumableOkWithMissingFile(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "gone.m4a")
	s := State{
		Status:   domain.StatusOk,
		Children: []ChildLeaf{{ID: "c1", Status: domain.StatusOk, File: &missing}},
	}
	assert.True(t, IsResumable(s), "ok leaf whose file vanished must resume")
}

func TestIsResumableOkWithPresentFile(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "present.m4a")
	require.NoError(t, os.WriteFile(file, []byte("x"), 0o644))

	s := State{
		Status:   domain.StatusOk,
		Children: []ChildLeaf{{ID: "c1", Status: domain.StatusOk, File: &file}},
	}
	assert.False(t, IsResumable(s))
}

func TestWalkFindsResumableNodes(t *testing.T) {
	root := t.TempDir()

	pendingDir := filepath.Join(root, "r1", "n1")
	require.NoError(t, Save(pendingDir, NewState("r1", "u1", "t1")))

	missingFile := filepath.Join(root, "gone.m4a")
	doneDir := filepath.Join(root, "r1", "n2")
	require.NoError(t, Save(doneDir, State{
		Status:   domain.StatusOk,
		Children: []ChildLeaf{{ID: "c1", Status: domain.StatusOk, File: &missingFile}},
	}))

	presentFile := filepath.Join(root, "here.m4a")
	require.NoError(t, os.WriteFile(presentFile, []byte("x"), 0o644))
	skipDir := filepath.Join(root, "r1", "n3")
	require.NoError(t, Save(skipDir, State{
		Status:   domain.StatusOk,
		Children: []ChildLeaf{{ID: "c1", Status: domain.StatusOk, File: &presentFile}},
	}))

	candidates, err := Walk(root)
	require.NoError(t, err)
	require.Len(t, candidates, 2)

	var nodeIDs []string
	for _, c := range candidates {
		nodeIDs = append(nodeIDs, c.NodeID)
		assert.Equal(t, []string{"r1"}, c.AncestorIDs)
	}
	assert.ElementsMatch(t, []string{"n1", "n2"}, nodeIDs)
}

func TestWalkMissingRootReturnsEmpty(t *testing.T) {
	candidates, err := Walk(filepath.Join(t.TempDir(), "does-not-exist"))
	require.NoError(t, err)
	assert.Empty(t, candidates)
}
