package progress

import (
	"testing"

	"github.com/GrahLnn/slisic/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBroadcasterEmitFansOutToAllListeners(t *testing.T) {
	b := NewBroadcaster()

	var gotA, gotB []domain.ProcessMsg
	b.AddListener(func(m domain.ProcessMsg) { gotA = append(gotA, m) })
	b.AddListener(func(m domain.ProcessMsg) { gotB = append(gotB, m) })

	b.Emit("A", "track 1 (-14.2db)")

	require.Len(t, gotA, 1)
	require.Len(t, gotB, 1)
	assert.Equal(t, "A", gotA[0].Playlist)
	assert.Equal(t, "track 1 (-14.2db)", gotA[0].Str)
}

func TestBroadcasterEmitErrorUsesReservedPlaylist(t *testing.T) {
	b := NewBroadcaster()
	var got domain.ProcessMsg
	b.AddListener(func(m domain.ProcessMsg) { got = m })

	b.EmitError("download failed")

	assert.Equal(t, domain.ErrorPlaylist, got.Playlist)
	assert.Equal(t, "download failed", got.Str)
}

func TestBroadcasterRemoveListener(t *testing.T) {
	b := NewBroadcaster()
	calls := 0
	listener := func(domain.ProcessMsg) { calls++ }

	b.AddListener(listener)
	b.Emit("A", "one")
	assert.Equal(t, 1, calls)

	b.RemoveListener(listener)
	b.Emit("A", "two")
	assert.Equal(t, 1, calls, "removed listener must not receive further events")
}
