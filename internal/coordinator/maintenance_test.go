package coordinator

import (
	"context"
	"testing"

	"github.com/GrahLnn/slisic/internal/domain"
	"github.com/GrahLnn/slisic/internal/progress"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTrimAllSilenceSweepsEveryMusicRow(t *testing.T) {
	c, _ := newTestCoordinator()
	store := c.Store
	store.InsertIgnoreMusics([]domain.Music{
		{Path: "/a.flac", Title: "a"},
		{Path: "/b.flac", Title: "b"},
	})

	n := c.TrimAllSilence(context.Background())
	assert.Equal(t, 2, n)
}

func TestTrimAllSilenceReportsProgressThroughBroadcaster(t *testing.T) {
	c, _ := newTestCoordinator()
	prog := progress.NewBroadcaster()
	c.Progress = prog
	store := c.Store
	store.InsertIgnoreMusics([]domain.Music{{Path: "/a.flac", Title: "a"}})

	var got []domain.ProcessMsg
	prog.AddListener(func(msg domain.ProcessMsg) { got = append(got, msg) })

	n := c.TrimAllSilence(context.Background())
	require.Equal(t, 1, n)
	require.Len(t, got, 1)
	assert.Equal(t, TrimAllSilenceLabel, got[0].Playlist)
	assert.Equal(t, "/a.flac", got[0].Str)
}

func TestMigratePathRewritesOnlyMusicUnderSrc(t *testing.T) {
	c, _ := newTestCoordinator()
	store := c.Store
	store.InsertIgnoreMusics([]domain.Music{
		{Path: "/old/root/a.flac", Title: "a"},
		{Path: "/old/root/sub/b.flac", Title: "b"},
		{Path: "/elsewhere/c.flac", Title: "c"},
	})

	moved := c.MigratePath("/old/root", "/new/root")
	assert.Equal(t, 2, moved)

	_, err := store.SelectMusicByPath("/new/root/a.flac")
	require.NoError(t, err)
	_, err = store.SelectMusicByPath("/new/root/sub/b.flac")
	require.NoError(t, err)
	_, err = store.SelectMusicByPath("/elsewhere/c.flac")
	require.NoError(t, err, "music outside src must be left untouched")

	_, err = store.SelectMusicByPath("/old/root/a.flac")
	assert.Error(t, err, "old path must no longer resolve")
}
