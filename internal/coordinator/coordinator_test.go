package coordinator

import (
	"context"
	"sync"
	"testing"

	"github.com/GrahLnn/slisic/internal/domain"
	"github.com/GrahLnn/slisic/internal/graph"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeTranscoder struct {
	loudness map[string]float64
}

func (f *fakeTranscoder) IntegratedLoudness(ctx context.Context, path string) (float64, error) {
	if v, ok := f.loudness[path]; ok {
		return v, nil
	}
	return -12.0, nil
}

func (f *fakeTranscoder) TrimLeadingSilence(ctx context.Context, path string) error {
	return nil
}

type fakeQueue struct {
	mu   sync.Mutex
	jobs []domain.MissionEntry
}

func (f *fakeQueue) Enqueue(ctx context.Context, job domain.MissionEntry) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.jobs = append(f.jobs, job)
	return nil
}

func (f *fakeQueue) snapshot() []domain.MissionEntry {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]domain.MissionEntry, len(f.jobs))
	copy(out, f.jobs)
	return out
}

func newTestCoordinator() (*Coordinator, *fakeQueue) {
	store := graph.New("")
	q := &fakeQueue{}
	c := New(store, q, &fakeTranscoder{}, nil)
	return c, q
}

func TestCreateWiresCollectionAndPreExpandedEntries(t *testing.T) {
	c, _ := newTestCoordinator()

	mission := domain.CollectMission{
		Name: "My Mix",
		Entries: []domain.Entry{
			{Name: "existing-entry", Type: domain.EntryLocal},
		},
	}

	coll, err := c.Create(context.Background(), mission)
	require.NoError(t, err)
	assert.Equal(t, "My Mix", coll.Name)

	playlist, err := c.Read("My Mix")
	require.NoError(t, err)
	require.Len(t, playlist.Entries, 1)
	assert.Equal(t, "existing-entry", playlist.Entries[0].Name)
}

func TestCreateEnqueuesLinksWithEntryID(t *testing.T) {
	c, q := newTestCoordinator()

	mission := domain.CollectMission{
		Name: "Web Mix",
		Links: []domain.LinkSample{
			{URL: "https://example.com/a", TitleOrMsg: "A", EntryType: domain.EntryWebVideo},
		},
	}

	_, err := c.Create(context.Background(), mission)
	require.NoError(t, err)

	require.Eventually(t, func() bool { return len(q.snapshot()) == 1 }, testTimeout, testTick)
	job := q.snapshot()[0]
	assert.Equal(t, "https://example.com/a", job.URL)
	assert.NotEmpty(t, job.EntryID)
	assert.Equal(t, "Web Mix", job.Playlist)
}

func TestCreateMeasuresFolderItemsAndLinksHasMusic(t *testing.T) {
	c, _ := newTestCoordinator()

	mission := domain.CollectMission{
		Name: "Local Mix",
		Folders: []domain.FolderSample{
			{Path: "/music/album", Items: []string{"/music/album/one.flac", "/music/album/two.flac"}},
		},
	}

	_, err := c.Create(context.Background(), mission)
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		pl, err := c.Read("Local Mix")
		if err != nil || len(pl.Entries) != 1 {
			return false
		}
		entryID, err := c.Store.SelectEntryByName("/music/album")
		if err != nil {
			return false
		}
		return len(c.Store.OutIDs(entryID, domain.RelHasMusic)) == 2
	}, testTimeout, testTick)
}

func TestUpdateRewiresAddedAndRemovedEntries(t *testing.T) {
	c, _ := newTestCoordinator()

	anchor := domain.CollectMission{
		Name: "Mix",
		Entries: []domain.Entry{
			{Name: "keep-entry", Path: strPtr("/keep"), Type: domain.EntryLocal},
			{Name: "drop-entry", Path: strPtr("/drop"), Type: domain.EntryLocal},
		},
	}
	_, err := c.Create(context.Background(), anchor)
	require.NoError(t, err)

	mission := domain.CollectMission{
		Name: "Mix Renamed",
		Entries: []domain.Entry{
			{Name: "keep-entry", Path: strPtr("/keep"), Type: domain.EntryLocal},
			{Name: "new-entry", Path: strPtr("/new"), Type: domain.EntryLocal},
		},
	}

	coll, err := c.Update(context.Background(), mission, anchor)
	require.NoError(t, err)
	assert.Equal(t, "Mix Renamed", coll.Name)

	playlist, err := c.Read("Mix Renamed")
	require.NoError(t, err)
	names := make([]string, 0, len(playlist.Entries))
	for _, e := range playlist.Entries {
		names = append(names, e.Name)
	}
	assert.ElementsMatch(t, []string{"keep-entry", "new-entry"}, names)
}

func TestDownloadOkLinksNewMusicAndPatchesEntry(t *testing.T) {
	c, _ := newTestCoordinator()
	store := c.Store

	entryID := store.InsertIgnoreEntries([]domain.Entry{{Name: "web-entry", Type: domain.EntryWebVideo}})[0]

	dir := t.TempDir()
	path := dir + "/track.flac"
	require.NoError(t, writeFile(path))

	err := c.DownloadOk(context.Background(), entryID, domain.DownloadAnswer{Path: path, Name: "Track", Playlist: "Mix"})
	require.NoError(t, err)

	entry, err := store.SelectEntryByID(entryID)
	require.NoError(t, err)
	require.NotNil(t, entry.DownloadedOk)
	assert.True(t, *entry.DownloadedOk)
	require.NotNil(t, entry.AvgDB)

	assert.Len(t, store.OutIDs(entryID, domain.RelHasMusic), 1)
}

func TestDownloadOkSkipsAlreadyLinkedMusic(t *testing.T) {
	c, _ := newTestCoordinator()
	store := c.Store

	entryID := store.InsertIgnoreEntries([]domain.Entry{{Name: "web-entry", Type: domain.EntryWebVideo}})[0]

	dir := t.TempDir()
	path := dir + "/track.flac"
	require.NoError(t, writeFile(path))

	musicID := store.InsertIgnoreMusics([]domain.Music{{Path: path, Title: "track"}})[0]
	require.NoError(t, store.Relate(entryID, musicID, domain.RelHasMusic))

	err := c.DownloadOk(context.Background(), entryID, domain.DownloadAnswer{Path: path, Name: "Track"})
	require.NoError(t, err)

	assert.Len(t, store.OutIDs(entryID, domain.RelHasMusic), 1, "already-linked music must not be duplicated")
}

func TestFatigueBoostAndResetLogits(t *testing.T) {
	c, _ := newTestCoordinator()
	store := c.Store
	musicID := store.InsertIgnoreMusics([]domain.Music{{Path: "/a.flac", Title: "a"}})[0]

	m, err := c.Boost(musicID, 1.0)
	require.NoError(t, err)
	assert.Equal(t, domain.BoostMax, m.UserBoost)

	m, err = c.CancelBoost(musicID, 1.0)
	require.NoError(t, err)
	assert.Equal(t, 0.0, m.UserBoost)

	m, err = c.Fatigue(musicID, 2.5)
	require.NoError(t, err)
	assert.Equal(t, 2.5, m.Fatigue)

	m, err = c.ResetLogits(musicID)
	require.NoError(t, err)
	assert.Equal(t, 0.0, m.Fatigue)
	assert.Equal(t, 0.0, m.UserBoost)
}

func TestUnstarAndRmExclude(t *testing.T) {
	c, _ := newTestCoordinator()
	_, err := c.Create(context.Background(), domain.CollectMission{Name: "Mix"})
	require.NoError(t, err)

	music := domain.Music{Path: "/excluded.flac", Title: "excluded"}
	require.NoError(t, c.Unstar("Mix", music))

	pl, err := c.Read("Mix")
	require.NoError(t, err)
	require.Len(t, pl.Exclude, 1)

	require.NoError(t, c.RmExclude("Mix", music))
	pl, err = c.Read("Mix")
	require.NoError(t, err)
	assert.Len(t, pl.Exclude, 0)
}

func TestDeleteCollectionLeavesEntriesForReuse(t *testing.T) {
	c, _ := newTestCoordinator()
	_, err := c.Create(context.Background(), domain.CollectMission{
		Name:    "Mix",
		Entries: []domain.Entry{{Name: "shared-entry", Type: domain.EntryLocal}},
	})
	require.NoError(t, err)

	require.NoError(t, c.Delete("Mix"))

	_, err = c.Read("Mix")
	assert.ErrorIs(t, err, ErrCollectionNotFound)

	_, err = c.Store.SelectEntryByName("shared-entry")
	assert.NoError(t, err, "entries survive collection deletion")
}

func TestDeleteMusicUnlinksFromAllEntries(t *testing.T) {
	c, _ := newTestCoordinator()
	store := c.Store
	entryID := store.InsertIgnoreEntries([]domain.Entry{{Name: "e1", Type: domain.EntryLocal}})[0]
	musicID := store.InsertIgnoreMusics([]domain.Music{{Path: "/m.flac", Title: "m"}})[0]
	require.NoError(t, store.Relate(entryID, musicID, domain.RelHasMusic))

	require.NoError(t, c.DeleteMusic(musicID))

	assert.Empty(t, store.OutIDs(entryID, domain.RelHasMusic))
	_, err := store.SelectMusicByID(musicID)
	assert.Error(t, err)
}

func strPtr(s string) *string { return &s }
