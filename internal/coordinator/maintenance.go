package coordinator

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/GrahLnn/slisic/internal/domain"
	"github.com/GrahLnn/slisic/internal/toolchain"
	"github.com/google/uuid"
	"github.com/sourcegraph/conc/pool"
)

// TrimAllSilenceLabel tags the progress events a bulk trim pass emits,
// so a listener can tell them apart from per-download progress without
// a second notification channel.
const TrimAllSilenceLabel = "__trim__"

// RecheckFolder scans a tracked Entry's folder recursively, computes
// added (filesystem-only) and removed (graph-only) Music sets by path,
// deletes removed Music, measures and inserts added Music, re-links
// has_music, and recomputes the Entry's average loudness.
func (c *Coordinator) RecheckFolder(ctx context.Context, entryID string) error {
	entry, err := c.Store.SelectEntryByID(entryID)
	if err != nil {
		return fmt.Errorf("%w: %s", ErrEntryNotFound, entryID)
	}
	if entry.Path == nil {
		return fmt.Errorf("coordinator: entry %s has no folder path", entryID)
	}

	onDisk := make(map[string]bool)
	err = filepath.WalkDir(*entry.Path, func(p string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && toolchain.IsAudioFile(p) {
			onDisk[p] = true
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("coordinator: walk %s: %w", *entry.Path, err)
	}

	inGraph := make(map[string]string) // path -> music id
	for _, musicID := range c.Store.OutIDs(entryID, domain.RelHasMusic) {
		m, err := c.Store.SelectMusicByID(musicID)
		if err != nil {
			continue
		}
		inGraph[m.Path] = musicID
	}

	for path, musicID := range inGraph {
		if !onDisk[path] {
			c.Store.Unrelate(entryID, musicID, domain.RelHasMusic)
			if err := c.Store.DeleteMusic(musicID); err != nil {
				slog.Warn("coordinator: delete removed music failed", "path", path, "error", err)
			}
		}
	}

	var added []string
	for path := range onDisk {
		if _, known := inGraph[path]; !known {
			added = append(added, path)
		}
	}

	p := pool.New().WithMaxGoroutines(c.fanOutOrDefault())
	for _, path := range added {
		path := path
		p.Go(func() {
			music := c.measure(ctx, path)
			musicID := c.upsertMusic(music)
			if err := c.Store.Relate(entryID, musicID, domain.RelHasMusic); err != nil {
				slog.Warn("coordinator: relate has_music failed during recheck", "path", path, "error", err)
			}
		})
	}
	p.Wait()

	return c.recomputeEntryAvg(entryID)
}

// UpdateWeblist re-runs the pipeline on a web Entry's URL by
// re-enqueueing it onto the download queue; the resulting leaves are
// linked to the Entry via the same journal/finalize path as a
// first-time download. Music already linked to the Entry stays linked,
// including tracks that are no longer in the playlist.
func (c *Coordinator) UpdateWeblist(ctx context.Context, entryID, playlist string) error {
	entry, err := c.Store.SelectEntryByID(entryID)
	if err != nil {
		return fmt.Errorf("%w: %s", ErrEntryNotFound, entryID)
	}
	if entry.URL == nil {
		return fmt.Errorf("coordinator: entry %s has no url", entryID)
	}

	job := domain.MissionEntry{
		ID:       uuid.NewString(),
		URL:      *entry.URL,
		Title:    entry.Name,
		Playlist: playlist,
		EntryID:  entryID,
	}
	return c.Queue.Enqueue(ctx, job)
}

// TrimAllSilence re-runs TrimLeadingSilence over every Music row in the
// graph, bounded by the coordinator's fan-out limit. It reports through
// the broadcaster instead of a bespoke channel, one event per file
// (success or failure), so both the CLI and the maintenance HTTP route
// can drive a progress indicator off the same mechanism every other
// operation already uses. Grounded on original_source's trim_zero/
// fix_cur_data, which buffers all paths then processes them with
// bounded concurrency and a single printer goroutine.
func (c *Coordinator) TrimAllSilence(ctx context.Context) int {
	musics := c.Store.SelectAllMusics()

	p := pool.New().WithMaxGoroutines(c.fanOutOrDefault())
	for _, m := range musics {
		m := m
		p.Go(func() {
			if err := c.Transcoder.TrimLeadingSilence(ctx, m.Path); err != nil {
				slog.Warn("coordinator: bulk trim failed", "path", m.Path, "error", err)
				c.emitError(fmt.Sprintf("trim failed: %s: %v", m.Path, err))
				return
			}
			c.emit(TrimAllSilenceLabel, m.Path)
		})
	}
	p.Wait()

	return len(musics)
}

// MigratePath bulk-rewrites every Music row rooted under src so it is
// instead rooted under dst, without touching file bytes — the caller is
// responsible for actually moving the files first. A Music row's id is
// derived from its path only at first insert (withMusicID), so
// rewriting Path here never invalidates an existing has_music edge,
// which keys on id. Grounded on original_source's
// transfer_music_from_folder, simplified to a pure path rewrite since
// this store has no separate relation rows to re-point.
func (c *Coordinator) MigratePath(src, dst string) int {
	musics := c.Store.SelectAllMusics()
	moved := 0
	for _, m := range musics {
		oldPath := m.Path
		rel, err := filepath.Rel(src, oldPath)
		if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
			continue
		}
		m.Path = filepath.Join(dst, rel)
		if err := c.Store.UpdateMusic(m); err != nil {
			slog.Warn("coordinator: migrate path update failed", "old_path", oldPath, "error", err)
			continue
		}
		moved++
	}
	return moved
}

// Unstar appends music to collectionName's exclude list.
func (c *Coordinator) Unstar(collectionName string, music domain.Music) error {
	return c.patchCollectionByName(collectionName, func(coll *domain.Collection) { coll.Unstar(music) })
}

// RmExclude removes music from collectionName's exclude list.
// Removal only, per the Collection invariant.
func (c *Coordinator) RmExclude(collectionName string, music domain.Music) error {
	return c.patchCollectionByName(collectionName, func(coll *domain.Collection) { coll.RmExclude(music) })
}

func (c *Coordinator) patchCollectionByName(name string, mutate func(*domain.Collection)) error {
	id, err := c.Store.SelectCollectionByName(name)
	if err != nil {
		return fmt.Errorf("%w: %s", ErrCollectionNotFound, name)
	}
	coll, err := c.Store.SelectCollectionByID(id)
	if err != nil {
		return err
	}
	mutate(&coll)
	return c.Store.UpdateCollection(coll)
}

// Fatigue, CancelFatigue, Boost, CancelBoost and ResetLogits are
// numeric edits on a Music row's scoring fields, under the clamping
// rules domain.Music enforces.

func (c *Coordinator) Fatigue(musicID string, delta float64) (domain.Music, error) {
	return c.Store.PatchMusic(musicID, func(m *domain.Music) { m.ApplyFatigue(delta) })
}

func (c *Coordinator) CancelFatigue(musicID string, delta float64) (domain.Music, error) {
	return c.Store.PatchMusic(musicID, func(m *domain.Music) { m.ApplyFatigue(-delta) })
}

func (c *Coordinator) Boost(musicID string, delta float64) (domain.Music, error) {
	return c.Store.PatchMusic(musicID, func(m *domain.Music) { m.ApplyBoost(delta) })
}

func (c *Coordinator) CancelBoost(musicID string, delta float64) (domain.Music, error) {
	return c.Store.PatchMusic(musicID, func(m *domain.Music) { m.ApplyBoost(-delta) })
}

func (c *Coordinator) ResetLogits(musicID string) (domain.Music, error) {
	return c.Store.PatchMusic(musicID, func(m *domain.Music) { m.ResetLogits() })
}
