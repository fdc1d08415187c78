package coordinator

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/GrahLnn/slisic/internal/domain"
	"github.com/GrahLnn/slisic/internal/toolchain"
	"github.com/sourcegraph/conc/pool"
)

// DownloadOk is the queue's finalize hook, called after a single
// completes. It enumerates audio under the downloaded path (or treats
// it as a single file), filters out Music already linked to entryID,
// measures loudness for the rest, upserts Music rows, wires has_music
// edges, and patches the Entry with downloaded_ok, the new average
// loudness and the local path.
func (c *Coordinator) DownloadOk(ctx context.Context, entryID string, answer domain.DownloadAnswer) error {
	if _, err := c.Store.SelectEntryByID(entryID); err != nil {
		return fmt.Errorf("%w: %s", ErrEntryNotFound, entryID)
	}

	candidates, err := audioFilesUnder(answer.Path)
	if err != nil {
		return err
	}

	existing := make(map[string]bool)
	for _, musicID := range c.Store.OutIDs(entryID, domain.RelHasMusic) {
		m, err := c.Store.SelectMusicByID(musicID)
		if err != nil {
			continue
		}
		existing[m.Path] = true
	}

	fresh := candidates[:0]
	for _, path := range candidates {
		if !existing[path] {
			fresh = append(fresh, path)
		}
	}

	p := pool.New().WithMaxGoroutines(c.fanOutOrDefault())
	for _, path := range fresh {
		path := path
		p.Go(func() {
			music := c.measure(ctx, path)
			musicID := c.upsertMusic(music)
			if err := c.Store.Relate(entryID, musicID, domain.RelHasMusic); err != nil {
				return
			}
			c.emit(answer.Playlist, music.Title)
		})
	}
	p.Wait()

	if err := c.recomputeEntryAvg(entryID); err != nil {
		return err
	}

	path := answer.Path
	_, err = c.Store.PatchEntry(entryID, func(e *domain.Entry) {
		done := true
		e.DownloadedOk = &done
		e.Path = &path
	})
	return err
}

// audioFilesUnder returns path itself if it is a single audio file, or
// every audio file found under it if it is a directory (the saved_path
// of a chapter-split single, or a playlist's save directory).
func audioFilesUnder(path string) ([]string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("coordinator: stat %s: %w", path, err)
	}
	if !info.IsDir() {
		if toolchain.IsAudioFile(path) {
			return []string{path}, nil
		}
		return nil, nil
	}

	var files []string
	err = filepath.WalkDir(path, func(p string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && toolchain.IsAudioFile(p) {
			files = append(files, p)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("coordinator: walk %s: %w", path, err)
	}
	return files, nil
}
