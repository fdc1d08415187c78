// Package coordinator implements the three user-facing ingestion
// operations (create, update, download_ok) plus the supporting
// maintenance operations (recheck_folder, update_weblist, unstar,
// rmexclude, fatigue/boost/reset_logits, read/delete), wiring the
// graph store, job queue, media toolchain and progress broadcaster
// together. Every edge is written after both of its endpoint rows: the
// Collection row comes first, each Entry row is followed by its collect
// edge, each Music row by its has_music edge, and a link is enqueued
// only after its Entry row and collect edge exist. The writes are not
// phased across a whole mission: an Entry's collect edge is written
// before that Entry's Music rows, and folders and links are processed
// concurrently.
//
// Grounded on original_source's coordinator-equivalent module
// (create/update/download_ok) and the teacher's own orchestration
// style in internal/job.Manager: plain structs over interfaces,
// bounded fan-out via sourcegraph/conc/pool, slog for every failure
// that must not abort the whole batch.
package coordinator

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/GrahLnn/slisic/internal/domain"
	"github.com/GrahLnn/slisic/internal/graph"
	"github.com/GrahLnn/slisic/internal/progress"
	"github.com/dhowden/tag"
)

// DefaultFanOut is the default bounded concurrency for folder/link
// scanning fan-out.
const DefaultFanOut = 8

// Transcoder is the subset of toolchain.Transcoder the coordinator
// needs for per-file loudness measurement.
type Transcoder interface {
	IntegratedLoudness(ctx context.Context, path string) (float64, error)
	TrimLeadingSilence(ctx context.Context, path string) error
}

// Enqueuer is the subset of queue.Queue the coordinator needs to hand
// off a remote entry for background download.
type Enqueuer interface {
	Enqueue(ctx context.Context, job domain.MissionEntry) error
}

// Coordinator wires the graph store, download queue, media toolchain
// and progress broadcaster into the ingestion operations.
type Coordinator struct {
	Store      *graph.Store
	Queue      Enqueuer
	Transcoder Transcoder
	Progress   *progress.Broadcaster
	FanOut     int
}

// New builds a Coordinator with the spec's default fan-out.
func New(store *graph.Store, q Enqueuer, transcoder Transcoder, prog *progress.Broadcaster) *Coordinator {
	return &Coordinator{Store: store, Queue: q, Transcoder: transcoder, Progress: prog, FanOut: DefaultFanOut}
}

func (c *Coordinator) fanOutOrDefault() int {
	if c.FanOut <= 0 {
		return DefaultFanOut
	}
	return c.FanOut
}

func (c *Coordinator) emit(playlist, str string) {
	if c.Progress != nil {
		c.Progress.Emit(playlist, str)
	}
}

func (c *Coordinator) emitError(str string) {
	if c.Progress != nil {
		c.Progress.EmitError(str)
	}
}

// --- upsert-or-lookup helpers ---
//
// InsertIgnore* only reports ids for rows it actually inserted; a
// pre-existing key is left untouched and reported back via a lookup.
// These helpers fold that two-step dance into one call, used
// throughout this package wherever a record may or may not already
// exist.

func (c *Coordinator) upsertCollection(rec domain.Collection) string {
	ids := c.Store.InsertIgnoreCollections([]domain.Collection{rec})
	if len(ids) == 1 {
		return ids[0]
	}
	id, _ := c.Store.SelectCollectionByName(rec.Name)
	return id
}

func (c *Coordinator) upsertEntry(rec domain.Entry) string {
	ids := c.Store.InsertIgnoreEntries([]domain.Entry{rec})
	if len(ids) == 1 {
		return ids[0]
	}
	id, _ := c.Store.SelectEntryByName(rec.Name)
	return id
}

func (c *Coordinator) upsertMusic(rec domain.Music) string {
	ids := c.Store.InsertIgnoreMusics([]domain.Music{rec})
	if len(ids) == 1 {
		return ids[0]
	}
	id, _ := c.Store.SelectMusicByPath(rec.Path)
	return id
}

// measure runs leading-silence trim then loudness measurement for one
// audio file, producing a Music record. The trim always runs; there is
// no switch to skip it. Trim failures are
// logged and ignored: a file that cannot be trimmed can still be
// measured and catalogued.
func (c *Coordinator) measure(ctx context.Context, path string) domain.Music {
	if err := c.Transcoder.TrimLeadingSilence(ctx, path); err != nil {
		slog.Warn("coordinator: trim leading silence failed", "path", path, "error", err)
	}

	title := titleFor(path)
	music := domain.Music{Path: path, Title: title}

	lufs, err := c.Transcoder.IntegratedLoudness(ctx, path)
	if err != nil {
		slog.Warn("coordinator: loudness measurement failed", "path", path, "error", err)
		return music
	}
	music.AvgDB = &lufs
	return music
}

// titleFor prefers a file's embedded tag title, falling back to its
// filename with the extension stripped when the file carries no
// usable tag (or no tag library recognises its container).
func titleFor(path string) string {
	filenameTitle := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))

	f, err := os.Open(path)
	if err != nil {
		return filenameTitle
	}
	defer f.Close()

	m, err := tag.ReadFrom(f)
	if err != nil || m.Title() == "" {
		return filenameTitle
	}
	return m.Title()
}

// recomputeEntryAvg recomputes an Entry's average loudness from the
// Music rows linked to it and patches the row.
func (c *Coordinator) recomputeEntryAvg(entryID string) error {
	musicIDs := c.Store.OutIDs(entryID, domain.RelHasMusic)
	values := make([]*float64, 0, len(musicIDs))
	for _, id := range musicIDs {
		m, err := c.Store.SelectMusicByID(id)
		if err != nil {
			continue
		}
		values = append(values, m.AvgDB)
	}
	avg := domain.AverageLoudness(values)
	_, err := c.Store.PatchEntry(entryID, func(e *domain.Entry) { e.AvgDB = avg })
	return err
}

// recomputeCollectionAvg recomputes a Collection's average loudness
// from the Entries linked to it.
func (c *Coordinator) recomputeCollectionAvg(collectionID string) error {
	entryIDs := c.Store.OutIDs(collectionID, domain.RelCollect)
	values := make([]*float64, 0, len(entryIDs))
	for _, id := range entryIDs {
		e, err := c.Store.SelectEntryByID(id)
		if err != nil {
			continue
		}
		values = append(values, e.AvgDB)
	}
	avg := domain.AverageLoudness(values)
	_, err := c.Store.PatchCollection(collectionID, func(coll *domain.Collection) { coll.AvgDB = avg })
	return err
}
