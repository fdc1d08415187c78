package coordinator

import (
	"context"
	"log/slog"

	"github.com/GrahLnn/slisic/internal/domain"
	"github.com/google/uuid"
	"github.com/sourcegraph/conc/pool"
)

// Create writes the Collection row, wires one collect edge per
// pre-expanded Entry, then spawns a background task that scans
// folders and enqueues links. It returns as soon as the rows and
// edges the caller passed in directly are written to the in-memory
// store (persisted to disk by Store.Save); folder scanning and
// link downloads continue asynchronously.
func (c *Coordinator) Create(ctx context.Context, mission domain.CollectMission) (domain.Collection, error) {
	collectionID := c.upsertCollection(domain.Collection{Name: mission.Name, Exclude: mission.Exclude})

	for _, e := range mission.Entries {
		entryID := c.upsertEntry(e)
		if err := c.Store.Relate(collectionID, entryID, domain.RelCollect); err != nil {
			slog.Warn("coordinator: relate collect failed", "collection", mission.Name, "entry", e.Name, "error", err)
		}
	}

	coll, err := c.Store.SelectCollectionByID(collectionID)
	if err != nil {
		return domain.Collection{}, err
	}

	go func() {
		defer func() {
			if r := recover(); r != nil {
				slog.Error("coordinator: ingest task panicked", "collection", mission.Name, "panic", r)
			}
		}()
		c.ingest(context.Background(), collectionID, mission.Name, mission.Folders, mission.Links)
	}()

	return coll, nil
}

// ingest runs the folder-scan and link-enqueue phase common to Create
// and Update. It never returns an error: individual failures are
// logged and broadcast as progress events so one bad folder or link
// cannot abort the rest of the batch.
func (c *Coordinator) ingest(ctx context.Context, collectionID, playlist string, folders []domain.FolderSample, links []domain.LinkSample) {
	p := pool.New().WithMaxGoroutines(c.fanOutOrDefault())
	for _, folder := range folders {
		folder := folder
		p.Go(func() {
			if err := c.ingestFolder(ctx, collectionID, playlist, folder); err != nil {
				slog.Error("coordinator: folder ingest failed", "path", folder.Path, "error", err)
				c.emitError(err.Error())
			}
		})
	}
	for _, link := range links {
		link := link
		p.Go(func() {
			if err := c.ingestLink(ctx, collectionID, playlist, link); err != nil {
				slog.Error("coordinator: link ingest failed", "url", link.URL, "error", err)
				c.emitError(err.Error())
			}
		})
	}
	p.Wait()

	if err := c.recomputeCollectionAvg(collectionID); err != nil {
		slog.Error("coordinator: recompute collection average failed", "collection_id", collectionID, "error", err)
	}
}

func (c *Coordinator) ingestFolder(ctx context.Context, collectionID, playlist string, folder domain.FolderSample) error {
	path := folder.Path
	entryID := c.upsertEntry(domain.Entry{Name: folder.Path, Path: &path, Type: domain.EntryLocal, Tracking: true})
	if err := c.Store.Relate(collectionID, entryID, domain.RelCollect); err != nil {
		return err
	}

	items := pool.New().WithMaxGoroutines(c.fanOutOrDefault())
	for _, item := range folder.Items {
		item := item
		items.Go(func() {
			music := c.measure(ctx, item)
			musicID := c.upsertMusic(music)
			if err := c.Store.Relate(entryID, musicID, domain.RelHasMusic); err != nil {
				slog.Warn("coordinator: relate has_music failed", "entry", folder.Path, "music", item, "error", err)
				return
			}
			c.emit(playlist, music.Title)
		})
	}
	items.Wait()

	return c.recomputeEntryAvg(entryID)
}

func (c *Coordinator) ingestLink(ctx context.Context, collectionID, playlist string, link domain.LinkSample) error {
	url := link.URL
	entryID := c.upsertEntry(domain.Entry{Name: link.URL, URL: &url, Type: link.EntryType, Tracking: link.Tracking})
	if err := c.Store.Relate(collectionID, entryID, domain.RelCollect); err != nil {
		return err
	}

	job := domain.MissionEntry{
		ID:       uuid.NewString(),
		URL:      link.URL,
		Title:    link.TitleOrMsg,
		Playlist: playlist,
		EntryID:  entryID,
	}
	return c.Queue.Enqueue(ctx, job)
}
