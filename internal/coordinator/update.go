package coordinator

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/GrahLnn/slisic/internal/domain"
)

// entryDiffKey is the path-keyed identity used to diff a mission's
// Entries against its anchor: Path when known (local folders), falling
// back to URL (web entries) and finally Name for anything else.
func entryDiffKey(e domain.Entry) string {
	if e.Path != nil {
		return "path:" + *e.Path
	}
	if e.URL != nil {
		return "url:" + *e.URL
	}
	return "name:" + e.Name
}

// Update computes the added and removed Entries between mission and
// anchor by path-keyed diff, rewires collect edges accordingly, renames
// the Collection and rewrites its exclude list, then spawns the same
// folder-scan and link-enqueue background task as Create.
func (c *Coordinator) Update(ctx context.Context, mission, anchor domain.CollectMission) (domain.Collection, error) {
	collectionID, err := c.Store.SelectCollectionByName(anchor.Name)
	if err != nil {
		return domain.Collection{}, fmt.Errorf("%w: %s", ErrCollectionNotFound, anchor.Name)
	}

	anchorByKey := make(map[string]domain.Entry, len(anchor.Entries))
	for _, e := range anchor.Entries {
		anchorByKey[entryDiffKey(e)] = e
	}
	missionByKey := make(map[string]domain.Entry, len(mission.Entries))
	for _, e := range mission.Entries {
		missionByKey[entryDiffKey(e)] = e
	}

	for key, e := range anchorByKey {
		if _, stillPresent := missionByKey[key]; stillPresent {
			continue
		}
		entryID, err := c.Store.SelectEntryByName(e.Name)
		if err != nil {
			slog.Warn("coordinator: removed entry not found during update", "entry", e.Name, "error", err)
			continue
		}
		c.Store.Unrelate(collectionID, entryID, domain.RelCollect)
	}

	for key, e := range missionByKey {
		if _, alreadyPresent := anchorByKey[key]; alreadyPresent {
			continue
		}
		entryID := c.upsertEntry(e)
		if err := c.Store.Relate(collectionID, entryID, domain.RelCollect); err != nil {
			slog.Warn("coordinator: relate collect failed during update", "entry", e.Name, "error", err)
		}
	}

	coll, err := c.Store.SelectCollectionByID(collectionID)
	if err != nil {
		return domain.Collection{}, err
	}
	coll.Name = mission.Name
	coll.Exclude = mission.Exclude
	if err := c.Store.UpdateCollection(coll); err != nil {
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
