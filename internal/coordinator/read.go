package coordinator

import (
	"fmt"

	"github.com/GrahLnn/slisic/internal/domain"
)

// Read builds the Playlist read-model for one Collection by name.
func (c *Coordinator) Read(name string) (domain.Playlist, error) {
	id, err := c.Store.SelectCollectionByName(name)
	if err != nil {
		return domain.Playlist{}, fmt.Errorf("%w: %s", ErrCollectionNotFound, name)
	}
	return c.readByID(id)
}

func (c *Coordinator) readByID(id string) (domain.Playlist, error) {
	coll, err := c.Store.SelectCollectionByID(id)
	if err != nil {
		return domain.Playlist{}, err
	}
	entryIDs := c.Store.OutIDs(id, domain.RelCollect)
	entries := make([]domain.Entry, 0, len(entryIDs))
	for _, entryID := range entryIDs {
		e, err := c.Store.SelectEntryByID(entryID)
		if err != nil {
			continue
		}
		entries = append(entries, e)
	}
	return domain.Playlist{Name: coll.Name, AvgDB: coll.AvgDB, Entries: entries, Exclude: coll.Exclude}, nil
}

// ReadAll builds the Playlist read-model for every Collection.
func (c *Coordinator) ReadAll() []domain.Playlist {
	collections := c.Store.SelectAllCollections()
	out := make([]domain.Playlist, 0, len(collections))
	for _, coll := range collections {
		pl, err := c.readByID(coll.ID)
		if err != nil {
			continue
		}
		out = append(out, pl)
	}
	return out
}

// Delete removes a Collection and its outgoing collect edges, leaving
// its Entries and Music untouched for reuse.
func (c *Coordinator) Delete(name string) error {
	id, err := c.Store.SelectCollectionByName(name)
	if err != nil {
		return fmt.Errorf("%w: %s", ErrCollectionNotFound, name)
	}
	return c.Store.DeleteCollection(id)
}

// DeleteMusic removes a Music row and every has_music edge pointing to
// it.
func (c *Coordinator) DeleteMusic(musicID string) error {
	if _, err := c.Store.SelectMusicByID(musicID); err != nil {
		return fmt.Errorf("%w: %s", ErrMusicNotFound, musicID)
	}
	for _, entryID := range c.Store.InIDs(musicID, domain.RelHasMusic) {
		c.Store.Unrelate(entryID, musicID, domain.RelHasMusic)
	}
	return c.Store.DeleteMusic(musicID)
}
