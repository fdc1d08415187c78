// Package graph is a typed veneer over an in-memory, JSON-snapshotted
// graph: three node tables (Collection, Entry, Music) and three
// directed relation kinds (sign_in, collect, has_music). The user node
// kind named by domain.TableUser has no table here.
//
// No repo in the retrieval pack embeds a graph or KV database, so this
// store is built on the standard library instead of a third-party
// dependency — see DESIGN.md for the justification. It generalises the
// in-memory map-plus-mutex pattern the teacher already uses for its job
// manager (internal/job.Manager) to three node tables, and persists with
// the same atomic write-tmp/fsync/rename/fsync-dir protocol the job
// journal uses for state.json.
package graph

import (
	"fmt"

	"github.com/GrahLnn/slisic/internal/atomicfile"
	"github.com/GrahLnn/slisic/internal/domain"
)

// Store is a single shared graph instance. All methods are safe for
// concurrent use.
type Store struct {
	path string

	collections *table[domain.Collection]
	entries     *table[domain.Entry]
	musics      *table[domain.Music]

	relations *relationSet
}

// New builds an empty store. path is where Save/Load persist the
// snapshot; it may be empty for a purely in-memory store (tests).
func New(path string) *Store {
	return &Store{
		path:        path,
		collections: newTable[domain.Collection](),
		entries:     newTable[domain.Entry](),
		musics:      newTable[domain.Music](),
		relations:   newRelationSet(),
	}
}

func collectionKey(c domain.Collection) string { return c.Name }
func entryKey(e domain.Entry) string            { return e.Name }
func musicKey(m domain.Music) string            { return m.Path }

func withCollectionID(c domain.Collection) domain.Collection {
	if c.ID == "" {
		c.ID = RecordIDFor(domain.TableCollection, c.Name)
	}
	return c
}

func withEntryID(e domain.Entry) domain.Entry {
	if e.ID == "" {
		e.ID = RecordIDFor(domain.TableEntry, e.Name)
	}
	return e
}

func withMusicID(m domain.Music) domain.Music {
	if m.ID == "" {
		m.ID = RecordIDFor(domain.TableMusic, m.Path)
	}
	return m
}

// --- Collection ---

// InsertIgnoreCollections bulk-upserts collections; pre-existing names
// are left untouched. Returns the ids of the rows actually inserted.
func (s *Store) InsertIgnoreCollections(records []domain.Collection) []string {
	withIDs := make([]domain.Collection, len(records))
	for i, r := range records {
		withIDs[i] = withCollectionID(r)
	}
	return s.collections.insertIgnore(withIDs, func(c domain.Collection) string { return c.ID }, collectionKey)
}

func (s *Store) SelectCollectionByID(id string) (domain.Collection, error) {
	c, ok := s.collections.selectByID(id)
	if !ok {
		return domain.Collection{}, ErrNotFound
	}
	return c, nil
}

func (s *Store) SelectCollectionByName(name string) (string, error) {
	id, ok := s.collections.selectByKey(name)
	if !ok {
		return "", ErrNotFound
	}
	return id, nil
}

func (s *Store) SelectAllCollections() []domain.Collection { return s.collections.selectAll() }

func (s *Store) UpdateCollection(c domain.Collection) error {
	return s.collections.update(c.ID, c, collectionKey)
}

func (s *Store) PatchCollection(id string, mutate func(*domain.Collection)) (domain.Collection, error) {
	return s.collections.patch(id, mutate)
}

// DeleteCollection removes the Collection row and its outgoing collect
// edges only. Entries and Music it pointed at are left in place for
// reuse by other collections, per the no-cascade-delete rule.
func (s *Store) DeleteCollection(id string) error {
	if err := s.collections.delete(id, collectionKey); err != nil {
		return err
	}
	s.relations.deleteOutgoing(id, domain.RelCollect)
	return nil
}

// --- Entry ---

func (s *Store) InsertIgnoreEntries(records []domain.Entry) []string {
	withIDs := make([]domain.Entry, len(records))
	for i, r := range records {
		withIDs[i] = withEntryID(r)
	}
	return s.entries.insertIgnore(withIDs, func(e domain.Entry) string { return e.ID }, entryKey)
}

func (s *Store) SelectEntryByID(id string) (domain.Entry, error) {
	e, ok := s.entries.selectByID(id)
	if !ok {
		return domain.Entry{}, ErrNotFound
	}
	return e, nil
}

func (s *Store) SelectEntryByName(name string) (string, error) {
	id, ok := s.entries.selectByKey(name)
	if !ok {
		return "", ErrNotFound
	}
	return id, nil
}

func (s *Store) SelectAllEntries() []domain.Entry { return s.entries.selectAll() }

func (s *Store) UpdateEntry(e domain.Entry) error {
	return s.entries.update(e.ID, e, entryKey)
}

func (s *Store) PatchEntry(id string, mutate func(*domain.Entry)) (domain.Entry, error) {
	return s.entries.patch(id, mutate)
}

func (s *Store) DeleteEntry(id string) error {
	return s.entries.delete(id, entryKey)
}

// --- Music ---

func (s *Store) InsertIgnoreMusics(records []domain.Music) []string {
	withIDs := make([]domain.Music, len(records))
	for i, r := range records {
		withIDs[i] = withMusicID(r)
	}
	return s.musics.insertIgnore(withIDs, func(m domain.Music) string { return m.ID }, musicKey)
}

func (s *Store) SelectMusicByID(id string) (domain.Music, error) {
	m, ok := s.musics.selectByID(id)
	if !ok {
		return domain.Music{}, ErrNotFound
	}
	return m, nil
}

func (s *Store) SelectMusicByPath(path string) (string, error) {
	id, ok := s.musics.selectByKey(path)
	if !ok {
		return "", ErrNotFound
	}
	return id, nil
}

func (s *Store) SelectAllMusics() []domain.Music { return s.musics.selectAll() }

func (s *Store) UpdateMusic(m domain.Music) error {
	return s.musics.update(m.ID, m, musicKey)
}

func (s *Store) PatchMusic(id string, mutate func(*domain.Music)) (domain.Music, error) {
	return s.musics.patch(id, mutate)
}

func (s *Store) DeleteMusic(id string) error {
	return s.musics.delete(id, musicKey)
}

// --- Relations ---

func (s *Store) Relate(in, out string, kind domain.Rel) error {
	return s.relations.relate(in, out, kind)
}

func (s *Store) Unrelate(in, out string, kind domain.Rel) {
	s.relations.unrelate(in, out, kind)
}

func (s *Store) BulkRelate(kind domain.Rel, pairs [][2]string) error {
	return s.relations.bulkRelate(kind, pairs)
}

func (s *Store) OutIDs(in string, kind domain.Rel) []string { return s.relations.outIDs(in, kind) }
func (s *Store) InIDs(out string, kind domain.Rel) []string { return s.relations.inIDs(out, kind) }

// --- Persistence ---

type snapshot struct {
	Collections map[string]domain.Collection `json:"collections"`
	Entries     map[string]domain.Entry      `json:"entries"`
	Musics      map[string]domain.Music      `json:"musics"`
	Relations   []edgeRecord                 `json:"relations"`
}

// Save writes the whole store to s.path using the atomic write
// protocol. A no-op when the store has no backing path.
func (s *Store) Save() error {
	if s.path == "" {
		return nil
	}
	snap := snapshot{
		Collections: s.collections.snapshot(),
		Entries:     s.entries.snapshot(),
		Musics:      s.musics.snapshot(),
		Relations:   s.relations.snapshot(),
	}
	if err := atomicfile.WriteJSON(s.path, snap); err != nil {
		return fmt.Errorf("%w: %v", ErrStoreFailed, err)
	}
	return nil
}

// Load replaces the store's contents with whatever is persisted at
// s.path. A missing file is treated as an empty store, matching the
// teacher's config.Load convention of defaulting on a missing file.
func (s *Store) Load() error {
	if s.path == "" {
		return nil
	}
	var snap snapshot
	if err := atomicfile.ReadJSON(s.path, &snap); err != nil {
		if isNotExist(err) {
			return nil
		}
		return fmt.Errorf("%w: %v", ErrStoreFailed, err)
	}
	s.collections.restore(snap.Collections, collectionKey)
	s.entries.restore(snap.Entries, entryKey)
	s.musics.restore(snap.Musics, musicKey)
	s.relations.restore(snap.Relations)
	return nil
}
