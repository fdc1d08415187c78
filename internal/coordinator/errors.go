package coordinator

import "errors"

// ErrCollectionNotFound and friends are returned when a read operation
// targets a record the graph store does not have.
var (
	ErrCollectionNotFound = errors.New("coordinator: collection not found")
	ErrEntryNotFound      = errors.New("coordinator: entry not found")
	ErrMusicNotFound      = errors.New("coordinator: music not found")
)
