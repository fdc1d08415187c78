package graph

import "errors"

// ErrNotFound is returned when a lookup by id or unique field finds
// nothing. It maps to the spec's NotFound error kind.
var ErrNotFound = errors.New("not found")

// ErrStoreFailed wraps a graph-store operation that failed for reasons
// other than a missing record (e.g. a malformed persisted snapshot). It
// maps to the spec's StoreFailed error kind.
var ErrStoreFailed = errors.New("store failed")
