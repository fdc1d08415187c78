package graph

import (
	"crypto/sha1"
	"encoding/hex"

	"github.com/GrahLnn/slisic/internal/domain"
)

// RecordIDFor deterministically derives a node id from its identity
// key, without touching the store. Collection and Entry are keyed by
// name; Music is keyed by path. Predicting an id this way lets callers
// build relation edges before the corresponding insert_ignore runs.
func RecordIDFor(table domain.Table, key string) string {
	sum := sha1.Sum([]byte(string(table) + ":" + key))
	return string(table) + "_" + hex.EncodeToString(sum[:])[:24]
}
