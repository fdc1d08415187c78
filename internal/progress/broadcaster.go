// Package progress broadcasts per-track ProcessMsg events to any
// number of registered listeners, adapted from the teacher's
// ProgressTracker (internal/progress/progress.go, since superseded by
// this file) down to the shape the event model actually needs:
// {playlist, str}, with a reserved "__error__" playlist carrying
// background-task failures.
package progress

import (
	"reflect"
	"sync"

	"github.com/GrahLnn/slisic/internal/domain"
)

// Listener receives every emitted ProcessMsg.
type Listener func(domain.ProcessMsg)

// Broadcaster fans a ProcessMsg out to every registered listener.
type Broadcaster struct {
	mu        sync.RWMutex
	listeners []Listener
}

// NewBroadcaster builds an empty broadcaster.
func NewBroadcaster() *Broadcaster {
	return &Broadcaster{}
}

// AddListener registers a new listener.
func (b *Broadcaster) AddListener(l Listener) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.listeners = append(b.listeners, l)
}

// RemoveListener unregisters a previously-added listener, matched by
// function pointer identity.
func (b *Broadcaster) RemoveListener(l Listener) {
	b.mu.Lock()
	defer b.mu.Unlock()

	target := reflect.ValueOf(l).Pointer()
	for i := range b.listeners {
		if reflect.ValueOf(b.listeners[i]).Pointer() == target {
			b.listeners = append(b.listeners[:i], b.listeners[i+1:]...)
			break
		}
	}
}

// Emit sends {playlist, str} to every listener.
func (b *Broadcaster) Emit(playlist, str string) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	msg := domain.ProcessMsg{Playlist: playlist, Str: str}
	for _, l := range b.listeners {
		l(msg)
	}
}

// EmitError sends a background-task failure under the reserved
// "__error__" playlist label.
func (b *Broadcaster) EmitError(str string) {
	b.Emit(domain.ErrorPlaylist, str)
}
