package queue

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/GrahLnn/slisic/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewClampsWorkers(t *testing.T) {
	q := New(10, 0, nil, nil)
	assert.Equal(t, MaxWorkers, q.workers)

	q = New(10, 99, nil, nil)
	assert.Equal(t, MaxWorkers, q.workers)

	q = New(10, 2, nil, nil)
	assert.Equal(t, 2, q.workers)
}

func TestEnqueueAndFinalizeRunOnSuccess(t *testing.T) {
	var mu sync.Mutex
	var finalized []string

	process := func(ctx context.Context, job domain.MissionEntry) (domain.ProcessResult, error) {
		return domain.ProcessResult{Name: job.Title, SavedPath: "/out/" + job.Title}, nil
	}
	finalize := func(ctx context.Context, job domain.MissionEntry, result domain.ProcessResult) error {
		mu.Lock()
		defer mu.Unlock()
		finalized = append(finalized, result.SavedPath)
		return nil
	}

	q := New(4, 1, process, finalize)
	q.Start()

	require.NoError(t, q.Enqueue(context.Background(), domain.MissionEntry{ID: "1", Title: "a"}))
	require.NoError(t, q.Enqueue(context.Background(), domain.MissionEntry{ID: "2", Title: "b"}))

	q.Close()

	mu.Lock()
	defer mu.Unlock()
	assert.ElementsMatch(t, []string{"/out/a", "/out/b"}, finalized)
}

func TestTryEnqueueFailsWhenFull(t *testing.T) {
	block := make(chan struct{})
	process := func(ctx context.Context, job domain.MissionEntry) (domain.ProcessResult, error) {
		<-block
		return domain.ProcessResult{}, nil
	}
	finalize := func(ctx context.Context, job domain.MissionEntry, result domain.ProcessResult) error {
		return nil
	}

	q := New(1, 1, process, finalize)
	q.Start()

	require.True(t, q.TryEnqueue(domain.MissionEntry{ID: "1"}))
	time.Sleep(20 * time.Millisecond) // let the worker pick it up and block inside process
	require.True(t, q.TryEnqueue(domain.MissionEntry{ID: "2"}))
	assert.False(t, q.TryEnqueue(domain.MissionEntry{ID: "3"}), "channel at capacity must reject without blocking")

	close(block)
	q.Close()
}

func TestEnqueueRespectsContextCancellation(t *testing.T) {
	q := New(1, 1, nil, nil) // no Start(): nothing drains the channel
	q.ch <- domain.MissionEntry{ID: "filler"}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	err := q.Enqueue(ctx, domain.MissionEntry{ID: "blocked"})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
