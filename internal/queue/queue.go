// Package queue implements the global download queue: a bounded
// multi-producer, multi-consumer channel drained by a fixed pool of
// workers, each running one remote-entry job at a time, grounded on original_source's
// utils/enq.rs (init_global_download_queue, enqueue, try_enqueue,
// finalize_process).
package queue

import (
	"context"
	"log/slog"

	"github.com/GrahLnn/slisic/internal/domain"
	"github.com/sourcegraph/conc"
)

// DefaultCapacity is the queue's default channel capacity.
const DefaultCapacity = 1024

// MinWorkers and MaxWorkers bound the worker pool size.
const (
	MinWorkers = 1
	MaxWorkers = 4
)

// ProcessFunc runs the pipeline engine for one queued job.
type ProcessFunc func(ctx context.Context, job domain.MissionEntry) (domain.ProcessResult, error)

// FinalizeFunc is invoked after a job's ProcessFunc succeeds: in a
// running System it is the coordinator's DownloadOk path. Neither the
// queue nor that hook removes the node's working directory.
type FinalizeFunc func(ctx context.Context, job domain.MissionEntry, result domain.ProcessResult) error

// Queue is the process-wide download queue. A single instance is
// constructed once at startup, matching the spec's "process-wide
// download channel handle lives in one-time-initialised global
// storage" (the caller owns making it a singleton; Queue itself is a
// plain value, not a package-level global, so it stays testable).
type Queue struct {
	ch       chan domain.MissionEntry
	workers  int
	process  ProcessFunc
	finalize FinalizeFunc
	wg       conc.WaitGroup
}

// New builds a queue with the given channel capacity and worker count.
// A worker count above MaxWorkers is capped at MaxWorkers; one below
// MinWorkers (such as an unset 0) falls back to MaxWorkers, the default.
func New(capacity, workers int, process ProcessFunc, finalize FinalizeFunc) *Queue {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	if workers < MinWorkers {
		workers = MaxWorkers
	}
	if workers > MaxWorkers {
		workers = MaxWorkers
	}
	return &Queue{
		ch:       make(chan domain.MissionEntry, capacity),
		workers:  workers,
		process:  process,
		finalize: finalize,
	}
}

// Start spawns the worker pool. Each worker loops: receive a job,
// invoke the pipeline engine for it, and on success call finalize; on
// failure, log and continue to the next job. Workers share nothing but
// the channel itself — Go channels are safe for concurrent receive by
// multiple goroutines, which is the idiomatic equivalent of the
// mutex-guarded receiver the source wraps around a single-consumer
// mpsc channel.
func (q *Queue) Start() {
	for i := 0; i < q.workers; i++ {
		q.wg.Go(q.workerLoop)
	}
}

func (q *Queue) workerLoop() {
	for job := range q.ch {
		ctx := context.Background()
		result, err := q.process(ctx, job)
		if err != nil {
			slog.Error("queue worker: process failed", "job_id", job.ID, "url", job.URL, "error", err)
			continue
		}
		if err := q.finalize(ctx, job, result); err != nil {
			slog.Error("queue worker: finalize failed", "job_id", job.ID, "error", err)
		}
	}
}

// Enqueue blocks until the job is accepted or ctx is done.
func (q *Queue) Enqueue(ctx context.Context, job domain.MissionEntry) error {
	select {
	case q.ch <- job:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// TryEnqueue is the non-blocking escape hatch for call sites that must
// not await: it reports whether the job was accepted.
func (q *Queue) TryEnqueue(job domain.MissionEntry) bool {
	select {
	case q.ch <- job:
		return true
	default:
		return false
	}
}

// Close stops accepting new jobs and waits for in-flight workers to
// drain the channel.
func (q *Queue) Close() {
	close(q.ch)
	q.wg.Wait()
}
