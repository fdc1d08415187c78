// Package startup wires the graph store, pipeline engine, download
// queue, coordinator and toolchain facades into one running System,
// then resumes whatever the journal says was interrupted on the
// previous run. This is the one place the independently-testable
// packages get bolted together; cmd/slisic builds a System and hands
// its components to internal/server rather than constructing them by hand.
package startup

import (
	"context"
	"log/slog"

	"github.com/GrahLnn/slisic/config"
	"github.com/GrahLnn/slisic/internal/coordinator"
	"github.com/GrahLnn/slisic/internal/domain"
	"github.com/GrahLnn/slisic/internal/graph"
	"github.com/GrahLnn/slisic/internal/journal"
	"github.com/GrahLnn/slisic/internal/pipeline"
	"github.com/GrahLnn/slisic/internal/progress"
	"github.com/GrahLnn/slisic/internal/queue"
	"github.com/GrahLnn/slisic/internal/toolchain"
	"github.com/sourcegraph/conc/pool"
)

// Paths collects every filesystem location the system needs, resolved
// by the caller (cmd/slisic) from the user's data/cache directories.
type Paths struct {
	GraphSnapshot string // graph.json
	AppConfig     string // config.json (save_path, version)
	WorkRoot      string // journal + in-progress downloads
	SaveRoot      string // finished library tree
	ToolchainBin  string // directory holding ytdlp/ffmpeg binaries
}

// System is every wired-up component a running slisic process needs.
type System struct {
	Config *config.Config
	Paths  Paths

	Store       *graph.Store
	Progress    *progress.Broadcaster
	Coordinator *coordinator.Coordinator
	Queue       *queue.Queue
	Engine      *pipeline.Engine

	Downloader    *toolchain.Downloader
	Transcoder    *toolchain.Transcoder
	YtdlpUpdater  *toolchain.Updater
	FfmpegUpdater *toolchain.Updater
}

// Build constructs every component and starts the queue's worker pool,
// but does not resume interrupted jobs — call Resume separately once
// the caller is ready to accept background work.
func Build(cfg *config.Config, paths Paths) (*System, error) {
	store := graph.New(paths.GraphSnapshot)
	if err := store.Load(); err != nil {
		return nil, err
	}

	prog := progress.NewBroadcaster()
	downloader := toolchain.NewDownloader(cfg.Toolchain.YtdlpPath)
	transcoder := toolchain.NewTranscoder(cfg.Toolchain.FfmpegPath)

	engine := pipeline.New(paths.WorkRoot, paths.SaveRoot, downloader, transcoder, prog)
	engine.Concurrency = concurrencyOrDefault(cfg.Pipeline.DefaultConcurrency, pipeline.DefaultConcurrency)

	sys := &System{
		Config:        cfg,
		Paths:         paths,
		Store:         store,
		Progress:      prog,
		Engine:        engine,
		Downloader:    downloader,
		Transcoder:    transcoder,
		YtdlpUpdater:  toolchain.NewYtdlpUpdater(paths.ToolchainBin),
		FfmpegUpdater: toolchain.NewFfmpegUpdater(paths.ToolchainBin),
	}

	q := queue.New(cfg.Queue.Capacity, cfg.Queue.Workers, sys.process, sys.finalize)
	sys.Queue = q

	coord := coordinator.New(store, q, transcoder, prog)
	coord.FanOut = fanOutOrDefault(cfg.Pipeline.FanOutLimit, coordinator.DefaultFanOut)
	sys.Coordinator = coord

	q.Start()
	return sys, nil
}

func concurrencyOrDefault(v, def int) int {
	if v <= 0 {
		return def
	}
	return v
}

func fanOutOrDefault(v, def int) int {
	if v <= 0 {
		return def
	}
	return v
}

// process runs the pipeline engine for one queued root job and stamps
// the job's playlist label onto its result (the same label the engine
// already copies from the node it processed).
func (s *System) process(ctx context.Context, job domain.MissionEntry) (domain.ProcessResult, error) {
	result, err := s.Engine.Process(ctx, job, nil, nil)
	if err != nil {
		return domain.ProcessResult{}, err
	}
	result.Playlist = job.Playlist
	return result, nil
}

// finalize is the queue's post-success hook: it hands the saved path
// off to the coordinator's download_ok path, which catalogues the
// resulting audio files against the owning Entry.
func (s *System) finalize(ctx context.Context, job domain.MissionEntry, result domain.ProcessResult) error {
	if job.EntryID == "" {
		// A resumed root job reconstructed from the journal alone has no
		// recorded EntryID (the journal snapshot does not carry graph
		// ids) — there is no Entry left to patch, so finalize is a no-op
		// beyond what process already persisted to the journal itself.
		return nil
	}
	return s.Coordinator.DownloadOk(ctx, job.EntryID, result.IntoDownloadAnswer())
}

// DefaultResumeConcurrency bounds how many interrupted jobs Resume
// re-enqueues at once. Deliberately distinct from the pipeline's own
// playlist fan-out (pipeline.DefaultConcurrency=16): a resume sweep
// competes with the queue's own workers for the same machine, so it
// gets the coordinator's more conservative default instead.
const DefaultResumeConcurrency = 8

// ResumePlaylist labels progress events for jobs re-enqueued from the
// journal rather than a live create/update call, since the journal
// snapshot does not carry the original playlist name. Exported so a
// caller (the CLI's resume spinner) can filter the broadcaster for
// resume-only events.
const ResumePlaylist = "__resume__"

const resumePlaylist = ResumePlaylist

// Resume walks the journal for jobs that were interrupted by a crash
// or restart and re-enqueues every resumable root node (one with no
// ancestors — a playlist child's resumability is handled by its
// parent's own re-run) through the same queue ordinary jobs use,
// bounded by DefaultResumeConcurrency so a startup with many
// interrupted jobs cannot overwhelm the machine. It returns the number
// of jobs re-enqueued, so a CLI caller can size a progress indicator.
func (s *System) Resume(ctx context.Context) (int, error) {
	candidates, err := journal.Walk(s.Paths.WorkRoot)
	if err != nil {
		return 0, err
	}

	jobs := rootResumeJobs(candidates)

	p := pool.New().WithMaxGoroutines(DefaultResumeConcurrency)
	for _, job := range jobs {
		job := job
		p.Go(func() {
			if err := s.Queue.Enqueue(ctx, job); err != nil {
				slog.Error("startup: resume enqueue failed", "node_id", job.ID, "error", err)
			}
		})
	}
	p.Wait()

	slog.Info("startup: resume scan complete", "resumed", len(jobs))
	return len(jobs), nil
}

// rootResumeJobs filters the journal walk down to top-level resumable
// nodes (no ancestors) and reconstructs the MissionEntry each one needs
// to be re-run from scratch. A playlist's children are not resumed
// independently: re-running the root re-probes and re-fans-out over
// them under fresh child ids, so their earlier journal nodes are not
// consulted; a single whose <title>.m4a already exists in the save
// tree is reused rather than downloaded again.
func rootResumeJobs(candidates []journal.Candidate) []domain.MissionEntry {
	jobs := make([]domain.MissionEntry, 0, len(candidates))
	for _, cand := range candidates {
		if len(cand.AncestorIDs) != 0 {
			continue
		}
		jobs = append(jobs, domain.MissionEntry{
			ID:       cand.NodeID,
			URL:      cand.State.URL,
			Title:    cand.State.Title,
			Playlist: resumePlaylist,
		})
	}
	return jobs
}

// Shutdown stops accepting new jobs, drains in-flight workers and
// persists the graph snapshot.
func (s *System) Shutdown() error {
	s.Queue.Close()
	return s.Store.Save()
}
