package toolchain

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/GrahLnn/slisic/internal/domain"
)

// Downloader is the facade over the external downloader binary
// (yt-dlp-compatible): metadata probing and best-audio fetch.
type Downloader struct {
	binPath string
}

// NewDownloader builds a facade invoking binPath ("yt-dlp" if empty).
func NewDownloader(binPath string) *Downloader {
	if binPath == "" {
		binPath = "yt-dlp"
	}
	return &Downloader{binPath: binPath}
}

// ProbeEntry is one child of a probed playlist.
type ProbeEntry struct {
	URL   string `json:"url"`
	Title string `json:"title"`
}

// ProbeResult is the structured document probe_url extracts from the
// downloader's flat-playlist metadata-only output.
type ProbeResult struct {
	Title      string
	IsPlaylist bool
	Entries    []ProbeEntry
	Chapters   []domain.Chapter
}

type probeEntryWire struct {
	URL   string `json:"url"`
	Title string `json:"title"`
}

type probeChapterWire struct {
	Title     string   `json:"title"`
	StartTime float64  `json:"start_time"`
	EndTime   *float64 `json:"end_time"`
}

type probeWire struct {
	Type     string           `json:"_type"`
	Title    string           `json:"title"`
	Entries  []probeEntryWire `json:"entries"`
	Chapters []probeChapterWire `json:"chapters"`
}

// ProbeURL runs the downloader with metadata-only, flat-playlist
// output: -J --skip-download --flat-playlist <url>.
func (d *Downloader) ProbeURL(ctx context.Context, url string) (ProbeResult, error) {
	if url == "" {
		return ProbeResult{}, fmt.Errorf("%w: empty url", ErrInvalidInput)
	}

	cmd := exec.CommandContext(ctx, d.binPath, "-J", "--skip-download", "--flat-playlist", url)
	cmd.Stdin = nil

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ProbeResult{}, ctxErr
		}
		var execErr *exec.Error
		if isExecNotFound(err, &execErr) {
			return ProbeResult{}, fmt.Errorf("%w: %s: %v", ErrToolchainUnavailable, d.binPath, err)
		}
		if msg := firstErrorLine(stderr.String(), url); msg != "" {
			return ProbeResult{}, fmt.Errorf("%w: %s", ErrToolchainFailed, msg)
		}
		return ProbeResult{}, fmt.Errorf("%w: %v", ErrToolchainFailed, newExecError(cmd.String(), stderr.Bytes(), err))
	}

	var wire probeWire
	if err := json.Unmarshal(stdout.Bytes(), &wire); err != nil {
		return ProbeResult{}, fmt.Errorf("%w: %v", ErrToolchainUnparseable, err)
	}

	result := ProbeResult{
		Title:      wire.Title,
		IsPlaylist: wire.Type == "playlist" || len(wire.Entries) > 0,
	}
	for _, e := range wire.Entries {
		result.Entries = append(result.Entries, ProbeEntry{URL: e.URL, Title: e.Title})
	}
	for _, c := range wire.Chapters {
		end := c.StartTime
		if c.EndTime != nil {
			end = *c.EndTime
		}
		result.Chapters = append(result.Chapters, domain.Chapter{Title: c.Title, Start: c.StartTime, End: end})
	}
	return result, nil
}

// firstErrorLine extracts the first "ERROR: ..." line from the
// downloader's stderr, with the probed URL's trailing occurrence
// stripped (the downloader appends it verbatim to many messages).
func firstErrorLine(stderr, url string) string {
	scanner := bufio.NewScanner(strings.NewReader(stderr))
	for scanner.Scan() {
		line := scanner.Text()
		if idx := strings.Index(line, "ERROR:"); idx >= 0 {
			msg := strings.TrimSpace(line[idx+len("ERROR:"):])
			msg = strings.TrimSuffix(msg, url)
			return strings.TrimSpace(msg)
		}
	}
	return ""
}

// DownloadAudio downloads the best available audio stream to dir,
// resumable and non-overwriting, restricted to portable filenames, with
// up to 8 parallel connections. Returns the final file path, printed by
// the downloader after post-processing; falls back to the newest audio
// file in dir if no path line was printed.
func (d *Downloader) DownloadAudio(ctx context.Context, url, dir string) (string, error) {
	if url == "" {
		return "", fmt.Errorf("%w: empty url", ErrInvalidInput)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("%w: mkdir %s: %v", ErrToolchainFailed, dir, err)
	}

	template := filepath.Join(dir, "%(title)s.%(ext)s")
	cmd := exec.CommandContext(ctx, d.binPath,
		"-f", "bestaudio",
		"--no-playlist",
		"--continue",
		"--no-overwrites",
		"--windows-filenames",
		"-N", "8",
		"-o", template,
		"--print", "after_move:filepath",
		"--print", "before_dl:filepath",
		url,
	)
	cmd.Stdin = nil

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return "", ctxErr
		}
		var execErr *exec.Error
		if isExecNotFound(err, &execErr) {
			return "", fmt.Errorf("%w: %s: %v", ErrToolchainUnavailable, d.binPath, err)
		}
		if msg := firstErrorLine(stderr.String(), url); msg != "" {
			return "", fmt.Errorf("%w: %s", ErrToolchainFailed, msg)
		}
		return "", fmt.Errorf("%w: %v", ErrToolchainFailed, newExecError(cmd.String(), stderr.Bytes(), err))
	}

	if path := lastNonEmptyLine(stdout.String()); path != "" {
		if _, statErr := os.Stat(path); statErr == nil {
			return path, nil
		}
	}

	newest, err := newestAudioFile(dir)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrToolchainUnparseable, err)
	}
	return newest, nil
}

func lastNonEmptyLine(s string) string {
	lines := strings.Split(strings.TrimRight(s, "\n"), "\n")
	for i := len(lines) - 1; i >= 0; i-- {
		if trimmed := strings.TrimSpace(lines[i]); trimmed != "" {
			return trimmed
		}
	}
	return ""
}

// AudioExtensions are the file extensions treated as audio, shared by
// the fallback newest-file scan here and by the coordinator's folder
// scanning.
var AudioExtensions = map[string]bool{
	".mp3": true, ".flac": true, ".wav": true, ".aac": true,
	".m4a": true, ".ogg": true, ".opus": true, ".aiff": true, ".webm": true,
}

// IsAudioFile reports whether path's extension is a recognised audio
// format.
func IsAudioFile(path string) bool {
	return AudioExtensions[strings.ToLower(filepath.Ext(path))]
}

func newestAudioFile(dir string) (string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", err
	}
	type candidate struct {
		path    string
		modTime time.Time
	}
	var candidates []candidate
	for _, e := range entries {
		if e.IsDir() || !IsAudioFile(e.Name()) {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		candidates = append(candidates, candidate{path: filepath.Join(dir, e.Name()), modTime: info.ModTime()})
	}
	if len(candidates) == 0 {
		return "", fmt.Errorf("no audio file found in %s", dir)
	}
	sort.Slice(candidates, func(i, j int) bool { return candidates[i].modTime.After(candidates[j].modTime) })
	return candidates[0].path, nil
}
