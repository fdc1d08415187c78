package toolchain

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/GrahLnn/slisic/internal/domain"
	"github.com/GrahLnn/slisic/internal/sanitize"
)

// Transcoder is the facade over the external transcoder binary
// (ffmpeg-compatible): loudness measurement, leading-silence trim and
// chapter splitting, all via stream copy unless FLAC re-encoding is
// explicitly requested.
type Transcoder struct {
	binPath string
}

// NewTranscoder builds a facade invoking binPath ("ffmpeg" if empty).
func NewTranscoder(binPath string) *Transcoder {
	if binPath == "" {
		binPath = "ffmpeg"
	}
	return &Transcoder{binPath: binPath}
}

// run invokes the transcoder, returning its combined stdout+stderr
// diagnostic stream. Stdin is never attached so no process ever blocks
// waiting on it, and on Windows no console window would be created
// (exec.Cmd does not allocate one unless SysProcAttr requests it).
func (t *Transcoder) run(ctx context.Context, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, t.binPath, args...)
	cmd.Stdin = nil

	var out bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &out

	err := cmd.Run()
	if err != nil {
		var execErr *exec.Error
		if ctxErr := ctx.Err(); ctxErr != nil {
			return out.Bytes(), ctxErr
		}
		if isExecNotFound(err, &execErr) {
			return out.Bytes(), fmt.Errorf("%w: %s: %v", ErrToolchainUnavailable, t.binPath, err)
		}
		return out.Bytes(), fmt.Errorf("%w: %v", ErrToolchainFailed, newExecError(cmd.String(), out.Bytes(), err))
	}
	return out.Bytes(), nil
}

func isExecNotFound(err error, target **exec.Error) bool {
	for err != nil {
		if ee, ok := err.(*exec.Error); ok {
			*target = ee
			return true
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return false
		}
		err = u.Unwrap()
	}
	return false
}

var integratedLoudnessRe = regexp.MustCompile(`I:\s*(-?\d+(?:\.\d+)?)\s*LUFS`)

// IntegratedLoudness measures a file's EBU R128 integrated loudness by
// running the ebur128 filter and parsing "I: <number> LUFS" out of the
// diagnostic stream's summary section.
func (t *Transcoder) IntegratedLoudness(ctx context.Context, path string) (float64, error) {
	out, err := t.run(ctx,
		"-hide_banner", "-nostats",
		"-i", path,
		"-af", "ebur128=peak=true",
		"-f", "null", "-",
	)
	if err != nil {
		return 0, err
	}

	matches := integratedLoudnessRe.FindAllSubmatch(out, -1)
	if len(matches) == 0 {
		return 0, fmt.Errorf("%w: no integrated loudness summary in output", ErrToolchainUnparseable)
	}
	// The summary line is printed last; take the final match.
	last := matches[len(matches)-1]
	v, err := strconv.ParseFloat(string(last[1]), 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrToolchainUnparseable, err)
	}
	return v, nil
}

var silenceStartRe = regexp.MustCompile(`silence_start:\s*(-?\d+(?:\.\d+)?)`)
var silenceEndRe = regexp.MustCompile(`silence_end:\s*(-?\d+(?:\.\d+)?)`)

// TrimLeadingSilence detects a silence span starting at time 0 (noise
// floor -60dB, minimum duration 0.5s) and, if present, stream-copies
// from the silence_end offset to a sibling temp file before atomically
// replacing the original. Absence of a leading silence span is a
// successful no-op; the original file's bytes are left untouched.
func (t *Transcoder) TrimLeadingSilence(ctx context.Context, path string) error {
	out, err := t.run(ctx,
		"-hide_banner", "-nostats",
		"-i", path,
		"-af", "silencedetect=noise=-60dB:d=0.5",
		"-f", "null", "-",
	)
	if err != nil {
		return err
	}

	starts := silenceStartRe.FindAllSubmatch(out, -1)
	ends := silenceEndRe.FindAllSubmatch(out, -1)
	if len(starts) == 0 {
		return nil
	}

	firstStart, err := strconv.ParseFloat(string(starts[0][1]), 64)
	if err != nil || firstStart > 1e-6 {
		return nil // no leading silence span
	}
	if len(ends) == 0 {
		return fmt.Errorf("%w: silence_start with no matching silence_end", ErrToolchainUnparseable)
	}
	offset := string(ends[0][1])

	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(path), "."))
	tmp, err := os.CreateTemp(filepath.Dir(path), "trim_*."+ext)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrToolchainFailed, err)
	}
	tmpPath := tmp.Name()
	tmp.Close()
	defer os.Remove(tmpPath)

	args := []string{"-y", "-nostdin", "-ss", offset, "-i", path, "-map", "0:a", "-c", "copy"}
	args = append(args, containerTweaks(ext)...)
	args = append(args, tmpPath)

	if _, err := t.run(ctx, args...); err != nil {
		return err
	}

	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("%w: replacing %s: %v", ErrToolchainFailed, path, err)
	}
	return nil
}

// containerTweaks returns the extra flags a container needs for a
// stream-copy trim/split to stay seekable and correctly muxed.
func containerTweaks(ext string) []string {
	switch ext {
	case "m4a", "mp4":
		return []string{"-movflags", "+faststart"}
	case "aac":
		return []string{"-f", "adts"}
	default:
		return nil
	}
}

// FlacOpts requests FLAC re-encoding instead of the default stream
// copy for SplitByChapters.
type FlacOpts struct {
	CompressionLevel int
	CarryMetadata    bool
}

// SplitByChapters produces one output file per chapter, named after its
// sanitised title, ordered as the input chapters were ordered. Default
// mode is stream copy; flac requests re-encoding to FLAC instead.
func (t *Transcoder) SplitByChapters(ctx context.Context, src string, chapters []domain.Chapter, outDir string, flac *FlacOpts) ([]string, error) {
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return nil, fmt.Errorf("%w: mkdir %s: %v", ErrToolchainFailed, outDir, err)
	}

	srcExt := strings.ToLower(strings.TrimPrefix(filepath.Ext(src), "."))
	outExt := srcExt
	if flac != nil {
		outExt = "flac"
	}

	outputs := make([]string, 0, len(chapters))
	for _, ch := range chapters {
		name := sanitize.Segment(ch.Title)
		if name == "" {
			name = "untitled"
		}
		out := filepath.Join(outDir, fmt.Sprintf("%s.%s", name, outExt))

		args := []string{
			"-y", "-nostdin",
			"-i", src,
			"-ss", formatSeconds(ch.Start),
			"-to", formatSeconds(ch.End),
			"-map", "0:a:0?",
			"-vn",
		}
		if flac != nil {
			metadataFlag := "-1"
			if flac.CarryMetadata {
				metadataFlag = "0"
			}
			args = append(args,
				"-map_metadata", metadataFlag,
				"-c:a", "flac",
				"-compression_level", strconv.Itoa(flac.CompressionLevel),
			)
		} else {
			args = append(args, "-c", "copy")
		}
		args = append(args, out)

		if _, err := t.run(ctx, args...); err != nil {
			return nil, fmt.Errorf("chapter %q: %w", ch.Title, err)
		}
		outputs = append(outputs, out)
	}

	slog.Debug("split by chapters", "src", src, "count", len(outputs))
	return outputs, nil
}

func formatSeconds(v float64) string {
	return strconv.FormatFloat(v, 'f', 3, 64)
}
