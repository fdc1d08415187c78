package toolchain

import (
	"os/exec"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewTranscoderDefaultsBinPath(t *testing.T) {
	tr := NewTranscoder("")
	assert.Equal(t, "ffmpeg", tr.binPath)
}

func TestIntegratedLoudnessRegexTakesLastSummary(t *testing.T) {
	out := []byte(`
[Parsed_ebur128_0 @ 0x0] t: 1.0 M: -20.0 S: -18.0 I: -19.0 LUFS

Summary:

  Integrated loudness:
    I:         -16.4 LUFS
    Threshold: -26.8 LUFS
`)
	matches := integratedLoudnessRe.FindAllSubmatch(out, -1)
	assert.Len(t, matches, 2)
	assert.Equal(t, "-16.4", string(matches[len(matches)-1][1]))
}

func TestSilenceRegexes(t *testing.T) {
	out := []byte("[silencedetect @ 0x0] silence_start: 0\n[silencedetect @ 0x0] silence_end: 1.234 | silence_duration: 1.234\n")
	starts := silenceStartRe.FindAllSubmatch(out, -1)
	ends := silenceEndRe.FindAllSubmatch(out, -1)
	assert.Len(t, starts, 1)
	assert.Equal(t, "0", string(starts[0][1]))
	assert.Len(t, ends, 1)
	assert.Equal(t, "1.234", string(ends[0][1]))
}

func TestContainerTweaks(t *testing.T) {
	assert.Equal(t, []string{"-movflags", "+faststart"}, containerTweaks("m4a"))
	assert.Equal(t, []string{"-movflags", "+faststart"}, containerTweaks("mp4"))
	assert.Equal(t, []string{"-f", "adts"}, containerTweaks("aac"))
	assert.Nil(t, containerTweaks("flac"))
}

func TestIsExecNotFound(t *testing.T) {
	_, err := exec.LookPath("definitely-not-a-real-binary-xyz")
	assert.Error(t, err)

	var target *exec.Error
	assert.True(t, isExecNotFound(err, &target))
}

func TestFormatSeconds(t *testing.T) {
	assert.Equal(t, "1.500", formatSeconds(1.5))
	assert.Equal(t, "0.000", formatSeconds(0))
}
