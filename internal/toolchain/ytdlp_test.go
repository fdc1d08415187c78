package toolchain

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFirstErrorLineStripsURL(t *testing.T) {
	stderr := "WARNING: ignore me\nERROR: Unsupported URL: https://example.com/x\n"
	got := firstErrorLine(stderr, "https://example.com/x")
	assert.Equal(t, "Unsupported URL:", got)
}

func TestFirstErrorLineNoMatch(t *testing.T) {
	assert.Equal(t, "", firstErrorLine("all good\n", "u"))
}

func TestLastNonEmptyLine(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "trailing blank lines ignored", input: "/a/b.m4a\n\n\n", want: "/a/b.m4a"},
		{name: "single line", input: "/a/b.m4a", want: "/a/b.m4a"},
		{name: "all blank", input: "\n\n", want: ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, lastNonEmptyLine(tt.input))
		})
	}
}

func TestNewestAudioFilePicksMostRecentAudioExt(t *testing.T) {
	dir := t.TempDir()

	older := filepath.Join(dir, "older.m4a")
	require.NoError(t, os.WriteFile(older, []byte("x"), 0o644))

	notAudio := filepath.Join(dir, "notes.txt")
	require.NoError(t, os.WriteFile(notAudio, []byte("x"), 0o644))

	newer := filepath.Join(dir, "newer.mp3")
	require.NoError(t, os.WriteFile(newer, []byte("x"), 0o644))

	now := time.Now()
	require.NoError(t, os.Chtimes(older, now.Add(-time.Hour), now.Add(-time.Hour)))
	require.NoError(t, os.Chtimes(newer, now, now))

	got, err := newestAudioFile(dir)
	require.NoError(t, err)
	assert.Equal(t, newer, got)
}

func TestNewestAudioFileNoCandidates(t *testing.T) {
	dir := t.TempDir()
	_, err := newestAudioFile(dir)
	assert.Error(t, err)
}
