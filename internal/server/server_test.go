package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/GrahLnn/slisic/config"
	"github.com/GrahLnn/slisic/internal/coordinator"
	"github.com/GrahLnn/slisic/internal/domain"
	"github.com/GrahLnn/slisic/internal/graph"
	"github.com/GrahLnn/slisic/internal/toolchain"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeTranscoder struct{}

func (fakeTranscoder) IntegratedLoudness(ctx context.Context, path string) (float64, error) {
	return -14.0, nil
}
func (fakeTranscoder) TrimLeadingSilence(ctx context.Context, path string) error { return nil }

type fakeQueue struct{ jobs []domain.MissionEntry }

func (f *fakeQueue) Enqueue(ctx context.Context, job domain.MissionEntry) error {
	f.jobs = append(f.jobs, job)
	return nil
}

func newTestServer(t *testing.T) (*Server, *httptest.Server) {
	gin.SetMode(gin.TestMode)

	store := graph.New("")
	coord := coordinator.New(store, &fakeQueue{}, fakeTranscoder{}, nil)

	cfg := &config.Config{Server: config.ServerConfig{Port: "0"}}
	appConfigPath := filepath.Join(t.TempDir(), "config.json")

	binDir := t.TempDir()
	srv := New(cfg, appConfigPath, coord,
		toolchain.NewDownloader(""),
		toolchain.NewYtdlpUpdater(binDir),
		toolchain.NewFfmpegUpdater(binDir),
	)

	router := gin.New()
	srv.router = router
	srv.setupRoutes(router)

	return srv, httptest.NewServer(router)
}

func TestHealthEndpoint(t *testing.T) {
	_, ts := newTestServer(t)
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestCreateAndReadCollection(t *testing.T) {
	_, ts := newTestServer(t)
	defer ts.Close()

	mission := domain.CollectMission{
		Name: "A",
		Entries: []domain.Entry{
			{Name: "x", Path: strPtr("/x")},
		},
	}
	body, err := json.Marshal(mission)
	require.NoError(t, err)

	resp, err := http.Post(ts.URL+"/api/collections", "application/json", strings.NewReader(string(body)))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusAccepted, resp.StatusCode)

	resp2, err := http.Get(ts.URL + "/api/collections/A")
	require.NoError(t, err)
	defer resp2.Body.Close()
	assert.Equal(t, http.StatusOK, resp2.StatusCode)

	var playlist domain.Playlist
	require.NoError(t, json.NewDecoder(resp2.Body).Decode(&playlist))
	assert.Equal(t, "A", playlist.Name)
	require.Len(t, playlist.Entries, 1)
	assert.Equal(t, "x", playlist.Entries[0].Name)
}

func TestReadMissingCollectionReturns404(t *testing.T) {
	_, ts := newTestServer(t)
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/api/collections/missing")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	var errResp ErrorResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&errResp))
	assert.NotEmpty(t, errResp.Error)
}

func TestResolveSavePathDefaults(t *testing.T) {
	_, ts := newTestServer(t)
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/api/config/save-path")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var out SavePathResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	assert.True(t, strings.HasSuffix(out.SavePath, filepath.Join("Documents", "slisic")))
}

func TestExistsEndpoint(t *testing.T) {
	_, ts := newTestServer(t)
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/api/fs/exists?path=" + ts.URL)
	require.NoError(t, err)
	defer resp.Body.Close()

	var out ExistsResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	assert.False(t, out.Exists)
}

func strPtr(s string) *string { return &s }
