package server

import (
	"net/http"
	"os"
	"path/filepath"
	"sort"

	"github.com/GrahLnn/slisic/config"
	"github.com/GrahLnn/slisic/internal/toolchain"
	"github.com/gin-gonic/gin"
)

// resolveSavePath handles the `resolve_save_path` command.
func (s *Server) resolveSavePath(c *gin.Context) {
	cfg, err := config.LoadAppConfig(s.appConfigPath)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, SavePathResponse{SavePath: cfg.SavePath})
}

// updateSavePath handles the `update_save_path` command: validates the
// new path is (or can become) a directory before persisting it.
func (s *Server) updateSavePath(c *gin.Context) {
	var req SavePathRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.respondError(c, ErrInvalidRequest)
		return
	}

	info, statErr := os.Stat(req.Path)
	switch {
	case statErr == nil && !info.IsDir():
		s.respondError(c, toolchainInvalidInput("save_path must be a directory"))
		return
	case statErr != nil:
		if err := os.MkdirAll(req.Path, 0o755); err != nil {
			s.respondError(c, err)
			return
		}
	}

	cfg, err := config.LoadAppConfig(s.appConfigPath)
	if err != nil {
		s.respondError(c, err)
		return
	}
	cfg.SavePath = req.Path
	if err := config.SaveAppConfig(s.appConfigPath, cfg); err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, SavePathResponse{SavePath: cfg.SavePath})
}

// exists handles the `exists` command.
func (s *Server) exists(c *gin.Context) {
	_, err := os.Stat(c.Query("path"))
	c.JSON(http.StatusOK, ExistsResponse{Exists: err == nil})
}

// allAudioRecursive handles the `all_audio_recursive` command: a
// depth-first, symlink-unfollowed walk collecting every recognised
// audio file under folder, sorted for stable output.
func (s *Server) allAudioRecursive(c *gin.Context) {
	folder := c.Query("path")
	var files []string
	err := filepath.WalkDir(folder, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && toolchain.IsAudioFile(path) {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		s.respondError(c, err)
		return
	}
	sort.Strings(files)
	c.JSON(http.StatusOK, AudioFilesResponse{Files: files})
}

// lookMedia handles the `look_media` command: probes a URL and returns
// only its title, without queuing any download.
func (s *Server) lookMedia(c *gin.Context) {
	result, err := s.downloader.ProbeURL(requestContext(c), c.Query("url"))
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, LookMediaResponse{Title: result.Title})
}

// githubOK handles the `github_ok` command.
func (s *Server) githubOK(c *gin.Context) {
	c.JSON(http.StatusOK, GithubOkResponse{Ok: toolchain.GithubOK(requestContext(c))})
}

// ytdlpCheckUpdate handles the `ytdlp_check_update` command.
func (s *Server) ytdlpCheckUpdate(c *gin.Context) {
	info, err := s.ytdlpUpdater.CheckUpdate(requestContext(c))
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, info)
}

// ytdlpDownloadAndInstall handles the `ytdlp_download_and_install` command.
func (s *Server) ytdlpDownloadAndInstall(c *gin.Context) {
	result, err := s.ytdlpUpdater.DownloadAndInstall(requestContext(c))
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// checkExists handles the `check_exists` command (the downloader's
// installed-binary probe).
func (s *Server) checkExists(c *gin.Context) {
	result, ok := s.ytdlpUpdater.CheckExists()
	if !ok {
		c.JSON(http.StatusOK, gin.H{"installed": false})
		return
	}
	c.JSON(http.StatusOK, gin.H{"installed": true, "result": result})
}

// ffmpegCheckUpdate handles the `ffmpeg_check_update` command.
func (s *Server) ffmpegCheckUpdate(c *gin.Context) {
	info, err := s.ffmpegUpdater.CheckUpdate(requestContext(c))
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, info)
}

// ffmpegDownloadAndInstall handles the `ffmpeg_download_and_install` command.
func (s *Server) ffmpegDownloadAndInstall(c *gin.Context) {
	result, err := s.ffmpegUpdater.DownloadAndInstall(requestContext(c))
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// ffmpegVersion handles the `ffmpeg_version` command.
func (s *Server) ffmpegVersion(c *gin.Context) {
	version, err := s.ffmpegUpdater.Version(requestContext(c))
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, FfmpegVersionResponse{Version: version})
}

// ffmpegCheckExists handles the `ffmpeg_check_exists` command.
func (s *Server) ffmpegCheckExists(c *gin.Context) {
	result, ok := s.ffmpegUpdater.CheckExists()
	if !ok {
		c.JSON(http.StatusOK, gin.H{"installed": false})
		return
	}
	c.JSON(http.StatusOK, gin.H{"installed": true, "result": result})
}

func toolchainInvalidInput(msg string) error {
	return &invalidInputError{msg: msg}
}

type invalidInputError struct{ msg string }

func (e *invalidInputError) Error() string { return e.msg }

func (e *invalidInputError) Is(target error) bool { return target == ErrInvalidRequest }
