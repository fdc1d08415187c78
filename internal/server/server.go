// Package server exposes the ingestion coordinator, toolchain facade and
// configuration surfaces over HTTP, implementing the command surface the
// UI shell drives (spec §6). The UI shell's typed command interface
// itself is out of scope; this package only needs to answer each named
// command with a request/response pair.
package server

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/GrahLnn/slisic/config"
	"github.com/GrahLnn/slisic/internal/coordinator"
	"github.com/GrahLnn/slisic/internal/toolchain"
	"github.com/gin-gonic/gin"
)

// Server handles HTTP requests for the ingestion/library backend.
type Server struct {
	cfg           *config.Config
	appConfigPath string

	router *gin.Engine

	coord      *coordinator.Coordinator
	downloader *toolchain.Downloader

	ytdlpUpdater  *toolchain.Updater
	ffmpegUpdater *toolchain.Updater
}

// New builds a Server. appConfigPath is the spec-mandated JSON document
// (<app_local_data>/config.json) backing resolve_save_path/
// update_save_path; coord and downloader are the already-wired core
// components; the two updaters back the toolchain install commands.
func New(
	cfg *config.Config,
	appConfigPath string,
	coord *coordinator.Coordinator,
	downloader *toolchain.Downloader,
	ytdlpUpdater *toolchain.Updater,
	ffmpegUpdater *toolchain.Updater,
) *Server {
	return &Server{
		cfg:           cfg,
		appConfigPath: appConfigPath,
		coord:         coord,
		downloader:    downloader,
		ytdlpUpdater:  ytdlpUpdater,
		ffmpegUpdater: ffmpegUpdater,
	}
}

// Start runs the HTTP server until it exits or errors.
func (s *Server) Start() error {
	router := gin.Default()
	s.router = router
	s.setupRoutes(router)

	slog.Info("starting server", "port", s.cfg.Server.Port)
	return router.Run(":" + s.cfg.Server.Port)
}

func (s *Server) setupRoutes(router *gin.Engine) {
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := router.Group("/api")
	{
		api.POST("/collections", s.create)
		api.GET("/collections", s.readAll)
		api.GET("/collections/:name", s.read)
		api.PUT("/collections/:name", s.update)
		api.DELETE("/collections/:name", s.delete)
		api.POST("/collections/:name/unstar", s.unstar)
		api.POST("/collections/:name/rmexclude", s.rmexclude)

		api.POST("/music/:id/fatigue", s.fatigue)
		api.POST("/music/:id/cancel-fatigue", s.cancelFatigue)
		api.POST("/music/:id/boost", s.boost)
		api.POST("/music/:id/cancel-boost", s.cancelBoost)
		api.POST("/music/:id/reset-logits", s.resetLogits)
		api.DELETE("/music/:id", s.deleteMusic)

		api.POST("/entries/:id/recheck", s.recheckFolder)
		api.POST("/entries/:id/update-weblist", s.updateWeblist)

		api.GET("/config/save-path", s.resolveSavePath)
		api.PUT("/config/save-path", s.updateSavePath)

		api.GET("/fs/exists", s.exists)
		api.GET("/fs/audio", s.allAudioRecursive)

		api.GET("/media/probe", s.lookMedia)

		api.POST("/maintenance/trim-silence", s.trimAllSilence)

		tc := api.Group("/toolchain")
		{
			tc.GET("/github-ok", s.githubOK)
			tc.GET("/ytdlp/check-update", s.ytdlpCheckUpdate)
			tc.POST("/ytdlp/install", s.ytdlpDownloadAndInstall)
			tc.GET("/ytdlp/exists", s.checkExists)
			tc.GET("/ffmpeg/check-update", s.ffmpegCheckUpdate)
			tc.POST("/ffmpeg/install", s.ffmpegDownloadAndInstall)
			tc.GET("/ffmpeg/version", s.ffmpegVersion)
			tc.GET("/ffmpeg/exists", s.ffmpegCheckExists)
		}
	}
}

// requestContext builds the context handlers pass to coordinator/
// toolchain calls, bound to the incoming request's lifetime.
func requestContext(c *gin.Context) context.Context {
	return c.Request.Context()
}
