package server

import (
	"errors"
	"net/http"

	"github.com/GrahLnn/slisic/internal/coordinator"
	"github.com/GrahLnn/slisic/internal/domain"
	"github.com/gin-gonic/gin"
)

// respondError maps a coordinator/toolchain error to an HTTP status,
// matching spec §6's "error responses are strings" contract: every
// failure path returns ErrorResponse, never a partial success payload.
func (s *Server) respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, coordinator.ErrCollectionNotFound),
		errors.Is(err, coordinator.ErrEntryNotFound),
		errors.Is(err, coordinator.ErrMusicNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Error: err.Error()})
	case errors.Is(err, ErrInvalidRequest):
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: err.Error()})
	}
}

// create handles the `create` command: builds a Collection from a
// mission and kicks off folder/link ingestion in the background.
func (s *Server) create(c *gin.Context) {
	var mission domain.CollectMission
	if err := c.ShouldBindJSON(&mission); err != nil {
		s.respondError(c, ErrInvalidRequest)
		return
	}

	collection, err := s.coord.Create(requestContext(c), mission)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusAccepted, collection)
}

// read handles the `read` command.
func (s *Server) read(c *gin.Context) {
	playlist, err := s.coord.Read(c.Param("name"))
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, playlist)
}

// readAll handles the `read_all` command.
func (s *Server) readAll(c *gin.Context) {
	c.JSON(http.StatusOK, s.coord.ReadAll())
}

// update handles the `update` command: rewrites a Collection's name and
// entry set against the mission/anchor pair.
func (s *Server) update(c *gin.Context) {
	var req UpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.respondError(c, ErrInvalidRequest)
		return
	}

	collection, err := s.coord.Update(requestContext(c), req.Mission, req.Anchor)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusAccepted, collection)
}

// delete handles the `delete` command.
func (s *Server) delete(c *gin.Context) {
	if err := s.coord.Delete(c.Param("name")); err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, MessageResponse{Message: "collection deleted"})
}

// unstar handles the `unstar` command.
func (s *Server) unstar(c *gin.Context) {
	var req MusicRefRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.respondError(c, ErrInvalidRequest)
		return
	}
	if err := s.coord.Unstar(c.Param("name"), req.Music); err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, MessageResponse{Message: "music excluded"})
}

// rmexclude handles the `rmexclude` command.
func (s *Server) rmexclude(c *gin.Context) {
	var req MusicRefRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.respondError(c, ErrInvalidRequest)
		return
	}
	if err := s.coord.RmExclude(c.Param("name"), req.Music); err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, MessageResponse{Message: "music restored"})
}

// fatigue handles the `fatigue` command.
func (s *Server) fatigue(c *gin.Context) {
	s.musicDelta(c, s.coord.Fatigue)
}

// cancelFatigue handles the `cancle_fatigue` command.
func (s *Server) cancelFatigue(c *gin.Context) {
	s.musicDelta(c, s.coord.CancelFatigue)
}

// boost handles the `boost` command.
func (s *Server) boost(c *gin.Context) {
	s.musicDelta(c, s.coord.Boost)
}

// cancelBoost handles the `cancle_boost` command.
func (s *Server) cancelBoost(c *gin.Context) {
	s.musicDelta(c, s.coord.CancelBoost)
}

func (s *Server) musicDelta(c *gin.Context, op func(musicID string, delta float64) (domain.Music, error)) {
	var req MusicDeltaRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.respondError(c, ErrInvalidRequest)
		return
	}
	music, err := op(c.Param("id"), req.Delta)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, music)
}

// resetLogits handles the `reset_logits` command.
func (s *Server) resetLogits(c *gin.Context) {
	music, err := s.coord.ResetLogits(c.Param("id"))
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, music)
}

// deleteMusic handles the `delete_music` command.
func (s *Server) deleteMusic(c *gin.Context) {
	if err := s.coord.DeleteMusic(c.Param("id")); err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, MessageResponse{Message: "music deleted"})
}

// recheckFolder handles the `recheck_folder` command.
func (s *Server) recheckFolder(c *gin.Context) {
	if err := s.coord.RecheckFolder(requestContext(c), c.Param("id")); err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, MessageResponse{Message: "folder rechecked"})
}

// updateWeblist handles the `update_weblist` command.
func (s *Server) updateWeblist(c *gin.Context) {
	var req UpdateWeblistRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.respondError(c, ErrInvalidRequest)
		return
	}
	if err := s.coord.UpdateWeblist(requestContext(c), c.Param("id"), req.Playlist); err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusAccepted, MessageResponse{Message: "weblist queued"})
}
