package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// trimAllSilence handles the bulk re-trim maintenance operation: it
// runs synchronously and returns once every Music row has been swept,
// since the HTTP caller (unlike the CLI) has no stdout to stream a
// spinner to — per-file progress is still available to anyone watching
// the coordinator's broadcaster under coordinator.TrimAllSilenceLabel.
func (s *Server) trimAllSilence(c *gin.Context) {
	n := s.coord.TrimAllSilence(requestContext(c))
	c.JSON(http.StatusOK, TrimAllSilenceResponse{Trimmed: n})
}
