package bridgehttp

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/nyxwatch/am3/internal/apprun"
	"github.com/nyxwatch/am3/internal/catalog"
	"github.com/nyxwatch/am3/internal/logtail"
)

func (s *Server) handleList(c *gin.Context) {
	rows, err := s.facade.List()
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, rows)
}

func (s *Server) handleGet(c *gin.Context) {
	id, ok := s.paramID(c)
	if !ok {
		return
	}
	cfg, err := s.facade.Get(id)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, cfg)
}

func (s *Server) handleStart(c *gin.Context) {
	id, ok := s.paramID(c)
	if !ok {
		return
	}
	if err := apprun.Start(c.Request.Context(), s.log, s.facade, id); err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": id, "status": "started"})
}

func (s *Server) handleStop(c *gin.Context) {
	id, ok := s.paramID(c)
	if !ok {
		return
	}
	wasRunning, err := apprun.Stop(s.log, s.facade, id)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": id, "was_running": wasRunning})
}

func (s *Server) handleDelete(c *gin.Context) {
	id, ok := s.paramID(c)
	if !ok {
		return
	}
	if _, err := apprun.Stop(s.log, s.facade, id); err != nil {
		_ = c.Error(err)
	}
	if err := s.facade.Delete(c.Request.Context(), id); err != nil {
		s.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) handleLog(c *gin.Context) {
	id, ok := s.paramID(c)
	if !ok {
		return
	}
	cfg, err := s.facade.Get(id)
	if err != nil {
		s.fail(c, err)
		return
	}
	n := 200
	if v := c.Query("lines"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil && parsed > 0 {
			n = parsed
		}
	}
	lines, err := logtail.Lines(cfg.AppLogPath, n)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"lines": lines})
}

func (s *Server) paramID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		_ = c.Error(err)
		c.JSON(http.StatusBadRequest, gin.H{"message": "invalid id"})
		return 0, false
	}
	return id, true
}

func (s *Server) fail(c *gin.Context, err error) {
	_ = c.Error(err)
	switch {
	case errors.Is(err, catalog.ErrUnknownID), errors.Is(err, catalog.ErrUnknownUUID):
		c.JSON(http.StatusNotFound, gin.H{"message": err.Error()})
	case errors.Is(err, catalog.ErrBusy):
		c.JSON(http.StatusConflict, gin.H{"message": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"message": err.Error()})
	}
}
