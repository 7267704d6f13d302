package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

// getSession returns the table's current session snapshot, advancing the
// phase lazily as of now. Presentation layers poll this endpoint.
func (h *Handler) getSession(c *gin.Context) {
	game, table, ok := tableParams(c)
	if !ok {
		return
	}

	view, err := h.sessions.GetCurrent(c.Request.Context(), game, table)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

// getHistory returns the table's recent settled rounds for trend display.
func (h *Handler) getHistory(c *gin.Context) {
	game, table, ok := tableParams(c)
	if !ok {
		return
	}
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "30"))

	entries, err := h.trend.Recent(c.Request.Context(), game, table, limit)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"rounds": entries})
}

// listCatalog returns a game's active quick-bet board.
func (h *Handler) listCatalog(c *gin.Context) {
	configs, err := h.catalog.List(c.Request.Context(), c.Param("game"), true)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"quickbets": configs})
}
