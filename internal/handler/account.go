package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"quickbet-platform/internal/service"
)

// placeBetsRequest is the placement batch body.
type placeBetsRequest struct {
	SessionID int64             `json:"session_id" binding:"required"`
	Bets      []service.BetItem `json:"bets" binding:"required"`
}

// placeBets admits a batch of wagers for the authenticated user.
func (h *Handler) placeBets(c *gin.Context) {
	game, table, ok := tableParams(c)
	if !ok {
		return
	}

	var req placeBetsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	userID := c.GetInt64(ctxUserID)
	result, err := h.placement.Place(c.Request.Context(), userID, game, table, req.SessionID, req.Bets)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// getBalance returns the caller's current point balance.
func (h *Handler) getBalance(c *gin.Context) {
	balance, err := h.ledger.Balance(c.Request.Context(), c.GetInt64(ctxUserID))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"balance": balance})
}

// pagination reads limit/offset query parameters.
func pagination(c *gin.Context) (int, int) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}

// getTransactions returns the caller's ledger history, newest first.
func (h *Handler) getTransactions(c *gin.Context) {
	limit, offset := pagination(c)
	txs, err := h.ledger.History(c.Request.Context(), c.GetInt64(ctxUserID), limit, offset)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"transactions": txs})
}

// getWagers returns the caller's wagers, newest first.
func (h *Handler) getWagers(c *gin.Context) {
	limit, offset := pagination(c)
	wagers, err := h.placement.UserWagers(c.Request.Context(), c.GetInt64(ctxUserID), limit, offset)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"wagers": wagers})
}
