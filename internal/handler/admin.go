package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"quickbet-platform/internal/model"
)

// startSession starts a new round on the table, ending and refunding any
// still-running prior round.
func (h *Handler) startSession(c *gin.Context) {
	game, table, ok := tableParams(c)
	if !ok {
		return
	}

	view, err := h.sessions.StartNew(c.Request.Context(), game, table)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

// submitResultRequest carries the operator-supplied categorical result.
type submitResultRequest struct {
	Result string `json:"result" binding:"required"`
}

// submitResult records the round's result and settles it synchronously.
func (h *Handler) submitResult(c *gin.Context) {
	game, table, ok := tableParams(c)
	if !ok {
		return
	}

	var req submitResultRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	view, err := h.sessions.SubmitResult(c.Request.Context(), game, table, req.Result)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

// cancelSessionRequest optionally names the cancellation reason.
type cancelSessionRequest struct {
	Reason string `json:"reason"`
}

// cancelSession administratively ends the running round, refunding all
// pending wagers.
func (h *Handler) cancelSession(c *gin.Context) {
	game, table, ok := tableParams(c)
	if !ok {
		return
	}

	var req cancelSessionRequest
	_ = c.ShouldBindJSON(&req)

	view, err := h.sessions.Cancel(c.Request.Context(), game, table, req.Reason)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

// catalogRequest is the admin payload for catalog entries.
type catalogRequest struct {
	Game        string          `json:"game" binding:"required"`
	Code        string          `json:"code" binding:"required"`
	DisplayName string          `json:"display_name" binding:"required"`
	Multiplier  decimal.Decimal `json:"multiplier" binding:"required"`
	LayoutGroup string          `json:"layout_group"`
	SortOrder   int             `json:"sort_order"`
	Active      *bool           `json:"active"`
}

func (r *catalogRequest) toModel() *model.QuickBetConfig {
	active := true
	if r.Active != nil {
		active = *r.Active
	}
	return &model.QuickBetConfig{
		Game:        r.Game,
		Code:        r.Code,
		DisplayName: r.DisplayName,
		Multiplier:  r.Multiplier,
		LayoutGroup: r.LayoutGroup,
		SortOrder:   r.SortOrder,
		Active:      active,
	}
}

// createCatalog adds a quick-bet config.
func (h *Handler) createCatalog(c *gin.Context) {
	var req catalogRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	created, err := h.catalog.Create(c.Request.Context(), req.toModel())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, created)
}

// updateCatalog rewrites a quick-bet config.
func (h *Handler) updateCatalog(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}

	var req catalogRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	cfg := req.toModel()
	cfg.ID = id
	updated, err := h.catalog.Update(c.Request.Context(), cfg)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, updated)
}

// deleteCatalog removes a quick-bet config. Placed wagers keep their own
// multiplier snapshot.
func (h *Handler) deleteCatalog(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}

	if err := h.catalog.Delete(c.Request.Context(), id); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": id})
}

// adjustBalanceRequest carries an operator-attributed balance change.
type adjustBalanceRequest struct {
	Amount int64  `json:"amount" binding:"required"`
	Reason string `json:"reason" binding:"required"`
}

// adjustBalance credits or debits a user's balance with the operator as the
// recorded actor.
func (h *Handler) adjustBalance(c *gin.Context) {
	userID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user id"})
		return
	}

	var req adjustBalanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	tx, err := h.ledger.AdminAdjust(c.Request.Context(), userID, req.Amount, c.GetInt64(ctxUserID), req.Reason)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, tx)
}
