package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"quickbet-platform/internal/config"
	"quickbet-platform/internal/repository"
	"quickbet-platform/internal/service"
)

// Handler wires the HTTP routes to the service layer.
type Handler struct {
	cfg       *config.Config
	sessions  *service.Sessions
	placement *service.Placement
	ledger    *service.Ledger
	catalog   *service.Catalog
	trend     *service.Trend
}

// New creates the HTTP handler.
func New(cfg *config.Config, sessions *service.Sessions, placement *service.Placement, ledger *service.Ledger, catalog *service.Catalog, trend *service.Trend) *Handler {
	return &Handler{
		cfg:       cfg,
		sessions:  sessions,
		placement: placement,
		ledger:    ledger,
		catalog:   catalog,
		trend:     trend,
	}
}

// RegisterRoutes attaches all routes to the engine.
func (h *Handler) RegisterRoutes(r *gin.Engine) {
	r.GET("/healthz", h.health)

	api := r.Group("/api")

	tables := api.Group("/games/:game/tables/:table")
	tables.GET("/session", h.getSession)
	tables.GET("/history", h.getHistory)
	api.GET("/games/:game/quickbets", h.listCatalog)

	authed := api.Group("")
	authed.Use(AuthMiddleware(h.cfg))
	authed.POST("/games/:game/tables/:table/bets", h.placeBets)
	authed.GET("/account/balance", h.getBalance)
	authed.GET("/account/transactions", h.getTransactions)
	authed.GET("/account/wagers", h.getWagers)

	admin := api.Group("/admin")
	admin.Use(AuthMiddleware(h.cfg), AdminMiddleware(h.cfg))
	admin.POST("/games/:game/tables/:table/session/start", h.startSession)
	admin.POST("/games/:game/tables/:table/session/result", h.submitResult)
	admin.POST("/games/:game/tables/:table/session/cancel", h.cancelSession)
	admin.POST("/quickbets", h.createCatalog)
	admin.PUT("/quickbets/:id", h.updateCatalog)
	admin.DELETE("/quickbets/:id", h.deleteCatalog)
	admin.POST("/users/:id/balance", h.adjustBalance)
}

func (h *Handler) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// tableParams reads the game code and table number from the path.
func tableParams(c *gin.Context) (string, int, bool) {
	game := c.Param("game")
	table, err := strconv.Atoi(c.Param("table"))
	if err != nil || table < 1 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid table number"})
		return "", 0, false
	}
	return game, table, true
}

// writeError maps service errors onto HTTP statuses: validation 400,
// state conflicts 409, funds 402, unknown references 404.
func writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrEmptyBatch),
		errors.Is(err, service.ErrInvalidStake),
		errors.Is(err, service.ErrUnknownBetCode),
		errors.Is(err, service.ErrWrongTable):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrUnknownGame),
		errors.Is(err, service.ErrUnknownTable),
		errors.Is(err, repository.ErrUserNotFound),
		errors.Is(err, repository.ErrCatalogNotFound),
		errors.Is(err, repository.ErrSessionNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrSessionNotRunning),
		errors.Is(err, service.ErrPhaseLocked),
		errors.Is(err, service.ErrNotAwaitingResult):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error(), "retryable": true})
	case errors.Is(err, service.ErrInsufficientFunds):
		c.JSON(http.StatusPaymentRequired, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
