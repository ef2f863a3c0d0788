package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/yourorg/watchlist-service/internal/service"
	"github.com/yourorg/watchlist-service/internal/utils"
)

// ScreenerHandler handles screener session HTTP requests
type ScreenerHandler struct {
	screenerService *service.ScreenerService
	logger          *zap.Logger
}

// NewScreenerHandler creates a new screener handler
func NewScreenerHandler(screenerService *service.ScreenerService, logger *zap.Logger) *ScreenerHandler {
	return &ScreenerHandler{
		screenerService: screenerService,
		logger:          logger,
	}
}

// CreateSession opens a screener session for one dashboard view.
// POST /api/v1/screener/sessions?band=&limit=
func (h *ScreenerHandler) CreateSession(c *gin.Context) {
	band := utils.ParseQueryFloat(c, "band", 0)
	limit := utils.ParseQueryInt(c, "limit", 0)

	snap, err := h.screenerService.CreateSession(band, limit)
	if err != nil {
		utils.SendErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}
	c.JSON(http.StatusCreated, snap)
}

// FetchNext loads the session's next screener page. Calling it again while
// a page is loading changes nothing; the current snapshot comes back.
// POST /api/v1/screener/sessions/:id/next
func (h *ScreenerHandler) FetchNext(c *gin.Context) {
	snap, err := h.screenerService.FetchNext(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.sessionError(c, err)
		return
	}
	c.JSON(http.StatusOK, snap)
}

// Reset discards the session's accumulated results, optionally switching
// the proximity band.
// POST /api/v1/screener/sessions/:id/reset?band=
func (h *ScreenerHandler) Reset(c *gin.Context) {
	var band *float64
	if raw := c.Query("band"); raw != "" {
		v := utils.ParseQueryFloat(c, "band", 0)
		band = &v
	}

	snap, err := h.screenerService.Reset(c.Param("id"), band)
	if err != nil {
		h.sessionError(c, err)
		return
	}
	c.JSON(http.StatusOK, snap)
}

// GetSession returns the session's current snapshot without fetching.
// GET /api/v1/screener/sessions/:id
func (h *ScreenerHandler) GetSession(c *gin.Context) {
	snap, err := h.screenerService.Get(c.Param("id"))
	if err != nil {
		h.sessionError(c, err)
		return
	}
	c.JSON(http.StatusOK, snap)
}

// DeleteSession tears a session down when its view unmounts.
// DELETE /api/v1/screener/sessions/:id
func (h *ScreenerHandler) DeleteSession(c *gin.Context) {
	if err := h.screenerService.Delete(c.Param("id")); err != nil {
		h.sessionError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *ScreenerHandler) sessionError(c *gin.Context, err error) {
	if errors.Is(err, service.ErrSessionNotFound) {
		utils.SendErrorResponse(c, http.StatusNotFound, "Screener session not found")
		return
	}
	utils.SendErrorResponse(c, http.StatusBadRequest, err.Error())
}
