package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/yourorg/watchlist-service/internal/model"
	"github.com/yourorg/watchlist-service/internal/service"
	"github.com/yourorg/watchlist-service/internal/utils"
	"github.com/yourorg/watchlist-service/internal/validator"
)

// ChartHandler handles chart data HTTP requests
type ChartHandler struct {
	chartService *service.ChartService
	logger       *zap.Logger
}

// NewChartHandler creates a new chart handler
func NewChartHandler(chartService *service.ChartService, logger *zap.Logger) *ChartHandler {
	return &ChartHandler{
		chartService: chartService,
		logger:       logger,
	}
}

// GetChart returns a stock's aligned price series with moving averages and
// resolved signal markers.
// GET /api/v1/stocks/:id/chart?days=&windows=
func (h *ChartHandler) GetChart(c *gin.Context) {
	stockID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		utils.SendErrorResponse(c, http.StatusBadRequest, "Invalid stock ID")
		return
	}

	days := utils.ParseQueryInt(c, "days", 0)
	windows, err := utils.ParseWindows(c)
	if err != nil {
		utils.SendErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	query := validator.ChartQuery{StockID: stockID, Days: days, Windows: windows}
	if err := validator.ValidateChartQuery(query); err != nil {
		utils.SendErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	data, err := h.chartService.GetChartData(c.Request.Context(), stockID, days, windows)
	if err != nil {
		var fetchErr *model.FetchError
		var orderErr *model.InvalidOrderError
		switch {
		case errors.As(err, &fetchErr):
			h.logger.Error("Data source fetch failed",
				zap.Int("stock_id", stockID),
				zap.Error(err))
			utils.SendErrorResponse(c, http.StatusBadGateway, "Failed to fetch data from market data source")
		case errors.As(err, &orderErr):
			h.logger.Error("Data source returned unordered bars",
				zap.Int("stock_id", stockID),
				zap.Error(err))
			utils.SendErrorResponse(c, http.StatusBadGateway, "Market data source returned an invalid price series")
		default:
			h.logger.Error("Failed to build chart data",
				zap.Int("stock_id", stockID),
				zap.Error(err))
			utils.SendErrorResponse(c, http.StatusInternalServerError, "Failed to build chart data")
		}
		return
	}

	c.JSON(http.StatusOK, data)
}
