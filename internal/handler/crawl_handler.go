package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/yourorg/watchlist-service/internal/service"
	"github.com/yourorg/watchlist-service/internal/utils"
)

// CrawlHandler handles crawl trigger HTTP requests
type CrawlHandler struct {
	crawlService *service.CrawlService
	logger       *zap.Logger
}

// NewCrawlHandler creates a new crawl handler
func NewCrawlHandler(crawlService *service.CrawlService, logger *zap.Logger) *CrawlHandler {
	return &CrawlHandler{
		crawlService: crawlService,
		logger:       logger,
	}
}

// TriggerCrawl asks the data source to refresh stock data and notifies
// subscribed views once the crawl is underway.
// POST /api/v1/crawl
func (h *CrawlHandler) TriggerCrawl(c *gin.Context) {
	jobID, err := h.crawlService.Trigger(c.Request.Context())
	if err != nil {
		h.logger.Error("Failed to trigger crawl", zap.Error(err))
		utils.SendErrorResponse(c, http.StatusBadGateway, "Failed to trigger crawl on data source")
		return
	}

	c.JSON(http.StatusAccepted, gin.H{"job_id": jobID})
}
