package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/yourorg/watchlist-service/internal/event"
)

// CrawlTrigger is the slice of the data-source client the crawl service
// needs.
type CrawlTrigger interface {
	TriggerCrawl(ctx context.Context) (string, error)
}

// InvalidationPublisher forwards invalidations beyond this process. The
// Kafka producer implements it; a nil publisher disables forwarding.
type InvalidationPublisher interface {
	PublishInvalidation(ctx context.Context, inv event.Invalidation) error
}

// CrawlService proxies crawl requests to the external data source and, once
// a crawl is underway, publishes a stocks invalidation so subscribed views
// refetch. When a Kafka publisher is configured the invalidation is also
// emitted for other dashboard instances.
type CrawlService struct {
	source    CrawlTrigger
	bus       *event.Bus
	publisher InvalidationPublisher
	logger    *zap.Logger
}

// NewCrawlService creates a new crawl service. publisher may be nil.
func NewCrawlService(source CrawlTrigger, bus *event.Bus, publisher InvalidationPublisher, logger *zap.Logger) *CrawlService {
	return &CrawlService{
		source:    source,
		bus:       bus,
		publisher: publisher,
		logger:    logger,
	}
}

// Trigger starts a crawl on the data source and returns its job id.
func (s *CrawlService) Trigger(ctx context.Context) (string, error) {
	jobID, err := s.source.TriggerCrawl(ctx)
	if err != nil {
		return "", err
	}

	s.logger.Info("Crawl triggered", zap.String("job_id", jobID))
	s.bus.Publish(ResourceStocks, "crawl "+jobID+" triggered")

	if s.publisher != nil {
		inv := event.Invalidation{Resource: ResourceStocks, Reason: "crawl " + jobID + " triggered"}
		if perr := s.publisher.PublishInvalidation(ctx, inv); perr != nil {
			// Local subscribers were already notified; losing the
			// cross-instance event is not worth failing the trigger.
			s.logger.Warn("Failed to forward invalidation to Kafka", zap.Error(perr))
		}
	}

	return jobID, nil
}
