package usecases

import (
	"context"
	"fmt"

	"shopify-catalog-sync/internal/adapters/shopify"
	"shopify-catalog-sync/internal/logging"
)

const (
	OnlineStoreChannel = "Online Store"
	channelScanLimit   = 10
)

type SalesChannelPublisher struct {
	catalog       shopify.CatalogService
	logger        logging.LoggerService
	channel       string
	publicationID string
}

func NewSalesChannelPublisher(catalog shopify.CatalogService, logger logging.LoggerService) *SalesChannelPublisher {
	return &SalesChannelPublisher{
		catalog: catalog,
		logger:  logger,
		channel: OnlineStoreChannel,
	}
}

// Publish makes the product visible on the storefront channel. A missing
// channel is a no-op and failures are logged, never returned.
func (p *SalesChannelPublisher) Publish(ctx context.Context, productID string) bool {
	publicationID, ok := p.resolve(ctx)
	if !ok {
		return false
	}
	if err := p.catalog.PublishProduct(ctx, productID, publicationID); err != nil {
		p.logger.LogError(fmt.Sprintf("Publish failed product=%s channel=%s", productID, p.channel), err)
		return false
	}
	p.logger.LogSuccess(fmt.Sprintf("Product published product=%s channel=%s", productID, p.channel))
	return true
}

func (p *SalesChannelPublisher) resolve(ctx context.Context) (string, bool) {
	if p.publicationID != "" {
		return p.publicationID, true
	}
	publications, err := p.catalog.Publications(ctx, channelScanLimit)
	if err != nil {
		p.logger.LogError("List publications failed", err)
		return "", false
	}
	for i, publication := range publications {
		if i >= channelScanLimit {
			break
		}
		if publication.Name == p.channel {
			p.publicationID = publication.ID
			return publication.ID, true
		}
	}
	p.logger.LogWarning(fmt.Sprintf("Sales channel not found channel=%s", p.channel))
	return "", false
}
