package shopify

import (
	"context"
	"net/http"
	"time"

	"shopify-catalog-sync/internal/config"
	"shopify-catalog-sync/internal/domain/model"
	"shopify-catalog-sync/internal/infra/clock"
	infrahttp "shopify-catalog-sync/internal/infra/http"
	"shopify-catalog-sync/internal/logging"
)

// CatalogService is the set of Admin API operations the reconciler uses.
type CatalogService interface {
	ProductByHandle(ctx context.Context, handle string) (model.ProductSnapshot, error)
	ProductVariants(ctx context.Context, productID string) (model.ProductSnapshot, error)
	CreateProduct(ctx context.Context, input model.ProductInput) (string, error)
	UpdateProduct(ctx context.Context, productID string, input model.ProductInput) (string, error)
	CreateProductOption(ctx context.Context, productID string, option model.Option) error

	VariantsBulkCreate(ctx context.Context, productID string, variants []model.VariantPriceInput) ([]model.Variant, error)
	VariantsBulkUpdate(ctx context.Context, productID string, variants []model.VariantPriceInput) ([]model.Variant, error)
	VariantInventoryItemID(ctx context.Context, variantID string) (string, error)
	UpdateInventoryItemSKU(ctx context.Context, inventoryItemID string, sku string) error

	CreateImageFile(ctx context.Context, upload FileUpload) (string, error)
	AttachProductImages(ctx context.Context, productID string, sources []string) error
	SetProductMetafield(ctx context.Context, productID string, metafield model.Metafield) error

	Publications(ctx context.Context, first int) ([]model.Publication, error)
	PublishProduct(ctx context.Context, productID string, publicationID string) error
}

var _ CatalogService = (*Client)(nil)

type Client struct {
	config     config.ShopifyConfig
	pacing     config.SyncConfig
	httpClient *http.Client
	logger     logging.LoggerService
	sleeper    clock.Sleeper
}

func NewClient(cfg config.ShopifyConfig, pacing config.SyncConfig, httpClient *http.Client, logger logging.LoggerService, sleeper clock.Sleeper) *Client {
	if httpClient == nil {
		httpClient = infrahttp.NewClient(cfg.Timeout)
	}
	if logger == nil {
		logger = logging.Nop()
	}
	if sleeper == nil {
		sleeper = clock.Real()
	}
	if pacing.ThrottleThreshold <= 0 {
		pacing.ThrottleThreshold = defaultThrottleThreshold
	}
	if pacing.ThrottleCooldown <= 0 {
		pacing.ThrottleCooldown = defaultThrottleCooldown
	}
	return &Client{
		config:     cfg,
		pacing:     pacing,
		httpClient: httpClient,
		logger:     logger,
		sleeper:    sleeper,
	}
}

const (
	defaultThrottleThreshold = 200
	defaultThrottleCooldown  = 5 * time.Second
)
