package usecases

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"shopify-catalog-sync/internal/adapters/shopify"
	"shopify-catalog-sync/internal/domain/model"
	"shopify-catalog-sync/internal/infra/clock"
	"shopify-catalog-sync/internal/logging"
)

// ErrInventoryNotReady means no freshly created variant exposed an
// inventory item within the poll. It is logged and the creation goes on.
var ErrInventoryNotReady = errors.New("inventory items not ready")

type ProductCreator struct {
	catalog       shopify.CatalogService
	assets        *AssetAttacher
	publisher     *SalesChannelPublisher
	logger        logging.LoggerService
	sleeper       clock.Sleeper
	inventoryPoll clock.Policy
	settleDelay   time.Duration
}

func NewProductCreator(catalog shopify.CatalogService, assets *AssetAttacher, publisher *SalesChannelPublisher, logger logging.LoggerService, sleeper clock.Sleeper, pacing Pacing) *ProductCreator {
	return &ProductCreator{
		catalog:       catalog,
		assets:        assets,
		publisher:     publisher,
		logger:        logger,
		sleeper:       sleeper,
		inventoryPoll: pacing.InventoryPoll,
		settleDelay:   pacing.SettleDelay,
	}
}

// skuWrite is a pending SKU backfill for one variant.
type skuWrite struct {
	inventoryItemID string
	sku             string
}

// Create builds a new product for group. Only a failure to create the
// product itself is returned; later steps log their failures and leave the
// partially built product in place.
func (c *ProductCreator) Create(ctx context.Context, group model.RowGroup) (string, error) {
	first := group.First()
	productID, err := c.catalog.CreateProduct(ctx, group.ProductInput())
	if err != nil {
		return "", fmt.Errorf("create product handle=%s: %w", group.Handle, err)
	}
	c.logger.LogSuccess(fmt.Sprintf("Product created handle=%s id=%s variants=%d", group.Handle, productID, len(group.Rows)))

	option := group.Option()
	if option.Declared() && len(option.Values) > 0 {
		if err := c.catalog.CreateProductOption(ctx, productID, option); err != nil {
			c.logger.LogError(fmt.Sprintf("Create option failed handle=%s option=%s", group.Handle, option.Name), err)
		} else {
			c.logger.Log(fmt.Sprintf("Option created handle=%s option=%s values=%d", group.Handle, option.Name, len(option.Values)))
			if err := c.sleeper.Sleep(ctx, c.settleDelay); err != nil {
				return productID, err
			}
		}
	}

	snapshot, err := c.awaitInventory(ctx, productID)
	switch {
	case err == nil:
	case errors.Is(err, ErrInventoryNotReady):
		c.logger.LogWarning(fmt.Sprintf("Inventory items not ready handle=%s, continuing", group.Handle))
	case ctx.Err() != nil:
		return productID, ctx.Err()
	default:
		c.logger.LogError(fmt.Sprintf("Read variants failed handle=%s", group.Handle), err)
	}

	batch, writes := c.priceBatch(group, option, snapshot)
	if len(batch) > 0 {
		updated, err := c.catalog.VariantsBulkUpdate(ctx, productID, batch)
		if err != nil {
			c.logger.LogError(fmt.Sprintf("Variant price update failed handle=%s", group.Handle), err)
		}
		if len(updated) > 0 {
			c.logger.Log(fmt.Sprintf("Variant prices updated handle=%s count=%d", group.Handle, len(updated)))
		}
		for _, variant := range updated {
			write, ok := writes[variant.ID]
			if !ok {
				continue
			}
			if write.inventoryItemID == "" {
				write.inventoryItemID = variant.InventoryItemID
			}
			if err := backfillSKU(ctx, c.catalog, variant.ID, write.inventoryItemID, write.sku); err != nil {
				if ctx.Err() != nil {
					return productID, ctx.Err()
				}
				c.logger.LogError(fmt.Sprintf("SKU update failed handle=%s variant=%s sku=%s", group.Handle, variant.ID, write.sku), err)
			}
		}
	}

	if first.HasImages {
		if _, err := c.assets.AttachImageList(ctx, productID, first.Images); err != nil {
			c.logger.LogError(fmt.Sprintf("Images failed handle=%s", group.Handle), err)
		}
	}
	c.assets.AttachMetafields(ctx, productID, first.Metafields)
	c.publisher.Publish(ctx, productID)

	return productID, ctx.Err()
}

// awaitInventory re-reads the product until at least one variant exposes an
// inventory item. The last snapshot read is returned even when the poll
// runs out.
func (c *ProductCreator) awaitInventory(ctx context.Context, productID string) (model.ProductSnapshot, error) {
	var (
		last    model.ProductSnapshot
		lastErr error
	)
	err := clock.Poll(ctx, c.sleeper, c.inventoryPoll, func(ctx context.Context, attempt int) (bool, error) {
		snapshot, err := c.catalog.ProductVariants(ctx, productID)
		if err != nil {
			if ctx.Err() != nil {
				return false, ctx.Err()
			}
			lastErr = err
			return false, nil
		}
		last, lastErr = snapshot, nil
		for _, v := range snapshot.Variants {
			if v.InventoryItemID != "" {
				return true, nil
			}
		}
		if attempt < c.inventoryPoll.Attempts-1 {
			c.logger.Log(fmt.Sprintf("Waiting for inventory items product=%s attempt=%d", productID, attempt+1))
		}
		return false, nil
	})
	if errors.Is(err, clock.ErrAttemptsExhausted) {
		if last.ID == "" && lastErr != nil {
			return last, lastErr
		}
		return last, ErrInventoryNotReady
	}
	return last, err
}

// priceBatch resolves each row with a SKU to a variant of the new product.
// A variant claimed by several rows is updated once, with the last row's
// price and SKU.
func (c *ProductCreator) priceBatch(group model.RowGroup, option model.Option, snapshot model.ProductSnapshot) ([]model.VariantPriceInput, map[string]skuWrite) {
	index := NewOptionValueIndex(snapshot.Variants)
	inventory := make(map[string]string, len(snapshot.Variants))
	for _, v := range snapshot.Variants {
		if v.InventoryItemID != "" {
			inventory[v.ID] = v.InventoryItemID
		}
	}
	fallback := creatorDefaultVariant(snapshot.Variants)

	var batch []model.VariantPriceInput
	positions := make(map[string]int)
	writes := make(map[string]skuWrite)
	for _, row := range group.Rows {
		if err := row.VariantErr(); err != nil {
			c.logger.LogWarning(fmt.Sprintf("Skipping variant handle=%s line=%d: %v", group.Handle, row.Line, err))
			continue
		}

		var variantID string
		if option.Declared() {
			variantID, _ = MatchByOptionValue(index, row.OptionValue)
		} else {
			variantID = fallback
		}
		if variantID == "" {
			c.logger.LogWarning(fmt.Sprintf("No variant for row handle=%s line=%d sku=%s option=%s", group.Handle, row.Line, row.SKU, row.OptionValue))
			continue
		}

		entry := model.VariantPriceInput{ID: variantID, Price: row.Price}
		if pos, ok := positions[variantID]; ok {
			c.logger.LogWarning(fmt.Sprintf("Variant claimed twice handle=%s variant=%s line=%d", group.Handle, variantID, row.Line))
			batch[pos] = entry
		} else {
			positions[variantID] = len(batch)
			batch = append(batch, entry)
		}
		writes[variantID] = skuWrite{inventoryItemID: inventory[variantID], sku: strings.TrimSpace(row.SKU)}
	}
	return batch, writes
}

// creatorDefaultVariant is the variant a freshly created option-less
// product carries: one without selected options, else the implicit default.
func creatorDefaultVariant(variants []model.Variant) string {
	for _, v := range variants {
		if !v.HasOptions {
			return v.ID
		}
	}
	return defaultVariantID(nil, variants)
}

// backfillSKU writes sku onto the variant's inventory item, reading the item
// id first when it was not known yet.
func backfillSKU(ctx context.Context, catalog shopify.CatalogService, variantID, inventoryItemID, sku string) error {
	if inventoryItemID == "" {
		id, err := catalog.VariantInventoryItemID(ctx, variantID)
		if err != nil {
			return err
		}
		if id == "" {
			return ErrInventoryNotReady
		}
		inventoryItemID = id
	}
	return catalog.UpdateInventoryItemSKU(ctx, inventoryItemID, sku)
}
