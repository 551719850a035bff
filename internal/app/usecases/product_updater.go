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

var errNoProductReturned = errors.New("product update returned no product")

type ProductUpdater struct {
	catalog     shopify.CatalogService
	assets      *AssetAttacher
	logger      logging.LoggerService
	sleeper     clock.Sleeper
	settleDelay time.Duration
}

func NewProductUpdater(catalog shopify.CatalogService, assets *AssetAttacher, logger logging.LoggerService, sleeper clock.Sleeper, pacing Pacing) *ProductUpdater {
	return &ProductUpdater{
		catalog:     catalog,
		assets:      assets,
		logger:      logger,
		sleeper:     sleeper,
		settleDelay: pacing.SettleDelay,
	}
}

type UpdateResult struct {
	VariantsUpdated int
	VariantsCreated int
	RowsFailed      int
}

// variantState is the updater's working view of the product's variants.
// It grows as rows claim or create variants.
type variantState struct {
	bySKU     map[string]model.Variant
	byID      map[string]model.Variant
	unclaimed OptionValueIndex
}

func newVariantState(variants []model.Variant, bySKU map[string]model.Variant) *variantState {
	state := &variantState{
		bySKU:     make(map[string]model.Variant, len(bySKU)),
		byID:      make(map[string]model.Variant, len(variants)),
		unclaimed: NewOptionValueIndex(nil),
	}
	for sku, v := range bySKU {
		state.bySKU[sku] = v
	}
	for _, v := range variants {
		state.byID[v.ID] = v
		if strings.TrimSpace(v.SKU) == "" {
			state.unclaimed.Add(v)
		}
	}
	return state
}

func (s *variantState) claim(sku string, v model.Variant) {
	s.unclaimed.Remove(v.ID)
	s.byID[v.ID] = v
	s.bySKU[strings.TrimSpace(sku)] = v
}

// Update reconciles an existing product with group. A failed core update
// stops the group. Row failures after that are logged and counted, and the
// remaining rows still run.
func (u *ProductUpdater) Update(ctx context.Context, product model.RemoteProduct, group model.RowGroup) (UpdateResult, error) {
	var result UpdateResult

	updatedID, err := u.catalog.UpdateProduct(ctx, product.ID, group.ProductInput())
	if err != nil {
		return result, fmt.Errorf("update product handle=%s: %w", group.Handle, err)
	}
	if updatedID == "" {
		return result, fmt.Errorf("update product handle=%s: %w", group.Handle, errNoProductReturned)
	}
	u.logger.Log(fmt.Sprintf("Product updated handle=%s id=%s", group.Handle, product.ID))

	option := group.Option()
	variants := product.Variants
	if option.Declared() && len(option.Values) > 0 && !product.HasOption(option.Name) {
		refreshed, err := u.ensureOption(ctx, product.ID, option)
		if err != nil {
			if ctx.Err() != nil {
				return result, ctx.Err()
			}
			u.logger.LogError(fmt.Sprintf("Ensure option failed handle=%s option=%s", group.Handle, option.Name), err)
		} else {
			variants = refreshed
		}
	}

	state := newVariantState(variants, product.VariantsBySKU)
	for _, row := range group.Rows {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		if err := row.VariantErr(); err != nil {
			u.logger.LogWarning(fmt.Sprintf("Skipping variant handle=%s line=%d: %v", group.Handle, row.Line, err))
			continue
		}
		created, err := u.reconcileRow(ctx, product, option, state, row)
		if err != nil {
			if ctx.Err() != nil {
				return result, ctx.Err()
			}
			result.RowsFailed++
			u.logger.LogError(fmt.Sprintf("Variant failed handle=%s line=%d sku=%s", group.Handle, row.Line, row.SKU), err)
			continue
		}
		if created {
			result.VariantsCreated++
		} else {
			result.VariantsUpdated++
		}
	}

	first := group.First()
	if first.HasImages {
		if _, err := u.assets.AttachImageList(ctx, product.ID, first.Images); err != nil {
			u.logger.LogError(fmt.Sprintf("Images failed handle=%s", group.Handle), err)
		}
	}
	u.assets.AttachMetafields(ctx, product.ID, first.Metafields)

	return result, ctx.Err()
}

// ensureOption creates the option and returns the variants the platform
// generated for it.
func (u *ProductUpdater) ensureOption(ctx context.Context, productID string, option model.Option) ([]model.Variant, error) {
	if err := u.catalog.CreateProductOption(ctx, productID, option); err != nil {
		return nil, err
	}
	u.logger.Log(fmt.Sprintf("Option created product=%s option=%s values=%d", productID, option.Name, len(option.Values)))
	if err := u.sleeper.Sleep(ctx, u.settleDelay); err != nil {
		return nil, err
	}
	snapshot, err := u.catalog.ProductVariants(ctx, productID)
	if err != nil {
		return nil, err
	}
	return snapshot.Variants, nil
}

// reconcileRow updates the variant matching the row's SKU, or else claims a
// SKU-less variant with the row's option value, or else creates one. An
// option-less group falls back to the product's default variant.
func (u *ProductUpdater) reconcileRow(ctx context.Context, product model.RemoteProduct, option model.Option, state *variantState, row model.Row) (bool, error) {
	if variant, ok := MatchBySKU(state.bySKU, row.SKU); ok {
		return false, u.updateVariant(ctx, product.ID, variant, row)
	}

	if option.Declared() {
		if id, ok := MatchByOptionValue(state.unclaimed, row.OptionValue); ok {
			variant, known := state.byID[id]
			if !known {
				variant = model.Variant{ID: id}
			}
			if err := u.updateVariant(ctx, product.ID, variant, row); err != nil {
				return false, err
			}
			state.claim(row.SKU, variant)
			return false, nil
		}
	} else if product.DefaultVariantID != "" {
		u.logger.Log(fmt.Sprintf("Updating default variant product=%s variant=%s", product.ID, product.DefaultVariantID))
		variant, known := state.byID[product.DefaultVariantID]
		if !known {
			variant = model.Variant{ID: product.DefaultVariantID}
		}
		if err := u.updateVariant(ctx, product.ID, variant, row); err != nil {
			return false, err
		}
		state.claim(row.SKU, variant)
		return false, nil
	}

	variant, err := u.createVariant(ctx, product.ID, option, row)
	if variant.ID != "" {
		state.claim(row.SKU, variant)
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// updateVariant sets the row's price and re-asserts its SKU.
func (u *ProductUpdater) updateVariant(ctx context.Context, productID string, variant model.Variant, row model.Row) error {
	updated, err := u.catalog.VariantsBulkUpdate(ctx, productID, []model.VariantPriceInput{{ID: variant.ID, Price: row.Price}})
	if err != nil {
		return fmt.Errorf("update variant %s: %w", variant.ID, err)
	}
	inventoryItemID := variant.InventoryItemID
	if inventoryItemID == "" && len(updated) > 0 {
		inventoryItemID = updated[0].InventoryItemID
	}
	if err := backfillSKU(ctx, u.catalog, variant.ID, inventoryItemID, strings.TrimSpace(row.SKU)); err != nil {
		return fmt.Errorf("set sku variant %s: %w", variant.ID, err)
	}
	u.logger.Log(fmt.Sprintf("Variant updated variant=%s sku=%s price=%s", variant.ID, strings.TrimSpace(row.SKU), row.Price))
	return nil
}

func (u *ProductUpdater) createVariant(ctx context.Context, productID string, option model.Option, row model.Row) (model.Variant, error) {
	input := model.VariantPriceInput{Price: row.Price}
	if option.Declared() {
		input.OptionName = option.Name
		input.OptionValue = strings.TrimSpace(row.OptionValue)
	}
	created, err := u.catalog.VariantsBulkCreate(ctx, productID, []model.VariantPriceInput{input})
	if err != nil {
		return model.Variant{}, fmt.Errorf("create variant sku=%s: %w", row.SKU, err)
	}
	if len(created) == 0 || created[0].ID == "" {
		return model.Variant{}, fmt.Errorf("create variant sku=%s: no variant returned", row.SKU)
	}
	variant := created[0]
	u.logger.LogSuccess(fmt.Sprintf("Variant created product=%s variant=%s sku=%s", productID, variant.ID, strings.TrimSpace(row.SKU)))

	if err := u.sleeper.Sleep(ctx, u.settleDelay); err != nil {
		return variant, err
	}
	if err := backfillSKU(ctx, u.catalog, variant.ID, variant.InventoryItemID, strings.TrimSpace(row.SKU)); err != nil {
		return variant, fmt.Errorf("set sku variant %s: %w", variant.ID, err)
	}
	return variant, nil
}
