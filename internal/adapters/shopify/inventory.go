package shopify

import (
	"context"
	"errors"
	"strings"

	"shopify-catalog-sync/internal/adapters/shopify/dto"
	"shopify-catalog-sync/internal/domain/model"
)

func (c *Client) VariantsBulkCreate(ctx context.Context, productID string, variants []model.VariantPriceInput) ([]model.Variant, error) {
	if len(variants) == 0 {
		return nil, nil
	}

	query := `
mutation productVariantsBulkCreate($productId: ID!, $variants: [ProductVariantsBulkInput!]!) {
	productVariantsBulkCreate(productId: $productId, variants: $variants) {
		productVariants {
			id
			title
			sku
			price
			inventoryItem { id }
			selectedOptions { name value }
		}
		userErrors { field message }
	}
}`

	var data dto.ProductVariantsBulkCreateData
	err := c.graphqlRequest(ctx, query, map[string]any{
		"productId": productID,
		"variants":  variantInputs(variants),
	}, &data)
	if err != nil {
		return nil, err
	}
	payload := data.ProductVariantsBulkCreate
	return mapVariants(payload.ProductVariants), userErrorsToError("productVariantsBulkCreate", payload.UserErrors)
}

// VariantsBulkUpdate sets prices on existing variants in one call and
// returns the variants the platform confirmed.
func (c *Client) VariantsBulkUpdate(ctx context.Context, productID string, variants []model.VariantPriceInput) ([]model.Variant, error) {
	if len(variants) == 0 {
		return nil, nil
	}

	query := `
mutation productVariantsBulkUpdate($productId: ID!, $variants: [ProductVariantsBulkInput!]!) {
	productVariantsBulkUpdate(productId: $productId, variants: $variants) {
		productVariants {
			id
			price
			inventoryItem { id }
		}
		userErrors { field message }
	}
}`

	var data dto.ProductVariantsBulkUpdateData
	err := c.graphqlRequest(ctx, query, map[string]any{
		"productId": productID,
		"variants":  variantInputs(variants),
	}, &data)
	if err != nil {
		return nil, err
	}
	payload := data.ProductVariantsBulkUpdate
	return mapVariants(payload.ProductVariants), userErrorsToError("productVariantsBulkUpdate", payload.UserErrors)
}

// VariantInventoryItemID returns the inventory item linked to a variant, or
// an empty string while the platform has not provisioned it yet.
func (c *Client) VariantInventoryItemID(ctx context.Context, variantID string) (string, error) {
	variantID = strings.TrimSpace(variantID)
	if variantID == "" {
		return "", errors.New("shopify variant id is required")
	}

	query := `
query productVariant($id: ID!) {
	productVariant(id: $id) {
		id
		inventoryItem { id }
	}
}`

	var data dto.VariantInventoryData
	err := c.graphqlRequest(ctx, query, map[string]any{
		"id": variantID,
	}, &data)
	if err != nil {
		return "", err
	}
	if data.ProductVariant == nil || data.ProductVariant.InventoryItem == nil {
		return "", nil
	}
	return strings.TrimSpace(data.ProductVariant.InventoryItem.ID), nil
}

// UpdateInventoryItemSKU writes sku onto the inventory item, which is where
// the platform stores it.
func (c *Client) UpdateInventoryItemSKU(ctx context.Context, inventoryItemID string, sku string) error {
	inventoryItemID = strings.TrimSpace(inventoryItemID)
	if inventoryItemID == "" {
		return errors.New("shopify inventory item id is required")
	}

	query := `
mutation inventoryItemUpdate($id: ID!, $input: InventoryItemInput!) {
	inventoryItemUpdate(id: $id, input: $input) {
		inventoryItem { id sku }
		userErrors { field message }
	}
}`

	var data dto.InventoryItemUpdateData
	err := c.graphqlRequest(ctx, query, map[string]any{
		"id":    inventoryItemID,
		"input": map[string]any{"sku": strings.TrimSpace(sku)},
	}, &data)
	if err != nil {
		return err
	}
	if err := userErrorsToError("inventoryItemUpdate", data.InventoryItemUpdate.UserErrors); err != nil {
		return err
	}
	if data.InventoryItemUpdate.InventoryItem == nil {
		return errors.New("shopify inventory item update returned no item")
	}
	return nil
}

func variantInputs(variants []model.VariantPriceInput) []map[string]any {
	inputs := make([]map[string]any, 0, len(variants))
	for _, v := range variants {
		input := map[string]any{"price": v.Price}
		if id := strings.TrimSpace(v.ID); id != "" {
			input["id"] = id
		}
		if v.OptionName != "" && v.OptionValue != "" {
			input["optionValues"] = []map[string]any{{
				"name":       v.OptionValue,
				"optionName": v.OptionName,
			}}
		}
		inputs = append(inputs, input)
	}
	return inputs
}

func mapVariants(nodes []dto.ShopifyVariant) []model.Variant {
	if len(nodes) == 0 {
		return nil
	}
	out := make([]model.Variant, 0, len(nodes))
	for _, node := range nodes {
		out = append(out, mapShopifyVariant(node))
	}
	return out
}
