package shopify

import (
	"context"
	"errors"
	"strings"

	"shopify-catalog-sync/internal/adapters/shopify/dto"
	"shopify-catalog-sync/internal/domain/model"
)

const variantsPageSize = 250

const productByHandleQuery = `
query productByHandle($handle: String!) {
	productByHandle(handle: $handle) {
		id
		options { name }
		variants(first: 250) {
			nodes {
				id
				title
				sku
				price
				inventoryItem { id }
				selectedOptions { name value }
			}
		}
	}
}`

const productVariantsQuery = `
query productVariants($id: ID!, $first: Int!) {
	product(id: $id) {
		id
		options { name }
		variants(first: $first) {
			nodes {
				id
				title
				sku
				price
				inventoryItem { id }
				selectedOptions { name value }
			}
		}
	}
}`

// ProductByHandle fetches the product stored under handle. A zero
// snapshot with an empty ID means no such product exists.
func (c *Client) ProductByHandle(ctx context.Context, handle string) (model.ProductSnapshot, error) {
	handle = strings.TrimSpace(handle)
	if handle == "" {
		return model.ProductSnapshot{}, errors.New("shopify product handle is required")
	}

	var data dto.ProductByHandleData
	err := c.graphqlRequest(ctx, productByHandleQuery, map[string]any{
		"handle": handle,
	}, &data)
	if err != nil {
		return model.ProductSnapshot{}, err
	}
	if data.ProductByHandle == nil {
		return model.ProductSnapshot{}, nil
	}
	return mapShopifyProduct(*data.ProductByHandle), nil
}

// ProductVariants re-reads a product by id with its variants, their
// selected options and inventory links.
func (c *Client) ProductVariants(ctx context.Context, productID string) (model.ProductSnapshot, error) {
	productID = strings.TrimSpace(productID)
	if productID == "" {
		return model.ProductSnapshot{}, errors.New("shopify product id is required")
	}

	var data dto.ProductVariantsData
	err := c.graphqlRequest(ctx, productVariantsQuery, map[string]any{
		"id":    productID,
		"first": variantsPageSize,
	}, &data)
	if err != nil {
		return model.ProductSnapshot{}, err
	}
	if data.Product == nil {
		return model.ProductSnapshot{}, nil
	}
	return mapShopifyProduct(*data.Product), nil
}

func (c *Client) CreateProduct(ctx context.Context, input model.ProductInput) (string, error) {
	if strings.TrimSpace(input.Title) == "" {
		return "", errors.New("shopify product title is required")
	}

	query := `
mutation productCreate($product: ProductCreateInput!) {
	productCreate(product: $product) {
		product { id title }
		userErrors { field message }
	}
}`

	var data dto.ProductCreateData
	err := c.graphqlRequest(ctx, query, map[string]any{
		"product": productFields(input),
	}, &data)
	if err != nil {
		return "", err
	}
	if err := userErrorsToError("productCreate", data.ProductCreate.UserErrors); err != nil {
		return "", err
	}
	if data.ProductCreate.Product == nil || strings.TrimSpace(data.ProductCreate.Product.ID) == "" {
		return "", errors.New("shopify product create returned empty product id")
	}
	return data.ProductCreate.Product.ID, nil
}

// UpdateProduct rewrites the core fields of an existing product and returns
// the id the platform reports back. An empty id means no product came back.
func (c *Client) UpdateProduct(ctx context.Context, productID string, input model.ProductInput) (string, error) {
	productID = strings.TrimSpace(productID)
	if productID == "" {
		return "", errors.New("shopify product id is required")
	}

	fields := productFields(input)
	fields["id"] = productID

	query := `
mutation productUpdate($product: ProductUpdateInput!) {
	productUpdate(product: $product) {
		product { id }
		userErrors { field message }
	}
}`

	var data dto.ProductUpdateData
	err := c.graphqlRequest(ctx, query, map[string]any{
		"product": fields,
	}, &data)
	if err != nil {
		return "", err
	}
	if err := userErrorsToError("productUpdate", data.ProductUpdate.UserErrors); err != nil {
		return "", err
	}
	if data.ProductUpdate.Product == nil {
		return "", nil
	}
	return strings.TrimSpace(data.ProductUpdate.Product.ID), nil
}

// CreateProductOption declares option on the product. The platform creates
// one variant per value as a side effect.
func (c *Client) CreateProductOption(ctx context.Context, productID string, option model.Option) error {
	if !option.Declared() || len(option.Values) == 0 {
		return errors.New("shopify option name and values are required")
	}

	values := make([]map[string]any, 0, len(option.Values))
	for _, value := range option.Values {
		values = append(values, map[string]any{"name": value})
	}

	query := `
mutation productOptionsCreate($productId: ID!, $options: [OptionCreateInput!]!) {
	productOptionsCreate(productId: $productId, options: $options) {
		product {
			id
			options { id name }
		}
		userErrors { field message }
	}
}`

	var data dto.ProductOptionsCreateData
	err := c.graphqlRequest(ctx, query, map[string]any{
		"productId": productID,
		"options": []map[string]any{{
			"name":   option.Name,
			"values": values,
		}},
	}, &data)
	if err != nil {
		return err
	}
	return userErrorsToError("productOptionsCreate", data.ProductOptionsCreate.UserErrors)
}

func productFields(input model.ProductInput) map[string]any {
	tags := input.Tags
	if tags == nil {
		tags = []string{}
	}
	fields := map[string]any{
		"title":           strings.TrimSpace(input.Title),
		"descriptionHtml": input.DescriptionHTML,
		"vendor":          input.Vendor,
		"productType":     input.ProductType,
		"tags":            tags,
	}
	if handle := strings.TrimSpace(input.Handle); handle != "" {
		fields["handle"] = handle
	}
	return fields
}

func mapShopifyProduct(sp dto.ShopifyProduct) model.ProductSnapshot {
	snapshot := model.ProductSnapshot{ID: strings.TrimSpace(sp.ID)}
	for _, opt := range sp.Options {
		snapshot.OptionNames = append(snapshot.OptionNames, opt.Name)
	}
	for _, sv := range sp.Variants.All() {
		snapshot.Variants = append(snapshot.Variants, mapShopifyVariant(sv))
	}
	return snapshot
}

func mapShopifyVariant(sv dto.ShopifyVariant) model.Variant {
	variant := model.Variant{
		ID:         strings.TrimSpace(sv.ID),
		Title:      sv.Title,
		SKU:        sv.SKU,
		Price:      sv.Price,
		HasOptions: len(sv.SelectedOptions) > 0,
	}
	if sv.InventoryItem != nil {
		variant.InventoryItemID = strings.TrimSpace(sv.InventoryItem.ID)
	}
	if variant.HasOptions {
		variant.OptionValue = strings.TrimSpace(sv.SelectedOptions[0].Value)
	}
	return variant
}
