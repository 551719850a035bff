package shopify

import (
	"context"
	"errors"
	"strings"

	"shopify-catalog-sync/internal/adapters/shopify/dto"
	"shopify-catalog-sync/internal/domain/model"
)

// SetProductMetafield upserts one metafield keyed by namespace and key.
func (c *Client) SetProductMetafield(ctx context.Context, productID string, metafield model.Metafield) error {
	if strings.TrimSpace(metafield.Namespace) == "" || strings.TrimSpace(metafield.Key) == "" {
		return errors.New("shopify metafield namespace and key are required")
	}
	typeName := metafield.Type
	if typeName == "" {
		typeName = model.DefaultMetafieldType
	}

	query := `
mutation metafieldsSet($metafields: [MetafieldsSetInput!]!) {
	metafieldsSet(metafields: $metafields) {
		metafields { id namespace key }
		userErrors { field message }
	}
}`

	var data dto.MetafieldsSetData
	err := c.graphqlRequest(ctx, query, map[string]any{
		"metafields": []map[string]any{{
			"ownerId":   productID,
			"namespace": metafield.Namespace,
			"key":       metafield.Key,
			"value":     metafield.Value,
			"type":      typeName,
		}},
	}, &data)
	if err != nil {
		return err
	}
	return userErrorsToError("metafieldsSet", data.MetafieldsSet.UserErrors)
}
