package shopify

import (
	"context"
	"strings"

	"shopify-catalog-sync/internal/adapters/shopify/dto"
	"shopify-catalog-sync/internal/domain/model"
)

func (c *Client) Publications(ctx context.Context, first int) ([]model.Publication, error) {
	if first <= 0 {
		first = 10
	}

	query := `
query publications($first: Int!) {
	publications(first: $first) {
		nodes { id name }
	}
}`

	var data dto.PublicationsQueryData
	err := c.graphqlRequest(ctx, query, map[string]any{
		"first": first,
	}, &data)
	if err != nil {
		return nil, err
	}

	out := make([]model.Publication, 0, len(data.Publications.Nodes))
	for _, node := range data.Publications.Nodes {
		out = append(out, model.Publication{
			ID:   strings.TrimSpace(node.ID),
			Name: node.Name,
		})
	}
	return out, nil
}

func (c *Client) PublishProduct(ctx context.Context, productID string, publicationID string) error {
	query := `
mutation publishablePublish($id: ID!, $input: [PublicationInput!]!) {
	publishablePublish(id: $id, input: $input) {
		publishable {
			... on Product { id title }
		}
		userErrors { field message }
	}
}`

	var data dto.PublishablePublishData
	err := c.graphqlRequest(ctx, query, map[string]any{
		"id": productID,
		"input": []map[string]any{{
			"publicationId": publicationID,
		}},
	}, &data)
	if err != nil {
		return err
	}
	return userErrorsToError("publishablePublish", data.PublishablePublish.UserErrors)
}
