package dto

import "encoding/json"

type GraphQLResponse[T any] struct {
	Data       T                  `json:"data"`
	Errors     json.RawMessage    `json:"errors,omitempty"`
	Extensions *GraphQLExtensions `json:"extensions,omitempty"`
}

type GraphQLError struct {
	Message    string                 `json:"message"`
	Path       []any                  `json:"path,omitempty"`
	Extensions map[string]any         `json:"extensions,omitempty"`
	Locations  []GraphQLErrorLocation `json:"locations,omitempty"`
}

type GraphQLErrorLocation struct {
	Line   int `json:"line"`
	Column int `json:"column"`
}

// ParseGraphQLErrors decodes the errors member, which is normally a list
// but is a bare string on some platform rejections.
func ParseGraphQLErrors(raw json.RawMessage) []GraphQLError {
	if len(raw) == 0 || string(raw) == "null" {
		return nil
	}
	var list []GraphQLError
	if err := json.Unmarshal(raw, &list); err == nil {
		return list
	}
	var message string
	if err := json.Unmarshal(raw, &message); err == nil {
		return []GraphQLError{{Message: message}}
	}
	return []GraphQLError{{Message: string(raw)}}
}

type GraphQLExtensions struct {
	Cost *QueryCost `json:"cost,omitempty"`
}

// DefaultAvailableBudget stands in for a response that reports no budget.
const DefaultAvailableBudget = 1000

// AvailableBudget returns the currently available request budget, or
// DefaultAvailableBudget when the envelope does not carry one.
func (e *GraphQLExtensions) AvailableBudget() float64 {
	if e == nil || e.Cost == nil || e.Cost.ThrottleStatus == nil || e.Cost.ThrottleStatus.CurrentlyAvailable == nil {
		return DefaultAvailableBudget
	}
	return *e.Cost.ThrottleStatus.CurrentlyAvailable
}

type QueryCost struct {
	RequestedQueryCost float64         `json:"requestedQueryCost,omitempty"`
	ActualQueryCost    float64         `json:"actualQueryCost,omitempty"`
	ThrottleStatus     *ThrottleStatus `json:"throttleStatus,omitempty"`
}

type ThrottleStatus struct {
	MaximumAvailable   float64  `json:"maximumAvailable"`
	CurrentlyAvailable *float64 `json:"currentlyAvailable,omitempty"`
	RestoreRate        float64  `json:"restoreRate"`
}

type ShopifyUserError struct {
	Field   []string `json:"field,omitempty"`
	Message string   `json:"message"`
}

type ShopifyProduct struct {
	ID     string `json:"id,omitempty"`
	Title  string `json:"title,omitempty"`
	Handle string `json:"handle,omitempty"`

	Options  []ShopifyProductOption   `json:"options,omitempty"`
	Variants ShopifyVariantConnection `json:"variants,omitempty"`
}

type ShopifyProductOption struct {
	ID   string `json:"id,omitempty"`
	Name string `json:"name,omitempty"`
}

type ShopifyVariantConnection struct {
	Edges []ShopifyVariantEdge `json:"edges,omitempty"`
	Nodes []ShopifyVariant     `json:"nodes,omitempty"`
}

type ShopifyVariantEdge struct {
	Node ShopifyVariant `json:"node"`
}

// All returns the variants whichever connection shape the query used.
func (c ShopifyVariantConnection) All() []ShopifyVariant {
	if len(c.Nodes) > 0 {
		return c.Nodes
	}
	out := make([]ShopifyVariant, 0, len(c.Edges))
	for _, edge := range c.Edges {
		out = append(out, edge.Node)
	}
	return out
}

type ShopifyVariant struct {
	ID              string             `json:"id,omitempty"`
	Title           string             `json:"title,omitempty"`
	SKU             string             `json:"sku,omitempty"`
	Price           string             `json:"price,omitempty"`
	InventoryItem   *InventoryItemNode `json:"inventoryItem,omitempty"`
	SelectedOptions []SelectedOption   `json:"selectedOptions,omitempty"`
}

type SelectedOption struct {
	Name  string `json:"name,omitempty"`
	Value string `json:"value,omitempty"`
}

type ProductByHandleData struct {
	ProductByHandle *ShopifyProduct `json:"productByHandle"`
}

type ProductVariantsData struct {
	Product *ShopifyProduct `json:"product"`
}

type ProductCreateData struct {
	ProductCreate ProductMutationPayload `json:"productCreate"`
}

type ProductUpdateData struct {
	ProductUpdate ProductMutationPayload `json:"productUpdate"`
}

type ProductMutationPayload struct {
	Product    *ShopifyProduct    `json:"product"`
	UserErrors []ShopifyUserError `json:"userErrors,omitempty"`
}

type ProductOptionsCreateData struct {
	ProductOptionsCreate ProductMutationPayload `json:"productOptionsCreate"`
}

type ProductVariantsBulkCreateData struct {
	ProductVariantsBulkCreate VariantsBulkPayload `json:"productVariantsBulkCreate"`
}

type ProductVariantsBulkUpdateData struct {
	ProductVariantsBulkUpdate VariantsBulkPayload `json:"productVariantsBulkUpdate"`
}

type VariantsBulkPayload struct {
	ProductVariants []ShopifyVariant   `json:"productVariants,omitempty"`
	UserErrors      []ShopifyUserError `json:"userErrors,omitempty"`
}
