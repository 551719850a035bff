package dto

type InventoryItemNode struct {
	ID  string `json:"id,omitempty"`
	SKU string `json:"sku,omitempty"`
}

type VariantInventoryData struct {
	ProductVariant *struct {
		ID            string             `json:"id,omitempty"`
		InventoryItem *InventoryItemNode `json:"inventoryItem,omitempty"`
	} `json:"productVariant"`
}

type InventoryItemUpdateData struct {
	InventoryItemUpdate struct {
		InventoryItem *InventoryItemNode `json:"inventoryItem,omitempty"`
		UserErrors    []ShopifyUserError `json:"userErrors,omitempty"`
	} `json:"inventoryItemUpdate"`
}
