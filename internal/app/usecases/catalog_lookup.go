package usecases

import (
	"context"
	"strings"

	"shopify-catalog-sync/internal/adapters/shopify"
	"shopify-catalog-sync/internal/domain/model"
)

type CatalogLookup struct {
	catalog shopify.CatalogService
}

func NewCatalogLookup(catalog shopify.CatalogService) *CatalogLookup {
	return &CatalogLookup{catalog: catalog}
}

// Resolve returns the remote state for handle. A product that does not
// exist comes back as a zero RemoteProduct; a failed request is an error,
// never an absent product.
func (l *CatalogLookup) Resolve(ctx context.Context, handle string) (model.RemoteProduct, error) {
	snapshot, err := l.catalog.ProductByHandle(ctx, handle)
	if err != nil {
		return model.RemoteProduct{}, err
	}
	return remoteProduct(snapshot), nil
}

func remoteProduct(snapshot model.ProductSnapshot) model.RemoteProduct {
	if snapshot.ID == "" {
		return model.RemoteProduct{}
	}
	product := model.RemoteProduct{
		ID:               snapshot.ID,
		OptionNames:      snapshot.OptionNames,
		VariantsBySKU:    make(map[string]model.Variant, len(snapshot.Variants)),
		DefaultVariantID: defaultVariantID(snapshot.OptionNames, snapshot.Variants),
		Variants:         snapshot.Variants,
	}
	for _, v := range snapshot.Variants {
		sku := strings.TrimSpace(v.SKU)
		if sku == "" {
			continue
		}
		product.VariantsBySKU[sku] = v
	}
	return product
}

// defaultVariantID picks the implicit variant of an option-less product:
// the only variant, or the single one carrying the default title.
func defaultVariantID(optionNames []string, variants []model.Variant) string {
	if len(optionNames) > 0 {
		return ""
	}
	if len(variants) == 1 {
		return variants[0].ID
	}
	var (
		found string
		count int
	)
	for _, v := range variants {
		if v.Title == model.DefaultVariantTitle {
			found = v.ID
			count++
		}
	}
	if count == 1 {
		return found
	}
	return ""
}
