package usecases

import (
	"strings"

	"shopify-catalog-sync/internal/domain/model"
)

// MatchBySKU finds the variant stored under sku. SKUs are identifiers: they
// match exactly after trimming, with no case folding.
func MatchBySKU(bySKU map[string]model.Variant, sku string) (model.Variant, bool) {
	key := strings.TrimSpace(sku)
	if key == "" {
		return model.Variant{}, false
	}
	variant, ok := bySKU[key]
	return variant, ok
}

// OptionValueIndex maps option values to variant ids, once as stored and
// once lower-cased.
type OptionValueIndex struct {
	exact  map[string]string
	folded map[string]string
}

func NewOptionValueIndex(variants []model.Variant) OptionValueIndex {
	idx := OptionValueIndex{
		exact:  make(map[string]string, len(variants)),
		folded: make(map[string]string, len(variants)),
	}
	for _, v := range variants {
		idx.Add(v)
	}
	return idx
}

// Add indexes v by its option value. The first variant seen for a key wins.
func (idx OptionValueIndex) Add(v model.Variant) {
	value := strings.TrimSpace(v.OptionValue)
	if !v.HasOptions || value == "" || v.ID == "" {
		return
	}
	if _, ok := idx.exact[value]; !ok {
		idx.exact[value] = v.ID
	}
	lower := strings.ToLower(value)
	if _, ok := idx.folded[lower]; !ok {
		idx.folded[lower] = v.ID
	}
}

// Remove drops every key pointing at variantID.
func (idx OptionValueIndex) Remove(variantID string) {
	for key, id := range idx.exact {
		if id == variantID {
			delete(idx.exact, key)
		}
	}
	for key, id := range idx.folded {
		if id == variantID {
			delete(idx.folded, key)
		}
	}
}

func (idx OptionValueIndex) Len() int {
	return len(idx.exact)
}

// MatchByOptionValue tries the value as given, then its lower-cased form.
// Option values are labels typed by people, so "small" finds "Small".
func MatchByOptionValue(idx OptionValueIndex, value string) (string, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return "", false
	}
	if id, ok := idx.exact[value]; ok {
		return id, true
	}
	id, ok := idx.folded[strings.ToLower(value)]
	return id, ok
}
