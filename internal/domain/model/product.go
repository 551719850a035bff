package model

import "strings"

// DefaultVariantTitle is the title the platform gives the implicit variant of
// a product that declares no options.
const DefaultVariantTitle = "Default Title"

// Row is one variant line of the row source.
type Row struct {
	Handle      string
	Title       string
	Description string
	Vendor      string
	ProductType string
	Tags        string
	SKU         string
	Price       string
	OptionName  string
	OptionValue string
	Images      string
	// HasImages reports whether the source carries an images column at all.
	HasImages bool
	// Metafields holds every metafield_* column in source order.
	Metafields []Field
	// Line is the 1-based source line, for log messages.
	Line int
	// Invalid holds a data error that keeps the row out of variant
	// processing. The row still belongs to its group.
	Invalid error
}

type Field struct {
	Name  string
	Value string
}

func (r Row) HasSKU() bool {
	return strings.TrimSpace(r.SKU) != ""
}

// VariantErr reports why the row cannot define a variant, or nil.
func (r Row) VariantErr() error {
	if r.Invalid != nil {
		return r.Invalid
	}
	if !r.HasSKU() {
		return ErrMissingSKU
	}
	return nil
}

func (r Row) TagList() []string {
	parts := strings.Split(r.Tags, ",")
	tags := make([]string, 0, len(parts))
	for _, part := range parts {
		tag := strings.TrimSpace(part)
		if tag == "" {
			continue
		}
		tags = append(tags, tag)
	}
	return tags
}

// Option is a named product dimension with its distinct values in
// first-seen order.
type Option struct {
	Name   string
	Values []string
}

func (o Option) Declared() bool {
	return o.Name != ""
}

// ProductInput is the product-level payload derived from a group's first row.
type ProductInput struct {
	Handle          string
	Title           string
	DescriptionHTML string
	Vendor          string
	ProductType     string
	Tags            []string
}

// Variant is the remote view of one product variant.
type Variant struct {
	ID              string
	Title           string
	SKU             string
	Price           string
	InventoryItemID string
	OptionValue     string
	HasOptions      bool
}

// RemoteProduct is the existing state resolved for one handle. An empty ID
// means the handle does not exist remotely.
type RemoteProduct struct {
	ID               string
	VariantsBySKU    map[string]Variant
	OptionNames      []string
	DefaultVariantID string
	// Variants is every variant as fetched, including those without a SKU.
	Variants []Variant
}

func (p RemoteProduct) Exists() bool {
	return p.ID != ""
}

func (p RemoteProduct) HasOption(name string) bool {
	for _, existing := range p.OptionNames {
		if existing == name {
			return true
		}
	}
	return false
}

// Metafield is one product metafield upsert.
type Metafield struct {
	Namespace string
	Key       string
	Type      string
	Value     string
}

// VariantPriceInput is one entry of a bulk variant update or create.
type VariantPriceInput struct {
	ID          string
	Price       string
	OptionName  string
	OptionValue string
}

// ProductSnapshot is the raw remote state of one product as fetched.
type ProductSnapshot struct {
	ID          string
	OptionNames []string
	Variants    []Variant
}

// Publication is one sales channel the product can be published to.
type Publication struct {
	ID   string
	Name string
}
