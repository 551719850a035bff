package usecases

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"shopify-catalog-sync/internal/adapters/shopify"
	"shopify-catalog-sync/internal/domain/model"
	"shopify-catalog-sync/internal/infra/clock"
	"shopify-catalog-sync/internal/logging"
)

type fakeVariant struct {
	model.Variant
	inventoryItemID string
}

type fakeProduct struct {
	id       string
	input    model.ProductInput
	options  []string
	variants []*fakeVariant
	images   []string
	meta     []model.Metafield
}

type skuCall struct {
	InventoryItemID string
	SKU             string
}

// fakeCatalog is an in-memory store with the platform behaviors the
// reconciler depends on: option creation replaces the default variant with
// one variant per value, and inventory items stay hidden for the first
// inventoryLag variant reads.
type fakeCatalog struct {
	mu sync.Mutex

	products     []*fakeProduct
	nextID       int
	inventoryLag int
	reads        int
	publications []model.Publication

	lookupErr error
	createErr error
	updateErr error
	noProduct bool
	uploadErr error

	calls         []string
	bulkUpdates   [][]model.VariantPriceInput
	bulkCreates   [][]model.VariantPriceInput
	skuCalls      []skuCall
	uploads       []shopify.FileUpload
	published     []string
	productInputs []model.ProductInput
}

var _ shopify.CatalogService = (*fakeCatalog)(nil)

func newFakeCatalog() *fakeCatalog {
	return &fakeCatalog{
		publications: []model.Publication{
			{ID: "gid://shopify/Publication/1", Name: "Point of Sale"},
			{ID: "gid://shopify/Publication/2", Name: "Online Store"},
		},
	}
}

func (f *fakeCatalog) id(kind string) string {
	f.nextID++
	return fmt.Sprintf("gid://shopify/%s/%d", kind, f.nextID)
}

func (f *fakeCatalog) record(call string) {
	f.calls = append(f.calls, call)
}

func (f *fakeCatalog) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

func (f *fakeCatalog) countCalls(name string) int {
	n := 0
	for _, call := range f.Calls() {
		if call == name {
			n++
		}
	}
	return n
}

func (f *fakeCatalog) product(id string) *fakeProduct {
	for _, p := range f.products {
		if p.id == id {
			return p
		}
	}
	return nil
}

func (f *fakeCatalog) variant(id string) (*fakeProduct, *fakeVariant) {
	for _, p := range f.products {
		for _, v := range p.variants {
			if v.ID == id {
				return p, v
			}
		}
	}
	return nil, nil
}

func (f *fakeCatalog) newVariant(title string, optionValue string) *fakeVariant {
	v := &fakeVariant{
		Variant: model.Variant{
			ID:          f.id("ProductVariant"),
			Title:       title,
			Price:       "0.00",
			OptionValue: optionValue,
			HasOptions:  optionValue != "",
		},
	}
	v.inventoryItemID = f.id("InventoryItem")
	return v
}

func (f *fakeCatalog) visible(v *fakeVariant) model.Variant {
	out := v.Variant
	if f.reads > f.inventoryLag {
		out.InventoryItemID = v.inventoryItemID
	}
	return out
}

func (f *fakeCatalog) snapshot(p *fakeProduct) model.ProductSnapshot {
	s := model.ProductSnapshot{ID: p.id, OptionNames: append([]string(nil), p.options...)}
	for _, v := range p.variants {
		s.Variants = append(s.Variants, f.visible(v))
	}
	return s
}

// seed stores an existing product and returns it. Variants are given as
// option value and SKU pairs; an empty option name seeds one default variant.
func (f *fakeCatalog) seed(handle, optionName string, variants ...[2]string) *fakeProduct {
	f.mu.Lock()
	defer f.mu.Unlock()
	p := &fakeProduct{id: f.id("Product"), input: model.ProductInput{Handle: handle, Title: handle}}
	if optionName != "" {
		p.options = []string{optionName}
	}
	for _, pair := range variants {
		title := pair[0]
		if title == "" {
			title = model.DefaultVariantTitle
		}
		v := f.newVariant(title, pair[0])
		v.SKU = pair[1]
		p.variants = append(p.variants, v)
	}
	f.products = append(f.products, p)
	f.reads = f.inventoryLag + 1
	return p
}

func (f *fakeCatalog) ProductByHandle(_ context.Context, handle string) (model.ProductSnapshot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("ProductByHandle")
	if f.lookupErr != nil {
		return model.ProductSnapshot{}, f.lookupErr
	}
	for _, p := range f.products {
		if p.input.Handle == handle {
			return f.snapshot(p), nil
		}
	}
	return model.ProductSnapshot{}, nil
}

func (f *fakeCatalog) ProductVariants(_ context.Context, productID string) (model.ProductSnapshot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("ProductVariants")
	f.reads++
	p := f.product(productID)
	if p == nil {
		return model.ProductSnapshot{}, nil
	}
	return f.snapshot(p), nil
}

func (f *fakeCatalog) CreateProduct(_ context.Context, input model.ProductInput) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("CreateProduct")
	f.productInputs = append(f.productInputs, input)
	if f.createErr != nil {
		return "", f.createErr
	}
	p := &fakeProduct{id: f.id("Product"), input: input}
	p.variants = []*fakeVariant{f.newVariant(model.DefaultVariantTitle, "")}
	f.products = append(f.products, p)
	f.reads = 0
	return p.id, nil
}

func (f *fakeCatalog) UpdateProduct(_ context.Context, productID string, input model.ProductInput) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("UpdateProduct")
	f.productInputs = append(f.productInputs, input)
	if f.updateErr != nil {
		return "", f.updateErr
	}
	if f.noProduct {
		return "", nil
	}
	p := f.product(productID)
	if p == nil {
		return "", nil
	}
	p.input = input
	return p.id, nil
}

func (f *fakeCatalog) CreateProductOption(_ context.Context, productID string, option model.Option) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("CreateProductOption")
	p := f.product(productID)
	if p == nil {
		return errors.New("unknown product")
	}
	for _, name := range p.options {
		if name == option.Name {
			return &shopify.UserErrorsError{Action: "productOptionsCreate", Errors: []shopify.UserErrorDetail{{Field: "options", Message: "Option already exists"}}}
		}
	}
	p.options = append(p.options, option.Name)
	p.variants = nil
	for _, value := range option.Values {
		p.variants = append(p.variants, f.newVariant(value, value))
	}
	return nil
}

func (f *fakeCatalog) VariantsBulkCreate(_ context.Context, productID string, variants []model.VariantPriceInput) ([]model.Variant, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("VariantsBulkCreate")
	f.bulkCreates = append(f.bulkCreates, variants)
	p := f.product(productID)
	if p == nil {
		return nil, errors.New("unknown product")
	}
	var out []model.Variant
	for _, input := range variants {
		for _, existing := range p.variants {
			if input.OptionValue != "" && existing.OptionValue == input.OptionValue {
				return out, &shopify.UserErrorsError{Action: "productVariantsBulkCreate", Errors: []shopify.UserErrorDetail{{Message: "Variant already exists"}}}
			}
		}
		v := f.newVariant(input.OptionValue, input.OptionValue)
		v.Price = input.Price
		p.variants = append(p.variants, v)
		out = append(out, v.Variant)
	}
	return out, nil
}

func (f *fakeCatalog) VariantsBulkUpdate(_ context.Context, productID string, variants []model.VariantPriceInput) ([]model.Variant, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("VariantsBulkUpdate")
	f.bulkUpdates = append(f.bulkUpdates, variants)
	var out []model.Variant
	for _, input := range variants {
		p, v := f.variant(input.ID)
		if v == nil || p.id != productID {
			return out, &shopify.UserErrorsError{Action: "productVariantsBulkUpdate", Errors: []shopify.UserErrorDetail{{Field: "id", Message: "Variant does not exist"}}}
		}
		v.Price = input.Price
		out = append(out, model.Variant{ID: v.ID, Price: v.Price})
	}
	return out, nil
}

func (f *fakeCatalog) VariantInventoryItemID(_ context.Context, variantID string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("VariantInventoryItemID")
	_, v := f.variant(variantID)
	if v == nil {
		return "", nil
	}
	return v.inventoryItemID, nil
}

func (f *fakeCatalog) UpdateInventoryItemSKU(_ context.Context, inventoryItemID string, sku string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("UpdateInventoryItemSKU")
	f.skuCalls = append(f.skuCalls, skuCall{InventoryItemID: inventoryItemID, SKU: sku})
	for _, p := range f.products {
		for _, v := range p.variants {
			if v.inventoryItemID == inventoryItemID {
				v.SKU = sku
				return nil
			}
		}
	}
	return errors.New("unknown inventory item")
}

func (f *fakeCatalog) CreateImageFile(_ context.Context, upload shopify.FileUpload) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("CreateImageFile")
	f.uploads = append(f.uploads, upload)
	if f.uploadErr != nil {
		return "", f.uploadErr
	}
	return "https://cdn.shopify.com/" + upload.Filename, nil
}

func (f *fakeCatalog) AttachProductImages(_ context.Context, productID string, sources []string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("AttachProductImages")
	p := f.product(productID)
	if p == nil {
		return errors.New("unknown product")
	}
	p.images = append(p.images, sources...)
	return nil
}

func (f *fakeCatalog) SetProductMetafield(_ context.Context, productID string, metafield model.Metafield) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("SetProductMetafield")
	p := f.product(productID)
	if p == nil {
		return errors.New("unknown product")
	}
	p.meta = append(p.meta, metafield)
	return nil
}

func (f *fakeCatalog) Publications(_ context.Context, first int) ([]model.Publication, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("Publications")
	if len(f.publications) > first {
		return f.publications[:first], nil
	}
	return f.publications, nil
}

func (f *fakeCatalog) PublishProduct(_ context.Context, productID string, publicationID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("PublishProduct")
	f.published = append(f.published, productID+"@"+publicationID)
	return nil
}

// variantsOf returns the stored variants of the product with handle.
func (f *fakeCatalog) variantsOf(handle string) []model.Variant {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, p := range f.products {
		if p.input.Handle == handle {
			out := make([]model.Variant, 0, len(p.variants))
			for _, v := range p.variants {
				out = append(out, v.Variant)
			}
			return out
		}
	}
	return nil
}

type staticSource struct {
	rows []model.Row
	err  error
}

func (s staticSource) Rows(context.Context) ([]model.Row, error) {
	return s.rows, s.err
}

func testPacing() Pacing {
	return Pacing{
		InventoryPoll: clock.Policy{Attempts: 3, Interval: 2 * time.Second},
		SettleDelay:   2 * time.Second,
	}
}

func newObservedLogger(t *testing.T) (*logging.Logger, *observer.ObservedLogs) {
	t.Helper()
	core, logs := observer.New(zap.DebugLevel)
	return logging.NewLogger(zap.New(core), nil), logs
}

func row(handle, sku, price, optionName, optionValue string) model.Row {
	return model.Row{
		Handle:      handle,
		Title:       strings.ToUpper(handle[:1]) + handle[1:],
		SKU:         sku,
		Price:       price,
		OptionName:  optionName,
		OptionValue: optionValue,
	}
}
