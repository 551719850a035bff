package usecases

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"shopify-catalog-sync/internal/adapters/shopify"
	"shopify-catalog-sync/internal/domain/model"
	"shopify-catalog-sync/internal/logging"
)

const defaultImageMimeType = "image/jpeg"

var imageMimeTypes = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".gif":  "image/gif",
	".webp": "image/webp",
}

type AssetAttacher struct {
	catalog  shopify.CatalogService
	logger   logging.LoggerService
	readFile func(name string) ([]byte, error)
}

func NewAssetAttacher(catalog shopify.CatalogService, logger logging.LoggerService) *AssetAttacher {
	return &AssetAttacher{
		catalog:  catalog,
		logger:   logger,
		readFile: os.ReadFile,
	}
}

// SplitImages splits a comma-separated images cell into trimmed entries.
func SplitImages(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		entry := strings.TrimSpace(part)
		if entry == "" {
			continue
		}
		out = append(out, entry)
	}
	return out
}

// IsHostedImage reports whether entry is already a URL the platform can
// fetch itself. Anything else is a local file.
func IsHostedImage(entry string) bool {
	lower := strings.ToLower(strings.TrimSpace(entry))
	return strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://")
}

func ImageMimeType(path string) string {
	if mime, ok := imageMimeTypes[strings.ToLower(filepath.Ext(path))]; ok {
		return mime
	}
	return defaultImageMimeType
}

func (a *AssetAttacher) AttachImageList(ctx context.Context, productID string, raw string) (int, error) {
	return a.AttachImages(ctx, productID, SplitImages(raw))
}

// AttachImages resolves every entry to a media source and attaches them in
// one call. Entries that fail to upload are dropped; when none resolve no
// attach call is made.
func (a *AssetAttacher) AttachImages(ctx context.Context, productID string, entries []string) (int, error) {
	sources := make([]string, 0, len(entries))
	for _, entry := range entries {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		if IsHostedImage(entry) {
			sources = append(sources, entry)
			continue
		}
		source, err := a.upload(ctx, entry)
		if err != nil {
			if ctx.Err() != nil {
				return 0, ctx.Err()
			}
			a.logger.LogWarning(fmt.Sprintf("Image dropped path=%s: %v", entry, err))
			continue
		}
		sources = append(sources, source)
	}
	if len(sources) == 0 {
		return 0, nil
	}

	if err := a.catalog.AttachProductImages(ctx, productID, sources); err != nil {
		return 0, fmt.Errorf("attach images product=%s: %w", productID, err)
	}
	a.logger.Log(fmt.Sprintf("Images attached product=%s count=%d", productID, len(sources)))
	return len(sources), nil
}

func (a *AssetAttacher) upload(ctx context.Context, path string) (string, error) {
	data, err := a.readFile(path)
	if err != nil {
		return "", err
	}
	return a.catalog.CreateImageFile(ctx, shopify.FileUpload{
		Filename: filepath.Base(path),
		MimeType: ImageMimeType(path),
		Data:     data,
	})
}

// MetafieldsFromFields decodes the metafield_* columns of a row. Empty
// values and names without both a namespace and a key are left out.
func MetafieldsFromFields(fields []model.Field) []model.Metafield {
	var out []model.Metafield
	for _, field := range fields {
		value := strings.TrimSpace(field.Value)
		if value == "" {
			continue
		}
		namespace, key, typeName, ok := model.ParseMetafieldColumn(field.Name)
		if !ok {
			continue
		}
		out = append(out, model.Metafield{
			Namespace: namespace,
			Key:       key,
			Type:      typeName,
			Value:     value,
		})
	}
	return out
}

// AttachMetafields upserts each metafield on its own; one failure does not
// stop the rest. It returns how many were set.
func (a *AssetAttacher) AttachMetafields(ctx context.Context, productID string, fields []model.Field) int {
	set := 0
	for _, metafield := range MetafieldsFromFields(fields) {
		if err := a.catalog.SetProductMetafield(ctx, productID, metafield); err != nil {
			a.logger.LogError(fmt.Sprintf("Metafield failed product=%s key=%s.%s", productID, metafield.Namespace, metafield.Key), err)
			continue
		}
		set++
	}
	if set > 0 {
		a.logger.Log(fmt.Sprintf("Metafields set product=%s count=%d", productID, set))
	}
	return set
}
