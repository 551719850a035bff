package shopify

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"shopify-catalog-sync/internal/adapters/shopify/dto"
)

// FileUpload is a local file sent inline as a base64 data URL.
type FileUpload struct {
	Filename string
	MimeType string
	Data     []byte
}

func (f FileUpload) dataURL() string {
	return fmt.Sprintf("data:%s;base64,%s", f.MimeType, base64.StdEncoding.EncodeToString(f.Data))
}

// CreateImageFile uploads the file and returns the hosted image URL that
// can later be attached to a product.
func (c *Client) CreateImageFile(ctx context.Context, upload FileUpload) (string, error) {
	if len(upload.Data) == 0 {
		return "", errors.New("shopify file upload is empty")
	}
	if upload.MimeType == "" {
		upload.MimeType = "image/jpeg"
	}

	query := `
mutation fileCreate($files: [FileCreateInput!]!) {
	fileCreate(files: $files) {
		files {
			id
			fileStatus
			preview { image { url } }
			... on MediaImage {
				image { id url }
			}
		}
		userErrors { field message }
	}
}`

	var data dto.FileCreateData
	err := c.graphqlRequest(ctx, query, map[string]any{
		"files": []map[string]any{{
			"originalSource": upload.dataURL(),
			"filename":       upload.Filename,
			"contentType":    "IMAGE",
		}},
	}, &data)
	if err != nil {
		return "", err
	}
	if err := userErrorsToError("fileCreate", data.FileCreate.UserErrors); err != nil {
		return "", err
	}
	if len(data.FileCreate.Files) == 0 {
		return "", errors.New("shopify file create returned no files")
	}
	url := strings.TrimSpace(data.FileCreate.Files[0].HostedURL())
	if url == "" {
		return "", fmt.Errorf("shopify file %s has no hosted url yet", data.FileCreate.Files[0].ID)
	}
	return url, nil
}

// AttachProductImages attaches every source in one productUpdate call.
func (c *Client) AttachProductImages(ctx context.Context, productID string, sources []string) error {
	if len(sources) == 0 {
		return nil
	}

	media := make([]map[string]any, 0, len(sources))
	for _, source := range sources {
		media = append(media, map[string]any{
			"originalSource":   source,
			"mediaContentType": "IMAGE",
		})
	}

	query := `
mutation productUpdate($product: ProductUpdateInput!, $media: [CreateMediaInput!]) {
	productUpdate(product: $product, media: $media) {
		product {
			id
			media(first: 10) {
				nodes { id mediaContentType }
			}
		}
		userErrors { field message }
	}
}`

	var data dto.ProductMediaUpdateData
	err := c.graphqlRequest(ctx, query, map[string]any{
		"product": map[string]any{"id": productID},
		"media":   media,
	}, &data)
	if err != nil {
		return err
	}
	return userErrorsToError("productUpdate", data.ProductUpdate.UserErrors)
}
