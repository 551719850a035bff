package dto

type ImageNode struct {
	ID  string `json:"id,omitempty"`
	URL string `json:"url,omitempty"`
}

type FilePreview struct {
	Image *ImageNode `json:"image,omitempty"`
}

type FileNode struct {
	ID         string       `json:"id,omitempty"`
	FileStatus string       `json:"fileStatus,omitempty"`
	Image      *ImageNode   `json:"image,omitempty"`
	Preview    *FilePreview `json:"preview,omitempty"`
}

// HostedURL is the image address once the platform has stored the file.
func (f FileNode) HostedURL() string {
	if f.Image != nil && f.Image.URL != "" {
		return f.Image.URL
	}
	if f.Preview != nil && f.Preview.Image != nil {
		return f.Preview.Image.URL
	}
	return ""
}

type FileCreateData struct {
	FileCreate struct {
		Files      []FileNode         `json:"files,omitempty"`
		UserErrors []ShopifyUserError `json:"userErrors,omitempty"`
	} `json:"fileCreate"`
}

type MediaNode struct {
	ID               string `json:"id,omitempty"`
	MediaContentType string `json:"mediaContentType,omitempty"`
}

type ProductMediaUpdateData struct {
	ProductUpdate struct {
		Product *struct {
			ID    string `json:"id,omitempty"`
			Media struct {
				Nodes []MediaNode `json:"nodes,omitempty"`
			} `json:"media,omitempty"`
		} `json:"product"`
		UserErrors []ShopifyUserError `json:"userErrors,omitempty"`
	} `json:"productUpdate"`
}
