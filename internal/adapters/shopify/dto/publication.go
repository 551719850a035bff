package dto

type PublicationNode struct {
	ID   string `json:"id,omitempty"`
	Name string `json:"name,omitempty"`
}

type PublicationsQueryData struct {
	Publications struct {
		Nodes []PublicationNode `json:"nodes,omitempty"`
	} `json:"publications"`
}

type PublishablePublishData struct {
	PublishablePublish struct {
		Publishable *struct {
			ID string `json:"id,omitempty"`
		} `json:"publishable,omitempty"`
		UserErrors []ShopifyUserError `json:"userErrors,omitempty"`
	} `json:"publishablePublish"`
}
