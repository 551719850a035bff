package shopify

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shopify-catalog-sync/internal/config"
	"shopify-catalog-sync/internal/domain/model"
	"shopify-catalog-sync/internal/logging"
	"shopify-catalog-sync/internal/testutil"
)

type capturedRequest struct {
	Path      string
	Token     string
	Query     string
	Variables map[string]any
}

type fakeAdminAPI struct {
	mu       sync.Mutex
	requests []capturedRequest
	respond  func(w http.ResponseWriter, req capturedRequest)
}

func (f *fakeAdminAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)
	var payload struct {
		Query     string         `json:"query"`
		Variables map[string]any `json:"variables"`
	}
	_ = json.Unmarshal(body, &payload)
	req := capturedRequest{
		Path:      r.URL.Path,
		Token:     r.Header.Get("X-Shopify-Access-Token"),
		Query:     payload.Query,
		Variables: payload.Variables,
	}
	f.mu.Lock()
	f.requests = append(f.requests, req)
	f.mu.Unlock()
	f.respond(w, req)
}

func (f *fakeAdminAPI) Requests() []capturedRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]capturedRequest(nil), f.requests...)
}

func writeJSON(w http.ResponseWriter, body string) {
	w.Header().Set("Content-Type", "application/json")
	_, _ = io.WriteString(w, body)
}

func newTestClient(t *testing.T, respond func(w http.ResponseWriter, req capturedRequest)) (*Client, *fakeAdminAPI, *testutil.Recorder) {
	t.Helper()
	api := &fakeAdminAPI{respond: respond}
	server := httptest.NewServer(api)
	t.Cleanup(server.Close)

	recorder := testutil.NewRecorder()
	client := NewClient(
		config.ShopifyConfig{ShopDomain: server.URL, Token: "shpat_test", APIVer: "2024-10", Timeout: 5 * time.Second},
		config.SyncConfig{ThrottleThreshold: 200, ThrottleCooldown: 5 * time.Second},
		server.Client(),
		logging.Nop(),
		recorder,
	)
	return client, api, recorder
}

func TestGraphQLRequest_LowBudgetSleepsBeforeReturning(t *testing.T) {
	client, api, recorder := newTestClient(t, func(w http.ResponseWriter, _ capturedRequest) {
		writeJSON(w, `{"data":{"productByHandle":null},"extensions":{"cost":{"throttleStatus":{"maximumAvailable":1000,"currentlyAvailable":150,"restoreRate":50}}}}`)
	})

	snapshot, err := client.ProductByHandle(context.Background(), "tee")
	require.NoError(t, err)
	assert.Empty(t, snapshot.ID)
	assert.Equal(t, []time.Duration{5 * time.Second}, recorder.Sleeps())

	requests := api.Requests()
	require.Len(t, requests, 1)
	assert.Equal(t, "/admin/api/2024-10/graphql.json", requests[0].Path)
	assert.Equal(t, "shpat_test", requests[0].Token)
	assert.Equal(t, "tee", requests[0].Variables["handle"])
}

func TestGraphQLRequest_HealthyBudgetDoesNotSleep(t *testing.T) {
	bodies := []string{
		`{"data":{"productByHandle":null},"extensions":{"cost":{"throttleStatus":{"currentlyAvailable":250}}}}`,
		`{"data":{"productByHandle":null},"extensions":{"cost":{"actualQueryCost":4}}}`,
		`{"data":{"productByHandle":null}}`,
	}
	for _, body := range bodies {
		client, _, recorder := newTestClient(t, func(w http.ResponseWriter, _ capturedRequest) {
			writeJSON(w, body)
		})

		_, err := client.ProductByHandle(context.Background(), "tee")
		require.NoError(t, err)
		assert.Empty(t, recorder.Sleeps(), body)
	}
}

func TestGraphQLRequest_BadStatusIsTransportFailure(t *testing.T) {
	client, api, recorder := newTestClient(t, func(w http.ResponseWriter, _ capturedRequest) {
		http.Error(w, "upstream down", http.StatusBadGateway)
	})

	_, err := client.ProductByHandle(context.Background(), "tee")
	require.Error(t, err)

	var transport *TransportError
	require.ErrorAs(t, err, &transport)
	assert.Equal(t, http.StatusBadGateway, transport.StatusCode)
	assert.Contains(t, transport.Body, "upstream down")
	assert.True(t, IsFailure(err))
	assert.Len(t, api.Requests(), 1, "failures are not retried")
	assert.Empty(t, recorder.Sleeps())
}

func TestGraphQLRequest_InvalidJSONIsTransportFailure(t *testing.T) {
	client, _, _ := newTestClient(t, func(w http.ResponseWriter, _ capturedRequest) {
		writeJSON(w, `<html>maintenance</html>`)
	})

	_, err := client.ProductByHandle(context.Background(), "tee")

	var transport *TransportError
	require.ErrorAs(t, err, &transport)
	assert.True(t, IsFailure(err))
}

func TestGraphQLRequest_ErrorsListIsProtocolFailure(t *testing.T) {
	client, _, recorder := newTestClient(t, func(w http.ResponseWriter, _ capturedRequest) {
		writeJSON(w, `{"errors":[{"message":"Throttled","extensions":{"code":"THROTTLED"}}],"extensions":{"cost":{"throttleStatus":{"currentlyAvailable":0}}}}`)
	})

	_, err := client.ProductByHandle(context.Background(), "tee")

	var protocol *ProtocolError
	require.ErrorAs(t, err, &protocol)
	assert.True(t, protocol.Throttled())
	assert.True(t, IsFailure(err))
	assert.False(t, IsUserError(err))
	assert.Empty(t, recorder.Sleeps(), "cooldown only follows successful calls")
}

func TestGraphQLRequest_ErrorsStringIsProtocolFailure(t *testing.T) {
	client, _, _ := newTestClient(t, func(w http.ResponseWriter, _ capturedRequest) {
		writeJSON(w, `{"errors":"[API] Invalid API key or access token"}`)
	})

	_, err := client.ProductByHandle(context.Background(), "tee")

	var protocol *ProtocolError
	require.ErrorAs(t, err, &protocol)
	assert.Contains(t, err.Error(), "Invalid API key")
}

func TestCreateProduct_UserErrors(t *testing.T) {
	client, _, _ := newTestClient(t, func(w http.ResponseWriter, _ capturedRequest) {
		writeJSON(w, `{"data":{"productCreate":{"product":null,"userErrors":[{"field":["handle"],"message":"Handle has already been taken"}]}}}`)
	})

	_, err := client.CreateProduct(context.Background(), model.ProductInput{Handle: "tee", Title: "Tee"})
	require.Error(t, err)

	var userErrs *UserErrorsError
	require.ErrorAs(t, err, &userErrs)
	assert.Equal(t, "productCreate", userErrs.Action)
	assert.Equal(t, []UserErrorDetail{{Field: "handle", Message: "Handle has already been taken"}}, userErrs.Errors)
	assert.True(t, IsUserError(err))
	assert.False(t, IsFailure(err))
}

func TestCreateProduct_SendsProductFields(t *testing.T) {
	client, api, _ := newTestClient(t, func(w http.ResponseWriter, _ capturedRequest) {
		writeJSON(w, `{"data":{"productCreate":{"product":{"id":"gid://shopify/Product/1","title":"Tee"},"userErrors":[]}}}`)
	})

	id, err := client.CreateProduct(context.Background(), model.ProductInput{
		Handle:          "tee",
		Title:           "Tee",
		DescriptionHTML: "<p>Soft</p>",
		Vendor:          "Acme",
		ProductType:     "Shirts",
		Tags:            []string{"summer", "cotton"},
	})
	require.NoError(t, err)
	assert.Equal(t, "gid://shopify/Product/1", id)

	product := api.Requests()[0].Variables["product"].(map[string]any)
	assert.Equal(t, "tee", product["handle"])
	assert.Equal(t, "Tee", product["title"])
	assert.Equal(t, "<p>Soft</p>", product["descriptionHtml"])
	assert.Equal(t, "Acme", product["vendor"])
	assert.Equal(t, "Shirts", product["productType"])
	assert.Equal(t, []any{"summer", "cotton"}, product["tags"])
}

func TestUpdateProduct_NoProductReturnsEmptyID(t *testing.T) {
	client, api, _ := newTestClient(t, func(w http.ResponseWriter, _ capturedRequest) {
		writeJSON(w, `{"data":{"productUpdate":{"product":null,"userErrors":[]}}}`)
	})

	id, err := client.UpdateProduct(context.Background(), "gid://shopify/Product/1", model.ProductInput{Handle: "tee", Title: "Tee"})
	require.NoError(t, err)
	assert.Empty(t, id)

	product := api.Requests()[0].Variables["product"].(map[string]any)
	assert.Equal(t, "gid://shopify/Product/1", product["id"])
	assert.Equal(t, "tee", product["handle"])
}

func TestProductByHandle_MapsVariants(t *testing.T) {
	client, _, _ := newTestClient(t, func(w http.ResponseWriter, _ capturedRequest) {
		writeJSON(w, `{"data":{"productByHandle":{
			"id":"gid://shopify/Product/1",
			"options":[{"name":"Size"}],
			"variants":{"nodes":[
				{"id":"gid://shopify/ProductVariant/11","title":"Small","sku":" TEE-S ","price":"10.00","inventoryItem":{"id":"gid://shopify/InventoryItem/111"},"selectedOptions":[{"name":"Size","value":"Small"}]},
				{"id":"gid://shopify/ProductVariant/12","title":"Large","sku":"","price":"12.00","inventoryItem":null,"selectedOptions":[{"name":"Size","value":"Large"}]}
			]}
		}}}`)
	})

	snapshot, err := client.ProductByHandle(context.Background(), "tee")
	require.NoError(t, err)
	assert.Equal(t, "gid://shopify/Product/1", snapshot.ID)
	assert.Equal(t, []string{"Size"}, snapshot.OptionNames)
	require.Len(t, snapshot.Variants, 2)
	assert.Equal(t, model.Variant{
		ID:              "gid://shopify/ProductVariant/11",
		Title:           "Small",
		SKU:             " TEE-S ",
		Price:           "10.00",
		InventoryItemID: "gid://shopify/InventoryItem/111",
		OptionValue:     "Small",
		HasOptions:      true,
	}, snapshot.Variants[0])
	assert.Empty(t, snapshot.Variants[1].InventoryItemID)
}

func TestVariantsBulkUpdate_ScopesToProduct(t *testing.T) {
	client, api, _ := newTestClient(t, func(w http.ResponseWriter, _ capturedRequest) {
		writeJSON(w, `{"data":{"productVariantsBulkUpdate":{"productVariants":[{"id":"gid://shopify/ProductVariant/11","price":"10.00"}],"userErrors":[]}}}`)
	})

	updated, err := client.VariantsBulkUpdate(context.Background(), "gid://shopify/Product/1", []model.VariantPriceInput{
		{ID: "gid://shopify/ProductVariant/11", Price: "10.00"},
	})
	require.NoError(t, err)
	require.Len(t, updated, 1)
	assert.Equal(t, "gid://shopify/ProductVariant/11", updated[0].ID)

	vars := api.Requests()[0].Variables
	assert.Equal(t, "gid://shopify/Product/1", vars["productId"])
	assert.Equal(t, []any{map[string]any{"id": "gid://shopify/ProductVariant/11", "price": "10.00"}}, vars["variants"])
}

func TestVariantsBulkCreate_SendsOptionValue(t *testing.T) {
	client, api, _ := newTestClient(t, func(w http.ResponseWriter, _ capturedRequest) {
		writeJSON(w, `{"data":{"productVariantsBulkCreate":{"productVariants":[{"id":"gid://shopify/ProductVariant/13"}],"userErrors":[]}}}`)
	})

	created, err := client.VariantsBulkCreate(context.Background(), "gid://shopify/Product/1", []model.VariantPriceInput{
		{Price: "14.00", OptionName: "Size", OptionValue: "XL"},
	})
	require.NoError(t, err)
	require.Len(t, created, 1)

	variants := api.Requests()[0].Variables["variants"].([]any)
	assert.Equal(t, map[string]any{
		"price":        "14.00",
		"optionValues": []any{map[string]any{"name": "XL", "optionName": "Size"}},
	}, variants[0])
}

func TestVariantsBulk_EmptyBatchSkipsRequest(t *testing.T) {
	client, api, _ := newTestClient(t, func(w http.ResponseWriter, _ capturedRequest) {
		t.Error("no request expected")
	})

	updated, err := client.VariantsBulkUpdate(context.Background(), "gid://shopify/Product/1", nil)
	require.NoError(t, err)
	assert.Nil(t, updated)
	assert.Empty(t, api.Requests())
}

func TestUpdateInventoryItemSKU(t *testing.T) {
	client, api, _ := newTestClient(t, func(w http.ResponseWriter, _ capturedRequest) {
		writeJSON(w, `{"data":{"inventoryItemUpdate":{"inventoryItem":{"id":"gid://shopify/InventoryItem/111","sku":"TEE-S"},"userErrors":[]}}}`)
	})

	err := client.UpdateInventoryItemSKU(context.Background(), "gid://shopify/InventoryItem/111", "  TEE-S ")
	require.NoError(t, err)

	vars := api.Requests()[0].Variables
	assert.Equal(t, "gid://shopify/InventoryItem/111", vars["id"])
	assert.Equal(t, map[string]any{"sku": "TEE-S"}, vars["input"])
}

func TestVariantInventoryItemID_NotProvisioned(t *testing.T) {
	client, _, _ := newTestClient(t, func(w http.ResponseWriter, _ capturedRequest) {
		writeJSON(w, `{"data":{"productVariant":{"id":"gid://shopify/ProductVariant/11","inventoryItem":null}}}`)
	})

	id, err := client.VariantInventoryItemID(context.Background(), "gid://shopify/ProductVariant/11")
	require.NoError(t, err)
	assert.Empty(t, id)
}

func TestCreateImageFile_SendsDataURL(t *testing.T) {
	client, api, _ := newTestClient(t, func(w http.ResponseWriter, _ capturedRequest) {
		writeJSON(w, `{"data":{"fileCreate":{"files":[{"id":"gid://shopify/MediaImage/5","fileStatus":"UPLOADED","image":{"id":"gid://shopify/ImageSource/5","url":"https://cdn.shopify.com/b.png"}}],"userErrors":[]}}}`)
	})

	url, err := client.CreateImageFile(context.Background(), FileUpload{Filename: "b.png", MimeType: "image/png", Data: []byte("png-bytes")})
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.shopify.com/b.png", url)

	files := api.Requests()[0].Variables["files"].([]any)
	file := files[0].(map[string]any)
	assert.Equal(t, "b.png", file["filename"])
	assert.Equal(t, "data:image/png;base64,"+base64.StdEncoding.EncodeToString([]byte("png-bytes")), file["originalSource"])
}

func TestCreateImageFile_WithoutHostedURLFails(t *testing.T) {
	client, _, _ := newTestClient(t, func(w http.ResponseWriter, _ capturedRequest) {
		writeJSON(w, `{"data":{"fileCreate":{"files":[{"id":"gid://shopify/MediaImage/5","fileStatus":"UPLOADED"}],"userErrors":[]}}}`)
	})

	_, err := client.CreateImageFile(context.Background(), FileUpload{Filename: "b.png", MimeType: "image/png", Data: []byte("x")})
	assert.Error(t, err)
}

func TestAttachProductImages_OneCall(t *testing.T) {
	client, api, _ := newTestClient(t, func(w http.ResponseWriter, _ capturedRequest) {
		writeJSON(w, `{"data":{"productUpdate":{"product":{"id":"gid://shopify/Product/1","media":{"nodes":[]}},"userErrors":[]}}}`)
	})

	err := client.AttachProductImages(context.Background(), "gid://shopify/Product/1", []string{"https://x/a.jpg", "https://cdn.shopify.com/b.png"})
	require.NoError(t, err)

	requests := api.Requests()
	require.Len(t, requests, 1)
	media := requests[0].Variables["media"].([]any)
	require.Len(t, media, 2)
	assert.Equal(t, map[string]any{"originalSource": "https://x/a.jpg", "mediaContentType": "IMAGE"}, media[0])
}

func TestSetProductMetafield_DefaultsType(t *testing.T) {
	client, api, _ := newTestClient(t, func(w http.ResponseWriter, _ capturedRequest) {
		writeJSON(w, `{"data":{"metafieldsSet":{"metafields":[{"id":"gid://shopify/Metafield/1","namespace":"custom","key":"brand"}],"userErrors":[]}}}`)
	})

	err := client.SetProductMetafield(context.Background(), "gid://shopify/Product/1", model.Metafield{Namespace: "custom", Key: "brand", Value: "Acme"})
	require.NoError(t, err)

	metafields := api.Requests()[0].Variables["metafields"].([]any)
	assert.Equal(t, map[string]any{
		"ownerId":   "gid://shopify/Product/1",
		"namespace": "custom",
		"key":       "brand",
		"value":     "Acme",
		"type":      "single_line_text_field",
	}, metafields[0])
}

func TestPublications(t *testing.T) {
	client, api, _ := newTestClient(t, func(w http.ResponseWriter, _ capturedRequest) {
		writeJSON(w, `{"data":{"publications":{"nodes":[{"id":"gid://shopify/Publication/1","name":"Point of Sale"},{"id":"gid://shopify/Publication/2","name":"Online Store"}]}}}`)
	})

	publications, err := client.Publications(context.Background(), 10)
	require.NoError(t, err)
	assert.Equal(t, []model.Publication{
		{ID: "gid://shopify/Publication/1", Name: "Point of Sale"},
		{ID: "gid://shopify/Publication/2", Name: "Online Store"},
	}, publications)
	assert.EqualValues(t, 10, api.Requests()[0].Variables["first"])
}

func TestGraphQLRequest_CancelledContext(t *testing.T) {
	client, _, _ := newTestClient(t, func(w http.ResponseWriter, _ capturedRequest) {
		writeJSON(w, `{"data":{"productByHandle":null}}`)
	})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := client.ProductByHandle(ctx, "tee")
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled))
	assert.True(t, IsFailure(err))
}
