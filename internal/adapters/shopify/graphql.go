package shopify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"shopify-catalog-sync/internal/adapters/shopify/dto"
)

type graphQLRequest struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables,omitempty"`
}

func (c *Client) endpoint() (string, error) {
	domain := strings.TrimSpace(c.config.ShopDomain)
	if domain == "" {
		return "", errors.New("shopify shop domain is empty")
	}
	if !strings.HasPrefix(domain, "http://") && !strings.HasPrefix(domain, "https://") {
		domain = "https://" + domain
	}
	domain = strings.TrimRight(domain, "/")
	if c.config.APIVer == "" {
		return "", errors.New("shopify api version is empty")
	}
	return domain + "/admin/api/" + c.config.APIVer + "/graphql.json", nil
}

func (c *Client) shopifyAPIRequest(ctx context.Context, method string, endpoint string, body io.Reader) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return nil, &TransportError{Err: err}
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Shopify-Access-Token", c.config.Token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &TransportError{Err: err}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &TransportError{StatusCode: resp.StatusCode, Status: resp.Status, Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, newHTTPStatusError(resp.StatusCode, resp.Status, respBody)
	}

	return respBody, nil
}

// graphqlRequest sends one operation and decodes its data into out.
// Transport problems yield *TransportError and a top-level errors list
// yields *ProtocolError; neither is retried. After a successful call a low
// remaining budget puts the caller to sleep for the cooldown before the
// payload is handed back.
func (c *Client) graphqlRequest(ctx context.Context, query string, variables map[string]any, out any) error {
	endpoint, err := c.endpoint()
	if err != nil {
		return err
	}

	payload := graphQLRequest{
		Query:     strings.TrimSpace(query),
		Variables: variables,
	}
	bodyBytes, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	raw, err := c.shopifyAPIRequest(ctx, http.MethodPost, endpoint, bytes.NewReader(bodyBytes))
	if err != nil {
		return err
	}

	var resp dto.GraphQLResponse[json.RawMessage]
	if err := json.Unmarshal(raw, &resp); err != nil {
		return &TransportError{Status: "invalid json", Body: strings.TrimSpace(string(raw)), Err: err}
	}
	if errs := dto.ParseGraphQLErrors(resp.Errors); len(errs) > 0 {
		return &ProtocolError{Errors: errs}
	}

	if err := c.cooldown(ctx, resp.Extensions); err != nil {
		return err
	}

	if out == nil {
		return nil
	}
	if len(resp.Data) == 0 || string(resp.Data) == "null" {
		return &ProtocolError{Errors: []dto.GraphQLError{{Message: "response missing data"}}}
	}
	if err := json.Unmarshal(resp.Data, out); err != nil {
		return &TransportError{Status: "invalid data", Err: err}
	}
	return nil
}

func (c *Client) cooldown(ctx context.Context, ext *dto.GraphQLExtensions) error {
	available := ext.AvailableBudget()
	if available >= float64(c.pacing.ThrottleThreshold) {
		return nil
	}
	c.logger.LogWarning(fmt.Sprintf("Rate limit low available=%.0f threshold=%d, sleeping %s", available, c.pacing.ThrottleThreshold, c.pacing.ThrottleCooldown))
	return c.sleeper.Sleep(ctx, c.pacing.ThrottleCooldown)
}
