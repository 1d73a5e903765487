package publisher

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"importer/internal/httpx"
	"importer/internal/logger"
)

// Client talks to the Shopify Admin GraphQL API for one shop.
type Client struct {
	shopDomain  string
	accessToken string
	apiVersion  string
	endpoint    string
	httpClient  *http.Client
	logger      *logger.Logger
	// locationID caches the shop's primary location once resolved.
	locationID string
}

func NewClient(shopDomain, accessToken, apiVersion string, log *logger.Logger) *Client {
	if !strings.Contains(shopDomain, ".") {
		shopDomain += ".myshopify.com"
	}
	return &Client{
		shopDomain:  shopDomain,
		accessToken: accessToken,
		apiVersion:  apiVersion,
		httpClient:  httpx.NewClient(90 * time.Second),
		logger:      log,
	}
}

// SetEndpoint overrides the GraphQL URL, used by tests.
func (c *Client) SetEndpoint(endpoint string) { c.endpoint = endpoint }

func (c *Client) graphqlURL() string {
	if c.endpoint != "" {
		return c.endpoint
	}
	return fmt.Sprintf("https://%s/admin/api/%s/graphql.json", c.shopDomain, c.apiVersion)
}

type graphqlRequest struct {
	Query     string                 `json:"query"`
	Variables map[string]interface{} `json:"variables,omitempty"`
}

type graphqlResponse struct {
	Data   map[string]interface{} `json:"data"`
	Errors []struct {
		Message string `json:"message"`
	} `json:"errors,omitempty"`
}

// UserError is a field-level error the API reports alongside a 200 response.
// These are failures, not exceptions: the call succeeded, the mutation did
// not.
type UserError struct {
	Field   []string `json:"field"`
	Message string   `json:"message"`
}

func formatUserErrors(errs []UserError) string {
	msgs := make([]string, len(errs))
	for i, e := range errs {
		if len(e.Field) > 0 {
			msgs[i] = strings.Join(e.Field, ".") + ": " + e.Message
		} else {
			msgs[i] = e.Message
		}
	}
	return strings.Join(msgs, "; ")
}

// execute runs one GraphQL request, retrying on 429 (honoring Retry-After)
// and server errors. Other 4xx responses and GraphQL-level errors do not
// retry.
func (c *Client) execute(ctx context.Context, query string, variables map[string]interface{}) (map[string]interface{}, error) {
	payload, err := json.Marshal(graphqlRequest{Query: query, Variables: variables})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	const maxRetries = 4
	var lastErr error

	for attempt := 1; attempt <= maxRetries; attempt++ {
		if attempt > 1 {
			backoff := time.Duration(math.Pow(2, float64(attempt-2))) * time.Second
			c.logger.Debug("Retrying catalog request (attempt %d/%d) after %v", attempt, maxRetries, backoff)
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.graphqlURL(), bytes.NewReader(payload))
		if err != nil {
			return nil, fmt.Errorf("failed to create request: %w", err)
		}
		req.Header.Set("X-Shopify-Access-Token", c.accessToken)
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Accept", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			lastErr = fmt.Errorf("failed to make request: %w", err)
			continue
		}

		body, readErr := io.ReadAll(resp.Body)
		resp.Body.Close()
		if readErr != nil {
			lastErr = fmt.Errorf("failed to read response: %w", readErr)
			continue
		}

		if resp.StatusCode == http.StatusTooManyRequests {
			wait := 2 * time.Second
			if retryAfter := resp.Header.Get("Retry-After"); retryAfter != "" {
				if seconds, err := strconv.ParseFloat(retryAfter, 64); err == nil && seconds > 0 {
					wait = time.Duration(seconds * float64(time.Second))
				}
			}
			c.logger.Warn("Catalog API rate limited, waiting %v", wait)
			lastErr = fmt.Errorf("catalog API rate limited (429)")
			select {
			case <-time.After(wait):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
			continue
		}
		if resp.StatusCode >= 500 {
			lastErr = fmt.Errorf("catalog API server error: %d", resp.StatusCode)
			continue
		}
		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("catalog API request failed: %d - %s", resp.StatusCode, string(body))
		}

		var graphqlResp graphqlResponse
		if err := json.Unmarshal(body, &graphqlResp); err != nil {
			return nil, fmt.Errorf("failed to decode response: %w", err)
		}
		if len(graphqlResp.Errors) > 0 {
			msgs := make([]string, len(graphqlResp.Errors))
			for i, e := range graphqlResp.Errors {
				msgs[i] = e.Message
			}
			return nil, fmt.Errorf("catalog API errors: %s", strings.Join(msgs, "; "))
		}
		if graphqlResp.Data == nil {
			return map[string]interface{}{}, nil
		}
		return graphqlResp.Data, nil
	}

	return nil, fmt.Errorf("catalog request failed after %d attempts: %w", maxRetries, lastErr)
}

// dig walks a nested map of decoded JSON, returning nil when any step is
// missing or not a map.
func dig(data map[string]interface{}, path ...string) interface{} {
	var current interface{} = data
	for _, key := range path {
		m, ok := current.(map[string]interface{})
		if !ok {
			return nil
		}
		current = m[key]
	}
	return current
}

func digString(data map[string]interface{}, path ...string) string {
	if s, ok := dig(data, path...).(string); ok {
		return s
	}
	return ""
}

// decodeUserErrors extracts a userErrors list from a mutation payload.
func decodeUserErrors(data map[string]interface{}, path ...string) []UserError {
	raw, ok := dig(data, path...).([]interface{})
	if !ok {
		return nil
	}
	var errs []UserError
	for _, item := range raw {
		m, ok := item.(map[string]interface{})
		if !ok {
			continue
		}
		ue := UserError{}
		if msg, ok := m["message"].(string); ok {
			ue.Message = msg
		}
		if fields, ok := m["field"].([]interface{}); ok {
			for _, f := range fields {
				if s, ok := f.(string); ok {
					ue.Field = append(ue.Field, s)
				}
			}
		}
		errs = append(errs, ue)
	}
	return errs
}
