package ai

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"importer/internal/httpx"
	"importer/internal/logger"
)

const (
	defaultBaseURL = "https://generativelanguage.googleapis.com/v1beta"
	textModel      = "gemini-2.0-flash"
	imageModel     = "gemini-2.0-flash-exp-image-generation"
)

// InlineImage is an image carried inline in an AI request or response.
type InlineImage struct {
	MIMEType string
	Data     []byte
}

// Client calls the generative text/image service. Calls are throttled
// proactively so one busy run does not trip the service's rate limit on the
// next call.
type Client struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
	retry      RetryPolicy
	logger     *logger.Logger
}

func NewClient(apiKey string, log *logger.Logger) *Client {
	return &Client{
		apiKey:     apiKey,
		baseURL:    defaultBaseURL,
		httpClient: httpx.NewClient(60 * time.Second),
		limiter:    rate.NewLimiter(rate.Every(1500*time.Millisecond), 1),
		retry:      DefaultRetryPolicy(),
		logger:     log,
	}
}

// SetBaseURL points the client at a different endpoint, used by tests.
func (c *Client) SetBaseURL(base string) { c.baseURL = base }

// Request/response shapes for the generateContent endpoint.

type generateRequest struct {
	Contents         []content         `json:"contents"`
	GenerationConfig *generationConfig `json:"generationConfig,omitempty"`
}

type content struct {
	Parts []part `json:"parts"`
}

type part struct {
	Text       string      `json:"text,omitempty"`
	InlineData *inlineData `json:"inlineData,omitempty"`
}

type inlineData struct {
	MIMEType string `json:"mimeType"`
	Data     string `json:"data"`
}

type generationConfig struct {
	ResponseModalities []string `json:"responseModalities,omitempty"`
}

type generateResponse struct {
	Candidates []struct {
		Content content `json:"content"`
	} `json:"candidates"`
}

// GenerateText sends a single prompt and returns the generated text.
func (c *Client) GenerateText(ctx context.Context, prompt string) (string, error) {
	request := generateRequest{
		Contents: []content{{Parts: []part{{Text: prompt}}}},
	}

	var resp generateResponse
	if err := c.call(ctx, textModel, request, &resp); err != nil {
		return "", err
	}

	for _, candidate := range resp.Candidates {
		for _, p := range candidate.Content.Parts {
			if p.Text != "" {
				return p.Text, nil
			}
		}
	}
	return "", fmt.Errorf("AI service returned no text")
}

// GenerateImage sends a prompt with an optional inline reference image and
// returns the generated image parts.
func (c *Client) GenerateImage(ctx context.Context, prompt string, reference *InlineImage) ([]InlineImage, error) {
	parts := []part{{Text: prompt}}
	if reference != nil {
		parts = append(parts, part{InlineData: &inlineData{
			MIMEType: reference.MIMEType,
			Data:     base64.StdEncoding.EncodeToString(reference.Data),
		}})
	}

	request := generateRequest{
		Contents:         []content{{Parts: parts}},
		GenerationConfig: &generationConfig{ResponseModalities: []string{"TEXT", "IMAGE"}},
	}

	var resp generateResponse
	if err := c.call(ctx, imageModel, request, &resp); err != nil {
		return nil, err
	}

	var images []InlineImage
	for _, candidate := range resp.Candidates {
		for _, p := range candidate.Content.Parts {
			if p.InlineData == nil {
				continue
			}
			data, err := base64.StdEncoding.DecodeString(p.InlineData.Data)
			if err != nil {
				return nil, fmt.Errorf("failed to decode image data: %w", err)
			}
			images = append(images, InlineImage{MIMEType: p.InlineData.MIMEType, Data: data})
		}
	}
	return images, nil
}

func (c *Client) call(ctx context.Context, model string, request generateRequest, dest *generateResponse) error {
	if c.apiKey == "" {
		return fmt.Errorf("AI service API key not configured")
	}

	payload, err := json.Marshal(request)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/models/%s:generateContent?key=%s", c.baseURL, model, c.apiKey)

	err = c.retry.Do(ctx, "AI "+model+" call", c.logger, func() error {
		if err := c.limiter.Wait(ctx); err != nil {
			return err
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
		if err != nil {
			return fmt.Errorf("failed to create request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return fmt.Errorf("failed to make request: %w", err)
		}
		defer resp.Body.Close()

		body, err := httpx.ReadBody(resp)
		if err != nil {
			return fmt.Errorf("failed to read response: %w", err)
		}

		if resp.StatusCode == http.StatusTooManyRequests {
			return ErrRateLimited
		}
		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("AI service error %d: %s", resp.StatusCode, truncate(string(body), 300))
		}
		return json.Unmarshal(body, dest)
	})
	return err
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
