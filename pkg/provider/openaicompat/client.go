package openaicompat

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/rhuss/lorasampler/pkg/api"
	"github.com/rhuss/lorasampler/pkg/debug"
)

// DefaultTimeout bounds a single HTTP request when no timeout is configured.
const DefaultTimeout = 120 * time.Second

// Client performs HTTP requests against an OpenAI-compatible Chat Completions
// backend. The base URL is the API root that "/chat/completions" and
// "/models" are appended to, as with the official OpenAI SDKs.
//
// A Client is safe for concurrent use.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
}

// ClientOption customizes a Client.
type ClientOption func(*Client)

// WithHTTPClient replaces the underlying HTTP client. The timeout argument
// of NewClient is ignored in that case.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// NewClient creates a new Client for an OpenAI-compatible backend.
func NewClient(baseURL, apiKey string, timeout time.Duration, opts ...ClientOption) *Client {
	// Normalize: remove trailing slash from base URL.
	baseURL = strings.TrimRight(baseURL, "/")

	if timeout == 0 {
		timeout = DefaultTimeout
	}

	c := &Client{
		httpClient: &http.Client{
			Timeout: timeout,
		},
		baseURL: baseURL,
		apiKey:  apiKey,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the normalized base URL.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Complete performs one non-streaming request against the Chat Completions
// endpoint. All failures are returned as *api.CallError. A response without
// choices is reported as malformed.
func (c *Client) Complete(ctx context.Context, req *ChatCompletionRequest) (*ChatCompletionResponse, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, &api.CallError{
			Kind:    api.ErrorKindInvalidRequest,
			Message: fmt.Sprintf("failed to marshal request: %s", err.Error()),
			Err:     err,
		}
	}

	url := c.baseURL + "/chat/completions"
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, &api.CallError{
			Kind:    api.ErrorKindInvalidRequest,
			Message: fmt.Sprintf("failed to create HTTP request: %s", err.Error()),
			Err:     err,
		}
	}

	httpReq.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	debug.Log(debug.Providers, "chat completion request",
		"url", url,
		"model", req.Model,
		"messages", len(req.Messages),
	)
	debug.Payload(debug.Providers, "POST "+url, body)

	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, MapNetworkError(err)
	}
	defer httpResp.Body.Close()

	if httpResp.StatusCode < 200 || httpResp.StatusCode >= 300 {
		return nil, MapHTTPError(httpResp)
	}

	var chatResp ChatCompletionResponse
	if err := json.NewDecoder(httpResp.Body).Decode(&chatResp); err != nil {
		return nil, &api.CallError{
			Kind:       api.ErrorKindMalformed,
			StatusCode: httpResp.StatusCode,
			Message:    fmt.Sprintf("failed to parse backend response: %s", err.Error()),
			Err:        err,
		}
	}

	if len(chatResp.Choices) == 0 {
		return nil, &api.CallError{
			Kind:       api.ErrorKindMalformed,
			StatusCode: httpResp.StatusCode,
			Message:    "backend response contains no choices",
		}
	}

	debug.Log(debug.Providers, "chat completion response",
		"id", chatResp.ID,
		"finish_reason", chatResp.Choices[0].FinishReason,
		"reply", debug.Preview(chatResp.FirstContent()),
	)

	return &chatResp, nil
}

// ListModels returns available models from the backend by querying
// the /models endpoint.
func (c *Client) ListModels(ctx context.Context) ([]ChatModel, error) {
	url := c.baseURL + "/models"
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, &api.CallError{
			Kind:    api.ErrorKindInvalidRequest,
			Message: fmt.Sprintf("failed to create HTTP request: %s", err.Error()),
			Err:     err,
		}
	}

	if c.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, MapNetworkError(err)
	}
	defer httpResp.Body.Close()

	if httpResp.StatusCode < 200 || httpResp.StatusCode >= 300 {
		return nil, MapHTTPError(httpResp)
	}

	var modelsResp ChatModelsResponse
	if err := json.NewDecoder(httpResp.Body).Decode(&modelsResp); err != nil {
		return nil, &api.CallError{
			Kind:    api.ErrorKindMalformed,
			Message: fmt.Sprintf("failed to parse models response: %s", err.Error()),
			Err:     err,
		}
	}

	return modelsResp.Data, nil
}

// Close releases client resources.
func (c *Client) Close() error {
	c.httpClient.CloseIdleConnections()
	return nil
}
