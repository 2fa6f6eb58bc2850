// Package draftgen is the thin client for the upstream draft-generation API.
// Each fetched draft text feeds the session's one-way import trigger.
package draftgen

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"
)

const defaultRequestTimeout = 60 * time.Second

var errMissingBaseURL = errors.New("draftgen: base url is required")

// ClientConfig describes the upstream drafting API client.
type ClientConfig struct {
	BaseURL string
	Client  *http.Client
}

// Client fetches generated draft text for a case.
type Client struct {
	baseURL string
	client  *http.Client
}

// NewClient validates the configuration and returns a Client.
func NewClient(cfg ClientConfig) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, errMissingBaseURL
	}
	client := cfg.Client
	if client == nil {
		client = &http.Client{Timeout: defaultRequestTimeout}
	}
	return &Client{
		baseURL: cfg.BaseURL,
		client:  client,
	}, nil
}

type draftResponse struct {
	DraftText string `json:"draft_text"`
}

// FetchDraft returns the current generated draft text for the case.
func (c *Client) FetchDraft(ctx context.Context, caseID string) (string, error) {
	url := fmt.Sprintf("%s/cases/%s/draft", c.baseURL, caseID)
	request, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("draftgen: build request: %w", err)
	}

	response, err := c.client.Do(request)
	if err != nil {
		return "", fmt.Errorf("draftgen: call service: %w", err)
	}
	defer response.Body.Close()

	if response.StatusCode != http.StatusOK {
		return "", fmt.Errorf("draftgen: service returned status %d", response.StatusCode)
	}

	var decoded draftResponse
	if err := json.NewDecoder(response.Body).Decode(&decoded); err != nil {
		return "", fmt.Errorf("draftgen: decode response: %w", err)
	}
	return decoded.DraftText, nil
}
