package export

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"
)

const defaultRequestTimeout = 30 * time.Second

var errMissingBaseURL = errors.New("export: base url is required")

// HTTPExporterConfig describes an HTTP-backed exporter.
type HTTPExporterConfig struct {
	BaseURL string
	Client  *http.Client
}

// HTTPExporter posts conversion requests to the external export service.
type HTTPExporter struct {
	baseURL string
	client  *http.Client
}

// NewHTTPExporter validates the configuration and builds an HTTPExporter.
func NewHTTPExporter(cfg HTTPExporterConfig) (*HTTPExporter, error) {
	if cfg.BaseURL == "" {
		return nil, errMissingBaseURL
	}
	client := cfg.Client
	if client == nil {
		client = &http.Client{Timeout: defaultRequestTimeout}
	}
	return &HTTPExporter{
		baseURL: cfg.BaseURL,
		client:  client,
	}, nil
}

// Export posts the request and decodes the service's result envelope.
func (e *HTTPExporter) Export(ctx context.Context, request Request) (Result, error) {
	body, err := json.Marshal(request)
	if err != nil {
		return Result{}, fmt.Errorf("export: encode request: %w", err)
	}

	httpRequest, err := http.NewRequestWithContext(ctx, http.MethodPost, e.baseURL+"/convert", bytes.NewReader(body))
	if err != nil {
		return Result{}, fmt.Errorf("export: build request: %w", err)
	}
	httpRequest.Header.Set("Content-Type", "application/json")

	response, err := e.client.Do(httpRequest)
	if err != nil {
		return Result{}, fmt.Errorf("export: call service: %w", err)
	}
	defer response.Body.Close()

	if response.StatusCode != http.StatusOK {
		return Result{}, fmt.Errorf("export: service returned status %d", response.StatusCode)
	}

	var result Result
	if err := json.NewDecoder(response.Body).Decode(&result); err != nil {
		return Result{}, fmt.Errorf("export: decode result: %w", err)
	}
	return result, nil
}
