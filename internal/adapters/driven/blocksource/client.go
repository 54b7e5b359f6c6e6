// Package blocksource is the HTTP client for the external content
// source that serves raw block trees.
package blocksource

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/statichive/statichive-core/internal/core/domain"
	"github.com/statichive/statichive-core/internal/core/ports/driven"
)

// Verify interface compliance
var _ driven.SourceClient = (*Client)(nil)

// Client fetches block trees over HTTP. The source API is treated as a
// black box: one GET per document, JSON response decoded into the
// domain tree, 5xx retried a bounded number of times.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	maxRetries int
}

// Config holds client configuration.
type Config struct {
	// BaseURL is the content source root, e.g. https://source.internal
	BaseURL string

	// APIKey, when set, is sent as a bearer token
	APIKey string

	// Timeout per request (default: 30s)
	Timeout time.Duration
}

// NewClient creates a content source client.
func NewClient(cfg Config) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    strings.TrimSuffix(cfg.BaseURL, "/"),
		apiKey:     cfg.APIKey,
		maxRetries: 3,
	}
}

// treeResponse is the source API wire format.
type treeResponse struct {
	RootID string                   `json:"root_id"`
	Blocks map[string]*domain.Block `json:"blocks"`
}

// FetchTree retrieves the full block tree for a document.
func (c *Client) FetchTree(ctx context.Context, documentID string) (*domain.BlockTree, error) {
	path := fmt.Sprintf("/v1/documents/%s", url.PathEscape(documentID))

	resp, err := c.doRequest(ctx, path)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, fmt.Errorf("document %s: %w", documentID, domain.ErrNotFound)
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("source returned status %d for %s", resp.StatusCode, documentID)
	}

	var tree treeResponse
	if err := json.NewDecoder(resp.Body).Decode(&tree); err != nil {
		return nil, fmt.Errorf("decode block tree: %w", err)
	}
	if tree.RootID == "" || tree.Blocks == nil {
		return nil, fmt.Errorf("source returned malformed tree for %s", documentID)
	}

	return &domain.BlockTree{RootID: tree.RootID, Blocks: tree.Blocks}, nil
}

func (c *Client) doRequest(ctx context.Context, path string) (*http.Response, error) {
	var resp *http.Response
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
		if err != nil {
			return nil, fmt.Errorf("create request: %w", err)
		}
		req.Header.Set("Accept", "application/json")
		if c.apiKey != "" {
			req.Header.Set("Authorization", "Bearer "+c.apiKey)
		}

		resp, err = c.httpClient.Do(req)
		if err != nil {
			return nil, fmt.Errorf("do request: %w", err)
		}

		// Success or non-retryable error
		if resp.StatusCode < 500 {
			break
		}

		resp.Body.Close()
		if attempt < c.maxRetries {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(time.Duration(attempt+1) * 500 * time.Millisecond):
			}
		}
	}
	return resp, nil
}
