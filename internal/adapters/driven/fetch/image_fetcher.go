// Package fetch downloads external images for mirroring.
package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/statichive/statichive-core/internal/core/ports/driven"
)

// Verify interface compliance
var _ driven.ImageFetcher = (*ImageFetcher)(nil)

// maxImageBytes caps a single mirrored download.
const maxImageBytes = 32 << 20 // 32 MiB

// ImageFetcher fetches image bytes over HTTP, following redirects
// (the default client policy, up to 10 hops).
type ImageFetcher struct {
	httpClient *http.Client
}

// NewImageFetcher creates an ImageFetcher with the given per-request
// timeout (default: 30s).
func NewImageFetcher(timeout time.Duration) *ImageFetcher {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &ImageFetcher{
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Fetch downloads the resource at url.
func (f *ImageFetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch %s: status %d", url, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxImageBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", url, err)
	}
	if len(body) > maxImageBytes {
		return nil, fmt.Errorf("fetch %s: response exceeds %d bytes", url, maxImageBytes)
	}
	return body, nil
}
