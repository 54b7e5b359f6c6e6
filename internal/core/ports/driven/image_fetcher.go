package driven

import "context"

// ImageFetcher downloads external image bytes. Implementations follow
// redirects and bound the response size.
type ImageFetcher interface {
	// Fetch downloads the resource at url
	Fetch(ctx context.Context, url string) ([]byte, error)
}
