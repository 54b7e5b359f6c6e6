// Package extract discovers externally-hosted image references in
// rendered markup and rewrites them to local content-addressed paths.
package extract

import (
	"encoding/hex"
	"net/url"
	"regexp"
	"strings"

	"golang.org/x/crypto/blake2b"

	"github.com/statichive/statichive-core/internal/core/domain"
)

// srcAttrPattern matches img source attributes in the renderer's
// output. Attribute values are HTML-escaped, so the value never
// contains a raw double quote.
var srcAttrPattern = regexp.MustCompile(` src="([^"]+)"`)

// mirrorExtensions is the allow-list of mirrored file types, keyed by
// normalized URL suffix.
var mirrorExtensions = map[string]string{
	".png":  "png",
	".jpg":  "jpg",
	".jpeg": "jpg",
	".webp": "webp",
}

// Result holds the rewritten markup and the discovered mapping from
// content-addressed filename to original source URL. The map seeds the
// image mirror queue.
type Result struct {
	Markup string
	Images map[string]string
}

// Rewrite scans rendered markup for absolute image source URLs,
// rewrites each mirrorable one to a local path under the document, and
// collects the filename to source-URL map. Values that are not valid
// absolute URLs or fall outside the extension allow-list are left
// untouched, which also makes the pass idempotent: already-local paths
// never re-hash.
func Rewrite(documentID, markup string) *Result {
	images := make(map[string]string)

	rewritten := srcAttrPattern.ReplaceAllStringFunc(markup, func(match string) string {
		escaped := srcAttrPattern.FindStringSubmatch(match)[1]
		source := strings.ReplaceAll(escaped, "&amp;", "&")

		parsed, err := url.Parse(source)
		if err != nil || !parsed.IsAbs() || parsed.Host == "" {
			return match
		}

		key := strings.ToLower(parsed.Scheme + "://" + parsed.Host + parsed.Path)
		ext, ok := extensionOf(key)
		if !ok {
			return match
		}

		filename := ContentHash([]byte(key)) + "." + ext
		if _, seen := images[filename]; !seen {
			images[filename] = source
		}
		return ` src="` + domain.LocalImageURL(documentID, filename) + `"`
	})

	return &Result{Markup: rewritten, Images: images}
}

// ContentHash returns the blake2b-256 hex digest of data.
func ContentHash(data []byte) string {
	sum := blake2b.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// ContentTypeFor maps a mirrored filename to its HTTP content type.
func ContentTypeFor(filename string) string {
	switch {
	case strings.HasSuffix(filename, ".png"):
		return "image/png"
	case strings.HasSuffix(filename, ".jpg"):
		return "image/jpeg"
	case strings.HasSuffix(filename, ".webp"):
		return "image/webp"
	default:
		return "application/octet-stream"
	}
}

func extensionOf(key string) (string, bool) {
	for suffix, ext := range mirrorExtensions {
		if strings.HasSuffix(key, suffix) {
			return ext, true
		}
	}
	return "", false
}
