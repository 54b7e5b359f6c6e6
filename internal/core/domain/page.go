package domain

import (
	"fmt"
	"sort"
	"time"
)

// PreparedPage is the durable result of one preparation pass.
// Once written, RenderedPath always resolves to a blob in storage;
// absence of the record means "never prepared" or "invalidated".
type PreparedPage struct {
	DocumentID   string    `json:"document_id"`
	RenderedPath string    `json:"rendered_path"`
	RawPath      string    `json:"raw_path,omitempty"`
	Title        string    `json:"title,omitempty"`
	PreparedAt   time.Time `json:"prepared_at"`
}

// MirrorStatus describes the state of one mirrored image.
type MirrorStatus string

const (
	// MirrorAbsent means no queue entry exists for the filename.
	MirrorAbsent MirrorStatus = "absent"

	// MirrorPending means the entry still carries its source URL and
	// has not been drained yet.
	MirrorPending MirrorStatus = "pending"

	// MirrorResolved means the entry carries the resolved sentinel;
	// the bytes are expected in blob storage.
	MirrorResolved MirrorStatus = "resolved"
)

// ImageQueue is the persisted map of images awaiting mirroring for one
// document. Keys are content-addressed filenames; a non-empty value is
// the pending source URL, the empty string is the resolved sentinel.
//
// The map is always read, modified and written back as a whole under
// the document's serialization; Version increments on every save so a
// stale writer can be detected by the store.
type ImageQueue struct {
	Version int               `json:"version"`
	Entries map[string]string `json:"entries"`
}

// NewImageQueue returns an empty queue.
func NewImageQueue() *ImageQueue {
	return &ImageQueue{Entries: make(map[string]string)}
}

// Merge folds newly discovered entries into the queue. An entry that is
// already resolved is never downgraded back to pending, and an existing
// pending URL is not replaced mid-flight.
func (q *ImageQueue) Merge(entries map[string]string) {
	if q.Entries == nil {
		q.Entries = make(map[string]string)
	}
	for filename, src := range entries {
		if _, ok := q.Entries[filename]; ok {
			continue
		}
		q.Entries[filename] = src
	}
}

// MarkResolved writes the resolved sentinel for a filename.
func (q *ImageQueue) MarkResolved(filename string) {
	if q.Entries == nil {
		return
	}
	if _, ok := q.Entries[filename]; ok {
		q.Entries[filename] = ""
	}
}

// NextPending returns the lexicographically smallest pending entry.
// Deterministic ordering keeps drain behaviour reproducible.
func (q *ImageQueue) NextPending() (filename, source string, ok bool) {
	keys := make([]string, 0, len(q.Entries))
	for k, v := range q.Entries {
		if v != "" {
			keys = append(keys, k)
		}
	}
	if len(keys) == 0 {
		return "", "", false
	}
	sort.Strings(keys)
	return keys[0], q.Entries[keys[0]], true
}

// HasPending reports whether any entry still carries a source URL.
func (q *ImageQueue) HasPending() bool {
	for _, v := range q.Entries {
		if v != "" {
			return true
		}
	}
	return false
}

// Status returns the mirror status for a filename.
func (q *ImageQueue) Status(filename string) MirrorStatus {
	if q == nil || q.Entries == nil {
		return MirrorAbsent
	}
	src, ok := q.Entries[filename]
	if !ok {
		return MirrorAbsent
	}
	if src == "" {
		return MirrorResolved
	}
	return MirrorPending
}

// Storage path layout. Paths are deterministic in the document ID so
// repeated writes of the same logical artifact are idempotent overwrites.

// RenderedBlobPath is the storage path for rendered markup.
func RenderedBlobPath(documentID, contentHash string) string {
	return fmt.Sprintf("page/%s/%s.html", documentID, contentHash)
}

// RawBlobPath is the storage path for the raw block-tree snapshot.
func RawBlobPath(documentID, contentHash string) string {
	return fmt.Sprintf("page/%s/%s.json", documentID, contentHash)
}

// ImageBlobPath is the storage path for a mirrored image.
func ImageBlobPath(documentID, filename string) string {
	return fmt.Sprintf("image/%s/%s", documentID, filename)
}

// LocalImageURL is the edge-facing URL a rewritten image reference
// points at.
func LocalImageURL(documentID, filename string) string {
	return fmt.Sprintf("/image/%s/%s", documentID, filename)
}
