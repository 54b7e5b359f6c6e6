package services

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/statichive/statichive-core/internal/core/domain"
	"github.com/statichive/statichive-core/internal/core/ports/driven/mocks"
)

type pageFixture struct {
	source  *mocks.MockSourceClient
	state   *mocks.MockPageStateStore
	blobs   *mocks.MockBlobStore
	trigger *mocks.MockTriggerScheduler
}

func newPageFixture() *pageFixture {
	return &pageFixture{
		source:  mocks.NewMockSourceClient(),
		state:   mocks.NewMockPageStateStore(),
		blobs:   mocks.NewMockBlobStore(),
		trigger: mocks.NewMockTriggerScheduler(),
	}
}

func (f *pageFixture) service() *pageService {
	return NewPageService(PageServiceConfig{
		Source:  f.source,
		State:   f.state,
		Blobs:   f.blobs,
		Trigger: f.trigger,
	}).(*pageService)
}

func pageTree(docID string, children ...*domain.Block) *domain.BlockTree {
	root := &domain.Block{
		ID:   docID,
		Type: domain.BlockTypePage,
		Properties: &domain.BlockProperties{
			Title: []domain.DecoratedText{{Text: "Test Page"}},
		},
	}
	tree := &domain.BlockTree{
		RootID: docID,
		Blocks: map[string]*domain.Block{docID: root},
	}
	for _, child := range children {
		root.Children = append(root.Children, child.ID)
		tree.Blocks[child.ID] = child
	}
	return tree
}

func TestPageService_PrepareOrFetch_FirstCall(t *testing.T) {
	f := newPageFixture()
	f.source.SetTree("doc-1", pageTree("doc-1"))
	svc := f.service()

	page, err := svc.PrepareOrFetch(context.Background(), "doc-1", false)
	require.NoError(t, err)
	assert.Equal(t, "doc-1", page.DocumentID)
	assert.Equal(t, "Test Page", page.Title)
	assert.True(t, f.blobs.Has(page.RenderedPath), "rendered blob must exist before the record")

	// Second call serves the persisted record without another fetch.
	again, err := svc.PrepareOrFetch(context.Background(), "doc-1", false)
	require.NoError(t, err)
	assert.Equal(t, page.RenderedPath, again.RenderedPath)
	assert.Equal(t, int64(1), f.source.FetchCount())
}

// Two concurrent prepares for the same document run the preparation
// routine exactly once.
func TestPageService_PrepareOrFetch_SingleFlight(t *testing.T) {
	f := newPageFixture()
	f.source.SetTree("doc-1", pageTree("doc-1"))
	f.source.FetchStarted = make(chan struct{})
	f.source.FetchRelease = make(chan struct{})
	svc := f.service()

	var wg sync.WaitGroup
	results := make([]*domain.PreparedPage, 2)
	errs := make([]error, 2)

	wg.Add(1)
	go func() {
		defer wg.Done()
		results[0], errs[0] = svc.PrepareOrFetch(context.Background(), "doc-1", false)
	}()

	// Hold the first preparation at the source fetch, then start the
	// second caller so it queues behind the key lock.
	<-f.source.FetchStarted
	wg.Add(1)
	go func() {
		defer wg.Done()
		results[1], errs[1] = svc.PrepareOrFetch(context.Background(), "doc-1", false)
	}()
	time.Sleep(20 * time.Millisecond)
	close(f.source.FetchRelease)
	wg.Wait()

	require.NoError(t, errs[0])
	require.NoError(t, errs[1])
	assert.Equal(t, results[0].RenderedPath, results[1].RenderedPath)
	assert.Equal(t, int64(1), f.source.FetchCount(), "source fetch must run exactly once")
}

func TestPageService_PrepareOrFetch_Refresh(t *testing.T) {
	f := newPageFixture()
	f.source.SetTree("doc-1", pageTree("doc-1"))
	svc := f.service()

	_, err := svc.PrepareOrFetch(context.Background(), "doc-1", false)
	require.NoError(t, err)

	_, err = svc.PrepareOrFetch(context.Background(), "doc-1", true)
	require.NoError(t, err)

	assert.Equal(t, int64(2), f.source.FetchCount(), "refresh must re-invoke the source fetch")
	assert.Equal(t, 1, f.trigger.CancelCount("doc-1"), "refresh must cancel the pending trigger")
}

func TestPageService_PrepareOrFetch_RefreshCancelsOldTrigger(t *testing.T) {
	f := newPageFixture()
	img := &domain.Block{
		ID:         "img",
		Type:       domain.BlockTypeImage,
		Properties: &domain.BlockProperties{Source: "https://cdn.example/a.png"},
	}
	f.source.SetTree("doc-1", pageTree("doc-1", img))
	svc := f.service()

	_, err := svc.PrepareOrFetch(context.Background(), "doc-1", false)
	require.NoError(t, err)
	require.True(t, f.trigger.Pending("doc-1"))

	// Swap the source to a tree without images: after refresh the old
	// trigger must not still be pending for the stale queue.
	f.source.SetTree("doc-1", pageTree("doc-1"))
	_, err = svc.PrepareOrFetch(context.Background(), "doc-1", true)
	require.NoError(t, err)

	assert.False(t, f.trigger.Pending("doc-1"), "no orphaned trigger after refresh")
}

func TestPageService_PrepareOrFetch_SourceFailure(t *testing.T) {
	f := newPageFixture()
	f.source.SetError(errors.New("upstream down"))
	svc := f.service()

	_, err := svc.PrepareOrFetch(context.Background(), "doc-1", false)
	require.ErrorIs(t, err, domain.ErrSourceFetch)

	// No partial record may be written.
	_, err = f.state.GetPage(context.Background(), "doc-1")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestPageService_PrepareOrFetch_RenderFailureDegrades(t *testing.T) {
	f := newPageFixture()
	// A tree whose root is missing makes the renderer fail.
	f.source.SetTree("doc-1", &domain.BlockTree{RootID: "ghost", Blocks: map[string]*domain.Block{}})
	svc := f.service()

	page, err := svc.PrepareOrFetch(context.Background(), "doc-1", false)
	require.NoError(t, err, "render failure must not fail the preparation")

	data, _, err := f.blobs.Get(context.Background(), page.RenderedPath)
	require.NoError(t, err)
	assert.Equal(t, placeholderMarkup, string(data))
}

func TestPageService_PrepareOrFetch_StorageFailureNoRecord(t *testing.T) {
	f := newPageFixture()
	f.source.SetTree("doc-1", pageTree("doc-1"))
	f.blobs.PutErr = errors.New("disk full")
	svc := f.service()

	_, err := svc.PrepareOrFetch(context.Background(), "doc-1", false)
	require.Error(t, err)

	_, err = f.state.GetPage(context.Background(), "doc-1")
	assert.ErrorIs(t, err, domain.ErrNotFound, "record must not reference unwritten bytes")
}

func TestPageService_PrepareOrFetch_SeedsImageQueue(t *testing.T) {
	f := newPageFixture()
	img := &domain.Block{
		ID:         "img",
		Type:       domain.BlockTypeImage,
		Properties: &domain.BlockProperties{Source: "https://cdn.example/a/B.PNG?x=1"},
	}
	f.source.SetTree("doc-1", pageTree("doc-1", img))
	svc := f.service()

	page, err := svc.PrepareOrFetch(context.Background(), "doc-1", false)
	require.NoError(t, err)

	data, _, err := f.blobs.Get(context.Background(), page.RenderedPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), `src="/image/doc-1/`)

	queue, err := f.state.GetQueue(context.Background(), "doc-1")
	require.NoError(t, err)
	require.Len(t, queue.Entries, 1)
	for filename, source := range queue.Entries {
		assert.True(t, strings.HasSuffix(filename, ".png"))
		assert.Equal(t, "https://cdn.example/a/B.PNG?x=1", source)
	}
	assert.True(t, f.trigger.Pending("doc-1"), "trigger scheduled after queue write")
}

func TestPageService_PrepareOrFetch_KeepRaw(t *testing.T) {
	f := newPageFixture()
	f.source.SetTree("doc-1", pageTree("doc-1"))
	svc := NewPageService(PageServiceConfig{
		Source:  f.source,
		State:   f.state,
		Blobs:   f.blobs,
		Trigger: f.trigger,
		KeepRaw: true,
	})

	page, err := svc.PrepareOrFetch(context.Background(), "doc-1", false)
	require.NoError(t, err)
	require.NotEmpty(t, page.RawPath)
	assert.True(t, f.blobs.Has(page.RawPath))
}

func TestPageService_PrepareOrFetch_EmptyID(t *testing.T) {
	svc := newPageFixture().service()
	_, err := svc.PrepareOrFetch(context.Background(), "", false)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestPageService_Rendered(t *testing.T) {
	f := newPageFixture()
	f.source.SetTree("doc-1", pageTree("doc-1"))
	svc := f.service()

	_, err := svc.PrepareOrFetch(context.Background(), "doc-1", false)
	require.NoError(t, err)

	data, err := svc.Rendered(context.Background(), "doc-1")
	require.NoError(t, err)
	assert.Contains(t, string(data), "<div>")

	_, err = svc.Rendered(context.Background(), "never-prepared")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
