package ingest

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"supportpilot/internal/ai"
	"supportpilot/internal/model"
	"supportpilot/internal/vectorstore"
)

type fakeEmbedder struct {
	failBatches map[int]bool // batch index -> fail
	calls       int
}

func (f *fakeEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	idx := f.calls
	f.calls++
	if f.failBatches[idx] {
		return nil, errors.New("provider unavailable")
	}
	vectors := make([][]float32, len(texts))
	for i := range texts {
		vectors[i] = []float32{float32(len(texts[i])), 1}
	}
	return vectors, nil
}

type fakeStore struct {
	upserts map[uint][]model.Chunk
	failing bool
}

func newFakeStore() *fakeStore {
	return &fakeStore{upserts: map[uint][]model.Chunk{}}
}

func (f *fakeStore) Upsert(ctx context.Context, tenantID uint, chunks []model.Chunk) error {
	if f.failing {
		return errors.New("store down")
	}
	f.upserts[chunks[0].DocumentID] = chunks
	return nil
}

func (f *fakeStore) Search(ctx context.Context, tenantID uint, vector []float32, k int) ([]vectorstore.ScoredChunk, error) {
	return nil, nil
}

func (f *fakeStore) DeleteByDocument(ctx context.Context, tenantID, documentID uint) error {
	delete(f.upserts, documentID)
	return nil
}

type fakeDocWriter struct {
	status  string
	count   int
	reason  string
	updates int
}

func (f *fakeDocWriter) UpdateStatus(id uint, status string, chunkCount int, failureReason string) error {
	f.status = status
	f.count = chunkCount
	f.reason = failureReason
	f.updates++
	return nil
}

func noRetry() ai.RetryPolicy {
	return ai.RetryPolicy{MaxAttempts: 1, BaseBackoff: time.Millisecond}
}

func newIngestor(docs *fakeDocWriter, store *fakeStore, emb *fakeEmbedder) *Ingestor {
	return NewIngestor(docs, store, emb, 10, 2, noRetry(), zap.NewNop())
}

func TestIngestHappyPath(t *testing.T) {
	docs := &fakeDocWriter{}
	store := newFakeStore()
	ing := newIngestor(docs, store, &fakeEmbedder{})

	doc := &model.Document{ID: 1, TenantID: 5}
	result, err := ing.Ingest(context.Background(), doc, strings.Repeat("a", 25))
	require.NoError(t, err)

	assert.Equal(t, model.DocumentStatusIndexed, docs.status)
	assert.Empty(t, result.FailedOrdinals)
	assert.Equal(t, result.ChunkCount, docs.count)

	stored := store.upserts[1]
	require.Len(t, stored, result.ChunkCount)
	for i, c := range stored {
		assert.Equal(t, uint(5), c.TenantID)
		assert.Equal(t, i, c.Ordinal)
		assert.Equal(t, model.ChunkKeyFor(1, i), c.ChunkKey)
		assert.NotEmpty(t, c.EmbeddingVector())
	}
}

func TestIngestEmptyContentFailsDocument(t *testing.T) {
	docs := &fakeDocWriter{}
	ing := newIngestor(docs, newFakeStore(), &fakeEmbedder{})

	_, err := ing.Ingest(context.Background(), &model.Document{ID: 2, TenantID: 5}, "")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrEmptyContent)
	var ingErr *IngestionError
	require.ErrorAs(t, err, &ingErr)
	assert.Equal(t, uint(2), ingErr.DocumentID)
	assert.Equal(t, model.DocumentStatusFailed, docs.status)
}

func TestIngestPartialEmbeddingFailure(t *testing.T) {
	docs := &fakeDocWriter{}
	store := newFakeStore()
	// 25 runes at size 10 overlap 2 makes four pieces in one batch plus
	// none beyond; use longer text to span two batches.
	ing := newIngestor(docs, store, &fakeEmbedder{failBatches: map[int]bool{1: true}})

	text := strings.Repeat("x", 100) // enough pieces for two batches
	result, err := ing.Ingest(context.Background(), &model.Document{ID: 3, TenantID: 5}, text)
	require.NoError(t, err)

	assert.Equal(t, model.DocumentStatusIndexed, docs.status)
	assert.NotEmpty(t, result.FailedOrdinals)
	assert.Contains(t, docs.reason, "skipped")
	assert.Len(t, store.upserts[3], result.ChunkCount)
}

func TestIngestAllEmbeddingsFailedMarksDocumentFailed(t *testing.T) {
	docs := &fakeDocWriter{}
	ing := newIngestor(docs, newFakeStore(), &fakeEmbedder{failBatches: map[int]bool{0: true, 1: true, 2: true}})

	_, err := ing.Ingest(context.Background(), &model.Document{ID: 4, TenantID: 5}, strings.Repeat("y", 20))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrAllChunksFailed)
	var ingErr *IngestionError
	require.ErrorAs(t, err, &ingErr)
	assert.NotEmpty(t, ingErr.ChunkFailures)
	assert.Equal(t, model.DocumentStatusFailed, docs.status)
}

func TestIngestIsIdempotent(t *testing.T) {
	docs := &fakeDocWriter{}
	store := newFakeStore()
	ing := newIngestor(docs, store, &fakeEmbedder{})

	doc := &model.Document{ID: 6, TenantID: 5}
	first, err := ing.Ingest(context.Background(), doc, strings.Repeat("a", 30))
	require.NoError(t, err)
	second, err := ing.Ingest(context.Background(), doc, strings.Repeat("a", 30))
	require.NoError(t, err)

	assert.Equal(t, first.ChunkCount, second.ChunkCount)
	assert.Len(t, store.upserts[6], second.ChunkCount)
}
