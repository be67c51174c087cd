package ingest

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"supportpilot/internal/ai"
	"supportpilot/internal/model"
	"supportpilot/internal/vectorstore"
)

const embeddingBatchSize = 10 // embedding APIs often limit batch size

type Embedder interface {
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
}

type documentStatusWriter interface {
	UpdateStatus(id uint, status string, chunkCount int, failureReason string) error
}

// Result reports what one ingestion run produced. FailedOrdinals lists
// chunks whose embeddings could not be obtained; the rest were indexed.
type Result struct {
	DocumentID     uint
	ChunkCount     int
	FailedOrdinals []int
}

// Ingestor turns raw document text into embedded chunks in the vector
// store. Re-running it for the same document replaces the previous
// chunk set, so ingestion is idempotent.
type Ingestor struct {
	documents    documentStatusWriter
	store        vectorstore.Store
	embedder     Embedder
	chunkSize    int
	chunkOverlap int
	retry        ai.RetryPolicy
	logger       *zap.Logger
}

func NewIngestor(documents documentStatusWriter, store vectorstore.Store, embedder Embedder, chunkSize, chunkOverlap int, retry ai.RetryPolicy, logger *zap.Logger) *Ingestor {
	return &Ingestor{
		documents:    documents,
		store:        store,
		embedder:     embedder,
		chunkSize:    chunkSize,
		chunkOverlap: chunkOverlap,
		retry:        retry,
		logger:       logger,
	}
}

// Ingest chunks and embeds the content of an already persisted
// document. The document fails only when no chunk could be embedded;
// partial embedding failures are recorded and the rest is indexed.
func (in *Ingestor) Ingest(ctx context.Context, doc *model.Document, content string) (*Result, error) {
	pieces := ChunkText(content, in.chunkSize, in.chunkOverlap)
	if len(pieces) == 0 {
		if err := in.documents.UpdateStatus(doc.ID, model.DocumentStatusFailed, 0, ErrEmptyContent.Error()); err != nil {
			in.logger.Error("mark document failed", zap.Uint("document_id", doc.ID), zap.Error(err))
		}
		return nil, &IngestionError{DocumentID: doc.ID, Err: ErrEmptyContent}
	}

	if err := in.documents.UpdateStatus(doc.ID, model.DocumentStatusChunked, len(pieces), ""); err != nil {
		return nil, fmt.Errorf("mark document chunked failed: %w", err)
	}

	chunks := make([]model.Chunk, 0, len(pieces))
	var failed []int
	for start := 0; start < len(pieces); start += embeddingBatchSize {
		end := start + embeddingBatchSize
		if end > len(pieces) {
			end = len(pieces)
		}
		batch := pieces[start:end]
		texts := make([]string, len(batch))
		for i, p := range batch {
			texts[i] = p.Content
		}

		var vectors [][]float32
		err := ai.Retry(ctx, in.retry, func(ctx context.Context) error {
			var embedErr error
			vectors, embedErr = in.embedder.EmbedBatch(ctx, texts)
			return embedErr
		})
		if err != nil {
			if ctx.Err() != nil {
				return nil, fmt.Errorf("ingest document %d interrupted: %w", doc.ID, ctx.Err())
			}
			in.logger.Warn("embedding batch failed",
				zap.Uint("document_id", doc.ID),
				zap.Int("batch_start", start),
				zap.Error(err))
			for ordinal := start; ordinal < end; ordinal++ {
				failed = append(failed, ordinal)
			}
			continue
		}
		if len(vectors) != len(batch) {
			in.logger.Warn("embedding count mismatch",
				zap.Uint("document_id", doc.ID),
				zap.Int("want", len(batch)),
				zap.Int("got", len(vectors)))
			for ordinal := start; ordinal < end; ordinal++ {
				failed = append(failed, ordinal)
			}
			continue
		}

		for i, p := range batch {
			ordinal := start + i
			chunk := model.Chunk{
				TenantID:     doc.TenantID,
				DocumentID:   doc.ID,
				ChunkKey:     model.ChunkKeyFor(doc.ID, ordinal),
				Ordinal:      ordinal,
				SourceOffset: p.Offset,
				Content:      p.Content,
			}
			chunk.SetEmbedding(vectors[i])
			chunks = append(chunks, chunk)
		}
	}

	if len(chunks) == 0 {
		if err := in.documents.UpdateStatus(doc.ID, model.DocumentStatusFailed, 0, ErrAllChunksFailed.Error()); err != nil {
			in.logger.Error("mark document failed", zap.Uint("document_id", doc.ID), zap.Error(err))
		}
		return nil, &IngestionError{DocumentID: doc.ID, ChunkFailures: failed, Err: ErrAllChunksFailed}
	}

	if err := in.store.Upsert(ctx, doc.TenantID, chunks); err != nil {
		reason := fmt.Sprintf("store chunks failed: %v", err)
		if updateErr := in.documents.UpdateStatus(doc.ID, model.DocumentStatusFailed, 0, reason); updateErr != nil {
			in.logger.Error("mark document failed", zap.Uint("document_id", doc.ID), zap.Error(updateErr))
		}
		return nil, &IngestionError{DocumentID: doc.ID, Err: fmt.Errorf("store chunks failed: %w", err)}
	}

	failureReason := ""
	if len(failed) > 0 {
		failureReason = fmt.Sprintf("%d of %d chunks skipped: %s", len(failed), len(pieces), formatOrdinals(failed))
	}
	if err := in.documents.UpdateStatus(doc.ID, model.DocumentStatusIndexed, len(chunks), failureReason); err != nil {
		return nil, fmt.Errorf("mark document indexed failed: %w", err)
	}

	in.logger.Info("document ingested",
		zap.Uint("tenant_id", doc.TenantID),
		zap.Uint("document_id", doc.ID),
		zap.Int("chunks", len(chunks)),
		zap.Int("failed_chunks", len(failed)))

	return &Result{
		DocumentID:     doc.ID,
		ChunkCount:     len(chunks),
		FailedOrdinals: failed,
	}, nil
}

func formatOrdinals(ordinals []int) string {
	parts := make([]string, len(ordinals))
	for i, o := range ordinals {
		parts[i] = fmt.Sprintf("%d", o)
	}
	return strings.Join(parts, ",")
}
