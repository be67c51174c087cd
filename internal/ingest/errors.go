package ingest

import (
	"errors"
	"fmt"
)

var (
	ErrEmptyContent    = errors.New("document content is empty")
	ErrAllChunksFailed = errors.New("embedding failed for every chunk")
)

// IngestionError reports a failed ingestion run. ChunkFailures lists the
// ordinals of chunks whose embeddings could not be obtained.
type IngestionError struct {
	DocumentID    uint
	ChunkFailures []int
	Err           error
}

func (e *IngestionError) Error() string {
	if len(e.ChunkFailures) > 0 {
		return fmt.Sprintf("ingest document %d: %v (%d chunks affected)",
			e.DocumentID, e.Err, len(e.ChunkFailures))
	}
	return fmt.Sprintf("ingest document %d: %v", e.DocumentID, e.Err)
}

func (e *IngestionError) Unwrap() error {
	return e.Err
}
