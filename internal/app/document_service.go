package app

import (
	"context"
	"fmt"
	"io"
	"strings"

	"supportpilot/internal/ingest"
	"supportpilot/internal/model"
	"supportpilot/internal/pkg/pdfextract"
	"supportpilot/internal/repository"
	"supportpilot/internal/vectorstore"
)

type DocumentService struct {
	docRepo  *repository.DocumentRepository
	store    vectorstore.Store
	ingestor *ingest.Ingestor
}

func NewDocumentService(docRepo *repository.DocumentRepository, store vectorstore.Store, ingestor *ingest.Ingestor) *DocumentService {
	return &DocumentService{
		docRepo:  docRepo,
		store:    store,
		ingestor: ingestor,
	}
}

type IngestInput struct {
	TenantID uint
	Name     string
	Source   string
	Content  string
}

type IngestResult struct {
	Document     model.Document `json:"document"`
	ChunkCount   int            `json:"chunk_count"`
	FailedChunks int            `json:"failed_chunks"`
}

// Ingest registers a document and indexes its content for the tenant.
func (s *DocumentService) Ingest(ctx context.Context, input IngestInput) (*IngestResult, error) {
	if input.TenantID == 0 {
		return nil, ErrInvalidInput
	}
	content := strings.TrimSpace(input.Content)
	if content == "" {
		return nil, ErrInvalidInput
	}
	name := strings.TrimSpace(input.Name)
	if name == "" {
		name = "Untitled"
	}
	source := input.Source
	if source == "" {
		source = "text"
	}

	doc := &model.Document{
		TenantID: input.TenantID,
		Name:     name,
		Source:   source,
		Status:   model.DocumentStatusPending,
	}
	if err := s.docRepo.Create(doc); err != nil {
		return nil, err
	}

	result, err := s.ingestor.Ingest(ctx, doc, content)
	if err != nil {
		return nil, err
	}

	fresh, err := s.docRepo.GetByIDAndTenantID(doc.ID, input.TenantID)
	if err != nil {
		return nil, err
	}
	if fresh != nil {
		doc = fresh
	}
	return &IngestResult{
		Document:     *doc,
		ChunkCount:   result.ChunkCount,
		FailedChunks: len(result.FailedOrdinals),
	}, nil
}

// IngestPDF extracts plain text from an uploaded PDF and ingests it.
func (s *DocumentService) IngestPDF(ctx context.Context, tenantID uint, name string, r io.Reader) (*IngestResult, error) {
	if tenantID == 0 {
		return nil, ErrInvalidInput
	}
	text, err := pdfextract.ExtractText(r)
	if err != nil {
		return nil, fmt.Errorf("%w: extract pdf text: %v", ErrInvalidInput, err)
	}
	return s.Ingest(ctx, IngestInput{
		TenantID: tenantID,
		Name:     name,
		Source:   "pdf",
		Content:  text,
	})
}

// Reingest rebuilds a document's chunks from new content, replacing
// the previous index.
func (s *DocumentService) Reingest(ctx context.Context, tenantID, documentID uint, content string) (*IngestResult, error) {
	if tenantID == 0 || documentID == 0 {
		return nil, ErrInvalidInput
	}
	doc, err := s.docRepo.GetByIDAndTenantID(documentID, tenantID)
	if err != nil {
		return nil, err
	}
	if doc == nil {
		return nil, ErrDocumentNotFound
	}

	result, err := s.ingestor.Ingest(ctx, doc, strings.TrimSpace(content))
	if err != nil {
		return nil, err
	}
	fresh, err := s.docRepo.GetByIDAndTenantID(documentID, tenantID)
	if err != nil {
		return nil, err
	}
	if fresh != nil {
		doc = fresh
	}
	return &IngestResult{
		Document:     *doc,
		ChunkCount:   result.ChunkCount,
		FailedChunks: len(result.FailedOrdinals),
	}, nil
}

func (s *DocumentService) List(tenantID uint) ([]model.Document, error) {
	if tenantID == 0 {
		return nil, ErrInvalidInput
	}
	return s.docRepo.ListByTenantID(tenantID)
}

func (s *DocumentService) Get(tenantID, documentID uint) (*model.Document, error) {
	if tenantID == 0 || documentID == 0 {
		return nil, ErrInvalidInput
	}
	doc, err := s.docRepo.GetByIDAndTenantID(documentID, tenantID)
	if err != nil {
		return nil, err
	}
	if doc == nil {
		return nil, ErrDocumentNotFound
	}
	return doc, nil
}

// Delete removes a document and its indexed chunks.
func (s *DocumentService) Delete(ctx context.Context, tenantID, documentID uint) error {
	if tenantID == 0 || documentID == 0 {
		return ErrInvalidInput
	}
	doc, err := s.docRepo.GetByIDAndTenantID(documentID, tenantID)
	if err != nil {
		return err
	}
	if doc == nil {
		return ErrDocumentNotFound
	}
	if err := s.store.DeleteByDocument(ctx, tenantID, documentID); err != nil {
		return err
	}
	return s.docRepo.DeleteByIDAndTenantID(documentID, tenantID)
}
