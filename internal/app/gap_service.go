package app

import (
	"context"

	"go.uber.org/zap"

	"supportpilot/internal/gap"
	"supportpilot/internal/model"
	"supportpilot/internal/repository"
)

type GapAnalyzer interface {
	Analyze(ctx context.Context, tenantID uint) ([]gap.Suggestion, error)
}

type GapService struct {
	analyzer     GapAnalyzer
	categoryRepo *repository.CategoryRepository
	logger       *zap.Logger
}

func NewGapService(analyzer GapAnalyzer, categoryRepo *repository.CategoryRepository, logger *zap.Logger) *GapService {
	return &GapService{
		analyzer:     analyzer,
		categoryRepo: categoryRepo,
		logger:       logger,
	}
}

// Scan analyzes a tenant's unresolved messages and persists any new
// suggestions as suggested categories. Existing names in any status
// are left alone, so repeated scans do not duplicate.
func (s *GapService) Scan(ctx context.Context, tenantID uint) (int, error) {
	if tenantID == 0 {
		return 0, ErrInvalidInput
	}

	suggestions, err := s.analyzer.Analyze(ctx, tenantID)
	if err != nil {
		return 0, err
	}

	created := 0
	for _, suggestion := range suggestions {
		existing, err := s.categoryRepo.GetByNameAndTenantID(suggestion.CandidateName, tenantID)
		if err != nil {
			return created, err
		}
		if existing != nil {
			continue
		}
		category := &model.Category{
			TenantID:    tenantID,
			Name:        suggestion.CandidateName,
			Description: suggestion.RecommendedTopic,
			Status:      model.CategoryStatusSuggested,
		}
		if err := s.categoryRepo.Create(category); err != nil {
			return created, err
		}
		created++
		s.logger.Info("category suggested",
			zap.Uint("tenant_id", tenantID),
			zap.String("name", suggestion.CandidateName),
			zap.Int("evidence_messages", len(suggestion.MessageIDs)))
	}
	return created, nil
}

// Report returns the current suggestions with their supporting
// evidence without persisting anything.
func (s *GapService) Report(ctx context.Context, tenantID uint) ([]gap.Suggestion, error) {
	if tenantID == 0 {
		return nil, ErrInvalidInput
	}
	return s.analyzer.Analyze(ctx, tenantID)
}

// ListSuggested returns categories awaiting approval.
func (s *GapService) ListSuggested(tenantID uint) ([]model.Category, error) {
	if tenantID == 0 {
		return nil, ErrInvalidInput
	}
	categories, err := s.categoryRepo.ListByTenantID(tenantID)
	if err != nil {
		return nil, err
	}
	var suggested []model.Category
	for _, cat := range categories {
		if cat.Status == model.CategoryStatusSuggested {
			suggested = append(suggested, cat)
		}
	}
	return suggested, nil
}
