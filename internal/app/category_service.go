package app

import (
	"context"
	"strings"

	"supportpilot/internal/model"
	"supportpilot/internal/repository"
	"supportpilot/internal/worker"
)

type EventPublisher interface {
	Publish(ctx context.Context, payload any) error
}

type CategoryService struct {
	categoryRepo *repository.CategoryRepository
	recatEvents  EventPublisher
}

func NewCategoryService(categoryRepo *repository.CategoryRepository, recatEvents EventPublisher) *CategoryService {
	return &CategoryService{
		categoryRepo: categoryRepo,
		recatEvents:  recatEvents,
	}
}

type CreateCategoryInput struct {
	TenantID    uint
	Name        string
	Description string
}

// Create adds an active category directly. Gap analysis suggestions go
// through the approve flow instead.
func (s *CategoryService) Create(input CreateCategoryInput) (*model.Category, error) {
	if input.TenantID == 0 {
		return nil, ErrInvalidInput
	}
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, ErrInvalidInput
	}

	existing, err := s.categoryRepo.GetByNameAndTenantID(name, input.TenantID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrCategoryExists
	}

	category := &model.Category{
		TenantID:    input.TenantID,
		Name:        name,
		Description: strings.TrimSpace(input.Description),
		Status:      model.CategoryStatusActive,
	}
	if err := s.categoryRepo.Create(category); err != nil {
		return nil, err
	}
	return category, nil
}

func (s *CategoryService) List(tenantID uint) ([]model.Category, error) {
	if tenantID == 0 {
		return nil, ErrInvalidInput
	}
	return s.categoryRepo.ListByTenantID(tenantID)
}

func (s *CategoryService) ListActive(tenantID uint) ([]model.Category, error) {
	if tenantID == 0 {
		return nil, ErrInvalidInput
	}
	return s.categoryRepo.ListActiveByTenantID(tenantID)
}

// Approve activates a suggested category and triggers a
// recategorization run so old uncategorized messages get a chance to
// land in it.
func (s *CategoryService) Approve(ctx context.Context, tenantID, categoryID uint) (*model.Category, error) {
	if tenantID == 0 || categoryID == 0 {
		return nil, ErrInvalidInput
	}
	category, err := s.categoryRepo.GetByIDAndTenantID(categoryID, tenantID)
	if err != nil {
		return nil, err
	}
	if category == nil {
		return nil, ErrCategoryNotFound
	}
	if category.Status != model.CategoryStatusSuggested {
		return nil, ErrCategoryNotPending
	}

	if err := s.categoryRepo.Approve(categoryID, tenantID); err != nil {
		return nil, err
	}
	category.Status = model.CategoryStatusActive

	if err := s.publishChange(ctx, tenantID, categoryID, "approved"); err != nil {
		return nil, err
	}
	return category, nil
}

// Archive retires an active category. Messages tagged with it are
// rewritten by the triggered recategorization run.
func (s *CategoryService) Archive(ctx context.Context, tenantID, categoryID uint) (*model.Category, error) {
	if tenantID == 0 || categoryID == 0 {
		return nil, ErrInvalidInput
	}
	category, err := s.categoryRepo.GetByIDAndTenantID(categoryID, tenantID)
	if err != nil {
		return nil, err
	}
	if category == nil {
		return nil, ErrCategoryNotFound
	}
	if category.Status != model.CategoryStatusActive {
		return nil, ErrCategoryNotFound
	}

	if err := s.categoryRepo.Archive(categoryID, tenantID); err != nil {
		return nil, err
	}
	category.Status = model.CategoryStatusArchived

	if err := s.publishChange(ctx, tenantID, categoryID, "archived"); err != nil {
		return nil, err
	}
	return category, nil
}

func (s *CategoryService) publishChange(ctx context.Context, tenantID, categoryID uint, change string) error {
	if s.recatEvents == nil {
		return ErrEventEnqueue
	}
	event := worker.CategoryChangeEvent{
		TenantID:   tenantID,
		CategoryID: categoryID,
		Change:     change,
	}
	if err := s.recatEvents.Publish(ctx, event); err != nil {
		return ErrEventEnqueue
	}
	return nil
}
