package repository

import (
	"fmt"

	"gorm.io/gorm"

	"supportpilot/internal/model"
)

type CategoryRepository struct {
	db *gorm.DB
}

func NewCategoryRepository(db *gorm.DB) *CategoryRepository {
	return &CategoryRepository{db: db}
}

func (r *CategoryRepository) Create(category *model.Category) error {
	if err := r.db.Create(category).Error; err != nil {
		return fmt.Errorf("create category failed: %w", err)
	}
	return nil
}

func (r *CategoryRepository) GetByIDAndTenantID(id, tenantID uint) (*model.Category, error) {
	var category model.Category
	err := r.db.Where("id = ? AND tenant_id = ?", id, tenantID).First(&category).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get category by id failed: %w", err)
	}
	return &category, nil
}

func (r *CategoryRepository) GetByNameAndTenantID(name string, tenantID uint) (*model.Category, error) {
	var category model.Category
	err := r.db.Where("name = ? AND tenant_id = ?", name, tenantID).First(&category).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get category by name failed: %w", err)
	}
	return &category, nil
}

func (r *CategoryRepository) ListByTenantID(tenantID uint) ([]model.Category, error) {
	var categories []model.Category
	if err := r.db.Where("tenant_id = ?", tenantID).Order("id ASC").Find(&categories).Error; err != nil {
		return nil, fmt.Errorf("list categories by tenant failed: %w", err)
	}
	return categories, nil
}

func (r *CategoryRepository) ListActiveByTenantID(tenantID uint) ([]model.Category, error) {
	var categories []model.Category
	err := r.db.Where("tenant_id = ? AND status = ?", tenantID, model.CategoryStatusActive).
		Order("id ASC").Find(&categories).Error
	if err != nil {
		return nil, fmt.Errorf("list active categories failed: %w", err)
	}
	return categories, nil
}

// Approve moves a category to active and bumps the tenant's category
// version inside one transaction, so a recategorization run started
// before the approval can detect the stale snapshot.
func (r *CategoryRepository) Approve(id, tenantID uint) error {
	return r.transitionStatus(id, tenantID, model.CategoryStatusActive)
}

// Archive retires a category. Messages keep the archived name until a
// recategorization run rewrites them.
func (r *CategoryRepository) Archive(id, tenantID uint) error {
	return r.transitionStatus(id, tenantID, model.CategoryStatusArchived)
}

func (r *CategoryRepository) transitionStatus(id, tenantID uint, status string) error {
	err := r.db.Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&model.Category{}).
			Where("id = ? AND tenant_id = ?", id, tenantID).
			Update("status", status)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return tx.Model(&model.Tenant{}).
			Where("id = ?", tenantID).
			Update("category_version", gorm.Expr("category_version + 1")).Error
	})
	if err == gorm.ErrRecordNotFound {
		return err
	}
	if err != nil {
		return fmt.Errorf("transition category to %s failed: %w", status, err)
	}
	return nil
}
