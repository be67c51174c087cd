package repository

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"supportpilot/internal/model"
)

type TenantRepository struct {
	db *gorm.DB
}

func NewTenantRepository(db *gorm.DB) *TenantRepository {
	return &TenantRepository{db: db}
}

func (r *TenantRepository) Create(tenant *model.Tenant) error {
	if err := r.db.Create(tenant).Error; err != nil {
		return fmt.Errorf("create tenant failed: %w", err)
	}
	return nil
}

func (r *TenantRepository) GetByID(id uint) (*model.Tenant, error) {
	var tenant model.Tenant
	if err := r.db.First(&tenant, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("query tenant by id failed: %w", err)
	}
	return &tenant, nil
}

func (r *TenantRepository) GetByEmail(email string) (*model.Tenant, error) {
	var tenant model.Tenant
	if err := r.db.Where("email = ?", email).First(&tenant).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("query tenant by email failed: %w", err)
	}
	return &tenant, nil
}

func (r *TenantRepository) GetByCompanyName(name string) (*model.Tenant, error) {
	var tenant model.Tenant
	if err := r.db.Where("company_name = ?", name).First(&tenant).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("query tenant by company name failed: %w", err)
	}
	return &tenant, nil
}

// ListIDs returns every tenant id; used by the periodic gap runner.
func (r *TenantRepository) ListIDs() ([]uint, error) {
	var ids []uint
	if err := r.db.Model(&model.Tenant{}).Pluck("id", &ids).Error; err != nil {
		return nil, fmt.Errorf("list tenant ids failed: %w", err)
	}
	return ids, nil
}
