package repository

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"supportpilot/internal/model"
)

func TestApproveActivatesAndBumpsVersion(t *testing.T) {
	db := newTestDB(t)
	tenants := NewTenantRepository(db)
	categories := NewCategoryRepository(db)

	tenant := &model.Tenant{CompanyName: "Acme", Email: "ops@acme.test", PasswordHash: "x"}
	require.NoError(t, tenants.Create(tenant))

	category := &model.Category{TenantID: tenant.ID, Name: "Warranty", Status: model.CategoryStatusSuggested}
	require.NoError(t, categories.Create(category))

	require.NoError(t, categories.Approve(category.ID, tenant.ID))

	fresh, err := categories.GetByIDAndTenantID(category.ID, tenant.ID)
	require.NoError(t, err)
	assert.Equal(t, model.CategoryStatusActive, fresh.Status)

	freshTenant, err := tenants.GetByID(tenant.ID)
	require.NoError(t, err)
	assert.Equal(t, uint(1), freshTenant.CategoryVersion)
}

func TestArchiveRetiresAndBumpsVersion(t *testing.T) {
	db := newTestDB(t)
	tenants := NewTenantRepository(db)
	categories := NewCategoryRepository(db)

	tenant := &model.Tenant{CompanyName: "Acme", Email: "ops@acme.test", PasswordHash: "x"}
	require.NoError(t, tenants.Create(tenant))

	category := &model.Category{TenantID: tenant.ID, Name: "Billing", Status: model.CategoryStatusActive}
	require.NoError(t, categories.Create(category))

	require.NoError(t, categories.Archive(category.ID, tenant.ID))

	fresh, err := categories.GetByIDAndTenantID(category.ID, tenant.ID)
	require.NoError(t, err)
	assert.Equal(t, model.CategoryStatusArchived, fresh.Status)

	freshTenant, err := tenants.GetByID(tenant.ID)
	require.NoError(t, err)
	assert.Equal(t, uint(1), freshTenant.CategoryVersion)

	active, err := categories.ListActiveByTenantID(tenant.ID)
	require.NoError(t, err)
	assert.Empty(t, active)
}

func TestApproveUnknownCategory(t *testing.T) {
	db := newTestDB(t)
	categories := NewCategoryRepository(db)

	err := categories.Approve(99, 1)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}
