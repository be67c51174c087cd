package app

import (
	"fmt"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"supportpilot/internal/model"
	"supportpilot/internal/pkg/jwtutil"
	"supportpilot/internal/repository"
)

type AuthService struct {
	tenantRepo    *repository.TenantRepository
	jwtSecret     string
	jwtExpiration time.Duration
}

type RegisterInput struct {
	CompanyName string
	Email       string
	Password    string
}

type LoginInput struct {
	Email    string
	Password string
}

type AuthResult struct {
	Token  string
	Tenant *model.Tenant
}

func NewAuthService(tenantRepo *repository.TenantRepository, jwtSecret string, jwtExpiration time.Duration) *AuthService {
	return &AuthService{
		tenantRepo:    tenantRepo,
		jwtSecret:     jwtSecret,
		jwtExpiration: jwtExpiration,
	}
}

func (s *AuthService) Register(input RegisterInput) (*AuthResult, error) {
	companyName := strings.TrimSpace(input.CompanyName)
	email := strings.TrimSpace(strings.ToLower(input.Email))
	password := strings.TrimSpace(input.Password)

	if companyName == "" || email == "" || password == "" || len(password) < 8 {
		return nil, ErrInvalidInput
	}

	existingByName, err := s.tenantRepo.GetByCompanyName(companyName)
	if err != nil {
		return nil, err
	}
	if existingByName != nil {
		return nil, ErrCompanyExists
	}

	existingByEmail, err := s.tenantRepo.GetByEmail(email)
	if err != nil {
		return nil, err
	}
	if existingByEmail != nil {
		return nil, ErrEmailExists
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password failed: %w", err)
	}

	tenant := &model.Tenant{
		CompanyName:  companyName,
		Email:        email,
		PasswordHash: string(hash),
	}
	if err := s.tenantRepo.Create(tenant); err != nil {
		return nil, err
	}

	token, err := jwtutil.GenerateToken(s.jwtSecret, s.jwtExpiration, tenant.ID, tenant.CompanyName)
	if err != nil {
		return nil, err
	}
	return &AuthResult{Token: token, Tenant: tenant}, nil
}

func (s *AuthService) Login(input LoginInput) (*AuthResult, error) {
	email := strings.TrimSpace(strings.ToLower(input.Email))
	password := strings.TrimSpace(input.Password)
	if email == "" || password == "" {
		return nil, ErrInvalidInput
	}

	tenant, err := s.tenantRepo.GetByEmail(email)
	if err != nil {
		return nil, err
	}
	if tenant == nil {
		return nil, ErrInvalidCredential
	}

	if err := bcrypt.CompareHashAndPassword([]byte(tenant.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredential
	}

	token, err := jwtutil.GenerateToken(s.jwtSecret, s.jwtExpiration, tenant.ID, tenant.CompanyName)
	if err != nil {
		return nil, err
	}
	return &AuthResult{Token: token, Tenant: tenant}, nil
}

func (s *AuthService) GetTenantByID(id uint) (*model.Tenant, error) {
	if id == 0 {
		return nil, ErrInvalidInput
	}
	return s.tenantRepo.GetByID(id)
}
