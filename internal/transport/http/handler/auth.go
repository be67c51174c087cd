package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"supportpilot/internal/app"
	"supportpilot/internal/transport/http/middleware"
	"supportpilot/internal/transport/http/response"
)

type AuthHandler struct {
	authService *app.AuthService
}

type RegisterRequest struct {
	CompanyName string `json:"company_name" binding:"required,min=2,max=128"`
	Email       string `json:"email" binding:"required,email,max=128"`
	Password    string `json:"password" binding:"required,min=8,max=128"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email,max=128"`
	Password string `json:"password" binding:"required,min=8,max=128"`
}

func NewAuthHandler(authService *app.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

func (h *AuthHandler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid request payload")
		return
	}

	result, err := h.authService.Register(app.RegisterInput{
		CompanyName: req.CompanyName,
		Email:       req.Email,
		Password:    req.Password,
	})
	if err != nil {
		switch {
		case errors.Is(err, app.ErrInvalidInput):
			response.Error(c, http.StatusBadRequest, response.CodeBadRequest, err.Error())
		case errors.Is(err, app.ErrCompanyExists):
			response.Error(c, http.StatusBadRequest, response.CodeCompanyExists, err.Error())
		case errors.Is(err, app.ErrEmailExists):
			response.Error(c, http.StatusBadRequest, response.CodeEmailExists, err.Error())
		default:
			response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "register failed")
		}
		return
	}

	response.OK(c, gin.H{
		"token": result.Token,
		"tenant": gin.H{
			"id":           result.Tenant.ID,
			"company_name": result.Tenant.CompanyName,
			"email":        result.Tenant.Email,
		},
	})
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid request payload")
		return
	}

	result, err := h.authService.Login(app.LoginInput{
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		switch {
		case errors.Is(err, app.ErrInvalidInput):
			response.Error(c, http.StatusBadRequest, response.CodeBadRequest, err.Error())
		case errors.Is(err, app.ErrInvalidCredential):
			response.Error(c, http.StatusUnauthorized, response.CodeInvalidCredentials, err.Error())
		default:
			response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "login failed")
		}
		return
	}

	response.OK(c, gin.H{
		"token": result.Token,
		"tenant": gin.H{
			"id":           result.Tenant.ID,
			"company_name": result.Tenant.CompanyName,
			"email":        result.Tenant.Email,
		},
	})
}

func (h *AuthHandler) Me(c *gin.Context) {
	tenantID, ok := middleware.TenantID(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, response.CodeUnauthorized, "tenant not found in token")
		return
	}

	tenant, err := h.authService.GetTenantByID(tenantID)
	if err != nil {
		response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "fetch current tenant failed")
		return
	}
	if tenant == nil {
		response.Error(c, http.StatusUnauthorized, response.CodeUnauthorized, "tenant not found")
		return
	}

	response.OK(c, gin.H{
		"id":               tenant.ID,
		"company_name":     tenant.CompanyName,
		"email":            tenant.Email,
		"category_version": tenant.CategoryVersion,
	})
}
