package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"supportpilot/internal/app"
	"supportpilot/internal/transport/http/middleware"
	"supportpilot/internal/transport/http/response"
)

type CategoryHandler struct {
	categoryService *app.CategoryService
}

func NewCategoryHandler(categoryService *app.CategoryService) *CategoryHandler {
	return &CategoryHandler{categoryService: categoryService}
}

type CreateCategoryRequest struct {
	Name        string `json:"name" binding:"required,min=2,max=64"`
	Description string `json:"description" binding:"max=512"`
}

func (h *CategoryHandler) Create(c *gin.Context) {
	tenantID, ok := middleware.TenantID(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, response.CodeUnauthorized, "tenant not found in token")
		return
	}

	var req CreateCategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid request payload")
		return
	}

	category, err := h.categoryService.Create(app.CreateCategoryInput{
		TenantID:    tenantID,
		Name:        req.Name,
		Description: req.Description,
	})
	if err != nil {
		switch {
		case errors.Is(err, app.ErrInvalidInput):
			response.Error(c, http.StatusBadRequest, response.CodeBadRequest, err.Error())
		case errors.Is(err, app.ErrCategoryExists):
			response.Error(c, http.StatusBadRequest, response.CodeCategoryExists, err.Error())
		default:
			response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "create category failed")
		}
		return
	}
	response.OK(c, category)
}

func (h *CategoryHandler) List(c *gin.Context) {
	tenantID, ok := middleware.TenantID(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, response.CodeUnauthorized, "tenant not found in token")
		return
	}

	var (
		categories interface{}
		err        error
	)
	if c.Query("status") == "active" {
		categories, err = h.categoryService.ListActive(tenantID)
	} else {
		categories, err = h.categoryService.List(tenantID)
	}
	if err != nil {
		response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "list categories failed")
		return
	}
	response.OK(c, gin.H{"categories": categories})
}

func (h *CategoryHandler) Approve(c *gin.Context) {
	tenantID, ok := middleware.TenantID(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, response.CodeUnauthorized, "tenant not found in token")
		return
	}
	categoryID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	category, err := h.categoryService.Approve(c.Request.Context(), tenantID, categoryID)
	if err != nil {
		switch {
		case errors.Is(err, app.ErrCategoryNotFound):
			response.Error(c, http.StatusNotFound, response.CodeNotFound, err.Error())
		case errors.Is(err, app.ErrCategoryNotPending):
			response.Error(c, http.StatusBadRequest, response.CodeCategoryNotPending, err.Error())
		default:
			response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "approve category failed")
		}
		return
	}
	response.OK(c, category)
}

func (h *CategoryHandler) Archive(c *gin.Context) {
	tenantID, ok := middleware.TenantID(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, response.CodeUnauthorized, "tenant not found in token")
		return
	}
	categoryID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	category, err := h.categoryService.Archive(c.Request.Context(), tenantID, categoryID)
	if err != nil {
		if errors.Is(err, app.ErrCategoryNotFound) {
			response.Error(c, http.StatusNotFound, response.CodeNotFound, err.Error())
			return
		}
		response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "archive category failed")
		return
	}
	response.OK(c, category)
}
