package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"supportpilot/internal/app"
	"supportpilot/internal/transport/http/middleware"
	"supportpilot/internal/transport/http/response"
)

type GapHandler struct {
	gapService *app.GapService
}

func NewGapHandler(gapService *app.GapService) *GapHandler {
	return &GapHandler{gapService: gapService}
}

// Scan triggers an on-demand gap analysis for the tenant, persisting
// any new category suggestions.
func (h *GapHandler) Scan(c *gin.Context) {
	tenantID, ok := middleware.TenantID(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, response.CodeUnauthorized, "tenant not found in token")
		return
	}

	created, err := h.gapService.Scan(c.Request.Context(), tenantID)
	if err != nil {
		response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "gap scan failed")
		return
	}
	response.OK(c, gin.H{"suggested": created})
}

// Report returns the current analysis with evidence, without writing
// anything.
func (h *GapHandler) Report(c *gin.Context) {
	tenantID, ok := middleware.TenantID(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, response.CodeUnauthorized, "tenant not found in token")
		return
	}

	suggestions, err := h.gapService.Report(c.Request.Context(), tenantID)
	if err != nil {
		response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "gap report failed")
		return
	}
	response.OK(c, gin.H{"suggestions": suggestions})
}

func (h *GapHandler) ListSuggested(c *gin.Context) {
	tenantID, ok := middleware.TenantID(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, response.CodeUnauthorized, "tenant not found in token")
		return
	}

	suggested, err := h.gapService.ListSuggested(tenantID)
	if err != nil {
		response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "list suggestions failed")
		return
	}
	response.OK(c, gin.H{"categories": suggested})
}
