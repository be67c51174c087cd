package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"supportpilot/internal/app"
	"supportpilot/internal/ingest"
	"supportpilot/internal/transport/http/middleware"
	"supportpilot/internal/transport/http/response"
)

type DocumentHandler struct {
	docService *app.DocumentService
}

func NewDocumentHandler(docService *app.DocumentService) *DocumentHandler {
	return &DocumentHandler{docService: docService}
}

type IngestRequest struct {
	Name    string `json:"name" binding:"max=255"`
	Content string `json:"content" binding:"required"`
}

func (h *DocumentHandler) Ingest(c *gin.Context) {
	tenantID, ok := middleware.TenantID(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, response.CodeUnauthorized, "tenant not found in token")
		return
	}

	var req IngestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid request payload")
		return
	}

	result, err := h.docService.Ingest(c.Request.Context(), app.IngestInput{
		TenantID: tenantID,
		Name:     req.Name,
		Source:   "text",
		Content:  req.Content,
	})
	if err != nil {
		respondIngestError(c, err, "document ingest failed")
		return
	}
	response.OK(c, result)
}

func (h *DocumentHandler) IngestPDF(c *gin.Context) {
	tenantID, ok := middleware.TenantID(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, response.CodeUnauthorized, "tenant not found in token")
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "missing pdf file")
		return
	}
	file, err := fileHeader.Open()
	if err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "open uploaded file failed")
		return
	}
	defer file.Close()

	result, err := h.docService.IngestPDF(c.Request.Context(), tenantID, fileHeader.Filename, file)
	if err != nil {
		respondIngestError(c, err, "pdf ingest failed")
		return
	}
	response.OK(c, result)
}

func (h *DocumentHandler) List(c *gin.Context) {
	tenantID, ok := middleware.TenantID(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, response.CodeUnauthorized, "tenant not found in token")
		return
	}

	docs, err := h.docService.List(tenantID)
	if err != nil {
		response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "list documents failed")
		return
	}
	response.OK(c, gin.H{"documents": docs})
}

func (h *DocumentHandler) Get(c *gin.Context) {
	tenantID, ok := middleware.TenantID(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, response.CodeUnauthorized, "tenant not found in token")
		return
	}
	documentID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	doc, err := h.docService.Get(tenantID, documentID)
	if err != nil {
		if errors.Is(err, app.ErrDocumentNotFound) {
			response.Error(c, http.StatusNotFound, response.CodeNotFound, err.Error())
			return
		}
		response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "fetch document failed")
		return
	}
	response.OK(c, doc)
}

type ReingestRequest struct {
	Content string `json:"content" binding:"required"`
}

func (h *DocumentHandler) Reingest(c *gin.Context) {
	tenantID, ok := middleware.TenantID(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, response.CodeUnauthorized, "tenant not found in token")
		return
	}
	documentID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req ReingestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid request payload")
		return
	}

	result, err := h.docService.Reingest(c.Request.Context(), tenantID, documentID, req.Content)
	if err != nil {
		if errors.Is(err, app.ErrDocumentNotFound) {
			response.Error(c, http.StatusNotFound, response.CodeNotFound, err.Error())
			return
		}
		respondIngestError(c, err, "document reingest failed")
		return
	}
	response.OK(c, result)
}

func (h *DocumentHandler) Delete(c *gin.Context) {
	tenantID, ok := middleware.TenantID(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, response.CodeUnauthorized, "tenant not found in token")
		return
	}
	documentID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	if err := h.docService.Delete(c.Request.Context(), tenantID, documentID); err != nil {
		if errors.Is(err, app.ErrDocumentNotFound) {
			response.Error(c, http.StatusNotFound, response.CodeNotFound, err.Error())
			return
		}
		response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "delete document failed")
		return
	}
	response.OK(c, gin.H{"deleted": documentID})
}

// respondIngestError maps ingestion failures to responses: invalid
// input and unusable content are client errors with the cause in the
// message, everything else stays a generic server error.
func respondIngestError(c *gin.Context, err error, fallbackMsg string) {
	var ingErr *ingest.IngestionError
	switch {
	case errors.Is(err, app.ErrInvalidInput), errors.Is(err, ingest.ErrEmptyContent):
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, err.Error())
	case errors.As(err, &ingErr):
		response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, ingErr.Error())
	default:
		response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, fallbackMsg)
	}
}

func parseIDParam(c *gin.Context, name string) (uint, bool) {
	raw := c.Param(name)
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid id parameter")
		return 0, false
	}
	return uint(id), true
}
