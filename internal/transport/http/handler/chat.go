package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"supportpilot/internal/app"
	"supportpilot/internal/transport/http/middleware"
	"supportpilot/internal/transport/http/response"
)

type ChatHandler struct {
	convService *app.ConversationService
}

func NewChatHandler(convService *app.ConversationService) *ChatHandler {
	return &ChatHandler{convService: convService}
}

type SendMessageRequest struct {
	CustomerKey  string `json:"customer_key" binding:"required,max=128"`
	CustomerName string `json:"customer_name" binding:"max=128"`
	Content      string `json:"content" binding:"required"`
}

func (h *ChatHandler) SendMessage(c *gin.Context) {
	tenantID, ok := middleware.TenantID(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, response.CodeUnauthorized, "tenant not found in token")
		return
	}

	var req SendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid request payload")
		return
	}

	result, err := h.convService.ProcessMessage(c.Request.Context(), app.ProcessMessageInput{
		TenantID:     tenantID,
		CustomerKey:  req.CustomerKey,
		CustomerName: req.CustomerName,
		Content:      req.Content,
	})
	if err != nil {
		switch {
		case errors.Is(err, app.ErrInvalidInput), errors.Is(err, app.ErrMessageEmpty):
			response.Error(c, http.StatusBadRequest, response.CodeBadRequest, err.Error())
		default:
			response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "process message failed")
		}
		return
	}
	response.OK(c, result)
}

func (h *ChatHandler) ListConversations(c *gin.Context) {
	tenantID, ok := middleware.TenantID(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, response.CodeUnauthorized, "tenant not found in token")
		return
	}

	conversations, err := h.convService.List(tenantID)
	if err != nil {
		response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "list conversations failed")
		return
	}
	response.OK(c, gin.H{"conversations": conversations})
}

func (h *ChatHandler) GetMessages(c *gin.Context) {
	tenantID, ok := middleware.TenantID(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, response.CodeUnauthorized, "tenant not found in token")
		return
	}
	conversationID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	messages, err := h.convService.GetMessages(tenantID, conversationID)
	if err != nil {
		if errors.Is(err, app.ErrConversationNotFound) {
			response.Error(c, http.StatusNotFound, response.CodeNotFound, err.Error())
			return
		}
		response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "fetch messages failed")
		return
	}
	response.OK(c, gin.H{"messages": messages})
}
