package http

import (
	"github.com/gin-gonic/gin"

	"supportpilot/internal/bootstrap"
	"supportpilot/internal/transport/http/handler"
	"supportpilot/internal/transport/http/middleware"
)

func NewRouter(app *bootstrap.App) *gin.Engine {
	gin.SetMode(app.Config.App.GinMode)
	router := gin.New()
	router.Use(gin.Logger(), gin.Recovery())

	healthHandler := handler.NewHealthHandler(app)
	router.GET("/healthz", healthHandler.Check)

	authHandler := handler.NewAuthHandler(app.AuthService)
	docHandler := handler.NewDocumentHandler(app.DocumentService)
	categoryHandler := handler.NewCategoryHandler(app.CategoryService)
	chatHandler := handler.NewChatHandler(app.ConversationService)
	gapHandler := handler.NewGapHandler(app.GapService)

	authJWT := middleware.AuthJWT(app.Config.Auth.JWTSecret)

	v1 := router.Group("/api/v1")

	authGroup := v1.Group("/auth")
	authGroup.POST("/register", authHandler.Register)
	authGroup.POST("/login", authHandler.Login)
	authGroup.GET("/me", authJWT, authHandler.Me)

	docGroup := v1.Group("/documents")
	docGroup.Use(authJWT)
	docGroup.POST("", docHandler.Ingest)
	docGroup.POST("/pdf", docHandler.IngestPDF)
	docGroup.GET("", docHandler.List)
	docGroup.GET("/:id", docHandler.Get)
	docGroup.PUT("/:id", docHandler.Reingest)
	docGroup.DELETE("/:id", docHandler.Delete)

	categoryGroup := v1.Group("/categories")
	categoryGroup.Use(authJWT)
	categoryGroup.POST("", categoryHandler.Create)
	categoryGroup.GET("", categoryHandler.List)
	categoryGroup.POST("/:id/approve", categoryHandler.Approve)
	categoryGroup.POST("/:id/archive", categoryHandler.Archive)

	convGroup := v1.Group("/conversations")
	convGroup.Use(authJWT)
	convGroup.POST("/messages", chatHandler.SendMessage)
	convGroup.GET("", chatHandler.ListConversations)
	convGroup.GET("/:id/messages", chatHandler.GetMessages)

	gapGroup := v1.Group("/gaps")
	gapGroup.Use(authJWT)
	gapGroup.POST("/scan", gapHandler.Scan)
	gapGroup.GET("/report", gapHandler.Report)
	gapGroup.GET("/suggested", gapHandler.ListSuggested)

	return router
}
