package http

import (
	"github.com/gin-gonic/gin"

	"documet/internal/bootstrap"
	"documet/internal/transport/http/handler"
	"documet/internal/transport/http/middleware"
)

func NewRouter(app *bootstrap.App) *gin.Engine {
	gin.SetMode(app.Config.App.GinMode)
	router := gin.New()
	router.Use(gin.Logger(), gin.Recovery())

	healthHandler := handler.NewHealthHandler(app)
	authHandler := handler.NewAuthHandler(app.Auth)
	documentHandler := handler.NewDocumentHandler(app.Documents)
	qaHandler := handler.NewQAHandler(app.QA)
	shareHandler := handler.NewShareHandler(app.Documents, app.QA)
	waitlistHandler := handler.NewWaitlistHandler(app.Waitlist)

	router.GET("/healthz", healthHandler.Check)

	v1 := router.Group("/api/v1")

	authGroup := v1.Group("/auth")
	authGroup.POST("/register", authHandler.Register)
	authGroup.POST("/login", authHandler.Login)
	authGroup.GET("/me", middleware.AuthJWT(app.Config.Auth.JWTSecret), authHandler.Me)

	docGroup := v1.Group("/documents")
	docGroup.Use(middleware.AuthJWT(app.Config.Auth.JWTSecret))
	docGroup.POST("", documentHandler.Upload)
	docGroup.GET("", documentHandler.List)
	docGroup.GET("/:id", documentHandler.Get)
	docGroup.DELETE("/:id", documentHandler.Delete)
	docGroup.POST("/:id/share", documentHandler.Share)
	docGroup.POST("/:id/reindex", documentHandler.Reindex)
	docGroup.GET("/:id/summary", qaHandler.Summary)
	docGroup.GET("/:id/questions", qaHandler.Questions)

	qaGroup := v1.Group("/qa")
	qaGroup.Use(middleware.AuthJWT(app.Config.Auth.JWTSecret))
	qaGroup.POST("/ask", qaHandler.Ask)
	qaGroup.POST("/ask/stream", qaHandler.AskStream)

	// Public surface: share links and the waitlist take no auth.
	v1.GET("/share/:slug", shareHandler.Get)
	v1.POST("/share/:slug/ask", shareHandler.Ask)
	v1.POST("/waitlist", waitlistHandler.Join)

	return router
}
