package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/ha583/cuddly-chainsaw/internal/common"
	"github.com/ha583/cuddly-chainsaw/internal/config"
	"github.com/ha583/cuddly-chainsaw/internal/httpapi/handlers"
	"github.com/ha583/cuddly-chainsaw/internal/httpapi/middleware"
	"github.com/ha583/cuddly-chainsaw/internal/store/rabbitmq"
	"github.com/ha583/cuddly-chainsaw/internal/store/redisstore"
)

func NewRouter(db *gorm.DB, cfg config.Config, rds *redisstore.Store, rabbit *rabbitmq.Publisher) *gin.Engine {
	r := gin.New()
	r.HandleMethodNotAllowed = true
	r.Use(gin.Logger())
	r.Use(middleware.Recovery())

	r.NoRoute(func(c *gin.Context) {
		common.Fail(c, http.StatusNotFound, 40400, "route not found")
	})
	r.NoMethod(func(c *gin.Context) {
		common.Fail(c, http.StatusMethodNotAllowed, 40500, "method not allowed")
	})

	r.Use(middleware.RequestID())

	h := handlers.NewHandler(db, cfg, rds, rabbit)

	r.GET("/ping", h.Ping)

	// auth
	r.POST("/login", h.Login)

	authGroup := r.Group("/")
	authGroup.Use(middleware.AuthRequired(cfg.JWTSecret))

	// sessions
	authGroup.POST("/chat/sessions", h.CreateChatSession)
	authGroup.GET("/chat/sessions", h.ListChatSessions)
	authGroup.GET("/chat/sessions/:session_id", h.GetChatSession)
	authGroup.PATCH("/chat/sessions/:session_id/title", h.UpdateChatSessionTitle)
	authGroup.PATCH("/chat/sessions/:session_id/pinned", h.UpdateChatSessionPinned)
	authGroup.DELETE("/chat/sessions/:session_id", h.DeleteChatSession)
	authGroup.GET("/chat/sessions/:session_id/messages", h.ListChatMessages)

	// generation
	authGroup.POST("/chat/messages/stream", h.SendChatMessageStream)
	authGroup.POST("/chat/stop", h.StopChatGeneration)
	authGroup.POST("/chat/selection", h.UpdateChatSelection)

	// async generation
	authGroup.POST("/chat/messages/async", h.SendChatMessageAsync)
	authGroup.GET("/chat/jobs/:job_id", h.GetChatJob)

	// providers
	authGroup.GET("/providers", h.ListProviders)
	authGroup.GET("/providers/:provider_id/models", h.ListProviderModels)

	// documents
	authGroup.POST("/documents", h.UploadDocument)

	return r
}
