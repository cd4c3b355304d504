package api

import (
	"github.com/gin-gonic/gin"
	"github.com/themobileprof/chatrelay/internal/api/middleware"
	"github.com/themobileprof/chatrelay/internal/config"
	"github.com/themobileprof/chatrelay/internal/metrics"
	"github.com/themobileprof/chatrelay/internal/prompt"
	"github.com/themobileprof/chatrelay/pkg/llm"
)

// NewRouter wires every route and middleware. The access gate covers the
// /api group only; banner, health and metrics stay public.
func NewRouter(cfg config.ServiceConfig, client llm.Client, collector *metrics.Collector) *gin.Engine {
	if collector == nil {
		collector = metrics.NewCollector(nil)
	}

	router := gin.New()
	router.Use(gin.LoggerWithFormatter(accessLogFormat))
	router.Use(gin.CustomRecovery(Recover))
	router.Use(middleware.RequestID())
	router.Use(middleware.CORS())
	router.Use(middleware.Metrics(collector))
	router.Use(middleware.BodyLimit(cfg.MaxBodyBytes))

	systemHandler := NewSystemHandler()
	chatHandler := NewChatHandler(client, prompt.NewBuilder(), cfg, collector)

	router.GET("/", systemHandler.Root)
	router.GET("/health", systemHandler.Health)
	router.GET("/metrics", gin.WrapH(collector.Handler()))

	chat := router.Group("/api")
	chat.Use(middleware.RequireAPIKey(cfg.APIKey, cfg.IsDevelopment()))
	{
		chat.POST("/chat", chatHandler.Chat)
		chat.POST("/chat/stream", chatHandler.ChatStream)
	}

	router.NoRoute(systemHandler.NotFound)

	return router
}
