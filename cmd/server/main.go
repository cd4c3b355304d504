package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/themobileprof/chatrelay/internal/api"
	"github.com/themobileprof/chatrelay/internal/config"
	"github.com/themobileprof/chatrelay/internal/metrics"
	"github.com/themobileprof/chatrelay/pkg/openai"
)

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: .env file not found: %v", err)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	if !cfg.IsDevelopment() {
		gin.SetMode(gin.ReleaseMode)
	}

	if cfg.OpenAIAPIKey == "" {
		log.Printf("Warning: OPENAI_API_KEY is not set; provider calls will fail")
	}
	if cfg.APIKey == "" && !cfg.IsDevelopment() {
		log.Printf("Warning: API_KEY is not set; every /api request will be rejected")
	}

	openaiClient := openai.NewClient(openai.Config{
		APIKey:  cfg.OpenAIAPIKey,
		BaseURL: cfg.OpenAIBaseURL,
		Model:   cfg.OpenAIModel,
	})

	collector := metrics.NewCollector(nil)
	router := api.NewRouter(cfg, openaiClient, collector)

	// WriteTimeout stays unset so long SSE responses are not cut off
	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Printf("🚀 Server running on port %s", cfg.Port)
		log.Printf("📍 Environment: %s", cfg.Environment)
		log.Printf("🤖 Model: %s (%s)", openaiClient.Model(), openaiClient.BaseURL())
		log.Printf("📝 API endpoints:")
		log.Printf("   GET    /")
		log.Printf("   GET    /health")
		log.Printf("   GET    /metrics")
		log.Printf("   POST   /api/chat")
		log.Printf("   POST   /api/chat/stream (SSE)")
		log.Printf("")
		log.Printf("Press Ctrl+C to stop")

		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Println("Server exited")
}
