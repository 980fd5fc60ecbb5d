package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"promotion-campaigns/internal/auth"
	"promotion-campaigns/internal/config"
	"promotion-campaigns/internal/database"
	"promotion-campaigns/internal/handlers"
	"promotion-campaigns/internal/jobs"
	"promotion-campaigns/internal/reactions"
	"promotion-campaigns/internal/repository"
	"promotion-campaigns/internal/services"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize JWT
	auth.InitJWT(cfg.App.JWTSecret)

	// Connect to database
	if err := database.Connect(cfg.Database.Driver, cfg.GetDSN()); err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	// Run migrations
	if err := database.AutoMigrate(); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	// Cancelled on shutdown so that pending confirmations end as timed out
	lifetime, stopNominations := context.WithCancel(context.Background())
	defer stopNominations()

	// Status messages live in Redis when configured, otherwise in memory
	var board reactions.Board
	if cfg.Redis.URL != "" {
		client, err := reactions.ConnectRedis(lifetime, cfg.Redis.URL)
		if err != nil {
			log.Fatalf("Failed to connect to redis: %v", err)
		}
		defer client.Close()
		board = reactions.NewRedisBoard(client, cfg.Promotions.StatusMessageTTL)
		log.Println("Using Redis status message board")
	} else {
		board = reactions.NewMemoryBoard()
		log.Println("Using in-memory status message board")
	}

	// Initialize services
	repo := repository.NewRepository(database.GetDB())
	directoryService := services.NewDirectoryService(database.GetDB())
	promotionsService := services.NewPromotionsService(repo, directoryService, directoryService)
	workflow := services.NewConfirmationWorkflow(services.ConfirmationConfig{
		PollInterval: cfg.Promotions.PollInterval,
		Deadline:     cfg.Promotions.ConfirmDeadline,
	})
	nominator := services.NewNominator(lifetime, promotionsService, workflow, board)

	// Start status message janitor
	janitor := jobs.NewStatusMessageJanitor(board, cfg.Promotions.JanitorInterval, cfg.Promotions.StatusMessageTTL)
	go janitor.Start()

	// Initialize handlers
	promotionHandler := handlers.NewPromotionHandler(promotionsService, nominator, board)
	directoryHandler := handlers.NewDirectoryHandler(directoryService)

	allowedOrigins := []string{
		"http://localhost:3000",
		"http://localhost:5173",
		"http://127.0.0.1:3000",
		"http://127.0.0.1:5173",
	}
	if cfg.Server.FrontendURL != "" {
		allowedOrigins = append(allowedOrigins, cfg.Server.FrontendURL)
	}

	router := handlers.NewRouter(promotionHandler, directoryHandler, allowedOrigins)

	srv := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: router,
	}

	// Start server in a goroutine
	go func() {
		log.Printf("Server starting on port %s", cfg.Server.Port)
		log.Printf("Health check: http://localhost:%s/health", cfg.Server.Port)

		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("Server forced to shutdown: %v", err)
	}

	stopNominations()
	nominator.Wait()
	janitor.Stop()

	log.Println("Server exited")
}
