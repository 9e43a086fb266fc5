package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"personachat/internal/api"
	"personachat/internal/auth"
	"personachat/internal/config"
	"personachat/internal/core"
	"personachat/internal/store"
)

const (
	demoEmail    = "demo@example.com"
	demoPassword = "demo1234"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	seedDemoFlag := flag.Bool("seed-demo", false, "Create or reset the demo user account and exit")
	flag.Parse()

	dbStore, err := store.NewSQLiteStore(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer dbStore.Close()

	tokens, err := auth.NewTokenService(cfg.JWTSecret)
	if err != nil {
		log.Fatalf("Failed to initialize token service: %v", err)
	}

	authService := core.NewAuthService(dbStore, tokens)

	if *seedDemoFlag {
		if err := authService.SeedDemoUser(context.Background(), demoEmail, demoPassword); err != nil {
			log.Fatalf("Failed to seed demo user: %v", err)
		}
		log.Printf("Demo user %s is ready. Exiting.", demoEmail)
		os.Exit(0)
	}

	llmService, err := core.NewLLMService(context.Background(), cfg.GeminiAPIKey)
	if err != nil {
		log.Fatalf("Failed to initialize LLM service: %v", err)
	}
	defer llmService.Close()

	profileService := core.NewProfileService(dbStore, llmService)
	chatService := core.NewChatService(dbStore, profileService, llmService)

	apiHandler := api.NewAPIHandler(authService, chatService, dbStore)
	router := api.NewRouter(apiHandler, cfg)

	serverAddr := fmt.Sprintf(":%s", cfg.HTTPPort)

	srv := &http.Server{
		Addr:         serverAddr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second, // LLM calls can take time
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		log.Printf("Starting server on %s. Press Ctrl+C to quit.", serverAddr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Could not listen on %s: %v\n", serverAddr, err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	// Give active connections, including in-flight generation calls, time
	// to finish.
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Println("Server exiting gracefully")
}
