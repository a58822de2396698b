package main

import (
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/KietNT20/gender-healthcare-rest-sub002/internal/labtest"
	"github.com/KietNT20/gender-healthcare-rest-sub002/pkg/config"
	"github.com/KietNT20/gender-healthcare-rest-sub002/pkg/logger"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize logger
	logger := logger.New(cfg.LogLevel)

	// Initialize Testing Service
	service := labtest.New(cfg, logger)

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)

	// Start service in a goroutine
	go func() {
		logger.Infof("Starting Testing Service on %s", addr)
		if err := service.Start(addr); err != nil {
			logger.Fatalf("Failed to start Testing Service: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down Testing Service...")
	if err := service.Stop(); err != nil {
		logger.Errorf("Error during shutdown: %v", err)
	}
	logger.Info("Testing Service stopped")
}
