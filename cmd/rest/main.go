package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"context-retriever-be/internal/bootstrap"
	"context-retriever-be/internal/config"
	"context-retriever-be/internal/pkg/logger"
	"context-retriever-be/internal/server"
	"context-retriever-be/internal/tracer"
	"context-retriever-be/pkg/database"
)

func main() {
	// 1. Load Configuration
	cfg := config.Load()

	// 2. Tracer (no-op unless OTEL_ENABLED=true)
	shutdownTracer := tracer.InitTracer(cfg.Telemetry, cfg.App.Environment)
	defer shutdownTracer(context.Background())

	// 3. Initialize Database
	gormDB, err := database.NewGormDBFromDSN(cfg.Database.Connection)
	if err != nil {
		log.Panicf("Unable to connect to GORM DB: %v", err)
	}

	// 4. Bootstrap Dependencies
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.App.Environment == "production")
	core, err := bootstrap.NewCore(gormDB, cfg, sysLogger)
	if err != nil {
		log.Fatalf("Bootstrap failed: %v", err)
	}
	container := bootstrap.NewContainer(core, cfg)
	defer container.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 5. Start Background Services
	go container.WebSocketHub.Run(ctx)

	if err := container.IngestionService.Consume(ctx); err != nil {
		log.Fatalf("Ingestion consumer failed to start: %v", err)
	}

	placeholderCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	if created, err := container.Pipeline.EnsurePlaceholder(placeholderCtx); err != nil {
		log.Printf("Warn: could not ensure placeholder document: %v", err)
	} else if created {
		log.Println("Info: empty corpus, placeholder document inserted")
	}
	cancel()

	// 6. Run Server
	srv := server.New(cfg, container)
	go func() {
		<-ctx.Done()
		log.Println("Shutting down...")
		if err := srv.Shutdown(10 * time.Second); err != nil {
			log.Printf("Shutdown error: %v", err)
		}
	}()

	if err := srv.Run(); err != nil {
		log.Printf("Server stopped: %v", err)
	}
}
