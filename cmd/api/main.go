package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/xelth-com/sisifo/internal/config"
	"github.com/xelth-com/sisifo/internal/database"
	"github.com/xelth-com/sisifo/internal/events"
	"github.com/xelth-com/sisifo/internal/handlers"
	"github.com/xelth-com/sisifo/internal/services/reports"
	"github.com/xelth-com/sisifo/internal/storage"
	"github.com/xelth-com/sisifo/internal/store"
	"github.com/xelth-com/sisifo/internal/utils"
	"github.com/xelth-com/sisifo/internal/websocket"
)

func main() {
	// 1. Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// 2. Initialize the store (Detects Embedded vs External PostgreSQL automatically)
	var (
		st store.Store
		db *database.DB
	)
	switch cfg.StoreDriver {
	case "memory":
		log.Println("🧠 Store: in-memory (data is lost on exit)")
		st = store.NewMemoryStore()
	default:
		db, err = database.Connect(cfg.Database)
		if err != nil {
			log.Fatalf("Failed to connect to database: %v", err)
		}
		gs := store.NewGormStore(db.DB)

		// 3. Auto-Migrate Schema
		log.Println("🚀 Synchronizing database schema...")
		if err := gs.Migrate(); err != nil {
			log.Printf("⚠️ Migration warning: %v", err)
		} else {
			log.Println("✅ Schema synchronized successfully")
		}
		st = gs
	}

	// 4. Evidence storage
	files, err := openFileStore(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize evidence storage: %v", err)
	}

	// 5. Lifecycle events: live console feed, plus Kafka when configured
	hubCtx, stopHub := context.WithCancel(context.Background())
	hub := websocket.NewHub()
	go hub.Run(hubCtx)

	pub := events.Multi{hub}
	if len(cfg.Events.Brokers) > 0 {
		pub = append(pub, events.NewKafkaPublisher(cfg.Events.Brokers, cfg.Events.Topic))
		log.Printf("📣 Events: publishing to %s on %v", cfg.Events.Topic, cfg.Events.Brokers)
	}

	// 6. Set up HTTP router
	svc := reports.NewService(st, files, pub)
	router := handlers.NewRouter(cfg, st, files, svc, hub)

	// 7. Start server with graceful shutdown
	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Channel to listen for shutdown signals
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM, syscall.SIGINT)

	go func() {
		log.Printf("🚀 Sísifo API (%s) starting on port %s", cfg.NodeEnv, cfg.Port)
		for _, ip := range utils.GetLocalIPs() {
			log.Printf("   📱 Field devices on this network: http://%s:%s", ip, cfg.Port)
		}
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	sig := <-shutdown
	log.Printf("⚠️  Received signal: %v. Shutting down gracefully...", sig)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Printf("HTTP server shutdown error: %v", err)
	}

	stopHub()
	if err := pub.Close(); err != nil {
		log.Printf("Events close error: %v", err)
	}

	// Close database (this also stops embedded PostgreSQL)
	if db != nil {
		log.Println("🛑 Closing database connection...")
		if err := db.Close(); err != nil {
			log.Printf("Database close error: %v", err)
		}
	}

	log.Println("✅ Shutdown complete")
}

func openFileStore(cfg *config.Config) (storage.FileStore, error) {
	if cfg.Storage.Driver == "s3" {
		log.Printf("🪣 Storage: s3://%s/%s", cfg.Storage.S3Bucket, cfg.Storage.S3Prefix)
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return storage.NewS3Store(ctx, cfg.Storage.S3Bucket, cfg.Storage.S3Prefix, cfg.Storage.S3PathStyle)
	}
	log.Printf("📁 Storage: local directory %s", cfg.Storage.UploadDir)
	return storage.NewLocalStore(cfg.Storage.UploadDir, cfg.PublicBaseURL+"/uploads")
}
