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

	"github.com/tejashvi-kumawat/love-note/internal/auth"
	"github.com/tejashvi-kumawat/love-note/internal/database"
	"github.com/tejashvi-kumawat/love-note/internal/logging"
	"github.com/tejashvi-kumawat/love-note/internal/push"
	"github.com/tejashvi-kumawat/love-note/internal/server"
)

func main() {
	genKeys := flag.Bool("generate-vapid-keys", false, "print a fresh VAPID key pair and exit")
	flag.Parse()

	if *genKeys {
		pub, priv, err := push.GenerateVAPIDKeys()
		if err != nil {
			log.Fatalf("failed to generate VAPID keys: %v", err)
		}
		fmt.Printf("LOVENOTES_VAPID_PUBLIC_KEY=%s\nLOVENOTES_VAPID_PRIVATE_KEY=%s\n", pub, priv)
		return
	}

	logger := logging.Setup(os.Getenv("LOVENOTES_LOG_LEVEL"))

	port := os.Getenv("LOVENOTES_PORT")
	if port == "" {
		port = "8080"
	}

	dbPath := os.Getenv("LOVENOTES_DB_PATH")
	if dbPath == "" {
		dbPath = "lovenotes.db"
	}

	secret := os.Getenv("LOVENOTES_JWT_SECRET")
	if secret == "" {
		log.Fatal("LOVENOTES_JWT_SECRET is required")
	}

	db, err := database.Open(dbPath)
	if err != nil {
		log.Fatalf("failed to open database: %v", err)
	}
	defer db.Close()

	cfg := server.Config{
		VAPIDPublicKey:  os.Getenv("LOVENOTES_VAPID_PUBLIC_KEY"),
		VAPIDPrivateKey: os.Getenv("LOVENOTES_VAPID_PRIVATE_KEY"),
	}

	srv := server.New(db, auth.NewTokenManager(secret), cfg, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	srv.Start(ctx)
	defer srv.Stop()

	// Background cleanup goroutine
	go func() {
		ticker := time.NewTicker(1 * time.Hour)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if err := srv.PushStore().CleanupSent(time.Now().AddDate(0, 0, -7)); err != nil {
					logger.Error("cleanup sent notifications", "error", err)
				}
				srv.RateLimiter().Cleanup()
			case <-ctx.Done():
				return
			}
		}
	}()

	httpServer := &http.Server{
		Addr:         ":" + port,
		Handler:      srv.Router(),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		logger.Info("love notes running", "addr", "http://localhost:"+port)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	<-ctx.Done()

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("shutdown error: %v", err)
	}
}
