package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hogarfin/hogarfin/internal/backup"
	"github.com/hogarfin/hogarfin/internal/database"
	"github.com/hogarfin/hogarfin/internal/logging"
	"github.com/hogarfin/hogarfin/internal/push"
	"github.com/hogarfin/hogarfin/internal/server"
)

func env(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func main() {
	logger := logging.Setup(env("HOGARFIN_LOG_LEVEL", "info"))

	port := env("HOGARFIN_PORT", "8080")
	dbPath := env("HOGARFIN_DB_PATH", "hogarfin.db")

	db, err := database.Open(dbPath)
	if err != nil {
		logger.Error("failed to open database", "path", dbPath, "error", err)
		os.Exit(1)
	}
	defer db.Close()

	backupCfg := backup.Config{
		S3: backup.S3Config{
			Endpoint:  os.Getenv("HOGARFIN_S3_ENDPOINT"),
			Bucket:    os.Getenv("HOGARFIN_S3_BUCKET"),
			Region:    env("HOGARFIN_S3_REGION", "auto"),
			AccessKey: os.Getenv("HOGARFIN_S3_ACCESS_KEY"),
			SecretKey: os.Getenv("HOGARFIN_S3_SECRET_KEY"),
		},
		DBPath: dbPath,
	}

	pushCfg := push.Config{
		VAPIDPublicKey:  os.Getenv("HOGARFIN_VAPID_PUBLIC_KEY"),
		VAPIDPrivateKey: os.Getenv("HOGARFIN_VAPID_PRIVATE_KEY"),
	}

	srv := server.New(db, backupCfg, pushCfg, logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	srv.BackupManager().Start(ctx)
	defer srv.BackupManager().Stop()

	if sched := srv.PushScheduler(); sched != nil {
		sched.Start(ctx)
		defer sched.Stop()
	} else {
		logger.Info("push notifications disabled, no VAPID keys configured")
	}

	// Hourly housekeeping: expired sessions and stale rate limiter windows.
	go func() {
		ticker := time.NewTicker(time.Hour)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if n, err := srv.SessionStore().DeleteExpired(); err != nil {
					logger.Warn("session cleanup failed", "error", err)
				} else if n > 0 {
					logger.Info("expired sessions removed", "count", n)
				}
				srv.RateLimiter().Cleanup()
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
		fmt.Printf("Hogarfin running at http://localhost:%s\n", port)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	fmt.Println("\nShutting down...")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", "error", err)
		os.Exit(1)
	}
}
