package main

import (
	"context"
	"io"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/legaltrack-ph/legaltrack/backend/internal/config"
	"github.com/legaltrack-ph/legaltrack/backend/internal/database"
	"github.com/legaltrack-ph/legaltrack/backend/internal/logger"
	"github.com/legaltrack-ph/legaltrack/backend/internal/models"
	"github.com/legaltrack-ph/legaltrack/backend/internal/server"
	"github.com/legaltrack-ph/legaltrack/backend/internal/version"
)

func main() {
	// Setup logging with rotation
	logDir := filepath.Join("data", "logs")
	_ = os.MkdirAll(logDir, 0o755)

	rotator := &lumberjack.Logger{
		Filename:   filepath.Join(logDir, "legaltrack.log"),
		MaxSize:    10, // megabytes
		MaxBackups: 3,
		MaxAge:     28, // days
		Compress:   true,
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	mw := io.MultiWriter(os.Stdout, rotator)
	logger.Init(!cfg.IsProduction(), mw)
	log.SetOutput(mw)

	if len(os.Args) > 1 && os.Args[1] == "reset-password" {
		resetPassword(cfg)
		return
	}

	log.Printf("starting %s version %s", version.Name, version.Full())

	db, err := database.Open(cfg.DatabasePath)
	if err != nil {
		log.Fatalf("open database: %v", err)
	}

	srv, err := server.New(db, cfg)
	if err != nil {
		log.Fatalf("build server: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	log.Printf("listening on :%s", cfg.HTTPPort)
	if err := srv.Run(ctx); err != nil {
		log.Fatalf("server error: %v", err)
	}
}

// resetPassword is a break-glass CLI for locked-out administrators.
func resetPassword(cfg config.Config) {
	if len(os.Args) != 4 {
		log.Fatalf("Usage: %s reset-password <staff-id> <new-password>", os.Args[0])
	}
	staffID := os.Args[2]
	newPassword := os.Args[3]

	db, err := database.Open(cfg.DatabasePath)
	if err != nil {
		log.Fatalf("open database: %v", err)
	}

	var user models.User
	if err := db.Where("staff_id = ?", staffID).First(&user).Error; err != nil {
		log.Fatalf("account not found: %v", err)
	}

	if err := user.SetPassword(newPassword); err != nil {
		log.Fatalf("failed to hash password: %v", err)
	}

	// Unlock the account if locked
	user.LockedUntil = nil
	user.FailedLoginAttempts = 0
	user.MustChangePassword = true

	if err := db.Save(&user).Error; err != nil {
		log.Fatalf("failed to save account: %v", err)
	}

	log.Printf("Password updated for %s", staffID)
}
