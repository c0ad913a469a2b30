package main

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/nepfaff/drake-blender-recorder/internal/api"
	"github.com/nepfaff/drake-blender-recorder/internal/catalog"
	"github.com/nepfaff/drake-blender-recorder/internal/config"
	"github.com/nepfaff/drake-blender-recorder/internal/db"
	"github.com/nepfaff/drake-blender-recorder/internal/keyframe"
	"github.com/nepfaff/drake-blender-recorder/internal/logging"
	"github.com/nepfaff/drake-blender-recorder/internal/recorder"
	"github.com/nepfaff/drake-blender-recorder/internal/scene"
	"github.com/nepfaff/drake-blender-recorder/internal/ui"
)

var Version = "0.1.0"

func main() {
	if err := run(); err != nil {
		log.Fatalf("fatal error: %v", err)
	}
}

func run() error {
	startTime := time.Now()

	cfg, err := config.New(os.Args[1:])
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if err := os.MkdirAll(cfg.DataDir(), 0755); err != nil {
		return fmt.Errorf("failed to create data dir: %w", err)
	}

	logger := logging.NewLogger(cfg.LogLevel())
	logger.Info("starting pose recording server",
		"version", Version,
		"data_dir", cfg.DataDir(),
		"dump_path", logging.SanitizePath(cfg.DumpPath()),
	)

	database, err := db.New(cfg.DBPath(), logger)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer database.Close()

	repo := catalog.NewRepository(database.Conn())

	deviceID, err := ensureDeviceID(repo)
	if err != nil {
		return fmt.Errorf("failed to ensure device ID: %w", err)
	}

	authToken, err := ensureAuthToken(repo)
	if err != nil {
		return fmt.Errorf("failed to ensure auth token: %w", err)
	}

	// Refusing an existing dump file must happen before the listener comes
	// up, so a misconfigured run never accepts a single frame.
	store, err := keyframe.NewStore(cfg.DumpPath())
	if err != nil {
		return fmt.Errorf("failed to create frame store: %w", err)
	}

	scratchDir, err := os.MkdirTemp("", "drake_blender_recorder_")
	if err != nil {
		return fmt.Errorf("failed to create scratch dir: %w", err)
	}
	defer os.RemoveAll(scratchDir)

	session := scene.NewSession(scene.Options{
		BaseFile:       cfg.BaseFile(),
		SettingsScript: cfg.SettingsScript(),
		Logger:         logger,
	})

	rec := recorder.New(recorder.Config{
		Session:    session,
		Store:      store,
		Repository: repo,
		ExportPath: cfg.ExportPath(),
		Logger:     logger,
	})

	fmt.Println()
	fmt.Println("╔═══════════════════════════════════════════════════════════╗")
	fmt.Println("║              DRAKE POSE RECORDING SERVER v0.1.0           ║")
	fmt.Println("╠═══════════════════════════════════════════════════════════╣")
	fmt.Printf("║  Render URL: http://%s:%-31d ║\n", cfg.Host(), cfg.Port())
	fmt.Printf("║  Auth Token: %-45s ║\n", authToken)
	fmt.Printf("║  Device ID:  %-45s ║\n", deviceID[:16]+"...")
	fmt.Println("╚═══════════════════════════════════════════════════════════╝")
	fmt.Println()

	apiServer := api.NewServer(api.ServerConfig{
		Host:       cfg.Host(),
		Port:       cfg.Port(),
		ScratchDir: scratchDir,
		Recorder:   rec,
		Repository: repo,
		Logger:     logger,
		StartTime:  startTime,
		DeviceID:   deviceID,
		Version:    Version,
	})

	go func() {
		if err := apiServer.Start(); err != nil {
			logger.Error("HTTP server error", "error", err)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	quitCh := make(chan struct{})

	go func() {
		select {
		case sig := <-sigCh:
			logger.Info("received shutdown signal", "signal", sig)
			close(quitCh)
		case <-quitCh:
		}
	}()

	if cfg.Headless() {
		logger.Info("running in headless mode (no system tray)")
	} else {
		tray := ui.NewTray(ui.TrayConfig{
			Recorder: rec,
			Logger:   logger,
			OnQuit: func() {
				close(quitCh)
			},
		})
		go tray.Run()

		go func() {
			ticker := time.NewTicker(2 * time.Second)
			defer ticker.Stop()
			for {
				select {
				case <-ticker.C:
					tray.RefreshFrames()
				case <-quitCh:
					return
				}
			}
		}()
	}

	<-quitCh

	logger.Info("initiating graceful shutdown")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := apiServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("failed to shutdown HTTP server", "error", err)
	}

	logger.Info("shutdown complete", "frames_recorded", rec.FrameCount())
	return nil
}

func ensureDeviceID(repo catalog.Repository) (string, error) {
	ctx := context.Background()

	existing, err := repo.GetConfig(ctx, "device_id")
	if err == nil && existing != "" {
		return existing, nil
	}

	idBytes := make([]byte, 16)
	if _, err := rand.Read(idBytes); err != nil {
		return "", err
	}
	deviceID := hex.EncodeToString(idBytes)

	if err := repo.SetConfig(ctx, "device_id", deviceID); err != nil {
		return "", err
	}

	return deviceID, nil
}

func ensureAuthToken(repo catalog.Repository) (string, error) {
	ctx := context.Background()

	existing, err := repo.GetConfig(ctx, "auth_token")
	if err == nil && existing != "" {
		return existing, nil
	}

	tokenBytes := make([]byte, 32)
	if _, err := rand.Read(tokenBytes); err != nil {
		return "", err
	}
	token := hex.EncodeToString(tokenBytes)

	if err := repo.SetConfig(ctx, "auth_token", token); err != nil {
		return "", err
	}

	return token, nil
}
