package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"termdeposit/config"
	"termdeposit/db"
	qhttp "termdeposit/http"
	"termdeposit/logging"
	"termdeposit/ml"
)

func main() {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("Failed to read .env: %v", err)
	}

	// Look for config in root even if run from cmd/
	configPath := "config.yaml"
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		configPath = filepath.Join("..", "config.yaml")
	}

	// 1. Load config
	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	// Relative paths in the config are relative to the config file
	rebasePaths(cfg, filepath.Dir(configPath))

	logger, err := logging.New(logging.Options{
		Level:      cfg.Log.Level,
		File:       cfg.Log.File,
		MaxSizeMB:  cfg.Log.MaxSizeMB,
		MaxBackups: cfg.Log.MaxBackups,
		MaxAgeDays: cfg.Log.MaxAgeDays,
	})
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer logger.Sync()

	// 2. Load the classifier once; nothing can be served without it
	model, err := loadClassifier(cfg)
	if err != nil {
		logger.Fatal("failed to load classifier", zap.Error(err))
	}
	predictor, err := ml.NewPredictor(model,
		ml.WithCacheSize(cfg.Model.CacheSize),
		ml.WithLogger(logger.Named("predictor")),
	)
	if err != nil {
		logger.Fatal("classifier does not match the feature encoder", zap.Error(err))
	}
	logger.Info("classifier loaded",
		zap.String("source", cfg.Model.Source),
		zap.Int("columns", len(predictor.Columns())))

	if cfg.Model.Watch && cfg.Model.Source == config.SourceFile {
		watcher, err := ml.WatchArtifact(cfg.Model.Path, logger.Named("watcher"), nil)
		if err != nil {
			logger.Warn("artifact watch disabled", zap.Error(err))
		} else {
			defer watcher.Close()
		}
	}

	// 3. Start HTTP server
	handler, err := qhttp.NewHandler(predictor, qhttp.UIConfig{
		Title:    cfg.UI.Title,
		Subtitle: cfg.UI.Subtitle,
		Project:  cfg.UI.Project,
		Members:  cfg.UI.Members,
	}, logger.Named("http"))
	if err != nil {
		logger.Fatal("failed to build handlers", zap.Error(err))
	}
	server := qhttp.NewServer(qhttp.ServerConfig{
		Port:         cfg.Http.Port,
		Timeout:      cfg.Http.Timeout,
		RateLimit:    cfg.Http.RateLimit,
		RateBurst:    cfg.Http.RateBurst,
		MaxBodyBytes: cfg.Http.MaxBodyBytes,
	}, handler, logger.Named("http"))
	go func() {
		if err := server.Start(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("HTTP server failed", zap.Error(err))
		}
	}()

	// 4. Handle graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutting down")

	if err := server.Stop(); err != nil {
		logger.Error("server forced to shutdown", zap.Error(err))
	}

	logger.Info("exiting")
}

func rebasePaths(cfg *config.Config, dir string) {
	for _, path := range []*string{&cfg.Model.Path, &cfg.Model.Database, &cfg.Log.File} {
		if *path != "" && !filepath.IsAbs(*path) {
			*path = filepath.Join(dir, *path)
		}
	}
}

func loadClassifier(cfg *config.Config) (ml.Classifier, error) {
	if cfg.Model.Source != config.SourceSQLite {
		return ml.LoadModel(cfg.Model.Path)
	}

	store, err := db.Open(cfg.Model.Database)
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %v", ml.ErrModelLoad, cfg.Model.Database, err)
	}
	defer store.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	payload, err := store.Load(ctx, cfg.Model.Name)
	if err != nil {
		return nil, fmt.Errorf("%w: artifact %q: %v", ml.ErrModelLoad, cfg.Model.Name, err)
	}
	return ml.DecodeModel(payload)
}
