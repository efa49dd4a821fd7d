package main

import (
	"context"
	"log/slog"
	"os"
	"strings"

	"chartgen/internal/api"
	"chartgen/internal/config"
	"chartgen/internal/redis"
	"chartgen/internal/service/ai"
	"chartgen/internal/service/chart"
	"chartgen/internal/storage"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
)

func main() {
	cfg, err := config.Load(os.Getenv("CHARTGEN_CONFIG"))
	if err != nil {
		slog.Error("load config", "error", err)
		os.Exit(1)
	}
	logger := newLogger(cfg.BasicConfig.LogLevel, cfg.BasicConfig.LogFormat)
	slog.SetDefault(logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	chatModel, err := ai.NewChatModel(ctx, cfg.Provider)
	if err != nil {
		fatal(logger, "init chat model", err)
	}
	logger.Info("chat model ready", "provider", cfg.Provider.Name, "model", cfg.Provider.Model)
	aiService := ai.NewService(chatModel, cfg.AITimeout(), logger)

	var db *sqlx.DB
	if dbType := cfg.BasicConfig.Database; dbType != "" {
		db, err = storage.Open(dbType, cfg)
		if err != nil {
			fatal(logger, "open database", err)
		}
		defer db.Close()
		if err := storage.Migrate(db, dbType); err != nil {
			fatal(logger, "migrate database", err)
		}
		logger.Info("chart history enabled", "driver", dbType)
	}

	var counter api.WindowCounter
	if cfg.RedisEnabled() && cfg.BasicConfig.RateLimit > 0 {
		rdb, err := redis.NewRedisClient(cfg)
		if err != nil {
			fatal(logger, "create redis client", err)
		}
		defer rdb.Close()
		counter = rdb
		logger.Info("rate limiting enabled", "per_minute", cfg.BasicConfig.RateLimit)
	}

	chartService := chart.NewService(aiService, db, logger)
	chart.StartUploadSweeper(ctx, cfg.BasicConfig.UploadDir, cfg.UploadTTL(), cfg.SweepInterval(), logger)

	handlers, err := api.NewHandler(chartService, api.Options{
		UploadDir:       cfg.BasicConfig.UploadDir,
		MaxUploadBytes:  cfg.BasicConfig.MaxUploadBytes,
		HistoryPageSize: cfg.BasicConfig.HistoryPageSize,
		RateLimit:       cfg.BasicConfig.RateLimit,
	}, counter, logger)
	if err != nil {
		fatal(logger, "init handlers", err)
	}

	router := gin.Default()
	handlers.RegisterRoutes(router)

	addr := cfg.BasicConfig.ServerAddress
	logger.Info("server listening", "addr", addr)
	if err := router.Run(addr); err != nil {
		fatal(logger, "server stopped", err)
	}
}

func newLogger(level, format string) *slog.Logger {
	var lvl slog.Level
	switch strings.ToLower(level) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: lvl}
	if strings.EqualFold(format, "json") {
		return slog.New(slog.NewJSONHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, opts))
}

func fatal(logger *slog.Logger, msg string, err error) {
	logger.Error(msg, "error", err)
	os.Exit(1)
}
