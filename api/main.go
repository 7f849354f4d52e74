// @title BBBAB Files
// @version 0.1
// @description Upload files to object storage and hand out signed download links.

// @host localhost:8080
// @BasePath /
// @query.collection.format multi
// @schemes http

package main

import (
	"context"
	"log"

	_ "tush00nka/bbbab_files/docs"
	"tush00nka/bbbab_files/internal/app"
	"tush00nka/bbbab_files/internal/config"
	"tush00nka/bbbab_files/internal/pkg/logger"

	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Config error: %v", err)
	}

	zl, err := logger.New(logger.Options{
		Level:       cfg.LogLevel,
		Development: cfg.LogDevelopment,
		File:        cfg.LogFile,
		MaxSizeMB:   cfg.LogMaxSizeMB,
		MaxBackups:  cfg.LogMaxBackups,
		MaxAgeDays:  cfg.LogMaxAgeDays,
	})
	if err != nil {
		log.Fatalf("Logger error: %v", err)
	}
	defer zl.Sync()
	zap.ReplaceGlobals(zl)

	if err := app.Run(context.Background(), cfg, zl); err != nil {
		zl.Fatal("server stopped with error", zap.Error(err))
	}
}
