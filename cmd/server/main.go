package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/ralskwo/FoodFinder/internal/app"
	"github.com/ralskwo/FoodFinder/internal/config"
	"github.com/ralskwo/FoodFinder/internal/constants"
	"github.com/ralskwo/FoodFinder/internal/health"
	"github.com/ralskwo/FoodFinder/internal/util"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger, err := util.EnableFileLogging(util.LogConfig{
		Dir:        cfg.Logging.Dir,
		MaxSizeMB:  cfg.Logging.MaxSizeMB,
		MaxBackups: cfg.Logging.MaxBackups,
		MaxAgeDays: cfg.Logging.MaxAgeDays,
		Compress:   cfg.Logging.Compress,
	}, "server.log", cfg.Logging.Level)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}

	health.Init(cfg.Version)

	logger.Info("FoodFinder server starting...",
		"version", cfg.Version,
		"log_level", cfg.Logging.Level,
	)

	if missing := cfg.CheckCredentials().Missing(); len(missing) > 0 {
		logger.Warn("일부 제공자 자격 증명이 비어 있어 폴백 경로로 동작합니다",
			"missing", strings.Join(missing, ", "),
		)
	}

	buildCtx, buildCancel := context.WithTimeout(context.Background(), constants.AppTimeout.Build)
	runtime, err := app.BuildRuntime(buildCtx, cfg, logger)
	buildCancel()
	if err != nil {
		logger.Error("Failed to assemble application services", "error", err)
		os.Exit(1)
	}
	defer runtime.Close()

	runtime.Run()
}
