package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/dmorgan81/text2image/internal/config"
	"github.com/dmorgan81/text2image/internal/handler"
	"github.com/dmorgan81/text2image/internal/inject"
	"github.com/dmorgan81/text2image/internal/log"
	"github.com/joho/godotenv"
	"github.com/samber/do"
)

func main() {
	loadEnvFiles()
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "text2image: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger := log.New(os.Stderr, log.ParseLevel(cfg.LogLevel))
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = log.NewContext(ctx, logger)

	injector := inject.Setup(ctx, cfg)
	defer func() {
		if err := injector.Shutdown(); err != nil {
			logger.Warn("shutdown failed", "error", err)
		}
	}()

	return do.MustInvoke[*handler.Server](injector).Run(ctx)
}

// loadEnvFiles fills in unset variables from a local .env, if one exists.
func loadEnvFiles() {
	for _, path := range []string{".env", "../.env"} {
		if _, err := os.Stat(path); err != nil {
			continue
		}
		if err := godotenv.Load(path); err != nil {
			fmt.Fprintf(os.Stderr, "warning: failed to load %s: %v\n", path, err)
		}
	}
}
