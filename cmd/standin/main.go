package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/standin-bot/standin/pkg/runner"
	"github.com/standin-bot/standin/pkg/standin"
)

func main() {
	// Missing .env is fine; deployment may inject env directly.
	_ = godotenv.Load()

	configPath := flag.String("config", "", "optional yaml config file; env vars override")
	flag.Parse()

	cfg, err := standin.LoadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	engine, err := standin.NewEngine(standin.EngineOptions{Config: cfg})
	if err != nil {
		fmt.Fprintf(os.Stderr, "engine: %v\n", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	hup := make(chan os.Signal, 1)
	signal.Notify(hup, syscall.SIGHUP)
	go func() {
		for range hup {
			if err := engine.ReloadCatalog(); err != nil {
				slog.Warn("catalog_reload_failed", "error", err)
				continue
			}
			slog.Info("catalog_reloaded")
		}
	}()

	lr := runner.NewLifecycleRunner(engine, runner.Hooks{
		OnStop: func() { slog.Info("shutdown_complete") },
	}, 15*time.Second)

	go func() {
		if err := engine.Run(ctx); err != nil {
			slog.Error("engine_exited", "error", err)
		}
		stop()
	}()

	if err := lr.Run(ctx); err != nil {
		slog.Error("shutdown", "error", err)
		os.Exit(1)
	}
}
