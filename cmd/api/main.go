package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"contactfinder/internal/infrastructure"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, cleanup, err := infrastructure.Bootstrap(ctx)
	if err != nil {
		log.Fatalf("Bootstrap error: %v", err)
	}
	defer cleanup()

	slog.Info("contactfinder accounting core is running")

	if err := app.Run(ctx); err != nil {
		log.Fatalf("Run error: %v", err)
	}
}
