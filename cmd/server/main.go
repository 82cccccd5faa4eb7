package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	"github.com/univel/meetsync/internal/app"
	"github.com/univel/meetsync/internal/config"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg := config.MustLoad()

	a, err := app.New(ctx, cfg)
	if err != nil {
		log.Fatalf("failed to initialize: %v", err)
	}
	if err := a.Run(ctx); err != nil {
		log.Fatalf("server error: %v", err)
	}
}
