// cmd/tps55289d/main.go
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/tamzrod/tps55289/internal/config"
	"github.com/tamzrod/tps55289/internal/supervisor"
)

func main() {
	if len(os.Args) < 2 {
		log.Fatal("usage: tps55289d <config.yaml>")
	}

	cfgPath := os.Args[1]

	// --------------------
	// Load + validate config
	// --------------------

	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("config load failed: %v", err)
	}

	if err := config.Validate(cfg); err != nil {
		log.Fatalf("config validation failed: %v", err)
	}

	config.Normalize(cfg)

	// --------------------
	// Build buses, drivers, monitors
	// --------------------

	sup, err := supervisor.Build(cfg)
	if err != nil {
		log.Fatalf("supervisor build failed: %v", err)
	}

	if err := sup.Init(); err != nil {
		log.Printf("init incomplete: %v", err)
	}

	// --------------------
	// Run until SIGINT / SIGTERM
	// --------------------

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sup.Run(ctx)

	log.Printf("shutting down, disabling outputs")
	if err := sup.Close(); err != nil {
		log.Printf("shutdown: %v", err)
	}
}
