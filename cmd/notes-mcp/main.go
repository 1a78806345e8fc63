package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/mark3labs/mcp-go/server"

	"github.com/joseph-ayodele/lecture-notes/internal/app"
	"github.com/joseph-ayodele/lecture-notes/internal/async"
	"github.com/joseph-ayodele/lecture-notes/internal/mcptools"
)

// notes-mcp serves submit_media and media_status over stdio. Jobs are
// published to the broker; a notesd worker processes them.
func main() {
	// stdout carries the protocol
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	cfg, err := app.LoadStoreConfig()
	if err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(2)
	}
	if cfg.Broker.URL == "" {
		logger.Error("RABBITMQ_URL is required")
		os.Exit(2)
	}

	ctx := context.Background()
	a, err := app.Open(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer a.Close()

	producer, err := async.NewRabbitMQProducer(cfg.Broker.URL, cfg.Broker.Queue, logger)
	if err != nil {
		logger.Error("failed to connect to broker", "error", err)
		os.Exit(1)
	}
	defer producer.Close()

	s := server.NewMCPServer("lecture-notes", "0.1.0", server.WithToolCapabilities(false))
	mcptools.New(a.Intake(producer), a.Media, a.Notes, a.Exports, logger).Register(s)

	if err := server.ServeStdio(s); err != nil {
		logger.Error("mcp server stopped", "error", err)
		os.Exit(1)
	}
}
