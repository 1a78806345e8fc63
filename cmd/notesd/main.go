package main

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	"google.golang.org/grpc/health/grpc_health_v1"

	"github.com/joseph-ayodele/lecture-notes/internal/app"
	"github.com/joseph-ayodele/lecture-notes/internal/async"
	"github.com/joseph-ayodele/lecture-notes/internal/export"
	"github.com/joseph-ayodele/lecture-notes/internal/ingest"
)

func main() {
	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(2)
	}
	logger := app.NewLogger(cfg.LogPlain)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to start", "error", err)
		os.Exit(1)
	}
	defer a.Close()

	if err := a.DB.HealthCheck(ctx, 5*time.Second, logger); err != nil {
		logger.Error("failed to ping database", "error", err)
		os.Exit(1)
	}

	grpcServer := grpc.NewServer()
	healthServer := health.NewServer()
	grpc_health_v1.RegisterHealthServer(grpcServer, healthServer)

	var wg sync.WaitGroup
	var out async.Submitter
	var queue *async.ProcessorQueue

	if cfg.Broker.URL != "" {
		consumer, err := async.NewRabbitMQConsumer(cfg.Broker.URL, cfg.Broker.Queue, logger)
		if err != nil {
			logger.Error("failed to connect to broker", "error", err)
			os.Exit(1)
		}
		defer consumer.Close()
		producer, err := async.NewRabbitMQProducer(cfg.Broker.URL, cfg.Broker.Queue, logger)
		if err != nil {
			logger.Error("failed to open broker producer", "error", err)
			os.Exit(1)
		}
		defer producer.Close()
		out = producer

		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := consumer.Run(ctx, a.Dispatcher); err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("consumer stopped", "error", err)
				stop()
			}
		}()
	} else {
		queue = async.NewProcessorQueue(a.Dispatcher, logger,
			async.WithWorkers(cfg.Jobs.Workers),
			async.WithQueueSize(cfg.Jobs.QueueSize),
		)
		out = queue
	}

	if cfg.Inbox.Enabled {
		inbox := ingest.NewInbox(ingest.InboxConfig{
			UploadsDir:    cfg.Storage.UploadsDir(),
			UserID:        cfg.Inbox.UserID,
			ContentType:   cfg.Inbox.ContentType,
			ExportFormats: cfg.Inbox.ExportFormats,
		}, a.Intake(out), logger)
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := inbox.Run(ctx, cfg.Storage.InboxDir()); err != nil {
				logger.Error("inbox stopped", "error", err)
			}
		}()
	}

	sweeper := export.NewSweeper(cfg.Storage.ExportsDir(), cfg.Retention.MaxAge, a.Exports, logger)
	wg.Add(1)
	go func() {
		defer wg.Done()
		sweeper.Run(ctx, cfg.Retention.Interval)
	}()

	healthServer.SetServingStatus("", grpc_health_v1.HealthCheckResponse_SERVING)
	if addr := cfg.Server.GRPCAddr; addr != "" {
		if !strings.Contains(addr, ":") {
			addr = ":" + addr
		}
		lis, err := net.Listen("tcp", addr)
		if err != nil {
			logger.Error("failed to listen on address", "addr", addr, "error", err)
			os.Exit(1)
		}
		logger.Info("health endpoint listening", "addr", addr)
		go func() {
			if err := grpcServer.Serve(lis); err != nil {
				logger.Error("gRPC serve error", "error", err)
				stop()
			}
		}()
	}
	logger.Info("notesd started", "broker", cfg.Broker.URL != "", "inbox", cfg.Inbox.Enabled, "workers", cfg.Jobs.Workers)

	<-ctx.Done()
	healthServer.SetServingStatus("", grpc_health_v1.HealthCheckResponse_NOT_SERVING)
	logger.Info("shutting down")

	if queue != nil {
		drainCtx, cancel := context.WithTimeout(context.Background(), cfg.Jobs.Timeout)
		queue.Shutdown(drainCtx)
		cancel()
	}
	wg.Wait()
	grpcServer.GracefulStop()
}
