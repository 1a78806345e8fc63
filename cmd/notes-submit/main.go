package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joseph-ayodele/lecture-notes/internal/app"
	"github.com/joseph-ayodele/lecture-notes/internal/async"
	"github.com/joseph-ayodele/lecture-notes/internal/entity"
)

// printError prints an error message to stderr, falling back to stdout if stderr fails
func printError(format string, args ...interface{}) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		fmt.Printf(format, args...)
	}
}

func main() {
	var (
		file        = flag.String("file", "", "path of the audio, video or document to process (required)")
		user        = flag.String("user", "cli", "user id recorded on the media row")
		contentType = flag.String("type", "auto", "content type, or auto to classify")
		formats     = flag.String("formats", "pdf", "comma-separated export formats (pdf,docx,txt)")
		inline      = flag.Bool("inline", false, "process in this process instead of publishing to the broker")
	)
	flag.Parse()

	if *file == "" {
		printError("Error: --file is required\n")
		os.Exit(1)
	}

	cfg, err := app.LoadConfig()
	if err != nil {
		printError("Error: %v\n", err)
		os.Exit(2)
	}
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sub := async.Submission{
		UserID:        *user,
		FilePath:      *file,
		ContentType:   *contentType,
		ExportFormats: strings.Split(*formats, ","),
	}

	if !*inline && cfg.Broker.URL != "" {
		a, err := app.Open(ctx, cfg, logger)
		if err != nil {
			printError("Error: %v\n", err)
			os.Exit(1)
		}
		defer a.Close()
		producer, err := async.NewRabbitMQProducer(cfg.Broker.URL, cfg.Broker.Queue, logger)
		if err != nil {
			printError("Error: %v\n", err)
			os.Exit(1)
		}
		defer producer.Close()
		m, err := a.Intake(producer).Submit(ctx, sub)
		if err != nil {
			printError("Error: submit: %v\n", err)
			os.Exit(1)
		}
		printMedia(m)
		return
	}

	a, err := app.New(ctx, cfg, logger)
	if err != nil {
		printError("Error: %v\n", err)
		os.Exit(1)
	}
	defer a.Close()

	queue := async.NewProcessorQueue(a.Dispatcher, logger, async.WithWorkers(1), async.WithQueueSize(1))
	m, err := a.Intake(queue).Submit(ctx, sub)
	if err != nil {
		printError("Error: submit: %v\n", err)
		os.Exit(1)
	}
	queue.Shutdown(ctx)

	final, err := a.Media.GetByID(context.Background(), m.ID.String())
	if err != nil {
		printError("Error: reading status: %v\n", err)
		os.Exit(1)
	}
	printMedia(final)
	if note, err := a.Notes.GetByMediaID(context.Background(), m.ID.String()); err == nil {
		exports, _ := a.Exports.ListByNote(context.Background(), note.ID.String())
		for _, e := range exports {
			fmt.Printf("export %s %s\n", e.Format, e.FilePath)
		}
	}
}

func printMedia(m *entity.Media) {
	b, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		printError("Error: %v\n", err)
		return
	}
	fmt.Println(string(b))
}
