package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/joseph-ayodele/lecture-notes/internal/app"
	"github.com/joseph-ayodele/lecture-notes/internal/export"
)

// printError prints an error message to stderr, falling back to stdout if stderr fails
func printError(format string, args ...interface{}) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		fmt.Printf(format, args...)
	}
}

func main() {
	var (
		out   = flag.String("out", "notes.xlsx", "output XLSX file path")
		limit = flag.Int("limit", 500, "maximum number of notes, newest first")
	)
	flag.Parse()

	cfg, err := app.LoadStoreConfig()
	if err != nil {
		printError("Error: %v\n", err)
		os.Exit(2)
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	ctx := context.Background()
	a, err := app.Open(ctx, cfg, logger)
	if err != nil {
		printError("Error: opening database: %v\n", err)
		os.Exit(1)
	}
	defer a.Close()

	data, err := export.NewInventory(a.Notes, a.Exports, logger).WorkbookXLSX(ctx, *limit)
	if err != nil {
		printError("Error: building workbook: %v\n", err)
		os.Exit(1)
	}
	if err := os.WriteFile(*out, data, 0o644); err != nil {
		printError("Error: writing %s: %v\n", *out, err)
		os.Exit(1)
	}
	fmt.Printf("wrote %s (%d bytes)\n", *out, len(data))
}
