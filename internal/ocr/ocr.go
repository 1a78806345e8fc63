package ocr

import (
	"context"
	"log/slog"
	"strconv"

	"github.com/joseph-ayodele/lecture-notes/internal/command"
	"github.com/joseph-ayodele/lecture-notes/internal/common"
)

type Config struct {
	Pdftotext string // binary name or absolute path; if empty -> "pdftotext"
	Tesseract string // binary name or absolute path; if empty -> "tesseract"

	TesseractLang string // default "fra+eng"
	TessdataDir   string

	PSM int // e.g. 3 = fully automatic page segmentation; 0 leaves tesseract's default
}

// ConfigFrom maps the env-driven OCR settings.
func ConfigFrom(c common.OCRConfig) Config {
	return Config{
		Pdftotext:     c.Pdftotext,
		Tesseract:     c.Tesseract,
		TesseractLang: c.Lang,
		TessdataDir:   c.TessdataDir,
	}
}

type Extractor struct {
	cfg    Config
	runner command.Runner
	logger *slog.Logger
}

func NewExtractor(cfg Config, runner command.Runner, logger *slog.Logger) *Extractor {
	if logger == nil {
		logger = slog.Default()
	}
	if runner == nil {
		runner = command.NewExecRunner(logger)
	}
	if cfg.Pdftotext == "" {
		cfg.Pdftotext = "pdftotext"
	}
	if cfg.Tesseract == "" {
		cfg.Tesseract = "tesseract"
	}
	if cfg.TesseractLang == "" {
		cfg.TesseractLang = "fra+eng"
	}
	return &Extractor{cfg: cfg, runner: runner, logger: logger}
}

func (e *Extractor) tesseractArgs(path string) []string {
	// tesseract <file> stdout -l <lang>
	args := []string{path, "stdout", "-l", e.cfg.TesseractLang}
	if e.cfg.PSM > 0 {
		args = append(args, "--psm", strconv.Itoa(e.cfg.PSM))
	}
	if e.cfg.TessdataDir != "" {
		args = append(args, "--tessdata-dir", e.cfg.TessdataDir)
	}
	return args
}

// ImageText runs tesseract over one image and returns normalized text.
func (e *Extractor) ImageText(ctx context.Context, path string) (string, error) {
	out, errb, err := e.runner.Run(ctx, e.cfg.Tesseract, e.tesseractArgs(path)...)
	if err != nil {
		return "", command.Describe("tesseract", errb, err)
	}
	return Normalize(string(out)), nil
}

// ExtractText is the batch-friendly form of ImageText: failures are logged and
// reported as empty text.
func (e *Extractor) ExtractText(ctx context.Context, path string) string {
	txt, err := e.ImageText(ctx, path)
	if err != nil {
		e.logger.Warn("ocr.frame.failed", "path", path, "error", err)
		return ""
	}
	return txt
}
