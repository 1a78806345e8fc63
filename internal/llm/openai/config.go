package openai

import (
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/joseph-ayodele/lecture-notes/constants"
	"github.com/joseph-ayodele/lecture-notes/internal/common"
)

// Config for an OpenAI-compatible endpoint (Groq by default).
type Config struct {
	APIKey      string        // if empty, falls back to env LLM_API_KEY
	BaseURL     string        // default https://api.groq.com/openai/v1
	STTModel    string        // e.g. "whisper-large-v3"
	STTMaxBytes int64         // per-file ceiling enforced before upload
	Timeout     time.Duration // http client timeout
}

// ConfigFrom maps the env-driven LLM settings.
func ConfigFrom(c common.LLMConfig) Config {
	return Config{
		APIKey:      c.APIKey,
		BaseURL:     c.BaseURL,
		STTModel:    c.STTModel,
		STTMaxBytes: c.STTMaxBytes,
		Timeout:     c.Timeout,
	}
}

type Client struct {
	cfg    Config
	http   *http.Client
	logger *slog.Logger
}

func NewClient(cfg Config, logger *slog.Logger) *Client {
	if cfg.APIKey == "" {
		cfg.APIKey = os.Getenv("LLM_API_KEY")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.groq.com/openai/v1"
	}
	if cfg.STTModel == "" {
		cfg.STTModel = "whisper-large-v3"
	}
	if cfg.STTMaxBytes <= 0 {
		cfg.STTMaxBytes = constants.STTMaxBytes
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 120 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		cfg:    cfg,
		http:   &http.Client{Timeout: cfg.Timeout},
		logger: logger,
	}
}

// WithHTTPClient swaps the transport; tests point it at httptest servers.
func (c *Client) WithHTTPClient(h *http.Client) *Client {
	if h != nil {
		c.http = h
	}
	return c
}
