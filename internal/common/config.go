package common

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	Database  DatabaseConfig
	Storage   StorageConfig
	Media     MediaConfig
	OCR       OCRConfig
	LLM       LLMConfig
	Jobs      JobsConfig
	Broker    BrokerConfig
	Retention RetentionConfig
	Server    ServerConfig
	Inbox     InboxConfig
	LogPlain  bool
}

// DatabaseConfig holds database-related configuration
type DatabaseConfig struct {
	Driver           string // "postgres" | "sqlite"
	DSN              string
	MaxConns         int32
	MinConns         int32
	MaxConnLifetime  time.Duration
	MaxConnIdleTime  time.Duration
	DialTimeout      time.Duration
	StatementTimeout time.Duration
}

// StorageConfig holds the filesystem areas shared by all jobs.
type StorageConfig struct {
	Root string
}

func (s StorageConfig) UploadsDir() string { return filepath.Join(s.Root, "uploads") }
func (s StorageConfig) AudioDir() string { return filepath.Join(s.Root, "audio") }
func (s StorageConfig) KeyframesDir() string { return filepath.Join(s.Root, "keyframes") }
func (s StorageConfig) NoteAssetsDir() string { return filepath.Join(s.Root, "notes_assets") }
func (s StorageConfig) ExportsDir() string { return filepath.Join(s.Root, "exports") }
func (s StorageConfig) InboxDir() string { return filepath.Join(s.Root, "inbox") }

// EnsureDirectories creates every storage area.
func (s StorageConfig) EnsureDirectories() error {
	for _, d := range []string{s.UploadsDir(), s.AudioDir(), s.KeyframesDir(), s.NoteAssetsDir(), s.ExportsDir(), s.InboxDir()} {
		if err := os.MkdirAll(d, 0o755); err != nil {
			return WrapError(err, "create storage dir "+d)
		}
	}
	return nil
}

// MediaConfig holds ffmpeg and audio processing settings
type MediaConfig struct {
	FFmpeg              string
	FFprobe             string
	ChunkDuration       time.Duration
	KeyframeInterval    time.Duration
	DenoiseBlock        time.Duration
	DenoiseProfile      time.Duration
	DenoisePropDecrease float64
	DenoisePeak         float64
}

// OCRConfig holds OCR-related configuration
type OCRConfig struct {
	Tesseract   string
	Pdftotext   string
	Lang        string
	TessdataDir string
	Workers     int
}

// LLMConfig holds provider configuration (OpenAI-compatible endpoint)
type LLMConfig struct {
	BaseURL     string
	APIKey      string
	STTModel    string
	RefineModel string
	NotesModel  string
	STTLanguage string
	STTMaxBytes int64
	Timeout     time.Duration
}

// JobsConfig holds dispatcher and queue settings
type JobsConfig struct {
	MaxAttempts int
	RetryBase   time.Duration
	Timeout     time.Duration
	Workers     int
	QueueSize   int
}

// BrokerConfig holds RabbitMQ settings. An empty URL disables the broker.
type BrokerConfig struct {
	URL   string
	Queue string
}

// RetentionConfig holds the export sweep policy
type RetentionConfig struct {
	MaxAge   time.Duration
	Interval time.Duration
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	GRPCAddr string // empty disables the health endpoint
}

// InboxConfig drives the drop-folder watcher.
type InboxConfig struct {
	Enabled       bool
	UserID        string
	ContentType   string
	ExportFormats []string
}

// LoadDotEnv loads a .env file when present. Missing files are not an error.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	var existing []string
	for _, p := range paths {
		if _, err := os.Stat(p); err == nil {
			existing = append(existing, p)
		}
	}
	if len(existing) == 0 {
		return nil
	}
	return godotenv.Load(existing...)
}

// LoadConfig loads configuration from environment variables
func LoadConfig() *Config {
	return &Config{
		Database: DatabaseConfig{
			Driver:           getEnv("DB_DRIVER", "sqlite"),
			DSN:              getEnv("DB_URL", "file:lecture-notes.db?_pragma=busy_timeout(5000)"),
			MaxConns:         getEnvAsInt32("DB_MAX_CONNS", 10),
			MinConns:         getEnvAsInt32("DB_MIN_CONNS", 1),
			MaxConnLifetime:  getEnvAsDuration("DB_MAX_CONN_LIFETIME", 30*time.Minute),
			MaxConnIdleTime:  getEnvAsDuration("DB_MAX_CONN_IDLE_TIME", 5*time.Minute),
			DialTimeout:      getEnvAsDuration("DB_DIAL_TIMEOUT", 3*time.Second),
			StatementTimeout: getEnvAsDuration("DB_STATEMENT_TIMEOUT", 0),
		},
		Storage: StorageConfig{
			Root: getEnv("STORAGE_DIR", "./storage"),
		},
		Media: MediaConfig{
			FFmpeg:              getEnv("FFMPEG_BIN", "ffmpeg"),
			FFprobe:             getEnv("FFPROBE_BIN", "ffprobe"),
			ChunkDuration:       getEnvAsDuration("CHUNK_SECONDS", 600*time.Second),
			KeyframeInterval:    getEnvAsDuration("KEYFRAME_INTERVAL", 2*time.Second),
			DenoiseBlock:        getEnvAsDuration("DENOISE_BLOCK", 30*time.Second),
			DenoiseProfile:      getEnvAsDuration("DENOISE_PROFILE", 500*time.Millisecond),
			DenoisePropDecrease: getEnvAsFloat64("DENOISE_PROP_DECREASE", 0.85),
			DenoisePeak:         getEnvAsFloat64("DENOISE_PEAK", 0.90),
		},
		OCR: OCRConfig{
			Tesseract:   getEnv("TESSERACT_BIN", "tesseract"),
			Pdftotext:   getEnv("PDFTOTEXT_BIN", "pdftotext"),
			Lang:        getEnv("OCR_LANG", "fra+eng"),
			TessdataDir: getEnv("TESSDATA_PREFIX", ""),
			Workers:     getEnvAsInt("OCR_WORKERS", 2),
		},
		LLM: LLMConfig{
			BaseURL:     getEnv("LLM_BASE_URL", "https://api.groq.com/openai/v1"),
			APIKey:      getEnv("LLM_API_KEY", os.Getenv("GROQ_API_KEY")),
			STTModel:    getEnv("STT_MODEL", "whisper-large-v3"),
			RefineModel: getEnv("REFINE_MODEL", "llama-3.1-8b-instant"),
			NotesModel:  getEnv("NOTES_MODEL", "llama-3.3-70b-versatile"),
			STTLanguage: getEnv("STT_LANGUAGE", "fr"),
			STTMaxBytes: int64(getEnvAsInt("STT_MAX_BYTES", 25*1024*1024)),
			Timeout:     getEnvAsDuration("LLM_TIMEOUT", 120*time.Second),
		},
		Jobs: JobsConfig{
			MaxAttempts: getEnvAsInt("JOB_MAX_ATTEMPTS", 3),
			RetryBase:   getEnvAsDuration("JOB_RETRY_BASE", 60*time.Second),
			Timeout:     getEnvAsDuration("JOB_TIMEOUT", time.Hour),
			Workers:     getEnvAsInt("QUEUE_WORKERS", 1),
			QueueSize:   getEnvAsInt("QUEUE_SIZE", 64),
		},
		Broker: BrokerConfig{
			URL:   getEnv("RABBITMQ_URL", ""),
			Queue: getEnv("RABBITMQ_QUEUE", "lecture_notes.jobs"),
		},
		Retention: RetentionConfig{
			MaxAge:   getEnvAsDuration("EXPORT_RETENTION", 24*time.Hour),
			Interval: getEnvAsDuration("RETENTION_INTERVAL", time.Hour),
		},
		Server: ServerConfig{
			GRPCAddr: lookupEnv("GRPC_ADDR", ":8081"),
		},
		Inbox: InboxConfig{
			Enabled:       getEnvAsBool("INBOX_ENABLED", true),
			UserID:        getEnv("INBOX_USER_ID", "inbox"),
			ContentType:   getEnv("INBOX_CONTENT_TYPE", "auto"),
			ExportFormats: getEnvAsList("INBOX_EXPORT_FORMATS", nil),
		},
		LogPlain: getEnvAsBool("LOG_PLAIN", false),
	}
}

// Helper functions for environment variable parsing
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// lookupEnv distinguishes an explicitly empty variable from an unset one.
func lookupEnv(key, defaultValue string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return defaultValue
}

func getEnvAsList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, p := range strings.Split(value, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsInt32(key string, defaultValue int32) int32 {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.ParseInt(value, 10, 32); err == nil {
			return int32(intVal)
		}
	}
	return defaultValue
}

func getEnvAsFloat64(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 64); err == nil {
			return floatVal
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

// getEnvAsDuration accepts Go durations ("90s") and bare integers as seconds.
func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
		if secs, err := strconv.Atoi(value); err == nil {
			return time.Duration(secs) * time.Second
		}
	}
	return defaultValue
}

// Validate validates the loaded configuration
func (c *Config) Validate() error {
	if err := c.Database.Validate(); err != nil {
		return err
	}
	if c.LLM.APIKey == "" {
		return NewAppError("CONFIG_ERROR", "LLM_API_KEY is required", ErrInvalidInput)
	}
	if c.Jobs.MaxAttempts < 1 {
		return NewAppError("CONFIG_ERROR", "JOB_MAX_ATTEMPTS must be at least 1", ErrInvalidInput)
	}
	if c.Storage.Root == "" {
		return NewAppError("CONFIG_ERROR", "STORAGE_DIR is required", ErrInvalidInput)
	}
	return nil
}

func (d DatabaseConfig) Validate() error {
	switch d.Driver {
	case "postgres", "sqlite":
	default:
		return NewAppError("CONFIG_ERROR", "DB_DRIVER must be postgres or sqlite", ErrInvalidInput)
	}
	if d.DSN == "" {
		return NewAppError("CONFIG_ERROR", "DB_URL is required", ErrInvalidInput)
	}
	return nil
}
