package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/samber/lo"
)

const (
	BackendWorker = "worker"
	BackendDezgo  = "dezgo"

	TranslatorWeb   = "web"
	TranslatorCloud = "cloud"

	ArchiveS3   = "s3"
	ArchiveFile = "file"
)

// Config holds the environment driven configuration for the service.
type Config struct {
	Port            int           `env:"PORT" envDefault:"8000"`
	LogLevel        string        `env:"LOG_LEVEL" envDefault:"info"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"10s"`
	Release         bool          `env:"GIN_RELEASE" envDefault:"true"`

	// Model
	BaseModelID  string  `env:"BASE_MODEL_ID,notEmpty"`
	LoRAWeights  string  `env:"LORA_WEIGHTS"`
	LoRAStrength float64 `env:"LORA_STRENGTH" envDefault:"0.7"`
	ModelBackend string  `env:"MODEL_BACKEND" envDefault:"worker"`
	WorkerURL    string  `env:"MODEL_WORKER_URL" envDefault:"http://localhost:7860"`
	DType        string  `env:"MODEL_DTYPE" envDefault:"float16"`
	Variant      string  `env:"MODEL_VARIANT" envDefault:"fp16"`
	Device       string  `env:"MODEL_DEVICE" envDefault:"cuda"`
	DezgoKey     string  `env:"DEZGO_KEY"`
	DezgoKeyPath string  `env:"DEZGO_KEY_PARAM"`

	GenerateConcurrency int64 `env:"GENERATE_CONCURRENCY" envDefault:"1"`

	// Prompt normalisation
	Translator          string   `env:"TRANSLATOR" envDefault:"web"`
	TranslateKey        string   `env:"GOOGLE_TRANSLATE_KEY"`
	TranslateKeyPath    string   `env:"GOOGLE_TRANSLATE_KEY_PARAM"`
	DetectLanguages     []string `env:"DETECT_LANGUAGES" envDefault:"en,vi" envSeparator:","`
	DetectMinDistance   float64  `env:"DETECT_MIN_DISTANCE" envDefault:"0"`
	TranslateWebBaseURL string   `env:"TRANSLATE_WEB_URL" envDefault:"https://translate.googleapis.com"`

	// Archive
	ArchiveBackend      string `env:"ARCHIVE_BACKEND"`
	ArchiveBucket       string `env:"ARCHIVE_BUCKET"`
	ArchiveDir          string `env:"ARCHIVE_DIR" envDefault:"archive"`
	ArchiveDistribution string `env:"ARCHIVE_DISTRIBUTION"`
	ArchiveBaseURL      string `env:"ARCHIVE_BASE_URL"`
}

// Load parses environment variables into Config.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env config: %w", err)
	}
	if err := cfg.normalize(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) normalize() error {
	c.BaseModelID = strings.TrimSpace(c.BaseModelID)
	c.LoRAWeights = strings.TrimSpace(c.LoRAWeights)
	c.ModelBackend = strings.ToLower(strings.TrimSpace(c.ModelBackend))
	c.Translator = strings.ToLower(strings.TrimSpace(c.Translator))
	c.ArchiveBackend = strings.ToLower(strings.TrimSpace(c.ArchiveBackend))
	c.DetectLanguages = lo.Uniq(lo.FilterMap(c.DetectLanguages, func(s string, _ int) (string, bool) {
		s = strings.ToLower(strings.TrimSpace(s))
		return s, s != ""
	}))

	if !lo.Contains([]string{BackendWorker, BackendDezgo}, c.ModelBackend) {
		return fmt.Errorf("MODEL_BACKEND must be %q or %q, got %q", BackendWorker, BackendDezgo, c.ModelBackend)
	}
	if !lo.Contains([]string{TranslatorWeb, TranslatorCloud}, c.Translator) {
		return fmt.Errorf("TRANSLATOR must be %q or %q, got %q", TranslatorWeb, TranslatorCloud, c.Translator)
	}
	if !lo.Contains([]string{"", ArchiveS3, ArchiveFile}, c.ArchiveBackend) {
		return fmt.Errorf("ARCHIVE_BACKEND must be empty, %q or %q, got %q", ArchiveS3, ArchiveFile, c.ArchiveBackend)
	}
	if c.ArchiveBackend == ArchiveS3 && strings.TrimSpace(c.ArchiveBucket) == "" {
		return errors.New("ARCHIVE_BUCKET is required when ARCHIVE_BACKEND is s3")
	}
	if len(c.DetectLanguages) < 2 || !lo.Contains(c.DetectLanguages, "vi") {
		return errors.New("DETECT_LANGUAGES needs at least two languages including vi")
	}
	if c.GenerateConcurrency < 1 {
		c.GenerateConcurrency = 1
	}
	return nil
}

// Addr returns the HTTP listen address.
func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.Port)
}

func (c *Config) ArchiveEnabled() bool {
	return c.ArchiveBackend != ""
}
