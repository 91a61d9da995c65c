package config

import (
	"errors"
	"io"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Server struct {
		Port           string   `yaml:"port" env:"PORT"`
		AllowedOrigins []string `yaml:"allowed_origins" env:"ALLOWED_ORIGINS"`
	} `yaml:"server" envPrefix:"SERVER_"`
	Redis struct {
		Addr     string `yaml:"addr" env:"ADDR"`
		Password string `yaml:"password" env:"PASSWORD"`
		DB       int    `yaml:"db" env:"DB"`
	} `yaml:"redis" envPrefix:"REDIS_"`
	Postgres struct {
		URL string `yaml:"url" env:"URL"`
	} `yaml:"postgres" envPrefix:"POSTGRES_"`
	Catalog struct {
		ID   string `yaml:"id" env:"ID"`
		TTL  string `yaml:"ttl" env:"TTL"`
		File string `yaml:"file" env:"FILE"` // optional JSON file replacing the embedded catalog
	} `yaml:"catalog" envPrefix:"CATALOG_"`
	Quiz struct {
		Mode       string `yaml:"mode" env:"MODE"`
		Difficulty string `yaml:"difficulty" env:"DIFFICULTY"`
		IdleTTL    string `yaml:"idle_ttl" env:"IDLE_TTL"`
	} `yaml:"quiz" envPrefix:"QUIZ_"`
	Log struct {
		Level  string `yaml:"level" env:"LEVEL"`
		Format string `yaml:"format" env:"FORMAT"` // "console" or "json"
	} `yaml:"log" envPrefix:"LOG_"`
}

// EnvPrefix is prepended to every environment override, e.g. CITYQUIZ_REDIS_ADDR.
const EnvPrefix = "CITYQUIZ_"

// Load reads YAML config from path and applies environment overrides.
// A missing file leaves the defaults in place.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		return cfg, err
	default:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, err
		}
	}
	if err := env.ParseWithOptions(&cfg, env.Options{Prefix: EnvPrefix}); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Default returns the settings used when neither file nor environment set them.
func Default() Config {
	cfg := Config{}
	cfg.Server.Port = "8080"
	cfg.Catalog.ID = "srbija"
	cfg.Catalog.TTL = "10m"
	cfg.Quiz.Mode = "selection"
	cfg.Quiz.Difficulty = "easy"
	cfg.Quiz.IdleTTL = "30m"
	cfg.Log.Level = "info"
	cfg.Log.Format = "console"
	return cfg
}

// TTLDuration parses a duration string or returns the fallback if empty.
func TTLDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}
	if d, err := time.ParseDuration(raw); err == nil {
		return d
	}
	return fallback
}

// NewLogger builds the process logger described by the log section.
func (c Config) NewLogger(w io.Writer) zerolog.Logger {
	level, err := zerolog.ParseLevel(strings.ToLower(c.Log.Level))
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	if c.Log.Format != "json" {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}
	}
	return zerolog.New(w).Level(level).With().Timestamp().Logger()
}
