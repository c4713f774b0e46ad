package config

import (
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"
)

const (
	ProductionBackend  = "https://fubamarket.com"
	DevelopmentBackend = "http://127.0.0.1:8000"
)

type Config struct {
	Port           string        `yaml:"port"`
	Env            string        `yaml:"env"`
	BackendURL     string        `yaml:"backend_url"`
	APIURL         string        `yaml:"api_url"`
	MediaBaseURL   string        `yaml:"media_base_url"`
	Storage        string        `yaml:"storage"`
	DBDSN          string        `yaml:"db_dsn"`
	RedisURL       string        `yaml:"redis_url"`
	LogFile        string        `yaml:"log_file"`
	SessionIdle    time.Duration `yaml:"session_idle"`
	BackendTimeout time.Duration `yaml:"backend_timeout"`
	OTelExporter   string        `yaml:"otel_exporter"`
	OTelEndpoint   string        `yaml:"otel_endpoint"`
}

// Load reads the environment. Backend-derived URLs stay empty unless set; see
// Resolved.
func Load() Config {
	cfg := Config{
		Port:           env("PORT", "3000"),
		Env:            env("APP_ENV", "development"),
		BackendURL:     os.Getenv("BACKEND_URL"),
		APIURL:         os.Getenv("API_URL"),
		MediaBaseURL:   os.Getenv("MEDIA_BASE_URL"),
		Storage:        env("STORAGE", "sqlite"),
		DBDSN:          env("DB_DSN", "storefront.db"), // sqlite file in project root
		RedisURL:       env("REDIS_URL", "redis://127.0.0.1:6379/0"),
		LogFile:        env("LOG_FILE", "./storefront.log"),
		SessionIdle:    envDuration("SESSION_IDLE", 30*time.Minute),
		BackendTimeout: envDuration("BACKEND_TIMEOUT", 15*time.Second),
		OTelExporter:   os.Getenv("OTEL_EXPORTER"),
		OTelEndpoint:   env("OTEL_ENDPOINT", "localhost:4317"),
	}
	return cfg
}

func env(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func envDuration(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		log.Printf("[config] ignoring %s=%q: not a positive duration", key, v)
		return def
	}
	return d
}

// ApplyFile overlays the YAML file at path. Keys absent from the file keep
// their current values.
func (c *Config) ApplyFile(path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(raw, c); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}

// AddFlags registers one flag per setting, defaulting to the current values.
func (c *Config) AddFlags(flagSet *pflag.FlagSet) {
	flagSet.StringVar(&c.Port, "port", c.Port, "listen port")
	flagSet.StringVar(&c.Env, "env", c.Env, "deployment environment (production switches the backend)")
	flagSet.StringVar(&c.BackendURL, "backend-url", c.BackendURL, "backend base URL")
	flagSet.StringVar(&c.APIURL, "api-url", c.APIURL, "backend API base URL (default: backend URL)")
	flagSet.StringVar(&c.MediaBaseURL, "media-base-url", c.MediaBaseURL, "prefix for relative photo paths (default: backend URL)")
	flagSet.StringVar(&c.Storage, "storage", c.Storage, "session storage: sqlite, redis or memory")
	flagSet.StringVar(&c.DBDSN, "db-dsn", c.DBDSN, "sqlite database file")
	flagSet.StringVar(&c.RedisURL, "redis-url", c.RedisURL, "redis URL")
	flagSet.StringVar(&c.LogFile, "log-file", c.LogFile, "also write logs to this file (empty disables)")
	flagSet.DurationVar(&c.SessionIdle, "session-idle", c.SessionIdle, "evict sessions idle this long from memory")
	flagSet.DurationVar(&c.BackendTimeout, "backend-timeout", c.BackendTimeout, "backend request timeout")
	flagSet.StringVar(&c.OTelExporter, "otel-exporter", c.OTelExporter, "trace exporter: stdout, otlp or empty")
	flagSet.StringVar(&c.OTelEndpoint, "otel-endpoint", c.OTelEndpoint, "OTLP gRPC endpoint")
}

func newFlagSet(c *Config, path *string) *pflag.FlagSet {
	fs := pflag.NewFlagSet("storefront", pflag.ContinueOnError)
	fs.StringVar(path, "config", *path, "YAML config file; overrides the environment")
	c.AddFlags(fs)
	return fs
}

// Parse builds the configuration from the environment, then the --config
// file, then the remaining flags, each layer overriding the one before.
// pflag.ErrHelp is returned as is.
func Parse(args []string) (Config, error) {
	cfg := Load()

	// first pass only finds --config
	var path string
	probe := cfg
	if err := newFlagSet(&probe, &path).Parse(args); err != nil {
		return cfg, err
	}
	if path != "" {
		if err := cfg.ApplyFile(path); err != nil {
			return cfg, err
		}
	}
	if err := newFlagSet(&cfg, &path).Parse(args); err != nil {
		return cfg, err
	}
	return cfg.Resolved(), nil
}

func (c Config) Production() bool { return strings.EqualFold(c.Env, "production") }

// Resolved fills the backend-derived URLs and strips trailing slashes.
func (c Config) Resolved() Config {
	if c.BackendURL == "" {
		c.BackendURL = DevelopmentBackend
		if c.Production() {
			c.BackendURL = ProductionBackend
		}
	}
	c.BackendURL = strings.TrimRight(c.BackendURL, "/")
	if c.APIURL == "" {
		c.APIURL = c.BackendURL
	}
	c.APIURL = strings.TrimRight(c.APIURL, "/")
	if c.MediaBaseURL == "" {
		c.MediaBaseURL = c.BackendURL
	}
	c.MediaBaseURL = strings.TrimRight(c.MediaBaseURL, "/")
	return c
}

func (c Config) Log() {
	log.Printf("[config] PORT=%s APP_ENV=%s BACKEND_URL=%s API_URL=%s STORAGE=%s LOG_FILE=%s",
		c.Port, c.Env, c.BackendURL, c.APIURL, c.Storage, c.LogFile)
}
