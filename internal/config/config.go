package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/rahulyhg/trackbook/internal/core/model"
)

type Config struct {
	Host     string `yaml:"host"`
	Port     string `yaml:"port"`
	TCPPort  int    `yaml:"tcp_port"`
	LogLevel string `yaml:"log_level"`
	LogFile  string `yaml:"log_file"`

	Storage string      `yaml:"storage"` // "mongo" or "memory"
	Mongo   MongoConfig `yaml:"mongo"`

	RedisURL   string        `yaml:"redis_url"`
	SummaryTTL time.Duration `yaml:"summary_ttl"`

	StopOver  model.StopOverPolicy `yaml:"stop_over"`
	AutoStart bool                 `yaml:"auto_start"`

	// DotEnvLoaded reports whether a .env file was found. LoadConfig runs
	// before the logger exists, so the caller logs it.
	DotEnvLoaded bool `yaml:"-"`
}

func defaults() *Config {
	return &Config{
		Host:       "0.0.0.0",
		Port:       "8000",
		TCPPort:    5013,
		LogLevel:   "info",
		Storage:    "mongo",
		Mongo:      MongoConfig{Database: "trackbook"},
		SummaryTTL: 6 * time.Hour,
		StopOver:   model.DefaultStopOverPolicy(),
	}
}

// LoadConfig reads .env, then the YAML file named by CONFIG_FILE (if any),
// then environment variables. Later sources win.
func LoadConfig() (*Config, error) {
	cfg := defaults()
	if err := godotenv.Load(); err == nil {
		cfg.DotEnvLoaded = true
	} else if !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	if path := getEnv("CONFIG_FILE", ""); path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}
	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to unmarshal yaml: %w", err)
	}
	return nil
}

func (c *Config) applyEnv() {
	c.Host = getEnv("HOST", c.Host)
	c.Port = getEnv("PORT", c.Port)
	c.TCPPort = getEnvInt("TCP_PORT", c.TCPPort)
	c.LogLevel = getEnv("LOG_LEVEL", c.LogLevel)
	c.LogFile = getEnv("LOG_FILE", c.LogFile)
	c.Storage = strings.ToLower(getEnv("STORAGE", c.Storage))
	c.Mongo.URI = getEnv("MONGODB_URI", c.Mongo.URI)
	c.Mongo.Database = getEnv("MONGODB_DATABASE", c.Mongo.Database)
	c.RedisURL = getEnv("REDIS_URL", c.RedisURL)
	c.SummaryTTL = getEnvDuration("SUMMARY_TTL", c.SummaryTTL)
	c.StopOver.MinDistanceMeters = getEnvFloat("STOPOVER_MIN_DISTANCE_METERS", c.StopOver.MinDistanceMeters)
	c.StopOver.AccuracyFactor = getEnvFloat("STOPOVER_ACCURACY_FACTOR", c.StopOver.AccuracyFactor)
	c.AutoStart = getEnvBool("AUTO_START", c.AutoStart)
}

func (c *Config) Validate() error {
	switch c.Storage {
	case "mongo":
		if c.Mongo.URI == "" {
			return fmt.Errorf("MONGODB_URI is required when STORAGE=mongo")
		}
	case "memory":
	default:
		return fmt.Errorf("unknown storage %q", c.Storage)
	}
	if c.StopOver.MinDistanceMeters < 0 || c.StopOver.AccuracyFactor < 0 {
		return fmt.Errorf("stop-over thresholds must not be negative")
	}
	return nil
}

func (c *Config) HTTPAddr() string {
	return c.Host + ":" + c.Port
}

func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return strings.TrimSpace(value)
}

func getEnvInt(key string, fallback int) int {
	if v, err := strconv.Atoi(getEnv(key, "")); err == nil {
		return v
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if v, err := strconv.ParseFloat(getEnv(key, ""), 64); err == nil {
		return v
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if v, err := strconv.ParseBool(getEnv(key, "")); err == nil {
		return v
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if v, err := time.ParseDuration(getEnv(key, "")); err == nil {
		return v
	}
	return fallback
}
