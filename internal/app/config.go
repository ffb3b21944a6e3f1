package app

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

type Endpoints struct {
	TJ         string `yaml:"tj" validate:"omitempty,http_url"`
	KY         string `yaml:"ky" validate:"omitempty,http_url"`
	MusixMatch string `yaml:"musixmatch" validate:"omitempty,http_url"`
	Vocaro     string `yaml:"vocaro" validate:"omitempty,http_url"`
	Bing       string `yaml:"bing" validate:"omitempty,http_url"`
	YouTube    string `yaml:"youtube" validate:"omitempty,http_url"`
	VocaDB     string `yaml:"vocadb" validate:"omitempty,http_url"`
	UtaiteDB   string `yaml:"utaitedb" validate:"omitempty,http_url"`
}

type Config struct {
	HTTPAddr          string        `yaml:"httpAddr" validate:"required"`
	SearchTimeout     time.Duration `yaml:"searchTimeout" validate:"gte=0"`
	FetchTimeout      time.Duration `yaml:"fetchTimeout" validate:"gt=0"`
	FetchRatePerHost  float64       `yaml:"fetchRatePerHost" validate:"gte=0"`
	FetchBurstPerHost int           `yaml:"fetchBurstPerHost" validate:"gte=1"`
	LogLevel          string        `yaml:"logLevel" validate:"oneof=debug info warn warning error"`
	LogFormat         string        `yaml:"logFormat" validate:"oneof=text json pretty"`
	UserAgent         string        `yaml:"userAgent"`
	AcceptLanguage    string        `yaml:"acceptLanguage"`
	KaraokeMaxResults int           `yaml:"karaokeMaxResults" validate:"gte=1,lte=500"`
	Endpoints         Endpoints     `yaml:"endpoints"`
	RedisURL          string        `yaml:"redisURL"`
	CacheTTL          time.Duration `yaml:"cacheTTL" validate:"gte=0"`
	CacheDisabled     bool          `yaml:"cacheDisabled"`
	OTLPEndpoint      string        `yaml:"otlpEndpoint"`
}

func DefaultConfig() Config {
	return Config{
		HTTPAddr:          ":8090",
		SearchTimeout:     20 * time.Second,
		FetchTimeout:      10 * time.Second,
		FetchRatePerHost:  5,
		FetchBurstPerHost: 5,
		LogLevel:          "info",
		LogFormat:         "text",
		KaraokeMaxResults: 50,
		CacheTTL:          10 * time.Minute,
	}
}

// LoadConfig starts from DefaultConfig, applies the YAML file named by
// CONFIG_FILE if any, then environment overrides, and validates the result.
func LoadConfig() (Config, error) {
	cfg := DefaultConfig()
	if path := strings.TrimSpace(os.Getenv("CONFIG_FILE")); path != "" {
		if err := loadFile(path, &cfg); err != nil {
			return Config{}, err
		}
	}
	applyEnv(&cfg)
	cfg.LogLevel = strings.ToLower(strings.TrimSpace(cfg.LogLevel))
	cfg.LogFormat = strings.ToLower(strings.TrimSpace(cfg.LogFormat))

	if err := validator.New(validator.WithRequiredStructEnabled()).Struct(cfg); err != nil {
		return Config{}, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

func loadFile(path string, cfg *Config) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open config file: %w", err)
	}
	defer f.Close()

	if err := yaml.NewDecoder(f).Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("decode config file %s: %w", path, err)
	}
	return nil
}

func applyEnv(cfg *Config) {
	cfg.HTTPAddr = getEnv("HTTP_ADDR", cfg.HTTPAddr)
	cfg.SearchTimeout = getEnvDuration("SEARCH_TIMEOUT_SECONDS", cfg.SearchTimeout, time.Second)
	cfg.FetchTimeout = getEnvDuration("FETCH_TIMEOUT_SECONDS", cfg.FetchTimeout, time.Second)
	cfg.FetchRatePerHost = getEnvFloat("FETCH_RATE_PER_HOST", cfg.FetchRatePerHost)
	cfg.FetchBurstPerHost = getEnvInt("FETCH_BURST_PER_HOST", cfg.FetchBurstPerHost)
	cfg.LogLevel = getEnv("LOG_LEVEL", cfg.LogLevel)
	cfg.LogFormat = getEnv("LOG_FORMAT", cfg.LogFormat)
	cfg.UserAgent = getEnv("SEARCH_USER_AGENT", cfg.UserAgent)
	cfg.AcceptLanguage = getEnv("SEARCH_ACCEPT_LANGUAGE", cfg.AcceptLanguage)
	cfg.KaraokeMaxResults = getEnvInt("KARAOKE_MAX_RESULTS", cfg.KaraokeMaxResults)
	cfg.RedisURL = getEnv("REDIS_URL", cfg.RedisURL)
	cfg.CacheTTL = getEnvDuration("SEARCH_CACHE_TTL_MINUTES", cfg.CacheTTL, time.Minute)
	cfg.CacheDisabled = getEnvBool("SEARCH_CACHE_DISABLED", cfg.CacheDisabled)
	cfg.OTLPEndpoint = getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", cfg.OTLPEndpoint)

	endpoints := &cfg.Endpoints
	endpoints.TJ = getEnv("SEARCH_PROVIDER_TJ_ENDPOINT", endpoints.TJ)
	endpoints.KY = getEnv("SEARCH_PROVIDER_KY_ENDPOINT", endpoints.KY)
	endpoints.MusixMatch = getEnv("SEARCH_PROVIDER_MUSIXMATCH_ENDPOINT", endpoints.MusixMatch)
	endpoints.Vocaro = getEnv("SEARCH_PROVIDER_VOCARO_ENDPOINT", endpoints.Vocaro)
	endpoints.Bing = getEnv("SEARCH_PROVIDER_BING_ENDPOINT", endpoints.Bing)
	endpoints.YouTube = getEnv("SEARCH_PROVIDER_YOUTUBE_ENDPOINT", endpoints.YouTube)
	endpoints.VocaDB = getEnv("SEARCH_PROVIDER_VOCADB_ENDPOINT", endpoints.VocaDB)
	endpoints.UtaiteDB = getEnv("SEARCH_PROVIDER_UTAITEDB_ENDPOINT", endpoints.UtaiteDB)
}

func getEnv(key, fallback string) string {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	return value
}

func getEnvInt(key string, fallback int) int {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(raw)
	if err != nil || parsed <= 0 {
		return fallback
	}
	return parsed
}

func getEnvFloat(key string, fallback float64) float64 {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}
	parsed, err := strconv.ParseFloat(raw, 64)
	if err != nil || parsed < 0 {
		return fallback
	}
	return parsed
}

func getEnvDuration(key string, fallback, unit time.Duration) time.Duration {
	if strings.TrimSpace(os.Getenv(key)) == "" {
		return fallback
	}
	return time.Duration(getEnvInt(key, int(fallback/unit))) * unit
}

func getEnvBool(key string, fallback bool) bool {
	raw := strings.ToLower(strings.TrimSpace(os.Getenv(key)))
	if raw == "" {
		return fallback
	}
	switch raw {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	default:
		return fallback
	}
}
