package config

import (
	"fmt"
	"os"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"gopkg.in/yaml.v3"
)

// Engine names accepted by pdf.engine.
const (
	EngineFPDF   = "fpdf"
	EngineChrome = "chrome"
)

// PostgresConfig describes the connection used by the API token store.
// Host may also carry a complete postgres:// URL.
type PostgresConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Database string `yaml:"database"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	SSLMode  string `yaml:"sslmode"`
}

// Config is the complete service configuration.
type Config struct {
	Server struct {
		Host           string `yaml:"host"`
		Port           string `yaml:"port"`
		Prefork        bool   `yaml:"prefork"`
		BodyLimitBytes int    `yaml:"body_limit_bytes"`
	} `yaml:"server"`

	Limits struct {
		MaxUploadBytes int `yaml:"max_upload_bytes"`
		MaxPDFBytes    int `yaml:"max_pdf_bytes"`
	} `yaml:"limits"`

	Logger struct {
		File       string `yaml:"file"`
		Level      string `yaml:"level"`
		MaxSizeMB  int    `yaml:"max_size_mb"`
		MaxBackups int    `yaml:"max_backups"`
		MaxAgeDays int    `yaml:"max_age_days"`
		Compress   bool   `yaml:"compress"`
	} `yaml:"logger"`

	Cache struct {
		PDFCacheEnabled bool          `yaml:"pdf_cache_enabled"`
		PDFCacheTTL     time.Duration `yaml:"pdf_cache_ttl"`
		RedisHost       string        `yaml:"redis_host"`
		RateLimitDB     int           `yaml:"redis_rate_db"`
		PDFCacheDB      int           `yaml:"redis_pdf_db"`
	} `yaml:"cache"`

	RateLimiter struct {
		EnableUserLimiter bool          `yaml:"enable_user_limiter"`
		UserLimit         int           `yaml:"user_limit"`
		Interval          time.Duration `yaml:"interval"`
	} `yaml:"rate_limiter"`

	Auth struct {
		Enabled        bool           `yaml:"enabled"`
		ReloadInterval time.Duration  `yaml:"reload_interval"`
		Postgres       PostgresConfig `yaml:"postgres"`
	} `yaml:"auth"`

	Decoder struct {
		Encodings []string `yaml:"encodings"`
	} `yaml:"decoder"`

	PDF struct {
		Engine          string `yaml:"engine"`
		PageNumbers     bool   `yaml:"page_numbers"`
		Compress        bool   `yaml:"compress"`
		TimeoutSecs     int    `yaml:"timeout_secs"`
		ChromePath      string `yaml:"chrome_path"`
		ChromeNoSandbox bool   `yaml:"chrome_no_sandbox"`
		ChromePoolSize  int    `yaml:"chrome_pool_size"`
		UserDataDir     string `yaml:"user_data_dir"`
	} `yaml:"pdf"`
}

// DefaultEncodings is the historical decode order. Only the first two entries
// can matter in practice because iso-8859-1 accepts every byte.
var DefaultEncodings = []string{"utf-8", "iso-8859-1", "windows-1252", "ascii"}

// Default returns a configuration that runs the converter with no external
// services: no auth, no cache, in-memory rate limiting, fpdf engine.
func Default() Config {
	var cfg Config
	cfg.Server.Host = ""
	cfg.Server.Port = ":8080"
	cfg.Server.BodyLimitBytes = 32 * 1024 * 1024
	cfg.Limits.MaxUploadBytes = 25 * 1024 * 1024
	cfg.Limits.MaxPDFBytes = 100 * 1024 * 1024
	cfg.Logger.Level = "info"
	cfg.Logger.MaxSizeMB = 10
	cfg.Logger.MaxBackups = 3
	cfg.Logger.MaxAgeDays = 7
	cfg.Cache.PDFCacheTTL = time.Minute
	cfg.Cache.PDFCacheDB = 1
	cfg.RateLimiter.Interval = time.Minute
	cfg.Auth.ReloadInterval = time.Minute
	cfg.Decoder.Encodings = append([]string(nil), DefaultEncodings...)
	cfg.PDF.Engine = EngineFPDF
	cfg.PDF.Compress = true
	cfg.PDF.TimeoutSecs = 30
	return cfg
}

// Validate checks the values a running server depends on.
func (c Config) Validate() error {
	if err := validation.ValidateStruct(&c.Server,
		validation.Field(&c.Server.Port, validation.Required),
		validation.Field(&c.Server.BodyLimitBytes, validation.Min(0)),
	); err != nil {
		return fmt.Errorf("server: %w", err)
	}
	if err := validation.ValidateStruct(&c.Limits,
		validation.Field(&c.Limits.MaxUploadBytes, validation.Required, validation.Min(1)),
		validation.Field(&c.Limits.MaxPDFBytes, validation.Required, validation.Min(1)),
	); err != nil {
		return fmt.Errorf("limits: %w", err)
	}
	if err := validation.ValidateStruct(&c.RateLimiter,
		validation.Field(&c.RateLimiter.UserLimit, validation.Min(0)),
		validation.Field(&c.RateLimiter.Interval, validation.Required, validation.Min(time.Second)),
	); err != nil {
		return fmt.Errorf("rate_limiter: %w", err)
	}
	if c.Auth.Enabled {
		if err := validation.ValidateStruct(&c.Auth,
			validation.Field(&c.Auth.ReloadInterval, validation.Required, validation.Min(time.Second)),
		); err != nil {
			return fmt.Errorf("auth: %w", err)
		}
		if err := validation.Validate(c.Auth.Postgres.Host, validation.Required); err != nil {
			return fmt.Errorf("auth.postgres.host: %w", err)
		}
	}
	if err := validation.Validate(c.Decoder.Encodings, validation.Required); err != nil {
		return fmt.Errorf("decoder.encodings: %w", err)
	}
	if err := validation.ValidateStruct(&c.PDF,
		validation.Field(&c.PDF.Engine, validation.Required, validation.In(EngineFPDF, EngineChrome)),
		validation.Field(&c.PDF.TimeoutSecs, validation.Min(0)),
		validation.Field(&c.PDF.ChromePoolSize, validation.Min(0)),
	); err != nil {
		return fmt.Errorf("pdf: %w", err)
	}
	return nil
}

// LoadFrom reads the YAML file at path on top of Default and validates it.
// It panics when the file is unreadable or invalid.
func LoadFrom(path string) Config {
	data, err := os.ReadFile(path)
	if err != nil {
		panic(fmt.Sprintf("config: read %s: %v", path, err))
	}
	cfg := Default()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		panic(fmt.Sprintf("config: parse %s: %v", path, err))
	}
	if err := cfg.Validate(); err != nil {
		panic(fmt.Sprintf("config: %s: %v", path, err))
	}
	return cfg
}

// Load uses CONFIG_PATH when set and Default otherwise.
func Load() Config {
	if p := os.Getenv("CONFIG_PATH"); p != "" {
		return LoadFrom(p)
	}
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		panic(fmt.Sprintf("config: defaults: %v", err))
	}
	return cfg
}
