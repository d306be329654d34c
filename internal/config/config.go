// Package config provides unified configuration loading for the resolver.
// Supports YAML files, environment variables, and programmatic overrides.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the resolver service and CLI.
type Config struct {
	Server        ServerConfig        `yaml:"server"`
	Data          DataConfig          `yaml:"data"`
	Storage       StorageConfig       `yaml:"storage"`
	Cache         CacheConfig         `yaml:"cache"`
	Resolver      ResolverConfig      `yaml:"resolver"`
	LLM           LLMConfig           `yaml:"llm"`
	Observability ObservabilityConfig `yaml:"observability"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host             string        `yaml:"host"`
	Port             int           `yaml:"port"`
	ReadTimeout      time.Duration `yaml:"read_timeout"`
	WriteTimeout     time.Duration `yaml:"write_timeout"`
	IdleTimeout      time.Duration `yaml:"idle_timeout"`
	RequestTimeout   time.Duration `yaml:"request_timeout"`
	GracefulShutdown time.Duration `yaml:"graceful_shutdown"`
	MaxMessageLength int           `yaml:"max_message_length"`
	AllowedOrigins   []string      `yaml:"allowed_origins"`
}

// DataConfig locates the file-based corpora.
type DataConfig struct {
	Dir                     string `yaml:"dir"`
	FAQFile                 string `yaml:"faq_file"`
	LegalFile               string `yaml:"legal_file"`
	MiscFile                string `yaml:"misc_file"`
	DocumentsDir            string `yaml:"documents_dir"`
	WordsPerChunk           int    `yaml:"words_per_chunk"`
	MaxConcurrentExtraction int    `yaml:"max_concurrent_extractions"`
}

// StorageConfig selects where structured corpora are read from.
type StorageConfig struct {
	Driver string `yaml:"driver"` // file, sqlite or postgres
	DSN    string `yaml:"dsn"`
}

// CacheConfig holds response cache settings.
type CacheConfig struct {
	Enabled    bool          `yaml:"enabled"`
	Driver     string        `yaml:"driver"` // memory or redis
	TTL        time.Duration `yaml:"ttl"`
	MaxEntries int           `yaml:"max_entries"`
	Redis      RedisConfig   `yaml:"redis"`
}

// RedisConfig holds Redis-specific settings.
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	PoolSize int    `yaml:"pool_size"`
	Prefix   string `yaml:"prefix"`
}

// ResolverConfig holds the cascade's tunables.
type ResolverConfig struct {
	MiscThreshold       float64  `yaml:"misc_threshold"`
	FAQThreshold        float64  `yaml:"faq_threshold"`
	LegalThreshold      float64  `yaml:"legal_threshold"`
	DocumentThreshold   float64  `yaml:"document_threshold"`
	FAQCeiling          float64  `yaml:"faq_ceiling"`
	LegalCeiling        float64  `yaml:"legal_ceiling"`
	DocumentCeiling     float64  `yaml:"document_ceiling"`
	BestMatchThreshold  float64  `yaml:"best_match_threshold"`
	TieMargin           float64  `yaml:"tie_margin"`
	MaxNearMisses       int      `yaml:"max_near_misses"`
	MaxResponseLength   int      `yaml:"max_response_length"`
	StrategyFallthrough bool     `yaml:"strategy_fallthrough"`
	RandomSeed          int64    `yaml:"random_seed"`
	SupportEmail        string   `yaml:"support_email"`
	PopularQuestions    []string `yaml:"popular_questions"`
}

// LLMConfig holds completion proxy settings.
type LLMConfig struct {
	BaseURL    string        `yaml:"base_url"`
	APIKey     string        `yaml:"api_key"`
	Model      string        `yaml:"model"`
	Timeout    time.Duration `yaml:"timeout"`
	MaxRetries int           `yaml:"max_retries"`
	Referer    string        `yaml:"referer"`
	Title      string        `yaml:"title"`
}

// ObservabilityConfig holds logging and metrics settings.
type ObservabilityConfig struct {
	LogLevel       string `yaml:"log_level"`
	LogFormat      string `yaml:"log_format"`
	ServiceName    string `yaml:"service_name"`
	MetricsEnabled bool   `yaml:"metrics_enabled"`
}

// Load reads configuration from a YAML file and applies environment overrides.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}

		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config file: %w", err)
		}

		if cfg.Data.Dir != "" {
			cfg.Data.Dir = ResolveRelativePath(path, cfg.Data.Dir)
		}
		if cfg.Data.DocumentsDir != "" {
			cfg.Data.DocumentsDir = ResolveRelativePath(path, cfg.Data.DocumentsDir)
		}
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return cfg, nil
}

// DefaultConfig returns a configuration with development defaults.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:             "0.0.0.0",
			Port:             3000,
			ReadTimeout:      30 * time.Second,
			WriteTimeout:     60 * time.Second,
			IdleTimeout:      120 * time.Second,
			RequestTimeout:   60 * time.Second,
			GracefulShutdown: 10 * time.Second,
			MaxMessageLength: 1000,
			AllowedOrigins:   []string{"*"},
		},
		Data: DataConfig{
			Dir:                     "data",
			FAQFile:                 "faq.json",
			LegalFile:               "legal.json",
			MiscFile:                "misc.json",
			DocumentsDir:            "documents",
			WordsPerChunk:           300,
			MaxConcurrentExtraction: 2,
		},
		Storage: StorageConfig{
			Driver: "file",
		},
		Cache: CacheConfig{
			Enabled:    true,
			Driver:     "memory",
			TTL:        10 * time.Minute,
			MaxEntries: 5000,
			Redis: RedisConfig{
				Addr:     "localhost:6379",
				PoolSize: 10,
				Prefix:   "kb:",
			},
		},
		Resolver: DefaultResolverConfig(),
		LLM: LLMConfig{
			BaseURL:    "https://openrouter.ai/api/v1",
			Model:      "google/gemma-3-27b-it:free",
			Timeout:    60 * time.Second,
			MaxRetries: 3,
			Title:      "Knowledge Base Assistant",
		},
		Observability: ObservabilityConfig{
			LogLevel:       "info",
			LogFormat:      "json",
			ServiceName:    "kb-resolver",
			MetricsEnabled: true,
		},
	}
}

// DefaultResolverConfig returns the thresholds the cascade was tuned with.
func DefaultResolverConfig() ResolverConfig {
	return ResolverConfig{
		MiscThreshold:      0.3,
		FAQThreshold:       0.5,
		LegalThreshold:     0.4,
		DocumentThreshold:  0.6,
		FAQCeiling:         0.7,
		LegalCeiling:       0.7,
		DocumentCeiling:    0.8,
		BestMatchThreshold: 0.6,
		TieMargin:          0.1,
		MaxNearMisses:      3,
		MaxResponseLength:  300,
		SupportEmail:       "support@company.com",
		PopularQuestions: []string{
			"How do I create an account?",
			"How do I reset my password?",
			"How can I contact customer support?",
			"What payment methods do you accept?",
			"How do I cancel my subscription?",
		},
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}

	if c.Server.MaxMessageLength < 1 {
		return fmt.Errorf("max_message_length must be positive")
	}

	switch c.Storage.Driver {
	case "file":
	case "sqlite", "postgres":
		if c.Storage.DSN == "" {
			return fmt.Errorf("storage driver %s requires a dsn", c.Storage.Driver)
		}
	default:
		return fmt.Errorf("invalid storage driver: %s", c.Storage.Driver)
	}

	if c.Cache.Driver != "memory" && c.Cache.Driver != "redis" {
		return fmt.Errorf("invalid cache driver: %s", c.Cache.Driver)
	}

	if c.Data.WordsPerChunk < 1 {
		return fmt.Errorf("words_per_chunk must be positive")
	}

	r := c.Resolver
	for name, v := range map[string]float64{
		"misc_threshold":       r.MiscThreshold,
		"faq_threshold":        r.FAQThreshold,
		"legal_threshold":      r.LegalThreshold,
		"document_threshold":   r.DocumentThreshold,
		"faq_ceiling":          r.FAQCeiling,
		"legal_ceiling":        r.LegalCeiling,
		"document_ceiling":     r.DocumentCeiling,
		"best_match_threshold": r.BestMatchThreshold,
		"tie_margin":           r.TieMargin,
	} {
		if v < 0 || v > 1 {
			return fmt.Errorf("%s must be between 0 and 1, got %v", name, v)
		}
	}

	if r.MaxNearMisses < 1 {
		return fmt.Errorf("max_near_misses must be positive")
	}

	if r.MaxResponseLength < 1 {
		return fmt.Errorf("max_response_length must be positive")
	}

	return nil
}

// FilePath returns the absolute-or-relative path of a corpus file.
func (d DataConfig) FilePath(name string) string {
	if filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(d.Dir, name)
}

// applyEnvOverrides applies environment variable overrides to config.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("SERVER_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	} else if v := os.Getenv("PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}

	if v := os.Getenv("SERVER_HOST"); v != "" {
		cfg.Server.Host = v
	}

	if v := os.Getenv("DATA_DIR"); v != "" {
		cfg.Data.Dir = v
	}

	if v := os.Getenv("DOCUMENTS_DIR"); v != "" {
		cfg.Data.DocumentsDir = v
	}

	if v := os.Getenv("DATABASE_URL"); v != "" {
		if strings.HasPrefix(v, "sqlite:") {
			cfg.Storage.Driver = "sqlite"
			cfg.Storage.DSN = strings.TrimPrefix(v, "sqlite:")
		} else if strings.HasPrefix(v, "postgres") {
			cfg.Storage.Driver = "postgres"
			cfg.Storage.DSN = v
		}
	}

	if v := os.Getenv("REDIS_URL"); v != "" {
		cfg.Cache.Driver = "redis"
		cfg.Cache.Redis.Addr = strings.TrimPrefix(v, "redis://")
	}

	if v := os.Getenv("OPENROUTER_API_KEY"); v != "" {
		cfg.LLM.APIKey = v
	}

	if v := os.Getenv("OPENROUTER_MODEL"); v != "" {
		cfg.LLM.Model = v
	}

	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Observability.LogLevel = v
	}

	if v := os.Getenv("LOG_FORMAT"); v != "" {
		cfg.Observability.LogFormat = v
	}

	if v := os.Getenv("RESOLVER_RANDOM_SEED"); v != "" {
		if seed, err := strconv.ParseInt(v, 10, 64); err == nil {
			cfg.Resolver.RandomSeed = seed
		}
	}
}

// ResolveRelativePath resolves a path relative to the config file location.
func ResolveRelativePath(configPath, targetPath string) string {
	if filepath.IsAbs(targetPath) {
		return targetPath
	}
	configDir := filepath.Dir(configPath)
	return filepath.Join(configDir, targetPath)
}
