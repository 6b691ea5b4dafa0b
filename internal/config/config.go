package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the application
type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Logging    LoggingConfig    `yaml:"logging"`
	Cache      CacheConfig      `yaml:"cache"`
	SMTP       SMTPConfig       `yaml:"smtp"`
	RateLimit  RateLimitConfig  `yaml:"rate_limit"`
	Batch      BatchConfig      `yaml:"batch"`
	Dedup      DedupConfig      `yaml:"dedup"`
	Reputation ReputationConfig `yaml:"reputation"`
	Disposable DisposableConfig `yaml:"disposable"`
	Database   DatabaseConfig   `yaml:"database"`
	S3Source   S3SourceConfig   `yaml:"s3_source"`
}

// ServerConfig holds HTTP server settings
type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// LoggingConfig controls the structured logger.
type LoggingConfig struct {
	Level     string `yaml:"level"`
	RedactPII *bool  `yaml:"redact_pii"`
}

// CacheConfig holds TTL cache settings. CategoryTTLSeconds keys select
// per-category TTL overrides (domain, mx, reputation, disposable,
// validation). RedisURL, when set, switches the cache backend from the
// in-memory store to Redis.
type CacheConfig struct {
	Enabled                *bool          `yaml:"enabled"`
	DefaultTTLSeconds      int            `yaml:"default_ttl_seconds"`
	MaxSize                int            `yaml:"max_size"`
	EvictionSlack          int            `yaml:"eviction_slack"`
	CleanupIntervalSeconds int            `yaml:"cleanup_interval_seconds"`
	CategoryTTLSeconds     map[string]int `yaml:"category_ttl_seconds"`
	RedisURL               string         `yaml:"redis_url"`
}

// SMTPConfig holds mailbox-probe settings
type SMTPConfig struct {
	HeloDomain     string `yaml:"helo_domain"`
	MailFrom       string `yaml:"mail_from"`
	Port           int    `yaml:"port"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
	MaxRetries     int    `yaml:"max_retries"`
}

// RateLimitConfig bounds outbound probes per destination domain
type RateLimitConfig struct {
	RequestsPerSecond int `yaml:"requests_per_second"`
}

// BatchConfig holds batch processing settings
type BatchConfig struct {
	ChunkSize int `yaml:"chunk_size"`
	Workers   int `yaml:"workers"`
}

// DedupConfig holds near-duplicate detection settings
type DedupConfig struct {
	SimilarityThreshold int `yaml:"similarity_threshold"`
}

// ReputationConfig holds blacklist/WHOIS lookup settings
type ReputationConfig struct {
	BlacklistZones []string `yaml:"blacklist_zones"`
	WhoisURL       string   `yaml:"whois_url"`
	TimeoutSeconds int      `yaml:"timeout_seconds"`
}

// DisposableConfig holds disposable-domain detection settings
type DisposableConfig struct {
	ListPath  string `yaml:"list_path"`
	LookupURL string `yaml:"lookup_url"`
}

// DatabaseConfig holds optional results persistence settings
type DatabaseConfig struct {
	Enabled bool   `yaml:"enabled"`
	URL     string `yaml:"url"`
}

// S3SourceConfig holds the S3 email-list source settings
type S3SourceConfig struct {
	Enabled    bool   `yaml:"enabled"`
	Bucket     string `yaml:"bucket"`
	Region     string `yaml:"region"`
	AWSProfile string `yaml:"aws_profile"`
}

// Load reads configuration from a YAML file, after overlaying any .env
// file present in the working directory. Secrets (database URL, Redis
// URL) may be supplied via environment variables instead of the file.
func Load(path string) (*Config, error) {
	// .env is optional; ignore if absent
	_ = godotenv.Load()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config file: %w", err)
	}

	cfg.applyEnvOverrides()
	cfg.applyDefaults()
	return cfg, nil
}

// Default returns a configuration with every default applied and no file
// read. The CLI uses this when no config path is given.
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("DATABASE_URL"); v != "" {
		c.Database.URL = v
	}
	if v := os.Getenv("REDIS_URL"); v != "" {
		c.Cache.RedisURL = v
	}
}

func (c *Config) applyDefaults() {
	if c.Server.Host == "" {
		c.Server.Host = "127.0.0.1"
	}
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}

	if c.Cache.DefaultTTLSeconds == 0 {
		c.Cache.DefaultTTLSeconds = 3600
	}
	if c.Cache.MaxSize == 0 {
		c.Cache.MaxSize = 10000
	}
	if c.Cache.EvictionSlack == 0 {
		c.Cache.EvictionSlack = 100
	}
	if c.Cache.CleanupIntervalSeconds == 0 {
		c.Cache.CleanupIntervalSeconds = 300
	}
	if c.Cache.CategoryTTLSeconds == nil {
		c.Cache.CategoryTTLSeconds = map[string]int{
			"domain":     86400, // 24h; MX topology changes rarely
			"mx":         43200, // 12h
			"reputation": 3600,  // 1h; blacklists churn
			"disposable": 86400, // 24h
			"validation": 1800,  // 30m for full validation outcomes
		}
	}

	if c.SMTP.HeloDomain == "" {
		c.SMTP.HeloDomain = "verifier.localdomain"
	}
	if c.SMTP.MailFrom == "" {
		c.SMTP.MailFrom = "verify@" + c.SMTP.HeloDomain
	}
	if c.SMTP.Port == 0 {
		c.SMTP.Port = 25
	}
	if c.SMTP.TimeoutSeconds == 0 {
		c.SMTP.TimeoutSeconds = 10
	}
	if c.SMTP.MaxRetries == 0 {
		c.SMTP.MaxRetries = 2
	}

	if c.RateLimit.RequestsPerSecond == 0 {
		c.RateLimit.RequestsPerSecond = 10
	}

	if c.Batch.ChunkSize == 0 {
		c.Batch.ChunkSize = 100
	}
	if c.Batch.Workers == 0 {
		c.Batch.Workers = 4
	}

	if c.Dedup.SimilarityThreshold == 0 {
		c.Dedup.SimilarityThreshold = 2
	}

	if len(c.Reputation.BlacklistZones) == 0 {
		c.Reputation.BlacklistZones = []string{
			"zen.spamhaus.org",
			"bl.spamcop.net",
			"dnsbl.sorbs.net",
		}
	}
	if c.Reputation.TimeoutSeconds == 0 {
		c.Reputation.TimeoutSeconds = 10
	}

	if c.Disposable.LookupURL == "" {
		c.Disposable.LookupURL = "https://open.kickbox.com/v1/disposable"
	}

	if c.S3Source.Region == "" {
		c.S3Source.Region = "us-east-1"
	}
}

// CacheEnabled reports whether caching is on. Absent from the config
// file means enabled.
func (c *Config) CacheEnabled() bool {
	return c.Cache.Enabled == nil || *c.Cache.Enabled
}

// RedactPII reports whether log redaction is on. Absent means enabled.
func (c *Config) RedactPII() bool {
	return c.Logging.RedactPII == nil || *c.Logging.RedactPII
}

// SMTPTimeout returns the SMTP probe timeout as a duration.
func (c *Config) SMTPTimeout() time.Duration {
	return time.Duration(c.SMTP.TimeoutSeconds) * time.Second
}

// CacheDefaultTTL returns the store-wide default TTL as a duration.
func (c *Config) CacheDefaultTTL() time.Duration {
	return time.Duration(c.Cache.DefaultTTLSeconds) * time.Second
}

// CacheCategoryTTLs converts the configured per-category TTLs to durations.
func (c *Config) CacheCategoryTTLs() map[string]time.Duration {
	out := make(map[string]time.Duration, len(c.Cache.CategoryTTLSeconds))
	for k, v := range c.Cache.CategoryTTLSeconds {
		out[k] = time.Duration(v) * time.Second
	}
	return out
}
