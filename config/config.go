package config

import (
	"fmt"
	"net/url"
	"slices"
	"time"
)

// Driver names accepted by Config.Driver.
const (
	DriverBrowser = "browser"
	DriverHTTP    = "http"
)

// Config holds scraper, storage and server configuration.
type Config struct {
	Driver     string   `yaml:"driver"`
	Headless   bool     `yaml:"headless"`
	BrowserBin string   `yaml:"browser_bin"`
	UserAgents []string `yaml:"user_agents"`
	Sources    []string `yaml:"sources"`

	Timeout          time.Duration `yaml:"timeout"`
	PageTimeout      time.Duration `yaml:"page_timeout"`
	ContainerTimeout time.Duration `yaml:"container_timeout"`
	ElementTimeout   time.Duration `yaml:"element_timeout"`
	PollInterval     time.Duration `yaml:"poll_interval"`

	HumanDelayMin  time.Duration `yaml:"human_delay_min"`
	HumanDelayMax  time.Duration `yaml:"human_delay_max"`
	SettleDelay    time.Duration `yaml:"settle_delay"`
	SourceDelayMin time.Duration `yaml:"source_delay_min"`
	SourceDelayMax time.Duration `yaml:"source_delay_max"`

	Delay            time.Duration `yaml:"delay"`
	RandomDelay      time.Duration `yaml:"random_delay"`
	MaxRetries       int           `yaml:"max_retries"`
	RetryBackoff     time.Duration `yaml:"retry_backoff"`
	RetryBackoffMax  time.Duration `yaml:"retry_backoff_max"`
	RespectRobotsTxt bool          `yaml:"respect_robots_txt"`

	OutputFile         string `yaml:"output_file"`
	OutputFormat       string `yaml:"output_format"` // csv, json, or dual
	PipelineBufferSize int    `yaml:"pipeline_buffer_size"`
	BatchSize          int    `yaml:"batch_size"`
	DedupeMaxSize      int    `yaml:"dedupe_max_size"`

	StoreDriver string `yaml:"store_driver"` // memory, postgres, or sqlite
	DatabaseURL string `yaml:"database_url"`

	CacheBackend  string        `yaml:"cache_backend"` // none, memory, or redis
	CacheSize     int           `yaml:"cache_size"`
	CacheTTL      time.Duration `yaml:"cache_ttl"`
	RedisAddr     string        `yaml:"redis_addr"`
	RedisPassword string        `yaml:"redis_password"`
	RedisDB       int           `yaml:"redis_db"`

	KafkaBrokers []string `yaml:"kafka_brokers"`
	KafkaTopic   string   `yaml:"kafka_topic"`

	HTTPAddr    string `yaml:"http_addr"`
	MetricsAddr string `yaml:"metrics_addr"`
	Verbose     bool   `yaml:"verbose"`
}

// DefaultConfig returns the defaults used for interactive searches.
func DefaultConfig() *Config {
	return &Config{
		Driver:   DriverBrowser,
		Headless: true,
		UserAgents: []string{
			"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
			"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/119.0.0.0 Safari/537.36",
			"Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/118.0.0.0 Safari/537.36",
		},

		Timeout:          30 * time.Second,
		PageTimeout:      60 * time.Second,
		ContainerTimeout: 60 * time.Second,
		ElementTimeout:   10 * time.Second,
		PollInterval:     500 * time.Millisecond,

		HumanDelayMin:  3 * time.Second,
		HumanDelayMax:  7 * time.Second,
		SettleDelay:    2 * time.Second,
		SourceDelayMin: 2 * time.Second,
		SourceDelayMax: 5 * time.Second,

		MaxRetries:      2,
		RetryBackoff:    500 * time.Millisecond,
		RetryBackoffMax: 5 * time.Second,

		OutputFile:         "output/flights.csv",
		OutputFormat:       "csv",
		PipelineBufferSize: 256,
		BatchSize:          64,
		DedupeMaxSize:      10000,

		StoreDriver: "memory",

		CacheBackend: "memory",
		CacheSize:    128,
		CacheTTL:     10 * time.Minute,
		RedisAddr:    "localhost:6379",

		KafkaTopic: "flight-observations",

		HTTPAddr: ":8080",
	}
}

// Validate ensures all configuration values are coherent.
func (c *Config) Validate() error {
	if c.Driver != DriverBrowser && c.Driver != DriverHTTP {
		return fmt.Errorf("driver must be browser or http")
	}
	if len(c.UserAgents) == 0 {
		return fmt.Errorf("user agents cannot be empty")
	}
	for _, ua := range c.UserAgents {
		if ua == "" {
			return fmt.Errorf("user agent cannot be empty")
		}
	}

	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive")
	}
	if c.PageTimeout <= 0 {
		return fmt.Errorf("page timeout must be positive")
	}
	if c.ContainerTimeout <= 0 {
		return fmt.Errorf("container timeout must be positive")
	}
	if c.ElementTimeout <= 0 {
		return fmt.Errorf("element timeout must be positive")
	}
	if c.PollInterval <= 0 {
		return fmt.Errorf("poll interval must be positive")
	}

	if err := validateRange("human delay", c.HumanDelayMin, c.HumanDelayMax); err != nil {
		return err
	}
	if err := validateRange("source delay", c.SourceDelayMin, c.SourceDelayMax); err != nil {
		return err
	}
	if c.SettleDelay < 0 {
		return fmt.Errorf("settle delay cannot be negative")
	}
	if c.Delay < 0 {
		return fmt.Errorf("delay cannot be negative")
	}
	if c.RandomDelay < 0 {
		return fmt.Errorf("random delay cannot be negative")
	}

	if c.MaxRetries < 0 {
		return fmt.Errorf("max retries cannot be negative")
	}
	if c.RetryBackoff < 0 {
		return fmt.Errorf("retry backoff cannot be negative")
	}
	if c.RetryBackoffMax < 0 {
		return fmt.Errorf("retry backoff max cannot be negative")
	}
	if c.RetryBackoffMax > 0 && c.RetryBackoff > c.RetryBackoffMax {
		return fmt.Errorf("retry backoff (%s) cannot exceed retry backoff max (%s)", c.RetryBackoff, c.RetryBackoffMax)
	}

	if c.OutputFile == "" {
		return fmt.Errorf("output file cannot be empty")
	}
	if c.OutputFormat != "csv" && c.OutputFormat != "json" && c.OutputFormat != "dual" {
		return fmt.Errorf("output format must be csv, json, or dual")
	}
	if c.PipelineBufferSize <= 0 {
		return fmt.Errorf("pipeline buffer size must be positive")
	}
	if c.BatchSize <= 0 {
		return fmt.Errorf("batch size must be positive")
	}
	if c.DedupeMaxSize <= 0 {
		return fmt.Errorf("dedupe max size must be positive")
	}

	switch c.StoreDriver {
	case "memory":
	case "postgres", "sqlite":
		if c.DatabaseURL == "" {
			return fmt.Errorf("database url is required for the %s store", c.StoreDriver)
		}
	default:
		return fmt.Errorf("store driver must be memory, postgres, or sqlite")
	}

	switch c.CacheBackend {
	case "none":
	case "memory":
		if c.CacheSize <= 0 {
			return fmt.Errorf("cache size must be positive")
		}
	case "redis":
		if c.RedisAddr == "" {
			return fmt.Errorf("redis address is required for the redis cache")
		}
	default:
		return fmt.Errorf("cache backend must be none, memory, or redis")
	}
	if c.CacheBackend != "none" && c.CacheTTL <= 0 {
		return fmt.Errorf("cache ttl must be positive")
	}

	if len(c.KafkaBrokers) > 0 && c.KafkaTopic == "" {
		return fmt.Errorf("kafka topic is required when brokers are set")
	}
	if slices.Contains(c.KafkaBrokers, "") {
		return fmt.Errorf("kafka broker address cannot be empty")
	}

	if c.MetricsAddr != "" {
		if _, err := url.Parse("http://" + c.MetricsAddr); err != nil {
			return fmt.Errorf("invalid metrics address: %w", err)
		}
	}

	return nil
}

func validateRange(name string, lo, hi time.Duration) error {
	if lo < 0 || hi < 0 {
		return fmt.Errorf("%s cannot be negative", name)
	}
	if lo > hi {
		return fmt.Errorf("%s min (%s) cannot exceed max (%s)", name, lo, hi)
	}
	return nil
}
