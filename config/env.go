package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// EnvString returns the trimmed value of key when it is set and non-empty.
func EnvString(key string) (string, bool) {
	value, ok := os.LookupEnv(key)
	if !ok {
		return "", false
	}
	value = strings.TrimSpace(value)
	if value == "" {
		return "", false
	}
	return value, true
}

// EnvInt parses key as an integer.
func EnvInt(key string) (int, bool, error) {
	value, ok := EnvString(key)
	if !ok {
		return 0, false, nil
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return 0, false, fmt.Errorf("%s: %w", key, err)
	}
	return parsed, true, nil
}

// EnvBool parses key with strconv.ParseBool.
func EnvBool(key string) (bool, bool, error) {
	value, ok := EnvString(key)
	if !ok {
		return false, false, nil
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return false, false, fmt.Errorf("%s: %w", key, err)
	}
	return parsed, true, nil
}

// EnvDuration parses key with time.ParseDuration.
func EnvDuration(key string) (time.Duration, bool, error) {
	value, ok := EnvString(key)
	if !ok {
		return 0, false, nil
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return 0, false, fmt.Errorf("%s: %w", key, err)
	}
	return parsed, true, nil
}

// EnvList splits a comma separated value, dropping empty items.
func EnvList(key string) ([]string, bool) {
	value, ok := EnvString(key)
	if !ok {
		return nil, false
	}
	var out []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out, len(out) > 0
}

// ApplyEnv overrides cfg with SCRAPER_* environment variables.
func ApplyEnv(cfg *Config) error {
	strs := map[string]*string{
		"SCRAPER_DRIVER":         &cfg.Driver,
		"SCRAPER_BROWSER_BIN":    &cfg.BrowserBin,
		"SCRAPER_OUTPUT":         &cfg.OutputFile,
		"SCRAPER_FORMAT":         &cfg.OutputFormat,
		"SCRAPER_STORE":          &cfg.StoreDriver,
		"SCRAPER_DATABASE_URL":   &cfg.DatabaseURL,
		"SCRAPER_CACHE":          &cfg.CacheBackend,
		"SCRAPER_REDIS_ADDR":     &cfg.RedisAddr,
		"SCRAPER_REDIS_PASSWORD": &cfg.RedisPassword,
		"SCRAPER_KAFKA_TOPIC":    &cfg.KafkaTopic,
		"SCRAPER_HTTP_ADDR":      &cfg.HTTPAddr,
		"SCRAPER_METRICS_ADDR":   &cfg.MetricsAddr,
	}
	for key, dst := range strs {
		if value, ok := EnvString(key); ok {
			*dst = value
		}
	}

	ints := map[string]*int{
		"SCRAPER_MAX_RETRIES": &cfg.MaxRetries,
		"SCRAPER_BATCH_SIZE":  &cfg.BatchSize,
		"SCRAPER_CACHE_SIZE":  &cfg.CacheSize,
		"SCRAPER_REDIS_DB":    &cfg.RedisDB,
	}
	for key, dst := range ints {
		value, ok, err := EnvInt(key)
		if err != nil {
			return err
		}
		if ok {
			*dst = value
		}
	}

	durations := map[string]*time.Duration{
		"SCRAPER_TIMEOUT":           &cfg.Timeout,
		"SCRAPER_PAGE_TIMEOUT":      &cfg.PageTimeout,
		"SCRAPER_CONTAINER_TIMEOUT": &cfg.ContainerTimeout,
		"SCRAPER_ELEMENT_TIMEOUT":   &cfg.ElementTimeout,
		"SCRAPER_CACHE_TTL":         &cfg.CacheTTL,
	}
	for key, dst := range durations {
		value, ok, err := EnvDuration(key)
		if err != nil {
			return err
		}
		if ok {
			*dst = value
		}
	}

	bools := map[string]*bool{
		"SCRAPER_HEADLESS": &cfg.Headless,
		"SCRAPER_VERBOSE":  &cfg.Verbose,
	}
	for key, dst := range bools {
		value, ok, err := EnvBool(key)
		if err != nil {
			return err
		}
		if ok {
			*dst = value
		}
	}

	if brokers, ok := EnvList("SCRAPER_KAFKA_BROKERS"); ok {
		cfg.KafkaBrokers = brokers
	}
	if sources, ok := EnvList("SCRAPER_SOURCES"); ok {
		cfg.Sources = sources
	}
	return nil
}
