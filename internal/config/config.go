package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Cache backends accepted by cache.backend.
const (
	BackendInMemory  = "in_memory"
	BackendMemcached = "memcached"
	BackendValkey    = "valkey"
)

// Config holds service configuration loaded from YAML and env.
type Config struct {
	ServerPort     string
	RequestTimeout time.Duration

	ParamName      string
	MaxParamLength int
	Timezone       string
	Location       *time.Location

	CacheBackend string // "in_memory", "memcached" or "valkey"
	SnapshotKey  string
	SnapshotTTL  time.Duration
	SeedFile     string
	ReadCoalesce time.Duration

	MemcachedAddrs        string
	MemcachedTimeout      time.Duration
	MemcachedMaxIdleConns int

	ValkeyAddr string

	BreakerEnabled          bool
	BreakerFailureThreshold int
	BreakerSuccessThreshold int
	BreakerTimeout          time.Duration

	RateLimitRPS   int
	RateLimitBurst int

	ShutdownTimeout       time.Duration
	InFlightTimeout       time.Duration
	InFlightCheckInterval time.Duration

	OverloadWindow       time.Duration
	OverloadThresholdPct int
	DegradedWindow       time.Duration
	DegradedFallbackPct  int
}

type fileConfig struct {
	Server struct {
		Port string `yaml:"port"`
	} `yaml:"server"`

	Request struct {
		Timeout string `yaml:"timeout"`
	} `yaml:"request"`

	Brief struct {
		ParamName      string `yaml:"param_name"`
		MaxParamLength int    `yaml:"max_param_length"`
		Timezone       string `yaml:"timezone"`
	} `yaml:"brief"`

	Cache struct {
		Backend      string `yaml:"backend"`
		Key          string `yaml:"key"`
		TTL          string `yaml:"ttl"`
		SeedFile     string `yaml:"seed_file"`
		ReadCoalesce string `yaml:"read_coalesce_timeout"`
		Memcached    struct {
			Addrs        string `yaml:"addrs"`
			Timeout      string `yaml:"timeout"`
			MaxIdleConns int    `yaml:"max_idle_conns"`
		} `yaml:"memcached"`
		Valkey struct {
			Addr string `yaml:"addr"`
		} `yaml:"valkey"`
		Breaker struct {
			Enabled          *bool  `yaml:"enabled"`
			FailureThreshold int    `yaml:"failure_threshold"`
			SuccessThreshold int    `yaml:"success_threshold"`
			Timeout          string `yaml:"timeout"`
		} `yaml:"breaker"`
	} `yaml:"cache"`

	Reliability struct {
		RateLimitRPS   int `yaml:"rate_limit_rps"`
		RateLimitBurst int `yaml:"rate_limit_burst"`
	} `yaml:"reliability"`

	Shutdown struct {
		Timeout               string `yaml:"timeout"`
		InFlightTimeout       string `yaml:"inflight_timeout"`
		InFlightCheckInterval string `yaml:"inflight_check_interval"`
	} `yaml:"shutdown"`

	Lifecycle struct {
		OverloadWindow       string `yaml:"overload_window"`
		OverloadThresholdPct int    `yaml:"overload_threshold_pct"`
		DegradedWindow       string `yaml:"degraded_window"`
		DegradedErrorPct     int    `yaml:"degraded_error_pct"`
	} `yaml:"lifecycle"`
}

// Load reads configuration from config/{ENV_NAME}.yaml (default dev), then applies env
// overrides (PORT, BRIEF_TIMEZONE, CACHE_BACKEND, MEMCACHED_ADDRS, VALKEY_ADDR,
// SNAPSHOT_SEED_FILE). Call from project root.
func Load() (*Config, error) {
	env := os.Getenv("ENV_NAME")
	if env == "" {
		env = "dev"
	}

	cwd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("config: get working directory: %w", err)
	}
	configPath := filepath.Join(cwd, "config", env+".yaml")
	data, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("config file not found: %s", configPath)
		}
		return nil, fmt.Errorf("read config file: %w", err)
	}

	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return nil, fmt.Errorf("parse config file: %w", err)
	}

	cfg := &Config{}

	cfg.ServerPort = firstNonEmpty(os.Getenv("PORT"), fc.Server.Port, "8080")
	cfg.RequestTimeout = parseDuration(fc.Request.Timeout, 5*time.Second)

	cfg.ParamName = firstNonEmpty(fc.Brief.ParamName, "data")
	cfg.MaxParamLength = fc.Brief.MaxParamLength
	if cfg.MaxParamLength == 0 {
		cfg.MaxParamLength = 64 * 1024
	}
	cfg.Timezone = firstNonEmpty(os.Getenv("BRIEF_TIMEZONE"), fc.Brief.Timezone, "UTC")

	cfg.CacheBackend = strings.ToLower(firstNonEmpty(os.Getenv("CACHE_BACKEND"), fc.Cache.Backend, BackendInMemory))
	cfg.SnapshotKey = firstNonEmpty(fc.Cache.Key, "status-brief:last-good")
	cfg.SnapshotTTL = parseDuration(fc.Cache.TTL, 7*24*time.Hour)
	cfg.SeedFile = firstNonEmpty(os.Getenv("SNAPSHOT_SEED_FILE"), fc.Cache.SeedFile)
	cfg.ReadCoalesce = parseDurationOrZero(fc.Cache.ReadCoalesce, time.Second)

	cfg.MemcachedAddrs = firstNonEmpty(os.Getenv("MEMCACHED_ADDRS"), fc.Cache.Memcached.Addrs, "localhost:11211")
	cfg.MemcachedTimeout = parseDuration(fc.Cache.Memcached.Timeout, 500*time.Millisecond)
	cfg.MemcachedMaxIdleConns = fc.Cache.Memcached.MaxIdleConns
	if cfg.MemcachedMaxIdleConns <= 0 {
		cfg.MemcachedMaxIdleConns = 2
	}
	cfg.ValkeyAddr = firstNonEmpty(os.Getenv("VALKEY_ADDR"), fc.Cache.Valkey.Addr, "localhost:6379")

	cfg.BreakerEnabled = true
	if fc.Cache.Breaker.Enabled != nil {
		cfg.BreakerEnabled = *fc.Cache.Breaker.Enabled
	}
	cfg.BreakerFailureThreshold = fc.Cache.Breaker.FailureThreshold
	if cfg.BreakerFailureThreshold <= 0 {
		cfg.BreakerFailureThreshold = 5
	}
	cfg.BreakerSuccessThreshold = fc.Cache.Breaker.SuccessThreshold
	if cfg.BreakerSuccessThreshold <= 0 {
		cfg.BreakerSuccessThreshold = 2
	}
	cfg.BreakerTimeout = parseDuration(fc.Cache.Breaker.Timeout, 30*time.Second)

	cfg.RateLimitRPS = fc.Reliability.RateLimitRPS
	if cfg.RateLimitRPS <= 0 {
		cfg.RateLimitRPS = 100
	}
	cfg.RateLimitBurst = fc.Reliability.RateLimitBurst
	if cfg.RateLimitBurst <= 0 {
		cfg.RateLimitBurst = 250
	}

	cfg.ShutdownTimeout = parseDuration(fc.Shutdown.Timeout, 30*time.Second)
	cfg.InFlightTimeout = parseDuration(fc.Shutdown.InFlightTimeout, 10*time.Second)
	cfg.InFlightCheckInterval = parseDuration(fc.Shutdown.InFlightCheckInterval, 100*time.Millisecond)

	cfg.OverloadWindow = parseDuration(fc.Lifecycle.OverloadWindow, 60*time.Second)
	cfg.OverloadThresholdPct = fc.Lifecycle.OverloadThresholdPct
	if cfg.OverloadThresholdPct <= 0 {
		cfg.OverloadThresholdPct = 80
	}
	cfg.DegradedWindow = parseDuration(fc.Lifecycle.DegradedWindow, 60*time.Second)
	cfg.DegradedFallbackPct = fc.Lifecycle.DegradedErrorPct
	if cfg.DegradedFallbackPct <= 0 {
		cfg.DegradedFallbackPct = 50
	}

	if err := validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}

// parseDuration parses a duration string and returns defaultVal if parsing fails or result is <= 0.
func parseDuration(s string, defaultVal time.Duration) time.Duration {
	d := parseDurationOrZero(s, defaultVal)
	if d <= 0 {
		return defaultVal
	}
	return d
}

// parseDurationOrZero parses a duration string, returning defaultVal on empty string or parse error.
// Zero is returned as-is so a setting can be switched off explicitly.
func parseDurationOrZero(s string, defaultVal time.Duration) time.Duration {
	s = strings.TrimSpace(s)
	if s == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return defaultVal
	}
	return d
}

// validate performs post-load validation and resolves the brief timezone.
func validate(cfg *Config) error {
	if cfg.MaxParamLength < 0 {
		return fmt.Errorf("brief.max_param_length must be positive, got %d", cfg.MaxParamLength)
	}
	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		return fmt.Errorf("brief.timezone %q: %w", cfg.Timezone, err)
	}
	cfg.Location = loc

	switch cfg.CacheBackend {
	case BackendInMemory, BackendMemcached, BackendValkey:
		// valid
	default:
		return fmt.Errorf("cache.backend must be in_memory, memcached or valkey, got %q", cfg.CacheBackend)
	}
	if cfg.ReadCoalesce < 0 {
		cfg.ReadCoalesce = 0
	}
	if cfg.OverloadThresholdPct > 100 || cfg.DegradedFallbackPct > 100 {
		return fmt.Errorf("lifecycle thresholds must be percentages, got overload=%d degraded=%d",
			cfg.OverloadThresholdPct, cfg.DegradedFallbackPct)
	}
	return nil
}
