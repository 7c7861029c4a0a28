package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all application configuration
type Config struct {
	// Connection settings
	BaseURL        string
	Username       string
	Password       string
	Insecure       bool
	RequestTimeout time.Duration

	// Readiness settings
	APIReadyAttempts int
	APIReadyDelay    time.Duration

	// Polling settings
	SearchInterval   time.Duration
	DirSizeInterval  time.Duration
	MD5Interval      time.Duration
	OperationTimeout time.Duration
	MaxParallelTasks int
}

// NewConfig creates a new configuration with default values
func NewConfig() *Config {
	return &Config{
		RequestTimeout:   30 * time.Second,
		APIReadyAttempts: 5,
		APIReadyDelay:    time.Second,
		SearchInterval:   500 * time.Millisecond,
		DirSizeInterval:  10 * time.Second,
		MD5Interval:      10 * time.Second,
		OperationTimeout: time.Hour,
		MaxParallelTasks: 4,
	}
}

// LoadFromEnvironment loads configuration from environment variables
func (c *Config) LoadFromEnvironment() {
	if baseURL := os.Getenv("FILESTATION_URL"); baseURL != "" {
		c.BaseURL = strings.TrimRight(baseURL, "/")
	}

	if user := os.Getenv("FILESTATION_USER"); user != "" {
		c.Username = user
	}

	if password := os.Getenv("FILESTATION_PASSWORD"); password != "" {
		c.Password = password
	}

	if insecure := os.Getenv("FILESTATION_INSECURE"); insecure != "" {
		if b, err := strconv.ParseBool(insecure); err == nil {
			c.Insecure = b
		}
	}

	loadDuration("FILESTATION_REQUEST_TIMEOUT", &c.RequestTimeout)
	loadDuration("FILESTATION_OPERATION_TIMEOUT", &c.OperationTimeout)
	loadDuration("FILESTATION_SEARCH_INTERVAL", &c.SearchInterval)
	loadDuration("FILESTATION_DIRSIZE_INTERVAL", &c.DirSizeInterval)
	loadDuration("FILESTATION_MD5_INTERVAL", &c.MD5Interval)

	if parallel := os.Getenv("FILESTATION_MAX_PARALLEL"); parallel != "" {
		if p, err := strconv.Atoi(parallel); err == nil {
			c.MaxParallelTasks = p
		}
	}

	if attempts := os.Getenv("FILESTATION_READY_ATTEMPTS"); attempts != "" {
		if a, err := strconv.Atoi(attempts); err == nil {
			c.APIReadyAttempts = a
		}
	}
}

// loadDuration accepts Go duration strings ("1m30s") or plain milliseconds.
func loadDuration(key string, target *time.Duration) {
	value := os.Getenv(key)
	if value == "" {
		return
	}
	if d, err := time.ParseDuration(value); err == nil {
		*target = d
		return
	}
	if ms, err := strconv.Atoi(value); err == nil {
		*target = time.Duration(ms) * time.Millisecond
	}
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.BaseURL == "" {
		return fmt.Errorf("base URL cannot be empty")
	}

	parsed, err := url.Parse(c.BaseURL)
	if err != nil {
		return fmt.Errorf("invalid base URL %q: %w", c.BaseURL, err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return fmt.Errorf("base URL scheme must be http or https, got: %q", parsed.Scheme)
	}

	if c.Username == "" {
		return fmt.Errorf("username cannot be empty")
	}

	if c.RequestTimeout <= 0 {
		return fmt.Errorf("request timeout must be positive, got: %v", c.RequestTimeout)
	}

	for name, interval := range map[string]time.Duration{
		"search":   c.SearchInterval,
		"dir size": c.DirSizeInterval,
		"md5":      c.MD5Interval,
	} {
		if interval <= 0 {
			return fmt.Errorf("%s poll interval must be positive, got: %v", name, interval)
		}
	}

	if c.OperationTimeout < 0 {
		return fmt.Errorf("operation timeout must be non-negative, got: %v", c.OperationTimeout)
	}

	if c.MaxParallelTasks <= 0 {
		return fmt.Errorf("max parallel tasks must be positive, got: %d", c.MaxParallelTasks)
	}

	if c.APIReadyAttempts <= 0 {
		return fmt.Errorf("API ready attempts must be positive, got: %d", c.APIReadyAttempts)
	}

	return nil
}
