package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// AccountConfig describes one marketplace seller identity. The API key is
// resolved from the environment variable named by api_key_env so credentials
// never live in the yaml file.
type AccountConfig struct {
	Name      string `yaml:"name"`
	BaseURL   string `yaml:"base_url"`
	APIKeyEnv string `yaml:"api_key_env"`
}

func (a AccountConfig) APIKey() string {
	return os.Getenv(a.APIKeyEnv)
}

// RateLimitConfig carries the per-class request ceilings. The marketplace
// binds both windows at once, whichever is tighter.
type RateLimitConfig struct {
	OrdersPerSecond  int `yaml:"orders_per_second"`
	OrdersPerMinute  int `yaml:"orders_per_minute"`
	DefaultPerSecond int `yaml:"default_per_second"`
	DefaultPerMinute int `yaml:"default_per_minute"`
}

// RetryConfig drives the API client retry policy.
type RetryConfig struct {
	MaxAttempts int           `yaml:"max_attempts"`
	BaseDelay   time.Duration `yaml:"base_delay"`
	MaxDelay    time.Duration `yaml:"max_delay"`
	CallTimeout time.Duration `yaml:"call_timeout"`
}

// AvailabilityConfig holds the allow-sets for the validation status fields.
// The marketplace mandates these values externally; they are configuration,
// not logic, and must be kept in line with current platform documentation.
type AvailabilityConfig struct {
	OfferValidationAllowed       []int `yaml:"offer_validation_allowed"`
	ContentValidationAllowed     []int `yaml:"content_validation_allowed"`
	TranslationValidationAllowed []int `yaml:"translation_validation_allowed"`
}

// SchedulerConfig controls periodic sync triggering. MaxJitter shifts every
// trigger off exact clock boundaries.
type SchedulerConfig struct {
	Enabled   bool          `yaml:"enabled"`
	Interval  time.Duration `yaml:"interval"`
	MaxJitter time.Duration `yaml:"max_jitter"`
}

type AppConfig struct {
	Accounts     []AccountConfig    `yaml:"accounts"`
	RateLimits   RateLimitConfig    `yaml:"rate_limits"`
	Retry        RetryConfig        `yaml:"retry"`
	Availability AvailabilityConfig `yaml:"availability"`
	Scheduler    SchedulerConfig    `yaml:"scheduler"`
	Postgres     PostgresConfig     `yaml:"postgres"`
	ListenAddr   string             `yaml:"listen_addr"`
	LogLevel     string             `yaml:"log_level"`
}

func LoadConfig(filename string) (*AppConfig, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	decoder := yaml.NewDecoder(file)
	config := DefaultConfig()
	if err := decoder.Decode(config); err != nil {
		return nil, err
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// DefaultConfig returns the configuration used when the yaml file omits a
// section. The availability allow-sets default to exactly the states the
// platform documents as sellable; nothing beyond those is assumed.
func DefaultConfig() *AppConfig {
	return &AppConfig{
		RateLimits: RateLimitConfig{
			OrdersPerSecond:  12,
			OrdersPerMinute:  720,
			DefaultPerSecond: 3,
			DefaultPerMinute: 180,
		},
		Retry: RetryConfig{
			MaxAttempts: 5,
			BaseDelay:   500 * time.Millisecond,
			MaxDelay:    16 * time.Second,
			CallTimeout: 30 * time.Second,
		},
		Availability: AvailabilityConfig{
			OfferValidationAllowed:       []int{1},
			ContentValidationAllowed:     []int{9, 12},
			TranslationValidationAllowed: []int{3, 4},
		},
		Scheduler: SchedulerConfig{
			Enabled:   false,
			Interval:  time.Hour,
			MaxJitter: 5 * time.Minute,
		},
		Postgres:   *GetPostgresConfig(),
		ListenAddr: ":8080",
		LogLevel:   "info",
	}
}

func (c *AppConfig) Validate() error {
	if len(c.Accounts) == 0 {
		return fmt.Errorf("config: at least one account is required")
	}
	seen := make(map[string]bool, len(c.Accounts))
	for _, acc := range c.Accounts {
		if acc.Name == "" || acc.BaseURL == "" {
			return fmt.Errorf("config: account name and base_url are required")
		}
		if seen[acc.Name] {
			return fmt.Errorf("config: duplicate account %q", acc.Name)
		}
		seen[acc.Name] = true
	}
	if c.Retry.MaxAttempts < 1 {
		return fmt.Errorf("config: retry max_attempts must be positive")
	}
	return nil
}
