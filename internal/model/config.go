package model

import "time"

// Config holds all runtime settings
type Config struct {
	Session     SessionConfig     `yaml:"session" mapstructure:"session"`
	Lookup      LookupConfig      `yaml:"lookup" mapstructure:"lookup"`
	Cache       CacheConfig       `yaml:"cache" mapstructure:"cache"`
	Concurrency ConcurrencyConfig `yaml:"concurrency" mapstructure:"concurrency"`
	Log         LogConfig         `yaml:"log" mapstructure:"log"`
}

// SessionConfig controls the scan session timing
type SessionConfig struct {
	Debounce time.Duration `yaml:"debounce" mapstructure:"debounce"` // Minimum gap between accepted scans
	Dwell    time.Duration `yaml:"dwell" mapstructure:"dwell"`       // How long a result stays on screen
}

// LookupConfig controls remote card lookups
type LookupConfig struct {
	Timeout           time.Duration `yaml:"timeout" mapstructure:"timeout"`
	MaxBodyBytes      int64         `yaml:"max_body_bytes" mapstructure:"max_body_bytes"`
	Parser            string        `yaml:"parser" mapstructure:"parser"` // delimiter or html
	Issuer            string        `yaml:"issuer" mapstructure:"issuer"`
	RequestsPerSecond float64       `yaml:"requests_per_second" mapstructure:"requests_per_second"`
	Burst             int           `yaml:"burst" mapstructure:"burst"`
	HTTPProxy         string        `yaml:"http_proxy,omitempty" mapstructure:"http_proxy"`
	HTTPSProxy        string        `yaml:"https_proxy,omitempty" mapstructure:"https_proxy"`
	NoProxy           string        `yaml:"no_proxy,omitempty" mapstructure:"no_proxy"` // Comma-separated hosts or .domain suffixes
}

// CacheConfig controls the in-memory lookup cache
type CacheConfig struct {
	Enabled bool          `yaml:"enabled" mapstructure:"enabled"`
	TTL     time.Duration `yaml:"ttl" mapstructure:"ttl"`
}

// ConcurrencyConfig controls batch processing
type ConcurrencyConfig struct {
	Workers int `yaml:"workers" mapstructure:"workers"`
}

// LogConfig controls diagnostic logging
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`   // debug, info, warn, error
	Format string `yaml:"format" mapstructure:"format"` // text or json
}

// Lookup parser names
const (
	ParserDelimiter = "delimiter"
	ParserHTML      = "html"
)

// DefaultConfig returns the built-in defaults
func DefaultConfig() *Config {
	return &Config{
		Session: SessionConfig{
			Debounce: 1000 * time.Millisecond,
			Dwell:    5000 * time.Millisecond,
		},
		Lookup: LookupConfig{
			Timeout:           15 * time.Second,
			MaxBodyBytes:      1 << 20,
			Parser:            ParserDelimiter,
			Issuer:            DefaultIssuer,
			RequestsPerSecond: 2,
			Burst:             2,
		},
		Cache: CacheConfig{
			Enabled: false,
			TTL:     time.Minute,
		},
		Concurrency: ConcurrencyConfig{
			Workers: 4,
		},
		Log: LogConfig{
			Level:  "warn",
			Format: "text",
		},
	}
}
