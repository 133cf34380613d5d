package docfill

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"sync"

	"github.com/goccy/go-yaml"
	"github.com/spf13/pflag"
)

// Sentinel errors for config operations.
var (
	ErrConfigNotFound = errors.New("config file not found")
	ErrConfigParse    = errors.New("failed to parse config")
)

// Config contains all configuration options for the docfill engine and
// service.
type Config struct {
	// ListenAddr is the address the HTTP server binds to.
	ListenAddr string `yaml:"listenAddr"`
	// StoreRoot is the directory backing the filesystem blob store.
	StoreRoot string `yaml:"storeRoot"`
	// StoreBaseURL is the public URL prefix reported for stored objects.
	StoreBaseURL string `yaml:"storeBaseURL"`
	// DefaultTemplateKey is used when a fill request names no template.
	DefaultTemplateKey string `yaml:"defaultTemplateKey"`
	// DefaultOutputName is the attachment filename for direct downloads.
	DefaultOutputName string `yaml:"defaultOutputName"`
	// BodyFont is the canonical font applied to spliced value text.
	BodyFont string `yaml:"bodyFont"`
	// BodySize is the canonical font size in half-points.
	BodySize int `yaml:"bodySize"`
	// MaxImageWidth and MaxImageHeight bound the page content box, in inches.
	MaxImageWidth  float64 `yaml:"maxImageWidth"`
	MaxImageHeight float64 `yaml:"maxImageHeight"`
	// FallbackImageWidth is the preferred width for image tokens absent from
	// the width table, in inches.
	FallbackImageWidth float64 `yaml:"fallbackImageWidth"`
	// KeyProbeWindow bounds how many numeric suffixes are tried when picking
	// a non-colliding output key before falling back to a timestamp.
	KeyProbeWindow int `yaml:"keyProbeWindow"`
	// LogLevel controls the verbosity of logging (debug, info, warn, error)
	LogLevel string `yaml:"logLevel"`
}

var (
	globalConfig      *Config
	globalConfigMutex sync.RWMutex
	configOnce        sync.Once
)

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		ListenAddr:         ":8000",
		StoreRoot:          "data",
		StoreBaseURL:       "",
		DefaultTemplateKey: "_Templates/IDS_Template_Fairbridge.docx",
		DefaultOutputName:  "IDS_Generated.docx",
		BodyFont:           "Calibri",
		BodySize:           22,
		MaxImageWidth:      6.5,
		MaxImageHeight:     8.5,
		FallbackImageWidth: 6.0,
		KeyProbeWindow:     8,
		LogLevel:           "info",
	}
}

// ConfigFromEnvironment creates a configuration from environment variables
func ConfigFromEnvironment() *Config {
	config := DefaultConfig()

	if val := os.Getenv("DOCFILL_LISTEN_ADDR"); val != "" {
		config.ListenAddr = val
	}
	if val := os.Getenv("DOCFILL_STORE_ROOT"); val != "" {
		config.StoreRoot = val
	}
	if val := os.Getenv("DOCFILL_STORE_BASE_URL"); val != "" {
		config.StoreBaseURL = val
	}
	if val := os.Getenv("DOCFILL_TEMPLATE_KEY"); val != "" {
		config.DefaultTemplateKey = val
	}
	if val := os.Getenv("DOCFILL_LOG_LEVEL"); val != "" {
		config.LogLevel = val
	}
	if val := os.Getenv("DOCFILL_KEY_PROBE_WINDOW"); val != "" {
		if window, err := strconv.Atoi(val); err == nil {
			config.KeyProbeWindow = window
		}
	}

	return config
}

// LoadConfig reads a YAML configuration file and applies it over the
// defaults. Fields absent from the file keep their default values.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrConfigNotFound, path)
		}
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConfigParse, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// AddFlags registers command-line overrides for the service-facing options.
func (c *Config) AddFlags(fs *pflag.FlagSet) {
	fs.StringVar(&c.ListenAddr, "listen", c.ListenAddr, "address for the HTTP server")
	fs.StringVar(&c.StoreRoot, "store-root", c.StoreRoot, "directory backing the blob store")
	fs.StringVar(&c.StoreBaseURL, "store-base-url", c.StoreBaseURL, "public URL prefix for stored objects")
	fs.StringVar(&c.LogLevel, "log-level", c.LogLevel, "log level (debug, info, warn, error)")
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.BodySize <= 0 {
		return errors.New("body size must be positive")
	}

	if c.MaxImageWidth <= 0 || c.MaxImageHeight <= 0 {
		return errors.New("page content box dimensions must be positive")
	}

	if c.FallbackImageWidth <= 0 {
		return errors.New("fallback image width must be positive")
	}

	if c.KeyProbeWindow <= 0 {
		return errors.New("key probe window must be positive")
	}

	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
		"off":   true,
	}

	if !validLogLevels[c.LogLevel] {
		return errors.New("invalid log level: " + c.LogLevel)
	}

	return nil
}

// GetGlobalConfig returns the global configuration
func GetGlobalConfig() *Config {
	configOnce.Do(func() {
		globalConfig = ConfigFromEnvironment()
	})

	globalConfigMutex.RLock()
	defer globalConfigMutex.RUnlock()

	configCopy := *globalConfig
	return &configCopy
}

// SetGlobalConfig sets the global configuration
func SetGlobalConfig(config *Config) {
	configOnce.Do(func() {})

	globalConfigMutex.Lock()
	globalConfig = config
	globalConfigMutex.Unlock()

	UpdateLoggerFromConfig()
}
