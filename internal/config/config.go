// Package config provides configuration management.
//
// Configuration is resolved in three layers: built-in defaults, an optional
// JSON file, then ADVISOR_* environment variables.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"go.uber.org/zap/zapcore"

	"invoice-advisor/core/model"
	"invoice-advisor/core/types"
	apperrors "invoice-advisor/internal/errors"
	"invoice-advisor/internal/logging"
)

// EnvPrefix prefixes every environment variable
const EnvPrefix = "ADVISOR"

// Config is the main application configuration
type Config struct {
	// Version is the configuration version
	Version string `json:"version" ignored:"true"`

	// Models locates the three model artifacts
	Models model.Specs `json:"models" envconfig:"MODELS"`

	// ModelDir resolves relative artifact paths
	ModelDir string `json:"model_dir" envconfig:"MODEL_DIR"`

	// ObjectStore configures s3:// artifact URIs
	ObjectStore model.ObjectStoreConfig `json:"object_store" envconfig:"OBJECT_STORE"`

	// RulesPath is an HCL rules file; empty uses the built-in rules
	RulesPath string `json:"rules_path" envconfig:"RULES_PATH"`

	// Currency is the currency of totals previews
	Currency types.Currency `json:"currency" envconfig:"CURRENCY"`

	// Server contains HTTP server configuration
	Server ServerConfig `json:"server" envconfig:"SERVER"`

	// Metrics contains metrics configuration
	Metrics MetricsConfig `json:"metrics" envconfig:"METRICS"`

	// Logging contains logging configuration
	Logging logging.Config `json:"logging" envconfig:"LOGGING"`
}

// ServerConfig contains HTTP server configuration
type ServerConfig struct {
	Addr            string   `json:"addr" envconfig:"ADDR"`
	ReadTimeout     Duration `json:"read_timeout" envconfig:"READ_TIMEOUT"`
	WriteTimeout    Duration `json:"write_timeout" envconfig:"WRITE_TIMEOUT"`
	IdleTimeout     Duration `json:"idle_timeout" envconfig:"IDLE_TIMEOUT"`
	ShutdownTimeout Duration `json:"shutdown_timeout" envconfig:"SHUTDOWN_TIMEOUT"`

	// MaxBodyBytes bounds request bodies
	MaxBodyBytes int64 `json:"max_body_bytes" envconfig:"MAX_BODY_BYTES"`
}

// MetricsConfig contains metrics configuration
type MetricsConfig struct {
	Enabled   bool   `json:"enabled" envconfig:"ENABLED"`
	Namespace string `json:"namespace" envconfig:"NAMESPACE"`

	// Runtime adds Go runtime and process collectors
	Runtime bool `json:"runtime" envconfig:"RUNTIME"`
}

// Duration is a time.Duration written as a string ("15s") in JSON and
// environment variables.
type Duration struct {
	time.Duration
}

// MarshalText implements encoding.TextMarshaler
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

// Default returns a default configuration
func Default() *Config {
	return &Config{
		Version: "1.0",
		Models: model.Specs{
			Discount: model.ArtifactSpec{URI: "discount.json"},
			TaxRate:  model.ArtifactSpec{URI: "tax_rate.json"},
			DocLevel: model.ArtifactSpec{URI: "doc_level.json"},
		},
		ModelDir: "models",
		ObjectStore: model.ObjectStoreConfig{
			Region: "us-east-1",
			UseSSL: true,
		},
		Currency: types.CurrencyUSD,
		Server: ServerConfig{
			Addr:            ":8080",
			ReadTimeout:     Duration{15 * time.Second},
			WriteTimeout:    Duration{15 * time.Second},
			IdleTimeout:     Duration{60 * time.Second},
			ShutdownTimeout: Duration{10 * time.Second},
			MaxBodyBytes:    1 << 20,
		},
		Metrics: MetricsConfig{
			Enabled:   true,
			Namespace: "invoice_advisor",
			Runtime:   true,
		},
		Logging: logging.DefaultConfig(),
	}
}

// Load reads path (a missing file means defaults), applies environment
// overrides and validates the result.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := json.Unmarshal(data, cfg); err != nil {
				return nil, apperrors.Config("failed to parse config file", err).WithContext("path", path)
			}
		case os.IsNotExist(err):
		default:
			return nil, apperrors.Config("failed to read config file", err).WithContext("path", path)
		}
	}

	if err := envconfig.Process(EnvPrefix, cfg); err != nil {
		return nil, apperrors.Config("failed to load config from environment", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the configuration is usable
func (c *Config) Validate() error {
	var problems []string
	add := func(format string, args ...interface{}) {
		problems = append(problems, fmt.Sprintf(format, args...))
	}

	usesObjectStore := false
	for name, spec := range map[string]model.ArtifactSpec{
		model.NameDiscount: c.Models.Discount,
		model.NameTaxRate:  c.Models.TaxRate,
		model.NameDocLevel: c.Models.DocLevel,
	} {
		if spec.URI == "" {
			add("models.%s.uri is required", name)
		}
		if strings.HasPrefix(spec.URI, "s3://") {
			usesObjectStore = true
			if _, _, err := model.ParseObjectURI(spec.URI); err != nil {
				add("models.%s.uri: %v", name, err)
			}
		}
	}
	if usesObjectStore && c.ObjectStore.Endpoint == "" {
		add("object_store.endpoint is required for s3:// model URIs")
	}

	if _, err := types.ParseCurrency(string(c.Currency)); err != nil {
		add("currency: %v", err)
	}

	if c.Server.Addr == "" {
		add("server.addr is required")
	}
	for name, d := range map[string]Duration{
		"read_timeout":     c.Server.ReadTimeout,
		"write_timeout":    c.Server.WriteTimeout,
		"idle_timeout":     c.Server.IdleTimeout,
		"shutdown_timeout": c.Server.ShutdownTimeout,
	} {
		if d.Duration <= 0 {
			add("server.%s must be positive", name)
		}
	}
	if c.Server.MaxBodyBytes <= 0 {
		add("server.max_body_bytes must be positive")
	}

	if _, err := zapcore.ParseLevel(c.Logging.Level); err != nil {
		add("logging.level: %v", err)
	}
	if c.Logging.Format != "json" && c.Logging.Format != "console" {
		add("logging.format must be json or console, got %q", c.Logging.Format)
	}

	if len(problems) > 0 {
		sort.Strings(problems)
		return apperrors.Newf(apperrors.TypeConfig, "invalid configuration: %s", strings.Join(problems, "; ")).
			WithContext("problems", problems)
	}
	return nil
}

// Save saves configuration to a file
func (c *Config) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

// Redacted returns a copy safe to print
func (c *Config) Redacted() *Config {
	out := *c
	if out.ObjectStore.SecretAccessKey != "" {
		out.ObjectStore.SecretAccessKey = "REDACTED"
	}
	return &out
}
