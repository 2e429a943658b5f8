// Package config provides configuration loading and validation for both CLIs.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/jonathan/bioquery/internal/policy"
)

// Environment variables that override file values.
const (
	EnvCacheFile   = "BIOQUERY_CACHE_FILE"
	EnvLogLevel    = "BIOQUERY_LOG_LEVEL"
	EnvLogFormat   = "BIOQUERY_LOG_FORMAT"
	EnvUserAgent   = "BIOQUERY_USER_AGENT"
	EnvCodePattern = "BIOQUERY_CODE_PATTERN"
)

// DefaultCacheFileName is the policy cache file created in the user's home directory.
const DefaultCacheFileName = ".species_resolver_cache.json"

// DefaultPreferredSources are the Global Names data sources queried by default:
// Catalogue of Life, GBIF, EUNIS, IUCN, iNaturalist and Wikidata.
var DefaultPreferredSources = []int{1, 11, 158, 163, 180, 207}

// Config represents the configuration shared by the natura2000 and
// species_resolver commands. All fields are optional in the JSON file;
// missing values keep their defaults.
type Config struct {
	Log        LogConfig        `json:"log"`
	HTTP       HTTPConfig       `json:"http"`
	Resolver   ResolverConfig   `json:"resolver"`
	Natura2000 Natura2000Config `json:"natura2000"`
}

// LogConfig selects the slog handler.
type LogConfig struct {
	Level  string `json:"level,omitempty" validate:"oneof=debug info warn error"`
	Format string `json:"format,omitempty" validate:"oneof=text json"`
}

// HTTPConfig holds settings shared by every outbound client.
type HTTPConfig struct {
	UserAgent string `json:"user_agent,omitempty" validate:"required"`
}

// ResolverConfig configures species_resolver.
type ResolverConfig struct {
	CacheFile        string            `json:"cache_file,omitempty" validate:"required"`
	CacheMaxAgeHours int               `json:"cache_max_age_hours,omitempty" validate:"min=1"`
	CodePattern      string            `json:"code_pattern,omitempty" validate:"required"`
	PreferredSources []int             `json:"preferred_sources,omitempty" validate:"dive,min=1"`
	Endpoints        ResolverEndpoints `json:"endpoints"`
	Timeouts         ResolverTimeouts  `json:"timeouts"`
}

// ResolverEndpoints are the base URLs of the services the resolver calls.
type ResolverEndpoints struct {
	PolicyListing string `json:"policy_listing,omitempty" validate:"required,url"`
	GBIFMatch     string `json:"gbif_match,omitempty" validate:"required,url"`
	ChecklistBank string `json:"checklistbank,omitempty" validate:"required,url"`
	Verifier      string `json:"verifier,omitempty" validate:"required,url"`
}

// ResolverTimeouts are per-request timeouts in seconds.
type ResolverTimeouts struct {
	PolicyListingSeconds int `json:"policy_listing_seconds,omitempty" validate:"min=1"`
	GBIFSeconds          int `json:"gbif_seconds,omitempty" validate:"min=1"`
	ChecklistBankSeconds int `json:"checklistbank_seconds,omitempty" validate:"min=1"`
	VerifierSeconds      int `json:"verifier_seconds,omitempty" validate:"min=1"`
}

// Natura2000Config configures the natura2000 command.
type Natura2000Config struct {
	Endpoint       string `json:"endpoint,omitempty" validate:"required,url"`
	TimeoutSeconds int    `json:"timeout_seconds,omitempty" validate:"min=1"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		HTTP: HTTPConfig{
			UserAgent: "SpeciesResolverCLI/2.0 (Educational/Research)",
		},
		Resolver: ResolverConfig{
			CacheFile:        defaultCacheFile(),
			CacheMaxAgeHours: 24 * 7,
			CodePattern:      policy.DefaultCodePattern,
			PreferredSources: append([]int(nil), DefaultPreferredSources...),
			Endpoints: ResolverEndpoints{
				PolicyListing: "https://www.eea.europa.eu/data-and-maps/daviz/sds/list-of-eunis-species-with-1/daviz.json",
				GBIFMatch:     "https://api.gbif.org/v1/species/match",
				ChecklistBank: "https://api.checklistbank.org/dataset/3/nameusage",
				Verifier:      "https://verifier.globalnames.org/api/v1/verifications",
			},
			Timeouts: ResolverTimeouts{
				PolicyListingSeconds: 30,
				GBIFSeconds:          10,
				ChecklistBankSeconds: 10,
				VerifierSeconds:      15,
			},
		},
		Natura2000: Natura2000Config{
			Endpoint:       "https://discodata.eea.europa.eu/sql",
			TimeoutSeconds: 20,
		},
	}
}

func defaultCacheFile() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return DefaultCacheFileName
	}
	return filepath.Join(home, DefaultCacheFileName)
}

// Load builds the effective configuration: defaults, then the JSON file at
// path (skipped when path is empty), then environment overrides. The result
// is validated before it is returned.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		fileCfg, err := LoadConfig(path)
		if err != nil {
			return nil, err
		}
		cfg = fileCfg
	}
	cfg.ApplyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadConfig loads configuration from a JSON file on top of the defaults.
// Returns an error if the file cannot be read or parsed.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		return nil, fmt.Errorf("config path is empty")
	}

	// Resolve path relative to current directory if not absolute
	if !filepath.IsAbs(path) {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get current directory: %w", err)
		}
		path = filepath.Join(cwd, path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	cfg := Default()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	return cfg, nil
}

// ApplyEnv overrides fields from BIOQUERY_* environment variables.
func (c *Config) ApplyEnv() {
	if v := os.Getenv(EnvCacheFile); v != "" {
		c.Resolver.CacheFile = v
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		c.Log.Level = v
	}
	if v := os.Getenv(EnvLogFormat); v != "" {
		c.Log.Format = v
	}
	if v := os.Getenv(EnvUserAgent); v != "" {
		c.HTTP.UserAgent = v
	}
	if v := os.Getenv(EnvCodePattern); v != "" {
		c.Resolver.CodePattern = v
	}
}

// Validate checks that the configuration has valid values.
func (c *Config) Validate() error {
	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		var validationErrors validator.ValidationErrors
		if errors.As(err, &validationErrors) && len(validationErrors) > 0 {
			ve := validationErrors[0]
			return fmt.Errorf("config error: %s fails %q (value %v)", ve.Namespace(), ve.Tag(), ve.Value())
		}
		return fmt.Errorf("config error: %w", err)
	}

	if _, err := policy.PatternMatcher(c.Resolver.CodePattern); err != nil {
		return fmt.Errorf("config error: 'resolver.code_pattern' is not a valid regular expression: %w", err)
	}

	return nil
}

// CacheMaxAge is the staleness threshold for the policy cache file.
func (r ResolverConfig) CacheMaxAge() time.Duration {
	return time.Duration(r.CacheMaxAgeHours) * time.Hour
}

// Seconds converts a timeout setting to a duration.
func Seconds(n int) time.Duration {
	return time.Duration(n) * time.Second
}
