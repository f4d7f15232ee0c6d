// Package config provides configuration loading for the album client.
// Values come from built-in defaults, an optional TOML file, and environment variables,
// in increasing order of precedence.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// init loads .env files during package initialization.
// godotenv.Load() does not override already-set environment variables,
// preserving OS env > .env precedence.
func init() {
	if _, err := os.Stat(".env"); err == nil {
		if err := godotenv.Load(); err != nil {
			fmt.Fprintf(os.Stderr, "warning: failed to load .env file: %v\n", err)
		}
	}

	// .env.local holds local overrides and is gitignored
	if _, err := os.Stat(".env.local"); err == nil {
		if err := godotenv.Load(".env.local"); err != nil {
			fmt.Fprintf(os.Stderr, "warning: failed to load .env.local file: %v\n", err)
		}
	}
}

// Mode selects which gateway implementation backs the stores.
type Mode string

const (
	ModeLive    Mode = "live"    // talk to the real backend over HTTP
	ModeFixture Mode = "fixture" // serve everything from the in-memory fixture
)

// Config captures the settings consumed by the client core and the two binaries.
type Config struct {
	Env          string `toml:"env"`          // Deployment environment (dev, prod)
	Mode         Mode   `toml:"mode"`         // live or fixture
	APIBaseURL   string `toml:"apiBaseUrl"`   // Backend API base URL, scheme-normalised
	MediaBaseURL string `toml:"mediaBaseUrl"` // Base URL media paths are resolved against
	Debug        bool   `toml:"debug"`        // Verbose logging

	AvailabilityTimeout time.Duration `toml:"-"` // Upper bound for the HEAD / probe
	RequestTimeout      time.Duration `toml:"-"` // Per-request HTTP client timeout
	APIToken            string        `toml:"apiToken"`

	PrefsDSN string `toml:"prefsDsn"` // Preference store: empty=memory, postgres://..., or a sqlite path
	NATSURL  string `toml:"natsUrl"`  // Event publisher; empty disables publishing

	S3Endpoint   string        `toml:"s3Endpoint"`
	S3Region     string        `toml:"s3Region"`
	S3Bucket     string        `toml:"s3Bucket"`
	S3AccessKey  string        `toml:"s3AccessKey"`
	S3SecretKey  string        `toml:"s3SecretKey"`
	S3PresignTTL time.Duration `toml:"-"`

	FixtureDir string `toml:"fixtureDir"` // Directory scanned into the fixture at server start
	Port       string `toml:"port"`       // Fixture server port
}

// fileConfig mirrors Config for TOML decoding; durations are written as strings ("3s").
type fileConfig struct {
	Config
	AvailabilityTimeout string `toml:"availabilityTimeout"`
	RequestTimeout      string `toml:"requestTimeout"`
	S3PresignTTL        string `toml:"s3PresignTtl"`
}

// Default configuration values used when nothing else is set
const (
	defaultEnv                 = "dev"
	defaultBaseURL             = "http://localhost:8000"
	defaultPort                = "8000"
	defaultS3Region            = "us-east-1"
	defaultAvailabilityTimeout = 3 * time.Second
	defaultRequestTimeout      = 30 * time.Second
	defaultPresignTTL          = 15 * time.Minute
)

// Default returns the configuration used when no file or environment overrides exist.
// Fixture mode is the default so the client works without a backend.
func Default() Config {
	return Config{
		Env:                 defaultEnv,
		Mode:                ModeFixture,
		APIBaseURL:          defaultBaseURL,
		MediaBaseURL:        defaultBaseURL,
		AvailabilityTimeout: defaultAvailabilityTimeout,
		RequestTimeout:      defaultRequestTimeout,
		S3Region:            defaultS3Region,
		S3PresignTTL:        defaultPresignTTL,
		Port:                defaultPort,
	}
}

// Load reads the optional ALBUM_CONFIG_FILE and then environment variables, and returns a
// validated Config with base URLs normalised.
func Load() (Config, error) {
	cfg := Default()

	if path, exists := os.LookupEnv("ALBUM_CONFIG_FILE"); exists && path != "" {
		if err := cfg.applyFile(path); err != nil {
			return cfg, err
		}
	}

	cfg.applyEnv()

	if err := cfg.validate(); err != nil {
		return cfg, err
	}
	cfg.APIBaseURL = NormalizeBaseURL(cfg.APIBaseURL)
	cfg.MediaBaseURL = NormalizeBaseURL(cfg.MediaBaseURL)
	return cfg, nil
}

func (cfg *Config) applyFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	fc := fileConfig{Config: *cfg}
	if err := toml.Unmarshal(data, &fc); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	*cfg = fc.Config
	for _, d := range []struct {
		raw string
		dst *time.Duration
	}{
		{fc.AvailabilityTimeout, &cfg.AvailabilityTimeout},
		{fc.RequestTimeout, &cfg.RequestTimeout},
		{fc.S3PresignTTL, &cfg.S3PresignTTL},
	} {
		if d.raw == "" {
			continue
		}
		v, err := time.ParseDuration(d.raw)
		if err != nil {
			return fmt.Errorf("parse config file %s: %w", path, err)
		}
		*d.dst = v
	}
	return nil
}

func (cfg *Config) applyEnv() {
	cfg.Env = getEnv("ALBUM_ENV", cfg.Env)
	cfg.Mode = Mode(getEnv("ALBUM_MODE", string(cfg.Mode)))
	cfg.APIBaseURL = getEnv("ALBUM_API_URL", cfg.APIBaseURL)
	cfg.MediaBaseURL = getEnv("ALBUM_MEDIA_URL", cfg.MediaBaseURL)

	if debug, exists := os.LookupEnv("ALBUM_DEBUG"); exists {
		cfg.Debug = parseBool(debug)
	}

	cfg.AvailabilityTimeout = getEnvDuration("ALBUM_AVAILABILITY_TIMEOUT", cfg.AvailabilityTimeout)
	cfg.RequestTimeout = getEnvDuration("ALBUM_REQUEST_TIMEOUT", cfg.RequestTimeout)

	if token, exists := os.LookupEnv("ALBUM_API_TOKEN"); exists {
		cfg.APIToken = token
	}
	if dsn, exists := os.LookupEnv("ALBUM_PREFS_DSN"); exists {
		cfg.PrefsDSN = dsn
	}
	if natsURL, exists := os.LookupEnv("ALBUM_NATS_URL"); exists {
		cfg.NATSURL = natsURL
	}

	cfg.S3Endpoint = getEnv("ALBUM_S3_ENDPOINT", cfg.S3Endpoint)
	cfg.S3Region = getEnv("ALBUM_S3_REGION", cfg.S3Region)
	cfg.S3Bucket = getEnv("ALBUM_S3_BUCKET", cfg.S3Bucket)
	cfg.S3AccessKey = getEnv("ALBUM_S3_ACCESS_KEY", cfg.S3AccessKey)
	cfg.S3SecretKey = getEnv("ALBUM_S3_SECRET_KEY", cfg.S3SecretKey)
	cfg.S3PresignTTL = getEnvDuration("ALBUM_S3_PRESIGN_TTL", cfg.S3PresignTTL)

	cfg.FixtureDir = getEnv("ALBUM_FIXTURE_DIR", cfg.FixtureDir)
	cfg.Port = getEnv("ALBUM_PORT", cfg.Port)
}

func (cfg *Config) validate() error {
	switch cfg.Mode {
	case ModeLive, ModeFixture:
	default:
		return fmt.Errorf("ALBUM_MODE must be %q or %q, got %q", ModeLive, ModeFixture, cfg.Mode)
	}
	if strings.TrimSpace(cfg.APIBaseURL) == "" {
		return fmt.Errorf("ALBUM_API_URL must not be empty")
	}
	if cfg.AvailabilityTimeout <= 0 {
		return fmt.Errorf("availability timeout must be positive")
	}
	if cfg.RequestTimeout <= 0 {
		return fmt.Errorf("request timeout must be positive")
	}
	return nil
}

// IsDev reports whether debug-level logging should be enabled.
func (cfg Config) IsDev() bool {
	return cfg.Env == "dev" || cfg.Debug
}

// NormalizeBaseURL trims whitespace and trailing slashes and prepends http:// when the
// URL carries no scheme.
func NormalizeBaseURL(raw string) string {
	u := strings.TrimRight(strings.TrimSpace(raw), "/")
	if u == "" {
		return u
	}
	if !strings.HasPrefix(u, "http://") && !strings.HasPrefix(u, "https://") {
		u = "http://" + u
	}
	return u
}

// getEnv retrieves an environment variable value, returning a fallback if not set or empty
func getEnv(key, fallback string) string {
	if v, exists := os.LookupEnv(key); exists && v != "" {
		return v
	}
	return fallback
}

// getEnvDuration parses a Go duration, returning fallback when unset or malformed
func getEnvDuration(key string, fallback time.Duration) time.Duration {
	v, exists := os.LookupEnv(key)
	if !exists || v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		fmt.Fprintf(os.Stderr, "warning: ignoring %s=%q: %v\n", key, v, err)
		return fallback
	}
	return d
}

// parseBool converts a string to a boolean value, returning false if parsing fails
func parseBool(v string) bool {
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false
	}
	return b
}
