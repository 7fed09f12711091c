// Package config loads broker configuration from an optional YAML file,
// a .env file, and environment variables. Environment variables win.
package config

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Redirect delivery modes. See internal/redirect.
const (
	RedirectModeHTTP = "http"
	RedirectModeFile = "file"
)

// Config holds all configuration for pilot-auth.
type Config struct {
	// AppURL is the identity provider's web app; login starts at
	// AppURL + "/login".
	AppURL string `env:"PILOT_APP_URL" yaml:"app_url" envDefault:"https://mindbowser.epico.ai"`

	// TokenURL is the gateway endpoint that exchanges a refresh token
	// for a new token pair.
	TokenURL string `env:"PILOT_TOKEN_URL" yaml:"token_url" envDefault:"https://api-gateway.epico.ai/m2/v1/access-token"`

	// RedirectURI identifies this application to the provider's login
	// page. The provider's redirect page forwards the callback to the
	// local broker using it.
	RedirectURI string `env:"PILOT_REDIRECT_URI" yaml:"redirect_uri" envDefault:"mindbowser.pilot-auth"`

	// Source is reported to the login page so the provider knows which
	// surface initiated the flow.
	Source string `env:"PILOT_SOURCE" yaml:"source" envDefault:"vscode"`

	// RedirectMode selects how callbacks reach the broker: "http" runs
	// a loopback listener, "file" watches a handoff directory written
	// by the OS URI-scheme handler.
	RedirectMode string `env:"PILOT_REDIRECT_MODE" yaml:"redirect_mode" envDefault:"http"`

	// CallbackAddr is the loopback listen address for http mode.
	CallbackAddr string `env:"PILOT_CALLBACK_ADDR" yaml:"callback_addr" envDefault:"127.0.0.1:43110"`

	// HandoffDir is the watched directory for file mode. Defaults to
	// ~/.pilot-auth/callbacks when empty.
	HandoffDir string `env:"PILOT_HANDOFF_DIR" yaml:"handoff_dir"`

	// SecretsPath is the bbolt database holding encrypted credentials.
	// Defaults to ~/.pilot-auth/secrets.db when empty.
	SecretsPath string `env:"PILOT_SECRETS_PATH" yaml:"secrets_path"`

	// Passphrase protects secrets at rest. When empty, a random key
	// file next to the secrets database is used instead.
	Passphrase string `env:"PILOT_PASSPHRASE" yaml:"-"`

	// LoginTimeout bounds how long a login waits for the browser
	// redirect before giving up.
	LoginTimeout time.Duration `env:"PILOT_LOGIN_TIMEOUT" yaml:"login_timeout" envDefault:"15m"`

	// HTTPTimeout bounds token endpoint calls. The upstream gateway
	// enforces no timeout of its own, so this is the only bound.
	HTTPTimeout time.Duration `env:"PILOT_HTTP_TIMEOUT" yaml:"http_timeout" envDefault:"30s"`

	// Environment controls log format.
	Environment string `env:"ENVIRONMENT" yaml:"environment" envDefault:"development"`
}

// warnInsecureEnvFile checks whether the .env file (if present) has
// overly permissive permissions. On Unix systems, group or world
// readable files risk exposing credentials to other users.
func warnInsecureEnvFile() {
	if runtime.GOOS == "windows" {
		return
	}

	info, err := os.Stat(".env")
	if err != nil {
		return // file does not exist, nothing to check
	}

	mode := info.Mode().Perm()
	if mode&0o077 != 0 {
		log.Printf("WARNING: .env file has insecure permissions %04o; recommended 0600", mode)
	}
}

// Load reads configuration. Order: YAML file named by PILOT_CONFIG_FILE
// (if any), then .env, then environment variables. Env vars override
// the YAML file; YAML overrides built-in defaults.
func Load() (*Config, error) {
	_ = godotenv.Load()

	warnInsecureEnvFile()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	if path := os.Getenv("PILOT_CONFIG_FILE"); path != "" {
		if err := mergeYAML(cfg, path); err != nil {
			return nil, err
		}
	}

	if err := cfg.applyDefaults(); err != nil {
		return nil, err
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// yamlConfig mirrors Config for file parsing. Durations are strings
// ("15m") because yaml.v3 has no native time.Duration support.
type yamlConfig struct {
	AppURL       string `yaml:"app_url"`
	TokenURL     string `yaml:"token_url"`
	RedirectURI  string `yaml:"redirect_uri"`
	Source       string `yaml:"source"`
	RedirectMode string `yaml:"redirect_mode"`
	CallbackAddr string `yaml:"callback_addr"`
	HandoffDir   string `yaml:"handoff_dir"`
	SecretsPath  string `yaml:"secrets_path"`
	LoginTimeout string `yaml:"login_timeout"`
	HTTPTimeout  string `yaml:"http_timeout"`
	Environment  string `yaml:"environment"`
}

// mergeYAML overlays values from a YAML file onto cfg, but only for
// fields whose env var was not explicitly set, so env always wins.
func mergeYAML(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading config file: %w", err)
	}

	var overlay yamlConfig
	if err := yaml.Unmarshal(data, &overlay); err != nil {
		return fmt.Errorf("parsing config file %s: %w", path, err)
	}

	setString := func(envKey string, dst *string, val string) {
		if val == "" {
			return
		}
		if _, ok := os.LookupEnv(envKey); !ok {
			*dst = val
		}
	}

	setString("PILOT_APP_URL", &cfg.AppURL, overlay.AppURL)
	setString("PILOT_TOKEN_URL", &cfg.TokenURL, overlay.TokenURL)
	setString("PILOT_REDIRECT_URI", &cfg.RedirectURI, overlay.RedirectURI)
	setString("PILOT_SOURCE", &cfg.Source, overlay.Source)
	setString("PILOT_REDIRECT_MODE", &cfg.RedirectMode, overlay.RedirectMode)
	setString("PILOT_CALLBACK_ADDR", &cfg.CallbackAddr, overlay.CallbackAddr)
	setString("PILOT_HANDOFF_DIR", &cfg.HandoffDir, overlay.HandoffDir)
	setString("PILOT_SECRETS_PATH", &cfg.SecretsPath, overlay.SecretsPath)
	setString("ENVIRONMENT", &cfg.Environment, overlay.Environment)

	setDuration := func(envKey string, dst *time.Duration, val string) error {
		if val == "" {
			return nil
		}
		if _, ok := os.LookupEnv(envKey); ok {
			return nil
		}
		d, err := time.ParseDuration(val)
		if err != nil {
			return fmt.Errorf("parsing %s duration in config file: %w", envKey, err)
		}
		*dst = d
		return nil
	}

	if err := setDuration("PILOT_LOGIN_TIMEOUT", &cfg.LoginTimeout, overlay.LoginTimeout); err != nil {
		return err
	}
	if err := setDuration("PILOT_HTTP_TIMEOUT", &cfg.HTTPTimeout, overlay.HTTPTimeout); err != nil {
		return err
	}

	return nil
}

// applyDefaults fills in the path fields that depend on the home
// directory, and resolves them to absolute paths.
func (c *Config) applyDefaults() error {
	home, err := os.UserHomeDir()
	if err != nil {
		return fmt.Errorf("resolving home directory: %w", err)
	}

	if c.SecretsPath == "" {
		c.SecretsPath = filepath.Join(home, ".pilot-auth", "secrets.db")
	}
	if c.HandoffDir == "" {
		c.HandoffDir = filepath.Join(home, ".pilot-auth", "callbacks")
	}

	if c.SecretsPath, err = filepath.Abs(c.SecretsPath); err != nil {
		return fmt.Errorf("resolving secrets path: %w", err)
	}
	if c.HandoffDir, err = filepath.Abs(c.HandoffDir); err != nil {
		return fmt.Errorf("resolving handoff dir: %w", err)
	}

	return nil
}

func (c *Config) validate() error {
	if c.AppURL == "" {
		return fmt.Errorf("PILOT_APP_URL must not be empty")
	}
	if c.TokenURL == "" {
		return fmt.Errorf("PILOT_TOKEN_URL must not be empty")
	}

	switch c.RedirectMode {
	case RedirectModeHTTP, RedirectModeFile:
	default:
		return fmt.Errorf("PILOT_REDIRECT_MODE must be %q or %q, got %q",
			RedirectModeHTTP, RedirectModeFile, c.RedirectMode)
	}

	if c.RedirectMode == RedirectModeHTTP && c.CallbackAddr == "" {
		return fmt.Errorf("PILOT_CALLBACK_ADDR required in http redirect mode")
	}

	if c.LoginTimeout <= 0 {
		return fmt.Errorf("PILOT_LOGIN_TIMEOUT must be positive")
	}
	if c.HTTPTimeout <= 0 {
		return fmt.Errorf("PILOT_HTTP_TIMEOUT must be positive")
	}

	return nil
}
