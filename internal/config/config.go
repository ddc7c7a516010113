// Package config handles the configuration directory, env files and settings.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"golang.org/x/oauth2"
)

const (
	// AppName is the application directory name.
	AppName = "taskdesk"

	// EnvFile is the optional env file inside the config directory.
	EnvFile = "config.env"

	// TokenFile is the stored bearer token filename.
	TokenFile = "token.json"

	// DatabaseFile is the default SQLite file for the reference backend.
	DatabaseFile = "tasks.db"

	// DefaultBaseURL is where the API client looks for the backend.
	DefaultBaseURL = "http://localhost:8080"

	// DefaultAPIListen is the reference backend listen address.
	DefaultAPIListen = ":8080"

	// DefaultWebListen is the browser view listen address.
	DefaultWebListen = ":3000"
)

// Environment variable names.
const (
	EnvBaseURL     = "TASKDESK_URL"
	EnvToken       = "TASKDESK_TOKEN"
	EnvDatabaseURL = "TASKDESK_DATABASE_URL"
	EnvJWTSecret   = "TASKDESK_JWT_SECRET"
	EnvListen      = "TASKDESK_LISTEN"
)

// Config holds configuration paths and settings.
type Config struct {
	// Dir is the configuration directory path.
	Dir string

	// BaseURL is the REST backend root, without the /api suffix.
	BaseURL string

	// Token is the bearer token from the environment. token.json wins over it.
	Token string

	// DatabaseURL selects the reference backend store.
	DatabaseURL string

	// JWTSecret signs and verifies bearer tokens on the reference backend.
	JWTSecret string

	// Listen overrides the listen address of serve and server.
	Listen string

	// Debug enables debug logging.
	Debug bool

	// Quiet suppresses informational output.
	Quiet bool
}

// New creates a new Config with the default or specified config directory.
// If configDir is empty, uses XDG_CONFIG_HOME/taskdesk or $HOME/.config/taskdesk.
// Variables from <dir>/config.env and ./.env are loaded without overriding the
// process environment.
func New(configDir string) (*Config, error) {
	dir := configDir
	if dir == "" {
		dir = DefaultConfigDir()
	}

	for _, path := range []string{filepath.Join(dir, EnvFile), ".env"} {
		if _, err := os.Stat(path); err != nil {
			continue
		}
		if err := godotenv.Load(path); err != nil {
			return nil, fmt.Errorf("failed to load %s: %w", path, err)
		}
	}

	cfg := &Config{
		Dir:         dir,
		BaseURL:     strings.TrimRight(getenv(EnvBaseURL, DefaultBaseURL), "/"),
		Token:       os.Getenv(EnvToken),
		DatabaseURL: getenv(EnvDatabaseURL, filepath.Join(dir, DatabaseFile)),
		JWTSecret:   os.Getenv(EnvJWTSecret),
		Listen:      os.Getenv(EnvListen),
	}
	return cfg, nil
}

func getenv(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

// DefaultConfigDir returns the default configuration directory.
// Uses XDG_CONFIG_HOME if set, otherwise $HOME/.config.
func DefaultConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, AppName)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		// Fallback to current directory if home can't be determined
		return AppName
	}
	return filepath.Join(home, ".config", AppName)
}

// TokenPath returns the path to the stored token file.
func (c *Config) TokenPath() string {
	return filepath.Join(c.Dir, TokenFile)
}

// EnsureDir creates the config directory if it doesn't exist.
// Directory is created with mode 0700.
func (c *Config) EnsureDir() error {
	return os.MkdirAll(c.Dir, 0700)
}

// HasToken checks if the token file exists.
func (c *Config) HasToken() bool {
	_, err := os.Stat(c.TokenPath())
	return err == nil
}

// RemoveToken deletes the token file.
func (c *Config) RemoveToken() error {
	return os.Remove(c.TokenPath())
}

// SaveToken writes token to token.json with mode 0600.
func (c *Config) SaveToken(token *oauth2.Token) error {
	if err := c.EnsureDir(); err != nil {
		return err
	}
	data, err := json.MarshalIndent(token, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(c.TokenPath(), data, 0600)
}

// LoadToken returns the bearer token the API client should send.
// token.json takes precedence over TASKDESK_TOKEN. Returns nil when neither is set.
func (c *Config) LoadToken() (*oauth2.Token, error) {
	data, err := os.ReadFile(c.TokenPath())
	if err == nil {
		var token oauth2.Token
		if err := json.Unmarshal(data, &token); err != nil {
			return nil, fmt.Errorf("invalid token.json: %w", err)
		}
		if token.AccessToken == "" {
			return nil, fmt.Errorf("invalid token.json: empty access token")
		}
		return &token, nil
	}
	if !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to read token.json: %w", err)
	}

	if c.Token != "" {
		return &oauth2.Token{AccessToken: c.Token, TokenType: "Bearer"}, nil
	}
	return nil, nil
}
