// Package config loads the server configuration from the environment,
// optionally seeded from a dotenv file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/mudler/x-mcp/internal/oauth"
)

const (
	EnvConsumerKey       = "X_CONSUMER_KEY"
	EnvConsumerSecret    = "X_CONSUMER_SECRET"
	EnvAccessToken       = "X_ACCESS_TOKEN"
	EnvAccessTokenSecret = "X_ACCESS_TOKEN_SECRET"
	EnvBearerToken       = "X_BEARER_TOKEN"
	EnvReadOnly          = "X_READ_ONLY"
	EnvAPIBaseURL        = "X_API_BASE_URL"
	EnvHTTPTimeout       = "X_HTTP_TIMEOUT"
	EnvEnvFile           = "X_MCP_ENV_FILE"
	EnvDebug             = "X_MCP_DEBUG"
	EnvLegacyDebug       = "TWITTER_DEBUG"
	EnvLogFile           = "X_MCP_LOG_FILE"

	DefaultAPIBaseURL  = "https://api.twitter.com/2"
	DefaultHTTPTimeout = 30 * time.Second
	DefaultEnvFile     = ".env"
)

// AuthMode selects how upstream requests are authenticated.
type AuthMode string

const (
	AuthOAuth1 AuthMode = "oauth1"
	AuthBearer AuthMode = "bearer"
)

// Config holds all configuration for the X MCP server.
type Config struct {
	// Credentials is the Credential Store. It is only populated in AuthOAuth1
	// mode and is never mutated after Load returns.
	Credentials oauth.Credentials
	BearerToken string
	AuthMode    AuthMode
	ReadOnly    bool

	APIBaseURL  string
	HTTPTimeout time.Duration

	Debug   bool
	LogFile string
}

// UserContext reports whether requests are signed on behalf of a user, which
// posting requires.
func (c *Config) UserContext() bool {
	return c.AuthMode == AuthOAuth1
}

// ConfigurationError is returned when required settings are missing or
// invalid. It names variables, never their values.
type ConfigurationError struct {
	Vars   []string
	Reason string
}

func (e *ConfigurationError) Error() string {
	if len(e.Vars) == 0 {
		return "configuration error: " + e.Reason
	}
	return fmt.Sprintf("configuration error: %s: %s", e.Reason, strings.Join(e.Vars, ", "))
}

// LookupFunc reads a single variable, like os.LookupEnv.
type LookupFunc func(key string) (string, bool)

// Load reads the process environment, seeded from the dotenv file named by
// X_MCP_ENV_FILE (default ".env"). Variables already set in the environment
// take precedence over the file.
func Load() (*Config, error) {
	envFile := DefaultEnvFile
	if v, ok := os.LookupEnv(EnvEnvFile); ok && v != "" {
		envFile = v
	}
	fileVars, err := godotenv.Read(envFile)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, &ConfigurationError{Vars: []string{EnvEnvFile}, Reason: fmt.Sprintf("cannot read %s: %v", envFile, err)}
		}
		fileVars = nil
	}
	return LoadFrom(func(key string) (string, bool) {
		if v, ok := os.LookupEnv(key); ok {
			return v, true
		}
		v, ok := fileVars[key]
		return v, ok
	})
}

// LoadFrom builds a Config from lookup and validates it.
//
// Credential precedence:
//   - some but not all OAuth variables set: error naming the missing ones
//   - full mode (default): all four OAuth variables are required
//   - read-only mode: OAuth 1.0a when complete, else X_BEARER_TOKEN, else error
func LoadFrom(lookup LookupFunc) (*Config, error) {
	get := func(key string) string {
		v, _ := lookup(key)
		return strings.TrimSpace(v)
	}

	readOnly, err := getBool(get, EnvReadOnly, false)
	if err != nil {
		return nil, err
	}
	timeout, err := getDuration(get, EnvHTTPTimeout, DefaultHTTPTimeout)
	if err != nil {
		return nil, err
	}
	debug := get(EnvDebug) != "" || get(EnvLegacyDebug) != ""

	cfg := &Config{
		BearerToken: get(EnvBearerToken),
		ReadOnly:    readOnly,
		APIBaseURL:  strings.TrimRight(getDefault(get, EnvAPIBaseURL, DefaultAPIBaseURL), "/"),
		HTTPTimeout: timeout,
		Debug:       debug,
		LogFile:     get(EnvLogFile),
	}

	creds := oauth.Credentials{
		ConsumerKey:       get(EnvConsumerKey),
		ConsumerSecret:    get(EnvConsumerSecret),
		AccessToken:       get(EnvAccessToken),
		AccessTokenSecret: get(EnvAccessTokenSecret),
	}
	missing := missingOAuthVars(creds)

	switch {
	case len(missing) == 0:
		cfg.Credentials = creds
		cfg.AuthMode = AuthOAuth1
	case len(missing) < 4:
		return nil, &ConfigurationError{Vars: missing, Reason: "incomplete OAuth 1.0a credentials"}
	case !readOnly:
		return nil, &ConfigurationError{Vars: missing, Reason: "OAuth 1.0a credentials are required (set X_READ_ONLY=true to run with X_BEARER_TOKEN)"}
	case cfg.BearerToken != "":
		cfg.AuthMode = AuthBearer
	default:
		return nil, &ConfigurationError{
			Vars:   append([]string{EnvBearerToken}, missing...),
			Reason: "read-only mode needs X_BEARER_TOKEN or OAuth 1.0a credentials",
		}
	}
	return cfg, nil
}

func missingOAuthVars(c oauth.Credentials) []string {
	var missing []string
	for _, f := range []struct {
		env   string
		value string
	}{
		{EnvConsumerKey, c.ConsumerKey},
		{EnvConsumerSecret, c.ConsumerSecret},
		{EnvAccessToken, c.AccessToken},
		{EnvAccessTokenSecret, c.AccessTokenSecret},
	} {
		if f.value == "" {
			missing = append(missing, f.env)
		}
	}
	return missing
}

func getDefault(get func(string) string, key, def string) string {
	if v := get(key); v != "" {
		return v
	}
	return def
}

func getBool(get func(string) string, key string, def bool) (bool, error) {
	v := get(key)
	if v == "" {
		return def, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, &ConfigurationError{Vars: []string{key}, Reason: fmt.Sprintf("invalid boolean %q", v)}
	}
	return b, nil
}

func getDuration(get func(string) string, key string, def time.Duration) (time.Duration, error) {
	v := get(key)
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		return 0, &ConfigurationError{Vars: []string{key}, Reason: fmt.Sprintf("invalid duration %q", v)}
	}
	return d, nil
}
