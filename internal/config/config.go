package config

import (
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Server    ServerConfig    `yaml:"server"`
	API       APIConfig       `yaml:"api"`
	UI        UIConfig        `yaml:"ui"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
	CORS      CORSConfig      `yaml:"cors"`
	Log       LogConfig       `yaml:"log"`
}

type CORSConfig struct {
	AllowedOrigins []string `yaml:"allowed_origins"` // default: [] (same-origin only when empty; ["*"] for dev)
}

type ServerConfig struct {
	Host         string        `yaml:"host"`
	Port         int           `yaml:"port"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
}

// APIConfig locates the backend services. GroupsBaseURL and AuthBaseURL
// default to BackendURL + "/api" and BackendURL + "/auth".
type APIConfig struct {
	BackendURL     string        `yaml:"backend_url"`
	GroupsBaseURL  string        `yaml:"groups_base_url"`
	AuthBaseURL    string        `yaml:"auth_base_url"`
	Timeout        time.Duration `yaml:"timeout"`
	ForwardCookies []string      `yaml:"forward_cookies"` // browser cookies passed through to the backend
}

type UIConfig struct {
	BasePath   string `yaml:"base_path"`
	PublicURL  string `yaml:"public_url"` // absolute origin used to build login referrers
	CookieKey  string `yaml:"cookie_key"` // hex, 32 bytes; random per process when empty
	Production bool   `yaml:"production"` // marks cookies Secure
}

type RateLimitConfig struct {
	PublicRPS float64 `yaml:"public_rps"`
	Burst     int     `yaml:"burst"`
}

type LogConfig struct {
	Level string `yaml:"level"`
}

func Load(path string) (*Config, error) {
	cfg := defaults()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}

		expanded := expandEnvVars(string(data))

		if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	applyEnvOverrides(cfg)
	cfg.resolve()

	return cfg, nil
}

// LoadDotEnv loads variables from the given .env files (default ".env")
// without overriding ones already set. Missing files are ignored.
func LoadDotEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("loading %s: %w", f, err)
		}
	}
	return nil
}

func defaults() *Config {
	return &Config{
		Server: ServerConfig{
			Host:         "0.0.0.0",
			Port:         8080,
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 30 * time.Second,
		},
		API: APIConfig{
			BackendURL:     "http://localhost:8000",
			Timeout:        15 * time.Second,
			ForwardCookies: []string{"session", "sessionid"},
		},
		UI: UIConfig{
			BasePath: "/",
		},
		RateLimit: RateLimitConfig{
			PublicRPS: 2,
			Burst:     10,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

func expandEnvVars(s string) string {
	return os.ExpandEnv(s)
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("GROUPDESK_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
	if v := os.Getenv("GROUPDESK_HOST"); v != "" {
		cfg.Server.Host = v
	}
	if v := os.Getenv("GROUPDESK_BACKEND_URL"); v != "" {
		cfg.API.BackendURL = v
	}
	if v := os.Getenv("GROUPDESK_GROUPS_API_URL"); v != "" {
		cfg.API.GroupsBaseURL = v
	}
	if v := os.Getenv("GROUPDESK_AUTH_API_URL"); v != "" {
		cfg.API.AuthBaseURL = v
	}
	if v := os.Getenv("GROUPDESK_API_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.API.Timeout = d
		}
	}
	if v, ok := os.LookupEnv("GROUPDESK_FORWARD_COOKIES"); ok {
		cfg.API.ForwardCookies = splitList(v)
	}
	if v := os.Getenv("GROUPDESK_UI_BASE_PATH"); v != "" {
		cfg.UI.BasePath = v
	}
	if v := os.Getenv("GROUPDESK_PUBLIC_URL"); v != "" {
		cfg.UI.PublicURL = v
	}
	if v := os.Getenv("GROUPDESK_COOKIE_KEY"); v != "" {
		cfg.UI.CookieKey = v
	}
	if v := os.Getenv("GROUPDESK_PRODUCTION"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.UI.Production = b
		}
	}
	if v := os.Getenv("GROUPDESK_RATE_LIMIT_RPS"); v != "" {
		if rps, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.RateLimit.PublicRPS = rps
		}
	}
	if v := os.Getenv("GROUPDESK_RATE_LIMIT_BURST"); v != "" {
		if burst, err := strconv.Atoi(v); err == nil {
			cfg.RateLimit.Burst = burst
		}
	}
	if v, ok := os.LookupEnv("GROUPDESK_CORS_ALLOWED_ORIGINS"); ok {
		cfg.CORS.AllowedOrigins = splitList(v)
	}
	if v := os.Getenv("GROUPDESK_LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
}

// splitList parses a comma-separated list, dropping blanks. An empty
// string yields an empty list.
func splitList(v string) []string {
	out := []string{}
	for _, item := range strings.Split(v, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

// resolve fills derived values.
func (c *Config) resolve() {
	backend := strings.TrimRight(c.API.BackendURL, "/")
	if c.API.GroupsBaseURL == "" && backend != "" {
		c.API.GroupsBaseURL = backend + "/api"
	}
	if c.API.AuthBaseURL == "" && backend != "" {
		c.API.AuthBaseURL = backend + "/auth"
	}
	c.UI.BasePath = normalizeBasePath(c.UI.BasePath)
}

func normalizeBasePath(p string) string {
	p = strings.TrimSpace(p)
	if p == "" || p == "/" {
		return "/"
	}
	return "/" + strings.Trim(p, "/")
}

// Validate checks the configuration for values the server cannot run with.
func (c *Config) Validate() error {
	var errs []error

	if c.Server.Port < 1 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server.port must be between 1 and 65535, got %d", c.Server.Port))
	}
	if c.Server.ReadTimeout <= 0 {
		errs = append(errs, errors.New("server.read_timeout must be positive"))
	}
	if c.Server.WriteTimeout <= 0 {
		errs = append(errs, errors.New("server.write_timeout must be positive"))
	}
	if err := checkBaseURL("api.groups_base_url", c.API.GroupsBaseURL); err != nil {
		errs = append(errs, err)
	}
	if err := checkBaseURL("api.auth_base_url", c.API.AuthBaseURL); err != nil {
		errs = append(errs, err)
	}
	if c.API.Timeout <= 0 {
		errs = append(errs, errors.New("api.timeout must be positive"))
	}
	if !strings.HasPrefix(c.UI.BasePath, "/") {
		errs = append(errs, fmt.Errorf("ui.base_path must start with /, got %q", c.UI.BasePath))
	}
	if c.UI.PublicURL != "" {
		if err := checkBaseURL("ui.public_url", c.UI.PublicURL); err != nil {
			errs = append(errs, err)
		}
	}
	if c.UI.CookieKey != "" {
		key, err := hex.DecodeString(c.UI.CookieKey)
		if err != nil || len(key) != 32 {
			errs = append(errs, errors.New("ui.cookie_key must be 64 hex characters"))
		}
	}
	if c.RateLimit.PublicRPS < 0 {
		errs = append(errs, errors.New("rate_limit.public_rps must not be negative"))
	}
	if c.RateLimit.PublicRPS > 0 && c.RateLimit.Burst < 1 {
		errs = append(errs, errors.New("rate_limit.burst must be at least 1"))
	}
	if _, err := parseLevel(c.Log.Level); err != nil {
		errs = append(errs, err)
	}

	return errors.Join(errs...)
}

func checkBaseURL(key, raw string) error {
	if raw == "" {
		return fmt.Errorf("%s is required", key)
	}
	u, err := url.Parse(raw)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("%s must be an absolute http(s) URL, got %q", key, raw)
	}
	return nil
}

func parseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return slog.LevelInfo, fmt.Errorf("log.level: %w", err)
	}
	return level, nil
}

// LogLevel returns the configured slog level, defaulting to info.
func (c *Config) LogLevel() slog.Level {
	level, _ := parseLevel(c.Log.Level)
	return level
}

func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}
