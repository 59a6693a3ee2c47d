package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	HTTPAddr             string
	DatabaseURL          string
	CORSAllowedOrigins   []string
	CORSAllowCredentials bool
	ShutdownTimeout      time.Duration

	// Empty JWTSecret disables API authentication.
	JWTSecret string
	JWTTTL    time.Duration

	// Empty HubSpotToken selects the in-memory CRM.
	HubSpotToken    string
	HubSpotBaseURL  string
	HubSpotTimeout  time.Duration
	HubSpotPageSize int

	LogLevel  string
	LogFormat string
}

func Load() (Config, error) {
	_ = godotenv.Load()

	cfg := Config{
		HTTPAddr:             getenv("HTTP_ADDR", ":8080"),
		DatabaseURL:          getenv("DATABASE_URL", ""),
		CORSAllowCredentials: getenv("CORS_ALLOW_CREDENTIALS", "false") == "true",
		JWTSecret:            getenv("JWT_SECRET", ""),
		HubSpotToken:         getenv("HUBSPOT_TOKEN", ""),
		HubSpotBaseURL:       getenv("HUBSPOT_BASE_URL", "https://api.hubapi.com"),
		LogLevel:             strings.ToLower(getenv("LOG_LEVEL", "info")),
		LogFormat:            strings.ToLower(getenv("LOG_FORMAT", "json")),
	}

	origins := strings.Split(getenv("CORS_ALLOWED_ORIGINS", ""), ",")
	for _, o := range origins {
		o = strings.TrimSpace(o)
		if o != "" {
			cfg.CORSAllowedOrigins = append(cfg.CORSAllowedOrigins, o)
		}
	}

	var err error
	if cfg.ShutdownTimeout, err = getenvDuration("SHUTDOWN_TIMEOUT", 10*time.Second); err != nil {
		return cfg, err
	}
	if cfg.JWTTTL, err = getenvDuration("JWT_TTL", 24*time.Hour); err != nil {
		return cfg, err
	}
	if cfg.HubSpotTimeout, err = getenvDuration("HUBSPOT_TIMEOUT", 30*time.Second); err != nil {
		return cfg, err
	}
	if cfg.HubSpotPageSize, err = getenvInt("HUBSPOT_PAGE_SIZE", 100); err != nil {
		return cfg, err
	}

	if cfg.DatabaseURL == "" {
		return cfg, errors.New("missing env: DATABASE_URL")
	}
	return cfg, cfg.Validate()
}

// Validate checks values that parse fine but make no sense.
func (c Config) Validate() error {
	switch c.LogFormat {
	case "json", "console":
	default:
		return fmt.Errorf("LOG_FORMAT must be json or console, got %q", c.LogFormat)
	}
	if c.HubSpotPageSize <= 0 {
		return fmt.Errorf("HUBSPOT_PAGE_SIZE must be positive, got %d", c.HubSpotPageSize)
	}
	if c.JWTSecret != "" && c.JWTTTL <= 0 {
		return fmt.Errorf("JWT_TTL must be positive, got %s", c.JWTTTL)
	}
	return nil
}

// AuthEnabled reports whether /push routes require a bearer token.
func (c Config) AuthEnabled() bool { return c.JWTSecret != "" }

func getenv(key, def string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	return v
}

func getenvInt(key string, def int) (int, error) {
	v := getenv(key, "")
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, nil
}

func getenvDuration(key string, def time.Duration) (time.Duration, error) {
	v := getenv(key, "")
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}
