package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	ServerPort  string
	DatabaseURL string
	LogLevel    string
	GinMode     string

	JWTSecret string
	TokenTTL  time.Duration

	SeedDemoData bool

	// AllowedOrigins lists the CORS origins; empty allows any
	AllowedOrigins []string
}

// UsesPostgres reports whether a database is configured; otherwise the in-memory store is used
func (c *Config) UsesPostgres() bool {
	return c.DatabaseURL != ""
}

func Load() (*Config, error) {
	// Load .env file if it exists (useful for local dev)
	_ = godotenv.Load()

	return load(os.Getenv)
}

func load(getenv func(string) string) (*Config, error) {
	serverPort := getenv("PORT")
	if serverPort == "" {
		serverPort = "8080"
	}

	logLevel := getenv("LOG_LEVEL")
	if logLevel == "" {
		logLevel = "info"
	}

	jwtSecret := getenv("JWT_SECRET")
	if jwtSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET must be set")
	}

	tokenTTL := 24 * time.Hour
	if raw := getenv("TOKEN_TTL"); raw != "" {
		ttl, err := time.ParseDuration(raw)
		if err != nil || ttl <= 0 {
			return nil, fmt.Errorf("TOKEN_TTL must be a positive duration, got %q", raw)
		}
		tokenTTL = ttl
	}

	seed := false
	if raw := getenv("SEED_DEMO_DATA"); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			return nil, fmt.Errorf("SEED_DEMO_DATA must be a boolean, got %q", raw)
		}
		seed = v
	}

	var origins []string
	for _, o := range strings.Split(getenv("CORS_ALLOWED_ORIGINS"), ",") {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}

	return &Config{
		ServerPort:   serverPort,
		DatabaseURL:  getenv("DATABASE_URL"),
		LogLevel:     logLevel,
		GinMode:      getenv("GIN_MODE"),
		JWTSecret:    jwtSecret,
		TokenTTL:     tokenTTL,
		SeedDemoData: seed,

		AllowedOrigins: origins,
	}, nil
}
