package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

const defaultJWTSecret = "CHANGEME"

// Config holds all application configuration
type Config struct {
	Env       string
	Server    ServerConfig
	Storage   StorageConfig
	Auth      AuthConfig
	Redis     RedisConfig
	Typesense TypesenseConfig
	TMDB      TMDBConfig
	OTEL      OTELConfig
	CORS      CORSConfig
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Host string
	Port int
}

// StorageConfig locates the JSON collections
type StorageConfig struct {
	DataDir      string
	CacheEnabled bool
}

// AuthConfig holds bearer token and password reset settings
type AuthConfig struct {
	JWTSecret     string
	TokenTTL      time.Duration
	ResetTokenTTL time.Duration
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Enabled  bool
	Host     string
	Port     int
	Password string
	DB       int
}

// TypesenseConfig holds Typesense configuration
type TypesenseConfig struct {
	Enabled bool
	URL     string
	APIKey  string
}

// TMDBConfig holds the movie metadata provider settings
type TMDBConfig struct {
	APIKey       string
	BaseURL      string
	ImageBaseURL string
}

// OTELConfig holds OpenTelemetry configuration
type OTELConfig struct {
	ServiceName    string
	ServiceVersion string
	Endpoint       string
	Enabled        bool
}

// CORSConfig holds the allowed browser origins
type CORSConfig struct {
	AllowedOrigins []string
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	cfg := &Config{
		Env: getEnv("APP_ENV", "development"),
		Server: ServerConfig{
			Host: getEnv("SERVER_HOST", "0.0.0.0"),
			Port: getEnvAsInt("SERVER_PORT", 8000),
		},
		Storage: StorageConfig{
			DataDir:      getEnv("DATA_DIR", "./data"),
			CacheEnabled: getEnvAsBool("STORAGE_CACHE_ENABLED", true),
		},
		Auth: AuthConfig{
			JWTSecret:     getEnv("JWT_SECRET", defaultJWTSecret),
			TokenTTL:      time.Duration(getEnvAsInt("ACCESS_TOKEN_TTL_MINUTES", 60)) * time.Minute,
			ResetTokenTTL: time.Duration(getEnvAsInt("RESET_TOKEN_TTL_MINUTES", 15)) * time.Minute,
		},
		Redis: RedisConfig{
			Enabled:  getEnvAsBool("REDIS_ENABLED", false),
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnvAsInt("REDIS_PORT", 6379),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
		},
		Typesense: TypesenseConfig{
			Enabled: getEnvAsBool("TYPESENSE_ENABLED", false),
			URL:     getEnv("TYPESENSE_URL", "http://localhost:8108"),
			APIKey:  getEnv("TYPESENSE_API_KEY", "xyz"),
		},
		TMDB: TMDBConfig{
			APIKey:       getEnv("TMDB_API_KEY", ""),
			BaseURL:      getEnv("TMDB_BASE_URL", "https://api.themoviedb.org/3"),
			ImageBaseURL: getEnv("TMDB_IMAGE_BASE_URL", "https://image.tmdb.org/t/p/w500"),
		},
		OTEL: OTELConfig{
			ServiceName:    getEnv("OTEL_SERVICE_NAME", "spoileralert-api"),
			ServiceVersion: getEnv("OTEL_SERVICE_VERSION", "1.0.0"),
			Endpoint:       getEnv("OTEL_ENDPOINT", ""),
			Enabled:        getEnvAsBool("OTEL_ENABLED", false),
		},
		CORS: CORSConfig{
			AllowedOrigins: getEnvAsList("ALLOWED_ORIGINS", []string{"*"}),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.Auth.TokenTTL <= 0 {
		return fmt.Errorf("ACCESS_TOKEN_TTL_MINUTES must be positive")
	}
	if c.Auth.ResetTokenTTL <= 0 {
		return fmt.Errorf("RESET_TOKEN_TTL_MINUTES must be positive")
	}
	if c.Env == "production" && c.Auth.JWTSecret == defaultJWTSecret {
		return fmt.Errorf("JWT_SECRET must be set in production")
	}
	if strings.TrimSpace(c.Storage.DataDir) == "" {
		return fmt.Errorf("DATA_DIR must not be empty")
	}
	return nil
}

// RedisAddr returns the Redis address
func (c *RedisConfig) RedisAddr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// Addr returns the listen address
func (c *ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// CollectionPath returns the file backing a named collection
func (c *StorageConfig) CollectionPath(name string) string {
	return filepath.Join(c.DataDir, name+".json")
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

func getEnvAsList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}
