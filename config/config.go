package config

import (
	"errors"
	"log"
	"time"

	"taskboard/recurrence"
	"taskboard/utils"

	"github.com/joho/godotenv"
)

type ServerConfig struct {
	Port           string
	Mode           string
	MaxBodyBytes   int64
	AllowedOrigins []string
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	ShutdownGrace  time.Duration
}

type CacheConfig struct {
	RedisURL  string
	TTL       time.Duration
	LocalSize int
}

type RecurrenceConfig struct {
	MaxSteps       int
	PreviewLimit   int
	DeadlineWindow int
}

type AuthConfig struct {
	JWTSecret string
	Issuer    string
}

type Config struct {
	Database   DatabaseConfig
	Server     ServerConfig
	Cache      CacheConfig
	Recurrence RecurrenceConfig
	Auth       AuthConfig
}

// LoadEnvFile reads .env outside of tests. A missing file is only logged.
func LoadEnvFile() {
	if utils.IsTestEnv() {
		return
	}
	if err := godotenv.Load(); err != nil {
		log.Printf("No .env file loaded: %v", err)
	}
}

func Load() (*Config, error) {
	LoadEnvFile()

	if !utils.IsTestEnv() {
		if err := utils.RequireEnv("MONGO_URI", "MONGO_DB", "JWT_SECRET_KEY"); err != nil {
			return nil, err
		}
	}

	cfg := &Config{
		Database: LoadDatabaseConfig(),
		Server: ServerConfig{
			Port:           utils.GetEnvAsString("PORT", "8080"),
			Mode:           utils.GetEnvAsString("GIN_MODE", "release"),
			MaxBodyBytes:   int64(utils.GetEnvAsInt("MAX_BODY_BYTES", 1<<20)),
			AllowedOrigins: utils.GetEnvAsList("CORS_ALLOWED_ORIGINS", nil),
			ReadTimeout:    utils.GetEnvAsDuration("SERVER_READ_TIMEOUT", 15*time.Second),
			WriteTimeout:   utils.GetEnvAsDuration("SERVER_WRITE_TIMEOUT", 15*time.Second),
			ShutdownGrace:  utils.GetEnvAsDuration("SERVER_SHUTDOWN_GRACE", 10*time.Second),
		},
		Cache: CacheConfig{
			RedisURL:  utils.GetEnvAsString("REDIS_URL", ""),
			TTL:       utils.GetEnvAsDuration("DUE_CACHE_TTL", 5*time.Minute),
			LocalSize: utils.GetEnvAsInt("DUE_CACHE_SIZE", 1024),
		},
		Recurrence: RecurrenceConfig{
			MaxSteps:       utils.GetEnvAsInt("RECURRENCE_MAX_STEPS", recurrence.DefaultMaxSteps),
			PreviewLimit:   utils.GetEnvAsInt("RECURRENCE_PREVIEW_LIMIT", 52),
			DeadlineWindow: utils.GetEnvAsInt("DEADLINE_WINDOW_DAYS", 7),
		},
		Auth: AuthConfig{
			JWTSecret: utils.GetEnvAsString("JWT_SECRET_KEY", ""),
			Issuer:    utils.GetEnvAsString("JWT_ISSUER", "taskboard"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	var errs []error
	if c.Recurrence.MaxSteps <= 0 {
		errs = append(errs, errors.New("RECURRENCE_MAX_STEPS must be positive"))
	}
	if c.Recurrence.PreviewLimit <= 0 {
		errs = append(errs, errors.New("RECURRENCE_PREVIEW_LIMIT must be positive"))
	}
	if c.Cache.LocalSize <= 0 {
		errs = append(errs, errors.New("DUE_CACHE_SIZE must be positive"))
	}
	if c.Server.MaxBodyBytes <= 0 {
		errs = append(errs, errors.New("MAX_BODY_BYTES must be positive"))
	}
	return errors.Join(errs...)
}

// ResolverOptions returns the engine options derived from the config.
func (c RecurrenceConfig) ResolverOptions() []recurrence.ResolverOption {
	return []recurrence.ResolverOption{recurrence.WithMaxSteps(c.MaxSteps)}
}
