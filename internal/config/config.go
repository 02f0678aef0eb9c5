// Package config handles loading and parsing application configuration.
// The YAML path comes from, in priority order:
//  1. An environment variable:  CONFIG_PATH=/path/to/config.yaml
//  2. A command-line flag:      --config=/path/to/config.yaml
//
// Any value in the file can be overridden by its env var. A .env file in
// the working directory, when present, is loaded into the environment
// first.
package config

import (
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"

	"github.com/aanand-mishra/student-management-api/internal/auth"
)

const (
	EnvDev     = "dev"
	EnvStaging = "staging"
	EnvProd    = "prod"

	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Config is the root configuration structure.
type Config struct {
	// Env controls log format and verbosity: dev, staging or prod.
	Env string `yaml:"env" env:"ENV" env-required:"true"`

	Storage    Storage    `yaml:"storage"`
	HTTPServer HTTPServer `yaml:"http_server"`
	JWT        JWT        `yaml:"jwt"`
	Auth       Auth       `yaml:"auth"`
	RateLimit  RateLimit  `yaml:"rate_limit"`
}

// Storage selects and locates the database.
type Storage struct {
	Driver      string `yaml:"driver" env:"STORAGE_DRIVER" env-default:"sqlite"`
	SQLitePath  string `yaml:"sqlite_path" env:"STORAGE_PATH" env-default:"storage/storage.db"`
	PostgresDSN string `yaml:"postgres_dsn" env:"DATABASE_URL"`
}

// HTTPServer holds listener settings.
type HTTPServer struct {
	Addr         string        `yaml:"address" env:"HTTP_SERVER_ADDR" env-required:"true"`
	ReadTimeout  time.Duration `yaml:"read_timeout" env:"HTTP_READ_TIMEOUT" env-default:"10s"`
	WriteTimeout time.Duration `yaml:"write_timeout" env:"HTTP_WRITE_TIMEOUT" env-default:"10s"`
	IdleTimeout  time.Duration `yaml:"idle_timeout" env:"HTTP_IDLE_TIMEOUT" env-default:"60s"`
}

// JWT configures session token signing.
type JWT struct {
	Key      string        `yaml:"key" env:"JWT_KEY"`
	Issuer   string        `yaml:"issuer" env:"JWT_ISSUER" env-default:"students-api"`
	Audience string        `yaml:"audience" env:"JWT_AUDIENCE" env-default:"students-clients"`
	TTL      time.Duration `yaml:"ttl" env:"JWT_TTL" env-default:"15m"`
}

// Auth configures password checks and route protection.
type Auth struct {
	// PasswordMode is plaintext or bcrypt.
	PasswordMode    string `yaml:"password_mode" env:"AUTH_PASSWORD_MODE" env-default:"plaintext"`
	ProtectStudents bool   `yaml:"protect_students" env:"AUTH_PROTECT_STUDENTS" env-default:"false"`
}

// RateLimit configures the login limiter. With RedisAddr empty the limit
// is kept in process memory.
type RateLimit struct {
	LoginPerMinute int    `yaml:"login_per_minute" env:"RATE_LIMIT_LOGIN_PER_MINUTE" env-default:"12"`
	RedisAddr      string `yaml:"redis_addr" env:"REDIS_ADDR"`
	RedisPassword  string `yaml:"redis_password" env:"REDIS_PASSWORD"`
	RedisDB        int    `yaml:"redis_db" env:"REDIS_DB" env-default:"0"`
}

// MustLoad reads, validates and returns the config, or exits. The
// --config flag is registered on the default flag set; callers with
// subcommands should pass their own path to Load instead.
func MustLoad() *Config {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		flags := flag.String("config", "", "Path to the configuration YAML file")
		flag.Parse()
		configPath = *flags
	}

	cfg, err := Load(configPath)
	if err != nil {
		log.Fatal(err)
	}
	return cfg
}

// Load reads the YAML file at path with env overrides and validates it.
func Load(path string) (*Config, error) {
	if path == "" {
		return nil, errors.New("config path is not set: use --config flag or CONFIG_PATH env var")
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, fmt.Errorf("config file does not exist: %s", path)
	}

	// A missing .env is normal outside local development.
	_ = godotenv.Load()

	var cfg Config
	if err := cleanenv.ReadConfig(path, &cfg); err != nil {
		return nil, fmt.Errorf("cannot read config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects settings the app cannot start with.
func (c *Config) Validate() error {
	var errs []error
	switch c.Env {
	case EnvDev, EnvStaging, EnvProd:
	default:
		errs = append(errs, fmt.Errorf("env must be one of dev, staging, prod, got %q", c.Env))
	}
	switch c.Storage.Driver {
	case DriverSQLite:
	case DriverPostgres:
		if c.Storage.PostgresDSN == "" {
			errs = append(errs, errors.New("storage.postgres_dsn is required for the postgres driver"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown storage driver %q", c.Storage.Driver))
	}
	if c.JWT.Key == "" {
		errs = append(errs, errors.New("jwt.key is required"))
	}
	if _, err := auth.ParsePasswordMode(c.Auth.PasswordMode); err != nil {
		errs = append(errs, err)
	}
	if c.RateLimit.LoginPerMinute < 0 {
		errs = append(errs, errors.New("rate_limit.login_per_minute must not be negative"))
	}
	if len(errs) > 0 {
		return fmt.Errorf("invalid config: %w", errors.Join(errs...))
	}
	return nil
}
