/*-------------------------------------------------------------------------
 *
 * config.go
 *    Configuration for the Centro de Comando service
 *
 * Loads configuration from environment variables with sane defaults.
 *
 * Copyright (c) 2024-2026, Zyra Tecnologia Ltda. <dev@zyra.app.br>
 *
 * IDENTIFICATION
 *    internal/config/config.go
 *
 *-------------------------------------------------------------------------
 */

package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Database DatabaseConfig
	Server   ServerConfig
	Agent    AgentConfig
	Auth     AuthConfig
	Session  SessionConfig
	Logging  LoggingConfig
	Render   RenderConfig
}

type DatabaseConfig struct {
	Host            string
	Port            int
	User            string
	Password        string
	Name            string
	SSLMode         string
	Schema          string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
}

type ServerConfig struct {
	Host         string
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

/* AgentConfig configures the external agent backend */
type AgentConfig struct {
	BaseURL        string
	APIKey         string
	RequestTimeout time.Duration
	MaxHistory     int
}

type AuthConfig struct {
	JWTSecret string
}

type SessionConfig struct {
	CleanupInterval time.Duration
	MaxIdleAge      time.Duration
}

type LoggingConfig struct {
	Level  string
	Format string
}

/* RenderConfig configures tool-result table rendering */
type RenderConfig struct {
	MaxRows int
}

/* Load loads configuration from environment variables */
func Load() (*Config, error) {
	cfg := &Config{
		Database: DatabaseConfig{
			Host:            getEnv("DB_HOST", "localhost"),
			Port:            getEnvInt("DB_PORT", 5432),
			User:            getEnv("DB_USER", "zyra"),
			Password:        getEnv("DB_PASSWORD", ""),
			Name:            getEnv("DB_NAME", "zyra"),
			SSLMode:         getEnv("DB_SSLMODE", "disable"),
			Schema:          getEnv("DB_DATA_SCHEMA", "public"),
			MaxOpenConns:    getEnvInt("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns:    getEnvInt("DB_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: getEnvDuration("DB_CONN_MAX_LIFETIME", 5*time.Minute),
			ConnMaxIdleTime: getEnvDuration("DB_CONN_MAX_IDLE_TIME", time.Minute),
		},
		Server: ServerConfig{
			Host:         getEnv("SERVER_HOST", "0.0.0.0"),
			Port:         getEnvInt("SERVER_PORT", 8084),
			ReadTimeout:  getEnvDuration("SERVER_READ_TIMEOUT", 30*time.Second),
			WriteTimeout: getEnvDuration("SERVER_WRITE_TIMEOUT", 120*time.Second),
			IdleTimeout:  getEnvDuration("SERVER_IDLE_TIMEOUT", 60*time.Second),
		},
		Agent: AgentConfig{
			BaseURL:        getEnv("AGENT_BASE_URL", "http://localhost:8090"),
			APIKey:         getEnv("AGENT_API_KEY", ""),
			RequestTimeout: getEnvDuration("AGENT_REQUEST_TIMEOUT", 120*time.Second),
			MaxHistory:     getEnvInt("AGENT_MAX_HISTORY", 20),
		},
		Auth: AuthConfig{
			JWTSecret: getEnv("JWT_SECRET", ""),
		},
		Session: SessionConfig{
			CleanupInterval: getEnvDuration("SESSION_CLEANUP_INTERVAL", time.Hour),
			MaxIdleAge:      getEnvDuration("SESSION_MAX_IDLE_AGE", 30*24*time.Hour),
		},
		Logging: LoggingConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
		Render: RenderConfig{
			MaxRows: getEnvInt("RENDER_MAX_ROWS", 10),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

/* Validate validates the configuration */
func (c *Config) Validate() error {
	if c.Auth.JWTSecret == "" {
		return fmt.Errorf("configuration invalid: JWT_SECRET is required")
	}
	if c.Agent.BaseURL == "" {
		return fmt.Errorf("configuration invalid: AGENT_BASE_URL is required")
	}
	if c.Render.MaxRows <= 0 {
		return fmt.Errorf("configuration invalid: RENDER_MAX_ROWS must be positive, got %d", c.Render.MaxRows)
	}
	return nil
}

/* ConnString builds the PostgreSQL connection string */
func (c *DatabaseConfig) ConnString() string {
	parts := []string{
		fmt.Sprintf("host=%s", c.Host),
		fmt.Sprintf("port=%d", c.Port),
		fmt.Sprintf("user=%s", c.User),
		fmt.Sprintf("dbname=%s", c.Name),
		fmt.Sprintf("sslmode=%s", c.SSLMode),
	}
	if c.Password != "" {
		parts = append(parts, fmt.Sprintf("password=%s", c.Password))
	}
	return strings.Join(parts, " ")
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if parsed, err := time.ParseDuration(value); err == nil {
			return parsed
		}
	}
	return fallback
}
