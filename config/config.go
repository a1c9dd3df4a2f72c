package config

import (
	"os"
	"strconv"
	"strings"
)

// Config holds all application configuration.
type Config struct {
	Server ServerConfig
	DB     DBConfig
	Auth   AuthConfig
	Kafka  KafkaConfig
	CORS   CORSConfig
}

type ServerConfig struct {
	Port string
	Env  string
}

type DBConfig struct {
	Path string
}

type AuthConfig struct {
	// JWTSecret verifies admin bearer tokens. Token issuance lives in the
	// external auth service; this service only validates.
	JWTSecret string
	Issuer    string
}

type KafkaConfig struct {
	// Enabled switches lifecycle event publishing on. When off the service
	// runs with a no-op publisher.
	Enabled bool
	Brokers []string
}

type CORSConfig struct {
	AllowedOrigins []string
}

// Load reads configuration from environment variables with sane defaults.
func Load() *Config {
	return &Config{
		Server: ServerConfig{
			Port: envOr("PORT", "8080"),
			Env:  envOr("ENV", "development"),
		},
		DB: DBConfig{
			Path: envOr("DB_PATH", "kringle.db"),
		},
		Auth: AuthConfig{
			JWTSecret: os.Getenv("JWT_SECRET"),
			Issuer:    envOr("JWT_ISSUER", "kringle-auth"),
		},
		Kafka: KafkaConfig{
			Enabled: envBool("KAFKA_ENABLED", false),
			Brokers: splitList(envOr("KAFKA_BROKERS", "localhost:9092")),
		},
		CORS: CORSConfig{
			AllowedOrigins: splitList(envOr("CORS_ORIGINS", "*")),
		},
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return b
}

func splitList(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
