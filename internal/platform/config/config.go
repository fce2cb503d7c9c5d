package config

import (
	"os"
	"strconv"
	"time"
)

// Config captures everything the server reads from the environment.
type Config struct {
	Addr string

	// DatabaseURL enables the postgres stores; empty means in-memory.
	DatabaseURL string
	// RedisURL enables the redis session store; empty means in-memory.
	RedisURL string

	JWTSigningKey string
	JWTIssuer     string
	TokenTTL      time.Duration

	// AdminEmail and AdminPassword bootstrap the first account on startup
	// when the user table is empty.
	AdminEmail    string
	AdminPassword string

	// EncryptionKey seals resident numbers and certificate material at rest.
	EncryptionKey string

	UploadDir     string
	MaxUploadSize int64

	Issuer IssuerConfig
	Kafka  KafkaConfig
	Redis  RedisConfig
}

// IssuerConfig holds external document-issuer credentials. The issuer call
// may wait on human approval (carrier auth), so the timeout is generous but
// finite.
type IssuerConfig struct {
	BaseURL       string
	UserID        string
	APIKey        string
	EncryptionKey string
	Timeout       time.Duration
}

// KafkaConfig enables the audit publisher; empty brokers means in-memory.
type KafkaConfig struct {
	Brokers []string
	Topic   string
}

// RedisConfig tunes the go-redis client pool.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// FromEnv builds a Config from environment variables so main stays lean.
func FromEnv() Config {
	cfg := Config{
		Addr:          envOr("REHABDOCS_ADDR", ":8080"),
		DatabaseURL:   os.Getenv("DATABASE_URL"),
		RedisURL:      os.Getenv("REDIS_URL"),
		JWTSigningKey: envOr("JWT_SIGNING_KEY", "dev-secret-key-change-in-production"),
		JWTIssuer:     envOr("JWT_ISSUER", "rehabdocs"),
		TokenTTL:      envDuration("TOKEN_TTL", 24*time.Hour),
		AdminEmail:    envOr("ADMIN_EMAIL", "admin@rehabdocs.local"),
		AdminPassword: os.Getenv("ADMIN_PASSWORD"),
		EncryptionKey: envOr("ENCRYPTION_KEY", "dev-encryption-key-change-in-production"),
		UploadDir:     envOr("UPLOAD_DIR", "./uploads"),
		MaxUploadSize: envInt64("MAX_UPLOAD_SIZE", 10<<20),
		Issuer: IssuerConfig{
			BaseURL:       envOr("ISSUER_BASE_URL", "https://api.hyphen.im"),
			UserID:        os.Getenv("ISSUER_USER_ID"),
			APIKey:        os.Getenv("ISSUER_API_KEY"),
			EncryptionKey: os.Getenv("ISSUER_EKEY"),
			Timeout:       envDuration("ISSUER_TIMEOUT", 2*time.Minute),
		},
		Kafka: KafkaConfig{
			Brokers: splitNonEmpty(os.Getenv("KAFKA_BROKERS")),
			Topic:   envOr("KAFKA_AUDIT_TOPIC", "rehabdocs.audit"),
		},
		Redis: RedisConfig{
			URL:          os.Getenv("REDIS_URL"),
			PoolSize:     int(envInt64("REDIS_POOL_SIZE", 10)),
			MinIdleConns: int(envInt64("REDIS_MIN_IDLE_CONNS", 2)),
			DialTimeout:  envDuration("REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:  envDuration("REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout: envDuration("REDIS_WRITE_TIMEOUT", 3*time.Second),
		},
	}
	return cfg
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

func envInt64(key string, fallback int64) int64 {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	}
	return fallback
}

func splitNonEmpty(s string) []string {
	if s == "" {
		return nil
	}
	var out []string
	start := 0
	for i := 0; i <= len(s); i++ {
		if i == len(s) || s[i] == ',' {
			if part := s[start:i]; part != "" {
				out = append(out, part)
			}
			start = i + 1
		}
	}
	return out
}
