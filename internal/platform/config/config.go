package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Server captures process-level configuration.
type Server struct {
	Addr           string
	RequestTimeout time.Duration
	JWTSigningKey  string
	JWTIssuer      string
	JWTAudience    string
	LogLevel       string
	LogFormat      string
	// OfficesFile is a YAML office directory; empty uses the built-in one.
	OfficesFile string

	Database DatabaseConfig
	Redis    RedisConfig
	Kafka    KafkaConfig
	Dispatch DispatchConfig
}

// DatabaseConfig configures the Postgres case store. An empty URL selects the
// in-memory store.
type DatabaseConfig struct {
	URL             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	Stream       string
	StreamMaxLen int64
}

type KafkaConfig struct {
	Brokers           []string
	Topic             string
	Partitions        int32
	ReplicationFactor int16
	// DeliveryTimeout bounds how long the client retries one record.
	DeliveryTimeout time.Duration
}

// Dispatch backends.
const (
	BackendKafka  = "kafka"
	BackendRedis  = "redis"
	BackendMemory = "memory"
)

type DispatchConfig struct {
	Backend     string
	Concurrency int
	// Timeout bounds each dispatch call.
	Timeout time.Duration
	// BreakerThreshold consecutive broker failures open the dispatch circuit
	// for BreakerCooldown.
	BreakerThreshold int
	BreakerCooldown  time.Duration
}

// FromEnv builds a Server config from environment variables so main stays lean.
func FromEnv() (Server, error) {
	cfg := Server{
		Addr:          getEnv("CASE_TRANSFER_ADDR", ":8080"),
		JWTSigningKey: getEnv("JWT_SIGNING_KEY", "dev-secret-key-change-in-production"),
		JWTIssuer:     os.Getenv("JWT_ISSUER"),
		JWTAudience:   os.Getenv("JWT_AUDIENCE"),
		LogLevel:      getEnv("LOG_LEVEL", "info"),
		LogFormat:     getEnv("LOG_FORMAT", "json"),
		OfficesFile:   os.Getenv("OFFICES_FILE"),
		Database: DatabaseConfig{
			URL: os.Getenv("DATABASE_URL"),
		},
		Redis: RedisConfig{
			URL:    os.Getenv("REDIS_URL"),
			Stream: getEnv("REDIS_STREAM", "case-transfer-events"),
		},
		Kafka: KafkaConfig{
			Brokers: splitList(os.Getenv("KAFKA_BROKERS")),
			Topic:   getEnv("KAFKA_TOPIC", "case-transfer-events"),
		},
		Dispatch: DispatchConfig{
			Backend: strings.ToLower(getEnv("DISPATCH_BACKEND", BackendMemory)),
		},
	}

	var err error
	if cfg.RequestTimeout, err = durationEnv("REQUEST_TIMEOUT", 30*time.Second); err != nil {
		return Server{}, err
	}
	if cfg.Database.MaxOpenConns, err = intEnv("DATABASE_MAX_OPEN_CONNS", 10); err != nil {
		return Server{}, err
	}
	if cfg.Database.MaxIdleConns, err = intEnv("DATABASE_MAX_IDLE_CONNS", 5); err != nil {
		return Server{}, err
	}
	if cfg.Database.ConnMaxLifetime, err = durationEnv("DATABASE_CONN_MAX_LIFETIME", 30*time.Minute); err != nil {
		return Server{}, err
	}
	if cfg.Redis.PoolSize, err = intEnv("REDIS_POOL_SIZE", 10); err != nil {
		return Server{}, err
	}
	if cfg.Redis.MinIdleConns, err = intEnv("REDIS_MIN_IDLE_CONNS", 2); err != nil {
		return Server{}, err
	}
	if cfg.Redis.DialTimeout, err = durationEnv("REDIS_DIAL_TIMEOUT", 5*time.Second); err != nil {
		return Server{}, err
	}
	if cfg.Redis.ReadTimeout, err = durationEnv("REDIS_READ_TIMEOUT", 3*time.Second); err != nil {
		return Server{}, err
	}
	if cfg.Redis.WriteTimeout, err = durationEnv("REDIS_WRITE_TIMEOUT", 3*time.Second); err != nil {
		return Server{}, err
	}
	maxLen, err := intEnv("REDIS_STREAM_MAXLEN", 100000)
	if err != nil {
		return Server{}, err
	}
	cfg.Redis.StreamMaxLen = int64(maxLen)
	partitions, err := intEnv("KAFKA_PARTITIONS", 3)
	if err != nil {
		return Server{}, err
	}
	cfg.Kafka.Partitions = int32(partitions)
	replication, err := intEnv("KAFKA_REPLICATION_FACTOR", 1)
	if err != nil {
		return Server{}, err
	}
	cfg.Kafka.ReplicationFactor = int16(replication)
	if cfg.Dispatch.Concurrency, err = intEnv("DISPATCH_CONCURRENCY", 1); err != nil {
		return Server{}, err
	}
	if cfg.Kafka.DeliveryTimeout, err = durationEnv("KAFKA_DELIVERY_TIMEOUT", 10*time.Second); err != nil {
		return Server{}, err
	}
	if cfg.Dispatch.Timeout, err = durationEnv("DISPATCH_TIMEOUT", 10*time.Second); err != nil {
		return Server{}, err
	}
	if cfg.Dispatch.BreakerThreshold, err = intEnv("DISPATCH_BREAKER_THRESHOLD", 5); err != nil {
		return Server{}, err
	}
	if cfg.Dispatch.BreakerCooldown, err = durationEnv("DISPATCH_BREAKER_COOLDOWN", 30*time.Second); err != nil {
		return Server{}, err
	}

	if err := cfg.Validate(); err != nil {
		return Server{}, err
	}
	return cfg, nil
}

// Validate checks cross-field requirements.
func (c Server) Validate() error {
	switch c.Dispatch.Backend {
	case BackendMemory:
	case BackendKafka:
		if len(c.Kafka.Brokers) == 0 {
			return fmt.Errorf("KAFKA_BROKERS is required for the kafka dispatch backend")
		}
	case BackendRedis:
		if c.Redis.URL == "" {
			return fmt.Errorf("REDIS_URL is required for the redis dispatch backend")
		}
	default:
		return fmt.Errorf("unknown DISPATCH_BACKEND %q", c.Dispatch.Backend)
	}
	if c.Dispatch.Concurrency < 1 {
		return fmt.Errorf("DISPATCH_CONCURRENCY must be at least 1")
	}
	if c.Dispatch.Timeout <= 0 {
		return fmt.Errorf("DISPATCH_TIMEOUT must be positive")
	}
	if c.Dispatch.BreakerThreshold < 1 {
		return fmt.Errorf("DISPATCH_BREAKER_THRESHOLD must be at least 1")
	}
	return nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func intEnv(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", key, err)
	}
	return n, nil
}

func durationEnv(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", key, err)
	}
	return d, nil
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
