package config

import (
	"os"
	"strconv"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/joho/godotenv"
)

type Config struct {
	HTTPAddr          string
	CRDBDSN           string
	MongoURI          string
	MongoDatabase     string
	RedisAddr         string
	RabbitURL         string
	JWTSecret         string
	TokenTTL          time.Duration
	OTLPEndpoint      string
	LifecycleInterval time.Duration
	ReminderWindow    time.Duration
	StatsCacheTTL     time.Duration
	IdempotencyTTL    time.Duration
	RateLimitUser     int
	RateLimitIP       int
	MaxAvatarBytes    int64
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		HTTPAddr:      getenv("HTTP_ADDR", ":8080"),
		CRDBDSN:       os.Getenv("CRDB_DSN"),
		MongoURI:      os.Getenv("MONGO_URI"),
		MongoDatabase: getenv("MONGO_DATABASE", "eventhub"),
		RedisAddr:     os.Getenv("REDIS_ADDR"),
		RabbitURL:     os.Getenv("RABBIT_URL"),
		JWTSecret:     os.Getenv("JWT_SECRET"),
		OTLPEndpoint:  os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"),
	}

	var err error
	if cfg.TokenTTL, err = duration("TOKEN_TTL", 24*time.Hour); err != nil {
		return nil, err
	}
	if cfg.LifecycleInterval, err = duration("LIFECYCLE_INTERVAL", time.Minute); err != nil {
		return nil, err
	}
	if cfg.ReminderWindow, err = duration("REMINDER_WINDOW", 24*time.Hour); err != nil {
		return nil, err
	}
	if cfg.StatsCacheTTL, err = duration("STATS_CACHE_TTL", time.Minute); err != nil {
		return nil, err
	}
	if cfg.IdempotencyTTL, err = duration("IDEMPOTENCY_TTL", time.Hour); err != nil {
		return nil, err
	}
	if cfg.RateLimitUser, err = integer("RATE_LIMIT_USER", 60); err != nil {
		return nil, err
	}
	if cfg.RateLimitIP, err = integer("RATE_LIMIT_IP", 300); err != nil {
		return nil, err
	}
	maxAvatar, err := integer("MAX_AVATAR_BYTES", 5<<20)
	if err != nil {
		return nil, err
	}
	cfg.MaxAvatarBytes = int64(maxAvatar)

	return cfg, nil
}

// RequireAPI checks the settings the HTTP server cannot start without.
func (c *Config) RequireAPI() error {
	switch {
	case c.JWTSecret == "":
		return errors.New("JWT_SECRET is required")
	case c.CRDBDSN == "":
		return errors.New("CRDB_DSN is required")
	case c.MongoURI == "":
		return errors.New("MONGO_URI is required")
	case c.RedisAddr == "":
		return errors.New("REDIS_ADDR is required")
	}
	return nil
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func duration(key string, def time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, errors.Wrapf(err, "parse %s", key)
	}
	return d, nil
}

func integer(key string, def int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, errors.Wrapf(err, "parse %s", key)
	}
	return n, nil
}
