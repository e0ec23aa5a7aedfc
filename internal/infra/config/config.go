package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	StorageMemory = "memory"
	StorageMongo  = "mongo"

	SessionsMemory = "memory"
	SessionsRedis  = "redis"
	SessionsMongo  = "mongo"
)

// Config aggregates application configuration loaded from the environment and an optional
// config file.
type Config struct {
	Env                    string
	HTTPAddr               string
	StorageMode            string
	MongoURI               string
	MongoDB                string
	SessionStore           string
	RedisAddr              string
	RedisPassword          string
	RedisDB                int
	SessionTTL             time.Duration
	IdempotencyTTL         time.Duration
	KafkaBrokers           []string
	KafkaTopicPrefix       string
	KafkaGroupID           string
	ReservationEventsTopic string
	OutboxPollInterval     time.Duration
	RetryBackoff           []time.Duration
	RateLimitPerMinute     int
	Currency               string
	RoomFixtures           string
	CheckoutBaseURL        string
}

// KafkaEnabled reports whether a broker list was configured.
func (c Config) KafkaEnabled() bool {
	return len(c.KafkaBrokers) > 0
}

func defaults(v *viper.Viper) {
	v.SetDefault("APP_ENV", "dev")
	v.SetDefault("HTTP_ADDR", ":8080")
	v.SetDefault("STORAGE_MODE", StorageMemory)
	v.SetDefault("MONGO_DB", "stayquote")
	v.SetDefault("SESSION_STORE", SessionsMemory)
	v.SetDefault("REDIS_ADDR", "localhost:6379")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("SESSION_TTL", "2h")
	v.SetDefault("IDEMPOTENCY_TTL", "24h")
	v.SetDefault("KAFKA_TOPIC_PREFIX", "")
	v.SetDefault("KAFKA_GROUP_ID", "stayquote")
	v.SetDefault("RESERVATION_EVENTS_TOPIC", "reservation.events.v1")
	v.SetDefault("OUTBOX_POLL_INTERVAL", "500ms")
	v.SetDefault("RETRY_BACKOFF", "1s,5s,30s")
	v.SetDefault("RATE_LIMIT_PER_MINUTE", 120)
	v.SetDefault("CURRENCY", "ARS")
	v.SetDefault("ROOM_FIXTURES", "data/rooms.json")
	v.SetDefault("CHECKOUT_BASE_URL", "")
}

// Load parses configuration from the current environment. CONFIG_FILE may point at a
// yaml, json or toml file whose keys use the same names; the environment wins.
func Load() (Config, error) {
	v := viper.New()
	v.AutomaticEnv()
	defaults(v)
	if file := v.GetString("CONFIG_FILE"); file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config file %s: %w", file, err)
		}
	}
	return fromViper(v)
}

func fromViper(v *viper.Viper) (Config, error) {
	cfg := Config{
		Env:                    v.GetString("APP_ENV"),
		HTTPAddr:               v.GetString("HTTP_ADDR"),
		StorageMode:            strings.ToLower(v.GetString("STORAGE_MODE")),
		MongoURI:               v.GetString("MONGO_URI"),
		MongoDB:                v.GetString("MONGO_DB"),
		SessionStore:           strings.ToLower(v.GetString("SESSION_STORE")),
		RedisAddr:              v.GetString("REDIS_ADDR"),
		RedisPassword:          v.GetString("REDIS_PASSWORD"),
		RedisDB:                v.GetInt("REDIS_DB"),
		KafkaTopicPrefix:       v.GetString("KAFKA_TOPIC_PREFIX"),
		KafkaGroupID:           v.GetString("KAFKA_GROUP_ID"),
		ReservationEventsTopic: v.GetString("RESERVATION_EVENTS_TOPIC"),
		RateLimitPerMinute:     v.GetInt("RATE_LIMIT_PER_MINUTE"),
		Currency:               strings.ToUpper(v.GetString("CURRENCY")),
		RoomFixtures:           v.GetString("ROOM_FIXTURES"),
		CheckoutBaseURL:        v.GetString("CHECKOUT_BASE_URL"),
	}
	for _, raw := range strings.Split(v.GetString("KAFKA_BROKERS"), ",") {
		if broker := strings.TrimSpace(raw); broker != "" {
			cfg.KafkaBrokers = append(cfg.KafkaBrokers, broker)
		}
	}

	var err error
	if cfg.SessionTTL, err = duration(v, "SESSION_TTL"); err != nil {
		return Config{}, err
	}
	if cfg.IdempotencyTTL, err = duration(v, "IDEMPOTENCY_TTL"); err != nil {
		return Config{}, err
	}
	if cfg.OutboxPollInterval, err = duration(v, "OUTBOX_POLL_INTERVAL"); err != nil {
		return Config{}, err
	}
	for _, raw := range strings.Split(v.GetString("RETRY_BACKOFF"), ",") {
		val := strings.TrimSpace(raw)
		if val == "" {
			continue
		}
		d, err := time.ParseDuration(val)
		if err != nil {
			return Config{}, fmt.Errorf("invalid RETRY_BACKOFF component %q: %w", raw, err)
		}
		cfg.RetryBackoff = append(cfg.RetryBackoff, d)
	}
	return cfg, cfg.validate()
}

func duration(v *viper.Viper, key string) (time.Duration, error) {
	d, err := time.ParseDuration(v.GetString(key))
	if err != nil {
		return 0, fmt.Errorf("invalid %s duration: %w", key, err)
	}
	return d, nil
}

func (c Config) validate() error {
	switch c.StorageMode {
	case StorageMemory:
	case StorageMongo:
		if c.MongoURI == "" {
			return fmt.Errorf("MONGO_URI is required when STORAGE_MODE=%s", StorageMongo)
		}
	default:
		return fmt.Errorf("unknown STORAGE_MODE %q", c.StorageMode)
	}
	switch c.SessionStore {
	case SessionsMemory, SessionsRedis:
	case SessionsMongo:
		if c.StorageMode != StorageMongo {
			return fmt.Errorf("SESSION_STORE=%s requires STORAGE_MODE=%s", SessionsMongo, StorageMongo)
		}
	default:
		return fmt.Errorf("unknown SESSION_STORE %q", c.SessionStore)
	}
	if len(c.Currency) != 3 {
		return fmt.Errorf("CURRENCY must be a 3 letter code, got %q", c.Currency)
	}
	if c.RateLimitPerMinute < 0 {
		return fmt.Errorf("RATE_LIMIT_PER_MINUTE cannot be negative")
	}
	if c.KafkaEnabled() && c.StorageMode != StorageMongo {
		return fmt.Errorf("KAFKA_BROKERS requires STORAGE_MODE=%s for the outbox and inbox", StorageMongo)
	}
	return nil
}

// Fallback returns the built-in defaults, ignoring the environment: in-memory storage,
// no broker.
func Fallback() Config {
	v := viper.New()
	defaults(v)
	cfg, _ := fromViper(v)
	return cfg
}
