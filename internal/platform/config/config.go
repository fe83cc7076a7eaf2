package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	pkgstrings "fundledger/pkg/platform/strings"
)

// Server captures process level configuration.
type Server struct {
	Addr          string
	LogLevel      string
	LogFormat     string
	DatabaseURL   string
	JWTSigningKey string
	JWTIssuer     string
	// Authority is the single address allowed to create campaigns.
	Authority string
	// SettlementAsset identifies the native asset campaign amounts are denominated in.
	SettlementAsset string
	// Custody is the ledger's own address: swap outputs are delivered to it.
	Custody string
	// VaultFloat seeds the in-memory custody vault (settlement-asset units).
	VaultFloat string

	Redis    RedisConfig
	Kafka    KafkaConfig
	Exchange ExchangeConfig
}

// RedisConfig configures the shared Redis client. An empty URL disables Redis.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	// LockTTL bounds how long a crashed process can hold the withdrawal lock.
	LockTTL time.Duration
}

// KafkaConfig configures the outbox relay. No brokers disables publishing.
type KafkaConfig struct {
	Brokers      []string
	Topic        string
	PollInterval time.Duration
	BatchSize    int
}

// ExchangeConfig selects the exchange gateway. An empty URL selects the
// fixed-rate book backed by Rates.
type ExchangeConfig struct {
	URL              string
	Timeout          time.Duration
	FailureThreshold int
	SuccessThreshold int
	// Rates maps token address to settlement units per token unit, e.g. "0xabc..=2,0xdef..=1".
	Rates string
}

const (
	defaultAddr            = ":8080"
	defaultSigningKey      = "dev-secret-key-change-in-production"
	defaultAuthority       = "0x0000000000000000000000000000000000000001"
	defaultSettlementAsset = "0x0000000000000000000000000000000000000000"
	defaultCustody         = "0x00000000000000000000000000000000000000fe"
)

// FromEnv builds a Server config from environment variables so main stays lean.
// A .env file in the working directory is loaded first when present; real
// environment variables win.
func FromEnv() Server {
	_ = godotenv.Load()

	return Server{
		Addr:            getString("FUNDLEDGER_ADDR", defaultAddr),
		LogLevel:        getString("LOG_LEVEL", "info"),
		LogFormat:       getString("LOG_FORMAT", "json"),
		DatabaseURL:     os.Getenv("DATABASE_URL"),
		JWTSigningKey:   getString("JWT_SIGNING_KEY", defaultSigningKey),
		JWTIssuer:       getString("JWT_ISSUER", "fundledger"),
		Authority:       getString("AUTHORITY_ADDRESS", defaultAuthority),
		SettlementAsset: getString("SETTLEMENT_ASSET", defaultSettlementAsset),
		Custody:         getString("CUSTODY_ADDRESS", defaultCustody),
		VaultFloat:      getString("VAULT_FLOAT", "0"),
		Redis: RedisConfig{
			URL:          os.Getenv("REDIS_URL"),
			PoolSize:     getInt("REDIS_POOL_SIZE", 10),
			MinIdleConns: getInt("REDIS_MIN_IDLE_CONNS", 2),
			DialTimeout:  getDuration("REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:  getDuration("REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout: getDuration("REDIS_WRITE_TIMEOUT", 3*time.Second),
			LockTTL:      getDuration("WITHDRAW_LOCK_TTL", 30*time.Second),
		},
		Kafka: KafkaConfig{
			Brokers:      getList("KAFKA_BROKERS"),
			Topic:        getString("KAFKA_TOPIC", "fundledger.ledger-events"),
			PollInterval: getDuration("OUTBOX_POLL_INTERVAL", time.Second),
			BatchSize:    getInt("OUTBOX_BATCH_SIZE", 100),
		},
		Exchange: ExchangeConfig{
			URL:              os.Getenv("EXCHANGE_URL"),
			Timeout:          getDuration("EXCHANGE_TIMEOUT", 10*time.Second),
			FailureThreshold: getInt("EXCHANGE_BREAKER_FAILURES", 5),
			SuccessThreshold: getInt("EXCHANGE_BREAKER_SUCCESSES", 2),
			Rates:            os.Getenv("EXCHANGE_RATES"),
		},
	}
}

func getString(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func getInt(key string, fallback int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return fallback
	}
	return n
}

func getDuration(key string, fallback time.Duration) time.Duration {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}

func getList(key string) []string {
	return pkgstrings.SplitList(os.Getenv(key))
}
