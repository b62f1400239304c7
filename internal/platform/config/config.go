package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config is centralized process configuration.
// Keep infra values here and pass typed config into builders.
type Config struct {
	ServiceName  string
	HTTPPort     string
	PostgresDSN  string
	KafkaBrokers []string

	ChainID            uint64
	LedgerContract     string
	DecryptionVerifier string
	BadgeAdmin         string
	JWTSecret          string
	GrantDurationDays  uint32
}

func Load() (Config, error) {
	// A local .env overrides nothing already set in the environment.
	_ = godotenv.Load()

	service := os.Getenv("SERVICE_NAME")
	if service == "" {
		service = "aqualedger"
	}

	port := os.Getenv("HTTP_PORT")
	if port == "" {
		port = "8080"
	}

	var brokers []string
	for _, value := range strings.Split(os.Getenv("KAFKA_BROKERS"), ",") {
		value = strings.TrimSpace(value)
		if value != "" {
			brokers = append(brokers, value)
		}
	}
	if len(brokers) == 0 {
		brokers = []string{"localhost:9092"}
	}

	return Config{
		ServiceName:  service,
		HTTPPort:     port,
		PostgresDSN:  os.Getenv("POSTGRES_DSN"),
		KafkaBrokers: brokers,

		ChainID:            envUint64("CHAIN_ID", 31337),
		LedgerContract:     envString("LEDGER_CONTRACT", "0x00000000000000000000000000000000000000a1"),
		DecryptionVerifier: envString("DECRYPTION_VERIFIER", "0x00000000000000000000000000000000000000a2"),
		BadgeAdmin:         strings.ToLower(os.Getenv("BADGE_ADMIN")),
		JWTSecret:          envString("JWT_SECRET", "dev-only-secret"),
		GrantDurationDays:  uint32(envUint64("GRANT_DURATION_DAYS", 7)),
	}, nil
}

func envString(name, fallback string) string {
	value := strings.TrimSpace(os.Getenv(name))
	if value == "" {
		return fallback
	}
	return value
}

func envUint64(name string, fallback uint64) uint64 {
	raw := strings.TrimSpace(os.Getenv(name))
	if raw == "" {
		return fallback
	}
	value, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return fallback
	}
	return value
}
