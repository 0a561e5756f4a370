package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Storage backends
const (
	BackendMemory   = "memory"
	BackendSQLite   = "sqlite"
	BackendPostgres = "postgres"
	BackendDynamoDB = "dynamodb"
)

type Config struct {
	Backend     string
	SQLitePath  string
	DatabaseURL string
	DynamoTable string
	Namespace   string

	SessionSecret string
	SessionTTL    time.Duration

	DemoSales   bool
	CatalogFile string

	KafkaBrokers      []string
	KafkaTopic        string
	KafkaGroupID      string
	KafkaWriteTimeout time.Duration

	SMTPHost string
	SMTPPort int
	SMTPFrom string

	LogLevel    string
	Environment string
}

// Load reads an optional .env file and then the environment
func Load() (*Config, error) {
	godotenv.Load()

	config := &Config{
		Backend:           strings.ToLower(getEnv("MARKET_BACKEND", BackendSQLite)),
		SQLitePath:        getEnv("MARKET_SQLITE_PATH", defaultSQLitePath()),
		DatabaseURL:       getEnv("DATABASE_URL", ""),
		DynamoTable:       getEnv("MARKET_DYNAMO_TABLE", "market_kv"),
		Namespace:         getEnv("MARKET_NAMESPACE", "yeni_nefes_"),
		SessionSecret:     getEnv("SESSION_SECRET", "dev-session-secret"),
		SessionTTL:        getEnvAsDuration("SESSION_TTL", 30*24*time.Hour),
		DemoSales:         getEnvAsBool("MARKET_DEMO_SALES", false),
		CatalogFile:       getEnv("MARKET_CATALOG_FILE", ""),
		KafkaBrokers:      getEnvAsList("KAFKA_BROKERS"),
		KafkaTopic:        getEnv("KAFKA_TOPIC", "market-events"),
		KafkaGroupID:      getEnv("KAFKA_GROUP_ID", "market-notifier"),
		KafkaWriteTimeout: getEnvAsDuration("KAFKA_WRITE_TIMEOUT", 2*time.Second),
		SMTPHost:          getEnv("SMTP_HOST", "localhost"),
		SMTPPort:          getEnvAsInt("SMTP_PORT", 1025),
		SMTPFrom:          getEnv("SMTP_FROM", "noreply@yeninefes.az"),
		LogLevel:          getEnv("LOG_LEVEL", "info"),
		Environment:       getEnv("ENVIRONMENT", "development"),
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// Validate checks that the selected backend has what it needs
func (c *Config) Validate() error {
	switch c.Backend {
	case BackendMemory:
	case BackendSQLite:
		if c.SQLitePath == "" {
			return fmt.Errorf("MARKET_SQLITE_PATH is required for the sqlite backend")
		}
	case BackendPostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required for the postgres backend")
		}
	case BackendDynamoDB:
		if c.DynamoTable == "" {
			return fmt.Errorf("MARKET_DYNAMO_TABLE is required for the dynamodb backend")
		}
	default:
		return fmt.Errorf("unknown MARKET_BACKEND %q", c.Backend)
	}
	return nil
}

// IsDevelopment reports whether development logging should be used
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

func defaultSQLitePath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "market.db"
	}
	return dir + string(os.PathSeparator) + "furniture-market" + string(os.PathSeparator) + "market.db"
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value, exists := os.LookupEnv(key); exists {
		intValue, err := strconv.Atoi(value)
		if err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value, exists := os.LookupEnv(key); exists {
		boolValue, err := strconv.ParseBool(value)
		if err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value, exists := os.LookupEnv(key); exists {
		d, err := time.ParseDuration(value)
		if err == nil {
			return d
		}
	}
	return defaultValue
}

func getEnvAsList(key string) []string {
	value, exists := os.LookupEnv(key)
	if !exists || value == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
