package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	DriverPostgres = "postgres"
	DriverMongo    = "mongo"
)

type AppConfig struct {
	Port     string
	LogLevel string
	// Pretty switches the logger to the human readable console writer.
	Pretty bool
}

type PostgresConfig struct {
	Host            string
	Port            string
	User            string
	Password        string
	DBName          string
	SSLMode         string
	MaxConns        int32
	MinConns        int32
	MaxConnLifetime time.Duration
	MigrationsPath  string
}

// DSN is the keyword/value connection string understood by pgx.
func (c PostgresConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode)
}

type MongoConfig struct {
	URI      string
	Database string
}

type RabbitMQConfig struct {
	URL             string
	Queue           string
	ChannelPoolSize int
}

type NotifyConfig struct {
	Workers        int
	SMTPHost       string
	SMTPPort       string
	SMTPUsername   string
	SMTPPassword   string
	SMTPFrom       string
	SMSWebhookURL  string
	RequestTimeout time.Duration
}

type Config struct {
	App           AppConfig
	StorageDriver string
	Postgres      PostgresConfig
	Mongo         MongoConfig
	RabbitMQ      RabbitMQConfig
	Notify        NotifyConfig
}

// NewConfig reads an optional .env file and then the process environment.
func NewConfig() (*Config, error) {
	cfg, err := loadBase()
	if err != nil {
		return nil, err
	}

	switch cfg.StorageDriver {
	case DriverPostgres:
		if cfg.Postgres, err = loadPostgres(); err != nil {
			return nil, err
		}
	case DriverMongo:
		if cfg.Mongo.URI == "" {
			return nil, errors.New("MONGO_URI is required when STORAGE_DRIVER=mongo")
		}
	default:
		return nil, fmt.Errorf("unsupported STORAGE_DRIVER %q", cfg.StorageDriver)
	}

	return cfg, nil
}

// NewWorkerConfig is NewConfig without the storage settings, for processes
// that only consume from RabbitMQ. RABBITMQ_URL is required.
func NewWorkerConfig() (*Config, error) {
	cfg, err := loadBase()
	if err != nil {
		return nil, err
	}
	if cfg.RabbitMQ.URL == "" {
		return nil, errors.New("RABBITMQ_URL is required")
	}
	return cfg, nil
}

func loadBase() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	cfg := &Config{
		App: AppConfig{
			Port:     getEnv("APP_PORT", "8080"),
			LogLevel: getEnv("LOG_LEVEL", "info"),
			Pretty:   getEnv("LOG_PRETTY", "false") == "true",
		},
		StorageDriver: strings.ToLower(getEnv("STORAGE_DRIVER", DriverPostgres)),
		Mongo: MongoConfig{
			URI:      os.Getenv("MONGO_URI"),
			Database: getEnv("MONGO_DB", "velora"),
		},
		RabbitMQ: RabbitMQConfig{
			URL:   os.Getenv("RABBITMQ_URL"),
			Queue: getEnv("RABBITMQ_QUEUE", "order_confirmations"),
		},
		Notify: NotifyConfig{
			SMTPHost:      os.Getenv("SMTP_HOST"),
			SMTPPort:      getEnv("SMTP_PORT", "587"),
			SMTPUsername:  os.Getenv("SMTP_USERNAME"),
			SMTPPassword:  os.Getenv("SMTP_PASSWORD"),
			SMTPFrom:      getEnv("SMTP_FROM", "orders@velora.local"),
			SMSWebhookURL: os.Getenv("SMS_WEBHOOK_URL"),
		},
	}

	var err error
	if cfg.RabbitMQ.ChannelPoolSize, err = getEnvInt("RABBITMQ_CHANNEL_POOL_SIZE", 4); err != nil {
		return nil, err
	}
	if cfg.Notify.Workers, err = getEnvInt("NOTIFY_WORKERS", 2); err != nil {
		return nil, err
	}
	if cfg.Notify.RequestTimeout, err = getEnvDuration("NOTIFY_REQUEST_TIMEOUT", 10*time.Second); err != nil {
		return nil, err
	}

	return cfg, nil
}

func loadPostgres() (PostgresConfig, error) {
	pg := PostgresConfig{
		Host:           os.Getenv("DB_HOST"),
		Port:           getEnv("DB_PORT", "5432"),
		User:           os.Getenv("DB_USER"),
		Password:       os.Getenv("DB_PASSWORD"),
		DBName:         os.Getenv("DB_NAME"),
		SSLMode:        getEnv("DB_SSLMODE", "disable"),
		MigrationsPath: getEnv("DB_MIGRATIONS_PATH", "migrations"),
	}

	for key, value := range map[string]string{
		"DB_HOST":     pg.Host,
		"DB_USER":     pg.User,
		"DB_PASSWORD": pg.Password,
		"DB_NAME":     pg.DBName,
	} {
		if value == "" {
			return PostgresConfig{}, fmt.Errorf("%s is required", key)
		}
	}

	maxConns, err := getEnvInt("DB_MAX_CONNS", 10)
	if err != nil {
		return PostgresConfig{}, err
	}
	minConns, err := getEnvInt("DB_MIN_CONNS", 2)
	if err != nil {
		return PostgresConfig{}, err
	}
	pg.MaxConns = int32(maxConns)
	pg.MinConns = int32(minConns)

	if pg.MaxConnLifetime, err = getEnvDuration("DB_MAX_CONN_LIFETIME", 30*time.Minute); err != nil {
		return PostgresConfig{}, err
	}

	return pg, nil
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer: %w", key, err)
	}
	return n, nil
}

func getEnvDuration(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s must be a duration: %w", key, err)
	}
	return d, nil
}
