// Package config настройки из .env и переменных окружения.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

type Config struct {
	ServerPort string `validate:"required,numeric"`
	LogLevel   string `validate:"oneof=debug info warn error"`

	BackendURL     string        `validate:"required,url"`
	BackendTimeout time.Duration `validate:"gt=0"`

	Currency    string
	MoneyPlaces int32 `validate:"gte=0,lte=4"`

	// пустой путь значит встроенный справочник
	DeliveryConfig string
	MetroConfig    string

	// пустой адрес отключает кэш каталога
	RedisAddr  string
	CatalogTTL time.Duration `validate:"gt=0"`

	// пустой список брокеров отключает журнал
	KafkaBrokers []string `validate:"dive,hostname_port"`
	KafkaTopic   string   `validate:"required"`
	KafkaGroup   string   `validate:"required"`

	DB DB

	SessionCapacity int `validate:"gt=0"`
}

type DB struct {
	Host     string
	Port     string `validate:"omitempty,numeric"`
	User     string
	Password string
	Name     string
	SSLMode  string `validate:"omitempty,oneof=disable require verify-ca verify-full"`
}

// Enabled задан ли postgres вообще.
func (d DB) Enabled() bool {
	return d.Host != ""
}

// DSN строка подключения для lib/pq
func (d DB) DSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.Name, d.SSLMode)
}

// JournalEnabled журнал пишется, только когда есть kafka.
func (c *Config) JournalEnabled() bool {
	return len(c.KafkaBrokers) > 0
}

// Load читает .env (если он есть) и окружение. Переменные окружения важнее .env.
func Load(files ...string) (*Config, error) {
	if err := godotenv.Load(files...); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}
	return FromEnv()
}

// FromEnv собирает конфиг из окружения и проверяет его.
func FromEnv() (*Config, error) {
	var errs []error

	cfg := &Config{
		ServerPort:     getEnv("SERVER_PORT", "8080"),
		LogLevel:       strings.ToLower(getEnv("LOG_LEVEL", "info")),
		BackendURL:     getEnv("BACKEND_URL", "http://localhost:8000"),
		Currency:       getEnv("CURRENCY", "BYN"),
		DeliveryConfig: os.Getenv("DELIVERY_CONFIG"),
		MetroConfig:    os.Getenv("METRO_CONFIG"),
		RedisAddr:      os.Getenv("REDIS_ADDR"),
		KafkaBrokers:   splitList(os.Getenv("KAFKA_BROKERS")),
		KafkaTopic:     getEnv("KAFKA_TOPIC", "checkout-events"),
		KafkaGroup:     getEnv("KAFKA_GROUP", "checkout-journal"),
		DB: DB{
			Host:     os.Getenv("DB_HOST"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     os.Getenv("DB_USER"),
			Password: os.Getenv("DB_PASSWORD"),
			Name:     os.Getenv("DB_NAME"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
	}

	var err error
	if cfg.BackendTimeout, err = getDuration("BACKEND_TIMEOUT", 10*time.Second); err != nil {
		errs = append(errs, err)
	}
	if cfg.CatalogTTL, err = getDuration("CATALOG_TTL", 5*time.Minute); err != nil {
		errs = append(errs, err)
	}
	places, err := getInt("MONEY_PLACES", 2)
	if err != nil {
		errs = append(errs, err)
	}
	cfg.MoneyPlaces = int32(places)
	if cfg.SessionCapacity, err = getInt("SESSION_CAPACITY", 1000); err != nil {
		errs = append(errs, err)
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return defaultValue, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return d, nil
}

func getInt(key string, defaultValue int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return defaultValue, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return n, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
