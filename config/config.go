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
	"gopkg.in/yaml.v3"
)

type Config struct {
	HTTP      HTTPConfig      `yaml:"http"`
	GRPC      GRPCConfig      `yaml:"grpc"`
	Database  DatabaseConfig  `yaml:"database"`
	Redis     RedisConfig     `yaml:"redis"`
	Kafka     KafkaConfig     `yaml:"kafka"`
	Auth      AuthConfig      `yaml:"auth"`
	Booking   BookingConfig   `yaml:"booking"`
	Payments  PaymentsConfig  `yaml:"payments"`
	Worker    WorkerConfig    `yaml:"worker"`
	Log       LogConfig       `yaml:"log"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
}

type HTTPConfig struct {
	Address        string   `yaml:"address"`
	AllowedOrigins []string `yaml:"allowed_origins"`
}

type GRPCConfig struct {
	Address string `yaml:"address"`
}

type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Name     string `yaml:"name"`
	SSLMode  string `yaml:"ssl_mode"`
	MaxConns int32  `yaml:"max_conns"`
}

func (d DatabaseConfig) DSN() string {
	dsn := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s", d.Host, d.Port, d.User, d.Password, d.Name, d.SSLMode)
	if d.MaxConns > 0 {
		dsn += fmt.Sprintf(" pool_max_conns=%d", d.MaxConns)
	}
	return dsn
}

type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type KafkaConfig struct {
	Brokers            []string `yaml:"brokers"`
	BookingEventsTopic string   `yaml:"booking_events_topic"`
	GroupID            string   `yaml:"group_id"`
}

type AuthConfig struct {
	JWTSecret string `yaml:"jwt_secret"`
}

type BookingConfig struct {
	CancellationWindowHours int `yaml:"cancellation_window_hours"`
	SeatMapCacheTTLSeconds  int `yaml:"seat_map_cache_ttl_seconds"`
}

func (b BookingConfig) CancellationWindow() time.Duration {
	return time.Duration(b.CancellationWindowHours) * time.Hour
}

func (b BookingConfig) SeatMapCacheTTL() time.Duration {
	return time.Duration(b.SeatMapCacheTTLSeconds) * time.Second
}

type PaymentsConfig struct {
	CallbackURL    string `yaml:"callback_url"`
	DefaultGateway string `yaml:"default_gateway"`
}

type WorkerConfig struct {
	OutboxPollSeconds  int `yaml:"outbox_poll_seconds"`
	OutboxRetrySeconds int `yaml:"outbox_retry_seconds"`
	OutboxBatchSize    int `yaml:"outbox_batch_size"`
}

type LogConfig struct {
	Level       string `yaml:"level"`
	Development bool   `yaml:"development"`
}

type TelemetryConfig struct {
	Enabled       bool   `yaml:"enabled"`
	ServiceName   string `yaml:"service_name"`
	CollectorAddr string `yaml:"collector_addr"`
}

// LoadConfig reads the YAML file at path. Values from a .env file in the working
// directory and from the process environment take precedence over the file.
func LoadConfig(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	cfg.applyDefaults()
	return &cfg, nil
}

func (c *Config) applyEnv() error {
	if v := os.Getenv("DB_HOST"); v != "" {
		c.Database.Host = v
	}
	if v := os.Getenv("DB_PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid DB_PORT %q: %w", v, err)
		}
		c.Database.Port = port
	}
	if v := os.Getenv("DB_PASSWORD"); v != "" {
		c.Database.Password = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		c.Redis.Addr = v
	}
	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		c.Kafka.Brokers = strings.Split(v, ",")
	}
	if v := os.Getenv("JWT_SECRET"); v != "" {
		c.Auth.JWTSecret = v
	}
	if v := os.Getenv("PAYMENT_CALLBACK_URL"); v != "" {
		c.Payments.CallbackURL = v
	}
	return nil
}

func (c *Config) applyDefaults() {
	if c.HTTP.Address == "" {
		c.HTTP.Address = ":8080"
	}
	if c.GRPC.Address == "" {
		c.GRPC.Address = ":9090"
	}
	if c.Database.SSLMode == "" {
		c.Database.SSLMode = "disable"
	}
	if c.Kafka.BookingEventsTopic == "" {
		c.Kafka.BookingEventsTopic = "booking-events"
	}
	if c.Kafka.GroupID == "" {
		c.Kafka.GroupID = "ridebooking-notifications"
	}
	if c.Booking.CancellationWindowHours == 0 {
		c.Booking.CancellationWindowHours = 24
	}
	if c.Booking.SeatMapCacheTTLSeconds == 0 {
		c.Booking.SeatMapCacheTTLSeconds = 30
	}
	if c.Payments.CallbackURL == "" {
		c.Payments.CallbackURL = "http://localhost:3000/payment/callback"
	}
	if c.Payments.DefaultGateway == "" {
		c.Payments.DefaultGateway = "mock_gateway"
	}
	if c.Worker.OutboxPollSeconds == 0 {
		c.Worker.OutboxPollSeconds = 1
	}
	if c.Worker.OutboxRetrySeconds == 0 {
		c.Worker.OutboxRetrySeconds = 5
	}
	if c.Worker.OutboxBatchSize == 0 {
		c.Worker.OutboxBatchSize = 100
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Telemetry.ServiceName == "" {
		c.Telemetry.ServiceName = "ridebooking"
	}
}
