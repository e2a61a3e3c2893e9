package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds everything a domain service process needs: its HTTP listener,
// its own database and the shared broker.
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	RabbitMQ RabbitMQConfig
}

type ServerConfig struct {
	Port string
	Host string
}

type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

type RabbitMQConfig struct {
	URL      string
	Host     string
	Port     string
	User     string
	Password string
	VHost    string

	// PublisherConfirms puts the channel in confirm mode so a publish
	// blocks until the broker acknowledges acceptance.
	PublisherConfirms bool
}

// GatewayConfig holds the backend base addresses for the reverse proxy.
// The route table built from these is immutable after process start.
type GatewayConfig struct {
	Server         ServerConfig
	RequestTimeout time.Duration

	AuthURL         string
	BookingURL      string
	FinanceURL      string
	InventoryURL    string
	NotificationURL string
	VehicleURL      string
	WorkOrderURL    string
	ChatURL         string
}

// OutboxConfig tunes the relay that drains the outbox table to the broker.
type OutboxConfig struct {
	PollInterval time.Duration
	BatchSize    int
}

// Load reads a domain service configuration from environment variables.
// All listed variables are required; missing ones are reported together.
func Load() (*Config, error) {
	var missing []string

	get := func(key string) string {
		val := os.Getenv(key)
		if val == "" {
			missing = append(missing, key)
		}
		return val
	}

	config := &Config{
		Server: ServerConfig{
			Port: get("SERVER_PORT"),
			Host: get("SERVER_HOST"),
		},
		Database: DatabaseConfig{
			Host:     get("DB_HOST"),
			Port:     get("DB_PORT"),
			User:     get("DB_USER"),
			Password: get("DB_PASSWORD"),
			DBName:   get("DB_NAME"),
			SSLMode:  get("DB_SSLMODE"),
		},
		RabbitMQ: RabbitMQConfig{
			URL:               os.Getenv("RABBITMQ_URL"),
			Host:              get("RABBITMQ_HOST"),
			Port:              get("RABBITMQ_PORT"),
			User:              get("RABBITMQ_USER"),
			Password:          get("RABBITMQ_PASSWORD"),
			VHost:             get("RABBITMQ_VHOST"),
			PublisherConfirms: getBool("RABBITMQ_PUBLISHER_CONFIRMS", false),
		},
	}

	if len(missing) > 0 {
		return nil, fmt.Errorf("missing required environment variables: %v", missing)
	}

	return config, nil
}

// LoadGateway reads the gateway configuration. The gateway owns no database
// and no broker connection, only the listener and the backend addresses.
func LoadGateway() (*GatewayConfig, error) {
	var missing []string

	get := func(key string) string {
		val := os.Getenv(key)
		if val == "" {
			missing = append(missing, key)
		}
		return val
	}

	config := &GatewayConfig{
		Server: ServerConfig{
			Port: get("SERVER_PORT"),
			Host: get("SERVER_HOST"),
		},
		RequestTimeout: getDuration("GATEWAY_REQUEST_TIMEOUT", 15*time.Second),

		AuthURL:         get("AUTH_SERVICE_URL"),
		BookingURL:      get("BOOKING_SERVICE_URL"),
		FinanceURL:      get("FINANCE_SERVICE_URL"),
		InventoryURL:    get("INVENTORY_SERVICE_URL"),
		NotificationURL: get("NOTIFICATION_SERVICE_URL"),
		VehicleURL:      get("VEHICLE_SERVICE_URL"),
		WorkOrderURL:    get("WORKORDER_SERVICE_URL"),
		ChatURL:         get("CHAT_SERVICE_URL"),
	}

	if len(missing) > 0 {
		return nil, fmt.Errorf("missing required environment variables: %v", missing)
	}

	return config, nil
}

// LoadOutbox reads relay tunables; both have defaults.
func LoadOutbox() OutboxConfig {
	return OutboxConfig{
		PollInterval: getDuration("OUTBOX_POLL_INTERVAL", time.Second),
		BatchSize:    getInt("OUTBOX_BATCH_SIZE", 50),
	}
}

// ConnectionString returns a DSN string for GORM
func (c *DatabaseConfig) ConnectionString() string {
	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=%s TimeZone=UTC",
		c.Host, c.User, c.Password, c.DBName, c.Port, c.SSLMode)
}

func (c *RabbitMQConfig) ConnectionURL() string {
	if c.URL != "" {
		return c.URL
	}
	return fmt.Sprintf("amqp://%s:%s@%s:%s%s",
		c.User, c.Password, c.Host, c.Port, c.VHost)
}

func getBool(key string, fallback bool) bool {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(val)
	if err != nil {
		return fallback
	}
	return parsed
}

func getInt(key string, fallback int) int {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(val)
	if err != nil || parsed <= 0 {
		return fallback
	}
	return parsed
}

func getDuration(key string, fallback time.Duration) time.Duration {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := time.ParseDuration(val)
	if err != nil || parsed <= 0 {
		return fallback
	}
	return parsed
}
