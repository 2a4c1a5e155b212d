package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// BaseConfig holds base configuration shared by every binary
type BaseConfig struct {
	Debug     bool   `mapstructure:"debug"`
	SentryDSN string `mapstructure:"sentry_dsn"`
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	DBName          string        `mapstructure:"dbname"`
	SSLMode         string        `mapstructure:"sslmode"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `mapstructure:"conn_max_idle_time"`
}

// DSN returns the database connection string
func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode)
}

// NATSConfig holds NATS JetStream configuration
type NATSConfig struct {
	URL            string        `mapstructure:"url"`
	StreamName     string        `mapstructure:"stream_name"`
	ConsumerName   string        `mapstructure:"consumer_name"`
	MaxReconnects  int           `mapstructure:"max_reconnects"`
	ReconnectWait  time.Duration `mapstructure:"reconnect_wait"`
	ConnectionName string        `mapstructure:"connection_name"`
	AckWait        time.Duration `mapstructure:"ack_wait"`
	MaxDeliver     int           `mapstructure:"max_deliver"`
}

// StreamConfig holds event stream pacing configuration
type StreamConfig struct {
	TransactionsFile string        `mapstructure:"transactions_file"`
	UserID           string        `mapstructure:"user_id"`
	Delay            time.Duration `mapstructure:"delay"`
	MaxRows          int           `mapstructure:"max_rows"`
	MaxEvents        int           `mapstructure:"max_events"`
}

// DispatchConfig holds write dispatcher configuration
type DispatchConfig struct {
	PoolSize       int           `mapstructure:"pool_size"`
	QueueSize      int           `mapstructure:"queue_size"`
	MaxRetries     uint64        `mapstructure:"max_retries"`
	InitialBackoff time.Duration `mapstructure:"initial_backoff"`
	MaxBackoff     time.Duration `mapstructure:"max_backoff"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host         string        `mapstructure:"host"`
	Port         int           `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	IdleTimeout  time.Duration `mapstructure:"idle_timeout"`
}

// SweeperConfig holds row expiry sweeper configuration
type SweeperConfig struct {
	Interval time.Duration `mapstructure:"interval"`
}

// StreamProducerConfig holds configuration for stream-producer
type StreamProducerConfig struct {
	BaseConfig `mapstructure:",squash"`
	Stream     StreamConfig `mapstructure:"stream"`
	NATS       NATSConfig   `mapstructure:"nats"`
}

// ViewWriterConfig holds configuration for view-writer
type ViewWriterConfig struct {
	BaseConfig `mapstructure:",squash"`
	Database   DatabaseConfig `mapstructure:"database"`
	NATS       NATSConfig     `mapstructure:"nats"`
	Dispatch   DispatchConfig `mapstructure:"dispatch"`
}

// DashboardAPIConfig holds configuration for dashboard-api
type DashboardAPIConfig struct {
	BaseConfig `mapstructure:",squash"`
	Database   DatabaseConfig `mapstructure:"database"`
	Server     ServerConfig   `mapstructure:"server"`
}

// RowSweeperConfig holds configuration for sweeper
type RowSweeperConfig struct {
	BaseConfig `mapstructure:",squash"`
	Database   DatabaseConfig `mapstructure:"database"`
	Sweeper    SweeperConfig  `mapstructure:"sweeper"`
}

// LoadStreamProducerConfig loads configuration for the stream-producer binary
func LoadStreamProducerConfig(configFile string, envPath string) (*StreamProducerConfig, error) {
	v := configureViper("stream-producer", configFile, envPath)

	v.SetDefault("stream.transactions_file", "data/transactions.csv")
	v.SetDefault("stream.user_id", "User_1")
	v.SetDefault("stream.delay", "500ms")
	v.SetDefault("stream.max_rows", 50000)
	setNATSDefaults(v)

	var config StreamProducerConfig
	if err := readInto(v, &config); err != nil {
		return nil, err
	}
	return &config, nil
}

// LoadViewWriterConfig loads configuration for the view-writer binary
func LoadViewWriterConfig(configFile string, envPath string) (*ViewWriterConfig, error) {
	v := configureViper("view-writer", configFile, envPath)

	setDatabaseDefaults(v)
	setNATSDefaults(v)
	v.SetDefault("nats.consumer_name", "view-writer")
	v.SetDefault("nats.ack_wait", "30s")
	v.SetDefault("nats.max_deliver", 5)
	v.SetDefault("dispatch.pool_size", 8)
	v.SetDefault("dispatch.queue_size", 256)
	v.SetDefault("dispatch.max_retries", 4)
	v.SetDefault("dispatch.initial_backoff", "100ms")
	v.SetDefault("dispatch.max_backoff", "5s")

	var config ViewWriterConfig
	if err := readInto(v, &config); err != nil {
		return nil, err
	}
	return &config, nil
}

// LoadDashboardAPIConfig loads configuration for the dashboard-api binary
func LoadDashboardAPIConfig(configFile string, envPath string) (*DashboardAPIConfig, error) {
	v := configureViper("dashboard-api", configFile, envPath)

	setDatabaseDefaults(v)
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", "10s")
	v.SetDefault("server.write_timeout", "10s")
	v.SetDefault("server.idle_timeout", "60s")

	var config DashboardAPIConfig
	if err := readInto(v, &config); err != nil {
		return nil, err
	}
	return &config, nil
}

// LoadRowSweeperConfig loads configuration for the sweeper binary
func LoadRowSweeperConfig(configFile string, envPath string) (*RowSweeperConfig, error) {
	v := configureViper("sweeper", configFile, envPath)

	setDatabaseDefaults(v)
	v.SetDefault("sweeper.interval", "15m")

	var config RowSweeperConfig
	if err := readInto(v, &config); err != nil {
		return nil, err
	}
	return &config, nil
}

// setDatabaseDefaults applies shared database defaults
func setDatabaseDefaults(v *viper.Viper) {
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.sslmode", "disable")
}

// setNATSDefaults applies shared NATS defaults
func setNATSDefaults(v *viper.Viper) {
	v.SetDefault("nats.url", "nats://localhost:4222")
	v.SetDefault("nats.stream_name", "TRANSACTION_EVENTS")
	v.SetDefault("nats.max_reconnects", 10)
	v.SetDefault("nats.reconnect_wait", "2s")
}

// readInto reads viper state into the given config struct. A missing config
// file is fine; defaults and environment variables carry the configuration.
func readInto(v *viper.Viper, config any) error {
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return fmt.Errorf("failed to read config: %w", err)
		}
	}
	if err := v.Unmarshal(config); err != nil {
		return fmt.Errorf("failed to unmarshal config: %w", err)
	}
	return nil
}

// configureViper builds a viper instance for one binary
func configureViper(service string, configFile string, envPath string) *viper.Viper {
	v := viper.New()

	loadEnv(envPath, service)

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath(fmt.Sprintf("cmd/%s/", service))
		v.AddConfigPath("config/")
	}

	v.SetEnvPrefix("PAYSTREAM")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	bindAllEnvVars(v)
	return v
}

// bindAllEnvVars explicitly binds all known environment variables.
// Required for viper to map env vars onto config struct fields when no config
// file exists.
func bindAllEnvVars(v *viper.Viper) {
	keys := []string{
		"debug",
		"sentry_dsn",
		// Database
		"database.host",
		"database.port",
		"database.user",
		"database.password",
		"database.dbname",
		"database.sslmode",
		"database.max_open_conns",
		"database.max_idle_conns",
		"database.conn_max_lifetime",
		"database.conn_max_idle_time",
		// NATS
		"nats.url",
		"nats.stream_name",
		"nats.consumer_name",
		"nats.max_reconnects",
		"nats.reconnect_wait",
		"nats.connection_name",
		"nats.ack_wait",
		"nats.max_deliver",
		// Stream
		"stream.transactions_file",
		"stream.user_id",
		"stream.delay",
		"stream.max_rows",
		"stream.max_events",
		// Dispatch
		"dispatch.pool_size",
		"dispatch.queue_size",
		"dispatch.max_retries",
		"dispatch.initial_backoff",
		"dispatch.max_backoff",
		// Server
		"server.host",
		"server.port",
		"server.read_timeout",
		"server.write_timeout",
		"server.idle_timeout",
		// Sweeper
		"sweeper.interval",
	}

	for _, key := range keys {
		_ = v.BindEnv(key)
	}
}

// loadEnv loads environment variables from the config directory
func loadEnv(envPath string, service string) {
	envFiles := []string{".env", ".env.local"}
	if service != "" {
		envFiles = append(envFiles, ".env."+service+".local")
	}

	if envPath == "" {
		envPath = "config/"
	}

	for _, envFile := range envFiles {
		candidate := filepath.Join(envPath, envFile)
		_ = godotenv.Overload(candidate) // Overload lets later files override earlier ones
	}
}

// ChdirRepoRoot changes the current working directory to the repository root
func ChdirRepoRoot() {
	cwd, _ := os.Getwd()
	for range 5 {
		if _, err := os.Stat(filepath.Join(cwd, "config")); err == nil {
			_ = os.Chdir(cwd)
			return
		}
		cwd = filepath.Dir(cwd)
	}
}
