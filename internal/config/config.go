package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"

	"github.com/mickamy/recordtrail"
	"github.com/mickamy/recordtrail/internal/ident"
)

// ErrConfiguration is wrapped by every error caused by missing or invalid settings.
var ErrConfiguration = errors.New("configuration error")

// Config is the application configuration.
type Config struct {
	App      AppConfig      `yaml:"app"`
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Log      LogConfig      `yaml:"log"`
	Kafka    KafkaConfig    `yaml:"kafka"`
	Tracker  TrackerConfig  `yaml:"tracker"`
}

type AppConfig struct {
	Name        string `yaml:"name"`
	Environment string `yaml:"environment"`
}

type ServerConfig struct {
	Addr            string        `yaml:"addr"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// DatabaseConfig describes the connection holding the log tables.
type DatabaseConfig struct {
	Driver          string        `yaml:"driver"` // pgx, postgres or mysql
	Host            string        `yaml:"host"`
	Port            int           `yaml:"port"`
	User            string        `yaml:"user"`
	Password        string        `yaml:"password"`
	DBName          string        `yaml:"dbname"`
	SSLMode         string        `yaml:"sslmode"`
	Schema          string        `yaml:"schema"`
	MaxOpenConns    int           `yaml:"max_open_conns"`
	MaxIdleConns    int           `yaml:"max_idle_conns"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime"`
}

type LogConfig struct {
	Level      string `yaml:"level"`
	Format     string `yaml:"format"` // json or console
	File       string `yaml:"file"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days"`
}

type KafkaConfig struct {
	Enabled bool     `yaml:"enabled"`
	Brokers []string `yaml:"brokers"`
	Topic   string   `yaml:"topic"`
}

// TrackerConfig tunes the recordtrail handler.
type TrackerConfig struct {
	EmptyChange string   `yaml:"empty_change"` // commit, reject or skip
	Redact      []string `yaml:"redact"`       // attribute names stored masked
}

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		App: AppConfig{Name: "recordtrail", Environment: "development"},
		Server: ServerConfig{
			Addr:            ":8080",
			ReadTimeout:     10 * time.Second,
			WriteTimeout:    10 * time.Second,
			ShutdownTimeout: 15 * time.Second,
		},
		Database: DatabaseConfig{
			Driver:          "pgx",
			Host:            "localhost",
			Port:            5432,
			User:            "postgres",
			DBName:          "postgres",
			SSLMode:         "disable",
			MaxOpenConns:    10,
			MaxIdleConns:    5,
			ConnMaxLifetime: 5 * time.Minute,
		},
		Log: LogConfig{
			Level:      "info",
			Format:     "json",
			MaxSizeMB:  100,
			MaxBackups: 3,
			MaxAgeDays: 28,
		},
		Kafka:   KafkaConfig{Topic: "recordtrail.changes.v1"},
		Tracker: TrackerConfig{EmptyChange: "commit"},
	}
}

// Load reads path over the defaults, applies RECORDTRAIL_* environment
// variables and validates the result. An empty path skips the file.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("%w: failed to read config file: %w", ErrConfiguration, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("%w: failed to parse config file: %w", ErrConfiguration, err)
		}
	}
	if err := FromEnv(&cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks required settings.
func (c *Config) Validate() error {
	if c.Server.Addr == "" {
		return invalid("server.addr is required")
	}
	if err := c.Database.Validate(); err != nil {
		return err
	}
	if _, err := zapcore.ParseLevel(c.Log.Level); err != nil {
		return invalid("log.level %q is not a valid level", c.Log.Level)
	}
	switch c.Log.Format {
	case "json", "console":
	default:
		return invalid("log.format must be json or console, got %q", c.Log.Format)
	}
	if c.Kafka.Enabled {
		if len(c.Kafka.Brokers) == 0 {
			return invalid("kafka.brokers is required when kafka is enabled")
		}
		if c.Kafka.Topic == "" {
			return invalid("kafka.topic is required when kafka is enabled")
		}
	}
	if _, err := recordtrail.ParseEmptyChange(c.Tracker.EmptyChange); err != nil {
		return invalid("tracker.empty_change: %v", err)
	}
	return nil
}

// Validate checks the connection settings.
func (c *DatabaseConfig) Validate() error {
	if _, err := recordtrail.DialectFor(c.Driver); err != nil {
		return invalid("database.driver: %v", err)
	}
	if c.Host == "" {
		return invalid("database.host is required")
	}
	if c.Port <= 0 || c.Port > 65535 {
		return invalid("database.port must be between 1 and 65535")
	}
	if c.DBName == "" {
		return invalid("database.dbname is required")
	}
	if c.Schema != "" && !ident.Valid(c.Schema) {
		return invalid("database.schema %q is not a valid identifier", c.Schema)
	}
	return nil
}

// DSN returns the connection string for the configured driver.
func (c *DatabaseConfig) DSN() string {
	if c.isMySQL() {
		m := mysql.NewConfig()
		m.User = c.User
		m.Passwd = c.Password
		m.Net = "tcp"
		m.Addr = net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
		m.DBName = c.DBName
		m.ParseTime = true
		m.Loc = time.UTC
		return m.FormatDSN()
	}
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode)
}

// Dialect returns the recordtrail dialect for the configured driver.
func (c *DatabaseConfig) Dialect() (recordtrail.Dialect, error) {
	d, err := recordtrail.DialectFor(c.Driver)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrConfiguration, err)
	}
	return d, nil
}

func (c *DatabaseConfig) isMySQL() bool {
	switch strings.ToLower(c.Driver) {
	case "mysql", "mariadb":
		return true
	}
	return false
}

// DriverName is the database/sql driver to open, normalizing mariadb to mysql.
func (c *DatabaseConfig) DriverName() string {
	if c.isMySQL() {
		return "mysql"
	}
	return strings.ToLower(c.Driver)
}

// Handler builds the recordtrail configuration from the tracker and database settings.
func (c *Config) Handler() (recordtrail.Config, error) {
	d, err := c.Database.Dialect()
	if err != nil {
		return recordtrail.Config{}, err
	}
	empty, err := recordtrail.ParseEmptyChange(c.Tracker.EmptyChange)
	if err != nil {
		return recordtrail.Config{}, fmt.Errorf("%w: %w", ErrConfiguration, err)
	}
	redact := make(recordtrail.RedactMap, len(c.Tracker.Redact))
	for _, name := range c.Tracker.Redact {
		redact[name] = recordtrail.Mask("[REDACTED]")
	}
	return recordtrail.Config{
		Dialect:     d,
		Schema:      c.Database.Schema,
		Redact:      redact,
		EmptyChange: empty,
	}, nil
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrConfiguration, fmt.Sprintf(format, args...))
}
