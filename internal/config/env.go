package config

import (
	"os"
	"strconv"
	"strings"
)

// FromEnv overlays RECORDTRAIL_* environment variables onto cfg.
func FromEnv(cfg *Config) error {
	if v := os.Getenv("RECORDTRAIL_ENV"); v != "" {
		cfg.App.Environment = v
	}
	if v := os.Getenv("RECORDTRAIL_SERVER_ADDR"); v != "" {
		cfg.Server.Addr = v
	}
	if v := os.Getenv("RECORDTRAIL_DATABASE_DRIVER"); v != "" {
		cfg.Database.Driver = v
	}
	if v := os.Getenv("RECORDTRAIL_DATABASE_HOST"); v != "" {
		cfg.Database.Host = v
	}
	if v := os.Getenv("RECORDTRAIL_DATABASE_PORT"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return invalid("RECORDTRAIL_DATABASE_PORT: %v", err)
		}
		cfg.Database.Port = n
	}
	if v := os.Getenv("RECORDTRAIL_DATABASE_USER"); v != "" {
		cfg.Database.User = v
	}
	if v, ok := os.LookupEnv("RECORDTRAIL_DATABASE_PASSWORD"); ok {
		cfg.Database.Password = v
	}
	if v := os.Getenv("RECORDTRAIL_DATABASE_NAME"); v != "" {
		cfg.Database.DBName = v
	}
	if v := os.Getenv("RECORDTRAIL_DATABASE_SSLMODE"); v != "" {
		cfg.Database.SSLMode = v
	}
	if v, ok := os.LookupEnv("RECORDTRAIL_DATABASE_SCHEMA"); ok {
		cfg.Database.Schema = v
	}
	if v := os.Getenv("RECORDTRAIL_LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("RECORDTRAIL_LOG_FORMAT"); v != "" {
		cfg.Log.Format = v
	}
	if v := os.Getenv("RECORDTRAIL_LOG_FILE"); v != "" {
		cfg.Log.File = v
	}
	if v := os.Getenv("RECORDTRAIL_KAFKA_ENABLED"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return invalid("RECORDTRAIL_KAFKA_ENABLED: %v", err)
		}
		cfg.Kafka.Enabled = b
	}
	if v := os.Getenv("RECORDTRAIL_KAFKA_BROKERS"); v != "" {
		cfg.Kafka.Brokers = splitList(v)
	}
	if v := os.Getenv("RECORDTRAIL_KAFKA_TOPIC"); v != "" {
		cfg.Kafka.Topic = v
	}
	if v := os.Getenv("RECORDTRAIL_EMPTY_CHANGE"); v != "" {
		cfg.Tracker.EmptyChange = v
	}
	if v := os.Getenv("RECORDTRAIL_REDACT"); v != "" {
		cfg.Tracker.Redact = splitList(v)
	}
	return nil
}

func splitList(v string) []string {
	var out []string
	for _, p := range strings.Split(v, ",") {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
