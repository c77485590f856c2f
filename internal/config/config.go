package config

import (
	"errors"
	"fmt"
	"os"
	"time"
)

const (
	BackendSQLite   = "sqlite"
	BackendPostgres = "postgres"
	// BackendMemory keeps everything in process; nothing survives exit.
	BackendMemory = "memory"
)

var ErrInvalidConfig = errors.New("invalid config")

type S3 struct {
	Endpoint  string
	Region    string
	Bucket    string
	AccessKey string
	SecretKey string
}

// Enabled reports whether photos should be offloaded to object storage.
func (s S3) Enabled() bool { return s.Bucket != "" }

type Config struct {
	Backend       string
	DBPath        string
	SchemaVersion int

	DatabaseDSN   string
	OwnerToken    string
	SecretKey     string
	TokenValidity time.Duration

	S3 S3

	LogLevel  string
	LogFormat string

	PreventiveSoonDays int
}

func (c *Config) LoadDefaults() {
	c.Backend = BackendSQLite
	c.DBPath = "maintlog.db"
	c.SchemaVersion = 0
	c.TokenValidity = 365 * 24 * time.Hour
	c.S3.Region = "us-east-1"
	c.LogLevel = "info"
	c.LogFormat = "text"
	c.PreventiveSoonDays = 30
}

// LoadConfig builds a Config from defaults, the JSON file and the flags in
// args, in that order. It panics on an unreadable file or a malformed flag.
func LoadConfig(args []string) *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg, args)
	parseFlags(cfg, args)
	return cfg
}

// Load is LoadConfig over the process arguments.
func Load() *Config {
	return LoadConfig(os.Args[1:])
}

func (c *Config) Validate() error {
	switch c.Backend {
	case BackendSQLite:
		if c.DBPath == "" {
			return fmt.Errorf("%w: db_path is empty", ErrInvalidConfig)
		}
	case BackendPostgres:
		if c.DatabaseDSN == "" {
			return fmt.Errorf("%w: postgres backend needs database_dsn", ErrInvalidConfig)
		}
		if c.OwnerToken == "" || c.SecretKey == "" {
			return fmt.Errorf("%w: postgres backend needs owner_token and secret_key", ErrInvalidConfig)
		}
	case BackendMemory:
	default:
		return fmt.Errorf("%w: unknown backend %q", ErrInvalidConfig, c.Backend)
	}
	if c.SchemaVersion < 0 {
		return fmt.Errorf("%w: schema_version %d", ErrInvalidConfig, c.SchemaVersion)
	}
	if c.PreventiveSoonDays < 0 {
		return fmt.Errorf("%w: preventive_soon_days %d", ErrInvalidConfig, c.PreventiveSoonDays)
	}
	return nil
}
