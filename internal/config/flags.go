package config

import (
	"flag"

	"github.com/dmitrijs2005/maintlog/internal/flagx"
)

func parseFlags(cfg *Config, args []string) {
	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&cfg.Backend, "backend", cfg.Backend, "storage backend: sqlite, postgres or memory")
	fs.StringVar(&cfg.DBPath, "db", cfg.DBPath, "SQLite database file")
	fs.IntVar(&cfg.SchemaVersion, "schema", cfg.SchemaVersion, "schema version to open at (0 = latest)")
	fs.StringVar(&cfg.DatabaseDSN, "dsn", cfg.DatabaseDSN, "PostgreSQL connection string")
	fs.StringVar(&cfg.OwnerToken, "token", cfg.OwnerToken, "owner token for the hosted backend")
	fs.StringVar(&cfg.SecretKey, "secret", cfg.SecretKey, "owner token signing key")
	fs.StringVar(&cfg.S3.Endpoint, "s3-endpoint", cfg.S3.Endpoint, "S3 endpoint URL")
	fs.StringVar(&cfg.S3.Bucket, "s3-bucket", cfg.S3.Bucket, "S3 bucket for photos")
	fs.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "debug, info, warn or error")
	fs.StringVar(&cfg.LogFormat, "log-format", cfg.LogFormat, "text or json")
	fs.IntVar(&cfg.PreventiveSoonDays, "soon", cfg.PreventiveSoonDays, "days before due that count as SOON")

	if err := flagx.ParseKnown(fs, args); err != nil {
		panic(err)
	}
}
