package config

import (
	"encoding/json"
	"os"

	"github.com/dmitrijs2005/maintlog/internal/flagx"
	"github.com/dmitrijs2005/maintlog/internal/timex"
)

// JsonConfig is the on-disk shape. Absent keys leave defaults alone.
type JsonConfig struct {
	Backend       string         `json:"backend"`
	DBPath        string         `json:"db_path"`
	SchemaVersion int            `json:"schema_version"`
	DatabaseDSN   string         `json:"database_dsn"`
	OwnerToken    string         `json:"owner_token"`
	SecretKey     string         `json:"secret_key"`
	TokenValidity timex.Duration `json:"token_validity"`

	S3Endpoint  string `json:"s3_endpoint"`
	S3Region    string `json:"s3_region"`
	S3Bucket    string `json:"s3_bucket"`
	S3AccessKey string `json:"s3_access_key"`
	S3SecretKey string `json:"s3_secret_key"`

	LogLevel  string `json:"log_level"`
	LogFormat string `json:"log_format"`

	PreventiveSoonDays *int `json:"preventive_soon_days"`
}

func parseJson(cfg *Config, args []string) {
	path := flagx.ConfigPath(args)
	if path == "" {
		return
	}

	data, err := os.ReadFile(path)
	if err != nil {
		panic(err)
	}
	var jc JsonConfig
	if err := json.Unmarshal(data, &jc); err != nil {
		panic(err)
	}
	jc.apply(cfg)
}

func (jc *JsonConfig) apply(cfg *Config) {
	setString(&cfg.Backend, jc.Backend)
	setString(&cfg.DBPath, jc.DBPath)
	if jc.SchemaVersion != 0 {
		cfg.SchemaVersion = jc.SchemaVersion
	}
	setString(&cfg.DatabaseDSN, jc.DatabaseDSN)
	setString(&cfg.OwnerToken, jc.OwnerToken)
	setString(&cfg.SecretKey, jc.SecretKey)
	if jc.TokenValidity.Duration != 0 {
		cfg.TokenValidity = jc.TokenValidity.Duration
	}

	setString(&cfg.S3.Endpoint, jc.S3Endpoint)
	setString(&cfg.S3.Region, jc.S3Region)
	setString(&cfg.S3.Bucket, jc.S3Bucket)
	setString(&cfg.S3.AccessKey, jc.S3AccessKey)
	setString(&cfg.S3.SecretKey, jc.S3SecretKey)

	setString(&cfg.LogLevel, jc.LogLevel)
	setString(&cfg.LogFormat, jc.LogFormat)
	if jc.PreventiveSoonDays != nil {
		cfg.PreventiveSoonDays = *jc.PreventiveSoonDays
	}
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}
