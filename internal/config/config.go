// Package config defines the top-level configuration for the simtrader
// backtest tooling and provides validation helpers.
package config

import (
	"fmt"
	"strings"
	"time"
)

// Config is the root configuration structure. Fields are populated from a TOML
// file and then optionally overridden by SIMTRADER_* environment variables.
type Config struct {
	Trader   TraderConfig   `toml:"trader"`
	Redis    RedisConfig    `toml:"redis"`
	Postgres PostgresConfig `toml:"postgres"`
	S3       S3Config       `toml:"s3"`
	Export   ExportConfig   `toml:"export"`
	Mode     string         `toml:"mode"`
	LogLevel string         `toml:"log_level"`
}

// TraderConfig holds the engine parameters of one backtest run.
type TraderConfig struct {
	Name        string  `toml:"name"`
	Mode        string  `toml:"mode"` // signal | trade | real
	IsStock     bool    `toml:"is_stock"`
	IsFutures   bool    `toml:"is_futures"`
	InitBalance float64 `toml:"init_balance"`
	FeeRate     float64 `toml:"fee_rate"`
	MaxPos      int     `toml:"max_pos"`
	// SnapshotKey is the blob-store key the run state is saved under and
	// restored from.
	SnapshotKey string `toml:"snapshot_key"`
}

// RedisConfig holds Redis connection parameters for the snapshot store.
type RedisConfig struct {
	Addr       string `toml:"addr"`
	Password   string `toml:"password"`
	DB         int    `toml:"db"`
	PoolSize   int    `toml:"pool_size"`
	MaxRetries int    `toml:"max_retries"`
	TLSEnabled bool   `toml:"tls_enabled"`
}

// PostgresConfig holds PostgreSQL connection parameters for the mark store.
type PostgresConfig struct {
	Enabled       bool   `toml:"enabled"`
	DSN           string `toml:"dsn"`
	Host          string `toml:"host"`
	Port          int    `toml:"port"`
	Database      string `toml:"database"`
	User          string `toml:"user"`
	Password      string `toml:"password"`
	SSLMode       string `toml:"ssl_mode"`
	PoolMaxConns  int    `toml:"pool_max_conns"`
	PoolMinConns  int    `toml:"pool_min_conns"`
	RunMigrations bool   `toml:"run_migrations"`
}

// S3Config holds S3-compatible object storage parameters for result archives.
type S3Config struct {
	Enabled        bool   `toml:"enabled"`
	Endpoint       string `toml:"endpoint"`
	Region         string `toml:"region"`
	Bucket         string `toml:"bucket"`
	AccessKey      string `toml:"access_key"`
	SecretKey      string `toml:"secret_key"`
	UseSSL         bool   `toml:"use_ssl"`
	ForcePathStyle bool   `toml:"force_path_style"`
	// Prefix is prepended to every archived object key.
	Prefix string `toml:"prefix"`
}

// ExportConfig holds chart-annotation export parameters.
type ExportConfig struct {
	Market    string   `toml:"market"`
	MarkLabel string   `toml:"mark_label"`
	CloseUIDs []string `toml:"close_uids"`
	StartTime datetime `toml:"start_time"`
}

// datetime is a wrapper around time.Time that supports TOML string decoding
// of "2006-01-02 15:04:05" timestamps.
type datetime struct {
	time.Time
}

// UnmarshalText implements encoding.TextUnmarshaler so the TOML decoder can
// parse timestamps; an empty string yields the zero time.
func (d *datetime) UnmarshalText(text []byte) error {
	s := strings.TrimSpace(string(text))
	if s == "" {
		d.Time = time.Time{}
		return nil
	}
	t, err := time.Parse("2006-01-02 15:04:05", s)
	if err != nil {
		return err
	}
	d.Time = t
	return nil
}

// MarshalText implements encoding.TextMarshaler for round-trip encoding.
func (d datetime) MarshalText() ([]byte, error) {
	if d.Time.IsZero() {
		return []byte(""), nil
	}
	return []byte(d.Time.Format("2006-01-02 15:04:05")), nil
}

// Defaults returns a Config populated with reasonable default values.
func Defaults() Config {
	return Config{
		Trader: TraderConfig{
			Name:        "backtest",
			Mode:        "trade",
			IsStock:     true,
			IsFutures:   false,
			InitBalance: 100000,
			FeeRate:     0.0005,
			MaxPos:      10,
			SnapshotKey: "simtrader:backtest",
		},
		Redis: RedisConfig{
			Addr:       "localhost:6379",
			DB:         0,
			PoolSize:   20,
			MaxRetries: 3,
			TLSEnabled: false,
		},
		Postgres: PostgresConfig{
			Enabled:       false,
			Host:          "localhost",
			Port:          5432,
			Database:      "simtrader",
			User:          "postgres",
			SSLMode:       "disable",
			PoolMaxConns:  10,
			PoolMinConns:  2,
			RunMigrations: true,
		},
		S3: S3Config{
			Enabled:        false,
			Endpoint:       "http://localhost:9000",
			Region:         "us-east-1",
			Bucket:         "simtrader-results",
			UseSSL:         false,
			ForcePathStyle: true,
			Prefix:         "backtests",
		},
		Export: ExportConfig{
			Market:    "a",
			MarkLabel: "backtest",
		},
		Mode:     "stats",
		LogLevel: "info",
	}
}

// validModes enumerates the accepted values for Config.Mode.
var validModes = map[string]bool{
	"stats":  true,
	"export": true,
}

// validTraderModes enumerates the accepted values for TraderConfig.Mode.
var validTraderModes = map[string]bool{
	"signal": true,
	"trade":  true,
	"real":   true,
}

// validLogLevels enumerates the accepted values for Config.LogLevel.
var validLogLevels = map[string]bool{
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

// Validate checks Config for obviously invalid or missing values and returns a
// combined error describing every problem found.
func (c *Config) Validate() error {
	var errs []string

	if !validModes[strings.ToLower(c.Mode)] {
		errs = append(errs, fmt.Sprintf("unknown mode %q (valid: stats, export)", c.Mode))
	}
	if !validLogLevels[strings.ToLower(c.LogLevel)] {
		errs = append(errs, fmt.Sprintf("unknown log_level %q (valid: debug, info, warn, error)", c.LogLevel))
	}

	// Trader
	if c.Trader.Name == "" {
		errs = append(errs, "trader: name must not be empty")
	}
	if !validTraderModes[strings.ToLower(c.Trader.Mode)] {
		errs = append(errs, fmt.Sprintf("trader: unknown mode %q (valid: signal, trade, real)", c.Trader.Mode))
	}
	if c.Trader.InitBalance < 0 {
		errs = append(errs, "trader: init_balance must be >= 0")
	}
	if c.Trader.FeeRate < 0 || c.Trader.FeeRate >= 1 {
		errs = append(errs, fmt.Sprintf("trader: fee_rate must be in [0,1), got %v", c.Trader.FeeRate))
	}
	if c.Trader.MaxPos < 1 {
		errs = append(errs, "trader: max_pos must be >= 1")
	}
	if c.Trader.SnapshotKey == "" {
		errs = append(errs, "trader: snapshot_key must not be empty")
	}

	// Redis
	if c.Redis.Addr == "" {
		errs = append(errs, "redis: addr must not be empty")
	}
	if c.Redis.PoolSize < 1 {
		errs = append(errs, "redis: pool_size must be >= 1")
	}

	// Postgres
	if c.Postgres.Enabled {
		if strings.TrimSpace(c.Postgres.DSN) == "" {
			if c.Postgres.Host == "" {
				errs = append(errs, "postgres: host must not be empty (or set postgres.dsn)")
			}
			if c.Postgres.Port <= 0 || c.Postgres.Port > 65535 {
				errs = append(errs, fmt.Sprintf("postgres: port must be 1-65535, got %d", c.Postgres.Port))
			}
			if c.Postgres.Database == "" {
				errs = append(errs, "postgres: database must not be empty")
			}
		}
		if c.Postgres.PoolMaxConns < 1 {
			errs = append(errs, "postgres: pool_max_conns must be >= 1")
		}
		if c.Postgres.PoolMinConns < 0 || c.Postgres.PoolMinConns > c.Postgres.PoolMaxConns {
			errs = append(errs, "postgres: pool_min_conns must be in [0, pool_max_conns]")
		}
	}

	// S3
	if c.S3.Enabled {
		if c.S3.Endpoint == "" {
			errs = append(errs, "s3: endpoint must not be empty")
		}
		if c.S3.Bucket == "" {
			errs = append(errs, "s3: bucket must not be empty")
		}
	}

	// Export
	if c.Mode == "export" {
		if c.Export.Market == "" {
			errs = append(errs, "export: market must not be empty")
		}
		if c.Export.MarkLabel == "" {
			errs = append(errs, "export: mark_label must not be empty")
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}
