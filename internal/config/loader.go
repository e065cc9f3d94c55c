package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// Load reads a TOML configuration file at path, merges it on top of the
// built-in defaults, applies SIMTRADER_* environment variable overrides, and
// returns the final Config. The returned Config has NOT been validated; the
// caller should invoke Config.Validate() after Load.
func Load(path string) (*Config, error) {
	cfg := Defaults()

	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return nil, err
	}

	// Load .env file if present (silently ignore if missing).
	_ = godotenv.Load()

	applyEnvOverrides(&cfg)

	return &cfg, nil
}

// applyEnvOverrides reads well-known SIMTRADER_* environment variables and
// overwrites the corresponding Config fields when a variable is set (i.e. not
// empty). This lets operators inject secrets at deploy time without touching
// the TOML file.
func applyEnvOverrides(cfg *Config) {
	// ── Trader ──
	setStr(&cfg.Trader.Name, "SIMTRADER_TRADER_NAME")
	setStr(&cfg.Trader.Mode, "SIMTRADER_TRADER_MODE")
	setBool(&cfg.Trader.IsStock, "SIMTRADER_TRADER_IS_STOCK")
	setBool(&cfg.Trader.IsFutures, "SIMTRADER_TRADER_IS_FUTURES")
	setFloat64(&cfg.Trader.InitBalance, "SIMTRADER_TRADER_INIT_BALANCE")
	setFloat64(&cfg.Trader.FeeRate, "SIMTRADER_TRADER_FEE_RATE")
	setInt(&cfg.Trader.MaxPos, "SIMTRADER_TRADER_MAX_POS")
	setStr(&cfg.Trader.SnapshotKey, "SIMTRADER_TRADER_SNAPSHOT_KEY")

	// ── Redis ──
	setStr(&cfg.Redis.Addr, "SIMTRADER_REDIS_ADDR")
	setStr(&cfg.Redis.Password, "SIMTRADER_REDIS_PASSWORD")
	setInt(&cfg.Redis.DB, "SIMTRADER_REDIS_DB")
	setInt(&cfg.Redis.PoolSize, "SIMTRADER_REDIS_POOL_SIZE")
	setInt(&cfg.Redis.MaxRetries, "SIMTRADER_REDIS_MAX_RETRIES")
	setBool(&cfg.Redis.TLSEnabled, "SIMTRADER_REDIS_TLS_ENABLED")

	// ── Postgres ──
	setBool(&cfg.Postgres.Enabled, "SIMTRADER_POSTGRES_ENABLED")
	setStr(&cfg.Postgres.DSN, "SIMTRADER_POSTGRES_DSN")
	setStr(&cfg.Postgres.Host, "SIMTRADER_POSTGRES_HOST")
	setInt(&cfg.Postgres.Port, "SIMTRADER_POSTGRES_PORT")
	setStr(&cfg.Postgres.Database, "SIMTRADER_POSTGRES_DATABASE")
	setStr(&cfg.Postgres.User, "SIMTRADER_POSTGRES_USER")
	setStr(&cfg.Postgres.Password, "SIMTRADER_POSTGRES_PASSWORD")
	setStr(&cfg.Postgres.SSLMode, "SIMTRADER_POSTGRES_SSL_MODE")
	setInt(&cfg.Postgres.PoolMaxConns, "SIMTRADER_POSTGRES_POOL_MAX_CONNS")
	setInt(&cfg.Postgres.PoolMinConns, "SIMTRADER_POSTGRES_POOL_MIN_CONNS")
	setBool(&cfg.Postgres.RunMigrations, "SIMTRADER_POSTGRES_RUN_MIGRATIONS")

	// ── S3 ──
	setBool(&cfg.S3.Enabled, "SIMTRADER_S3_ENABLED")
	setStr(&cfg.S3.Endpoint, "SIMTRADER_S3_ENDPOINT")
	setStr(&cfg.S3.Region, "SIMTRADER_S3_REGION")
	setStr(&cfg.S3.Bucket, "SIMTRADER_S3_BUCKET")
	setStr(&cfg.S3.AccessKey, "SIMTRADER_S3_ACCESS_KEY")
	setStr(&cfg.S3.SecretKey, "SIMTRADER_S3_SECRET_KEY")
	setBool(&cfg.S3.UseSSL, "SIMTRADER_S3_USE_SSL")
	setBool(&cfg.S3.ForcePathStyle, "SIMTRADER_S3_FORCE_PATH_STYLE")
	setStr(&cfg.S3.Prefix, "SIMTRADER_S3_PREFIX")

	// ── Export ──
	setStr(&cfg.Export.Market, "SIMTRADER_EXPORT_MARKET")
	setStr(&cfg.Export.MarkLabel, "SIMTRADER_EXPORT_MARK_LABEL")
	setStringSlice(&cfg.Export.CloseUIDs, "SIMTRADER_EXPORT_CLOSE_UIDS")

	// ── Top-level ──
	setStr(&cfg.Mode, "SIMTRADER_MODE")
	setStr(&cfg.LogLevel, "SIMTRADER_LOG_LEVEL")
}

// ---------------------------------------------------------------------------
// Typed env-var helpers. Each only mutates the target when the environment
// variable is present and non-empty.
// ---------------------------------------------------------------------------

func setStr(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setFloat64(dst *float64, key string) {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			*dst = f
		}
	}
}

func setBool(dst *bool, key string) {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}

func setStringSlice(dst *[]string, key string) {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		cleaned := make([]string, 0, len(parts))
		for _, p := range parts {
			p = strings.TrimSpace(p)
			if p != "" {
				cleaned = append(cleaned, p)
			}
		}
		if len(cleaned) > 0 {
			*dst = cleaned
		}
	}
}
