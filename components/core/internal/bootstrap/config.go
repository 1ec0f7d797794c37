// Package bootstrap wires every Store adapter, domain engine, and the HTTP
// ApiSurface into one running Service, the way the teacher's own
// bootstrap package composes its components from a Config.
package bootstrap

import (
	"time"

	"golang.org/x/time/rate"

	"github.com/elder-platform/elder/common"
	"github.com/elder-platform/elder/common/mlog"
)

// Config is the top level configuration struct for elder-core, loaded from
// the process environment by common.SetConfigFromEnvVars the same way the
// teacher's own Config does. That helper only supports string/bool/int
// fields with no per-field default, so LoadConfig backfills zero values
// afterward instead of an envDefault struct tag.
type Config struct {
	EnvName  string `env:"ENV_NAME"`
	LogLevel string `env:"ELDER_LOG_LEVEL"`
	LogDev   bool   `env:"ELDER_LOG_DEV"`

	ServerAddress     string `env:"ELDER_SERVER_ADDRESS"`
	GRPCServerAddress string `env:"ELDER_GRPC_SERVER_ADDRESS"`

	DBPrimaryDSN   string `env:"ELDER_DB_PRIMARY_DSN"`
	DBReplicaDSN   string `env:"ELDER_DB_REPLICA_DSN"`
	DBPrimaryName  string `env:"ELDER_DB_PRIMARY_NAME"`
	DBReplicaName  string `env:"ELDER_DB_REPLICA_NAME"`
	MigrationsPath string `env:"ELDER_MIGRATIONS_PATH"`

	RedisDSN  string `env:"ELDER_REDIS_DSN"`
	RabbitDSN string `env:"ELDER_RABBITMQ_DSN"`

	JWKURI string `env:"ELDER_JWK_URI"`

	QuotaRatePerSecondInt int64 `env:"ELDER_QUOTA_RATE_PER_SECOND"`
	QuotaBurst            int64 `env:"ELDER_QUOTA_BURST"`

	GraphCacheSize        int64 `env:"ELDER_GRAPH_CACHE_SIZE"`
	AuthZMemoTTLSeconds   int64 `env:"ELDER_AUTHZ_MEMO_TTL_SECONDS"`
	StoreMaxRetriesInt    int64 `env:"ELDER_STORE_MAX_RETRIES"`

	ServiceName    string `env:"OTEL_RESOURCE_SERVICE_NAME"`
	ServiceVersion string `env:"OTEL_RESOURCE_SERVICE_VERSION"`
	DeploymentEnv  string `env:"OTEL_RESOURCE_DEPLOYMENT_ENVIRONMENT"`
}

// LoadConfig populates a Config from the environment via
// common.SetConfigFromEnvVars and fills every field left at its zero value
// with a development-friendly default.
func LoadConfig() *Config {
	cfg := &Config{}
	_ = common.SetConfigFromEnvVars(cfg)

	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}

	if cfg.ServerAddress == "" {
		cfg.ServerAddress = ":8080"
	}

	if cfg.GRPCServerAddress == "" {
		cfg.GRPCServerAddress = ":8081"
	}

	if cfg.DBPrimaryName == "" {
		cfg.DBPrimaryName = "elder"
	}

	if cfg.DBReplicaName == "" {
		cfg.DBReplicaName = "elder"
	}

	if cfg.DBReplicaDSN == "" {
		cfg.DBReplicaDSN = cfg.DBPrimaryDSN
	}

	if cfg.QuotaRatePerSecondInt == 0 {
		cfg.QuotaRatePerSecondInt = 50
	}

	if cfg.QuotaBurst == 0 {
		cfg.QuotaBurst = 100
	}

	if cfg.GraphCacheSize == 0 {
		cfg.GraphCacheSize = 256
	}

	if cfg.AuthZMemoTTLSeconds == 0 {
		cfg.AuthZMemoTTLSeconds = 5
	}

	if cfg.StoreMaxRetriesInt == 0 {
		cfg.StoreMaxRetriesInt = 3
	}

	if cfg.ServiceName == "" {
		cfg.ServiceName = "elder-core"
	}

	if cfg.ServiceVersion == "" {
		cfg.ServiceVersion = "dev"
	}

	if cfg.DeploymentEnv == "" {
		cfg.DeploymentEnv = "development"
	}

	return cfg
}

// QuotaRateLimit converts the configured per-second rate into a rate.Limit,
// treating a non-positive value as "quota disabled" (spec SPEC_FULL §4.7).
func (c *Config) QuotaRateLimit() rate.Limit {
	if c.QuotaRatePerSecondInt <= 0 {
		return rate.Inf
	}

	return rate.Limit(c.QuotaRatePerSecondInt)
}

// AuthZMemoTTL returns the configured AuthZ memo TTL as a time.Duration.
func (c *Config) AuthZMemoTTL() time.Duration {
	return time.Duration(c.AuthZMemoTTLSeconds) * time.Second
}

// StoreMaxRetries returns the configured deadlock-retry ceiling as an int.
func (c *Config) StoreMaxRetries() int {
	return int(c.StoreMaxRetriesInt)
}

// Options lets a caller (tests, alternate entrypoints) override pieces
// LoadConfig would otherwise build from the environment, mirroring the
// teacher's Options{Logger, ...} pattern on InitServersWithOptions.
type Options struct {
	Logger mlog.Logger
}
