package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App          AppConfig
	Storage      StorageConfig
	DB           DBConfig
	Redis        RedisConfig
	Catalog      CatalogConfig
	FeatureFlags FeatureFlagsConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.Storage.validate(); err != nil {
		return nil, err
	}
	if cfg.Storage.Driver == StorageDriverRedis && cfg.Redis.URL == "" && cfg.Redis.Address == "" {
		return nil, fmt.Errorf("either %s or %s is required when %s=%s", EnvRedisURL, EnvRedisAddr, EnvStorageDriver, StorageDriverRedis)
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string   `envconfig:"SHELFPLANNER_APP_ENV" required:"true"`
	Port         string   `envconfig:"SHELFPLANNER_APP_PORT" default:"8080"`
	LogLevel     string   `envconfig:"SHELFPLANNER_LOG_LEVEL" default:"info"`
	LogWarnStack bool     `envconfig:"SHELFPLANNER_LOG_WARN_STACK" default:"false"`
	CORSOrigins  []string `envconfig:"SHELFPLANNER_CORS_ORIGINS" default:"http://localhost:3000"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

// StorageConfig selects the durable key/value backend behind the catalog stores.
type StorageConfig struct {
	Driver     string `envconfig:"SHELFPLANNER_STORAGE_DRIVER" default:"sqlite"`
	QuotaBytes int64  `envconfig:"SHELFPLANNER_STORAGE_QUOTA_BYTES" default:"5242880"`
	// Timeout bounds each sql read or write.
	Timeout time.Duration `envconfig:"SHELFPLANNER_STORAGE_TIMEOUT" default:"2s"`
}

func (s *StorageConfig) validate() error {
	s.Driver = strings.ToLower(strings.TrimSpace(s.Driver))
	switch s.Driver {
	case StorageDriverMemory, StorageDriverSQLite, StorageDriverPostgres, StorageDriverRedis:
	default:
		return fmt.Errorf("unsupported %s %q", EnvStorageDriver, s.Driver)
	}
	if s.QuotaBytes < 0 {
		return fmt.Errorf("%s must not be negative", EnvStorageQuotaBytes)
	}
	return nil
}

type DBConfig struct {
	DSN string `envconfig:"SHELFPLANNER_DB_DSN" default:"file:shelfplanner.db?cache=shared"`

	MaxOpenConns    int           `envconfig:"SHELFPLANNER_DB_MAX_OPEN_CONNS" default:"4"`
	MaxIdleConns    int           `envconfig:"SHELFPLANNER_DB_MAX_IDLE_CONNS" default:"2"`
	ConnMaxLifetime time.Duration `envconfig:"SHELFPLANNER_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"SHELFPLANNER_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"SHELFPLANNER_REDIS_URL"`
	Address      string        `envconfig:"SHELFPLANNER_REDIS_ADDR"`
	Password     string        `envconfig:"SHELFPLANNER_REDIS_PASSWORD"`
	DB           int           `envconfig:"SHELFPLANNER_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"SHELFPLANNER_REDIS_POOL_SIZE" default:"4"`
	MinIdleConns int           `envconfig:"SHELFPLANNER_REDIS_MIN_IDLE_CONNS" default:"1"`
	DialTimeout  time.Duration `envconfig:"SHELFPLANNER_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"SHELFPLANNER_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"SHELFPLANNER_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type CatalogConfig struct {
	ProductsFile    string `envconfig:"SHELFPLANNER_PRODUCTS_FILE"`
	DefaultSort     string `envconfig:"SHELFPLANNER_DEFAULT_SORT" default:"name"`
	CollationLocale string `envconfig:"SHELFPLANNER_COLLATION_LOCALE" default:"fr-CA"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"SHELFPLANNER_AUTO_MIGRATE" default:"true"`
}
