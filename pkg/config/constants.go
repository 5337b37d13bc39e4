package config

const (
	EnvPrefix = "SHELFPLANNER"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	StorageDriverMemory   = "memory"
	StorageDriverSQLite   = "sqlite"
	StorageDriverPostgres = "postgres"
	StorageDriverRedis    = "redis"
)

const (
	EnvAppEnv            = "SHELFPLANNER_APP_ENV"
	EnvPort              = "SHELFPLANNER_APP_PORT"
	EnvLogLevel          = "SHELFPLANNER_LOG_LEVEL"
	EnvStorageDriver     = "SHELFPLANNER_STORAGE_DRIVER"
	EnvStorageQuotaBytes = "SHELFPLANNER_STORAGE_QUOTA_BYTES"
	EnvDBDSN             = "SHELFPLANNER_DB_DSN"
	EnvRedisURL          = "SHELFPLANNER_REDIS_URL"
	EnvRedisAddr         = "SHELFPLANNER_REDIS_ADDR"
	EnvProductsFile      = "SHELFPLANNER_PRODUCTS_FILE"
	EnvDefaultSort       = "SHELFPLANNER_DEFAULT_SORT"
)
