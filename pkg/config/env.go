package config

const (
	EnvPrefix = "STOREFRONT"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	DBDriverSQLite   = "sqlite"
	DBDriverPostgres = "postgres"

	DefaultSQLiteDSN = "file:storefront.db?cache=shared&_foreign_keys=on"
)

const (
	EnvAppEnv       = "STOREFRONT_APP_ENV"
	EnvPort         = "STOREFRONT_APP_PORT"
	EnvLogLevel     = "STOREFRONT_LOG_LEVEL"
	EnvCartBaseURL  = "STOREFRONT_CART_API_BASE_URL"
	EnvCartTimeout  = "STOREFRONT_CART_API_TIMEOUT"
	EnvCartStale    = "STOREFRONT_CART_DISCARD_STALE"
	EnvSessionTTL   = "STOREFRONT_SESSION_TTL"
	EnvDBDriver     = "STOREFRONT_DB_DRIVER"
	EnvDBDSN        = "STOREFRONT_DB_DSN"
	EnvRedisURL     = "STOREFRONT_REDIS_URL"
	EnvRedisAddr    = "STOREFRONT_REDIS_ADDR"
	EnvAutoMigrate  = "STOREFRONT_AUTO_MIGRATE"
	EnvSeedDemoData = "STOREFRONT_SEED_DEMO"
	EnvCORSOrigins  = "STOREFRONT_CORS_ORIGINS"
	EnvLoginWindow  = "STOREFRONT_LOGIN_RATE_WINDOW"
)
