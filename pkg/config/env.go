package config

const EnvPrefix = "CAFE"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

const (
	HandoffDriverRedis  = "redis"
	HandoffDriverSQL    = "sql"
	HandoffDriverMemory = "memory"
)

const (
	DBDriverPostgres = "postgres"
	DBDriverSQLite   = "sqlite"
)

const (
	EnvAppEnv        = "CAFE_APP_ENV"
	EnvPort          = "CAFE_APP_PORT"
	EnvPublicURL     = "CAFE_PUBLIC_URL"
	EnvBackendURL    = "CAFE_BACKEND_URL"
	EnvRedisURL      = "CAFE_REDIS_URL"
	EnvHandoffDriver = "CAFE_HANDOFF_DRIVER"
	EnvHandoffTTL    = "CAFE_HANDOFF_TTL"
	EnvHandoffSecret = "CAFE_HANDOFF_SECRET"

	EnvHandoffScopeTTL = "CAFE_HANDOFF_SCOPE_TTL"
	EnvNaverClientID   = "CAFE_NAVERPAY_CLIENT_ID"

	EnvDBDSN    = "CAFE_DB_DSN"
	EnvDBDriver = "CAFE_DB_DRIVER"
	EnvDBHost   = "CAFE_DB_HOST"
	EnvDBUser   = "CAFE_DB_USER"
	EnvDBName   = "CAFE_DB_NAME"
)

var dbPartEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
