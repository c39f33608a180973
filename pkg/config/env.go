package config

const (
	EnvPrefix = "MUMUL"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	DefaultTimeZone = "Asia/Seoul"

	EnvAppEnv                 = "MUMUL_APP_ENV"
	EnvPort                   = "MUMUL_APP_PORT"
	EnvTimeZone               = "MUMUL_TIME_ZONE"
	EnvDBDSN                  = "MUMUL_DB_DSN"
	EnvDBHost                 = "MUMUL_DB_HOST"
	EnvDBPort                 = "MUMUL_DB_PORT"
	EnvDBUser                 = "MUMUL_DB_USER"
	EnvDBPassword             = "MUMUL_DB_PASSWORD"
	EnvDBName                 = "MUMUL_DB_NAME"
	EnvDBSSLMode              = "MUMUL_DB_SSLMODE"
	EnvUseSQLite              = "MUMUL_USE_SQLITE"
	EnvRedisURL               = "MUMUL_REDIS_URL"
	EnvJWTSecret              = "MUMUL_JWT_SECRET"
	EnvJWTIssuer              = "MUMUL_JWT_ISSUER"
	EnvJWTExpMins             = "MUMUL_JWT_EXPIRATION_MINUTES"
	EnvRefreshTokenTTLMinutes = "MUMUL_REFRESH_TOKEN_TTL_MINUTES"
	EnvStorageDriver          = "MUMUL_STORAGE_DRIVER"
	EnvPushProvider           = "MUMUL_PUSH_PROVIDER"
	EnvDialogflowLocation     = "MUMUL_DIALOGFLOW_LOCATION"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
