package config

const (
	EnvPrefix = "BAZAAR"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	EnvAppEnv        = "BAZAAR_APP_ENV"
	EnvPort          = "BAZAAR_APP_PORT"
	EnvPublicBaseURL = "BAZAAR_PUBLIC_BASE_URL"

	EnvDBDSN      = "BAZAAR_DB_DSN"
	EnvDBDriver   = "BAZAAR_DB_DRIVER"
	EnvDBHost     = "BAZAAR_DB_HOST"
	EnvDBPort     = "BAZAAR_DB_PORT"
	EnvDBUser     = "BAZAAR_DB_USER"
	EnvDBPassword = "BAZAAR_DB_PASSWORD"
	EnvDBName     = "BAZAAR_DB_NAME"

	EnvRedisURL = "BAZAAR_REDIS_URL"

	EnvJWTSecret   = "BAZAAR_JWT_SECRET"
	EnvJWTIssuer   = "BAZAAR_JWT_ISSUER"
	EnvJWTExpMins  = "BAZAAR_JWT_EXPIRATION_MINUTES"
	EnvResetSecret = "BAZAAR_RESET_SECRET"
	EnvResetURL    = "BAZAAR_RESET_PASSWORD_URL"
	EnvOTPSecret   = "BAZAAR_OTP_SECRET"

	EnvMailHost = "BAZAAR_MAIL_HOST"
	EnvMailFrom = "BAZAAR_MAIL_FROM"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
