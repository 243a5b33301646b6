package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App           AppConfig
	DB            DBConfig
	Redis         RedisConfig
	JWT           JWTConfig
	Reset         ResetConfig
	OTP           OTPConfig
	Password      PasswordConfig
	AuthRateLimit AuthRateLimitConfig
	Mail          MailConfig
	Storage       StorageConfig
	Admin         AdminSeedConfig
	FeatureFlags  FeatureFlagsConfig
	Jobs          JobsConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	if cfg.OTP.Secret == "" {
		cfg.OTP.Secret = cfg.JWT.Secret
	}
	return &cfg, nil
}

type AppConfig struct {
	Env           string `envconfig:"BAZAAR_APP_ENV" required:"true"`
	Port          string `envconfig:"BAZAAR_APP_PORT" default:"8080"`
	PublicBaseURL string `envconfig:"BAZAAR_PUBLIC_BASE_URL" default:"http://localhost:8080"`
	LogLevel      string `envconfig:"BAZAAR_LOG_LEVEL" default:"info"`
	LogWarnStack  bool   `envconfig:"BAZAAR_LOG_WARN_STACK" default:"false"`
	LogFormat     string `envconfig:"BAZAAR_LOG_FORMAT" default:"json"`
	CORSOrigins   string `envconfig:"BAZAAR_CORS_ORIGINS" default:"*"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

// AllowedOrigins splits the comma separated CORS origin list.
func (a AppConfig) AllowedOrigins() []string {
	var out []string
	for _, origin := range strings.Split(a.CORSOrigins, ",") {
		if trimmed := strings.TrimSpace(origin); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

type DBConfig struct {
	DSN    string `envconfig:"BAZAAR_DB_DSN"`
	Driver string `envconfig:"BAZAAR_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"BAZAAR_DB_HOST"`
	LegacyPort     int    `envconfig:"BAZAAR_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"BAZAAR_DB_USER"`
	LegacyPassword string `envconfig:"BAZAAR_DB_PASSWORD"`
	LegacyName     string `envconfig:"BAZAAR_DB_NAME"`
	LegacySSLMode  string `envconfig:"BAZAAR_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"BAZAAR_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"BAZAAR_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"BAZAAR_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"BAZAAR_DB_CONN_MAX_IDLE_TIME" default:"10m"`
	SlowQuery       time.Duration `envconfig:"BAZAAR_DB_SLOW_QUERY" default:"200ms"`
}

type RedisConfig struct {
	URL          string        `envconfig:"BAZAAR_REDIS_URL"`
	Address      string        `envconfig:"BAZAAR_REDIS_ADDR"`
	Password     string        `envconfig:"BAZAAR_REDIS_PASSWORD"`
	DB           int           `envconfig:"BAZAAR_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"BAZAAR_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"BAZAAR_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"BAZAAR_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"BAZAAR_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"BAZAAR_REDIS_WRITE_TIMEOUT" default:"5s"`
}

// Enabled reports whether a redis endpoint was configured.
func (r RedisConfig) Enabled() bool {
	return r.URL != "" || r.Address != ""
}

type JWTConfig struct {
	Secret            string `envconfig:"BAZAAR_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"BAZAAR_JWT_ISSUER" default:"bazaar"`
	ExpirationMinutes int    `envconfig:"BAZAAR_JWT_EXPIRATION_MINUTES" default:"60"`
}

// TTL returns the session token lifetime.
func (j JWTConfig) TTL() time.Duration {
	return time.Duration(j.ExpirationMinutes) * time.Minute
}

// ResetConfig drives stateless password reset links. The secret must differ from JWT.Secret.
type ResetConfig struct {
	Secret      string        `envconfig:"BAZAAR_RESET_SECRET"`
	TTL         time.Duration `envconfig:"BAZAAR_RESET_TOKEN_TTL" default:"15m"`
	PasswordURL string        `envconfig:"BAZAAR_RESET_PASSWORD_URL" default:"http://localhost:3000/reset-password"`
}

type OTPConfig struct {
	ConfirmTTL time.Duration `envconfig:"BAZAAR_OTP_CONFIRM_TTL" default:"1h"`
	ResetTTL   time.Duration `envconfig:"BAZAAR_OTP_RESET_TTL" default:"5m"`
	// Secret keys the HMAC codes are stored under. Defaults to the JWT secret.
	Secret string `envconfig:"BAZAAR_OTP_SECRET"`
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"BAZAAR_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"BAZAAR_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"BAZAAR_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"BAZAAR_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"BAZAAR_ARGON_KEY_LEN" default:"32"`
}

type AuthRateLimitConfig struct {
	LoginWindow        time.Duration `envconfig:"BAZAAR_AUTH_RATE_LIMIT_LOGIN_WINDOW" default:"1m"`
	LoginEmailLimit    int           `envconfig:"BAZAAR_AUTH_RATE_LIMIT_LOGIN_EMAIL_LIMIT" default:"5"`
	LoginIPLimit       int           `envconfig:"BAZAAR_AUTH_RATE_LIMIT_LOGIN_IP_LIMIT" default:"20"`
	RegisterWindow     time.Duration `envconfig:"BAZAAR_AUTH_RATE_LIMIT_REGISTER_WINDOW" default:"5m"`
	RegisterEmailLimit int           `envconfig:"BAZAAR_AUTH_RATE_LIMIT_REGISTER_EMAIL_LIMIT" default:"3"`
	RegisterIPLimit    int           `envconfig:"BAZAAR_AUTH_RATE_LIMIT_REGISTER_IP_LIMIT" default:"20"`
	OTPWindow          time.Duration `envconfig:"BAZAAR_AUTH_RATE_LIMIT_OTP_WINDOW" default:"10m"`
	OTPEmailLimit      int           `envconfig:"BAZAAR_AUTH_RATE_LIMIT_OTP_EMAIL_LIMIT" default:"5"`
	OTPIPLimit         int           `envconfig:"BAZAAR_AUTH_RATE_LIMIT_OTP_IP_LIMIT" default:"30"`
	LocalPerSecond     float64       `envconfig:"BAZAAR_AUTH_RATE_LIMIT_LOCAL_RPS" default:"5"`
	LocalBurst         int           `envconfig:"BAZAAR_AUTH_RATE_LIMIT_LOCAL_BURST" default:"10"`
}

// MailConfig configures the SMTP sender. Mode is one of starttls, tls or plain.
type MailConfig struct {
	Host     string        `envconfig:"BAZAAR_MAIL_HOST"`
	Port     int           `envconfig:"BAZAAR_MAIL_PORT" default:"587"`
	Username string        `envconfig:"BAZAAR_MAIL_USERNAME"`
	Password string        `envconfig:"BAZAAR_MAIL_PASSWORD"`
	From     string        `envconfig:"BAZAAR_MAIL_FROM" default:"no-reply@bazaar.local"`
	Mode     string        `envconfig:"BAZAAR_MAIL_MODE" default:"starttls"`
	Timeout  time.Duration `envconfig:"BAZAAR_MAIL_TIMEOUT" default:"10s"`
}

// Enabled reports whether an SMTP host is configured.
func (m MailConfig) Enabled() bool {
	return strings.TrimSpace(m.Host) != ""
}

type StorageConfig struct {
	ImagesDir     string `envconfig:"BAZAAR_STORAGE_IMAGES_DIR" default:"images"`
	MaxUploadMB   int    `envconfig:"BAZAAR_MAX_UPLOAD_MB" default:"20"`
	MaxImageCount int    `envconfig:"BAZAAR_MAX_IMAGE_COUNT" default:"10"`
}

type AdminSeedConfig struct {
	Email    string `envconfig:"BAZAAR_ADMIN_EMAIL" default:"admin@gmail.com"`
	Password string `envconfig:"BAZAAR_ADMIN_PASSWORD" default:"admin"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"BAZAAR_AUTO_MIGRATE" default:"false"`
	SeedAdmin   bool `envconfig:"BAZAAR_SEED_ADMIN" default:"true"`
}

// JobsConfig drives the cron worker.
type JobsConfig struct {
	Interval         time.Duration `envconfig:"BAZAAR_JOBS_INTERVAL" default:"1h"`
	LockTTL          time.Duration `envconfig:"BAZAAR_JOBS_LOCK_TTL" default:"55m"`
	OrphanImageGrace time.Duration `envconfig:"BAZAAR_JOBS_ORPHAN_IMAGE_GRACE" default:"24h"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}

	missing := []string{}
	legacyValues := map[string]string{
		EnvDBHost: db.LegacyHost,
		EnvDBUser: db.LegacyUser,
		EnvDBName: db.LegacyName,
	}
	for _, env := range legacyDBEnvVars {
		if legacyValues[env] == "" {
			missing = append(missing, env)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("either %s or %s are required", EnvDBDSN, strings.Join(missing, ", "))
	}

	userInfo := url.User(db.LegacyUser)
	if db.LegacyPassword != "" {
		userInfo = url.UserPassword(db.LegacyUser, db.LegacyPassword)
	}

	u := &url.URL{
		Scheme: "postgres",
		User:   userInfo,
		Host:   fmt.Sprintf("%s:%d", db.LegacyHost, db.LegacyPort),
		Path:   db.LegacyName,
	}

	if db.LegacySSLMode != "" {
		q := u.Query()
		q.Set("sslmode", db.LegacySSLMode)
		u.RawQuery = q.Encode()
	}

	db.DSN = u.String()
	return nil
}
