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
	Service       ServiceConfig
	DB            DBConfig
	Redis         RedisConfig
	JWT           JWTConfig
	Password      PasswordConfig
	AuthRateLimit AuthRateLimitConfig
	FeatureFlags  FeatureFlagsConfig
	Billing       BillingConfig
	Reminder      ReminderConfig
	Asaas         AsaasConfig
	WhatsApp      WhatsAppConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"AGENDAJA_APP_ENV" required:"true"`
	Port         string `envconfig:"AGENDAJA_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"AGENDAJA_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"AGENDAJA_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type ServiceConfig struct {
	Kind string `envconfig:"AGENDAJA_SERVICE_KIND" default:"api"`
}

type DBConfig struct {
	DSN    string `envconfig:"AGENDAJA_DB_DSN"`
	Driver string `envconfig:"AGENDAJA_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"AGENDAJA_DB_HOST"`
	LegacyPort     int    `envconfig:"AGENDAJA_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"AGENDAJA_DB_USER"`
	LegacyPassword string `envconfig:"AGENDAJA_DB_PASSWORD"`
	LegacyName     string `envconfig:"AGENDAJA_DB_NAME"`
	LegacySSLMode  string `envconfig:"AGENDAJA_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"AGENDAJA_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"AGENDAJA_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"AGENDAJA_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"AGENDAJA_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"AGENDAJA_REDIS_URL" required:"true"`
	Address      string        `envconfig:"AGENDAJA_REDIS_ADDR"`
	Password     string        `envconfig:"AGENDAJA_REDIS_PASSWORD"`
	DB           int           `envconfig:"AGENDAJA_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"AGENDAJA_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"AGENDAJA_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"AGENDAJA_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"AGENDAJA_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"AGENDAJA_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret            string `envconfig:"AGENDAJA_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"AGENDAJA_JWT_ISSUER" required:"true"`
	ExpirationMinutes int    `envconfig:"AGENDAJA_JWT_EXPIRATION_MINUTES" required:"true"`
}

// Expiration returns the access token lifetime.
func (j JWTConfig) Expiration() time.Duration {
	if j.ExpirationMinutes <= 0 {
		return 0
	}
	return time.Duration(j.ExpirationMinutes) * time.Minute
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"AGENDAJA_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"AGENDAJA_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"AGENDAJA_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"AGENDAJA_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"AGENDAJA_ARGON_KEY_LEN" default:"32"`
}

type AuthRateLimitConfig struct {
	LoginWindow        time.Duration `envconfig:"AGENDAJA_AUTH_RATE_LIMIT_LOGIN_WINDOW" default:"1m"`
	LoginEmailLimit    int           `envconfig:"AGENDAJA_AUTH_RATE_LIMIT_LOGIN_EMAIL_LIMIT" default:"5"`
	LoginIPLimit       int           `envconfig:"AGENDAJA_AUTH_RATE_LIMIT_LOGIN_IP_LIMIT" default:"20"`
	RegisterWindow     time.Duration `envconfig:"AGENDAJA_AUTH_RATE_LIMIT_REGISTER_WINDOW" default:"5m"`
	RegisterEmailLimit int           `envconfig:"AGENDAJA_AUTH_RATE_LIMIT_REGISTER_EMAIL_LIMIT" default:"3"`
	RegisterIPLimit    int           `envconfig:"AGENDAJA_AUTH_RATE_LIMIT_REGISTER_IP_LIMIT" default:"20"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"AGENDAJA_AUTO_MIGRATE" default:"false"`
}

type BillingConfig struct {
	// TrialWarningDays lists the days-remaining values that emit a payment
	// alert. Each value must have a matching alert type (3 and 1).
	TrialWarningDays   []int         `envconfig:"AGENDAJA_BILLING_TRIAL_WARNING_DAYS" default:"3,1"`
	ReconcileBatchSize int           `envconfig:"AGENDAJA_BILLING_RECONCILE_BATCH_SIZE" default:"250"`
	ReconcileInterval  time.Duration `envconfig:"AGENDAJA_BILLING_RECONCILE_INTERVAL" default:"24h"`
}

type ReminderConfig struct {
	PollInterval time.Duration `envconfig:"AGENDAJA_REMINDER_POLL_INTERVAL" default:"1m"`
	LockTTL      time.Duration `envconfig:"AGENDAJA_REMINDER_LOCK_TTL" default:"5m"`
	BatchSize    int           `envconfig:"AGENDAJA_REMINDER_BATCH_SIZE" default:"200"`
}

type AsaasConfig struct {
	BaseURL      string        `envconfig:"AGENDAJA_ASAAS_BASE_URL" default:"https://api.asaas.com/v3"`
	APIKey       string        `envconfig:"AGENDAJA_ASAAS_API_KEY"`
	WebhookToken string        `envconfig:"AGENDAJA_ASAAS_WEBHOOK_TOKEN"`
	Timeout      time.Duration `envconfig:"AGENDAJA_ASAAS_TIMEOUT" default:"10s"`
}

type WhatsAppConfig struct {
	BaseURL  string        `envconfig:"AGENDAJA_WHATSAPP_BASE_URL"`
	APIKey   string        `envconfig:"AGENDAJA_WHATSAPP_API_KEY"`
	Instance string        `envconfig:"AGENDAJA_WHATSAPP_INSTANCE" default:"agendaja"`
	Timeout  time.Duration `envconfig:"AGENDAJA_WHATSAPP_TIMEOUT" default:"15s"`
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
