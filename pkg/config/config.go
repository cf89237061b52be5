package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const (
	EnvPrefix = ""

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	EnvDBDSN  = "BIZTRACK_DB_DSN"
	EnvDBHost = "BIZTRACK_DB_HOST"
	EnvDBUser = "BIZTRACK_DB_USER"
	EnvDBName = "BIZTRACK_DB_NAME"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}

type Config struct {
	App          AppConfig
	DB           DBConfig
	Redis        RedisConfig
	JWT          JWTConfig
	FeatureFlags FeatureFlagsConfig
	Eventing     EventingConfig
	PubSub       PubSubConfig
	GCP          GCPConfig
	Outbox       OutboxConfig
	Cron         CronConfig
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
	Env          string `envconfig:"BIZTRACK_APP_ENV" required:"true"`
	Port         string `envconfig:"BIZTRACK_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"BIZTRACK_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"BIZTRACK_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"BIZTRACK_DB_DSN"`
	Driver string `envconfig:"BIZTRACK_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"BIZTRACK_DB_HOST"`
	LegacyPort     int    `envconfig:"BIZTRACK_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"BIZTRACK_DB_USER"`
	LegacyPassword string `envconfig:"BIZTRACK_DB_PASSWORD"`
	LegacyName     string `envconfig:"BIZTRACK_DB_NAME"`
	LegacySSLMode  string `envconfig:"BIZTRACK_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"BIZTRACK_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"BIZTRACK_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"BIZTRACK_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"BIZTRACK_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"BIZTRACK_REDIS_URL" required:"true"`
	Address      string        `envconfig:"BIZTRACK_REDIS_ADDR"`
	Password     string        `envconfig:"BIZTRACK_REDIS_PASSWORD"`
	DB           int           `envconfig:"BIZTRACK_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"BIZTRACK_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"BIZTRACK_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"BIZTRACK_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"BIZTRACK_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"BIZTRACK_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret            string `envconfig:"BIZTRACK_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"BIZTRACK_JWT_ISSUER" required:"true"`
	ExpirationMinutes int    `envconfig:"BIZTRACK_JWT_EXPIRATION_MINUTES" default:"60"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"BIZTRACK_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"BIZTRACK_AUTO_MIGRATE" default:"false"`
}

type EventingConfig struct {
	IdempotencyTTL time.Duration `envconfig:"BIZTRACK_EVENTING_IDEMPOTENCY_TTL" default:"720h"`
}

type GCPConfig struct {
	ProjectID              string `envconfig:"BIZTRACK_GCP_PROJECT_ID"`
	CredentialsJSON        string `envconfig:"BIZTRACK_GCP_CREDENTIALS_JSON"`
	ApplicationCredentials string `envconfig:"BIZTRACK_GOOGLE_APPLICATION_CREDENTIALS"`
}

type PubSubConfig struct {
	OrdersTopic string `envconfig:"BIZTRACK_PUBSUB_ORDERS_TOPIC" default:"bt-order-events"`
}

type OutboxConfig struct {
	BatchSize      int `envconfig:"BIZTRACK_OUTBOX_PUBLISH_BATCH_SIZE" default:"50"`
	PollIntervalMS int `envconfig:"BIZTRACK_OUTBOX_PUBLISH_POLL_MS" default:"500"`
	MaxAttempts    int `envconfig:"BIZTRACK_OUTBOX_MAX_ATTEMPTS" default:"10"`
}

type CronConfig struct {
	Interval            time.Duration `envconfig:"BIZTRACK_CRON_INTERVAL" default:"24h"`
	OutboxRetentionDays int           `envconfig:"BIZTRACK_CRON_OUTBOX_RETENTION_DAYS" default:"30"`
	PendingOrderTTLDays int           `envconfig:"BIZTRACK_CRON_PENDING_ORDER_TTL_DAYS" default:"10"`
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
