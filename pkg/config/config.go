package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const (
	EnvPrefix = "VOXTILL"

	AppEnvDev  = "development"
	AppEnvProd = "production"

	EnvAppEnv   = "VOXTILL_APP_ENV"
	EnvPort     = "VOXTILL_APP_PORT"
	EnvDBDSN    = "VOXTILL_DB_DSN"
	EnvDBHost   = "VOXTILL_DB_HOST"
	EnvDBUser   = "VOXTILL_DB_USER"
	EnvDBName   = "VOXTILL_DB_NAME"
	EnvRedisURL = "VOXTILL_REDIS_URL"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}

type Config struct {
	App          AppConfig
	DB           DBConfig
	Redis        RedisConfig
	Pricing      PricingConfig
	Idempotency  IdempotencyConfig
	FeatureFlags FeatureFlagsConfig
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
	Env          string `envconfig:"VOXTILL_APP_ENV" required:"true"`
	Port         string `envconfig:"VOXTILL_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"VOXTILL_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"VOXTILL_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"VOXTILL_DB_DSN"`
	Driver string `envconfig:"VOXTILL_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"VOXTILL_DB_HOST"`
	LegacyPort     int    `envconfig:"VOXTILL_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"VOXTILL_DB_USER"`
	LegacyPassword string `envconfig:"VOXTILL_DB_PASSWORD"`
	LegacyName     string `envconfig:"VOXTILL_DB_NAME"`
	LegacySSLMode  string `envconfig:"VOXTILL_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"VOXTILL_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"VOXTILL_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"VOXTILL_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"VOXTILL_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"VOXTILL_REDIS_URL" required:"true"`
	Address      string        `envconfig:"VOXTILL_REDIS_ADDR"`
	Password     string        `envconfig:"VOXTILL_REDIS_PASSWORD"`
	DB           int           `envconfig:"VOXTILL_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"VOXTILL_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"VOXTILL_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"VOXTILL_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"VOXTILL_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"VOXTILL_REDIS_WRITE_TIMEOUT" default:"5s"`
}

// PricingConfig tunes the rule resolution engine.
type PricingConfig struct {
	SnapshotTTL     time.Duration `envconfig:"VOXTILL_PRICING_SNAPSHOT_TTL" default:"30s"`
	MaxCandidates   int           `envconfig:"VOXTILL_PRICING_MAX_CANDIDATES" default:"32"`
	LineConcurrency int           `envconfig:"VOXTILL_PRICING_LINE_CONCURRENCY" default:"8"`
}

type IdempotencyConfig struct {
	TTL time.Duration `envconfig:"VOXTILL_IDEMPOTENCY_TTL" default:"24h"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"VOXTILL_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"VOXTILL_AUTO_MIGRATE" default:"false"`
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
