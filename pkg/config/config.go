package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// EnvPrefix scopes every environment variable consumed by the application.
const EnvPrefix = "MEDCOM"

// Environment names recognized by AppConfig helpers.
const (
	AppEnvDev  = "dev"
	AppEnvProd = "production"
)

// Canonical env var names, shared with tests and deployment manifests.
const (
	EnvAppEnv             = "MEDCOM_APP_ENV"
	EnvPort               = "MEDCOM_APP_PORT"
	EnvDBDSN              = "MEDCOM_DB_DSN"
	EnvDBHost             = "MEDCOM_DB_HOST"
	EnvDBUser             = "MEDCOM_DB_USER"
	EnvDBName             = "MEDCOM_DB_NAME"
	EnvRedisURL           = "MEDCOM_REDIS_URL"
	EnvJWTSecret          = "MEDCOM_JWT_SECRET"
	EnvJWTIssuer          = "MEDCOM_JWT_ISSUER"
	EnvJWTExpMins         = "MEDCOM_JWT_EXPIRATION_MINUTES"
	EnvMonitorInterval    = "MEDCOM_MONITOR_INTERVAL_MINUTES"
	EnvSupplierAPIEnabled = "MEDCOM_SUPPLIER_API_ENABLED"
	EnvSupplierAPIBaseURL = "MEDCOM_SUPPLIER_API_BASE_URL"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}

type Config struct {
	App          AppConfig
	Service      ServiceConfig
	DB           DBConfig
	Redis        RedisConfig
	JWT          JWTConfig
	FeatureFlags FeatureFlagsConfig
	Monitor      MonitorConfig
	SupplierAPI  SupplierAPIConfig
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
	Env          string `envconfig:"MEDCOM_APP_ENV" required:"true"`
	Port         string `envconfig:"MEDCOM_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"MEDCOM_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"MEDCOM_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type ServiceConfig struct {
	Kind string `envconfig:"MEDCOM_SERVICE_KIND" default:"api"`
}

type DBConfig struct {
	DSN    string `envconfig:"MEDCOM_DB_DSN"`
	Driver string `envconfig:"MEDCOM_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"MEDCOM_DB_HOST"`
	LegacyPort     int    `envconfig:"MEDCOM_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"MEDCOM_DB_USER"`
	LegacyPassword string `envconfig:"MEDCOM_DB_PASSWORD"`
	LegacyName     string `envconfig:"MEDCOM_DB_NAME"`
	LegacySSLMode  string `envconfig:"MEDCOM_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"MEDCOM_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"MEDCOM_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"MEDCOM_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"MEDCOM_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"MEDCOM_REDIS_URL" required:"true"`
	Address      string        `envconfig:"MEDCOM_REDIS_ADDR"`
	Password     string        `envconfig:"MEDCOM_REDIS_PASSWORD"`
	DB           int           `envconfig:"MEDCOM_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"MEDCOM_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"MEDCOM_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"MEDCOM_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"MEDCOM_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"MEDCOM_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret            string `envconfig:"MEDCOM_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"MEDCOM_JWT_ISSUER" required:"true"`
	ExpirationMinutes int    `envconfig:"MEDCOM_JWT_EXPIRATION_MINUTES" required:"true"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"MEDCOM_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"MEDCOM_AUTO_MIGRATE" default:"false"`
}

// MonitorConfig drives the availability monitoring worker cadence.
type MonitorConfig struct {
	IntervalMinutes int           `envconfig:"MEDCOM_MONITOR_INTERVAL_MINUTES" default:"30"`
	LockTTL         time.Duration `envconfig:"MEDCOM_MONITOR_LOCK_TTL" default:"25m"`
	TriggerWindow   time.Duration `envconfig:"MEDCOM_MONITOR_TRIGGER_WINDOW" default:"1m"`
	TriggerLimit    int           `envconfig:"MEDCOM_MONITOR_TRIGGER_LIMIT" default:"3"`
}

// Interval returns the monitor cadence as a duration, falling back to the
// 30 minute default when misconfigured.
func (m MonitorConfig) Interval() time.Duration {
	if m.IntervalMinutes <= 0 {
		return 30 * time.Minute
	}
	return time.Duration(m.IntervalMinutes) * time.Minute
}

// SupplierAPIConfig configures the external availability integration. When
// Enabled is false the supplier client serves simulated placeholder results.
type SupplierAPIConfig struct {
	Enabled bool          `envconfig:"MEDCOM_SUPPLIER_API_ENABLED" default:"false"`
	BaseURL string        `envconfig:"MEDCOM_SUPPLIER_API_BASE_URL"`
	Timeout time.Duration `envconfig:"MEDCOM_SUPPLIER_API_TIMEOUT" default:"10s"`
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
