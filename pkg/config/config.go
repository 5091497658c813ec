package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/shopspring/decimal"
)

const (
	EnvPrefix = ""

	AppEnvDev  = "development"
	AppEnvProd = "production"

	EnvDBDSN  = "KAPINDA_DB_DSN"
	EnvDBHost = "KAPINDA_DB_HOST"
	EnvDBUser = "KAPINDA_DB_USER"
	EnvDBName = "KAPINDA_DB_NAME"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}

type Config struct {
	App          AppConfig
	DB           DBConfig
	Redis        RedisConfig
	JWT          JWTConfig
	Delivery     DeliveryConfig
	Cart         CartConfig
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
	if err := cfg.Delivery.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"KAPINDA_APP_ENV" required:"true"`
	Port         string `envconfig:"KAPINDA_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"KAPINDA_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"KAPINDA_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"KAPINDA_DB_DSN"`
	Driver string `envconfig:"KAPINDA_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"KAPINDA_DB_HOST"`
	LegacyPort     int    `envconfig:"KAPINDA_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"KAPINDA_DB_USER"`
	LegacyPassword string `envconfig:"KAPINDA_DB_PASSWORD"`
	LegacyName     string `envconfig:"KAPINDA_DB_NAME"`
	LegacySSLMode  string `envconfig:"KAPINDA_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"KAPINDA_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"KAPINDA_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"KAPINDA_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"KAPINDA_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"KAPINDA_REDIS_URL" required:"true"`
	Address      string        `envconfig:"KAPINDA_REDIS_ADDR"`
	Password     string        `envconfig:"KAPINDA_REDIS_PASSWORD"`
	DB           int           `envconfig:"KAPINDA_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"KAPINDA_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"KAPINDA_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"KAPINDA_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"KAPINDA_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"KAPINDA_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret            string `envconfig:"KAPINDA_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"KAPINDA_JWT_ISSUER" required:"true"`
	ExpirationMinutes int    `envconfig:"KAPINDA_JWT_EXPIRATION_MINUTES" default:"60"`
}

// DeliveryConfig carries the pricing knobs; defaults mirror the marketplace rates.
type DeliveryConfig struct {
	FreeThreshold    string `envconfig:"KAPINDA_DELIVERY_FREE_THRESHOLD" default:"150"`
	StandardFee      string `envconfig:"KAPINDA_DELIVERY_STANDARD_FEE" default:"15"`
	DefaultWindowMin int    `envconfig:"KAPINDA_DELIVERY_WINDOW_MIN" default:"30"`
	DefaultWindowMax int    `envconfig:"KAPINDA_DELIVERY_WINDOW_MAX" default:"60"`
}

func (d DeliveryConfig) validate() error {
	if _, err := decimal.NewFromString(d.FreeThreshold); err != nil {
		return fmt.Errorf("invalid free delivery threshold %q: %w", d.FreeThreshold, err)
	}
	if _, err := decimal.NewFromString(d.StandardFee); err != nil {
		return fmt.Errorf("invalid standard delivery fee %q: %w", d.StandardFee, err)
	}
	if d.DefaultWindowMin < 0 || d.DefaultWindowMax < d.DefaultWindowMin {
		return fmt.Errorf("invalid delivery window %d-%d", d.DefaultWindowMin, d.DefaultWindowMax)
	}
	return nil
}

// FreeThresholdDecimal returns the parsed threshold; validate() ran at load.
func (d DeliveryConfig) FreeThresholdDecimal() decimal.Decimal {
	v, _ := decimal.NewFromString(d.FreeThreshold)
	return v
}

// StandardFeeDecimal returns the parsed flat fee; validate() ran at load.
func (d DeliveryConfig) StandardFeeDecimal() decimal.Decimal {
	v, _ := decimal.NewFromString(d.StandardFee)
	return v
}

type CartConfig struct {
	SnapshotTTL time.Duration `envconfig:"KAPINDA_CART_SNAPSHOT_TTL" default:"24h"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"KAPINDA_AUTO_MIGRATE" default:"false"`
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
