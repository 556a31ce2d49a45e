package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App        AppConfig
	Storefront StorefrontConfig
	Backend    BackendConfig
	Redis      RedisConfig
	DB         DBConfig
	Handoff    HandoffConfig
	NaverPay   NaverPayConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.Storefront.validate(); err != nil {
		return nil, err
	}
	if err := cfg.Handoff.validate(); err != nil {
		return nil, err
	}
	if cfg.Handoff.Driver == HandoffDriverSQL {
		if err := cfg.DB.ensureDSN(); err != nil {
			return nil, err
		}
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"CAFE_APP_ENV" required:"true"`
	Port         string `envconfig:"CAFE_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"CAFE_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"CAFE_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

// StorefrontConfig describes the browser-facing URLs the saga navigates between.
type StorefrontConfig struct {
	PublicURL     string   `envconfig:"CAFE_PUBLIC_URL" required:"true"`
	MenuPath      string   `envconfig:"CAFE_MENU_PATH" default:"/menu"`
	OrdersPath    string   `envconfig:"CAFE_ORDERS_PATH" default:"/orders"`
	CheckoutPath  string   `envconfig:"CAFE_CHECKOUT_PATH" default:"/checkout"`
	SuccessPath   string   `envconfig:"CAFE_SUCCESS_PATH" default:"/payments/success"`
	CallbackPath  string   `envconfig:"CAFE_CALLBACK_PATH" default:"/payments/callback"`
	LoginPath     string   `envconfig:"CAFE_LOGIN_PATH" default:"/login"`
	CORSOrigins   []string `envconfig:"CAFE_CORS_ORIGINS" default:"http://localhost:3000"`
	SessionCookie string   `envconfig:"CAFE_SESSION_COOKIE" default:"cafe_session"`
}

// URL resolves a storefront path against the public base URL.
func (s StorefrontConfig) URL(path string) string {
	return strings.TrimRight(s.PublicURL, "/") + "/" + strings.TrimLeft(path, "/")
}

func (s StorefrontConfig) validate() error {
	u, err := url.Parse(s.PublicURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("%s must be an absolute url, got %q", EnvPublicURL, s.PublicURL)
	}
	return nil
}

type BackendConfig struct {
	BaseURL         string        `envconfig:"CAFE_BACKEND_URL" required:"true"`
	Timeout         time.Duration `envconfig:"CAFE_BACKEND_TIMEOUT" default:"8s"`
	ConfirmTimeout  time.Duration `envconfig:"CAFE_BACKEND_CONFIRM_TIMEOUT" default:"15s"`
	ReadRetries     uint64        `envconfig:"CAFE_BACKEND_READ_RETRIES" default:"2"`
	RetryBackoff    time.Duration `envconfig:"CAFE_BACKEND_RETRY_BACKOFF" default:"200ms"`
	// BreakerFailures consecutive failures open the breaker; 0 disables it.
	BreakerFailures uint32        `envconfig:"CAFE_BACKEND_BREAKER_FAILURES" default:"5"`
	BreakerCooldown time.Duration `envconfig:"CAFE_BACKEND_BREAKER_COOLDOWN" default:"30s"`
}

type RedisConfig struct {
	URL          string        `envconfig:"CAFE_REDIS_URL"`
	Address      string        `envconfig:"CAFE_REDIS_ADDR"`
	Password     string        `envconfig:"CAFE_REDIS_PASSWORD"`
	DB           int           `envconfig:"CAFE_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"CAFE_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"CAFE_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"CAFE_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"CAFE_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"CAFE_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type DBConfig struct {
	DSN    string `envconfig:"CAFE_DB_DSN"`
	Driver string `envconfig:"CAFE_DB_DRIVER" default:"postgres"`

	Host     string `envconfig:"CAFE_DB_HOST"`
	Port     int    `envconfig:"CAFE_DB_PORT" default:"5432"`
	User     string `envconfig:"CAFE_DB_USER"`
	Password string `envconfig:"CAFE_DB_PASSWORD"`
	Name     string `envconfig:"CAFE_DB_NAME"`
	SSLMode  string `envconfig:"CAFE_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"CAFE_DB_MAX_OPEN_CONNS" default:"10"`
	MaxIdleConns    int           `envconfig:"CAFE_DB_MAX_IDLE_CONNS" default:"5"`
	ConnMaxLifetime time.Duration `envconfig:"CAFE_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"CAFE_DB_CONN_MAX_IDLE_TIME" default:"10m"`

	AutoMigrate bool `envconfig:"CAFE_DB_AUTO_MIGRATE" default:"false"`
}

// HandoffConfig selects the substrate bridging the provider round trip.
type HandoffConfig struct {
	Driver       string        `envconfig:"CAFE_HANDOFF_DRIVER" default:"redis"`
	TTL          time.Duration `envconfig:"CAFE_HANDOFF_TTL" default:"30m"`
	CookieName   string        `envconfig:"CAFE_HANDOFF_COOKIE" default:"cafe_handoff"`
	CookieSecure bool          `envconfig:"CAFE_HANDOFF_COOKIE_SECURE" default:"true"`
	Secret       string        `envconfig:"CAFE_HANDOFF_SECRET" required:"true"`
	Issuer       string        `envconfig:"CAFE_HANDOFF_ISSUER" default:"cafe-storefront"`
	ScopeTTL     time.Duration `envconfig:"CAFE_HANDOFF_SCOPE_TTL" default:"168h"`
}

func (h HandoffConfig) validate() error {
	switch h.Driver {
	case HandoffDriverRedis, HandoffDriverSQL, HandoffDriverMemory:
	default:
		return fmt.Errorf("%s must be one of %s, %s, %s; got %q",
			EnvHandoffDriver, HandoffDriverRedis, HandoffDriverSQL, HandoffDriverMemory, h.Driver)
	}
	if h.TTL <= 0 {
		return fmt.Errorf("%s must be positive", EnvHandoffTTL)
	}
	if h.ScopeTTL < h.TTL {
		return fmt.Errorf("%s must not be shorter than %s", EnvHandoffScopeTTL, EnvHandoffTTL)
	}
	return nil
}

// NaverPayConfig carries the client-side SDK parameters. An empty ClientID
// leaves the SDK unavailable.
type NaverPayConfig struct {
	ClientID string `envconfig:"CAFE_NAVERPAY_CLIENT_ID"`
	ChainID  string `envconfig:"CAFE_NAVERPAY_CHAIN_ID"`
	Mode     string `envconfig:"CAFE_NAVERPAY_MODE" default:"development"`
	PayType  string `envconfig:"CAFE_NAVERPAY_PAY_TYPE" default:"normal"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}
	if db.Driver == DBDriverSQLite {
		return fmt.Errorf("%s is required for the sqlite driver", EnvDBDSN)
	}

	missing := []string{}
	parts := map[string]string{
		EnvDBHost: db.Host,
		EnvDBUser: db.User,
		EnvDBName: db.Name,
	}
	for _, env := range dbPartEnvVars {
		if parts[env] == "" {
			missing = append(missing, env)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("either %s or %s are required", EnvDBDSN, strings.Join(missing, ", "))
	}

	userInfo := url.User(db.User)
	if db.Password != "" {
		userInfo = url.UserPassword(db.User, db.Password)
	}

	u := &url.URL{
		Scheme: "postgres",
		User:   userInfo,
		Host:   fmt.Sprintf("%s:%d", db.Host, db.Port),
		Path:   db.Name,
	}
	if db.SSLMode != "" {
		q := u.Query()
		q.Set("sslmode", db.SSLMode)
		u.RawQuery = q.Encode()
	}

	db.DSN = u.String()
	return nil
}
