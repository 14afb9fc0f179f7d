package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App          AppConfig
	Service      ServiceConfig
	DB           DBConfig
	Redis        RedisConfig
	JWT          JWTConfig
	Password     PasswordConfig
	FeatureFlags FeatureFlagsConfig
	Checkout     CheckoutConfig
	Payment      PaymentConfig
	Locations    LocationsConfig
	RateLimit    RateLimitConfig
	GCP          GCPConfig
	PubSub       PubSubConfig
	Outbox       OutboxConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	if err := cfg.Payment.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"STOREFRONT_APP_ENV" required:"true"`
	Port         string `envconfig:"STOREFRONT_APP_PORT" required:"true"`
	PublicURL    string `envconfig:"STOREFRONT_APP_PUBLIC_URL" default:"http://localhost:3000"`
	LogLevel     string `envconfig:"STOREFRONT_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"STOREFRONT_LOG_WARN_STACK" default:"false"`
	LogFormat    string `envconfig:"STOREFRONT_LOG_FORMAT" default:"json"`

	CORSAllowedOrigins []string `envconfig:"STOREFRONT_CORS_ALLOWED_ORIGINS" default:"http://localhost:3000"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type ServiceConfig struct {
	Kind string `envconfig:"STOREFRONT_SERVICE_KIND" default:"api"`
}

type DBConfig struct {
	DSN string `envconfig:"STOREFRONT_DB_DSN"`

	Host     string `envconfig:"STOREFRONT_DB_HOST"`
	Port     int    `envconfig:"STOREFRONT_DB_PORT" default:"5432"`
	User     string `envconfig:"STOREFRONT_DB_USER"`
	Password string `envconfig:"STOREFRONT_DB_PASSWORD"`
	Name     string `envconfig:"STOREFRONT_DB_NAME"`
	SSLMode  string `envconfig:"STOREFRONT_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"STOREFRONT_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"STOREFRONT_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"STOREFRONT_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"STOREFRONT_DB_CONN_MAX_IDLE_TIME" default:"10m"`

	SlowQueryThreshold time.Duration `envconfig:"STOREFRONT_DB_SLOW_QUERY_THRESHOLD" default:"500ms"`
}

type RedisConfig struct {
	URL          string        `envconfig:"STOREFRONT_REDIS_URL"`
	Address      string        `envconfig:"STOREFRONT_REDIS_ADDR"`
	Password     string        `envconfig:"STOREFRONT_REDIS_PASSWORD"`
	DB           int           `envconfig:"STOREFRONT_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"STOREFRONT_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"STOREFRONT_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"STOREFRONT_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"STOREFRONT_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"STOREFRONT_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret            string `envconfig:"STOREFRONT_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"STOREFRONT_JWT_ISSUER" default:"storefront"`
	ExpirationMinutes int    `envconfig:"STOREFRONT_JWT_EXPIRATION_MINUTES" default:"43200"`
}

// TTL returns the access token lifetime.
func (j JWTConfig) TTL() time.Duration {
	if j.ExpirationMinutes <= 0 {
		return 0
	}
	return time.Duration(j.ExpirationMinutes) * time.Minute
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"STOREFRONT_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"STOREFRONT_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"STOREFRONT_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"STOREFRONT_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"STOREFRONT_ARGON_KEY_LEN" default:"32"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"STOREFRONT_AUTO_MIGRATE" default:"false"`
	// MarkPaidOnCreate keeps the legacy behaviour of recording orders as paid
	// before the gateway confirms payment.
	MarkPaidOnCreate bool `envconfig:"STOREFRONT_MARK_PAID_ON_CREATE" default:"false"`
	PublishEvents    bool `envconfig:"STOREFRONT_PUBLISH_EVENTS" default:"false"`
}

type CheckoutConfig struct {
	DefaultShippingCost int    `envconfig:"STOREFRONT_CHECKOUT_DEFAULT_SHIPPING_COST" default:"15000"`
	Currency            string `envconfig:"STOREFRONT_CHECKOUT_CURRENCY" default:"IDR"`
	OrderNumberPrefix   string `envconfig:"STOREFRONT_CHECKOUT_ORDER_NUMBER_PREFIX" default:"ORD"`
}

type PaymentConfig struct {
	ServerKey    string        `envconfig:"STOREFRONT_PAYMENT_SERVER_KEY"`
	ClientKey    string        `envconfig:"STOREFRONT_PAYMENT_CLIENT_KEY"`
	IsProduction bool          `envconfig:"STOREFRONT_PAYMENT_IS_PRODUCTION" default:"false"`
	SnapBaseURL  string        `envconfig:"STOREFRONT_PAYMENT_SNAP_BASE_URL"`
	APIBaseURL   string        `envconfig:"STOREFRONT_PAYMENT_API_BASE_URL"`
	Timeout      time.Duration `envconfig:"STOREFRONT_PAYMENT_TIMEOUT" default:"15s"`
	FinishPath   string        `envconfig:"STOREFRONT_PAYMENT_FINISH_PATH" default:"/user/orders"`
}

func (p PaymentConfig) validate() error {
	if p.IsProduction && strings.TrimSpace(p.ServerKey) == "" {
		return fmt.Errorf("%s is required in production payment mode", EnvPaymentServerKey)
	}
	return nil
}

type LocationsConfig struct {
	BaseURL  string        `envconfig:"STOREFRONT_LOCATIONS_BASE_URL" default:"https://wilayah.id/api"`
	CacheTTL time.Duration `envconfig:"STOREFRONT_LOCATIONS_CACHE_TTL" default:"168h"`
	Timeout  time.Duration `envconfig:"STOREFRONT_LOCATIONS_TIMEOUT" default:"10s"`
}

type RateLimitConfig struct {
	PaymentRetryWindow time.Duration `envconfig:"STOREFRONT_RATE_LIMIT_PAYMENT_RETRY_WINDOW" default:"1m"`
	PaymentRetryLimit  int           `envconfig:"STOREFRONT_RATE_LIMIT_PAYMENT_RETRY_LIMIT" default:"5"`

	GuestCheckoutWindow     time.Duration `envconfig:"STOREFRONT_RATE_LIMIT_GUEST_CHECKOUT_WINDOW" default:"10m"`
	GuestCheckoutIPLimit    int           `envconfig:"STOREFRONT_RATE_LIMIT_GUEST_CHECKOUT_IP_LIMIT" default:"20"`
	GuestCheckoutEmailLimit int           `envconfig:"STOREFRONT_RATE_LIMIT_GUEST_CHECKOUT_EMAIL_LIMIT" default:"5"`
}

type GCPConfig struct {
	ProjectID string `envconfig:"STOREFRONT_GCP_PROJECT_ID"`
}

type PubSubConfig struct {
	OrdersTopic          string `envconfig:"STOREFRONT_PUBSUB_ORDERS_TOPIC" default:"storefront-order-events"`
	OrdersSubscription   string `envconfig:"STOREFRONT_PUBSUB_ORDERS_SUBSCRIPTION"`
	PaymentsTopic        string `envconfig:"STOREFRONT_PUBSUB_PAYMENTS_TOPIC" default:"storefront-payment-events"`
	PaymentsSubscription string `envconfig:"STOREFRONT_PUBSUB_PAYMENTS_SUBSCRIPTION"`
}

type OutboxConfig struct {
	BatchSize      int    `envconfig:"STOREFRONT_OUTBOX_PUBLISH_BATCH_SIZE" default:"50"`
	PollIntervalMS int    `envconfig:"STOREFRONT_OUTBOX_PUBLISH_POLL_MS" default:"500"`
	MaxAttempts    int    `envconfig:"STOREFRONT_OUTBOX_MAX_ATTEMPTS" default:"10"`
	MetricsAddr    string `envconfig:"STOREFRONT_OUTBOX_METRICS_ADDR" default:":9091"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}

	missing := []string{}
	values := map[string]string{
		EnvDBHost: db.Host,
		EnvDBUser: db.User,
		EnvDBName: db.Name,
	}
	for _, env := range dbPartEnvVars {
		if values[env] == "" {
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
