package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application configuration.
type Config struct {
	AppName     string
	AppVersion  string
	Environment string
	HTTPAddr    string

	AuthJWTSecret string

	StripeSecretKey     string
	StripeWebhookSecret string
	StripeAPIBase       string
	CheckoutSuccessURL  string
	CheckoutCancelURL   string
	WebhookTolerance    time.Duration

	DataAPIURL        string
	DataAPIServiceKey string
	StorageBucket     string

	RedisAddr           string
	RedisPassword       string
	EntitlementCacheTTL time.Duration

	// EntitlementFailClosed makes read-only entitlement checks degrade to
	// "not entitled" when the ledger is unreachable. The default propagates
	// the error instead.
	EntitlementFailClosed bool

	CheckoutRatePerMinute int

	OTLPEndpoint string

	DBType            string
	DBHost            string
	DBPort            string
	DBName            string
	DBUser            string
	DBPassword        string
	DBSSLMode         string
	DBMaxIdleConn     int
	DBMaxOpenConn     int
	DBConnMaxLifetime int
	DBConnMaxIdleTime int
}

// Load loads configuration from environment variables and .env file.
func Load() Config {
	_ = godotenv.Load()

	return Config{
		AppName:     getenv("APP_SERVICE", "vendo"),
		AppVersion:  getenv("APP_VERSION", "0.1.0"),
		Environment: getenv("ENVIRONMENT", "development"),
		HTTPAddr:    getenv("HTTP_ADDR", ":8080"),

		AuthJWTSecret: strings.TrimSpace(getenv("AUTH_JWT_SECRET", "")),

		StripeSecretKey:     strings.TrimSpace(getenv("STRIPE_SECRET_KEY", "")),
		StripeWebhookSecret: strings.TrimSpace(getenv("STRIPE_WEBHOOK_SECRET", "")),
		StripeAPIBase:       strings.TrimSpace(getenv("STRIPE_API_BASE", "https://api.stripe.com")),
		CheckoutSuccessURL:  strings.TrimSpace(getenv("CHECKOUT_SUCCESS_URL", "")),
		CheckoutCancelURL:   strings.TrimSpace(getenv("CHECKOUT_CANCEL_URL", "")),
		WebhookTolerance:    getenvDuration("WEBHOOK_TOLERANCE", 5*time.Minute),

		DataAPIURL:        strings.TrimRight(strings.TrimSpace(getenv("DATA_API_URL", "")), "/"),
		DataAPIServiceKey: strings.TrimSpace(getenv("DATA_API_SERVICE_KEY", "")),
		StorageBucket:     getenv("STORAGE_BUCKET", "items"),

		RedisAddr:           strings.TrimSpace(getenv("REDIS_ADDR", "")),
		RedisPassword:       getenv("REDIS_PASSWORD", ""),
		EntitlementCacheTTL: getenvDuration("ENTITLEMENT_CACHE_TTL", 10*time.Minute),

		EntitlementFailClosed: getenvBool("ENTITLEMENT_FAIL_CLOSED", false),

		CheckoutRatePerMinute: getenvInt("CHECKOUT_RATE_PER_MINUTE", 30),

		OTLPEndpoint: getenv("OTLP_ENDPOINT", "localhost:4317"),

		DBType:            getenv("DATABASE_TYPE", "postgres"),
		DBHost:            getenv("DATABASE_HOST", "localhost"),
		DBPort:            getenv("DATABASE_PORT", "5432"),
		DBName:            getenv("DATABASE_NAME", "vendo"),
		DBUser:            getenv("DATABASE_USER", "postgres"),
		DBPassword:        getenv("DATABASE_PASSWORD", ""),
		DBSSLMode:         getenv("DATABASE_SSLMODE", "disable"),
		DBMaxIdleConn:     getenvInt("DATABASE_MAX_IDLE_CONN", 5),
		DBMaxOpenConn:     getenvInt("DATABASE_MAX_OPEN_CONN", 25),
		DBConnMaxLifetime: getenvInt("DATABASE_CONN_MAX_LIFETIME", 300),
		DBConnMaxIdleTime: getenvInt("DATABASE_CONN_MAX_IDLE_TIME", 60),
	}
}

// Validate rejects configurations that would make the service unusable.
// Provider secrets are intentionally not required here: the checkout and
// webhook paths report their own typed not-configured errors so that an
// operator mistake is distinguishable from an attack at the HTTP boundary.
func (c Config) Validate() error {
	var errs []string
	if c.AuthJWTSecret == "" {
		errs = append(errs, "AUTH_JWT_SECRET is required")
	}
	if c.DataAPIURL == "" {
		errs = append(errs, "DATA_API_URL is required")
	}
	if c.DataAPIServiceKey == "" {
		errs = append(errs, "DATA_API_SERVICE_KEY is required")
	}
	if c.WebhookTolerance <= 0 {
		errs = append(errs, "WEBHOOK_TOLERANCE must be positive")
	}
	if len(errs) > 0 {
		return errors.New("invalid configuration: " + strings.Join(errs, "; "))
	}
	return nil
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvBool(key string, def bool) bool {
	value := strings.ToLower(strings.TrimSpace(os.Getenv(key)))
	if value == "" {
		return def
	}
	switch value {
	case "1", "true", "yes", "y", "on":
		return true
	case "0", "false", "no", "n", "off":
		return false
	default:
		return def
	}
}

func getenvInt(key string, def int) int {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return def
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return def
	}
	return parsed
}

func getenvDuration(key string, def time.Duration) time.Duration {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return def
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		// plain integers are treated as seconds
		if secs, convErr := strconv.Atoi(value); convErr == nil {
			return time.Duration(secs) * time.Second
		}
		return def
	}
	return parsed
}
