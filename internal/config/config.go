// Package config loads runtime settings from the environment (and an optional config file) with viper.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Document store drivers.
const (
	DriverMemory    = "memory"
	DriverSQLite    = "sqlite"
	DriverPostgres  = "postgres"
	DriverFirestore = "firestore"
)

// Auth providers.
const (
	ProviderJWT      = "jwt"
	ProviderFirebase = "firebase"
)

// Config holds every knob the gateway reads at startup.
type Config struct {
	AppPort     string
	APIPrefix   string
	BodyLimit   int
	CORSOrigins string

	AuthProvider     string
	JWTSecret        string
	AuthRequireAdmin bool
	AuthTimeout      time.Duration
	DevTokenHash     string

	FirebaseProjectID         string
	FirebaseCredentialsJSON   string
	FirebaseCredentialsBase64 string

	DocstoreDriver string
	DatabaseDSN    string

	RabbitMQURL string

	OrderStatuses        []string
	RecomputeOrderTotal  bool
	OrderDeliveryFee     float64
	ProductsDefaultLimit int
	ProductsMaxLimit     int
	OrdersDefaultLimit   int
	OrdersMaxLimit       int

	UploadMaxImages     int
	UploadMaxImageBytes int
}

// DefaultDeliveryFee is the flat delivery charge the checkout adds to the item subtotal.
const DefaultDeliveryFee = 120.0

// DefaultOrderStatuses is the status enumeration used when ORDER_STATUSES is not set.
var DefaultOrderStatuses = []string{"pending", "processing", "paid", "shipped", "completed", "cancelled"}

// Load reads configuration from environment variables. When CONFIG_FILE is set the file is read
// first and the environment still wins.
func Load() (Config, error) {
	return LoadFrom(viper.New())
}

// LoadFrom reads configuration using the given viper instance.
func LoadFrom(v *viper.Viper) (Config, error) {
	v.SetDefault("APP_PORT", ":8080")
	v.SetDefault("API_PREFIX", "/api")
	v.SetDefault("BODY_LIMIT", 32*1024*1024)
	v.SetDefault("CORS_ALLOW_ORIGINS", "*")
	v.SetDefault("AUTH_PROVIDER", ProviderJWT)
	v.SetDefault("JWT_SECRET", "")
	v.SetDefault("AUTH_REQUIRE_ADMIN", true)
	v.SetDefault("AUTH_TIMEOUT", "5s")
	v.SetDefault("AUTH_DEV_TOKEN_HASH", "")
	v.SetDefault("FIREBASE_PROJECT_ID", "")
	v.SetDefault("FIREBASE_CREDENTIALS_JSON", "")
	v.SetDefault("FIREBASE_CREDENTIALS_JSON_BASE64", "")
	v.SetDefault("DOCSTORE_DRIVER", DriverMemory)
	v.SetDefault("DATABASE_DSN", "")
	v.SetDefault("RABBITMQ_URL", "")
	v.SetDefault("ORDER_STATUSES", strings.Join(DefaultOrderStatuses, ","))
	v.SetDefault("ORDERS_RECOMPUTE_TOTAL", true)
	v.SetDefault("ORDER_DELIVERY_FEE", DefaultDeliveryFee)
	v.SetDefault("PRODUCTS_DEFAULT_LIMIT", 20)
	v.SetDefault("PRODUCTS_MAX_LIMIT", 100)
	v.SetDefault("ORDERS_DEFAULT_LIMIT", 50)
	v.SetDefault("ORDERS_MAX_LIMIT", 100)
	v.SetDefault("UPLOAD_MAX_IMAGES", 6)
	v.SetDefault("UPLOAD_MAX_IMAGE_BYTES", 5*1024*1024)
	v.AutomaticEnv()

	if file := v.GetString("CONFIG_FILE"); file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("failed to read config file %s: %w", file, err)
		}
	}

	cfg := Config{
		AppPort:     v.GetString("APP_PORT"),
		APIPrefix:   "/" + strings.Trim(v.GetString("API_PREFIX"), "/"),
		BodyLimit:   v.GetInt("BODY_LIMIT"),
		CORSOrigins: v.GetString("CORS_ALLOW_ORIGINS"),

		AuthProvider:     strings.ToLower(v.GetString("AUTH_PROVIDER")),
		JWTSecret:        v.GetString("JWT_SECRET"),
		AuthRequireAdmin: v.GetBool("AUTH_REQUIRE_ADMIN"),
		AuthTimeout:      v.GetDuration("AUTH_TIMEOUT"),
		DevTokenHash:     v.GetString("AUTH_DEV_TOKEN_HASH"),

		FirebaseProjectID:         v.GetString("FIREBASE_PROJECT_ID"),
		FirebaseCredentialsJSON:   v.GetString("FIREBASE_CREDENTIALS_JSON"),
		FirebaseCredentialsBase64: v.GetString("FIREBASE_CREDENTIALS_JSON_BASE64"),

		DocstoreDriver: strings.ToLower(v.GetString("DOCSTORE_DRIVER")),
		DatabaseDSN:    v.GetString("DATABASE_DSN"),

		RabbitMQURL: v.GetString("RABBITMQ_URL"),

		OrderStatuses:        splitList(v.GetString("ORDER_STATUSES")),
		RecomputeOrderTotal:  v.GetBool("ORDERS_RECOMPUTE_TOTAL"),
		OrderDeliveryFee:     v.GetFloat64("ORDER_DELIVERY_FEE"),
		ProductsDefaultLimit: v.GetInt("PRODUCTS_DEFAULT_LIMIT"),
		ProductsMaxLimit:     v.GetInt("PRODUCTS_MAX_LIMIT"),
		OrdersDefaultLimit:   v.GetInt("ORDERS_DEFAULT_LIMIT"),
		OrdersMaxLimit:       v.GetInt("ORDERS_MAX_LIMIT"),

		UploadMaxImages:     v.GetInt("UPLOAD_MAX_IMAGES"),
		UploadMaxImageBytes: v.GetInt("UPLOAD_MAX_IMAGE_BYTES"),
	}
	if cfg.APIPrefix == "/" {
		cfg.APIPrefix = ""
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate rejects combinations the gateway cannot start with.
func (c Config) Validate() error {
	switch c.AuthProvider {
	case ProviderJWT:
		if c.JWTSecret == "" {
			return fmt.Errorf("JWT_SECRET is required when AUTH_PROVIDER=%s", ProviderJWT)
		}
	case ProviderFirebase:
		if c.FirebaseProjectID == "" {
			return fmt.Errorf("FIREBASE_PROJECT_ID is required when AUTH_PROVIDER=%s", ProviderFirebase)
		}
	default:
		return fmt.Errorf("unknown AUTH_PROVIDER %q", c.AuthProvider)
	}

	switch c.DocstoreDriver {
	case DriverMemory:
	case DriverSQLite, DriverPostgres:
		if c.DatabaseDSN == "" {
			return fmt.Errorf("DATABASE_DSN is required when DOCSTORE_DRIVER=%s", c.DocstoreDriver)
		}
	case DriverFirestore:
		if c.FirebaseProjectID == "" {
			return fmt.Errorf("FIREBASE_PROJECT_ID is required when DOCSTORE_DRIVER=%s", DriverFirestore)
		}
	default:
		return fmt.Errorf("unknown DOCSTORE_DRIVER %q", c.DocstoreDriver)
	}

	if c.AuthTimeout <= 0 {
		return fmt.Errorf("AUTH_TIMEOUT must be positive")
	}
	if len(c.OrderStatuses) == 0 {
		return fmt.Errorf("ORDER_STATUSES must list at least one status")
	}
	if c.ProductsDefaultLimit < 1 || c.ProductsMaxLimit < c.ProductsDefaultLimit {
		return fmt.Errorf("invalid product limits: default %d, max %d", c.ProductsDefaultLimit, c.ProductsMaxLimit)
	}
	if c.OrdersDefaultLimit < 1 || c.OrdersMaxLimit < c.OrdersDefaultLimit {
		return fmt.Errorf("invalid order limits: default %d, max %d", c.OrdersDefaultLimit, c.OrdersMaxLimit)
	}
	return nil
}

// NeedsFirebase reports whether a Firebase app has to be initialised.
func (c Config) NeedsFirebase() bool {
	return c.AuthProvider == ProviderFirebase || c.DocstoreDriver == DriverFirestore
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		part = strings.ToLower(strings.TrimSpace(part))
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}
