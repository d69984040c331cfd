package config

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

const (
	StoreMemory   = "memory"
	StorePostgres = "postgres"
	StoreRedis    = "redis"
)

type Config struct {
	Port           string
	StoreDriver    string
	StorageTimeout time.Duration
	RedisPrefix    string
	StaticDir      string
	AllowedOrigins []string
	JWTSecret      string
	LogLevel       string
	Tab            TabConfig
}

// TabConfig holds the bar-specific defaults.
type TabConfig struct {
	QuickItemTitle  string
	QuickItemPrice  decimal.Decimal
	DefaultOperator string
}

// Init points viper at the .env file and binds environment variables to
// config keys. Missing .env is not an error.
func Init() error {
	viper.SetConfigFile(".env") // explicitly point to .env file
	viper.AutomaticEnv()        // allow environment variables to override .env

	bindings := map[string]string{
		"server.port":            "PORT",
		"server.allowed_origins": "ALLOWED_ORIGINS",
		"store.driver":           "STORE_DRIVER",
		"store.timeout":          "STORE_TIMEOUT",
		"store.redis_prefix":     "STORE_REDIS_PREFIX",
		"static.dir":             "STATIC_DIR",
		"log.level":              "LOG_LEVEL",
		"jwt.secret_key":         "JWT_SECRET_KEY",
		"tab.quick_item_title":   "TAB_QUICK_ITEM_TITLE",
		"tab.quick_item_price":   "TAB_QUICK_ITEM_PRICE",
		"tab.default_operator":   "TAB_DEFAULT_OPERATOR",

		"database.host":     "DATABASE_HOST",
		"database.port":     "DATABASE_PORT",
		"database.user":     "DATABASE_USER",
		"database.password": "DATABASE_PASSWORD",
		"database.name":     "DATABASE_NAME",
		"database.ssl_mode": "DATABASE_SSL_MODE",

		"redis.host":     "REDIS_HOST",
		"redis.port":     "REDIS_PORT",
		"redis.password": "REDIS_PASSWORD",
		"redis.db":       "REDIS_DB",
	}
	for key, env := range bindings {
		if err := viper.BindEnv(key, env); err != nil {
			return err
		}
	}

	return viper.ReadInConfig()
}

// Load returns the application config with defaults applied.
func Load() *Config {
	viper.SetDefault("server.port", "8080")
	viper.SetDefault("server.allowed_origins", []string{"https://*", "http://*"})
	viper.SetDefault("store.driver", StoreMemory)
	viper.SetDefault("store.timeout", 5*time.Second)
	viper.SetDefault("store.redis_prefix", "bartab")
	viper.SetDefault("static.dir", "./static")
	viper.SetDefault("log.level", "info")
	viper.SetDefault("tab.quick_item_title", "Beer")
	viper.SetDefault("tab.quick_item_price", "10.00")
	viper.SetDefault("tab.default_operator", "Unknown")

	price, err := decimal.NewFromString(viper.GetString("tab.quick_item_price"))
	if err != nil || price.IsNegative() {
		price = decimal.NewFromInt(10)
	}

	timeout := viper.GetDuration("store.timeout")
	if timeout <= 0 {
		timeout = 5 * time.Second
	}

	return &Config{
		Port:           viper.GetString("server.port"),
		StoreDriver:    viper.GetString("store.driver"),
		StorageTimeout: timeout,
		RedisPrefix:    viper.GetString("store.redis_prefix"),
		StaticDir:      viper.GetString("static.dir"),
		AllowedOrigins: viper.GetStringSlice("server.allowed_origins"),
		JWTSecret:      viper.GetString("jwt.secret_key"),
		LogLevel:       viper.GetString("log.level"),
		Tab: TabConfig{
			QuickItemTitle:  viper.GetString("tab.quick_item_title"),
			QuickItemPrice:  price,
			DefaultOperator: viper.GetString("tab.default_operator"),
		},
	}
}
