// Package config holds the basket service configuration loaded from the
// environment.
package config

import (
	"fmt"
	"strings"
	"time"

	pkgconfig "github.com/ecomkit/basket/pkg/config"
)

// Config is the full configuration surface of the basket service.
type Config struct {
	Environment string `env:"ENVIRONMENT" envDefault:"development"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`

	HTTPPort        int           `env:"BASKET_HTTP_PORT" envDefault:"8080"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"15s"`

	RedisAddr     string `env:"REDIS_ADDR" envDefault:"localhost:6379"`
	RedisPassword string `env:"REDIS_PASSWORD"`
	RedisDB       int    `env:"REDIS_DB" envDefault:"0"`
	BasketTTL     int    `env:"BASKET_TTL_HOURS" envDefault:"72"`

	KafkaBrokers []string `env:"KAFKA_BROKERS" envSeparator:"," envDefault:"localhost:9092"`

	CatalogURL   string `env:"CATALOG_URL" envDefault:"http://localhost:8081"`
	InventoryURL string `env:"INVENTORY_URL" envDefault:"http://localhost:8082"`

	CouponsAllowed        int    `env:"COUPONS_ALLOWED" envDefault:"1"`
	OrderLimitCount       int    `env:"ORDER_LIMIT_COUNT" envDefault:"5"`
	OrderLimitWindowHours int    `env:"ORDER_LIMIT_WINDOW_HOURS" envDefault:"24"`
	SelectRequireVariant  bool   `env:"SELECT_REQUIRE_VARIANT" envDefault:"true"`
	Decorators            string `env:"BASKET_DECORATORS" envDefault:"category,bundle,select,stock"`
}

// Load reads the configuration from the environment and validates it.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := pkgconfig.Load(cfg); err != nil {
		return nil, err
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.HTTPPort <= 0 || c.HTTPPort > 65535 {
		return fmt.Errorf("invalid BASKET_HTTP_PORT: %d", c.HTTPPort)
	}
	if c.BasketTTL <= 0 {
		return fmt.Errorf("invalid BASKET_TTL_HOURS: %d", c.BasketTTL)
	}
	if c.OrderLimitCount < 0 {
		return fmt.Errorf("invalid ORDER_LIMIT_COUNT: %d", c.OrderLimitCount)
	}
	if c.OrderLimitWindowHours <= 0 {
		return fmt.Errorf("invalid ORDER_LIMIT_WINDOW_HOURS: %d", c.OrderLimitWindowHours)
	}
	if len(c.KafkaBrokers) == 0 {
		return fmt.Errorf("KAFKA_BROKERS must not be empty")
	}
	return nil
}

// BasketTTLDuration returns the basket TTL as a duration.
func (c *Config) BasketTTLDuration() time.Duration {
	return time.Duration(c.BasketTTL) * time.Hour
}

// OrderLimitWindow returns the order rate-limit window as a duration.
func (c *Config) OrderLimitWindow() time.Duration {
	return time.Duration(c.OrderLimitWindowHours) * time.Hour
}

// DecoratorList returns the configured decorator names, outermost first.
func (c *Config) DecoratorList() []string {
	var names []string
	for _, name := range strings.Split(c.Decorators, ",") {
		if name = strings.TrimSpace(name); name != "" {
			names = append(names, name)
		}
	}
	return names
}

// IsProduction reports whether the service runs in production mode.
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}
