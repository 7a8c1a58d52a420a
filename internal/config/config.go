package config

import (
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/maxviazov/user-records-service/internal/logger"
)

// Supported values for storage.driver.
const (
	DriverMongo    = "mongo"
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

type Config struct {
	App      AppConfig           `mapstructure:"app"`
	Logger   logger.LoggerConfig `mapstructure:"logger"`
	Storage  StorageConfig       `mapstructure:"storage"`
	Mongo    MongoConfig         `mapstructure:"mongo"`
	Postgres PostgresConfig      `mapstructure:"postgres"`
	HTTP     HTTPConfig          `mapstructure:"http"`
}

type AppConfig struct {
	Name    string `mapstructure:"name" validate:"required"`
	Version string `mapstructure:"version"`
	Env     string `mapstructure:"env"`
	Port    int    `mapstructure:"port" validate:"gt=0,lte=65535"`
	// ShutdownTimeout is in seconds.
	ShutdownTimeout int `mapstructure:"shutdown_timeout" validate:"gte=0"`
}

type StorageConfig struct {
	Driver string `mapstructure:"driver" validate:"oneof=mongo postgres memory"`
}

type MongoConfig struct {
	URI        string `mapstructure:"uri" validate:"required"`
	Database   string `mapstructure:"database" validate:"required"`
	Collection string `mapstructure:"collection" validate:"required"`
	// ConnectTimeout is in seconds.
	ConnectTimeout int    `mapstructure:"connect_timeout" validate:"gt=0"`
	MaxPoolSize    uint64 `mapstructure:"max_pool_size"`
}

type PostgresConfig struct {
	Host              string `mapstructure:"host" validate:"required"`
	Port              int    `mapstructure:"port" validate:"gt=0,lte=65535"`
	User              string `mapstructure:"user" validate:"required"`
	Password          string `mapstructure:"password" validate:"required"`
	DBName            string `mapstructure:"db" validate:"required"`
	SSLMode           string `mapstructure:"sslmode"`
	MaxConns          int32  `mapstructure:"max_conns"`
	MinConns          int32  `mapstructure:"min_conns"`
	MaxConnLifetime   int    `mapstructure:"max_conn_lifetime"`
	MaxConnIdleTime   int    `mapstructure:"max_conn_idle_time"`
	HealthCheckPeriod int    `mapstructure:"health_check_period"`
	// Migrate applies the embedded goose migrations on startup.
	Migrate bool `mapstructure:"migrate"`
}

type HTTPConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// Validate checks the common sections and only the store section the driver needs,
// so a mongo deployment does not have to carry postgres secrets and vice versa.
func (c *Config) Validate() error {
	v := validator.New()
	if err := v.Struct(c.App); err != nil {
		return fmt.Errorf("app config: %w", err)
	}
	if err := v.Struct(c.Storage); err != nil {
		return fmt.Errorf("storage config: %w", err)
	}
	switch c.Storage.Driver {
	case DriverMongo:
		if err := v.Struct(c.Mongo); err != nil {
			return fmt.Errorf("mongo config: %w", err)
		}
	case DriverPostgres:
		if err := v.Struct(c.Postgres); err != nil {
			return fmt.Errorf("postgres config: %w", err)
		}
	}
	return nil
}
