package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// secretKeys have no defaults, so viper has to be told about them explicitly
// for APP_* environment overrides to reach Unmarshal.
var secretKeys = []string{
	"mongo.uri",
	"postgres.user",
	"postgres.password",
	"postgres.db",
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "user-records-service")
	v.SetDefault("app.version", "0.1.0")
	v.SetDefault("app.env", "dev")
	v.SetDefault("app.port", 3001)
	v.SetDefault("app.shutdown_timeout", 10)

	v.SetDefault("logger.env", "")
	v.SetDefault("logger.level", "")

	v.SetDefault("storage.driver", DriverMongo)

	v.SetDefault("mongo.database", "users")
	v.SetDefault("mongo.collection", "users")
	v.SetDefault("mongo.connect_timeout", 10)
	v.SetDefault("mongo.max_pool_size", 100)

	v.SetDefault("postgres.host", "localhost")
	v.SetDefault("postgres.port", 5432)
	v.SetDefault("postgres.sslmode", "disable")
	v.SetDefault("postgres.max_conns", 10)
	v.SetDefault("postgres.min_conns", 1)
	v.SetDefault("postgres.max_conn_lifetime", 3600)
	v.SetDefault("postgres.max_conn_idle_time", 300)
	v.SetDefault("postgres.health_check_period", 30)
	v.SetDefault("postgres.migrate", true)

	v.SetDefault("http.allowed_origins", []string{"*"})
}

// Load reads the YAML file at path and overlays APP_* environment variables
// (APP_POSTGRES_USER overrides postgres.user). An empty path skips the file.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.SetEnvPrefix("APP")
	v.AutomaticEnv()
	for _, key := range secretKeys {
		if err := v.BindEnv(key); err != nil {
			return nil, fmt.Errorf("bind env %s: %w", key, err)
		}
	}

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("config file not found: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &config, nil
}
