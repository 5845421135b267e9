package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds the process configuration. Values come from an optional YAML
// file plus environment variables with the BOOKCORE_ prefix; the environment
// wins.
type Config struct {
	HTTPAddr      string        `mapstructure:"http_addr"`
	Symbol        string        `mapstructure:"symbol"`
	SnapshotDepth int           `mapstructure:"snapshot_depth"`
	RateLimit     time.Duration `mapstructure:"rate_limit"`

	// empty PostgresDSN / RedisAddr select the in-memory adapters
	PostgresDSN   string        `mapstructure:"postgres_dsn"`
	RedisAddr     string        `mapstructure:"redis_addr"`
	RedisPassword string        `mapstructure:"redis_password"`
	RedisDB       int           `mapstructure:"redis_db"`
	CacheTTL      time.Duration `mapstructure:"cache_ttl"`
}

func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetDefault("http_addr", ":8080")
	v.SetDefault("symbol", "BTC-USD")
	v.SetDefault("snapshot_depth", 10)
	v.SetDefault("rate_limit", time.Duration(0))
	v.SetDefault("postgres_dsn", "")
	v.SetDefault("redis_addr", "")
	v.SetDefault("redis_password", "")
	v.SetDefault("redis_db", 0)
	v.SetDefault("cache_ttl", 5*time.Second)

	v.SetEnvPrefix("BOOKCORE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
