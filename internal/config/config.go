// Package config loads pagesnap CLI settings from flags, PAGESNAP_* env and
// an optional YAML file, in that order of precedence.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/unkn0wn-root/pagesnap/store"
)

const EnvPrefix = "PAGESNAP"

type Config struct {
	// Backend selects the store: "redis" (sorted set + hash) or "encoded"
	// (one framed blob per cursor on a Redis byte provider).
	Backend string        `mapstructure:"backend"`
	Codec   string        `mapstructure:"codec"` // encoded backend only
	TTL     time.Duration `mapstructure:"ttl"`
	MaxIDs  int           `mapstructure:"max_ids"`
	Redis   RedisConfig   `mapstructure:"redis"`
	Log     LogConfig     `mapstructure:"log"`
}

type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	Prefix   string `mapstructure:"prefix"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"` // json | console
}

// Limits maps the configured bounds onto store.Limits.
func (c Config) Limits() store.Limits {
	return store.Limits{TTL: c.TTL, MaxIDs: c.MaxIDs}
}

// Validate rejects values the CLI cannot act on.
func (c Config) Validate() error {
	switch c.Backend {
	case "redis", "encoded":
	default:
		return fmt.Errorf("%w: unknown backend %q", store.ErrConfiguration, c.Backend)
	}
	switch c.Codec {
	case "msgpack", "json", "cbor", "proto":
	default:
		return fmt.Errorf("%w: unknown codec %q", store.ErrConfiguration, c.Codec)
	}
	if c.Redis.Addr == "" {
		return fmt.Errorf("%w: redis.addr is empty", store.ErrConfiguration)
	}
	if c.TTL <= 0 {
		return fmt.Errorf("%w: ttl must be positive, got %s", store.ErrConfiguration, c.TTL)
	}
	if c.MaxIDs <= 0 {
		return fmt.Errorf("%w: max_ids must be positive, got %d", store.ErrConfiguration, c.MaxIDs)
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("backend", "redis")
	v.SetDefault("codec", "msgpack")
	v.SetDefault("ttl", store.DefaultTTL)
	v.SetDefault("max_ids", store.DefaultMaxIDs)

	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.prefix", "pagesnap")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
}

// BindFlags registers persistent flags on cmd and binds them to v.
func BindFlags(cmd *cobra.Command, v *viper.Viper) {
	f := cmd.PersistentFlags()

	f.String("config", "", "config file path")
	f.String("backend", "", "store backend (redis, encoded)")
	f.String("codec", "", "entry codec for the encoded backend (msgpack, json, cbor, proto)")
	f.Duration("ttl", 0, "cursor lifetime (default 30m)")
	f.Int("max-ids", 0, "max ids kept per cursor (default 100000)")
	f.String("redis-addr", "", "redis address (default localhost:6379)")
	f.Int("redis-db", 0, "redis database")
	f.String("prefix", "", "key prefix (default pagesnap)")
	f.String("log-level", "", "log level (debug, info, warn, error)")
	f.String("log-format", "", "log format (json, console)")

	_ = v.BindPFlag("backend", f.Lookup("backend"))
	_ = v.BindPFlag("codec", f.Lookup("codec"))
	_ = v.BindPFlag("ttl", f.Lookup("ttl"))
	_ = v.BindPFlag("max_ids", f.Lookup("max-ids"))
	_ = v.BindPFlag("redis.addr", f.Lookup("redis-addr"))
	_ = v.BindPFlag("redis.db", f.Lookup("redis-db"))
	_ = v.BindPFlag("redis.prefix", f.Lookup("prefix"))
	_ = v.BindPFlag("log.level", f.Lookup("log-level"))
	_ = v.BindPFlag("log.format", f.Lookup("log-format"))
}

// Load reads config from flags, env, and file, returning the merged Config.
func Load(v *viper.Viper, configFile string) (Config, error) {
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("pagesnap")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.config/pagesnap")
		v.AddConfigPath("/etc/pagesnap")
	}

	if err := v.ReadInConfig(); err != nil {
		var nf viper.ConfigFileNotFoundError
		if !errors.As(err, &nf) || configFile != "" {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	return cfg, cfg.Validate()
}
