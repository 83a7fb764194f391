package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/unkn0wn-root/pagesnap/store"
)

func TestLoadDefaults(t *testing.T) {
	t.Chdir(t.TempDir()) // keep a stray ./pagesnap.yaml out of the way
	t.Setenv("PAGESNAP_REDIS_ADDR", "")

	cfg, err := Load(viper.New(), "")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Backend != "redis" || cfg.Codec != "msgpack" {
		t.Errorf("backend/codec = %q/%q", cfg.Backend, cfg.Codec)
	}
	if cfg.Redis.Addr != "localhost:6379" || cfg.Redis.Prefix != "pagesnap" {
		t.Errorf("redis = %+v", cfg.Redis)
	}
	if got := cfg.Limits(); got.TTL != 30*time.Minute || got.MaxIDs != 100000 {
		t.Errorf("Limits() = %+v", got)
	}
}

func TestEnvOverridesDefaults(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("PAGESNAP_REDIS_ADDR", "redis.internal:6380")
	t.Setenv("PAGESNAP_TTL", "5m")
	t.Setenv("PAGESNAP_MAX_IDS", "500")

	cfg, err := Load(viper.New(), "")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Redis.Addr != "redis.internal:6380" {
		t.Errorf("Redis.Addr = %q", cfg.Redis.Addr)
	}
	if cfg.TTL != 5*time.Minute || cfg.MaxIDs != 500 {
		t.Errorf("TTL/MaxIDs = %s/%d", cfg.TTL, cfg.MaxIDs)
	}
}

func TestConfigFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "pagesnap.yaml")
	body := "backend: encoded\ncodec: cbor\nttl: 10m\nredis:\n  addr: cache:6379\n  prefix: app\n"
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(viper.New(), path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Backend != "encoded" || cfg.Codec != "cbor" || cfg.TTL != 10*time.Minute {
		t.Errorf("cfg = %+v", cfg)
	}
	if cfg.Redis.Addr != "cache:6379" || cfg.Redis.Prefix != "app" {
		t.Errorf("redis = %+v", cfg.Redis)
	}
}

func TestExplicitMissingFileFails(t *testing.T) {
	if _, err := Load(viper.New(), filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatal("expected error for missing explicit config file")
	}
}

func TestFlagsTakePrecedence(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("PAGESNAP_BACKEND", "encoded")

	v := viper.New()
	cmd := &cobra.Command{Use: "test"}
	BindFlags(cmd, v)
	if err := cmd.PersistentFlags().Parse([]string{"--backend", "redis", "--prefix", "flagged"}); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(v, "")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Backend != "redis" || cfg.Redis.Prefix != "flagged" {
		t.Errorf("backend/prefix = %q/%q", cfg.Backend, cfg.Redis.Prefix)
	}
}

func TestValidate(t *testing.T) {
	good := Config{Backend: "redis", Codec: "json", TTL: time.Minute, MaxIDs: 1, Redis: RedisConfig{Addr: "x:1"}}
	if err := good.Validate(); err != nil {
		t.Fatalf("Validate(good) = %v", err)
	}

	cases := map[string]func(*Config){
		"backend": func(c *Config) { c.Backend = "etcd" },
		"codec":   func(c *Config) { c.Codec = "xml" },
		"addr":    func(c *Config) { c.Redis.Addr = "" },
		"ttl":     func(c *Config) { c.TTL = 0 },
		"max_ids": func(c *Config) { c.MaxIDs = -1 },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			c := good
			mutate(&c)
			if err := c.Validate(); !errors.Is(err, store.ErrConfiguration) {
				t.Fatalf("Validate = %v, want ErrConfiguration", err)
			}
		})
	}
}
