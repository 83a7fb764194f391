package main

import (
	"context"
	"fmt"

	goredis "github.com/redis/go-redis/v9"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/unkn0wn-root/pagesnap"
	"github.com/unkn0wn-root/pagesnap/codec"
	"github.com/unkn0wn-root/pagesnap/internal/config"
	zaplog "github.com/unkn0wn-root/pagesnap/log/zap"
	redisprovider "github.com/unkn0wn-root/pagesnap/provider/redis"
	"github.com/unkn0wn-root/pagesnap/store"
	"github.com/unkn0wn-root/pagesnap/store/encoded"
	redisstore "github.com/unkn0wn-root/pagesnap/store/redis"
)

// app holds what every subcommand needs once config is loaded.
type app struct {
	v     *viper.Viper
	cfg   config.Config
	zl    *zap.Logger
	pager *pagesnap.Pager

	openStore func(config.Config, pagesnap.Logger) (store.Store, error)
}

func (a *app) setup(configFile string) error {
	cfg, err := config.Load(a.v, configFile)
	if err != nil {
		return err
	}
	a.cfg = cfg

	zl, err := newZap(cfg.Log)
	if err != nil {
		return err
	}
	a.zl = zl
	log := zaplog.ZapLogger{L: zl}

	st, err := a.openStore(cfg, log)
	if err != nil {
		return err
	}
	a.pager, err = pagesnap.New(pagesnap.Options{Store: st, Logger: log})
	return err
}

// teardown is safe before setup and when called twice.
func (a *app) teardown(ctx context.Context) {
	if a.pager != nil {
		_ = a.pager.Close(ctx)
		a.pager = nil
	}
	if a.zl != nil {
		_ = a.zl.Sync()
		a.zl = nil
	}
}

func newZap(lc config.LogConfig) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(lc.Level)
	if err != nil {
		return nil, fmt.Errorf("log level: %w", err)
	}
	zc := zap.NewProductionConfig()
	if lc.Format == "console" {
		zc = zap.NewDevelopmentConfig()
	}
	zc.Level = zap.NewAtomicLevelAt(lvl)
	zc.OutputPaths = []string{"stderr"}
	return zc.Build()
}

func openStore(cfg config.Config, log pagesnap.Logger) (store.Store, error) {
	rdb := goredis.NewClient(&goredis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	switch cfg.Backend {
	case "encoded":
		c, err := entryCodec(cfg.Codec, cfg.MaxIDs)
		if err != nil {
			_ = rdb.Close()
			return nil, err
		}
		p, err := redisprovider.New(redisprovider.Config{Client: rdb, CloseClient: true})
		if err != nil {
			_ = rdb.Close()
			return nil, err
		}
		return encoded.New(encoded.Config{
			Provider: p,
			Codec:    c,
			Prefix:   cfg.Redis.Prefix,
			Limits:   cfg.Limits(),
			Logger:   log,
		})
	default:
		return redisstore.New(redisstore.Config{
			Client:      rdb,
			Prefix:      cfg.Redis.Prefix,
			CloseClient: true,
			Limits:      cfg.Limits(),
			Logger:      log,
		})
	}
}

func entryCodec(name string, maxIDs int) (codec.EntryCodec, error) {
	switch name {
	case "msgpack", "":
		return codec.Msgpack[store.Entry]{}, nil
	case "json":
		return codec.JSON[store.Entry]{}, nil
	case "cbor":
		c, err := codec.NewCBOR[store.Entry](codec.CBOROptions{Deterministic: true, MaxIDs: maxIDs})
		if err != nil {
			return nil, err
		}
		return c, nil
	case "proto":
		return codec.ProtoEntry{}, nil
	}
	return nil, fmt.Errorf("%w: unknown codec %q", store.ErrConfiguration, name)
}
