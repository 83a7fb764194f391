// Package redis is the durable, shared store.Store backed by Redis.
//
// Per cursor it keeps a sorted set of ids scored by rank and a metadata hash
// (total_count, stored_count). Both keys are written in one MULTI/EXEC and
// carry the same TTL. Read-modify-write operations run as Lua scripts so a
// cursor that expires mid-operation is never resurrected.
package redis

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/unkn0wn-root/pagesnap/internal/keys"
	"github.com/unkn0wn-root/pagesnap/store"
)

const (
	fieldTotal  = "total_count"
	fieldStored = "stored_count"

	zaddBatchSize = 1000
)

var (
	touchScript = goredis.NewScript(`
if redis.call('EXISTS', KEYS[2]) == 0 then return 0 end
redis.call('PEXPIRE', KEYS[1], ARGV[1])
redis.call('PEXPIRE', KEYS[2], ARGV[1])
return 1`)

	removeScript = goredis.NewScript(`
if redis.call('EXISTS', KEYS[2]) == 0 then return 0 end
local removed = redis.call('ZREM', KEYS[1], unpack(ARGV))
redis.call('HSET', KEYS[2], 'stored_count', redis.call('ZCARD', KEYS[1]))
return removed`)

	decrScript = goredis.NewScript(`
if redis.call('EXISTS', KEYS[1]) == 0 then return 0 end
return redis.call('HINCRBY', KEYS[1], 'total_count', ARGV[1])`)
)

// Config wires the Redis store. Client is required.
type Config struct {
	Client      goredis.UniversalClient
	Prefix      string // key prefix; "" => "pagesnap"
	CloseClient bool   // set true only if this store exclusively owns the client
	store.Limits
	Logger store.Logger
}

type Store struct {
	rdb         goredis.UniversalClient
	prefix      string
	closeClient bool
	limits      store.Limits
	log         store.Logger
}

var _ store.Store = (*Store)(nil)

// New returns store.ErrConfiguration when no client is supplied.
func New(cfg Config) (*Store, error) {
	if cfg.Client == nil {
		return nil, store.Misconfigured("redis store: nil client")
	}
	prefix := cfg.Prefix
	if prefix == "" {
		prefix = keys.DefaultPrefix
	}
	return &Store{
		rdb:         cfg.Client,
		prefix:      prefix,
		closeClient: cfg.CloseClient,
		limits:      cfg.Limits.WithDefaults(),
		log:         store.OrNop(cfg.Logger),
	}, nil
}

func (s *Store) Limits() store.Limits { return s.limits }

func (s *Store) idsKey(id string) string  { return keys.IDs(s.prefix, id) }
func (s *Store) metaKey(id string) string { return keys.Meta(s.prefix, id) }

func (s *Store) Store(ctx context.Context, cursorID string, ids []string, totalCount int64) error {
	stored := store.Prepare(ids, s.limits.MaxIDs)
	ik, mk := s.idsKey(cursorID), s.metaKey(cursorID)

	_, err := s.rdb.TxPipelined(ctx, func(p goredis.Pipeliner) error {
		p.Del(ctx, ik, mk)
		for start := 0; start < len(stored); start += zaddBatchSize {
			end := min(start+zaddBatchSize, len(stored))
			members := make([]goredis.Z, 0, end-start)
			for i := start; i < end; i++ {
				members = append(members, goredis.Z{Score: float64(i), Member: stored[i]})
			}
			p.ZAdd(ctx, ik, members...)
		}
		p.HSet(ctx, mk, fieldTotal, totalCount, fieldStored, len(stored))
		p.PExpire(ctx, ik, s.limits.TTL)
		p.PExpire(ctx, mk, s.limits.TTL)
		return nil
	})
	if err != nil {
		return fmt.Errorf("redis store: %w", err)
	}

	s.log.Debug("redis store", store.Fields{
		"cursor_id": cursorID, "ids_count": len(stored), "total_count": totalCount, "ttl": s.limits.TTL,
	})
	return nil
}

func (s *Store) FetchPage(ctx context.Context, cursorID string, offset, limit int) ([]string, error) {
	if offset < 0 || limit <= 0 {
		if ok, err := s.Exists(ctx, cursorID); err != nil || !ok {
			return nil, s.missing("fetch page", cursorID, err)
		}
		return []string{}, nil
	}

	var (
		exists *goredis.IntCmd
		rng    *goredis.StringSliceCmd
	)
	_, err := s.rdb.TxPipelined(ctx, func(p goredis.Pipeliner) error {
		exists = p.Exists(ctx, s.metaKey(cursorID))
		rng = p.ZRange(ctx, s.idsKey(cursorID), int64(offset), rangeStop(offset, limit))
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("redis fetch page: %w", err)
	}
	if exists.Val() == 0 {
		return nil, store.Expired("fetch page", cursorID)
	}

	out := rng.Val()
	if out == nil {
		out = []string{}
	}
	s.log.Debug("redis fetch", store.Fields{
		"cursor_id": cursorID, "offset": offset, "limit": limit, "fetched": len(out),
	})
	return out, nil
}

func (s *Store) TotalCount(ctx context.Context, cursorID string) (int64, error) {
	n, err := s.rdb.HGet(ctx, s.metaKey(cursorID), fieldTotal).Int64()
	if errors.Is(err, goredis.Nil) {
		return 0, store.Expired("total count", cursorID)
	}
	if err != nil {
		return 0, fmt.Errorf("redis total count: %w", err)
	}
	return n, nil
}

func (s *Store) StoredCount(ctx context.Context, cursorID string) (int, error) {
	n, err := s.rdb.HGet(ctx, s.metaKey(cursorID), fieldStored).Int()
	if errors.Is(err, goredis.Nil) {
		return 0, store.Expired("stored count", cursorID)
	}
	if err != nil {
		return 0, fmt.Errorf("redis stored count: %w", err)
	}
	return n, nil
}

func (s *Store) Exists(ctx context.Context, cursorID string) (bool, error) {
	n, err := s.rdb.Exists(ctx, s.metaKey(cursorID)).Result()
	if err != nil {
		return false, fmt.Errorf("redis exists: %w", err)
	}
	return n > 0, nil
}

func (s *Store) Delete(ctx context.Context, cursorID string) (bool, error) {
	n, err := s.rdb.Del(ctx, s.idsKey(cursorID), s.metaKey(cursorID)).Result()
	if err != nil {
		return false, fmt.Errorf("redis delete: %w", err)
	}
	s.log.Debug("redis delete", store.Fields{"cursor_id": cursorID, "deleted": n > 0})
	return n > 0, nil
}

func (s *Store) Touch(ctx context.Context, cursorID string) (bool, error) {
	ks := []string{s.idsKey(cursorID), s.metaKey(cursorID)}
	n, err := touchScript.Run(ctx, s.rdb, ks, s.limits.TTL.Milliseconds()).Int64()
	if err != nil {
		return false, fmt.Errorf("redis touch: %w", err)
	}
	return n == 1, nil
}

func (s *Store) RemoveIDs(ctx context.Context, cursorID string, ids []string) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	ks := []string{s.idsKey(cursorID), s.metaKey(cursorID)}
	n, err := removeScript.Run(ctx, s.rdb, ks, args...).Int()
	if err != nil {
		return 0, fmt.Errorf("redis remove ids: %w", err)
	}
	s.log.Debug("redis remove ids", store.Fields{"cursor_id": cursorID, "requested": len(ids), "removed": n})
	return n, nil
}

func (s *Store) DecrementTotalCount(ctx context.Context, cursorID string, by int64) (int64, error) {
	n, err := decrScript.Run(ctx, s.rdb, []string{s.metaKey(cursorID)}, -by).Int64()
	if err != nil {
		return 0, fmt.Errorf("redis decrement total: %w", err)
	}
	s.log.Debug("redis decrement total", store.Fields{"cursor_id": cursorID, "by": by, "new_total": n})
	return n, nil
}

// TTL reports the remaining lifetime of a cursor (introspection).
func (s *Store) TTL(ctx context.Context, cursorID string) (time.Duration, error) {
	d, err := s.rdb.PTTL(ctx, s.metaKey(cursorID)).Result()
	if err != nil {
		return 0, fmt.Errorf("redis ttl: %w", err)
	}
	if d < 0 {
		return 0, store.Expired("ttl", cursorID)
	}
	return d, nil
}

// Close releases the underlying client only when this store owns it.
func (s *Store) Close(context.Context) error {
	if s.closeClient {
		if err := s.rdb.Close(); err != nil && !errors.Is(err, goredis.ErrClosed) {
			return err
		}
	}
	return nil
}

// rangeStop is the inclusive ZRANGE stop for offset+limit, or -1 (the end of
// the set) when that sum overflows.
func rangeStop(offset, limit int) int64 {
	if limit > math.MaxInt-offset {
		return -1
	}
	return int64(offset + limit - 1)
}

func (s *Store) missing(op, cursorID string, err error) error {
	if err != nil {
		return err
	}
	return store.Expired(op, cursorID)
}
