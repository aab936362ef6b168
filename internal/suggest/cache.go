package suggest

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const defaultCacheTTL = 10 * time.Minute

// Cache memoises service replies in Redis. Redis errors fall through to the wrapped service.
type Cache struct {
	rdb    *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

func NewCache(rdb *redis.Client, ttl time.Duration, logger *zap.Logger) *Cache {
	if ttl <= 0 {
		ttl = defaultCacheTTL
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Cache{rdb: rdb, ttl: ttl, logger: logger}
}

func (c *Cache) keySuggest(fen, history string) string { return "cm:suggest:" + fen + "|" + history }
func (c *Cache) keyAnalysis(fen string) string         { return "cm:analysis:" + fen }

// Invalidator drops a cached suggestion so the next request reaches the service.
type Invalidator interface {
	Invalidate(ctx context.Context, fen, history string)
}

type cachedSuggester struct {
	cache *Cache
	next  Suggester
}

// Suggester wraps next. Only successful replies are stored; a hit makes no outbound call.
func (c *Cache) Suggester(next Suggester) Suggester {
	return &cachedSuggester{cache: c, next: next}
}

func (s *cachedSuggester) RequestMove(ctx context.Context, fen, history string) (Suggestion, bool) {
	key := s.cache.keySuggest(fen, history)
	var hit Suggestion
	if s.cache.load(ctx, key, &hit) && hit.Move != "" {
		return hit, true
	}
	sug, ok := s.next.RequestMove(ctx, fen, history)
	if ok {
		s.cache.store(ctx, key, sug)
	}
	return sug, ok
}

func (s *cachedSuggester) Invalidate(ctx context.Context, fen, history string) {
	if err := s.cache.rdb.Del(ctx, s.cache.keySuggest(fen, history)).Err(); err != nil {
		s.cache.logger.Warn("suggest_cache_delete_failed", zap.Error(err))
	}
}

type cachedAnalyzer struct {
	cache *Cache
	next  Analyzer
}

func (c *Cache) Analyzer(next Analyzer) Analyzer {
	return &cachedAnalyzer{cache: c, next: next}
}

func (a *cachedAnalyzer) Analyze(ctx context.Context, fen string) (Analysis, error) {
	key := a.cache.keyAnalysis(fen)
	var hit Analysis
	if a.cache.load(ctx, key, &hit) {
		return hit, nil
	}
	res, err := a.next.Analyze(ctx, fen)
	if err != nil {
		return Analysis{}, err
	}
	a.cache.store(ctx, key, res)
	return res, nil
}

func (c *Cache) load(ctx context.Context, key string, out any) bool {
	raw, err := c.rdb.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return false
	}
	if err != nil {
		c.logger.Warn("suggest_cache_get_failed", zap.String("key", key), zap.Error(err))
		return false
	}
	if err := json.Unmarshal(raw, out); err != nil {
		c.logger.Warn("suggest_cache_decode_failed", zap.String("key", key), zap.Error(err))
		return false
	}
	return true
}

func (c *Cache) store(ctx context.Context, key string, v any) {
	raw, err := json.Marshal(v)
	if err != nil {
		return
	}
	if err := c.rdb.Set(ctx, key, raw, c.ttl).Err(); err != nil {
		c.logger.Warn("suggest_cache_set_failed", zap.String("key", key), zap.Error(err))
	}
}
