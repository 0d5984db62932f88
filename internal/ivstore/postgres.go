package ivstore

import (
	"context"
	"time"

	"github.com/zeromicro/go-zero/core/logx"
	"github.com/zeromicro/go-zero/core/stores/cache"
	"github.com/zeromicro/go-zero/core/stores/sqlx"

	cachekeys "github.com/RobbyMo81/trade-analyst/internal/cache"
	"github.com/RobbyMo81/trade-analyst/pkg/guardrail"
)

// PostgresStore keeps observations in the iv_observations table and caches
// history reads through the go-zero cache layer.
type PostgresStore struct {
	conn  sqlx.SqlConn
	cache cache.Cache
	ttl   cachekeys.TTLSet
	nowFn func() time.Time
}

// NewPostgresStore wires a store onto an existing connection. The cache is
// optional; a nil cache disables read caching.
func NewPostgresStore(conn sqlx.SqlConn, c cache.Cache, ttl cachekeys.TTLSet) *PostgresStore {
	return &PostgresStore{conn: conn, cache: c, ttl: ttl, nowFn: time.Now}
}

func (s *PostgresStore) History(ctx context.Context, symbol string, limit int) ([]Observation, error) {
	if err := guardrail.Require(symbol != "", guardrail.CodeValidation,
		"iv history requires a symbol"); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = 252
	}

	key := cachekeys.IVHistoryKey(symbol)
	var cached []Observation
	if ok := s.getCache(ctx, key, &cached); ok && len(cached) >= limit {
		return cached[len(cached)-limit:], nil
	}

	// Newest-first fetch bounded by limit, then reversed so callers always
	// see oldest first.
	const q = `SELECT symbol, observed_on, iv, source, created_at
FROM iv_observations
WHERE symbol = $1
ORDER BY observed_on DESC
LIMIT $2`

	var rows []Observation
	if err := s.conn.QueryRowsCtx(ctx, &rows, q, symbol, limit); err != nil {
		return nil, guardrail.WrapError(guardrail.CodeUnknown, err, "query iv history",
			"symbol", symbol)
	}
	for i, j := 0, len(rows)-1; i < j; i, j = i+1, j-1 {
		rows[i], rows[j] = rows[j], rows[i]
	}

	s.setCache(ctx, key, cachekeys.IVHistoryTTL(s.ttl), rows)
	return rows, nil
}

func (s *PostgresStore) Record(ctx context.Context, obs Observation) error {
	if err := validateObservation(obs); err != nil {
		return err
	}
	if obs.CreatedAt.IsZero() {
		obs.CreatedAt = s.nowFn().UTC()
	}

	const q = `INSERT INTO iv_observations (symbol, observed_on, iv, source, created_at)
VALUES ($1, $2, $3, $4, $5)
ON CONFLICT (symbol, observed_on) DO UPDATE
SET iv = EXCLUDED.iv, source = EXCLUDED.source`

	if _, err := s.conn.ExecCtx(ctx, q, obs.Symbol, obs.Date, obs.IV, obs.Source, obs.CreatedAt); err != nil {
		return guardrail.WrapError(guardrail.CodeUnknown, err, "record iv observation",
			"symbol", obs.Symbol)
	}

	// Invalidate rather than patch: the next History call repopulates.
	if s.cache != nil {
		if err := s.cache.DelCtx(ctx, cachekeys.IVHistoryKey(obs.Symbol)); err != nil {
			logx.WithContext(ctx).Errorf("invalidate iv cache %s: %v", obs.Symbol, err)
		}
	}
	return nil
}

func (s *PostgresStore) getCache(ctx context.Context, key string, v any) bool {
	if s.cache == nil {
		return false
	}
	if err := s.cache.GetCtx(ctx, key, v); err != nil {
		if !s.cache.IsNotFound(err) {
			logx.WithContext(ctx).Errorf("get cache %s: %v", key, err)
		}
		return false
	}
	return true
}

func (s *PostgresStore) setCache(ctx context.Context, key string, ttl time.Duration, v any) {
	if s.cache == nil || ttl <= 0 {
		return
	}
	if err := s.cache.SetWithExpireCtx(ctx, key, v, ttl); err != nil {
		logx.WithContext(ctx).Errorf("set cache %s: %v", key, err)
	}
}
