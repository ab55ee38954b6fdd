package odds

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// CachedQuote é o snapshot da última cotação aceita de uma partida
type CachedQuote struct {
	MatchID   int64     `json:"matchId"`
	Pools     Pools     `json:"pools"`
	Odds      Odds      `json:"odds"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// RedisCache guarda a cotação corrente por partida no Redis
// Client: cliente Redis
// TTL: expiração de cada snapshot
type RedisCache struct {
	Client *redis.Client
	TTL    time.Duration
}

func NewRedisCache(c *redis.Client, ttl time.Duration) *RedisCache {
	return &RedisCache{Client: c, TTL: ttl}
}

func key(matchID int64) string { return "odds:match:" + strconv.FormatInt(matchID, 10) }

// SetQuote grava a cotação com TTL
func (r *RedisCache) SetQuote(ctx context.Context, q CachedQuote) error {
	b, err := json.Marshal(q)
	if err != nil {
		return err
	}
	return r.Client.Set(ctx, key(q.MatchID), b, r.TTL).Err()
}

// GetQuote devolve (quote, true) em hit; miss (redis.Nil) não é erro
func (r *RedisCache) GetQuote(ctx context.Context, matchID int64) (CachedQuote, bool, error) {
	var q CachedQuote
	b, err := r.Client.Get(ctx, key(matchID)).Bytes()
	if err == redis.Nil {
		return q, false, nil
	}
	if err != nil {
		return q, false, err
	}
	if err := json.Unmarshal(b, &q); err != nil {
		return q, false, err
	}
	return q, true, nil
}
