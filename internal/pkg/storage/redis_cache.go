package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/Vodeneev/easepick/internal/pkg/models"
	"github.com/Vodeneev/easepick/internal/provider"
)

var _ provider.OddsCache = (*RedisOddsCache)(nil)

const (
	oddsKeyPrefix    = "easepick:odds:"
	defaultOddsTTL   = 10 * time.Minute
	redisPingTimeout = 5 * time.Second
)

// RedisOddsCache keeps mapped odds per fixture to save API quota.
type RedisOddsCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisOddsCache(addr, password string, db int, ttl time.Duration) (*RedisOddsCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	// Check connection
	ctx, cancel := context.WithTimeout(context.Background(), redisPingTimeout)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	if ttl <= 0 {
		ttl = defaultOddsTTL
	}
	return &RedisOddsCache{client: client, ttl: ttl}, nil
}

func oddsKey(fixtureID int64) string {
	return oddsKeyPrefix + strconv.FormatInt(fixtureID, 10)
}

func encodeMarkets(m models.Markets) ([]byte, error) {
	data, err := json.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal odds: %w", err)
	}
	return data, nil
}

func decodeMarkets(data []byte) (models.Markets, error) {
	var m models.Markets
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("failed to unmarshal odds: %w", err)
	}
	if m == nil {
		m = models.Markets{}
	}
	return m, nil
}

// GetOdds reports ok=false on a cache miss.
func (r *RedisOddsCache) GetOdds(ctx context.Context, fixtureID int64) (models.Markets, bool, error) {
	data, err := r.client.Get(ctx, oddsKey(fixtureID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to get odds: %w", err)
	}
	m, err := decodeMarkets(data)
	if err != nil {
		return nil, false, err
	}
	return m, true, nil
}

func (r *RedisOddsCache) SetOdds(ctx context.Context, fixtureID int64, m models.Markets) error {
	data, err := encodeMarkets(m)
	if err != nil {
		return err
	}
	return r.client.Set(ctx, oddsKey(fixtureID), data, r.ttl).Err()
}

// Close closes connection with Redis
func (r *RedisOddsCache) Close() error {
	return r.client.Close()
}
