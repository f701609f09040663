package distancematrix

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// NewRedisClient connects to addr and verifies connectivity, following the
// teacher's pkg/database/connection.go Redis setup.
func NewRedisClient(addr, password string, db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		DB:       db,
		Password: password,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if _, err := client.Ping(ctx).Result(); err != nil {
		return nil, fmt.Errorf("distancematrix: failed to ping redis: %w", err)
	}
	return client, nil
}

// RedisMatrix is the concrete realization of the "distance-matrix
// precomputation" external collaborator (spec §1): an operations team
// precomputes pairwise distances and publishes them to a Redis hash keyed
// "locationA:locationB" -> miles. Grounded on the teacher's
// pkg/database/connection.go, which wires the same *redis.Client alongside
// Postgres. Missing or unparsable entries fall through to Fallback, exactly
// as spec §4.2 requires ("if absent, fall back to Haversine").
type RedisMatrix struct {
	client   *redis.Client
	hashKey  string
	fallback Lookup
}

// NewRedisMatrix wraps client, reading precomputed distances from hashKey
// before deferring to fallback (typically a Matrix with Haversine fallback
// of its own).
func NewRedisMatrix(client *redis.Client, hashKey string, fallback Lookup) *RedisMatrix {
	return &RedisMatrix{client: client, hashKey: hashKey, fallback: fallback}
}

// Distance implements Lookup. A value found in Redis is returned as
// reachable as-is; no hard-cap check is applied to it.
func (r *RedisMatrix) Distance(a, b string) (float64, bool) {
	if a == b {
		return 0, true
	}
	ctx := context.Background()
	field := redisField(a, b)
	val, err := r.client.HGet(ctx, r.hashKey, field).Result()
	if err == nil {
		if miles, perr := strconv.ParseFloat(val, 64); perr == nil {
			return miles, true
		}
	}
	if r.fallback == nil {
		return 0, false
	}
	return r.fallback.Distance(a, b)
}

func redisField(a, b string) string {
	if a > b {
		a, b = b, a
	}
	var sb strings.Builder
	sb.WriteString(a)
	sb.WriteByte(':')
	sb.WriteString(b)
	return sb.String()
}
