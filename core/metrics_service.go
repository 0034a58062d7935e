package core

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

const requestMetricPrefix = "metrics:req:"

// NewRedisClient returns a configured go-redis client from URL (e.g., redis://localhost:6379/0).
func NewRedisClient(redisURL string) (*redis.Client, error) {
	if redisURL == "" {
		return nil, errors.New("empty redis url")
	}
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, err
	}

	client := redis.NewClient(opts)
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, err
	}

	return client, nil
}

// MetricsService keeps per-route request counters in redis. A nil
// client yields a no-op service, so the API runs without redis.
type MetricsService struct {
	client *redis.Client
}

func NewMetricsService(client *redis.Client) *MetricsService {
	return &MetricsService{client: client}
}

// RequestMetrics increments the counter for the matched route after the
// handler completes. Counter failures never fail the request.
func (s *MetricsService) RequestMetrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()
		if s.client == nil {
			return
		}
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		key := fmt.Sprintf("%s%s:%s", requestMetricPrefix, c.Request.Method, route)
		_ = s.client.Incr(c.Request.Context(), key).Err()
	}
}

// Snapshot returns the current counters keyed by "METHOD:route".
func (s *MetricsService) Snapshot(ctx context.Context) (map[string]int64, error) {
	out := map[string]int64{}
	if s.client == nil {
		return out, nil
	}

	var cursor uint64
	for {
		keys, next, err := s.client.Scan(ctx, cursor, requestMetricPrefix+"*", 100).Result()
		if err != nil {
			return nil, err
		}
		for _, key := range keys {
			val, err := s.client.Get(ctx, key).Result()
			if err != nil {
				if errors.Is(err, redis.Nil) {
					continue
				}
				return nil, err
			}
			n, err := strconv.ParseInt(val, 10, 64)
			if err != nil {
				continue
			}
			out[key[len(requestMetricPrefix):]] = n
		}
		cursor = next
		if cursor == 0 {
			break
		}
	}
	return out, nil
}
