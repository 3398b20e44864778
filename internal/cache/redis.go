package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/rahulyhg/trackbook/internal/core/model"
	"github.com/rahulyhg/trackbook/internal/logger"
)

var (
	redisClient *redis.Client
	enabled     bool
)

// Initialize sets up Redis connection if redisURL is provided
func Initialize(redisURL string) {
	if redisURL == "" {
		logger.Info("Redis URL not provided, caching disabled")
		enabled = false
		return
	}

	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		logger.Warn("failed to parse Redis URL, caching disabled", logger.ErrorField(err))
		enabled = false
		return
	}

	client := redis.NewClient(opt)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		logger.Warn("failed to connect to Redis, caching disabled", logger.ErrorField(err))
		_ = client.Close()
		enabled = false
		return
	}

	redisClient = client
	enabled = true
	logger.Info("Redis cache initialized")
}

// Client returns the shared client, nil when caching is disabled.
func Client() *redis.Client {
	if !enabled {
		return nil
	}
	return redisClient
}

func Enabled() bool {
	return enabled
}

// Close closes the Redis connection
func Close() {
	if redisClient != nil {
		_ = redisClient.Close()
	}
	redisClient = nil
	enabled = false
}

// Set stores a value in cache with expiration
func Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	if !enabled {
		return nil
	}

	data, err := json.Marshal(value)
	if err != nil {
		return err
	}

	return redisClient.Set(ctx, key, data, expiration).Err()
}

// Get retrieves a value from cache. It returns redis.Nil on a miss or when
// caching is disabled.
func Get(ctx context.Context, key string, dest interface{}) error {
	if !enabled {
		return redis.Nil
	}

	data, err := redisClient.Get(ctx, key).Bytes()
	if err != nil {
		return err
	}

	return json.Unmarshal(data, dest)
}

// Delete removes a key from cache
func Delete(ctx context.Context, key string) error {
	if !enabled {
		return nil
	}

	return redisClient.Del(ctx, key).Err()
}

func summaryKey(deviceID string) string {
	return "recording:" + deviceID + ":summary"
}

func SetLiveSummary(ctx context.Context, deviceID string, summary model.TrackSummary, ttl time.Duration) error {
	return Set(ctx, summaryKey(deviceID), summary, ttl)
}

func GetLiveSummary(ctx context.Context, deviceID string) (*model.TrackSummary, error) {
	var summary model.TrackSummary
	if err := Get(ctx, summaryKey(deviceID), &summary); err != nil {
		return nil, err
	}
	return &summary, nil
}

func DeleteLiveSummary(ctx context.Context, deviceID string) error {
	return Delete(ctx, summaryKey(deviceID))
}
