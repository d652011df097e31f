// Package cache keeps the most recent processed reading of every sensor in
// redis so status pages do not hit the history table.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"electrohub/backend/services/electrohub/internal/iot"
)

// ErrMiss is returned when no reading is cached for a sensor.
var ErrMiss = errors.New("cache miss")

// DefaultTTL bounds how long a latest reading stays cached.
const DefaultTTL = 24 * time.Hour

// LatestReadings caches iot.Processed values keyed by sensor.
type LatestReadings struct {
	client *redis.Client
	ttl    time.Duration
}

// NewLatestReadings returns redis-backed cache.
func NewLatestReadings(client *redis.Client, ttl time.Duration) *LatestReadings {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &LatestReadings{client: client, ttl: ttl}
}

func key(sensorID string) string {
	return fmt.Sprintf("electrohub:iot:latest:%s", sensorID)
}

// Save caches p as the latest reading of its sensor.
func (c *LatestReadings) Save(ctx context.Context, p iot.Processed) error {
	data, err := json.Marshal(p)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, key(p.SensorID), data, c.ttl).Err()
}

// Get returns the cached reading or ErrMiss.
func (c *LatestReadings) Get(ctx context.Context, sensorID string) (*iot.Processed, error) {
	raw, err := c.client.Get(ctx, key(sensorID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrMiss
	}
	if err != nil {
		return nil, err
	}
	var p iot.Processed
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, fmt.Errorf("decode cached reading: %w", err)
	}
	return &p, nil
}
