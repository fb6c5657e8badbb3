package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// OrganizerStats is the dashboard read model cached per organizer.
type OrganizerStats struct {
	OrganizerID       uuid.UUID        `json:"organizer_id"`
	BookingsByStatus  map[string]int   `json:"bookings_by_status"`
	TicketsSold       int              `json:"tickets_sold"`
	GrossRevenueCents int64            `json:"gross_revenue_cents"`
	RefundedCents     int64            `json:"refunded_cents"`
	ComputedAt        time.Time        `json:"computed_at"`
}

// StatsCache is the TTL-cached read model over booking/event data. Every
// state-mutating engine operation calls Invalidate so dashboards never
// serve stale inventory or revenue numbers beyond the TTL.
type StatsCache interface {
	Get(ctx context.Context, organizerID uuid.UUID) (*OrganizerStats, error)
	Set(ctx context.Context, stats *OrganizerStats) error
	// Invalidate drops the cached entries for the affected organizer and
	// user. A zero uuid is skipped.
	Invalidate(ctx context.Context, organizerID, userID uuid.UUID) error
}

type StatsCacheImpl struct {
	client *redis.Client
	ttl    time.Duration
}

func NewStatsCache(client *redis.Client, ttl time.Duration) StatsCache {
	return &StatsCacheImpl{
		client: client,
		ttl:    ttl,
	}
}

func (c *StatsCacheImpl) organizerKey(organizerID uuid.UUID) string {
	return fmt.Sprintf("stats:organizer:%s", organizerID)
}

func (c *StatsCacheImpl) userKey(userID uuid.UUID) string {
	return fmt.Sprintf("stats:user:%s", userID)
}

// Get returns nil without error on a cache miss.
func (c *StatsCacheImpl) Get(ctx context.Context, organizerID uuid.UUID) (*OrganizerStats, error) {
	raw, err := c.client.Get(ctx, c.organizerKey(organizerID)).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var stats OrganizerStats
	if err := json.Unmarshal([]byte(raw), &stats); err != nil {
		return nil, fmt.Errorf("unmarshal cached stats: %w", err)
	}
	return &stats, nil
}

func (c *StatsCacheImpl) Set(ctx context.Context, stats *OrganizerStats) error {
	raw, err := json.Marshal(stats)
	if err != nil {
		return fmt.Errorf("marshal stats: %w", err)
	}
	return c.client.Set(ctx, c.organizerKey(stats.OrganizerID), raw, c.ttl).Err()
}

func (c *StatsCacheImpl) Invalidate(ctx context.Context, organizerID, userID uuid.UUID) error {
	keys := make([]string, 0, 2)
	if organizerID != uuid.Nil {
		keys = append(keys, c.organizerKey(organizerID))
	}
	if userID != uuid.Nil {
		keys = append(keys, c.userKey(userID))
	}
	if len(keys) == 0 {
		return nil
	}
	return c.client.Del(ctx, keys...).Err()
}
