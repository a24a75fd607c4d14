package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"main/model"

	"github.com/redis/go-redis/v9"
)

// TrackerCache shields Mongo from public tracker polling: an active
// session's share link is typically open in several browsers refreshing
// every 10-15 seconds. Entries live for a few seconds and are deleted on
// every write, so the cache can only ever be briefly behind.
type TrackerCache struct {
	client *redis.Client
	ttl    time.Duration
}

// SessionCache is the tracker cache seen by the repositories and the
// health endpoint.
type SessionCache interface {
	SetSession(session *model.Session) error
	GetSession(token string) (*model.Session, error)
	DeleteSession(token string) error
	Ping() error
}

var GlobalTrackerCache SessionCache

// NewTrackerCache creates and initializes a new tracker cache
func NewTrackerCache(redisURL string, ttl time.Duration) (*TrackerCache, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %v", err)
	}

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %v", err)
	}

	return &TrackerCache{client: client, ttl: ttl}, nil
}

func (tc *TrackerCache) key(token string) string {
	return fmt.Sprintf("sos:token:%s", token)
}

// SetSession caches a session under its share token
func (tc *TrackerCache) SetSession(session *model.Session) error {
	if session == nil {
		return fmt.Errorf("cannot cache nil session")
	}

	data, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("failed to marshal session: %v", err)
	}

	ctx := context.Background()
	if err := tc.client.Set(ctx, tc.key(session.SessionID), data, tc.ttl).Err(); err != nil {
		return fmt.Errorf("failed to cache session: %v", err)
	}

	return nil
}

// GetSession retrieves a session from cache; (nil, nil) on a miss
func (tc *TrackerCache) GetSession(token string) (*model.Session, error) {
	if token == "" {
		return nil, fmt.Errorf("token cannot be empty")
	}

	ctx := context.Background()
	data, err := tc.client.Get(ctx, tc.key(token)).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get session from cache: %v", err)
	}

	var session model.Session
	if err := json.Unmarshal(data, &session); err != nil {
		return nil, fmt.Errorf("failed to unmarshal session: %v", err)
	}

	return &session, nil
}

// DeleteSession drops a cached session after any write touching it
func (tc *TrackerCache) DeleteSession(token string) error {
	if token == "" {
		return fmt.Errorf("token cannot be empty")
	}

	ctx := context.Background()
	if err := tc.client.Del(ctx, tc.key(token)).Err(); err != nil {
		return fmt.Errorf("failed to delete session from cache: %v", err)
	}

	return nil
}

// Ping reports cache reachability for the health endpoint
func (tc *TrackerCache) Ping() error {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	return tc.client.Ping(ctx).Err()
}
