package repository

import (
	"context"
	"sync"
	"testing"
	"time"

	"main/model"
	"main/services"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

func newMongoTestClient(t *testing.T) *mongo.Client {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI("mongodb://localhost:27017"))
	if err != nil {
		t.Skipf("mongodb not available: %v", err)
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		t.Skipf("mongodb not available: %v", err)
	}
	return client
}

func TestSessionRepoOperations(t *testing.T) {
	client := newMongoTestClient(t)
	defer client.Disconnect(context.Background())

	coll := client.Database("tocare").Collection("testSosSessions")
	defer coll.Drop(context.Background())

	sessionRepo := SessionRepo{MongoCollection: coll}

	ownerID := uuid.New().String()
	firstToken := uuid.New().String()
	secondToken := uuid.New().String()

	// Sessions activated now stay fresh against this cutoff; sessions
	// older than the cutoff are reaped on the next read.
	cutoff := time.Now().Add(-3 * time.Minute)

	t.Run("ActivateSession", func(t *testing.T) {
		err := sessionRepo.ActivateSession(&model.Session{
			SessionID: firstToken,
			UserID:    ownerID,
			Latitude:  12.9,
			Longitude: 77.6,
			Region:    "Bengaluru",
		})
		if err != nil {
			t.Fatal("activate session failed", err)
		}
	})

	t.Run("ActivateReplacesPriorSession", func(t *testing.T) {
		err := sessionRepo.ActivateSession(&model.Session{
			SessionID: secondToken,
			UserID:    ownerID,
			Latitude:  12.91,
			Longitude: 77.61,
			Region:    "Bengaluru",
		})
		if err != nil {
			t.Fatal("second activate failed", err)
		}

		session, err := sessionRepo.GetActiveByOwner(ownerID, cutoff)
		if err != nil {
			t.Fatal("get active by owner failed", err)
		}
		if session == nil || session.SessionID != secondToken {
			t.Fatalf("active session = %+v, want token %s", session, secondToken)
		}

		old, err := sessionRepo.GetByToken(firstToken)
		if err != nil {
			t.Fatal("get by token failed", err)
		}
		if old == nil || old.IsActive {
			t.Errorf("first session = %+v, want retained but inactive", old)
		}
	})

	t.Run("UpdateLocation", func(t *testing.T) {
		before, err := sessionRepo.GetByToken(secondToken)
		if err != nil {
			t.Fatal("get by token failed", err)
		}

		session, err := sessionRepo.UpdateLocation(ownerID, 13.0, 77.7, "MG Road", "Bengaluru")
		if err != nil {
			t.Fatal("update location failed", err)
		}
		if session.Latitude != 13.0 || session.Address != "MG Road" {
			t.Errorf("updated session = %+v", session)
		}
		if session.LastPing.Before(before.LastPing) {
			t.Errorf("last_ping went backwards: %v -> %v", before.LastPing, session.LastPing)
		}
	})

	t.Run("GetByTokenUnknown", func(t *testing.T) {
		session, err := sessionRepo.GetByToken(uuid.New().String())
		if err != nil {
			t.Fatal("get by token failed", err)
		}
		if session != nil {
			t.Errorf("got %+v for unknown token, want nil", session)
		}
	})

	t.Run("DeactivateAll", func(t *testing.T) {
		if err := sessionRepo.DeactivateAll(ownerID); err != nil {
			t.Fatal("deactivate failed", err)
		}
		// Idempotent.
		if err := sessionRepo.DeactivateAll(ownerID); err != nil {
			t.Fatal("second deactivate failed", err)
		}

		if _, err := sessionRepo.UpdateLocation(ownerID, 13.0, 77.7, "", ""); err != ErrNoActiveSession {
			t.Errorf("update after deactivate: err = %v, want ErrNoActiveSession", err)
		}
	})
}

// recordingCache is an in-memory stand-in for the Redis tracker cache.
type recordingCache struct {
	mu      sync.Mutex
	entries map[string]*model.Session
}

func newRecordingCache() *recordingCache {
	return &recordingCache{entries: map[string]*model.Session{}}
}

func (c *recordingCache) SetSession(session *model.Session) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	copied := *session
	c.entries[session.SessionID] = &copied
	return nil
}

func (c *recordingCache) GetSession(token string) (*model.Session, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if s, ok := c.entries[token]; ok {
		copied := *s
		return &copied, nil
	}
	return nil, nil
}

func (c *recordingCache) DeleteSession(token string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, token)
	return nil
}

func (c *recordingCache) Ping() error { return nil }

func (c *recordingCache) cached(token string) *model.Session {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.entries[token]
}

func TestSessionWritesEvictCachedTokens(t *testing.T) {
	client := newMongoTestClient(t)
	defer client.Disconnect(context.Background())

	coll := client.Database("tocare").Collection("testSosCacheEviction")
	defer coll.Drop(context.Background())

	sessionRepo := SessionRepo{MongoCollection: coll}

	cache := newRecordingCache()
	services.GlobalTrackerCache = cache
	defer func() { services.GlobalTrackerCache = nil }()

	ownerID := uuid.New().String()
	firstToken := uuid.New().String()
	secondToken := uuid.New().String()

	if err := sessionRepo.ActivateSession(&model.Session{
		SessionID: firstToken,
		UserID:    ownerID,
		Latitude:  12.9,
		Longitude: 77.6,
	}); err != nil {
		t.Fatal("activate session failed", err)
	}

	// A tracker poll populates the cache with the active copy.
	if _, err := sessionRepo.GetByToken(firstToken); err != nil {
		t.Fatal("get by token failed", err)
	}
	if cache.cached(firstToken) == nil {
		t.Fatal("tracker read did not cache the session")
	}

	t.Run("ActivateEvictsReplacedToken", func(t *testing.T) {
		err := sessionRepo.ActivateSession(&model.Session{
			SessionID: secondToken,
			UserID:    ownerID,
			Latitude:  12.91,
			Longitude: 77.61,
		})
		if err != nil {
			t.Fatal("second activate failed", err)
		}

		if cache.cached(firstToken) != nil {
			t.Error("replaced token still cached after re-activation")
		}

		// The next poll on the old link must see the flipped document,
		// not the stale active copy.
		old, err := sessionRepo.GetByToken(firstToken)
		if err != nil {
			t.Fatal("get by token failed", err)
		}
		if old == nil || old.IsActive {
			t.Errorf("old session = %+v, want inactive", old)
		}
	})

	t.Run("DeactivateEvictsCurrentToken", func(t *testing.T) {
		if _, err := sessionRepo.GetByToken(secondToken); err != nil {
			t.Fatal("get by token failed", err)
		}
		if cache.cached(secondToken) == nil {
			t.Fatal("tracker read did not cache the session")
		}

		if err := sessionRepo.DeactivateAll(ownerID); err != nil {
			t.Fatal("deactivate failed", err)
		}

		if cache.cached(secondToken) != nil {
			t.Error("token still cached after explicit deactivation")
		}

		session, err := sessionRepo.GetByToken(secondToken)
		if err != nil {
			t.Fatal("get by token failed", err)
		}
		if session == nil || session.IsActive {
			t.Errorf("session = %+v, want inactive", session)
		}
	})
}

func TestSessionRepoReaping(t *testing.T) {
	client := newMongoTestClient(t)
	defer client.Disconnect(context.Background())

	coll := client.Database("tocare").Collection("testSosReaping")
	defer coll.Drop(context.Background())

	sessionRepo := SessionRepo{MongoCollection: coll}

	staleToken := uuid.New().String()
	freshToken := uuid.New().String()
	now := time.Now()

	// Seed one session well past the threshold and one fresh, bypassing
	// ActivateSession so the stale last_ping survives.
	docs := []interface{}{
		model.Session{
			SessionID:   staleToken,
			UserID:      uuid.New().String(),
			IsActive:    true,
			Region:      "North",
			ActivatedAt: now.Add(-10 * time.Minute),
			LastPing:    now.Add(-10 * time.Minute),
		},
		model.Session{
			SessionID:   freshToken,
			UserID:      uuid.New().String(),
			IsActive:    true,
			Region:      "South",
			ActivatedAt: now,
			LastPing:    now,
		},
	}
	if _, err := coll.InsertMany(context.Background(), docs); err != nil {
		t.Fatal("seeding sessions failed", err)
	}

	cutoff := now.Add(-3 * time.Minute)

	t.Run("ListActiveReapsStale", func(t *testing.T) {
		sessions, err := sessionRepo.ListActive(cutoff)
		if err != nil {
			t.Fatal("list active failed", err)
		}
		if len(sessions) != 1 || sessions[0].SessionID != freshToken {
			t.Fatalf("active sessions = %+v, want only the fresh one", sessions)
		}

		var stale model.Session
		if err := coll.FindOne(context.Background(), bson.M{"session_id": staleToken}).Decode(&stale); err != nil {
			t.Fatal("fetching reaped session failed", err)
		}
		if stale.IsActive {
			t.Error("stale session still marked active after reap")
		}
	})

	t.Run("ActiveRegions", func(t *testing.T) {
		regions, err := sessionRepo.ActiveRegions(cutoff)
		if err != nil {
			t.Fatal("active regions failed", err)
		}
		if len(regions) != 1 || regions[0] != "South" {
			t.Errorf("regions = %v, want [South]", regions)
		}
	})

	t.Run("ReapSessionRespectsFreshPing", func(t *testing.T) {
		flipped, err := sessionRepo.ReapSession(freshToken, cutoff)
		if err != nil {
			t.Fatal("reap session failed", err)
		}
		if flipped {
			t.Error("fresh session was reaped")
		}

		flipped, err = sessionRepo.ReapSession(staleToken, cutoff)
		if err != nil {
			t.Fatal("reap session failed", err)
		}
		if flipped {
			t.Error("already-inactive session reported as flipped")
		}
	})
}
