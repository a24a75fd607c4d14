package repository

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"time"

	"main/model"
	"main/services"
	"main/utils"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ErrNoActiveSession is returned by write operations that require the
// caller to have a live session.
var ErrNoActiveSession = errors.New("no active session")

type SessionRepo struct {
	MongoCollection *mongo.Collection
}

func GetSessionRepo(client *mongo.Client) *SessionRepo {
	dbName := os.Getenv("MONGO_DB")
	collectionName := os.Getenv("SOS_COLLECTION")
	return &SessionRepo{
		MongoCollection: client.Database(dbName).Collection(collectionName),
	}
}

// ActivateSession deactivates any prior active session owned by the same
// user and inserts the new one. Both writes run in a single transaction
// where the deployment supports one; on standalone Mongo we fall back to
// sequential writes, and the partial unique index on
// {user_id, is_active: true} keeps two racing activations from both
// committing an active document.
func (r *SessionRepo) ActivateSession(session *model.Session) error {
	timer := utils.TrackDBOperation("insert", "sos_sessions")
	defer timer.ObserveDuration()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if session == nil {
		utils.TrackError("database", "nil_session")
		return fmt.Errorf("session cannot be nil")
	}

	if session.SessionID == "" || session.UserID == "" {
		utils.TrackError("database", "invalid_session_data")
		return fmt.Errorf("invalid session data: missing required fields")
	}

	// The store owns the timestamps; nothing from the caller is trusted.
	now := time.Now()
	session.ActivatedAt = now
	session.LastPing = now
	session.IsActive = true

	deactivate := bson.M{"$set": bson.M{"is_active": false}}
	filter := bson.M{"user_id": session.UserID, "is_active": true}

	// Tokens to evict must be captured before the flip; once the prior
	// sessions are inactive this filter can no longer find them, and
	// their cached copies would keep serving is_active=true until TTL.
	staleTokens := r.cachedOwnerTokens(ctx, session.UserID)

	client := r.MongoCollection.Database().Client()
	mongoSession, err := client.StartSession()
	if err == nil {
		defer mongoSession.EndSession(ctx)
		_, txnErr := mongoSession.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
			if _, err := r.MongoCollection.UpdateMany(sc, filter, deactivate); err != nil {
				return nil, err
			}
			return r.MongoCollection.InsertOne(sc, session)
		})
		if txnErr == nil {
			r.invalidateTokens(staleTokens)
			return nil
		}
		// Standalone deployments reject transactions outright; anything
		// else is a real failure.
		var cmdErr mongo.CommandError
		if !errors.As(txnErr, &cmdErr) || cmdErr.Name != "IllegalOperation" {
			utils.TrackError("database", "session_activation_failed")
			return fmt.Errorf("failed to activate session: %w", txnErr)
		}
	}

	if _, err := r.MongoCollection.UpdateMany(ctx, filter, deactivate); err != nil {
		utils.TrackError("database", "session_deactivation_failed")
		return fmt.Errorf("failed to deactivate prior sessions: %w", err)
	}

	if _, err := r.MongoCollection.InsertOne(ctx, session); err != nil {
		utils.TrackError("database", "session_activation_failed")
		return fmt.Errorf("failed to activate session: %w", err)
	}

	r.invalidateTokens(staleTokens)
	return nil
}

// UpdateLocation overwrites the position of the caller's active session
// and stamps last_ping, returning the updated document. The stamp is
// assigned here, never taken from the caller, so it is monotonically
// non-decreasing under normal write ordering.
func (r *SessionRepo) UpdateLocation(userID string, lat, lng float64, address, region string) (*model.Session, error) {
	timer := utils.TrackDBOperation("update", "sos_sessions")
	defer timer.ObserveDuration()

	if userID == "" {
		utils.TrackError("database", "empty_user_id")
		return nil, fmt.Errorf("userID cannot be empty")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	update := bson.M{
		"$set": bson.M{
			"latitude":  lat,
			"longitude": lng,
			"address":   address,
			"region":    region,
			"last_ping": time.Now(),
		},
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var session model.Session
	err := r.MongoCollection.FindOneAndUpdate(
		ctx,
		bson.M{"user_id": userID, "is_active": true},
		update,
		opts,
	).Decode(&session)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrNoActiveSession
		}
		utils.TrackError("database", "session_update_failed")
		return nil, fmt.Errorf("failed to update session location: %w", err)
	}

	if services.GlobalTrackerCache != nil {
		if err := services.GlobalTrackerCache.SetSession(&session); err != nil {
			utils.TrackError("cache", "session_cache_set_failed")
			log.Printf("Warning: Failed to cache session: %v", err)
		}
	}

	return &session, nil
}

// DeactivateAll marks every active session of the user inactive.
// Idempotent: zero matched documents is not an error.
func (r *SessionRepo) DeactivateAll(userID string) error {
	timer := utils.TrackDBOperation("update", "sos_sessions")
	defer timer.ObserveDuration()

	if userID == "" {
		utils.TrackError("database", "empty_user_id")
		return fmt.Errorf("userID cannot be empty")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Capture before, evict after: invalidating first would let a
	// concurrent tracker read re-populate the cache with the still-active
	// document in the window before the flip lands.
	staleTokens := r.cachedOwnerTokens(ctx, userID)

	_, err := r.MongoCollection.UpdateMany(
		ctx,
		bson.M{"user_id": userID, "is_active": true},
		bson.M{"$set": bson.M{"is_active": false}},
	)
	if err != nil {
		utils.TrackError("database", "session_deactivation_failed")
		return fmt.Errorf("failed to deactivate sessions: %w", err)
	}

	r.invalidateTokens(staleTokens)
	return nil
}

// GetByToken fetches a session by its share token, active or not.
// Returns (nil, nil) when the token was never issued.
func (r *SessionRepo) GetByToken(sessionID string) (*model.Session, error) {
	timer := utils.TrackDBOperation("find", "sos_sessions")
	defer timer.ObserveDuration()

	if sessionID == "" {
		utils.TrackError("database", "empty_session_id")
		return nil, fmt.Errorf("sessionID cannot be empty")
	}

	if services.GlobalTrackerCache != nil {
		if session, err := services.GlobalTrackerCache.GetSession(sessionID); err == nil && session != nil {
			utils.TrackCacheOperation("tracker", true)
			return session, nil
		}
		utils.TrackCacheOperation("tracker", false)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var session model.Session
	err := r.MongoCollection.FindOne(ctx, bson.M{"session_id": sessionID}).Decode(&session)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		utils.TrackError("database", "session_fetch_failed")
		return nil, fmt.Errorf("failed to fetch session: %w", err)
	}

	if services.GlobalTrackerCache != nil {
		if err := services.GlobalTrackerCache.SetSession(&session); err != nil {
			utils.TrackError("cache", "session_cache_set_failed")
			log.Printf("Warning: Failed to cache session: %v", err)
		}
	}

	return &session, nil
}

// GetActiveByOwner returns the user's current active session after
// reaping, or (nil, nil) when there is none.
func (r *SessionRepo) GetActiveByOwner(userID string, staleBefore time.Time) (*model.Session, error) {
	timer := utils.TrackDBOperation("find", "sos_sessions")
	defer timer.ObserveDuration()

	if userID == "" {
		utils.TrackError("database", "empty_user_id")
		return nil, fmt.Errorf("userID cannot be empty")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := r.reapStale(ctx, bson.M{"user_id": userID}, staleBefore); err != nil {
		return nil, err
	}

	var session model.Session
	err := r.MongoCollection.FindOne(ctx, bson.M{"user_id": userID, "is_active": true}).Decode(&session)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		utils.TrackError("database", "session_fetch_failed")
		return nil, fmt.Errorf("failed to fetch active session: %w", err)
	}

	return &session, nil
}

// ListActive reaps stale sessions and returns the remaining active set,
// most recently activated first.
func (r *SessionRepo) ListActive(staleBefore time.Time) ([]*model.Session, error) {
	timer := utils.TrackDBOperation("find", "sos_sessions")
	defer timer.ObserveDuration()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := r.reapStale(ctx, bson.M{}, staleBefore); err != nil {
		return nil, err
	}

	opts := options.Find().SetSort(bson.M{"activated_at": -1})
	cursor, err := r.MongoCollection.Find(ctx, bson.M{"is_active": true}, opts)
	if err != nil {
		utils.TrackError("database", "session_fetch_failed")
		return nil, fmt.Errorf("failed to fetch active sessions: %w", err)
	}
	defer cursor.Close(ctx)

	var sessions []*model.Session
	if err = cursor.All(ctx, &sessions); err != nil {
		return nil, fmt.Errorf("failed to decode sessions: %w", err)
	}

	utils.ActiveSOSSessions.Set(float64(len(sessions)))

	return sessions, nil
}

// ActiveRegions returns the distinct non-empty region labels among
// currently active sessions, after reaping.
func (r *SessionRepo) ActiveRegions(staleBefore time.Time) ([]string, error) {
	timer := utils.TrackDBOperation("distinct", "sos_sessions")
	defer timer.ObserveDuration()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := r.reapStale(ctx, bson.M{}, staleBefore); err != nil {
		return nil, err
	}

	values, err := r.MongoCollection.Distinct(ctx, "region", bson.M{
		"is_active": true,
		"region":    bson.M{"$ne": ""},
	})
	if err != nil {
		utils.TrackError("database", "region_fetch_failed")
		return nil, fmt.Errorf("failed to fetch active regions: %w", err)
	}

	regions := make([]string, 0, len(values))
	for _, v := range values {
		if s, ok := v.(string); ok && s != "" {
			regions = append(regions, s)
		}
	}

	return regions, nil
}

// ReapSession flips one session inactive if, and only if, its last_ping
// is still older than the cutoff at the moment of the write. Returns
// whether the flip happened; false means a concurrent ping won the race.
func (r *SessionRepo) ReapSession(sessionID string, staleBefore time.Time) (bool, error) {
	timer := utils.TrackDBOperation("update", "sos_sessions")
	defer timer.ObserveDuration()

	if sessionID == "" {
		return false, fmt.Errorf("sessionID cannot be empty")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	result, err := r.MongoCollection.UpdateOne(
		ctx,
		bson.M{
			"session_id": sessionID,
			"is_active":  true,
			"last_ping":  bson.M{"$lt": staleBefore},
		},
		bson.M{"$set": bson.M{"is_active": false}},
	)
	if err != nil {
		utils.TrackError("database", "session_reap_failed")
		return false, fmt.Errorf("failed to reap session: %w", err)
	}

	// Either way the cached copy is suspect now.
	if services.GlobalTrackerCache != nil {
		if err := services.GlobalTrackerCache.DeleteSession(sessionID); err != nil {
			log.Printf("Warning: Failed to invalidate session cache: %v", err)
		}
	}

	if result.ModifiedCount > 0 {
		utils.TrackSOSOperation("reap")
		return true, nil
	}
	return false, nil
}

// reapStale persists the staleness rule for every matching active
// session in one write. The last_ping condition is part of the update
// filter, so each document is re-checked at the moment of its flip and a
// concurrently accepted ping cannot be clobbered by a stale snapshot.
func (r *SessionRepo) reapStale(ctx context.Context, scope bson.M, staleBefore time.Time) error {
	filter := bson.M{
		"is_active": true,
		"last_ping": bson.M{"$lt": staleBefore},
	}
	for k, v := range scope {
		filter[k] = v
	}

	result, err := r.MongoCollection.UpdateMany(ctx, filter, bson.M{"$set": bson.M{"is_active": false}})
	if err != nil {
		utils.TrackError("database", "session_reap_failed")
		return fmt.Errorf("failed to reap stale sessions: %w", err)
	}

	if result.ModifiedCount > 0 {
		utils.SOSOperationsTotal.WithLabelValues("reap").Add(float64(result.ModifiedCount))
		log.Printf("Reaped %d stale sessions", result.ModifiedCount)
	}

	// Reaped tokens may linger in the tracker cache until its short TTL
	// expires; the tracker re-applies the staleness rule on every read,
	// so a cached copy can never be reported active past the threshold.
	return nil
}

// cachedOwnerTokens returns the share tokens of the owner's currently
// active sessions. Callers capture them before a write flips those
// sessions inactive, then evict after the write commits.
func (r *SessionRepo) cachedOwnerTokens(ctx context.Context, userID string) []string {
	if services.GlobalTrackerCache == nil {
		return nil
	}

	cursor, err := r.MongoCollection.Find(ctx, bson.M{"user_id": userID, "is_active": true})
	if err != nil {
		log.Printf("Warning: Failed to look up sessions for cache invalidation: %v", err)
		return nil
	}
	defer cursor.Close(ctx)

	var sessions []*model.Session
	if err := cursor.All(ctx, &sessions); err != nil {
		log.Printf("Warning: Failed to decode sessions for cache invalidation: %v", err)
		return nil
	}

	tokens := make([]string, 0, len(sessions))
	for _, s := range sessions {
		tokens = append(tokens, s.SessionID)
	}
	return tokens
}

func (r *SessionRepo) invalidateTokens(tokens []string) {
	if services.GlobalTrackerCache == nil {
		return
	}

	for _, token := range tokens {
		if err := services.GlobalTrackerCache.DeleteSession(token); err != nil {
			log.Printf("Warning: Failed to invalidate session cache: %v", err)
		}
	}
}
