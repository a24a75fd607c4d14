package usecase

import (
	"sync"
	"time"

	"main/model"
	"main/repository"
)

// fakeSessionStore mimics the Mongo-backed store in memory, including
// the reap-on-read behavior and last-write-wins timestamp stamping.
type fakeSessionStore struct {
	mu       sync.Mutex
	sessions []*model.Session
}

func (f *fakeSessionStore) ActivateSession(session *model.Session) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, s := range f.sessions {
		if s.UserID == session.UserID {
			s.IsActive = false
		}
	}

	now := time.Now()
	session.ActivatedAt = now
	session.LastPing = now
	session.IsActive = true

	copied := *session
	f.sessions = append(f.sessions, &copied)
	return nil
}

func (f *fakeSessionStore) UpdateLocation(userID string, lat, lng float64, address, region string) (*model.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, s := range f.sessions {
		if s.UserID == userID && s.IsActive {
			s.Latitude = lat
			s.Longitude = lng
			s.Address = address
			s.Region = region
			s.LastPing = time.Now()
			copied := *s
			return &copied, nil
		}
	}
	return nil, repository.ErrNoActiveSession
}

func (f *fakeSessionStore) DeactivateAll(userID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, s := range f.sessions {
		if s.UserID == userID {
			s.IsActive = false
		}
	}
	return nil
}

func (f *fakeSessionStore) GetByToken(sessionID string) (*model.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, s := range f.sessions {
		if s.SessionID == sessionID {
			copied := *s
			return &copied, nil
		}
	}
	return nil, nil
}

func (f *fakeSessionStore) GetActiveByOwner(userID string, staleBefore time.Time) (*model.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.reapLocked(staleBefore)

	for _, s := range f.sessions {
		if s.UserID == userID && s.IsActive {
			copied := *s
			return &copied, nil
		}
	}
	return nil, nil
}

func (f *fakeSessionStore) ListActive(staleBefore time.Time) ([]*model.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.reapLocked(staleBefore)

	var active []*model.Session
	// Most recently activated first; fixtures are appended in order.
	for i := len(f.sessions) - 1; i >= 0; i-- {
		if f.sessions[i].IsActive {
			copied := *f.sessions[i]
			active = append(active, &copied)
		}
	}
	return active, nil
}

func (f *fakeSessionStore) ActiveRegions(staleBefore time.Time) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.reapLocked(staleBefore)

	seen := map[string]bool{}
	var regions []string
	for _, s := range f.sessions {
		if s.IsActive && s.Region != "" && !seen[s.Region] {
			seen[s.Region] = true
			regions = append(regions, s.Region)
		}
	}
	return regions, nil
}

func (f *fakeSessionStore) ReapSession(sessionID string, staleBefore time.Time) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, s := range f.sessions {
		if s.SessionID == sessionID && s.IsActive && s.LastPing.Before(staleBefore) {
			s.IsActive = false
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeSessionStore) reapLocked(staleBefore time.Time) {
	for _, s := range f.sessions {
		if s.IsActive && s.LastPing.Before(staleBefore) {
			s.IsActive = false
		}
	}
}

// activeCount reports how many of a user's sessions are still active.
func (f *fakeSessionStore) activeCount(userID string) int {
	f.mu.Lock()
	defer f.mu.Unlock()

	count := 0
	for _, s := range f.sessions {
		if s.UserID == userID && s.IsActive {
			count++
		}
	}
	return count
}

// setLastPing backdates a stored session for staleness tests.
func (f *fakeSessionStore) setLastPing(sessionID string, t time.Time) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, s := range f.sessions {
		if s.SessionID == sessionID {
			s.LastPing = t
		}
	}
}

func (f *fakeSessionStore) isActive(sessionID string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, s := range f.sessions {
		if s.SessionID == sessionID {
			return s.IsActive
		}
	}
	return false
}

type fakeProfileStore struct {
	users map[string]*model.User
}

func (f *fakeProfileStore) FindUser(userID string) (*model.User, error) {
	if u, ok := f.users[userID]; ok {
		return u, nil
	}
	return nil, nil
}

type fakeBroadcastStore struct {
	mu         sync.Mutex
	broadcasts []*model.BroadcastMessage
}

func (f *fakeBroadcastStore) CreateBroadcast(broadcast *model.BroadcastMessage) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	broadcast.CreatedAt = time.Now()
	copied := *broadcast
	f.broadcasts = append(f.broadcasts, &copied)
	return nil
}

func (f *fakeBroadcastStore) ListRecent(limit int64, region string) ([]*model.BroadcastMessage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var out []*model.BroadcastMessage
	for i := len(f.broadcasts) - 1; i >= 0 && int64(len(out)) < limit; i-- {
		b := f.broadcasts[i]
		if region != "" && b.Region != region && b.Region != "" {
			continue
		}
		copied := *b
		out = append(out, &copied)
	}
	return out, nil
}
