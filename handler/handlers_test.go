package handler

import (
	"os"
	"time"

	"main/model"
	"main/repository"
	"main/services"
	"main/usecase"
	"main/utils"

	"github.com/gin-gonic/gin"
)

func init() {
	os.Setenv("GO_ENV", "test")
	utils.InitJWT()
	utils.InitValidator()
	services.InitIdentity()
	gin.SetMode(gin.TestMode)
}

// memSessionStore is a minimal in-memory stand-in for the Mongo store.
type memSessionStore struct {
	sessions map[string]*model.Session // keyed by share token
}

func newMemSessionStore() *memSessionStore {
	return &memSessionStore{sessions: map[string]*model.Session{}}
}

func (m *memSessionStore) ActivateSession(session *model.Session) error {
	for _, s := range m.sessions {
		if s.UserID == session.UserID {
			s.IsActive = false
		}
	}
	now := time.Now()
	session.ActivatedAt = now
	session.LastPing = now
	session.IsActive = true
	copied := *session
	m.sessions[session.SessionID] = &copied
	return nil
}

func (m *memSessionStore) UpdateLocation(userID string, lat, lng float64, address, region string) (*model.Session, error) {
	for _, s := range m.sessions {
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

func (m *memSessionStore) DeactivateAll(userID string) error {
	for _, s := range m.sessions {
		if s.UserID == userID {
			s.IsActive = false
		}
	}
	return nil
}

func (m *memSessionStore) GetByToken(sessionID string) (*model.Session, error) {
	if s, ok := m.sessions[sessionID]; ok {
		copied := *s
		return &copied, nil
	}
	return nil, nil
}

func (m *memSessionStore) GetActiveByOwner(userID string, staleBefore time.Time) (*model.Session, error) {
	for _, s := range m.sessions {
		if s.UserID == userID && s.IsActive && !s.LastPing.Before(staleBefore) {
			copied := *s
			return &copied, nil
		}
	}
	return nil, nil
}

func (m *memSessionStore) ListActive(staleBefore time.Time) ([]*model.Session, error) {
	var active []*model.Session
	for _, s := range m.sessions {
		if s.IsActive && s.LastPing.Before(staleBefore) {
			s.IsActive = false
		}
		if s.IsActive {
			copied := *s
			active = append(active, &copied)
		}
	}
	return active, nil
}

func (m *memSessionStore) ActiveRegions(staleBefore time.Time) ([]string, error) {
	seen := map[string]bool{}
	var regions []string
	for _, s := range m.sessions {
		if s.IsActive && !s.LastPing.Before(staleBefore) && s.Region != "" && !seen[s.Region] {
			seen[s.Region] = true
			regions = append(regions, s.Region)
		}
	}
	return regions, nil
}

func (m *memSessionStore) ReapSession(sessionID string, staleBefore time.Time) (bool, error) {
	if s, ok := m.sessions[sessionID]; ok && s.IsActive && s.LastPing.Before(staleBefore) {
		s.IsActive = false
		return true, nil
	}
	return false, nil
}

type memProfileStore struct {
	users map[string]*model.User
}

func (m *memProfileStore) FindUser(userID string) (*model.User, error) {
	if u, ok := m.users[userID]; ok {
		return u, nil
	}
	return nil, nil
}

type memBroadcastStore struct {
	broadcasts []*model.BroadcastMessage
}

func (m *memBroadcastStore) CreateBroadcast(broadcast *model.BroadcastMessage) error {
	broadcast.CreatedAt = time.Now()
	copied := *broadcast
	m.broadcasts = append(m.broadcasts, &copied)
	return nil
}

func (m *memBroadcastStore) ListRecent(limit int64, region string) ([]*model.BroadcastMessage, error) {
	var out []*model.BroadcastMessage
	for i := len(m.broadcasts) - 1; i >= 0 && int64(len(out)) < limit; i-- {
		b := m.broadcasts[i]
		if region != "" && b.Region != region && b.Region != "" {
			continue
		}
		copied := *b
		out = append(out, &copied)
	}
	return out, nil
}

func newTestSOSService(store *memSessionStore) *usecase.SOSService {
	return &usecase.SOSService{
		Sessions: store,
		Profiles: &memProfileStore{users: map[string]*model.User{
			"user-1": {UserID: "user-1", DisplayName: "Asha"},
		}},
		StaleThreshold: 3 * time.Minute,
	}
}

func newTestHelpdeskService(store *memSessionStore, broadcasts *memBroadcastStore) *usecase.HelpdeskService {
	return &usecase.HelpdeskService{
		Sessions:       store,
		Broadcasts:     broadcasts,
		Profiles:       &memProfileStore{users: map[string]*model.User{}},
		StaleThreshold: 3 * time.Minute,
	}
}

// asUser fakes an authenticated end-user request context.
func asUser(userID string, h gin.HandlerFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set("user_id", userID)
		h(c)
	}
}

// asOperator fakes an authenticated helpdesk request context.
func asOperator(operator string, h gin.HandlerFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set("operator", operator)
		h(c)
	}
}
