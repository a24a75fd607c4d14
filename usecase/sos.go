package usecase

import (
	"errors"
	"time"

	"main/dto"
	"main/model"
	"main/utils"
)

// DefaultStaleThreshold is how long a session may go without a ping
// before reads treat it as over.
const DefaultStaleThreshold = 3 * time.Minute

var ErrInvalidCoordinates = errors.New("invalid coordinates")

// SessionStore is what the SOS and helpdesk services need from the
// session repository. Every read method takes the staleness cutoff so
// the reaping rule is applied wherever active sessions are observed.
type SessionStore interface {
	ActivateSession(session *model.Session) error
	UpdateLocation(userID string, lat, lng float64, address, region string) (*model.Session, error)
	DeactivateAll(userID string) error
	GetByToken(sessionID string) (*model.Session, error)
	GetActiveByOwner(userID string, staleBefore time.Time) (*model.Session, error)
	ListActive(staleBefore time.Time) ([]*model.Session, error)
	ActiveRegions(staleBefore time.Time) ([]string, error)
	ReapSession(sessionID string, staleBefore time.Time) (bool, error)
}

// ProfileStore supplies owner profiles; read-only collaborator.
type ProfileStore interface {
	FindUser(userID string) (*model.User, error)
}

// ReapIfStale is the staleness rule: an active session whose last ping
// is older than threshold is over, no matter what its flag still says.
// Pure decision only; persisting the flip is the store's job.
func ReapIfStale(session *model.Session, now time.Time, threshold time.Duration) bool {
	if session == nil || !session.IsActive {
		return false
	}
	return now.Sub(session.LastPing) > threshold
}

// SOSService orchestrates the owning user's side of an emergency
// session plus the unauthenticated tracker view.
type SOSService struct {
	Sessions       SessionStore
	Profiles       ProfileStore
	StaleThreshold time.Duration
}

func (s *SOSService) threshold() time.Duration {
	if s.StaleThreshold > 0 {
		return s.StaleThreshold
	}
	return DefaultStaleThreshold
}

// Activate starts a fresh sharing session, ending any prior one owned by
// the same user, and returns the new share token.
func (s *SOSService) Activate(userID string, lat, lng float64, address, region, deviceInfo string) (string, error) {
	if !utils.ValidCoordinates(lat, lng) {
		return "", ErrInvalidCoordinates
	}

	session := &model.Session{
		SessionID:  utils.GenerateShareToken(),
		UserID:     userID,
		Latitude:   lat,
		Longitude:  lng,
		Address:    address,
		Region:     region,
		DeviceInfo: deviceInfo,
		IsActive:   true,
	}

	if err := s.Sessions.ActivateSession(session); err != nil {
		return "", err
	}

	utils.TrackSOSOperation("activate")
	return session.SessionID, nil
}

// UpdateLocation refreshes the caller's active session and returns the
// store-stamped ping time. Fails with repository.ErrNoActiveSession when
// the caller has nothing live; the client is expected to re-activate.
func (s *SOSService) UpdateLocation(userID string, lat, lng float64, address, region string) (time.Time, error) {
	if !utils.ValidCoordinates(lat, lng) {
		return time.Time{}, ErrInvalidCoordinates
	}

	session, err := s.Sessions.UpdateLocation(userID, lat, lng, address, region)
	if err != nil {
		return time.Time{}, err
	}

	utils.TrackSOSOperation("update")
	return session.LastPing, nil
}

// Deactivate ends all of the caller's active sessions. Idempotent.
func (s *SOSService) Deactivate(userID string) error {
	if err := s.Sessions.DeactivateAll(userID); err != nil {
		return err
	}

	utils.TrackSOSOperation("deactivate")
	return nil
}

// OwnSession returns the caller's current active session for
// resume-on-reload, or nil when there is none (including when the last
// one has gone stale).
func (s *SOSService) OwnSession(userID string) (*model.Session, error) {
	staleBefore := time.Now().Add(-s.threshold())
	return s.Sessions.GetActiveByOwner(userID, staleBefore)
}

// PublicView resolves a share token into the tracker view, applying the
// staleness rule first so a poller on an old link sees is_active=false
// even if no write has touched the record since. Returns (nil, nil) for
// tokens that were never issued.
func (s *SOSService) PublicView(token string) (*dto.PublicView, error) {
	session, err := s.Sessions.GetByToken(token)
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, nil
	}

	now := time.Now()
	if ReapIfStale(session, now, s.threshold()) {
		flipped, err := s.Sessions.ReapSession(session.SessionID, now.Add(-s.threshold()))
		if err != nil {
			return nil, err
		}
		if flipped {
			session.IsActive = false
		} else if fresh, err := s.Sessions.GetByToken(session.SessionID); err == nil && fresh != nil {
			// A concurrent ping beat the flip; trust the fresh record.
			session = fresh
		}
	}

	displayName := ""
	if owner, err := s.Profiles.FindUser(session.UserID); err == nil && owner != nil {
		displayName = owner.DisplayName
	}

	return dto.ToPublicView(session, displayName), nil
}
