package usecase

import (
	"errors"
	"strings"
	"time"

	"main/dto"
	"main/model"
)

// MaxBroadcastLength bounds operator messages; anything longer is
// operator error, not an announcement.
const MaxBroadcastLength = 500

var (
	ErrEmptyBroadcast   = errors.New("broadcast message is empty")
	ErrBroadcastTooLong = errors.New("broadcast message too long")
)

// OperatorStore is the per-operator credential directory. Optional: a
// nil store means the desk runs on the shared credential from the
// environment.
type OperatorStore interface {
	FindOperator(username string) (*model.Operator, error)
}

// BroadcastStore is the append-only operator message log.
type BroadcastStore interface {
	CreateBroadcast(broadcast *model.BroadcastMessage) error
	ListRecent(limit int64, region string) ([]*model.BroadcastMessage, error)
}

// HelpdeskService is the response-desk's view: every active session
// across all users, joined with enough profile data for phone follow-up,
// plus broadcast publishing.
type HelpdeskService struct {
	Sessions       SessionStore
	Broadcasts     BroadcastStore
	Profiles       ProfileStore
	StaleThreshold time.Duration
}

func (s *HelpdeskService) threshold() time.Duration {
	if s.StaleThreshold > 0 {
		return s.StaleThreshold
	}
	return DefaultStaleThreshold
}

// ListActiveSessions reaps then returns summaries, most recently
// activated first, optionally narrowed by a case-insensitive substring
// match on region.
func (s *HelpdeskService) ListActiveSessions(regionFilter string) ([]dto.SessionSummary, error) {
	staleBefore := time.Now().Add(-s.threshold())
	sessions, err := s.Sessions.ListActive(staleBefore)
	if err != nil {
		return nil, err
	}

	needle := strings.ToLower(strings.TrimSpace(regionFilter))

	summaries := make([]dto.SessionSummary, 0, len(sessions))
	for _, session := range sessions {
		if needle != "" && !strings.Contains(strings.ToLower(session.Region), needle) {
			continue
		}

		// Profile lookup is best-effort: a missing profile must not hide
		// an emergency from the console.
		owner, err := s.Profiles.FindUser(session.UserID)
		if err != nil {
			owner = nil
		}

		summaries = append(summaries, dto.ToSessionSummary(session, owner))
	}

	return summaries, nil
}

// ListActiveRegions returns the distinct non-empty regions in use by
// currently active sessions.
func (s *HelpdeskService) ListActiveRegions() ([]string, error) {
	staleBefore := time.Now().Add(-s.threshold())
	return s.Sessions.ActiveRegions(staleBefore)
}

// PublishBroadcast appends an operator message, optionally scoped to a
// region. Whitespace-only messages are rejected.
func (s *HelpdeskService) PublishBroadcast(message, region, sentBy string) (*model.BroadcastMessage, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return nil, ErrEmptyBroadcast
	}
	if len(message) > MaxBroadcastLength {
		return nil, ErrBroadcastTooLong
	}

	broadcast := &model.BroadcastMessage{
		Message: message,
		Region:  strings.TrimSpace(region),
		SentBy:  sentBy,
	}

	if err := s.Broadcasts.CreateBroadcast(broadcast); err != nil {
		return nil, err
	}

	return broadcast, nil
}

// ListBroadcasts returns recent messages, newest first. An empty region
// returns everything; end users read through this unfiltered (the
// region argument is the extension point if that ever changes).
func (s *HelpdeskService) ListBroadcasts(limit int64, region string) ([]*model.BroadcastMessage, error) {
	return s.Broadcasts.ListRecent(limit, region)
}
