package domain

import "errors"

var (
	// ErrSessionNotFound is returned by session stores for unknown ids.
	ErrSessionNotFound = errors.New("session not found")
	// ErrSessionEnded is returned when a message targets a closed session.
	ErrSessionEnded = errors.New("session ended")
	// ErrInvalidInput wraps validation failures of service inputs.
	ErrInvalidInput = errors.New("invalid input")
)

// Message represents a any message in a timeline (user or agent)
type Message struct {
	ID        MessageID
	SessionID SessionID
	Author    Role
	Text      string
	CreatedAt Timestamp

	// Metadata holds additional information about the message
	Tags        []string
	Mode        TherapyMode
	ContentType string // e.g., "text", "crisis", "continuity"
}

// Session represent a concrete "relationship" between a user and the agent.
// The live TherapeuticContext is not persisted with it.
type Session struct {
	ID        SessionID
	UserID    UserID
	CreatedAt Timestamp
	UpdatedAt Timestamp

	Title string
	// Anonymous is true when UserID was derived from a session token.
	Anonymous bool
	// EndedAt is zero while the session is open.
	EndedAt Timestamp
}

func (s *Session) Ended() bool {
	return !s.EndedAt.IsZero()
}
