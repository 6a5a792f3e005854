package domain

import "context"

// LLMClient defines how the core application interacts with an LLM service.
type LLMClient interface {
	GenerateReply(ctx context.Context, userMessage string, convCtx ConversationContext) (string, error)
}

// ConversationContext gives the LLM minimal context about the turn.
type ConversationContext struct {
	SessionID SessionID
	UserID    UserID
	Mode      TherapyMode
	Emotion   Emotion
	Framework Framework
	// Draft is the rule-based reply the model should build on.
	Draft            string
	CopingSuggestion string
	History          []*Message // last N interactions
}

// SessionStore defines session's persistence
type SessionStore interface {
	CreateSession(ctx context.Context, session *Session) error
	UpdateSession(ctx context.Context, session *Session) error
	GetSession(ctx context.Context, id SessionID) (*Session, error)
	ListSessionsByUser(ctx context.Context, userID UserID, limit int) ([]*Session, error)
}

// MessageStore defines message's persistence
type MessageStore interface {
	AppendMessage(ctx context.Context, msg *Message) error
	GetMessagesBySession(ctx context.Context, sessionID SessionID, limit int) ([]*Message, error)
}

// MemoryBackend is a remote store for the long-term memory log.
// Implementations may be unreachable; callers treat every error as "absent".
type MemoryBackend interface {
	SaveMemory(ctx context.Context, entry *MemoryEntry) error
	// RecentMemories returns the most recent `limit` entries in chronological order.
	RecentMemories(ctx context.Context, userID UserID, limit int) ([]*MemoryEntry, error)
	UpsertProfile(ctx context.Context, profile *UserProfile) error
	GetProfile(ctx context.Context, userID UserID) (*UserProfile, error)
}
