package conversation

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/PabloGalante/solace/internal/app/agentflow"
	"github.com/PabloGalante/solace/internal/app/memory"
	"github.com/PabloGalante/solace/internal/domain"
	"github.com/PabloGalante/solace/internal/observability"
)

const (
	historyLimit          = 20
	defaultSummaryTimeout = 2 * time.Second
	defaultIdleTTL        = 30 * time.Minute

	// GreetingNewUser opens a session for someone without history.
	GreetingNewUser = "Hello! I'm here to support you. How are you feeling today?"
)

// SummaryProvider gives the history overview used at session start.
type SummaryProvider interface {
	SessionSummary(ctx context.Context, userID domain.UserID) domain.SessionSummary
}

// liveSession is the in-process state of an open conversation. mu serializes
// turns, ends and evictions of one session.
type liveSession struct {
	mu       sync.Mutex
	ctx      *domain.TherapeuticContext
	lastUsed time.Time
	// closed is set once the entry has left the live map.
	closed bool
}

type Service struct {
	sessionStore domain.SessionStore
	messageStore domain.MessageStore
	orchestrator *agentflow.Orchestrator
	summaries    SummaryProvider
	now          func() time.Time

	summaryTimeout time.Duration
	idleTTL        time.Duration

	mu   sync.Mutex
	live map[domain.SessionID]*liveSession
}

// Option customizes a Service.
type Option func(*Service)

// WithSummaryTimeout bounds the history lookup done at session start.
func WithSummaryTimeout(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.summaryTimeout = d
		}
	}
}

// WithIdleTTL sets how long an open session may sit unused before its
// therapeutic context is evicted.
func WithIdleTTL(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.idleTTL = d
		}
	}
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

// NewService wires the conversation lifecycle. summaries may be nil, in which
// case every user is greeted as new.
func NewService(
	orchestrator *agentflow.Orchestrator,
	sessionStore domain.SessionStore,
	messageStore domain.MessageStore,
	summaries SummaryProvider,
	opts ...Option,
) *Service {
	s := &Service{
		sessionStore:   sessionStore,
		messageStore:   messageStore,
		orchestrator:   orchestrator,
		summaries:      summaries,
		now:            time.Now,
		summaryTimeout: defaultSummaryTimeout,
		idleTTL:        defaultIdleTTL,
		live:           make(map[domain.SessionID]*liveSession),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

type StartSessionInput struct {
	UserID domain.UserID
	// AnonymousToken is hashed into a user id when UserID is empty.
	AnonymousToken string
	Title          string
}

type StartSessionOutput struct {
	Session *domain.Session
	Welcome *domain.Message
	Summary domain.SessionSummary
}

func (s *Service) StartSession(ctx context.Context, in StartSessionInput) (*StartSessionOutput, error) {
	now := s.now()
	sessionID := domain.SessionID(generateID())

	userID := domain.UserID(strings.TrimSpace(string(in.UserID)))
	anonymous := false
	if userID == "" {
		token := strings.TrimSpace(in.AnonymousToken)
		if token == "" {
			token = string(sessionID)
		}
		userID = memory.AnonymousUserID(token)
		anonymous = true
	}

	log := observability.LoggerFromContext(ctx).With(
		"user_id", userID,
		"session_id", sessionID,
		"anonymous", anonymous,
	)
	log.Info("starting new session")

	session := &domain.Session{
		ID:        sessionID,
		UserID:    userID,
		CreatedAt: now,
		UpdatedAt: now,
		Title:     in.Title,
		Anonymous: anonymous,
	}

	if err := s.sessionStore.CreateSession(ctx, session); err != nil {
		log.Error("failed to create session", "error", err)
		return nil, fmt.Errorf("create session: %w", err)
	}

	summary := s.summaryFor(ctx, userID)

	text := GreetingNewUser
	contentType := "greeting"
	if !summary.NewUser && summary.ContinuityPrompt != "" {
		text = summary.ContinuityPrompt
		contentType = "continuity"
	}

	welcome := &domain.Message{
		ID:          domain.MessageID(generateID()),
		SessionID:   session.ID,
		Author:      domain.RoleAgent,
		Text:        text,
		CreatedAt:   now,
		Mode:        domain.ModeSupportive,
		ContentType: contentType,
	}

	if err := s.messageStore.AppendMessage(ctx, welcome); err != nil {
		log.Error("failed to append welcome message", "error", err)
		return nil, fmt.Errorf("append welcome message: %w", err)
	}

	s.mu.Lock()
	s.live[session.ID] = &liveSession{ctx: domain.NewTherapeuticContext(), lastUsed: now}
	s.mu.Unlock()
	observability.ActiveSessions.Inc()

	log.Info("session started", "returning_user", !summary.NewUser)

	return &StartSessionOutput{
		Session: session,
		Welcome: welcome,
		Summary: summary,
	}, nil
}

// summaryFor never blocks longer than the summary timeout; a slow history
// lookup degrades to a new-user greeting.
func (s *Service) summaryFor(ctx context.Context, userID domain.UserID) domain.SessionSummary {
	if s.summaries == nil {
		return domain.SessionSummary{NewUser: true, Message: memory.WelcomeMessage}
	}

	sctx, cancel := context.WithTimeout(ctx, s.summaryTimeout)
	defer cancel()

	ch := make(chan domain.SessionSummary, 1)
	go func() {
		ch <- s.summaries.SessionSummary(sctx, userID)
	}()

	select {
	case summary := <-ch:
		return summary
	case <-sctx.Done():
		observability.LoggerFromContext(ctx).Warn("session summary timed out", "user_id", userID)
		return domain.SessionSummary{NewUser: true, Message: memory.WelcomeMessage}
	}
}

type SendMessageInput struct {
	SessionID domain.SessionID
	UserID    domain.UserID
	Text      string
}

type SendMessageOutput struct {
	UserMessage  *domain.Message
	AgentMessage *domain.Message
	Turn         agentflow.TurnResult
}

func (s *Service) SendMessage(ctx context.Context, in SendMessageInput) (*SendMessageOutput, error) {
	if strings.TrimSpace(in.Text) == "" {
		return nil, fmt.Errorf("%w: text must not be empty", domain.ErrInvalidInput)
	}

	session, err := s.sessionStore.GetSession(ctx, in.SessionID)
	if err != nil {
		return nil, err
	}
	if session.Ended() {
		return nil, domain.ErrSessionEnded
	}

	live := s.acquire(session.ID)
	defer live.mu.Unlock()

	// The session may have ended while this turn waited for the lock.
	session, err = s.sessionStore.GetSession(ctx, in.SessionID)
	if err != nil {
		return nil, err
	}
	if session.Ended() {
		s.release(session.ID, live)
		return nil, domain.ErrSessionEnded
	}

	log := observability.LoggerFromContext(ctx).With(
		"session_id", session.ID,
		"user_id", session.UserID,
	)
	log.Info("sending message", "chars", len(in.Text))

	now := s.now()

	userMsg := &domain.Message{
		ID:          domain.MessageID(generateID()),
		SessionID:   session.ID,
		Author:      domain.RoleUser,
		Text:        in.Text,
		CreatedAt:   now,
		ContentType: "text",
	}

	if err := s.messageStore.AppendMessage(ctx, userMsg); err != nil {
		log.Error("failed to append user message", "error", err)
		return nil, fmt.Errorf("append user message: %w", err)
	}

	history, err := s.messageStore.GetMessagesBySession(ctx, session.ID, historyLimit)
	if err != nil {
		log.Error("failed to load history", "error", err)
		return nil, fmt.Errorf("load history: %w", err)
	}

	turn := s.orchestrator.Run(ctx, agentflow.TurnInput{
		SessionID: session.ID,
		UserID:    session.UserID,
		Text:      in.Text,
		Context:   live.ctx,
		History:   history,
	})

	userMsg.Mode = turn.Mode
	userMsg.Tags = []string{"emotion:" + string(turn.Emotion)}

	agentMsg := &domain.Message{
		ID:          domain.MessageID(generateID()),
		SessionID:   session.ID,
		Author:      domain.RoleAgent,
		Text:        turn.Response,
		CreatedAt:   s.now(),
		Mode:        turn.Mode,
		Tags:        agentTags(turn),
		ContentType: "text",
	}
	if turn.IsCrisis {
		agentMsg.ContentType = "crisis"
	}

	if err := s.messageStore.AppendMessage(ctx, agentMsg); err != nil {
		log.Error("failed to append agent message", "error", err)
		return nil, fmt.Errorf("append agent message: %w", err)
	}

	session.UpdatedAt = s.now()
	if err := s.sessionStore.UpdateSession(ctx, session); err != nil {
		log.Error("failed to update session", "error", err)
		return nil, fmt.Errorf("update session: %w", err)
	}
	live.lastUsed = session.UpdatedAt

	log.Info("send message completed", "emotion", turn.Emotion, "mode", turn.Mode, "crisis", turn.IsCrisis)

	return &SendMessageOutput{
		UserMessage:  userMsg,
		AgentMessage: agentMsg,
		Turn:         turn,
	}, nil
}

func agentTags(turn agentflow.TurnResult) []string {
	tags := []string{"emotion:" + string(turn.Emotion)}
	if turn.Mode != "" {
		tags = append(tags, "mode:"+string(turn.Mode))
	}
	if turn.Intervention != nil {
		tags = append(tags, "framework:"+string(turn.Intervention.Framework))
	}
	if turn.IsCrisis {
		tags = append(tags, "crisis")
	}
	return tags
}

// acquire returns the live state of a session with its lock held. Sessions
// without one, e.g. after a restart or an eviction, get a fresh context.
func (s *Service) acquire(id domain.SessionID) *liveSession {
	for {
		s.mu.Lock()
		ls, ok := s.live[id]
		if !ok {
			ls = &liveSession{ctx: domain.NewTherapeuticContext(), lastUsed: s.now()}
			s.live[id] = ls
			observability.ActiveSessions.Inc()
		}
		s.mu.Unlock()

		ls.mu.Lock()
		if !ls.closed {
			return ls
		}
		ls.mu.Unlock()
	}
}

// release drops ls from the live map. The caller holds ls.mu.
func (s *Service) release(id domain.SessionID, ls *liveSession) {
	ls.closed = true

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.live[id] == ls {
		delete(s.live, id)
		observability.ActiveSessions.Dec()
	}
}

// EvictIdle drops the context of every open session unused for longer than
// the idle TTL and returns how many were dropped. Sessions with a turn in
// flight are skipped.
func (s *Service) EvictIdle() int {
	cutoff := s.now().Add(-s.idleTTL)

	s.mu.Lock()
	defer s.mu.Unlock()

	evicted := 0
	for id, ls := range s.live {
		if !ls.mu.TryLock() {
			continue
		}
		if ls.lastUsed.Before(cutoff) {
			ls.closed = true
			delete(s.live, id)
			evicted++
		}
		ls.mu.Unlock()
	}
	observability.ActiveSessions.Sub(float64(evicted))
	return evicted
}

// RunEvictor calls EvictIdle every interval until ctx is done.
func (s *Service) RunEvictor(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	log := observability.LoggerFromContext(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := s.EvictIdle(); n > 0 {
				log.Info("evicted idle sessions", "count", n)
			}
		}
	}
}

type EndSessionOutput struct {
	Session           *domain.Session
	ConversationDepth int
	LastEmotion       domain.Emotion
	LastMode          domain.TherapyMode
	Distortions       []domain.Distortion
}

// EndSession closes the session and discards its live context. Ending an
// ended session returns it unchanged with an empty digest.
func (s *Service) EndSession(ctx context.Context, sessionID domain.SessionID) (*EndSessionOutput, error) {
	session, err := s.sessionStore.GetSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if session.Ended() {
		return &EndSessionOutput{Session: session, Distortions: []domain.Distortion{}}, nil
	}

	live := s.acquire(sessionID)
	defer live.mu.Unlock()

	session, err = s.sessionStore.GetSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	out := &EndSessionOutput{
		Session:           session,
		ConversationDepth: live.ctx.ConversationDepth,
		LastEmotion:       live.ctx.CurrentEmotion,
		LastMode:          live.ctx.Mode,
		Distortions:       append([]domain.Distortion{}, live.ctx.IdentifiedDistortions...),
	}

	if !session.Ended() {
		now := s.now()
		session.EndedAt = now
		session.UpdatedAt = now
		if err := s.sessionStore.UpdateSession(ctx, session); err != nil {
			return nil, fmt.Errorf("update session: %w", err)
		}
	}
	s.release(sessionID, live)

	observability.LoggerFromContext(ctx).Info("session ended",
		"session_id", sessionID,
		"user_id", session.UserID,
		"depth", out.ConversationDepth,
	)
	return out, nil
}

func (s *Service) GetSessionTimeline(
	ctx context.Context,
	sessionID domain.SessionID,
	limit int,
) (*domain.Session, []*domain.Message, error) {

	log := observability.LoggerFromContext(ctx).With(
		"session_id", sessionID,
		"limit", limit,
	)

	session, err := s.sessionStore.GetSession(ctx, sessionID)
	if err != nil {
		log.Error("failed to get session", "error", err)
		return nil, nil, err
	}

	msgs, err := s.messageStore.GetMessagesBySession(ctx, sessionID, limit)
	if err != nil {
		log.Error("failed to get messages", "error", err)
		return nil, nil, err
	}

	log.Info("fetched session timeline", "message_count", len(msgs))

	return session, msgs, nil
}

// ListUserSessions returns the user's sessions, most recently active first.
// limit <= 0 returns all of them.
func (s *Service) ListUserSessions(ctx context.Context, userID domain.UserID, limit int) ([]*domain.Session, error) {
	if strings.TrimSpace(string(userID)) == "" {
		return nil, fmt.Errorf("%w: user id is required", domain.ErrInvalidInput)
	}

	sessions, err := s.sessionStore.ListSessionsByUser(ctx, userID, limit)
	if err != nil {
		observability.LoggerFromContext(ctx).Error("failed to list sessions", "user_id", userID, "error", err)
		return nil, err
	}
	return sessions, nil
}

// GetUserSummary returns the history overview for a user.
func (s *Service) GetUserSummary(ctx context.Context, userID domain.UserID) domain.SessionSummary {
	return s.summaryFor(ctx, userID)
}

func generateID() string {
	return uuid.NewString()
}
