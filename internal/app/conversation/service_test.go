package conversation_test

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/PabloGalante/solace/internal/adapters/storage/memory"
	"github.com/PabloGalante/solace/internal/app/agentflow"
	"github.com/PabloGalante/solace/internal/app/conversation"
	"github.com/PabloGalante/solace/internal/app/crisis"
	appmemory "github.com/PabloGalante/solace/internal/app/memory"
	"github.com/PabloGalante/solace/internal/domain"
	"github.com/PabloGalante/solace/internal/observability"
)

func newService(t *testing.T, summaries conversation.SummaryProvider, opts ...conversation.Option) (*conversation.Service, *memory.MessageStore) {
	t.Helper()
	messages := memory.NewMessageStore()
	orch := agentflow.NewDefaultOrchestrator(agentflow.Options{})
	svc := conversation.NewService(orch, memory.NewSessionStore(), messages, summaries, opts...)
	return svc, messages
}

func TestStartSessionAndSendMessage(t *testing.T) {
	ctx := context.Background()
	svc, messages := newService(t, nil)

	out, err := svc.StartSession(ctx, conversation.StartSessionInput{
		UserID: domain.UserID("test-user"),
		Title:  "Test session",
	})
	if err != nil {
		t.Fatalf("StartSession failed: %v", err)
	}

	if out.Session.ID == "" {
		t.Fatalf("expected session id, got empty")
	}
	if !out.Summary.NewUser || out.Welcome.Text != conversation.GreetingNewUser {
		t.Fatalf("expected new-user greeting, got %q", out.Welcome.Text)
	}

	reply, err := svc.SendMessage(ctx, conversation.SendMessageInput{
		SessionID: out.Session.ID,
		UserID:    out.Session.UserID,
		Text:      "I feel so lonely lately",
	})
	if err != nil {
		t.Fatalf("SendMessage failed: %v", err)
	}

	if reply.AgentMessage == nil || reply.AgentMessage.Text == "" {
		t.Fatalf("expected non-empty agent reply")
	}
	if reply.Turn.Emotion != domain.EmotionLonely {
		t.Fatalf("expected lonely, got %s", reply.Turn.Emotion)
	}
	if reply.AgentMessage.ContentType != "text" {
		t.Fatalf("expected text content, got %s", reply.AgentMessage.ContentType)
	}

	timeline, err := messages.GetMessagesBySession(ctx, out.Session.ID, 0)
	if err != nil {
		t.Fatalf("timeline: %v", err)
	}
	if len(timeline) != 3 {
		t.Fatalf("expected welcome, user and agent messages, got %d", len(timeline))
	}
	if timeline[1].Author != domain.RoleUser || timeline[2].Author != domain.RoleAgent {
		t.Fatalf("unexpected timeline order: %+v", timeline)
	}
}

func TestStartSession_AnonymousTokenIsStable(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService(t, nil)

	a, err := svc.StartSession(ctx, conversation.StartSessionInput{AnonymousToken: "browser-token"})
	if err != nil {
		t.Fatalf("StartSession failed: %v", err)
	}
	b, err := svc.StartSession(ctx, conversation.StartSessionInput{AnonymousToken: "browser-token"})
	if err != nil {
		t.Fatalf("StartSession failed: %v", err)
	}

	if a.Session.UserID != b.Session.UserID || a.Session.UserID != appmemory.AnonymousUserID("browser-token") {
		t.Fatalf("expected the same derived user id, got %s and %s", a.Session.UserID, b.Session.UserID)
	}
	if !a.Session.Anonymous {
		t.Fatalf("session should be marked anonymous")
	}
	if strings.Contains(string(a.Session.UserID), "browser-token") {
		t.Fatalf("token leaked into user id")
	}

	c, _ := svc.StartSession(ctx, conversation.StartSessionInput{})
	if c.Session.UserID == "" || c.Session.UserID == a.Session.UserID {
		t.Fatalf("expected a fresh anonymous id, got %q", c.Session.UserID)
	}
}

func TestStartSession_ReturningUserGetsContinuityPrompt(t *testing.T) {
	ctx := context.Background()
	clock := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	store := appmemory.NewStore(nil, appmemory.Options{Now: func() time.Time { return clock }})

	store.Remember(ctx, domain.MemoryEntry{
		UserID:           "u1",
		Message:          "work has been rough",
		Emotion:          domain.EmotionSad,
		EmotionIntensity: 0.6,
		Timestamp:        clock.Add(-3 * time.Hour),
	})

	svc, _ := newService(t, store)
	out, err := svc.StartSession(ctx, conversation.StartSessionInput{UserID: "u1"})
	if err != nil {
		t.Fatalf("StartSession failed: %v", err)
	}

	if out.Summary.NewUser {
		t.Fatalf("expected a returning user")
	}
	if out.Welcome.Text != out.Summary.ContinuityPrompt || out.Welcome.ContentType != "continuity" {
		t.Fatalf("expected the continuity prompt as welcome, got %q", out.Welcome.Text)
	}
}

type slowSummaries struct{}

func (slowSummaries) SessionSummary(ctx context.Context, _ domain.UserID) domain.SessionSummary {
	<-ctx.Done()
	return domain.SessionSummary{ContinuityPrompt: "too late"}
}

func TestStartSession_SlowSummaryDegradesToGreeting(t *testing.T) {
	svc, _ := newService(t, slowSummaries{}, conversation.WithSummaryTimeout(20*time.Millisecond))

	out, err := svc.StartSession(context.Background(), conversation.StartSessionInput{UserID: "u1"})
	if err != nil {
		t.Fatalf("StartSession failed: %v", err)
	}
	if out.Welcome.Text != conversation.GreetingNewUser {
		t.Fatalf("expected greeting, got %q", out.Welcome.Text)
	}
}

func TestSendMessage_Crisis(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService(t, nil)
	out, _ := svc.StartSession(ctx, conversation.StartSessionInput{UserID: "u1"})

	reply, err := svc.SendMessage(ctx, conversation.SendMessageInput{
		SessionID: out.Session.ID,
		Text:      "some days I just want to die",
	})
	if err != nil {
		t.Fatalf("SendMessage failed: %v", err)
	}
	if !reply.Turn.IsCrisis || reply.AgentMessage.Text != crisis.Response {
		t.Fatalf("expected crisis response, got %+v", reply.Turn)
	}
	if reply.AgentMessage.ContentType != "crisis" {
		t.Fatalf("expected crisis content type, got %s", reply.AgentMessage.ContentType)
	}
}

func TestSendMessage_Errors(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService(t, nil)
	out, _ := svc.StartSession(ctx, conversation.StartSessionInput{UserID: "u1"})

	if _, err := svc.SendMessage(ctx, conversation.SendMessageInput{SessionID: out.Session.ID, Text: "   "}); !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
	if _, err := svc.SendMessage(ctx, conversation.SendMessageInput{SessionID: "missing", Text: "hi"}); !errors.Is(err, domain.ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound, got %v", err)
	}

	if _, err := svc.EndSession(ctx, out.Session.ID); err != nil {
		t.Fatalf("EndSession failed: %v", err)
	}
	if _, err := svc.SendMessage(ctx, conversation.SendMessageInput{SessionID: out.Session.ID, Text: "hi"}); !errors.Is(err, domain.ErrSessionEnded) {
		t.Fatalf("expected ErrSessionEnded, got %v", err)
	}
}

func TestSendMessage_ConcurrentTurnsAreSerialized(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService(t, nil)
	out, _ := svc.StartSession(ctx, conversation.StartSessionInput{UserID: "u1"})

	const turns = 8
	var wg sync.WaitGroup
	for i := 0; i < turns; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := svc.SendMessage(ctx, conversation.SendMessageInput{SessionID: out.Session.ID, Text: "I'm worried"}); err != nil {
				t.Errorf("SendMessage failed: %v", err)
			}
		}()
	}
	wg.Wait()

	end, err := svc.EndSession(ctx, out.Session.ID)
	if err != nil {
		t.Fatalf("EndSession failed: %v", err)
	}
	if end.ConversationDepth != turns {
		t.Fatalf("expected depth %d, got %d", turns, end.ConversationDepth)
	}
	if end.LastMode != domain.ModeCBT {
		t.Fatalf("expected cbt, got %s", end.LastMode)
	}
	if end.Session.EndedAt.IsZero() {
		t.Fatalf("expected the session to be marked ended")
	}
}

// pausingSessionStore hands out a session read and then holds the caller
// until released, so a concurrent EndSession can run in between.
type pausingSessionStore struct {
	*memory.SessionStore

	mu      sync.Mutex
	armed   bool
	paused  chan struct{}
	release chan struct{}
}

func (p *pausingSessionStore) GetSession(ctx context.Context, id domain.SessionID) (*domain.Session, error) {
	sess, err := p.SessionStore.GetSession(ctx, id)

	p.mu.Lock()
	armed := p.armed
	p.armed = false
	p.mu.Unlock()

	if armed {
		close(p.paused)
		<-p.release
	}
	return sess, err
}

func TestSendMessage_RacingEndIsRejected(t *testing.T) {
	ctx := context.Background()
	sessions := &pausingSessionStore{
		SessionStore: memory.NewSessionStore(),
		paused:       make(chan struct{}),
		release:      make(chan struct{}),
	}
	messages := memory.NewMessageStore()
	orch := agentflow.NewDefaultOrchestrator(agentflow.Options{})
	svc := conversation.NewService(orch, sessions, messages, nil)

	out, err := svc.StartSession(ctx, conversation.StartSessionInput{UserID: "u1"})
	if err != nil {
		t.Fatalf("StartSession failed: %v", err)
	}

	sessions.mu.Lock()
	sessions.armed = true
	sessions.mu.Unlock()

	errCh := make(chan error, 1)
	go func() {
		_, err := svc.SendMessage(ctx, conversation.SendMessageInput{SessionID: out.Session.ID, Text: "I'm worried"})
		errCh <- err
	}()

	<-sessions.paused
	if _, err := svc.EndSession(ctx, out.Session.ID); err != nil {
		t.Fatalf("EndSession failed: %v", err)
	}
	close(sessions.release)

	if err := <-errCh; !errors.Is(err, domain.ErrSessionEnded) {
		t.Fatalf("expected ErrSessionEnded for the racing turn, got %v", err)
	}

	stored, err := sessions.SessionStore.GetSession(ctx, out.Session.ID)
	if err != nil {
		t.Fatalf("GetSession failed: %v", err)
	}
	if !stored.Ended() {
		t.Fatalf("session should stay ended")
	}

	timeline, _ := messages.GetMessagesBySession(ctx, out.Session.ID, 0)
	if len(timeline) != 1 {
		t.Fatalf("only the welcome message should be stored, got %d", len(timeline))
	}

	again, err := svc.EndSession(ctx, out.Session.ID)
	if err != nil {
		t.Fatalf("second EndSession failed: %v", err)
	}
	if again.ConversationDepth != 0 || !again.Session.EndedAt.Equal(stored.EndedAt) {
		t.Fatalf("ending twice should not change the session, got depth %d", again.ConversationDepth)
	}
}

func TestEvictIdle(t *testing.T) {
	ctx := context.Background()
	start := time.Date(2026, 4, 1, 9, 0, 0, 0, time.UTC)
	clock := start
	svc, _ := newService(t, nil,
		conversation.WithClock(func() time.Time { return clock }),
		conversation.WithIdleTTL(30*time.Minute),
	)

	idle, _ := svc.StartSession(ctx, conversation.StartSessionInput{UserID: "u1"})
	busy, _ := svc.StartSession(ctx, conversation.StartSessionInput{UserID: "u2"})

	send := func(id domain.SessionID) *conversation.SendMessageOutput {
		t.Helper()
		out, err := svc.SendMessage(ctx, conversation.SendMessageInput{SessionID: id, Text: "I'm worried"})
		if err != nil {
			t.Fatalf("SendMessage failed: %v", err)
		}
		return out
	}

	send(idle.Session.ID)
	clock = start.Add(20 * time.Minute)
	send(busy.Session.ID)
	clock = start.Add(40 * time.Minute)

	before := testutil.ToFloat64(observability.ActiveSessions)
	if n := svc.EvictIdle(); n != 1 {
		t.Fatalf("expected one eviction, got %d", n)
	}
	if after := testutil.ToFloat64(observability.ActiveSessions); before-after != 1 {
		t.Fatalf("active sessions gauge should drop by one, went %v -> %v", before, after)
	}
	if n := svc.EvictIdle(); n != 0 {
		t.Fatalf("nothing left to evict, got %d", n)
	}

	if got := send(idle.Session.ID).Turn.Depth; got != 1 {
		t.Fatalf("evicted session should restart its context, depth %d", got)
	}
	if got := send(busy.Session.ID).Turn.Depth; got != 2 {
		t.Fatalf("active session should keep its context, depth %d", got)
	}
}

func TestListUserSessions(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService(t, nil)

	first, _ := svc.StartSession(ctx, conversation.StartSessionInput{UserID: "u1"})
	time.Sleep(time.Millisecond)
	second, _ := svc.StartSession(ctx, conversation.StartSessionInput{UserID: "u1"})
	_, _ = svc.StartSession(ctx, conversation.StartSessionInput{UserID: "u2"})

	list, err := svc.ListUserSessions(ctx, "u1", 0)
	if err != nil {
		t.Fatalf("ListUserSessions failed: %v", err)
	}
	if len(list) != 2 || list[0].ID != second.Session.ID || list[1].ID != first.Session.ID {
		t.Fatalf("expected newest session first, got %+v", list)
	}

	if _, err := svc.ListUserSessions(ctx, " ", 0); !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}
