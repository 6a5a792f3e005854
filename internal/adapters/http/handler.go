package httpadapter

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/PabloGalante/solace/internal/app/agentflow"
	"github.com/PabloGalante/solace/internal/app/conversation"
	"github.com/PabloGalante/solace/internal/app/progress"
	"github.com/PabloGalante/solace/internal/domain"
	"github.com/PabloGalante/solace/internal/observability"
)

const maxBodyBytes = 64 << 10

type Server struct {
	svc      *conversation.Service
	progress *progress.Service
}

func NewServer(svc *conversation.Service, progressSvc *progress.Service) http.Handler {
	s := &Server{svc: svc, progress: progressSvc}
	mux := http.NewServeMux()

	mux.HandleFunc("/healthz", s.handleHealthz)
	mux.Handle("/metrics", promhttp.Handler())

	// /sessions → create session (POST)
	mux.HandleFunc("/sessions", s.handleSessions)

	// /sessions/{id}          → GET: session + messages
	// /sessions/{id}/messages → POST: send message
	// /sessions/{id}/end      → POST: end session
	mux.HandleFunc("/sessions/", s.handleSessionWithID)

	// /users/{id}/summary           → GET
	// /users/{id}/profile           → GET
	// /users/{id}/sessions          → GET
	// /users/{id}/progress          → GET
	// /users/{id}/breakthroughs     → POST
	// /users/{id}/concerns          → POST
	// /users/{id}/concerns/resolve  → POST
	mux.HandleFunc("/users/", s.handleUserWithID)

	return chainMiddlewares(mux, withCORS, withLogging, withRequestID)
}

// ─────────────────────────────────────────────
// DTOs (request/response)
// ─────────────────────────────────────────────

type createSessionRequest struct {
	UserID         string `json:"user_id,omitempty"`
	AnonymousToken string `json:"anonymous_token,omitempty"`
	Title          string `json:"title,omitempty"`
}

type createSessionResponse struct {
	Session sessionResponse       `json:"session"`
	Welcome *messageResponse      `json:"welcome_message,omitempty"`
	Summary domain.SessionSummary `json:"summary"`
}

type sessionResponse struct {
	ID        string     `json:"id"`
	UserID    string     `json:"user_id"`
	Title     string     `json:"title"`
	Anonymous bool       `json:"anonymous"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
	EndedAt   *time.Time `json:"ended_at,omitempty"`
}

type messageResponse struct {
	ID          string    `json:"id"`
	SessionID   string    `json:"session_id"`
	Author      string    `json:"author"`
	Text        string    `json:"text"`
	Mode        string    `json:"mode,omitempty"`
	Tags        []string  `json:"tags,omitempty"`
	ContentType string    `json:"content_type,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

type sendMessageRequest struct {
	UserID string `json:"user_id,omitempty"`
	Text   string `json:"text"`
}

type sendMessageResponse struct {
	UserMessage  messageResponse      `json:"user_message"`
	AgentMessage messageResponse      `json:"agent_message"`
	Turn         agentflow.TurnResult `json:"turn"`
}

type getSessionResponse struct {
	Session  sessionResponse   `json:"session"`
	Messages []messageResponse `json:"messages"`
}

type endSessionResponse struct {
	Session           sessionResponse     `json:"session"`
	ConversationDepth int                 `json:"conversation_depth"`
	LastEmotion       domain.Emotion      `json:"last_emotion,omitempty"`
	LastMode          domain.TherapyMode  `json:"last_mode,omitempty"`
	Distortions       []domain.Distortion `json:"distortions"`
}

type listSessionsResponse struct {
	Sessions []sessionResponse `json:"sessions"`
}

type trackBreakthroughRequest struct {
	Breakthrough string `json:"breakthrough"`
}

type concernRequest struct {
	Concern string `json:"concern"`
}

type resolveConcernResponse struct {
	Resolved bool `json:"resolved"`
}

// ─────────────────────────────────────────────
// Basic routing
// ─────────────────────────────────────────────

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// /sessions
func (s *Server) handleSessions(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		s.handleCreateSession(w, r)
	default:
		methodNotAllowed(w)
	}
}

// /sessions/{id}, /sessions/{id}/messages or /sessions/{id}/end
func (s *Server) handleSessionWithID(w http.ResponseWriter, r *http.Request) {
	id, rest, ok := splitID(r.URL.Path, "/sessions/")
	if !ok {
		http.NotFound(w, r)
		return
	}
	sessionID := domain.SessionID(id)

	switch rest {
	case "":
		if r.Method != http.MethodGet {
			methodNotAllowed(w)
			return
		}
		s.handleGetSession(w, r, sessionID)
	case "messages":
		if r.Method != http.MethodPost {
			methodNotAllowed(w)
			return
		}
		s.handleSendMessage(w, r, sessionID)
	case "end":
		if r.Method != http.MethodPost {
			methodNotAllowed(w)
			return
		}
		s.handleEndSession(w, r, sessionID)
	default:
		http.NotFound(w, r)
	}
}

// /users/{id}/...
func (s *Server) handleUserWithID(w http.ResponseWriter, r *http.Request) {
	id, rest, ok := splitID(r.URL.Path, "/users/")
	if !ok {
		http.NotFound(w, r)
		return
	}
	userID := domain.UserID(id)

	switch rest {
	case "summary":
		if r.Method != http.MethodGet {
			methodNotAllowed(w)
			return
		}
		writeJSON(w, http.StatusOK, s.svc.GetUserSummary(r.Context(), userID))
	case "profile":
		if r.Method != http.MethodGet {
			methodNotAllowed(w)
			return
		}
		s.handleGetProfile(w, r, userID)
	case "sessions":
		if r.Method != http.MethodGet {
			methodNotAllowed(w)
			return
		}
		s.handleListSessions(w, r, userID)
	case "progress":
		if r.Method != http.MethodGet {
			methodNotAllowed(w)
			return
		}
		s.handleGetProgress(w, r, userID)
	case "breakthroughs":
		if r.Method != http.MethodPost {
			methodNotAllowed(w)
			return
		}
		s.handleTrackBreakthrough(w, r, userID)
	case "concerns":
		if r.Method != http.MethodPost {
			methodNotAllowed(w)
			return
		}
		s.handleTrackConcern(w, r, userID)
	case "concerns/resolve":
		if r.Method != http.MethodPost {
			methodNotAllowed(w)
			return
		}
		s.handleResolveConcern(w, r, userID)
	default:
		http.NotFound(w, r)
	}
}

// splitID turns "/prefix/{id}/rest..." into id and rest.
func splitID(path, prefix string) (id, rest string, ok bool) {
	path = strings.TrimPrefix(path, prefix)
	id, rest, _ = strings.Cut(path, "/")
	if id == "" {
		return "", "", false
	}
	return id, strings.TrimSuffix(rest, "/"), true
}

// ─────────────────────────────────────────────
// Concrete handlers
// ─────────────────────────────────────────────

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var req createSessionRequest
	if err := decodeJSON(w, r, &req); err != nil {
		badRequest(w, "invalid JSON body")
		return
	}

	out, err := s.svc.StartSession(
		r.Context(),
		conversation.StartSessionInput{
			UserID:         domain.UserID(req.UserID),
			AnonymousToken: req.AnonymousToken,
			Title:          req.Title,
		},
	)
	if err != nil {
		writeError(w, r, err)
		return
	}

	resp := createSessionResponse{
		Session: toSessionResponse(out.Session),
		Summary: out.Summary,
	}
	if out.Welcome != nil {
		m := toMessageResponse(out.Welcome)
		resp.Welcome = &m
	}

	writeJSON(w, http.StatusCreated, resp)
}

// limitParam reads ?limit; 0 means no limit.
func limitParam(r *http.Request) (int, bool) {
	v := r.URL.Query().Get("limit")
	if v == "" {
		return 0, true
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return 0, false
	}
	return n, true
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request, id domain.SessionID) {
	limit, ok := limitParam(r)
	if !ok {
		badRequest(w, "limit must be a non-negative integer")
		return
	}

	session, msgs, err := s.svc.GetSessionTimeline(r.Context(), id, limit)
	if err != nil {
		writeError(w, r, err)
		return
	}

	resp := getSessionResponse{
		Session:  toSessionResponse(session),
		Messages: toMessagesResponse(msgs),
	}

	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleSendMessage(w http.ResponseWriter, r *http.Request, sessionID domain.SessionID) {
	var req sendMessageRequest
	if err := decodeJSON(w, r, &req); err != nil {
		badRequest(w, "invalid JSON body")
		return
	}

	if strings.TrimSpace(req.Text) == "" {
		badRequest(w, "text is required")
		return
	}

	out, err := s.svc.SendMessage(
		r.Context(),
		conversation.SendMessageInput{
			SessionID: sessionID,
			UserID:    domain.UserID(req.UserID),
			Text:      req.Text,
		},
	)
	if err != nil {
		writeError(w, r, err)
		return
	}

	resp := sendMessageResponse{
		UserMessage:  toMessageResponse(out.UserMessage),
		AgentMessage: toMessageResponse(out.AgentMessage),
		Turn:         out.Turn,
	}

	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleEndSession(w http.ResponseWriter, r *http.Request, sessionID domain.SessionID) {
	out, err := s.svc.EndSession(r.Context(), sessionID)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, endSessionResponse{
		Session:           toSessionResponse(out.Session),
		ConversationDepth: out.ConversationDepth,
		LastEmotion:       out.LastEmotion,
		LastMode:          out.LastMode,
		Distortions:       out.Distortions,
	})
}

func (s *Server) handleGetProgress(w http.ResponseWriter, r *http.Request, userID domain.UserID) {
	p, err := s.progress.GetUserProgress(r.Context(), userID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) handleListSessions(w http.ResponseWriter, r *http.Request, userID domain.UserID) {
	limit, ok := limitParam(r)
	if !ok {
		badRequest(w, "limit must be a non-negative integer")
		return
	}

	sessions, err := s.svc.ListUserSessions(r.Context(), userID, limit)
	if err != nil {
		writeError(w, r, err)
		return
	}

	resp := listSessionsResponse{Sessions: make([]sessionResponse, 0, len(sessions))}
	for _, sess := range sessions {
		resp.Sessions = append(resp.Sessions, toSessionResponse(sess))
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleGetProfile(w http.ResponseWriter, r *http.Request, userID domain.UserID) {
	p, err := s.progress.GetUserProfile(r.Context(), userID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if p == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "no history for user"})
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) handleTrackBreakthrough(w http.ResponseWriter, r *http.Request, userID domain.UserID) {
	var req trackBreakthroughRequest
	if err := decodeJSON(w, r, &req); err != nil {
		badRequest(w, "invalid JSON body")
		return
	}

	if err := s.progress.TrackBreakthrough(r.Context(), userID, req.Breakthrough); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleTrackConcern(w http.ResponseWriter, r *http.Request, userID domain.UserID) {
	var req concernRequest
	if err := decodeJSON(w, r, &req); err != nil {
		badRequest(w, "invalid JSON body")
		return
	}

	if err := s.progress.TrackConcern(r.Context(), userID, req.Concern); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleResolveConcern(w http.ResponseWriter, r *http.Request, userID domain.UserID) {
	var req concernRequest
	if err := decodeJSON(w, r, &req); err != nil {
		badRequest(w, "invalid JSON body")
		return
	}

	found, err := s.progress.ResolveConcern(r.Context(), userID, req.Concern)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if !found {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "concern not found"})
		return
	}
	writeJSON(w, http.StatusOK, resolveConcernResponse{Resolved: true})
}

// ─────────────────────────────────────────────
// Conversation Helpers
// ─────────────────────────────────────────────

func toSessionResponse(s *domain.Session) sessionResponse {
	resp := sessionResponse{
		ID:        string(s.ID),
		UserID:    string(s.UserID),
		Title:     s.Title,
		Anonymous: s.Anonymous,
		CreatedAt: s.CreatedAt,
		UpdatedAt: s.UpdatedAt,
	}
	if s.Ended() {
		ended := s.EndedAt
		resp.EndedAt = &ended
	}
	return resp
}

func toMessageResponse(m *domain.Message) messageResponse {
	return messageResponse{
		ID:          string(m.ID),
		SessionID:   string(m.SessionID),
		Author:      string(m.Author),
		Text:        m.Text,
		Mode:        string(m.Mode),
		Tags:        m.Tags,
		ContentType: m.ContentType,
		CreatedAt:   m.CreatedAt,
	}
}

func toMessagesResponse(msgs []*domain.Message) []messageResponse {
	out := make([]messageResponse, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, toMessageResponse(m))
	}
	return out
}

// ─────────────────────────────────────────────
// HTTP Helpers
// ─────────────────────────────────────────────

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	return json.NewDecoder(r.Body).Decode(v)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps domain sentinels to status codes.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, domain.ErrSessionNotFound):
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "session not found"})
	case errors.Is(err, domain.ErrSessionEnded):
		writeJSON(w, http.StatusConflict, map[string]string{"error": "session ended"})
	case errors.Is(err, domain.ErrInvalidInput):
		badRequest(w, err.Error())
	default:
		observability.LoggerFromContext(r.Context()).Error("request failed", "path", r.URL.Path, "error", err)
		internalError(w)
	}
}

func badRequest(w http.ResponseWriter, msg string) {
	writeJSON(w, http.StatusBadRequest, map[string]string{
		"error": msg,
	})
}

func internalError(w http.ResponseWriter) {
	writeJSON(w, http.StatusInternalServerError, map[string]string{
		"error": "internal server error",
	})
}

func methodNotAllowed(w http.ResponseWriter) {
	writeJSON(w, http.StatusMethodNotAllowed, map[string]string{
		"error": "method not allowed",
	})
}
