package ws

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/sparrowchat/sparrow/internal/observability"
)

const (
	maxMessageSize = 4096
	presencePeriod = 20 * time.Second
)

// PresenceTracker mirrors registry membership into a shared store so that
// liveness survives process restarts and is observable elsewhere.
type PresenceTracker interface {
	Register(ctx context.Context, userID string) error
	Unregister(ctx context.Context, userID string) error
	Refresh(ctx context.Context, userID string) error
}

// Sender pushes an event at a set of target users. Implemented by the
// delivery router; declared here so the transport does not depend on it.
type Sender interface {
	Deliver(ctx context.Context, event string, data any, targets ...string)
}

// Handler upgrades authenticated HTTP requests into live sessions and
// runs each connection's read loop.
type Handler struct {
	registry *Registry
	presence PresenceTracker
	sender   Sender
	auth     func(token string) (string, error)
	upgrader websocket.Upgrader
}

func NewHandler(registry *Registry, presence PresenceTracker, sender Sender, auth func(token string) (string, error)) *Handler {
	return &Handler{
		registry: registry,
		presence: presence,
		sender:   sender,
		auth:     auth,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

// ServeHTTP handles GET /ws?token=<jwt>. Browsers cannot set headers on
// WebSocket handshakes, so the token rides in the query string.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	log := observability.GetLogger(r.Context())

	userID, err := h.auth(r.URL.Query().Get("token"))
	if err != nil {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warn("ws: upgrade failed", zap.Error(err))
		return
	}

	s := NewSession(uuid.NewString(), userID, conn)
	s.Start()

	h.registry.Add(s)
	if err := h.presence.Register(r.Context(), userID); err != nil {
		log.Warn("ws: presence register failed", zap.String("user_id", userID), zap.Error(err))
	}
	observability.WebSocketConnectionsActive.Inc()

	log.Info("ws: session opened",
		zap.String("user_id", userID),
		zap.String("sid", s.ID))

	go h.heartbeat(s)
	h.readLoop(s)

	// A session replaced by a newer connection for the same user must not
	// wipe that user's shared presence entry on its way out.
	if h.registry.Remove(s) {
		if err := h.presence.Unregister(context.Background(), userID); err != nil {
			log.Warn("ws: presence unregister failed", zap.String("user_id", userID), zap.Error(err))
		}
	}
	observability.WebSocketConnectionsActive.Dec()

	log.Info("ws: session closed",
		zap.String("user_id", userID),
		zap.String("sid", s.ID))
}

// heartbeat keeps the shared presence entry alive while the session is up.
func (h *Handler) heartbeat(s *Session) {
	ticker := time.NewTicker(presencePeriod)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if err := h.presence.Refresh(context.Background(), s.UserID); err != nil {
				observability.GetLogger(context.Background()).Warn("ws: presence refresh failed",
					zap.String("user_id", s.UserID), zap.Error(err))
			}
		case <-s.Done():
			return
		}
	}
}

func (h *Handler) readLoop(s *Session) {
	defer s.Close()

	s.Conn.SetReadLimit(maxMessageSize)
	_ = s.Conn.SetReadDeadline(time.Now().Add(pongWait))
	s.Conn.SetPongHandler(func(string) error {
		return s.Conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, raw, err := s.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				observability.GetLogger(context.Background()).Warn("ws: read error",
					zap.String("user_id", s.UserID), zap.Error(err))
			}
			return
		}

		env, err := Decode(raw)
		if err != nil {
			// Garbage from the client is dropped, not fatal.
			continue
		}
		h.dispatch(s, env)
	}
}

// dispatch handles the small client -> server vocabulary. Messages and
// seen state go over HTTP; only ephemeral typing signals come in here.
func (h *Handler) dispatch(s *Session, env *Envelope) {
	switch env.Event {
	case EventTyping, EventStopTyping:
		var p TypingPayload
		if err := env.DecodeData(&p); err != nil || p.To == "" {
			return
		}
		out := EventUserTyping
		if env.Event == EventStopTyping {
			out = EventUserStopTyping
		}
		// The indicator carries no payload; the client applies it to
		// whichever conversation it has open.
		h.sender.Deliver(context.Background(), out, nil, p.To)
	default:
		observability.GetLogger(context.Background()).Debug("ws: unknown client event",
			zap.String("event", env.Event), zap.String("user_id", s.UserID))
	}
}
