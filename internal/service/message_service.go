// Package service implements the messaging use cases on top of the
// repositories, the contact gate and the delivery router.
package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/sparrowchat/sparrow/internal/domain"
	"github.com/sparrowchat/sparrow/internal/gate"
	"github.com/sparrowchat/sparrow/internal/media"
	"github.com/sparrowchat/sparrow/internal/observability"
	"github.com/sparrowchat/sparrow/internal/ws"
)

type MessageStore interface {
	Save(ctx context.Context, msg *domain.Message) error
	FindConversation(ctx context.Context, userA, userB string) ([]*domain.Message, error)
	MarkSeen(ctx context.Context, senderID, receiverID string) (int64, error)
	FindLastMessage(ctx context.Context, userA, userB string) (*domain.Message, error)
	CountUnseen(ctx context.Context, senderID, receiverID string) (int, error)
	PeerIDs(ctx context.Context, userID string) ([]string, error)
}

type UserStore interface {
	Get(ctx context.Context, id string) (*domain.User, error)
	GetMany(ctx context.Context, ids []string) ([]*domain.User, error)
	Search(ctx context.Context, query string, limit int) ([]*domain.User, error)
}

// UserCacheStore is the read-through profile cache. A cache error is a
// miss, never a failure.
type UserCacheStore interface {
	Get(ctx context.Context, id string) (*domain.User, error)
	Set(ctx context.Context, u *domain.User) error
	Delete(ctx context.Context, id string) error
}

// Deliverer pushes an event at target users' live sessions.
type Deliverer interface {
	Deliver(ctx context.Context, event string, data any, targets ...string)
}

type MessageService struct {
	messages MessageStore
	users    UserStore
	cache    UserCacheStore
	gate     *gate.Gate
	media    media.Store
	router   Deliverer
}

func NewMessageService(messages MessageStore, users UserStore, cache UserCacheStore,
	g *gate.Gate, mediaStore media.Store, router Deliverer) *MessageService {
	return &MessageService{
		messages: messages,
		users:    users,
		cache:    cache,
		gate:     g,
		media:    mediaStore,
		router:   router,
	}
}

// SendResult is the outcome of a send attempt: either the persisted
// message, or Queued set when the send became a pending request.
type SendResult struct {
	Message *domain.Message
	Queued  bool
}

// Send runs the full send pipeline: target lookup, contact gating, image
// upload, persistence and real-time push. A gated first contact queues a
// request and persists nothing.
func (s *MessageService) Send(ctx context.Context, senderID, receiverID, text, image string) (*SendResult, error) {
	log := observability.GetLogger(ctx)

	if senderID == receiverID {
		return nil, domain.ErrSelfMessage
	}

	if _, err := s.getUser(ctx, receiverID); err != nil {
		return nil, err
	}

	decision, err := s.gate.EvaluateSend(ctx, senderID, receiverID)
	if err != nil {
		return nil, fmt.Errorf("failed to evaluate send: %w", err)
	}

	switch decision {
	case gate.RejectBlocked:
		return nil, domain.ErrBlocked
	case gate.QueueAsRequest:
		log.Info("send queued as request",
			zap.String("sender_id", senderID),
			zap.String("receiver_id", receiverID))
		return &SendResult{Queued: true}, nil
	}

	imageURL := ""
	if image != "" {
		imageURL, err = s.media.Upload(ctx, image)
		if err != nil {
			return nil, fmt.Errorf("failed to upload image: %w", err)
		}
	}

	msg, err := domain.NewMessage(uuid.NewString(), senderID, receiverID, text, imageURL, time.Now().UTC())
	if err != nil {
		return nil, err
	}

	start := time.Now()
	if err := s.messages.Save(ctx, msg); err != nil {
		return nil, fmt.Errorf("failed to save message: %w", err)
	}

	s.router.Deliver(ctx, ws.EventNewMessage, msg, receiverID)
	observability.MessageDeliveryLatency.Observe(time.Since(start).Seconds())

	return &SendResult{Message: msg}, nil
}

// Conversation is the full history with a peer plus whether the caller's
// own request to that peer is still pending.
type Conversation struct {
	Messages         []*domain.Message
	IsRequestPending bool
}

// GetConversation returns the history with peerID oldest first and marks
// everything the peer sent as seen. The peer is notified over their live
// session only when the load actually flipped messages.
func (s *MessageService) GetConversation(ctx context.Context, userID, peerID string) (*Conversation, error) {
	msgs, err := s.messages.FindConversation(ctx, userID, peerID)
	if err != nil {
		return nil, fmt.Errorf("failed to load conversation: %w", err)
	}

	flipped, err := s.messages.MarkSeen(ctx, peerID, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to mark seen: %w", err)
	}
	if flipped > 0 {
		s.router.Deliver(ctx, ws.EventMessagesSeen, ws.SeenPayload{From: userID}, peerID)
	}

	pending, err := s.gate.IsRequestPending(ctx, peerID, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to check pending request: %w", err)
	}

	return &Conversation{Messages: msgs, IsRequestPending: pending}, nil
}

// GetContacts builds the sidebar: every user the caller has exchanged
// messages with, most recent conversation first, with unread counts and
// the last message for preview.
func (s *MessageService) GetContacts(ctx context.Context, userID string) ([]*domain.Contact, error) {
	log := observability.GetLogger(ctx)

	peerIDs, err := s.messages.PeerIDs(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list peers: %w", err)
	}

	contacts := make([]*domain.Contact, 0, len(peerIDs))
	for _, peerID := range peerIDs {
		user, err := s.getUser(ctx, peerID)
		if err != nil {
			// A deleted account still has rows in messages; skip it.
			log.Warn("contacts: peer lookup failed", zap.String("peer_id", peerID), zap.Error(err))
			continue
		}

		unread, err := s.messages.CountUnseen(ctx, peerID, userID)
		if err != nil {
			return nil, fmt.Errorf("failed to count unseen: %w", err)
		}

		last, err := s.messages.FindLastMessage(ctx, userID, peerID)
		if err != nil {
			return nil, fmt.Errorf("failed to load last message: %w", err)
		}

		contacts = append(contacts, &domain.Contact{
			User:        user,
			UnreadCount: unread,
			LastMessage: last,
		})
	}

	return contacts, nil
}

// GetRequests returns the profiles of senders awaiting the caller's
// approval, oldest request first.
func (s *MessageService) GetRequests(ctx context.Context, userID string) ([]*domain.User, error) {
	requesterIDs, err := s.gate.PendingRequesters(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list requests: %w", err)
	}
	if len(requesterIDs) == 0 {
		return []*domain.User{}, nil
	}

	users, err := s.users.GetMany(ctx, requesterIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to load requesters: %w", err)
	}
	return users, nil
}

func (s *MessageService) AcceptRequest(ctx context.Context, userID, senderID string) error {
	return s.gate.AcceptRequest(ctx, userID, senderID)
}

func (s *MessageService) Block(ctx context.Context, userID, targetID string) error {
	if _, err := s.getUser(ctx, targetID); err != nil {
		return err
	}
	return s.gate.Block(ctx, userID, targetID)
}

// getUser reads through the profile cache.
func (s *MessageService) getUser(ctx context.Context, id string) (*domain.User, error) {
	if u, err := s.cache.Get(ctx, id); err == nil {
		return u, nil
	}

	u, err := s.users.Get(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			// A concurrent lookup may cache this profile just before the
			// account goes away; evict so it cannot outlive the row.
			if derr := s.cache.Delete(ctx, id); derr != nil {
				observability.GetLogger(ctx).Warn("user cache delete failed", zap.String("user_id", id), zap.Error(derr))
			}
		}
		return nil, err
	}

	if err := s.cache.Set(ctx, u); err != nil {
		observability.GetLogger(ctx).Warn("user cache set failed", zap.String("user_id", id), zap.Error(err))
	}
	return u, nil
}
