package client

import (
	"sync"

	"github.com/samber/lo"

	"github.com/sparrowchat/sparrow/internal/domain"
)

// ConversationPhase tracks the lifecycle of the open conversation.
type ConversationPhase int

const (
	PhaseIdle ConversationPhase = iota
	PhaseLoading
	PhaseReady
)

// ChatState is the client-side view of the account: sidebar contacts in
// most-recent-first order, per-peer unread counts, the currently open
// conversation and the live presence and typing signals. All methods are
// safe for concurrent use; the read loop and the UI share one instance.
type ChatState struct {
	mu sync.Mutex

	selfID string

	contacts []*domain.Contact
	unread   map[string]int
	online   map[string]bool
	requests []*domain.User

	openPeerID string
	phase      ConversationPhase
	messages   []*domain.Message
	pending    bool
	peerTyping bool
}

func NewChatState(selfID string) *ChatState {
	return &ChatState{
		selfID: selfID,
		unread: map[string]int{},
		online: map[string]bool{},
	}
}

// SetContacts replaces the sidebar with a fresh server snapshot.
func (s *ChatState) SetContacts(contacts []*domain.Contact) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.contacts = contacts
	s.unread = map[string]int{}
	for _, c := range contacts {
		s.unread[c.User.ID] = c.UnreadCount
	}
}

func (s *ChatState) Contacts() []*domain.Contact {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]*domain.Contact(nil), s.contacts...)
}

func (s *ChatState) Unread(peerID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.unread[peerID]
}

// OpenConversation selects a peer and resets the view ahead of the
// history load. Opening clears the peer's unread count immediately.
func (s *ChatState) OpenConversation(peerID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.openPeerID = peerID
	s.phase = PhaseLoading
	s.messages = nil
	s.pending = false
	s.peerTyping = false
	s.unread[peerID] = 0
}

// ConversationLoaded installs the fetched history and marks the
// conversation ready. A response for a peer no longer open is ignored.
func (s *ChatState) ConversationLoaded(peerID string, msgs []*domain.Message, requestPending bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.openPeerID != peerID {
		return
	}
	s.messages = msgs
	s.pending = requestPending
	s.phase = PhaseReady
}

func (s *ChatState) Phase() ConversationPhase {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.phase
}

func (s *ChatState) Messages() []*domain.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]*domain.Message(nil), s.messages...)
}

func (s *ChatState) IsRequestPending() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pending
}

// ApplyNewMessage folds a pushed message into the sidebar and, when its
// conversation is the open one, into the message list. Incoming messages
// for a closed conversation bump the peer's unread count instead.
func (s *ChatState) ApplyNewMessage(msg *domain.Message) {
	s.mu.Lock()
	defer s.mu.Unlock()

	otherID := msg.SenderID
	if otherID == s.selfID {
		otherID = msg.ReceiverID
	}

	s.moveContactToFront(otherID)

	open := s.openPeerID != "" && msg.Between(s.selfID, s.openPeerID)
	if open {
		s.messages = append(s.messages, msg)
		s.unread[otherID] = 0
		return
	}
	// Only messages addressed to us count as unread. Own sends to a
	// closed conversation just reorder the sidebar.
	if msg.ReceiverID == s.selfID {
		s.unread[otherID]++
	}
}

// ApplySeen flips every own message to the given peer to seen.
func (s *ChatState) ApplySeen(from string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, m := range s.messages {
		if m.SenderID == s.selfID && m.ReceiverID == from {
			m.Seen = true
		}
	}
}

func (s *ChatState) SetOnline(userIDs []string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.online = map[string]bool{}
	for _, id := range userIDs {
		s.online[id] = true
	}
}

func (s *ChatState) IsOnline(userID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.online[userID]
}

// SetPeerTyping toggles the typing indicator for the open conversation.
func (s *ChatState) SetPeerTyping(typing bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.peerTyping = typing
}

func (s *ChatState) PeerTyping() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.peerTyping
}

func (s *ChatState) SetRequests(users []*domain.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.requests = users
}

// RemoveRequest drops a requester locally after an accept or block.
func (s *ChatState) RemoveRequest(userID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.requests = lo.Filter(s.requests, func(u *domain.User, _ int) bool {
		return u.ID != userID
	})
}

func (s *ChatState) Requests() []*domain.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]*domain.User(nil), s.requests...)
}

// moveContactToFront reorders the sidebar after activity. Callers hold
// the lock. An unknown peer is left for the next full contacts refresh.
func (s *ChatState) moveContactToFront(peerID string) {
	for i, c := range s.contacts {
		if c.User.ID == peerID {
			contact := s.contacts[i]
			s.contacts = append(s.contacts[:i], s.contacts[i+1:]...)
			s.contacts = append([]*domain.Contact{contact}, s.contacts...)
			return
		}
	}
}
