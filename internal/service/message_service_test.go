package service

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sparrowchat/sparrow/internal/domain"
	"github.com/sparrowchat/sparrow/internal/gate"
	"github.com/sparrowchat/sparrow/internal/ws"
)

// memMessages is a behavior-faithful in-memory MessageStore. It also
// serves as the gate's history store.
type memMessages struct {
	mu   sync.Mutex
	msgs []*domain.Message
}

func (m *memMessages) Save(ctx context.Context, msg *domain.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.msgs = append(m.msgs, msg)
	return nil
}

func (m *memMessages) FindConversation(ctx context.Context, a, b string) ([]*domain.Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*domain.Message
	for _, msg := range m.msgs {
		if msg.Between(a, b) {
			c := *msg
			out = append(out, &c)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (m *memMessages) ExistsBetween(ctx context.Context, a, b string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, msg := range m.msgs {
		if msg.Between(a, b) {
			return true, nil
		}
	}
	return false, nil
}

func (m *memMessages) MarkSeen(ctx context.Context, senderID, receiverID string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for _, msg := range m.msgs {
		if msg.SenderID == senderID && msg.ReceiverID == receiverID && !msg.Seen {
			msg.Seen = true
			n++
		}
	}
	return n, nil
}

func (m *memMessages) FindLastMessage(ctx context.Context, a, b string) (*domain.Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var last *domain.Message
	for _, msg := range m.msgs {
		if msg.Between(a, b) && (last == nil || msg.CreatedAt.After(last.CreatedAt)) {
			last = msg
		}
	}
	if last == nil {
		return nil, nil
	}
	c := *last
	return &c, nil
}

func (m *memMessages) CountUnseen(ctx context.Context, senderID, receiverID string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, msg := range m.msgs {
		if msg.SenderID == senderID && msg.ReceiverID == receiverID && !msg.Seen {
			n++
		}
	}
	return n, nil
}

func (m *memMessages) PeerIDs(ctx context.Context, userID string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	latest := map[string]time.Time{}
	for _, msg := range m.msgs {
		var peer string
		switch userID {
		case msg.SenderID:
			peer = msg.ReceiverID
		case msg.ReceiverID:
			peer = msg.SenderID
		default:
			continue
		}
		if msg.CreatedAt.After(latest[peer]) {
			latest[peer] = msg.CreatedAt
		}
	}
	peers := make([]string, 0, len(latest))
	for p := range latest {
		peers = append(peers, p)
	}
	sort.Slice(peers, func(i, j int) bool { return latest[peers[i]].After(latest[peers[j]]) })
	return peers, nil
}

// seed inserts a message directly, bypassing the gate.
func (m *memMessages) seed(sender, receiver, text string, seen bool, at time.Time) {
	m.msgs = append(m.msgs, &domain.Message{
		ID: "seed-" + text, SenderID: sender, ReceiverID: receiver,
		Text: text, Seen: seen, CreatedAt: at,
	})
}

type memUsers struct{ users map[string]*domain.User }

func (m *memUsers) Get(ctx context.Context, id string) (*domain.User, error) {
	u, ok := m.users[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	return u, nil
}

func (m *memUsers) GetMany(ctx context.Context, ids []string) ([]*domain.User, error) {
	var out []*domain.User
	for _, id := range ids {
		if u, ok := m.users[id]; ok {
			out = append(out, u)
		}
	}
	return out, nil
}

func (m *memUsers) Search(ctx context.Context, q string, limit int) ([]*domain.User, error) {
	var out []*domain.User
	for _, u := range m.users {
		out = append(out, u)
	}
	return out, nil
}

type nopCache struct{ deleted []string }

func (*nopCache) Get(ctx context.Context, id string) (*domain.User, error) {
	return nil, errors.New("miss")
}
func (*nopCache) Set(ctx context.Context, u *domain.User) error { return nil }
func (c *nopCache) Delete(ctx context.Context, id string) error {
	c.deleted = append(c.deleted, id)
	return nil
}

type memBlocks struct{ blocked map[[2]string]bool }

func newMemBlocks() *memBlocks { return &memBlocks{blocked: map[[2]string]bool{}} }

func (m *memBlocks) Add(ctx context.Context, userID, blockedUserID string) error {
	m.blocked[[2]string{userID, blockedUserID}] = true
	return nil
}

func (m *memBlocks) Exists(ctx context.Context, userID, blockedUserID string) (bool, error) {
	return m.blocked[[2]string{userID, blockedUserID}], nil
}

type memRequests struct{ pending map[string][]string }

func newMemRequests() *memRequests { return &memRequests{pending: map[string][]string{}} }

func (m *memRequests) Add(ctx context.Context, ownerID, requesterID string) error {
	for _, r := range m.pending[ownerID] {
		if r == requesterID {
			return nil
		}
	}
	m.pending[ownerID] = append(m.pending[ownerID], requesterID)
	return nil
}

func (m *memRequests) Remove(ctx context.Context, ownerID, requesterID string) error {
	out := m.pending[ownerID][:0]
	for _, r := range m.pending[ownerID] {
		if r != requesterID {
			out = append(out, r)
		}
	}
	m.pending[ownerID] = out
	return nil
}

func (m *memRequests) Exists(ctx context.Context, ownerID, requesterID string) (bool, error) {
	for _, r := range m.pending[ownerID] {
		if r == requesterID {
			return true, nil
		}
	}
	return false, nil
}

func (m *memRequests) List(ctx context.Context, ownerID string) ([]string, error) {
	return m.pending[ownerID], nil
}

type delivered struct {
	event   string
	data    any
	targets []string
}

type capturingRouter struct{ calls []delivered }

func (r *capturingRouter) Deliver(ctx context.Context, event string, data any, targets ...string) {
	r.calls = append(r.calls, delivered{event: event, data: data, targets: targets})
}

type fakeMedia struct{ uploads int }

func (f *fakeMedia) Upload(ctx context.Context, dataURL string) (string, error) {
	f.uploads++
	return "http://localhost:8080/media/fake.png", nil
}

type fixture struct {
	svc      *MessageService
	messages *memMessages
	router   *capturingRouter
	media    *fakeMedia
	cache    *nopCache
}

func newFixture(userIDs ...string) *fixture {
	users := &memUsers{users: map[string]*domain.User{}}
	for _, id := range userIDs {
		users.users[id] = &domain.User{ID: id, FullName: id, Email: id + "@example.com"}
	}

	messages := &memMessages{}
	router := &capturingRouter{}
	fm := &fakeMedia{}
	c := &nopCache{}
	g := gate.New(newMemBlocks(), newMemRequests(), messages)

	return &fixture{
		svc:      NewMessageService(messages, users, c, g, fm, router),
		messages: messages,
		router:   router,
		media:    fm,
		cache:    c,
	}
}

func TestSend_FirstContactQueuesRequest(t *testing.T) {
	f := newFixture("alice", "bob")

	res, err := f.svc.Send(context.Background(), "alice", "bob", "hi", "")
	require.NoError(t, err)

	assert.True(t, res.Queued)
	assert.Nil(t, res.Message)
	assert.Empty(t, f.messages.msgs, "queued sends must not persist")
	assert.Empty(t, f.router.calls, "queued sends must not push events")
}

func TestSend_WithHistoryDelivers(t *testing.T) {
	f := newFixture("alice", "bob")
	f.messages.seed("bob", "alice", "hey", true, time.Now().Add(-time.Hour))

	res, err := f.svc.Send(context.Background(), "alice", "bob", "hi back", "")
	require.NoError(t, err)

	require.NotNil(t, res.Message)
	assert.False(t, res.Queued)
	assert.Equal(t, "alice", res.Message.SenderID)
	assert.Equal(t, "hi back", res.Message.Text)
	assert.Len(t, f.messages.msgs, 2)

	require.Len(t, f.router.calls, 1)
	assert.Equal(t, ws.EventNewMessage, f.router.calls[0].event)
	assert.Equal(t, []string{"bob"}, f.router.calls[0].targets)
}

func TestSend_BlockedReceiverRejects(t *testing.T) {
	f := newFixture("alice", "bob")
	f.messages.seed("bob", "alice", "hey", true, time.Now().Add(-time.Hour))

	require.NoError(t, f.svc.Block(context.Background(), "bob", "alice"))

	_, err := f.svc.Send(context.Background(), "alice", "bob", "hello?", "")
	assert.ErrorIs(t, err, domain.ErrBlocked)
	assert.Len(t, f.messages.msgs, 1)
}

func TestSend_SelfAndUnknownReceiver(t *testing.T) {
	f := newFixture("alice")

	_, err := f.svc.Send(context.Background(), "alice", "alice", "note", "")
	assert.ErrorIs(t, err, domain.ErrSelfMessage)

	_, err = f.svc.Send(context.Background(), "alice", "ghost", "hello", "")
	assert.ErrorIs(t, err, domain.ErrUserNotFound)
	assert.Equal(t, []string{"ghost"}, f.cache.deleted,
		"a missing account evicts any cached profile")
}

func TestSend_ImageUpload(t *testing.T) {
	f := newFixture("alice", "bob")
	f.messages.seed("bob", "alice", "hey", true, time.Now().Add(-time.Hour))

	res, err := f.svc.Send(context.Background(), "alice", "bob", "", "data:image/png;base64,QUJD")
	require.NoError(t, err)

	assert.Equal(t, 1, f.media.uploads)
	assert.Equal(t, "http://localhost:8080/media/fake.png", res.Message.Image)
	assert.Empty(t, res.Message.Text)
}

func TestGetConversation_MarksSeenAndNotifiesOnce(t *testing.T) {
	f := newFixture("alice", "bob")
	base := time.Now().Add(-time.Hour)
	f.messages.seed("bob", "alice", "one", false, base)
	f.messages.seed("bob", "alice", "two", false, base.Add(time.Minute))

	conv, err := f.svc.GetConversation(context.Background(), "alice", "bob")
	require.NoError(t, err)
	require.Len(t, conv.Messages, 2)
	assert.Equal(t, "one", conv.Messages[0].Text)

	require.Len(t, f.router.calls, 1)
	assert.Equal(t, ws.EventMessagesSeen, f.router.calls[0].event)
	assert.Equal(t, ws.SeenPayload{From: "alice"}, f.router.calls[0].data)
	assert.Equal(t, []string{"bob"}, f.router.calls[0].targets)

	// A reload with nothing unseen stays silent.
	_, err = f.svc.GetConversation(context.Background(), "alice", "bob")
	require.NoError(t, err)
	assert.Len(t, f.router.calls, 1)
}

func TestGetConversation_ReportsPendingRequest(t *testing.T) {
	f := newFixture("alice", "bob")

	_, err := f.svc.Send(context.Background(), "alice", "bob", "hi", "")
	require.NoError(t, err)

	conv, err := f.svc.GetConversation(context.Background(), "alice", "bob")
	require.NoError(t, err)
	assert.True(t, conv.IsRequestPending)
	assert.Empty(t, conv.Messages)
}

func TestGetContacts_OrderAndCounts(t *testing.T) {
	f := newFixture("alice", "bob", "carol")
	base := time.Now().Add(-time.Hour)
	f.messages.seed("bob", "alice", "old", false, base)
	f.messages.seed("carol", "alice", "newer", false, base.Add(10*time.Minute))
	f.messages.seed("carol", "alice", "newest", false, base.Add(20*time.Minute))

	contacts, err := f.svc.GetContacts(context.Background(), "alice")
	require.NoError(t, err)
	require.Len(t, contacts, 2)

	assert.Equal(t, "carol", contacts[0].User.ID)
	assert.Equal(t, 2, contacts[0].UnreadCount)
	assert.Equal(t, "newest", contacts[0].LastMessage.Text)

	assert.Equal(t, "bob", contacts[1].User.ID)
	assert.Equal(t, 1, contacts[1].UnreadCount)
}

func TestRequestLifecycle(t *testing.T) {
	f := newFixture("alice", "bob")

	_, err := f.svc.Send(context.Background(), "alice", "bob", "hi", "")
	require.NoError(t, err)

	reqs, err := f.svc.GetRequests(context.Background(), "bob")
	require.NoError(t, err)
	require.Len(t, reqs, 1)
	assert.Equal(t, "alice", reqs[0].ID)

	require.NoError(t, f.svc.AcceptRequest(context.Background(), "bob", "alice"))

	reqs, err = f.svc.GetRequests(context.Background(), "bob")
	require.NoError(t, err)
	assert.Empty(t, reqs)

	// Acceptance alone does not open the lane; alice is re-queued until
	// bob replies first.
	res, err := f.svc.Send(context.Background(), "alice", "bob", "again", "")
	require.NoError(t, err)
	assert.True(t, res.Queued)

	res, err = f.svc.Send(context.Background(), "bob", "alice", "hey alice", "")
	require.NoError(t, err)
	require.NotNil(t, res.Message)

	res, err = f.svc.Send(context.Background(), "alice", "bob", "finally", "")
	require.NoError(t, err)
	require.NotNil(t, res.Message)
}

func TestBlock_UnknownTarget(t *testing.T) {
	f := newFixture("alice")

	err := f.svc.Block(context.Background(), "alice", "ghost")
	assert.ErrorIs(t, err, domain.ErrUserNotFound)
}
