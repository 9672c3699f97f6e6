package ws

import (
	"context"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recordingTracker logs presence calls in order so tests can assert on
// the register/unregister sequence.
type recordingTracker struct {
	mu     sync.Mutex
	events []string
}

func (r *recordingTracker) record(kind, userID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, kind+":"+userID)
}

func (r *recordingTracker) snapshot() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.events...)
}

func (r *recordingTracker) Register(_ context.Context, userID string) error {
	r.record("register", userID)
	return nil
}

func (r *recordingTracker) Unregister(_ context.Context, userID string) error {
	r.record("unregister", userID)
	return nil
}

func (r *recordingTracker) Refresh(context.Context, string) error { return nil }

type nopSender struct{}

func (nopSender) Deliver(context.Context, string, any, ...string) {}

func dialWS(t *testing.T, serverURL, token string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(serverURL, "http") + "?token=" + token
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	return conn
}

// A reconnect replaces the old session; the old session's teardown must
// not unregister the user from the shared presence store while the new
// connection is still live.
func TestHandler_ReplacedSessionKeepsPresence(t *testing.T) {
	registry := NewRegistry()
	tracker := &recordingTracker{}
	h := NewHandler(registry, tracker, nopSender{}, func(token string) (string, error) {
		return token, nil
	})

	srv := httptest.NewServer(h)
	defer srv.Close()

	first := dialWS(t, srv.URL, "alice")
	defer first.Close()
	second := dialWS(t, srv.URL, "alice")
	defer second.Close()

	// The server closes the first connection on replacement; drain it
	// until the close surfaces, then let its handler finish tearing down.
	for {
		if _, _, err := first.ReadMessage(); err != nil {
			break
		}
	}
	time.Sleep(100 * time.Millisecond)

	require.NotNil(t, registry.Lookup("alice"), "replacement session must survive the stale teardown")
	assert.Equal(t, []string{"register:alice", "register:alice"}, tracker.snapshot())

	// Closing the surviving connection is a real disconnect and does
	// unregister.
	require.NoError(t, second.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")))
	assert.Eventually(t, func() bool {
		events := tracker.snapshot()
		return len(events) == 3 && events[2] == "unregister:alice"
	}, 2*time.Second, 20*time.Millisecond)
	assert.Nil(t, registry.Lookup("alice"))
}
