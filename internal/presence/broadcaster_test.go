package presence

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sparrowchat/sparrow/internal/ws"
)

func drainSnapshot(t *testing.T, s *ws.Session) []string {
	t.Helper()

	var raw []byte
	for {
		select {
		case b := <-s.SendQueue:
			raw = b
		default:
			require.NotNil(t, raw, "no snapshot queued for %s", s.UserID)
			env, err := ws.Decode(raw)
			require.NoError(t, err)
			require.Equal(t, ws.EventOnlineUsers, env.Event)

			var online []string
			require.NoError(t, json.Unmarshal(env.Data, &online))
			return online
		}
	}
}

func TestBroadcaster_SnapshotOnConnect(t *testing.T) {
	r := ws.NewRegistry()
	NewBroadcaster(r)

	alice := ws.NewSession("sid-1", "alice", nil)
	r.Add(alice)

	bob := ws.NewSession("sid-2", "bob", nil)
	r.Add(bob)

	// Both sessions end up with the same final picture.
	assert.ElementsMatch(t, []string{"alice", "bob"}, drainSnapshot(t, alice))
	assert.ElementsMatch(t, []string{"alice", "bob"}, drainSnapshot(t, bob))
}

func TestBroadcaster_SnapshotOnDisconnect(t *testing.T) {
	r := ws.NewRegistry()
	NewBroadcaster(r)

	alice := ws.NewSession("sid-1", "alice", nil)
	bob := ws.NewSession("sid-2", "bob", nil)
	r.Add(alice)
	r.Add(bob)

	r.Remove(bob)

	assert.ElementsMatch(t, []string{"alice"}, drainSnapshot(t, alice))
}
