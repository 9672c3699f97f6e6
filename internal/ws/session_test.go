package ws

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSession_TrySendQueues(t *testing.T) {
	s := NewSession("sid-1", "alice", nil)

	assert.True(t, s.TrySend([]byte(`{"event":"x"}`)))
	assert.Len(t, s.SendQueue, 1)
}

func TestSession_BackpressureClosesSession(t *testing.T) {
	s := NewSession("sid-1", "alice", nil)

	for i := 0; i < SendQueueSize; i++ {
		if !s.TrySend([]byte("payload")) {
			t.Fatalf("send %d rejected before the queue filled", i)
		}
	}

	// One past capacity drops the connection instead of blocking.
	assert.False(t, s.TrySend([]byte("overflow")))

	select {
	case <-s.Done():
	default:
		t.Fatal("overflowing session was not closed")
	}

	assert.False(t, s.TrySend([]byte("after close")), "closed session accepts no sends")
}

func TestSession_CloseIsIdempotent(t *testing.T) {
	s := NewSession("sid-1", "alice", nil)

	s.Close()
	s.Close()
	s.CloseWithReason(4000, "again")

	select {
	case <-s.Done():
	default:
		t.Fatal("done channel not closed")
	}
}
