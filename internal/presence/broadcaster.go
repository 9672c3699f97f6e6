package presence

import (
	"context"

	"go.uber.org/zap"

	"github.com/sparrowchat/sparrow/internal/observability"
	"github.com/sparrowchat/sparrow/internal/ws"
)

// Broadcaster pushes the full online-user snapshot to every connected
// session each time registry membership changes. Clients replace their
// whole online set on receipt, so a missed update heals on the next one.
type Broadcaster struct {
	registry *ws.Registry
}

func NewBroadcaster(registry *ws.Registry) *Broadcaster {
	b := &Broadcaster{registry: registry}
	registry.SetOnChange(b.broadcast)
	return b
}

func (b *Broadcaster) broadcast() {
	online := b.registry.OnlineUsers()

	payload, err := ws.Encode(ws.EventOnlineUsers, online)
	if err != nil {
		observability.GetLogger(context.Background()).Error("presence: encode online snapshot", zap.Error(err))
		return
	}

	for _, s := range b.registry.Sessions() {
		s.TrySend(payload)
	}
}
