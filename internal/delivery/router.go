// Package delivery routes events to live sessions in-process. A target
// without a session is simply skipped; clients reconcile missed events
// over HTTP when they next load a conversation.
package delivery

import (
	"context"

	"go.uber.org/zap"

	"github.com/sparrowchat/sparrow/internal/observability"
	"github.com/sparrowchat/sparrow/internal/ws"
)

type Router struct {
	registry *ws.Registry
}

func NewRouter(registry *ws.Registry) *Router {
	return &Router{registry: registry}
}

// Deliver fans an event out to each target's live session, if any. Encoding
// happens once; a payload that cannot be marshaled is a programming error
// and is logged, not returned, so callers never fail a write over it.
func (r *Router) Deliver(ctx context.Context, event string, data any, targets ...string) {
	log := observability.GetLogger(ctx)

	payload, err := ws.Encode(event, data)
	if err != nil {
		log.Error("delivery: encode event", zap.String("event", event), zap.Error(err))
		return
	}

	for _, userID := range targets {
		s := r.registry.Lookup(userID)
		if s == nil {
			observability.EventsDroppedTotal.WithLabelValues(event, "offline").Inc()
			continue
		}

		if s.TrySend(payload) {
			observability.EventsDeliveredTotal.WithLabelValues(event).Inc()
		} else {
			observability.EventsDroppedTotal.WithLabelValues(event, "backpressure").Inc()
			log.Warn("delivery: session not draining",
				zap.String("event", event), zap.String("user_id", userID))
		}
	}
}
