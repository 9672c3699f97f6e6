package middleware

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/httprate"
	"go.uber.org/zap"

	"github.com/sparrowchat/sparrow/internal/observability"
)

const defaultRateWindow = time.Minute

// RateLimit caps requests per client IP. The window comes from config as
// a duration string; a bad value falls back to one minute rather than
// leaving the API unthrottled.
func RateLimit(requests int, window string) func(next http.Handler) http.Handler {
	d, err := time.ParseDuration(window)
	if err != nil {
		observability.GetLogger(context.Background()).Warn("rate limit: bad window, using default",
			zap.String("window", window), zap.Error(err))
		d = defaultRateWindow
	}

	return httprate.LimitByIP(requests, d)
}
