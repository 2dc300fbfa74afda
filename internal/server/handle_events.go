package server

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/nightcity/redsheet/internal/apperr"
)

// handleEvents streams campaign events as Server-Sent Events. EventSource
// cannot send headers, so the access token travels in ?token=.
func handleEvents(logger *slog.Logger, deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		campaignID := chi.URLParam(r, "id")
		token := r.URL.Query().Get("token")
		if token == "" {
			writeError(w, http.StatusUnauthorized, apperr.CodeUnauthenticated, "token query parameter required")
			return
		}
		userID, err := deps.Accounts.Authenticate(token)
		if err != nil {
			writeFailure(w, r, logger, err)
			return
		}
		if err := deps.Campaigns.Authorize(r.Context(), campaignID, userID); err != nil {
			writeFailure(w, r, logger, err)
			return
		}

		flusher, ok := w.(http.Flusher)
		if !ok {
			writeError(w, http.StatusInternalServerError, "INTERNAL", "streaming not supported")
			return
		}

		w.Header().Set("Content-Type", "text/event-stream")
		w.Header().Set("Cache-Control", "no-cache")
		w.Header().Set("Connection", "keep-alive")
		w.Header().Set("X-Accel-Buffering", "no")
		w.WriteHeader(http.StatusOK)
		flusher.Flush()

		ch := deps.Broker.Subscribe(campaignID)
		defer deps.Broker.Unsubscribe(campaignID, ch)
		if deps.Metrics != nil {
			g := deps.Metrics.FeedConnections.WithLabelValues("sse")
			g.Inc()
			defer g.Dec()
		}

		ping := time.NewTicker(30 * time.Second)
		defer ping.Stop()

		for {
			select {
			case <-r.Context().Done():
				return
			case data := <-ch:
				fmt.Fprintf(w, "event: campaign\ndata: %s\n\n", data)
				flusher.Flush()
			case <-ping.C:
				fmt.Fprintf(w, ": ping\n\n")
				flusher.Flush()
			}
		}
	}
}
