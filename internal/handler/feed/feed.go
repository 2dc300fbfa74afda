// Package feed streams campaign events to browsers over WebSocket.
package feed

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"nhooyr.io/websocket"
)

// Source hands out per-campaign event channels.
type Source interface {
	Subscribe(campaignID string) chan []byte
	Unsubscribe(campaignID string, ch chan []byte)
}

// Authorizer resolves the token query parameter to a user allowed to follow
// the campaign. It returns an error otherwise.
type Authorizer func(ctx context.Context, token, campaignID string) (userID string, err error)

// Gauge tracks open connections; a prometheus.Gauge satisfies it.
type Gauge interface {
	Inc()
	Dec()
}

type Handler struct {
	source    Source
	authorize Authorizer
	open      Gauge
	logger    *slog.Logger
	ping      time.Duration
}

func NewHandler(logger *slog.Logger, source Source, authorize Authorizer, open Gauge) *Handler {
	return &Handler{
		source:    source,
		authorize: authorize,
		open:      open,
		logger:    logger,
		ping:      30 * time.Second,
	}
}

func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/campaigns/{id}", h.stream)
	return r
}

func (h *Handler) stream(w http.ResponseWriter, r *http.Request) {
	campaignID := chi.URLParam(r, "id")
	token := r.URL.Query().Get("token")
	if token == "" {
		http.Error(w, "token query parameter required", http.StatusUnauthorized)
		return
	}
	userID, err := h.authorize(r.Context(), token, campaignID)
	if err != nil {
		h.logger.Debug("feed rejected", "campaign_id", campaignID, "error", err)
		http.Error(w, "not allowed to follow this campaign", http.StatusForbidden)
		return
	}

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		InsecureSkipVerify: true,
	})
	if err != nil {
		h.logger.Error("websocket accept failed", "error", err)
		return
	}
	defer conn.CloseNow()

	h.open.Inc()
	defer h.open.Dec()

	ch := h.source.Subscribe(campaignID)
	defer h.source.Unsubscribe(campaignID, ch)

	// The feed is one-way; CloseRead discards client frames and cancels ctx
	// once the peer goes away.
	ctx := conn.CloseRead(r.Context())

	ping := time.NewTicker(h.ping)
	defer ping.Stop()

	h.logger.Debug("feed opened", "campaign_id", campaignID, "user_id", userID)
	for {
		select {
		case <-ctx.Done():
			h.logger.Debug("feed closed", "campaign_id", campaignID, "user_id", userID)
			return
		case data := <-ch:
			if err := write(ctx, conn, data); err != nil {
				h.logger.Debug("websocket write failed", "error", err)
				return
			}
		case <-ping.C:
			pctx, cancel := context.WithTimeout(ctx, 5*time.Second)
			err := conn.Ping(pctx)
			cancel()
			if err != nil && !errors.Is(err, context.Canceled) {
				h.logger.Debug("websocket ping failed", "error", err)
				return
			}
		}
	}
}

func write(ctx context.Context, conn *websocket.Conn, data []byte) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	return conn.Write(ctx, websocket.MessageText, data)
}
